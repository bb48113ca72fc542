// filename: internal/hlp/date.go
package hlp

import (
	"fmt"
	"strings"
	"time"
)

// DateOutputLayout формат результата parse_date
const DateOutputLayout = "2006-01-02T15:04:05.000Z"

var strftimeLayouts = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'T': "15:04:05",
	'D': "01/02/06",
	'F': "2006-01-02",
	'R': "15:04",
	'%': "%",
}

// DateLayout переводит формат strftime в формат пакета time // v1.0
func DateLayout(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("empty date format")
	}

	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("dangling '%%' in format '%s'", format)
		}
		layout, ok := strftimeLayouts[format[i+1]]
		if !ok {
			return "", fmt.Errorf("unsupported directive '%%%c' in format '%s'", format[i+1], format)
		}
		b.WriteString(layout)
		i++
	}
	return b.String(), nil
}

// CheckLocale проверяет, что локаль поддерживается. Названия месяцев
// и дней разбираются только на английском.
func CheckLocale(locale string) error {
	if locale == "" || locale == "C" || locale == "POSIX" || strings.HasPrefix(locale, "en") {
		return nil
	}
	return fmt.Errorf("unsupported locale '%s'", locale)
}

// NewDateParser возвращает парсер дат для формата strftime // v1.0
func NewDateParser(format, locale string) (Parser, error) {
	layout, err := DateLayout(format)
	if err != nil {
		return nil, err
	}
	if err := CheckLocale(locale); err != nil {
		return nil, err
	}

	return func(input string) (string, error) {
		parsed, err := time.Parse(layout, input)
		if err != nil {
			return "", fmt.Errorf("'%s' does not match format '%s'", input, format)
		}
		return quote(parsed.UTC().Format(DateOutputLayout)), nil
	}, nil
}
