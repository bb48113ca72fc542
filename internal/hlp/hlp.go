// filename: internal/hlp/hlp.go
// Package hlp содержит специализированные парсеры значений полей.
// Каждый парсер принимает строку и возвращает JSON текст результата.
package hlp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/net/idna"
)

// Parser разбирает строку в JSON значение
type Parser func(input string) (string, error)

// ParseBool разбирает "true"/"false" без учета регистра // v1.0
func ParseBool(input string) (string, error) {
	switch strings.ToLower(input) {
	case "true":
		return "true", nil
	case "false":
		return "false", nil
	default:
		return "", fmt.Errorf("'%s' is not a boolean", input)
	}
}

// ParseByte разбирает целое со знаком в диапазоне [-128, 127] // v1.0
func ParseByte(input string) (string, error) {
	value, err := strconv.ParseInt(input, 10, 8)
	if err != nil {
		return "", fmt.Errorf("'%s' is not a byte", input)
	}
	return strconv.FormatInt(value, 10), nil
}

// ParseLong разбирает 64-битное целое // v1.0
func ParseLong(input string) (string, error) {
	value, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return "", fmt.Errorf("'%s' is not a long", input)
	}
	return strconv.FormatInt(value, 10), nil
}

// ParseFloat разбирает число с плавающей точкой // v1.0
func ParseFloat(input string) (string, error) {
	value, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return "", fmt.Errorf("'%s' is not a float", input)
	}
	formatted := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.ContainsAny(formatted, ".eE") {
		formatted += ".0"
	}
	return formatted, nil
}

// ParseBinary проверяет base64 и возвращает исходную строку // v1.0
func ParseBinary(input string) (string, error) {
	if _, err := base64.StdEncoding.DecodeString(input); err != nil || input == "" {
		return "", fmt.Errorf("'%s' is not valid base64", input)
	}
	return quote(input), nil
}

// ParseIP разбирает IPv4 или IPv6 адрес // v1.0
func ParseIP(input string) (string, error) {
	address, err := netip.ParseAddr(input)
	if err != nil {
		return "", fmt.Errorf("'%s' is not an IP address", input)
	}
	return quote(address.String()), nil
}

var fqdnProfile = idna.New(
	idna.MapForLookup(),
	idna.VerifyDNSLength(true),
	idna.Transitional(false),
)

// ParseFQDN проверяет полное доменное имя // v1.0
func ParseFQDN(input string) (string, error) {
	name := strings.TrimSuffix(input, ".")
	if name == "" || len(name) > 253 {
		return "", fmt.Errorf("'%s' is not a valid FQDN", input)
	}
	ascii, err := fqdnProfile.ToASCII(name)
	if err != nil {
		return "", fmt.Errorf("'%s' is not a valid FQDN: %v", input, err)
	}
	for _, label := range strings.Split(ascii, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return "", fmt.Errorf("'%s' is not a valid FQDN", input)
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '-' && r != '_' {
				return "", fmt.Errorf("'%s' is not a valid FQDN", input)
			}
		}
	}
	return quote(input), nil
}

// ParseJSON проверяет и сжимает JSON документ // v1.0
func ParseJSON(input string) (string, error) {
	if !gjson.Valid(input) {
		return "", fmt.Errorf("invalid JSON")
	}
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, []byte(input)); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return compacted.String(), nil
}

// ParseUserAgent возвращает объект user_agent // v1.0
func ParseUserAgent(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("empty user agent")
	}
	return sjson.Set("{}", "user_agent.original", input)
}

// ParseFile разбирает путь к файлу на диск, каталог, имя и расширение // v1.0
func ParseFile(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("empty file path")
	}

	result := "{}"
	var err error
	set := func(key, value string) {
		if err == nil && value != "" {
			result, err = sjson.Set(result, key, value)
		}
	}

	separator := "/"
	if strings.Contains(input, `\`) {
		separator = `\`
	}
	if len(input) >= 2 && input[1] == ':' && isLetter(input[0]) {
		set("drive_letter", strings.ToUpper(input[:1]))
	}

	name := input
	if i := strings.LastIndex(input, separator); i >= 0 {
		set("path", input[:i])
		name = input[i+1:]
	}
	set("name", name)
	if i := strings.LastIndex(name, "."); i > 0 && i < len(name)-1 {
		set("ext", name[i+1:])
	}
	return result, err
}

// ParseBetween извлекает подстроку между start и end // v1.0
func ParseBetween(input, start, end string) (string, error) {
	begin := strings.Index(input, start)
	if begin < 0 {
		return "", fmt.Errorf("start '%s' not found", start)
	}
	rest := input[begin+len(start):]
	finish := strings.Index(rest, end)
	if finish < 0 {
		return "", fmt.Errorf("end '%s' not found", end)
	}
	return quote(rest[:finish]), nil
}

// ParseQuoted извлекает строку в кавычках с учетом экранирования // v1.0
func ParseQuoted(input string, quoteChar, escapeChar rune) (string, error) {
	runes := []rune(input)
	if len(runes) < 2 || runes[0] != quoteChar {
		return "", fmt.Errorf("value does not start with quote %q", quoteChar)
	}

	var b strings.Builder
	for i := 1; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == escapeChar && i+1 < len(runes) && (runes[i+1] == quoteChar || runes[i+1] == escapeChar):
			b.WriteRune(runes[i+1])
			i++
		case r == quoteChar:
			return quote(b.String()), nil
		default:
			b.WriteRune(r)
		}
	}
	return "", fmt.Errorf("unterminated quoted string")
}

func quote(value string) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
