// filename: internal/hlp/keyvalue.go
package hlp

import (
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
)

// KeyValueOptions разделители для parse_key_value
type KeyValueOptions struct {
	KeySeparator  rune
	PairSeparator rune
	Quote         rune
	Escape        rune
}

// NewKeyValueParser возвращает парсер строки "k1=v1 k2=v2" в объект // v1.0
func NewKeyValueParser(opts KeyValueOptions) (Parser, error) {
	if opts.KeySeparator == opts.PairSeparator {
		return nil, fmt.Errorf("key and pair separators must differ")
	}

	return func(input string) (string, error) {
		runes := []rune(input)
		result := "{}"
		pairs := 0

		for i := 0; i < len(runes); {
			// пропускаем повторные разделители пар
			for i < len(runes) && runes[i] == opts.PairSeparator {
				i++
			}
			if i >= len(runes) {
				break
			}

			start := i
			for i < len(runes) && runes[i] != opts.KeySeparator && runes[i] != opts.PairSeparator {
				i++
			}
			if i >= len(runes) || runes[i] != opts.KeySeparator {
				return "", fmt.Errorf("key separator %q not found after '%s'", opts.KeySeparator, string(runes[start:i]))
			}
			key := string(runes[start:i])
			if key == "" {
				return "", fmt.Errorf("empty key at position %d", start)
			}
			i++

			value, next, err := readValue(runes, i, opts)
			if err != nil {
				return "", err
			}
			i = next

			result, err = sjson.Set(result, escapeKey(key), value)
			if err != nil {
				return "", err
			}
			pairs++
		}

		if pairs == 0 {
			return "", fmt.Errorf("no key-value pairs found")
		}
		return result, nil
	}, nil
}

// readValue читает значение до разделителя пар; значение в кавычках читается
// до закрывающей кавычки.
func readValue(runes []rune, i int, opts KeyValueOptions) (string, int, error) {
	var b strings.Builder

	if i < len(runes) && runes[i] == opts.Quote {
		i++
		for ; i < len(runes); i++ {
			r := runes[i]
			if r == opts.Escape && i+1 < len(runes) {
				b.WriteRune(runes[i+1])
				i++
				continue
			}
			if r == opts.Quote {
				return b.String(), i + 1, nil
			}
			b.WriteRune(r)
		}
		return "", i, fmt.Errorf("unterminated quoted value")
	}

	for ; i < len(runes) && runes[i] != opts.PairSeparator; i++ {
		r := runes[i]
		if r == opts.Escape && i+1 < len(runes) {
			b.WriteRune(runes[i+1])
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), i, nil
}
