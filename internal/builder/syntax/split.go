// filename: internal/builder/syntax/split.go
package syntax

import "strings"

// SplitEscaped делит строку по разделителю с учетом экранирования.
// Экранирующий символ поглощается только перед разделителем или самим собой,
// в остальных случаях он остается в результате как есть.
func SplitEscaped(input string, separator, escape rune) []string {
	var (
		parts   []string
		current strings.Builder
		runes   = []rune(input)
	)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == escape && i+1 < len(runes) && (runes[i+1] == separator || runes[i+1] == escape) {
			current.WriteRune(runes[i+1])
			i++
			continue
		}
		if r == separator {
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}

	return append(parts, current.String())
}

// EscapeParameter экранирует разделитель и экранирующий символ // v1.0
func EscapeParameter(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r == ParameterSeparator || r == EscapeChar {
			b.WriteRune(EscapeChar)
		}
		b.WriteRune(r)
	}
	return b.String()
}
