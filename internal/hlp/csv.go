// filename: internal/hlp/csv.go
package hlp

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/sjson"
)

// NewCSVParser возвращает парсер строки CSV в объект с заданными полями.
// Числовые колонки записываются числами.
func NewCSVParser(fields []string) (Parser, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one field name is required")
	}
	for _, field := range fields {
		if field == "" {
			return nil, fmt.Errorf("empty field name")
		}
	}

	return func(input string) (string, error) {
		reader := csv.NewReader(strings.NewReader(input))
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		record, err := reader.Read()
		if err != nil {
			return "", fmt.Errorf("invalid CSV: %w", err)
		}
		if len(record) != len(fields) {
			return "", fmt.Errorf("expected %d columns but got %d", len(fields), len(record))
		}

		result := "{}"
		for i, field := range fields {
			result, err = sjson.SetRaw(result, escapeKey(field), typedValue(record[i]))
			if err != nil {
				return "", err
			}
		}
		return result, nil
	}, nil
}

// typedValue кодирует колонку как целое, число или строку
func typedValue(value string) string {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return value
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && strings.ContainsAny(value, ".eE") {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return quote(value)
}

func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
