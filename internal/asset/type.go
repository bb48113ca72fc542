// filename: internal/asset/type.go
package asset

import (
	"fmt"
	"strings"
)

// Type тип ассета
type Type string

const (
	TypeDecoder Type = "decoder"
	TypeRule    Type = "rule"
	TypeFilter  Type = "filter"
	TypeOutput  Type = "output"
)

// Types типы ассетов в порядке стадий окружения
var Types = []Type{TypeDecoder, TypeRule, TypeOutput, TypeFilter}

// ParseType разбирает тип по имени ("decoder") или секции каталога ("decoders") // v1.0
func ParseType(value string) (Type, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, t := range Types {
		if value == string(t) || value == t.Section() {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown asset type '%s'", value)
}

// Section возвращает имя секции каталога для типа
func (t Type) Section() string {
	return string(t) + "s"
}

// RootName возвращает имя корневого узла графа типа
func (t Type) RootName() string {
	return t.Section() + "Input"
}

// IsFilter проверяет, что тип фильтр
func (t Type) IsFilter() bool {
	return t == TypeFilter
}
