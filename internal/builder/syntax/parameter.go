// filename: internal/builder/syntax/parameter.go
package syntax

import (
	"fmt"
	"strings"

	"github.com/novasec/engine/internal/common/errors"
)

const (
	// ReferenceSigil помечает ссылку на поле события
	ReferenceSigil = '$'
	// HelperPrefix помечает вызов хелпера
	HelperPrefix = '+'
	// ParameterSeparator разделяет имя хелпера и параметры
	ParameterSeparator = '/'
	// EscapeChar экранирует разделитель и сам себя
	EscapeChar = '\\'
)

// ParameterKind тип параметра хелпера
type ParameterKind int

const (
	// ParameterValue литеральное значение
	ParameterValue ParameterKind = iota
	// ParameterReference ссылка на поле события
	ParameterReference
)

// String возвращает имя типа параметра
func (k ParameterKind) String() string {
	switch k {
	case ParameterValue:
		return "value"
	case ParameterReference:
		return "reference"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Parameter представляет параметр хелпера. Для ссылок Value содержит
// канонический путь к полю ("/a/b").
type Parameter struct {
	Kind  ParameterKind
	Value string
}

// IsReference проверяет, является ли параметр ссылкой
func (p Parameter) IsReference() bool {
	return p.Kind == ParameterReference
}

// String возвращает детерминированное представление для имен термов
func (p Parameter) String() string {
	if p.IsReference() {
		return string(ReferenceSigil) + p.Value
	}
	return p.Value
}

// Classify классифицирует сырой параметр как значение или ссылку // v1.0
func Classify(raw string) (Parameter, error) {
	if raw == "" || raw[0] != ReferenceSigil {
		return Parameter{Kind: ParameterValue, Value: raw}, nil
	}

	path, err := FieldPath(raw[1:])
	if err != nil {
		return Parameter{}, errors.Newf(errors.ErrorCodeReferenceInvalid,
			"invalid reference '%s': %v", raw, err)
	}
	return Parameter{Kind: ParameterReference, Value: path}, nil
}

// ClassifyAll классифицирует список сырых параметров // v1.0
func ClassifyAll(raws []string) ([]Parameter, error) {
	parameters := make([]Parameter, 0, len(raws))
	for _, raw := range raws {
		parameter, err := Classify(raw)
		if err != nil {
			return nil, err
		}
		parameters = append(parameters, parameter)
	}
	return parameters, nil
}

// FieldPath приводит путь поля к каноническому виду "/a/b".
// Принимаются точечная форма ("a.b") и форма указателя ("/a/b").
func FieldPath(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("empty field path")
	}

	if field[0] == '/' {
		if field == "/" {
			return "", fmt.Errorf("root is not addressable as a field")
		}
		for _, segment := range strings.Split(field[1:], "/") {
			if segment == "" {
				return "", fmt.Errorf("empty segment in '%s'", field)
			}
			if err := checkPointerEscapes(segment); err != nil {
				return "", fmt.Errorf("%v in '%s'", err, field)
			}
		}
		return field, nil
	}

	segments := strings.Split(field, ".")
	for i, segment := range segments {
		if segment == "" {
			return "", fmt.Errorf("empty segment in '%s'", field)
		}
		segment = strings.ReplaceAll(segment, "~", "~0")
		segments[i] = strings.ReplaceAll(segment, "/", "~1")
	}
	return "/" + strings.Join(segments, "/"), nil
}

// checkPointerEscapes проверяет, что "~" используется только в "~0" и "~1"
func checkPointerEscapes(segment string) error {
	for i := 0; i < len(segment); i++ {
		if segment[i] != '~' {
			continue
		}
		if i+1 >= len(segment) || (segment[i+1] != '0' && segment[i+1] != '1') {
			return fmt.Errorf("invalid escape '~' at position %d", i)
		}
		i++
	}
	return nil
}
