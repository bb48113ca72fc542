// filename: internal/asset/definition.go
package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/novasec/engine/internal/common/errors"
)

// Definition описание ассета в каталоге (JSON или YAML)
type Definition struct {
	Name      string                 `yaml:"name" json:"name" validate:"required,max=255,assetname"`
	Parents   []string               `yaml:"parents,omitempty" json:"parents,omitempty" validate:"omitempty,dive,required"`
	Filters   []string               `yaml:"filters,omitempty" json:"filters,omitempty" validate:"omitempty,dive,required"`
	Metadata  map[string]interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Check     []Entry                `yaml:"check,omitempty" json:"check,omitempty" validate:"omitempty,dive"`
	Normalize []Block                `yaml:"normalize,omitempty" json:"normalize,omitempty" validate:"omitempty,dive"`
}

// Block блок нормализации: необязательная проверка и список трансформаций
type Block struct {
	Check []Entry `yaml:"check,omitempty" json:"check,omitempty" validate:"omitempty,dive"`
	Map   []Entry `yaml:"map" json:"map" validate:"required,min=1,dive"`
}

// Entry одна запись check/map: {поле: значение}
type Entry struct {
	Field string      `validate:"required"`
	Value interface{} `validate:"-"`
}

// UnmarshalYAML разбирает запись из отображения с одним ключом // v1.0
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: entry must be a map with exactly one field", node.Line)
	}

	if err := node.Content[0].Decode(&e.Field); err != nil {
		return fmt.Errorf("line %d: invalid field name: %w", node.Line, err)
	}

	var value interface{}
	if err := node.Content[1].Decode(&value); err != nil {
		return fmt.Errorf("line %d: invalid value for '%s': %w", node.Line, e.Field, err)
	}
	e.Value = normalizeYAML(value)
	return nil
}

// MarshalYAML кодирует запись обратно в отображение с одним ключом
func (e Entry) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{e.Field: e.Value}, nil
}

// UnmarshalJSON разбирает запись из объекта с одним ключом; числа
// сохраняются без потери точности.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("entry must be an object with exactly one field: %w", err)
	}
	if len(fields) != 1 {
		return fmt.Errorf("entry must be an object with exactly one field, got %d", len(fields))
	}

	for field, raw := range fields {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		var value interface{}
		if err := decoder.Decode(&value); err != nil {
			return fmt.Errorf("invalid value for '%s': %w", field, err)
		}
		e.Field = field
		e.Value = value
	}
	return nil
}

// MarshalJSON кодирует запись как {поле: значение}
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{e.Field: e.Value})
}

var validate = newValidator()

// newValidator создает валидатор с правилом assetname: имя без пробельных
// и управляющих символов.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("assetname", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if unicode.IsSpace(r) || unicode.IsControl(r) {
				return false
			}
		}
		return true
	})
	return v
}

// ParseDefinition разбирает и валидирует описание ассета // v1.0
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	var err error
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &def)
	} else {
		err = yaml.Unmarshal(data, &def)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeAssetParseFailed, "failed to decode asset definition")
	}

	if err := validate.Struct(&def); err != nil {
		novaSecErr := errors.Wrap(err, errors.ErrorCodeAssetInvalid, "asset definition is invalid")
		if def.Name != "" {
			novaSecErr.WithAsset(def.Name)
		}
		return nil, novaSecErr
	}
	return &def, nil
}

// normalizeYAML приводит map[interface{}]interface{} к виду, пригодному для JSON
func normalizeYAML(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, item := range v {
			v[key] = normalizeYAML(item)
		}
		return v
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(v))
		for key, item := range v {
			converted[fmt.Sprint(key)] = normalizeYAML(item)
		}
		return converted
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeYAML(item)
		}
		return v
	default:
		return v
	}
}
