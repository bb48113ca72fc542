// filename: internal/catalog/catalog.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/common/errors"
)

// Source поставляет снимки каталога для сборки окружений
type Source interface {
	Snapshot(ctx context.Context, environment string) (*Snapshot, error)
}

// Store хранилище описаний ассетов и манифестов окружений
type Store interface {
	Source

	Get(ctx context.Context, typ asset.Type, name string) ([]byte, error)
	Put(ctx context.Context, typ asset.Type, name string, data []byte) error
	Delete(ctx context.Context, typ asset.Type, name string) error
	List(ctx context.Context, typ asset.Type) ([]string, error)

	Manifest(ctx context.Context, environment string) (*Manifest, error)
	PutManifest(ctx context.Context, manifest *Manifest) error
}

// Manifest перечень ассетов окружения по секциям
type Manifest struct {
	Name     string   `yaml:"name" json:"name" validate:"required,max=255"`
	Decoders []string `yaml:"decoders,omitempty" json:"decoders,omitempty" validate:"omitempty,dive,required"`
	Rules    []string `yaml:"rules,omitempty" json:"rules,omitempty" validate:"omitempty,dive,required"`
	Outputs  []string `yaml:"outputs,omitempty" json:"outputs,omitempty" validate:"omitempty,dive,required"`
	Filters  []string `yaml:"filters,omitempty" json:"filters,omitempty" validate:"omitempty,dive,required"`
}

var validate = validator.New()

// ParseManifest разбирает манифест окружения из YAML или JSON // v1.0
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	trimmed := bytes.TrimSpace(data)

	var err error
	if len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &m)
	} else {
		err = yaml.Unmarshal(trimmed, &m)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeValidation, "failed to decode environment manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate проверяет манифест // v1.0
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Wrap(err, errors.ErrorCodeValidation, "invalid environment manifest")
	}
	return nil
}

// Names возвращает имена ассетов секции
func (m *Manifest) Names(typ asset.Type) []string {
	switch typ {
	case asset.TypeDecoder:
		return m.Decoders
	case asset.TypeRule:
		return m.Rules
	case asset.TypeOutput:
		return m.Outputs
	case asset.TypeFilter:
		return m.Filters
	default:
		return nil
	}
}

// Remove исключает ассет из секции манифеста, возвращает true если он был
func (m *Manifest) Remove(typ asset.Type, name string) bool {
	names := m.Names(typ)
	kept := names[:0]
	removed := false
	for _, n := range names {
		if n == name {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	if !removed {
		return false
	}
	switch typ {
	case asset.TypeDecoder:
		m.Decoders = kept
	case asset.TypeRule:
		m.Rules = kept
	case asset.TypeOutput:
		m.Outputs = kept
	case asset.TypeFilter:
		m.Filters = kept
	}
	return true
}

// CheckName проверяет, что имя ассета можно безопасно отобразить на путь
// хранилища: относительный путь без сегментов "." и "..".
func CheckName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return errors.ValidationError("name", "asset name must be a relative path")
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return errors.ValidationError("name", "asset name contains an empty or relative segment")
		}
	}
	if path.Clean(name) != name {
		return errors.ValidationError("name", "asset name is not canonical")
	}
	return nil
}

// resolve собирает снимок по манифесту через функцию чтения документа.
// Порядок документов: секции в порядке asset.Types, внутри секции порядок манифеста.
func resolve(ctx context.Context, m *Manifest, read func(ctx context.Context, typ asset.Type, name string) ([]byte, error)) (*Snapshot, error) {
	snapshot := NewSnapshot(m.Name)
	for _, typ := range asset.Types {
		for _, name := range m.Names(typ) {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrorCodeTimeout, "catalog snapshot cancelled")
			}
			data, err := read(ctx, typ, name)
			if err != nil {
				if nsErr, ok := errors.As(err); ok {
					return nil, nsErr.WithAsset(name)
				}
				return nil, err
			}
			snapshot.Add(typ, name, data)
		}
	}
	return snapshot, nil
}
