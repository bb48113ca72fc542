// filename: internal/asset/asset.go
package asset

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/novasec/engine/internal/builder/helpers"
	"github.com/novasec/engine/internal/builder/registry"
	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// Asset разобранный ассет. Неизменяем после Parse.
type Asset struct {
	Name     string
	Type     Type
	Parents  []string
	Filters  []string
	Metadata map[string]interface{}

	definition *Definition
	registry   *registry.Registry
}

// Parse разбирает описание ассета указанного типа и проверяет, что его
// стадии собираются // v1.0
func Parse(typ Type, data []byte, reg *registry.Registry) (*Asset, error) {
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, err
	}
	return FromDefinition(typ, def, reg)
}

// FromDefinition создает ассет из уже разобранного описания // v1.0
func FromDefinition(typ Type, def *Definition, reg *registry.Registry) (*Asset, error) {
	if typ.IsFilter() && len(def.Filters) > 0 {
		return nil, errors.New(errors.ErrorCodeAssetInvalid, "filters cannot declare filters").WithAsset(def.Name)
	}
	if len(def.Check) == 0 && len(def.Normalize) == 0 {
		return nil, errors.New(errors.ErrorCodeAssetInvalid, "asset has neither check nor normalize stage").WithAsset(def.Name)
	}

	a := &Asset{
		Name:       def.Name,
		Type:       typ,
		Parents:    dedupe(def.Parents),
		Filters:    dedupe(def.Filters),
		Metadata:   def.Metadata,
		definition: def,
		registry:   reg,
	}

	// ошибки сборки стадий проявляются при разборе
	if _, err := a.Expression(); err != nil {
		return nil, err
	}
	return a, nil
}

// Expression строит новое дерево выражения ассета. Каждый вызов возвращает
// независимое дерево, поэтому ассет можно подключить к нескольким родителям.
func (a *Asset) Expression() (*expression.Expression, error) {
	var condition, stages *expression.Expression
	var err error

	if len(a.definition.Check) > 0 {
		condition, err = a.lowerEntries(a.Name+"Condition", a.definition.Check, false)
		if err != nil {
			return nil, err
		}
	}

	if len(a.definition.Normalize) > 0 {
		blocks := make([]*expression.Expression, 0, len(a.definition.Normalize))
		for i, block := range a.definition.Normalize {
			lowered, err := a.lowerBlock(i, block)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, lowered)
		}
		stages, err = expression.NewChain(a.Name+"Normalize", blocks...)
		if err != nil {
			return nil, a.internal(err)
		}
	}

	var expr *expression.Expression
	switch {
	case condition != nil && stages != nil:
		expr, err = expression.NewImplication(a.Name, condition, stages)
	case condition != nil:
		expr, err = expression.NewChain(a.Name, condition)
	default:
		expr, err = expression.NewChain(a.Name, stages)
	}
	if err != nil {
		return nil, a.internal(err)
	}
	return expr, nil
}

// lowerBlock строит блок нормализации. Блок с проверкой выполняется только
// при ее успехе; неуспешная проверка пропускает блок.
func (a *Asset) lowerBlock(index int, block Block) (*expression.Expression, error) {
	prefix := fmt.Sprintf("%sNormalize/%d", a.Name, index)

	mapping, err := a.lowerEntries(prefix+"/map", block.Map, true)
	if err != nil {
		return nil, err
	}
	if len(block.Check) == 0 {
		return mapping, nil
	}

	check, err := a.lowerEntries(prefix+"/check", block.Check, false)
	if err != nil {
		return nil, err
	}
	gated, err := expression.NewImplication(prefix, check, mapping)
	if err != nil {
		return nil, a.internal(err)
	}

	skipName := prefix + "/skip"
	skip := expression.NewTerm(skipName, func(event *models.Event) expression.Result {
		return expression.Succeed(event, expression.SuccessTrace(skipName))
	})

	optional, err := expression.NewOr(prefix+"/optional", gated, skip)
	if err != nil {
		return nil, a.internal(err)
	}
	return optional, nil
}

// lowerEntries строит Chain из записей check или map // v1.0
func (a *Asset) lowerEntries(name string, entries []Entry, isMap bool) (*expression.Expression, error) {
	terms := make([]*expression.Expression, 0, len(entries))
	for _, entry := range entries {
		term, err := a.lowerEntry(entry, isMap)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}

	chain, err := expression.NewChain(name, terms...)
	if err != nil {
		return nil, a.internal(err)
	}
	return chain, nil
}

// lowerEntry строит терм одной записи: хелпер, ссылка или литерал // v1.0
func (a *Asset) lowerEntry(entry Entry, isMap bool) (*expression.Expression, error) {
	target, err := syntax.FieldPath(entry.Field)
	if err != nil {
		return nil, errors.Newf(errors.ErrorCodeReferenceInvalid,
			"invalid field '%s': %v", entry.Field, err).WithAsset(a.Name)
	}

	if text, ok := entry.Value.(string); ok {
		switch {
		case syntax.IsHelper(text):
			def, err := syntax.ParseHelper(target, text)
			if err != nil {
				return nil, a.annotate(err)
			}
			term, err := a.registry.Build(def)
			if err != nil {
				return nil, a.annotate(err)
			}
			return term, nil

		case strings.HasPrefix(text, string(syntax.ReferenceSigil)) && len(text) > 1:
			reference, err := syntax.Classify(text)
			if err != nil {
				return nil, a.annotate(err)
			}
			if isMap {
				return helpers.BuildMapReference(target, reference), nil
			}
			return helpers.BuildCheckReference(target, reference), nil
		}
	}

	raw, err := json.Marshal(entry.Value)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeHelperInvalidLiteral,
			fmt.Sprintf("value of '%s' is not representable as JSON", entry.Field)).WithAsset(a.Name)
	}

	var term *expression.Expression
	if isMap {
		term, err = helpers.BuildMapValue(target, string(raw))
	} else {
		term, err = helpers.BuildCheckValue(target, string(raw))
	}
	if err != nil {
		return nil, a.annotate(err)
	}
	return term, nil
}

// annotate добавляет имя ассета к ошибке сборки
func (a *Asset) annotate(err error) error {
	if novaSecErr, ok := errors.As(err); ok {
		return novaSecErr.WithAsset(a.Name)
	}
	return errors.Wrap(err, errors.ErrorCodeAssetInvalid, "failed to build asset stage").WithAsset(a.Name)
}

func (a *Asset) internal(err error) error {
	return errors.Wrap(err, errors.ErrorCodeInternal, "failed to assemble asset expression").WithAsset(a.Name)
}

// Definition возвращает исходное описание ассета
func (a *Asset) Definition() *Definition {
	return a.definition
}

// MarshalJSON кодирует сводку ассета для API
func (a *Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string                 `json:"name"`
		Type     Type                   `json:"type"`
		Parents  []string               `json:"parents,omitempty"`
		Filters  []string               `json:"filters,omitempty"`
		Metadata map[string]interface{} `json:"metadata,omitempty"`
	}{a.Name, a.Type, a.Parents, a.Filters, a.Metadata})
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			result = append(result, value)
		}
	}
	return result
}
