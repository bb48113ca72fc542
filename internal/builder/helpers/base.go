// filename: internal/builder/helpers/base.go
package helpers

import (
	"encoding/json"
	"fmt"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// helper общая часть всех билдеров: разобранное определение и имя терма
type helper struct {
	def        syntax.Definition
	target     string
	parameters []syntax.Parameter
	name       string
}

// newHelper классифицирует параметры и строит имя терма // v1.0
func newHelper(def syntax.Definition) (*helper, error) {
	parameters, err := syntax.ClassifyAll(def.Parameters)
	if err != nil {
		if novaSecErr, ok := errors.As(err); ok {
			return nil, novaSecErr.WithHelper(def.HelperName)
		}
		return nil, err
	}

	return &helper{
		def:        def,
		target:     def.TargetField,
		parameters: parameters,
		name:       syntax.FormatName(def.HelperName, def.TargetField, parameters),
	}, nil
}

// checkArity проверяет точное количество параметров // v1.0
func (h *helper) checkArity(expected int) error {
	if len(h.parameters) != expected {
		return h.errorf(errors.ErrorCodeHelperArity,
			"Expected %d parameters but got %d", expected, len(h.parameters))
	}
	return nil
}

// checkMinArity проверяет минимальное количество параметров // v1.0
func (h *helper) checkMinArity(minimum int) error {
	if len(h.parameters) < minimum {
		return h.errorf(errors.ErrorCodeHelperArity,
			"Expected at least %d parameters but got %d", minimum, len(h.parameters))
	}
	return nil
}

// checkArityRange проверяет количество параметров в диапазоне [minimum, maximum]
func (h *helper) checkArityRange(minimum, maximum int) error {
	if len(h.parameters) < minimum || len(h.parameters) > maximum {
		return h.errorf(errors.ErrorCodeHelperArity,
			"Expected between %d and %d parameters but got %d", minimum, maximum, len(h.parameters))
	}
	return nil
}

// requireKind проверяет тип параметра с индексом i // v1.0
func (h *helper) requireKind(i int, kind syntax.ParameterKind) error {
	if h.parameters[i].Kind != kind {
		return h.errorf(errors.ErrorCodeHelperParameterKind,
			"parameter %d ('%s') must be a %s but got a %s",
			i+1, h.parameters[i].String(), kind, h.parameters[i].Kind)
	}
	return nil
}

// requireAllKind проверяет тип всех параметров
func (h *helper) requireAllKind(kind syntax.ParameterKind) error {
	for i := range h.parameters {
		if err := h.requireKind(i, kind); err != nil {
			return err
		}
	}
	return nil
}

// invalidLiteral создает ошибку некорректного литерала // v1.0
func (h *helper) invalidLiteral(format string, args ...interface{}) error {
	return h.errorf(errors.ErrorCodeHelperInvalidLiteral, format, args...)
}

func (h *helper) errorf(code errors.ErrorCode, format string, args ...interface{}) error {
	return errors.Newf(code, "%s: %s", h.name, fmt.Sprintf(format, args...)).WithHelper(h.def.HelperName)
}

// term оборачивает функцию в терм с именем хелпера
func (h *helper) term(fn expression.TermFunc) *expression.Expression {
	return expression.NewTerm(h.name, fn)
}

func (h *helper) success(event *models.Event) expression.Result {
	return expression.Succeed(event, expression.SuccessTrace(h.name))
}

func (h *helper) failure(event *models.Event, format string, args ...interface{}) expression.Result {
	return expression.Fail(event, expression.FailureTrace(h.name, fmt.Sprintf(format, args...)))
}

// Сообщения трассировки, общие для хелперов
const (
	traceTargetNotFound    = "Target field '%s' not found"
	traceReferenceNotFound = "Parameter '%s' reference not found"
	traceComparisonFalse   = "Comparison is false"
)

// resolveString возвращает строковое значение параметра для события.
// Для ссылок поле должно существовать и быть строкой.
func resolveString(event *models.Event, parameter syntax.Parameter) (string, bool) {
	if !parameter.IsReference() {
		return parameter.Value, true
	}
	return event.GetString(parameter.Value)
}

// resolveRaw возвращает JSON текст параметра: литерал кодируется как JSON строка
func resolveRaw(event *models.Event, parameter syntax.Parameter) (string, bool) {
	if !parameter.IsReference() {
		return quoteJSON(parameter.Value), true
	}
	return event.Raw(parameter.Value)
}

func quoteJSON(value string) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func fmtTrace(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
