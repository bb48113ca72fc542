// filename: internal/builder/helpers/literal.go
package helpers

import (
	"reflect"

	"github.com/tidwall/gjson"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// Структурные записи check/map: значение без "+" является литералом JSON
// или ссылкой "$field".

// BuildCheckValue строит проверку равенства поля JSON литералу // v1.0
func BuildCheckValue(target, raw string) (*expression.Expression, error) {
	if !gjson.Valid(raw) {
		return nil, errors.Newf(errors.ErrorCodeHelperInvalidLiteral, "invalid JSON literal for '%s'", target)
	}
	expected := gjson.Parse(raw)
	name := "check.value[" + target + ", " + raw + "]"

	return expression.NewTerm(name, func(event *models.Event) expression.Result {
		value := event.Get(target)
		if !value.Exists() {
			return expression.Fail(event, expression.FailureTrace(name, fmtTrace(traceTargetNotFound, target)))
		}
		if !jsonEqual(value, expected) {
			return expression.Fail(event, expression.FailureTrace(name, traceComparisonFalse))
		}
		return expression.Succeed(event, expression.SuccessTrace(name))
	}), nil
}

// BuildCheckReference строит проверку равенства двух полей // v1.0
func BuildCheckReference(target string, reference syntax.Parameter) *expression.Expression {
	name := "check.reference[" + target + ", " + reference.String() + "]"

	return expression.NewTerm(name, func(event *models.Event) expression.Result {
		value := event.Get(target)
		if !value.Exists() {
			return expression.Fail(event, expression.FailureTrace(name, fmtTrace(traceTargetNotFound, target)))
		}
		expected := event.Get(reference.Value)
		if !expected.Exists() {
			return expression.Fail(event, expression.FailureTrace(name, fmtTrace(traceReferenceNotFound, reference.Value)))
		}
		if !jsonEqual(value, expected) {
			return expression.Fail(event, expression.FailureTrace(name, traceComparisonFalse))
		}
		return expression.Succeed(event, expression.SuccessTrace(name))
	})
}

// BuildMapValue строит запись JSON литерала в поле // v1.0
func BuildMapValue(target, raw string) (*expression.Expression, error) {
	if !gjson.Valid(raw) {
		return nil, errors.Newf(errors.ErrorCodeHelperInvalidLiteral, "invalid JSON literal for '%s'", target)
	}
	name := "map.value[" + target + ", " + raw + "]"

	return expression.NewTerm(name, func(event *models.Event) expression.Result {
		if err := event.SetRaw(target, raw); err != nil {
			return expression.Fail(event, expression.FailureTrace(name, err.Error()))
		}
		return expression.Succeed(event, expression.SuccessTrace(name))
	}), nil
}

// BuildMapReference строит копирование поля в поле // v1.0
func BuildMapReference(target string, reference syntax.Parameter) *expression.Expression {
	name := "map.reference[" + target + ", " + reference.String() + "]"

	return expression.NewTerm(name, func(event *models.Event) expression.Result {
		raw, ok := event.Raw(reference.Value)
		if !ok {
			return expression.Fail(event, expression.FailureTrace(name, fmtTrace(traceReferenceNotFound, reference.Value)))
		}
		if err := event.SetRaw(target, raw); err != nil {
			return expression.Fail(event, expression.FailureTrace(name, err.Error()))
		}
		return expression.Succeed(event, expression.SuccessTrace(name))
	})
}

// jsonEqual сравнивает два JSON значения по содержимому.
// Числа сравниваются по значению, объекты без учета порядка ключей.
func jsonEqual(left, right gjson.Result) bool {
	if left.Type != right.Type {
		return false
	}
	switch left.Type {
	case gjson.String:
		return left.String() == right.String()
	case gjson.Number:
		return left.Float() == right.Float()
	case gjson.True, gjson.False, gjson.Null:
		return true
	default:
		return reflect.DeepEqual(left.Value(), right.Value())
	}
}
