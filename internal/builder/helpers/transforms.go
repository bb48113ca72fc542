// filename: internal/builder/helpers/transforms.go
package helpers

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// stringCase строит string_upper / string_lower: результат пишется в целевое поле // v1.0
func stringCase(convert func(string) string) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if err := h.checkArity(1); err != nil {
			return nil, err
		}

		parameter := h.parameters[0]
		if !parameter.IsReference() {
			literal := convert(parameter.Value)
			return h.term(func(event *models.Event) expression.Result {
				if err := event.Set(h.target, literal); err != nil {
					return h.failure(event, "%v", err)
				}
				return h.success(event)
			}), nil
		}

		return h.term(func(event *models.Event) expression.Result {
			value, ok := event.GetString(parameter.Value)
			if !ok {
				return h.failure(event, traceReferenceNotFound, parameter.Value)
			}
			if err := event.Set(h.target, convert(value)); err != nil {
				return h.failure(event, "%v", err)
			}
			return h.success(event)
		}), nil
	}
}

// buildStringTrim строит string_trim(begin|end|both, char) над целевым полем // v1.0
func buildStringTrim(def syntax.Definition) (*expression.Expression, error) {
	h, err := newHelper(def)
	if err != nil {
		return nil, err
	}
	if err := h.checkArity(2); err != nil {
		return nil, err
	}
	if err := h.requireAllKind(syntax.ParameterValue); err != nil {
		return nil, err
	}

	cutset := h.parameters[1].Value
	if cutset == "" {
		return nil, h.invalidLiteral("trim characters must not be empty")
	}

	var trim func(string) string
	switch h.parameters[0].Value {
	case "begin":
		trim = func(s string) string { return strings.TrimLeft(s, cutset) }
	case "end":
		trim = func(s string) string { return strings.TrimRight(s, cutset) }
	case "both":
		trim = func(s string) string { return strings.Trim(s, cutset) }
	default:
		return nil, h.invalidLiteral("trim type must be begin, end or both, got '%s'", h.parameters[0].Value)
	}

	return h.term(func(event *models.Event) expression.Result {
		value, ok := event.GetString(h.target)
		if !ok {
			return h.failure(event, traceTargetNotFound, h.target)
		}
		if err := event.Set(h.target, trim(value)); err != nil {
			return h.failure(event, "%v", err)
		}
		return h.success(event)
	}), nil
}

// buildStringConcat строит string_concat: строки и числа склеиваются в целевое поле // v1.0
func buildStringConcat(def syntax.Definition) (*expression.Expression, error) {
	h, err := newHelper(def)
	if err != nil {
		return nil, err
	}
	if err := h.checkMinArity(2); err != nil {
		return nil, err
	}

	return h.term(func(event *models.Event) expression.Result {
		var b strings.Builder
		for _, parameter := range h.parameters {
			if !parameter.IsReference() {
				b.WriteString(parameter.Value)
				continue
			}
			value := event.Get(parameter.Value)
			switch value.Type {
			case gjson.String:
				b.WriteString(value.String())
			case gjson.Number:
				b.WriteString(value.Raw)
			default:
				if !value.Exists() {
					return h.failure(event, traceReferenceNotFound, parameter.Value)
				}
				return h.failure(event, "Parameter '%s' is neither a string nor a number", parameter.Value)
			}
		}
		if err := event.Set(h.target, b.String()); err != nil {
			return h.failure(event, "%v", err)
		}
		return h.success(event)
	}), nil
}

// buildIntCalculate строит int_calculate(sum|sub|mul|div, operand...) над целевым полем // v1.0
func buildIntCalculate(def syntax.Definition) (*expression.Expression, error) {
	h, err := newHelper(def)
	if err != nil {
		return nil, err
	}
	if err := h.checkMinArity(2); err != nil {
		return nil, err
	}
	if err := h.requireKind(0, syntax.ParameterValue); err != nil {
		return nil, err
	}

	operator := h.parameters[0].Value
	switch operator {
	case "sum", "sub", "mul", "div":
	default:
		return nil, h.invalidLiteral("operator must be sum, sub, mul or div, got '%s'", operator)
	}

	operands := h.parameters[1:]
	literals := make([]int64, len(operands))
	for i, operand := range operands {
		if operand.IsReference() {
			continue
		}
		literals[i], err = strconv.ParseInt(operand.Value, 10, 64)
		if err != nil {
			return nil, h.invalidLiteral("'%s' is not an integer", operand.Value)
		}
		if operator == "div" && literals[i] == 0 {
			return nil, h.invalidLiteral("division by zero")
		}
	}

	return h.term(func(event *models.Event) expression.Result {
		result, ok := event.GetInt(h.target)
		if !ok {
			return h.failure(event, traceTargetNotFound, h.target)
		}

		for i, operand := range operands {
			value := literals[i]
			if operand.IsReference() {
				value, ok = event.GetInt(operand.Value)
				if !ok {
					return h.failure(event, traceReferenceNotFound, operand.Value)
				}
			}

			switch operator {
			case "sum":
				if (value > 0 && result > math.MaxInt64-value) || (value < 0 && result < math.MinInt64-value) {
					return h.failure(event, "Integer overflow")
				}
				result += value
			case "sub":
				if (value < 0 && result > math.MaxInt64+value) || (value > 0 && result < math.MinInt64+value) {
					return h.failure(event, "Integer overflow")
				}
				result -= value
			case "mul":
				if result != 0 && value != 0 {
					product := result * value
					if product/value != result || (value == -1 && result == math.MinInt64) {
						return h.failure(event, "Integer overflow")
					}
				}
				result *= value
			case "div":
				if value == 0 {
					return h.failure(event, "Division by zero")
				}
				if result == math.MinInt64 && value == -1 {
					return h.failure(event, "Integer overflow")
				}
				result /= value
			}
		}

		if err := event.Set(h.target, result); err != nil {
			return h.failure(event, "%v", err)
		}
		return h.success(event)
	}), nil
}

// buildDeleteField строит delete_field // v1.0
func buildDeleteField(def syntax.Definition) (*expression.Expression, error) {
	h, err := newHelper(def)
	if err != nil {
		return nil, err
	}
	if err := h.checkArity(0); err != nil {
		return nil, err
	}

	return h.term(func(event *models.Event) expression.Result {
		if !event.Exists(h.target) {
			return h.failure(event, traceTargetNotFound, h.target)
		}
		if err := event.Delete(h.target); err != nil {
			return h.failure(event, "%v", err)
		}
		return h.success(event)
	}), nil
}

// buildMerge строит merge($ref): объекты сливаются по ключам, массивы дополняются // v1.0
func buildMerge(def syntax.Definition) (*expression.Expression, error) {
	h, err := newHelper(def)
	if err != nil {
		return nil, err
	}
	if err := h.checkArity(1); err != nil {
		return nil, err
	}
	if err := h.requireKind(0, syntax.ParameterReference); err != nil {
		return nil, err
	}

	source := h.parameters[0].Value

	return h.term(func(event *models.Event) expression.Result {
		target := event.Get(h.target)
		if !target.Exists() {
			return h.failure(event, traceTargetNotFound, h.target)
		}
		value := event.Get(source)
		if !value.Exists() {
			return h.failure(event, traceReferenceNotFound, source)
		}
		if target.IsObject() != value.IsObject() || target.IsArray() != value.IsArray() ||
			!(value.IsObject() || value.IsArray()) {
			return h.failure(event, "Fields '%s' and '%s' are not both objects or arrays", h.target, source)
		}

		if err := event.Merge(h.target, value.Raw); err != nil {
			return h.failure(event, "%v", err)
		}
		if err := event.Delete(source); err != nil {
			return h.failure(event, "%v", err)
		}
		return h.success(event)
	}), nil
}

func toUpper(s string) string { return strings.ToUpper(s) }
func toLower(s string) string { return strings.ToLower(s) }
