// filename: internal/builder/helpers/compare.go
package helpers

import (
	"strconv"
	"strings"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// Operator оператор сравнения
type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpStartsWith     Operator = "starts_with"
	OpContains       Operator = "contains"
)

// isOrdering возвращает true для операторов порядка
func (o Operator) isOrdering() bool {
	switch o {
	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		return true
	default:
		return false
	}
}

// compareInts сравнивает целые числа оператором // v1.0
func compareInts(left, right int64, op Operator) bool {
	switch op {
	case OpEqual:
		return left == right
	case OpNotEqual:
		return left != right
	case OpLess:
		return left < right
	case OpLessOrEqual:
		return left <= right
	case OpGreater:
		return left > right
	case OpGreaterOrEqual:
		return left >= right
	default:
		return false
	}
}

// compareStrings сравнивает строки оператором // v1.0
func compareStrings(left, right string, op Operator) bool {
	switch op {
	case OpEqual:
		return left == right
	case OpNotEqual:
		return left != right
	case OpLess:
		return left < right
	case OpLessOrEqual:
		return left <= right
	case OpGreater:
		return left > right
	case OpGreaterOrEqual:
		return left >= right
	case OpStartsWith:
		return strings.HasPrefix(left, right)
	case OpContains:
		return right != "" && strings.Contains(left, right)
	default:
		return false
	}
}

// intComparison возвращает билдер сравнения целых чисел // v1.0
func intComparison(op Operator) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if err := h.checkArity(1); err != nil {
			return nil, err
		}

		parameter := h.parameters[0]
		var literal int64
		if !parameter.IsReference() {
			literal, err = strconv.ParseInt(parameter.Value, 10, 64)
			if err != nil {
				return nil, h.invalidLiteral("'%s' is not an integer", parameter.Value)
			}
		}

		return h.term(func(event *models.Event) expression.Result {
			left, ok := event.GetInt(h.target)
			if !ok {
				if event.Exists(h.target) {
					return h.failure(event, "Target field '%s' is not an integer", h.target)
				}
				return h.failure(event, traceTargetNotFound, h.target)
			}

			right := literal
			if parameter.IsReference() {
				right, ok = event.GetInt(parameter.Value)
				if !ok {
					return h.failure(event, traceReferenceNotFound, parameter.Value)
				}
			}

			if !compareInts(left, right, op) {
				return h.failure(event, traceComparisonFalse)
			}
			return h.success(event)
		}), nil
	}
}

// stringComparison возвращает билдер сравнения строк.
// Операторы порядка требуют, чтобы оба операнда были целыми числами.
func stringComparison(op Operator) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if err := h.checkArity(1); err != nil {
			return nil, err
		}

		parameter := h.parameters[0]

		return h.term(func(event *models.Event) expression.Result {
			left, ok := event.GetString(h.target)
			if !ok {
				return h.failure(event, traceTargetNotFound, h.target)
			}

			right, ok := resolveString(event, parameter)
			if !ok {
				return h.failure(event, traceReferenceNotFound, parameter.Value)
			}

			if op.isOrdering() {
				if _, err := strconv.ParseInt(left, 10, 64); err != nil {
					return h.failure(event, "Target field '%s' is not a numeric string", h.target)
				}
				if _, err := strconv.ParseInt(right, 10, 64); err != nil {
					return h.failure(event, "Parameter '%s' is not a numeric string", parameter.String())
				}
			}

			if !compareStrings(left, right, op) {
				return h.failure(event, traceComparisonFalse)
			}
			return h.success(event)
		}), nil
	}
}
