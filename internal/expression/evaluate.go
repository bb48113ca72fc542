// filename: internal/expression/evaluate.go
package expression

import (
	"github.com/novasec/engine/internal/models"
)

// Evaluate оценивает выражение на событии. Оценка синхронна, без блокировок:
// дерево не изменяется, изменяется только переданное событие.
func Evaluate(expr *Expression, event *models.Event) Result {
	switch expr.kind {
	case KindTerm:
		return expr.fn(event)
	case KindChain:
		return evaluateChain(expr, event)
	case KindOr:
		return evaluateOr(expr, event)
	case KindBroadcast:
		return evaluateBroadcast(expr, event)
	case KindImplication:
		return evaluateImplication(expr, event)
	default:
		return Fail(event, FailureTrace(expr.name, "unknown expression kind"))
	}
}

func evaluateChain(expr *Expression, event *models.Event) Result {
	children := make([]Result, 0, len(expr.operands))
	for _, operand := range expr.operands {
		result := Evaluate(operand, event)
		children = append(children, result)
		if !result.Success {
			return Result{Event: event, Trace: FailureTrace(expr.name, "operand '"+operand.name+"' failed"), Children: children}
		}
		event = result.Event
	}
	return Result{Success: true, Event: event, Trace: SuccessTrace(expr.name), Children: children}
}

func evaluateOr(expr *Expression, event *models.Event) Result {
	children := make([]Result, 0, len(expr.operands))
	for _, operand := range expr.operands {
		result := Evaluate(operand, event)
		children = append(children, result)
		if result.Success {
			return Result{Success: true, Event: result.Event, Trace: SuccessTrace(expr.name), Children: children}
		}
	}
	return Result{Event: event, Trace: FailureTrace(expr.name, "no operand succeeded"), Children: children}
}

func evaluateBroadcast(expr *Expression, event *models.Event) Result {
	children := make([]Result, 0, len(expr.operands))
	success := false
	for _, operand := range expr.operands {
		result := Evaluate(operand, event)
		children = append(children, result)
		success = success || result.Success
	}
	if success {
		return Result{Success: true, Event: event, Trace: SuccessTrace(expr.name), Children: children}
	}
	return Result{Event: event, Trace: FailureTrace(expr.name, "no operand succeeded"), Children: children}
}

// evaluateImplication: следствие оценивается только при успехе условия.
// Итог определяется условием; провал следствия виден в трассе.
func evaluateImplication(expr *Expression, event *models.Event) Result {
	condition := Evaluate(expr.operands[0], event)
	if !condition.Success {
		return Result{Event: condition.Event, Trace: FailureTrace(expr.name, "condition failed"), Children: []Result{condition}}
	}

	consequence := Evaluate(expr.operands[1], condition.Event)
	return Result{
		Success:  true,
		Event:    consequence.Event,
		Trace:    SuccessTrace(expr.name),
		Children: []Result{condition, consequence},
	}
}
