// filename: internal/expression/result.go
package expression

import (
	"fmt"

	"github.com/novasec/engine/internal/models"
)

// Result результат оценки узла: флаг успеха, событие и трасса.
// Children содержит результаты только реально оцененных операндов.
type Result struct {
	Success  bool          `json:"success"`
	Event    *models.Event `json:"-"`
	Trace    string        `json:"trace"`
	Children []Result      `json:"children,omitempty"`
}

// Succeed создает успешный результат
func Succeed(event *models.Event, trace string) Result {
	return Result{Success: true, Event: event, Trace: trace}
}

// Fail создает неуспешный результат
func Fail(event *models.Event, trace string) Result {
	return Result{Success: false, Event: event, Trace: trace}
}

// SuccessTrace форматирует трассу успеха "[name] -> Success"
func SuccessTrace(name string) string {
	return fmt.Sprintf("[%s] -> Success", name)
}

// FailureTrace форматирует трассу провала "[name] -> Failure: reason"
func FailureTrace(name, reason string) string {
	if reason == "" {
		return fmt.Sprintf("[%s] -> Failure", name)
	}
	return fmt.Sprintf("[%s] -> Failure: %s", name, reason)
}

// Traces разворачивает дерево трасс в порядке оценки (сначала узел, потом операнды)
func (r Result) Traces() []string {
	var traces []string
	r.collect(&traces)
	return traces
}

func (r Result) collect(traces *[]string) {
	*traces = append(*traces, r.Trace)
	for _, child := range r.Children {
		child.collect(traces)
	}
}
