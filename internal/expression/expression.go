// filename: internal/expression/expression.go
package expression

import (
	"encoding/json"
	"fmt"

	"github.com/novasec/engine/internal/models"
)

// Kind закрытый набор вариантов выражения
type Kind int

const (
	KindTerm Kind = iota
	KindChain
	KindOr
	KindBroadcast
	KindImplication
)

// String возвращает имя варианта
func (k Kind) String() string {
	switch k {
	case KindTerm:
		return "term"
	case KindChain:
		return "chain"
	case KindOr:
		return "or"
	case KindBroadcast:
		return "broadcast"
	case KindImplication:
		return "implication"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TermFunc функция терма. Может изменять переданное событие.
type TermFunc func(event *models.Event) Result

// Expression узел дерева выражений: терм или операция над непустым
// упорядоченным списком операндов. Узлы неизменяемы после создания.
type Expression struct {
	kind     Kind
	name     string
	fn       TermFunc
	operands []*Expression
}

// NewTerm создает лист дерева // v1.0
func NewTerm(name string, fn TermFunc) *Expression {
	return &Expression{kind: KindTerm, name: name, fn: fn}
}

// NewChain создает цепочку: первый провал останавливает оценку // v1.0
func NewChain(name string, operands ...*Expression) (*Expression, error) {
	return newOperation(KindChain, name, operands)
}

// NewOr создает альтернативу: первый успех останавливает оценку // v1.0
func NewOr(name string, operands ...*Expression) (*Expression, error) {
	return newOperation(KindOr, name, operands)
}

// NewBroadcast создает рассылку: оцениваются все операнды // v1.0
func NewBroadcast(name string, operands ...*Expression) (*Expression, error) {
	return newOperation(KindBroadcast, name, operands)
}

// NewImplication создает импликацию условие -> следствие // v1.0
func NewImplication(name string, condition, consequence *Expression) (*Expression, error) {
	return newOperation(KindImplication, name, []*Expression{condition, consequence})
}

func newOperation(kind Kind, name string, operands []*Expression) (*Expression, error) {
	if len(operands) == 0 {
		return nil, fmt.Errorf("%s '%s' requires at least one operand", kind, name)
	}
	for i, operand := range operands {
		if operand == nil {
			return nil, fmt.Errorf("%s '%s' operand %d is nil", kind, name, i)
		}
	}

	owned := make([]*Expression, len(operands))
	copy(owned, operands)
	return &Expression{kind: kind, name: name, operands: owned}, nil
}

// Kind возвращает вариант выражения
func (e *Expression) Kind() Kind { return e.kind }

// Name возвращает имя выражения
func (e *Expression) Name() string { return e.name }

// IsTerm проверяет, является ли выражение термом
func (e *Expression) IsTerm() bool { return e.kind == KindTerm }

// IsOperation проверяет, является ли выражение операцией
func (e *Expression) IsOperation() bool { return e.kind != KindTerm }

// Operands возвращает копию списка операндов
func (e *Expression) Operands() []*Expression {
	operands := make([]*Expression, len(e.operands))
	copy(operands, e.operands)
	return operands
}

// Operand возвращает операнд по индексу
func (e *Expression) Operand(i int) *Expression {
	if i < 0 || i >= len(e.operands) {
		return nil
	}
	return e.operands[i]
}

// Find ищет непосредственный операнд по имени
func (e *Expression) Find(name string) *Expression {
	for _, operand := range e.operands {
		if operand.name == name {
			return operand
		}
	}
	return nil
}

// Walk обходит дерево в глубину; visit возвращает false, чтобы не спускаться ниже
func (e *Expression) Walk(visit func(expr *Expression, depth int) bool) {
	e.walk(visit, 0)
}

func (e *Expression) walk(visit func(*Expression, int) bool, depth int) {
	if !visit(e, depth) {
		return
	}
	for _, operand := range e.operands {
		operand.walk(visit, depth+1)
	}
}

// Node сериализуемое представление графа для инспекции
type Node struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Operands []*Node `json:"operands,omitempty"`
}

// Graph строит сериализуемое представление дерева // v1.0
func (e *Expression) Graph() *Node {
	node := &Node{Name: e.name, Kind: e.kind.String()}
	for _, operand := range e.operands {
		node.Operands = append(node.Operands, operand.Graph())
	}
	return node
}

// MarshalJSON сериализует дерево как граф
func (e *Expression) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Graph())
}
