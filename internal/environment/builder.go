// filename: internal/environment/builder.go
package environment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/builder/registry"
	"github.com/novasec/engine/internal/catalog"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/expression"
)

// Builder собирает окружения из снимков каталога
type Builder struct {
	Registry *registry.Registry
	Logger   *logging.Logger
}

// NewBuilder создает сборщик окружений // v1.0
func NewBuilder(reg *registry.Registry, logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Builder{Registry: reg, Logger: logger}
}

// Build разбирает все ассеты снимка, связывает их в граф и возвращает
// готовое окружение. Ошибка указывает первый ассет-нарушитель в порядке каталога.
func (b *Builder) Build(name string, snapshot *catalog.Snapshot) (*Environment, error) {
	start := time.Now()

	g, err := b.parse(snapshot)
	if err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	root, err := g.assemble(name)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Name:       name,
		ID:         uuid.New().String(),
		BuiltAt:    time.Now().UTC(),
		Assets:     g.assets,
		Expression: root,
		order:      g.order,
	}

	b.Logger.WithEnvironment(env.Name, env.ID).WithFields(logrus.Fields{
		"assets":      len(env.order),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Environment built")

	return env, nil
}

// graph промежуточное состояние сборки
type graph struct {
	assets   map[string]*asset.Asset
	order    []string
	children map[string][]string
	// gates фильтры, подключенные к родителю, в порядке каталога
	gates map[string][]string
}

func (b *Builder) parse(snapshot *catalog.Snapshot) (*graph, error) {
	if snapshot == nil {
		return nil, errors.New(errors.ErrorCodeEmptyEnvironment, "environment snapshot is empty")
	}

	g := &graph{
		assets:   make(map[string]*asset.Asset),
		children: make(map[string][]string),
		gates:    make(map[string][]string),
	}

	for _, doc := range snapshot.Documents {
		a, err := asset.Parse(doc.Type, doc.Data, b.Registry)
		if err != nil {
			if nsErr, ok := errors.As(err); ok {
				return nil, nsErr.WithAsset(doc.Name)
			}
			return nil, errors.Wrap(err, errors.ErrorCodeAssetInvalid, "failed to parse asset").WithAsset(doc.Name)
		}
		if doc.Name != "" && doc.Name != a.Name {
			return nil, errors.Newf(errors.ErrorCodeAssetInvalid,
				"asset declares name '%s' but is listed as '%s'", a.Name, doc.Name).WithAsset(doc.Name)
		}
		if _, exists := g.assets[a.Name]; exists {
			return nil, errors.Newf(errors.ErrorCodeDuplicateAsset, "asset '%s' is defined more than once", a.Name).WithAsset(a.Name)
		}
		g.assets[a.Name] = a
		g.order = append(g.order, a.Name)
	}
	return g, nil
}

// validate проверяет связи родителей и фильтров и отсутствие циклов
func (g *graph) validate() error {
	referenced := make(map[string]bool)

	for _, name := range g.order {
		a := g.assets[name]
		if a.Type.IsFilter() {
			continue
		}
		for _, parentName := range a.Parents {
			parent, ok := g.assets[parentName]
			switch {
			case !ok:
				return errors.Newf(errors.ErrorCodeOrphanAsset, "parent '%s' of asset '%s' does not exist", parentName, name).
					WithAsset(name)
			case parent.Type.IsFilter():
				return errors.Newf(errors.ErrorCodeOrphanAsset, "parent '%s' of asset '%s' is a filter", parentName, name).
					WithAsset(name)
			case parent.Type != a.Type:
				return errors.Newf(errors.ErrorCodeCrossTypeParent, "%s '%s' cannot have %s '%s' as parent",
					a.Type, name, parent.Type, parentName).WithAsset(name)
			}
			g.children[parentName] = append(g.children[parentName], name)
		}
		for _, filterName := range a.Filters {
			filter, ok := g.assets[filterName]
			if !ok || !filter.Type.IsFilter() {
				return errors.Newf(errors.ErrorCodeUnknownFilter, "asset '%s' references unknown filter '%s'", name, filterName).
					WithAsset(name)
			}
			referenced[filterName] = true
		}
	}

	for _, name := range g.order {
		a := g.assets[name]
		if !a.Type.IsFilter() {
			continue
		}
		if len(a.Parents) == 0 && !referenced[name] {
			return errors.Newf(errors.ErrorCodeOrphanFilter, "filter '%s' is not attached to any asset", name).WithAsset(name)
		}
		for _, parentName := range a.Parents {
			parent, ok := g.assets[parentName]
			if !ok {
				return errors.Newf(errors.ErrorCodeOrphanFilter, "parent '%s' of filter '%s' does not exist", parentName, name).
					WithAsset(name)
			}
			if parent.Type.IsFilter() {
				return errors.Newf(errors.ErrorCodeOrphanFilter, "parent '%s' of filter '%s' is a filter", parentName, name).
					WithAsset(name)
			}
			g.gates[parentName] = append(g.gates[parentName], name)
		}
	}

	return g.detectCycles()
}

// detectCycles обход в глубину по ребрам родитель -> потомок
func (g *graph) detectCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.order))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = visiting
		stack = append(stack, name)
		for _, child := range g.children[name] {
			switch state[child] {
			case visiting:
				path := append(cyclePath(stack, child), child)
				return errors.Newf(errors.ErrorCodeCycleDetected, "cycle detected: %s", strings.Join(path, " -> ")).
					WithAsset(child)
			case unvisited:
				if err := visit(child); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range g.order {
		if state[name] == unvisited && !g.assets[name].Type.IsFilter() {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func cyclePath(stack []string, from string) []string {
	for i, name := range stack {
		if name == from {
			return append([]string(nil), stack[i:]...)
		}
	}
	return append([]string(nil), stack...)
}

// assemble строит корневую цепочку из стадий decoders, rules, outputs
func (g *graph) assemble(name string) (*expression.Expression, error) {
	stages := make([]*expression.Expression, 0, 3)

	for _, typ := range []asset.Type{asset.TypeDecoder, asset.TypeRule, asset.TypeOutput} {
		var roots []*expression.Expression
		for _, assetName := range g.order {
			a := g.assets[assetName]
			if a.Type != typ || len(a.Parents) > 0 {
				continue
			}
			node, err := g.edge(a)
			if err != nil {
				return nil, err
			}
			roots = append(roots, node)
		}
		if len(roots) == 0 {
			continue
		}
		stage, err := childrenOperation(typ, typ.RootName(), roots)
		if err != nil {
			return nil, internal(err)
		}
		stages = append(stages, stage)
	}

	if len(stages) == 0 {
		return nil, errors.Newf(errors.ErrorCodeEmptyEnvironment, "environment '%s' has no decoders, rules or outputs", name)
	}

	root, err := expression.NewChain(name, stages...)
	if err != nil {
		return nil, internal(err)
	}
	return root, nil
}

// node строит поддерево ассета. Ассет без потомков и фильтров представлен
// собственным выражением; иначе "<name>Node" = Implication(ассет, потомки).
func (g *graph) node(a *asset.Asset) (*expression.Expression, error) {
	self, err := a.Expression()
	if err != nil {
		return nil, err
	}

	children := g.children[a.Name]
	gates := g.gates[a.Name]

	if len(children) == 0 {
		if len(gates) == 0 {
			return self, nil
		}
		// фильтры уточняют сам ассет
		operands := []*expression.Expression{self}
		for _, filterName := range gates {
			filter, err := g.assets[filterName].Expression()
			if err != nil {
				return nil, err
			}
			operands = append(operands, filter)
		}
		expr, err := expression.NewChain(a.Name+"Node", operands...)
		if err != nil {
			return nil, internal(err)
		}
		return expr, nil
	}

	operands := make([]*expression.Expression, 0, len(children))
	for _, childName := range children {
		child, err := g.edge(g.assets[childName])
		if err != nil {
			return nil, err
		}
		operands = append(operands, child)
	}

	// фильтры родителя вкладываются друг в друга, внешний первый
	owner := a.Name
	if len(gates) > 0 {
		owner = gates[len(gates)-1]
	}
	consequence, err := childrenOperation(a.Type, owner+"Children", operands)
	if err != nil {
		return nil, internal(err)
	}
	for i := len(gates) - 1; i >= 0; i-- {
		filter, err := g.assets[gates[i]].Expression()
		if err != nil {
			return nil, err
		}
		gated, err := expression.NewImplication(gates[i]+"Node", filter, consequence)
		if err != nil {
			return nil, internal(err)
		}
		parentName := a.Name
		if i > 0 {
			parentName = gates[i-1]
		}
		consequence, err = childrenOperation(a.Type, parentName+"Children", []*expression.Expression{gated})
		if err != nil {
			return nil, internal(err)
		}
	}

	expr, err := expression.NewImplication(a.Name+"Node", self, consequence)
	if err != nil {
		return nil, internal(err)
	}
	return expr, nil
}

// edge поддерево потомка с учетом его собственных фильтров: потомок
// достижим только при успехе всех фильтров
func (g *graph) edge(child *asset.Asset) (*expression.Expression, error) {
	sub, err := g.node(child)
	if err != nil {
		return nil, err
	}
	if len(child.Filters) == 0 {
		return sub, nil
	}

	operands := make([]*expression.Expression, 0, len(child.Filters)+1)
	for _, filterName := range child.Filters {
		filter, err := g.assets[filterName].Expression()
		if err != nil {
			return nil, err
		}
		operands = append(operands, filter)
	}
	operands = append(operands, sub)

	expr, err := expression.NewChain(child.Name+"Filtered", operands...)
	if err != nil {
		return nil, internal(err)
	}
	return expr, nil
}

// childrenOperation декодеры выбирают первого подходящего потомка,
// правила и выходы получают событие все
func childrenOperation(typ asset.Type, name string, operands []*expression.Expression) (*expression.Expression, error) {
	if typ == asset.TypeDecoder {
		return expression.NewOr(name, operands...)
	}
	return expression.NewBroadcast(name, operands...)
}

func internal(err error) error {
	return errors.Wrap(err, errors.ErrorCodeInternal, fmt.Sprintf("failed to assemble graph: %v", err))
}
