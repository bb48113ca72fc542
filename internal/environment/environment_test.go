// filename: internal/environment/environment_test.go
package environment

import (
	"fmt"
	"strings"
	"testing"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/builder/helpers"
	"github.com/novasec/engine/internal/catalog"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	reg, err := helpers.NewRegistry(helpers.Deps{})
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return NewBuilder(reg, nil)
}

// doc описание ассета с проверкой на поле /<name> и маппингом флага
func doc(name string, parents ...string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", name)
	if len(parents) > 0 {
		fmt.Fprintf(&b, "parents: [%s]\n", strings.Join(parents, ", "))
	}
	fmt.Fprintf(&b, "check:\n  - /%s: +exists\n", name)
	fmt.Fprintf(&b, "normalize:\n  - map:\n      - /matched/%s: true\n", name)
	return []byte(b.String())
}

func checkOnly(name string, parents ...string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", name)
	if len(parents) > 0 {
		fmt.Fprintf(&b, "parents: [%s]\n", strings.Join(parents, ", "))
	}
	fmt.Fprintf(&b, "check:\n  - /%s: +exists\n", name)
	return []byte(b.String())
}

func completeSnapshot() *catalog.Snapshot {
	return catalog.NewSnapshot("complete").
		Add(asset.TypeDecoder, "decoder1", doc("decoder1")).
		Add(asset.TypeDecoder, "decoder1_1", doc("decoder1_1", "decoder1")).
		Add(asset.TypeDecoder, "decoder1_2", doc("decoder1_2", "decoder1")).
		Add(asset.TypeDecoder, "decoder2", doc("decoder2")).
		Add(asset.TypeDecoder, "decoder3", doc("decoder3")).
		Add(asset.TypeDecoder, "decoder23_1", doc("decoder23_1", "decoder2", "decoder3")).
		Add(asset.TypeRule, "rule1", doc("rule1")).
		Add(asset.TypeRule, "rule1_1", doc("rule1_1", "rule1")).
		Add(asset.TypeRule, "rule2", doc("rule2")).
		Add(asset.TypeOutput, "output1", checkOnly("output1")).
		Add(asset.TypeFilter, "filter1", checkOnly("filter1", "decoder1"))
}

func names(exprs []*expression.Expression) []string {
	result := make([]string, len(exprs))
	for i, e := range exprs {
		result[i] = e.Name()
	}
	return result
}

// findNode ищет узел по имени во всём графе
func findNode(root *expression.Expression, name string) *expression.Expression {
	var found *expression.Expression
	root.Walk(func(e *expression.Expression, depth int) bool {
		if found != nil {
			return false
		}
		if e.Name() == name {
			found = e
			return false
		}
		return true
	})
	return found
}

func expectNode(t *testing.T, e *expression.Expression, kind expression.Kind, name string, operands int) {
	t.Helper()
	if e == nil {
		t.Fatalf("Expected node %s, got nil", name)
	}
	if e.Kind() != kind || e.Name() != name || len(e.Operands()) != operands {
		t.Fatalf("Expected %s %s with %d operands, got %s %s with %v",
			kind, name, operands, e.Kind(), e.Name(), names(e.Operands()))
	}
}

func TestOneStageEnvironments(t *testing.T) {
	b := testBuilder(t)

	tests := []struct {
		typ  asset.Type
		name string
		kind expression.Kind
	}{
		{asset.TypeDecoder, "decoder1", expression.KindOr},
		{asset.TypeRule, "rule1", expression.KindBroadcast},
		{asset.TypeOutput, "output1", expression.KindBroadcast},
	}

	for _, tt := range tests {
		snapshot := catalog.NewSnapshot("one").Add(tt.typ, tt.name, doc(tt.name))
		env, err := b.Build("one", snapshot)
		if err != nil {
			t.Fatalf("Build(%s) failed: %v", tt.typ, err)
		}
		expectNode(t, env.Expression, expression.KindChain, "one", 1)
		stage := env.Expression.Operand(0)
		expectNode(t, stage, tt.kind, tt.typ.RootName(), 1)
		// ассет с проверкой и нормализацией без потомков - импликация под своим именем
		expectNode(t, stage.Operand(0), expression.KindImplication, tt.name, 2)
	}
}

func TestFilterOnlyEnvironmentFails(t *testing.T) {
	snapshot := catalog.NewSnapshot("filters").Add(asset.TypeFilter, "filter1", checkOnly("filter1"))
	if _, err := testBuilder(t).Build("filters", snapshot); err == nil {
		t.Fatal("Expected error for environment with only a filter")
	}
}

func TestEmptyEnvironmentFails(t *testing.T) {
	_, err := testBuilder(t).Build("empty", catalog.NewSnapshot("empty"))
	if !errors.IsErrorCode(err, errors.ErrorCodeEmptyEnvironment) {
		t.Fatalf("Expected EMPTY_ENVIRONMENT, got %v", err)
	}
}

func TestCompleteEnvironmentStructure(t *testing.T) {
	env, err := testBuilder(t).Build("complete", completeSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(env.Assets) != 11 || len(env.AssetNames()) != 11 {
		t.Fatalf("Expected 11 assets, got %d", len(env.Assets))
	}
	if env.ID == "" || env.BuiltAt.IsZero() {
		t.Error("Environment must have build id and time")
	}

	root := env.Expression
	expectNode(t, root, expression.KindChain, "complete", 3)

	decoders := root.Find("decodersInput")
	expectNode(t, decoders, expression.KindOr, "decodersInput", 3)
	if got := strings.Join(names(decoders.Operands()), ","); got != "decoder1Node,decoder2Node,decoder3Node" {
		t.Fatalf("Unexpected decoders: %s", got)
	}

	// decoder1Node: Implication(decoder1, Or[filter1Node])
	decoder1 := decoders.Operand(0)
	expectNode(t, decoder1, expression.KindImplication, "decoder1Node", 2)
	if decoder1.Operand(0).Name() != "decoder1" {
		t.Errorf("Unexpected condition: %s", decoder1.Operand(0).Name())
	}
	children := decoder1.Operand(1)
	expectNode(t, children, expression.KindOr, "decoder1Children", 1)

	filter := children.Operand(0)
	expectNode(t, filter, expression.KindImplication, "filter1Node", 2)
	if filter.Operand(0).Name() != "filter1" {
		t.Errorf("Unexpected filter condition: %s", filter.Operand(0).Name())
	}
	filtered := filter.Operand(1)
	if !filtered.IsOperation() || len(filtered.Operands()) != 2 {
		t.Fatalf("Expected filter children operation with 2 operands, got %v", names(filtered.Operands()))
	}
	if got := strings.Join(names(filtered.Operands()), ","); got != "decoder1_1,decoder1_2" {
		t.Errorf("Unexpected filtered children: %s", got)
	}

	// общий потомок под decoder2 и decoder3
	for i, parent := range []string{"decoder2Node", "decoder3Node"} {
		node := decoders.Operand(i + 1)
		expectNode(t, node, expression.KindImplication, parent, 2)
		shared := node.Operand(1)
		expectNode(t, shared, expression.KindOr, strings.TrimSuffix(parent, "Node")+"Children", 1)
		if shared.Operand(0).Name() != "decoder23_1" {
			t.Errorf("Unexpected child of %s: %s", parent, shared.Operand(0).Name())
		}
	}
	if decoders.Operand(1).Operand(1).Operand(0) == decoders.Operand(2).Operand(1).Operand(0) {
		t.Error("Shared child must be instantiated per parent")
	}

	rules := root.Find("rulesInput")
	expectNode(t, rules, expression.KindBroadcast, "rulesInput", 2)
	rule1 := rules.Operand(0)
	expectNode(t, rule1, expression.KindImplication, "rule1Node", 2)
	expectNode(t, rule1.Operand(1), expression.KindBroadcast, "rule1Children", 1)
	if rule1.Operand(1).Operand(0).Name() != "rule1_1" {
		t.Errorf("Unexpected rule child: %s", rule1.Operand(1).Operand(0).Name())
	}
	if rules.Operand(1).Name() != "rule2" {
		t.Errorf("Unexpected second rule: %s", rules.Operand(1).Name())
	}

	outputs := root.Find("outputsInput")
	expectNode(t, outputs, expression.KindBroadcast, "outputsInput", 1)
	if outputs.Operand(0).Name() != "output1" {
		t.Errorf("Unexpected output: %s", outputs.Operand(0).Name())
	}
}

func TestCompleteEnvironmentEvaluation(t *testing.T) {
	env, err := testBuilder(t).Build("complete", completeSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// decoder1 совпадает, фильтр пропускает, decoder1_2 совпадает
	event, _ := models.NewEventFromString(`{"decoder1":1,"filter1":1,"decoder1_2":1,"rule2":1,"output1":1}`)
	result := env.Evaluate(event)
	if !result.Success {
		t.Fatalf("Expected success, traces: %v", result.Traces())
	}
	for _, field := range []string{"/matched/decoder1", "/matched/decoder1_2", "/matched/rule2"} {
		if !result.Event.Exists(field) {
			t.Errorf("Expected %s to be set", field)
		}
	}
	for _, field := range []string{"/matched/decoder1_1", "/matched/decoder2", "/matched/rule1"} {
		if result.Event.Exists(field) {
			t.Errorf("Expected %s to be unset", field)
		}
	}

	// фильтр не проходит: потомки decoder1 не оцениваются
	event, _ = models.NewEventFromString(`{"decoder1":1,"decoder1_1":1}`)
	result = env.Evaluate(event)
	if result.Event.Exists("/matched/decoder1_1") {
		t.Error("Filter must gate children of decoder1")
	}
	if !result.Event.Exists("/matched/decoder1") {
		t.Error("decoder1 itself must still normalize")
	}
}

func TestFirstMatchingDecoderWins(t *testing.T) {
	snapshot := catalog.NewSnapshot("ab").
		Add(asset.TypeDecoder, "A", []byte("name: A\ncheck:\n  - /type: a\nnormalize:\n  - map:\n      - /decoded: A\n")).
		Add(asset.TypeDecoder, "B", []byte("name: B\ncheck:\n  - /type: +exists\nnormalize:\n  - map:\n      - /decoded: B\n"))

	env, err := testBuilder(t).Build("ab", snapshot)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := map[string]string{
		`{"type":"a"}`: "A",
		`{"type":"b"}`: "B",
	}
	for raw, expected := range tests {
		event, _ := models.NewEventFromString(raw)
		result := env.Evaluate(event)
		if got, _ := result.Event.GetString("/decoded"); got != expected {
			t.Errorf("Event %s decoded by %q, expected %q", raw, got, expected)
		}
	}
}

func TestIsStringEndToEnd(t *testing.T) {
	snapshot := catalog.NewSnapshot("e2e").
		Add(asset.TypeDecoder, "decoder", []byte("name: decoder\ncheck:\n  - /ok: +is_string\n"))
	env, err := testBuilder(t).Build("e2e", snapshot)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	event, _ := models.NewEventFromString(`{"ok":1}`)
	result := env.Evaluate(event)
	if result.Success {
		t.Fatal("Expected failure for non-string field")
	}
	found := false
	for _, trace := range result.Traces() {
		if strings.Contains(trace, "/ok") && strings.Contains(trace, "Failure") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected failure trace citing /ok, got %v", result.Traces())
	}
}

func TestEdgeFilters(t *testing.T) {
	snapshot := catalog.NewSnapshot("edges").
		Add(asset.TypeRule, "parent", checkOnly("parent")).
		Add(asset.TypeRule, "child", []byte("name: child\nparents: [parent]\nfilters: [gate]\ncheck:\n  - /child: +exists\nnormalize:\n  - map:\n      - /hit: true\n")).
		Add(asset.TypeFilter, "gate", checkOnly("gate"))

	env, err := testBuilder(t).Build("edges", snapshot)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if findNode(env.Expression, "childFiltered") == nil {
		t.Fatal("Expected gated edge node")
	}

	event, _ := models.NewEventFromString(`{"parent":1,"child":1}`)
	if result := env.Evaluate(event); result.Event.Exists("/hit") {
		t.Error("Child must not run without gate")
	}
	event, _ = models.NewEventFromString(`{"parent":1,"child":1,"gate":1}`)
	if result := env.Evaluate(event); !result.Event.Exists("/hit") {
		t.Errorf("Child must run with gate, traces: %v", result.Traces())
	}
}

func TestRootFilterGatesAsset(t *testing.T) {
	snapshot := catalog.NewSnapshot("rootgate").
		Add(asset.TypeDecoder, "root", []byte("name: root\nfilters: [deny]\ncheck:\n  - /root: +exists\nnormalize:\n  - map:\n      - /matched/root: true\n")).
		Add(asset.TypeFilter, "deny", checkOnly("deny"))

	env, err := testBuilder(t).Build("rootgate", snapshot)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	expectNode(t, findNode(env.Expression, "rootFiltered"), expression.KindChain, "rootFiltered", 2)

	event, _ := models.NewEventFromString(`{"root":1}`)
	result := env.Evaluate(event)
	if result.Event.Exists("/matched/root") {
		t.Errorf("Root decoder must not run without its filter, traces: %v", result.Traces())
	}

	event, _ = models.NewEventFromString(`{"root":1,"deny":1}`)
	result = env.Evaluate(event)
	if !result.Event.Exists("/matched/root") {
		t.Errorf("Root decoder must run when its filter passes, traces: %v", result.Traces())
	}
}

func TestChildlessParentFilter(t *testing.T) {
	snapshot := catalog.NewSnapshot("refine").
		Add(asset.TypeOutput, "out", checkOnly("out")).
		Add(asset.TypeFilter, "only", checkOnly("only", "out"))

	env, err := testBuilder(t).Build("refine", snapshot)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	node := findNode(env.Expression, "outNode")
	expectNode(t, node, expression.KindChain, "outNode", 2)

	event, _ := models.NewEventFromString(`{"out":1}`)
	if env.Evaluate(event).Success {
		t.Error("Filter must refine childless output")
	}
}

func TestLinkErrors(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *catalog.Snapshot
		code     errors.ErrorCode
		asset    string
	}{
		{
			name: "orphan asset",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "child", checkOnly("child", "missing")),
			code:  errors.ErrorCodeOrphanAsset,
			asset: "child",
		},
		{
			name: "orphan filter",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "decoder", checkOnly("decoder")).
				Add(asset.TypeFilter, "filter", checkOnly("filter", "missing")),
			code:  errors.ErrorCodeOrphanFilter,
			asset: "filter",
		},
		{
			name: "detached filter",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "decoder", checkOnly("decoder")).
				Add(asset.TypeFilter, "filter", checkOnly("filter")),
			code:  errors.ErrorCodeOrphanFilter,
			asset: "filter",
		},
		{
			name: "filter as parent",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "decoder", checkOnly("decoder")).
				Add(asset.TypeFilter, "filter", checkOnly("filter", "decoder")).
				Add(asset.TypeDecoder, "child", checkOnly("child", "filter")),
			code:  errors.ErrorCodeOrphanAsset,
			asset: "child",
		},
		{
			name: "cross type parent",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "decoder", checkOnly("decoder")).
				Add(asset.TypeRule, "rule", checkOnly("rule", "decoder")),
			code:  errors.ErrorCodeCrossTypeParent,
			asset: "rule",
		},
		{
			name: "unknown filter",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "decoder", []byte("name: decoder\nfilters: [nope]\ncheck:\n  - /a: +exists\n")),
			code:  errors.ErrorCodeUnknownFilter,
			asset: "decoder",
		},
		{
			name: "duplicate",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "decoder", checkOnly("decoder")).
				Add(asset.TypeRule, "decoder", checkOnly("decoder")),
			code:  errors.ErrorCodeDuplicateAsset,
			asset: "decoder",
		},
		{
			name: "name mismatch",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "listed", checkOnly("declared")),
			code:  errors.ErrorCodeAssetInvalid,
			asset: "listed",
		},
		{
			name: "unknown helper",
			snapshot: catalog.NewSnapshot("e").
				Add(asset.TypeDecoder, "decoder", []byte("name: decoder\ncheck:\n  - /a: +does_not_exist\n")),
			code:  errors.ErrorCodeHelperUnknown,
			asset: "decoder",
		},
	}

	b := testBuilder(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build("e", tt.snapshot)
			if !errors.IsErrorCode(err, tt.code) {
				t.Fatalf("Expected %s, got %v", tt.code, err)
			}
			nsErr, _ := errors.As(err)
			if nsErr.Details["asset"] != tt.asset {
				t.Errorf("Expected asset %s in details, got %v", tt.asset, nsErr.Details["asset"])
			}
			if !errors.IsCatalogError(err) {
				t.Error("Link errors must be catalog errors")
			}
		})
	}
}

func TestCycleDetected(t *testing.T) {
	snapshot := catalog.NewSnapshot("cycle").
		Add(asset.TypeDecoder, "root", checkOnly("root")).
		Add(asset.TypeDecoder, "a", checkOnly("a", "root", "b")).
		Add(asset.TypeDecoder, "b", checkOnly("b", "a"))

	_, err := testBuilder(t).Build("cycle", snapshot)
	if !errors.IsErrorCode(err, errors.ErrorCodeCycleDetected) {
		t.Fatalf("Expected CYCLE_DETECTED, got %v", err)
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("Expected cycle path in message, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	env, err := testBuilder(t).Build("complete", completeSnapshot())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	summary := env.Summary()
	if summary.Counts[asset.TypeDecoder] != 6 || summary.Counts[asset.TypeFilter] != 1 {
		t.Errorf("Unexpected counts: %v", summary.Counts)
	}
	if summary.Assets[0].Name != "decoder1" {
		t.Errorf("Assets must follow catalog order, got %s", summary.Assets[0].Name)
	}
}
