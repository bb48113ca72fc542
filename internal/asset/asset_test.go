// filename: internal/asset/asset_test.go
package asset

import (
	"strings"
	"testing"

	"github.com/novasec/engine/internal/builder/helpers"
	"github.com/novasec/engine/internal/builder/registry"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := helpers.NewRegistry(helpers.Deps{})
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return reg
}

func evaluate(t *testing.T, a *Asset, raw string) expression.Result {
	t.Helper()
	expr, err := a.Expression()
	if err != nil {
		t.Fatalf("Expression failed: %v", err)
	}
	event, err := models.NewEventFromString(raw)
	if err != nil {
		t.Fatalf("Invalid event: %v", err)
	}
	return expression.Evaluate(expr, event)
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{
		"decoder":  TypeDecoder,
		"decoders": TypeDecoder,
		"RULES":    TypeRule,
		"filter":   TypeFilter,
		"outputs":  TypeOutput,
	}
	for input, expected := range tests {
		typ, err := ParseType(input)
		if err != nil || typ != expected {
			t.Errorf("ParseType(%s) = %s, %v", input, typ, err)
		}
	}
	if _, err := ParseType("policy"); err == nil {
		t.Error("Expected error for unknown type")
	}
	if TypeDecoder.RootName() != "decodersInput" {
		t.Errorf("Unexpected root name: %s", TypeDecoder.RootName())
	}
}

func TestParseJSONDefinition(t *testing.T) {
	data := []byte(`{
		"name": "decoder/test/0",
		"parents": ["decoder/parent/0"],
		"metadata": {"title": "test"},
		"check": [{"/ok": "+is_string"}, {"/level": 3}],
		"normalize": [{"map": [{"/event/kind": "alert"}, {"/copy": "$ok"}]}]
	}`)

	a, err := Parse(TypeDecoder, data, testRegistry(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.Name != "decoder/test/0" || a.Type != TypeDecoder {
		t.Errorf("Unexpected asset: %+v", a)
	}
	if len(a.Parents) != 1 || a.Parents[0] != "decoder/parent/0" {
		t.Errorf("Unexpected parents: %v", a.Parents)
	}

	expr, _ := a.Expression()
	if expr.Kind() != expression.KindImplication || expr.Name() != "decoder/test/0" {
		t.Errorf("Expected implication named after asset, got %s %s", expr.Kind(), expr.Name())
	}
	if expr.Operand(0).Name() != "decoder/test/0Condition" || expr.Operand(1).Name() != "decoder/test/0Normalize" {
		t.Errorf("Unexpected stage names: %s, %s", expr.Operand(0).Name(), expr.Operand(1).Name())
	}

	result := evaluate(t, a, `{"ok": "hello", "level": 3}`)
	if !result.Success {
		t.Fatalf("Expected success: %v", result.Traces())
	}
	if kind, _ := result.Event.GetString("/event/kind"); kind != "alert" {
		t.Errorf("Map stage not applied: %s", result.Event.String())
	}
	if copied, _ := result.Event.GetString("/copy"); copied != "hello" {
		t.Errorf("Reference map not applied: %s", result.Event.String())
	}

	result = evaluate(t, a, `{"ok": "hello", "level": 4}`)
	if result.Success {
		t.Error("Literal check should fail for level 4")
	}
}

func TestParseYAMLDefinition(t *testing.T) {
	data := []byte(`
name: rule/ssh/0
check:
  - /event/module: sshd
  - /user: +exists
normalize:
  - check:
      - /user: root
    map:
      - /rule/level: 10
  - map:
      - /rule/name: ssh login
`)

	a, err := Parse(TypeRule, data, testRegistry(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	result := evaluate(t, a, `{"event": {"module": "sshd"}, "user": "root"}`)
	if !result.Success {
		t.Fatalf("Expected success: %v", result.Traces())
	}
	if level, _ := result.Event.GetInt("/rule/level"); level != 10 {
		t.Errorf("Gated block should apply for root: %s", result.Event.String())
	}

	result = evaluate(t, a, `{"event": {"module": "sshd"}, "user": "bob"}`)
	if !result.Success {
		t.Fatalf("Failing block gate must not fail the asset: %v", result.Traces())
	}
	if result.Event.Exists("/rule/level") {
		t.Error("Gated block should be skipped for bob")
	}
	if name, _ := result.Event.GetString("/rule/name"); name != "ssh login" {
		t.Errorf("Ungated block should apply: %s", result.Event.String())
	}
}

func TestSingleStageLowering(t *testing.T) {
	reg := testRegistry(t)

	checkOnly, err := Parse(TypeDecoder, []byte(`{"name": "A", "check": [{"/ok": "+is_string"}]}`), reg)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	expr, _ := checkOnly.Expression()
	if expr.Kind() != expression.KindChain || expr.Name() != "A" {
		t.Errorf("Expected chain A, got %s %s", expr.Kind(), expr.Name())
	}

	result := evaluate(t, checkOnly, `{"ok": 5}`)
	if result.Success {
		t.Fatal("Expected failure for a number")
	}
	if !strings.Contains(strings.Join(result.Traces(), "\n"), "/ok") {
		t.Errorf("Trace should cite /ok: %v", result.Traces())
	}

	mapOnly, err := Parse(TypeOutput, []byte(`{"name": "out", "normalize": [{"map": [{"/x": 1}]}]}`), reg)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	expr, _ = mapOnly.Expression()
	if expr.Kind() != expression.KindChain || expr.Operand(0).Name() != "outNormalize" {
		t.Errorf("Unexpected map-only lowering: %s", expr.Operand(0).Name())
	}
}

func TestExpressionIsFreshPerCall(t *testing.T) {
	a, err := Parse(TypeDecoder, []byte(`{"name": "A", "check": [{"/ok": "+exists"}]}`), testRegistry(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	first, _ := a.Expression()
	second, _ := a.Expression()
	if first == second {
		t.Error("Each call must produce an independent tree")
	}
}

func TestParseErrors(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		typ  Type
		data string
		code errors.ErrorCode
	}{
		{"bad json", TypeDecoder, `{"name": `, errors.ErrorCodeAssetParseFailed},
		{"missing name", TypeDecoder, `{"check": [{"/a": 1}]}`, errors.ErrorCodeAssetInvalid},
		{"name with space", TypeDecoder, `{"name": "a b", "check": [{"/a": 1}]}`, errors.ErrorCodeAssetInvalid},
		{"no stages", TypeDecoder, `{"name": "a"}`, errors.ErrorCodeAssetInvalid},
		{"multi key entry", TypeDecoder, `{"name": "a", "check": [{"/a": 1, "/b": 2}]}`, errors.ErrorCodeAssetParseFailed},
		{"empty map block", TypeDecoder, `{"name": "a", "normalize": [{"map": []}]}`, errors.ErrorCodeAssetInvalid},
		{"unknown helper", TypeDecoder, `{"name": "a", "check": [{"/a": "+no_such_helper"}]}`, errors.ErrorCodeHelperUnknown},
		{"bad helper syntax", TypeDecoder, `{"name": "a", "check": [{"/a": "+Bad-Name"}]}`, errors.ErrorCodeHelperSyntax},
		{"arity", TypeDecoder, `{"name": "a", "check": [{"/a": "+int_equal"}]}`, errors.ErrorCodeHelperArity},
		{"bad regex", TypeDecoder, `{"name": "a", "check": [{"/a": "+regex_match/("}]}`, errors.ErrorCodeHelperInvalidLiteral},
		{"bad field", TypeDecoder, `{"name": "a", "check": [{"a..b": 1}]}`, errors.ErrorCodeReferenceInvalid},
		{"filter with filters", TypeFilter, `{"name": "f", "filters": ["g"], "check": [{"/a": 1}]}`, errors.ErrorCodeAssetInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.typ, []byte(tt.data), reg)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.IsErrorCode(err, tt.code) {
				t.Errorf("Expected %s, got %v", tt.code, err)
			}
			if !errors.IsCatalogError(err) {
				t.Errorf("Error should be classified as a catalog error: %v", err)
			}
		})
	}
}

func TestBuildErrorsNameAsset(t *testing.T) {
	_, err := Parse(TypeRule, []byte(`{"name": "rule/x/0", "check": [{"/a": "+int_less/abc"}]}`), testRegistry(t))
	novaSecErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("Expected NovaSecError, got %v", err)
	}
	if novaSecErr.Details["asset"] != "rule/x/0" {
		t.Errorf("Expected asset detail, got %v", novaSecErr.Details)
	}
	if novaSecErr.Details["helper"] != "int_less" {
		t.Errorf("Expected helper detail, got %v", novaSecErr.Details)
	}
}
