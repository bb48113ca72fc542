// filename: internal/builder/helpers/helpers_test.go
package helpers

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/novasec/engine/internal/builder/registry"
	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/kvdb"
	"github.com/novasec/engine/internal/models"
)

func newTestRegistry(t *testing.T, store kvdb.Store) *registry.Registry {
	t.Helper()
	reg, err := NewRegistry(Deps{KVDB: store})
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return reg
}

func buildTerm(t *testing.T, reg *registry.Registry, target, name string, params ...string) *expression.Expression {
	t.Helper()
	expr, err := reg.Build(syntax.Definition{TargetField: target, HelperName: name, Parameters: params})
	if err != nil {
		t.Fatalf("Failed to build %s: %v", name, err)
	}
	return expr
}

func buildError(t *testing.T, reg *registry.Registry, name string, params ...string) error {
	t.Helper()
	_, err := reg.Build(syntax.Definition{TargetField: "/field", HelperName: name, Parameters: params})
	if err == nil {
		t.Fatalf("Expected build error for %s%v", name, params)
	}
	return err
}

func event(t *testing.T, raw string) *models.Event {
	t.Helper()
	e, err := models.NewEventFromString(raw)
	if err != nil {
		t.Fatalf("Invalid test event: %v", err)
	}
	return e
}

func TestTermNames(t *testing.T) {
	reg := newTestRegistry(t, nil)

	expr, err := reg.Build(syntax.Definition{TargetField: "/a", HelperName: "string_equal", Parameters: []string{"$b.c"}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if expr.Name() != "helper.string_equal[/a, $/b/c]" {
		t.Errorf("Unexpected term name: %s", expr.Name())
	}
}

func TestArityErrors(t *testing.T) {
	reg := newTestRegistry(t, kvdb.NewMemoryStore())

	tests := []struct {
		name   string
		params []string
		msg    string
	}{
		{"int_equal", nil, "Expected 1 parameters but got 0"},
		{"int_equal", []string{"1", "2"}, "Expected 1 parameters but got 2"},
		{"exists", []string{"x"}, "Expected 0 parameters but got 1"},
		{"array_contains", nil, "Expected at least 1 parameters but got 0"},
		{"ip_cidr_match", []string{"10.0.0.0"}, "Expected 2 parameters but got 1"},
		{"parse_bool", []string{"test", "TEST"}, "Expected 1 parameters but got 2"},
		{"parse_csv", []string{"source"}, "Expected at least 2 parameters but got 1"},
		{"kvdb_delete", []string{"$db", "unexpected_key"}, "Expected 1 parameters but got 2"},
	}

	for _, tt := range tests {
		err := buildError(t, reg, tt.name, tt.params...)
		if !errors.IsErrorCode(err, errors.ErrorCodeHelperArity) {
			t.Errorf("%s: expected HELPER_ARITY, got %v", tt.name, err)
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%s: expected message %q, got %q", tt.name, tt.msg, err.Error())
		}
		novaSecErr, _ := errors.As(err)
		if novaSecErr.Details["helper"] != tt.name {
			t.Errorf("%s: helper detail missing", tt.name)
		}
	}
}

func TestLiteralErrors(t *testing.T) {
	reg := newTestRegistry(t, nil)

	tests := []struct {
		name   string
		params []string
		code   errors.ErrorCode
	}{
		{"int_equal", []string{"abc"}, errors.ErrorCodeHelperInvalidLiteral},
		{"regex_match", []string{"(unclosed"}, errors.ErrorCodeHelperInvalidLiteral},
		{"regex_match", []string{"$ref"}, errors.ErrorCodeHelperParameterKind},
		{"ip_cidr_match", []string{"300.0.0.1", "16"}, errors.ErrorCodeHelperInvalidLiteral},
		{"ip_cidr_match", []string{"10.0.0.0", "33"}, errors.ErrorCodeHelperInvalidLiteral},
		{"ip_cidr_match", []string{"$net", "16"}, errors.ErrorCodeHelperParameterKind},
		{"int_calculate", []string{"pow", "2"}, errors.ErrorCodeHelperInvalidLiteral},
		{"int_calculate", []string{"div", "0"}, errors.ErrorCodeHelperInvalidLiteral},
		{"merge", []string{"literal"}, errors.ErrorCodeHelperParameterKind},
		{"parse_date", []string{"2019-01-01", "%Q"}, errors.ErrorCodeHelperInvalidLiteral},
		{"parse_xml", []string{"$src", "linux"}, errors.ErrorCodeHelperInvalidLiteral},
		{"kvdb_get", []string{"db", "key"}, errors.ErrorCodeUnavailable},
		{"int_equal", []string{"$a..b"}, errors.ErrorCodeReferenceInvalid},
	}

	for _, tt := range tests {
		err := buildError(t, reg, tt.name, tt.params...)
		if !errors.IsErrorCode(err, tt.code) {
			t.Errorf("%s%v: expected %s, got %v", tt.name, tt.params, tt.code, err)
		}
	}
}

func TestIntComparison(t *testing.T) {
	reg := newTestRegistry(t, nil)

	tests := []struct {
		helper  string
		param   string
		event   string
		success bool
		trace   string
	}{
		{"int_equal", "10", `{"field": 10}`, true, "-> Success"},
		{"int_equal", "10", `{"field": 11}`, false, "Comparison is false"},
		{"int_greater", "10", `{"field": 11}`, true, ""},
		{"int_greater_or_equal", "10", `{"field": 10}`, true, ""},
		{"int_less", "10", `{"field": 10}`, false, ""},
		{"int_less_or_equal", "$other", `{"field": 3, "other": 3}`, true, ""},
		{"int_less", "$other", `{"field": 3}`, false, "Parameter '/other' reference not found"},
		{"int_equal", "10", `{}`, false, "Target field '/field' not found"},
		{"int_equal", "10", `{"field": "10"}`, false, "is not an integer"},
		{"int_equal", "10", `{"field": 10.5}`, false, "is not an integer"},
		{"int_not_equal", "10", `{"field": 11}`, true, ""},
	}

	for _, tt := range tests {
		term := buildTerm(t, reg, "/field", tt.helper, tt.param)
		result := expression.Evaluate(term, event(t, tt.event))
		if result.Success != tt.success {
			t.Errorf("%s(%s) on %s: expected %v, got %v (%s)", tt.helper, tt.param, tt.event, tt.success, result.Success, result.Trace)
		}
		if tt.trace != "" && !strings.Contains(result.Trace, tt.trace) {
			t.Errorf("%s: expected trace containing %q, got %q", tt.helper, tt.trace, result.Trace)
		}
	}
}

func TestStringComparison(t *testing.T) {
	reg := newTestRegistry(t, nil)

	tests := []struct {
		helper  string
		param   string
		event   string
		success bool
	}{
		{"string_equal", "abc", `{"field": "abc"}`, true},
		{"string_equal", "$ref", `{"field": "abc", "ref": "abc"}`, true},
		{"string_not_equal", "abc", `{"field": "abd"}`, true},
		{"string_less_or_equal", "10", `{"field": "10"}`, true},
		{"string_less_or_equal", "10", `{"field": "9"}`, false},
		{"string_greater", "10", `{"field": "9"}`, true},
		{"string_greater_or_equal", "$ref", `{"field": "20", "ref": "100"}`, true},
		{"string_less", "10", `{"field": "abc"}`, false},
		{"string_less", "abc", `{"field": "1"}`, false},
		{"starts_with", "hel", `{"field": "hello"}`, true},
		{"starts_with", "lo", `{"field": "hello"}`, false},
		{"contains", "ll", `{"field": "hello"}`, true},
		{"contains", "", `{"field": "hello"}`, false},
		{"string_equal", "5", `{"field": 5}`, false},
	}

	for _, tt := range tests {
		term := buildTerm(t, reg, "/field", tt.helper, tt.param)
		result := expression.Evaluate(term, event(t, tt.event))
		if result.Success != tt.success {
			t.Errorf("%s(%s) on %s: expected %v, got %v (%s)", tt.helper, tt.param, tt.event, tt.success, result.Success, result.Trace)
		}
	}
}

func TestRegexAndCIDR(t *testing.T) {
	reg := newTestRegistry(t, nil)

	match := buildTerm(t, reg, "/field", "regex_match", `^\d+$`)
	if !expression.Evaluate(match, event(t, `{"field": "123"}`)).Success {
		t.Error("regex_match should match digits")
	}
	result := expression.Evaluate(match, event(t, `{"field": "12a"}`))
	if result.Success || !strings.Contains(result.Trace, "Regex did not match") {
		t.Errorf("Unexpected regex result: %+v", result)
	}

	notMatch := buildTerm(t, reg, "/field", "regex_not_match", `^\d+$`)
	if !expression.Evaluate(notMatch, event(t, `{"field": "abc"}`)).Success {
		t.Error("regex_not_match should succeed for letters")
	}

	cidr := buildTerm(t, reg, "/ip", "ip_cidr_match", "192.168.0.0", "16")
	if !expression.Evaluate(cidr, event(t, `{"ip": "192.168.5.5"}`)).Success {
		t.Error("192.168.5.5 should be in 192.168.0.0/16")
	}
	result = expression.Evaluate(cidr, event(t, `{"ip": "192.169.0.1"}`))
	if result.Success || !strings.Contains(result.Trace, "IP address is not in CIDR") {
		t.Errorf("192.169.0.1 should not match: %+v", result)
	}

	dotted := buildTerm(t, reg, "/ip", "ip_cidr_match", "10.1.2.3", "255.255.255.0")
	if !expression.Evaluate(dotted, event(t, `{"ip": "10.1.2.254"}`)).Success {
		t.Error("dotted mask should match within /24")
	}
	if expression.Evaluate(dotted, event(t, `{"ip": "not-an-ip"}`)).Success {
		t.Error("invalid address should fail")
	}
}

func TestExistsAndArrays(t *testing.T) {
	reg := newTestRegistry(t, nil)

	exists := buildTerm(t, reg, "/field", "exists")
	notExists := buildTerm(t, reg, "/field", "not_exists")
	if !expression.Evaluate(exists, event(t, `{"field": null}`)).Success {
		t.Error("null field exists")
	}
	if !expression.Evaluate(notExists, event(t, `{}`)).Success {
		t.Error("missing field should satisfy not_exists")
	}

	contains := buildTerm(t, reg, "/tags", "array_contains", "x", "$ref")
	if !expression.Evaluate(contains, event(t, `{"tags": ["a", "x"]}`)).Success {
		t.Error("array should contain literal x")
	}
	if !expression.Evaluate(contains, event(t, `{"tags": [1, {"k": 2}], "ref": {"k": 2}}`)).Success {
		t.Error("array should contain referenced object")
	}
	result := expression.Evaluate(contains, event(t, `{"tags": ["a"]}`))
	if result.Success || !strings.Contains(result.Trace, "does not contain any of the parameters") {
		t.Errorf("Unexpected result: %+v", result)
	}

	notContains := buildTerm(t, reg, "/tags", "array_not_contains", "x")
	if !expression.Evaluate(notContains, event(t, `{"tags": ["a"]}`)).Success {
		t.Error("array_not_contains should succeed")
	}
	if expression.Evaluate(notContains, event(t, `{"tags": "x"}`)).Success {
		t.Error("non-array target should fail")
	}
}

func TestTypeFilters(t *testing.T) {
	reg := newTestRegistry(t, nil)
	doc := `{"s": "x", "n": 1, "b": true, "f": false, "a": [], "o": {}, "z": null}`

	tests := []struct {
		helper  string
		field   string
		success bool
	}{
		{"is_string", "/s", true},
		{"is_string", "/n", false},
		{"is_not_string", "/n", true},
		{"is_number", "/n", true},
		{"is_boolean", "/b", true},
		{"is_not_boolean", "/s", true},
		{"is_array", "/a", true},
		{"is_object", "/o", true},
		{"is_not_object", "/a", true},
		{"is_null", "/z", true},
		{"is_not_null", "/z", false},
		{"is_true", "/b", true},
		{"is_true", "/f", false},
		{"is_false", "/f", true},
		{"is_string", "/missing", false},
	}

	for _, tt := range tests {
		term := buildTerm(t, reg, tt.field, tt.helper)
		result := expression.Evaluate(term, event(t, doc))
		if result.Success != tt.success {
			t.Errorf("%s on %s: expected %v, got %v (%s)", tt.helper, tt.field, tt.success, result.Success, result.Trace)
		}
	}
}

func TestTransforms(t *testing.T) {
	reg := newTestRegistry(t, nil)

	e := event(t, `{"name": "Alice", "n": 10, "m": 3, "pad": "--x--", "obj": {"a":1}, "extra": {"b":2}}`)
	steps := []*expression.Expression{
		buildTerm(t, reg, "/upper", "string_upper", "$name"),
		buildTerm(t, reg, "/lower", "string_lower", "ABC"),
		buildTerm(t, reg, "/pad", "string_trim", "both", "-"),
		buildTerm(t, reg, "/greeting", "string_concat", "hi ", "$name", "$n"),
		buildTerm(t, reg, "/n", "int_calculate", "mul", "$m", "2"),
		buildTerm(t, reg, "/obj", "merge", "$extra"),
		buildTerm(t, reg, "/name", "delete_field"),
	}
	chain, err := expression.NewChain("transforms", steps...)
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}

	result := expression.Evaluate(chain, e)
	if !result.Success {
		t.Fatalf("Transforms failed: %v", result.Traces())
	}

	checks := map[string]string{
		"/upper":    `"ALICE"`,
		"/lower":    `"abc"`,
		"/pad":      `"x"`,
		"/greeting": `"hi Alice10"`,
		"/n":        `60`,
		"/obj":      `{"a":1,"b":2}`,
	}
	for path, expected := range checks {
		raw, ok := result.Event.Raw(path)
		if !ok || raw != expected {
			t.Errorf("%s: expected %s, got %s", path, expected, raw)
		}
	}
	if result.Event.Exists("/name") || result.Event.Exists("/extra") {
		t.Error("name and extra should be removed")
	}
}

func TestIntCalculateRuntimeDivision(t *testing.T) {
	reg := newTestRegistry(t, nil)
	term := buildTerm(t, reg, "/n", "int_calculate", "div", "$d")

	result := expression.Evaluate(term, event(t, `{"n": 10, "d": 0}`))
	if result.Success || !strings.Contains(result.Trace, "Division by zero") {
		t.Errorf("Expected division failure, got %+v", result)
	}

	result = expression.Evaluate(term, event(t, `{"n": 10, "d": 3}`))
	if raw, _ := result.Event.Raw("/n"); !result.Success || raw != "3" {
		t.Errorf("Expected 3, got %s", raw)
	}
}

func TestIntCalculateOverflow(t *testing.T) {
	reg := newTestRegistry(t, nil)

	tests := []struct {
		operator string
		operand  string
		value    string
	}{
		{"sum", "9223372036854775807", "1"},
		{"sum", "-9223372036854775808", "-1"},
		{"sub", "-9223372036854775807", "2"},
		{"sub", "1", "-9223372036854775808"},
		{"mul", "2", "4611686018427387904"},
		{"mul", "-1", "-9223372036854775808"},
	}
	for _, tt := range tests {
		term := buildTerm(t, reg, "/n", "int_calculate", tt.operator, tt.operand)
		result := expression.Evaluate(term, event(t, `{"n": `+tt.value+`}`))
		if result.Success || !strings.Contains(result.Trace, "Integer overflow") {
			t.Errorf("%s %s on %s: expected overflow failure, got %s", tt.operator, tt.operand, tt.value, result.Trace)
		}
		if raw, _ := result.Event.Raw("/n"); raw != tt.value {
			t.Errorf("%s %s: target must stay %s, got %s", tt.operator, tt.operand, tt.value, raw)
		}
	}

	term := buildTerm(t, reg, "/n", "int_calculate", "sum", "9223372036854775806")
	result := expression.Evaluate(term, event(t, `{"n": 1}`))
	if raw, _ := result.Event.Raw("/n"); !result.Success || raw != "9223372036854775807" {
		t.Errorf("Expected max int64, got %s (%s)", raw, result.Trace)
	}
}

func TestSpecificParsers(t *testing.T) {
	reg := newTestRegistry(t, nil)

	tests := []struct {
		helper   string
		params   []string
		event    string
		success  bool
		expected string
	}{
		{"parse_bool", []string{"true"}, `{"field": "test"}`, true, `true`},
		{"parse_bool", []string{"invalidValue"}, `{"field": "test"}`, false, `"test"`},
		{"parse_bool", []string{"$field_ref"}, `{"field": "test", "field_ref": "true"}`, true, `true`},
		{"parse_byte", []string{"-125"}, `{"field": "test"}`, true, `-125`},
		{"parse_long", []string{"$field_ref"}, `{"field": "test", "field_ref": "-9223372036854775808"}`, true, `-9223372036854775808`},
		{"parse_float", []string{"-1.797693133354187"}, `{"field": "test"}`, true, `-1.797693133354187`},
		{"parse_binary", []string{"dGVzdA=="}, `{"field": "test"}`, true, `"dGVzdA=="`},
		{"parse_ip", []string{"::1"}, `{"field": "test"}`, true, `"::1"`},
		{"parse_uri", []string{"$field_ref"}, `{"field": "test", "field_ref": "http://www.wazuh.com"}`, true,
			`{"original":"http://www.wazuh.com/","scheme":"http","domain":"www.wazuh.com","path":"/"}`},
		{"parse_fqdn", []string{"....."}, `{"field": "test"}`, false, `"test"`},
		{"parse_json", []string{`{"test": "test"}`}, `{"field": "test"}`, true, `{"test":"test"}`},
		{"parse_xml", []string{`<test attr="123">value</test>`}, `{"field": "test"}`, true, `{"test":{"#text":"value","@attr":"123"}}`},
		{"parse_csv", []string{"test,123", "field1", "field2"}, `{"field": false}`, true, `{"field1":"test","field2":123}`},
		{"parse_csv", []string{"test 123 456", "field1", "field2"}, `{"field": false}`, false, `false`},
		{"parse_key_value", []string{`key1=value1 key2="value2"`, "=", " ", `"`, `\`}, `{"field": "test"}`, true, `{"key1":"value1","key2":"value2"}`},
		{"parse_quoted", []string{"#test quoted string#", "#"}, `{"field": "test"}`, true, `"test quoted string"`},
		{"parse_between", []string{"start value end", "start ", " end"}, `{"field": "test"}`, true, `"value"`},
		{"parse_date", []string{"2019-01-01", "%Y-%m-%d", "en_US.UTF-8"}, `{"field": "test"}`, true, `"2019-01-01T00:00:00.000Z"`},
	}

	for _, tt := range tests {
		term := buildTerm(t, reg, "/field", tt.helper, tt.params...)
		result := expression.Evaluate(term, event(t, tt.event))
		if result.Success != tt.success {
			t.Errorf("%s%v: expected %v, got %v (%s)", tt.helper, tt.params, tt.success, result.Success, result.Trace)
			continue
		}
		if raw, _ := result.Event.Raw("/field"); raw != tt.expected {
			t.Errorf("%s%v: expected field %s, got %s", tt.helper, tt.params, tt.expected, raw)
		}
	}
}

func TestSpecificParserReferenceNotFound(t *testing.T) {
	reg := newTestRegistry(t, nil)

	for _, name := range []string{"parse_bool", "parse_ip", "parse_uri", "parse_json", "parse_file"} {
		term := buildTerm(t, reg, "/field_dst", name, "$field_ref")
		result := expression.Evaluate(term, event(t, `{"field": "test"}`))
		if result.Success {
			t.Errorf("%s should fail for a missing reference", name)
		}
		if result.Event.Exists("/field_dst") || result.Event.Exists("/field_ref") {
			t.Errorf("%s must not create fields on failure", name)
		}
	}
}

func TestKVDBHelpers(t *testing.T) {
	store := kvdb.NewMemoryStore()
	reg := newTestRegistry(t, store)

	set := buildTerm(t, reg, "/stored", "kvdb_set", "geo", "$host", "$info")
	e := event(t, `{"host": "web01", "info": {"dc":"eu"}}`)
	if result := expression.Evaluate(set, e); !result.Success {
		t.Fatalf("kvdb_set failed: %s", result.Trace)
	}
	if raw, _ := e.Raw("/stored"); raw != "true" {
		t.Errorf("kvdb_set should set target to true, got %s", raw)
	}

	get := buildTerm(t, reg, "/geo", "kvdb_get", "geo", "$host")
	e = event(t, `{"host": "web01"}`)
	if result := expression.Evaluate(get, e); !result.Success {
		t.Fatalf("kvdb_get failed: %s", result.Trace)
	}
	if raw, _ := e.Raw("/geo"); raw != `{"dc":"eu"}` {
		t.Errorf("Unexpected kvdb_get value: %s", raw)
	}

	merge := buildTerm(t, reg, "/geo", "kvdb_get_merge", "geo", "web01")
	e = event(t, `{"geo": {"rack":4}}`)
	if result := expression.Evaluate(merge, e); !result.Success {
		t.Fatalf("kvdb_get_merge failed: %s", result.Trace)
	}
	if raw, _ := e.Raw("/geo"); raw != `{"rack":4,"dc":"eu"}` {
		t.Errorf("Unexpected merged value: %s", raw)
	}

	match := buildTerm(t, reg, "/host", "kvdb_match", "geo")
	notMatch := buildTerm(t, reg, "/host", "kvdb_not_match", "geo")
	if !expression.Evaluate(match, event(t, `{"host": "web01"}`)).Success {
		t.Error("kvdb_match should find web01")
	}
	if !expression.Evaluate(notMatch, event(t, `{"host": "db01"}`)).Success {
		t.Error("kvdb_not_match should succeed for db01")
	}

	missing := expression.Evaluate(get, event(t, `{"host": "db01"}`))
	if missing.Success {
		t.Error("kvdb_get should fail for a missing key")
	}
}

func TestKVDBDelete(t *testing.T) {
	store := kvdb.NewMemoryStore()
	reg := newTestRegistry(t, store)

	store.CreateDB("TEST_DB_1")
	byValue := buildTerm(t, reg, "/output", "kvdb_delete", "TEST_DB_1")
	e := event(t, `{}`)
	if result := expression.Evaluate(byValue, e); !result.Success {
		t.Fatalf("kvdb_delete failed: %s", result.Trace)
	}
	if e.String() != `{"output":true}` {
		t.Errorf("Unexpected event: %s", e.String())
	}

	store.CreateDB("TEST_DB_2")
	byReference := buildTerm(t, reg, "/output", "kvdb_delete", "$test_db_name")
	e = event(t, `{"test_db_name": "TEST_DB_2"}`)
	if result := expression.Evaluate(byReference, e); !result.Success {
		t.Fatalf("kvdb_delete by reference failed: %s", result.Trace)
	}
	if raw, _ := e.Raw("/output"); raw != "true" {
		t.Errorf("Expected output true, got %s", raw)
	}

	// базы больше нет
	if result := expression.Evaluate(byValue, event(t, `{}`)); result.Success {
		t.Error("Deleting a missing database should fail")
	}
}

func TestLiteralEntries(t *testing.T) {
	check, err := BuildCheckValue("/level", `3`)
	if err != nil {
		t.Fatalf("BuildCheckValue failed: %v", err)
	}
	if !expression.Evaluate(check, event(t, `{"level": 3.0}`)).Success {
		t.Error("numeric literal should match 3.0")
	}
	if expression.Evaluate(check, event(t, `{"level": "3"}`)).Success {
		t.Error("string should not match numeric literal")
	}
	if _, err := BuildCheckValue("/level", `{bad`); !errors.IsErrorCode(err, errors.ErrorCodeHelperInvalidLiteral) {
		t.Errorf("Expected invalid literal, got %v", err)
	}

	ref, _ := syntax.Classify("$src")
	same := BuildCheckReference("/dst", ref)
	if !expression.Evaluate(same, event(t, `{"src": {"a": [1]}, "dst": {"a": [1]}}`)).Success {
		t.Error("equal objects should match")
	}

	e := event(t, `{"src": "v"}`)
	mapValue, _ := BuildMapValue("/event/kind", `"alert"`)
	copyRef := BuildMapReference("/copy", ref)
	expression.Evaluate(mapValue, e)
	expression.Evaluate(copyRef, e)
	if kind, _ := e.GetString("/event/kind"); kind != "alert" {
		t.Errorf("Unexpected kind: %s", e.String())
	}
	if copied, _ := e.GetString("/copy"); copied != "v" {
		t.Errorf("Unexpected copy: %s", e.String())
	}
}

// TestIntComparisonConsistencyProperty: int_greater(a,b) == !int_less_or_equal(a,b)
func TestIntComparisonConsistencyProperty(t *testing.T) {
	reg := newTestRegistry(t, nil)
	greater := buildTerm(t, reg, "/a", "int_greater", "$b")
	lessOrEqual := buildTerm(t, reg, "/a", "int_less_or_equal", "$b")

	properties := gopter.NewProperties(nil)
	properties.Property("greater is negation of less_or_equal", prop.ForAll(
		func(a, b int64) bool {
			e := models.EmptyEvent()
			_ = e.Set("/a", a)
			_ = e.Set("/b", b)
			g := expression.Evaluate(greater, e).Success
			le := expression.Evaluate(lessOrEqual, e).Success
			return g == !le
		},
		gen.Int64(),
		gen.Int64(),
	))
	properties.TestingRun(t)
}
