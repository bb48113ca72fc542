// filename: internal/builder/helpers/filters.go
package helpers

import (
	"encoding/binary"
	"net/netip"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// regexFilter строит regex_match / regex_not_match.
// Шаблон компилируется один раз при сборке.
func regexFilter(negate bool) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if err := h.checkArity(1); err != nil {
			return nil, err
		}
		if err := h.requireKind(0, syntax.ParameterValue); err != nil {
			return nil, err
		}

		pattern, err := regexp.Compile(h.parameters[0].Value)
		if err != nil {
			return nil, h.invalidLiteral("invalid regex '%s': %v", h.parameters[0].Value, err)
		}

		return h.term(func(event *models.Event) expression.Result {
			value, ok := event.GetString(h.target)
			if !ok {
				return h.failure(event, traceTargetNotFound, h.target)
			}

			matched := pattern.MatchString(value)
			switch {
			case matched && negate:
				return h.failure(event, "Regex did match")
			case !matched && !negate:
				return h.failure(event, "Regex did not match")
			}
			return h.success(event)
		}), nil
	}
}

// buildIPCIDRMatch строит ip_cidr_match(network, mask) // v1.0
func buildIPCIDRMatch(def syntax.Definition) (*expression.Expression, error) {
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

	network, err := parseIPv4(h.parameters[0].Value)
	if err != nil {
		return nil, h.invalidLiteral("invalid network '%s'", h.parameters[0].Value)
	}
	mask, err := parseMask(h.parameters[1].Value)
	if err != nil {
		return nil, h.invalidLiteral("invalid mask '%s'", h.parameters[1].Value)
	}

	lower := network & mask
	upper := lower | ^mask

	return h.term(func(event *models.Event) expression.Result {
		value, ok := event.GetString(h.target)
		if !ok {
			return h.failure(event, traceTargetNotFound, h.target)
		}

		address, err := parseIPv4(value)
		if err != nil {
			return h.failure(event, "Target field '%s' is not a valid IPv4 address", h.target)
		}
		if address < lower || address > upper {
			return h.failure(event, "IP address is not in CIDR")
		}
		return h.success(event)
	}), nil
}

func parseIPv4(value string) (uint32, error) {
	address, err := netip.ParseAddr(value)
	if err != nil {
		return 0, err
	}
	if !address.Is4() {
		return 0, strconv.ErrSyntax
	}
	octets := address.As4()
	return binary.BigEndian.Uint32(octets[:]), nil
}

// parseMask принимает длину префикса ("16") или маску ("255.255.0.0")
func parseMask(value string) (uint32, error) {
	if bits, err := strconv.Atoi(value); err == nil {
		if bits < 0 || bits > 32 {
			return 0, strconv.ErrRange
		}
		if bits == 0 {
			return 0, nil
		}
		return ^uint32(0) << (32 - bits), nil
	}
	return parseIPv4(value)
}

// existsFilter строит exists / not_exists // v1.0
func existsFilter(negate bool) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if err := h.checkArity(0); err != nil {
			return nil, err
		}

		return h.term(func(event *models.Event) expression.Result {
			exists := event.Exists(h.target)
			switch {
			case exists && negate:
				return h.failure(event, "Target field '%s' does exist", h.target)
			case !exists && !negate:
				return h.failure(event, "Target field '%s' does not exist", h.target)
			}
			return h.success(event)
		}), nil
	}
}

// arrayContains строит array_contains / array_not_contains.
// Побеждает первый параметр, найденный в массиве.
func arrayContains(negate bool) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if err := h.checkMinArity(1); err != nil {
			return nil, err
		}

		return h.term(func(event *models.Event) expression.Result {
			array := event.Get(h.target)
			if !array.IsArray() {
				if array.Exists() {
					return h.failure(event, "Target field '%s' is not an array", h.target)
				}
				return h.failure(event, traceTargetNotFound, h.target)
			}
			elements := array.Array()

			found := false
			for _, parameter := range h.parameters {
				if containsParameter(event, elements, parameter) {
					found = true
					break
				}
			}

			switch {
			case found && negate:
				return h.failure(event, "Target array '%s' contains one of the parameters", h.target)
			case !found && !negate:
				return h.failure(event, "Target array '%s' does not contain any of the parameters", h.target)
			}
			return h.success(event)
		}), nil
	}
}

// containsParameter ищет значение параметра среди элементов массива.
// Литерал сравнивается как строка, ссылка как JSON значение.
func containsParameter(event *models.Event, elements []gjson.Result, parameter syntax.Parameter) bool {
	if !parameter.IsReference() {
		for _, element := range elements {
			if element.Type == gjson.String && element.String() == parameter.Value {
				return true
			}
		}
		return false
	}

	value := event.Get(parameter.Value)
	if !value.Exists() {
		return false
	}
	for _, element := range elements {
		if jsonEqual(element, value) {
			return true
		}
	}
	return false
}

// typeFilter строит фильтры типа is_* / is_not_* // v1.0
func typeFilter(kind string, check func(gjson.Result) bool, negate bool) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if err := h.checkArity(0); err != nil {
			return nil, err
		}

		return h.term(func(event *models.Event) expression.Result {
			value := event.Get(h.target)
			if !value.Exists() {
				return h.failure(event, traceTargetNotFound, h.target)
			}

			matches := check(value)
			switch {
			case matches && negate:
				return h.failure(event, "Target field '%s' is a %s", h.target, kind)
			case !matches && !negate:
				return h.failure(event, "Target field '%s' is not a %s", h.target, kind)
			}
			return h.success(event)
		}), nil
	}
}

func isString(v gjson.Result) bool  { return v.Type == gjson.String }
func isNumber(v gjson.Result) bool  { return v.Type == gjson.Number }
func isBoolean(v gjson.Result) bool { return v.Type == gjson.True || v.Type == gjson.False }
func isArray(v gjson.Result) bool   { return v.IsArray() }
func isObject(v gjson.Result) bool  { return v.IsObject() }
func isNull(v gjson.Result) bool    { return v.Type == gjson.Null }
func isTrue(v gjson.Result) bool    { return v.Type == gjson.True }
func isFalse(v gjson.Result) bool   { return v.Type == gjson.False }
