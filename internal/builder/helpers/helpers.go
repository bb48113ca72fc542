// filename: internal/builder/helpers/helpers.go
// Package helpers содержит библиотеку операторов, адресуемых по имени хелпера.
package helpers

import (
	"time"

	"github.com/novasec/engine/internal/builder/registry"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/hlp"
	"github.com/novasec/engine/internal/kvdb"
)

// DefaultKVDBTimeout ограничение на один вызов хранилища
const DefaultKVDBTimeout = 500 * time.Millisecond

// Deps внешние зависимости хелперов, захватываемые при регистрации
type Deps struct {
	KVDB        kvdb.Store
	KVDBTimeout time.Duration
	Logger      *logging.Logger
}

// RegisterAll регистрирует все хелперы в реестре // v1.0
func RegisterAll(reg *registry.Registry, deps Deps) error {
	if deps.KVDBTimeout <= 0 {
		deps.KVDBTimeout = DefaultKVDBTimeout
	}
	store := &kvdbHelpers{store: deps.KVDB, timeout: deps.KVDBTimeout}

	builders := map[string]registry.Builder{
		// фильтры сравнения
		"int_equal":               intComparison(OpEqual),
		"int_not_equal":           intComparison(OpNotEqual),
		"int_less":                intComparison(OpLess),
		"int_less_or_equal":       intComparison(OpLessOrEqual),
		"int_greater":             intComparison(OpGreater),
		"int_greater_or_equal":    intComparison(OpGreaterOrEqual),
		"string_equal":            stringComparison(OpEqual),
		"string_not_equal":        stringComparison(OpNotEqual),
		"string_less":             stringComparison(OpLess),
		"string_less_or_equal":    stringComparison(OpLessOrEqual),
		"string_greater":          stringComparison(OpGreater),
		"string_greater_or_equal": stringComparison(OpGreaterOrEqual),
		"starts_with":             stringComparison(OpStartsWith),
		"contains":                stringComparison(OpContains),
		"regex_match":             regexFilter(false),
		"regex_not_match":         regexFilter(true),
		"ip_cidr_match":           buildIPCIDRMatch,
		"exists":                  existsFilter(false),
		"not_exists":              existsFilter(true),
		"array_contains":          arrayContains(false),
		"array_not_contains":      arrayContains(true),

		// фильтры типов
		"is_number":      typeFilter("number", isNumber, false),
		"is_not_number":  typeFilter("number", isNumber, true),
		"is_string":      typeFilter("string", isString, false),
		"is_not_string":  typeFilter("string", isString, true),
		"is_boolean":     typeFilter("boolean", isBoolean, false),
		"is_not_boolean": typeFilter("boolean", isBoolean, true),
		"is_array":       typeFilter("array", isArray, false),
		"is_not_array":   typeFilter("array", isArray, true),
		"is_object":      typeFilter("object", isObject, false),
		"is_not_object":  typeFilter("object", isObject, true),
		"is_null":        typeFilter("null", isNull, false),
		"is_not_null":    typeFilter("null", isNull, true),
		"is_true":        typeFilter("true", isTrue, false),
		"is_false":       typeFilter("false", isFalse, false),

		// трансформации
		"string_upper":  stringCase(toUpper),
		"string_lower":  stringCase(toLower),
		"string_trim":   buildStringTrim,
		"string_concat": buildStringConcat,
		"int_calculate": buildIntCalculate,
		"delete_field":  buildDeleteField,
		"merge":         buildMerge,

		// специализированные парсеры
		"parse_bool":      specificParser(1, 1, fixed(hlp.ParseBool)),
		"parse_byte":      specificParser(1, 1, fixed(hlp.ParseByte)),
		"parse_long":      specificParser(1, 1, fixed(hlp.ParseLong)),
		"parse_float":     specificParser(1, 1, fixed(hlp.ParseFloat)),
		"parse_binary":    specificParser(1, 1, fixed(hlp.ParseBinary)),
		"parse_ip":        specificParser(1, 1, fixed(hlp.ParseIP)),
		"parse_uri":       specificParser(1, 1, fixed(hlp.ParseURI)),
		"parse_useragent": specificParser(1, 1, fixed(hlp.ParseUserAgent)),
		"parse_fqdn":      specificParser(1, 1, fixed(hlp.ParseFQDN)),
		"parse_file":      specificParser(1, 1, fixed(hlp.ParseFile)),
		"parse_json":      specificParser(1, 1, fixed(hlp.ParseJSON)),
		"parse_date":      specificParser(2, 3, dateParser),
		"parse_xml":       specificParser(1, 2, xmlParser),
		"parse_csv":       specificParser(2, -1, csvParser),
		"parse_key_value": specificParser(5, 5, keyValueParser),
		"parse_quoted":    specificParser(1, 3, quotedParser),
		"parse_between":   specificParser(3, 3, betweenParser),

		// KVDB
		"kvdb_get":       store.buildGet(false),
		"kvdb_get_merge": store.buildGet(true),
		"kvdb_set":       store.buildSet,
		"kvdb_match":     store.buildMatch(false),
		"kvdb_not_match": store.buildMatch(true),
		"kvdb_delete":    store.buildDelete,
	}

	for name, builder := range builders {
		if err := reg.Register(name, builder); err != nil {
			return err
		}
	}

	if deps.Logger != nil {
		deps.Logger.WithField("helpers", reg.Len()).Debug("Helper registry populated")
	}
	return nil
}

// NewRegistry создает реестр со всеми хелперами // v1.0
func NewRegistry(deps Deps) (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if err := RegisterAll(reg, deps); err != nil {
		return nil, err
	}
	return reg, nil
}
