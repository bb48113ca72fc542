// filename: internal/builder/syntax/definition.go
package syntax

import (
	"fmt"
	"strings"

	"github.com/novasec/engine/internal/common/errors"
)

// Definition описывает один вызов хелпера: (целевое поле, имя, сырые параметры)
type Definition struct {
	TargetField string
	HelperName  string
	Parameters  []string
}

// IsHelper проверяет, является ли значение вызовом хелпера // v1.0
func IsHelper(value string) bool {
	return len(value) > 1 && value[0] == HelperPrefix
}

// ParseHelper разбирает строку вида "+name/p1/p2" для целевого поля // v1.0
func ParseHelper(targetField, invocation string) (Definition, error) {
	target, err := FieldPath(targetField)
	if err != nil {
		return Definition{}, errors.Newf(errors.ErrorCodeReferenceInvalid,
			"invalid target field '%s': %v", targetField, err)
	}

	if !IsHelper(invocation) {
		return Definition{}, errors.Newf(errors.ErrorCodeHelperSyntax,
			"'%s' is not a helper invocation, expected '%c<name>[/param...]'", invocation, HelperPrefix)
	}

	parts := SplitEscaped(invocation[1:], ParameterSeparator, EscapeChar)
	name := parts[0]
	if !validHelperName(name) {
		return Definition{}, errors.Newf(errors.ErrorCodeHelperSyntax,
			"invalid helper name '%s' in '%s'", name, invocation)
	}

	return Definition{
		TargetField: target,
		HelperName:  name,
		Parameters:  parts[1:],
	}, nil
}

// FormatName строит имя терма "helper.<name>[<target>, p1, ...]" // v1.0
func FormatName(helperName, targetField string, parameters []Parameter) string {
	items := make([]string, 0, len(parameters)+1)
	items = append(items, targetField)
	for _, parameter := range parameters {
		items = append(items, parameter.String())
	}
	return fmt.Sprintf("helper.%s[%s]", helperName, strings.Join(items, ", "))
}

func validHelperName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' {
			return false
		}
	}
	return true
}
