// filename: internal/hlp/uri.go
package hlp

import (
	"fmt"
	"net/url"

	"github.com/tidwall/sjson"
)

// ParseURI разбирает абсолютный URI в объект с компонентами // v1.0
func ParseURI(input string) (string, error) {
	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URI: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("'%s' is not an absolute URI", input)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	fields := []struct{ key, value string }{
		{"original", parsed.String()},
		{"scheme", parsed.Scheme},
		{"domain", parsed.Hostname()},
		{"port", parsed.Port()},
		{"path", parsed.Path},
		{"query", parsed.RawQuery},
		{"fragment", parsed.Fragment},
		{"username", parsed.User.Username()},
	}
	if password, ok := parsed.User.Password(); ok {
		fields = append(fields, struct{ key, value string }{"password", password})
	}

	result := "{}"
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		result, err = sjson.Set(result, field.key, field.value)
		if err != nil {
			return "", err
		}
	}
	return result, nil
}
