// filename: internal/models/event.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Event представляет изменяемый JSON документ события.
// Поля адресуются путями в стиле JSON Pointer ("/a/b/0").
// Event не потокобезопасен: каждая оценка работает со своим экземпляром.
type Event struct {
	raw []byte
}

// NewEvent создает событие из JSON объекта // v1.0
func NewEvent(data []byte) (*Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty event")
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON event")
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("event must be a JSON object")
	}

	raw := make([]byte, len(data))
	copy(raw, data)
	return &Event{raw: raw}, nil
}

// NewEventFromString создает событие из строки // v1.0
func NewEventFromString(s string) (*Event, error) {
	return NewEvent([]byte(s))
}

// NewEventFromNDJSON создает событие из NDJSON строки // v1.0
func NewEventFromNDJSON(ndjsonLine string) (*Event, error) {
	ndjsonLine = strings.TrimSpace(ndjsonLine)
	if ndjsonLine == "" {
		return nil, fmt.Errorf("empty NDJSON line")
	}
	return NewEventFromString(ndjsonLine)
}

// EmptyEvent возвращает пустое событие "{}" // v1.0
func EmptyEvent() *Event {
	return &Event{raw: []byte("{}")}
}

// Get возвращает значение по пути // v1.0
func (e *Event) Get(path string) gjson.Result {
	if isRoot(path) {
		return gjson.ParseBytes(e.raw)
	}
	return gjson.GetBytes(e.raw, toGJSONPath(path))
}

// Exists проверяет существование поля // v1.0
func (e *Event) Exists(path string) bool {
	return e.Get(path).Exists()
}

// Raw возвращает JSON текст значения // v1.0
func (e *Event) Raw(path string) (string, bool) {
	value := e.Get(path)
	if !value.Exists() {
		return "", false
	}
	return value.Raw, true
}

// GetString возвращает строковое значение // v1.0
func (e *Event) GetString(path string) (string, bool) {
	value := e.Get(path)
	if value.Type != gjson.String {
		return "", false
	}
	return value.String(), true
}

// GetInt возвращает целое значение; дробные числа не считаются целыми // v1.0
func (e *Event) GetInt(path string) (int64, bool) {
	value := e.Get(path)
	if value.Type != gjson.Number {
		return 0, false
	}
	n, err := strconv.ParseInt(value.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetFloat возвращает числовое значение // v1.0
func (e *Event) GetFloat(path string) (float64, bool) {
	value := e.Get(path)
	if value.Type != gjson.Number {
		return 0, false
	}
	return value.Float(), true
}

// GetBool возвращает булево значение // v1.0
func (e *Event) GetBool(path string) (bool, bool) {
	value := e.Get(path)
	switch value.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	default:
		return false, false
	}
}

// IsString проверяет, что поле строка
func (e *Event) IsString(path string) bool { return e.Get(path).Type == gjson.String }

// IsNumber проверяет, что поле число
func (e *Event) IsNumber(path string) bool { return e.Get(path).Type == gjson.Number }

// IsBool проверяет, что поле булево
func (e *Event) IsBool(path string) bool {
	t := e.Get(path).Type
	return t == gjson.True || t == gjson.False
}

// IsNull проверяет, что поле null
func (e *Event) IsNull(path string) bool {
	value := e.Get(path)
	return value.Exists() && value.Type == gjson.Null
}

// IsArray проверяет, что поле массив
func (e *Event) IsArray(path string) bool { return e.Get(path).IsArray() }

// IsObject проверяет, что поле объект
func (e *Event) IsObject(path string) bool { return e.Get(path).IsObject() }

// Set записывает значение в поле, создавая промежуточные объекты // v1.0
func (e *Event) Set(path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", path, err)
	}
	return e.SetRaw(path, string(data))
}

// SetRaw записывает JSON текст в поле // v1.0
func (e *Event) SetRaw(path string, raw string) error {
	if !gjson.Valid(raw) {
		return fmt.Errorf("invalid JSON value for %s", path)
	}
	if isRoot(path) {
		if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
			return fmt.Errorf("event root must be a JSON object")
		}
		e.raw = []byte(raw)
		return nil
	}

	updated, err := sjson.SetRawBytes(e.raw, toGJSONPath(path), []byte(raw))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	e.raw = updated
	return nil
}

// Delete удаляет поле; отсутствующее поле не ошибка // v1.0
func (e *Event) Delete(path string) error {
	if isRoot(path) {
		e.raw = []byte("{}")
		return nil
	}
	updated, err := sjson.DeleteBytes(e.raw, toGJSONPath(path))
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	e.raw = updated
	return nil
}

// Merge сливает JSON объект или массив в поле.
// Объекты сливаются по ключам (значения источника побеждают), массивы дополняются.
func (e *Event) Merge(path string, raw string) error {
	source := gjson.Parse(raw)
	current := e.Get(path)

	if !current.Exists() {
		return e.SetRaw(path, raw)
	}

	switch {
	case source.IsObject() && current.IsObject():
		merged := current.Raw
		var setErr error
		source.ForEach(func(key, value gjson.Result) bool {
			merged, setErr = sjson.SetRaw(merged, escapeSegment(key.String()), value.Raw)
			return setErr == nil
		})
		if setErr != nil {
			return fmt.Errorf("failed to merge into %s: %w", path, setErr)
		}
		return e.SetRaw(path, merged)
	case source.IsArray() && current.IsArray():
		merged := current.Raw
		var setErr error
		source.ForEach(func(_, value gjson.Result) bool {
			merged, setErr = sjson.SetRaw(merged, "-1", value.Raw)
			return setErr == nil
		})
		if setErr != nil {
			return fmt.Errorf("failed to merge into %s: %w", path, setErr)
		}
		return e.SetRaw(path, merged)
	default:
		return fmt.Errorf("cannot merge %s: type mismatch", path)
	}
}

// Clone возвращает независимую копию события // v1.0
func (e *Event) Clone() *Event {
	raw := make([]byte, len(e.raw))
	copy(raw, e.raw)
	return &Event{raw: raw}
}

// Bytes возвращает JSON представление события
func (e *Event) Bytes() []byte {
	return e.raw
}

// String возвращает JSON представление события
func (e *Event) String() string {
	return string(e.raw)
}

// MarshalJSON встраивает событие как есть
func (e *Event) MarshalJSON() ([]byte, error) {
	return e.raw, nil
}

// UnmarshalJSON разбирает событие из JSON объекта
func (e *Event) UnmarshalJSON(data []byte) error {
	parsed, err := NewEvent(data)
	if err != nil {
		return err
	}
	e.raw = parsed.raw
	return nil
}

func isRoot(path string) bool {
	return path == "" || path == "/"
}

// toGJSONPath переводит "/a/b~1c" в "a.b/c" с экранированием спецсимволов gjson.
func toGJSONPath(pointer string) string {
	segments := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, segment := range segments {
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		segments[i] = escapeSegment(segment)
	}
	return strings.Join(segments, ".")
}

func escapeSegment(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
