// filename: internal/catalog/snapshot.go
package catalog

import (
	"github.com/novasec/engine/internal/asset"
)

// Document одно описание ассета из каталога
type Document struct {
	Type asset.Type `json:"type"`
	Name string     `json:"name"`
	Data []byte     `json:"-"`
}

// Snapshot согласованный набор описаний для сборки одного окружения.
// Порядок документов задает порядок ассетов в графе.
type Snapshot struct {
	Environment string     `json:"environment"`
	Documents   []Document `json:"documents"`
}

// NewSnapshot создает пустой снимок окружения // v1.0
func NewSnapshot(environment string) *Snapshot {
	return &Snapshot{Environment: environment}
}

// Add добавляет документ в снимок // v1.0
func (s *Snapshot) Add(typ asset.Type, name string, data []byte) *Snapshot {
	s.Documents = append(s.Documents, Document{Type: typ, Name: name, Data: data})
	return s
}

// Count возвращает количество документов типа
func (s *Snapshot) Count(typ asset.Type) int {
	count := 0
	for _, doc := range s.Documents {
		if doc.Type == typ {
			count++
		}
	}
	return count
}
