// filename: internal/environment/environment.go
package environment

import (
	"time"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/models"
)

// Environment скомпилированный граф одного окружения. Только для чтения
// после сборки; безопасен для параллельной оценки разных событий.
type Environment struct {
	Name       string
	ID         string
	BuiltAt    time.Time
	Assets     map[string]*asset.Asset
	Expression *expression.Expression

	order []string
}

// Evaluate оценивает событие по графу окружения // v1.0
func (e *Environment) Evaluate(event *models.Event) expression.Result {
	return expression.Evaluate(e.Expression, event)
}

// AssetNames возвращает имена ассетов в порядке каталога
func (e *Environment) AssetNames() []string {
	names := make([]string, len(e.order))
	copy(names, e.order)
	return names
}

// CountByType возвращает количество ассетов по типам // v1.0
func (e *Environment) CountByType() map[asset.Type]int {
	counts := make(map[asset.Type]int)
	for _, a := range e.Assets {
		counts[a.Type]++
	}
	return counts
}

// Summary сводка окружения для API
type Summary struct {
	Name    string             `json:"name"`
	ID      string             `json:"id"`
	BuiltAt time.Time          `json:"built_at"`
	Assets  []*asset.Asset     `json:"assets"`
	Counts  map[asset.Type]int `json:"counts"`
}

// Summary возвращает сводку окружения // v1.0
func (e *Environment) Summary() Summary {
	assets := make([]*asset.Asset, 0, len(e.order))
	for _, name := range e.order {
		assets = append(assets, e.Assets[name])
	}
	return Summary{
		Name:    e.Name,
		ID:      e.ID,
		BuiltAt: e.BuiltAt,
		Assets:  assets,
		Counts:  e.CountByType(),
	}
}
