// filename: internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/pg"
)

// Schema таблицы каталога в PostgreSQL
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_assets (
		type       TEXT        NOT NULL,
		name       TEXT        NOT NULL,
		document   TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (type, name)
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_environments (
		name       TEXT        PRIMARY KEY,
		manifest   TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

const (
	queryGetAsset       = `SELECT document FROM catalog_assets WHERE type = $1 AND name = $2`
	queryGetAssets      = `SELECT name, document FROM catalog_assets WHERE type = $1 AND name = ANY($2)`
	queryListAssets     = `SELECT name FROM catalog_assets WHERE type = $1 ORDER BY name`
	queryDeleteAsset    = `DELETE FROM catalog_assets WHERE type = $1 AND name = $2`
	queryGetManifest    = `SELECT manifest FROM catalog_environments WHERE name = $1`
	queryUpsertAsset    = `INSERT INTO catalog_assets (type, name, document, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (type, name) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`
	queryUpsertManifest = `INSERT INTO catalog_environments (name, manifest, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET manifest = EXCLUDED.manifest, updated_at = now()`
)

// PostgresStore каталог в PostgreSQL
type PostgresStore struct {
	client *pg.Client
}

// NewPostgresStore создает хранилище и применяет схему // v1.0
func NewPostgresStore(ctx context.Context, client *pg.Client) (*PostgresStore, error) {
	if err := client.Migrate(ctx, Schema...); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodePGQuery, "failed to apply catalog schema")
	}
	return &PostgresStore{client: client}, nil
}

// Snapshot читает манифест и ассеты по секциям одним запросом на секцию // v1.0
func (s *PostgresStore) Snapshot(ctx context.Context, environment string) (*Snapshot, error) {
	m, err := s.Manifest(ctx, environment)
	if err != nil {
		return nil, err
	}

	documents := make(map[asset.Type]map[string][]byte, len(asset.Types))
	for _, typ := range asset.Types {
		names := m.Names(typ)
		if len(names) == 0 {
			continue
		}
		docs, err := s.getMany(ctx, typ, names)
		if err != nil {
			return nil, err
		}
		documents[typ] = docs
	}

	return resolve(ctx, m, func(_ context.Context, typ asset.Type, name string) ([]byte, error) {
		data, ok := documents[typ][name]
		if !ok {
			return nil, errors.NotFoundError(string(typ), name)
		}
		return data, nil
	})
}

func (s *PostgresStore) getMany(ctx context.Context, typ asset.Type, names []string) (map[string][]byte, error) {
	rows, err := s.client.DB().QueryContext(ctx, queryGetAssets, string(typ), pq.Array(names))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to query catalog assets")
	}
	defer rows.Close()

	docs := make(map[string][]byte, len(names))
	for rows.Next() {
		var name, document string
		if err := rows.Scan(&name, &document); err != nil {
			return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to scan catalog asset")
		}
		docs[name] = []byte(document)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to read catalog assets")
	}
	return docs, nil
}

// Get читает описание ассета // v1.0
func (s *PostgresStore) Get(ctx context.Context, typ asset.Type, name string) ([]byte, error) {
	var document string
	err := s.client.DB().QueryRowContext(ctx, queryGetAsset, string(typ), name).Scan(&document)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundError(string(typ), name).WithAsset(name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to read asset").WithAsset(name)
	}
	return []byte(document), nil
}

// Put сохраняет описание ассета // v1.0
func (s *PostgresStore) Put(ctx context.Context, typ asset.Type, name string, data []byte) error {
	if err := CheckName(name); err != nil {
		return err
	}
	if _, err := s.client.DB().ExecContext(ctx, queryUpsertAsset, string(typ), name, string(data)); err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to store asset").WithAsset(name)
	}
	return nil
}

// Delete удаляет описание ассета // v1.0
func (s *PostgresStore) Delete(ctx context.Context, typ asset.Type, name string) error {
	result, err := s.client.DB().ExecContext(ctx, queryDeleteAsset, string(typ), name)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to delete asset").WithAsset(name)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errors.NotFoundError(string(typ), name)
	}
	return nil
}

// List возвращает отсортированные имена ассетов секции // v1.0
func (s *PostgresStore) List(ctx context.Context, typ asset.Type) ([]string, error) {
	rows, err := s.client.DB().QueryContext(ctx, queryListAssets, string(typ))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to list assets")
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to scan asset name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Manifest читает манифест окружения // v1.0
func (s *PostgresStore) Manifest(ctx context.Context, environment string) (*Manifest, error) {
	var manifest string
	err := s.client.DB().QueryRowContext(ctx, queryGetManifest, environment).Scan(&manifest)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundError("environment", environment)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to read manifest")
	}
	return ParseManifest([]byte(manifest))
}

// PutManifest сохраняет манифест окружения // v1.0
func (s *PostgresStore) PutManifest(ctx context.Context, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to encode manifest")
	}
	if _, err := s.client.DB().ExecContext(ctx, queryUpsertManifest, m.Name, string(data)); err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to store manifest")
	}
	return nil
}
