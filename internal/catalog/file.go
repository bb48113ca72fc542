// filename: internal/catalog/file.go
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/common/errors"
)

// EnvironmentsDir каталог манифестов окружений
const EnvironmentsDir = "environments"

// Extensions расширения файлов описаний в порядке поиска
var Extensions = []string{".yml", ".yaml", ".json"}

// FileStore каталог на файловой системе:
//
//	<root>/decoders/<name>.yml
//	<root>/rules/<name>.yml
//	<root>/environments/<env>.yml
type FileStore struct {
	root string
	mu   sync.RWMutex
}

// NewFileStore создает файловое хранилище, создавая каталоги секций // v1.0
func NewFileStore(root string) (*FileStore, error) {
	dirs := []string{EnvironmentsDir}
	for _, typ := range asset.Types {
		dirs = append(dirs, typ.Section())
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrorCodeCatalogWrite, fmt.Sprintf("failed to create catalog directory %s", dir))
		}
	}
	return &FileStore{root: root}, nil
}

// Root возвращает корневой каталог
func (s *FileStore) Root() string {
	return s.root
}

// Snapshot читает манифест и все перечисленные в нем описания // v1.0
func (s *FileStore) Snapshot(ctx context.Context, environment string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := s.readManifest(environment)
	if err != nil {
		return nil, err
	}
	return resolve(ctx, m, func(_ context.Context, typ asset.Type, name string) ([]byte, error) {
		return s.read(typ, name)
	})
}

// Get читает описание ассета // v1.0
func (s *FileStore) Get(_ context.Context, typ asset.Type, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(typ, name)
}

// Put записывает описание ассета. JSON сохраняется в .json, остальное в .yml // v1.0
func (s *FileStore) Put(_ context.Context, typ asset.Type, name string, data []byte) error {
	if err := CheckName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ext := ".yml"
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "{") {
		ext = ".json"
	}

	// старые файлы с другим расширением удаляются
	s.removeAll(typ, name)

	file := s.assetPath(typ, name, ext)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to create asset directory")
	}
	if err := writeAtomic(file, data); err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to write asset").WithAsset(name)
	}
	return nil
}

// Delete удаляет описание ассета // v1.0
func (s *FileStore) Delete(_ context.Context, typ asset.Type, name string) error {
	if err := CheckName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeAll(typ, name) {
		return errors.NotFoundError(string(typ), name)
	}
	return nil
}

// List возвращает отсортированные имена ассетов секции // v1.0
func (s *FileStore) List(_ context.Context, typ asset.Type) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.root, typ.Section())
	seen := make(map[string]bool)
	err := filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(file) {
			return nil
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		seen[name] = true
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to list catalog section")
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Manifest читает манифест окружения // v1.0
func (s *FileStore) Manifest(_ context.Context, environment string) (*Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readManifest(environment)
}

// PutManifest записывает манифест окружения // v1.0
func (s *FileStore) PutManifest(_ context.Context, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := CheckName(m.Name); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to encode manifest")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(filepath.Join(s.root, EnvironmentsDir, m.Name+".yml"), data); err != nil {
		return errors.Wrap(err, errors.ErrorCodeCatalogWrite, "failed to write manifest")
	}
	return nil
}

func (s *FileStore) readManifest(environment string) (*Manifest, error) {
	if err := CheckName(environment); err != nil {
		return nil, err
	}
	data, err := s.readAny(filepath.Join(s.root, EnvironmentsDir, filepath.FromSlash(environment)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("environment", environment)
		}
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to read manifest")
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if m.Name != environment {
		return nil, errors.Newf(errors.ErrorCodeValidation, "manifest '%s' declares name '%s'", environment, m.Name)
	}
	return m, nil
}

func (s *FileStore) read(typ asset.Type, name string) ([]byte, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	data, err := s.readAny(s.assetPath(typ, name, ""))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError(string(typ), name).WithAsset(name)
		}
		return nil, errors.Wrap(err, errors.ErrorCodeCatalogRead, "failed to read asset").WithAsset(name)
	}
	return data, nil
}

// readAny читает первый существующий файл base+ext
func (s *FileStore) readAny(base string) ([]byte, error) {
	for _, ext := range Extensions {
		data, err := os.ReadFile(base + ext)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, os.ErrNotExist
}

func (s *FileStore) removeAll(typ asset.Type, name string) bool {
	removed := false
	for _, ext := range Extensions {
		if err := os.Remove(s.assetPath(typ, name, ext)); err == nil {
			removed = true
		}
	}
	return removed
}

func (s *FileStore) assetPath(typ asset.Type, name, ext string) string {
	return filepath.Join(s.root, typ.Section(), filepath.FromSlash(name)) + ext
}

func hasExtension(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	for _, valid := range Extensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// writeAtomic пишет через временный файл и rename
func writeAtomic(file string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), file)
}
