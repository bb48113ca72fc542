// filename: internal/catalog/watcher.go
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/novasec/engine/internal/common/logging"
)

// DefaultDebounce пауза после последнего изменения перед перезагрузкой
const DefaultDebounce = 250 * time.Millisecond

// Watcher наблюдает за каталогом FileStore и вызывает перезагрузку после
// серии изменений, не чаще одного раза за интервал тишины
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
}

// NewWatcher создает наблюдателя за каталогом // v1.0
func NewWatcher(root string, interval time.Duration, logger *logging.Logger) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:     root,
		watcher:  fsw,
		debounce: NewDebouncer(interval),
		logger:   logger,
	}, nil
}

// Watch блокируется до отмены контекста. onChange вызывается из таймера
// дебаунсера; ошибка перезагрузки логируется, наблюдение продолжается.
func (w *Watcher) Watch(ctx context.Context, onChange func() error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.Stop()
		w.watcher.Close()
	}()

	if err := w.addTree(w.root); err != nil {
		return fmt.Errorf("failed to watch catalog: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"path":        w.root,
		"debounce_ms": w.debounce.interval.Milliseconds(),
	}).Info("Catalog watcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Catalog watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// новые подкаталоги тоже наблюдаются
			if event.Op&fsnotify.Create == fsnotify.Create {
				if isDir(event.Name) {
					if err := w.addTree(event.Name); err != nil {
						w.logger.WithError(err).Warn("Failed to watch new directory")
					}
					continue
				}
			}

			if !relevant(event) {
				continue
			}

			w.logger.WithFields(logrus.Fields{
				"path": event.Name,
				"op":   event.Op.String(),
			}).Debug("Catalog change detected")

			w.debounce.Trigger(func() {
				w.logger.Info("Reloading catalog")
				if err := onChange(); err != nil {
					w.logger.WithError(err).Error("Catalog reload failed")
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.WithError(err).Error("Catalog watcher error")
		}
	}
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// relevant отбрасывает chmod, скрытые и временные файлы, чужие расширения
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return hasExtension(event.Name)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Debouncer откладывает вызов до паузы в событиях
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer создает дебаунсер // v1.0
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger перезапускает таймер; выполнится последний переданный callback
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop отменяет отложенный вызов
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
