// filename: internal/common/logging/logger.go
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger логгер движка поверх logrus
type Logger struct {
	*logrus.Logger
}

// Config конфигурация логирования
type Config struct {
	Level   string `yaml:"level" mapstructure:"level"`
	Format  string `yaml:"format" mapstructure:"format"`
	Output  string `yaml:"output" mapstructure:"output"`
	File    string `yaml:"file" mapstructure:"file"`
	Service string `yaml:"service" mapstructure:"service"`
}

// NewLogger создает логгер: уровень, формат json|text, вывод stdout|stderr|file // v1.0
func NewLogger(config Config) (*Logger, error) {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := newFormatter(config.Format)
	if err != nil {
		return nil, err
	}
	out, err := newOutput(config)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	logger.SetOutput(out)
	if config.Service != "" {
		logger.AddHook(serviceHook{service: config.Service})
	}

	return &Logger{Logger: logger}, nil
}

// NewDiscardLogger логгер без вывода // v1.0
func NewDiscardLogger() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return &Logger{Logger: logger}
}

func newFormatter(format string) (logrus.Formatter, error) {
	switch format {
	case "", "json":
		return &logrus.JSONFormatter{}, nil
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true}, nil
	default:
		return nil, fmt.Errorf("unknown log format '%s'", format)
	}
}

// newOutput открывает вывод; файл дописывается, каталог создается
func newOutput(config Config) (io.Writer, error) {
	switch config.Output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "file":
		if config.File == "" {
			return nil, fmt.Errorf("log file path is required for file output")
		}
		if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		return file, nil
	default:
		return nil, fmt.Errorf("unknown log output '%s'", config.Output)
	}
}

// serviceHook добавляет имя сервиса в каждую запись
type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = h.service
	}
	return nil
}

// WithAsset поля ассета // v1.0
func (l *Logger) WithAsset(assetType, name string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"asset_type": assetType,
		"asset":      name,
	})
}

// WithEnvironment поля окружения
func (l *Logger) WithEnvironment(name, id string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"environment":    name,
		"environment_id": id,
	})
}

// WithHelper имя хелпера
func (l *Logger) WithHelper(name string) *logrus.Entry {
	return l.Logger.WithField("helper", name)
}

// IsLevelEnabled проверяет уровень по имени; неизвестное имя считается выключенным
func (l *Logger) IsLevelEnabled(level string) bool {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return false
	}
	return l.Logger.IsLevelEnabled(logLevel)
}
