package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"geminicli2api-go/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logMux sync.Mutex

// Setup configures the global logrus logger using runtime configuration.
// It is idempotent and can be called multiple times; the most recent call wins.
func Setup(cfg *config.Config) error {
	logMux.Lock()
	defer logMux.Unlock()

	debug := cfg != nil && cfg.Server.Debug

	var formatter log.Formatter = &log.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	if debug {
		formatter = &log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
	}
	log.SetFormatter(formatter)

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	} else if cfg != nil && cfg.Logging.Level != "" {
		if parsed, err := log.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)

	writers := []io.Writer{os.Stdout}
	if cfg != nil && cfg.Logging.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   false,
		})
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}
