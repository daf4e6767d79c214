package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"com.aviebrantz.studio-site/pkg/config"
	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB = 10
	maxFiles  = 5
)

// Setup installs the process-wide apex/log handler described by cfg.
// The returned closer flushes the log file, if any.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxFiles,
		}
		w, closer = rotating, rotating
	}

	handler, err := newHandler(cfg.Format, w)
	if err != nil {
		return nil, err
	}
	log.SetHandler(handler)
	log.SetLevel(lvl)
	return closer, nil
}

func newHandler(format string, w io.Writer) (log.Handler, error) {
	switch format {
	case "", "text":
		return text.New(w), nil
	case "json":
		return json.New(w), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
