// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/adrg/xdg"
	log "github.com/sirupsen/logrus"

	"github.com/llehouerou/tapdeck/internal/config"
)

const logFile = "tapdeck/tapdeck.log"

// Setup routes logs to the state log file, since the terminal UI owns
// stdout and stderr. The returned close function releases the file.
func Setup(cfg config.LogConfig) (func() error, error) {
	path, err := xdg.StateFile(logFile)
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	configure(log.StandardLogger(), f, cfg)
	return f.Close, nil
}

// SetupStderr logs to stderr, for one-shot commands.
func SetupStderr(cfg config.LogConfig) {
	configure(log.StandardLogger(), os.Stderr, cfg)
}

// Path returns the log file location.
func Path() (string, error) {
	return xdg.StateFile(logFile)
}

func configure(l *log.Logger, w io.Writer, cfg config.LogConfig) {
	l.SetOutput(w)

	if cfg.JSON {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	l.SetLevel(parseLevel(cfg.Level))
}

func parseLevel(s string) log.Level {
	if s == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
