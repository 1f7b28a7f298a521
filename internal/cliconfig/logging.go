package cliconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/stress-labs/guestburn/pkg/log"
)

// Logger builds the process logger from the resolved configuration.
// Output always goes to stderr in console format; when LogFile is set
// the same events are also appended there as JSON. The returned close
// function releases the log file, if any.
func (c Config) Logger() (log.Logger, func() error, error) {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	if c.LogFile == "" {
		zl := zerolog.New(console).With().Timestamp().Logger()
		return log.NewZerologLogger(zl), func() error { return nil }, nil
	}

	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", c.LogFile, err)
	}
	zl := zerolog.New(zerolog.MultiLevelWriter(console, f)).With().Timestamp().Logger()
	return log.NewZerologLogger(zl), f.Close, nil
}
