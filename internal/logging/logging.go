package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
)

// Setup configures the global zerolog logger.
// The returned closer flushes the rotating file sink, if any.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if os.Getenv("ENV") != "production" || cfg.Format == "console" {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if cfg.File == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return nopCloser{}, nil
	}

	rotator, err := newRotator(cfg)
	if err != nil {
		return nil, err
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, rotator)).With().Timestamp().Logger()
	return rotator, nil
}

func newRotator(cfg config.LoggingConfig) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	opts := []rotatelogs.Option{rotatelogs.WithLinkName(cfg.File)}
	if cfg.MaxAge > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(cfg.MaxAge))
	}
	if cfg.RotationTime > 0 {
		opts = append(opts, rotatelogs.WithRotationTime(cfg.RotationTime))
	}

	rotator, err := rotatelogs.New(cfg.File+".%Y%m%d", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create log rotator: %w", err)
	}
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
