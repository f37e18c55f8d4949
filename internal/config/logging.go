// README: Logging section of the config.
package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig selects the zerolog level and output format ("json" or "console").
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

func (l *LoggingConfig) SetDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}
}

func (l LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid log level %q", l.Level)
	}
	switch l.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("invalid log format %q", l.Format)
	}
}
