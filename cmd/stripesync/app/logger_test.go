package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
		warning  string
	}{
		{
			name:     "default level when nothing is set",
			config:   &Config{},
			expected: "info",
		},
		{
			name:     "verbose flag sets debug",
			config:   &Config{Verbose: true},
			expected: "debug",
		},
		{
			name:     "quiet flag sets warn",
			config:   &Config{Quiet: true},
			expected: "warn",
		},
		{
			name:     "explicit log-level overrides verbose",
			config:   &Config{LogLevel: "error", Verbose: true},
			expected: "error",
		},
		{
			name:     "explicit log-level overrides quiet",
			config:   &Config{LogLevel: "trace", Quiet: true},
			expected: "trace",
		},
		{
			name:     "both verbose and quiet prefers quiet",
			config:   &Config{Verbose: true, Quiet: true},
			expected: "warn",
			warning:  "both --verbose and --quiet",
		},
		{
			name:     "LOG_LEVEL applies without flags",
			config:   &Config{EnvLogLevel: "error"},
			expected: "error",
		},
		{
			name:     "verbose outranks LOG_LEVEL",
			config:   &Config{EnvLogLevel: "error", Verbose: true},
			expected: "debug",
		},
		{
			name:     "invalid log-level falls back to info",
			config:   &Config{LogLevel: "loud"},
			expected: "info",
			warning:  `invalid log level "loud"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warn bytes.Buffer
			assert.Equal(t, tt.expected, determineLogLevel(tt.config, &warn))
			if tt.warning == "" {
				assert.Empty(t, warn.String())
			} else {
				assert.Contains(t, warn.String(), tt.warning)
			}
		})
	}
}

func TestNewLoggerDiscard(t *testing.T) {
	logger := NewLogger(&Config{LogOutput: "discard", LogFormat: "json"}, &bytes.Buffer{})
	logger.Info().Msg("ignored")
}
