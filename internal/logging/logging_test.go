package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"error", LogLevelError},
		{"WARN", LogLevelWarn},
		{"warning", LogLevelWarn},
		{" debug ", LogLevelDebug},
		{"info", LogLevelInfo},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   LogLevel
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{LogLevelError, zapcore.ErrorLevel, zapcore.WarnLevel},
		{LogLevelWarn, zapcore.WarnLevel, zapcore.InfoLevel},
		{LogLevelInfo, zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			logger := New(tt.level)
			defer logger.Sync() //nolint:errcheck

			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if logger.Core().Enabled(tt.muted) {
				t.Errorf("level %v should be muted", tt.muted)
			}
		})
	}

	debug := New(LogLevelDebug)
	if !debug.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug logger should enable debug level")
	}
}
