package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			for _, format := range []string{"text", "json"} {
				if got := Setup(format, tt.level).GetLevel(); got != tt.want {
					t.Errorf("%s: expected %s, got %s", format, tt.want, got)
				}
			}
		})
	}
}
