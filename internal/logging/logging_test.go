package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"DEBUG", logrus.DebugLevel},
		{"bogus", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}
	for _, tc := range tests {
		Setup(tc.level, "text")
		if got := logrus.GetLevel(); got != tc.want {
			t.Errorf("Setup(%q): level = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestSetupFormats(t *testing.T) {
	Setup("info", "json")
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Setup(json): formatter = %T, want *logrus.JSONFormatter", logrus.StandardLogger().Formatter)
	}

	Setup("info", "text")
	f, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
	if !ok {
		t.Fatalf("Setup(text): formatter = %T, want *logrus.TextFormatter", logrus.StandardLogger().Formatter)
	}
	if !f.FullTimestamp {
		t.Error("Setup(text): FullTimestamp = false, want true")
	}

	Setup("info", "unknown")
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("Setup(unknown): formatter = %T, want *logrus.TextFormatter", logrus.StandardLogger().Formatter)
	}
}
