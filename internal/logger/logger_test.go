package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "production", ""} {
		l, err := New(mode, zapcore.WarnLevel)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.Debug("dropped", "mode", mode)
		l.With("k", "v").Info("dropped too")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}
