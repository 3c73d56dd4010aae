package logger

import "testing"

func TestLogger_BasicLevels(t *testing.T) {
	l := New("debug")
	if l == nil {
		t.Fatalf("logger nil")
	}
	l.Debug("dbg", "k", 1)
	l.Info("info")
	l.Warn("warn")
	l.Error("err")
}

func TestLogger_SetLevel(t *testing.T) {
	l := New("info").(*zapLogger)
	if l.level.Level().String() != "info" {
		t.Fatalf("expected initial level info, got %s", l.level.Level())
	}

	l.SetLevel("error")
	if l.level.Level().String() != "error" {
		t.Fatalf("expected level error after SetLevel, got %s", l.level.Level())
	}
}
