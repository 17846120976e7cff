package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		if logger := New(level); logger == nil || logger.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestComponentNilSafe(t *testing.T) {
	var l *Logger
	child := l.Component("engine")
	if child == nil || child.Logger == nil {
		t.Fatal("Component on nil logger should fall back to default")
	}
	child.Info("component logger works")
}
