package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewConfigLevel(t *testing.T) {
	if lvl := NewConfig(false).Level.Level(); lvl != zap.InfoLevel {
		t.Errorf("Expected info level, got %v", lvl)
	}
	if lvl := NewConfig(true).Level.Level(); lvl != zap.DebugLevel {
		t.Errorf("Expected debug level, got %v", lvl)
	}
}

func TestNew(t *testing.T) {
	logger, err := New("test", false)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger == nil {
		t.Fatal("New returned nil logger")
	}
}
