package logger

import (
	"testing"
)

func TestInit_Development(t *testing.T) {
	Init(true)

	if Sugar == nil {
		t.Fatal("Sugar logger should not be nil after Init")
	}

	// Test that we can log without panicking
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logging should not panic: %v", r)
		}
	}()

	Sugar.Debug("Test debug message")
	Sugar.Info("Test info message")
	Sugar.Warn("Test warn message")
	Sugar.Error("Test error message")
}

func TestInit_Production(t *testing.T) {
	Init(false)

	if Sugar == nil {
		t.Fatal("Sugar logger should not be nil after Init")
	}

	Sugar.Infow("structured log", "call", "get_block", "outcome", "succeeded")
}
