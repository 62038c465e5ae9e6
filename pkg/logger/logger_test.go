package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zen-systems/erpassist/pkg/config"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assist.log")
	log, err := New(config.LoggingConfig{Level: "info", File: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("turn finished")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"turn finished"`) {
		t.Fatalf("expected JSON entry, got %s", data)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
