package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"faceoverlay/internal/config"
)

func TestNewLogger_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(&config.Config{LogDirectory: dir})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	l.Warning("camera %d lost", 2)

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("Failed to read warning log: %v", err)
	}
	if !strings.Contains(string(data), "camera 2 lost") {
		t.Errorf("Expected warning entry in file, got %q", string(data))
	}
}

func TestCleanLogs_TruncatesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(&config.Config{LogDirectory: dir})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	l.Error("boom")
	if err := l.CleanLogs("error.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty error log, got %d bytes", info.Size())
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)

	l.Info("models %s", "ready")

	if !strings.Contains(buf.String(), "INFO") || !strings.Contains(buf.String(), "models ready") {
		t.Errorf("Unexpected output: %q", buf.String())
	}
	if l.Dir() != "" {
		t.Errorf("Writer logger should have no directory, got %q", l.Dir())
	}
}
