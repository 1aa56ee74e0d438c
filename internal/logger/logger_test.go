package logger

import (
	"os"
	"strings"
	"testing"

	"annotator/internal/config"
)

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	cfg := &config.Config{LogDirectory: t.TempDir()}
	l := NewLogger(cfg)
	defer l.Close()

	l.Info("saved %d annotations", 3)
	l.Warning("dimensions fallback for %s", "scan.png")
	l.Error("label write failed")

	for level, want := range map[Level]string{
		LevelInfo:    "saved 3 annotations",
		LevelWarning: "dimensions fallback for scan.png",
		LevelError:   "label write failed",
	} {
		data, err := os.ReadFile(l.Path(level))
		if err != nil {
			t.Fatalf("reading %s: %v", level.FileName(), err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s: expected %q in %q", level.FileName(), want, data)
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	cfg := &config.Config{LogDirectory: t.TempDir()}
	l := NewLogger(cfg)
	defer l.Close()

	l.Error("boom")
	if err := l.CleanLogs(LevelError); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.Stat(l.Path(LevelError))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty error log, got %d bytes", info.Size())
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("warning"); err != nil || l != LevelWarning {
		t.Errorf("ParseLevel(warning) = %v, %v", l, err)
	}
	if _, err := ParseLevel("../etc"); err == nil {
		t.Error("expected error for unknown level")
	}
}
