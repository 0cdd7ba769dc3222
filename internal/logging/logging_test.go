package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitializeWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archsim.log")

	err := Initialize(Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer InitializeDefault()

	Debug("evaluated architecture", zap.Int("level", 3))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"evaluated architecture"`) {
		t.Errorf("expected message in log output, got %s", out)
	}
	if !strings.Contains(out, `"level":3`) {
		t.Errorf("expected level field in log output, got %s", out)
	}
}

func TestInitializeFallsBackToInfoOnBadLevel(t *testing.T) {
	if err := Initialize(Config{Level: "loud", Format: "console", Output: "stderr"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer InitializeDefault()

	if Logger.Core().Enabled(zap.DebugLevel) {
		t.Error("debug should be disabled when level falls back to info")
	}
	if !Logger.Core().Enabled(zap.InfoLevel) {
		t.Error("info should be enabled")
	}
}

func TestNopDiscards(t *testing.T) {
	Nop()
	defer InitializeDefault()

	if Logger.Core().Enabled(zap.ErrorLevel) {
		t.Error("nop logger should discard every level")
	}
	Error("dropped", zap.String("reason", "nop"))
}
