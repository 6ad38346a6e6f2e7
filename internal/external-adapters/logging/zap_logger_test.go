package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ochairo/binsync/internal/domain/interfaces"
)

var _ interfaces.Logger = (*ZapLogger)(nil)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromCore(core)

	logger.Info("Target committed", interfaces.F("target", "ripgrep"), interfaces.F("files", 3))
	logger.Warn("File spec failed", interfaces.F("error", errors.New("no match")))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["target"] != "ripgrep" {
		t.Errorf("target field = %v", ctx["target"])
	}
	if ctx["files"] != int64(3) {
		t.Errorf("files field = %v (%T)", ctx["files"], ctx["files"])
	}

	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[1].Level)
	}
	if got := entries[1].ContextMap()["error"]; got != "no match" {
		t.Errorf("error field = %v", got)
	}
}

func TestZapLogger_Verbosity(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, tt.verbose)

			logger.Debug("fetching release", interfaces.F("repo", "owner/tool"))
			logger.Info("run finished")
			_ = logger.Sync()

			out := buf.String()
			if got := strings.Contains(out, "fetching release"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "INFO") || !strings.Contains(out, "run finished") {
				t.Errorf("info line missing:\n%s", out)
			}
		})
	}
}
