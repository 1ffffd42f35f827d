package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line", nil)

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("lines below WARN leaked:\n%s", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("WARN and ERROR lines missing:\n%s", out)
	}
}

func TestKeyValueFormatting(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(LevelInfo)

	Info("cycle done", "records", 3, "booking", "Alice - Standup")

	out := buf.String()
	if !strings.Contains(out, "[INFO] cycle done") {
		t.Errorf("missing level/message: %s", out)
	}
	if !strings.Contains(out, "records=3") || !strings.Contains(out, "booking=Alice - Standup") {
		t.Errorf("missing key-value pairs: %s", out)
	}

	// Odd trailing argument is ignored, not a panic.
	buf.Reset()
	Info("odd", "key")
	if !strings.Contains(buf.String(), "[INFO] odd") {
		t.Errorf("odd kv list must still log: %s", buf.String())
	}
}
