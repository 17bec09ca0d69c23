package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("GenerateID() should produce unique non-empty ids, got %q and %q", a, b)
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	if len(state) != 32 {
		t.Errorf("GenerateState() = %q, want 32 hex characters", state)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	SetLogLevel(logger, log.DebugLevel)

	child := WithLogger(logger, "user", "alice")
	child.Debug("matched item", "title", "Heat")

	out := buf.String()
	if !strings.Contains(out, "user=alice") || !strings.Contains(out, "title=Heat") {
		t.Errorf("log output missing structured fields: %q", out)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"movies": 3}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("MarshalJSON(pretty) error = %v", err)
	}

	if strings.Contains(string(compact), "\n") {
		t.Errorf("compact output should be single-line: %q", compact)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("pretty output should be indented: %q", pretty)
	}
}
