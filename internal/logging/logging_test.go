package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug().Msg("hidden")
	log.Info().Str("file", "a.jpg").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written without verbose: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "a.jpg") {
		t.Errorf("info line missing: %q", out)
	}

	buf.Reset()
	verbose := New(&buf, true)
	verbose.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug line missing with verbose: %q", buf.String())
	}
}
