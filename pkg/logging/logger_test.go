package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pterm/pterm"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]pterm.LogLevel{
		"trace":   pterm.LogLevelTrace,
		"DEBUG":   pterm.LogLevelDebug,
		"":        pterm.LogLevelInfo,
		"warning": pterm.LogLevelWarn,
		"error":   pterm.LogLevelError,
		"off":     pterm.LogLevelDisabled,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != pterm.LogFormatterJSON {
		t.Fatalf("unexpected json format %v %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var out bytes.Buffer
	log, err := New("info", "json", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug("hidden")
	log.Info("decoded capture", log.Args("waveforms", 2))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", out.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, lines[0])
	}
	if !strings.Contains(lines[0], "decoded capture") || entry["waveforms"] == nil {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNew_Rejects(t *testing.T) {
	var out bytes.Buffer
	if _, err := New("loud", "text", &out); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New("info", "xml", &out); err == nil {
		t.Fatalf("expected format error")
	}
}
