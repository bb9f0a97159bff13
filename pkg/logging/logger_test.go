package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// logLine decodes the single JSON log entry written to buf.
func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log output %q is not a JSON entry: %v", line, err)
	}
	return entry
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Level = %q, want %q", cfg.Level, LevelInfo)
	}
	if cfg.Pretty {
		t.Error("Pretty should default to false (JSON output)")
	}
	if cfg.Output != os.Stderr {
		t.Error("Output should default to stderr")
	}
}

func TestSetup_ComponentAndContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("fetcher")
	logger.Info().
		Str("orgao", "20701").
		Int("pagina", 3).
		Msg("Page fetched")

	entry := logLine(t, buf)
	if entry["component"] != "fetcher" {
		t.Errorf("component = %v, want fetcher", entry["component"])
	}
	if entry["orgao"] != "20701" {
		t.Errorf("orgao = %v, want 20701", entry["orgao"])
	}
	if entry["pagina"] != float64(3) {
		t.Errorf("pagina = %v, want 3", entry["pagina"])
	}
	if entry["message"] != "Page fetched" {
		t.Errorf("message = %v, want Page fetched", entry["message"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Entry should carry a timestamp")
	}
}

func TestSetup_NilOutputDefaultsToStderr(t *testing.T) {
	orig := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	logger := Setup(Config{Level: LevelInfo})
	logger.Info().Msg("destino padrao")

	w.Close()
	os.Stderr = orig

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	if !strings.Contains(string(data), "destino padrao") {
		t.Errorf("stderr = %q, expected the log entry", data)
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})

	logger.Info().Str("campo", "compra").Msg("Column formatted")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("Pretty output should be console format, got JSON: %q", out)
	}
	if !strings.Contains(out, "Column formatted") || !strings.Contains(out, "compra") {
		t.Errorf("Console output = %q, expected message and campo field", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input LogLevel
		want  zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"warning", zerolog.WarnLevel}, // alias
		{"DEBUG", zerolog.DebugLevel},  // case-insensitive
		{"", zerolog.InfoLevel},
		{"trace", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})

	logger := NewLogger("fetcher")
	logger.Debug().Int("pagina", 2).Msg("Page fetched")
	logger.Info().Msg("Fetch complete")
	logger.Warn().Msg("Fetch incomplete - exporting records accumulated so far")

	out := buf.String()
	if strings.Contains(out, "Page fetched") {
		t.Error("Debug entry should be filtered out at warn level")
	}
	if strings.Contains(out, "Fetch complete") {
		t.Error("Info entry should be filtered out at warn level")
	}
	if !strings.Contains(out, "Fetch incomplete") {
		t.Error("Warn entry should pass the warn level")
	}
}
