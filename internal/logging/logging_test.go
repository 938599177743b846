package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONFileAndFiltersConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	l, closeFn, err := New(Options{Dir: dir, MaxMB: 1, Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("note created", zap.String("path", "Daily Notes/x.md"))
	l.Warn("request failed", zap.Int("status", 401))
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q", sc.Text())
		}
		lines = append(lines, entry)
	}
	if len(lines) != 2 {
		t.Fatalf("file lines=%d, want 2", len(lines))
	}
	if lines[0]["message"] != "note created" || lines[0]["path"] != "Daily Notes/x.md" {
		t.Fatalf("first entry=%v", lines[0])
	}

	out := console.String()
	if strings.Contains(out, "note created") {
		t.Fatalf("info leaked to console: %q", out)
	}
	if !strings.Contains(out, "request failed") {
		t.Fatalf("warn missing from console: %q", out)
	}
}

func TestVerboseEchoesDebug(t *testing.T) {
	var console bytes.Buffer
	l, closeFn, err := New(Options{Dir: t.TempDir(), Verbose: true, Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("prompt tokens", zap.Int("tokens", 42))
	_ = closeFn()
	if !strings.Contains(console.String(), "prompt tokens") {
		t.Fatalf("debug missing from console: %q", console.String())
	}
}
