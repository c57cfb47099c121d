package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_FileAndLevel(t *testing.T) {
	dir := t.TempDir()
	stderr, err := os.CreateTemp(dir, "stderr")
	if err != nil {
		t.Fatal(err)
	}
	defer stderr.Close()

	logFile := filepath.Join(dir, "logs", "enricher.log")
	logger, closer, err := NewLogger(LogOptions{Quiet: true, File: logFile}, stderr)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("hidden")
	logger.Error("shown", "index", 3)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{logFile, stderr.Name()} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		out := string(data)
		if strings.Contains(out, "hidden") {
			t.Errorf("%s: info record written at quiet level", path)
		}
		if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"index":3`) {
			t.Errorf("%s: missing JSON error record, got %q", path, out)
		}
	}
}

func TestNewLogger_NonTerminalIsJSON(t *testing.T) {
	stderr, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatal(err)
	}
	defer stderr.Close()

	logger, _, err := NewLogger(LogOptions{Verbose: true}, stderr)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("details")

	data, err := os.ReadFile(stderr.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{") || !strings.Contains(string(data), `"level":"DEBUG"`) {
		t.Errorf("expected JSON debug record, got %q", data)
	}
}
