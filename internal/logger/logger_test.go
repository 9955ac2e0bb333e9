package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"none":    LevelNone,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	l, err := New(LevelWarn, path, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)

	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("below-threshold lines were written: %q", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("expected warn and error lines, got: %q", out)
	}
}

func TestWithPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	l, err := New(LevelInfo, path, "server")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.WithPrefix("conn_1").Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "[server:conn_1] hello") {
		t.Errorf("expected nested prefix, got: %q", string(data))
	}
}
