package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	defer func() {
		SetLevel(LevelInfo)
		SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)

	Debug("debug message")
	Info("info message")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info suppressed below LevelWarn, got %q", buf.String())
	}

	Warn("warning message")
	if !strings.Contains(buf.String(), "warning message") {
		t.Fatalf("expected warn message to appear, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"warn":    LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWithFieldsOrdersKeys(t *testing.T) {
	defer func() {
		SetLevel(LevelInfo)
		SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)

	WithFields(Fields{"connector_id": "c1", "attempt": 2}, "heartbeat sent")

	line := buf.String()
	if !strings.Contains(line, "heartbeat sent") {
		t.Fatalf("expected message text, got %q", line)
	}
	wantOrder := strings.Index(line, "attempt=2") < strings.Index(line, "connector_id=c1")
	if !wantOrder {
		t.Fatalf("expected fields sorted alphabetically, got %q", line)
	}
}

func TestConcurrentAccess(t *testing.T) {
	defer func() {
		SetLevel(LevelInfo)
		SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(n int) {
			SetLevel(LevelDebug)
			Debug("concurrent %d", n)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
