package logger

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "test", nil)

	ctx := context.Background()
	log.Debug(ctx, "hidden")
	log.Info(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info record missing: %q", out)
	}
}

func TestLogger_EventHookRespectsLevel(t *testing.T) {
	var records []string
	hook := func(_ Level, msg string, _ ...any) {
		records = append(records, msg)
	}
	log := New(io.Discard, LevelInfo, "test", hook)

	ctx := context.Background()
	log.Debug(ctx, "hidden")
	log.Info(ctx, "shown")

	if len(records) != 1 || records[0] != "shown" {
		t.Fatalf("hook records = %v, want [shown]", records)
	}
}

func TestLogger_SetLevelAffectsEventHook(t *testing.T) {
	var count int
	log := New(io.Discard, LevelInfo, "test", func(Level, string, ...any) { count++ })

	ctx := context.Background()
	log.Debug(ctx, "before")
	if count != 0 {
		t.Fatalf("hook calls before SetLevel = %d, want 0", count)
	}

	log.SetLevel(LevelDebug)
	log.Debug(ctx, "after")
	if count != 1 {
		t.Errorf("hook calls after SetLevel(debug) = %d, want 1", count)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
