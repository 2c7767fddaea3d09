package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLogger_WritesLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "k", "v1")
	log.Info(ctx, "inf", "k", "v2")
	log.Warn(ctx, "wrn", "k", "v3")
	log.Error(ctx, "err", "k", "v4")

	out := buf.String()
	for _, want := range []string{"dbg", "inf", "wrn", "err", "k=v1", "k=v4", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSlogLogger_WithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, slog.LevelInfo)

	child := log.With("component", "vault")
	child.Info(context.Background(), "hello")

	if !strings.Contains(buf.String(), "component=vault") {
		t.Fatalf("expected persistent field in output, got:\n%s", buf.String())
	}
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, slog.LevelWarn)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message should be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn message missing:\n%s", out)
	}
}
