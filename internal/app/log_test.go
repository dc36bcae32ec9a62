package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestOpHandler_Handle(t *testing.T) {
	ts := time.Date(2026, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "container finalized",
			want:    "2026-06-15T14:30:45Z\tINFO\top-123\tcontainer finalized\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "opened read channel",
			want:    "2026-06-15T14:30:45Z\tDEBUG\top-456\topened read channel\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelWarn,
			message: "last chunk length mismatch",
			attrs:   []slog.Attr{slog.String("file", "/docs/file.txt"), slog.Int("chunk", 42)},
			want:    "2026-06-15T14:30:45Z\tWARN\top-789\tlast chunk length mismatch\tfile=/docs/file.txt\tchunk=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &opHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := &opHandler{w: &buf, opID: "op-1"}
	h := base.WithAttrs([]slog.Attr{slog.String("component", "vault")})

	r := slog.NewRecord(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelInfo, "keyset created", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if got := buf.String(); !strings.Contains(got, "\tcomponent=vault") {
		t.Errorf("output %q missing pre-set attr", got)
	}

	// The base handler must be unaffected.
	buf.Reset()
	if err := base.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := buf.String(); strings.Contains(got, "component=vault") {
		t.Errorf("base handler output %q picked up derived attrs", got)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&opHandler{w: &buf, opID: "op-2"})
	adapter := &slogAdapter{l: logger}

	adapter.Info("transfer progress", "file", "a.txt", "moved", "10.0 MB")

	got := buf.String()
	for _, want := range []string{"INFO", "op-2", "transfer progress", "file=a.txt", "moved=10.0 MB"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}
