package s3blob

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
)

type fakeWriter struct {
	keys   []string
	bodies []string
	err    error
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	if f.err != nil {
		return f.err
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(data)
	f.keys = append(f.keys, path)
	f.bodies = append(f.bodies, buf.String())
	return nil
}

type fakeFills struct {
	fills []domain.FillEvent
	err   error
}

func (f *fakeFills) Create(context.Context, domain.FillEvent) error { return nil }

func (f *fakeFills) ListSince(context.Context, time.Time, int) ([]domain.FillEvent, error) {
	return f.fills, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFlushUploadsJSONL(t *testing.T) {
	w := &fakeWriter{}
	fills := &fakeFills{fills: []domain.FillEvent{
		{ID: "f1", OrderID: "ord-1", Delta: 5, Price: 0.4},
		{ID: "f2", OrderID: "ord-2", Delta: 2.5, Price: 0.41},
	}}
	a := NewFillArchiver(w, fills, time.Minute, "fills", testLogger())

	since := time.Now().Add(-time.Minute)
	next, err := a.flush(context.Background(), since)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !next.After(since) {
		t.Error("watermark did not advance")
	}
	if len(w.keys) != 1 {
		t.Fatalf("uploaded %d objects, want 1", len(w.keys))
	}
	if !strings.HasPrefix(w.keys[0], "fills/") || !strings.HasSuffix(w.keys[0], ".jsonl") {
		t.Errorf("key = %q, want fills/....jsonl", w.keys[0])
	}
	lines := strings.Split(strings.TrimSpace(w.bodies[0]), "\n")
	if len(lines) != 2 {
		t.Errorf("body has %d lines, want 2", len(lines))
	}
}

func TestFlushSkipsUploadWhenEmpty(t *testing.T) {
	w := &fakeWriter{}
	a := NewFillArchiver(w, &fakeFills{}, time.Minute, "fills", testLogger())

	since := time.Now().Add(-time.Minute)
	next, err := a.flush(context.Background(), since)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !next.After(since) {
		t.Error("watermark did not advance")
	}
	if len(w.keys) != 0 {
		t.Errorf("uploaded %d objects, want 0", len(w.keys))
	}
}

func TestFlushKeepsWatermarkOnFailure(t *testing.T) {
	fills := &fakeFills{err: domain.ErrTransport}
	a := NewFillArchiver(&fakeWriter{}, fills, time.Minute, "fills", testLogger())

	since := time.Now().Add(-time.Minute)
	next, err := a.flush(context.Background(), since)
	if err == nil {
		t.Fatal("flush should fail when listing fails")
	}
	if !next.Equal(since) {
		t.Error("watermark should not advance on failure")
	}

	w := &fakeWriter{err: domain.ErrTransport}
	a = NewFillArchiver(w, &fakeFills{fills: []domain.FillEvent{{ID: "f1"}}}, time.Minute, "fills", testLogger())
	next, err = a.flush(context.Background(), since)
	if err == nil {
		t.Fatal("flush should fail when upload fails")
	}
	if !next.Equal(since) {
		t.Error("watermark should not advance on upload failure")
	}
}
