package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// FillArchiver periodically reads fills journaled since the previous flush
// and uploads them as a JSONL object. Records stay in the primary store;
// the archive is an append-only export, not a migration.
type FillArchiver struct {
	writer   domain.BlobWriter
	fills    domain.FillStore
	interval time.Duration
	prefix   string
	log      *slog.Logger
}

// fillBatchLimit bounds how many fills one flush exports.
const fillBatchLimit = 10_000

// NewFillArchiver creates an archiver uploading through writer under the
// given key prefix (e.g. "fills").
func NewFillArchiver(writer domain.BlobWriter, fills domain.FillStore, interval time.Duration, prefix string, logger *slog.Logger) *FillArchiver {
	return &FillArchiver{
		writer:   writer,
		fills:    fills,
		interval: interval,
		prefix:   prefix,
		log:      logger.With(slog.String("component", "fill_archiver")),
	}
}

// Run flushes on the configured interval until ctx is cancelled. Flush
// failures are logged and retried on the next tick; the covered time range
// advances only after a successful upload.
func (a *FillArchiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	since := time.Now().UTC()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			next, err := a.flush(ctx, since)
			if err != nil {
				a.log.Warn("fill archive flush failed", slog.Any("error", err))
				continue
			}
			since = next
		}
	}
}

// flush exports fills observed at or after since and returns the new
// watermark.
func (a *FillArchiver) flush(ctx context.Context, since time.Time) (time.Time, error) {
	now := time.Now().UTC()

	fills, err := a.fills.ListSince(ctx, since, fillBatchLimit)
	if err != nil {
		return since, fmt.Errorf("s3blob: list fills: %w", err)
	}
	if len(fills) == 0 {
		return now, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, f := range fills {
		if err := enc.Encode(f); err != nil {
			return since, fmt.Errorf("s3blob: encode fill %s: %w", f.ID, err)
		}
	}

	key := fmt.Sprintf("%s/%s.jsonl", a.prefix, now.Format("2006/01/02/150405"))
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return since, err
	}

	a.log.Info("fills archived",
		slog.String("key", key),
		slog.Int("count", len(fills)))
	return now, nil
}
