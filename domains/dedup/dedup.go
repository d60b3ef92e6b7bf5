package dedup

import (
	"context"
	"time"
)

// IGate decides admission of inbound message ids.
type IGate interface {
	IsDuplicate(ctx context.Context, messageID string) bool
	MarkProcessed(ctx context.Context, messageID string)
	// CheckAndMark marks the id and reports whether it had already been seen.
	CheckAndMark(ctx context.Context, messageID string) bool
	Cleanup(ctx context.Context) (int64, error)
}

// IMarkerStore is a durable processed-message set with insert-if-absent semantics.
type IMarkerStore interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	// Mark inserts the id; inserted is false when it already existed.
	Mark(ctx context.Context, messageID string, at time.Time) (inserted bool, err error)
	// Cleanup removes markers processed before the cutoff.
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}
