package room

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/guifei-live/room-server/internal/audit"
	"github.com/guifei-live/room-server/pkg/log"
)

// Cleaner receives the ids of reaped rooms so external mirrors can drop
// their per-room state.
type Cleaner interface {
	RemoveRoom(ctx context.Context, roomID string) error
}

// Reaper periodically deletes rooms that have been empty past the grace
// period. Deletion happens only here, never inline on the leave path, so
// the deletion-by-age policy stays in one place.
type Reaper struct {
	table    *Table
	interval time.Duration
	grace    time.Duration
	cleaner  Cleaner // may be nil
}

func NewReaper(table *Table, interval, grace time.Duration, cleaner Cleaner) *Reaper {
	return &Reaper{
		table:    table,
		interval: interval,
		grace:    grace,
		cleaner:  cleaner,
	}
}

// Run sweeps on a fixed period until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	l := log.L().With().Str("component", "reaper").Logger()
	l.Info().Dur("interval", r.interval).Dur("grace", r.grace).Msg("reaper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("reaper stopped")
			return nil
		case <-ticker.C:
			r.sweep(ctx, l)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context, l zerolog.Logger) {
	reaped := r.table.Sweep(r.grace)
	for _, roomID := range reaped {
		audit.Log(ctx, audit.ActionRoomReap, "", roomID, "empty room reaped")
		if r.cleaner != nil {
			if err := r.cleaner.RemoveRoom(ctx, roomID); err != nil {
				l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to clean up reaped room mirror")
			}
		}
	}
}
