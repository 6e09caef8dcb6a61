package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// SweepReport summarizes one expiry sweep for observability.
type SweepReport struct {
	Deleted         int64 `json:"deleted"`
	RemainingTotal  int64 `json:"remaining_total"`
	RemainingActive int64 `json:"remaining_active"`
}

// Sweeper purges expired session records out-of-band. It can run on a ticker
// via Run or be invoked on demand via Sweep; both are idempotent, so an extra
// pass with nothing expired deletes zero records.
type Sweeper struct {
	store    Store
	log      *slog.Logger
	interval time.Duration
}

// SweeperOption configures a Sweeper during construction.
type SweeperOption func(*Sweeper)

// WithSweepInterval sets the period between automatic sweeps (default: daily).
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithSweeperLogger sets the logger for sweep reports.
func WithSweeperLogger(log *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSweeper creates a Sweeper over the given store.
func NewSweeper(store Store, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:    store,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval: DefaultConfig().SweepInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Sweep removes every session that expired before now and reports post-sweep
// counts. A session with ExpiresAt at or after now is never touched.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	deleted, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return SweepReport{}, errors.Join(ErrStoreUnavailable, err)
	}

	total, err := s.store.CountAll(ctx)
	if err != nil {
		return SweepReport{}, errors.Join(ErrStoreUnavailable, err)
	}

	active, err := s.store.CountActive(ctx, now)
	if err != nil {
		return SweepReport{}, errors.Join(ErrStoreUnavailable, err)
	}

	report := SweepReport{
		Deleted:         deleted,
		RemainingTotal:  total,
		RemainingActive: active,
	}

	s.log.InfoContext(ctx, "expired sessions swept",
		"deleted", report.Deleted,
		"remaining_total", report.RemainingTotal,
		"remaining_active", report.RemainingActive,
	)

	return report, nil
}

// Run sweeps on the configured interval until the context is cancelled.
// Sweep failures are logged and the loop keeps going; a transient store
// outage should not kill the maintenance routine.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx, time.Now()); err != nil {
				s.log.ErrorContext(ctx, "sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
