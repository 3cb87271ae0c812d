package ingest

import (
	"context"
	"fmt"
	"time"

	"reverse_dcf/pkg/core/store"
)

// Refresher periodically re-fetches a fixed ticker list into the store.
type Refresher struct {
	fetcher  Fetcher
	store    store.Store
	tickers  []string
	interval time.Duration
}

// NewRefresher creates a refresher. An interval <= 0 means Run refreshes
// once and returns.
func NewRefresher(f Fetcher, s store.Store, tickers []string, interval time.Duration) *Refresher {
	return &Refresher{
		fetcher:  f,
		store:    s,
		tickers:  tickers,
		interval: interval,
	}
}

// RefreshOnce fetches every ticker and upserts the successes. Per-ticker
// failures are logged and skipped; the returned error is only set when
// the context is done.
func (r *Refresher) RefreshOnce(ctx context.Context) (int, error) {
	updated := 0
	for _, ticker := range r.tickers {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		sec, err := r.fetcher.Fetch(ctx, ticker)
		if err != nil {
			fmt.Printf("[INGEST] fetch %s failed: %v\n", ticker, err)
			continue
		}
		if err := r.store.UpsertSecurity(ctx, *sec); err != nil {
			fmt.Printf("[INGEST] save %s failed: %v\n", ticker, err)
			continue
		}
		updated++
	}
	fmt.Printf("[INGEST] refreshed %d/%d securities\n", updated, len(r.tickers))
	return updated, nil
}

// Run refreshes immediately, then on every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	if _, err := r.RefreshOnce(ctx); err != nil {
		return err
	}
	if r.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RefreshOnce(ctx); err != nil {
				return err
			}
		}
	}
}
