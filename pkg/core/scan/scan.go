// Package scan runs the analysis over many securities in parallel.
package scan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/store"
	"reverse_dcf/pkg/models"
)

const DefaultWorkers = 8

// Scanner fans analyses out over a bounded worker pool.
type Scanner struct {
	engine  *analysis.Engine
	workers int
}

func NewScanner(engine *analysis.Engine, workers int) *Scanner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scanner{engine: engine, workers: workers}
}

// Run analyzes every security with the same overrides. Reports come back
// in input order. A cancelled context stops the remaining work and its
// error is returned.
func (s *Scanner) Run(ctx context.Context, secs []models.Security, ov models.Overrides) ([]analysis.Report, error) {
	start := time.Now()
	reports := make([]analysis.Report, len(secs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range secs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = s.engine.Analyze(secs[i], ov)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fmt.Printf("[SCAN] analyzed %d securities in %v (workers=%d)\n", len(secs), time.Since(start), s.workers)
	return reports, nil
}

// RunTickers loads the tickers from the store and scans them. An empty
// list scans every stored security.
func (s *Scanner) RunTickers(ctx context.Context, st store.Store, tickers []string, ov models.Overrides) ([]analysis.Report, error) {
	var secs []models.Security
	if len(tickers) == 0 {
		all, err := st.ListSecurities(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list securities: %w", err)
		}
		secs = all
	} else {
		secs = make([]models.Security, 0, len(tickers))
		for _, t := range tickers {
			sec, err := st.GetSecurity(ctx, t)
			if err != nil {
				return nil, err
			}
			secs = append(secs, sec)
		}
	}
	return s.Run(ctx, secs, ov)
}

// Rank orders reports by expectation gap, highest first. Reports whose
// implied growth is unknown sort after all known ones; ties keep input
// order.
func Rank(reports []analysis.Report) []analysis.Report {
	out := make([]analysis.Report, len(reports))
	copy(out, reports)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GapKnown != out[j].GapKnown {
			return out[i].GapKnown
		}
		return out[i].Gap > out[j].Gap
	})
	return out
}
