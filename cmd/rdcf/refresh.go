package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/store"
)

type refreshCmd struct {
	out        io.Writer
	configPath string
	tickers    string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "fetch fundamentals into the database" }
func (*refreshCmd) Usage() string {
	return `rdcf refresh [-tickers A,B,C] [-config <path>]

  Fetches each ticker from the quote site and upserts it into the
  Postgres database named by DATABASE_URL. Without -tickers the
  configured ingest.tickers list is used.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Path to YAML config.")
	f.StringVar(&c.tickers, "tickers", "", "Comma-separated tickers.")
}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if cfg.Database.URL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		return subcommands.ExitFailure
	}

	tickers := cfg.Ingest.Tickers
	if c.tickers != "" {
		tickers = nil
		for _, t := range strings.Split(c.tickers, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, strings.ToUpper(t))
			}
		}
	}
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "no tickers to refresh")
		return subcommands.ExitUsageError
	}

	pool, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	st := store.NewPGStore(pool)
	if err := st.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fetcher := ingest.NewScreenerFetcher(cfg.Ingest.BaseURL, cfg.Ingest.Timeout)
	n, err := ingest.NewRefresher(fetcher, st, tickers, 0).RefreshOnce(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.out, "Refreshed %d of %d securities\n", n, len(tickers))
	if n < len(tickers) {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
