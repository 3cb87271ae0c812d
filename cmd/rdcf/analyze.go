package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"reverse_dcf/pkg/core/analysis"
	"reverse_dcf/pkg/core/assumption"
	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/core/report"
)

type analyzeCmd struct {
	out        io.Writer
	configPath string
	format     string
	sec        securityFlags
	ov         overrideFlags
	fetcher    ingest.Fetcher
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "full reverse-DCF analysis of one security" }
func (*analyzeCmd) Usage() string {
	return `rdcf analyze (-ticker <symbol> | -profit <crores> (-mcap <crores> | -price <p> -shares <crores>)) [-sector <label>] [overrides] [-format md|json|html]

  Resolves default assumptions from market cap and sector, solves the
  market-implied growth, and compares it with the expected growth.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Path to YAML config.")
	f.StringVar(&c.format, "format", "md", "Output format: md, json or html.")
	c.sec.register(f)
	c.ov.register(f)
}

func (c *analyzeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.fetcher == nil {
		c.fetcher = ingest.NewScreenerFetcher(cfg.Ingest.BaseURL, cfg.Ingest.Timeout)
	}

	sec, err := c.sec.resolve(ctx, c.fetcher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	engine := analysis.NewEngine(assumption.DefaultPolicy(), cfg.Solver)
	r := engine.Analyze(sec, c.ov.overrides())

	switch c.format {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	case "html":
		html, err := report.RenderHTML(report.Markdown(r))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Fprint(c.out, html)
	case "md":
		fmt.Fprint(c.out, report.Markdown(r))
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}

type sensitivityCmd struct {
	out          io.Writer
	configPath   string
	discountStep float64
	multipleStep float64
	steps        int
	sec          securityFlags
	ov           overrideFlags
	fetcher      ingest.Fetcher
}

func (*sensitivityCmd) Name() string { return "sensitivity" }
func (*sensitivityCmd) Synopsis() string {
	return "implied growth across discount rates and exit multiples"
}
func (*sensitivityCmd) Usage() string {
	return `rdcf sensitivity (-ticker <symbol> | -profit <crores> -mcap <crores>) [-dstep <pct>] [-mstep <x>] [-k <n>] [overrides]
`
}

func (c *sensitivityCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Path to YAML config.")
	f.Float64Var(&c.discountStep, "dstep", 1, "Discount rate step in percentage points.")
	f.Float64Var(&c.multipleStep, "mstep", 5, "Exit multiple step.")
	f.IntVar(&c.steps, "k", 2, "Steps on each side of the centre.")
	c.sec.register(f)
	c.ov.register(f)
}

func (c *sensitivityCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.fetcher == nil {
		c.fetcher = ingest.NewScreenerFetcher(cfg.Ingest.BaseURL, cfg.Ingest.Timeout)
	}

	sec, err := c.sec.resolve(ctx, c.fetcher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	engine := analysis.NewEngine(assumption.DefaultPolicy(), cfg.Solver)
	table := engine.Sensitivity(sec, c.ov.overrides(), c.discountStep, c.multipleStep, c.steps)
	fmt.Fprint(c.out, report.SensitivityMarkdown(table))
	return subcommands.ExitSuccess
}
