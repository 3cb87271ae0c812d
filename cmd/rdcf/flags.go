package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/google/subcommands"

	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/models"
)

// commands lists every subcommand, writing results to out.
func commands(out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&valueCmd{out: out},
		&solveCmd{out: out},
		&assumptionsCmd{out: out},
		&signalCmd{out: out},
		&analyzeCmd{out: out},
		&sensitivityCmd{out: out},
		&refreshCmd{out: out},
	}
}

// optFloat is a float flag that records whether it was set.
type optFloat struct {
	v *float64
}

func (o *optFloat) String() string {
	if o == nil || o.v == nil {
		return ""
	}
	return strconv.FormatFloat(*o.v, 'f', -1, 64)
}

func (o *optFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	o.v = &v
	return nil
}

// optInt is an int flag that records whether it was set.
type optInt struct {
	v *int
}

func (o *optInt) String() string {
	if o == nil || o.v == nil {
		return ""
	}
	return strconv.Itoa(*o.v)
}

func (o *optInt) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	o.v = &v
	return nil
}

// overrideFlags are shared by analyze and sensitivity.
type overrideFlags struct {
	discount optFloat
	years    optInt
	multiple optFloat
	expected optFloat
	beta     optFloat
}

func (o *overrideFlags) register(f *flag.FlagSet) {
	f.Var(&o.discount, "discount", "Discount rate override in percent.")
	f.Var(&o.years, "years", "Forecast horizon override in years.")
	f.Var(&o.multiple, "multiple", "Exit P/E multiple override.")
	f.Var(&o.expected, "expected", "Expected growth override in percent.")
	f.Var(&o.beta, "beta", "Derive the discount rate from CAPM with this beta.")
}

func (o *overrideFlags) overrides() models.Overrides {
	return models.Overrides{
		DiscountRatePct:   o.discount.v,
		ForecastYears:     o.years.v,
		ExitMultiple:      o.multiple.v,
		ExpectedGrowthPct: o.expected.v,
		Beta:              o.beta.v,
	}
}

// securityFlags describe a security inline, or name a ticker to fetch.
type securityFlags struct {
	ticker string
	name   string
	sector string
	price  float64
	shares float64
	profit float64
	mcap   float64
}

func (s *securityFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.ticker, "ticker", "", "Ticker symbol. Fetched from the quote site when -profit is not given.")
	f.StringVar(&s.name, "name", "", "Company name.")
	f.StringVar(&s.sector, "sector", "", "Sector label used for the exit multiple.")
	f.Float64Var(&s.price, "price", 0, "Share price.")
	f.Float64Var(&s.shares, "shares", 0, "Shares outstanding, in crores.")
	f.Float64Var(&s.profit, "profit", 0, "Trailing net profit, in crores.")
	f.Float64Var(&s.mcap, "mcap", 0, "Market cap in crores; used instead of -price and -shares.")
}

func (s *securityFlags) resolve(ctx context.Context, fetcher ingest.Fetcher) (models.Security, error) {
	if s.profit == 0 && s.ticker != "" {
		if fetcher == nil {
			return models.Security{}, fmt.Errorf("no fetcher configured for %s", s.ticker)
		}
		sec, err := fetcher.Fetch(ctx, s.ticker)
		if err != nil {
			return models.Security{}, err
		}
		if s.sector != "" {
			sec.Sector = s.sector
		}
		return *sec, nil
	}

	sec := models.Security{
		Ticker:            s.ticker,
		Name:              s.name,
		Sector:            s.sector,
		Price:             s.price,
		SharesOutstanding: s.shares,
		Profit:            s.profit,
	}
	if s.mcap > 0 {
		sec.Price, sec.SharesOutstanding = s.mcap, 1
	}
	if sec.Ticker == "" {
		sec.Ticker = "ADHOC"
	}
	return sec, nil
}
