package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reverse_dcf/pkg/models"
)

const (
	DefaultBaseURL = "https://www.screener.in"

	UserAgent = "ReverseDCF/1.0 (+https://github.com/reverse-dcf)"
)

// ScreenerFetcher scrapes company pages of a screener.in style site. All
// amounts on the page are in crores, so shares outstanding comes out in
// crore units and price x shares equals the market cap.
type ScreenerFetcher struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewScreenerFetcher creates a fetcher. An empty baseURL uses DefaultBaseURL.
func NewScreenerFetcher(baseURL string, timeout time.Duration) *ScreenerFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ScreenerFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

var _ Fetcher = (*ScreenerFetcher)(nil)

// Fetch downloads {base}/company/{ticker}/ and parses it.
func (f *ScreenerFetcher) Fetch(ctx context.Context, ticker string) (*models.Security, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}
	url := fmt.Sprintf("%s/company/%s/", f.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request for %s failed: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote page for %s returned status %d", ticker, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote page for %s: %w", ticker, err)
	}

	sec, err := ParseCompanyPage(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	sec.Ticker = ticker
	sec.UpdatedAt = f.now()
	return sec, nil
}

// ParseCompanyPage extracts name, sector, price, market cap and the latest
// net profit from a company page.
func ParseCompanyPage(doc *goquery.Document) (*models.Security, error) {
	ratios := topRatios(doc)

	marketCap, ok := ratios["market cap"]
	if !ok || marketCap <= 0 {
		return nil, fmt.Errorf("market cap missing: %w", ErrParse)
	}
	price, ok := ratios["current price"]
	if !ok || price <= 0 {
		return nil, fmt.Errorf("current price missing: %w", ErrParse)
	}
	profit, ok := latestRowValue(doc.Find("#profit-loss table"), "net profit")
	if !ok {
		return nil, fmt.Errorf("net profit missing: %w", ErrParse)
	}

	return &models.Security{
		Name:              strings.TrimSpace(doc.Find("h1").First().Text()),
		Sector:            sectorFromPeers(doc),
		Price:             price,
		SharesOutstanding: marketCap / price,
		Profit:            profit,
	}, nil
}

// topRatios reads the name/value list at the top of the page, keyed by
// lower-cased name.
func topRatios(doc *goquery.Document) map[string]float64 {
	out := make(map[string]float64)
	doc.Find("#top-ratios li").Each(func(_ int, li *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(li.Find(".name").Text()))
		if name == "" {
			return
		}
		raw := li.Find(".number").First().Text()
		if raw == "" {
			raw = li.Find(".value").Text()
		}
		if v, ok := parseNumber(raw); ok {
			out[name] = v
		}
	})
	return out
}

// latestRowValue finds the row whose label starts with label and returns
// its last numeric cell (TTM when present, else the latest year).
func latestRowValue(table *goquery.Selection, label string) (float64, bool) {
	var (
		value float64
		found bool
	)
	table.Find("tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return true
		}
		name := strings.ToLower(strings.Join(strings.Fields(cells.First().Text()), " "))
		name = strings.TrimRight(name, " +")
		if !strings.HasPrefix(name, label) {
			return true
		}
		for i := cells.Length() - 1; i > 0; i-- {
			if v, ok := parseNumber(cells.Eq(i).Text()); ok {
				value, found = v, true
				break
			}
		}
		return false
	})
	return value, found
}

// sectorFromPeers reads the industry breadcrumb above the peer table,
// preferring the most specific classification.
func sectorFromPeers(doc *goquery.Document) string {
	links := doc.Find("#peers a[href*='/market/']")
	for _, title := range []string{"Industry", "Sector", "Broad Industry", "Broad Sector"} {
		if s := strings.TrimSpace(links.Filter(fmt.Sprintf("[title='%s']", title)).First().Text()); s != "" {
			return s
		}
	}
	return strings.TrimSpace(links.Last().Text())
}

// parseNumber handles Indian digit grouping ("1,37,918"), currency symbols
// and percent signs.
func parseNumber(raw string) (float64, bool) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, raw)
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
