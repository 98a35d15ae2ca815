package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/ratelimit"
	"composite-signal-bot/internal/types"
)

// Site describes a news site whose tag or search page lists headlines.
type Site struct {
	Name       string
	BaseURL    string
	SearchPath string // e.g. "/search?q={symbol}"
	Selectors  Selectors
}

// Selectors are CSS selectors relative to each listing entry.
type Selectors struct {
	Container string
	Title     string
	URL       string
	Summary   string
}

// DefaultSites are listing pages of Indian financial news sites, matching
// the NSE universe served by the Kite candle source.
func DefaultSites() []Site {
	return []Site{
		{
			Name:       "MoneyControl",
			BaseURL:    "https://www.moneycontrol.com",
			SearchPath: "/news/tags/{symbol}.html",
			Selectors:  Selectors{Container: "li.clearfix", Title: "h2 a, h3 a", URL: "h2 a, h3 a", Summary: "p"},
		},
		{
			Name:       "EconomicTimes",
			BaseURL:    "https://economictimes.indiatimes.com",
			SearchPath: "/topic/{symbol}",
			Selectors:  Selectors{Container: "div.story-box", Title: "a", URL: "a", Summary: "p"},
		},
		{
			Name:       "BusinessStandard",
			BaseURL:    "https://www.business-standard.com",
			SearchPath: "/search?q={symbol}",
			Selectors:  Selectors{Container: "div.listing-txt", Title: "a.Hdng", URL: "a.Hdng", Summary: "p"},
		},
	}
}

// ScraperSource collects headlines from site listing pages. Listings carry
// no reliable timestamps, so items are stamped with the scrape time.
type ScraperSource struct {
	sites       []Site
	maxArticles int
	limiter     *ratelimit.Limiter
	now         func() time.Time
}

var _ interfaces.TextSource = (*ScraperSource)(nil)

// NewScraperSource visits at most one page per interval.
func NewScraperSource(sites []Site, maxArticles int, interval time.Duration) *ScraperSource {
	var l *ratelimit.Limiter
	if interval > 0 {
		l = ratelimit.New(1, interval)
	}
	return &ScraperSource{sites: sites, maxArticles: maxArticles, limiter: l, now: time.Now}
}

func (s *ScraperSource) Name() string { return "scraper" }

func (s *ScraperSource) Fetch(ctx context.Context, ticker string, _ time.Time) ([]types.NewsItem, error) {
	perSite := s.maxArticles / max(len(s.sites), 1)
	if perSite < 1 {
		perSite = 1
	}

	var (
		out      []types.NewsItem
		failures int
	)
	for _, site := range s.sites {
		if err := s.limiter.Wait(ctx); err != nil {
			return out, err
		}
		items, err := s.scrapeSite(ctx, site, ticker, perSite)
		if err != nil {
			failures++
			logger.ErrorWithErr(ctx, "Failed to scrape site", err, "site", site.Name, "ticker", ticker)
			continue
		}
		out = append(out, items...)
	}
	if len(s.sites) > 0 && failures == len(s.sites) {
		return nil, fmt.Errorf("%w: all %d sites failed", interfaces.ErrDataUnavailable, failures)
	}
	return out, nil
}

func (s *ScraperSource) scrapeSite(ctx context.Context, site Site, ticker string, limit int) ([]types.NewsItem, error) {
	var items []types.NewsItem
	scraped := s.now()

	c := colly.NewCollector(
		colly.AllowedDomains(domain(site.BaseURL)),
		colly.MaxDepth(1),
		colly.UserAgent(api.BrowserHeaders()["User-Agent"]),
	)
	if deadline, ok := ctx.Deadline(); ok {
		c.SetRequestTimeout(time.Until(deadline))
	}

	c.OnHTML(site.Selectors.Container, func(e *colly.HTMLElement) {
		if len(items) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildText(site.Selectors.Title))
		link := e.ChildAttr(site.Selectors.URL, "href")
		if title == "" || link == "" {
			return
		}
		if !strings.HasPrefix(link, "http") {
			link = site.BaseURL + link
		}
		text := title
		if summary := strings.TrimSpace(e.ChildText(site.Selectors.Summary)); summary != "" {
			text += ". " + summary
		}
		items = append(items, types.NewsItem{Text: text, Source: site.Name, URL: link, Published: scraped})
	})

	searchURL := site.BaseURL + strings.ReplaceAll(site.SearchPath, "{symbol}", url.PathEscape(strings.ToLower(ticker)))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}
	c.Wait()
	return items, nil
}

func domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
