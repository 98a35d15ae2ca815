package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/retry"
	"composite-signal-bot/internal/types"
)

type Feed struct {
	Name string
	URL  string
}

// AliasFunc returns the lower-case names a ticker is mentioned by.
type AliasFunc func(ticker string) []string

// RSSSource reads configured RSS feeds and keeps items mentioning the ticker.
type RSSSource struct {
	feeds     []Feed
	aliases   AliasFunc
	cache     *feedCache
	backoff   retry.Backoff
	transport http.RoundTripper
}

var _ interfaces.TextSource = (*RSSSource)(nil)

// NewRSSSource caches raw feed bodies for ttl. aliases may be nil, in which
// case only the ticker itself is matched.
func NewRSSSource(feeds []Feed, ttl time.Duration, aliases AliasFunc) *RSSSource {
	return &RSSSource{
		feeds:     feeds,
		aliases:   aliases,
		cache:     newFeedCache(ttl),
		backoff:   retry.Backoff{MaxAttempts: 3, InitialWait: 2 * time.Second, MaxWait: 4 * time.Second},
		transport: http.DefaultTransport,
	}
}

func (s *RSSSource) Name() string { return "rss" }

// Fetch fails only when every feed failed.
func (s *RSSSource) Fetch(ctx context.Context, ticker string, since time.Time) ([]types.NewsItem, error) {
	names := matchNames(ticker, s.aliases)

	var (
		out      []types.NewsItem
		failures int
		lastErr  error
	)
	for _, feed := range s.feeds {
		items, err := s.fetchFeed(ctx, feed)
		if err != nil {
			failures++
			lastErr = err
			logger.Warn(ctx, "RSS feed failed", "feed", feed.Name, "error", err)
			continue
		}
		for _, it := range items {
			if it.Published.Before(since) || !mentions(it.Text+" "+it.URL, names) {
				continue
			}
			out = append(out, it)
		}
	}
	if len(s.feeds) > 0 && failures == len(s.feeds) {
		return nil, fmt.Errorf("%w: all %d feeds failed: %v", interfaces.ErrDataUnavailable, failures, lastErr)
	}
	return out, nil
}

type rssItem struct {
	title, description, link, pubDate string
}

func (s *RSSSource) fetchFeed(ctx context.Context, feed Feed) ([]types.NewsItem, error) {
	var raw []rssItem

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
		colly.UserAgent(api.BrowserHeaders()["User-Agent"]),
	)
	c.WithTransport(&cachingTransport{ctx: ctx, cache: s.cache, next: s.transport})
	c.OnXML("//item", func(e *colly.XMLElement) {
		raw = append(raw, rssItem{
			title:       strings.TrimSpace(e.ChildText("title")),
			description: e.ChildText("description"),
			link:        strings.TrimSpace(e.ChildText("link")),
			pubDate:     strings.TrimSpace(e.ChildText("pubDate")),
		})
	})

	err := s.backoff.Do(ctx, func(int) error {
		raw = raw[:0]
		return c.Visit(feed.URL)
	}, func(attempt int, err error, wait time.Duration) {
		logger.Debug(ctx, "Retrying feed", "feed", feed.Name, "attempt", attempt, "error", err, "waitTime", wait)
	})
	if err != nil {
		return nil, err
	}

	items := make([]types.NewsItem, 0, len(raw))
	for _, r := range raw {
		published, ok := parsePubDate(r.pubDate)
		if !ok || r.title == "" {
			continue
		}
		text := r.title
		if desc := stripHTML(r.description); desc != "" && desc != r.title {
			text += ". " + desc
		}
		items = append(items, types.NewsItem{
			Text:      text,
			Source:    feed.Name,
			URL:       r.link,
			Published: published,
		})
	}
	return items, nil
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parsePubDate(s string) (time.Time, bool) {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func matchNames(ticker string, aliases AliasFunc) []string {
	names := []string{strings.ToLower(ticker)}
	if aliases != nil {
		for _, a := range aliases(ticker) {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				names = append(names, a)
			}
		}
	}
	return names
}

func mentions(text string, names []string) bool {
	lower := strings.ToLower(text)
	for _, n := range names {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
