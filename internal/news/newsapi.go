package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/retry"
	"composite-signal-bot/internal/types"
)

const newsAPIEndpoint = "https://newsapi.org/v2/everything"

// NewsAPISource queries newsapi.org for articles mentioning the ticker or
// one of its aliases.
type NewsAPISource struct {
	key      string
	language string
	endpoint string
	aliases  AliasFunc
	client   *api.Client
	backoff  retry.Backoff
}

var _ interfaces.TextSource = (*NewsAPISource)(nil)

func NewNewsAPISource(key, language string, aliases AliasFunc, client *api.Client) *NewsAPISource {
	if client == nil {
		client = api.NewClient()
	}
	return &NewsAPISource{
		key:      key,
		language: language,
		endpoint: newsAPIEndpoint,
		aliases:  aliases,
		client:   client,
		backoff:  retry.Backoff{MaxAttempts: 2, InitialWait: time.Second, MaxWait: 2 * time.Second},
	}
}

func (s *NewsAPISource) Name() string { return "newsapi" }

func (s *NewsAPISource) Fetch(ctx context.Context, ticker string, since time.Time) ([]types.NewsItem, error) {
	if s.key == "" {
		return nil, fmt.Errorf("%w: NEWSAPI_API_KEY missing", interfaces.ErrDataUnavailable)
	}

	names := matchNames(ticker, s.aliases)
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	q := url.Values{}
	q.Set("q", strings.Join(quoted, " OR "))
	q.Set("from", since.UTC().Format(time.RFC3339))
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", "50")
	if s.language != "" {
		q.Set("language", s.language)
	}

	req := api.NewRequest(http.MethodGet, s.endpoint+"?"+q.Encode()).
		WithContext(ctx).
		WithHeader("X-Api-Key", s.key)
	resp, err := s.client.DoWithRetry(req, s.backoff)
	if err != nil {
		return nil, fmt.Errorf("%w: newsapi: %v", interfaces.ErrDataUnavailable, err)
	}

	doc := gjson.ParseBytes(resp.Body)
	if doc.Get("status").String() != "ok" {
		return nil, fmt.Errorf("%w: newsapi: %s", interfaces.ErrDataUnavailable, doc.Get("message").String())
	}

	var out []types.NewsItem
	doc.Get("articles").ForEach(func(_, a gjson.Result) bool {
		title := strings.TrimSpace(a.Get("title").String())
		published, err := time.Parse(time.RFC3339, a.Get("publishedAt").String())
		if title == "" || err != nil || published.Before(since) {
			return true
		}
		text := title
		if desc := strings.TrimSpace(a.Get("description").String()); desc != "" {
			text += ". " + desc
		}
		out = append(out, types.NewsItem{
			Text:      text,
			Source:    "newsapi:" + a.Get("source.name").String(),
			URL:       a.Get("url").String(),
			Published: published,
		})
		return true
	})
	return out, nil
}
