package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/llm"
	"composite-signal-bot/internal/trace"
	"composite-signal-bot/internal/types"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion      = "2023-06-01"
)

type Params struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	// Endpoint overrides the public messages endpoint, e.g. for a proxy.
	Endpoint string
}

// Classifier uses the Anthropic messages API as a sentiment classifier.
type Classifier struct {
	p      Params
	client *api.Client
	usage  llm.UsageRecorder
}

var _ interfaces.Classifier = (*Classifier)(nil)

func New(p Params, client *api.Client, usage llm.UsageRecorder) *Classifier {
	if p.Endpoint == "" {
		p.Endpoint = defaultEndpoint
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 8
	}
	if client == nil {
		client = api.NewClient()
	}
	return &Classifier{p: p, client: client, usage: usage}
}

func (c *Classifier) Name() string { return "claude:" + c.p.Model }

func (c *Classifier) Classify(ctx context.Context, text string) (types.ClassifierResult, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	if c.p.APIKey == "" {
		return types.ClassifierResult{}, fmt.Errorf("%w: CLAUDE_API_KEY missing", interfaces.ErrModelUnavailable)
	}

	body := map[string]any{
		"model":  c.p.Model,
		"system": llm.SystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": llm.UserPrompt(text)},
		},
		"max_tokens":  c.p.MaxTokens,
		"temperature": c.p.Temperature,
	}
	resp, err := c.client.POST(ctx, c.p.Endpoint, body, map[string]string{
		"x-api-key":         c.p.APIKey,
		"anthropic-version": apiVersion,
	})
	if err != nil {
		return types.ClassifierResult{}, fmt.Errorf("%w: claude: %v", interfaces.ErrModelUnavailable, err)
	}

	doc := gjson.ParseBytes(resp.Body)
	answer := extractText(doc)
	if answer == "" {
		// Not JSON, or an unknown shape: the raw body is the answer.
		answer = strings.TrimSpace(string(resp.Body))
	}
	if c.usage != nil && doc.Get("usage").Exists() {
		c.usage.LLMTokens(c.p.Model, int(doc.Get("usage.input_tokens").Int()), int(doc.Get("usage.output_tokens").Int()))
	}

	return types.ClassifierResult{
		Label:      llm.ParseLabel(answer),
		Confidence: llm.ModelConfidence,
		Model:      c.Name(),
	}, nil
}

// extractText tries the messages API shape first, then the shapes proxies
// in front of it tend to return.
func extractText(doc gjson.Result) string {
	for _, path := range []string{
		"content.0.text",
		"choices.0.message.content",
		"choices.0.text",
		"completion",
		"output_text",
	} {
		if v := doc.Get(path); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
			return v.String()
		}
	}
	return ""
}
