package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/llm"
	"composite-signal-bot/internal/types"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

type Params struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Endpoint    string
}

// Classifier asks a chat completion model for a one-word sentiment.
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

func (c *Classifier) Name() string { return "openai:" + c.p.Model }

func (c *Classifier) Classify(ctx context.Context, text string) (types.ClassifierResult, error) {
	if c.p.APIKey == "" {
		return types.ClassifierResult{}, fmt.Errorf("%w: OPENAI_API_KEY missing", interfaces.ErrModelUnavailable)
	}

	body := map[string]any{
		"model": c.p.Model,
		"messages": []map[string]string{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": llm.UserPrompt(text)},
		},
		"temperature": c.p.Temperature,
		"max_tokens":  c.p.MaxTokens,
	}
	resp, err := c.client.POST(ctx, c.p.Endpoint, body, map[string]string{"Authorization": "Bearer " + c.p.APIKey})
	if err != nil {
		return types.ClassifierResult{}, fmt.Errorf("%w: openai: %v", interfaces.ErrModelUnavailable, err)
	}

	doc := gjson.ParseBytes(resp.Body)
	content := doc.Get("choices.0.message.content")
	if !content.Exists() {
		return types.ClassifierResult{}, errors.Join(interfaces.ErrModelUnavailable, errors.New("openai: no choices"))
	}
	if c.usage != nil {
		c.usage.LLMTokens(doc.Get("model").String(), int(doc.Get("usage.prompt_tokens").Int()), int(doc.Get("usage.completion_tokens").Int()))
	}

	return types.ClassifierResult{
		Label:      llm.ParseLabel(content.String()),
		Confidence: llm.ModelConfidence,
		Model:      c.Name(),
	}, nil
}
