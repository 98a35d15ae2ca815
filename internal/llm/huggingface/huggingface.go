// Package huggingface classifies text with hosted transformer sentiment
// models through the inference API.
package huggingface

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/ratelimit"
	"composite-signal-bot/internal/types"
)

const DefaultEndpoint = "https://api-inference.huggingface.co/models"

type Params struct {
	Endpoint string
	Model    string
	Token    string
}

type Classifier struct {
	p       Params
	client  *api.Client
	limiter *ratelimit.Limiter
}

var _ interfaces.Classifier = (*Classifier)(nil)

// New builds a classifier for one model. limiter may be nil.
func New(p Params, client *api.Client, limiter *ratelimit.Limiter) *Classifier {
	if p.Endpoint == "" {
		p.Endpoint = DefaultEndpoint
	}
	p.Endpoint = strings.TrimRight(p.Endpoint, "/")
	if client == nil {
		client = api.NewClient()
	}
	return &Classifier{p: p, client: client, limiter: limiter}
}

func (c *Classifier) Name() string { return "hf:" + c.p.Model }

func (c *Classifier) Classify(ctx context.Context, text string) (types.ClassifierResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return types.ClassifierResult{}, err
	}

	headers := map[string]string{}
	if c.p.Token != "" {
		headers["Authorization"] = "Bearer " + c.p.Token
	}
	body := map[string]any{
		"inputs":  text,
		"options": map[string]any{"wait_for_model": false},
	}
	resp, err := c.client.POST(ctx, c.p.Endpoint+"/"+c.p.Model, body, headers)
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == 503 {
			return types.ClassifierResult{}, fmt.Errorf("%w: %s is loading", interfaces.ErrModelUnavailable, c.p.Model)
		}
		return types.ClassifierResult{}, fmt.Errorf("%w: %s: %v", interfaces.ErrModelUnavailable, c.p.Model, err)
	}

	label, score, ok := best(gjson.ParseBytes(resp.Body))
	if !ok {
		return types.ClassifierResult{}, fmt.Errorf("%w: %s: unexpected response", interfaces.ErrModelUnavailable, c.p.Model)
	}
	return types.ClassifierResult{Label: label, Confidence: score, Model: c.Name()}, nil
}

// best picks the top scoring label. The API answers either [[{label,score}...]]
// or [{label,score}...] depending on the pipeline.
func best(doc gjson.Result) (types.Label, float64, bool) {
	candidates := doc
	if doc.Get("0").IsArray() {
		candidates = doc.Get("0")
	}
	if !candidates.IsArray() {
		return "", 0, false
	}

	var (
		top   types.Label
		score = -1.0
	)
	candidates.ForEach(func(_, v gjson.Result) bool {
		s := v.Get("score").Float()
		if l, ok := Normalize(v.Get("label").String()); ok && s > score {
			top, score = l, s
		}
		return true
	})
	if score < 0 {
		return "", 0, false
	}
	return top, score, true
}

// Normalize maps model-specific label names onto the three classes. Older
// cardiffnlp checkpoints use LABEL_0..2 for negative, neutral, positive.
func Normalize(raw string) (types.Label, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive", "pos", "label_2":
		return types.Positive, true
	case "negative", "neg", "label_0":
		return types.Negative, true
	case "neutral", "neu", "label_1":
		return types.Neutral, true
	}
	return "", false
}
