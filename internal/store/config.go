package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string `yaml:"mode" default:"DRY_RUN" validate:"oneof=DRY_RUN LIVE"`
	PollSeconds int    `yaml:"poll_seconds" default:"300" validate:"gt=0"`

	Universe []Instrument `yaml:"universe" validate:"required,min=1,dive"`

	Candles struct {
		Provider string `yaml:"provider" default:"STATIC" validate:"oneof=STATIC KITE ALPACA"`
		Lookback int    `yaml:"lookback" default:"200" validate:"gt=0"`
		Retry    struct {
			Factor      float64 `yaml:"factor" default:"0.5" validate:"gt=0,lt=1"`
			MaxAttempts int     `yaml:"max_attempts" default:"4" validate:"gte=1"`
		} `yaml:"retry"`
	} `yaml:"candles"`

	Signal struct {
		Interval string  `yaml:"interval" default:"hour" validate:"oneof=minute 5minute 15minute hour day"`
		Fast     int     `yaml:"fast" default:"20" validate:"gt=0"`
		Slow     int     `yaml:"slow" default:"50" validate:"gt=0"`
		ATRRatio float64 `yaml:"atr_ratio" default:"1.0" validate:"gte=0"`
	} `yaml:"signal"`

	Sentiment struct {
		Hours          int           `yaml:"hours" default:"24" validate:"gt=0"`
		Freshness      time.Duration `yaml:"freshness" default:"24h"`
		ClipMin        int           `yaml:"clip_min" default:"-3"`
		ClipMax        int           `yaml:"clip_max" default:"3"`
		HighConfidence float64       `yaml:"high_confidence" default:"0.75" validate:"gt=0,lte=1"`
		LowConfidence  float64       `yaml:"low_confidence" default:"0.45" validate:"gte=0,lte=1"`
		// Classifier chains per language, tried in order. Known names:
		// OPENAI, CLAUDE, HUGGINGFACE. The lexicon is always consulted.
		Chains map[string][]string `yaml:"chains"`
		HuggingFace struct {
			Endpoint string            `yaml:"endpoint" default:"https://api-inference.huggingface.co/models"`
			Models   map[string]string `yaml:"models"`
		} `yaml:"huggingface"`
		LLM struct {
			Model     string  `yaml:"model" default:"gpt-4o-mini"`
			MaxTokens int     `yaml:"max_tokens" default:"8"`
			Temp      float32 `yaml:"temperature" default:"0"`
		} `yaml:"llm"`
	} `yaml:"sentiment"`

	News struct {
		Workers       int           `yaml:"workers" default:"4" validate:"gt=0"`
		SourceTimeout time.Duration `yaml:"source_timeout" default:"8s"`
		FeedTTL       time.Duration `yaml:"feed_ttl" default:"15m"`
		RSS           []Feed        `yaml:"rss"`
		NewsAPI       struct {
			Enabled  bool   `yaml:"enabled"`
			Language string `yaml:"language" default:"en"`
		} `yaml:"newsapi"`
		Scraper struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"scraper"`
	} `yaml:"news"`

	Cache struct {
		Backend   string        `yaml:"backend" default:"FILE" validate:"oneof=FILE REDIS MEMORY"`
		Dir       string        `yaml:"dir" default:"cache/sentiment"`
		Retention time.Duration `yaml:"retention" default:"168h"`
		Front     bool          `yaml:"memory_front" default:"true"`
		Redis     struct {
			Addr   string `yaml:"addr" default:"localhost:6379"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix" default:"sentiment"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Engine struct {
		Threshold     int           `yaml:"threshold" default:"2" validate:"gt=0"`
		DecideTimeout time.Duration `yaml:"decide_timeout" default:"60s"`
	} `yaml:"engine"`

	Ledger struct {
		Dir           string `yaml:"dir" default:"logs"`
		AutoTrade     bool   `yaml:"auto_trade"`
		Qty           int    `yaml:"qty" default:"1" validate:"gt=0"`
		Sheets        bool   `yaml:"sheets"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"ledger"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Secrets Secrets `yaml:"-"`
}

// Instrument ties a broker instrument id to the ticker used for news lookups.
type Instrument struct {
	Ticker     string   `yaml:"ticker" validate:"required"`
	Instrument string   `yaml:"instrument" validate:"required"`
	Aliases    []string `yaml:"aliases"`
}

type Feed struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required,url"`
	Lang string `yaml:"lang"`
}

// Secrets are read from the environment only, never from the YAML file.
type Secrets struct {
	KiteAPIKey      string `envconfig:"KITE_API_KEY"`
	KiteAccessToken string `envconfig:"KITE_ACCESS_TOKEN"`
	AlpacaKey       string `envconfig:"APCA_API_KEY_ID"`
	AlpacaSecret    string `envconfig:"APCA_API_SECRET_KEY"`
	OpenAIKey       string `envconfig:"OPENAI_API_KEY"`
	ClaudeKey       string `envconfig:"CLAUDE_API_KEY"`
	ClaudeEndpoint  string `envconfig:"CLAUDE_API_ENDPOINT"`
	HFToken         string `envconfig:"HF_API_TOKEN"`
	NewsAPIKey      string `envconfig:"NEWSAPI_API_KEY"`
	SheetsWebhook   string `envconfig:"SHEETS_WEBHOOK_URL"`
	SheetsToken     string `envconfig:"SHEETS_TOKEN"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	LLMOff          bool   `envconfig:"LLM_OFF"`
}

// Tickers returns the ticker symbols of the configured universe.
func (c *Config) Tickers() []string {
	out := make([]string, 0, len(c.Universe))
	for _, in := range c.Universe {
		out = append(out, in.Ticker)
	}
	return out
}

// Lookup finds the universe entry for ticker.
func (c *Config) Lookup(ticker string) (Instrument, bool) {
	for _, in := range c.Universe {
		if in.Ticker == ticker {
			return in, true
		}
	}
	return Instrument{}, false
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Signal.Fast >= c.Signal.Slow {
		return fmt.Errorf("signal.fast (%d) must be less than signal.slow (%d)", c.Signal.Fast, c.Signal.Slow)
	}
	if c.Candles.Lookback < c.Signal.Slow {
		return fmt.Errorf("candles.lookback (%d) must be at least signal.slow (%d)", c.Candles.Lookback, c.Signal.Slow)
	}
	if c.Sentiment.ClipMin > 0 || c.Sentiment.ClipMax < 0 {
		return fmt.Errorf("sentiment clip range [%d,%d] must contain 0", c.Sentiment.ClipMin, c.Sentiment.ClipMax)
	}
	if c.Sentiment.LowConfidence > c.Sentiment.HighConfidence {
		return errors.New("sentiment.low_confidence must not exceed sentiment.high_confidence")
	}
	if c.Sentiment.Freshness <= 0 {
		return errors.New("sentiment.freshness must be positive")
	}
	if c.Ledger.Sheets && (c.Secrets.SheetsWebhook == "" || c.Secrets.SheetsToken == "") {
		return errors.New("ledger.sheets requires SHEETS_WEBHOOK_URL and SHEETS_TOKEN")
	}
	return nil
}

// Parse decodes YAML bytes, applies defaults, reads secrets from the
// environment and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &c.Secrets); err != nil {
		return nil, fmt.Errorf("config secrets: %w", err)
	}

	if len(c.Sentiment.Chains) == 0 {
		c.Sentiment.Chains = map[string][]string{
			"en": {"HUGGINGFACE", "OPENAI"},
			"ru": {"HUGGINGFACE", "OPENAI"},
		}
	}
	if len(c.Sentiment.HuggingFace.Models) == 0 {
		c.Sentiment.HuggingFace.Models = map[string]string{
			"en": "cardiffnlp/twitter-roberta-base-sentiment-latest",
			"ru": "blanchefort/rubert-base-cased-sentiment",
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}
