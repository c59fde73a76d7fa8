package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
)

// Config aggregates the bot configuration.
type Config struct {
	Bot BotConfig
	AI  AIConfig
}

// BotConfig describes the poll loop.
type BotConfig struct {
	// Account selects the cached OAuth token ("default" if unset).
	Account string
	// Query is the Gmail search that selects messages to reply to.
	Query string
	// Label, when set, is ANDed into the query as label:<Label>.
	Label string
	// PollInterval is the sleep between poll cycles.
	PollInterval time.Duration
	// MaxResults caps the number of messages fetched per cycle.
	MaxResults int64
	// SeenDB is the path of the SQLite replied-messages database.
	// Empty means in-memory only.
	SeenDB string
	// MetricsAddr is the listen address of the health/metrics server.
	// Empty disables the server.
	MetricsAddr string
	// FiltersFile is the path of the ignore-rules JSON file. Empty uses
	// the built-in defaults.
	FiltersFile string
}

// AIConfig describes the chat model used for reply generation.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// LoadDotenv seeds the process environment from a .env file when one
// exists. A missing file is not an error.
func LoadDotenv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	bot, err := loadBotConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Bot: bot, AI: ai}, nil
}

func loadBotConfig() (BotConfig, error) {
	interval := 60
	if raw := strings.TrimSpace(os.Getenv("POLL_INTERVAL_SECONDS")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return BotConfig{}, fmt.Errorf("invalid POLL_INTERVAL_SECONDS value: %q", raw)
		}
		if parsed <= 0 {
			return BotConfig{}, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive, got %d", parsed)
		}
		interval = parsed
	}

	maxResults := int64(50)
	if raw := strings.TrimSpace(os.Getenv("MAX_RESULTS")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return BotConfig{}, fmt.Errorf("invalid MAX_RESULTS value: %q", raw)
		}
		maxResults = parsed
	}

	return BotConfig{
		Account:      getEnvOrDefault("GMAIL_ACCOUNT", "default"),
		Query:        getEnvOrDefault("GMAIL_QUERY", "is:unread"),
		Label:        strings.TrimSpace(os.Getenv("GMAIL_LABEL")),
		PollInterval: time.Duration(interval) * time.Second,
		MaxResults:   maxResults,
		SeenDB:       strings.TrimSpace(os.Getenv("SEEN_DB")),
		MetricsAddr:  strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		FiltersFile:  strings.TrimSpace(os.Getenv("FILTERS_FILE")),
	}, nil
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// EffectiveQuery combines the query with the optional label filter.
func (c BotConfig) EffectiveQuery() string {
	if c.Label == "" {
		return c.Query
	}
	return c.Query + " label:" + c.Label
}

// Enabled reports whether the chat model credentials are configured.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel creates a chat model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("chat model not configured, set ARK_API_KEY and ARK_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func getEnvOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return &value, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return &value, nil
}
