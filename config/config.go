// Package config loads service configuration from environment variables
// (with an optional .env file) and the asset catalog from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"marketviz/internal/model"
)

// Config holds all application configuration.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// Optional Redis mirror. Empty address disables it.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`

	// Commentary (generative-language) boundary. Empty URL disables it.
	CommentaryURL    string `envconfig:"COMMENTARY_URL"`
	CommentaryAPIKey string `envconfig:"COMMENTARY_API_KEY"`

	// Voice synthesis boundary. Empty URL disables callouts.
	VoiceURL    string `envconfig:"VOICE_URL"`
	VoiceAPIKey string `envconfig:"VOICE_API_KEY"`

	// Optional alert channels.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
	WebhookURL       string `envconfig:"WEBHOOK_URL"`

	// Asset catalog YAML. Empty path uses the built-in default catalog.
	AssetsFile string `envconfig:"ASSETS_FILE"`

	DefaultSymbol    string `envconfig:"DEFAULT_SYMBOL" default:"EUR/USD"`
	DefaultTimeframe string `envconfig:"DEFAULT_TIMEFRAME" default:"1M"`

	// Cron spec for periodic auto-analysis (seconds field included, e.g.
	// "0 */5 * * * *"). Empty disables the job.
	AutoAnalysisCron string `envconfig:"AUTO_ANALYSIS_CRON"`
}

// Load reads the optional .env file, then maps environment variables.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// catalogFile is the on-disk YAML shape of the asset catalog.
type catalogFile struct {
	Assets []model.Asset `yaml:"assets"`
}

// LoadCatalog reads the asset catalog from path, or returns the built-in
// default catalog when path is empty.
func LoadCatalog(path string) ([]model.Asset, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read catalog: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("config: parse catalog: %w", err)
	}
	if len(cf.Assets) == 0 {
		return nil, fmt.Errorf("config: catalog %s contains no assets", path)
	}

	for i, a := range cf.Assets {
		if a.Symbol == "" || a.BasePrice <= 0 {
			return nil, fmt.Errorf("config: catalog entry %d: symbol and positive base_price required", i)
		}
	}
	return cf.Assets, nil
}

// DefaultCatalog returns the built-in currency/crypto pairs.
func DefaultCatalog() []model.Asset {
	return []model.Asset{
		{Symbol: "EUR/USD", Name: "Euro / US Dollar", BasePrice: 1.0854, DayChange: 0.12},
		{Symbol: "GBP/USD", Name: "British Pound / US Dollar", BasePrice: 1.2718, DayChange: -0.08},
		{Symbol: "USD/JPY", Name: "US Dollar / Japanese Yen", BasePrice: 151.42, DayChange: 0.31},
		{Symbol: "BTC/USD", Name: "Bitcoin / US Dollar", BasePrice: 67234.50, DayChange: 2.45},
		{Symbol: "ETH/USD", Name: "Ethereum / US Dollar", BasePrice: 3542.18, DayChange: -1.12},
	}
}
