package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/usecase"
)

const (
	configPathEnv     = "LEAD_SCANNER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	redisAddrEnv      = "REDIS_ADDR"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	httpAddrEnv       = "HTTP_ADDR"
	logLevelEnv       = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig    `yaml:"logging"`
	Pipeline  PipelineConfig   `yaml:"pipeline"`
	Sites     []SiteConfig     `yaml:"sites"`
	Search    SearchConfig     `yaml:"search"`
	ChatGPT   ChatGPTConfig    `yaml:"chatgpt"`
	Database  DatabaseConfig   `yaml:"database"`
	Redis     RedisConfig      `yaml:"redis"`
	Telegram  TelegramConfig   `yaml:"telegram"`
	HTTP      HTTPConfig       `yaml:"http"`
	Knowledge domain.Knowledge `yaml:"knowledge"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PipelineConfig holds the defaults of every run parameter.
type PipelineConfig struct {
	Queries          []string      `yaml:"queries"`
	MaxItems         int           `yaml:"maxItems"`
	PerQueryItems    int           `yaml:"perQueryItems"`
	BatchSize        int           `yaml:"batchSize"`
	BatchDelay       time.Duration `yaml:"batchDelay"`
	SoftDeadline     time.Duration `yaml:"softDeadline"`
	SafetyMargin     time.Duration `yaml:"safetyMargin"`
	MinExtractBudget time.Duration `yaml:"minExtractBudget"`
	ResolveURLs      bool          `yaml:"resolveUrls"`
	ResolveTimeout   time.Duration `yaml:"resolveTimeout"`
}

// SearchConfig describes the web search engine used by the resolver and the web_search scanner.
type SearchConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Interval time.Duration `yaml:"interval"`
}

// DatabaseConfig describes Postgres connection details. Empty DSN disables persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig wires the resolution cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	SystemPrompt string  `yaml:"systemPrompt"`
	Temperature  float64 `yaml:"temperature"`
}

// SiteConfig describes a single source with its scanner strategy.
type SiteConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// Load reads .env, the YAML file named by LEAD_SCANNER_CONFIG (if present)
// and environment overrides, in that order.
func Load() Config {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit YAML path; empty path falls back to
// LEAD_SCANNER_CONFIG.
func LoadFrom(path string) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse overlays YAML onto the defaults. Sections absent from raw keep their defaults.
func Parse(raw []byte) (Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	cfg.fillGaps()
	return cfg, nil
}

// PipelineRequest converts the pipeline section into an explicit run request.
func (c Config) PipelineRequest() usecase.Request {
	p := c.Pipeline
	return usecase.Request{
		Queries:          append([]string(nil), p.Queries...),
		MaxItems:         p.MaxItems,
		PerQueryItems:    p.PerQueryItems,
		BatchSize:        p.BatchSize,
		BatchDelay:       p.BatchDelay,
		SoftDeadline:     p.SoftDeadline,
		SafetyMargin:     p.SafetyMargin,
		MinExtractBudget: p.MinExtractBudget,
		ResolveURLs:      p.ResolveURLs,
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// fillGaps restores defaults that an explicit but empty YAML value wiped out.
func (c *Config) fillGaps() {
	def := defaultConfig()

	if len(c.Sites) == 0 {
		c.Sites = def.Sites
	}
	if len(c.Pipeline.Queries) == 0 {
		c.Pipeline.Queries = def.Pipeline.Queries
	}
	if c.Pipeline.SoftDeadline <= 0 {
		c.Pipeline.SoftDeadline = def.Pipeline.SoftDeadline
	}
	if c.ChatGPT.Endpoint == "" {
		c.ChatGPT.Endpoint = def.ChatGPT.Endpoint
	}
	if c.Search.Endpoint == "" {
		c.Search.Endpoint = def.Search.Endpoint
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Pipeline: PipelineConfig{
			Queries:          []string{"opens new factory", "expands headquarters", "raises funding"},
			MaxItems:         20,
			PerQueryItems:    5,
			BatchSize:        5,
			BatchDelay:       500 * time.Millisecond,
			SoftDeadline:     45 * time.Second,
			SafetyMargin:     3 * time.Second,
			MinExtractBudget: 8 * time.Second,
			ResolveURLs:      true,
			ResolveTimeout:   4 * time.Second,
		},
		Search: SearchConfig{
			Endpoint: "https://html.duckduckgo.com/html/",
			Interval: 750 * time.Millisecond,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		Redis: RedisConfig{TTL: 72 * time.Hour, Prefix: "leadscanner:resolve:"},
		HTTP:  HTTPConfig{Addr: ":8080"},
		Sites: []SiteConfig{
			{
				Name:    "google-news",
				Scanner: "news_search",
				URL:     "https://news.google.com/rss/search",
				Options: map[string]string{"hl": "en-US", "gl": "US", "ceid": "US:en"},
			},
			{
				Name:    "web-search",
				Scanner: "web_search",
				Options: map[string]string{"suffix": "news"},
			},
			{
				Name:    "prnewswire",
				Scanner: "feed",
				URL:     "https://www.prnewswire.com/rss/news-releases-list.rss",
			},
		},
	}
}
