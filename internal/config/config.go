package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Validate. It is the one startup error class
// that stops the process.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Discord settings
	DiscordToken string

	// Text generation settings
	GenerationProvider string // gemini | openai
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	PromptTemplateFile string

	// Search API settings; empty keys disable the source at fetch time
	YouTubeAPIKey  string
	NewsAPIKey     string
	NewsAPIBaseURL string

	// Cycle settings
	RSSInterval   time.Duration
	OtherInterval time.Duration

	// Result caps per fetch
	MaxRSSItems       int
	MaxYouTubeResults int
	MaxNewsAPIResults int

	// App settings
	CategoriesFile string
	HTTPAddr       string
	APIAccessKey   string
	RequestTimeout time.Duration
	LogDir         string
	Debug          bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		GenerationProvider: ProviderGemini,
		GeminiModel:        "gemini-1.5-flash",
		OpenAIModel:        "gpt-4o-mini",
		NewsAPIBaseURL:     "https://newsapi.org",
		RSSInterval:        2 * time.Hour,
		OtherInterval:      6 * time.Hour,
		MaxRSSItems:        10,
		MaxYouTubeResults:  1,
		MaxNewsAPIResults:  5,
		CategoriesFile:     "configs/categories.yaml",
		HTTPAddr:           ":8080",
		RequestTimeout:     30 * time.Second,
		LogDir:             "logs",
	}

	// Credentials
	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	cfg.APIAccessKey = os.Getenv("API_ACCESS_KEY")

	if p := os.Getenv("GENERATION_PROVIDER"); p != "" {
		cfg.GenerationProvider = strings.ToLower(p)
	}
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.PromptTemplateFile = os.Getenv("PROMPT_TEMPLATE_FILE")
	cfg.NewsAPIBaseURL = getEnvOrDefault("NEWS_API_BASE_URL", cfg.NewsAPIBaseURL)

	cfg.RSSInterval = getEnvDurationOrDefault("RSS_INTERVAL", cfg.RSSInterval)
	cfg.OtherInterval = getEnvDurationOrDefault("OTHER_INTERVAL", cfg.OtherInterval)
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)

	cfg.MaxRSSItems = getEnvIntOrDefault("MAX_RSS_ITEMS", cfg.MaxRSSItems)
	cfg.MaxYouTubeResults = getEnvIntOrDefault("MAX_YOUTUBE_RESULTS", cfg.MaxYouTubeResults)
	cfg.MaxNewsAPIResults = getEnvIntOrDefault("MAX_NEWSAPI_RESULTS", cfg.MaxNewsAPIResults)

	cfg.CategoriesFile = getEnvOrDefault("CATEGORIES_FILE", cfg.CategoriesFile)
	cfg.HTTPAddr = getEnvOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogDir = getEnvOrDefault("LOG_DIR", cfg.LogDir)

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}

	switch c.GenerationProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("%w: GENERATION_PROVIDER must be %q or %q", ErrInvalidConfig, ProviderGemini, ProviderOpenAI)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required environment variables: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// MissingOptional lists optional credentials that are not set. Sources
// depending on them will return nothing.
func (c *Config) MissingOptional() []string {
	var out []string
	if c.YouTubeAPIKey == "" {
		out = append(out, "YOUTUBE_API_KEY")
	}
	if c.NewsAPIKey == "" {
		out = append(out, "NEWS_API_KEY")
	}
	return out
}
