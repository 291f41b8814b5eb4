// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/discord-ai-bot/internal/domain"
)

// DefaultRemoteModel is used for remote requests when no model is configured.
const DefaultRemoteModel = "gpt-4o-mini"

// fallbackSystemPrompt is used when the system prompt file is missing or empty.
const fallbackSystemPrompt = "Reply always that there was an error and you cannot continue"

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv       string `env:"APP_ENV" envDefault:"dev"`
	Port         int    `env:"PORT" envDefault:"8081"`
	DiscordToken string `env:"DISCORD_TOKEN" validate:"required"`
	BotName      string `env:"BOT_NAME" envDefault:"cooperbot"`
	// PrimaryProvider selects which backend handles the first attempt of a dispatch.
	PrimaryProvider string `env:"PRIMARY_PROVIDER" envDefault:"local" validate:"oneof=local remote"`

	OllamaURL    string        `env:"OLLAMA_URL" envDefault:"http://localhost:11434/api/chat"`
	OllamaModel  string        `env:"MODEL" envDefault:"llama3.1:8b"`
	LocalTimeout time.Duration `env:"LOCAL_TIMEOUT" envDefault:"5s"`

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIChatURL string        `env:"OPENAI_CHAT_URL" envDefault:"https://api.openai.com/v1/chat/completions"`
	RemoteModel   string        `env:"REMOTE_MODEL" envDefault:"gpt-4o-mini"`
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"30s"`

	FallbackEnabled bool `env:"FALLBACK_ENABLED" envDefault:"true"`
	// FallbackModel overrides the model for the fallback hop; empty means RemoteModel.
	FallbackModel string `env:"FALLBACK_MODEL"`

	Temperature       float64 `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens         int     `env:"MAX_TOKENS" envDefault:"120"`
	MaxResponseLength int     `env:"MAX_RESPONSE_LENGTH" envDefault:"400"`

	SystemPromptFile      string        `env:"SYSTEM_PROMPT_FILE" envDefault:"system_prompt.txt"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses environment variables into a Config and validates required fields.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Validate: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// PrimaryKind returns the configured primary provider kind.
func (c Config) PrimaryKind() domain.ProviderKind {
	return domain.ProviderKind(strings.ToLower(c.PrimaryProvider))
}

// Primary returns the provider used for the first attempt of every dispatch.
func (c Config) Primary() domain.ProviderConfig {
	if c.PrimaryKind() == domain.ProviderRemote {
		return c.remote(c.RemoteModel)
	}
	return domain.ProviderConfig{
		Kind:        domain.ProviderLocal,
		EndpointURL: c.OllamaURL,
		Model:       c.OllamaModel,
		Timeout:     c.LocalTimeout,
	}
}

// Fallback returns the remote provider used for the single fallback hop.
func (c Config) Fallback() domain.ProviderConfig {
	model := strings.TrimSpace(c.FallbackModel)
	if model == "" {
		model = c.RemoteModel
	}
	return c.remote(model)
}

func (c Config) remote(model string) domain.ProviderConfig {
	return domain.ProviderConfig{
		Kind:        domain.ProviderRemote,
		EndpointURL: c.OpenAIChatURL,
		Model:       model,
		APIKey:      c.OpenAIAPIKey,
		Timeout:     c.RemoteTimeout,
	}
}

// ValidateProviders checks provider invariants at startup, before any request
// is attempted. A remote primary without an API key fails here. A missing
// fallback key is not fatal: it only makes the fallback hop ineligible.
func (c Config) ValidateProviders() error {
	if err := c.Primary().Validate(); err != nil {
		return fmt.Errorf("primary provider: %w", err)
	}
	return nil
}

// LoadSystemPrompt reads the system prompt file. A missing or empty file falls
// back to a canned error-notice prompt so the bot degrades loudly but safely.
func (c Config) LoadSystemPrompt() string {
	b, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		slog.Warn("could not load system prompt", slog.String("file", c.SystemPromptFile), slog.Any("error", err))
		return fallbackSystemPrompt
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		slog.Warn("system prompt file is empty", slog.String("file", c.SystemPromptFile))
		return fallbackSystemPrompt
	}
	return prompt
}
