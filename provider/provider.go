package provider

import (
	"context"
	"errors"

	"github.com/taskpilot/taskpilot/config"
	openai_provider "github.com/taskpilot/taskpilot/provider/openai"
)

// Message is a single chat turn sent to a completion backend.
type Message = openai_provider.Message

// LLM is the interface every generative backend must satisfy.
type LLM interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// ErrNotConfigured indicates no generative backend credential is present.
var ErrNotConfigured = errors.New("llm provider not configured")

// NewLLM creates a completion client from config, or ErrNotConfigured when
// no API key is set. Callers treat the latter as "use the fallback path".
func NewLLM(cfg config.LLMConfig) (LLM, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
}
