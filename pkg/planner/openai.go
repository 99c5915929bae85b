package planner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIConfig holds the chat provider configuration.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

// OpenAIProvider asks a chat model for assignment proposals.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	maxRetries int
	log        *logrus.Logger
}

// NewOpenAIProvider builds a provider, or returns nil when no API key
// is configured so the planner falls back to the greedy scheduler.
func NewOpenAIProvider(cfg OpenAIConfig, log *logrus.Logger) *OpenAIProvider {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if log == nil {
		log = logrus.New()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

// Propose sends the prompt as a single-turn chat completion, retrying
// with exponential backoff.
func (p *OpenAIProvider) Propose(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("empty chat response")
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if attempt < p.maxRetries-1 {
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			p.log.WithError(err).WithField("attempt", attempt+1).Debug("chat request failed, retrying")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}
