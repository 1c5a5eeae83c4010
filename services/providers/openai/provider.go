// Package openai answers prompts through the OpenAI chat completions API, or
// any server that speaks it.
package openai

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/services/providers"

	goopenai "github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for this provider
	ProviderName = "openai"

	// DefaultModel is used when Config.Model is empty
	DefaultModel = "gpt-4.1-mini"

	defaultTimeout = 45 * time.Second
)

// ErrMissingAPIKey is returned by Complete when no key was configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not configured")

// Config configures the provider.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // empty uses the public API
	Temperature float32
	Timeout     time.Duration
}

// Provider implements providers.Provider on top of go-openai.
type Provider struct {
	client      *goopenai.Client
	model       string
	temperature float32
	hasKey      bool
}

// NewProvider builds the client once. A missing API key is reported on each
// call rather than here, so the server can still start and serve health checks.
func NewProvider(cfg Config) *Provider {
	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	if cfg.APIKey == "" {
		log.Warnf("%s OPENAI_API_KEY is not set, analysis requests will fail", logcolors.Provider(ProviderName))
	}
	log.Infof("%s Initializing client (model: %s)", logcolors.Provider(ProviderName), model)

	return &Provider{
		client:      goopenai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: cfg.Temperature,
		hasKey:      cfg.APIKey != "",
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// Model returns the configured model name
func (p *Provider) Model() string {
	return p.model
}

// Complete sends a single user message and returns the first choice.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.Completion, error) {
	if !p.hasKey {
		return nil, providers.NewProviderError(ProviderName, "client unavailable", ErrMissingAPIKey)
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: wireTemperature(p.temperature),
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	log.Debugf("%s Requesting completion (model: %s, prompt: %d chars)", logcolors.Provider(ProviderName), p.model, len(req.Prompt))

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			log.Warnf("%s API error (status %d): %s", logcolors.Provider(ProviderName), apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, providers.NewProviderError(ProviderName, "chat completion failed", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, providers.NewProviderError(ProviderName, "empty completion", providers.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	log.Debugf("%s Completion received (finish reason: %s, tokens: %d/%d)",
		logcolors.Provider(ProviderName), choice.FinishReason, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return &providers.Completion{
		Content:          choice.Message.Content,
		Model:            resp.Model,
		Provider:         ProviderName,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// wireTemperature maps a zero temperature to the smallest positive value,
// since the request field is omitted from the JSON body when zero.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
