package providers

import "errors"

// ErrEmptyResponse is returned when the model produced no content.
var ErrEmptyResponse = errors.New("provider returned no content")

// CompletionRequest is a single-turn prompt.
type CompletionRequest struct {
	Prompt string

	// JSONMode asks the model to answer with a JSON object.
	JSONMode bool
}

// Completion is the model's reply.
type Completion struct {
	// Content is the raw text of the first choice
	Content string `json:"content"`

	// Model is the model that actually answered
	Model string `json:"model"`

	// Provider is the name of the provider that returned the completion
	Provider string `json:"provider"`

	FinishReason     string `json:"finishReason,omitempty"`
	PromptTokens     int    `json:"promptTokens,omitempty"`
	CompletionTokens int    `json:"completionTokens,omitempty"`
}

// ProviderError represents an error from a provider with additional context
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
