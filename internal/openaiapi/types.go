package openaiapi

import "time"

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultAPIKeyEnv      = "OPENAI_API_KEY"
	defaultTimeout        = 2 * time.Minute
	defaultMaxAttempts    = 4
	defaultInitialBackoff = time.Second
	defaultMaxElapsed     = time.Minute
)

// Config is completion client configuration.
type Config struct {
	Model       string
	BaseURL     string
	APIKey      string
	APIKeyEnv   string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// Retry budget for transient failures. MaxAttempts counts the first
	// attempt, so MaxAttempts=1 disables retries.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxElapsed     time.Duration
}

// CompletionRequest is a single chat completion request. The same request is
// reused verbatim across retries.
type CompletionRequest struct {
	System string
	Prompt string
}

// CompletionResponse is a single chat completion response.
type CompletionResponse struct {
	OutputText string
}
