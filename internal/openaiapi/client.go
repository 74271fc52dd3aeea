// Package openaiapi issues text completions against an OpenAI-compatible
// HTTP endpoint and owns the retry behavior for a single call.
package openaiapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// Client wraps the OpenAI chat completions API. It holds no state across
// calls other than connection configuration.
type Client struct {
	cfg    Config
	client openai.Client
}

// NewClient constructs a completion client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("completion model is required")
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		envKey := strings.TrimSpace(cfg.APIKeyEnv)
		if envKey == "" {
			envKey = defaultAPIKeyEnv
		}
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	initialBackoff := cfg.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = defaultInitialBackoff
	}
	maxElapsed := cfg.MaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = defaultMaxElapsed
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(timeout),
		// Retries are handled here, with classification; the SDK's own
		// retry loop would double them.
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		// Local endpoints such as Ollama accept unauthenticated requests.
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Client{
		cfg: Config{
			Model:          model,
			BaseURL:        baseURL,
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
			Timeout:        timeout,
			MaxAttempts:    maxAttempts,
			InitialBackoff: initialBackoff,
			MaxElapsed:     maxElapsed,
		},
		client: openai.NewClient(opts...),
	}, nil
}

// Complete executes a single completion. Transient failures are retried with
// exponential backoff up to the configured attempt and elapsed-time budget;
// protocol and auth failures abort after the first attempt. Each retry sends
// the identical request.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.cfg.InitialBackoff

	op := func() (CompletionResponse, error) {
		resp, err := c.do(ctx, req)
		if err != nil {
			f := classify(err)
			if !f.Transient() {
				return CompletionResponse{}, backoff.Permanent(f)
			}
			return CompletionResponse{}, f
		}
		return resp, nil
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(c.cfg.MaxElapsed),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn().Err(err).Dur("wait", wait).Msg("completion failed, retrying")
		}),
	)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("completion: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    messages,
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		return CompletionResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, failuref(FailureProtocol, "response contained no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return CompletionResponse{}, failuref(FailureProtocol, "response contained no output text")
	}
	return CompletionResponse{OutputText: output}, nil
}
