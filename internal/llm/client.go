// Package llm relays prompts to an OpenAI-compatible chat-completions API,
// either as one blocking call or as a stream of content deltas.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request parameters used for every completion.
const (
	DefaultBaseURL = "https://api.openai.com"
	Model          = "gpt-4o-mini"
	MaxTokens      = 2000
	Temperature    = 0.7
	TopP           = 1.0
)

const completionsPath = "/v1/chat/completions"

// maxErrorBody caps how much of a failed response is kept in HTTPError.
const maxErrorBody = 1 << 16

// Client is the completion provider the services depend on.
type Client interface {
	// Complete returns the full text of the first choice.
	Complete(ctx context.Context, prompt string) (string, error)
	// Stream calls onChunk with each non-empty content delta, in provider
	// order, until the provider signals completion. An error returned by
	// onChunk stops the stream and is returned as-is.
	Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) error
}

// HTTPError is returned when the provider answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm: provider returned status %d: %s", e.StatusCode, e.Body)
}

// Options configures an OpenAI client.
type Options struct {
	BaseURL      string
	APIKey       string
	Organization string
	Project      string
	HTTPClient   *http.Client
}

// OpenAI talks to the chat-completions endpoint over plain HTTP.
type OpenAI struct {
	baseURL      string
	apiKey       string
	organization string
	project      string
	httpClient   *http.Client
}

var _ Client = (*OpenAI)(nil)

// NewOpenAI builds a client. The HTTP client has no overall timeout: the
// caller's context bounds both calls and streams.
func NewOpenAI(opts Options) (*OpenAI, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("llm: API key required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &OpenAI{
		baseURL:      baseURL,
		apiKey:       apiKey,
		organization: strings.TrimSpace(opts.Organization),
		project:      strings.TrimSpace(opts.Project),
		httpClient:   hc,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	N           int           `json:"n"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error json.RawMessage `json:"error"`
}

func newChatRequest(prompt string, stream bool) chatRequest {
	return chatRequest{
		Model:       Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
		TopP:        TopP,
		N:           1,
		Stream:      stream,
	}
}

// Complete sends one non-streaming request.
func (c *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.post(ctx, newChatRequest(prompt, false), "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("llm: decoding response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm: response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Stream sends a streaming request and forwards content deltas.
func (c *OpenAI) Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) error {
	resp, err := c.post(ctx, newChatRequest(prompt, true), "text/event-stream")
	if err != nil {
		return err
	}
	// Closing the body is what stops the read loop when ctx is cancelled.
	defer resp.Body.Close()

	err = streamSSE(resp.Body, func(_ string, data string) error {
		if data == "" {
			return nil
		}
		if data == "[DONE]" {
			return errStreamDone
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("llm: decoding stream chunk: %w", err)
		}
		if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
			return fmt.Errorf("llm: stream error: %s", chunk.Error)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			return nil
		}
		return onChunk(chunk.Choices[0].Delta.Content)
	})
	if errors.Is(err, errStreamDone) {
		return nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// post sends body and returns the response when the status is 2xx. The
// caller owns resp.Body.
func (c *OpenAI) post(ctx context.Context, body chatRequest, accept string) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("llm: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("llm: building request: %w", err)
	}
	c.setHeaders(req, accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: sending request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return resp, nil
}

func (c *OpenAI) setHeaders(req *http.Request, accept string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	if c.project != "" {
		req.Header.Set("OpenAI-Project", c.project)
	}
}
