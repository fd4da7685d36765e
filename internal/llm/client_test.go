package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAI(Options{
		BaseURL:      srv.URL + "/",
		APIKey:       "sk-test",
		Organization: "org-1",
		Project:      "proj-1",
	})
	require.NoError(t, err)
	return c
}

func decodeRequest(t *testing.T, r *http.Request) chatRequest {
	t.Helper()
	var body chatRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNewOpenAI_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAI(Options{APIKey: "  "})
	assert.Error(t, err)
}

func TestNewOpenAI_DefaultBaseURL(t *testing.T) {
	c, err := NewOpenAI(Options{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestComplete(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, completionsPath, r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "org-1", r.Header.Get("OpenAI-Organization"))
		assert.Equal(t, "proj-1", r.Header.Get("OpenAI-Project"))
		got = decodeRequest(t, r)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  # Photosynthesis\nPlants eat light.  "}}]}`)
	})

	text, err := c.Complete(context.Background(), "photosynthesis")
	require.NoError(t, err)

	assert.Equal(t, "# Photosynthesis\nPlants eat light.", text)
	assert.Equal(t, Model, got.Model)
	assert.Equal(t, MaxTokens, got.MaxTokens)
	assert.Equal(t, Temperature, got.Temperature)
	assert.Equal(t, TopP, got.TopP)
	assert.Equal(t, 1, got.N)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "photosynthesis"}, got.Messages[0])
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"non-2xx status", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`, "Incorrect API key provided"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"malformed body", http.StatusOK, `{"choices":`, "decoding response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Complete(context.Background(), "hi")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComplete_HTTPErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "slow down")
	})

	_, err := c.Complete(context.Background(), "hi")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, "slow down", httpErr.Body)
}

func TestComplete_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewOpenAI(Options{BaseURL: srv.URL, APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending request")
}

// writeChunks streams each delta as a chat.completion.chunk event.
func writeChunks(w http.ResponseWriter, deltas ...string) {
	flusher := w.(http.Flusher)
	for _, d := range deltas {
		b, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"delta": map[string]any{"content": d}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", b)
		flusher.Flush()
	}
}

func TestStream(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		got = decodeRequest(t, r)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		writeChunks(w, "# Hel", "lo", " world")
		fmt.Fprint(w, "data: [DONE]\n\n")
		writeChunks(w, "after done")
	})

	var chunks []string
	err := c.Stream(context.Background(), "hello", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, got.Stream)
	assert.Equal(t, []string{"# Hel", "lo", " world"}, chunks)
}

func TestStream_ProviderErrorEvent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "partial")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"server overloaded\"}}\n\n")
		writeChunks(w, "never delivered")
	})

	var chunks []string
	err := c.Stream(context.Background(), "hello", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server overloaded")
	assert.Equal(t, []string{"partial"}, chunks)
}

func TestStream_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "bad gateway")
	})

	called := false
	err := c.Stream(context.Background(), "hello", func(string) error {
		called = true
		return nil
	})

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.False(t, called)
}

func TestStream_CallbackErrorStops(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "a", "b", "c")
	})

	errClientGone := errors.New("client gone")
	var chunks []string
	err := c.Stream(context.Background(), "hello", func(chunk string) error {
		chunks = append(chunks, chunk)
		return errClientGone
	})

	assert.ErrorIs(t, err, errClientGone)
	assert.Equal(t, []string{"a"}, chunks)
}

func TestStream_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "first")
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Stream(ctx, "hello", func(chunk string) error {
			cancel()
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Stream did not return after cancellation")
	}
}

func TestStreamSSE(t *testing.T) {
	input := strings.Join([]string{
		": comment",
		"event: message",
		"data: line one",
		"data: line two",
		"",
		"data:no-space",
		"",
		"",
		"data: trailing without blank line",
	}, "\r\n")

	type event struct{ name, data string }
	var got []event
	err := streamSSE(strings.NewReader(input), func(name, data string) error {
		got = append(got, event{name, data})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []event{
		{"message", "line one\nline two"},
		{"", "no-space"},
		{"", "trailing without blank line"},
	}, got)
}
