package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/service"
)

// GenerateHandler relays prompts to the LLM, either as one JSON response
// or as a Server-Sent Events stream.
type GenerateHandler struct {
	generation *service.GenerationService
	logger     *slog.Logger
}

// NewGenerateHandler creates a GenerateHandler.
func NewGenerateHandler(generation *service.GenerationService, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{generation: generation, logger: logger}
}

// GenerateRequest is the body of /generate and /generate-stream.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is the body of a successful /generate.
type GenerateResponse struct {
	Result string `json:"result"`
}

// HandleGenerate returns the whole completion at once.
//
// HTTP: POST /generate {"prompt": "..."}
//
//	200 {"result": "..."}
//	400 {"error": "prompt is required"}
//	500 {"error": "<provider error text>"}
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.generation.Generate(r.Context(), req.Prompt)
	if err != nil {
		h.logger.Warn("generate failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Result: result})
}

// streamEvent is one SSE frame of /generate-stream.
type streamEvent struct {
	Chunk *string `json:"chunk,omitempty"`
	Error string  `json:"error,omitempty"`
	Done  bool    `json:"done"`
}

// sseWriter writes SSE frames and flushes each one.
//
// Headers are written on the first frame, so a request that fails before
// any output can still be answered with a normal JSON error.
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
	buf     bytes.Buffer
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	// A long completion outlives the server's WriteTimeout.
	if err := s.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Debug("sse: clearing write deadline failed", slog.String("error", err.Error()))
	}
	s.w.WriteHeader(http.StatusOK)
}

// send writes one "data: {...}\n\n" frame.
func (s *sseWriter) send(ev streamEvent) error {
	s.start()

	s.buf.Reset()
	s.buf.WriteString("data: ")
	enc := json.NewEncoder(&s.buf)
	enc.SetEscapeHTML(false) // chunks are mostly HTML; keep them readable
	if err := enc.Encode(ev); err != nil {
		return err
	}
	// Encode ends with '\n'; one more terminates the event.
	s.buf.WriteByte('\n')

	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

func (s *sseWriter) chunk(text string) error {
	return s.send(streamEvent{Chunk: &text})
}

func (s *sseWriter) done() error {
	empty := ""
	return s.send(streamEvent{Chunk: &empty, Done: true})
}

func (s *sseWriter) fail(message string) error {
	return s.send(streamEvent{Error: message, Done: true})
}

// HandleStream relays the completion as it is produced.
//
// HTTP: POST /generate-stream {"prompt": "..."}
//
// WIRE FORMAT (text/event-stream):
//
//	data: {"chunk":"<h1>","done":false}
//
//	data: {"chunk":"Title","done":false}
//
//	data: {"chunk":"","done":true}
//
// A failure after the stream started ends it with
//
//	data: {"error":"<text>","done":true}
//
// Provider failures are reported the same way, even before the first
// chunk. Only an empty prompt is rejected with a 400 JSON error.
// When the client disconnects, r.Context() is cancelled and the provider
// request is abandoned.
func (h *GenerateHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sse := newSSEWriter(w)
	err := h.generation.Stream(r.Context(), req.Prompt, sse.chunk)

	switch {
	case err == nil:
		if err := sse.done(); err != nil {
			h.logger.Debug("stream: writing final frame failed", slog.String("error", err.Error()))
		}
	case r.Context().Err() != nil:
		// Client went away; nobody is listening.
		h.logger.Info("stream: client disconnected")
	case errors.Is(err, apperror.ErrValidation) && !sse.started:
		writeError(w, err)
	default:
		_, _, message := errorStatus(err)
		h.logger.Warn("stream: aborted", slog.String("error", err.Error()))
		if werr := sse.fail(message); werr != nil {
			h.logger.Debug("stream: writing error frame failed", slog.String("error", werr.Error()))
		}
	}
}
