package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/llm"
)

// GenerationService relays decorated prompts to the language model.
//
//	GenerateHandler → GenerationService → llm.Client (HTTP to the provider)
//
// Provider failures are never retried. They come back as
// apperror.ErrUpstream carrying the provider's own error text.
type GenerationService struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(client llm.Client, logger *slog.Logger) *GenerationService {
	return &GenerationService{llm: client, logger: logger}
}

// Generate returns the model's full answer for prompt.
func (s *GenerationService) Generate(ctx context.Context, prompt string) (string, error) {
	decorated, err := DecoratePrompt(prompt)
	if err != nil {
		return "", err
	}

	start := time.Now()
	text, err := s.llm.Complete(ctx, decorated)
	if err != nil {
		s.logger.Error("completion failed", slog.String("error", err.Error()))
		return "", apperror.Upstream("llm", err)
	}

	s.logger.Info("completion generated",
		slog.Int("promptChars", len(decorated)),
		slog.Int("resultChars", len(text)),
		slog.Duration("duration", time.Since(start)),
	)
	return text, nil
}

// Stream forwards the model's answer to onChunk as it arrives. A
// validation error is returned before onChunk is ever called. An error
// returned by onChunk (the client went away) is passed through unchanged.
func (s *GenerationService) Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) error {
	decorated, err := DecoratePrompt(prompt)
	if err != nil {
		return err
	}

	var sinkErr error
	chunks := 0
	start := time.Now()
	err = s.llm.Stream(ctx, decorated, func(chunk string) error {
		chunks++
		if err := onChunk(chunk); err != nil {
			sinkErr = err
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		s.logger.Info("stream completed",
			slog.Int("chunks", chunks),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	case sinkErr != nil && errors.Is(err, sinkErr):
		return err
	case ctx.Err() != nil:
		s.logger.Info("stream cancelled by client", slog.Int("chunks", chunks))
		return ctx.Err()
	default:
		s.logger.Error("stream failed", slog.Int("chunks", chunks), slog.String("error", err.Error()))
		return apperror.Upstream("llm", err)
	}
}
