package service

import (
	"strings"

	"github.com/sakif/geniuspost/internal/apperror"
)

// PromptSuffix is appended to every user prompt before it reaches the
// model. It steers the answer towards a shareable flashcard.
const PromptSuffix = " Important: Just give answer, no unnecessary info. Only add the topic as heading. Generate a creative flashcard that can be shared over social media."

// DecoratePrompt trims raw and appends PromptSuffix. A prompt that is
// empty after trimming is a validation error. No escaping is applied.
func DecoratePrompt(raw string) (string, error) {
	prompt := strings.TrimSpace(raw)
	if prompt == "" {
		return "", apperror.ValidationFailed("prompt", "prompt is required")
	}
	return prompt + PromptSuffix, nil
}
