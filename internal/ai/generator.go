package ai

import (
	"context"
	"errors"
)

// ErrGenerationFailed covers every way a generation can fail: the call
// itself, a timeout, an open breaker, or output that does not parse.
var ErrGenerationFailed = errors.New("ai generation failed")

// TextGenerator turns a prompt into free text. No output structure is
// guaranteed; callers expecting JSON go through ExtractJSON.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
