package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/config"
)

var errEmptyResponse = errors.New("empty response")

// contentGenerator is the slice of the genai client the generator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator calls the Gemini API through a circuit breaker so a failing
// upstream is not hammered by every request.
type GeminiGenerator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[string]
	log     *zap.Logger
}

func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return newGeminiGenerator(client.Models, cfg, log), nil
}

func newGeminiGenerator(models contentGenerator, cfg config.AIConfig, log *zap.Logger) *GeminiGenerator {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller hanging up says nothing about upstream health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &GeminiGenerator{
		models:  models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		cb:      cb,
		log:     log,
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.cb.Execute(func() (string, error) {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", errEmptyResponse
		}
		return text, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return text, nil
}

// DisabledGenerator is used when no API key is configured.
type DisabledGenerator struct{}

func (DisabledGenerator) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: generation is not configured", ErrGenerationFailed)
}
