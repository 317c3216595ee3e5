package greeting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/academic-portal/apiserver/config"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const defaultModel = "gemini-3-flash-preview"

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, cfg config.GeminiConfig) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

// NewFromConfig wires a Gemini-backed Greeter, or a provider-less one when no
// key is configured or the client cannot be built.
func NewFromConfig(ctx context.Context, cfg config.GeminiConfig, logger zerolog.Logger) *Greeter {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Info().Msg("GEMINI_API_KEY not set, using static greeting")
		return New(nil, cfg.Timeout, logger)
	}
	generator, err := NewGeminiGenerator(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("gemini unavailable, using static greeting")
		return New(nil, cfg.Timeout, logger)
	}
	return New(generator, cfg.Timeout, logger)
}
