// Package greeting produces the dashboard welcome line. Greet never fails:
// provider errors, timeouts and empty answers fall back to fixed messages.
package greeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMessage is shown when no provider is configured or it returns nothing.
	DefaultMessage = "Welcome back to your dashboard!"
	// FallbackMessage is shown when the provider fails or times out.
	FallbackMessage = "Welcome back! Ready to ace your classes today?"

	defaultTimeout = 5 * time.Second
	maxNameRunes   = 80
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Greeter struct {
	generator Generator
	timeout   time.Duration
	logger    zerolog.Logger
}

// New returns a Greeter. A nil generator yields DefaultMessage for everyone.
func New(generator Generator, timeout time.Duration, logger zerolog.Logger) *Greeter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Greeter{generator: generator, timeout: timeout, logger: logger}
}

func (g *Greeter) Greet(ctx context.Context, name string) string {
	if g == nil || g.generator == nil {
		return DefaultMessage
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	prompt := Prompt(name)
	go func() {
		text, err := g.generator.Generate(ctx, prompt)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			g.logger.Warn().Err(res.err).Msg("greeting provider failed")
			return FallbackMessage
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			return DefaultMessage
		}
		return text
	case <-ctx.Done():
		g.logger.Warn().Err(ctx.Err()).Dur("timeout", g.timeout).Msg("greeting provider timed out")
		return FallbackMessage
	}
}

// Prompt builds the provider prompt. The name is flattened to a single
// bounded line so it cannot restructure the request.
func Prompt(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = string(runes[:maxNameRunes])
	}
	if name == "" {
		name = "student"
	}
	return fmt.Sprintf(
		"Generate a short, friendly, and motivational one-sentence welcome message for a university student named %s. Include a brief study tip.",
		name,
	)
}
