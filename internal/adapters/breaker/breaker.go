// Package breaker guards inference sub-models with a circuit breaker.
package breaker

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Settings configures a circuit breaker
type Settings struct {
	// MaxRequests is the number of trial calls allowed while half-open
	MaxRequests uint32
	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
}

// DefaultSettings returns the breaker defaults
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

func newCircuitBreaker(name string, s Settings, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// A caller going away says nothing about the provider
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Classifier wraps a ZeroShotClassifier with a circuit breaker
type Classifier struct {
	inner core.ZeroShotClassifier
	cb    *gobreaker.CircuitBreaker
}

// WrapClassifier guards inner with a breaker named after the model
func WrapClassifier(inner core.ZeroShotClassifier, s Settings, logger *zap.Logger) *Classifier {
	return &Classifier{
		inner: inner,
		cb:    newCircuitBreaker("classify:"+inner.Name(), s, logger),
	}
}

// Name returns the wrapped model name
func (c *Classifier) Name() string {
	return c.inner.Name()
}

// Rank calls the wrapped classifier unless the breaker is open
func (c *Classifier) Rank(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.inner.Rank(ctx, text, labels)
	})
	if err != nil {
		return nil, err
	}
	return out.(*core.Ranking), nil
}

// State returns the breaker state
func (c *Classifier) State() gobreaker.State {
	return c.cb.State()
}

// Close closes the wrapped classifier when it holds resources
func (c *Classifier) Close() error {
	if closer, ok := c.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Generator wraps a TextGenerator with a circuit breaker
type Generator struct {
	inner core.TextGenerator
	cb    *gobreaker.CircuitBreaker
}

// WrapGenerator guards inner with a breaker named after the model
func WrapGenerator(inner core.TextGenerator, s Settings, logger *zap.Logger) *Generator {
	return &Generator{
		inner: inner,
		cb:    newCircuitBreaker("generate:"+inner.Name(), s, logger),
	}
}

// Name returns the wrapped model name
func (g *Generator) Name() string {
	return g.inner.Name()
}

// Generate calls the wrapped generator unless the breaker is open
func (g *Generator) Generate(ctx context.Context, prompt string, params core.GenerationParams) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.Generate(ctx, prompt, params)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State returns the breaker state
func (g *Generator) State() gobreaker.State {
	return g.cb.State()
}

// Close closes the wrapped generator when it holds resources
func (g *Generator) Close() error {
	if closer, ok := g.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
