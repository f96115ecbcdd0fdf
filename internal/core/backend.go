package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/semaphore"
)

// BackendOptions bounds every call made against the inference backend
type BackendOptions struct {
	// Timeout caps a single call. Zero disables the cap.
	Timeout time.Duration
	// MaxConcurrency caps in-flight calls across all requests. Zero disables the cap.
	MaxConcurrency int64
}

// InferenceBackend holds the optional classification and generation sub-models.
// It is built once at start-up and never mutated afterwards; an absent
// sub-model stays absent for the lifetime of the process.
type InferenceBackend struct {
	classifier ZeroShotClassifier
	generator  TextGenerator
	timeout    time.Duration
	slots      *semaphore.Weighted
}

// NewInferenceBackend creates a backend. Either sub-model may be nil.
func NewInferenceBackend(classifier ZeroShotClassifier, generator TextGenerator, opts BackendOptions) *InferenceBackend {
	b := &InferenceBackend{
		classifier: classifier,
		generator:  generator,
		timeout:    opts.Timeout,
	}
	if opts.MaxConcurrency > 0 {
		b.slots = semaphore.NewWeighted(opts.MaxConcurrency)
	}
	return b
}

// NoBackend returns a backend with both sub-models absent
func NoBackend() *InferenceBackend {
	return &InferenceBackend{}
}

// ClassifierAvailable reports whether the classification sub-model is loaded
func (b *InferenceBackend) ClassifierAvailable() bool {
	return b != nil && b.classifier != nil
}

// GeneratorAvailable reports whether the generation sub-model is loaded
func (b *InferenceBackend) GeneratorAvailable() bool {
	return b != nil && b.generator != nil
}

// ClassifierName returns the classification model name, or "" when absent
func (b *InferenceBackend) ClassifierName() string {
	if !b.ClassifierAvailable() {
		return ""
	}
	return b.classifier.Name()
}

// GeneratorName returns the generation model name, or "" when absent
func (b *InferenceBackend) GeneratorName() string {
	if !b.GeneratorAvailable() {
		return ""
	}
	return b.generator.Name()
}

// Rank runs zero-shot classification under the backend limits
func (b *InferenceBackend) Rank(ctx context.Context, text string, labels []string) (*Ranking, error) {
	if !b.ClassifierAvailable() {
		return nil, ErrBackendUnavailable
	}
	var ranking *Ranking
	err := b.guard(ctx, func(ctx context.Context) error {
		var err error
		ranking, err = b.classifier.Rank(ctx, text, labels)
		return err
	})
	return ranking, err
}

// Generate runs text generation under the backend limits
func (b *InferenceBackend) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if !b.GeneratorAvailable() {
		return "", ErrBackendUnavailable
	}
	var text string
	err := b.guard(ctx, func(ctx context.Context) error {
		var err error
		text, err = b.generator.Generate(ctx, prompt, params)
		return err
	})
	return text, err
}

// Close releases the sub-models that hold resources
func (b *InferenceBackend) Close() error {
	if b == nil {
		return nil
	}
	var firstErr error
	closed := map[any]bool{}
	for _, m := range []any{b.classifier, b.generator} {
		closer, ok := m.(io.Closer)
		if !ok || closed[m] {
			continue
		}
		closed[m] = true
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *InferenceBackend) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if b.slots != nil {
		if err := b.slots.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("failed to acquire inference slot: %w", err)
		}
		defer b.slots.Release(1)
	}
	return fn(ctx)
}
