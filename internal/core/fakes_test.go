package core_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/email-triage/internal/core"
)

type fakeClassifier struct {
	mu      sync.Mutex
	ranking *core.Ranking
	err     error
	calls   int
}

func (f *fakeClassifier) Rank(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.ranking, f.err
}

func (f *fakeClassifier) Name() string { return "fake-zero-shot" }

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGenerator struct {
	mu     sync.Mutex
	out    string
	err    error
	params []core.GenerationParams
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, params core.GenerationParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompt = prompt
	f.params = append(f.params, params)
	return f.out, f.err
}

func (f *fakeGenerator) Name() string { return "fake-generator" }

// blockingClassifier waits for its context to end
type blockingClassifier struct{}

func (blockingClassifier) Rank(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingClassifier) Name() string { return "blocking" }

var errNotFound = errors.New("not found")

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*core.CacheEntry
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*core.CacheEntry{}}
}

func (c *mapCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, errNotFound
	}
	return e, nil
}

func (c *mapCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = entry
	return nil
}

type recordingMetrics struct {
	mu        sync.Mutex
	fallbacks []string
	sources   []string
}

func (m *recordingMetrics) Classified(source string, category core.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
}

func (m *recordingMetrics) Replied(string, core.Style) {}

func (m *recordingMetrics) Fallback(stage, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, stage+":"+reason)
}

func (m *recordingMetrics) InferenceDuration(string, time.Duration) {}
