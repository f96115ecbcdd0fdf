package core

import "time"

// Metrics records pipeline outcomes
type Metrics interface {
	// Classified counts a verdict by the path that produced it
	Classified(source string, category Category)
	// Replied counts a reply by the path that produced it
	Replied(source string, style Style)
	// Fallback counts a degradation from the model path
	Fallback(stage, reason string)
	// InferenceDuration observes the latency of a backend call
	InferenceDuration(operation string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) Classified(string, Category)             {}
func (nopMetrics) Replied(string, Style)                   {}
func (nopMetrics) Fallback(string, string)                 {}
func (nopMetrics) InferenceDuration(string, time.Duration) {}

// NopMetrics discards every observation
func NopMetrics() Metrics {
	return nopMetrics{}
}
