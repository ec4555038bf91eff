// Package scoring turns raw source events into score events.
package scoring

import "time"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithTestFilePatterns overrides the substrings used to recognize test files
// in a commit's changed paths. Matching is case-insensitive.
func WithTestFilePatterns(patterns []string) Option {
	return func(c *Calculator) {
		if len(patterns) > 0 {
			c.testFilePatterns = patterns
		}
	}
}

// WithLazyMessages overrides the exact-match list of low-effort commit
// messages that attract the lazy-message penalty.
func WithLazyMessages(messages []string) Option {
	return func(c *Calculator) {
		if len(messages) > 0 {
			c.lazyMessages = toSet(messages)
		}
	}
}

// WithClock overrides the wall clock used for missing timestamps. Tests only.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// DefaultTestFilePatterns returns the built-in test-path heuristics.
func DefaultTestFilePatterns() []string { return defaultTestFilePatterns() }

// DefaultLazyMessages returns the built-in lazy commit message list.
func DefaultLazyMessages() []string { return defaultLazyMessages() }

func defaultTestFilePatterns() []string {
	return []string{
		"_test.",
		".test.",
		".spec.",
		"test_",
		"tests/",
		"test/",
		"__tests__/",
		"spec/",
	}
}

func defaultLazyMessages() []string {
	return []string{"wip", "fix", "update", "stuff", "asdf", "test", "temp", "tmp"}
}
