package seen

// Option applies a configuration option to the tracker.
type Option func(*tracker)

// WithMaxSize bounds the number of ids kept in memory. Zero or negative
// means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(t *tracker) {
		t.maxSize = maxSize
	}
}
