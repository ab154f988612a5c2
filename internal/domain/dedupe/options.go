package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*fifoDeduper)

// WithMaxSize sets the maximum number of ids to remember.
// If maxSize > 0 the oldest ids are evicted first; otherwise nothing is evicted.
func WithMaxSize(maxSize int) Option {
	return func(d *fifoDeduper) {
		d.maxSize = maxSize
	}
}
