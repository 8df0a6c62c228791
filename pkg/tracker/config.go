package tracker

import "time"

// Config holds the processing loop timing.
type Config struct {
	// Interval is the pause between iterations. A stop request cuts it
	// short.
	Interval time.Duration

	// StatsInterval controls how often loop counters are logged at debug
	// level. Zero disables the periodic log.
	StatsInterval time.Duration
}

// DefaultConfig returns the standard loop timing, roughly 30 iterations
// per second when processing is fast.
func DefaultConfig() Config {
	return Config{
		Interval:      33 * time.Millisecond,
		StatsInterval: 10 * time.Second,
	}
}
