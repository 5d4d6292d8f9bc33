package progress

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultInterval is the delay between two status frames.
	DefaultInterval = 500 * time.Millisecond

	maxDots = 5
)

// Frame returns the status text for step n: base followed by 1 to 5 dots.
func Frame(base string, n int) string {
	if n < 0 {
		n = -n
	}

	return base + strings.Repeat(".", n%maxDots+1)
}

// Ticker publishes a cycling "waiting" message until stopped.
type Ticker struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type options struct {
	interval time.Duration
}

type Option func(*options)

func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// Start publishes the first frame before returning and then one frame per
// interval. The caller must Stop the returned ticker.
func Start(base string, publish func(string), opts ...Option) *Ticker {
	o := options{interval: DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	publish(Frame(base, 0))

	go t.loop(base, publish, o.interval)

	return t
}

func (t *Ticker) loop(base string, publish func(string), interval time.Duration) {
	defer close(t.done)

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for n := 1; ; n++ {
		select {
		case <-t.stop:
			return
		case <-tick.C:
		}

		// both may be ready; stop wins
		select {
		case <-t.stop:
			return
		default:
		}

		publish(Frame(base, n))
	}
}

// Stop halts the ticker and waits for an in-flight publish to return.
// Further calls are no-ops. Must not be called from inside publish.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})

	<-t.done
}

// Run keeps a ticker alive for the duration of fn and stops it on every
// return path, panics included.
func Run(ctx context.Context, base string, publish func(string), fn func(ctx context.Context) error, opts ...Option) error {
	t := Start(base, publish, opts...)
	defer t.Stop()

	return fn(ctx)
}
