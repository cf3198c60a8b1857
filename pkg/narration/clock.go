package narration

import (
	"fmt"
	"sync"
	"time"
)

// Clock runs a single repeating sampler.
type Clock struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewClock(interval time.Duration) *Clock {
	return &Clock{interval: interval}
}

// Start stops any running sampler and starts calling fn every interval.
func (c *Clock) Start(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	stop := make(chan struct{})
	c.stop = stop

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Stop is safe to call when nothing is running. It does not wait for an
// in-flight fn call to return.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// FormatTime renders d as m:ss.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
