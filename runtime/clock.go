package runtime

import (
	"context"
	"time"
)

// Clock drives the frame loop. Elapsed returns the virtual time since the
// clock started; Tick blocks (or not) until the next frame boundary.
// One logical thread calls Tick; "suspension" between frames is whatever the
// implementation does inside it.
type Clock interface {
	Start()
	Elapsed() time.Duration
	Tick(ctx context.Context) error
}

// VirtualClock advances a fixed period per tick without sleeping. Runs are
// deterministic and as fast as the flow allows; this is the clock used by
// tests and the HTTP entrypoint.
type VirtualClock struct {
	period  time.Duration
	elapsed time.Duration
}

func NewVirtualClock(frameRate float64) *VirtualClock {
	return &VirtualClock{
		period: time.Duration(float64(time.Second) / frameRate),
	}
}

func (c *VirtualClock) Start() {
	c.elapsed = 0
}

func (c *VirtualClock) Elapsed() time.Duration {
	return c.elapsed
}

func (c *VirtualClock) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.elapsed += c.period
	return nil
}

// TickerClock paces frames against wall time for interactive runs.
type TickerClock struct {
	period time.Duration
	start  time.Time
}

func NewTickerClock(frameRate float64) *TickerClock {
	return &TickerClock{
		period: time.Duration(float64(time.Second) / frameRate),
	}
}

func (c *TickerClock) Start() {
	c.start = time.Now()
}

func (c *TickerClock) Elapsed() time.Duration {
	return time.Since(c.start)
}

func (c *TickerClock) Tick(ctx context.Context) error {
	timer := time.NewTimer(c.period)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
