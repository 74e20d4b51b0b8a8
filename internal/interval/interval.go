// Package interval runs a cycle function on wall-clock-aligned ticks.
// Aligning each tick to the next multiple of the interval within the minute
// (":00/:20/:40" for 20s) keeps the cadence independent of how long each
// cycle takes, so slow cycles cannot accumulate drift.
package interval

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// UntilNextTick returns the delay from now until the next aligned tick:
// the smallest multiple of intervalSeconds, within now's minute, at or after
// now's fractional-second position. intervalSeconds must evenly divide 60;
// that is validated at startup by config, not here.
func UntilNextTick(intervalSeconds int, now time.Time) time.Duration {
	minute := now.Truncate(time.Minute)
	position := now.Sub(minute).Seconds()
	ticks := math.Ceil(position / float64(intervalSeconds))
	next := minute.Add(time.Duration(ticks) * time.Duration(intervalSeconds) * time.Second)
	return next.Sub(now)
}

// Loop owns a single in-flight cycle at a time: it waits for the next
// aligned tick, runs the cycle to completion, then re-arms. A panic inside
// the cycle is logged and swallowed unless Strict is set, in which case it
// is re-raised so tests fail fast.
type Loop struct {
	IntervalSeconds int
	Cycle           func(ctx context.Context) error
	Strict          bool
	Logger          zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Start launches the loop goroutine. Calling Start on a running loop is a
// no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.wg.Add(1)
	go l.run(ctx)
}

// Stop cancels the pending timer and waits for any in-flight cycle to reach
// its natural exit point.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopCh)
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()

	for {
		timer := time.NewTimer(UntilNextTick(l.IntervalSeconds, time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-l.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := l.runCycle(ctx); err != nil {
			l.Logger.Error().Err(err).Msg("cycle failed, retrying next tick")
		}
	}
}

func (l *Loop) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if l.Strict {
				panic(r)
			}
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return l.Cycle(ctx)
}
