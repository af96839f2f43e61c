// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package sync2 provides a controllable recurring event loop used by chores.
package sync2

import (
	"context"
	"sync"
	"time"
)

// Cycle implements a controllable recurring event.
//
// The function passed to Run is never invoked concurrently with itself,
// which gives every chore a single-flight guarantee for free.
type Cycle struct {
	interval time.Duration

	ticker  *time.Ticker
	control chan interface{}

	stopsent bool
	runexec  bool

	stopping chan struct{}
	stopped  chan struct{}

	init sync.Once
}

type (
	cyclePause    struct{}
	cycleContinue struct{}
	cycleChange   struct {
		interval time.Duration
	}
	cycleTrigger struct {
		done chan struct{}
	}
)

// NewCycle creates a new cycle with the specified interval.
func NewCycle(interval time.Duration) *Cycle {
	cycle := &Cycle{}
	cycle.SetInterval(interval)
	return cycle
}

// SetInterval allows changing the interval before starting.
func (cycle *Cycle) SetInterval(interval time.Duration) {
	cycle.interval = interval
}

func (cycle *Cycle) initialize() {
	cycle.init.Do(func() {
		cycle.stopped = make(chan struct{})
		cycle.stopping = make(chan struct{})
		cycle.control = make(chan interface{})
	})
}

// Run runs the specified function with an interval.
//
// Every interval tick, it also runs the function. When context is cancelled
// it returns the context error. The function is run once before the first
// tick.
func (cycle *Cycle) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	cycle.initialize()
	defer close(cycle.stopped)

	cycle.runexec = true

	currentInterval := cycle.interval
	cycle.ticker = time.NewTicker(currentInterval)
	defer cycle.ticker.Stop()

	if err := fn(ctx); err != nil {
		return err
	}

	for {
		select {
		case message := <-cycle.control:
			switch message := message.(type) {
			case cycleChange:
				currentInterval = message.interval
				cycle.ticker.Stop()
				cycle.ticker = time.NewTicker(currentInterval)

			case cyclePause:
				cycle.ticker.Stop()
				// ensure we don't have ticks left
				select {
				case <-cycle.ticker.C:
				default:
				}

			case cycleContinue:
				cycle.ticker.Stop()
				cycle.ticker = time.NewTicker(currentInterval)

			case cycleTrigger:
				err := fn(ctx)
				if message.done != nil {
					close(message.done)
				}
				if err != nil {
					return err
				}
			}

		case <-cycle.stopping:
			return nil

		case <-ctx.Done():
			return ctx.Err()

		case <-cycle.ticker.C:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

// Close closes all resources associated with it.
//
// It must only be called after the Run loop has returned or alongside
// cancelling the Run context.
func (cycle *Cycle) Close() {
	cycle.Stop()

	if cycle.runexec {
		<-cycle.stopped
	}
}

// sendControl sends a control message.
func (cycle *Cycle) sendControl(message interface{}) {
	cycle.initialize()
	select {
	case cycle.control <- message:
	case <-cycle.stopping:
	case <-cycle.stopped:
	}
}

// Stop stops the cycle permanently.
func (cycle *Cycle) Stop() {
	cycle.initialize()
	if !cycle.stopsent {
		cycle.stopsent = true
		close(cycle.stopping)
	}
}

// ChangeInterval allows to change the ticker interval after it has started.
func (cycle *Cycle) ChangeInterval(interval time.Duration) {
	cycle.sendControl(cycleChange{interval})
}

// Pause pauses the cycle.
func (cycle *Cycle) Pause() {
	cycle.sendControl(cyclePause{})
}

// Restart restarts the ticker from 0.
func (cycle *Cycle) Restart() {
	cycle.sendControl(cycleContinue{})
}

// Trigger ensures that the loop is done at least once.
// If it's currently running it waits for the previous to complete and then runs.
func (cycle *Cycle) Trigger() {
	cycle.sendControl(cycleTrigger{})
}

// TriggerWait ensures that the loop is done at least once and waits for
// completion. If it's currently running it waits for the previous to complete
// and then runs.
func (cycle *Cycle) TriggerWait() {
	done := make(chan struct{})
	cycle.sendControl(cycleTrigger{done})
	select {
	case <-done:
	case <-cycle.stopped:
	}
}
