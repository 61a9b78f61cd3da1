// Copyright 2026 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/cockroachdb/field-eng-contention/retry"
	log "github.com/sirupsen/logrus"
)

// DefaultBackoff is the delay between failed reservation attempts.
const DefaultBackoff = 10 * time.Millisecond

// Event describes a completed iteration.
type Event struct {
	Task      string
	Worker    int
	Iteration int           // One-based.
	Wait      time.Duration // Time spent waiting in this iteration.
	Elapsed   time.Duration // Wall-clock time since the start of the run.
}

// Work is performed while a task holds its bundle.
type Work func(ctx context.Context, t *Task) error

// SleepBusy is the default [Work]. It sleeps for the task's busy
// duration.
func SleepBusy(ctx context.Context, t *Task) error {
	return Sleep(ctx, t.Busy())
}

// A Worker drives a single [Task] through its iterations. A Worker is
// the only writer of its Task's State.
type Worker struct {
	ID   int
	Task *Task
	Pool *resource.Pool

	// Backoff returns a fresh strategy for each acquisition. If nil,
	// failed attempts are retried every [DefaultBackoff].
	Backoff func() retry.Backoff
	// OnIteration, if non-nil, is called after each completed iteration.
	// It is called without holding any resources.
	OnIteration func(Event)
	// Start is the reference time for [Event.Elapsed]. If zero, the
	// time at which Run is called is used.
	Start time.Time
	// Work is performed while the bundle is held. If nil, [SleepBusy]
	// is used.
	Work Work
}

// Run executes the remaining iterations of the task. Run returns early
// only if the context is canceled or the Work fails; in either case the
// bundle is never left reserved.
func (w *Worker) Run(ctx context.Context) error {
	start := w.Start
	if start.IsZero() {
		start = time.Now()
	}
	t := w.Task
	logger := log.WithFields(log.Fields{"task": t.name, "worker": w.ID})

	for iteration := t.State().Completed + 1; iteration <= t.State().Target; iteration++ {
		t.publish(func(s *State) { s.Phase = Waiting })
		waitStart := time.Now()
		attempts, err := retry.Retry(ctx, w.backoff(), func(_ context.Context, attempt int) error {
			if w.Pool.TryReserve(t.bundle) {
				return nil
			}
			if logger.Logger.IsLevelEnabled(log.TraceLevel) {
				logger.WithField("attempt", attempt).Trace("resources unavailable")
			}
			return retry.ErrRetriable
		})
		if err != nil {
			return fmt.Errorf("task %s: waiting for %s: %w", t.name, t.bundle, err)
		}
		wait := time.Since(waitStart)
		t.publish(func(s *State) {
			s.Phase = Running
			s.Wait += wait
		})

		if err := w.hold(ctx); err != nil {
			// hold has released the bundle.
			t.publish(func(s *State) { s.Phase = Idle })
			return fmt.Errorf("task %s: iteration %d: %w", t.name, iteration, err)
		}

		t.publish(func(s *State) {
			s.Completed++
			s.Phase = Idle
		})
		evt := Event{
			Task:      t.name,
			Worker:    w.ID,
			Iteration: iteration,
			Wait:      wait,
			Elapsed:   time.Since(start),
		}
		logger.WithFields(log.Fields{
			"iteration": iteration,
			"attempts":  attempts,
			"wait":      wait,
		}).Debug("iteration complete")
		if w.OnIteration != nil {
			w.OnIteration(evt)
		}

		if err := Sleep(ctx, t.idle); err != nil {
			if t.State().Done() {
				return nil
			}
			return fmt.Errorf("task %s: idling: %w", t.name, err)
		}
	}
	return nil
}

func (w *Worker) backoff() retry.Backoff {
	if w.Backoff != nil {
		return w.Backoff()
	}
	return retry.Constant(DefaultBackoff)
}

// hold performs the work and then releases the bundle, regardless of
// how the work exits.
func (w *Worker) hold(ctx context.Context) (err error) {
	work := w.Work
	if work == nil {
		work = SleepBusy
	}
	defer func() {
		switch x := recover().(type) {
		case nil:
		case error:
			err = fmt.Errorf("panic while running: %w", x)
		default:
			err = fmt.Errorf("panic while running: %v", x)
		}
		if releaseErr := w.Pool.Release(w.Task.bundle); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()
	return work(ctx, w.Task)
}

// Sleep pauses for the duration or until the context is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
