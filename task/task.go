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

// Package task drives simulated tasks through repeated
// wait, run and idle cycles against a shared [resource.Pool].
package task

import (
	"time"

	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/cockroachdb/field-eng-powertools/notify"
)

// State is an immutable snapshot of a task's progress. A new State is
// published on every phase change, so the phase, counters and wait
// time in a snapshot are always mutually consistent.
type State struct {
	Phase     Phase
	Completed int           // Iterations finished so far.
	Target    int           // Iterations to be run in total.
	Wait      time.Duration // Cumulative time spent waiting.
}

// Done returns true once every iteration has completed.
func (s State) Done() bool {
	return s.Completed >= s.Target
}

// A Task is the static description of a task plus its published State.
// The State is written only by the task's [Worker] and may be read
// concurrently by anyone.
type Task struct {
	name   string
	busy   time.Duration
	idle   time.Duration
	bundle resource.Bundle
	state  notify.Var[State]
}

// New constructs a Task which will run the given number of iterations.
// The initial phase is [Waiting].
func New(name string, busy, idle time.Duration, bundle resource.Bundle, iterations int) *Task {
	t := &Task{
		name:   name,
		busy:   busy,
		idle:   idle,
		bundle: bundle,
	}
	t.state.Set(State{Phase: Waiting, Target: iterations})
	return t
}

// Bundle returns the resources the task holds while running.
func (t *Task) Bundle() resource.Bundle { return t.bundle }

// Busy returns the time spent running in each iteration.
func (t *Task) Busy() time.Duration { return t.busy }

// Idle returns the time spent idling in each iteration.
func (t *Task) Idle() time.Duration { return t.idle }

// Name returns the task's name.
func (t *Task) Name() string { return t.name }

// State returns the most recently published State.
func (t *Task) State() State {
	s, _ := t.state.Get()
	return s
}

// Watch returns the current State and a channel that will be closed
// when a newer State is published.
func (t *Task) Watch() (State, <-chan struct{}) {
	return t.state.Get()
}

// publish is only called by the task's Worker.
func (t *Task) publish(fn func(s *State)) State {
	s, _ := t.state.Get()
	fn(&s)
	t.state.Set(s)
	return s
}
