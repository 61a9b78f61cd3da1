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

// Package sim wires a configuration into a live resource pool and a set
// of task workers, runs them alongside a monitor and collects the final
// statistics.
//
// Typical use:
//
//	cfg, err := config.Load("input.txt")
//	...
//	s, err := sim.New(cfg, sim.Options{Observer: report.NewWriter(os.Stdout)})
//	if err != nil {
//	    return err // A configuration problem. Nothing was started.
//	}
//	result, err := s.Run(ctx)
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/field-eng-contention/config"
	"github.com/cockroachdb/field-eng-contention/monitor"
	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/cockroachdb/field-eng-contention/retry"
	"github.com/cockroachdb/field-eng-contention/task"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyRun is returned if [Simulation.Run] is called more than
	// once.
	ErrAlreadyRun = errors.New("simulation has already been run")
	// ErrLeak is returned if any resource is still held once every
	// worker has exited.
	ErrLeak = errors.New("resources still held after run")
)

// Options customizes a [Simulation]. The zero value is usable.
type Options struct {
	// Events receives pool activity, for example from a
	// [resource.Ledger] or a metrics exporter.
	Events *resource.Events
	// Observer receives iteration events and monitor reports.
	Observer Observer
	// Work replaces the default busy sleep.
	Work task.Work
}

// A Simulation is a single run of a configuration.
type Simulation struct {
	backoff  func() retry.Backoff
	interval time.Duration
	observer Observer
	pool     *resource.Pool
	ran      atomic.Bool
	tasks    []*task.Task
	work     task.Work
}

// New validates the configuration and constructs the pool and tasks.
// Any configuration problem is returned as an error wrapping
// [config.ErrInvalid]; no goroutines are started by New.
func New(cfg *config.Simulation, opts Options) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backoff, err := cfg.Backoff.Strategy()
	if err != nil {
		return nil, err
	}
	pool, err := resource.NewPool(cfg.Specs())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	pool.SetEvents(opts.Events)

	s := &Simulation{
		backoff:  backoff,
		interval: cfg.MonitorInterval,
		observer: opts.Observer,
		pool:     pool,
		work:     opts.Work,
	}
	for _, t := range cfg.Tasks {
		bundle, err := pool.Bundle(t.Demand)
		if err != nil {
			return nil, fmt.Errorf("%w: task %s: %v", config.ErrInvalid, t.Name, err)
		}
		s.tasks = append(s.tasks, task.New(t.Name, t.Busy, t.Idle, bundle, cfg.Iterations))
	}
	return s, nil
}

// Pool returns the resource pool shared by the tasks.
func (s *Simulation) Pool() *resource.Pool { return s.pool }

// Tasks returns the tasks, in configuration order.
func (s *Simulation) Tasks() []*task.Task { return s.tasks }

// Run starts one worker per task and the monitor. It returns after
// every worker has exited and the monitor has been stopped.
//
// Workers are not canceled by Run. If the context is canceled, waiting
// workers give up and the error is returned along with the statistics
// gathered so far. A worker's failure does not affect other workers.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	start := time.Now()
	log.WithFields(log.Fields{
		"tasks":    len(s.tasks),
		"interval": s.interval,
	}).Info("starting simulation")

	var onIteration func(task.Event)
	var onReport func(monitor.Report)
	if s.observer != nil {
		onIteration = s.observer.OnIteration
		onReport = s.observer.OnReport
	}

	// The monitor runs under its own stopper so that it can be stopped
	// without disturbing the workers.
	monitorCtx := stopper.WithContext(ctx)
	mon := &monitor.Monitor{
		Interval: s.interval,
		Tasks:    s.tasks,
		OnReport: onReport,
		Start:    start,
	}
	monitorCtx.Go(func(ctx *stopper.Context) error { return mon.Run(ctx) })

	var eg errgroup.Group
	errs := make([]error, len(s.tasks))
	for i, t := range s.tasks {
		w := &task.Worker{
			ID:          i,
			Task:        t,
			Pool:        s.pool,
			Backoff:     s.backoff,
			OnIteration: onIteration,
			Start:       start,
			Work:        s.work,
		}
		eg.Go(func() error {
			errs[i] = w.Run(ctx)
			if errs[i] != nil {
				log.WithError(errs[i]).WithField("task", t.Name()).Warn("task stopped early")
			}
			return errs[i]
		})
	}
	// Wait keeps only the first failure, so every worker's error is
	// collected from errs instead.
	var err error
	if eg.Wait() != nil {
		err = errors.Join(errs...)
	}

	monitorCtx.Stop(0)
	monitorErr := monitorCtx.Wait()
	if errors.Is(monitorErr, context.Canceled) {
		monitorErr = nil
	}

	result := s.result(time.Since(start))
	if monitorErr != nil {
		err = errors.Join(err, fmt.Errorf("monitor: %w", monitorErr))
	}
	if leaks := result.Leaks(); len(leaks) > 0 {
		err = errors.Join(err, fmt.Errorf("%w: %v", ErrLeak, leaks))
	}
	log.WithFields(log.Fields{
		"completed": result.Completed(),
		"elapsed":   result.Elapsed,
	}).Info("simulation finished")
	return result, err
}

func (s *Simulation) result(elapsed time.Duration) *Result {
	ret := &Result{Elapsed: elapsed}
	for _, level := range s.pool.Levels() {
		ret.Resources = append(ret.Resources, ResourceStat(level))
	}
	for _, t := range s.tasks {
		state := t.State()
		ret.Tasks = append(ret.Tasks, TaskStat{
			Name:      t.Name(),
			Busy:      t.Busy(),
			Idle:      t.Idle(),
			Demand:    t.Bundle().Demands(),
			Phase:     state.Phase,
			Completed: state.Completed,
			Target:    state.Target,
			Wait:      state.Wait,
		})
	}
	return ret
}
