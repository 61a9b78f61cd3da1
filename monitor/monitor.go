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

// Package monitor periodically reports the phase of every task.
package monitor

import (
	"errors"
	"time"

	"github.com/cockroachdb/field-eng-contention/task"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	log "github.com/sirupsen/logrus"
)

// Report groups task names by phase. Names within each group appear in
// the order that the tasks were given to the Monitor.
type Report struct {
	Elapsed time.Duration // Time since the start of the run.
	Waiting []string
	Running []string
	Idle    []string
}

// Names returns the tasks that were observed in the given phase.
func (r Report) Names(phase task.Phase) []string {
	switch phase {
	case task.Waiting:
		return r.Waiting
	case task.Running:
		return r.Running
	case task.Idle:
		return r.Idle
	default:
		return nil
	}
}

// A Monitor samples a fixed set of tasks at a fixed cadence. It never
// modifies the tasks.
type Monitor struct {
	Interval time.Duration
	Tasks    []*task.Task

	// OnReport, if non-nil, receives each report.
	OnReport func(Report)
	// Start is the reference time for [Report.Elapsed]. If zero, the
	// time at which Run is called is used.
	Start time.Time
}

// Run samples the tasks once per interval until every task is done or
// the context begins to stop. A report is not emitted for a sample in
// which all tasks are done.
func (m *Monitor) Run(ctx *stopper.Context) error {
	if m.Interval <= 0 {
		return errors.New("monitor interval must be positive")
	}
	start := m.Start
	if start.IsZero() {
		start = time.Now()
	}
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Stopping():
			return nil
		case <-ctx.Done():
			return nil
		}

		report, done := m.Sample()
		if done {
			log.Debug("monitor: all tasks done")
			return nil
		}
		// The coordinator may have asked us to stop while sampling.
		if ctx.IsStopping() {
			return nil
		}
		report.Elapsed = time.Since(start)
		if m.OnReport != nil {
			m.OnReport(report)
		}
	}
}

// Sample takes a snapshot of the phase of every task. It returns true
// if every task has completed all of its iterations.
func (m *Monitor) Sample() (Report, bool) {
	var report Report
	done := true
	for _, t := range m.Tasks {
		state := t.State()
		if !state.Done() {
			done = false
		}
		switch state.Phase {
		case task.Waiting:
			report.Waiting = append(report.Waiting, t.Name())
		case task.Running:
			report.Running = append(report.Running, t.Name())
		case task.Idle:
			report.Idle = append(report.Idle, t.Name())
		}
	}
	return report, done
}
