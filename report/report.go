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

// Package report renders the activity and results of a simulation as
// human-readable text.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cockroachdb/field-eng-contention/monitor"
	"github.com/cockroachdb/field-eng-contention/sim"
	"github.com/cockroachdb/field-eng-contention/task"
	log "github.com/sirupsen/logrus"
)

// monitorIndent lines up the phase groups under the first one.
const monitorIndent = "         "

// A Writer prints iteration events and monitor reports as they occur.
// Each event or report is written with a single call to the underlying
// writer, so that output from concurrent tasks is not interleaved.
type Writer struct {
	mu struct {
		sync.Mutex
		out io.Writer
	}
}

var _ sim.Observer = (*Writer)(nil)

// NewWriter constructs a Writer.
func NewWriter(out io.Writer) *Writer {
	w := &Writer{}
	w.mu.out = out
	return w
}

// OnIteration implements [sim.Observer]:
//
//	task: A (worker= 0, iter= 1, time= 52 msec)
func (w *Writer) OnIteration(evt task.Event) {
	w.write(fmt.Sprintf("task: %s (worker= %d, iter= %d, time= %d msec)\n",
		evt.Task, evt.Worker, evt.Iteration, evt.Elapsed.Milliseconds()))
}

// OnReport implements [sim.Observer]:
//
//	monitor: [WAIT] B
//	         [RUN] A
//	         [IDLE]
func (w *Writer) OnReport(report monitor.Report) {
	var sb strings.Builder
	for i, phase := range task.Phases {
		if i == 0 {
			sb.WriteString("monitor: ")
		} else {
			sb.WriteString(monitorIndent)
		}
		sb.WriteString("[" + phase.String() + "]")
		for _, name := range report.Names(phase) {
			sb.WriteString(" " + name)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	w.write(sb.String())
}

func (w *Writer) write(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.mu.out, s); err != nil {
		log.WithError(err).Warn("could not write report")
	}
}

// WriteSummary prints the final statistics of a run:
//
//	System Resources:
//	cpu: (maxAvail= 2, held= 0)
//
//	System Tasks:
//	[0] A (IDLE, runTime= 50 msec, idleTime= 0 msec):
//	       (worker= 0)
//	       cpu: (needed= 2, held= 0)
//	       (RUN: 3 times, WAIT: 40 msec)
//
//	Running time= 230 msec
func WriteSummary(out io.Writer, result *sim.Result) error {
	var sb strings.Builder
	sb.WriteString("System Resources:\n")
	for _, res := range result.Resources {
		fmt.Fprintf(&sb, "%s: (maxAvail= %d, held= %d)\n", res.Name, res.Capacity, res.Held)
	}
	sb.WriteString("\nSystem Tasks:\n")
	for i, t := range result.Tasks {
		fmt.Fprintf(&sb, "[%d] %s (%s, runTime= %d msec, idleTime= %d msec):\n",
			i, t.Name, t.Phase, t.Busy.Milliseconds(), t.Idle.Milliseconds())
		fmt.Fprintf(&sb, "       (worker= %d)\n", i)
		for _, d := range t.Demand {
			held := 0
			if t.Phase == task.Running {
				held = d.Units
			}
			fmt.Fprintf(&sb, "       %s: (needed= %d, held= %d)\n", d.Resource, d.Units, held)
		}
		fmt.Fprintf(&sb, "       (RUN: %d times, WAIT: %d msec)\n\n", t.Completed, t.Wait.Milliseconds())
	}
	fmt.Fprintf(&sb, "Running time= %d msec\n", result.Elapsed.Milliseconds())
	_, err := io.WriteString(out, sb.String())
	return err
}
