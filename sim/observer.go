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

package sim

import (
	"github.com/cockroachdb/field-eng-contention/monitor"
	"github.com/cockroachdb/field-eng-contention/task"
)

// An Observer receives the activity of a run. OnIteration is called from
// every task's goroutine and OnReport from the monitor's goroutine, so
// implementations must be safe for concurrent use.
type Observer interface {
	OnIteration(evt task.Event)
	OnReport(report monitor.Report)
}

// Observers fans out to each non-nil element, in order.
type Observers []Observer

var _ Observer = Observers(nil)

// OnIteration implements [Observer].
func (o Observers) OnIteration(evt task.Event) {
	for _, obs := range o {
		if obs != nil {
			obs.OnIteration(evt)
		}
	}
}

// OnReport implements [Observer].
func (o Observers) OnReport(report monitor.Report) {
	for _, obs := range o {
		if obs != nil {
			obs.OnReport(report)
		}
	}
}
