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
	"fmt"
	"time"

	"github.com/cockroachdb/field-eng-contention/resource"
	"github.com/cockroachdb/field-eng-contention/task"
)

// ResourceStat is the state of a resource at the end of a run.
type ResourceStat struct {
	Name     string
	Capacity int
	Held     int // Zero after a successful run.
}

func (r ResourceStat) String() string {
	return fmt.Sprintf("%s(held=%d)", r.Name, r.Held)
}

// TaskStat is the state of a task at the end of a run.
type TaskStat struct {
	Name      string
	Busy      time.Duration
	Idle      time.Duration
	Demand    []resource.Demand
	Phase     task.Phase
	Completed int
	Target    int
	Wait      time.Duration // Cumulative.
}

// Result holds the final statistics of a run. Resources and Tasks are
// in configuration order.
type Result struct {
	Resources []ResourceStat
	Tasks     []TaskStat
	Elapsed   time.Duration
}

// Completed returns the number of iterations completed by all tasks.
func (r *Result) Completed() int {
	ret := 0
	for _, t := range r.Tasks {
		ret += t.Completed
	}
	return ret
}

// Leaks returns the resources that are still held.
func (r *Result) Leaks() []ResourceStat {
	var ret []ResourceStat
	for _, res := range r.Resources {
		if res.Held != 0 {
			ret = append(ret, res)
		}
	}
	return ret
}
