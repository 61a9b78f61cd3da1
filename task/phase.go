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

import "fmt"

// Phase is a task's current lifecycle state.
type Phase int

// A task cycles through these phases in order.
const (
	Waiting Phase = iota
	Running
	Idle
)

// Phases lists every Phase in cycle order.
var Phases = [...]Phase{Waiting, Running, Idle}

// Next returns the phase that follows p in the cycle.
func (p Phase) Next() Phase {
	return Phases[(int(p)+1)%len(Phases)]
}

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "WAIT"
	case Running:
		return "RUN"
	case Idle:
		return "IDLE"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
