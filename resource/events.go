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

package resource

// ChangeKind distinguishes reservations from releases.
type ChangeKind int

// Kinds of committed changes.
const (
	Reserved ChangeKind = iota + 1
	Released
)

func (k ChangeKind) String() string {
	switch k {
	case Reserved:
		return "reserved"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// A Change describes a committed reservation or release.
type Change struct {
	Kind   ChangeKind
	Bundle Bundle
	// Levels holds the state of each resource in the bundle immediately
	// after the change was committed, in bundle order.
	Levels []Level
}

// Events provides a [Pool] with optional callbacks to monitor its
// activity. The callbacks are invoked while the pool's lock is held, in
// commit order. They must return promptly and must not call back into
// the Pool.
//
// See [Pool.SetEvents].
type Events struct {
	OnChange func(change Change)
	// OnReject is called when a reservation attempt fails. The level is
	// that of the first resource, in bundle order, that lacked room.
	OnReject func(bundle Bundle, short Level)
}

func (e *Events) doChange(change Change) {
	if e != nil && e.OnChange != nil {
		e.OnChange(change)
	}
}

func (e *Events) doReject(bundle Bundle, short Level) {
	if e != nil && e.OnReject != nil {
		e.OnReject(bundle, short)
	}
}

// Chain returns Events that invoke each of the given callbacks in order.
// Nil entries are skipped.
func Chain(events ...*Events) *Events {
	return &Events{
		OnChange: func(change Change) {
			for _, e := range events {
				e.doChange(change)
			}
		},
		OnReject: func(bundle Bundle, short Level) {
			for _, e := range events {
				e.doReject(bundle, short)
			}
		},
	}
}
