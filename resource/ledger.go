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

import (
	"fmt"
	"sync"
)

// A Ledger records every change committed by a [Pool] so that the
// history can be checked after the fact.
//
// A Ledger is internally synchronized and is safe for concurrent use.
type Ledger struct {
	mu struct {
		sync.Mutex
		changes []Change
		rejects int
	}
}

// NewLedger constructs an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Events returns callbacks to be passed to [Pool.SetEvents].
func (l *Ledger) Events() *Events {
	return &Events{
		OnChange: func(change Change) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.mu.changes = append(l.mu.changes, change)
		},
		OnReject: func(Bundle, Level) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.mu.rejects++
		},
	}
}

// Changes returns a copy of the recorded changes, in commit order.
func (l *Ledger) Changes() []Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Change(nil), l.mu.changes...)
}

// Rejects returns the number of failed reservation attempts.
func (l *Ledger) Rejects() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mu.rejects
}

// Tally summarizes the replayed history of a single resource.
type Tally struct {
	Name     string
	Capacity int
	Reserved int // Total units ever reserved.
	Released int // Total units ever released.
	Peak     int // Highest held count observed.
	Final    int // Held count after the last change.
}

// Replay re-applies the recorded changes, starting from an empty pool,
// and returns a per-resource tally in order of first appearance. An
// error is returned if any replayed instant has a held count that is
// negative or above capacity, or if the replayed count disagrees with
// what the pool reported when the change was committed.
func (l *Ledger) Replay() ([]Tally, error) {
	changes := l.Changes()

	var order []string
	tallies := make(map[string]*Tally)
	for i, change := range changes {
		for j, d := range change.Bundle.Demands() {
			t, ok := tallies[d.Resource]
			if !ok {
				t = &Tally{Name: d.Resource, Capacity: change.Levels[j].Capacity}
				tallies[d.Resource] = t
				order = append(order, d.Resource)
			}
			// Bounds are checked before applying the change, so that very
			// large capacities cannot overflow.
			switch change.Kind {
			case Reserved:
				if d.Units > t.Capacity-t.Final {
					return nil, fmt.Errorf("change %d: %s cannot reserve %d with %d of %d held",
						i, d.Resource, d.Units, t.Final, t.Capacity)
				}
				t.Final += d.Units
				t.Reserved += d.Units
			case Released:
				if d.Units > t.Final {
					return nil, fmt.Errorf("change %d: %s cannot release %d with %d held",
						i, d.Resource, d.Units, t.Final)
				}
				t.Final -= d.Units
				t.Released += d.Units
			default:
				return nil, fmt.Errorf("change %d: unexpected kind %d", i, change.Kind)
			}
			if t.Final > t.Peak {
				t.Peak = t.Final
			}
			if reported := change.Levels[j].Held; reported != t.Final {
				return nil, fmt.Errorf("change %d: %s replayed as %d, pool reported %d",
					i, d.Resource, t.Final, reported)
			}
		}
	}

	ret := make([]Tally, len(order))
	for i, name := range order {
		ret[i] = *tallies[name]
	}
	return ret, nil
}
