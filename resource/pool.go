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
	"sort"
	"sync"
)

type slot struct {
	name     string
	capacity int
	held     int
}

func (s *slot) level() Level {
	return Level{Name: s.name, Capacity: s.capacity, Held: s.held}
}

// A Pool tracks the number of units held for each of a fixed set of
// resources. All held counters share a single lock, which is only
// taken for the duration of a check-and-commit or a decrement.
//
// A Pool is internally synchronized and is safe for concurrent use. A
// Pool should not be copied after it has been created.
type Pool struct {
	events *Events        // Injectable callbacks.
	index  map[string]int // Immutable after construction.

	mu struct {
		sync.Mutex
		slots []slot
	}
}

// NewPool constructs a Pool containing the given resources, in the
// order given. Each resource starts with no units held.
func NewPool(specs []Spec) (*Pool, error) {
	p := &Pool{index: make(map[string]int, len(specs))}
	p.mu.slots = make([]slot, 0, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("resource %d: empty name", len(p.mu.slots))
		}
		if spec.Capacity <= 0 {
			return nil, fmt.Errorf("resource %s: capacity must be positive, got %d", spec.Name, spec.Capacity)
		}
		if _, dup := p.index[spec.Name]; dup {
			return nil, fmt.Errorf("resource %s: declared more than once", spec.Name)
		}
		p.index[spec.Name] = len(p.mu.slots)
		p.mu.slots = append(p.mu.slots, slot{name: spec.Name, capacity: spec.Capacity})
	}
	return p, nil
}

// Bundle resolves the demands against the pool. Repeated resources are
// merged. The returned Bundle is always checked and committed in the
// pool's declaration order.
//
// An error is returned if a resource is unknown, if a unit count is
// not positive, or if a demand exceeds the resource's capacity.
func (p *Pool) Bundle(demands []Demand) (Bundle, error) {
	merged := Normalize(demands)
	items := make([]item, 0, len(merged))
	for _, d := range merged {
		idx, ok := p.index[d.Resource]
		if !ok {
			return Bundle{}, fmt.Errorf("%w: %q", ErrUnknownResource, d.Resource)
		}
		if d.Units <= 0 {
			return Bundle{}, fmt.Errorf("resource %s: units must be positive, got %d", d.Resource, d.Units)
		}
		// Capacity is immutable, so it's safe to read without the lock.
		if capacity := p.mu.slots[idx].capacity; d.Units > capacity {
			return Bundle{}, fmt.Errorf("%w: %s needs %d of %d", ErrExceedsCapacity, d.Resource, d.Units, capacity)
		}
		items = append(items, item{idx: idx, name: d.Resource, units: d.Units})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].idx < items[j].idx })
	return Bundle{pool: p, items: items}, nil
}

// Level returns the current state of the named resource.
func (p *Pool) Level(name string) (Level, bool) {
	idx, ok := p.index[name]
	if !ok {
		return Level{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mu.slots[idx].level(), true
}

// Levels returns the state of every resource, in declaration order.
func (p *Pool) Levels() []Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	ret := make([]Level, len(p.mu.slots))
	for i := range p.mu.slots {
		ret[i] = p.mu.slots[i].level()
	}
	return ret
}

// Release returns the bundle's units to the pool. Every resource in
// the bundle must have at least the bundle's units held, otherwise
// nothing is changed and [ErrNotHeld] is returned.
func (p *Pool) Release(b Bundle) error {
	p.checkOwner(b)
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, it := range b.items {
		if s := &p.mu.slots[it.idx]; s.held < it.units {
			return fmt.Errorf("%w: %s has %d held, releasing %d", ErrNotHeld, s.name, s.held, it.units)
		}
	}
	for _, it := range b.items {
		p.mu.slots[it.idx].held -= it.units
	}
	p.events.doChange(p.changeLocked(Released, b))
	return nil
}

// SetEvents allows callbacks to be injected into the Pool. This method
// should be called before the Pool is shared.
func (p *Pool) SetEvents(events *Events) {
	p.events = events
}

// TryReserve attempts to reserve every unit in the bundle. If any
// resource lacks room, nothing is reserved and false is returned. This
// method never blocks waiting for units to become available.
func (p *Pool) TryReserve(b Bundle) bool {
	p.checkOwner(b)
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, it := range b.items {
		if s := &p.mu.slots[it.idx]; it.units > s.capacity-s.held {
			p.events.doReject(b, s.level())
			return false
		}
	}
	for _, it := range b.items {
		p.mu.slots[it.idx].held += it.units
	}
	p.events.doChange(p.changeLocked(Reserved, b))
	return true
}

func (p *Pool) changeLocked(kind ChangeKind, b Bundle) Change {
	if p.events == nil {
		return Change{}
	}
	levels := make([]Level, len(b.items))
	for i, it := range b.items {
		levels[i] = p.mu.slots[it.idx].level()
	}
	return Change{Kind: kind, Bundle: b, Levels: levels}
}

func (p *Pool) checkOwner(b Bundle) {
	if b.pool != p && len(b.items) > 0 {
		panic("resource: bundle belongs to a different pool")
	}
}
