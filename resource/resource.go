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

/*
Package resource contains a pool of named, countable resources that can
be reserved in all-or-nothing bundles.

A task that needs two CPUs and one disk at the same time would look
like this:

	pool, _ := NewPool([]Spec{{Name: "cpu", Capacity: 4}, {Name: "disk", Capacity: 1}})
	bundle, _ := pool.Bundle([]Demand{{Resource: "cpu", Units: 2}, {Resource: "disk", Units: 1}})

	for !pool.TryReserve(bundle) {
		time.Sleep(10 * time.Millisecond)
	}
	// ... work while holding the bundle ...
	_ = pool.Release(bundle)

[Pool.TryReserve] never blocks. It either commits every unit in the
bundle or none of them, so no caller can ever hold a strict subset of
what it asked for. Waiting between probes is left to the caller.

A [Ledger] can be attached to a Pool via [Pool.SetEvents] to record
every committed change and to replay the record afterwards.
*/
package resource

import "errors"

var (
	// ErrExceedsCapacity is returned from [Pool.Bundle] when a demand
	// could never be satisfied, even by an otherwise idle pool.
	ErrExceedsCapacity = errors.New("demand exceeds capacity")
	// ErrNotHeld is returned from [Pool.Release] if the bundle's units
	// are not currently reserved.
	ErrNotHeld = errors.New("bundle is not held")
	// ErrUnknownResource is returned when a demand names a resource
	// that the pool does not contain.
	ErrUnknownResource = errors.New("unknown resource")
)

// Spec declares a resource and its fixed capacity.
type Spec struct {
	Name     string
	Capacity int
}

// Demand is a number of units of a single resource.
type Demand struct {
	Resource string
	Units    int
}

// Level reports the state of a resource at some instant.
type Level struct {
	Name     string
	Capacity int
	Held     int
}

// Available returns the number of units that are not held.
func (l Level) Available() int {
	return l.Capacity - l.Held
}

// Normalize returns a copy of the demands with repeated resources
// merged into a single entry. The position of the first occurrence of
// each resource is preserved.
func Normalize(demands []Demand) []Demand {
	ret := make([]Demand, 0, len(demands))
	seen := make(map[string]int, len(demands))
	for _, d := range demands {
		if idx, dup := seen[d.Resource]; dup {
			ret[idx].Units += d.Units
			continue
		}
		seen[d.Resource] = len(ret)
		ret = append(ret, d)
	}
	return ret
}
