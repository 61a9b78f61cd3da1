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
	"strconv"
	"strings"
)

type item struct {
	idx   int // Index into the pool's slots.
	name  string
	units int
}

// A Bundle is the set of units that must be held simultaneously. A
// Bundle is created by [Pool.Bundle] and may only be used with the
// Pool that created it. The zero value is an empty bundle, which is
// always reservable.
type Bundle struct {
	pool  *Pool
	items []item
}

// Demands returns the bundle's contents in the pool's declaration
// order.
func (b Bundle) Demands() []Demand {
	ret := make([]Demand, len(b.items))
	for i, it := range b.items {
		ret[i] = Demand{Resource: it.name, Units: it.units}
	}
	return ret
}

// Len returns the number of distinct resources in the bundle.
func (b Bundle) Len() int { return len(b.items) }

// Units returns the number of units of the named resource in the
// bundle, or zero if the resource is not part of it.
func (b Bundle) Units(name string) int {
	for _, it := range b.items {
		if it.name == name {
			return it.units
		}
	}
	return 0
}

func (b Bundle) String() string {
	var sb strings.Builder
	for i, it := range b.items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(it.name)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(it.units))
	}
	return sb.String()
}
