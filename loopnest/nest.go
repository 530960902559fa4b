/*
 *	Copyright 2024 The Accera Go Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package loopnest models the iteration space of a computation: loop-dimension
// identities (Index), their ranges, the computation run at the innermost point
// (Kernel) and the Schedule, an ordered sequence of indices supporting split,
// reorder and fusion.
//
// A Nest declares the logical loop dimensions; Schedules derived from it
// factor and order those dimensions without ever changing the iteration count.
// Target-specific decisions (vectorization, parallelization, caches) are
// layered on top by the plan package.
package loopnest

import (
	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Nest is an iteration space: the set of declared loop dimensions and the
// iteration logic run at every point of the space.
type Nest struct {
	name string
	id   uuid.UUID

	indices  []*Index
	declared map[*Index]IndexRange
	kernels  []*Kernel
	nextID   int
}

// New creates an empty iteration space.
func New(name string) *Nest {
	return &Nest{
		name:     name,
		id:       uuid.New(),
		declared: make(map[*Index]IndexRange),
	}
}

// Name returns the diagnostic name of the nest.
func (n *Nest) Name() string { return n.name }

// ID returns the unique id of the nest, used to name generated symbols.
func (n *Nest) ID() uuid.UUID { return n.id }

// Declare creates a new loop dimension with the given range. It panics on an
// invalid range: declaring the space wrong is a programming error, not an
// input condition.
func (n *Nest) Declare(name string, r IndexRange) *Index {
	if !r.Valid() {
		exceptions.Panicf("Nest(%q).Declare(%q, %s): range is empty or has non-positive increment", n.name, name, r)
	}
	ix := n.newIndex(name, nil)
	n.indices = append(n.indices, ix)
	n.declared[ix] = r
	return ix
}

// Use references an index declared by another nest, with this nest's own range
// for it. Schedules of the two nests then share that index identity, which is
// what makes them fusable. Redeclaring an index already ranged in this nest is
// an error: each index has exactly one active range per schedule.
func (n *Nest) Use(ix *Index, r IndexRange) error {
	if !r.Valid() {
		return errors.Errorf("Nest(%q).Use(%s): invalid range %s", n.name, ix, r)
	}
	if _, found := n.declared[ix]; found {
		return errors.Errorf("Nest(%q).Use(%s): index already has a range here, multiple declarations are forbidden", n.name, ix)
	}
	n.indices = append(n.indices, ix)
	n.declared[ix] = r
	return nil
}

// Indices returns the declared indices in declaration order.
func (n *Nest) Indices() []*Index {
	out := make([]*Index, len(n.indices))
	copy(out, n.indices)
	return out
}

// DeclaredRange returns the range an index was declared with in this nest.
func (n *Nest) DeclaredRange(ix *Index) (IndexRange, bool) {
	r, found := n.declared[ix]
	return r, found
}

// IterationLogic registers the computation run at the innermost point of the
// space. Multiple kernels run in registration order.
func (n *Nest) IterationLogic(k *Kernel) error {
	for _, acc := range append(append([]Access{}, k.Loads...), k.Stores...) {
		if acc.Array == nil {
			return errors.Errorf("Nest(%q).IterationLogic(%q): access with nil array", n.name, k.Name)
		}
		for _, term := range acc.Terms {
			if term.Dynamic {
				continue
			}
			if term.Index == nil {
				return errors.Errorf("Nest(%q).IterationLogic(%q): access to %s has a term with no index", n.name, k.Name, acc.Array)
			}
			if _, found := n.declared[term.Index]; !found {
				return errors.Errorf("Nest(%q).IterationLogic(%q): access to %s uses index %s not declared in this nest", n.name, k.Name, acc.Array, term.Index)
			}
		}
	}
	n.kernels = append(n.kernels, k)
	return nil
}

// Kernels returns the registered iteration logic in registration order.
func (n *Nest) Kernels() []*Kernel {
	out := make([]*Kernel, len(n.kernels))
	copy(out, n.kernels)
	return out
}

// Schedule creates a schedule over this nest with the declaration order as the
// initial loop order.
func (n *Nest) Schedule() *Schedule {
	s := &Schedule{
		nest:   n,
		order:  n.Indices(),
		ranges: make(map[*Index]IndexRange, len(n.declared)),
		attrs:  make(map[*Index]*LoopAttributes),
		splits: make(map[*Index]splitPair),
	}
	for ix, r := range n.declared {
		s.ranges[ix] = r
	}
	for _, k := range n.kernels {
		s.kernels = append(s.kernels, ScheduledKernel{Kernel: k, SelectorValue: -1})
	}
	return s
}

func (n *Nest) newIndex(name string, parent *Index) *Index {
	ix := &Index{name: name, id: n.nextID, nest: n, parent: parent}
	n.nextID++
	return ix
}
