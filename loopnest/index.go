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

package loopnest

import (
	"fmt"
)

// Index is the identity of one logical loop dimension. It is not a value: two
// indices are equal iff they are the same handle, never by name. The name is
// kept for diagnostics only.
//
// Indices are created by Nest.Declare, or by Schedule.Split, which produces an
// outer and an inner child and retires the parent from scheduling (the parent
// handle stays valid for range queries).
type Index struct {
	name string
	id   int
	nest *Nest

	parent *Index
}

// Name returns the diagnostic name of the index.
func (ix *Index) Name() string { return ix.name }

// Nest returns the iteration space the index belongs to.
func (ix *Index) Nest() *Nest { return ix.nest }

// Parent returns the index this one was split from, or nil. Which children a
// split produced is per-schedule state: ask Schedule.Children.
func (ix *Index) Parent() *Index { return ix.parent }

func (ix *Index) String() string {
	return fmt.Sprintf("%s#%d", ix.name, ix.id)
}

// IndexRange is the half-open numeric range [Begin, End) with the given
// increment, associated with an Index. Each Index has exactly one active range
// per Schedule.
type IndexRange struct {
	Begin, End, Increment int64
}

// MakeRange returns the unit-increment range [begin, end).
func MakeRange(begin, end int64) IndexRange {
	return IndexRange{Begin: begin, End: end, Increment: 1}
}

// MakeRangeStep returns the range [begin, end) with the given increment.
func MakeRangeStep(begin, end, increment int64) IndexRange {
	return IndexRange{Begin: begin, End: end, Increment: increment}
}

// Valid reports whether the range is non-empty with a positive increment.
func (r IndexRange) Valid() bool {
	return r.Increment > 0 && r.End > r.Begin
}

// Extent returns End-Begin, the span of values.
func (r IndexRange) Extent() int64 { return r.End - r.Begin }

// Len returns the number of iterations: ceil(Extent/Increment).
func (r IndexRange) Len() int64 {
	if !r.Valid() {
		return 0
	}
	return (r.Extent() + r.Increment - 1) / r.Increment
}

func (r IndexRange) String() string {
	if r.Increment == 1 {
		return fmt.Sprintf("[%d, %d)", r.Begin, r.End)
	}
	return fmt.Sprintf("[%d, %d:%d)", r.Begin, r.End, r.Increment)
}
