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
	"github.com/pkg/errors"

	"github.com/Arslan-e-Mustafa/Accera/types/xslices"
)

var (
	// ErrInvalidSplit is returned for a split with a non-positive factor or on
	// an index that is not (or no longer) schedulable.
	ErrInvalidSplit = errors.New("invalid split")

	// ErrInvalidOrder is returned when a reorder is not a permutation of the
	// schedule's current indices, or when fused schedules share no index.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrFusionRangeMismatch is returned when two schedules being fused give
	// different ranges to a shared index. The caller must fix the ranges and
	// retry; truncation or padding is never inferred.
	ErrFusionRangeMismatch = errors.New("fusion range mismatch")
)

// ParallelizationPolicy selects how parallel iterations are partitioned over
// threads.
type ParallelizationPolicy int

const (
	// PolicyStatic partitions iterations evenly upfront.
	PolicyStatic ParallelizationPolicy = iota
	// PolicyDynamic hands iterations to threads on demand (work stealing).
	PolicyDynamic
)

func (p ParallelizationPolicy) String() string {
	switch p {
	case PolicyStatic:
		return "static"
	case PolicyDynamic:
		return "dynamic"
	}
	return "unknown"
}

// VectorizationInfo describes how an innermost loop is vectorized.
type VectorizationInfo struct {
	// VectorBytes is the width of the vector registers in bytes.
	VectorBytes int
	// VectorUnitCount is the number of vector registers available.
	VectorUnitCount int
	// UnrollOnly applies the unrolling without selecting vector instructions.
	UnrollOnly bool
}

// ParallelizationInfo describes how a loop (or a contiguous run of loops) is
// distributed over threads.
type ParallelizationInfo struct {
	NumThreads int64
	Policy     ParallelizationPolicy
}

// LoopAttributes is the typed side table entry attached to a scheduled index.
// It is written only through the Schedule setters, which is the only write
// channel the plan layer has into a schedule.
type LoopAttributes struct {
	Vectorization   *VectorizationInfo
	Parallelization *ParallelizationInfo
}

// ScheduledKernel is a kernel with the fusion guard it runs under.
// SelectorValue is -1 when unguarded, otherwise the value of the schedule's
// selector index for which the kernel runs.
type ScheduledKernel struct {
	Kernel        *Kernel
	SelectorValue int
}

// Schedule is an ordered sequence of loop indices over one or more fused
// iteration spaces. It is mutable (split/reorder/fuse) until lowering begins,
// at which point it freezes.
type Schedule struct {
	nest     *Nest
	order    []*Index
	ranges   map[*Index]IndexRange
	attrs    map[*Index]*LoopAttributes
	splits   map[*Index]splitPair
	kernels  []ScheduledKernel
	selector *Index
	frozen   bool
}

type splitPair struct {
	outer, inner *Index
}

// Nest returns the primary iteration space of the schedule.
func (s *Schedule) Nest() *Nest { return s.nest }

// Order returns a copy of the current loop order, outermost first.
func (s *Schedule) Order() []*Index { return xslices.Copy(s.order) }

// Position returns the position of the index in the current order, or -1 if
// the index is not schedulable here (foreign, split, or never declared).
func (s *Schedule) Position(ix *Index) int {
	return xslices.IndexOf(s.order, ix)
}

// Range returns the active range of an index. Split parents keep their range
// here even though they are no longer schedulable.
func (s *Schedule) Range(ix *Index) (IndexRange, bool) {
	r, found := s.ranges[ix]
	return r, found
}

// Kernels returns the scheduled kernels in execution order.
func (s *Schedule) Kernels() []ScheduledKernel {
	out := make([]ScheduledKernel, len(s.kernels))
	copy(out, s.kernels)
	return out
}

// Selector returns the fusion selector index, or nil for unfused schedules.
func (s *Schedule) Selector() *Index { return s.selector }

// Frozen reports whether lowering has begun and the schedule is immutable.
func (s *Schedule) Frozen() bool { return s.frozen }

// Freeze makes the schedule immutable. Lowering calls this once; further
// split/reorder/fuse calls fail.
func (s *Schedule) Freeze() { s.frozen = true }

// Split factors the index into an outer child iterating in steps of factor and
// an inner child covering one step. The iteration count is unchanged; only its
// factoring changes. The final outer iteration's inner extent is clipped to
// the remainder when factor does not divide the range, and that boundary case
// is preserved through lowering and cache geometry.
//
// The parent index stays valid for range queries but is no longer schedulable.
func (s *Schedule) Split(ix *Index, factor int64) (outer, inner *Index, err error) {
	if s.frozen {
		return nil, nil, errors.Wrapf(ErrInvalidSplit, "schedule is frozen, cannot split %s", ix)
	}
	if factor <= 0 {
		return nil, nil, errors.Wrapf(ErrInvalidSplit, "split factor must be positive, got %d for %s", factor, ix)
	}
	pos := s.Position(ix)
	if pos < 0 {
		return nil, nil, errors.Wrapf(ErrInvalidSplit, "index %s is not schedulable (foreign index, or already split)", ix)
	}
	r := s.ranges[ix]

	outer = s.nest.newIndex(ix.name+"_o", ix)
	inner = s.nest.newIndex(ix.name+"_i", ix)
	s.splits[ix] = splitPair{outer: outer, inner: inner}

	s.ranges[outer] = IndexRange{Begin: r.Begin, End: r.End, Increment: r.Increment * factor}
	s.ranges[inner] = IndexRange{Begin: 0, End: r.Increment * factor, Increment: r.Increment}

	order := make([]*Index, 0, len(s.order)+1)
	order = append(order, s.order[:pos]...)
	order = append(order, outer, inner)
	order = append(order, s.order[pos+1:]...)
	s.order = order
	return outer, inner, nil
}

// Reorder replaces the loop order. The new order must be a permutation of the
// current one: every currently scheduled index exactly once.
func (s *Schedule) Reorder(order ...*Index) error {
	if s.frozen {
		return errors.Wrapf(ErrInvalidOrder, "schedule is frozen, cannot reorder")
	}
	if len(order) != len(s.order) {
		return errors.Wrapf(ErrInvalidOrder, "reorder got %d indices, schedule has %d", len(order), len(s.order))
	}
	remaining := make(map[*Index]bool, len(s.order))
	for _, ix := range s.order {
		remaining[ix] = true
	}
	for _, ix := range order {
		if !remaining[ix] {
			return errors.Wrapf(ErrInvalidOrder, "index %s is not scheduled here exactly once", ix)
		}
		delete(remaining, ix)
	}
	s.order = xslices.Copy(order)
	return nil
}

// IsSplit reports whether the index was split in this schedule and is
// therefore no longer directly schedulable here.
func (s *Schedule) IsSplit(ix *Index) bool {
	_, found := s.splits[ix]
	return found
}

// Children returns the outer and inner children the index was split into in
// this schedule, or nils if it was not split here.
func (s *Schedule) Children(ix *Index) (outer, inner *Index) {
	pair := s.splits[ix]
	return pair.outer, pair.inner
}

// Leaves returns the schedulable leaves a logical index currently decomposes
// into, outermost split first. An unsplit scheduled index is its own leaf.
func (s *Schedule) Leaves(ix *Index) []*Index {
	pair, found := s.splits[ix]
	if !found {
		return []*Index{ix}
	}
	return append(s.Leaves(pair.outer), s.Leaves(pair.inner)...)
}

// IterationCount returns the total number of iterations of the current order.
func (s *Schedule) IterationCount() int64 {
	count := int64(1)
	for _, ix := range s.order {
		count *= s.ranges[ix].Len()
	}
	return count
}

// SetVectorization attaches vectorization info to a scheduled index. This is
// part of the schedule's typed attribute side table; validation of where
// vectorization is legal lives in the plan layer.
func (s *Schedule) SetVectorization(ix *Index, info VectorizationInfo) error {
	attrs, err := s.attributesForWrite(ix)
	if err != nil {
		return err
	}
	attrs.Vectorization = &info
	return nil
}

// ClearVectorization removes a previously attached vectorization request.
func (s *Schedule) ClearVectorization(ix *Index) {
	if attrs := s.attrs[ix]; attrs != nil {
		attrs.Vectorization = nil
	}
}

// SetParallelization attaches parallelization info to a scheduled index.
func (s *Schedule) SetParallelization(ix *Index, info ParallelizationInfo) error {
	attrs, err := s.attributesForWrite(ix)
	if err != nil {
		return err
	}
	attrs.Parallelization = &info
	return nil
}

// Attributes returns the attribute entry of an index, or nil if none was set.
func (s *Schedule) Attributes(ix *Index) *LoopAttributes {
	return s.attrs[ix]
}

func (s *Schedule) attributesForWrite(ix *Index) (*LoopAttributes, error) {
	if s.frozen {
		return nil, errors.Errorf("schedule is frozen, cannot annotate %s", ix)
	}
	if s.Position(ix) < 0 {
		return nil, errors.Errorf("index %s is not scheduled here", ix)
	}
	attrs := s.attrs[ix]
	if attrs == nil {
		attrs = &LoopAttributes{}
		s.attrs[ix] = attrs
	}
	return attrs, nil
}

// Fuse merges this schedule with another that shares at least one index.
// Shared indices must have identical ranges in both schedules, otherwise the
// fusion fails fast with ErrFusionRangeMismatch. When the two schedules are
// not index-identical, a synthetic selector index of range [0, 2) guards
// which program runs: value 0 selects this schedule's kernels, 1 the other's.
// Both input schedules are frozen by the fusion.
func (s *Schedule) Fuse(other *Schedule) (*Schedule, error) {
	if s.frozen || other.frozen {
		return nil, errors.Errorf("cannot fuse frozen schedules")
	}

	inOther := make(map[*Index]bool, len(other.order))
	for _, ix := range other.order {
		inOther[ix] = true
	}
	var shared, sOnly []*Index
	for _, ix := range s.order {
		if inOther[ix] {
			shared = append(shared, ix)
		} else {
			sOnly = append(sOnly, ix)
		}
	}
	if len(shared) == 0 {
		return nil, errors.Wrapf(ErrInvalidOrder, "schedules %q and %q share no index, nothing to fuse", s.nest.name, other.nest.name)
	}
	for _, ix := range shared {
		rs, ro := s.ranges[ix], other.ranges[ix]
		if rs != ro {
			return nil, errors.Wrapf(ErrFusionRangeMismatch,
				"shared index %s has range %s in %q but %s in %q", ix, rs, s.nest.name, ro, other.nest.name)
		}
	}
	var otherOnly []*Index
	inShared := make(map[*Index]bool, len(shared))
	for _, ix := range shared {
		inShared[ix] = true
	}
	for _, ix := range other.order {
		if !inShared[ix] {
			otherOnly = append(otherOnly, ix)
		}
	}

	fused := &Schedule{
		nest:   s.nest,
		ranges: make(map[*Index]IndexRange, len(s.ranges)+len(other.ranges)),
		attrs:  make(map[*Index]*LoopAttributes),
		splits: make(map[*Index]splitPair, len(s.splits)+len(other.splits)),
	}
	for ix, r := range s.ranges {
		fused.ranges[ix] = r
	}
	for ix, r := range other.ranges {
		fused.ranges[ix] = r
	}
	for ix, pair := range s.splits {
		fused.splits[ix] = pair
	}
	for ix, pair := range other.splits {
		fused.splits[ix] = pair
	}

	identical := len(sOnly) == 0 && len(otherOnly) == 0
	fused.order = append(fused.order, shared...)
	if !identical {
		fused.selector = s.nest.newIndex("fused", nil)
		fused.ranges[fused.selector] = MakeRange(0, 2)
		fused.order = append(fused.order, fused.selector)
	}
	fused.order = append(fused.order, sOnly...)
	fused.order = append(fused.order, otherOnly...)

	selector := func(unguarded int) int {
		if identical {
			return -1
		}
		return unguarded
	}
	for _, sk := range s.kernels {
		fused.kernels = append(fused.kernels, ScheduledKernel{Kernel: sk.Kernel, SelectorValue: selector(0)})
	}
	for _, sk := range other.kernels {
		fused.kernels = append(fused.kernels, ScheduledKernel{Kernel: sk.Kernel, SelectorValue: selector(1)})
	}

	s.frozen, other.frozen = true, true
	return fused, nil
}
