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

// Package cache resolves the geometry of cache declarations and materializes
// them into the IR: buffer allocation, copy-in/zero-fill/copy-out/reduce ops,
// double buffering, multi-cache slicing and the region mapping pass that
// rewrites array accesses to go through the cache.
package cache

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Arslan-e-Mustafa/Accera/ir"
	"github.com/Arslan-e-Mustafa/Accera/loopnest"
	"github.com/Arslan-e-Mustafa/Accera/plan"
	"github.com/Arslan-e-Mustafa/Accera/types/xslices"
)

var (
	// ErrUnsupportedCacheShape is returned when the active region of a cache
	// has no finite affine description: data-dependent subscripts, conflicting
	// access patterns, or a footprint that exceeds the declared budget at
	// every trigger level.
	ErrUnsupportedCacheShape = errors.New("unsupported cache shape")

	// ErrMalformedCacheRegion is returned when begin/end region markers are
	// unbalanced or interleaved across caches of the same base array.
	ErrMalformedCacheRegion = errors.New("malformed cache region")
)

// AccessMode selects what a cache coordinate means.
type AccessMode int

const (
	// ActiveBlock caches the rectangular block of source elements the region
	// touches; cache coordinates are block-relative source coordinates.
	ActiveBlock AccessMode = iota
	// ActiveElement caches one element per active loop point; cache
	// coordinates are the loop counters themselves.
	ActiveElement
)

func (m AccessMode) String() string {
	if m == ActiveBlock {
		return "ActiveBlock"
	}
	return "ActiveElement"
}

// Usage is the direction of data flow between the source and the cache.
type Usage int

const (
	// UsageRead only fills the cache; nothing flows back.
	UsageRead Usage = iota
	// UsageAccumulate zero-fills the cache and reduces it into the source.
	UsageAccumulate
	// UsageReadWrite fills the cache and copies it back verbatim.
	UsageReadWrite
)

func (u Usage) String() string {
	switch u {
	case UsageRead:
		return "Read"
	case UsageAccumulate:
		return "Accumulate"
	case UsageReadWrite:
		return "ReadWrite"
	}
	return "unknown"
}

// AccessContext is the resolved geometry of one cache: which loop levels it
// spans, the shape of its buffer, and the affine maps tying loop counters,
// source coordinates and cache coordinates together. It is a pure function of
// the cache declaration, the schedule and the kernels' access footprint.
type AccessContext struct {
	Cache *plan.Cache
	Mode  AccessMode
	Usage Usage

	// Trigger is the schedulable loop index the cache fills at, and
	// TriggerPos its position in the schedule order. Internal holds the
	// leaves at or inside the trigger that drive source coordinates, in
	// schedule order; External the driving leaves outside it.
	Trigger    *loopnest.Index
	TriggerPos int
	Internal   []*loopnest.Index
	External   []*loopnest.Index

	// Dims is the cache buffer shape, excluding the leading parity dimension
	// of a double buffer and the leading slice dimension of a multi-cache.
	Dims []int64

	// SourceMap maps normalized Internal loop counters to source coordinates
	// relative to the current external iteration. CacheMap maps the same
	// counters to cache coordinates. CacheToSource maps cache coordinates
	// back to source coordinates; SourceMap = CacheToSource ∘ CacheMap.
	SourceMap     ir.AffineMap
	CacheMap      ir.AffineMap
	CacheToSource ir.AffineMap

	// SliceSyms names the multi-cache slicing counters (empty otherwise),
	// SliceLen the number of slices kept.
	SliceSyms []string
	SliceLen  int64
}

// dimPattern is the per-source-dimension access pattern shared by all
// accesses to the base array: coordinate = Scale*Index + Offset.
type dimPattern struct {
	index  *loopnest.Index
	scale  int64
	offset int64
}

// Resolve computes the access context of a cache under a schedule. It fails
// with ErrUnsupportedCacheShape when the region is not a finite affine image
// of the loop counters.
func Resolve(c *plan.Cache, s *loopnest.Schedule) (*AccessContext, error) {
	base := c.Array()
	accesses := collectAccesses(s, base)
	if len(accesses) == 0 {
		return nil, errors.Wrapf(ErrUnsupportedCacheShape, "cache %s: no kernel accesses %s", c.ID(), base)
	}
	patterns, err := accessPatterns(c, base, accesses)
	if err != nil {
		return nil, err
	}

	ctx := &AccessContext{Cache: c, Usage: usageOf(s, base)}
	if c.Indexing() == plan.IndexingLogicalToPhysical {
		ctx.Mode = ActiveElement
	}

	order := s.Order()
	ctx.TriggerPos, err = resolveTriggerPos(c, s, patterns, order)
	if err != nil {
		return nil, err
	}
	ctx.Trigger = order[ctx.TriggerPos]

	ctx.Internal, ctx.External = classifyLeaves(s, patterns, order, ctx.TriggerPos)
	if len(ctx.Internal) == 0 {
		return nil, errors.Wrapf(ErrUnsupportedCacheShape,
			"cache %s: no loop inside trigger %s drives an access to %s", c.ID(), ctx.Trigger, base)
	}

	if err := ctx.buildMaps(s, patterns); err != nil {
		return nil, err
	}
	if err := resolveSlices(ctx, c, s); err != nil {
		return nil, err
	}
	klog.V(2).Infof("cache %s: resolved %s geometry %v at trigger %s (%d internal, %d external leaves)",
		c.ID(), ctx.Mode, ctx.Dims, ctx.Trigger, len(ctx.Internal), len(ctx.External))
	return ctx, nil
}

// Elements returns the number of elements of one cache slice.
func (ctx *AccessContext) Elements() int64 {
	return xslices.Prod(ctx.Dims)
}

// collectAccesses gathers every access to the base array across the scheduled
// kernels.
func collectAccesses(s *loopnest.Schedule, base *ir.Array) []loopnest.Access {
	var out []loopnest.Access
	for _, sk := range s.Kernels() {
		out = append(out, sk.Kernel.AccessesOf(base)...)
	}
	return out
}

// usageOf derives the data-flow direction from the kernels' accesses.
func usageOf(s *loopnest.Schedule, base *ir.Array) Usage {
	reads, writes, allAccumulate := false, false, true
	for _, sk := range s.Kernels() {
		if sk.Kernel.Reads(base) {
			reads = true
		}
		if sk.Kernel.Writes(base) {
			writes = true
			if !sk.Kernel.AccumulatesInto(base) {
				allAccumulate = false
			}
		}
	}
	switch {
	case !writes:
		return UsageRead
	case !reads && allAccumulate:
		return UsageAccumulate
	default:
		return UsageReadWrite
	}
}

// accessPatterns verifies that all accesses to the base array agree on a
// single affine pattern per dimension and returns it.
func accessPatterns(c *plan.Cache, base *ir.Array, accesses []loopnest.Access) ([]dimPattern, error) {
	patterns := make([]dimPattern, base.Rank())
	for accIdx, acc := range accesses {
		if len(acc.Terms) != base.Rank() {
			return nil, errors.Wrapf(ErrUnsupportedCacheShape,
				"cache %s: access %s has %d coordinates, array has rank %d",
				c.ID(), acc, len(acc.Terms), base.Rank())
		}
		for d, term := range acc.Terms {
			if term.Dynamic {
				return nil, errors.Wrapf(ErrUnsupportedCacheShape,
					"cache %s: dimension %d of access %s has the data-dependent coordinate %s",
					c.ID(), d, acc, term)
			}
			scale := term.Scale
			if scale == 0 {
				scale = 1
			}
			p := dimPattern{index: term.Index, scale: scale, offset: term.Offset}
			if accIdx == 0 {
				patterns[d] = p
				continue
			}
			if patterns[d] != p {
				return nil, errors.Wrapf(ErrUnsupportedCacheShape,
					"cache %s: accesses disagree on dimension %d: %s vs %s",
					c.ID(), d, patternString(patterns[d]), patternString(p))
			}
		}
	}
	return patterns, nil
}

func patternString(p dimPattern) string {
	var b strings.Builder
	if p.scale != 1 {
		fmt.Fprintf(&b, "%d*", p.scale)
	}
	fmt.Fprintf(&b, "%s", p.index)
	if p.offset != 0 {
		fmt.Fprintf(&b, " + %d", p.offset)
	}
	return b.String()
}

// resolveTriggerPos picks the schedule position at which the cache fills: the
// declared trigger's outermost leaf, or for a MaxElements budget the
// outermost position whose footprint fits, hoisting inward until it does.
func resolveTriggerPos(c *plan.Cache, s *loopnest.Schedule, patterns []dimPattern, order []*loopnest.Index) (int, error) {
	if trigger := c.Trigger(); trigger != nil {
		leaves := s.Leaves(trigger)
		pos := s.Position(leaves[0])
		if pos < 0 {
			return 0, errors.Wrapf(ErrUnsupportedCacheShape,
				"cache %s: trigger %s is not scheduled", c.ID(), trigger)
		}
		if c.Allocation() != plan.AllocationMaxElements {
			return pos, nil
		}
		// With a budget the declared trigger is a starting point only.
		return hoistForBudget(c, s, patterns, order, pos)
	}
	if c.Allocation() == plan.AllocationMaxElements {
		return hoistForBudget(c, s, patterns, order, 0)
	}
	return 0, nil
}

func hoistForBudget(c *plan.Cache, s *loopnest.Schedule, patterns []dimPattern, order []*loopnest.Index, from int) (int, error) {
	for pos := from; pos < len(order); pos++ {
		extents := dimExtents(s, patterns, order, pos)
		if xslices.Prod(extents) <= c.MaxElements() {
			return pos, nil
		}
	}
	deepest := dimExtents(s, patterns, order, len(order)-1)
	return 0, errors.Wrapf(ErrUnsupportedCacheShape,
		"cache %s: footprint %v (%d elements) exceeds the %d-element budget even at the innermost loop",
		c.ID(), deepest, xslices.Prod(deepest), c.MaxElements())
}

// classifyLeaves splits the driving leaves into internal (at or inside the
// trigger position) and external, both in schedule order.
func classifyLeaves(s *loopnest.Schedule, patterns []dimPattern, order []*loopnest.Index, triggerPos int) (internal, external []*loopnest.Index) {
	driving := make(map[*loopnest.Index]bool)
	for _, p := range patterns {
		for _, leaf := range s.Leaves(p.index) {
			driving[leaf] = true
		}
	}
	for pos, ix := range order {
		if !driving[ix] {
			continue
		}
		if pos >= triggerPos {
			internal = append(internal, ix)
		} else {
			external = append(external, ix)
		}
	}
	return
}

// dimExtents computes, per source dimension, how many elements the loops at
// or inside triggerPos touch: sum over internal driving leaves of
// scale*increment*(len-1), plus one. Dimensions driven only by external
// loops collapse to a single element.
func dimExtents(s *loopnest.Schedule, patterns []dimPattern, order []*loopnest.Index, triggerPos int) []int64 {
	extents := make([]int64, len(patterns))
	for d, p := range patterns {
		span := int64(0)
		for _, leaf := range s.Leaves(p.index) {
			pos := s.Position(leaf)
			if pos < triggerPos {
				continue
			}
			r, _ := s.Range(leaf)
			step := p.scale * r.Increment
			if step < 0 {
				step = -step
			}
			span += step * (r.Len() - 1)
		}
		extents[d] = span + 1
	}
	return extents
}

// buildMaps constructs the affine maps and the cache shape. The inputs of
// SourceMap and CacheMap are the normalized counters of ctx.Internal (counter
// t ranges over [0, Len_t)).
func (ctx *AccessContext) buildMaps(s *loopnest.Schedule, patterns []dimPattern) error {
	c := ctx.Cache
	rank := len(patterns)
	nIn := len(ctx.Internal)
	leafPos := make(map[*loopnest.Index]int, nIn)
	for t, leaf := range ctx.Internal {
		leafPos[leaf] = t
	}

	// Source coordinates relative to the current external iteration.
	sourceMap := ir.MakeAffineMap(rank, nIn)
	for d, p := range patterns {
		sourceMap.Offsets[d] = p.offset
		for _, leaf := range s.Leaves(p.index) {
			t, internal := leafPos[leaf]
			if !internal {
				continue
			}
			r, _ := s.Range(leaf)
			sourceMap.Coeffs[d][t] = p.scale * r.Increment
		}
	}
	ctx.SourceMap = sourceMap

	if ctx.Mode == ActiveElement {
		// One cache dimension per internal counter; the cache coordinate is
		// the counter itself.
		ctx.Dims = make([]int64, nIn)
		for t, leaf := range ctx.Internal {
			r, _ := s.Range(leaf)
			ctx.Dims[t] = r.Len()
		}
		ctx.CacheMap = ir.IdentityMap(nIn)
		ctx.CacheToSource = sourceMap
		return nil
	}

	extents := dimExtents(s, patterns, s.Order(), ctx.TriggerPos)

	perm := c.DimensionOrder()
	if perm == nil {
		perm = make([]int, rank)
		for d := range perm {
			perm[d] = d
		}
	}
	// perm[cacheDim] = sourceDim.
	ctx.Dims = make([]int64, rank)
	for cd, sd := range perm {
		ctx.Dims[cd] = extents[sd]
	}

	// Cache coordinates are block-relative source coordinates, permuted.
	cacheMap := ir.MakeAffineMap(rank, nIn)
	for cd, sd := range perm {
		copy(cacheMap.Coeffs[cd], sourceMap.Coeffs[sd])
	}
	if explicit := c.MemoryMap(); !explicit.IsZero() {
		if explicit.NumInputs() != nIn {
			return errors.Wrapf(ErrUnsupportedCacheShape,
				"cache %s: explicit memory map takes %d inputs, region has %d active counters",
				c.ID(), explicit.NumInputs(), nIn)
		}
		cacheMap = explicit
		ctx.Dims = mappedExtents(explicit, s, ctx.Internal)
	}
	ctx.CacheMap = cacheMap

	// Back from cache to source: invert the permutation, restore the constant
	// offsets. SourceMap = CacheToSource ∘ CacheMap by construction.
	cacheToSource := ir.MakeAffineMap(rank, rank)
	for cd, sd := range perm {
		cacheToSource.Coeffs[sd][cd] = 1
		cacheToSource.Offsets[sd] = sourceMap.Offsets[sd]
	}
	if !c.MemoryMap().IsZero() {
		inv, err := cacheMap.Invert()
		if err != nil {
			return errors.Wrapf(ErrUnsupportedCacheShape,
				"cache %s: explicit memory map %s is not invertible: %v", c.ID(), cacheMap, err)
		}
		cacheToSource = sourceMap.Compose(inv)
	}
	ctx.CacheToSource = cacheToSource
	return nil
}

// mappedExtents sizes the cache by pushing the corner points of the counter
// box through an explicit memory map.
func mappedExtents(m ir.AffineMap, s *loopnest.Schedule, internal []*loopnest.Index) []int64 {
	lens := make([]int64, len(internal))
	for t, leaf := range internal {
		r, _ := s.Range(leaf)
		lens[t] = r.Len()
	}
	dims := make([]int64, m.NumOutputs())
	for corner := 0; corner < 1<<len(lens); corner++ {
		point := make([]int64, len(lens))
		for t := range lens {
			if corner&(1<<t) != 0 {
				point[t] = lens[t] - 1
			}
		}
		for d, coord := range m.Apply(point) {
			if coord+1 > dims[d] {
				dims[d] = coord + 1
			}
		}
	}
	return dims
}

// resolveSlices fills the multi-cache fields: one slice per iteration of the
// key-slice (level) index, selected symbolically by its leaf counters.
func resolveSlices(ctx *AccessContext, c *plan.Cache, s *loopnest.Schedule) error {
	level := c.Level()
	if level == nil {
		return nil
	}
	sliceLen := int64(1)
	for _, leaf := range s.Leaves(level) {
		r, found := s.Range(leaf)
		if !found {
			return errors.Wrapf(ErrUnsupportedCacheShape,
				"cache %s: key-slice index %s is not scheduled", c.ID(), level)
		}
		sliceLen *= r.Len()
		ctx.SliceSyms = append(ctx.SliceSyms, leaf.String())
	}
	ctx.SliceLen = sliceLen
	return nil
}

// VerifyFidelity checks numerically, over the corner points plus a sweep of
// the counter box, that cache coordinates round-trip to the source
// coordinates the counters address: CacheToSource(CacheMap(x)) = SourceMap(x).
func (ctx *AccessContext) VerifyFidelity(s *loopnest.Schedule) error {
	lens := make([]int64, len(ctx.Internal))
	for t, leaf := range ctx.Internal {
		r, _ := s.Range(leaf)
		lens[t] = r.Len()
	}
	point := make([]int64, len(lens))
	const maxSamples = 1 << 12
	for sample := 0; sample < maxSamples; sample++ {
		got := ctx.CacheToSource.Apply(ctx.CacheMap.Apply(point))
		want := ctx.SourceMap.Apply(point)
		for d := range want {
			if got[d] != want[d] {
				return errors.Wrapf(ErrUnsupportedCacheShape,
					"cache %s: coordinate round-trip failed at counters %v: cache path gives %v, source map gives %v",
					ctx.Cache.ID(), point, got, want)
			}
		}
		if !advance(point, lens) {
			return nil
		}
	}
	return nil
}

// advance steps an odometer over the counter box; false when exhausted.
func advance(point, lens []int64) bool {
	for t := len(point) - 1; t >= 0; t-- {
		point[t]++
		if point[t] < lens[t] {
			return true
		}
		point[t] = 0
	}
	return false
}
