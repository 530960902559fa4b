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

package plan

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Arslan-e-Mustafa/Accera/ir"
	"github.com/Arslan-e-Mustafa/Accera/loopnest"
	"github.com/Arslan-e-Mustafa/Accera/types/xslices"
)

// CacheIndexing selects the coordinate space of the cache.
type CacheIndexing int

const (
	// IndexingGlobalToPhysical maps global (source) coordinates directly to
	// cache storage.
	IndexingGlobalToPhysical CacheIndexing = iota
	// IndexingLogicalToPhysical maps the loop indices of the active region to
	// cache storage, rebasing each trigger iteration to the origin.
	IndexingLogicalToPhysical
)

func (c CacheIndexing) String() string {
	switch c {
	case IndexingGlobalToPhysical:
		return "GlobalToPhysical"
	case IndexingLogicalToPhysical:
		return "LogicalToPhysical"
	}
	return "unknown"
}

// CacheAllocation selects how the cache buffer is provisioned.
type CacheAllocation int

const (
	// AllocationAutomatic sizes and allocates the buffer from the resolved
	// geometry at lowering time.
	AllocationAutomatic CacheAllocation = iota
	// AllocationMaxElements sizes the buffer from the active footprint but
	// caps it at a declared element budget; the trigger level is hoisted
	// inward until the footprint fits.
	AllocationMaxElements
	// AllocationRuntime leaves allocation and packing to a runtime-init
	// function emitted alongside the module.
	AllocationRuntime
)

func (c CacheAllocation) String() string {
	switch c {
	case AllocationAutomatic:
		return "Automatic"
	case AllocationMaxElements:
		return "MaxElements"
	case AllocationRuntime:
		return "Runtime"
	}
	return "unknown"
}

// CacheState is the lifecycle state of a cache declaration.
type CacheState int

//go:generate go tool enumer -type=CacheState -trimprefix=Cache -output=gen_cachestate_enumer.go cache.go

const (
	CacheDeclared CacheState = iota
	CacheGeometryResolved
	CacheCopyEmitted
	CacheMappingApplied
	CacheMaterialized
	CacheFailed
)

// validCacheTransitions holds the allowed forward edges of the lifecycle; any
// state may additionally transition to CacheFailed.
var validCacheTransitions = map[CacheState]CacheState{
	CacheDeclared:         CacheGeometryResolved,
	CacheGeometryResolved: CacheCopyEmitted,
	CacheCopyEmitted:      CacheMappingApplied,
	CacheMappingApplied:   CacheMaterialized,
}

// Cache is one cache declaration of a plan. All fields are settled by the
// builder; after Done() the declaration is immutable, only its lifecycle
// state advances as materialization proceeds.
type Cache struct {
	id   uuid.UUID
	plan *Plan

	// Exactly one of array/parent is set: the cache copies from a source
	// array or from an enclosing cache (cache-of-cache).
	array  *ir.Array
	parent *Cache

	trigger     *loopnest.Index
	level       *loopnest.Index
	indexing    CacheIndexing
	allocation  CacheAllocation
	maxElements int64
	memorySpace MemorySpace
	dimOrder    []int
	memoryMap   ir.AffineMap

	doubleBuffer      bool
	doubleBufferSpace MemorySpace
	thrifty           bool

	// Runtime-initialized caches: helper symbols declared in the module, and
	// the embedded constant global when the data is known at compile time.
	packingFn    string
	packedSizeFn string
	global       *ir.Global

	state CacheState
}

// ID returns the unique id of the cache, used in buffer and diagnostic names.
func (c *Cache) ID() uuid.UUID { return c.id }

// Plan returns the plan the cache was declared on.
func (c *Cache) Plan() *Plan { return c.plan }

// Array returns the source array, walking to the root through cache-of-cache
// parents.
func (c *Cache) Array() *ir.Array {
	if c.parent != nil {
		return c.parent.Array()
	}
	return c.array
}

// Parent returns the enclosing cache for a cache-of-cache, or nil.
func (c *Cache) Parent() *Cache { return c.parent }

// HierarchyLevel returns how many caches sit between this one and the source
// array: 0 caches the array directly.
func (c *Cache) HierarchyLevel() int {
	if c.parent == nil {
		return 0
	}
	return c.parent.HierarchyLevel() + 1
}

// Trigger returns the loop index at which the cache fills, or nil when the
// geometry resolution should pick the outermost index that keeps the
// footprint within budget.
func (c *Cache) Trigger() *loopnest.Index { return c.trigger }

// Level returns the key-slice index for multi-cache, or nil.
func (c *Cache) Level() *loopnest.Index { return c.level }

func (c *Cache) Indexing() CacheIndexing        { return c.indexing }
func (c *Cache) Allocation() CacheAllocation    { return c.allocation }
func (c *Cache) MaxElements() int64             { return c.maxElements }
func (c *Cache) MemorySpace() MemorySpace       { return c.memorySpace }
func (c *Cache) Thrifty() bool                  { return c.thrifty }
func (c *Cache) DoubleBuffer() bool             { return c.doubleBuffer }
func (c *Cache) DoubleBufferSpace() MemorySpace { return c.doubleBufferSpace }

// DimensionOrder returns the declared cache-dimension permutation, or nil for
// source order. xslices.Copy allocates even for nil input, so the unset case
// returns before copying.
func (c *Cache) DimensionOrder() []int {
	if c.dimOrder == nil {
		return nil
	}
	return xslices.Copy(c.dimOrder)
}

// MemoryMap returns the explicit cache-coordinate affine map; the zero map
// means the geometry is derived from the access footprint.
func (c *Cache) MemoryMap() ir.AffineMap { return c.memoryMap }

// PackingFn returns the runtime packing helper symbol, or "" for caches the
// engine fills itself.
func (c *Cache) PackingFn() string { return c.packingFn }

// PackedSizeFn returns the packed-buffer-size helper symbol, or "".
func (c *Cache) PackedSizeFn() string { return c.packedSizeFn }

// Global returns the embedded constant buffer of a pack-and-embed cache, or
// nil.
func (c *Cache) Global() *ir.Global { return c.global }

// State returns the current lifecycle state.
func (c *Cache) State() CacheState { return c.state }

// TransitionTo advances the lifecycle. Only the forward edges
// Declared → GeometryResolved → CopyEmitted → MappingApplied → Materialized
// are valid; any state may fail. Invalid transitions are programming errors
// in the engine, so they panic.
func (c *Cache) TransitionTo(next CacheState) {
	if next == CacheFailed {
		c.state = CacheFailed
		return
	}
	if validCacheTransitions[c.state] != next {
		exceptions.Panicf("cache %s: invalid lifecycle transition %s -> %s", c.id, c.state, next)
	}
	c.state = next
}

func (c *Cache) String() string {
	return fmt.Sprintf("Cache(%s of %s, level=%d, %s)", c.id, c.Array(), c.HierarchyLevel(), c.state)
}

// CacheBuilder declares a cache with a fluent API:
//
//	cc, err := p.Cache(a).Trigger(iOuter).MemorySpace(plan.MemorySpacePrivate).Done()
//
// The first error sticks and is returned by Done.
type CacheBuilder struct {
	cache *Cache
	err   error
}

// Cache starts a cache declaration for a source array.
func (p *Plan) Cache(a *ir.Array) *CacheBuilder {
	b := &CacheBuilder{cache: &Cache{id: uuid.New(), plan: p, array: a}}
	if a == nil {
		b.err = errors.Errorf("Cache: nil array")
	}
	return b
}

// CacheOf starts a cache-of-cache declaration: the new cache copies from the
// given cache's buffer rather than from the source array.
func (p *Plan) CacheOf(parent *Cache) *CacheBuilder {
	b := &CacheBuilder{cache: &Cache{id: uuid.New(), plan: p, parent: parent}}
	switch {
	case parent == nil:
		b.err = errors.Errorf("CacheOf: nil parent cache")
	case parent.plan != p:
		b.err = errors.Errorf("CacheOf: parent cache %s belongs to another plan", parent.id)
	}
	return b
}

// Trigger sets the loop index at which the cache region fills and drains.
func (b *CacheBuilder) Trigger(ix *loopnest.Index) *CacheBuilder {
	if b.err != nil {
		return b
	}
	if ix == nil {
		b.err = errors.Errorf("Trigger: nil index")
		return b
	}
	b.cache.trigger = ix
	return b
}

// Level sets the key-slice index: the cache keeps one slice per value of the
// index (multi-cache), filled up-front and selected symbolically.
func (b *CacheBuilder) Level(ix *loopnest.Index) *CacheBuilder {
	if b.err != nil {
		return b
	}
	if ix == nil {
		b.err = errors.Errorf("Level: nil index")
		return b
	}
	b.cache.level = ix
	return b
}

// MaxElements caps the cache footprint and lets geometry resolution pick the
// deepest trigger whose footprint fits the budget.
func (b *CacheBuilder) MaxElements(n int64) *CacheBuilder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = errors.Errorf("MaxElements: budget must be positive, got %d", n)
		return b
	}
	b.cache.allocation = AllocationMaxElements
	b.cache.maxElements = n
	return b
}

// Indexing sets the cache coordinate space.
func (b *CacheBuilder) Indexing(mode CacheIndexing) *CacheBuilder {
	if b.err == nil {
		b.cache.indexing = mode
	}
	return b
}

// Allocation sets the allocation policy. MaxElements implies and overrides it.
func (b *CacheBuilder) Allocation(policy CacheAllocation) *CacheBuilder {
	if b.err == nil {
		b.cache.allocation = policy
	}
	return b
}

// MemorySpace places the cache buffer.
func (b *CacheBuilder) MemorySpace(ms MemorySpace) *CacheBuilder {
	if b.err == nil {
		b.cache.memorySpace = ms
	}
	return b
}

// DimensionOrder permutes the cache dimensions relative to the source array
// dimensions, e.g. [1, 0] transposes a 2-d cache.
func (b *CacheBuilder) DimensionOrder(perm ...int) *CacheBuilder {
	if b.err != nil {
		return b
	}
	if !xslices.IsPermutation(perm) {
		b.err = errors.Errorf("DimensionOrder: %v is not a permutation of 0..%d", perm, len(perm)-1)
		return b
	}
	b.cache.dimOrder = xslices.Copy(perm)
	return b
}

// MemoryMap sets an explicit affine map from active-region coordinates to
// cache coordinates, overriding the derived geometry.
func (b *CacheBuilder) MemoryMap(m ir.AffineMap) *CacheBuilder {
	if b.err != nil {
		return b
	}
	if m.IsZero() {
		b.err = errors.Errorf("MemoryMap: zero map")
		return b
	}
	b.cache.memoryMap = m
	return b
}

// DoubleBuffer overlaps the next trigger iteration's fill with the current
// iteration's compute, placing the in-flight buffer in the given space.
func (b *CacheBuilder) DoubleBuffer(ms MemorySpace) *CacheBuilder {
	if b.err == nil {
		b.cache.doubleBuffer = true
		b.cache.doubleBufferSpace = ms
	}
	return b
}

// Thrifty elides the physical copies when the cache would be a verbatim,
// contiguous image of the source region.
func (b *CacheBuilder) Thrifty() *CacheBuilder {
	if b.err == nil {
		b.cache.thrifty = true
	}
	return b
}

// Done validates the declaration, registers it on the plan and returns it.
func (b *CacheBuilder) Done() (*Cache, error) {
	if b.err != nil {
		return nil, b.err
	}
	c := b.cache
	if c.dimOrder != nil && !c.memoryMap.IsZero() {
		return nil, errors.Errorf("cache %s: DimensionOrder and MemoryMap are mutually exclusive", c.id)
	}
	if c.allocation == AllocationMaxElements && c.maxElements <= 0 {
		return nil, errors.Errorf("cache %s: MaxElements allocation needs a positive budget", c.id)
	}
	if c.allocation == AllocationRuntime && c.doubleBuffer {
		return nil, errors.Errorf("cache %s: a runtime-initialized cache cannot double-buffer", c.id)
	}
	if src := c.Array(); src != nil && c.dimOrder != nil && len(c.dimOrder) != src.Rank() {
		return nil, errors.Errorf("cache %s: DimensionOrder has %d entries, source %s has rank %d",
			c.id, len(c.dimOrder), src, src.Rank())
	}
	c.state = CacheDeclared
	c.plan.caches = append(c.plan.caches, c)
	return c, nil
}
