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

package cache

import (
	"sort"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Arslan-e-Mustafa/Accera/ir"
	"github.com/Arslan-e-Mustafa/Accera/plan"
)

// Engine materializes resolved caches into the lowered loop nest. One engine
// serves one lowering pass; it owns the per-loop insertion anchors that keep
// hierarchical caches properly nested.
type Engine struct {
	builder *ir.Builder
	plan    *plan.Plan

	contexts []*AccessContext
	buffers  map[*plan.Cache]*ir.Array

	// drainAnchors remembers, per trigger loop, the first drain op emitted
	// after it: later (deeper) caches drain before it, closing their regions
	// inside the enclosing one. Fill ops need no anchor: inserting each right
	// before the trigger loop already stacks them after earlier caches'.
	drainAnchors map[*ir.Op]*ir.Op
}

// NewEngine creates a materialization engine for one plan.
func NewEngine(b *ir.Builder, p *plan.Plan) *Engine {
	return &Engine{
		builder:      b,
		plan:         p,
		buffers:      make(map[*plan.Cache]*ir.Array),
		drainAnchors: make(map[*ir.Op]*ir.Op),
	}
}

// Contexts returns the resolved access contexts in materialization order.
func (e *Engine) Contexts() []*AccessContext { return e.contexts }

// Buffer returns the IR buffer materialized for a cache.
func (e *Engine) Buffer(c *plan.Cache) *ir.Array { return e.buffers[c] }

// MaterializeAll resolves every cache of the plan and emits its buffers,
// copies and region markers into the lowered nest. Caches materialize outer
// hierarchy levels first so that nested regions open inside enclosing ones
// and drain before them.
func (e *Engine) MaterializeAll(lowered *LoweredNest) error {
	s := e.plan.Schedule()
	for _, c := range e.plan.Caches() {
		ctx, err := Resolve(c, s)
		if err != nil {
			c.TransitionTo(plan.CacheFailed)
			return err
		}
		c.TransitionTo(plan.CacheGeometryResolved)
		if err := ctx.VerifyFidelity(s); err != nil {
			c.TransitionTo(plan.CacheFailed)
			return err
		}
		e.contexts = append(e.contexts, ctx)
	}

	sort.SliceStable(e.contexts, func(a, b int) bool {
		ca, cb := e.contexts[a], e.contexts[b]
		if ca.TriggerPos != cb.TriggerPos {
			return ca.TriggerPos < cb.TriggerPos
		}
		return ca.Cache.HierarchyLevel() < cb.Cache.HierarchyLevel()
	})

	for _, ctx := range e.contexts {
		if err := e.materialize(ctx, lowered); err != nil {
			ctx.Cache.TransitionTo(plan.CacheFailed)
			return err
		}
		ctx.Cache.TransitionTo(plan.CacheCopyEmitted)
	}
	return nil
}

// materialize emits one cache into the block enclosing the trigger loop:
// buffer allocation, fill ops and the region-begin marker right before the
// loop, the region-end marker and drain ops right after it. The trigger loop
// itself is inside the region: the cache covers its whole subtree.
func (e *Engine) materialize(ctx *AccessContext, lowered *LoweredNest) error {
	c := ctx.Cache
	trigger := lowered.LoopOps[ctx.Trigger]
	if trigger == nil {
		return errors.Errorf("cache %s: trigger %s was not lowered to a loop", c.ID(), ctx.Trigger)
	}
	base := c.Array()

	if c.Thrifty() && ctx.thriftyElidable() {
		// The cache would be a verbatim contiguous image of the source: keep
		// the region markers (the mapping pass still runs, with identity
		// maps) but emit no buffer and no copies.
		klog.V(2).Infof("cache %s: thrifty elision, source already has the required layout", c.ID())
		e.buffers[c] = base
		begin := &ir.Op{
			Kind:   ir.OpCacheRegionBegin,
			Arrays: []*ir.Array{base, base},
			Maps:   []ir.AffineMap{ctx.SourceMap, ctx.SourceMap, ir.IdentityMap(base.Rank())},
			Ref:    c,
		}
		end := &ir.Op{Kind: ir.OpCacheRegionEnd, Arrays: []*ir.Array{base}, Ref: c}
		if err := e.builder.InsertBefore(begin, trigger); err != nil {
			return err
		}
		return e.insertDrainGroup(trigger, []*ir.Op{end})
	}

	if c.PackingFn() != "" {
		return e.materializeRuntimeInit(ctx, trigger)
	}

	// Copies read from / write back to the enclosing cache when this is a
	// cache-of-cache, but region markers always name the root array: proper
	// nesting is per base array.
	copyPeer := base
	if parent := c.Parent(); parent != nil {
		copyPeer = e.buffers[parent]
		if copyPeer == nil {
			return errors.Errorf("cache %s: parent cache %s has no materialized buffer", c.ID(), parent.ID())
		}
	}

	dims := ctx.Dims
	if ctx.SliceLen > 1 {
		dims = append([]int64{ctx.SliceLen}, dims...)
	}
	if c.DoubleBuffer() {
		dims = append([]int64{2}, dims...)
	}
	buffer := ir.NewArray(cacheBufferName(c), base.DType, dims...)
	e.buffers[c] = buffer

	alloc := &ir.Op{
		Kind:   ir.OpAllocBuffer,
		Arrays: []*ir.Array{buffer},
		Ints:   []int64{int64(c.MemorySpace())},
	}
	if err := e.builder.InsertBefore(alloc, trigger); err != nil {
		return err
	}

	// Double buffering: the fill writes slot t%2 for trigger iteration t,
	// one iteration ahead; the region and the drain read the slot filled on
	// the previous iteration, parity offset 1.
	var fillParity, drainParity []int64
	if c.DoubleBuffer() {
		fillParity, drainParity = []int64{0}, []int64{1}
	}

	var fillOps []*ir.Op
	switch ctx.Usage {
	case UsageRead, UsageReadWrite:
		fillOps = append(fillOps, &ir.Op{
			Kind:   ir.OpCopyIn,
			Arrays: []*ir.Array{copyPeer, buffer},
			Maps:   []ir.AffineMap{ctx.SourceMap, ctx.CacheMap},
			Ints:   fillParity,
			Syms:   ctx.SliceSyms,
		})
	case UsageAccumulate:
		fillOps = append(fillOps, &ir.Op{
			Kind:   ir.OpZeroFill,
			Arrays: []*ir.Array{buffer},
			Ints:   fillParity,
		})
	}

	beginArrays := []*ir.Array{base, buffer}
	if c.DoubleBuffer() {
		shadow := ir.NewArray(buffer.Name+"_next", base.DType, dims...)
		beginArrays = append(beginArrays, shadow)
	}
	fillOps = append(fillOps, &ir.Op{
		Kind:   ir.OpCacheRegionBegin,
		Arrays: beginArrays,
		Maps:   []ir.AffineMap{ctx.SourceMap, ctx.CacheMap, ctx.CacheToSource},
		Ints:   drainParity,
		Syms:   ctx.SliceSyms,
		Ref:    c,
	})
	for _, op := range fillOps {
		if err := e.builder.InsertBefore(op, trigger); err != nil {
			return err
		}
	}

	drainOps := []*ir.Op{{Kind: ir.OpCacheRegionEnd, Arrays: []*ir.Array{base}, Ref: c}}
	switch ctx.Usage {
	case UsageReadWrite:
		drainOps = append(drainOps, &ir.Op{
			Kind:   ir.OpCopyOut,
			Arrays: []*ir.Array{copyPeer, buffer},
			Maps:   []ir.AffineMap{ctx.SourceMap, ctx.CacheMap},
			Ints:   drainParity,
			Syms:   ctx.SliceSyms,
		})
	case UsageAccumulate:
		drainOps = append(drainOps, &ir.Op{
			Kind:   ir.OpReduce,
			Arrays: []*ir.Array{copyPeer, buffer},
			Maps:   []ir.AffineMap{ctx.SourceMap, ctx.CacheMap},
			Ints:   drainParity,
			Syms:   ctx.SliceSyms,
		})
	}
	if err := e.insertDrainGroup(trigger, drainOps); err != nil {
		return err
	}
	klog.V(2).Infof("cache %s: emitted %s cache %v (%s) at trigger %s",
		c.ID(), ctx.Usage, ctx.Dims, c.MemorySpace(), ctx.Trigger)
	return nil
}

// materializeRuntimeInit handles runtime-initialized caches: the packing
// helper provides the buffer, so the engine emits a single call before the
// trigger loop plus the region markers.
func (e *Engine) materializeRuntimeInit(ctx *AccessContext, trigger *ir.Op) error {
	c := ctx.Cache
	base := c.Array()
	buffer := ir.NewArray(cacheBufferName(c), base.DType, ctx.Dims...)
	if g := c.Global(); g != nil {
		buffer = g.Array
	}
	e.buffers[c] = buffer

	call := &ir.Op{
		Kind:   ir.OpCall,
		Label:  c.PackingFn(),
		Arrays: []*ir.Array{base, buffer},
	}
	if err := e.builder.InsertBefore(call, trigger); err != nil {
		return err
	}
	begin := &ir.Op{
		Kind:   ir.OpCacheRegionBegin,
		Arrays: []*ir.Array{base, buffer},
		Maps:   []ir.AffineMap{ctx.SourceMap, ctx.CacheMap, ctx.CacheToSource},
		Ref:    c,
	}
	if err := e.builder.InsertBefore(begin, trigger); err != nil {
		return err
	}
	return e.insertDrainGroup(trigger, []*ir.Op{{Kind: ir.OpCacheRegionEnd, Arrays: []*ir.Array{base}, Ref: c}})
}

// thriftyElidable reports whether the cache would be an identity,
// contiguous-in-order image of the source region.
func (ctx *AccessContext) thriftyElidable() bool {
	if ctx.Cache.DimensionOrder() != nil || !ctx.Cache.MemoryMap().IsZero() {
		return false
	}
	if ctx.SliceLen > 1 || ctx.Cache.DoubleBuffer() {
		return false
	}
	if !ctx.CacheToSource.IsIdentity() {
		return false
	}
	return ctx.Cache.Array().BlockContiguous(ctx.Dims)
}

// insertDrainGroup places one cache's drain ops (region end first, then the
// copy-out or reduce) right after the trigger loop, before drains of earlier
// (enclosing) caches at the same loop, so that later caches close and flush
// their regions inside the enclosing one.
func (e *Engine) insertDrainGroup(trigger *ir.Op, ops []*ir.Op) error {
	anchor, found := e.drainAnchors[trigger]
	if !found {
		anchor = successorOf(trigger)
	}
	for _, op := range ops {
		if anchor == nil {
			e.builder.Push(trigger.Parent())
			e.builder.Emit(op)
			e.builder.Pop()
			continue
		}
		if err := e.builder.InsertBefore(op, anchor); err != nil {
			return err
		}
	}
	e.drainAnchors[trigger] = ops[0]
	return nil
}

// successorOf returns the op following op in its parent block, or nil when op
// is last.
func successorOf(op *ir.Op) *ir.Op {
	block := op.Parent()
	for ii, o := range block.Ops {
		if o == op && ii+1 < len(block.Ops) {
			return block.Ops[ii+1]
		}
	}
	return nil
}
