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
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/Arslan-e-Mustafa/Accera/internal/scoped"
	"github.com/Arslan-e-Mustafa/Accera/ir"
	"github.com/Arslan-e-Mustafa/Accera/plan"
)

// applyCacheMappings lowers the region markers: every access to a base array
// between a begin/end pair is rewritten to go through the cache buffer, with
// the cache coordinate map attached. Regions are checked for proper nesting
// first; the rewrite itself processes innermost regions before enclosing
// ones, so an access always binds to its nearest enclosing cache.
func applyCacheMappings(b *ir.Builder, fn *ir.Func, contexts []*AccessContext) error {
	if err := checkRegionBalance(fn); err != nil {
		return err
	}
	byCache := make(map[*plan.Cache]*AccessContext, len(contexts))
	for _, ctx := range contexts {
		byCache[ctx.Cache] = ctx
	}
	_, err := ir.ApplyPatterns(b, fn, regionLowering{byCache: byCache})
	return err
}

// regionLowering rewrites one innermost cache region at a time: fixed-point
// application works outward until no marker is left.
type regionLowering struct {
	byCache map[*plan.Cache]*AccessContext
}

func (regionLowering) Name() string { return "lower-cache-region" }

func (p regionLowering) Match(op *ir.Op) bool {
	if op.Kind != ir.OpCacheRegionBegin {
		return false
	}
	span, err := regionSpan(op)
	if err != nil {
		// Leave malformed regions in place: the completion verifier reports
		// them.
		return false
	}
	return !containsInnerRegion(span, regionCache(op).Array())
}

func (p regionLowering) Rewrite(b *ir.Builder, begin *ir.Op) error {
	c := regionCache(begin)
	ctx := p.byCache[c]
	if ctx == nil {
		return errors.Wrapf(ErrMalformedCacheRegion,
			"region marker for cache %s has no resolved access context", c.ID())
	}
	span, err := regionSpan(begin)
	if err != nil {
		return err
	}
	base := c.Array()
	buffer := begin.Arrays[1]
	rewritten := 0
	for _, op := range span[1 : len(span)-1] {
		rewritten += rewriteAccesses(op, base, buffer, ctx.CacheMap)
	}
	klog.V(2).Infof("cache %s: mapped %d accesses of %s to %s", c.ID(), rewritten, base, buffer)
	c.TransitionTo(plan.CacheMappingApplied)
	span[len(span)-1].EraseFromParent()
	begin.EraseFromParent()
	return nil
}

// regionCache returns the cache a region marker belongs to.
func regionCache(op *ir.Op) *plan.Cache {
	c, _ := op.Ref.(*plan.Cache)
	return c
}

// regionSpan returns the ops from begin to its matching end marker, both
// inclusive, in begin's block. A begin with no end in the same block is
// malformed: markers never cross block boundaries.
func regionSpan(begin *ir.Op) ([]*ir.Op, error) {
	block := begin.Parent()
	if block == nil {
		return nil, errors.Wrapf(ErrMalformedCacheRegion, "region begin for cache %s is detached", regionCache(begin).ID())
	}
	start := -1
	for ii, op := range block.Ops {
		if op == begin {
			start = ii
			continue
		}
		if start >= 0 && op.Kind == ir.OpCacheRegionEnd && regionCache(op) == regionCache(begin) {
			return block.Ops[start : ii+1], nil
		}
	}
	return nil, errors.Wrapf(ErrMalformedCacheRegion,
		"region for cache %s of %s is never closed in its block", regionCache(begin).ID(), regionCache(begin).Array())
}

// containsInnerRegion reports whether the span holds another region begin for
// the same base array, at this block level or nested.
func containsInnerRegion(span []*ir.Op, base *ir.Array) bool {
	found := false
	for _, op := range span[1 : len(span)-1] {
		for _, block := range op.Blocks {
			_ = ir.WalkOps(block, func(inner *ir.Op) error {
				if inner.Kind == ir.OpCacheRegionBegin && regionCache(inner).Array() == base {
					found = true
				}
				return nil
			})
		}
		if op.Kind == ir.OpCacheRegionBegin && regionCache(op).Array() == base {
			found = true
		}
	}
	return found
}

// rewriteAccesses substitutes base with buffer in the op's compute accesses
// (descending into nested blocks) and aligns the coordinate map. It returns
// the number of substitutions.
func rewriteAccesses(root *ir.Op, base, buffer *ir.Array, cacheMap ir.AffineMap) int {
	count := 0
	rewriteOne := func(op *ir.Op) {
		if op.Kind != ir.OpCompute {
			return
		}
		for ii, a := range op.Arrays {
			if a != base {
				continue
			}
			if op.Maps == nil {
				op.Maps = make([]ir.AffineMap, len(op.Arrays))
			}
			op.Arrays[ii] = buffer
			op.Maps[ii] = cacheMap
			count++
		}
	}
	rewriteOne(root)
	for _, block := range root.Blocks {
		_ = ir.WalkOps(block, func(op *ir.Op) error {
			rewriteOne(op)
			return nil
		})
	}
	return count
}

// checkRegionBalance walks the function once, pushing each region begin on a
// per-base-array scoped stack and popping it at the end marker. Unbalanced or
// interleaved markers are collected and reported together.
func checkRegionBalance(fn *ir.Func) error {
	stack := scoped.New[*ir.Array, *plan.Cache]()
	tokens := make(map[*plan.Cache]scoped.Token)
	var errs error

	var walk func(block *ir.Block)
	walk = func(block *ir.Block) {
		for _, op := range block.Ops {
			switch op.Kind {
			case ir.OpCacheRegionBegin:
				c := regionCache(op)
				tokens[c] = stack.Enter(c.Array(), c)
			case ir.OpCacheRegionEnd:
				c := regionCache(op)
				top, found := stack.Top(c.Array())
				if !found {
					errs = multierr.Append(errs, errors.Wrapf(ErrMalformedCacheRegion,
						"region end for cache %s of %s has no open region", c.ID(), c.Array()))
					continue
				}
				if top != c {
					errs = multierr.Append(errs, errors.Wrapf(ErrMalformedCacheRegion,
						"region end for cache %s interleaves with open cache %s of %s", c.ID(), top.ID(), c.Array()))
					continue
				}
				if err := stack.Release(c.Array(), tokens[c]); err != nil {
					errs = multierr.Append(errs, errors.Wrapf(ErrMalformedCacheRegion, "%v", err))
				}
			}
			for _, nested := range op.Blocks {
				walk(nested)
			}
		}
	}
	walk(fn.Body)

	for _, base := range stack.OpenKeys() {
		c, _ := stack.Top(base)
		errs = multierr.Append(errs, errors.Wrapf(ErrMalformedCacheRegion,
			"region for cache %s of %s is never closed", c.ID(), base))
	}
	return errs
}

// verifyPassCompletion re-checks, after the mapping pass, that no region
// marker survived and that every cache reached the mapped state. Independent
// failures are aggregated.
func verifyPassCompletion(fn *ir.Func, caches []*plan.Cache) error {
	var errs error
	_ = ir.WalkOps(fn.Body, func(op *ir.Op) error {
		if op.Kind == ir.OpCacheRegionBegin || op.Kind == ir.OpCacheRegionEnd {
			errs = multierr.Append(errs, errors.Wrapf(ErrMalformedCacheRegion,
				"residual %s for cache %s of %s after the mapping pass",
				op.Kind, regionCache(op).ID(), regionCache(op).Array()))
		}
		return nil
	})
	for _, c := range caches {
		if c.State() != plan.CacheMappingApplied {
			errs = multierr.Append(errs, errors.Errorf(
				"cache %s of %s finished the pass in state %s, want %s",
				c.ID(), c.Array(), c.State(), plan.CacheMappingApplied))
		}
	}
	return errs
}
