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
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Arslan-e-Mustafa/Accera/ir"
	"github.com/Arslan-e-Mustafa/Accera/loopnest"
	"github.com/Arslan-e-Mustafa/Accera/plan"
)

// LoweredNest is the IR image of one lowered plan: the function, plus the
// lookup tables later passes need to anchor cache emission.
type LoweredNest struct {
	Func *ir.Func

	// LoopOps maps each scheduled leaf index to the loop op iterating it.
	LoopOps map[*loopnest.Index]*ir.Op

	// ComputeOps are the innermost computation ops, one per scheduled kernel.
	ComputeOps []*ir.Op
}

// Lower materializes a plan end to end: it freezes the schedule, emits the
// loop nest in schedule order, materializes every declared cache, runs the
// region mapping pass and verifies pass completion. Failures are fatal to the
// pass; the IR is not usable after an error.
func Lower(b *ir.Builder, p *plan.Plan, fnName string) (*LoweredNest, error) {
	s := p.Schedule()
	s.Freeze()
	klog.V(1).Infof("lowering %q: runtime=%s target=%s, %d caches",
		fnName, p.Runtime(), p.Target(), len(p.Caches()))

	lowered, err := lowerLoops(b, p, fnName)
	if err != nil {
		return nil, err
	}

	engine := NewEngine(b, p)
	if err := engine.MaterializeAll(lowered); err != nil {
		return nil, err
	}
	if err := applyCacheMappings(b, lowered.Func, engine.Contexts()); err != nil {
		return nil, err
	}
	if err := verifyPassCompletion(lowered.Func, p.Caches()); err != nil {
		return nil, err
	}
	for _, c := range p.Caches() {
		c.TransitionTo(plan.CacheMaterialized)
	}
	return lowered, nil
}

// lowerLoops emits the function and its loop nest in schedule order: GPU
// plans get a kernel-launch wrapper, contiguous parallelized runs collapse
// into one parallel region, vectorized leaves become vector loops, and every
// scheduled kernel turns into one compute op at the innermost level.
func lowerLoops(b *ir.Builder, p *plan.Plan, fnName string) (*LoweredNest, error) {
	s := p.Schedule()
	fn, err := b.NewFunc(fnName)
	if err != nil {
		return nil, err
	}
	lowered := &LoweredNest{
		Func:    fn,
		LoopOps: make(map[*loopnest.Index]*ir.Op),
	}

	depth := b.Depth()
	if gpu, ok := p.GPU(); ok {
		launch := b.Emit(&ir.Op{
			Kind:  ir.OpKernelLaunch,
			Label: fnName + "_kernel",
			Ints:  []int64{gpu.Grid.X, gpu.Grid.Y, gpu.Grid.Z, gpu.Block.X, gpu.Block.Y, gpu.Block.Z},
		})
		b.Push(launch.Body())
	}

	order := s.Order()
	for pos := 0; pos < len(order); pos++ {
		ix := order[pos]
		attrs := s.Attributes(ix)

		// A run of adjacent parallelized loops collapses into one region.
		if attrs != nil && attrs.Parallelization != nil {
			if pos == 0 || !sameParallelization(s.Attributes(order[pos-1]), attrs) {
				info := attrs.Parallelization
				region := b.Emit(&ir.Op{
					Kind: ir.OpParallel,
					Ints: []int64{info.NumThreads, int64(info.Policy)},
				})
				b.Push(region.Body())
			}
		}

		loop, err := emitLoop(b, p, ix, attrs)
		if err != nil {
			return nil, err
		}
		lowered.LoopOps[ix] = loop
		b.Push(loop.Body())
	}

	for _, sk := range s.Kernels() {
		compute := &ir.Op{
			Kind:  ir.OpCompute,
			Label: sk.Kernel.Name,
			Ref:   sk.Kernel,
		}
		for _, a := range sk.Kernel.Arrays() {
			compute.Arrays = append(compute.Arrays, a)
		}
		if sk.SelectorValue >= 0 {
			compute.Ints = []int64{int64(sk.SelectorValue)}
		}
		lowered.ComputeOps = append(lowered.ComputeOps, b.Emit(compute))
	}

	for b.Depth() > depth {
		b.Pop()
	}
	return lowered, nil
}

// emitLoop lowers one scheduled index: a vector loop when annotated, a plain
// loop otherwise, with the GPU processor binding recorded on the op.
func emitLoop(b *ir.Builder, p *plan.Plan, ix *loopnest.Index, attrs *loopnest.LoopAttributes) (*ir.Op, error) {
	s := p.Schedule()
	r, found := s.Range(ix)
	if !found {
		return nil, errors.Errorf("lowering: index %s has no range in the schedule", ix)
	}
	ints := []int64{r.Begin, r.End, r.Increment, 0}
	if clippedInnerLoop(s, ix) {
		ints[3] = 1
	}

	kind := ir.OpLoop
	if attrs != nil && attrs.Vectorization != nil {
		v := attrs.Vectorization
		unroll := int64(0)
		if v.UnrollOnly {
			unroll = 1
		}
		kind = ir.OpVectorLoop
		ints = append(ints, int64(v.VectorBytes), int64(v.VectorUnitCount), unroll)
	}

	loop := &ir.Op{
		Kind:  kind,
		Label: ix.Name(),
		Ints:  ints,
		Ref:   ix,
	}
	if proc := p.Processor(ix); proc != plan.ProcessorSequential {
		loop.Syms = []string{proc.String()}
	}
	return b.Emit(loop), nil
}

// clippedInnerLoop reports whether ix is the inner child of a split whose
// factor does not divide the parent extent: its final tile must clip to the
// remainder.
func clippedInnerLoop(s *loopnest.Schedule, ix *loopnest.Index) bool {
	parent := ix.Parent()
	if parent == nil {
		return false
	}
	_, inner := s.Children(parent)
	if inner != ix {
		return false
	}
	parentRange, found := s.Range(parent)
	if !found {
		return false
	}
	innerRange, _ := s.Range(ix)
	return parentRange.Extent()%innerRange.Extent() != 0
}

func sameParallelization(prev *loopnest.LoopAttributes, cur *loopnest.LoopAttributes) bool {
	if prev == nil || prev.Parallelization == nil {
		return false
	}
	return *prev.Parallelization == *cur.Parallelization
}

// cacheBufferName generates the unique symbol of a cache buffer.
func cacheBufferName(c *plan.Cache) string {
	return fmt.Sprintf("%s_cache_%s", c.Array().Name, c.ID())
}
