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

// Package plan layers target-specific execution decisions on top of a
// schedule: vectorization, parallelization, GPU processor bindings and cache
// declarations. A Plan never changes the iteration order, only how the
// ordered loops execute and where their data lives.
package plan

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Arslan-e-Mustafa/Accera/loopnest"
)

var (
	// ErrInvalidTarget is returned for an operation the plan's target cannot
	// express, e.g. a processor binding on a CPU plan.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrNonContiguousParallelization is returned when the indices handed to
	// Parallelize are not adjacent in the current schedule order.
	ErrNonContiguousParallelization = errors.New("non-contiguous parallelization")

	// ErrDuplicateProcessorMapping is returned when a processor axis or an
	// index is bound twice.
	ErrDuplicateProcessorMapping = errors.New("duplicate processor mapping")
)

// Type aliases so plan users don't need to import loopnest for the common
// annotation payloads.
type (
	VectorizationInfo     = loopnest.VectorizationInfo
	ParallelizationInfo   = loopnest.ParallelizationInfo
	ParallelizationPolicy = loopnest.ParallelizationPolicy
)

const (
	PolicyStatic  = loopnest.PolicyStatic
	PolicyDynamic = loopnest.PolicyDynamic
)

// Plan is the execution plan of one schedule. The target is fixed at
// construction; annotations accumulate until lowering materializes the plan.
type Plan struct {
	id       uuid.UUID
	schedule *loopnest.Schedule
	target   Target

	procToIndex map[Processor]*loopnest.Index
	indexToProc map[*loopnest.Index]Processor
	vectorized  *loopnest.Index
	caches      []*Cache
}

// New creates a CPU plan for the schedule.
func New(s *loopnest.Schedule) *Plan {
	return NewFor(s, CPU{})
}

// NewFor creates a plan for the schedule on the given target.
func NewFor(s *loopnest.Schedule, target Target) *Plan {
	return &Plan{
		id:          uuid.New(),
		schedule:    s,
		target:      target,
		procToIndex: make(map[Processor]*loopnest.Index),
		indexToProc: make(map[*loopnest.Index]Processor),
	}
}

// ID returns the unique id of the plan, used in generated symbol names.
func (p *Plan) ID() uuid.UUID { return p.id }

// Schedule returns the schedule this plan executes.
func (p *Plan) Schedule() *loopnest.Schedule { return p.schedule }

// Target returns the execution target fixed at construction.
func (p *Plan) Target() Target { return p.target }

// GPU returns the GPU target, or ok=false for CPU plans.
func (p *Plan) GPU() (gpu GPU, ok bool) {
	gpu, ok = p.target.(GPU)
	return
}

// Runtime derives the execution regime from the target and the annotations
// attached so far: GPU plans launch kernels; parallelized CPU plans run on a
// thread pool; vectorized ones under SIMD; everything else is plain loops.
// ThreadPool wins over SIMD since vector loops nest inside parallel regions.
func (p *Plan) Runtime() Runtime {
	if _, ok := p.target.(GPU); ok {
		return RuntimeKernelLaunch
	}
	hasVector := false
	for _, ix := range p.schedule.Order() {
		attrs := p.schedule.Attributes(ix)
		if attrs == nil {
			continue
		}
		if attrs.Parallelization != nil {
			return RuntimeThreadPool
		}
		if attrs.Vectorization != nil && !attrs.Vectorization.UnrollOnly {
			hasVector = true
		}
	}
	if hasVector {
		return RuntimeSIMD
	}
	return RuntimeDefault
}

// Vectorize asks for the index's loop to execute with vector instructions.
// The index must be currently schedulable (splitting it afterwards discards
// nothing, but the annotation stays on the now-retired parent and is ignored,
// so vectorize leaves, not parents). A plan carries at most one vectorized
// index: a later Vectorize on a different index moves the request there. On
// GPU targets the request is recorded as an advisory only: the device backend
// vectorizes on its own terms and may drop it, which is logged, never an
// error.
func (p *Plan) Vectorize(ix *loopnest.Index, info VectorizationInfo) error {
	if info.VectorBytes <= 0 {
		return errors.Errorf("Vectorize(%s): VectorBytes must be positive, got %d", ix, info.VectorBytes)
	}
	if _, ok := p.target.(GPU); ok {
		klog.V(1).Infof("plan %s: vectorization of %s on %s is advisory, the device backend may drop it",
			p.id, ix, p.target)
	}
	if err := p.schedule.SetVectorization(ix, info); err != nil {
		return err
	}
	if p.vectorized != nil && p.vectorized != ix {
		klog.V(1).Infof("plan %s: vectorization moves from %s to %s", p.id, p.vectorized, ix)
		p.schedule.ClearVectorization(p.vectorized)
	}
	p.vectorized = ix
	return nil
}

// Parallelize distributes a run of loops over numThreads threads. The indices
// must be contiguous in the current schedule order (in any order among
// themselves); lowering collapses them into a single parallel region.
func (p *Plan) Parallelize(indices []*loopnest.Index, numThreads int64, policy ParallelizationPolicy) error {
	if len(indices) == 0 {
		return errors.Errorf("Parallelize: no indices given")
	}
	if numThreads <= 0 {
		return errors.Errorf("Parallelize: NumThreads must be positive, got %d", numThreads)
	}
	positions := make([]int, len(indices))
	for ii, ix := range indices {
		pos := p.schedule.Position(ix)
		if pos < 0 {
			return errors.Wrapf(ErrNonContiguousParallelization, "index %s is not schedulable", ix)
		}
		positions[ii] = pos
	}
	min, max := positions[0], positions[0]
	for _, pos := range positions[1:] {
		if pos < min {
			min = pos
		}
		if pos > max {
			max = pos
		}
	}
	if max-min+1 != len(indices) {
		order := p.schedule.Order()
		return errors.Wrapf(ErrNonContiguousParallelization,
			"indices span schedule positions [%d, %d] of order %v but only %d were given",
			min, max, order, len(indices))
	}
	info := ParallelizationInfo{NumThreads: numThreads, Policy: policy}
	for _, ix := range indices {
		if err := p.schedule.SetParallelization(ix, info); err != nil {
			return err
		}
	}
	return nil
}

// MapIndexToProcessor binds a loop index to a GPU processor axis. CPU plans
// have no processor axes; each axis and each index binds at most once.
// ProcessorSequential is itself an assignable axis: it pins the index to a
// plain device-side loop.
func (p *Plan) MapIndexToProcessor(ix *loopnest.Index, proc Processor) error {
	if _, ok := p.target.(GPU); !ok {
		return errors.Wrapf(ErrInvalidTarget, "cannot bind %s to %s on a %s plan", ix, proc, p.target)
	}
	if !proc.IsAProcessor() {
		return errors.Wrapf(ErrInvalidTarget, "cannot bind %s to %s", ix, proc)
	}
	if p.schedule.Position(ix) < 0 {
		return errors.Errorf("MapIndexToProcessor(%s, %s): index is not schedulable", ix, proc)
	}
	if prev, bound := p.procToIndex[proc]; bound {
		return errors.Wrapf(ErrDuplicateProcessorMapping, "%s is already bound to %s", proc, prev)
	}
	if prev, bound := p.indexToProc[ix]; bound {
		return errors.Wrapf(ErrDuplicateProcessorMapping, "%s is already bound to %s", ix, prev)
	}
	p.procToIndex[proc] = ix
	p.indexToProc[ix] = proc
	return nil
}

// Processor returns the processor axis the index is bound to. Unbound indices
// report ProcessorSequential, same as an explicit sequential binding: both run
// as plain loops.
func (p *Plan) Processor(ix *loopnest.Index) Processor {
	proc, bound := p.indexToProc[ix]
	if !bound {
		return ProcessorSequential
	}
	return proc
}

// MappedIndex returns the index bound to the processor axis, or nil.
func (p *Plan) MappedIndex(proc Processor) *loopnest.Index {
	return p.procToIndex[proc]
}

// Caches returns the declared caches in declaration order.
func (p *Plan) Caches() []*Cache {
	out := make([]*Cache, len(p.caches))
	copy(out, p.caches)
	return out
}
