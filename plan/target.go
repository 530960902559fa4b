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

import "fmt"

// Dim3 is a 3-dimensional launch size, x innermost.
type Dim3 struct {
	X, Y, Z int64
}

// MakeDim3 builds a Dim3, filling missing trailing dimensions with 1.
func MakeDim3(dims ...int64) Dim3 {
	d := Dim3{X: 1, Y: 1, Z: 1}
	if len(dims) > 0 {
		d.X = dims[0]
	}
	if len(dims) > 1 {
		d.Y = dims[1]
	}
	if len(dims) > 2 {
		d.Z = dims[2]
	}
	return d
}

// Size returns the total number of points of the launch dimension.
func (d Dim3) Size() int64 { return d.X * d.Y * d.Z }

func (d Dim3) String() string { return fmt.Sprintf("(%d, %d, %d)", d.X, d.Y, d.Z) }

// Target is the execution target of a plan. It is a closed sum: CPU or GPU.
// A target never carries optional GPU fields on a CPU value; the two cases
// are distinct types selected with a type switch.
type Target interface {
	isTarget()
	String() string
}

// CPU targets the host processor.
type CPU struct{}

func (CPU) isTarget()      {}
func (CPU) String() string { return "CPU" }

// GPU targets a device with the given launch geometry.
type GPU struct {
	Grid  Dim3 // blocks per grid
	Block Dim3 // threads per block
}

func (GPU) isTarget() {}

func (g GPU) String() string {
	return fmt.Sprintf("GPU(grid=%s, block=%s)", g.Grid, g.Block)
}

// Runtime is the execution regime the lowered code runs under. It is derived
// from the target and the plan's annotations, never set directly.
type Runtime int

//go:generate go tool enumer -type=Runtime -trimprefix=Runtime -output=gen_runtime_enumer.go target.go

const (
	// RuntimeDefault is plain sequential loops.
	RuntimeDefault Runtime = iota
	// RuntimeSIMD is used when at least one loop is vectorized.
	RuntimeSIMD
	// RuntimeThreadPool is used when at least one loop is parallelized.
	RuntimeThreadPool
	// RuntimeKernelLaunch is used for GPU targets.
	RuntimeKernelLaunch
)

// MemorySpace is where a cache buffer lives.
type MemorySpace int

//go:generate go tool enumer -type=MemorySpace -trimprefix=MemorySpace -output=gen_memoryspace_enumer.go target.go

const (
	// MemorySpaceNone lets the materialization engine choose.
	MemorySpaceNone MemorySpace = iota
	MemorySpaceGlobal
	MemorySpaceShared
	MemorySpacePrivate
)

// Processor is a hardware axis a loop index can be bound to on a GPU.
type Processor int

//go:generate go tool enumer -type=Processor -trimprefix=Processor -output=gen_processor_enumer.go target.go

const (
	ProcessorSequential Processor = iota
	ProcessorBlockX
	ProcessorBlockY
	ProcessorBlockZ
	ProcessorThreadX
	ProcessorThreadY
	ProcessorThreadZ
)

// LaunchExtent returns the extent the processor axis has under the GPU launch
// geometry, or 0 for the sequential pseudo-processor.
func (g GPU) LaunchExtent(p Processor) int64 {
	switch p {
	case ProcessorBlockX:
		return g.Grid.X
	case ProcessorBlockY:
		return g.Grid.Y
	case ProcessorBlockZ:
		return g.Grid.Z
	case ProcessorThreadX:
		return g.Block.X
	case ProcessorThreadY:
		return g.Block.Y
	case ProcessorThreadZ:
		return g.Block.Z
	}
	return 0
}
