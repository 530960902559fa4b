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

// Package ir is the in-memory intermediate representation consumed by the
// scheduling and caching layers, and the boundary to whatever toolkit lowers it
// further (instruction selection, GPU backends, serialization are not here).
//
// The model is deliberately small:
//
//   - Module: top-level container with a symbol table and packed global buffers.
//   - Func: a named body of operations.
//   - Op: one operation. Op payloads are generic (Ints, Arrays, Maps, Syms, Ref)
//     rather than one struct per kind; the layout per OpKind is documented below.
//   - Block: an ordered list of ops; ops with structured bodies (loops, parallel
//     regions, kernel launches) own nested blocks.
//   - Builder: the single mutable cursor through which all insertion happens.
//   - Pattern/ApplyPatterns: a generic rewrite facility, used by the cache
//     mapping pass to lower region markers into concrete substitutions.
package ir

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

//go:generate go tool enumer -type=OpKind -trimprefix=Op -output=gen_opkind_enumer.go ir.go

// OpKind enumerates the operations the scheduling/caching core emits.
type OpKind int

const (
	OpInvalid OpKind = iota

	// OpLoop is a sequential loop. Ints = {begin, end, step, clipped} where
	// clipped is 1 when the last iteration of the parent split loop must clip
	// this loop's extent to the remainder. One nested block (the body).
	OpLoop

	// OpParallel is a collapsed parallel region. Ints = {numThreads, policy}.
	// One nested block holding the collapsed loops.
	OpParallel

	// OpVectorLoop is a vectorized (or unroll-only) innermost loop.
	// Ints = {begin, end, step, clipped, vectorBytes, vectorUnitCount, unrollOnly}.
	OpVectorLoop

	// OpKernelLaunch wraps a GPU kernel body.
	// Ints = {gridX, gridY, gridZ, blockX, blockY, blockZ}.
	OpKernelLaunch

	// OpCompute is the innermost computation. Ref holds the kernel description,
	// Arrays the accessed arrays (substituted in place by the mapping pass,
	// with Maps aligned to Arrays carrying the cache coordinate maps).
	// Ints = {selectorValue} when the op is guarded by a fusion selector.
	OpCompute

	// OpAllocBuffer allocates a cache buffer. Arrays = {buffer},
	// Ints = {memorySpace}.
	OpAllocBuffer

	// OpZeroFill zero-fills a cache buffer. Arrays = {buffer}.
	OpZeroFill

	// OpCopyIn copies the active region of a base array into a cache buffer.
	// Arrays = {base, buffer}, Maps = {sourceMap, cacheMap},
	// Ints = {parityOffset} when double-buffered, Syms = multi-cache slice
	// index names. The buffer holds a uniform tile; the transferred region is
	// the tile intersected with the source array bounds, so a boundary tile
	// (a split whose factor does not divide the source extent) moves only the
	// remainder. Backends clamp against Arrays[0].Dims, mirroring the clipped
	// compute loop.
	OpCopyIn

	// OpCopyOut copies a cache buffer back to the active region of the base
	// array. Same payload layout and boundary clamping as OpCopyIn, direction
	// reversed.
	OpCopyOut

	// OpReduce is a copy-out combined with accumulation into the base array.
	// Same layout as OpCopyOut; Syms may additionally carry a scale symbol.
	OpReduce

	// OpCacheRegionBegin opens a cache mapping region: every access to the base
	// array until the matching OpCacheRegionEnd is rewritten to the cache.
	// Arrays = {base, buffer} ({base, buffer, shadow} when double-buffered),
	// Maps = {sourceMap, cacheMap, cacheToSource}, Ref = the cache,
	// Ints = {parityOffset} when double-buffered.
	OpCacheRegionBegin

	// OpCacheRegionEnd closes the innermost open region of the same cache.
	// Arrays = {base}, Ref = the cache.
	OpCacheRegionEnd

	// OpCall invokes a symbol (e.g. a packing helper). Label = callee.
	OpCall
)

// Op is one operation of the IR. See the OpKind constants for the per-kind
// payload layout.
type Op struct {
	Kind   OpKind
	Label  string
	Ints   []int64
	Arrays []*Array
	Maps   []AffineMap
	Syms   []string
	Ref    any
	Blocks []*Block

	id     int
	parent *Block
}

// Parent returns the block holding this op, or nil if the op is detached.
func (op *Op) Parent() *Block { return op.parent }

// Body returns the first nested block, creating it if needed. Loops, parallel
// regions and kernel launches keep their body there.
func (op *Op) Body() *Block {
	if len(op.Blocks) == 0 {
		op.Blocks = append(op.Blocks, &Block{owner: op})
	}
	return op.Blocks[0]
}

// EraseFromParent detaches the op from its parent block.
func (op *Op) EraseFromParent() {
	if op.parent == nil {
		return
	}
	op.parent.remove(op)
	op.parent = nil
}

func (op *Op) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", op.Kind)
	if op.Label != "" {
		fmt.Fprintf(&b, " %q", op.Label)
	}
	if len(op.Ints) > 0 {
		fmt.Fprintf(&b, " ints=%v", op.Ints)
	}
	for _, a := range op.Arrays {
		fmt.Fprintf(&b, " %s", a)
	}
	if len(op.Syms) > 0 {
		fmt.Fprintf(&b, " syms=%v", op.Syms)
	}
	return b.String()
}

// Block is an ordered list of operations.
type Block struct {
	Ops []*Op

	owner *Op
}

// Owner returns the op whose body this block is, or nil for a function body.
func (b *Block) Owner() *Op { return b.owner }

func (b *Block) remove(op *Op) {
	for ii, o := range b.Ops {
		if o == op {
			b.Ops = append(b.Ops[:ii], b.Ops[ii+1:]...)
			return
		}
	}
}

// insertBefore inserts newOp just before ref; ref must be in the block.
func (b *Block) insertBefore(newOp, ref *Op) error {
	for ii, o := range b.Ops {
		if o == ref {
			b.Ops = append(b.Ops[:ii], append([]*Op{newOp}, b.Ops[ii:]...)...)
			newOp.parent = b
			return nil
		}
	}
	return errors.Errorf("ir: insertBefore: reference op %s not found in block", ref)
}

// Func is a named body of operations inside a Module.
type Func struct {
	Name string
	Body *Block

	module *Module
}

// Module returns the module owning this function.
func (f *Func) Module() *Module { return f.module }

// SymbolKind tags entries of the module symbol table.
type SymbolKind int

const (
	SymbolFunc SymbolKind = iota
	SymbolGlobal
)

// Global is a packed constant buffer embedded in the module.
type Global struct {
	Name  string
	Array *Array
	Data  any
}

// Module is the top-level IR container: functions, globals and the symbol
// table naming them.
type Module struct {
	Name    string
	Funcs   []*Func
	Globals []*Global

	symbols map[string]SymbolKind
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, symbols: make(map[string]SymbolKind)}
}

// DeclareSymbol registers name in the module symbol table. Redeclaring a name
// is an error regardless of kind.
func (m *Module) DeclareSymbol(name string, kind SymbolKind) error {
	if name == "" {
		return errors.Errorf("ir: cannot declare an empty symbol name in module %q", m.Name)
	}
	if prev, found := m.symbols[name]; found {
		return errors.Errorf("ir: symbol %q already declared in module %q (as kind %d)", name, m.Name, prev)
	}
	m.symbols[name] = kind
	return nil
}

// HasSymbol reports whether name is declared in the module.
func (m *Module) HasSymbol(name string) bool {
	_, found := m.symbols[name]
	return found
}

// AddGlobal declares the global's name and appends it to the module.
func (m *Module) AddGlobal(g *Global) error {
	if err := m.DeclareSymbol(g.Name, SymbolGlobal); err != nil {
		return err
	}
	m.Globals = append(m.Globals, g)
	return nil
}

// WalkOps visits every op under block in pre-order, descending into nested
// blocks. It stops and returns the first error fn reports.
func WalkOps(block *Block, fn func(op *Op) error) error {
	// Iterate over a snapshot: fn may erase the op it is given.
	ops := make([]*Op, len(block.Ops))
	copy(ops, block.Ops)
	for _, op := range ops {
		if err := fn(op); err != nil {
			return err
		}
		for _, nested := range op.Blocks {
			if err := WalkOps(nested, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// String renders the module as an indented textual dump, for diagnostics only.
func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %q\n", m.Name)
	for _, g := range m.Globals {
		fmt.Fprintf(&b, "  global %q = %s\n", g.Name, g.Array)
	}
	for _, f := range m.Funcs {
		fmt.Fprintf(&b, "  func %q\n", f.Name)
		dumpBlock(&b, f.Body, 2)
	}
	return b.String()
}

func dumpBlock(b *strings.Builder, block *Block, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, op := range block.Ops {
		fmt.Fprintf(b, "%s%s\n", indent, op)
		for _, nested := range op.Blocks {
			dumpBlock(b, nested, depth+1)
		}
	}
}
