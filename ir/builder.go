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

package ir

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Builder is the single mutable cursor through which the lowering pass inserts
// operations. There must be no concurrent writers: passes that materialize
// caches sharing a base array must serialize on one Builder.
type Builder struct {
	module *Module
	fn     *Func
	stack  []*Block
	nextID int
}

// NewBuilder creates a builder over the given module.
func NewBuilder(module *Module) *Builder {
	if module == nil {
		exceptions.Panicf("ir.NewBuilder: module is nil")
	}
	return &Builder{module: module}
}

// Module returns the module being built.
func (b *Builder) Module() *Module { return b.module }

// NewFunc creates a function, declares its symbol and moves the cursor to its
// body.
func (b *Builder) NewFunc(name string) (*Func, error) {
	if err := b.module.DeclareSymbol(name, SymbolFunc); err != nil {
		return nil, err
	}
	f := &Func{Name: name, Body: &Block{}, module: b.module}
	b.module.Funcs = append(b.module.Funcs, f)
	b.fn = f
	b.stack = []*Block{f.Body}
	return f, nil
}

// Func returns the function currently being built.
func (b *Builder) Func() *Func { return b.fn }

// Cursor returns the block new ops are appended to.
func (b *Builder) Cursor() *Block {
	if len(b.stack) == 0 {
		exceptions.Panicf("ir.Builder: no insertion point, call NewFunc first")
	}
	return b.stack[len(b.stack)-1]
}

// Push moves the cursor into the given block. Use it to fill the body of a
// just-emitted structured op; match it with Pop.
func (b *Builder) Push(block *Block) { b.stack = append(b.stack, block) }

// Pop restores the cursor to the enclosing block.
func (b *Builder) Pop() {
	if len(b.stack) <= 1 {
		exceptions.Panicf("ir.Builder.Pop: cursor already at the function body")
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// Depth returns how many nested blocks the cursor is in, the function body
// being depth 1.
func (b *Builder) Depth() int { return len(b.stack) }

// Emit appends op at the cursor and returns it.
func (b *Builder) Emit(op *Op) *Op {
	if op.Kind == OpInvalid {
		exceptions.Panicf("ir.Builder.Emit: op has no kind set")
	}
	block := b.Cursor()
	b.nextID++
	op.id = b.nextID
	op.parent = block
	block.Ops = append(block.Ops, op)
	return op
}

// InsertBefore inserts op just before ref in ref's parent block.
func (b *Builder) InsertBefore(op, ref *Op) error {
	if ref.parent == nil {
		return errors.Errorf("ir.Builder.InsertBefore: reference op %s is detached", ref)
	}
	b.nextID++
	op.id = b.nextID
	return ref.parent.insertBefore(op, ref)
}
