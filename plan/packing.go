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
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Arslan-e-Mustafa/Accera/ir"
)

// EmitRuntimeInitPacking declares a runtime-initialized cache of the array:
// instead of the engine emitting copies, the caller provides a packing
// function (invoked once before the loop nest runs) and a size function. Both
// names are reserved in the module symbol table, so packing helpers stay
// unique per module.
func (p *Plan) EmitRuntimeInitPacking(m *ir.Module, a *ir.Array, packingFnName, packedBufferSizeFnName string, indexing CacheIndexing) (*Cache, error) {
	if m == nil {
		return nil, errors.Errorf("EmitRuntimeInitPacking: nil module")
	}
	if packingFnName == "" || packedBufferSizeFnName == "" {
		return nil, errors.Errorf("EmitRuntimeInitPacking(%s): packing and size function names must be non-empty", a)
	}
	if err := m.DeclareSymbol(packingFnName, ir.SymbolFunc); err != nil {
		return nil, err
	}
	if err := m.DeclareSymbol(packedBufferSizeFnName, ir.SymbolFunc); err != nil {
		return nil, err
	}
	c, err := p.Cache(a).Allocation(AllocationRuntime).Indexing(indexing).Done()
	if err != nil {
		return nil, err
	}
	c.packingFn = packingFnName
	c.packedSizeFn = packedBufferSizeFnName
	klog.V(1).Infof("plan %s: runtime-init packing of %s via %q/%q", p.id, a, packingFnName, packedBufferSizeFnName)
	return c, nil
}

// PackAndEmbedBuffer packs constant array data at compile time and embeds it
// as a module global, together with a wrapper function symbol the backend
// exposes to retrieve it. The returned cache reads from the embedded buffer
// and never copies in or out.
func (p *Plan) PackAndEmbedBuffer(m *ir.Module, a *ir.Array, constantData any, wrapperFnName, packedBufferName string, indexing CacheIndexing) (*Cache, error) {
	if m == nil {
		return nil, errors.Errorf("PackAndEmbedBuffer: nil module")
	}
	if constantData == nil {
		return nil, errors.Errorf("PackAndEmbedBuffer(%s): nil constant data", a)
	}
	if wrapperFnName == "" || packedBufferName == "" {
		return nil, errors.Errorf("PackAndEmbedBuffer(%s): wrapper and buffer names must be non-empty", a)
	}
	if err := m.DeclareSymbol(wrapperFnName, ir.SymbolFunc); err != nil {
		return nil, err
	}
	packed := ir.NewArray(packedBufferName, a.DType, a.Dims...)
	global := &ir.Global{Name: packedBufferName, Array: packed, Data: constantData}
	if err := m.AddGlobal(global); err != nil {
		return nil, err
	}
	c, err := p.Cache(a).Allocation(AllocationRuntime).Indexing(indexing).Done()
	if err != nil {
		return nil, err
	}
	c.packingFn = wrapperFnName
	c.global = global
	klog.V(1).Infof("plan %s: embedded packed buffer %q for %s behind %q", p.id, packedBufferName, a, wrapperFnName)
	return c, nil
}
