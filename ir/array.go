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
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Array is a handle to a logical multi-dimensional buffer: either a function
// argument, a packed global, or a cache buffer materialized during lowering.
// Identity is the handle itself, the name is diagnostic only.
type Array struct {
	Name    string
	DType   dtypes.DType
	Dims    []int64
	Strides []int64
}

// NewArray creates an array handle with row-major strides. It panics if any
// dimension is not positive.
func NewArray(name string, dtype dtypes.DType, dims ...int64) *Array {
	for _, dim := range dims {
		if dim <= 0 {
			exceptions.Panicf("ir.NewArray(%q): cannot create an array with dimension %d <= 0 (dims=%v)", name, dim, dims)
		}
	}
	strides := make([]int64, len(dims))
	stride := int64(1)
	for ii := len(dims) - 1; ii >= 0; ii-- {
		strides[ii] = stride
		stride *= dims[ii]
	}
	return &Array{Name: name, DType: dtype, Dims: dims, Strides: strides}
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.Dims) }

// Size returns the total number of elements.
func (a *Array) Size() int64 {
	size := int64(1)
	for _, dim := range a.Dims {
		size *= dim
	}
	return size
}

// IsRowMajorContiguous reports whether the strides are the dense row-major
// strides for the dims.
func (a *Array) IsRowMajorContiguous() bool {
	stride := int64(1)
	for ii := len(a.Dims) - 1; ii >= 0; ii-- {
		if a.Strides[ii] != stride {
			return false
		}
		stride *= a.Dims[ii]
	}
	return true
}

// BlockContiguous reports whether a sub-block with the given per-dimension
// extents occupies contiguous memory: the block must span the full array on
// every dimension but the outermost, and the array itself must be row-major.
func (a *Array) BlockContiguous(extents []int64) bool {
	if len(extents) != len(a.Dims) || !a.IsRowMajorContiguous() {
		return false
	}
	for ii := 1; ii < len(a.Dims); ii++ {
		if extents[ii] != a.Dims[ii] {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	dims := make([]string, len(a.Dims))
	for ii, d := range a.Dims {
		dims[ii] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s:%s[%s]", a.Name, a.DType, strings.Join(dims, " "))
}
