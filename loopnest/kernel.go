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

package loopnest

import (
	"fmt"
	"strings"

	"github.com/Arslan-e-Mustafa/Accera/ir"
)

// Term is one per-dimension coordinate expression of an array access:
// Scale*Index + Offset. A Dynamic term stands for a coordinate that is not an
// affine function of loop indices (e.g. a gathered subscript); caches cannot
// be resolved over dynamic terms.
type Term struct {
	Index   *Index
	Scale   int64
	Offset  int64
	Dynamic bool
}

// Ix returns the unit Term over an index.
func Ix(ix *Index) Term { return Term{Index: ix, Scale: 1} }

func (t Term) String() string {
	if t.Dynamic {
		return "<dynamic>"
	}
	s := ""
	switch t.Scale {
	case 1:
		s = t.Index.Name()
	default:
		s = fmt.Sprintf("%d*%s", t.Scale, t.Index.Name())
	}
	if t.Offset != 0 {
		s = fmt.Sprintf("%s + %d", s, t.Offset)
	}
	return s
}

// Access is one array access of a kernel, with one Term per array dimension.
// Accumulate marks a store that adds into the element instead of overwriting
// it (a reduction).
type Access struct {
	Array      *ir.Array
	Terms      []Term
	Accumulate bool
}

func (a Access) String() string {
	terms := make([]string, len(a.Terms))
	for ii, t := range a.Terms {
		terms[ii] = t.String()
	}
	op := ""
	if a.Accumulate {
		op = "+"
	}
	return fmt.Sprintf("%s[%s]%s=", a.Array.Name, strings.Join(terms, ", "), op)
}

// Kernel describes the innermost computation as the set of array accesses it
// performs. The scheduling and caching layers only need the access footprint,
// not the arithmetic.
type Kernel struct {
	Name   string
	Loads  []Access
	Stores []Access
}

// Reads reports whether the kernel loads from the array.
func (k *Kernel) Reads(a *ir.Array) bool {
	for _, acc := range k.Loads {
		if acc.Array == a {
			return true
		}
	}
	return false
}

// Writes reports whether the kernel stores to the array.
func (k *Kernel) Writes(a *ir.Array) bool {
	for _, acc := range k.Stores {
		if acc.Array == a {
			return true
		}
	}
	return false
}

// AccumulatesInto reports whether every store to the array is a reduction.
func (k *Kernel) AccumulatesInto(a *ir.Array) bool {
	any := false
	for _, acc := range k.Stores {
		if acc.Array != a {
			continue
		}
		if !acc.Accumulate {
			return false
		}
		any = true
	}
	return any
}

// AccessesOf returns all accesses (loads then stores) to the array.
func (k *Kernel) AccessesOf(a *ir.Array) []Access {
	var out []Access
	for _, acc := range k.Loads {
		if acc.Array == a {
			out = append(out, acc)
		}
	}
	for _, acc := range k.Stores {
		if acc.Array == a {
			out = append(out, acc)
		}
	}
	return out
}

// Arrays returns the distinct arrays the kernel touches, in first-appearance
// order (loads before stores).
func (k *Kernel) Arrays() []*ir.Array {
	var out []*ir.Array
	seen := make(map[*ir.Array]bool)
	for _, acc := range append(append([]Access{}, k.Loads...), k.Stores...) {
		if !seen[acc.Array] {
			seen[acc.Array] = true
			out = append(out, acc.Array)
		}
	}
	return out
}
