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
	"github.com/pkg/errors"
)

// AffineMap maps an input index vector to output coordinates:
//
//	out[o] = sum_i Coeffs[o][i]*in[i] + Offsets[o]
//
// The caching layers use it for the relevant-indices to source-coordinates and
// relevant-indices to cache-coordinates maps.
type AffineMap struct {
	Coeffs  [][]int64
	Offsets []int64
}

// MakeAffineMap creates a zero map with the given number of outputs and inputs.
func MakeAffineMap(numOutputs, numInputs int) AffineMap {
	coeffs := make([][]int64, numOutputs)
	for ii := range coeffs {
		coeffs[ii] = make([]int64, numInputs)
	}
	return AffineMap{Coeffs: coeffs, Offsets: make([]int64, numOutputs)}
}

// IdentityMap returns the identity map on n coordinates.
func IdentityMap(n int) AffineMap {
	m := MakeAffineMap(n, n)
	for ii := 0; ii < n; ii++ {
		m.Coeffs[ii][ii] = 1
	}
	return m
}

// PermutationMap returns the map out[o] = in[perm[o]].
func PermutationMap(perm []int) AffineMap {
	m := MakeAffineMap(len(perm), len(perm))
	for out, in := range perm {
		m.Coeffs[out][in] = 1
	}
	return m
}

// NumInputs returns the input vector length.
func (m AffineMap) NumInputs() int {
	if len(m.Coeffs) == 0 {
		return 0
	}
	return len(m.Coeffs[0])
}

// NumOutputs returns the number of output coordinates.
func (m AffineMap) NumOutputs() int { return len(m.Coeffs) }

// IsZero reports whether the map is the uninitialized zero value.
func (m AffineMap) IsZero() bool { return m.Coeffs == nil && m.Offsets == nil }

// IsIdentity reports whether the map is square and maps every vector to itself.
func (m AffineMap) IsIdentity() bool {
	if m.NumInputs() != m.NumOutputs() {
		return false
	}
	for o, row := range m.Coeffs {
		if m.Offsets[o] != 0 {
			return false
		}
		for i, c := range row {
			if (i == o && c != 1) || (i != o && c != 0) {
				return false
			}
		}
	}
	return true
}

// Apply evaluates the map on the given input vector.
func (m AffineMap) Apply(in []int64) []int64 {
	if len(in) != m.NumInputs() {
		exceptions.Panicf("AffineMap.Apply: map takes %d inputs, got %d", m.NumInputs(), len(in))
	}
	out := make([]int64, m.NumOutputs())
	for o, row := range m.Coeffs {
		acc := m.Offsets[o]
		for i, c := range row {
			acc += c * in[i]
		}
		out[o] = acc
	}
	return out
}

// Compose returns the map m∘inner, i.e. x -> m(inner(x)). The number of
// outputs of inner must match the number of inputs of m.
func (m AffineMap) Compose(inner AffineMap) AffineMap {
	if inner.NumOutputs() != m.NumInputs() {
		exceptions.Panicf("AffineMap.Compose: inner map produces %d outputs, outer map takes %d inputs",
			inner.NumOutputs(), m.NumInputs())
	}
	out := MakeAffineMap(m.NumOutputs(), inner.NumInputs())
	for o := 0; o < m.NumOutputs(); o++ {
		out.Offsets[o] = m.Offsets[o]
		for k := 0; k < m.NumInputs(); k++ {
			c := m.Coeffs[o][k]
			if c == 0 {
				continue
			}
			out.Offsets[o] += c * inner.Offsets[k]
			for i := 0; i < inner.NumInputs(); i++ {
				out.Coeffs[o][i] += c * inner.Coeffs[k][i]
			}
		}
	}
	return out
}

// Invert returns the inverse map. Only maps that are a permutation with
// offsets (each output depends on exactly one input with coefficient ±1, and
// each input is used exactly once) are invertible here; anything else errors.
func (m AffineMap) Invert() (AffineMap, error) {
	n := m.NumOutputs()
	if n != m.NumInputs() {
		return AffineMap{}, errors.Errorf("AffineMap.Invert: map %s is not square", m)
	}
	inv := MakeAffineMap(n, n)
	usedInput := make([]bool, n)
	for o, row := range m.Coeffs {
		in := -1
		for i, c := range row {
			if c == 0 {
				continue
			}
			if c != 1 && c != -1 || in >= 0 {
				return AffineMap{}, errors.Errorf("AffineMap.Invert: output %d of %s is not a unit permutation term", o, m)
			}
			in = i
		}
		if in < 0 || usedInput[in] {
			return AffineMap{}, errors.Errorf("AffineMap.Invert: map %s is not a permutation of its inputs", m)
		}
		usedInput[in] = true
		c := m.Coeffs[o][in]
		inv.Coeffs[in][o] = c // ±1 is its own inverse.
		inv.Offsets[in] = -c * m.Offsets[o]
	}
	return inv, nil
}

func (m AffineMap) String() string {
	ins := make([]string, m.NumInputs())
	for ii := range ins {
		ins[ii] = fmt.Sprintf("i%d", ii)
	}
	outs := make([]string, m.NumOutputs())
	for o, row := range m.Coeffs {
		var terms []string
		for i, c := range row {
			switch c {
			case 0:
			case 1:
				terms = append(terms, ins[i])
			default:
				terms = append(terms, fmt.Sprintf("%d*%s", c, ins[i]))
			}
		}
		if m.Offsets[o] != 0 || len(terms) == 0 {
			terms = append(terms, fmt.Sprintf("%d", m.Offsets[o]))
		}
		outs[o] = strings.Join(terms, " + ")
	}
	return fmt.Sprintf("(%s) -> (%s)", strings.Join(ins, ", "), strings.Join(outs, ", "))
}
