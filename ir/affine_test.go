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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineMapApply(t *testing.T) {
	// (i_o, i_i, j) -> (16*i_o + i_i, j + 3)
	m := MakeAffineMap(2, 3)
	m.Coeffs[0][0] = 16
	m.Coeffs[0][1] = 1
	m.Coeffs[1][2] = 1
	m.Offsets[1] = 3

	assert.Equal(t, []int64{35, 10}, m.Apply([]int64{2, 3, 7}))
	assert.Panics(t, func() { m.Apply([]int64{1, 2}) })
}

func TestAffineMapIdentity(t *testing.T) {
	assert.True(t, IdentityMap(3).IsIdentity())
	assert.False(t, PermutationMap([]int{1, 0}).IsIdentity())
	assert.True(t, PermutationMap([]int{0, 1, 2}).IsIdentity())

	var zero AffineMap
	assert.True(t, zero.IsZero())
	assert.False(t, IdentityMap(1).IsZero())
}

func TestAffineMapCompose(t *testing.T) {
	// inner: (a, b) -> (2*a, b + 1)
	inner := MakeAffineMap(2, 2)
	inner.Coeffs[0][0] = 2
	inner.Coeffs[1][1] = 1
	inner.Offsets[1] = 1

	// outer: swap coordinates, add 10 to the first output.
	outer := PermutationMap([]int{1, 0})
	outer.Offsets[0] = 10

	composed := outer.Compose(inner)
	in := []int64{3, 4}
	assert.Equal(t, outer.Apply(inner.Apply(in)), composed.Apply(in))
	assert.Equal(t, []int64{15, 6}, composed.Apply(in))
}

func TestAffineMapInvert(t *testing.T) {
	m := PermutationMap([]int{1, 0})
	m.Offsets[0] = 5
	m.Offsets[1] = -2

	inv, err := m.Invert()
	require.NoError(t, err)
	for _, in := range [][]int64{{0, 0}, {3, 7}, {-4, 11}} {
		assert.Equal(t, in, inv.Apply(m.Apply(in)))
	}

	// Non-invertible: two inputs folded into one output.
	bad := MakeAffineMap(2, 2)
	bad.Coeffs[0][0] = 1
	bad.Coeffs[0][1] = 1
	bad.Coeffs[1][1] = 1
	_, err = bad.Invert()
	require.Error(t, err)

	// Non-unit coefficient is also rejected.
	scaled := MakeAffineMap(1, 1)
	scaled.Coeffs[0][0] = 16
	_, err = scaled.Invert()
	require.Error(t, err)
}

func TestAffineMapString(t *testing.T) {
	m := MakeAffineMap(1, 2)
	m.Coeffs[0][0] = 16
	m.Coeffs[0][1] = 1
	assert.Equal(t, "(i0, i1) -> (16*i0 + i1)", m.String())
}
