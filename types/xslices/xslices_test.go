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

package xslices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAt(t *testing.T) {
	s := []int{2, 3, 5, 7}
	assert.Equal(t, 2, At(s, 0))
	assert.Equal(t, 7, At(s, -1))
	assert.Equal(t, 5, At(s, -2))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"c": 0, "a": 1, "b": 2}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
}

func TestPop(t *testing.T) {
	last, rest := Pop([]int{1, 2, 3})
	assert.Equal(t, 3, last)
	assert.Equal(t, []int{1, 2}, rest)
}

func TestIndexOf(t *testing.T) {
	s := []string{"i", "j", "k"}
	assert.Equal(t, 1, IndexOf(s, "j"))
	assert.Equal(t, -1, IndexOf(s, "l"))
}

func TestProd(t *testing.T) {
	assert.Equal(t, int64(1), Prod[int64](nil))
	assert.Equal(t, int64(30), Prod([]int64{2, 3, 5}))
}

func TestPermutations(t *testing.T) {
	require.True(t, IsPermutation([]int{2, 0, 1}))
	require.False(t, IsPermutation([]int{2, 2, 1}))
	require.False(t, IsPermutation([]int{0, 1, 3}))
	assert.Equal(t, []int{1, 2, 0}, InversePermutation([]int{2, 0, 1}))

	// InversePermutation round-trip.
	perm := []int{3, 1, 0, 2}
	inv := InversePermutation(perm)
	assert.Equal(t, perm, InversePermutation(inv))
}
