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
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arslan-e-Mustafa/Accera/ir"
)

func TestDeclarePanicsOnInvalidRange(t *testing.T) {
	nest := New("n")
	err := exceptions.TryCatch[error](func() { nest.Declare("i", MakeRange(4, 4)) })
	require.Error(t, err)
	err = exceptions.TryCatch[error](func() { nest.Declare("i", MakeRangeStep(0, 4, -1)) })
	require.Error(t, err)
}

func TestIterationLogicValidation(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 8))
	j := nest.Declare("j", MakeRange(0, 8))
	foreign := New("m").Declare("k", MakeRange(0, 8))
	a := ir.NewArray("A", dtypes.Float32, 8, 8)

	require.NoError(t, nest.IterationLogic(&Kernel{
		Name:  "ok",
		Loads: []Access{{Array: a, Terms: []Term{Ix(i), Ix(j)}}},
	}))
	assert.Error(t, nest.IterationLogic(&Kernel{
		Name:  "nil array",
		Loads: []Access{{Terms: []Term{Ix(i)}}},
	}))
	assert.Error(t, nest.IterationLogic(&Kernel{
		Name:   "foreign index",
		Stores: []Access{{Array: a, Terms: []Term{Ix(i), Ix(foreign)}}},
	}))
	// Dynamic terms carry no index and are accepted as-is.
	require.NoError(t, nest.IterationLogic(&Kernel{
		Name:  "gather",
		Loads: []Access{{Array: a, Terms: []Term{Ix(i), {Dynamic: true}}}},
	}))
	assert.Len(t, nest.Kernels(), 2)
}

func TestKernelAccessQueries(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 8))
	j := nest.Declare("j", MakeRange(0, 8))
	k := nest.Declare("k", MakeRange(0, 8))
	a := ir.NewArray("A", dtypes.Float32, 8, 8)
	b := ir.NewArray("B", dtypes.Float32, 8, 8)
	c := ir.NewArray("C", dtypes.Float32, 8, 8)

	matmul := &Kernel{
		Name: "matmul",
		Loads: []Access{
			{Array: a, Terms: []Term{Ix(i), Ix(k)}},
			{Array: b, Terms: []Term{Ix(k), Ix(j)}},
		},
		Stores: []Access{
			{Array: c, Terms: []Term{Ix(i), Ix(j)}, Accumulate: true},
		},
	}
	assert.True(t, matmul.Reads(a))
	assert.False(t, matmul.Reads(c))
	assert.True(t, matmul.Writes(c))
	assert.False(t, matmul.Writes(a))
	assert.True(t, matmul.AccumulatesInto(c))
	assert.False(t, matmul.AccumulatesInto(a), "no store at all is not a reduction")
	assert.Equal(t, []*ir.Array{a, b, c}, matmul.Arrays())
	assert.Len(t, matmul.AccessesOf(c), 1)
}

func TestScheduleSnapshotsNest(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 8))
	s1 := nest.Schedule()
	s2 := nest.Schedule()

	// Schedules over the same nest evolve independently.
	_, _, err := s1.Split(i, 2)
	require.NoError(t, err)
	assert.Equal(t, []*Index{i}, s2.Order()[:1])
	assert.Equal(t, 1, len(s2.Order()))
}
