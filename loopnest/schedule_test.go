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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFactorsIterationCount(t *testing.T) {
	for _, test := range []struct {
		extent, factor int64
	}{
		{64, 16},  // factor divides
		{70, 16},  // boundary tile of 6
		{16, 16},  // single outer iteration
		{5, 8},    // factor larger than extent
		{100, 1},  // unit factor
		{100, 37}, // awkward factor
	} {
		nest := New("n")
		i := nest.Declare("i", MakeRange(0, test.extent))
		s := nest.Schedule()
		before := s.IterationCount()
		require.Equal(t, test.extent, before)

		outer, inner, err := s.Split(i, test.factor)
		require.NoError(t, err)

		// The number of points covered is unchanged: the outer loop runs
		// ceil(extent/factor) times, the inner covers factor points per outer
		// iteration, clipped at the boundary.
		ro, _ := s.Range(outer)
		ri, _ := s.Range(inner)
		covered := int64(0)
		for o := ro.Begin; o < ro.End; o += ro.Increment {
			for in := ri.Begin; in < ri.End && o+in < test.extent; in += ri.Increment {
				covered++
			}
		}
		assert.Equal(t, before, covered, "extent=%d factor=%d", test.extent, test.factor)
		assert.Equal(t, test.factor, ri.Len())
		assert.Equal(t, (test.extent+test.factor-1)/test.factor, ro.Len())
	}
}

func TestSplitRetiresParent(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 64))
	j := nest.Declare("j", MakeRange(0, 32))
	s := nest.Schedule()

	iOuter, iInner, err := s.Split(i, 16)
	require.NoError(t, err)

	assert.Equal(t, []*Index{iOuter, iInner, j}, s.Order())
	assert.Equal(t, -1, s.Position(i), "split parent must not be schedulable")
	assert.True(t, s.IsSplit(i))
	gotOuter, gotInner := s.Children(i)
	assert.Same(t, iOuter, gotOuter)
	assert.Same(t, iInner, gotInner)
	assert.Same(t, i, iOuter.Parent())
	assert.Same(t, i, iInner.Parent())

	// The parent stays queryable.
	r, found := s.Range(i)
	require.True(t, found)
	assert.Equal(t, MakeRange(0, 64), r)

	// Splitting the parent again is invalid.
	_, _, err = s.Split(i, 4)
	assert.True(t, errors.Is(err, ErrInvalidSplit))

	// Splitting a child is fine and nests under the same root.
	innerOuter, innerInner, err := s.Split(iInner, 4)
	require.NoError(t, err)
	assert.Equal(t, []*Index{iOuter, innerOuter, innerInner, j}, s.Order())
	assert.Equal(t, []*Index{iOuter, innerOuter, innerInner}, s.Leaves(i))
}

func TestSplitInvalid(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 64))
	other := New("m").Declare("k", MakeRange(0, 8))
	s := nest.Schedule()

	_, _, err := s.Split(i, 0)
	assert.True(t, errors.Is(err, ErrInvalidSplit))
	_, _, err = s.Split(i, -3)
	assert.True(t, errors.Is(err, ErrInvalidSplit))
	_, _, err = s.Split(other, 4)
	assert.True(t, errors.Is(err, ErrInvalidSplit), "foreign index")

	s.Freeze()
	_, _, err = s.Split(i, 4)
	assert.True(t, errors.Is(err, ErrInvalidSplit), "frozen schedule")
}

func TestReorder(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 4))
	j := nest.Declare("j", MakeRange(0, 5))
	k := nest.Declare("k", MakeRange(0, 6))
	s := nest.Schedule()
	count := s.IterationCount()

	require.NoError(t, s.Reorder(k, i, j))
	assert.Equal(t, []*Index{k, i, j}, s.Order())
	assert.Equal(t, count, s.IterationCount(), "reorder must not change the iteration count")

	// Reordering back restores the original order.
	require.NoError(t, s.Reorder(i, j, k))
	assert.Equal(t, []*Index{i, j, k}, s.Order())
}

func TestReorderInvalid(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 4))
	j := nest.Declare("j", MakeRange(0, 5))
	foreign := New("m").Declare("k", MakeRange(0, 8))
	s := nest.Schedule()

	assert.True(t, errors.Is(s.Reorder(i), ErrInvalidOrder), "too few indices")
	assert.True(t, errors.Is(s.Reorder(i, i), ErrInvalidOrder), "duplicate index")
	assert.True(t, errors.Is(s.Reorder(i, foreign), ErrInvalidOrder), "foreign index")

	outer, _, err := s.Split(i, 2)
	require.NoError(t, err)
	assert.True(t, errors.Is(s.Reorder(i, outer, j), ErrInvalidOrder), "split parent is not schedulable")

	s.Freeze()
	assert.True(t, errors.Is(s.Reorder(j, outer, i), ErrInvalidOrder))
}

func TestFuseIdenticalSpaces(t *testing.T) {
	nestA := New("a")
	i := nestA.Declare("i", MakeRange(0, 16))
	j := nestA.Declare("j", MakeRange(0, 16))
	require.NoError(t, nestA.IterationLogic(&Kernel{Name: "first"}))
	sa := nestA.Schedule()

	nestB := New("b")
	require.NoError(t, nestB.Use(i, MakeRange(0, 16)))
	require.NoError(t, nestB.Use(j, MakeRange(0, 16)))
	require.NoError(t, nestB.IterationLogic(&Kernel{Name: "second"}))
	sb := nestB.Schedule()

	fused, err := sa.Fuse(sb)
	require.NoError(t, err)

	// Same index sets: no selector, kernels run back to back unguarded.
	assert.Nil(t, fused.Selector())
	assert.Equal(t, []*Index{i, j}, fused.Order())
	kernels := fused.Kernels()
	require.Len(t, kernels, 2)
	assert.Equal(t, "first", kernels[0].Kernel.Name)
	assert.Equal(t, -1, kernels[0].SelectorValue)
	assert.Equal(t, "second", kernels[1].Kernel.Name)
	assert.Equal(t, -1, kernels[1].SelectorValue)

	assert.True(t, sa.Frozen())
	assert.True(t, sb.Frozen())
}

func TestFuseDisjointTailsInsertsSelector(t *testing.T) {
	nestA := New("a")
	i := nestA.Declare("i", MakeRange(0, 16))
	j := nestA.Declare("j", MakeRange(0, 8))
	require.NoError(t, nestA.IterationLogic(&Kernel{Name: "first"}))
	sa := nestA.Schedule()

	nestB := New("b")
	require.NoError(t, nestB.Use(i, MakeRange(0, 16)))
	k := nestB.Declare("k", MakeRange(0, 4))
	require.NoError(t, nestB.IterationLogic(&Kernel{Name: "second"}))
	sb := nestB.Schedule()

	fused, err := sa.Fuse(sb)
	require.NoError(t, err)

	sel := fused.Selector()
	require.NotNil(t, sel)
	r, found := fused.Range(sel)
	require.True(t, found)
	assert.Equal(t, MakeRange(0, 2), r)

	// Shared indices first, then the selector, then each side's private tail.
	assert.Equal(t, []*Index{i, sel, j, k}, fused.Order())

	kernels := fused.Kernels()
	require.Len(t, kernels, 2)
	assert.Equal(t, 0, kernels[0].SelectorValue)
	assert.Equal(t, 1, kernels[1].SelectorValue)
}

func TestFuseRangeMismatch(t *testing.T) {
	nestA := New("a")
	i := nestA.Declare("i", MakeRange(0, 16))
	sa := nestA.Schedule()

	nestB := New("b")
	require.NoError(t, nestB.Use(i, MakeRange(0, 20)))
	sb := nestB.Schedule()

	_, err := sa.Fuse(sb)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFusionRangeMismatch))
	// The mismatch is a hard error: neither input may be silently truncated
	// or padded, and both stay usable.
	assert.False(t, sa.Frozen())
	assert.False(t, sb.Frozen())
}

func TestFuseRequiresSharedIndex(t *testing.T) {
	sa := func() *Schedule {
		n := New("a")
		n.Declare("i", MakeRange(0, 4))
		return n.Schedule()
	}()
	sb := func() *Schedule {
		n := New("b")
		n.Declare("j", MakeRange(0, 4))
		return n.Schedule()
	}()
	_, err := sa.Fuse(sb)
	assert.True(t, errors.Is(err, ErrInvalidOrder))
}

func TestUseRejectsDuplicateRange(t *testing.T) {
	nestA := New("a")
	i := nestA.Declare("i", MakeRange(0, 16))

	nestB := New("b")
	require.NoError(t, nestB.Use(i, MakeRange(0, 16)))
	assert.Error(t, nestB.Use(i, MakeRange(0, 8)))
}

func TestLoopAttributes(t *testing.T) {
	nest := New("n")
	i := nest.Declare("i", MakeRange(0, 64))
	j := nest.Declare("j", MakeRange(0, 64))
	s := nest.Schedule()

	require.NoError(t, s.SetVectorization(j, VectorizationInfo{VectorBytes: 32, VectorUnitCount: 16}))
	require.NoError(t, s.SetParallelization(i, ParallelizationInfo{NumThreads: 8, Policy: PolicyDynamic}))

	attrs := s.Attributes(j)
	require.NotNil(t, attrs)
	require.NotNil(t, attrs.Vectorization)
	assert.Equal(t, 32, attrs.Vectorization.VectorBytes)
	assert.Nil(t, attrs.Parallelization)

	attrs = s.Attributes(i)
	require.NotNil(t, attrs.Parallelization)
	assert.Equal(t, int64(8), attrs.Parallelization.NumThreads)
	assert.Equal(t, "dynamic", attrs.Parallelization.Policy.String())

	// Attributes attach to scheduled indices only.
	foreign := New("m").Declare("k", MakeRange(0, 8))
	assert.Error(t, s.SetVectorization(foreign, VectorizationInfo{VectorBytes: 16}))

	s.Freeze()
	assert.Error(t, s.SetParallelization(j, ParallelizationInfo{NumThreads: 2}))
}

func TestRangeLenWithIncrement(t *testing.T) {
	assert.Equal(t, int64(4), MakeRangeStep(0, 16, 4).Len())
	assert.Equal(t, int64(4), MakeRangeStep(0, 14, 4).Len(), "partial final step still iterates")
	assert.Equal(t, int64(1), MakeRangeStep(10, 11, 1).Len())
	assert.False(t, MakeRange(5, 5).Valid())
	assert.False(t, MakeRangeStep(0, 4, 0).Valid())
}
