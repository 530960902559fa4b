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

package cache

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arslan-e-Mustafa/Accera/ir"
	"github.com/Arslan-e-Mustafa/Accera/loopnest"
	"github.com/Arslan-e-Mustafa/Accera/plan"
)

// tiledCopy builds the canonical fixture: a 64×64 element-wise kernel reading
// A and writing C, tiled 16×16, order (i_o, j_o, i_i, j_i).
type tiledCopy struct {
	nest     *loopnest.Nest
	schedule *loopnest.Schedule
	a, c     *ir.Array
	io, jo   *loopnest.Index
	ii, ji   *loopnest.Index
}

func makeTiledCopy(t *testing.T) *tiledCopy {
	f := &tiledCopy{nest: loopnest.New("tiled")}
	i := f.nest.Declare("i", loopnest.MakeRange(0, 64))
	j := f.nest.Declare("j", loopnest.MakeRange(0, 64))
	f.a = ir.NewArray("A", dtypes.Float32, 64, 64)
	f.c = ir.NewArray("C", dtypes.Float32, 64, 64)
	require.NoError(t, f.nest.IterationLogic(&loopnest.Kernel{
		Name:   "copy",
		Loads:  []loopnest.Access{{Array: f.a, Terms: []loopnest.Term{loopnest.Ix(i), loopnest.Ix(j)}}},
		Stores: []loopnest.Access{{Array: f.c, Terms: []loopnest.Term{loopnest.Ix(i), loopnest.Ix(j)}}},
	}))
	f.schedule = f.nest.Schedule()
	var err error
	f.io, f.ii, err = f.schedule.Split(i, 16)
	require.NoError(t, err)
	f.jo, f.ji, err = f.schedule.Split(j, 16)
	require.NoError(t, err)
	require.NoError(t, f.schedule.Reorder(f.io, f.jo, f.ii, f.ji))
	return f
}

func TestResolveTileGeometry(t *testing.T) {
	f := makeTiledCopy(t)
	p := plan.New(f.schedule)
	c := must.M1(p.Cache(f.a).Trigger(f.ii).MemorySpace(plan.MemorySpacePrivate).Done())

	ctx, err := Resolve(c, f.schedule)
	require.NoError(t, err)

	assert.Equal(t, UsageRead, ctx.Usage)
	assert.Equal(t, ActiveBlock, ctx.Mode)
	assert.Same(t, f.ii, ctx.Trigger)
	assert.Equal(t, 2, ctx.TriggerPos)
	assert.Equal(t, []*loopnest.Index{f.ii, f.ji}, ctx.Internal)
	assert.Equal(t, []*loopnest.Index{f.io, f.jo}, ctx.External)
	assert.Equal(t, []int64{16, 16}, ctx.Dims)
	assert.Equal(t, int64(256), ctx.Elements())

	// Counters (3, 5) address source element (3, 5) of the tile and cache
	// element (3, 5).
	assert.Equal(t, []int64{3, 5}, ctx.SourceMap.Apply([]int64{3, 5}))
	assert.Equal(t, []int64{3, 5}, ctx.CacheMap.Apply([]int64{3, 5}))
	require.NoError(t, ctx.VerifyFidelity(f.schedule))
}

func TestResolveCopyFidelityWithDimensionOrder(t *testing.T) {
	f := makeTiledCopy(t)
	p := plan.New(f.schedule)
	c := must.M1(p.Cache(f.a).Trigger(f.ii).DimensionOrder(1, 0).Done())

	ctx, err := Resolve(c, f.schedule)
	require.NoError(t, err)
	assert.Equal(t, []int64{16, 16}, ctx.Dims)

	// The cache is transposed: counters (3, 5) land at cache (5, 3), and the
	// cache-to-source map undoes the transposition exactly.
	assert.Equal(t, []int64{5, 3}, ctx.CacheMap.Apply([]int64{3, 5}))
	assert.Equal(t, []int64{3, 5}, ctx.CacheToSource.Apply([]int64{5, 3}))
	require.NoError(t, ctx.VerifyFidelity(f.schedule))

	// Source-map composed with the inverse cache path is the identity on the
	// region.
	inv, err := ctx.CacheToSource.Invert()
	require.NoError(t, err)
	for _, point := range [][]int64{{0, 0}, {1, 2}, {15, 15}, {7, 0}} {
		src := ctx.SourceMap.Apply(point)
		assert.Equal(t, src, ctx.CacheToSource.Apply(inv.Apply(src)))
	}
}

func TestResolveBoundaryTile(t *testing.T) {
	// 70 does not divide by 16: the last tile clips to 6 rows, but the cache
	// geometry covers the full 16-row tile.
	nest := loopnest.New("boundary")
	i := nest.Declare("i", loopnest.MakeRange(0, 70))
	a := ir.NewArray("A", dtypes.Float32, 70)
	require.NoError(t, nest.IterationLogic(&loopnest.Kernel{
		Name:  "read",
		Loads: []loopnest.Access{{Array: a, Terms: []loopnest.Term{loopnest.Ix(i)}}},
	}))
	s := nest.Schedule()
	_, ii, err := s.Split(i, 16)
	require.NoError(t, err)

	p := plan.New(s)
	c := must.M1(p.Cache(a).Trigger(ii).Done())
	ctx, err := Resolve(c, s)
	require.NoError(t, err)
	assert.Equal(t, []int64{16}, ctx.Dims)
}

func TestResolveUsage(t *testing.T) {
	f := makeTiledCopy(t)
	p := plan.New(f.schedule)

	readCtx := must.M1(Resolve(must.M1(p.Cache(f.a).Trigger(f.ii).Done()), f.schedule))
	assert.Equal(t, UsageRead, readCtx.Usage)

	writeCtx := must.M1(Resolve(must.M1(p.Cache(f.c).Trigger(f.ii).Done()), f.schedule))
	assert.Equal(t, UsageReadWrite, writeCtx.Usage, "plain store flushes verbatim")
}

func TestResolveAccumulateUsage(t *testing.T) {
	nest := loopnest.New("matmul")
	i := nest.Declare("i", loopnest.MakeRange(0, 32))
	j := nest.Declare("j", loopnest.MakeRange(0, 32))
	k := nest.Declare("k", loopnest.MakeRange(0, 32))
	a := ir.NewArray("A", dtypes.Float32, 32, 32)
	b := ir.NewArray("B", dtypes.Float32, 32, 32)
	c := ir.NewArray("C", dtypes.Float32, 32, 32)
	require.NoError(t, nest.IterationLogic(&loopnest.Kernel{
		Name: "matmul",
		Loads: []loopnest.Access{
			{Array: a, Terms: []loopnest.Term{loopnest.Ix(i), loopnest.Ix(k)}},
			{Array: b, Terms: []loopnest.Term{loopnest.Ix(k), loopnest.Ix(j)}},
		},
		Stores: []loopnest.Access{
			{Array: c, Terms: []loopnest.Term{loopnest.Ix(i), loopnest.Ix(j)}, Accumulate: true},
		},
	}))
	s := nest.Schedule()
	p := plan.New(s)

	// C is written by accumulation only and never read: zero-fill + reduce.
	ctx := must.M1(Resolve(must.M1(p.Cache(c).Trigger(j).Done()), s))
	assert.Equal(t, UsageAccumulate, ctx.Usage)

	// A dimension driven only by external loops collapses to one element: a
	// C tile at trigger j does not span i.
	assert.Equal(t, []int64{1, 32}, ctx.Dims)
}

func TestResolveDynamicTermFails(t *testing.T) {
	nest := loopnest.New("gather")
	i := nest.Declare("i", loopnest.MakeRange(0, 8))
	a := ir.NewArray("A", dtypes.Float32, 8, 8)
	require.NoError(t, nest.IterationLogic(&loopnest.Kernel{
		Name:  "gather",
		Loads: []loopnest.Access{{Array: a, Terms: []loopnest.Term{loopnest.Ix(i), {Dynamic: true}}}},
	}))
	s := nest.Schedule()
	p := plan.New(s)

	_, err := Resolve(must.M1(p.Cache(a).Trigger(i).Done()), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedCacheShape))
	assert.Contains(t, err.Error(), "<dynamic>", "diagnostics carry the unresolved coordinate")
}

func TestResolveConflictingAccessesFail(t *testing.T) {
	nest := loopnest.New("conflict")
	i := nest.Declare("i", loopnest.MakeRange(0, 8))
	j := nest.Declare("j", loopnest.MakeRange(0, 8))
	a := ir.NewArray("A", dtypes.Float32, 8, 8)
	require.NoError(t, nest.IterationLogic(&loopnest.Kernel{
		Name: "conflict",
		Loads: []loopnest.Access{
			{Array: a, Terms: []loopnest.Term{loopnest.Ix(i), loopnest.Ix(j)}},
			{Array: a, Terms: []loopnest.Term{loopnest.Ix(j), loopnest.Ix(i)}},
		},
	}))
	s := nest.Schedule()
	p := plan.New(s)

	_, err := Resolve(must.M1(p.Cache(a).Trigger(i).Done()), s)
	assert.True(t, errors.Is(err, ErrUnsupportedCacheShape))
}

func TestResolveMaxElementsHoistsTrigger(t *testing.T) {
	f := makeTiledCopy(t)
	p := plan.New(f.schedule)

	// 4096 > 1024 > 256: the footprint fits the budget first at i_i.
	c := must.M1(p.Cache(f.a).MaxElements(256).Done())
	ctx, err := Resolve(c, f.schedule)
	require.NoError(t, err)
	assert.Same(t, f.ii, ctx.Trigger)
	assert.Equal(t, []int64{16, 16}, ctx.Dims)

	// A budget below the innermost footprint cannot be met.
	tiny := must.M1(p.Cache(f.a).MaxElements(3).Done())
	_, err = Resolve(tiny, f.schedule)
	assert.True(t, errors.Is(err, ErrUnsupportedCacheShape))
}

func TestResolveActiveElementMode(t *testing.T) {
	f := makeTiledCopy(t)
	p := plan.New(f.schedule)
	c := must.M1(p.Cache(f.a).Trigger(f.ii).Indexing(plan.IndexingLogicalToPhysical).Done())

	ctx, err := Resolve(c, f.schedule)
	require.NoError(t, err)
	assert.Equal(t, ActiveElement, ctx.Mode)
	// One cache dimension per active counter, addressed by the counters.
	assert.Equal(t, []int64{16, 16}, ctx.Dims)
	assert.True(t, ctx.CacheMap.IsIdentity())
	require.NoError(t, ctx.VerifyFidelity(f.schedule))
}

func TestResolveMultiCacheSlices(t *testing.T) {
	f := makeTiledCopy(t)
	p := plan.New(f.schedule)
	c := must.M1(p.Cache(f.a).Trigger(f.ii).Level(f.jo).Done())

	ctx, err := Resolve(c, f.schedule)
	require.NoError(t, err)
	assert.Equal(t, int64(4), ctx.SliceLen)
	assert.Equal(t, []string{f.jo.String()}, ctx.SliceSyms)
}
