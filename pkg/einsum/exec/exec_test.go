// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/backends/simplego"
	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/exec"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/optimize"
)

func mustParse(t *testing.T, s string) *notation.Notation {
	t.Helper()
	n, err := notation.Parse(s)
	require.NoError(t, err)
	return n
}

func run(t *testing.T, plan *optimize.ExecutionPlan, inputs []*tensors.View, out *tensors.View) {
	t.Helper()
	e := exec.New(simplego.New(), exec.Options{})
	require.NoError(t, e.Run(plan, inputs, out))
}

// Fast-path and general execution must produce the same tensor.
func TestFastPathMatchesGeneralPath(t *testing.T) {
	b := simplego.New()
	cases := []struct {
		notation string
		shapes   [][]int
	}{
		{"ij,jk->ik", [][]int{{3, 4}, {4, 5}}},
		{"ij,kj->ik", [][]int{{3, 4}, {5, 4}}},
		{"bij,bjk->bik", [][]int{{2, 3, 4}, {2, 4, 5}}},
		{"bhqd,bhkd->bhqk", [][]int{{2, 2, 3, 4}, {2, 2, 5, 4}}},
		{"ij,ij->", [][]int{{3, 4}, {3, 4}}},
	}

	for _, tc := range cases {
		n := mustParse(t, tc.notation)
		inputs := make([]*tensors.View, len(tc.shapes))
		for i, shape := range tc.shapes {
			v, err := b.Zeros(dtypes.Float32, shape)
			require.NoError(t, err)
			flat := simplego.Flat32(v)
			for k := range flat {
				flat[k] = float32((k*7+i*3)%11) - 5
			}
			inputs[i] = v
		}

		fastPlan := optimize.CreatePlan(n, tc.shapes, optimize.StrategyAuto, optimize.GPUCostModel())
		require.True(t, fastPlan.UsesFastPath(), tc.notation)
		generalPlan := optimize.CreateGeneralPlan(n, tc.shapes, optimize.StrategyGreedy, optimize.GPUCostModel())

		outShape := fastPlan.OutputShape()
		if len(outShape) == 0 {
			outShape = []int{1}
		}
		fastOut, err := b.Zeros(dtypes.Float32, outShape)
		require.NoError(t, err)
		generalOut, err := b.Zeros(dtypes.Float32, outShape)
		require.NoError(t, err)

		run(t, fastPlan, inputs, fastOut)
		run(t, generalPlan, inputs, generalOut)

		assert.InDeltaSlice(t, simplego.ToFloat32(fastOut), simplego.ToFloat32(generalOut),
			1e-4, tc.notation)
	}
}

// Fast-path plans use exactly one step; general plans use one step per
// pairwise contraction, so a two-input general plan also has one.
func TestPlanStepCount(t *testing.T) {
	cases := []struct {
		notation string
		shapes   [][]int
		fast     bool
		steps    int
	}{
		{"ij,jk->ik", [][]int{{3, 4}, {4, 5}}, true, 1},
		{"ii->", [][]int{{4, 4}}, true, 1},
		{"ij->i", [][]int{{3, 4}}, true, 1},
		{"ij,jk,kl->il", [][]int{{2, 3}, {3, 4}, {4, 5}}, false, 2},
		{"ij,j->ij", [][]int{{2, 3}, {3}}, false, 1},
	}
	for _, tc := range cases {
		plan := optimize.CreatePlan(mustParse(t, tc.notation), tc.shapes,
			optimize.StrategyAuto, optimize.GPUCostModel())
		assert.Equal(t, tc.fast, plan.UsesFastPath(), tc.notation)
		assert.Equal(t, tc.steps, plan.NumSteps(), tc.notation)
	}
}

func TestGeneralPathTransposedWrite(t *testing.T) {
	// Forcing the chain executor to finish on a step whose result order
	// differs from the output order exercises the aligned-write path.
	b := simplego.New()
	n := mustParse(t, "ij,jk,kl->il")
	shapes := [][]int{{2, 3}, {3, 4}, {4, 2}}

	inputs := make([]*tensors.View, 3)
	for i, shape := range shapes {
		v, err := b.Zeros(dtypes.Float32, shape)
		require.NoError(t, err)
		simplego.Fill32(v, 1)
		inputs[i] = v
	}

	out, err := b.Zeros(dtypes.Float32, []int{2, 2})
	require.NoError(t, err)
	plan := optimize.CreateGeneralPlan(n, shapes, optimize.StrategyGreedy, optimize.GPUCostModel())
	run(t, plan, inputs, out)

	for _, x := range simplego.Flat32(out) {
		assert.Equal(t, float32(12), x)
	}
}

func TestContractionStepBoundsChecked(t *testing.T) {
	b := simplego.New()
	mustParse(t, "ij,jk->ik")

	path := &optimize.Path{}
	path.Push(optimize.Step{Inputs: [2]int{0, 5}, Contracted: []rune{'j'}, Result: []rune("ik")})
	plan := optimize.NewContractionPlan(path, []int{2, 4}, [][]rune{[]rune("ij"), []rune("jk")})

	x, err := b.Zeros(dtypes.Float32, []int{2, 3})
	require.NoError(t, err)
	y, err := b.Zeros(dtypes.Float32, []int{3, 4})
	require.NoError(t, err)
	out, err := b.Zeros(dtypes.Float32, []int{2, 4})
	require.NoError(t, err)

	e := exec.New(b, exec.Options{})
	err = e.Run(plan, []*tensors.View{x, y}, out)
	var lerr *backends.LaunchError
	require.ErrorAs(t, err, &lerr)
}

func TestWorkspaceReuse(t *testing.T) {
	b := simplego.New()
	ws := exec.NewWorkspace(b, 0)

	v1, err := ws.Alloc(dtypes.Float32, []int{4, 4}, 0)
	require.NoError(t, err)
	ws.Release(v1, 0)

	// A same-size request must reuse the released buffer.
	v2, err := ws.Alloc(dtypes.Float32, []int{2, 8}, 1)
	require.NoError(t, err)
	assert.Equal(t, v1.Buffer, v2.Buffer)
	assert.Equal(t, []int{2, 8}, v2.Shape)

	// A larger request allocates fresh.
	v3, err := ws.Alloc(dtypes.Float32, []int{16, 16}, 1)
	require.NoError(t, err)
	assert.NotEqual(t, v2.Buffer, v3.Buffer)
}

func TestWorkspaceCap(t *testing.T) {
	b := simplego.New()
	ws := exec.NewWorkspace(b, 64)

	_, err := ws.Alloc(dtypes.Float32, []int{4}, 0) // 16 bytes
	require.NoError(t, err)
	_, err = ws.Alloc(dtypes.Float32, []int{100}, 0) // would exceed 64
	var merr *backends.MemoryError
	require.ErrorAs(t, err, &merr)
}

func TestWorkspaceForget(t *testing.T) {
	b := simplego.New()
	ws := exec.NewWorkspace(b, 0)

	v, err := ws.Alloc(dtypes.Float32, []int{8}, 0)
	require.NoError(t, err)
	ws.Forget(v)
	ws.Release(v, 1) // no longer owned: must be a no-op

	v2, err := ws.Alloc(dtypes.Float32, []int{8}, 2)
	require.NoError(t, err)
	assert.NotEqual(t, v.Buffer, v2.Buffer)
}

func TestReductionFastPathValues(t *testing.T) {
	b := simplego.New()
	x := simplego.FromFlat32([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	out, err := b.Zeros(dtypes.Float32, []int{2})
	require.NoError(t, err)

	n := mustParse(t, "ij->i")
	full := optimize.CreatePlan(n, [][]int{{2, 3}}, optimize.StrategyAuto, optimize.GPUCostModel())
	run(t, full, []*tensors.View{x}, out)
	assert.Equal(t, []float32{6, 15}, simplego.Flat32(out))
}
