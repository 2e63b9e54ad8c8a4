// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
)

func mustParse(t *testing.T, s string) *notation.Notation {
	t.Helper()
	n, err := notation.Parse(s)
	require.NoError(t, err)
	return n
}

func TestCostModelMatmul(t *testing.T) {
	model := GPUCostModel()
	cost := model.PairwiseCost(
		[]int{100, 200}, []int{200, 300},
		[]rune("ij"), []rune("jk"), []rune{'j'})

	assert.Equal(t, uint64(12_000_000), cost.FLOPs)
	assert.Equal(t, uint64(100*200+200*300+100*300), cost.Memory)
	assert.Equal(t, cost.FLOPs+64*cost.Memory, cost.Total)
}

func TestCostModelBatchIndexCountedOnce(t *testing.T) {
	// bij,bjk with j contracted: b survives in both operands but must be
	// counted once in the output size.
	model := FLOPsOnlyCostModel()
	cost := model.PairwiseCost(
		[]int{8, 64, 128}, []int{8, 128, 256},
		[]rune("bij"), []rune("bjk"), []rune{'j'})

	assert.Equal(t, uint64(2*8*64*256*128), cost.FLOPs)
}

func TestCostOrdering(t *testing.T) {
	cheap := NewCost(100, 10, 64)
	expensive := NewCost(1000, 100, 64)
	assert.True(t, cheap.Less(expensive))
	assert.False(t, expensive.Less(cheap))
}

func TestOptimisticRemaining(t *testing.T) {
	model := GPUCostModel()
	assert.Equal(t, Cost{}, model.OptimisticRemaining([][]int{{10, 10}}))

	lb := model.OptimisticRemaining([][]int{{10, 20}, {20, 30}})
	assert.Equal(t, uint64(10*20+20*30), lb.FLOPs)
}

func TestGreedyMatmul(t *testing.T) {
	path := Greedy(mustParse(t, "ij,jk->ik"), [][]int{{100, 200}, {200, 300}}, GPUCostModel())

	require.Equal(t, 1, path.Len())
	step := path.Steps()[0]
	assert.Equal(t, [2]int{0, 1}, step.Inputs)
	assert.Equal(t, []rune{'j'}, step.Contracted)
	assert.Equal(t, []rune{'i', 'k'}, step.Result)
}

func TestGreedyChain(t *testing.T) {
	path := Greedy(mustParse(t, "ij,jk,kl->il"),
		[][]int{{10, 20}, {20, 30}, {30, 40}}, GPUCostModel())
	assert.Equal(t, 2, path.Len())
}

func TestGreedySkewedChainPicksCheapPairFirst(t *testing.T) {
	// (A·B)·C = 2·10·1000·2 + 2·1000·3·2 = 52,000 element-products vs
	// A·(B·C) = 60,120; greedy must choose (0,1) first under alpha=0.
	path := GreedyFLOPsOnly(mustParse(t, "ij,jk,kl->il"),
		[][]int{{2, 10}, {10, 1000}, {1000, 3}})

	require.Equal(t, 2, path.Len())
	assert.Equal(t, [2]int{0, 1}, path.Steps()[0].Inputs)
	assert.Equal(t, uint64(2*(2*10*1000)+2*(2*1000*3)), path.TotalFLOPs())
}

func TestOptimalMatchesGreedyRepresentation(t *testing.T) {
	n := mustParse(t, "ij,jk,kl->il")
	shapes := [][]int{{2, 10}, {10, 1000}, {1000, 3}}
	model := FLOPsOnlyCostModel()

	greedy := Greedy(n, shapes, model)
	optimal := Optimal(n, shapes, model)

	require.Equal(t, greedy.Len(), optimal.Len())
	for i := range greedy.Steps() {
		assert.Equal(t, greedy.Steps()[i].Inputs, optimal.Steps()[i].Inputs)
		assert.Equal(t, greedy.Steps()[i].Result, optimal.Steps()[i].Result)
	}
}

func TestOptimalChainOrder(t *testing.T) {
	// The optimal order contracts (A,B) first: 26,000 FLOPs of
	// multiply-adds versus 30,060 the other way (counting 2 per FMA gives
	// 52,000 vs 60,120).
	n := mustParse(t, "ij,jk,kl->il")
	shapes := [][]int{{2, 10}, {10, 1000}, {1000, 3}}

	path := Optimal(n, shapes, FLOPsOnlyCostModel())
	require.Equal(t, 2, path.Len())
	assert.Equal(t, [2]int{0, 1}, path.Steps()[0].Inputs)
}

func TestOptimalNotWorseThanGreedy(t *testing.T) {
	cases := []struct {
		notation string
		shapes   [][]int
	}{
		{"ij,jk,kl->il", [][]int{{2, 10}, {10, 1000}, {1000, 3}}},
		{"ij,jk,kl,lm->im", [][]int{{10, 20}, {20, 30}, {30, 40}, {40, 50}}},
		{"ab,bc,cd,de,ef->af", [][]int{{4, 50}, {50, 3}, {3, 80}, {80, 7}, {7, 20}}},
	}
	model := FLOPsOnlyCostModel()
	for _, tc := range cases {
		n := mustParse(t, tc.notation)
		greedy := Greedy(n, tc.shapes, model)
		optimal := Optimal(n, tc.shapes, model)
		bb := BranchBound(n, tc.shapes, model)

		assert.LessOrEqual(t, optimal.TotalFLOPs(), greedy.TotalFLOPs(), tc.notation)
		assert.LessOrEqual(t, bb.TotalFLOPs(), greedy.TotalFLOPs(), tc.notation)
		assert.LessOrEqual(t, optimal.TotalFLOPs(), bb.TotalFLOPs(), tc.notation)
	}
}

func TestBranchBoundChain(t *testing.T) {
	path := BranchBound(mustParse(t, "ij,jk,kl->il"),
		[][]int{{10, 20}, {20, 30}, {30, 40}}, GPUCostModel())
	assert.Equal(t, 2, path.Len())
}

func TestBranchBoundWithTightLimits(t *testing.T) {
	path := BranchBoundWithLimits(mustParse(t, "ij,jk,kl,lm,mn->in"),
		[][]int{{10, 20}, {20, 30}, {30, 40}, {40, 50}, {50, 60}},
		GPUCostModel(), 100, 3)
	// Even with tiny limits the path must be complete.
	assert.Equal(t, 4, path.Len())
}

func TestBranchBoundBatchMatmul(t *testing.T) {
	path := BranchBound(mustParse(t, "bij,bjk->bik"),
		[][]int{{8, 64, 128}, {8, 128, 256}}, GPUCostModel())
	require.Equal(t, 1, path.Len())
	assert.Equal(t, []rune{'j'}, path.Steps()[0].Contracted)
	assert.Equal(t, []rune{'b', 'i', 'k'}, path.Steps()[0].Result)
}

func TestHyperedgeKeepsSharedIndex(t *testing.T) {
	// k appears in inputs 1 and 2 and also in input 0's partner j chain:
	// contracting (0,1) must keep k alive because input 2 still needs it.
	n := mustParse(t, "ij,jk,kl->il")
	shapes := [][]int{{5, 6}, {6, 7}, {7, 8}}
	state, outputSet := initialState(n, shapes)

	step, _ := pairStep(state, 0, 1, outputSet, GPUCostModel())
	assert.Equal(t, []rune{'j'}, step.Contracted)
	assert.Equal(t, []rune{'i', 'k'}, step.Result)
}

func TestCreatePlanMatmulFastPath(t *testing.T) {
	plan := CreatePlan(mustParse(t, "ij,jk->ik"),
		[][]int{{100, 200}, {200, 300}}, StrategyAuto, GPUCostModel())

	assert.True(t, plan.UsesFastPath())
	assert.Equal(t, 1, plan.NumSteps())
	assert.Equal(t, []int{100, 300}, plan.OutputShape())
	assert.Equal(t, uint64(12_000_000), plan.TotalFLOPs())
}

func TestCreatePlanChain(t *testing.T) {
	plan := CreatePlan(mustParse(t, "ij,jk,kl->il"),
		[][]int{{10, 20}, {20, 30}, {30, 40}}, StrategyAuto, GPUCostModel())

	assert.False(t, plan.UsesFastPath())
	assert.Equal(t, 2, plan.NumSteps())
	assert.Equal(t, []int{10, 40}, plan.OutputShape())
	require.Len(t, plan.InputIndices(), 3)
	assert.Equal(t, []rune{'i', 'j'}, plan.InputIndices()[0])
}

func TestCreatePlanStrategiesAgreeOnStepCount(t *testing.T) {
	n := mustParse(t, "ij,jk,kl,lm->im")
	shapes := [][]int{{10, 20}, {20, 30}, {30, 40}, {40, 50}}
	for _, strategy := range StrategyValues() {
		plan := CreatePlan(n, shapes, strategy, GPUCostModel())
		assert.Equal(t, 3, plan.NumSteps(), strategy.String())
	}
}

func TestStrategyStrings(t *testing.T) {
	assert.Equal(t, "auto", StrategyAuto.String())
	assert.Equal(t, "branch_bound", StrategyBranchBound.String())

	s, err := StrategyString("greedy")
	require.NoError(t, err)
	assert.Equal(t, StrategyGreedy, s)
}
