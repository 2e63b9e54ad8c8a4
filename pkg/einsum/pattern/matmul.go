// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pattern

import "github.com/huy209vn/cubek-einsum/pkg/core/notation"

// MatmulConfig describes a recognized (batched) matrix multiplication.
type MatmulConfig struct {
	// TransposeA is set when A's contracted axis precedes its M axis.
	TransposeA bool
	// TransposeB is set when B's N axis precedes its contracted axis.
	TransposeB bool
	// BatchDims are the batch axis positions in the output (leading).
	BatchDims []int
	// MDim and NDim are the output positions of the M and N axes.
	MDim int
	NDim int
	// KIndex is the contracted index letter.
	KIndex rune
}

// isMatmul matches a rank-2 matrix multiplication including transposed
// variants: "ij,jk->ik", "ji,jk->ik" (Aᵀ), "ij,kj->ik" (Bᵀ).
func isMatmul(n *notation.Notation) *MatmulConfig {
	if !n.IsBinary() {
		return nil
	}

	subA, subB := n.Inputs()[0], n.Inputs()[1]
	output := n.Output()
	if subA.ExplicitCount() != 2 || subB.ExplicitCount() != 2 || output.ExplicitCount() != 2 {
		return nil
	}
	if subA.HasEllipsis() || subB.HasEllipsis() || output.HasEllipsis() {
		return nil
	}

	return classifyMatmul(subA.Named(), subB.Named(), output.Named())
}

// isBatchedMatmul matches a matmul with one or more leading batch axes:
// "bij,bjk->bik", "bhqd,bhkd->bhqk". Batch axes must lead all three
// subscripts in the same order; anything else goes through the general
// planner, which handles arbitrary layouts with explicit permutes.
func isBatchedMatmul(n *notation.Notation) *MatmulConfig {
	if !n.IsBinary() {
		return nil
	}

	subA, subB := n.Inputs()[0], n.Inputs()[1]
	output := n.Output()
	if subA.ExplicitCount() < 3 || subB.ExplicitCount() < 3 {
		return nil
	}
	if subA.HasEllipsis() || subB.HasEllipsis() || output.HasEllipsis() {
		return nil
	}

	runesA := subA.Named()
	runesB := subB.Named()
	runesOut := output.Named()

	setA := runeSet(runesA)
	setB := runeSet(runesB)

	// Batch indices: shared by A, B and the output.
	var batch []rune
	for _, r := range runesOut {
		if setA[r] && setB[r] {
			batch = append(batch, r)
		}
	}
	if len(batch) == 0 {
		return nil
	}

	// Require the batch block to lead all three subscripts identically, so
	// stride-swapping the last two axes is all the GEMM delegation needs.
	if len(runesA) != len(batch)+2 || len(runesB) != len(batch)+2 ||
		len(runesOut) != len(batch)+2 {
		return nil
	}
	for i, r := range batch {
		if runesA[i] != r || runesB[i] != r || runesOut[i] != r {
			return nil
		}
	}

	cfg := classifyMatmul(runesA[len(batch):], runesB[len(batch):], runesOut[len(batch):])
	if cfg == nil {
		return nil
	}
	cfg.BatchDims = make([]int, len(batch))
	for i := range batch {
		cfg.BatchDims[i] = i
	}
	cfg.MDim += len(batch)
	cfg.NDim += len(batch)
	return cfg
}

// classifyMatmul identifies M, N and K among the non-batch indices of a
// two-axis-per-operand multiplication and derives the transpose flags.
func classifyMatmul(runesA, runesB, runesOut []rune) *MatmulConfig {
	if len(runesA) != 2 || len(runesB) != 2 || len(runesOut) != 2 {
		return nil
	}

	setA := runeSet(runesA)
	setB := runeSet(runesB)
	setOut := runeSet(runesOut)

	// K: in both inputs, not in the output.
	var contracted []rune
	for r := range setA {
		if setB[r] && !setOut[r] {
			contracted = append(contracted, r)
		}
	}
	if len(contracted) != 1 {
		return nil
	}
	k := contracted[0]

	// M: only in A, kept in the output. N: only in B, kept.
	var mCandidates, nCandidates []rune
	for r := range setA {
		if !setB[r] && setOut[r] {
			mCandidates = append(mCandidates, r)
		}
	}
	for r := range setB {
		if !setA[r] && setOut[r] {
			nCandidates = append(nCandidates, r)
		}
	}
	if len(mCandidates) != 1 || len(nCandidates) != 1 {
		return nil
	}
	m, nIdx := mCandidates[0], nCandidates[0]

	mPosA := runePos(runesA, m)
	kPosA := runePos(runesA, k)
	kPosB := runePos(runesB, k)
	nPosB := runePos(runesB, nIdx)

	return &MatmulConfig{
		TransposeA: kPosA < mPosA,
		TransposeB: nPosB < kPosB,
		MDim:       runePos(runesOut, m),
		NDim:       runePos(runesOut, nIdx),
		KIndex:     k,
	}
}

func runePos(runes []rune, r rune) int {
	for i, x := range runes {
		if x == r {
			return i
		}
	}
	return -1
}
