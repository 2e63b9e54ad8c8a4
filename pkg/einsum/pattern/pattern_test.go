// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
)

func recognize(t *testing.T, s string) *FastPath {
	t.Helper()
	n, err := notation.Parse(s)
	require.NoError(t, err)
	return Recognize(n)
}

func TestRecognizeMatmul(t *testing.T) {
	fp := recognize(t, "ij,jk->ik")
	require.NotNil(t, fp)
	assert.Equal(t, KindMatmul, fp.Kind)
	assert.False(t, fp.TransposeA)
	assert.False(t, fp.TransposeB)
}

func TestRecognizeMatmulTransposed(t *testing.T) {
	fp := recognize(t, "ji,jk->ik") // Aᵀ·B
	require.NotNil(t, fp)
	assert.True(t, fp.TransposeA)
	assert.False(t, fp.TransposeB)

	fp = recognize(t, "ij,kj->ik") // A·Bᵀ
	require.NotNil(t, fp)
	assert.False(t, fp.TransposeA)
	assert.True(t, fp.TransposeB)

	fp = recognize(t, "ji,kj->ik") // Aᵀ·Bᵀ
	require.NotNil(t, fp)
	assert.True(t, fp.TransposeA)
	assert.True(t, fp.TransposeB)
}

func TestRecognizeGramMatrix(t *testing.T) {
	fp := recognize(t, "ik,jk->ij")
	require.NotNil(t, fp)
	assert.Equal(t, KindMatmul, fp.Kind)
	assert.True(t, fp.TransposeB)
}

func TestRecognizeBatchedMatmul(t *testing.T) {
	fp := recognize(t, "bij,bjk->bik")
	require.NotNil(t, fp)
	assert.Equal(t, KindBatchedMatmul, fp.Kind)
	assert.Equal(t, []int{0}, fp.BatchDims)
	assert.False(t, fp.TransposeA)
	assert.False(t, fp.TransposeB)
}

func TestRecognizeAttentionScores(t *testing.T) {
	fp := recognize(t, "bhqd,bhkd->bhqk")
	require.NotNil(t, fp)
	assert.Equal(t, KindBatchedMatmul, fp.Kind)
	assert.Equal(t, []int{0, 1}, fp.BatchDims)
	assert.False(t, fp.TransposeA)
	assert.True(t, fp.TransposeB) // kd is Kᵀ
}

func TestRecognizeTranspose(t *testing.T) {
	fp := recognize(t, "ij->ji")
	require.NotNil(t, fp)
	assert.Equal(t, KindTranspose, fp.Kind)
	assert.Equal(t, []int{1, 0}, fp.Permutation)

	fp = recognize(t, "ijkl->jilk")
	require.NotNil(t, fp)
	assert.Equal(t, []int{1, 0, 3, 2}, fp.Permutation)
}

func TestIdentityIsNotTranspose(t *testing.T) {
	assert.Nil(t, recognize(t, "ij->ij"))
	assert.Nil(t, recognize(t, "i->i"))
}

func TestRecognizeTrace(t *testing.T) {
	fp := recognize(t, "ii->")
	require.NotNil(t, fp)
	assert.Equal(t, KindTrace, fp.Kind)

	fp = recognize(t, "ijj->")
	require.NotNil(t, fp)
	assert.Equal(t, KindTrace, fp.Kind)
}

func TestRecognizeDiagonalExtract(t *testing.T) {
	fp := recognize(t, "ii->i")
	require.NotNil(t, fp)
	assert.Equal(t, KindDiagonalExtract, fp.Kind)

	fp = recognize(t, "bii->bi")
	require.NotNil(t, fp)
	assert.Equal(t, KindDiagonalExtract, fp.Kind)
}

func TestRecognizeReduce(t *testing.T) {
	fp := recognize(t, "ij->i")
	require.NotNil(t, fp)
	assert.Equal(t, KindReduce, fp.Kind)
	assert.Equal(t, []int{1}, fp.Axes)

	fp = recognize(t, "ijk->")
	require.NotNil(t, fp)
	assert.Equal(t, []int{0, 1, 2}, fp.Axes)

	fp = recognize(t, "ijk->j")
	require.NotNil(t, fp)
	assert.Equal(t, []int{0, 2}, fp.Axes)
}

func TestDiagonalReductionIsNotPlainReduce(t *testing.T) {
	// Summing iji over the repeated index touches only the diagonal; a
	// plain axis reduction would not.
	assert.Nil(t, recognize(t, "iji->j"))
}

func TestRecognizeHadamard(t *testing.T) {
	fp := recognize(t, "ij,ij->ij")
	require.NotNil(t, fp)
	assert.Equal(t, KindHadamard, fp.Kind)

	fp = recognize(t, "ijk,ijk->ijk")
	require.NotNil(t, fp)
	assert.Equal(t, KindHadamard, fp.Kind)
}

func TestRecognizeOuterProduct(t *testing.T) {
	fp := recognize(t, "i,j->ij")
	require.NotNil(t, fp)
	assert.Equal(t, KindOuterProduct, fp.Kind)

	fp = recognize(t, "ij,kl->ijkl")
	require.NotNil(t, fp)
	assert.Equal(t, KindOuterProduct, fp.Kind)
}

func TestRecognizeDotProduct(t *testing.T) {
	fp := recognize(t, "i,i->")
	require.NotNil(t, fp)
	assert.Equal(t, KindDotProduct, fp.Kind)

	// Frobenius inner product.
	fp = recognize(t, "ij,ij->")
	require.NotNil(t, fp)
	assert.Equal(t, KindDotProduct, fp.Kind)
}

func TestNoFastPath(t *testing.T) {
	for _, s := range []string{
		"ij,jk,kl->il", // chain: three inputs
		"ij,j->ij",     // broadcast multiply
		"ijk,jk->i",    // partial contraction, not a matmul shape
	} {
		assert.Nil(t, recognize(t, s), s)
	}
}

func TestFastPathPredicates(t *testing.T) {
	fp := recognize(t, "ij,jk->ik")
	assert.True(t, fp.IsMatmul())
	assert.False(t, fp.IsUnary())
	assert.Equal(t, "matmul", fp.Name())

	fp = recognize(t, "ij->i")
	assert.True(t, fp.IsUnary())
	assert.Equal(t, "reduce", fp.Name())
}
