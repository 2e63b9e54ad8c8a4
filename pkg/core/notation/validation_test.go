// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *Notation {
	t.Helper()
	n, err := Parse(s)
	require.NoError(t, err)
	return n
}

func TestValidateMatmul(t *testing.T) {
	n := mustParse(t, "ij,jk->ik")
	require.NoError(t, Validate(n))

	result, err := ValidateShapes(n, [][]int{{3, 4}, {4, 5}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5}, result.OutputShape)
	assert.Equal(t, []int{4}, result.ContractedShape)
	assert.Equal(t, 0, result.EllipsisDims)
}

func TestValidateBatchedMatmul(t *testing.T) {
	n := mustParse(t, "bij,bjk->bik")
	result, err := ValidateShapes(n, [][]int{{2, 3, 4}, {2, 4, 5}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5}, result.OutputShape)
}

func TestValidateShapeMismatch(t *testing.T) {
	n := mustParse(t, "ij,jk->ik")
	_, err := ValidateShapes(n, [][]int{{3, 4}, {5, 6}})
	require.Error(t, err)

	var mismatch *ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 'j', mismatch.Index)
	assert.Equal(t, 4, mismatch.Expected)
	assert.Equal(t, 5, mismatch.Got)
}

func TestValidateDimensionMismatch(t *testing.T) {
	n := mustParse(t, "ij,jk->ik")
	_, err := ValidateShapes(n, [][]int{{3, 4, 5}, {4, 5}})
	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "ij", mismatch.Subscript)
}

func TestValidateOutputIndexNotInInputs(t *testing.T) {
	n := mustParse(t, "ij->ijk")
	err := Validate(n)
	var oerr *OutputIndexError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, 'k', oerr.Index)
}

func TestValidateIndexCounts(t *testing.T) {
	// Diagonals and contractions are fine.
	require.NoError(t, Validate(mustParse(t, "ii->i")))
	require.NoError(t, Validate(mustParse(t, "ij,jk->ik")))
	require.NoError(t, Validate(mustParse(t, "ij,ij->ij")))

	// Three input occurrences are not.
	err := Validate(mustParse(t, "ii,ij->j"))
	var cerr *IndexCountError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 'i', cerr.Index)
	assert.Equal(t, 3, cerr.Count)

	err = Validate(mustParse(t, "iii->"))
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.Count)
}

func TestValidateInconsistentEllipsis(t *testing.T) {
	err := Validate(mustParse(t, "...ij,jk->ik"))
	var eerr *EllipsisError
	require.ErrorAs(t, err, &eerr)

	err = Validate(mustParse(t, "...ij,...jk->ik"))
	require.ErrorAs(t, err, &eerr)
}

func TestValidateEllipsisWidth(t *testing.T) {
	n := mustParse(t, "...ij,...jk->...ik")
	result, err := ValidateShapes(n, [][]int{{2, 3, 4, 5}, {2, 3, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.EllipsisDims)
	assert.Equal(t, []int{2, 3, 4, 6}, result.OutputShape)
}

func TestValidateEllipsisWidthMismatch(t *testing.T) {
	n := mustParse(t, "...ij,...jk->...ik")
	_, err := ValidateShapes(n, [][]int{{2, 3, 4, 5}, {2, 5, 6}})
	var eerr *EllipsisDimensionError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 2, eerr.Expected)
	assert.Equal(t, 1, eerr.Got)
}

func TestValidateArity(t *testing.T) {
	n := mustParse(t, "ij,jk->ik")
	_, err := ValidateShapes(n, [][]int{{3, 4}})
	require.Error(t, err)
}

func TestValidationFLOPs(t *testing.T) {
	n := mustParse(t, "ij,jk->ik")
	result, err := ValidateShapes(n, [][]int{{100, 200}, {200, 300}})
	require.NoError(t, err)

	// 100·300 outputs, each over 200 contracted elements, 2 FLOPs each.
	assert.Equal(t, uint64(12_000_000), result.FLOPs())
	assert.Equal(t, uint64(100*200+200*300+100*300),
		result.MemoryElements([][]int{{100, 200}, {200, 300}}))
}

// Validation output is a pure function of (notation, shapes).
func TestValidationDeterminism(t *testing.T) {
	n := mustParse(t, "bhqd,bhkd->bhqk")
	shapes := [][]int{{2, 3, 4, 5}, {2, 3, 4, 5}}

	first, err := ValidateShapes(n, shapes)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ValidateShapes(n, shapes)
		require.NoError(t, err)
		assert.Equal(t, first.OutputShape, again.OutputShape)
		assert.Equal(t, first.DimMap, again.DimMap)
		assert.Equal(t, first.ContractedShape, again.ContractedShape)
	}
}
