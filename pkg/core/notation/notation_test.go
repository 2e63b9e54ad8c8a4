// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotationClassification(t *testing.T) {
	n := mustParse(t, "bij,bjk->bik")

	assert.True(t, n.IsBinary())
	assert.False(t, n.IsUnary())
	assert.False(t, n.IsPermutationOnly())
	assert.False(t, n.IsScalarOutput())
	assert.True(t, n.IsContracted('j'))
	assert.True(t, n.IsBatch('b'))
	assert.False(t, n.IsBatch('i'))
	assert.Equal(t, []rune{'b', 'i', 'j', 'k'}, n.AllIndices())
	assert.Equal(t, 2, n.CountInInputs('b'))
	assert.Equal(t, []int{0, 1}, n.InputsContaining('b'))
	assert.Equal(t, []int{1}, n.InputsContaining('k'))
}

func TestScalarOutput(t *testing.T) {
	assert.True(t, mustParse(t, "ii->").IsScalarOutput())
	assert.True(t, mustParse(t, "i,i->").IsScalarOutput())
	assert.False(t, mustParse(t, "ij->i").IsScalarOutput())
}

func TestExpandEllipsisNotation(t *testing.T) {
	n := mustParse(t, "...ij,...jk->...ik")
	expanded := n.ExpandEllipsis(2)

	assert.False(t, expanded.HasEllipsis())
	assert.Equal(t, 4, expanded.Inputs()[0].ExplicitCount())
	assert.Equal(t, 4, expanded.Output().ExplicitCount())
	// The reserved batch runes become shared batch indices.
	assert.Len(t, expanded.BatchIndices(), 2)

	// Without an ellipsis the notation is returned unchanged.
	plain := mustParse(t, "ij,jk->ik")
	assert.Same(t, plain, plain.ExpandEllipsis(3))
}

func TestComputeFLOPs(t *testing.T) {
	n := mustParse(t, "ij,jk->ik")
	flops := n.ComputeFLOPs([][]int{{100, 200}, {200, 300}}, 0)
	assert.Equal(t, uint64(12_000_000), flops)
}
