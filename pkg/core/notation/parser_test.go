// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatmul(t *testing.T) {
	n, err := Parse("ij,jk->ik")
	require.NoError(t, err)

	assert.Equal(t, 2, n.NumInputs())
	assert.Equal(t, "ij", n.Inputs()[0].String())
	assert.Equal(t, "jk", n.Inputs()[1].String())
	assert.Equal(t, "ik", n.Output().String())
	assert.True(t, n.IsContracted('j'))
	assert.False(t, n.IsContracted('i'))
}

func TestParseBatchedMatmul(t *testing.T) {
	n, err := Parse("bij,bjk->bik")
	require.NoError(t, err)
	assert.True(t, n.IsBatch('b'))
	assert.Equal(t, []rune{'b'}, n.BatchIndices())
}

func TestParseEllipsis(t *testing.T) {
	n, err := Parse("...ij,...jk->...ik")
	require.NoError(t, err)
	assert.True(t, n.HasEllipsis())
	assert.True(t, n.Inputs()[0].HasEllipsis())
	assert.True(t, n.Output().HasEllipsis())
}

func TestParseAttentionScores(t *testing.T) {
	n, err := Parse("bhqd,bhkd->bhqk")
	require.NoError(t, err)
	assert.Equal(t, []rune{'b', 'h'}, n.BatchIndices())
	assert.Equal(t, []rune{'d'}, n.ContractionIndices())
}

func TestParseWhitespace(t *testing.T) {
	n, err := Parse(" ij , jk -> ik ")
	require.NoError(t, err)
	assert.Equal(t, "ij,jk->ik", n.String())
}

func TestParseImplicitOutput(t *testing.T) {
	tests := []struct {
		notation string
		want     string
	}{
		{"ij,jk", "ij,jk->ik"},
		{"ii", "ii->"},
		{"ij,ij", "ij,ij->"},
		{"ji", "ji->ij"}, // implicit output is sorted
		{"...ij,...jk", "...ij,...jk->...ik"},
	}
	for _, tc := range tests {
		n, err := Parse(tc.notation)
		require.NoError(t, err, tc.notation)
		assert.Equal(t, tc.want, n.String(), tc.notation)
	}
}

// Implicit and explicit spellings of the same expression must parse
// identically.
func TestImplicitOutputEquivalence(t *testing.T) {
	implicit, err := Parse("ij,jk")
	require.NoError(t, err)
	explicit, err := Parse("ij,jk->ik")
	require.NoError(t, err)
	assert.Equal(t, explicit.String(), implicit.String())
}

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{
		"ij,jk->ik",
		"bhqd,bhkd->bhqk",
		"...ij,...jk->...ik",
		"ii->",
		"i,j->ij",
		"ijk,jkl,klm->im",
		"IJ,JK->IK",
	} {
		n, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, n.String(), s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		notation string
	}{
		{"empty", ""},
		{"digit", "i1j,jk->ik"},
		{"two dots", "..ij,jk->ik"},
		{"single dot", ".ij->ij"},
		{"double ellipsis", "...i...->i"},
		{"punctuation", "i;j->ij"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.notation)
			require.Error(t, err)
			var perr *ParseError
			if tc.notation != "" {
				assert.ErrorAs(t, err, &perr)
			}
		})
	}
}

func TestParseEmptyField(t *testing.T) {
	_, err := Parse("ij,,jk->ik")
	assert.ErrorIs(t, err, ErrEmptySubscript)

	_, err = Parse(",ij->ij")
	assert.ErrorIs(t, err, ErrEmptySubscript)
}

func TestParseChain(t *testing.T) {
	ns, err := ParseChain("ij,jk->ik; ik,kl->il")
	require.NoError(t, err)
	require.Len(t, ns, 2)
	assert.Equal(t, "ij,jk->ik", ns[0].String())
	assert.Equal(t, "ik,kl->il", ns[1].String())
}

func TestPairwise(t *testing.T) {
	n, err := Parse("ij,jk,kl->il")
	require.NoError(t, err)

	// Contracting inputs 0 and 1: j is internal, k is still needed by
	// input 2.
	p := n.Pairwise(0, 1)
	assert.Equal(t, "ij,jk->ik", p.String())

	// Contracting inputs 1 and 2: k internal, j still needed by input 0.
	p = n.Pairwise(1, 2)
	assert.Equal(t, "jk,kl->jl", p.String())
}

func TestSubscriptExpandEllipsis(t *testing.T) {
	sub := NewSubscript()
	sub.PushEllipsis()
	sub.PushNamed('i')
	sub.PushNamed('j')

	expanded := sub.ExpandEllipsis([]rune{'①', '②'})
	assert.Equal(t, 4, expanded.Len())
	assert.False(t, expanded.HasEllipsis())
	assert.Equal(t, []rune{'①', '②', 'i', 'j'}, expanded.Named())
}

func TestSubscriptCount(t *testing.T) {
	sub := SubscriptFromRunes('i', 'i', 'j')
	assert.Equal(t, 2, sub.Count('i'))
	assert.Equal(t, 1, sub.Count('j'))
	assert.Equal(t, 0, sub.Count('k'))
	assert.Equal(t, 0, sub.Position('i'))
	assert.Equal(t, -1, sub.Position('k'))
}
