// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pattern

import "github.com/huy209vn/cubek-einsum/pkg/core/notation"

// isTranspose returns the axis permutation when the expression is a pure,
// non-identity reindexing: every input index appears in the output and
// nothing is contracted. perm[k] is the input position of the output's k-th
// index.
func isTranspose(n *notation.Notation) []int {
	if !n.IsUnary() || !n.IsPermutationOnly() {
		return nil
	}

	input := n.Inputs()[0]
	output := n.Output()
	if input.ExplicitCount() != output.ExplicitCount() {
		return nil
	}

	inputRunes := input.Named()
	perm := make([]int, 0, len(inputRunes))
	for _, r := range output.Named() {
		pos := -1
		for i, ir := range inputRunes {
			if ir == r {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil
		}
		perm = append(perm, pos)
	}
	if len(perm) != len(inputRunes) {
		return nil
	}

	// The identity is not a transpose.
	identity := true
	for i, p := range perm {
		if i != p {
			identity = false
			break
		}
	}
	if identity {
		return nil
	}
	return perm
}

// isTrace reports a scalar output produced by summing repeated (diagonal)
// indices: "ii->", "ijj->".
func isTrace(n *notation.Notation) bool {
	if !n.IsUnary() || !n.IsScalarOutput() {
		return false
	}

	input := n.Inputs()[0]
	output := n.Output()
	runes := input.Named()

	hasRepeat := false
	for _, r := range runes {
		if input.Count(r) > 1 {
			hasRepeat = true
			if output.Contains(r) {
				return false // repeated index kept in output is an extraction
			}
		}
	}
	return hasRepeat
}

// isDiagonalExtract reports diagonal extraction: every repeated index is
// kept in the output, every non-repeated index is kept too, and the
// repeated pair occupies the last two input axes (the diagonal kernel's
// contract).
func isDiagonalExtract(n *notation.Notation) bool {
	if !n.IsUnary() {
		return false
	}

	input := n.Inputs()[0]
	output := n.Output()
	runes := input.Named()

	var repeated []rune
	seen := make(map[rune]bool)
	for _, r := range runes {
		if seen[r] {
			repeated = append(repeated, r)
		}
		seen[r] = true
	}
	if len(repeated) == 0 {
		return false
	}

	// The output must be the input with the duplicate occurrence dropped,
	// in the same order: that is what the kernel produces.
	var dedup []rune
	inDedup := make(map[rune]bool)
	for _, r := range runes {
		if !inDedup[r] {
			dedup = append(dedup, r)
			inDedup[r] = true
		}
	}
	outRunes := output.Named()
	if len(outRunes) != len(dedup) {
		return false
	}
	for i, r := range dedup {
		if outRunes[i] != r {
			return false
		}
	}

	// The kernel walks the diagonal of the trailing NxN block, so the
	// repeated pair must sit in the last two axes.
	if len(repeated) != 1 {
		return false
	}
	k := len(runes)
	if k < 2 || runes[k-1] != repeated[0] || runes[k-2] != repeated[0] {
		return false
	}
	return true
}

// isReduction returns the axes to sum away when the expression drops input
// axes without any diagonal: "ij->i" gives [1], "ijk->" gives [0,1,2].
func isReduction(n *notation.Notation) []int {
	if !n.IsUnary() || n.IsPermutationOnly() {
		return nil
	}

	input := n.Inputs()[0]
	output := n.Output()
	runes := input.Named()

	// A repeated input index means a diagonal is involved; a plain axis sum
	// would add off-diagonal elements it must not touch.
	for _, r := range runes {
		if input.Count(r) > 1 {
			return nil
		}
	}

	var axes []int
	var kept []rune
	for i, r := range runes {
		if output.Contains(r) {
			kept = append(kept, r)
		} else {
			axes = append(axes, i)
		}
	}
	if len(axes) == 0 {
		return nil
	}

	// The reduce engine keeps surviving axes in input order; a reordered
	// output is a reduction plus a transpose, which is not this fast path.
	outRunes := output.Named()
	if len(outRunes) != len(kept) {
		return nil
	}
	for i, r := range kept {
		if outRunes[i] != r {
			return nil
		}
	}
	return axes
}
