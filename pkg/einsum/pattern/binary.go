// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pattern

import "github.com/huy209vn/cubek-einsum/pkg/core/notation"

// isHadamard reports an elementwise product: both inputs and the output
// carry exactly the same index set and nothing is contracted.
func isHadamard(n *notation.Notation) bool {
	if !n.IsBinary() || !n.IsPermutationOnly() {
		return false
	}

	setA := runeSet(n.Inputs()[0].Named())
	setB := runeSet(n.Inputs()[1].Named())
	setOut := runeSet(n.Output().Named())

	return sameRuneSet(setA, setB) && sameRuneSet(setA, setOut)
}

// isOuterProduct reports disjoint input index sets whose union is the
// output, with nothing contracted.
func isOuterProduct(n *notation.Notation) bool {
	if !n.IsBinary() || !n.IsPermutationOnly() {
		return false
	}

	setA := runeSet(n.Inputs()[0].Named())
	setB := runeSet(n.Inputs()[1].Named())
	for r := range setA {
		if setB[r] {
			return false
		}
	}

	union := make(map[rune]bool, len(setA)+len(setB))
	for r := range setA {
		union[r] = true
	}
	for r := range setB {
		union[r] = true
	}
	return sameRuneSet(union, runeSet(n.Output().Named()))
}

// isDotProduct reports two same-indexed inputs fully contracted to a
// scalar: "i,i->", "ij,ij->" (Frobenius inner product).
func isDotProduct(n *notation.Notation) bool {
	if !n.IsBinary() || !n.IsScalarOutput() {
		return false
	}
	return sameRuneSet(runeSet(n.Inputs()[0].Named()), runeSet(n.Inputs()[1].Named()))
}

func runeSet(runes []rune) map[rune]bool {
	set := make(map[rune]bool, len(runes))
	for _, r := range runes {
		set[r] = true
	}
	return set
}

func sameRuneSet(a, b map[rune]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if !b[r] {
			return false
		}
	}
	return true
}
