// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notation

import (
	"sort"
	"strings"
)

// Notation is a fully parsed einsum expression: input subscripts mapped to
// one output subscript, plus the derived index classification.
type Notation struct {
	inputs []*Subscript
	output *Subscript

	// contraction holds indices appearing in inputs but not in the output.
	contraction map[rune]bool
	// batch holds output indices appearing in every input.
	batch map[rune]bool
	// outputIndices are the output's named indices in order.
	outputIndices []rune

	hasEllipsis bool
	original    string
}

// New builds a Notation from parsed subscripts and derives the index sets.
func New(inputs []*Subscript, output *Subscript) *Notation {
	n := &Notation{
		inputs:      inputs,
		output:      output,
		contraction: make(map[rune]bool),
		batch:       make(map[rune]bool),
	}

	for _, in := range inputs {
		if in.HasEllipsis() {
			n.hasEllipsis = true
		}
	}
	if output.HasEllipsis() {
		n.hasEllipsis = true
	}

	outputSet := make(map[rune]bool)
	n.outputIndices = output.Named()
	for _, r := range n.outputIndices {
		outputSet[r] = true
	}

	for _, in := range inputs {
		for _, r := range in.Named() {
			if !outputSet[r] {
				n.contraction[r] = true
			}
		}
	}

	for _, r := range n.outputIndices {
		inAll := true
		for _, in := range inputs {
			if !in.Contains(r) {
				inAll = false
				break
			}
		}
		if inAll {
			n.batch[r] = true
		}
	}

	return n
}

// WithOriginal records the notation string the expression was parsed from.
func (n *Notation) WithOriginal(original string) *Notation {
	n.original = original
	return n
}

// Original returns the notation string this expression was parsed from, or
// "" when it was constructed programmatically.
func (n *Notation) Original() string { return n.original }

// Inputs returns the input subscripts.
func (n *Notation) Inputs() []*Subscript { return n.inputs }

// Output returns the output subscript.
func (n *Notation) Output() *Subscript { return n.output }

// NumInputs returns the number of input operands.
func (n *Notation) NumInputs() int { return len(n.inputs) }

// IsUnary reports a single-input expression.
func (n *Notation) IsUnary() bool { return len(n.inputs) == 1 }

// IsBinary reports a two-input expression.
func (n *Notation) IsBinary() bool { return len(n.inputs) == 2 }

// IsPermutationOnly reports that no index is contracted.
func (n *Notation) IsPermutationOnly() bool { return len(n.contraction) == 0 }

// IsScalarOutput reports that the output has no named index.
func (n *Notation) IsScalarOutput() bool {
	return n.output.IsEmpty() || (n.output.Len() == 1 && n.output.HasEllipsis())
}

// HasEllipsis reports whether any subscript uses an ellipsis.
func (n *Notation) HasEllipsis() bool { return n.hasEllipsis }

// OutputIndices returns the output's named indices in order.
func (n *Notation) OutputIndices() []rune { return n.outputIndices }

// ContractionIndices returns the contracted indices, sorted for
// deterministic iteration.
func (n *Notation) ContractionIndices() []rune { return sortedRunes(n.contraction) }

// BatchIndices returns the batch indices, sorted.
func (n *Notation) BatchIndices() []rune { return sortedRunes(n.batch) }

// IsContracted reports whether r is summed over.
func (n *Notation) IsContracted(r rune) bool { return n.contraction[r] }

// IsBatch reports whether r is a batch index.
func (n *Notation) IsBatch(r rune) bool { return n.batch[r] }

// AllIndices returns every named index used anywhere, sorted.
func (n *Notation) AllIndices() []rune {
	all := make(map[rune]bool)
	for _, in := range n.inputs {
		for _, r := range in.Named() {
			all[r] = true
		}
	}
	for _, r := range n.output.Named() {
		all[r] = true
	}
	return sortedRunes(all)
}

// CountInInputs returns the total occurrences of r across all inputs.
func (n *Notation) CountInInputs(r rune) int {
	total := 0
	for _, in := range n.inputs {
		total += in.Count(r)
	}
	return total
}

// InputsContaining returns the positions of inputs that mention r.
func (n *Notation) InputsContaining(r rune) []int {
	var out []int
	for i, in := range n.inputs {
		if in.Contains(r) {
			out = append(out, i)
		}
	}
	return out
}

// Pairwise derives the two-input notation for contracting inputs a and b in
// isolation: common indices are summed unless they are still needed by the
// final output or by any other input.
func (n *Notation) Pairwise(a, b int) *Notation {
	subA, subB := n.inputs[a], n.inputs[b]

	inA := make(map[rune]bool)
	for _, r := range subA.Named() {
		inA[r] = true
	}
	common := make(map[rune]bool)
	for _, r := range subB.Named() {
		if inA[r] {
			common[r] = true
		}
	}

	keptElsewhere := make(map[rune]bool)
	for i, in := range n.inputs {
		if i == a || i == b {
			continue
		}
		for _, r := range in.Named() {
			keptElsewhere[r] = true
		}
	}
	for _, r := range n.output.Named() {
		keptElsewhere[r] = true
	}

	var outputRunes []rune
	seen := make(map[rune]bool)
	appendKept := func(runes []rune) {
		for _, r := range runes {
			if seen[r] {
				continue
			}
			seen[r] = true
			if common[r] && !keptElsewhere[r] {
				continue // summed in this pairwise step
			}
			outputRunes = append(outputRunes, r)
		}
	}
	appendKept(subA.Named())
	appendKept(subB.Named())

	return New(
		[]*Subscript{subA, subB},
		SubscriptFromRunes(outputRunes...),
	)
}

// ExpandEllipsis returns an equivalent notation with every ellipsis
// replaced by ellipsisDims reserved batch index runes. Without an ellipsis
// the notation is returned unchanged.
func (n *Notation) ExpandEllipsis(ellipsisDims int) *Notation {
	if !n.hasEllipsis {
		return n
	}
	batch := batchRunes(ellipsisDims)
	inputs := make([]*Subscript, len(n.inputs))
	for i, in := range n.inputs {
		inputs[i] = in.ExpandEllipsis(batch)
	}
	return New(inputs, n.output.ExpandEllipsis(batch)).WithOriginal(n.original)
}

// ComputeFLOPs estimates the cost of evaluating the expression in one shot:
// 2·(product of output dims)·(product of contracted dims).
func (n *Notation) ComputeFLOPs(shapes [][]int, ellipsisDims int) uint64 {
	batch := batchRunes(ellipsisDims)
	dimMap := make(map[rune]int)
	for i, in := range n.inputs {
		if i >= len(shapes) {
			break
		}
		expanded := in.ExpandEllipsis(batch)
		for pos, r := range expanded.Named() {
			if pos < len(shapes[i]) {
				dimMap[r] = shapes[i][pos]
			}
		}
	}

	total := uint64(1)
	for _, r := range n.output.ExpandEllipsis(batch).Named() {
		if d, ok := dimMap[r]; ok {
			total *= uint64(d)
		}
	}
	for r := range n.contraction {
		if d, ok := dimMap[r]; ok {
			total *= uint64(d)
		}
	}
	return 2 * total
}

// String renders the notation in canonical form: comma-separated inputs,
// "->", output.
func (n *Notation) String() string {
	var b strings.Builder
	for i, in := range n.inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(in.String())
	}
	b.WriteString("->")
	b.WriteString(n.output.String())
	return b.String()
}

func sortedRunes(set map[rune]bool) []rune {
	out := make([]rune, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// batchRuneBase is the first code point of the reserved range used to name
// ellipsis batch axes during expansion. The circled-digit block U+2460.. is
// disjoint from every user-writable index letter (a..z, A..Z).
const batchRuneBase = 0x2460

// batchRunes generates count reserved batch index runes.
func batchRunes(count int) []rune {
	out := make([]rune, count)
	for i := range out {
		out[i] = rune(batchRuneBase + i)
	}
	return out
}
