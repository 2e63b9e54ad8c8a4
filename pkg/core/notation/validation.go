// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notation

// Validate checks the structural invariants of a parsed notation:
//   - every output index appears in at least one input;
//   - no index is used more often than a diagonal/contraction allows;
//   - ellipsis usage is uniform across inputs and output.
func Validate(n *Notation) error {
	if err := validateOutputIndices(n); err != nil {
		return err
	}
	if err := validateIndexCounts(n); err != nil {
		return err
	}
	return validateEllipsisConsistency(n)
}

func validateOutputIndices(n *Notation) error {
	for _, r := range n.Output().Named() {
		found := false
		for _, in := range n.Inputs() {
			if in.Contains(r) {
				found = true
				break
			}
		}
		if !found {
			return &OutputIndexError{Index: r}
		}
	}
	return nil
}

// validateIndexCounts enforces the multiplicity rules: an index occurs at
// most twice across all inputs (either a contraction across two operands or
// a diagonal within one) and at most once in the output.
func validateIndexCounts(n *Notation) error {
	counts := make(map[rune]int)
	for _, in := range n.Inputs() {
		for _, r := range in.Named() {
			counts[r]++
		}
	}
	for r, c := range counts {
		if c > 2 {
			return &IndexCountError{Index: r, Count: c}
		}
		if n.Output().Count(r) > 1 {
			return &IndexCountError{Index: r, Count: c + n.Output().Count(r)}
		}
	}
	return nil
}

func validateEllipsisConsistency(n *Notation) error {
	withEllipsis := 0
	for _, in := range n.Inputs() {
		if in.HasEllipsis() {
			withEllipsis++
		}
	}
	outputHas := n.Output().HasEllipsis()

	if withEllipsis == 0 && !outputHas {
		return nil
	}
	if withEllipsis != n.NumInputs() {
		return &EllipsisError{Message: "if any input has ellipsis, all inputs must have ellipsis"}
	}
	if !outputHas {
		return &EllipsisError{Message: "output must have ellipsis when inputs do"}
	}
	return nil
}

// ValidationResult carries the shape information derived while validating
// operands, feeding the planner's cost estimates.
type ValidationResult struct {
	// EllipsisDims is the common ellipsis width E (0 without ellipsis).
	EllipsisDims int
	// DimMap binds every (expanded) index to its size.
	DimMap map[rune]int
	// OutputShape is the computed output shape.
	OutputShape []int
	// ContractedShape lists the sizes of contracted indices.
	ContractedShape []int
}

// FLOPs estimates 2·|output|·|contracted| fused multiply-adds.
func (r *ValidationResult) FLOPs() uint64 {
	out := uint64(1)
	for _, d := range r.OutputShape {
		out *= uint64(d)
	}
	contracted := uint64(1)
	for _, d := range r.ContractedShape {
		contracted *= uint64(d)
	}
	return 2 * out * contracted
}

// MemoryElements estimates the element traffic: all inputs read once plus
// the output written once.
func (r *ValidationResult) MemoryElements(shapes [][]int) uint64 {
	total := uint64(1)
	for _, d := range r.OutputShape {
		total *= uint64(d)
	}
	for _, shape := range shapes {
		n := uint64(1)
		for _, d := range shape {
			n *= uint64(d)
		}
		total += n
	}
	return total
}

// ValidateShapes checks the operand shapes against the notation and derives
// the output shape and dimension bindings.
func ValidateShapes(n *Notation, shapes [][]int) (*ValidationResult, error) {
	if len(shapes) != n.NumInputs() {
		return nil, parseErrorf("expected %d input shapes, got %d", n.NumInputs(), len(shapes))
	}

	ellipsisDims, err := computeEllipsisDims(n, shapes)
	if err != nil {
		return nil, err
	}

	dimMap, err := buildDimensionMap(n, shapes, ellipsisDims)
	if err != nil {
		return nil, err
	}

	outputShape, err := computeOutputShape(n, dimMap, ellipsisDims)
	if err != nil {
		return nil, err
	}

	var contractedShape []int
	for _, r := range n.ContractionIndices() {
		if d, ok := dimMap[r]; ok {
			contractedShape = append(contractedShape, d)
		}
	}

	return &ValidationResult{
		EllipsisDims:    ellipsisDims,
		DimMap:          dimMap,
		OutputShape:     outputShape,
		ContractedShape: contractedShape,
	}, nil
}

// computeEllipsisDims derives the common ellipsis width E. Every input with
// an ellipsis must leave the same number of axes unaccounted for; inputs
// without one contribute no constraint.
func computeEllipsisDims(n *Notation, shapes [][]int) (int, error) {
	if !n.HasEllipsis() {
		return 0, nil
	}

	dims := -1
	for i, in := range n.Inputs() {
		if !in.HasEllipsis() {
			continue
		}
		explicit := in.ExplicitCount()
		total := len(shapes[i])
		if total < explicit {
			return 0, &DimensionMismatchError{
				Subscript: in.String(),
				Expected:  explicit,
				Got:       total,
			}
		}
		this := total - explicit
		if dims >= 0 && dims != this {
			return 0, &EllipsisDimensionError{Expected: dims, Got: this}
		}
		dims = this
	}
	if dims < 0 {
		dims = 0
	}
	return dims, nil
}

// buildDimensionMap binds every expanded index to a size, failing on a
// rank mismatch or an index bound to two different sizes.
func buildDimensionMap(n *Notation, shapes [][]int, ellipsisDims int) (map[rune]int, error) {
	batch := batchRunes(ellipsisDims)
	dimMap := make(map[rune]int)

	for i, in := range n.Inputs() {
		expanded := in.ExpandEllipsis(batch)
		if expanded.ExplicitCount() != len(shapes[i]) {
			return nil, &DimensionMismatchError{
				Subscript: in.String(),
				Expected:  expanded.ExplicitCount(),
				Got:       len(shapes[i]),
			}
		}
		for pos, r := range expanded.Named() {
			dim := shapes[i][pos]
			if existing, ok := dimMap[r]; ok {
				if existing != dim {
					return nil, &ShapeMismatchError{Index: r, Expected: existing, Got: dim}
				}
				continue
			}
			dimMap[r] = dim
		}
	}
	return dimMap, nil
}

func computeOutputShape(n *Notation, dimMap map[rune]int, ellipsisDims int) ([]int, error) {
	expanded := n.Output().ExpandEllipsis(batchRunes(ellipsisDims))
	shape := make([]int, 0, expanded.ExplicitCount())
	for _, r := range expanded.Named() {
		d, ok := dimMap[r]
		if !ok {
			return nil, &OutputIndexError{Index: r}
		}
		shape = append(shape, d)
	}
	return shape, nil
}
