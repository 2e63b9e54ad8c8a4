// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package einsum compiles and executes Einstein-summation expressions over
// device tensors.
//
// Given a notation string such as "bhqd,bhkd->bhqk" and the corresponding
// input views, Einsum recognizes common patterns and dispatches specialized
// kernels, or finds a near-optimal pairwise contraction order and runs it
// as a sequence of batched matrix multiplications and elementary kernels:
//
//	client := simplego.New()
//	err := einsum.Einsum(client, "ij,jk->ik", []*tensors.View{a, b}, c, nil)
//
// The matrix-multiplication and reduction engines are consumed through the
// backends.Backend interface; planning is pure CPU work and launching never
// blocks on device completion.
package einsum

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/exec"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/optimize"
)

// Einsum executes notationStr over inputs, writing into output. A nil
// config uses DefaultConfig. Inputs are read-only; the output's metadata
// may be rewritten (buffer rebinding) and its contents are undefined on
// error.
func Einsum(client backends.Backend, notationStr string,
	inputs []*tensors.View, output *tensors.View, config *Config) error {
	n, err := notation.Parse(notationStr)
	if err != nil {
		return err
	}
	return EinsumWithNotation(client, n, inputs, output, config)
}

// EinsumWithNotation executes a pre-parsed notation. Useful when the same
// expression runs repeatedly over fresh tensors.
func EinsumWithNotation(client backends.Backend, n *notation.Notation,
	inputs []*tensors.View, output *tensors.View, config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	if err := notation.Validate(n); err != nil {
		return err
	}

	shapes := make([][]int, len(inputs))
	for i, in := range inputs {
		shapes[i] = in.Shape
	}

	ellipsisDims := 0
	if config.ValidateShapes {
		result, err := notation.ValidateShapes(n, shapes)
		if err != nil {
			return err
		}
		ellipsisDims = result.EllipsisDims
		if err := checkOutputShape(result.OutputShape, output.Shape); err != nil {
			return err
		}
	} else if n.HasEllipsis() {
		ellipsisDims = inferEllipsisDims(n, shapes)
	}

	expanded := n.ExpandEllipsis(ellipsisDims)
	plan := optimize.CreatePlan(expanded, shapes, config.Strategy, optimize.GPUCostModel())
	klog.V(1).Infof("einsum %q: %d steps, fast path %v", n.String(),
		plan.NumSteps(), plan.UsesFastPath())

	executor := exec.New(client, exec.Options{
		Matmul: backends.MatmulOptions{
			UseTensorCores: config.UseTensorCores,
			Autotune:       config.Autotune,
		},
		MaxWorkspaceBytes: config.MaxWorkspaceBytes,
	})
	if err := executor.Run(plan, inputs, output); err != nil {
		return errors.WithMessagef(err, "einsum %q", n.String())
	}
	return nil
}

// checkOutputShape accepts the caller's output when it has the computed
// element count and the same squeezed shape: a scalar result may come as a
// rank-0, [1] or [1,1] tensor, a squeezed reduction as its keep-dim
// sibling.
func checkOutputShape(computed, got []int) error {
	if tensors.SameShape(computed, got) {
		return nil
	}
	if tensors.NumElements(computed) != tensors.NumElements(got) ||
		!tensors.SameShape(squeeze(computed), squeeze(got)) {
		return backends.Shapef("output tensor has shape %v, expression computes %v",
			got, computed)
	}
	return nil
}

func squeeze(shape []int) []int {
	out := make([]int, 0, len(shape))
	for _, d := range shape {
		if d != 1 {
			out = append(out, d)
		}
	}
	return out
}

// inferEllipsisDims derives the ellipsis width without full validation.
func inferEllipsisDims(n *notation.Notation, shapes [][]int) int {
	for i, in := range n.Inputs() {
		if in.HasEllipsis() && i < len(shapes) {
			if e := len(shapes[i]) - in.ExplicitCount(); e > 0 {
				return e
			}
			return 0
		}
	}
	return 0
}
