// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// Hadamard computes out[k] = lhs[k]·rhs[k] elementwise. All three operands
// must have identical shapes and contiguous strides.
func Hadamard(lhs, rhs, out *tensors.View) error {
	if !tensors.SameShape(lhs.Shape, rhs.Shape) {
		return backends.Launchf("hadamard requires same shape inputs, got %v and %v",
			lhs.Shape, rhs.Shape)
	}
	if !tensors.SameShape(lhs.Shape, out.Shape) {
		return backends.Launchf("hadamard output shape mismatch: %v vs %v",
			lhs.Shape, out.Shape)
	}
	if !lhs.IsContiguous() || !rhs.IsContiguous() || !out.IsContiguous() {
		return backends.Launchf("hadamard requires contiguous operands")
	}

	n := out.Size()
	if n == 0 {
		return nil
	}

	lf, rf, of, err := binaryFlats(lhs, rhs, out)
	if err != nil {
		return err
	}
	identity := func(k int) int { return k }
	return mulInto(lf, rf, of, n, identity, identity)
}
