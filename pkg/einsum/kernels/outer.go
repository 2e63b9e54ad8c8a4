// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// OuterProduct computes out[i·|b| + j] = lhs[i]·rhs[j] over the flattened
// operands: a 2-D tile grid on device, lhs indices varying slowest.
func OuterProduct(lhs, rhs, out *tensors.View) error {
	lhsSize := lhs.Size()
	rhsSize := rhs.Size()
	if lhsSize == 0 || rhsSize == 0 {
		return nil
	}

	if out.Size() != lhsSize*rhsSize {
		return backends.Launchf("outer product output size mismatch: expected %d, got %d",
			lhsSize*rhsSize, out.Size())
	}
	if !lhs.IsContiguous() || !rhs.IsContiguous() || !out.IsContiguous() {
		return backends.Launchf("outer product requires contiguous operands")
	}

	lf, rf, of, err := binaryFlats(lhs, rhs, out)
	if err != nil {
		return err
	}
	return mulInto(lf, rf, of, lhsSize*rhsSize,
		func(k int) int { return k / rhsSize },
		func(k int) int { return k % rhsSize })
}
