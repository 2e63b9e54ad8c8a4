// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// BroadcastMultiply computes out = lhs·rhs elementwise honoring per-axis
// strides, where a stride of 0 broadcasts that axis. All three operands
// must share the output's rank.
//
// Rank 1 and 2 run as direct strided kernels. Rank 3 and above first
// materialize any stride-0 operand into contiguous storage (CopyBroadcast)
// and finish with Hadamard. Because CopyBroadcast stops at rank 3, an
// operand of rank 4 or more that needs materializing is reported as
// unsupported.
func BroadcastMultiply(b backends.Backend, lhs, rhs, out *tensors.View) error {
	rank := out.Rank()
	if lhs.Rank() != rank || rhs.Rank() != rank {
		return backends.Launchf(
			"broadcast multiply: all operands must share rank (out %d, lhs %d, rhs %d)",
			rank, lhs.Rank(), rhs.Rank())
	}
	if !out.IsContiguous() {
		return backends.Launchf("broadcast multiply requires a contiguous output")
	}

	n := out.Size()
	if n == 0 {
		return nil
	}

	if rank <= 2 {
		lf, rf, of, err := binaryFlats(lhs, rhs, out)
		if err != nil {
			return err
		}
		return mulInto(lf, rf, of, n,
			coordOffset(out.Shape, lhs.Strides),
			coordOffset(out.Shape, rhs.Strides))
	}

	// Rank 3+: materialize broadcast operands, then multiply contiguously.
	lhsDense, err := materialize(b, lhs, out.Shape)
	if err != nil {
		return err
	}
	rhsDense, err := materialize(b, rhs, out.Shape)
	if err != nil {
		return err
	}
	return Hadamard(lhsDense, rhsDense, out)
}

// materialize returns a contiguous tensor with targetShape holding the
// view's (possibly stride-0) contents, or the view itself when it is
// already dense.
func materialize(b backends.Backend, v *tensors.View, targetShape []int) (*tensors.View, error) {
	broadcasts := false
	for _, s := range v.Strides {
		if s == 0 {
			broadcasts = true
			break
		}
	}
	if !broadcasts && v.IsContiguous() && tensors.SameShape(v.Shape, targetShape) {
		return v, nil
	}

	dense, err := b.Empty(v.DType, targetShape)
	if err != nil {
		return nil, err
	}
	if err := CopyBroadcast(v, dense); err != nil {
		return nil, err
	}
	return dense, nil
}

// CopyBroadcast materializes a strided (possibly stride-0) view into a
// contiguous destination of the same logical shape. Supported for rank ≤ 3;
// higher ranks are reported as unsupported and are not rank-reduced.
func CopyBroadcast(in, out *tensors.View) error {
	if in.Rank() != out.Rank() {
		return backends.Shapef("copy broadcast rank mismatch: %d vs %d", in.Rank(), out.Rank())
	}
	if out.Rank() > 3 {
		return backends.Unsupportedf("copy broadcast: rank %d exceeds max supported (3)", out.Rank())
	}
	if !out.IsContiguous() {
		return backends.Launchf("copy broadcast requires a contiguous output")
	}

	n := out.Size()
	if n == 0 {
		return nil
	}

	inf, err := hostFlat(in)
	if err != nil {
		return err
	}
	of, err := hostFlat(out)
	if err != nil {
		return err
	}
	return copyInto(inf, of, n, coordOffset(out.Shape, in.Strides))
}
