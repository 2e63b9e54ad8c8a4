// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// Trace sums the diagonal of the trailing N×N block: the diagonal is
// extracted into a workspace tensor and the external reduce engine sums it
// along the last axis. Batched inputs yield one trace per leading-axes
// coordinate.
func Trace(b backends.Backend, in, out *tensors.View) error {
	if in.Rank() < 2 {
		return backends.Launchf("trace requires at least 2D input")
	}

	ndim := in.Rank()
	rows, cols := in.Shape[ndim-2], in.Shape[ndim-1]
	if rows != cols {
		return backends.Launchf("trace requires square matrix, got %dx%d", rows, cols)
	}
	if rows == 0 {
		return nil
	}

	batch := 1
	for _, d := range in.Shape[:ndim-2] {
		batch *= d
	}
	if out.Size() != batch {
		return backends.Launchf("trace output size mismatch: expected %d, got %d",
			batch, out.Size())
	}

	diagShape := append(append([]int(nil), in.Shape[:ndim-2]...), rows)
	workspace, err := zerosLike(b, in.DType, diagShape)
	if err != nil {
		return err
	}
	if err := DiagonalExtract(in, workspace); err != nil {
		return err
	}

	// The reduce engine keeps the reduced axis at size 1; reinterpret the
	// caller's output accordingly.
	keepDim := out.Clone()
	keepDim.Shape = append(append([]int(nil), diagShape[:len(diagShape)-1]...), 1)
	keepDim.Strides = tensors.ContiguousStrides(keepDim.Shape)

	return b.Reduce(workspace, keepDim, len(diagShape)-1, backends.ReduceSum)
}
