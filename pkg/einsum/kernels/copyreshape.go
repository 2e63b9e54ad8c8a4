// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// CopyReshape materializes a possibly non-contiguous input view into a
// dense destination: the input's elements are visited in the row-major walk
// of its shape and written in linear output order. Element counts must
// match; the destination shape is free to differ (this is how a
// permute+reshape is realized).
func CopyReshape(in, out *tensors.View) error {
	if in.Size() != out.Size() {
		return backends.Shapef("copy reshape element count mismatch: %d vs %d",
			in.Size(), out.Size())
	}
	if !out.IsContiguous() {
		return backends.Launchf("copy reshape requires a contiguous output")
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
	return copyInto(inf, of, n, coordOffset(in.Shape, in.Strides))
}
