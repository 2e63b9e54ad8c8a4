// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"sort"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// reduceInto sums the given axes of in away and places the result in out.
//
// The reduce engine keeps each reduced axis at size 1; einsum semantics
// squeeze it. When the caller's output already has the keep-dim shape the
// engine writes it directly. Otherwise the reduction lands in a keep-dim
// intermediate and the output's backing buffer is rebound to it — a
// metadata rewrite, no copy (see output rebinding).
//
// Multiple axes reduce one at a time in descending order, so earlier axis
// positions stay valid.
func (e *Executor) reduceInto(in *tensors.View, out *tensors.View, axes []int, step int) error {
	if len(axes) == 0 {
		return backends.Shapef("reduction with no axes")
	}

	sorted := append([]int(nil), axes...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	current := in
	for idx, axis := range sorted {
		isLast := idx == len(sorted)-1

		keepDim := append([]int(nil), current.Shape...)
		keepDim[axis] = 1

		if !isLast {
			ws, err := e.ws.Alloc(current.DType, keepDim, step)
			if err != nil {
				return err
			}
			if err := e.backend.Reduce(current, ws, axis, backends.ReduceSum); err != nil {
				return err
			}
			if current != in {
				e.ws.Release(current, step)
			}
			current = ws
			continue
		}

		if tensors.SameShape(out.Shape, keepDim) {
			return e.backend.Reduce(current, out, axis, backends.ReduceSum)
		}

		// Keep-dim shape differs from the squeezed output: reduce into an
		// intermediate and rebind the output's buffer to it.
		intermediate, err := e.ws.Alloc(current.DType, keepDim, step)
		if err != nil {
			return err
		}
		if err := e.backend.Reduce(current, intermediate, axis, backends.ReduceSum); err != nil {
			return err
		}
		if current != in {
			e.ws.Release(current, step)
		}
		out.Buffer = intermediate.Buffer
		out.Strides = tensors.ContiguousStrides(out.Shape)
		e.ws.Forget(intermediate)
	}
	return nil
}
