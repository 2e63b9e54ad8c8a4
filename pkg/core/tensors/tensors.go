// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tensors defines the device tensor view used across the einsum
// pipeline: an opaque buffer handle plus shape, strides and element type.
//
// A View is a cheap, copyable interpretation of a buffer. Reinterpreting a
// buffer (transpose, reshape, broadcast) only rewrites the view's metadata;
// the underlying allocation is owned and reference-counted by the backend.
package tensors

import (
	"fmt"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
)

// Buffer is an opaque, backend-owned device allocation. The einsum core
// never inspects it; only backends and kernels do.
type Buffer interface{}

// HostData is implemented by buffers whose storage is host-visible.
// Flat returns the backing flat slice ([]float32, []float64 or []uint16
// for float16 bit patterns). The elementary kernels require it.
type HostData interface {
	Flat() any
}

// View is a tensor handle: a buffer plus its logical interpretation.
// Strides are in elements, row-major logical order. A stride of 0 marks a
// broadcast axis.
type View struct {
	Buffer  Buffer
	DType   dtypes.DType
	Shape   []int
	Strides []int
}

// NewView creates a view over buffer with contiguous row-major strides.
func NewView(buffer Buffer, dtype dtypes.DType, shape []int) *View {
	return &View{
		Buffer:  buffer,
		DType:   dtype,
		Shape:   append([]int(nil), shape...),
		Strides: ContiguousStrides(shape),
	}
}

// Clone returns an independent copy of the view metadata. The buffer handle
// is shared.
func (v *View) Clone() *View {
	return &View{
		Buffer:  v.Buffer,
		DType:   v.DType,
		Shape:   append([]int(nil), v.Shape...),
		Strides: append([]int(nil), v.Strides...),
	}
}

// Rank returns the number of axes.
func (v *View) Rank() int { return len(v.Shape) }

// Size returns the number of logical elements (product of the shape).
// A rank-0 view has size 1.
func (v *View) Size() int {
	n := 1
	for _, d := range v.Shape {
		n *= d
	}
	return n
}

// IsEmpty reports whether any axis has size 0.
func (v *View) IsEmpty() bool {
	for _, d := range v.Shape {
		if d == 0 {
			return true
		}
	}
	return false
}

// IsContiguous reports whether the view is a dense row-major walk of its
// buffer.
func (v *View) IsContiguous() bool {
	expected := ContiguousStrides(v.Shape)
	for i, s := range v.Strides {
		if v.Shape[i] > 1 && s != expected[i] {
			return false
		}
	}
	return true
}

// Permute returns a zero-copy view with axes reordered by perm:
// result axis k is the input's axis perm[k].
func (v *View) Permute(perm []int) *View {
	out := v.Clone()
	for k, p := range perm {
		out.Shape[k] = v.Shape[p]
		out.Strides[k] = v.Strides[p]
	}
	return out
}

// Reshape returns a view reinterpreted with the given shape and fresh
// contiguous strides. Only valid when the view is contiguous and the element
// counts match; callers materialize first otherwise.
func (v *View) Reshape(shape []int) *View {
	out := v.Clone()
	out.Shape = append([]int(nil), shape...)
	out.Strides = ContiguousStrides(shape)
	return out
}

// String renders the view metadata for debug logs.
func (v *View) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%v", v.DType, v.Shape)
	if !v.IsContiguous() {
		fmt.Fprintf(&b, " strides=%v", v.Strides)
	}
	return b.String()
}

// ContiguousStrides computes row-major strides for shape, in elements.
func ContiguousStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// NumElements returns the product of a shape's dimensions.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// SameShape reports whether two shapes are identical.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsIdentityPermutation reports whether perm maps every axis to itself.
func IsIdentityPermutation(perm []int) bool {
	for i, p := range perm {
		if i != p {
			return false
		}
	}
	return true
}

// Offset computes the flat element offset of a coordinate under strides.
func Offset(coord, strides []int) int {
	off := 0
	for i, c := range coord {
		off += c * strides[i]
	}
	return off
}
