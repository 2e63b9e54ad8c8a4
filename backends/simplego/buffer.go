// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simplego

import (
	"github.com/google/uuid"
	"github.com/x448/float16"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// Buffer is a host-memory allocation. The flat slice is one of []float32,
// []float64 or []uint16 (float16 bit patterns).
type Buffer struct {
	id    uuid.UUID
	dtype dtypes.DType
	flat  any
}

var _ tensors.HostData = (*Buffer)(nil)

// newBuffer allocates flat storage for n elements of the given type.
func newBuffer(dtype dtypes.DType, n int) (*Buffer, error) {
	buf := &Buffer{id: uuid.New(), dtype: dtype}
	switch dtype {
	case dtypes.Float32:
		buf.flat = make([]float32, n)
	case dtypes.Float64:
		buf.flat = make([]float64, n)
	case dtypes.Float16:
		buf.flat = make([]uint16, n)
	default:
		return nil, backends.Unsupportedf("element type %s", dtype)
	}
	return buf, nil
}

// ID returns the allocation's unique identity.
func (b *Buffer) ID() uuid.UUID { return b.id }

// DType returns the buffer's element type.
func (b *Buffer) DType() dtypes.DType { return b.dtype }

// Flat returns the backing flat slice.
func (b *Buffer) Flat() any { return b.flat }

// FromFlat32 builds a float32 tensor over a copy of data.
func FromFlat32(shape []int, data []float32) *tensors.View {
	buf := &Buffer{id: uuid.New(), dtype: dtypes.Float32, flat: append([]float32(nil), data...)}
	return tensors.NewView(buf, dtypes.Float32, shape)
}

// FromFlat64 builds a float64 tensor over a copy of data.
func FromFlat64(shape []int, data []float64) *tensors.View {
	buf := &Buffer{id: uuid.New(), dtype: dtypes.Float64, flat: append([]float64(nil), data...)}
	return tensors.NewView(buf, dtypes.Float64, shape)
}

// Flat32 returns the float32 storage behind a view's buffer. It panics on
// other element types; it is a test and tooling convenience.
func Flat32(v *tensors.View) []float32 {
	return v.Buffer.(*Buffer).flat.([]float32)
}

// Flat64 returns the float64 storage behind a view's buffer.
func Flat64(v *tensors.View) []float64 {
	return v.Buffer.(*Buffer).flat.([]float64)
}

// ToFloat32 copies a buffer's contents out as float32, converting from the
// stored element type.
func ToFloat32(v *tensors.View) []float32 {
	switch flat := v.Buffer.(*Buffer).flat.(type) {
	case []float32:
		return append([]float32(nil), flat...)
	case []float64:
		out := make([]float32, len(flat))
		for i, x := range flat {
			out[i] = float32(x)
		}
		return out
	case []uint16:
		out := make([]float32, len(flat))
		for i, x := range flat {
			out[i] = float16.Frombits(x).Float32()
		}
		return out
	}
	return nil
}

// Fill32 sets every element of a float32 tensor to value.
func Fill32(v *tensors.View, value float32) {
	flat := Flat32(v)
	for i := range flat {
		flat[i] = value
	}
}
