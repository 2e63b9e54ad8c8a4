// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernels implements the elementary einsum compute kernels:
// hadamard, broadcast multiply, copy-broadcast, copy-reshape, outer
// product, dot product, diagonal extract and trace.
//
// Kernels process one output element per logical thread in blocks of 256,
// the launch geometry being ceil(n/256) blocks. Coordinate decoding happens
// per element: ranks 0-3 decode inline, higher ranks use a generic
// coordinate walk; no host-side rank reduction is performed. Buffers must be host-visible (tensors.HostData);
// anything else is reported as unsupported.
package kernels

import (
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// blockSize is the logical threads-per-block of every kernel launch.
const blockSize = 256

// hostFlat returns the host-visible flat storage of a view's buffer.
func hostFlat(v *tensors.View) (any, error) {
	hd, ok := v.Buffer.(tensors.HostData)
	if !ok {
		return nil, backends.Unsupportedf("kernel requires a host-visible buffer, got %T", v.Buffer)
	}
	return hd.Flat(), nil
}

// binaryFlats extracts the three flat slices of a binary kernel's operands
// after checking they share an element type.
func binaryFlats(lhs, rhs, out *tensors.View) (lf, rf, of any, err error) {
	if lhs.DType != rhs.DType || lhs.DType != out.DType {
		return nil, nil, nil, backends.Launchf(
			"mixed element types: %s, %s -> %s", lhs.DType, rhs.DType, out.DType)
	}
	if lf, err = hostFlat(lhs); err != nil {
		return nil, nil, nil, err
	}
	if rf, err = hostFlat(rhs); err != nil {
		return nil, nil, nil, err
	}
	if of, err = hostFlat(out); err != nil {
		return nil, nil, nil, err
	}
	return lf, rf, of, nil
}

// numBlocks returns the launch grid size for n logical threads.
func numBlocks(n int) int {
	return (n + blockSize - 1) / blockSize
}

// f16to32 and f32to16 convert float16 bit patterns.
func f16to32(bits uint16) float32 { return float16.Frombits(bits).Float32() }

func f32to16(v float32) uint16 { return float16.Fromfloat32(v).Bits() }

// mulInto runs out[k] = a[ao(k)]·b[bo(k)] over n elements for any supported
// element type, with per-element offset functions.
func mulInto(lf, rf, of any, n int, ao, bo func(int) int) error {
	switch out := of.(type) {
	case []float32:
		mulLoop(lf.([]float32), rf.([]float32), out, n, ao, bo)
	case []float64:
		mulLoop(lf.([]float64), rf.([]float64), out, n, ao, bo)
	case []uint16:
		a, b := lf.([]uint16), rf.([]uint16)
		for k := 0; k < n; k++ {
			out[k] = f32to16(f16to32(a[ao(k)]) * f16to32(b[bo(k)]))
		}
	default:
		return backends.Unsupportedf("element type %T", of)
	}
	return nil
}

func mulLoop[T constraints.Float](a, b, out []T, n int, ao, bo func(int) int) {
	for k := 0; k < n; k++ {
		out[k] = a[ao(k)] * b[bo(k)]
	}
}

// copyInto runs out[k] = in[io(k)] over n elements.
func copyInto(inf, of any, n int, io func(int) int) error {
	switch out := of.(type) {
	case []float32:
		copyLoop(inf.([]float32), out, n, io)
	case []float64:
		copyLoop(inf.([]float64), out, n, io)
	case []uint16:
		copyLoop(inf.([]uint16), out, n, io)
	default:
		return backends.Unsupportedf("element type %T", of)
	}
	return nil
}

func copyLoop[T constraints.Float | constraints.Unsigned](in, out []T, n int, io func(int) int) {
	for k := 0; k < n; k++ {
		out[k] = in[io(k)]
	}
}

// coordOffset builds the per-element offset function for a strided view:
// linear output index -> flat input offset under the view's strides. Rank
// 0-3 decode inline; higher ranks use the generic coordinate walk.
func coordOffset(shape, strides []int) func(int) int {
	switch len(shape) {
	case 0:
		return func(int) int { return 0 }
	case 1:
		s0 := strides[0]
		return func(k int) int { return k * s0 }
	case 2:
		d1 := shape[1]
		s0, s1 := strides[0], strides[1]
		return func(k int) int { return (k/d1)*s0 + (k%d1)*s1 }
	case 3:
		d1, d2 := shape[1], shape[2]
		s0, s1, s2 := strides[0], strides[1], strides[2]
		block := d1 * d2
		return func(k int) int {
			c0 := k / block
			rem := k % block
			return c0*s0 + (rem/d2)*s1 + (rem%d2)*s2
		}
	default:
		dims := append([]int(nil), shape...)
		strs := append([]int(nil), strides...)
		return func(k int) int {
			off := 0
			for i := len(dims) - 1; i >= 0; i-- {
				off += (k % dims[i]) * strs[i]
				k /= dims[i]
			}
			return off
		}
	}
}

// zerosLike asks the backend for a contiguous tensor of the given shape and
// element type.
func zerosLike(b backends.Backend, dtype dtypes.DType, shape []int) (*tensors.View, error) {
	return b.Zeros(dtype, shape)
}
