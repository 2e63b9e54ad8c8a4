// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backends declares the accelerator surface the einsum pipeline
// delegates to: tensor allocation, the GEMM engine and the reduction engine.
//
// The planner and executor are backend-agnostic; they only issue work
// through this interface. Kernel launches enqueue and do not block — Sync
// is the caller's only ordering point with the device.
package backends

import (
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// ReduceOp selects the reduction operation. Einsum itself only ever issues
// Sum; the other values exist for backends shared with non-einsum callers.
type ReduceOp int

const (
	// ReduceSum adds elements along the reduced axis.
	ReduceSum ReduceOp = iota
	// ReduceProd multiplies elements along the reduced axis.
	ReduceProd
	// ReduceMax takes the maximum along the reduced axis.
	ReduceMax
	// ReduceMin takes the minimum along the reduced axis.
	ReduceMin
)

//go:generate go tool enumer -type=ReduceOp -trimprefix=Reduce -transform=snake -output=reduceop_enumer.go

// MatmulOptions carries hints the GEMM engine may honor or ignore.
type MatmulOptions struct {
	// UseTensorCores asks the engine to use reduced-precision accumulators
	// when the hardware has them.
	UseTensorCores bool
	// Autotune lets the engine pick tile sizes by measurement.
	Autotune bool
}

// Backend is the accelerator runtime consumed by the einsum executor.
//
// Matmul computes out[b..., m, n] = Σ_k lhs[b..., m, k]·rhs[b..., k, n] for
// row-major views with any number of leading batch axes. It must honor
// operand strides, including stride-swapped (transposed) last-two-axes
// views.
//
// Reduce sums in along one axis into out, which retains the reduced axis
// with size 1 (keep-dim). It must honor input strides.
//
// Zeros and Empty allocate device tensors with contiguous strides; Empty's
// contents are unspecified. Sync blocks until all enqueued work completed.
type Backend interface {
	Zeros(dtype dtypes.DType, shape []int) (*tensors.View, error)
	Empty(dtype dtypes.DType, shape []int) (*tensors.View, error)
	Matmul(lhs, rhs, out *tensors.View, opts MatmulOptions) error
	Reduce(in, out *tensors.View, axis int, op ReduceOp) error
	Sync() error
}
