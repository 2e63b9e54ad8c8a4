// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simplego is a pure-Go accelerator backend: buffers live in host
// memory, the GEMM and reduce engines run as Go loops. It exists as the
// reference implementation of backends.Backend — every einsum feature is
// testable against it without hardware.
package simplego

import (
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// Backend implements backends.Backend on host memory.
type Backend struct{}

var _ backends.Backend = (*Backend)(nil)

// New creates a simplego backend.
func New() *Backend { return &Backend{} }

// Zeros allocates a zero-initialized contiguous tensor.
func (b *Backend) Zeros(dtype dtypes.DType, shape []int) (*tensors.View, error) {
	buf, err := newBuffer(dtype, tensors.NumElements(shape))
	if err != nil {
		return nil, err
	}
	return tensors.NewView(buf, dtype, shape), nil
}

// Empty allocates a contiguous tensor with unspecified contents. On the
// host it is simply a fresh (zeroed) allocation.
func (b *Backend) Empty(dtype dtypes.DType, shape []int) (*tensors.View, error) {
	return b.Zeros(dtype, shape)
}

// Sync is a no-op: host kernels complete before their launch call returns.
// The method exists so callers can treat this backend like an asynchronous
// device.
func (b *Backend) Sync() error { return nil }
