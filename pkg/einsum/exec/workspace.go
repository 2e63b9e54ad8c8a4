// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/huy209vn/cubek-einsum/backends"
	"github.com/huy209vn/cubek-einsum/pkg/core/tensors"
)

// Workspace pools the temporary device tensors of one einsum call.
// Released buffers are recycled by size; an optional byte cap bounds the
// total footprint. A workspace belongs to a single call and is never
// shared.
type Workspace struct {
	backend backends.Backend

	// free holds released allocations available for reuse.
	free []*wsAllocation
	// live maps buffer handles to their allocation records.
	live map[tensors.Buffer]*wsAllocation

	maxBytes  uint64
	usedBytes uint64
}

type wsAllocation struct {
	buffer      tensors.Buffer
	dtype       dtypes.DType
	capacity    int // elements
	lastUseStep int
}

// NewWorkspace creates a workspace backed by the given allocator.
// maxBytes of 0 means unlimited.
func NewWorkspace(backend backends.Backend, maxBytes uint64) *Workspace {
	return &Workspace{
		backend:  backend,
		live:     make(map[tensors.Buffer]*wsAllocation),
		maxBytes: maxBytes,
	}
}

// Alloc returns a contiguous tensor of the given shape, reusing a released
// buffer of sufficient capacity when one exists. step records the
// allocation's most recent use for recycling decisions.
func (w *Workspace) Alloc(dtype dtypes.DType, shape []int, step int) (*tensors.View, error) {
	need := tensors.NumElements(shape)

	for i, a := range w.free {
		if a.dtype == dtype && a.capacity >= need {
			w.free = append(w.free[:i], w.free[i+1:]...)
			a.lastUseStep = step
			w.live[a.buffer] = a
			v := tensors.NewView(a.buffer, dtype, shape)
			klog.V(2).Infof("einsum workspace: reusing %d-element buffer for shape %v", a.capacity, shape)
			return v, nil
		}
	}

	bytes := uint64(need * elemBytes(dtype))
	if w.maxBytes > 0 && w.usedBytes+bytes > w.maxBytes {
		return nil, backends.Memoryf("workspace limit exceeded: %s + %s > %s",
			humanize.Bytes(w.usedBytes), humanize.Bytes(bytes), humanize.Bytes(w.maxBytes))
	}

	v, err := w.backend.Zeros(dtype, shape)
	if err != nil {
		return nil, err
	}
	w.usedBytes += bytes
	w.live[v.Buffer] = &wsAllocation{
		buffer:      v.Buffer,
		dtype:       dtype,
		capacity:    need,
		lastUseStep: step,
	}
	return v, nil
}

// Release returns a tensor's buffer to the pool so a later step can reuse
// it. Buffers the workspace does not own (caller inputs, rebound outputs)
// are ignored.
func (w *Workspace) Release(v *tensors.View, step int) {
	a, ok := w.live[v.Buffer]
	if !ok {
		return
	}
	delete(w.live, v.Buffer)
	a.lastUseStep = step
	w.free = append(w.free, a)
}

// Forget drops ownership of a buffer without recycling it. Used when a
// workspace tensor is rebound into the caller's output and must outlive
// the call.
func (w *Workspace) Forget(v *tensors.View) {
	delete(w.live, v.Buffer)
}

// UsedBytes returns the high-water allocation total.
func (w *Workspace) UsedBytes() uint64 { return w.usedBytes }

// elemBytes returns the element width of the supported dtypes.
func elemBytes(dtype dtypes.DType) int {
	switch dtype {
	case dtypes.Float64:
		return 8
	case dtypes.Float16:
		return 2
	default:
		return 4
	}
}
