// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backends

import "fmt"

// LaunchError reports a failed kernel launch or a runtime failure; the
// message preserves the backend's detail.
type LaunchError struct {
	Message string
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch error: %s", e.Message)
}

// Launchf builds a LaunchError.
func Launchf(format string, args ...any) error {
	return &LaunchError{Message: fmt.Sprintf(format, args...)}
}

// MemoryError reports an allocator failure or an exceeded workspace cap.
type MemoryError struct {
	Message string
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory error: %s", e.Message)
}

// Memoryf builds a MemoryError.
func Memoryf(format string, args ...any) error {
	return &MemoryError{Message: fmt.Sprintf(format, args...)}
}

// ShapeError reports a shape or stride inconsistency detected at execution
// time.
type ShapeError struct {
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape error: %s", e.Message)
}

// Shapef builds a ShapeError.
func Shapef(format string, args ...any) error {
	return &ShapeError{Message: fmt.Sprintf(format, args...)}
}

// UnsupportedError reports a valid expression this implementation cannot
// execute yet.
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Message)
}

// Unsupportedf builds an UnsupportedError.
func Unsupportedf(format string, args ...any) error {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...)}
}
