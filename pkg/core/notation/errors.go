// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notation

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for conditions that carry no payload.
var (
	// ErrNoInputs is returned when the notation declares no input operand.
	ErrNoInputs = errors.New("at least one input tensor is required")

	// ErrEmptySubscript is returned when a comma-separated input field is
	// blank.
	ErrEmptySubscript = errors.New("empty subscript not allowed")
)

// ParseError reports a syntactic failure in the notation string.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// OutputIndexError reports an output index that appears in no input.
type OutputIndexError struct {
	Index rune
}

func (e *OutputIndexError) Error() string {
	return fmt.Sprintf("output index %q not found in any input", e.Index)
}

// IndexCountError reports an index used more often than a contraction or
// diagonal allows.
type IndexCountError struct {
	Index rune
	Count int
}

func (e *IndexCountError) Error() string {
	return fmt.Sprintf("index %q appears %d times, maximum is 2", e.Index, e.Count)
}

// EllipsisError reports inconsistent ellipsis usage across subscripts.
type EllipsisError struct {
	Message string
}

func (e *EllipsisError) Error() string {
	return fmt.Sprintf("inconsistent ellipsis: %s", e.Message)
}

// DimensionMismatchError reports an operand whose rank does not match its
// subscript.
type DimensionMismatchError struct {
	Subscript string
	Expected  int
	Got       int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: subscript %q expects %d dims, tensor has %d",
		e.Subscript, e.Expected, e.Got)
}

// ShapeMismatchError reports one index bound to two different sizes.
type ShapeMismatchError struct {
	Index    rune
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch for index %q: expected %d, got %d",
		e.Index, e.Expected, e.Got)
}

// EllipsisDimensionError reports ellipsis widths that differ across
// operands.
type EllipsisDimensionError struct {
	Expected int
	Got      int
}

func (e *EllipsisDimensionError) Error() string {
	return fmt.Sprintf("ellipsis dimension mismatch: expected %d batch dims, got %d",
		e.Expected, e.Got)
}
