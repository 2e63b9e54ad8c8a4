// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package notation models einsum subscripts ("bhqd,bhkd->bhqk"), parses
// them and validates them against operand shapes.
package notation

import "strings"

// Index is one position in a subscript: a named letter or the ellipsis
// placeholder. The zero value is the ellipsis.
type Index struct {
	// Rune is the index letter (a..z, A..Z, or a reserved batch rune after
	// ellipsis expansion); 0 marks the ellipsis.
	Rune rune
}

// Named builds a named index.
func Named(r rune) Index { return Index{Rune: r} }

// Ellipsis is the "..." placeholder standing for zero or more batch axes.
var Ellipsis = Index{}

// IsEllipsis reports whether this index is the ellipsis placeholder.
func (ix Index) IsEllipsis() bool { return ix.Rune == 0 }

// String renders the index the way it appears in notation.
func (ix Index) String() string {
	if ix.IsEllipsis() {
		return "..."
	}
	return string(ix.Rune)
}

// Subscript is the ordered index sequence of one operand or of the output.
// At most one ellipsis may be present.
type Subscript struct {
	indices       []Index
	ellipsisPos   int // -1 when absent
	explicitCount int
}

// NewSubscript creates an empty subscript.
func NewSubscript() *Subscript {
	return &Subscript{ellipsisPos: -1}
}

// SubscriptFromRunes creates a subscript of named indices.
func SubscriptFromRunes(runes ...rune) *Subscript {
	s := NewSubscript()
	for _, r := range runes {
		s.PushNamed(r)
	}
	return s
}

// SubscriptFromIndices creates a subscript from an index sequence.
func SubscriptFromIndices(indices []Index) *Subscript {
	s := NewSubscript()
	for _, ix := range indices {
		if ix.IsEllipsis() {
			s.PushEllipsis()
		} else {
			s.PushNamed(ix.Rune)
		}
	}
	return s
}

// PushNamed appends a named index.
func (s *Subscript) PushNamed(r rune) {
	s.indices = append(s.indices, Named(r))
	s.explicitCount++
}

// PushEllipsis appends the ellipsis. A second push is a no-op; the parser
// rejects duplicate ellipses before it gets here.
func (s *Subscript) PushEllipsis() {
	if s.ellipsisPos >= 0 {
		return
	}
	s.ellipsisPos = len(s.indices)
	s.indices = append(s.indices, Ellipsis)
}

// Len returns the number of index entries, counting the ellipsis as one.
func (s *Subscript) Len() int { return len(s.indices) }

// IsEmpty reports whether the subscript has no entries (scalar).
func (s *Subscript) IsEmpty() bool { return len(s.indices) == 0 }

// ExplicitCount returns the number of named (non-ellipsis) indices.
func (s *Subscript) ExplicitCount() int { return s.explicitCount }

// HasEllipsis reports whether the subscript contains an ellipsis.
func (s *Subscript) HasEllipsis() bool { return s.ellipsisPos >= 0 }

// EllipsisPosition returns the ellipsis entry position, or -1.
func (s *Subscript) EllipsisPosition() int { return s.ellipsisPos }

// Indices returns the underlying index sequence. Callers must not mutate it.
func (s *Subscript) Indices() []Index { return s.indices }

// Named returns the named indices in order, skipping the ellipsis.
func (s *Subscript) Named() []rune {
	out := make([]rune, 0, s.explicitCount)
	for _, ix := range s.indices {
		if !ix.IsEllipsis() {
			out = append(out, ix.Rune)
		}
	}
	return out
}

// Contains reports whether the named index r occurs in the subscript.
func (s *Subscript) Contains(r rune) bool {
	return s.Position(r) >= 0
}

// Count returns how many times the named index r occurs.
func (s *Subscript) Count(r rune) int {
	n := 0
	for _, ix := range s.indices {
		if !ix.IsEllipsis() && ix.Rune == r {
			n++
		}
	}
	return n
}

// Position returns the first occurrence of the named index r, or -1.
func (s *Subscript) Position(r rune) int {
	for i, ix := range s.indices {
		if !ix.IsEllipsis() && ix.Rune == r {
			return i
		}
	}
	return -1
}

// NDims returns the operand rank implied by the subscript for a given
// ellipsis width.
func (s *Subscript) NDims(ellipsisDims int) int {
	if s.HasEllipsis() {
		return s.explicitCount + ellipsisDims
	}
	return s.explicitCount
}

// ExpandEllipsis returns a copy with the ellipsis replaced by the given
// batch index runes. Without an ellipsis the subscript is returned
// unchanged (shared).
func (s *Subscript) ExpandEllipsis(batch []rune) *Subscript {
	if !s.HasEllipsis() {
		return s
	}
	out := NewSubscript()
	for _, ix := range s.indices {
		if ix.IsEllipsis() {
			for _, r := range batch {
				out.PushNamed(r)
			}
			continue
		}
		out.PushNamed(ix.Rune)
	}
	return out
}

// String renders the subscript as it appears in notation, e.g. "...ij".
func (s *Subscript) String() string {
	var b strings.Builder
	for _, ix := range s.indices {
		b.WriteString(ix.String())
	}
	return b.String()
}

// Equal reports whether two subscripts have identical index sequences.
func (s *Subscript) Equal(other *Subscript) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.indices {
		if s.indices[i] != other.indices[i] {
			return false
		}
	}
	return true
}
