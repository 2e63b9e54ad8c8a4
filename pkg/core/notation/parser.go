// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notation

import (
	"sort"
	"strings"
)

// Parse parses an einsum notation string.
//
// Grammar:
//
//	einsum      := inputs ("->" output)?
//	inputs      := subscript ("," subscript)*
//	subscript   := (letter | "...")*
//	letter      := a..z | A..Z
//
// Whitespace inside subscripts is ignored. Without "->" the output is
// implied by the NumPy convention: the alphabetically sorted indices
// appearing exactly once across all inputs, with a leading ellipsis iff any
// input has one.
func Parse(s string) (*Notation, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, parseErrorf("empty notation")
	}

	inputsStr := trimmed
	outputStr := ""
	explicitOutput := false
	if pos := strings.Index(trimmed, "->"); pos >= 0 {
		inputsStr = trimmed[:pos]
		outputStr = trimmed[pos+2:]
		explicitOutput = true
		if strings.Contains(outputStr, "->") {
			return nil, parseErrorf("multiple '->' in notation")
		}
	}

	fields := strings.Split(inputsStr, ",")
	if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
		return nil, ErrNoInputs
	}

	inputs := make([]*Subscript, 0, len(fields))
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			return nil, ErrEmptySubscript
		}
		sub, err := parseSubscript(field)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, sub)
	}

	var output *Subscript
	if explicitOutput {
		var err error
		output, err = parseSubscript(outputStr)
		if err != nil {
			return nil, err
		}
	} else {
		output = inferOutput(inputs)
	}

	return New(inputs, output).WithOriginal(trimmed), nil
}

// ParseChain parses a sequence of ";"-separated einsum expressions, e.g.
// "ij,jk->ik; ik,kl->il".
func ParseChain(s string) ([]*Notation, error) {
	parts := strings.Split(s, ";")
	out := make([]*Notation, 0, len(parts))
	for _, part := range parts {
		n, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// parseSubscript parses one comma-separated field into a Subscript.
func parseSubscript(s string) (*Subscript, error) {
	sub := NewSubscript()
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '.':
			// Only the atomic "..." token is valid.
			if i+2 >= len(runes) || runes[i+1] != '.' || runes[i+2] != '.' {
				return nil, parseErrorf("incomplete ellipsis, expected '...'")
			}
			if sub.HasEllipsis() {
				return nil, parseErrorf("multiple ellipses in subscript")
			}
			sub.PushEllipsis()
			i += 2
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sub.PushNamed(r)
		case r == ' ' || r == '\t':
			// Whitespace inside a subscript is ignored.
		default:
			return nil, parseErrorf("invalid character %q in subscript", r)
		}
	}
	return sub, nil
}

// inferOutput builds the implicit output subscript: indices appearing
// exactly once across all inputs, alphabetically sorted, with a leading
// ellipsis when any input has one.
func inferOutput(inputs []*Subscript) *Subscript {
	counts := make(map[rune]int)
	hasEllipsis := false
	for _, in := range inputs {
		if in.HasEllipsis() {
			hasEllipsis = true
		}
		for _, r := range in.Named() {
			counts[r]++
		}
	}

	var once []rune
	for r, c := range counts {
		if c == 1 {
			once = append(once, r)
		}
	}
	sort.Slice(once, func(i, j int) bool { return once[i] < once[j] })

	out := NewSubscript()
	if hasEllipsis {
		out.PushEllipsis()
	}
	for _, r := range once {
		out.PushNamed(r)
	}
	return out
}
