// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package einsum

import "github.com/huy209vn/cubek-einsum/pkg/einsum/optimize"

// Strategy selects the contraction-path search algorithm.
type Strategy = optimize.Strategy

// Re-exported strategy values.
const (
	StrategyAuto        = optimize.StrategyAuto
	StrategyGreedy      = optimize.StrategyGreedy
	StrategyOptimal     = optimize.StrategyOptimal
	StrategyBranchBound = optimize.StrategyBranchBound
)

// Config holds the options of one einsum call.
type Config struct {
	// Strategy picks the path-search algorithm. Default Auto.
	Strategy Strategy
	// UseTensorCores is a hint forwarded to the GEMM backend.
	UseTensorCores bool
	// Autotune is a hint forwarded to the GEMM backend.
	Autotune bool
	// ValidateShapes toggles operand shape validation.
	ValidateShapes bool
	// MaxWorkspaceBytes caps intermediate device memory; 0 is unlimited.
	MaxWorkspaceBytes uint64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Strategy:       StrategyAuto,
		UseTensorCores: true,
		Autotune:       true,
		ValidateShapes: true,
	}
}

// FastConfig trades validation and search quality for planning speed.
func FastConfig() *Config {
	return &Config{
		Strategy:       StrategyGreedy,
		UseTensorCores: true,
		Autotune:       false,
		ValidateShapes: false,
	}
}

// SafeConfig maximizes checking and path quality.
func SafeConfig() *Config {
	return &Config{
		Strategy:       StrategyOptimal,
		UseTensorCores: true,
		Autotune:       true,
		ValidateShapes: true,
	}
}

// WithStrategy returns a copy with the strategy set.
func (c *Config) WithStrategy(s Strategy) *Config {
	out := *c
	out.Strategy = s
	return &out
}

// WithValidation returns a copy with shape validation toggled.
func (c *Config) WithValidation(enabled bool) *Config {
	out := *c
	out.ValidateShapes = enabled
	return &out
}

// WithTensorCores returns a copy with the tensor-core hint set.
func (c *Config) WithTensorCores(enabled bool) *Config {
	out := *c
	out.UseTensorCores = enabled
	return &out
}

// WithAutotune returns a copy with the autotune hint set.
func (c *Config) WithAutotune(enabled bool) *Config {
	out := *c
	out.Autotune = enabled
	return &out
}
