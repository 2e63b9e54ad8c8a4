// Copyright 2025 The CubeK Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// einsum-plan parses an einsum notation, validates it against the given
// shapes and prints the execution plan the library would run.
//
// Usage:
//
//	einsum-plan -shapes 2x10,10x1000,1000x3 'ij,jk,kl->il'
//	einsum-plan -shapes 100x200,200x300 -strategy greedy 'ij,jk->ik'
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"

	"github.com/huy209vn/cubek-einsum/pkg/core/notation"
	"github.com/huy209vn/cubek-einsum/pkg/einsum/optimize"
)

var (
	flagShapes   = flag.String("shapes", "", "comma-separated input shapes, e.g. 2x10,10x1000,1000x3")
	flagStrategy = flag.String("strategy", "auto", "path search strategy: auto, greedy, optimal, branch_bound")
	flagAlpha    = flag.Uint64("alpha", 64, "memory-traffic weight of the cost model")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 || *flagShapes == "" {
		fmt.Fprintln(os.Stderr, "usage: einsum-plan -shapes <dims,...> [-strategy s] <notation>")
		os.Exit(2)
	}

	notationStr := flag.Arg(0)
	n := must.M1(notation.Parse(notationStr))
	must.M(notation.Validate(n))

	shapes := parseShapes(*flagShapes)
	result := must.M1(notation.ValidateShapes(n, shapes))

	strategy := must.M1(optimize.StrategyString(*flagStrategy))
	expanded := n.ExpandEllipsis(result.EllipsisDims)
	plan := optimize.CreatePlan(expanded, shapes, strategy, optimize.CostModel{Alpha: *flagAlpha})

	fmt.Printf("notation:     %s\n", n)
	fmt.Printf("output shape: %v\n", result.OutputShape)
	fmt.Printf("est. flops:   %s\n", humanize.Comma(int64(plan.TotalFLOPs())))
	fmt.Printf("fast path:    %v\n", plan.UsesFastPath())
	for i, step := range plan.Steps() {
		switch step.Kind {
		case optimize.StepFastPath:
			fmt.Printf("step %d: %s %s\n", i, step.Kind, step.FastPath.Name())
		case optimize.StepContraction:
			fmt.Printf("step %d: contract (%d,%d) over %q -> %q (~%s flops)\n",
				i, step.Inputs[0], step.Inputs[1],
				string(step.Contracted), string(step.Result),
				humanize.Comma(int64(step.FLOPs)))
		case optimize.StepPermutation:
			fmt.Printf("step %d: permute %d by %v\n", i, step.Input, step.Perm)
		case optimize.StepReduction:
			fmt.Printf("step %d: reduce %d over axes %v\n", i, step.Input, step.Axes)
		}
	}
}

func parseShapes(s string) [][]int {
	fields := strings.Split(s, ",")
	shapes := make([][]int, 0, len(fields))
	for _, field := range fields {
		var shape []int
		for _, dim := range strings.Split(strings.TrimSpace(field), "x") {
			shape = append(shape, int(must.M1(strconv.ParseInt(dim, 10, 64))))
		}
		shapes = append(shapes, shape)
	}
	return shapes
}
