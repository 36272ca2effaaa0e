// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/AleutianAI/treefn/fn"
)

var errDivideByZero = errors.New("divide by zero")

// builtinOps maps operation names to their descriptors.
//
// Arities come from reflection over the Go signature, so a variadic
// builtin like add accepts any number of tree or scalar arguments.
var builtinOps = map[string]*fn.Fn{
	"double": mustOp("double", func(x float64) float64 {
		return 2 * x
	}),
	"add": mustOp("add", func(xs ...float64) float64 {
		var sum float64
		for _, x := range xs {
			sum += x
		}
		return sum
	}),
	"mul": mustOp("mul", func(xs ...float64) float64 {
		prod := 1.0
		for _, x := range xs {
			prod *= x
		}
		return prod
	}),
	"concat": mustOp("concat", func(parts ...any) string {
		var b strings.Builder
		for _, p := range parts {
			fmt.Fprint(&b, p)
		}
		return b.String()
	}),
	"divmod": mustOp("divmod", func(a, b float64) (float64, float64, error) {
		if b == 0 {
			return 0, 0, errDivideByZero
		}
		return math.Trunc(a / b), math.Mod(a, b), nil
	}),
}

// lookupOp returns the named builtin, or nil if unknown.
func lookupOp(name string) *fn.Fn {
	return builtinOps[name]
}

// opNames returns the builtin names in sorted order.
func opNames() []string {
	names := make([]string, 0, len(builtinOps))
	for name := range builtinOps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mustOp introspects a builtin at package init. The signatures are fixed
// at compile time, so a failure here is a programming error.
func mustOp(name string, f any) *fn.Fn {
	op, err := fn.Of(name, f)
	if err != nil {
		panic(fmt.Sprintf("builtin %s: %v", name, err))
	}
	return op
}
