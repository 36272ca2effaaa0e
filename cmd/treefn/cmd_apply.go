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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/treefn/apply"
	"github.com/AleutianAI/treefn/telemetry"
	"github.com/AleutianAI/treefn/tree"
)

// runApply loads the reference tree and any extra arguments, applies the
// selected builtin, and writes each result tree as YAML.
func runApply(cmd *cobra.Command, args []string) {
	runID := uuid.NewString()
	logger := telemetry.LoggerWithRun(cmd.Context(), slog.Default(), runID)

	op := lookupOp(opName)
	if op == nil {
		log.Fatalf("Unknown operation %q. Available: %s", opName, strings.Join(opNames(), ", "))
	}

	ref, err := loadTree(treeFile)
	if err != nil {
		log.Fatalf("Error loading reference tree %s: %v", treeFile, err)
	}

	extras := make([]any, 0, len(withFiles)+len(scalarArgs))
	for _, path := range withFiles {
		t, err := loadTree(path)
		if err != nil {
			log.Fatalf("Error loading tree %s: %v", path, err)
		}
		extras = append(extras, t)
	}
	for _, s := range scalarArgs {
		extras = append(extras, parseScalar(s))
	}

	opts := []apply.Option{apply.WithLogger(logger)}
	if parallel {
		opts = append(opts, apply.WithParallel(true))
	}

	results, err := apply.Apply(cmd.Context(), ref, extras, op, numOutputs, opts...)
	if err != nil {
		log.Fatalf("Error applying %s: %v", opName, err)
	}

	logger.Info("apply complete",
		slog.String("op", opName),
		slog.Int("nodes", ref.NodeCount()),
		slog.Int("results", len(results)))

	for i, result := range results {
		data, err := tree.MarshalYAML(result)
		if err != nil {
			log.Fatalf("Error encoding result %d: %v", i+1, err)
		}
		if i < len(outFiles) {
			if err := os.WriteFile(outFiles[i], data, 0o644); err != nil {
				log.Fatalf("Error writing %s: %v", outFiles[i], err)
			}
			continue
		}
		if len(results) > 1 {
			fmt.Printf("--- # result %d\n", i+1)
		}
		fmt.Print(string(data))
	}
}

// runOps prints the builtin operation table.
func runOps(cmd *cobra.Command, args []string) {
	for _, name := range opNames() {
		op := builtinOps[name]
		in := strconv.Itoa(op.InArity)
		if op.Variadic() {
			in = fmt.Sprintf("%d+ (variadic)", op.MaxIn()-1)
		}
		fmt.Printf("%-8s inputs: %-14s outputs: %d\n", name, in, op.OutArity)
	}
}

// loadTree reads and decodes a YAML tree document.
func loadTree(path string) (*tree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tree.UnmarshalYAML(data)
}

// parseScalar interprets a flag value as int, float, bool, or string.
func parseScalar(s string) any {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return s
}
