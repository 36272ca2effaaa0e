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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	treeFile   string
	withFiles  []string
	scalarArgs []string
	opName     string
	numOutputs int
	outFiles   []string
	parallel   bool

	rootCmd = &cobra.Command{
		Use:   "treefn",
		Short: "A cli for elementwise function application over value trees",
		Long: `treefn applies a named operation to every node of one or more
				synchronized trees, broadcasting scalar arguments across all
				positions and fanning multi-output operations into separate
				result trees.`,
	}

	applyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Apply an operation elementwise across one or more trees",
		Run:   runApply, // Defined in cmd_apply.go
	}

	opsCmd = &cobra.Command{
		Use:   "ops",
		Short: "List the built-in operations and their arities",
		Run:   runOps, // Defined in cmd_apply.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to an optional YAML configuration file")

	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVar(&treeFile, "tree", "",
		"Path to the reference tree (YAML document, required)")
	applyCmd.Flags().StringArrayVar(&withFiles, "with", nil,
		"Additional tree argument (YAML path, repeatable, must match the reference topology)")
	applyCmd.Flags().StringArrayVar(&scalarArgs, "scalar", nil,
		"Scalar argument broadcast to every position (repeatable)")
	applyCmd.Flags().StringVar(&opName, "op", "",
		"Name of the built-in operation to apply (see 'treefn ops')")
	applyCmd.Flags().IntVar(&numOutputs, "outputs", 0,
		"Number of result trees to produce (0 means one)")
	applyCmd.Flags().StringArrayVar(&outFiles, "out", nil,
		"Output file per result tree (repeatable, default: stdout)")
	applyCmd.Flags().BoolVar(&parallel, "parallel", false,
		"Enable position-parallel evaluation for large trees")
	_ = applyCmd.MarkFlagRequired("tree")
	_ = applyCmd.MarkFlagRequired("op")

	rootCmd.AddCommand(opsCmd)
}
