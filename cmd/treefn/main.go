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
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/treefn/telemetry"
)

// Config is the optional process configuration loaded from --config.
type Config struct {
	Telemetry telemetry.Config `yaml:"telemetry"`
}

var config Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		config.Telemetry = telemetry.DefaultConfig()

		if configPath != "" {
			yamlFile, err := os.ReadFile(configPath)
			if err != nil {
				log.Fatalf("Error reading %s: %v", configPath, err)
			}
			if err := yaml.Unmarshal(yamlFile, &config); err != nil {
				log.Fatalf("Error parsing %s: %v", configPath, err)
			}
		}

		shutdown, err := telemetry.Init(cmd.Context(), config.Telemetry)
		if err != nil {
			log.Fatalf("Error initializing telemetry: %v", err)
		}
		telemetryShutdown = shutdown
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if telemetryShutdown != nil {
			if err := telemetryShutdown(context.Background()); err != nil {
				log.Printf("Telemetry shutdown: %v", err)
			}
		}
	}
}

var telemetryShutdown func(context.Context) error
