package main

import (
	"fmt"
	"path/filepath"

	"paramit/internal/config"
)

// printConfigHelp lists the target's derived arguments and metadata.
// Dotted names are shown for completeness even though only top-level
// names can be overridden into the executed script.
func printConfigHelp(cfg *config.Configuration, scriptPath string) {
	fmt.Printf("Arguments for %s:\n", filepath.Base(scriptPath))
	for _, leaf := range cfg.Flatten() {
		fmt.Printf("  %s  (%s, default: %s)\n",
			keyStyle.Render("--"+leaf.Key), leaf.Value.Kind(), leaf.Value)
	}

	fmt.Println("\nMetadata:")
	fmt.Printf("  version:      %s\n", cfg.Meta.Version)
	fmt.Printf("  created_on:   %s\n", cfg.Meta.CreatedOn)
	fmt.Printf("  script_path:  %s\n", cfg.Meta.ScriptPath)
	fmt.Printf("  package_path: %s\n", cfg.Meta.PackagePath)
}
