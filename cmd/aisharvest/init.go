package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/aisharvest.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new aisharvest configuration file",
		Long: `Initialize creates a new .aisharvest.yaml configuration file in the
current directory.

The generated file includes:
- Commented defaults for endpoints, seed terms, and worker pools
- Output path settings for the checkpoint and CSV files
- Page-schema overrides for when the portal markup changes

Examples:
  # Create .aisharvest.yaml in current directory
  aisharvest init

  # Create config file at a specific path
  aisharvest init -o myconfig.yaml

  # Force overwrite existing file
  aisharvest init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/aisharvest.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file to adjust settings such as:")
	fmt.Println("  - Seed search terms and worker pool sizes")
	fmt.Println("  - Checkpoint and CSV output paths")
	fmt.Println("  - Page-schema selectors when the portal markup changes")

	return nil
}
