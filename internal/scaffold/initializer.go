package scaffold

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veritrail/veritrail/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// Initialize creates the veritrail.yml project configuration.
// If force is true, an existing veritrail.yml is removed first.
func Initialize(project string, force bool) error {
	if project == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	// Handle --force flag
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	content, err := renderTemplate(project)
	if err != nil {
		return err
	}

	if err := os.WriteFile(config.DefaultFileName, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.DefaultFileName, err)
	}

	// Validate created file
	if err := validateCreatedFile(); err != nil {
		return err
	}

	return nil
}

// handleForce removes an existing veritrail.yml if --force was specified
func handleForce() error {
	if _, err := os.Stat(config.DefaultFileName); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", config.DefaultFileName)
		if err := os.Remove(config.DefaultFileName); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultFileName, err)
		}
	}
	return nil
}

// renderTemplate fills the project name into the embedded template
func renderTemplate(project string) ([]byte, error) {
	data, err := templatesFS.ReadFile("templates/veritrail.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read veritrail.yml template: %w", err)
	}

	// YAML-encode the name so unusual project names stay valid
	quoted, err := yaml.Marshal(project)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project name: %w", err)
	}

	content := strings.ReplaceAll(string(data), "__PROJECT__", strings.TrimSpace(string(quoted)))
	return []byte(content), nil
}

// validateCreatedFile runs the generated file back through the strict loader
func validateCreatedFile() error {
	if _, err := config.Load(config.DefaultFileName); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultFileName, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(project string) {
	fmt.Printf("\n✅ Successfully initialized project '%s'!\n", project)
	fmt.Println("\nCreated:")
	fmt.Printf("  ✓ %s\n", config.DefaultFileName)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Start Redis if it is not already running")
	fmt.Println("  2. Record your first requirement: veritrail add requirement REQ-1 --description \"...\"")
	fmt.Println("  3. Check your maturity baseline: veritrail assess")
}
