package parser

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ParseYAMLFile opens a YAML file and unmarshals it into the out interface
func ParseYAMLFile(fsys fs.FS, filename string, out interface{}, dir ...string) error {
	// Construct the full path of the YAML file
	fullPath := filename
	if len(dir) > 0 {
		fullPath = filepath.Join(dir[0], filename)
	}

	// Open the YAML file
	file, err := fsys.Open(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fullPath, err)
	}
	defer file.Close()

	// Read the content of the file
	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fullPath, err)
	}

	// Unmarshal the YAML content into the out interface
	if err := yaml.Unmarshal(content, out); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return nil
}

// WriteYAMLFile marshals the in interface and writes it to path
func WriteYAMLFile(path string, in interface{}) error {
	content, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
