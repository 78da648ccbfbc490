package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader supplies candidate prompt definitions to the registry
type Loader interface {
	Load(ctx context.Context) ([]PromptDefinition, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context) ([]PromptDefinition, error)

// Load calls f(ctx)
func (f LoaderFunc) Load(ctx context.Context) ([]PromptDefinition, error) {
	return f(ctx)
}

type decodeFunc func(data []byte, out *PromptDefinition) error

var decoders = map[string]decodeFunc{
	".yaml": func(data []byte, out *PromptDefinition) error { return yaml.Unmarshal(data, out) },
	".yml":  func(data []byte, out *PromptDefinition) error { return yaml.Unmarshal(data, out) },
	".json": func(data []byte, out *PromptDefinition) error { return json.Unmarshal(data, out) },
}

// DirLoader loads one prompt per file from a single directory.
// Files are read in lexical order; subdirectories are not descended into.
type DirLoader struct {
	Dir string
}

// NewDirLoader creates a loader for the given directory
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{Dir: dir}
}

// Load reads and decodes every supported file in the directory. Files that
// cannot be read or decoded are skipped with a warning.
func (l *DirLoader) Load(ctx context.Context) ([]PromptDefinition, error) {
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure prompts directory: %w", err)
	}

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts directory: %w", err)
	}

	var definitions []PromptDefinition
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}

		decode, ok := decoders[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}

		path := filepath.Join(l.Dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable prompt file", "file", entry.Name(), "error", err)
			continue
		}

		var def PromptDefinition
		if err := decode(data, &def); err != nil {
			slog.Warn("Skipping invalid prompt file", "file", entry.Name(), "error", err)
			continue
		}
		def.Source = path

		definitions = append(definitions, def)
	}

	return definitions, nil
}

// IsDefinitionFile reports whether the loader would consider the path
func IsDefinitionFile(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}
