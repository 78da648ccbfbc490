package prompts

import (
	"errors"
	"fmt"
)

const (
	// DefaultCategory is assigned to definitions that do not declare one
	DefaultCategory = "general"

	// RoleUser is the only message role that takes part in rendering
	RoleUser = "user"
)

var (
	// ErrMissingName is returned for definitions without a name
	ErrMissingName = errors.New("prompt is missing a name")
	// ErrDuplicateArgument is returned when an argument name is declared twice
	ErrDuplicateArgument = errors.New("duplicate argument name")
	// ErrReservedName is returned when a prompt uses the name of a built-in tool
	ErrReservedName = errors.New("prompt name is reserved")
)

// PromptDefinition definition of a prompt exposed as a tool
type PromptDefinition struct {
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Category    string           `yaml:"category" json:"category"`
	Tags        []string         `yaml:"tags" json:"tags"`
	Arguments   []PromptArgument `yaml:"arguments" json:"arguments"`
	Messages    []PromptMessage  `yaml:"messages" json:"messages"`

	// Source is the file the definition was decoded from
	Source string `yaml:"-" json:"-"`
}

// PromptArgument definition of a prompt argument
type PromptArgument struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Required    bool   `yaml:"required" json:"required"`
}

// PromptMessage is a single templated message of a prompt
type PromptMessage struct {
	Role    string          `yaml:"role" json:"role"`
	Content *MessageContent `yaml:"content" json:"content"`
}

// MessageContent holds the template text of a message
type MessageContent struct {
	Type string `yaml:"type" json:"type"`
	Text string `yaml:"text" json:"text"`
}

// ToolDescription returns the description advertised for the prompt's tool
func (d PromptDefinition) ToolDescription() string {
	if d.Description != "" {
		return d.Description
	}
	return fmt.Sprintf("Prompt: %s", d.Name)
}

// ArgumentDescription returns the advertised description of an argument
func (a PromptArgument) ArgumentDescription() string {
	if a.Description != "" {
		return a.Description
	}
	return fmt.Sprintf("Argument: %s", a.Name)
}

// Validate checks the invariants a definition must hold to be loaded
func (d PromptDefinition) Validate() error {
	if d.Name == "" {
		return ErrMissingName
	}

	seen := make(map[string]struct{}, len(d.Arguments))
	for _, a := range d.Arguments {
		if a.Name == "" {
			return fmt.Errorf("argument without a name in prompt %q", d.Name)
		}
		if _, ok := seen[a.Name]; ok {
			return fmt.Errorf("%w: %q in prompt %q", ErrDuplicateArgument, a.Name, d.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// withDefaults fills the documented defaults for absent fields
func (d PromptDefinition) withDefaults() PromptDefinition {
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	if d.Arguments == nil {
		d.Arguments = []PromptArgument{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}
