package prompts

import (
	"errors"
	"testing"
)

func TestPromptDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     PromptDefinition
		wantErr error
	}{
		{
			name: "Valid",
			def:  PromptDefinition{Name: "p", Arguments: []PromptArgument{{Name: "a"}, {Name: "b"}}},
		},
		{
			name:    "Missing Name",
			def:     PromptDefinition{Description: "d"},
			wantErr: ErrMissingName,
		},
		{
			name:    "Duplicate Argument",
			def:     PromptDefinition{Name: "p", Arguments: []PromptArgument{{Name: "a"}, {Name: "a"}}},
			wantErr: ErrDuplicateArgument,
		},
		{
			name: "Valid with no arguments",
			def:  PromptDefinition{Name: "p"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("PromptDefinition.Validate() unexpected error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("PromptDefinition.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := (PromptDefinition{Name: "p", Arguments: []PromptArgument{{Name: ""}}}).Validate(); err == nil {
		t.Error("Expected error for argument without a name")
	}
}

func TestDescriptions(t *testing.T) {
	if got := (PromptDefinition{Name: "x"}).ToolDescription(); got != "Prompt: x" {
		t.Errorf("Unexpected generated description: %q", got)
	}
	if got := (PromptDefinition{Name: "x", Description: "d"}).ToolDescription(); got != "d" {
		t.Errorf("Unexpected description: %q", got)
	}
	if got := (PromptArgument{Name: "a"}).ArgumentDescription(); got != "Argument: a" {
		t.Errorf("Unexpected generated argument description: %q", got)
	}
}
