package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sha1n/mcp-prompt-server-go/internal/prompts"
	"github.com/sha1n/mcp-prompt-server-go/internal/search"
)

// Built-in tool names, always available regardless of the loaded prompts
const (
	ToolReloadPrompts  = "reload_prompts"
	ToolGetPromptNames = "get_prompt_names"
	ToolSearchPrompts  = "search_prompts"

	searchQueryArgument = "query"
)

// ReservedNames returns the names prompts may not use
func ReservedNames() []string {
	return []string{ToolReloadPrompts, ToolGetPromptNames, ToolSearchPrompts}
}

// Registry is the prompt source the dispatcher reads from
type Registry interface {
	Current() *prompts.Snapshot
	Reload(ctx context.Context) (*prompts.Snapshot, error)
}

// ArgumentSchema describes one string input of a tool
type ArgumentSchema struct {
	Name        string
	Description string
	Required    bool
}

// ToolDescription is the invocation shape advertised for a tool
type ToolDescription struct {
	Name        string
	Description string
	Arguments   []ArgumentSchema
}

// Result is the outcome of a tool invocation: either Text or Err is set
type Result struct {
	Text string
	Err  *Error
}

// IsError reports whether the invocation failed
func (r Result) IsError() bool {
	return r.Err != nil
}

func textResult(text string) Result {
	return Result{Text: text}
}

func errorResult(err *Error) Result {
	return Result{Err: err}
}

// Dispatcher resolves tool requests against the current prompt snapshot.
// It is the single implementation of tool semantics behind every transport.
type Dispatcher struct {
	registry Registry
	searcher search.Searcher
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithSearcher enables the search_prompts tool
func WithSearcher(s search.Searcher) Option {
	return func(d *Dispatcher) {
		d.searcher = s
	}
}

// New creates a dispatcher over the given registry
func New(registry Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ListToolNames returns the prompt names of the current snapshot in order
func (d *Dispatcher) ListToolNames() []string {
	return d.registry.Current().Names()
}

// DescribeTool returns the advertised shape of a prompt or built-in tool
func (d *Dispatcher) DescribeTool(name string) (ToolDescription, bool) {
	for _, t := range d.builtinTools() {
		if t.Name == name {
			return t, true
		}
	}
	def, ok := d.registry.Current().FindByName(name)
	if !ok {
		return ToolDescription{}, false
	}
	return describePrompt(def), true
}

// Tools describes every exposed tool: the prompts of the given snapshot in
// order, followed by the built-in tools
func (d *Dispatcher) Tools(snapshot *prompts.Snapshot) []ToolDescription {
	defs := snapshot.Definitions()
	builtins := d.builtinTools()

	tools := make([]ToolDescription, 0, len(defs)+len(builtins))
	for _, def := range defs {
		tools = append(tools, describePrompt(def))
	}
	return append(tools, builtins...)
}

// Invoke runs the named tool. Failures, including panics, are returned as
// error results and never propagate to the caller.
func (d *Dispatcher) Invoke(ctx context.Context, name string, arguments map[string]string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tool invocation panicked", "tool", name, "panic", r)
			result = errorResult(NewError(CodeProcessing, "failed to process prompt %q: %v", name, r))
		}
	}()

	switch name {
	case ToolReloadPrompts:
		return d.reload(ctx)
	case ToolGetPromptNames:
		return d.promptNames()
	case ToolSearchPrompts:
		if d.searcher != nil {
			return d.search(arguments)
		}
	}

	snapshot := d.registry.Current()
	def, ok := snapshot.FindByName(name)
	if !ok {
		slog.Warn("Tool not found", "tool", name)
		return errorResult(NotFound(name))
	}

	text := prompts.Render(def, arguments)
	slog.Debug("Rendered prompt", "tool", name, "arguments", len(arguments), "length", len(text))
	return textResult(text)
}

func (d *Dispatcher) reload(ctx context.Context) Result {
	snapshot, err := d.registry.Reload(ctx)
	if err != nil {
		slog.Error("Reload failed", "error", err)
		return errorResult(NewError(CodeProcessing, "failed to reload prompts: %v", err))
	}
	slog.Info("Prompts reloaded", "count", snapshot.Len())
	return textResult(fmt.Sprintf("Successfully reloaded %d prompts.", snapshot.Len()))
}

func (d *Dispatcher) promptNames() Result {
	names := d.ListToolNames()
	return textResult(fmt.Sprintf("Available prompts (%d):\n%s", len(names), strings.Join(names, "\n")))
}

func (d *Dispatcher) search(arguments map[string]string) Result {
	query := strings.TrimSpace(arguments[searchQueryArgument])
	if query == "" {
		return errorResult(NewError(CodeInvalidParams, "missing '%s' argument", searchQueryArgument))
	}

	results, err := d.searcher.Search(query)
	if err != nil {
		slog.Error("Search failed", "query", query, "error", err)
		return errorResult(NewError(CodeProcessing, "search failed: %v", err))
	}

	var sb strings.Builder
	if len(results) == 0 {
		fmt.Fprintf(&sb, "No prompts found for '%s'", query)
	} else {
		fmt.Fprintf(&sb, "Prompts matching '%s':\n\n", query)
		for _, r := range results {
			fmt.Fprintf(&sb, "- %s [%s]: %s\n", r.Name, r.Category, r.Description)
		}
	}
	return textResult(strings.TrimSpace(sb.String()))
}

func (d *Dispatcher) builtinTools() []ToolDescription {
	tools := []ToolDescription{
		{Name: ToolReloadPrompts, Description: "Reload all prompt definitions from disk"},
		{Name: ToolGetPromptNames, Description: "List the names of all available prompts"},
	}
	if d.searcher != nil {
		tools = append(tools, ToolDescription{
			Name:        ToolSearchPrompts,
			Description: "Search prompts by name, description, tags or content",
			Arguments: []ArgumentSchema{
				{Name: searchQueryArgument, Description: "Free text search query", Required: true},
			},
		})
	}
	return tools
}

func describePrompt(def prompts.PromptDefinition) ToolDescription {
	args := make([]ArgumentSchema, len(def.Arguments))
	for i, a := range def.Arguments {
		args[i] = ArgumentSchema{
			Name:        a.Name,
			Description: a.ArgumentDescription(),
			Required:    a.Required,
		}
	}
	return ToolDescription{
		Name:        def.Name,
		Description: def.ToolDescription(),
		Arguments:   args,
	}
}
