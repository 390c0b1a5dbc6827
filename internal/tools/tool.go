// Package tools defines the structured-output tools offered to remote models.
// A tool's parameter schema is the shape the model must fill in; Execute
// checks what the model produced and returns it as canonical JSON.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
)

// ErrInvalidInput marks tool input that does not satisfy the tool's schema.
var ErrInvalidInput = errors.New("invalid tool input")

// Tool is a structured output the model can be forced to produce.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON Schema
	Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

// ToolDef is the format for tool definitions expected by the AI API, derived from the Tool interface.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Registry holds available tools and converts them to the AI API format.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool to the registry, keyed by its Name.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name, returns the tool and a boolean indicating if it was found.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Def returns the definition of a single tool.
func (r *Registry) Def(name string) (ToolDef, bool) {
	t, ok := r.tools[name]
	if !ok {
		return ToolDef{}, false
	}
	return toDef(t), true
}

// ToToolDefs returns the tool definitions sorted by name.
func (r *Registry) ToToolDefs() []ToolDef {
	out := make([]ToolDef, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, toDef(t))
	}
	slices.SortFunc(out, func(a, b ToolDef) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func toDef(t Tool) ToolDef {
	return ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.Parameters(),
	}
}

// Default returns a registry with the vitals and explanation tools.
func Default() *Registry {
	return NewRegistry(RecordVitals{}, RecordExplanation{})
}
