// Package tools implements the tool registry: registration, reflection-
// based JSON-schema derivation, special-parameter injection, and result
// serialization, per spec §4.9.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/mathisarends/rtvoice/pkg/bus"
)

// Context carries the values injected into a handler call that are never
// part of the model-visible JSON schema: the event bus, and an opaque
// caller-supplied value (the Go analogue of SpecialToolParameters).
type Context struct {
	Bus   *bus.Bus
	Value any
}

// Handler is the shape every registered tool implements. args is the tool's
// bespoke argument struct value, already populated from the model-provided
// JSON; for MCP-backed tools it is a map[string]any.
type Handler func(ctx *Context, args any) (any, error)

// Tool is one registered tool: name, description, derived schema, and its
// handler, plus the optional follow-up-response controls from spec §3/§4.7.
type Tool struct {
	Name              string
	Description       string
	Parameters        Schema
	Handler           Handler
	ArgsType          reflect.Type
	ResultInstruction string
	SuppressResponse  bool
}

// Schema is the JSON-Schema-like parameter description derived by
// reflection from a tool's argument struct.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one field's derived schema entry.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Option configures optional Tool fields at Register time.
type Option func(*Tool)

// WithResultInstruction sets the follow-up response.create instructions
// used when this tool's result is ready.
func WithResultInstruction(instruction string) Option {
	return func(t *Tool) { t.ResultInstruction = instruction }
}

// WithSuppressResponse marks a tool as not triggering an automatic
// follow-up response.create after its result is sent.
func WithSuppressResponse() Option {
	return func(t *Tool) { t.SuppressResponse = true }
}

// Registry holds every local and MCP-backed tool, keyed by unique name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool built from handler's bespoke args struct (the type
// parameter A, inferred from handler's signature). Registering a
// name that already exists returns an error — names must be unique across
// the registry.
func Register[A any](r *Registry, name, description string, handler func(ctx *Context, args A) (any, error), opts ...Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tools: duplicate tool name %q", name)
	}

	argsType := reflect.TypeOf((*A)(nil)).Elem()
	schema := buildSchema(argsType)

	t := &Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		ArgsType:    argsType,
		Handler: func(ctx *Context, rawArgs any) (any, error) {
			args, ok := rawArgs.(A)
			if !ok {
				return nil, fmt.Errorf("tools: argument type mismatch for %q", name)
			}
			return handler(ctx, args)
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	r.tools[name] = t
	return nil
}

// Lookup returns the tool registered under name, if any.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// RegisterMCPTool adds a pre-built Tool wrapping a closure that routes to
// an owning MCP server; used by pkg/mcpclient, bypassing the generic
// Register (MCP tool schemas come from the remote server, not Go reflection).
func (r *Registry) RegisterMCPTool(t *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tools: duplicate tool name %q", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// List returns every registered tool's wire-facing definition.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Execute looks up name, decodes argsJSON into the tool's args struct, and
// runs the handler with toolCtx. The injected special values travel only in
// toolCtx, never in the args struct, so the model never sees them.
func (r *Registry) Execute(ctx context.Context, toolCtx *Context, name string, argsJSON []byte) (any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("tools: unknown tool %q", name)
	}

	// MCP-backed tools have no Go args struct — their schema comes from the
	// remote server, so arguments are decoded into a plain map instead.
	if t.ArgsType == nil {
		args := map[string]any{}
		if len(argsJSON) > 0 {
			if err := json.Unmarshal(argsJSON, &args); err != nil {
				return nil, fmt.Errorf("tools: failed to decode arguments for %q: %w", name, err)
			}
		}
		return t.Handler(toolCtx, args)
	}

	argsPtr := reflect.New(t.ArgsType)
	if len(argsJSON) > 0 {
		if err := json.Unmarshal(argsJSON, argsPtr.Interface()); err != nil {
			return nil, fmt.Errorf("tools: failed to decode arguments for %q: %w", name, err)
		}
	}

	return t.Handler(toolCtx, argsPtr.Elem().Interface())
}

// Serialize implements spec §4.7 step 4 / Testable Property 6:
// nil -> "Success"; string passes through; everything else is marshaled to
// JSON with a %v fallback on marshal failure.
func Serialize(result any) string {
	if result == nil {
		return "Success"
	}
	if s, ok := result.(string); ok {
		return s
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(raw)
}
