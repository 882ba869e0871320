// Package tool exposes drydock's operations as named, schema-described
// tools for host protocols (MCP, CLI). Every tool validates its raw
// argument map at the boundary before touching model code; adapters never
// pass unchecked casts through.
package tool

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Field type identifiers used in tool input schemas.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// FieldSpec describes one tool input for host-protocol listings.
type FieldSpec struct {
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// Spec is a tool's callable contract.
type Spec struct {
	Description string               `json:"description,omitempty"`
	Inputs      map[string]FieldSpec `json:"inputs,omitempty"`
}

// Tool is a single callable operation.
type Tool interface {
	Name() string
	Spec() Spec
	Invoke(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Registry holds tools for lookup by name and dispatches invocations
// through a single instrumented path.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	observer Observer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]Tool),
		observer: noopObserver{},
	}
}

// SetObserver installs an invocation observer. A nil observer resets to
// the no-op default.
func (r *Registry) SetObserver(observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if observer == nil {
		observer = noopObserver{}
	}
	r.observer = observer
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool: cannot register nil tool")
	}
	name := t.Name()
	if name == "" {
		return errors.New("tool: cannot register tool with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool: %q is already registered", name)
	}
	r.tools[name] = t
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in deterministic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke dispatches one tool call, recording an observation for the
// outcome. Unknown names fail with ErrCodeToolNotFound.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	r.mu.RLock()
	observer := r.observer
	r.mu.RUnlock()

	t, ok := r.Get(name)
	if !ok {
		err := newError(ErrCodeToolNotFound, fmt.Sprintf("unknown tool %q", name), false, nil)
		observer.ObserveInvoke(InvokeObservation{Tool: name, ErrorCode: err.Code})
		return nil, err
	}

	start := time.Now()
	outputs, err := t.Invoke(ctx, args)

	observation := InvokeObservation{
		Tool:       name,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		observation.ErrorCode = errorCode(err)
	}
	observer.ObserveInvoke(observation)

	return outputs, err
}

// errorCode extracts the machine-readable code from a tool error chain.
func errorCode(err error) string {
	var toolErr *Error
	if errors.As(err, &toolErr) {
		return toolErr.Code
	}
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return ErrCodeInvalidArgument
	}
	return ErrCodeInvocationFailed
}
