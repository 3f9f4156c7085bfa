// Package capability defines the contract for read-only diagnostic operations
// the reasoning service can invoke, and the catalog that advertises them.
package capability

import (
	"context"
	"fmt"
)

// Descriptor is the immutable shape of one capability.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"inputSchema"`
}

// Capability is a unit of diagnostic work identified by its descriptor.
type Capability interface {
	// Descriptor returns the name, description and parameter schema.
	Descriptor() Descriptor

	// Invoke runs the capability. Implementations report expected failures as
	// a Failure payload; a returned error is converted by the caller.
	Invoke(ctx context.Context, params map[string]any) (Payload, error)
}

// Payload is the structured result of an invocation. It always carries a
// status field of "success" or "error".
type Payload map[string]any

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success returns fields with status set to success.
func Success(fields map[string]any) Payload {
	p := make(Payload, len(fields)+1)
	for k, v := range fields {
		p[k] = v
	}
	p["status"] = StatusSuccess
	return p
}

// Failure returns an error payload carrying err's message.
func Failure(err error) Payload {
	return Payload{"status": StatusError, "error": err.Error()}
}

// Failuref returns an error payload with a formatted message.
func Failuref(format string, args ...any) Payload {
	return Failure(fmt.Errorf(format, args...))
}

// UnknownTool is the payload sent back when the reasoning service names a
// capability the catalog does not hold.
func UnknownTool(name string) Payload {
	return Payload{"error": "Unknown tool: " + name}
}

// IsError reports whether the payload describes a failed invocation.
func (p Payload) IsError() bool {
	if s, ok := p["status"].(string); ok {
		return s == StatusError
	}
	_, hasErr := p["error"]
	return hasErr
}

// Func adapts a plain function into a Capability.
type Func struct {
	Desc Descriptor
	Fn   func(ctx context.Context, params map[string]any) (Payload, error)
}

func (f Func) Descriptor() Descriptor { return f.Desc }

func (f Func) Invoke(ctx context.Context, params map[string]any) (Payload, error) {
	return f.Fn(ctx, params)
}
