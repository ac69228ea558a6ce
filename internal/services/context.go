package services

import "context"

type scopeKey struct{}

// Scope identifies what a context is working on. Empty fields are unset.
type Scope struct {
	RunID     string
	Recording string
	Stage     string
}

// IsZero reports whether no field is set.
func (s Scope) IsZero() bool {
	return s == Scope{}
}

// merge overlays the non-empty fields of next onto s.
func (s Scope) merge(next Scope) Scope {
	if next.RunID != "" {
		s.RunID = next.RunID
	}
	if next.Recording != "" {
		s.Recording = next.Recording
	}
	if next.Stage != "" {
		s.Stage = next.Stage
	}
	return s
}

// WithScope returns ctx carrying the current scope overlaid with the
// non-empty fields of scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	merged := ScopeFrom(ctx).merge(scope)
	if merged == ScopeFrom(ctx) {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, merged)
}

// ScopeFrom returns the scope stored on ctx, or the zero Scope.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	scope, _ := ctx.Value(scopeKey{}).(Scope)
	return scope
}

// WithRunID annotates context with the processing run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return WithScope(ctx, Scope{RunID: id})
}

// WithRecording annotates context with the recording being processed.
func WithRecording(ctx context.Context, name string) context.Context {
	return WithScope(ctx, Scope{Recording: name})
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return WithScope(ctx, Scope{Stage: stage})
}
