package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Registry maps a namespace to the Adapter that serves it, plus a default
// namespace used when a corpus path carries no explicit "ns:" prefix.
type Registry struct {
	mu      sync.RWMutex
	byNS    map[string]Adapter
	fallback string
}

// NewRegistry returns an empty registry using fallback as the default
// namespace for paths without an explicit "ns:" prefix.
func NewRegistry(fallback string) *Registry {
	return &Registry{byNS: make(map[string]Adapter), fallback: fallback}
}

// Mount registers adapter under namespace, replacing any prior adapter.
func (r *Registry) Mount(namespace string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNS[namespace] = adapter
}

// Unmount removes the adapter registered for namespace, if any.
func (r *Registry) Unmount(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byNS, namespace)
}

// Adapter returns the adapter registered for namespace, or
// ErrUnknownNamespace if none was mounted.
func (r *Registry) Adapter(namespace string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byNS[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	return a, nil
}

// DefaultNamespace returns the namespace used for paths without an explicit
// "ns:" prefix.
func (r *Registry) DefaultNamespace() string { return r.fallback }

// ErrUnknownNamespace is returned by Adapter when the namespace was never
// mounted.
var ErrUnknownNamespace = fmt.Errorf("storage: unknown namespace")

// Split separates a corpus path into its namespace and the remaining path.
// A namespace prefix is recognized only when a ':' appears strictly before
// the first '/'; otherwise the registry's default namespace is used and the
// whole input is the path.
func (r *Registry) Split(corpusPath string) (namespace, path string) {
	if i := strings.IndexByte(corpusPath, ':'); i >= 0 {
		if j := strings.IndexByte(corpusPath, '/'); j < 0 || i < j {
			return corpusPath[:i], corpusPath[i+1:]
		}
	}
	return r.fallback, corpusPath
}

// Read splits corpusPath, dispatches to the adapter mounted for its
// namespace, and reads the remaining path from it. It is the single entry
// point the loader uses so callers never need to touch Split/Adapter
// themselves.
func (r *Registry) Read(ctx context.Context, corpusPath string) ([]byte, error) {
	ns, path := r.Split(corpusPath)
	a, err := r.Adapter(ns)
	if err != nil {
		return nil, err
	}
	return a.Read(ctx, path)
}

// Compose is the inverse of Split: it renders a namespace-qualified corpus
// path, omitting the "ns:" prefix when namespace is the registry default.
func (r *Registry) Compose(namespace, path string) string {
	if namespace == "" || namespace == r.fallback {
		return path
	}
	return namespace + ":" + path
}
