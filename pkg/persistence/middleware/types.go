// Package middleware wraps ports.StateStore implementations with cross-cutting
// behaviour such as encryption at rest and redaction of sensitive content.
package middleware

import "github.com/aretw0/chatflow/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain wraps store with mws. The first middleware is the outermost.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
