// Package middleware wraps transducer stores with extra behavior.
package middleware

import "github.com/aretw0/twolc/pkg/ports"

// Middleware allows wrapping a TransducerStore to add behavior.
type Middleware func(ports.TransducerStore) ports.TransducerStore

// Chain applies mws to store; the first middleware is the outermost.
func Chain(store ports.TransducerStore, mws ...Middleware) ports.TransducerStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
