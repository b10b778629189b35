package token

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known tokens.
type Registry struct {
	byAddress map[common.Address]*Token
	bySymbol  map[string]*Token
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[common.Address]*Token),
		bySymbol:  make(map[string]*Token),
	}
}

// Register adds a token. Panics on a duplicate address.
func (r *Registry) Register(t *Token) {
	if t == nil {
		panic("token: cannot register nil token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAddress[t.Address()]; exists {
		panic(fmt.Sprintf("token: %s already registered", t.Address().Hex()))
	}

	r.byAddress[t.Address()] = t
	r.bySymbol[t.Symbol()] = t
}

// Get retrieves a token by contract address.
func (r *Registry) Get(address common.Address) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byAddress[address]
	return t, ok
}

// GetBySymbol retrieves a token by its ticker symbol.
func (r *Registry) GetBySymbol(symbol string) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.bySymbol[symbol]
	return t, ok
}

// Resolve returns the registered token for address, or a generic 18-decimal
// token labeled with the address prefix when unknown.
func (r *Registry) Resolve(address common.Address) *Token {
	if t, ok := r.Get(address); ok {
		return t
	}
	return New(address.Hex()[:10], address, 18)
}
