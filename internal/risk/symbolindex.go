package risk

// SymbolIndex is a dense, pre-registered integer handle for a symbol
// (spec §4.4: "a dense SymbolIndex issued at symbol registration").
type SymbolIndex uint32

// SymbolRegistry assigns SymbolIndex values at configuration time. It is
// never touched from the hot path — all registration happens during
// startup configuration (spec §4.4 "string-to-index map populated during
// configuration; hot path never touches strings").
type SymbolRegistry struct {
	byName map[string]SymbolIndex
	names  []string
}

// NewSymbolRegistry builds an empty registry.
func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{byName: make(map[string]SymbolIndex)}
}

// Register assigns a symbol its dense index, returning the existing
// index if already registered.
func (r *SymbolRegistry) Register(name string) SymbolIndex {
	if idx, ok := r.byName[name]; ok {
		return idx
	}
	idx := SymbolIndex(len(r.names))
	r.byName[name] = idx
	r.names = append(r.names, name)
	return idx
}

// Lookup resolves a symbol name to its index, if registered.
func (r *SymbolRegistry) Lookup(name string) (SymbolIndex, bool) {
	idx, ok := r.byName[name]
	return idx, ok
}

// Len reports how many symbols have been registered.
func (r *SymbolRegistry) Len() int { return len(r.names) }
