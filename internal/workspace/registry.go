package workspace

import "sync"

// Registry hands out one shared Store per resolved document path. An
// application wanting shared stores constructs a Registry once and passes
// it by dependency injection; there is no process-wide singleton.
type Registry struct {
	opts Options

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry builds a registry whose stores share the given options.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:   opts,
		stores: make(map[string]*Store),
	}
}

// Get returns the store for path, opening it on first use. Paths are keyed
// by resolved absolute location, so relative and absolute spellings of the
// same document share one store.
func (r *Registry) Get(path string) (*Store, error) {
	resolved, err := NormalizePath(path)
	if err != nil {
		return nil, &FormatError{Op: "resolve workspace path", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[resolved]; ok {
		return store, nil
	}
	store, err := Open(resolved, r.opts)
	if err != nil {
		return nil, err
	}
	r.stores[resolved] = store
	return store, nil
}

// Create behaves like Get but lets the caller adjust the registry's base
// options before a first open, typically to seed a new document's source
// directory and processing mode. A store already registered for the path is
// returned unchanged; seed options never rewrite an existing document.
func (r *Registry) Create(path string, configure func(*Options)) (*Store, error) {
	resolved, err := NormalizePath(path)
	if err != nil {
		return nil, &FormatError{Op: "resolve workspace path", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[resolved]; ok {
		return store, nil
	}
	opts := r.opts
	if configure != nil {
		configure(&opts)
	}
	store, err := Open(resolved, opts)
	if err != nil {
		return nil, err
	}
	r.stores[resolved] = store
	return store, nil
}

// Close closes every open store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path, store := range r.stores {
		_ = store.Close()
		delete(r.stores, path)
	}
	return nil
}
