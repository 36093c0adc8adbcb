package normalisers

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
)

// Registry selects a normaliser by file extension.
type Registry struct {
	mu       sync.RWMutex
	byExt    map[string]driven.Normaliser
	fallback driven.Normaliser
}

// NewRegistry creates a registry. The fallback handles unknown extensions;
// nil means unknown files are refused.
func NewRegistry(fallback driven.Normaliser, normalisers ...driven.Normaliser) *Registry {
	r := &Registry{
		byExt:    make(map[string]driven.Normaliser),
		fallback: fallback,
	}
	if fallback != nil {
		r.Register(fallback)
	}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds n for each of its extensions, keeping the higher priority on conflict.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range n.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if cur, ok := r.byExt[ext]; ok && cur.Priority() >= n.Priority() {
			continue
		}
		r.byExt[ext] = n
	}
}

// For returns the normaliser for path.
func (r *Registry) For(path string) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return n, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}
