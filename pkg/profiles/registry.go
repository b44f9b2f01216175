package profiles

import (
	"fmt"
	"strings"
	"sync"
)

// Registry holds profiles by id in registration order.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	order    []string
}

// NewRegistry builds a registry for the provided profiles.
func NewRegistry(profiles ...*Profile) *Registry {
	reg := &Registry{
		profiles: make(map[string]*Profile, len(profiles)),
	}
	for _, p := range profiles {
		reg.Register(p)
	}
	return reg
}

// DefaultRegistry wires up the built-in catalogue with the given keywords.
func DefaultRegistry(keywords []string) (*Registry, error) {
	reg := NewRegistry(BBC(keywords))
	for _, spec := range BuiltinSpecs() {
		p, err := Build(spec, keywords)
		if err != nil {
			return nil, fmt.Errorf("builtin profile %q: %w", spec.ID, err)
		}
		reg.Register(p)
	}
	return reg, nil
}

// Register adds p, replacing any profile with the same id in place.
func (r *Registry) Register(p *Profile) {
	if p == nil {
		return
	}
	key := normalizeID(p.ID)
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[key]; !exists {
		r.order = append(r.order, key)
	}
	r.profiles[key] = p
}

// Remove drops the profile with the given id. It reports whether one existed.
func (r *Registry) Remove(id string) bool {
	key := normalizeID(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[key]; !ok {
		return false
	}
	delete(r.profiles, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Apply overlays file-defined specs: a spec with enabled: false removes the
// profile, any other replaces or adds it.
func (r *Registry) Apply(specs []Spec, defaultKeywords []string) error {
	for _, spec := range specs {
		if !spec.EnabledValue() {
			r.Remove(spec.ID)
			continue
		}
		p, err := Build(spec, defaultKeywords)
		if err != nil {
			return err
		}
		r.Register(p)
	}
	return nil
}

// ByID selects the profile with the given id.
func (r *Registry) ByID(id string) (*Profile, error) {
	key := normalizeID(id)
	if key == "" {
		return nil, fmt.Errorf("profile id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[key]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no profile registered for id %q", id)
}

// All returns every profile in registration order.
func (r *Registry) All() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.profiles[key])
	}
	return out
}

// Select returns the profiles named by ids, or all of them when ids is empty.
func (r *Registry) Select(ids []string) ([]*Profile, error) {
	if len(ids) == 0 {
		return r.All(), nil
	}
	out := make([]*Profile, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		p, err := r.ByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
