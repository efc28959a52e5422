// Package registry keeps the user-editable lists of professors and subjects.
// Each list is stored under its own key and never drops below one entry.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	appLog "labcal/internal/log"
	"labcal/internal/store"
)

// Kind selects one of the registry lists.
type Kind string

const (
	Professors Kind = "professors"
	Subjects   Kind = "subjects"
)

// ErrUnknownKind is returned for a Kind other than Professors or Subjects.
var ErrUnknownKind = errors.New("registry: unknown kind")

// ParseKind maps a URL segment or flag value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Professors, Subjects:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) key() (string, error) {
	switch k {
	case Professors:
		return store.KeyProfessors, nil
	case Subjects:
		return store.KeySubjects, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
}

// Registry reads and writes the lists through a Store. Defaults are used
// whenever a list is unset, unreadable or empty.
type Registry struct {
	mu       sync.Mutex
	store    store.Store
	defaults map[Kind][]string
}

// New returns a Registry seeded with the given default lists.
func New(s store.Store, professors, subjects []string) *Registry {
	return &Registry{
		store: s,
		defaults: map[Kind][]string{
			Professors: slices.Clone(professors),
			Subjects:   slices.Clone(subjects),
		},
	}
}

// Load returns the stored list for kind, or its defaults.
func (r *Registry) Load(kind Kind) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(kind)
}

// Add appends name to the list. It reports false when name is blank after
// trimming or already present (exact, case-sensitive match).
func (r *Registry) Add(kind Kind, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.loadLocked(kind)
	if err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(list, name) {
		return false, nil
	}
	list = append(list, name)
	if err := r.saveLocked(kind, list); err != nil {
		return false, err
	}
	appLog.Info("registry entry added", "kind", string(kind), "name", name)
	return true, nil
}

// Remove deletes name from the list. It reports false when name is absent
// or is the last remaining entry.
func (r *Registry) Remove(kind Kind, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.loadLocked(kind)
	if err != nil {
		return false, err
	}
	filtered := slices.DeleteFunc(slices.Clone(list), func(v string) bool { return v == name })
	if len(filtered) == len(list) || len(filtered) == 0 {
		return false, nil
	}
	if err := r.saveLocked(kind, filtered); err != nil {
		return false, err
	}
	appLog.Info("registry entry removed", "kind", string(kind), "name", name)
	return true, nil
}

// ResetToDefaults overwrites both lists with their defaults.
func (r *Registry) ResetToDefaults() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range []Kind{Professors, Subjects} {
		if err := r.saveLocked(kind, r.defaults[kind]); err != nil {
			return err
		}
	}
	appLog.Info("registry reset to defaults")
	return nil
}

// Contains reports whether name is currently in the list.
func (r *Registry) Contains(kind Kind, name string) bool {
	list, err := r.Load(kind)
	if err != nil {
		return false
	}
	return slices.Contains(list, name)
}

// HasProfessor and HasSubject let the booking service consult the registry.
func (r *Registry) HasProfessor(name string) bool { return r.Contains(Professors, name) }
func (r *Registry) HasSubject(name string) bool   { return r.Contains(Subjects, name) }

func (r *Registry) loadLocked(kind Kind) ([]string, error) {
	key, err := kind.key()
	if err != nil {
		return nil, err
	}
	def := slices.Clone(r.defaults[kind])

	data, err := r.store.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			appLog.Error("registry: read failed, using defaults", err, "kind", string(kind))
		}
		return def, nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		appLog.Error("registry: decode failed, using defaults", err, "kind", string(kind))
		return def, nil
	}
	if len(list) == 0 {
		return def, nil
	}
	return list, nil
}

func (r *Registry) saveLocked(kind Kind, list []string) error {
	key, err := kind.key()
	if err != nil {
		return err
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return r.store.Set(key, data)
}
