package model

import "encoding/json"

// Patch is an optional field of an update payload. The zero value is
// Unchanged; Replace carries a new value, which may itself be empty.
type Patch[T any] struct {
	set bool
	val T
}

// Unchanged keeps whatever the stored record has.
func Unchanged[T any]() Patch[T] {
	return Patch[T]{}
}

// Replace overwrites the stored value with v.
func Replace[T any](v T) Patch[T] {
	return Patch[T]{set: true, val: v}
}

// Get returns the replacement value and whether there is one.
func (p Patch[T]) Get() (T, bool) {
	return p.val, p.set
}

// IsSet reports whether p is a Replace.
func (p Patch[T]) IsSet() bool {
	return p.set
}

// Or returns the replacement value, or prev when p is Unchanged.
func (p Patch[T]) Or(prev T) T {
	if p.set {
		return p.val
	}
	return prev
}

// UnmarshalJSON is only invoked when the key is present in the object, so a
// present key (even null) becomes a Replace and an absent key stays Unchanged.
func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.set = true
	p.val = v
	return nil
}
