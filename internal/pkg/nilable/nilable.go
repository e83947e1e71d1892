// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package nilable provides a tagged report cell that is either a value or NIL.
//
// NIL is a user-facing marker for a field that does not apply to a row (e.g.,
// the buy date of an unmatched sell). It is deliberately distinct from zero.
package nilable

import (
	"encoding/json"
)

// NIL is the canonical placeholder rendered for inapplicable fields.
const NIL = "NIL"

// Value is either a value of type T or NIL.
//
// The zero Value is NIL.
type Value[T any] struct {
	value T
	valid bool
}

// Of returns a Value holding v.
func Of[T any](v T) Value[T] {
	return Value[T]{value: v, valid: true}
}

// Nil returns a NIL Value.
func Nil[T any]() Value[T] {
	return Value[T]{}
}

// IsNil returns true if the Value is NIL.
func (v Value[T]) IsNil() bool {
	return !v.valid
}

// Get returns the held value and whether the Value is not NIL.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.valid
}

// Format renders the Value with format, or NIL.
func (v Value[T]) Format(format func(T) string) string {
	if !v.valid {
		return NIL
	}
	return format(v.value)
}

// MarshalJSON renders NIL as the string "NIL" and values with their own JSON encoding.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return json.Marshal(NIL)
	}
	return json.Marshal(v.value)
}
