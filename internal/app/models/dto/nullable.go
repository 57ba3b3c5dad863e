package dto

import (
	"bytes"
	"encoding/json"
)

// Nullable is a request field that tells an omitted key apart from an explicit
// null. Set is false when the key was absent; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// NullableOf returns a present, non-null field
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a field explicitly set to null
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON only runs for keys present in the payload
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// MarshalJSON writes the value, or null when absent or null
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// ValidationValue exposes the wrapped value to struct tag validation. Absent
// and null fields validate as empty.
func (n Nullable[T]) ValidationValue() interface{} {
	if n.Value == nil {
		return nil
	}
	return *n.Value
}
