package services

import (
	"encoding/json"
	"io"
)

// multiItem constrains the element type stored in MultiResultBase.
type multiItem[T any] interface {
	*T
	IsEmpty() bool
	WriteText(w io.Writer) error
}

// MultiResultBase holds per-input results in input order and implements the
// methods every aggregated result shares. Embed it and add the
// format-specific writers.
type MultiResultBase[T any, PT multiItem[T]] struct {
	Results []PT
}

// Append adds the results that have the element type and skips the rest,
// such as nil outputs of inputs that never ran.
func (m *MultiResultBase[T, PT]) Append(results ...Result) {
	for _, r := range results {
		if item, ok := r.(PT); ok && (*T)(item) != nil {
			m.Results = append(m.Results, item)
		}
	}
}

// IsEmpty reports whether every contained result is empty.
func (m *MultiResultBase[T, PT]) IsEmpty() bool {
	for _, r := range m.Results {
		if !r.IsEmpty() {
			return false
		}
	}
	return true
}

// MarshalJSON serializes the results as a JSON array; no results encode as [].
func (m *MultiResultBase[T, PT]) MarshalJSON() ([]byte, error) {
	if m.Results == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.Results)
}

// WriteText writes every result as plain text.
func (m *MultiResultBase[T, PT]) WriteText(w io.Writer) error {
	for _, r := range m.Results {
		if err := r.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}
