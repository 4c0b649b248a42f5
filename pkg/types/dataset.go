package types

import (
	"fmt"
	"slices"
)

// Kind identifies which Dataset variant a value is.
type Kind int

// Dataset kinds. The set is closed: every Dataset is exactly one of these.
const (
	KindTable Kind = iota
	KindMapping
	KindSequence
	KindScalar
)

// String returns the lowercase kind name used in summaries.
func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Dataset is the in-memory value produced by a successful load.
// Implementations are immutable after construction.
type Dataset interface {
	// Kind reports which variant this is.
	Kind() Kind

	// Len returns the element count: rows for a table, keys for a mapping,
	// items for a sequence, and 1 for a scalar.
	Len() int
}

// Mapping is a keyed collection that does not have row/column structure.
// Keys are kept in a fixed order.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping builds a Mapping over the ordered keys. Keys missing from
// values and repeated keys are skipped.
func NewMapping(keys []string, values map[string]any) *Mapping {
	m := &Mapping{values: make(map[string]any, len(keys))}
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if _, dup := m.values[k]; dup {
			continue
		}
		m.keys = append(m.keys, k)
		m.values[k] = cloneValue(v)
	}
	return m
}

// Kind returns KindMapping.
func (m *Mapping) Kind() Kind { return KindMapping }

// Len returns the number of keys.
func (m *Mapping) Len() int { return len(m.keys) }

// Keys returns a copy of the ordered keys.
func (m *Mapping) Keys() []string { return slices.Clone(m.keys) }

// Get returns a copy of the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return cloneValue(v), ok
}

// Sequence is an ordered list of arbitrary items.
type Sequence struct {
	items []any
}

// NewSequence builds a Sequence from a deep copy of items.
func NewSequence(items []any) *Sequence {
	return &Sequence{items: cloneItems(items)}
}

// Kind returns KindSequence.
func (s *Sequence) Kind() Kind { return KindSequence }

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.items) }

// Items returns a copy of the items.
func (s *Sequence) Items() []any { return cloneItems(s.items) }

// Head returns a copy of at most n leading items.
func (s *Sequence) Head(n int) []any {
	if n > len(s.items) {
		n = len(s.items)
	}
	if n < 0 {
		n = 0
	}
	return cloneItems(s.items[:n])
}

// Scalar wraps a single opaque value.
type Scalar struct {
	value any
}

// NewScalar wraps a copy of v.
func NewScalar(v any) *Scalar { return &Scalar{value: cloneValue(v)} }

// Kind returns KindScalar.
func (s *Scalar) Kind() Kind { return KindScalar }

// Len returns 1.
func (s *Scalar) Len() int { return 1 }

// Value returns a copy of the wrapped value.
func (s *Scalar) Value() any { return cloneValue(s.value) }
