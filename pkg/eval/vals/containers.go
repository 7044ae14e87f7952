package vals

import (
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Bytes is an immutable byte string.
type Bytes string

// List is a mutable sequence.
type List struct {
	Elems []any
}

// NewList creates a List containing the given elements. It takes ownership of
// the slice.
func NewList(elems ...any) *List {
	if elems == nil {
		elems = []any{}
	}
	return &List{elems}
}

// Equal reports whether other is a List with equal elements.
func (l *List) Equal(other any) bool {
	m, ok := other.(*List)
	return ok && seqEqual(l.Elems, m.Elems)
}

// Tuple is an immutable sequence.
type Tuple []any

// Dict is a mutable mapping that remembers insertion order. Keys are compared
// with [Equal] and hashed with [Hash], so keys that compare equal across
// numeric types, like 1, 1.0 and True, are the same key.
type Dict struct {
	entries []dictEntry
	index   map[uint32][]int
	live    int
	// Incremented when keys are added or removed, to detect changes during
	// iteration.
	version int
}

type dictEntry struct {
	key, value any
	hash       uint32
	deleted    bool
}

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return &Dict{index: map[uint32][]int{}}
}

// Len returns the number of entries.
func (d *Dict) Len() int { return d.live }

func (d *Dict) find(key any) (int, uint32, error) {
	h, err := Hash(key)
	if err != nil {
		return -1, 0, err
	}
	for _, i := range d.index[h] {
		e := &d.entries[i]
		if !e.deleted && Equal(e.key, key) {
			return i, h, nil
		}
	}
	return -1, h, nil
}

// Get looks up a key. The error is non-nil if the key is not hashable.
func (d *Dict) Get(key any) (any, bool, error) {
	i, _, err := d.find(key)
	if err != nil || i < 0 {
		return nil, false, err
	}
	return d.entries[i].value, true, nil
}

// Set associates a key with a value. The key of an existing entry is kept.
func (d *Dict) Set(key, value any) error {
	i, h, err := d.find(key)
	if err != nil {
		return err
	}
	if i >= 0 {
		d.entries[i].value = value
		return nil
	}
	d.index[h] = append(d.index[h], len(d.entries))
	d.entries = append(d.entries, dictEntry{key: key, value: value, hash: h})
	d.live++
	d.version++
	return nil
}

// Delete removes a key, reporting whether it was present.
func (d *Dict) Delete(key any) (bool, error) {
	i, h, err := d.find(key)
	if err != nil || i < 0 {
		return false, err
	}
	d.entries[i] = dictEntry{deleted: true}
	idx := d.index[h]
	for j, k := range idx {
		if k == i {
			d.index[h] = append(idx[:j:j], idx[j+1:]...)
			break
		}
	}
	if len(d.index[h]) == 0 {
		delete(d.index, h)
	}
	d.live--
	d.version++
	if d.live < len(d.entries)/2 {
		d.compact()
	}
	return true, nil
}

func (d *Dict) compact() {
	entries := make([]dictEntry, 0, d.live)
	index := make(map[uint32][]int, d.live)
	for _, e := range d.entries {
		if !e.deleted {
			index[e.hash] = append(index[e.hash], len(entries))
			entries = append(entries, e)
		}
	}
	d.entries, d.index = entries, index
}

// Clear removes all entries.
func (d *Dict) Clear() {
	*d = Dict{index: map[uint32][]int{}, version: d.version + 1}
}

// Each calls f with every entry in insertion order, stopping when f returns
// false.
func (d *Dict) Each(f func(k, v any) bool) {
	for _, e := range d.entries {
		if !e.deleted && !f(e.key, e.value) {
			return
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []any {
	keys := make([]any, 0, d.live)
	d.Each(func(k, _ any) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Copy returns a shallow copy.
func (d *Dict) Copy() *Dict {
	c := NewDict()
	for _, e := range d.entries {
		if !e.deleted {
			c.index[e.hash] = append(c.index[e.hash], len(c.entries))
			c.entries = append(c.entries, e)
			c.live++
		}
	}
	return c
}

// Equal reports whether other is a Dict with the same keys mapped to equal
// values, regardless of order.
func (d *Dict) Equal(other any) bool {
	o, ok := other.(*Dict)
	if !ok || d.live != o.live {
		return false
	}
	eq := true
	d.Each(func(k, v any) bool {
		ov, found, err := o.Get(k)
		eq = err == nil && found && Equal(v, ov)
		return eq
	})
	return eq
}

// Pop removes a key and returns its value.
func (d *Dict) Pop(key any) (any, bool, error) {
	v, ok, err := d.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	_, err = d.Delete(key)
	return v, true, err
}

// KeyError returns the error raised when key is missing from a mapping.
func KeyError(key any) error {
	return errs.New(errs.KeyError, Repr(key))
}

// Set is a mutable set, or an immutable frozenset when Frozen is true.
// Iteration follows insertion order.
type Set struct {
	d      Dict
	Frozen bool
}

// NewSet creates a set with the given elements. It fails if an element is
// not hashable.
func NewSet(elems ...any) (*Set, error) {
	s := &Set{d: Dict{index: map[uint32][]int{}}}
	for _, e := range elems {
		if err := s.Add(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewFrozenSet is like NewSet, but creates a frozenset.
func NewFrozenSet(elems ...any) (*Set, error) {
	s, err := NewSet(elems...)
	if err != nil {
		return nil, err
	}
	s.Frozen = true
	return s, nil
}

func (s *Set) Len() int { return s.d.Len() }

func (s *Set) Add(v any) error { return s.d.Set(v, nil) }

func (s *Set) Has(v any) (bool, error) {
	_, ok, err := s.d.Get(v)
	return ok, err
}

func (s *Set) Remove(v any) (bool, error) { return s.d.Delete(v) }

func (s *Set) Clear() { s.d.Clear() }

// Elems returns the elements in insertion order.
func (s *Set) Elems() []any { return s.d.Keys() }

// Copy returns a shallow copy with the same frozenness.
func (s *Set) Copy() *Set {
	return &Set{d: *s.d.Copy(), Frozen: s.Frozen}
}

// Equal reports whether other is a set or frozenset with the same elements.
func (s *Set) Equal(other any) bool {
	o, ok := other.(*Set)
	if !ok || s.Len() != o.Len() {
		return false
	}
	return s.IsSubset(o)
}

// IsSubset reports whether every element of s is in o.
func (s *Set) IsSubset(o *Set) bool {
	sub := true
	s.d.Each(func(k, _ any) bool {
		found, _ := o.Has(k)
		sub = found
		return sub
	})
	return sub
}

// Combines two sets with the semantics of the set operators. The result has
// the frozenness of s.
func (s *Set) combine(o *Set, keepInS, keepInO func(inOther bool) bool) *Set {
	r := &Set{d: *NewDict(), Frozen: s.Frozen}
	s.d.Each(func(k, _ any) bool {
		in, _ := o.Has(k)
		if keepInS(in) {
			r.Add(k)
		}
		return true
	})
	if keepInO != nil {
		o.d.Each(func(k, _ any) bool {
			in, _ := s.Has(k)
			if keepInO(in) {
				r.Add(k)
			}
			return true
		})
	}
	return r
}

func always(bool) bool  { return true }
func inside(b bool) bool { return b }
func outside(b bool) bool { return !b }

func (s *Set) Union(o *Set) *Set        { return s.combine(o, always, outside) }
func (s *Set) Intersection(o *Set) *Set { return s.combine(o, inside, nil) }
func (s *Set) Difference(o *Set) *Set   { return s.combine(o, outside, nil) }

func (s *Set) SymmetricDifference(o *Set) *Set {
	return s.combine(o, outside, outside)
}

// DictView is the result of the keys, values and items methods of a dict.
// It reflects later changes to the dict.
type DictView struct {
	Dict *Dict
	Kind DictViewKind
}

// DictViewKind identifies the kind of a [DictView].
type DictViewKind int

// Kinds of dict views.
const (
	DictKeys DictViewKind = iota
	DictValues
	DictItems
)

func (v DictView) typeName() string {
	return [...]string{"dict_keys", "dict_values", "dict_items"}[v.Kind]
}

// Returns the element of a view for one entry.
func (v DictView) elem(k, val any) any {
	switch v.Kind {
	case DictValues:
		return val
	case DictItems:
		return Tuple{k, val}
	default:
		return k
	}
}
