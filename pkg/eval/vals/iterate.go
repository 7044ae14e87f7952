package vals

import (
	"unicode/utf8"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Iterator is a one-shot sequence of values produced on demand, like the
// values returned by map(), zip() and iter().
type Iterator struct {
	name string
	next func() (any, bool, error)
	done bool
}

// NewIterator creates an Iterator. The name is the name of its type, like
// "map". The next function returns the next value, or false when the
// iterator is exhausted.
func NewIterator(name string, next func() (any, bool, error)) *Iterator {
	return &Iterator{name: name, next: next}
}

// Next returns the next value. Once it has reported exhaustion or an error,
// it keeps reporting exhaustion.
func (it *Iterator) Next() (any, bool, error) {
	if it.done {
		return nil, false, nil
	}
	v, ok, err := it.next()
	if !ok || err != nil {
		it.done = true
	}
	return v, ok, err
}

func (it *Iterator) Repr() string {
	return "<" + it.name + " object>"
}

// Iterable is implemented by values defined outside this package that can be
// iterated over.
type Iterable interface {
	Iter() *Iterator
}

// Lener is implemented by values defined outside this package that have a
// length.
type Lener interface {
	Len() int
}

// CanIterate reports whether v can be iterated over.
func CanIterate(v any) bool {
	switch v.(type) {
	case string, Bytes, *List, Tuple, *Dict, *Set, Range, *DecimalRange, DictView, *Iterator, Iterable:
		return true
	}
	return false
}

// Iter returns an iterator over the elements of v.
func Iter(v any) (*Iterator, error) {
	switch v := v.(type) {
	case string:
		i := 0
		return NewIterator("str_ascii_iterator", func() (any, bool, error) {
			if i >= len(v) {
				return nil, false, nil
			}
			_, n := utf8.DecodeRuneInString(v[i:])
			s := v[i : i+n]
			i += n
			return s, true, nil
		}), nil
	case Bytes:
		i := 0
		return NewIterator("bytes_iterator", func() (any, bool, error) {
			if i >= len(v) {
				return nil, false, nil
			}
			i++
			return int(v[i-1]), true, nil
		}), nil
	case *List:
		i := 0
		// The list may change during iteration; every step looks at its
		// current content.
		return NewIterator("list_iterator", func() (any, bool, error) {
			if i >= len(v.Elems) {
				return nil, false, nil
			}
			i++
			return v.Elems[i-1], true, nil
		}), nil
	case Tuple:
		return sliceIterator("tuple_iterator", v), nil
	case *Dict:
		return dictIterator("dict_keyiterator", v, DictView{v, DictKeys}), nil
	case DictView:
		return dictIterator([...]string{"dict_keyiterator", "dict_valueiterator", "dict_itemiterator"}[v.Kind], v.Dict, v), nil
	case *Set:
		return dictIterator("set_iterator", &v.d, DictView{&v.d, DictKeys}), nil
	case Range:
		i, n := 0, v.Len()
		return NewIterator("range_iterator", func() (any, bool, error) {
			if i >= n {
				return nil, false, nil
			}
			i++
			return v.At(i - 1), true, nil
		}), nil
	case *DecimalRange:
		n, err := v.Len()
		if err != nil {
			return nil, err
		}
		i := 0
		return NewIterator("range_iterator", func() (any, bool, error) {
			if i >= n {
				return nil, false, nil
			}
			i++
			d, err := v.At(i - 1)
			return d, err == nil, err
		}), nil
	case *Iterator:
		return v, nil
	case Iterable:
		return v.Iter(), nil
	}
	return nil, errs.Newf(errs.TypeError, "'%s' object is not iterable", TypeName(v))
}

func sliceIterator(name string, elems []any) *Iterator {
	i := 0
	return NewIterator(name, func() (any, bool, error) {
		if i >= len(elems) {
			return nil, false, nil
		}
		i++
		return elems[i-1], true, nil
	})
}

func dictIterator(name string, d *Dict, view DictView) *Iterator {
	i, version := 0, d.version
	return NewIterator(name, func() (any, bool, error) {
		if d.version != version {
			what := "dictionary"
			if name == "set_iterator" {
				what = "Set"
			}
			return nil, false, errs.Newf(errs.RuntimeError, "%s changed size during iteration", what)
		}
		for i < len(d.entries) {
			e := d.entries[i]
			i++
			if !e.deleted {
				return view.elem(e.key, e.value), true, nil
			}
		}
		return nil, false, nil
	})
}

// Iterate calls f with each element of v, stopping at the first error.
func Iterate(v any, f func(elem any) error) error {
	it, err := Iter(v)
	if err != nil {
		return err
	}
	for {
		elem, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := f(elem); err != nil {
			return err
		}
	}
}

// Collect returns the elements of v in a new slice.
func Collect(v any) ([]any, error) {
	switch v := v.(type) {
	case *List:
		return append([]any{}, v.Elems...), nil
	case Tuple:
		return append([]any{}, v...), nil
	}
	var elems []any
	err := Iterate(v, func(elem any) error {
		elems = append(elems, elem)
		return nil
	})
	if elems == nil && err == nil {
		elems = []any{}
	}
	return elems, err
}

// Len returns the length of v, like len().
func Len(v any) (int, error) {
	switch v := v.(type) {
	case string:
		return utf8.RuneCountInString(v), nil
	case Bytes:
		return len(v), nil
	case *List:
		return len(v.Elems), nil
	case Tuple:
		return len(v), nil
	case *Dict:
		return v.Len(), nil
	case *Set:
		return v.Len(), nil
	case DictView:
		return v.Dict.Len(), nil
	case Range:
		return v.Len(), nil
	case *DecimalRange:
		return v.Len()
	case Lener:
		return v.Len(), nil
	}
	return 0, errs.Newf(errs.TypeError, "object of type '%s' has no len()", TypeName(v))
}
