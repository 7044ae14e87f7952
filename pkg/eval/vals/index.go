package vals

import (
	"unicode/utf8"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Indexer is implemented by values defined outside this package that support
// subscripting.
type Indexer interface {
	Index(idx any) (any, error)
}

// Normalizes an index into a sequence of length n, handling negative
// indices. The bool result is false if the index is out of range.
func seqIndex(idx, n int) (int, bool) {
	if idx < 0 {
		idx += n
	}
	return idx, 0 <= idx && idx < n
}

func indexTypeError(what string, idx any) error {
	return errs.Newf(errs.TypeError, "%s indices must be integers or slices, not %s", what, TypeName(idx))
}

func outOfRange(what string) error {
	return errs.Newf(errs.IndexError, "%s index out of range", what)
}

// Index implements subscripting, like v[idx].
func Index(v, idx any) (any, error) {
	switch v := v.(type) {
	case string:
		return indexString(v, idx)
	case Bytes:
		if s, ok := idx.(Slice); ok {
			b, err := sliceSeq([]byte(v), s)
			return Bytes(b), err
		}
		i, ok, err := indexOf(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.Newf(errs.TypeError, "byte indices must be integers or slices, not %s", TypeName(idx))
		}
		if i, ok = seqIndex(i, len(v)); !ok {
			return nil, outOfRange("index")
		}
		return int(v[i]), nil
	case *List:
		if s, ok := idx.(Slice); ok {
			elems, err := sliceSeq(v.Elems, s)
			return &List{elems}, err
		}
		return indexSeq("list", v.Elems, idx)
	case Tuple:
		if s, ok := idx.(Slice); ok {
			elems, err := sliceSeq(v, s)
			return Tuple(elems), err
		}
		return indexSeq("tuple", v, idx)
	case *Dict:
		val, ok, err := v.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, KeyError(idx)
		}
		return val, nil
	case Range:
		if s, ok := idx.(Slice); ok {
			return v.Slice(s)
		}
		i, ok, err := indexOf(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, indexTypeError("range", idx)
		}
		if i, ok = seqIndex(i, v.Len()); !ok {
			return nil, errs.New(errs.IndexError, "range object index out of range")
		}
		return v.At(i), nil
	case *DecimalRange:
		i, ok, err := indexOf(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, indexTypeError("range", idx)
		}
		n, err := v.Len()
		if err != nil {
			return nil, err
		}
		if i, ok = seqIndex(i, n); !ok {
			return nil, errs.New(errs.IndexError, "range object index out of range")
		}
		return v.At(i)
	case *Type:
		return nil, errs.Newf(errs.TypeError, "type '%s' is not subscriptable", v.QualName())
	case Indexer:
		return v.Index(idx)
	}
	return nil, errs.Newf(errs.TypeError, "'%s' object is not subscriptable", TypeName(v))
}

func indexSeq(what string, elems []any, idx any) (any, error) {
	i, ok, err := indexOf(idx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, indexTypeError(what, idx)
	}
	if i, ok = seqIndex(i, len(elems)); !ok {
		return nil, outOfRange(what)
	}
	return elems[i], nil
}

func indexString(s string, idx any) (any, error) {
	ascii := utf8.RuneCountInString(s) == len(s)
	if sl, ok := idx.(Slice); ok {
		if ascii {
			b, err := sliceSeq([]byte(s), sl)
			return string(b), err
		}
		r, err := sliceSeq([]rune(s), sl)
		return string(r), err
	}
	i, ok, err := indexOf(idx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.TypeError, "string indices must be integers, not '%s'", TypeName(idx))
	}
	if ascii {
		if i, ok = seqIndex(i, len(s)); !ok {
			return nil, outOfRange("string")
		}
		return s[i : i+1], nil
	}
	runes := []rune(s)
	if i, ok = seqIndex(i, len(runes)); !ok {
		return nil, outOfRange("string")
	}
	return string(runes[i]), nil
}

// Returns the elements selected by a slice, in a new slice.
func sliceSeq[T any](elems []T, s Slice) ([]T, error) {
	start, stop, step, err := s.Indices(len(elems))
	if err != nil {
		return nil, err
	}
	n := SliceLen(start, stop, step)
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, elems[start+i*step])
	}
	return out, nil
}

// SetIndex implements item assignment, like v[idx] = val.
func SetIndex(v, idx, val any) error {
	switch v := v.(type) {
	case *List:
		if s, ok := idx.(Slice); ok {
			return v.setSlice(s, val)
		}
		i, ok, err := indexOf(idx)
		if err != nil {
			return err
		}
		if !ok {
			return indexTypeError("list", idx)
		}
		if i, ok = seqIndex(i, len(v.Elems)); !ok {
			return errs.New(errs.IndexError, "list assignment index out of range")
		}
		v.Elems[i] = val
		return nil
	case *Dict:
		return v.Set(idx, val)
	}
	return errs.Newf(errs.TypeError, "'%s' object does not support item assignment", TypeName(v))
}

func (l *List) setSlice(s Slice, val any) error {
	repl, err := Collect(val)
	if err != nil {
		return errs.New(errs.TypeError, "must assign iterable to extended slice")
	}
	start, stop, step, err := s.Indices(len(l.Elems))
	if err != nil {
		return err
	}
	if step == 1 {
		if stop < start {
			stop = start
		}
		elems := make([]any, 0, len(l.Elems)-(stop-start)+len(repl))
		elems = append(elems, l.Elems[:start]...)
		elems = append(elems, repl...)
		l.Elems = append(elems, l.Elems[stop:]...)
		return nil
	}
	n := SliceLen(start, stop, step)
	if n != len(repl) {
		return errs.Newf(errs.ValueError, "attempt to assign sequence of size %d to extended slice of size %d",
			len(repl), n)
	}
	for i, e := range repl {
		l.Elems[start+i*step] = e
	}
	return nil
}

// DelIndex implements item deletion, like del v[idx].
func DelIndex(v, idx any) error {
	switch v := v.(type) {
	case *List:
		if s, ok := idx.(Slice); ok {
			return v.delSlice(s)
		}
		i, ok, err := indexOf(idx)
		if err != nil {
			return err
		}
		if !ok {
			return indexTypeError("list", idx)
		}
		if i, ok = seqIndex(i, len(v.Elems)); !ok {
			return errs.New(errs.IndexError, "list assignment index out of range")
		}
		v.Elems = append(v.Elems[:i:i], v.Elems[i+1:]...)
		return nil
	case *Dict:
		ok, err := v.Delete(idx)
		if err != nil {
			return err
		}
		if !ok {
			return KeyError(idx)
		}
		return nil
	}
	return errs.Newf(errs.TypeError, "'%s' object doesn't support item deletion", TypeName(v))
}

func (l *List) delSlice(s Slice) error {
	start, stop, step, err := s.Indices(len(l.Elems))
	if err != nil {
		return err
	}
	n := SliceLen(start, stop, step)
	drop := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		drop[start+i*step] = true
	}
	elems := make([]any, 0, len(l.Elems)-n)
	for i, e := range l.Elems {
		if !drop[i] {
			elems = append(elems, e)
		}
	}
	l.Elems = elems
	return nil
}
