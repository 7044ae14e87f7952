package vals

import (
	"slices"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Implements the index method of sequences.
func seqIndexOf(what string, elems []any, args []any) (any, error) {
	start, stop := 0, len(elems)
	if len(args) > 1 {
		s, e, _, err := Slice{args[1], optArg(args, 2), nil}.Indices(len(elems))
		if err != nil {
			return nil, err
		}
		start, stop = s, e
	}
	for i := start; i < stop; i++ {
		if Is(elems[i], args[0]) || Equal(elems[i], args[0]) {
			return i, nil
		}
	}
	if what == "list" {
		return nil, errs.Newf(errs.ValueError, "%s is not in list", Repr(args[0]))
	}
	return nil, errs.Newf(errs.ValueError, "%s.index(x): x not in %s", what, what)
}

func seqCount(elems []any, v any) int {
	n := 0
	for _, e := range elems {
		if Is(e, v) || Equal(e, v) {
			n++
		}
	}
	return n
}

func tupleAttr(t Tuple, name string) (any, bool) {
	switch name {
	case "count":
		return posMethod(t, name, 1, 1, func(args []any) (any, error) {
			return seqCount(t, args[0]), nil
		}), true
	case "index":
		return posMethod(t, name, 1, 3, func(args []any) (any, error) {
			return seqIndexOf("tuple", t, args)
		}), true
	}
	return nil, false
}

func listAttr(l *List, name string) (any, bool) {
	switch name {
	case "append":
		return posMethod(l, name, 1, 1, func(args []any) (any, error) {
			l.Elems = append(l.Elems, args[0])
			return None, nil
		}), true
	case "extend":
		return posMethod(l, name, 1, 1, func(args []any) (any, error) {
			return None, l.Extend(args[0])
		}), true
	case "insert":
		return posMethod(l, name, 2, 2, func(args []any) (any, error) {
			i, err := ToIndex(args[0])
			if err != nil {
				return nil, err
			}
			n := len(l.Elems)
			if i < 0 {
				i = max(i+n, 0)
			}
			i = min(i, n)
			l.Elems = slices.Insert(l.Elems, i, args[1])
			return None, nil
		}), true
	case "remove":
		return posMethod(l, name, 1, 1, func(args []any) (any, error) {
			for i, e := range l.Elems {
				if Is(e, args[0]) || Equal(e, args[0]) {
					l.Elems = slices.Delete(l.Elems, i, i+1)
					return None, nil
				}
			}
			return nil, errs.New(errs.ValueError, "list.remove(x): x not in list")
		}), true
	case "pop":
		return posMethod(l, name, 0, 1, func(args []any) (any, error) {
			if len(l.Elems) == 0 {
				return nil, errs.New(errs.IndexError, "pop from empty list")
			}
			i := len(l.Elems) - 1
			if len(args) > 0 {
				var err error
				if i, err = ToIndex(args[0]); err != nil {
					return nil, err
				}
				var ok bool
				if i, ok = seqIndex(i, len(l.Elems)); !ok {
					return nil, errs.New(errs.IndexError, "pop index out of range")
				}
			}
			v := l.Elems[i]
			l.Elems = slices.Delete(l.Elems, i, i+1)
			return v, nil
		}), true
	case "clear":
		return posMethod(l, name, 0, 0, func([]any) (any, error) {
			l.Elems = []any{}
			return None, nil
		}), true
	case "copy":
		return posMethod(l, name, 0, 0, func([]any) (any, error) {
			return NewList(slices.Clone(l.Elems)...), nil
		}), true
	case "count":
		return posMethod(l, name, 1, 1, func(args []any) (any, error) {
			return seqCount(l.Elems, args[0]), nil
		}), true
	case "index":
		return posMethod(l, name, 1, 3, func(args []any) (any, error) {
			return seqIndexOf("list", l.Elems, args)
		}), true
	case "reverse":
		return posMethod(l, name, 0, 0, func([]any) (any, error) {
			slices.Reverse(l.Elems)
			return None, nil
		}), true
	case "sort":
		return Method(l, name, func(args []any, kw Kwargs) (any, error) {
			a, err := Bind("sort", args, kw, []string{"*", "key", "reverse"}, 0)
			if err != nil {
				return nil, err
			}
			sorted, err := Sort(l.Elems, a[0], a[1] != nil && Truthy(a[1]))
			if err != nil {
				return nil, err
			}
			l.Elems = sorted
			return None, nil
		}), true
	}
	return nil, false
}

// Extend appends the elements of an iterable.
func (l *List) Extend(iterable any) error {
	elems, err := Collect(iterable)
	if err != nil {
		return err
	}
	l.Elems = append(l.Elems, elems...)
	return nil
}

// Sort returns the elements sorted in ascending order, or descending if
// reverse is true, in a new slice. If key is not nil or None, it is called on
// each element to get the sort key. The sort is stable.
func Sort(elems []any, key any, reverse bool) ([]any, error) {
	keys := elems
	if key != nil && key != None {
		keys = make([]any, len(elems))
		for i, e := range elems {
			k, err := Call(key, []any{e}, nil)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
	}
	idx := make([]int, len(elems))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	less := func(a, b any) bool {
		if sortErr != nil {
			return false
		}
		r, err := Lt(a, b)
		if err != nil {
			sortErr = err
			return false
		}
		return r.(bool)
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		a, b := keys[i], keys[j]
		if reverse {
			a, b = b, a
		}
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		}
		return 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	out := make([]any, len(elems))
	for i, j := range idx {
		out[i] = elems[j]
	}
	return out, nil
}
