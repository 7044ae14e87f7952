package vals

import (
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// UpdateDict implements dict.update and the dict constructor: the positional
// argument is a dict or an iterable of pairs, followed by keyword arguments.
func UpdateDict(d *Dict, fn string, args []any, kw Kwargs) error {
	if len(args) > 1 {
		return errs.Newf(errs.TypeError, "%s expected at most 1 argument, got %d", fn, len(args))
	}
	if len(args) == 1 {
		if src, ok := args[0].(*Dict); ok {
			var err error
			src.Each(func(k, v any) bool {
				err = d.Set(k, v)
				return err == nil
			})
			if err != nil {
				return err
			}
		} else {
			i := 0
			err := Iterate(args[0], func(e any) error {
				pair, err := Collect(e)
				if err != nil {
					return errs.Newf(errs.TypeError,
						"cannot convert dictionary update sequence element #%d to a sequence", i)
				}
				if len(pair) != 2 {
					return errs.Newf(errs.ValueError,
						"dictionary update sequence element #%d has length %d; 2 is required", i, len(pair))
				}
				i++
				return d.Set(pair[0], pair[1])
			})
			if err != nil {
				return err
			}
		}
	}
	for _, a := range kw {
		if err := d.Set(a.Name, a.Value); err != nil {
			return err
		}
	}
	return nil
}

func dictAttr(d *Dict, name string) (any, bool) {
	switch name {
	case "keys", "values", "items":
		kind := map[string]DictViewKind{"keys": DictKeys, "values": DictValues, "items": DictItems}[name]
		return posMethod(d, name, 0, 0, func([]any) (any, error) {
			return DictView{d, kind}, nil
		}), true
	case "get":
		return posMethod(d, name, 1, 2, func(args []any) (any, error) {
			v, ok, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				if len(args) > 1 {
					return args[1], nil
				}
				return None, nil
			}
			return v, nil
		}), true
	case "pop":
		return posMethod(d, name, 1, 2, func(args []any) (any, error) {
			v, ok, err := d.Pop(args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				if len(args) > 1 {
					return args[1], nil
				}
				return nil, KeyError(args[0])
			}
			return v, nil
		}), true
	case "popitem":
		return posMethod(d, name, 0, 0, func([]any) (any, error) {
			keys := d.Keys()
			if len(keys) == 0 {
				return nil, errs.New(errs.KeyError, "'popitem(): dictionary is empty'")
			}
			k := keys[len(keys)-1]
			v, _, err := d.Pop(k)
			if err != nil {
				return nil, err
			}
			return Tuple{k, v}, nil
		}), true
	case "setdefault":
		return posMethod(d, name, 1, 2, func(args []any) (any, error) {
			v, ok, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				return v, nil
			}
			def := optArg(args, 1)
			if def == nil {
				def = None
			}
			return def, d.Set(args[0], def)
		}), true
	case "update":
		return Method(d, name, func(args []any, kw Kwargs) (any, error) {
			return None, UpdateDict(d, "update", args, kw)
		}), true
	case "clear":
		return posMethod(d, name, 0, 0, func([]any) (any, error) {
			d.Clear()
			return None, nil
		}), true
	case "copy":
		return posMethod(d, name, 0, 0, func([]any) (any, error) {
			return d.Copy(), nil
		}), true
	}
	return nil, false
}

// Implements dict.fromkeys.
func dictFromKeys(args []any, kw Kwargs) (any, error) {
	if err := CheckArity("fromkeys", args, kw, 1, 2); err != nil {
		return nil, err
	}
	value := optArg(args, 1)
	if value == nil {
		value = None
	}
	d := NewDict()
	err := Iterate(args[0], func(k any) error { return d.Set(k, value) })
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Converts an argument of a set method to a set.
func setOf(v any) (*Set, error) {
	if s, ok := v.(*Set); ok {
		return s, nil
	}
	elems, err := Collect(v)
	if err != nil {
		return nil, err
	}
	return NewSet(elems...)
}

// Creates a method that folds any number of iterables into s with op.
func setFold(s *Set, name string, op func(a, b *Set) *Set) *BoundMethod {
	return posMethod(s, name, 0, -1, func(args []any) (any, error) {
		r := s.Copy()
		for _, a := range args {
			o, err := setOf(a)
			if err != nil {
				return nil, err
			}
			r = op(r, o)
		}
		return r, nil
	})
}

// Like setFold, but updates s in place.
func setUpdate(s *Set, name string, op func(a, b *Set) *Set) *BoundMethod {
	return posMethod(s, name, 0, -1, func(args []any) (any, error) {
		r := s
		for _, a := range args {
			o, err := setOf(a)
			if err != nil {
				return nil, err
			}
			r = op(r, o)
		}
		if r != s {
			version := s.d.version
			s.d = r.d
			s.d.version = version + 1
		}
		return None, nil
	})
}

func setPredicate(s *Set, name string, f func(a, b *Set) bool) *BoundMethod {
	return posMethod(s, name, 1, 1, func(args []any) (any, error) {
		o, err := setOf(args[0])
		if err != nil {
			return nil, err
		}
		return f(s, o), nil
	})
}

func setAttr(s *Set, name string) (any, bool) {
	switch name {
	case "union":
		return setFold(s, name, (*Set).Union), true
	case "intersection":
		return setFold(s, name, (*Set).Intersection), true
	case "difference":
		return setFold(s, name, (*Set).Difference), true
	case "symmetric_difference":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			o, err := setOf(args[0])
			if err != nil {
				return nil, err
			}
			return s.SymmetricDifference(o), nil
		}), true
	case "issubset":
		return setPredicate(s, name, (*Set).IsSubset), true
	case "issuperset":
		return setPredicate(s, name, func(a, b *Set) bool { return b.IsSubset(a) }), true
	case "isdisjoint":
		return setPredicate(s, name, func(a, b *Set) bool { return a.Intersection(b).Len() == 0 }), true
	case "copy":
		return posMethod(s, name, 0, 0, func([]any) (any, error) { return s.Copy(), nil }), true
	}
	if s.Frozen {
		return nil, false
	}
	switch name {
	case "add":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			return None, s.Add(args[0])
		}), true
	case "discard", "remove":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			ok, err := s.Remove(args[0])
			if err != nil {
				return nil, err
			}
			if !ok && name == "remove" {
				return nil, KeyError(args[0])
			}
			return None, nil
		}), true
	case "pop":
		return posMethod(s, name, 0, 0, func([]any) (any, error) {
			elems := s.Elems()
			if len(elems) == 0 {
				return nil, errs.New(errs.KeyError, "'pop from an empty set'")
			}
			_, err := s.Remove(elems[0])
			return elems[0], err
		}), true
	case "clear":
		return posMethod(s, name, 0, 0, func([]any) (any, error) {
			s.Clear()
			return None, nil
		}), true
	case "update":
		return setUpdate(s, name, (*Set).Union), true
	case "intersection_update":
		return setUpdate(s, name, (*Set).Intersection), true
	case "difference_update":
		return setUpdate(s, name, (*Set).Difference), true
	case "symmetric_difference_update":
		return setUpdate(s, name, (*Set).SymmetricDifference), true
	}
	return nil, false
}
