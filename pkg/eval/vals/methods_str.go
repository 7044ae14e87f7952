package vals

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

func strArg(fn string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errs.Newf(errs.TypeError, "%s() argument must be str, not %s", fn, TypeName(v))
	}
	return s, nil
}

// Returns the characters to strip, or nil for whitespace.
func stripChars(fn string, args []any) (func(rune) bool, error) {
	if a := optArg(args, 0); a != nil && a != None {
		chars, ok := a.(string)
		if !ok {
			return nil, errs.Newf(errs.TypeError, "%s arg must be None or str", fn)
		}
		return func(r rune) bool { return strings.ContainsRune(chars, r) }, nil
	}
	return unicode.IsSpace, nil
}

func strTransform(s, name string, f func(string) string) *BoundMethod {
	return posMethod(s, name, 0, 0, func([]any) (any, error) { return f(s), nil })
}

func strPredicate(s, name string, f func(rune) bool) *BoundMethod {
	return posMethod(s, name, 0, 0, func([]any) (any, error) {
		if s == "" {
			return false, nil
		}
		for _, r := range s {
			if !f(r) {
				return false, nil
			}
		}
		return true, nil
	})
}

// Resolves the optional start and end arguments of find-like methods to a
// substring, returning it and the rune offset of its start.
func strRange(s string, args []any) (string, int, error) {
	runes := []rune(s)
	sl := Slice{optArg(args, 0), optArg(args, 1), nil}
	start, stop, _, err := sl.Indices(len(runes))
	if err != nil {
		return "", 0, err
	}
	if stop < start {
		return "", start, nil
	}
	return string(runes[start:stop]), start, nil
}

// Finds sub in s, returning the rune index or -1.
func strFind(s string, args []any, last bool) (int, error) {
	sub, err := strArg("find", args[0])
	if err != nil {
		return 0, err
	}
	part, offset, err := strRange(s, args[1:])
	if err != nil {
		return 0, err
	}
	if len([]rune(s)) < offset {
		return -1, nil
	}
	var i int
	if last {
		i = strings.LastIndex(part, sub)
	} else {
		i = strings.Index(part, sub)
	}
	if i < 0 {
		return -1, nil
	}
	return offset + utf8.RuneCountInString(part[:i]), nil
}

func strPad(s, name string, align func(s string, pad int, fill string) string) *BoundMethod {
	return posMethod(s, name, 1, 2, func(args []any) (any, error) {
		width, err := ToIndex(args[0])
		if err != nil {
			return nil, err
		}
		fill := " "
		if len(args) > 1 {
			f, ok := args[1].(string)
			if !ok || utf8.RuneCountInString(f) != 1 {
				return nil, errs.New(errs.TypeError, "The fill character must be exactly one character long")
			}
			fill = f
		}
		n := utf8.RuneCountInString(s)
		if width <= n {
			return s, nil
		}
		return align(s, width-n, fill), nil
	})
}

func strSplit(s, name string, right bool) *BoundMethod {
	return Method(s, name, func(args []any, kw Kwargs) (any, error) {
		a, err := Bind(name, args, kw, []string{"sep", "maxsplit"}, 0)
		if err != nil {
			return nil, err
		}
		maxsplit := -1
		if a[1] != nil {
			if maxsplit, err = ToIndex(a[1]); err != nil {
				return nil, err
			}
		}
		var parts []string
		if a[0] == nil || a[0] == None {
			parts = splitWhitespace(s, maxsplit, right)
		} else {
			sep, err := strArg(name, a[0])
			if err != nil {
				return nil, err
			}
			if sep == "" {
				return nil, errs.New(errs.ValueError, "empty separator")
			}
			switch {
			case maxsplit < 0:
				parts = strings.Split(s, sep)
			case right:
				parts = rsplitN(s, sep, maxsplit)
			default:
				parts = strings.SplitN(s, sep, maxsplit+1)
			}
		}
		elems := make([]any, len(parts))
		for i, p := range parts {
			elems[i] = p
		}
		return &List{elems}, nil
	})
}

func rsplitN(s, sep string, n int) []string {
	var parts []string
	for ; n > 0; n-- {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			break
		}
		parts = append(parts, s[i+len(sep):])
		s = s[:i]
	}
	parts = append(parts, s)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

func splitWhitespace(s string, maxsplit int, right bool) []string {
	if maxsplit < 0 {
		return strings.Fields(s)
	}
	if right {
		fields := strings.Fields(s)
		if len(fields) <= maxsplit+1 {
			return fields
		}
		// Keep the leading fields joined with their original spacing.
		rest := strings.TrimRightFunc(s, unicode.IsSpace)
		tail := make([]string, 0, maxsplit)
		for i := 0; i < maxsplit; i++ {
			j := strings.LastIndexFunc(rest, unicode.IsSpace)
			tail = append(tail, rest[j+1:])
			rest = strings.TrimRightFunc(rest[:j], unicode.IsSpace)
		}
		parts := []string{rest}
		for i := len(tail) - 1; i >= 0; i-- {
			parts = append(parts, tail[i])
		}
		return parts
	}
	var parts []string
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	for ; maxsplit > 0 && rest != ""; maxsplit-- {
		j := strings.IndexFunc(rest, unicode.IsSpace)
		if j < 0 {
			break
		}
		parts = append(parts, rest[:j])
		rest = strings.TrimLeftFunc(rest[j:], unicode.IsSpace)
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func strAffix(s, name string, has func(s, affix string) bool) *BoundMethod {
	return posMethod(s, name, 1, 3, func(args []any) (any, error) {
		part, _, err := strRange(s, args[1:])
		if err != nil {
			return nil, err
		}
		var affixes []any
		switch a := args[0].(type) {
		case string:
			affixes = []any{a}
		case Tuple:
			affixes = a
		default:
			return nil, errs.Newf(errs.TypeError,
				"%s first arg must be str or a tuple of str, not %s", name, TypeName(a))
		}
		for _, a := range affixes {
			affix, err := strArg(name, a)
			if err != nil {
				return nil, err
			}
			if has(part, affix) {
				return true, nil
			}
		}
		return false, nil
	})
}

func titleCase(s string) string {
	var sb strings.Builder
	prevCased := false
	for _, r := range s {
		if prevCased {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(unicode.ToTitle(r))
		}
		prevCased = unicode.IsLetter(r)
	}
	return sb.String()
}

func isTitle(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

func strAttr(s, name string) (any, bool) {
	switch name {
	case "upper":
		return strTransform(s, name, strings.ToUpper), true
	case "lower", "casefold":
		return strTransform(s, name, strings.ToLower), true
	case "title":
		return strTransform(s, name, titleCase), true
	case "capitalize":
		return strTransform(s, name, func(s string) string {
			r, n := utf8.DecodeRuneInString(s)
			if n == 0 {
				return s
			}
			return string(unicode.ToTitle(r)) + strings.ToLower(s[n:])
		}), true
	case "swapcase":
		return strTransform(s, name, func(s string) string {
			return strings.Map(func(r rune) rune {
				if unicode.IsUpper(r) {
					return unicode.ToLower(r)
				}
				return unicode.ToUpper(r)
			}, s)
		}), true
	case "strip", "lstrip", "rstrip":
		return posMethod(s, name, 0, 1, func(args []any) (any, error) {
			f, err := stripChars(name, args)
			if err != nil {
				return nil, err
			}
			switch name {
			case "lstrip":
				return strings.TrimLeftFunc(s, f), nil
			case "rstrip":
				return strings.TrimRightFunc(s, f), nil
			}
			return strings.TrimFunc(s, f), nil
		}), true
	case "split":
		return strSplit(s, name, false), true
	case "rsplit":
		return strSplit(s, name, true), true
	case "splitlines":
		return Method(s, name, func(args []any, kw Kwargs) (any, error) {
			a, err := Bind(name, args, kw, []string{"keepends"}, 0)
			if err != nil {
				return nil, err
			}
			keep := a[0] != nil && Truthy(a[0])
			var lines []any
			rest := s
			for rest != "" {
				i := strings.IndexAny(rest, "\n\r\v\f\x1c\x1d\x1e\u0085  ")
				if i < 0 {
					lines = append(lines, rest)
					break
				}
				_, n := utf8.DecodeRuneInString(rest[i:])
				if rest[i] == '\r' && strings.HasPrefix(rest[i:], "\r\n") {
					n = 2
				}
				if keep {
					lines = append(lines, rest[:i+n])
				} else {
					lines = append(lines, rest[:i])
				}
				rest = rest[i+n:]
			}
			return NewList(lines...), nil
		}), true
	case "join":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			var parts []string
			err := Iterate(args[0], func(e any) error {
				p, ok := e.(string)
				if !ok {
					return errs.Newf(errs.TypeError, "sequence item %d: expected str instance, %s found",
						len(parts), TypeName(e))
				}
				parts = append(parts, p)
				return nil
			})
			if err != nil {
				return nil, err
			}
			return strings.Join(parts, s), nil
		}), true
	case "replace":
		return posMethod(s, name, 2, 3, func(args []any) (any, error) {
			old, err := strArg("replace", args[0])
			if err != nil {
				return nil, err
			}
			repl, err := strArg("replace", args[1])
			if err != nil {
				return nil, err
			}
			n := -1
			if len(args) > 2 {
				if n, err = ToIndex(args[2]); err != nil {
					return nil, err
				}
			}
			return strings.Replace(s, old, repl, n), nil
		}), true
	case "startswith":
		return strAffix(s, name, strings.HasPrefix), true
	case "endswith":
		return strAffix(s, name, strings.HasSuffix), true
	case "find", "rfind", "index", "rindex":
		return posMethod(s, name, 1, 3, func(args []any) (any, error) {
			i, err := strFind(s, args, name[0] == 'r')
			if err != nil {
				return nil, err
			}
			if i < 0 && (name == "index" || name == "rindex") {
				return nil, errs.New(errs.ValueError, "substring not found")
			}
			return i, nil
		}), true
	case "count":
		return posMethod(s, name, 1, 3, func(args []any) (any, error) {
			sub, err := strArg("count", args[0])
			if err != nil {
				return nil, err
			}
			part, _, err := strRange(s, args[1:])
			if err != nil {
				return nil, err
			}
			return strings.Count(part, sub), nil
		}), true
	case "isdigit", "isdecimal", "isnumeric":
		return strPredicate(s, name, unicode.IsDigit), true
	case "isalpha":
		return strPredicate(s, name, unicode.IsLetter), true
	case "isalnum":
		return strPredicate(s, name, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}), true
	case "isspace":
		return strPredicate(s, name, unicode.IsSpace), true
	case "isupper", "islower":
		return posMethod(s, name, 0, 0, func([]any) (any, error) {
			cased := false
			for _, r := range s {
				if unicode.IsUpper(r) || unicode.IsTitle(r) {
					if name == "islower" {
						return false, nil
					}
					cased = true
				} else if unicode.IsLower(r) {
					if name == "isupper" {
						return false, nil
					}
					cased = true
				}
			}
			return cased, nil
		}), true
	case "istitle":
		return posMethod(s, name, 0, 0, func([]any) (any, error) { return isTitle(s), nil }), true
	case "center":
		return strPad(s, name, func(s string, pad int, fill string) string {
			left := pad / 2
			if pad%2 == 1 && utf8.RuneCountInString(s)%2 == 1 {
				left++
			}
			return strings.Repeat(fill, left) + s + strings.Repeat(fill, pad-left)
		}), true
	case "ljust":
		return strPad(s, name, func(s string, pad int, fill string) string {
			return s + strings.Repeat(fill, pad)
		}), true
	case "rjust":
		return strPad(s, name, func(s string, pad int, fill string) string {
			return strings.Repeat(fill, pad) + s
		}), true
	case "zfill":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			width, err := ToIndex(args[0])
			if err != nil {
				return nil, err
			}
			n := utf8.RuneCountInString(s)
			if width <= n {
				return s, nil
			}
			sign := ""
			body := s
			if body != "" && (body[0] == '+' || body[0] == '-') {
				sign, body = body[:1], body[1:]
			}
			return sign + strings.Repeat("0", width-n) + body, nil
		}), true
	case "partition", "rpartition":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			sep, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			if sep == "" {
				return nil, errs.New(errs.ValueError, "empty separator")
			}
			var i int
			if name == "partition" {
				i = strings.Index(s, sep)
				if i < 0 {
					return Tuple{s, "", ""}, nil
				}
			} else {
				i = strings.LastIndex(s, sep)
				if i < 0 {
					return Tuple{"", "", s}, nil
				}
			}
			return Tuple{s[:i], sep, s[i+len(sep):]}, nil
		}), true
	case "removeprefix", "removesuffix":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			affix, err := strArg(name, args[0])
			if err != nil {
				return nil, err
			}
			if name == "removeprefix" {
				return strings.TrimPrefix(s, affix), nil
			}
			return strings.TrimSuffix(s, affix), nil
		}), true
	}
	return nil, false
}
