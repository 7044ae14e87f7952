package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandcalc/sandcalc/pkg/diag"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokNumber
	tokString
	tokOp
)

var tokenTypeNames = [...]string{
	tokEOF: "end of input", tokNewline: "newline", tokIndent: "indent",
	tokDedent: "dedent", tokName: "name", tokNumber: "number",
	tokString: "string", tokOp: "operator",
}

type token struct {
	typ tokenType
	val string
	diag.Ranging
}

func (t token) is(typ tokenType, val string) bool {
	return t.typ == typ && t.val == val
}

func (t token) describe() string {
	switch t.typ {
	case tokName, tokOp:
		return fmt.Sprintf("'%s'", t.val)
	default:
		return tokenTypeNames[t.typ]
	}
}

// Operators, longest first within each group so that the first match wins.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"!=", "%=", "&=", "**", "*=", "+=", "-=", "->", "//", "/=", ":=", "<<",
	"<=", "==", ">=", ">>", "@=", "^=", "|=",
	"!", "%", "&", "(", ")", "*", "+", ",", "-", ".", "/", ":", ";", "<",
	"=", ">", "@", "[", "]", "^", "{", "|", "}", "~",
}

var closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// lexer turns source text into tokens. Indentation is tracked with a stack of
// column widths as in the reference tokenizer; newlines inside brackets are
// not significant.
type lexer struct {
	srcName string
	src     string
	pos     int
	end     int

	tokens  []token
	indents []int
	parens  []int
	// Set when lexing a replacement field of an f-string. Such a field is
	// tokenized as if surrounded by parentheses.
	field bool
}

func tokenize(srcName, src string, from, to int, field bool) ([]token, error) {
	lx := &lexer{srcName: srcName, src: src, pos: from, end: to,
		indents: []int{0}, field: field}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.tokens, nil
}

type lexError struct{ err *Error }

func (lx *lexer) fail(r diag.Ranger, format string, args ...any) {
	rg := r.Range()
	panic(lexError{&Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(lx.srcName, lx.src, rg),
		Partial: rg.From == len(lx.src),
	}})
}

func (lx *lexer) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if le, ok := r.(lexError); ok {
				err = le.err
				return
			}
			panic(r)
		}
	}()
	atLineStart := !lx.field
	for {
		if atLineStart {
			if !lx.indentation() {
				break
			}
			atLineStart = false
		}
		lx.skipSpace()
		if lx.pos >= lx.end {
			break
		}
		c := lx.src[lx.pos]
		switch {
		case c == '\n' || c == '\r':
			lx.newline()
			if len(lx.parens) == 0 && !lx.field {
				lx.emit(tokNewline, lx.pos-1, lx.pos)
				atLineStart = true
			}
		case c == '#':
			if lx.field {
				lx.fail(diag.PointRanging(lx.pos), "f-string expression part cannot include '#'")
			}
			for lx.pos < lx.end && lx.src[lx.pos] != '\n' && lx.src[lx.pos] != '\r' {
				lx.pos++
			}
		case isDigit(c) || (c == '.' && lx.pos+1 < lx.end && isDigit(lx.src[lx.pos+1])):
			lx.number()
		case c == '"' || c == '\'':
			lx.string(lx.pos)
		default:
			r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
			if isIdentStart(r) {
				lx.name()
			} else {
				lx.operator()
			}
		}
	}
	lx.finish()
	return nil
}

// Handles the indentation at the start of a logical line. Blank lines and
// lines containing only a comment are skipped. Returns false at the end of
// input.
func (lx *lexer) indentation() bool {
	for {
		col := 0
		start := lx.pos
	measure:
		for lx.pos < lx.end {
			switch lx.src[lx.pos] {
			case ' ':
				col++
			case '\t':
				col = (col/8 + 1) * 8
			case '\f':
				col = 0
			default:
				break measure
			}
			lx.pos++
		}
		if lx.pos >= lx.end {
			return false
		}
		switch lx.src[lx.pos] {
		case '#':
			for lx.pos < lx.end && lx.src[lx.pos] != '\n' && lx.src[lx.pos] != '\r' {
				lx.pos++
			}
			if lx.pos >= lx.end {
				return false
			}
			lx.newline()
			continue
		case '\n', '\r':
			lx.newline()
			continue
		case '\\':
			if lx.continuation() {
				continue
			}
		}
		top := lx.indents[len(lx.indents)-1]
		switch {
		case col > top:
			lx.indents = append(lx.indents, col)
			lx.emit(tokIndent, start, lx.pos)
		case col < top:
			for col < lx.indents[len(lx.indents)-1] {
				lx.indents = lx.indents[:len(lx.indents)-1]
				lx.emit(tokDedent, lx.pos, lx.pos)
			}
			if col != lx.indents[len(lx.indents)-1] {
				lx.fail(diag.Ranging{From: start, To: lx.pos},
					"unindent does not match any outer indentation level")
			}
		}
		return true
	}
}

func (lx *lexer) newline() {
	if lx.src[lx.pos] == '\r' && lx.pos+1 < lx.end && lx.src[lx.pos+1] == '\n' {
		lx.pos++
	}
	lx.pos++
}

// Consumes a backslash followed by a newline, and reports whether it did.
func (lx *lexer) continuation() bool {
	if lx.pos+1 >= lx.end {
		lx.fail(diag.PointRanging(lx.end), "unexpected EOF while parsing")
	}
	if c := lx.src[lx.pos+1]; c == '\n' || c == '\r' {
		lx.pos++
		lx.newline()
		return true
	}
	return false
}

func (lx *lexer) skipSpace() {
	for lx.pos < lx.end {
		switch lx.src[lx.pos] {
		case ' ', '\t', '\f':
			lx.pos++
		case '\\':
			if !lx.continuation() {
				lx.fail(diag.Ranging{From: lx.pos, To: lx.pos + 1},
					"unexpected character after line continuation character")
			}
		default:
			return
		}
	}
}

func (lx *lexer) emit(typ tokenType, from, to int) {
	lx.tokens = append(lx.tokens, token{typ, lx.src[from:to], diag.Ranging{From: from, To: to}})
}

func (lx *lexer) finish() {
	if len(lx.parens) > 0 && !lx.field {
		open := lx.parens[len(lx.parens)-1]
		lx.fail(diag.PointRanging(len(lx.src)), "'%c' was never closed", lx.src[open])
	}
	if n := len(lx.tokens); n > 0 && !lx.field {
		last := lx.tokens[n-1].typ
		if last != tokNewline && last != tokDedent && last != tokIndent {
			lx.emit(tokNewline, lx.end, lx.end)
		}
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(tokDedent, lx.end, lx.end)
	}
	lx.emit(tokEOF, lx.end, lx.end)
}

func (lx *lexer) name() {
	start := lx.pos
	for lx.pos < lx.end {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !isIdentContinue(r) {
			break
		}
		lx.pos += size
	}
	if lx.pos < lx.end && (lx.src[lx.pos] == '"' || lx.src[lx.pos] == '\'') &&
		isStringPrefix(lx.src[start:lx.pos]) {
		lx.string(start)
		return
	}
	lx.emit(tokName, start, lx.pos)
}

func (lx *lexer) operator() {
	for _, op := range operators {
		if !strings.HasPrefix(lx.src[lx.pos:lx.end], op) {
			continue
		}
		start := lx.pos
		lx.pos += len(op)
		switch op {
		case "(", "[", "{":
			lx.parens = append(lx.parens, start)
		case ")", "]", "}":
			if len(lx.parens) == 0 {
				lx.fail(diag.Ranging{From: start, To: lx.pos}, "unmatched '%s'", op)
			}
			open := lx.parens[len(lx.parens)-1]
			if closers[lx.src[open]] != op[0] {
				lx.fail(diag.Ranging{From: start, To: lx.pos},
					"closing parenthesis '%s' does not match opening parenthesis '%c'",
					op, lx.src[open])
			}
			lx.parens = lx.parens[:len(lx.parens)-1]
		}
		lx.emit(tokOp, start, lx.pos)
		return
	}
	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.fail(diag.Ranging{From: lx.pos, To: lx.pos + size}, "invalid character '%c' (U+%04X)", r, r)
}

func (lx *lexer) number() {
	start := lx.pos
	digitsOf := func(ok func(byte) bool) {
		for lx.pos < lx.end {
			c := lx.src[lx.pos]
			if c == '_' && lx.pos+1 < lx.end && ok(lx.src[lx.pos+1]) {
				lx.pos += 2
			} else if ok(c) {
				lx.pos++
			} else {
				return
			}
		}
	}
	if lx.src[lx.pos] == '0' && lx.pos+1 < lx.end && strings.ContainsRune("xXoObB", rune(lx.src[lx.pos+1])) {
		var ok func(byte) bool
		var name string
		switch lx.src[lx.pos+1] | 0x20 {
		case 'x':
			ok, name = isHexDigit, "hexadecimal"
		case 'o':
			ok, name = func(c byte) bool { return '0' <= c && c <= '7' }, "octal"
		default:
			ok, name = func(c byte) bool { return c == '0' || c == '1' }, "binary"
		}
		lx.pos += 2
		if lx.pos < lx.end && lx.src[lx.pos] == '_' {
			lx.pos++
		}
		digitStart := lx.pos
		digitsOf(ok)
		if lx.pos == digitStart || (lx.pos < lx.end && (isDigit(lx.src[lx.pos]) || isIdentByte(lx.src[lx.pos]))) {
			lx.fail(diag.Ranging{From: start, To: lx.pos}, "invalid %s literal", name)
		}
		lx.emit(tokNumber, start, lx.pos)
		return
	}
	digitsOf(isDigit)
	isInt := true
	if lx.pos < lx.end && lx.src[lx.pos] == '.' {
		isInt = false
		lx.pos++
		digitsOf(isDigit)
	}
	if lx.pos < lx.end && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		save := lx.pos
		lx.pos++
		if lx.pos < lx.end && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		if lx.pos < lx.end && isDigit(lx.src[lx.pos]) {
			isInt = false
			digitsOf(isDigit)
		} else {
			lx.pos = save
		}
	}
	if lx.pos < lx.end && (lx.src[lx.pos] == 'j' || lx.src[lx.pos] == 'J') {
		isInt = false
		lx.pos++
	}
	if lx.pos < lx.end && (lx.src[lx.pos] == '_' || isIdentByte(lx.src[lx.pos])) &&
		!startsKeyword(lx.src[lx.pos:lx.end]) {
		lx.fail(diag.Ranging{From: start, To: lx.pos + 1}, "invalid decimal literal")
	}
	if text := lx.src[start:lx.pos]; isInt && len(text) > 1 && text[0] == '0' &&
		strings.Trim(text, "0_") != "" {
		lx.fail(diag.Ranging{From: start, To: lx.pos},
			"leading zeros in decimal integer literals are not permitted; use an 0o prefix for octal integers")
	}
	lx.emit(tokNumber, start, lx.pos)
}

// Keywords that may directly follow a number, as in "1if x else 2".
func startsKeyword(s string) bool {
	for _, kw := range []string{"and", "else", "for", "if", "in", "is", "not", "or"} {
		if strings.HasPrefix(s, kw) {
			return true
		}
	}
	return false
}

// Scans a string literal whose prefix starts at start. The quote is at lx.pos.
func (lx *lexer) string(start int) {
	prefix := strings.ToLower(lx.src[start:lx.pos])
	end := scanString(lx, lx.pos, strings.ContainsRune(prefix, 'f'), strings.ContainsRune(prefix, 'r'))
	lx.pos = end
	lx.emit(tokString, start, end)
}

// Scans a string literal body starting at the opening quote at pos, and
// returns the position after the closing quote. F-strings are scanned with
// awareness of replacement fields, which may contain strings of their own.
func scanString(lx *lexer, pos int, fstring, raw bool) int {
	quote := lx.src[pos : pos+1]
	if strings.HasPrefix(lx.src[pos:lx.end], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	triple := len(quote) == 3
	open := pos
	pos += len(quote)

	unterminated := func() {
		if triple {
			lx.fail(diag.PointRanging(len(lx.src)),
				"unterminated triple-quoted string literal (detected at line %d)", lineOf(lx.src, lx.end))
		}
		lx.fail(diag.Ranging{From: open, To: pos},
			"unterminated string literal (detected at line %d)", lineOf(lx.src, open))
	}

	// Nesting of replacement fields. Each entry records whether the field
	// is currently in its format spec, and the bracket depth within the
	// expression part.
	type field struct {
		spec     bool
		brackets int
	}
	var fields []field

	for {
		if pos >= lx.end {
			unterminated()
		}
		c := lx.src[pos]
		if len(fields) == 0 || fields[len(fields)-1].spec {
			// Literal text, either at the top level or in a format spec.
			switch {
			case strings.HasPrefix(lx.src[pos:lx.end], quote):
				if len(fields) > 0 {
					lx.fail(diag.Ranging{From: pos, To: pos + 1}, "f-string: expecting '}'")
				}
				return pos + len(quote)
			case c == '\\':
				pos += 2
				if pos > lx.end {
					unterminated()
				}
				continue
			case (c == '\n' || c == '\r') && !triple:
				unterminated()
			case fstring && c == '{':
				if len(fields) == 0 && pos+1 < lx.end && lx.src[pos+1] == '{' {
					pos += 2
					continue
				}
				fields = append(fields, field{})
			case fstring && c == '}':
				if len(fields) > 0 {
					fields = fields[:len(fields)-1]
				} else if pos+1 < lx.end && lx.src[pos+1] == '}' {
					pos += 2
					continue
				} else {
					lx.fail(diag.Ranging{From: pos, To: pos + 1}, "f-string: single '}' is not allowed")
				}
			}
			pos++
			continue
		}
		// Expression part of a replacement field.
		f := &fields[len(fields)-1]
		switch c {
		case '(', '[', '{':
			f.brackets++
		case ')', ']':
			f.brackets--
		case '}':
			if f.brackets == 0 {
				fields = fields[:len(fields)-1]
			} else {
				f.brackets--
			}
		case ':':
			if f.brackets == 0 && !(pos+1 < lx.end && lx.src[pos+1] == '=') {
				f.spec = true
			}
		case '\'', '"':
			nested := strings.ToLower(precedingPrefix(lx.src, pos))
			pos = scanString(lx, pos, strings.ContainsRune(nested, 'f'), strings.ContainsRune(nested, 'r'))
			continue
		case '\n', '\r':
			if !triple {
				unterminated()
			}
		}
		pos++
	}
}

// Returns the string prefix immediately before a quote at pos.
func precedingPrefix(src string, pos int) string {
	i := pos
	for i > 0 && strings.ContainsRune("rRbBfFuU", rune(src[i-1])) {
		i--
	}
	if i > 0 && isIdentByte(src[i-1]) {
		return ""
	}
	if p := src[i:pos]; isStringPrefix(p) {
		return p
	}
	return ""
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "br", "rb", "f", "fr", "rf":
		return true
	}
	return false
}

func lineOf(src string, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	return strings.Count(src[:pos], "\n") + 1
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
