package parse

import (
	"strings"

	"github.com/sandcalc/sandcalc/pkg/diag"
)

// Parses the body of an f-string, src[from:to], into string Constant and
// FormattedValue nodes.
func (ps *parser) fstringParts(from, to int, raw bool) []Expr {
	parts, _ := ps.fstringText(from, to, raw, false)
	return parts
}

// Parses literal text interleaved with replacement fields. In a format spec,
// an unmatched '}' ends the text and its position is returned; there are no
// "{{" or "}}" escapes in format specs.
func (ps *parser) fstringText(pos, end int, raw, spec bool) ([]Expr, int) {
	var parts []Expr
	var text strings.Builder
	textFrom := pos
	flush := func() {
		if text.Len() == 0 {
			return
		}
		s := text.String()
		if !raw {
			decoded, err := decodeEscapes(s, false)
			if err != nil {
				ps.errorf(diag.Ranging{From: textFrom, To: pos}, "%v", err)
			}
			s = decoded
		}
		parts = append(parts, &Constant{exprNode{diag.Ranging{From: textFrom, To: pos}}, s})
		text.Reset()
	}
	for pos < end {
		c := ps.src[pos]
		switch {
		case c == '{' && !spec && pos+1 < end && ps.src[pos+1] == '{':
			text.WriteByte('{')
			pos += 2
		case c == '}' && !spec && pos+1 < end && ps.src[pos+1] == '}':
			text.WriteByte('}')
			pos += 2
		case c == '{':
			flush()
			var fieldParts []Expr
			fieldParts, pos = ps.replacementField(pos, end, raw)
			parts = append(parts, fieldParts...)
			textFrom = pos
		case c == '}':
			if spec {
				flush()
				return parts, pos
			}
			ps.errorf(diag.Ranging{From: pos, To: pos + 1}, "f-string: single '}' is not allowed")
		case c == '\\' && !raw && pos+1 < end:
			text.WriteString(ps.src[pos : pos+2])
			pos += 2
		default:
			text.WriteByte(c)
			pos++
		}
	}
	flush()
	return parts, pos
}

// Parses a replacement field starting at the '{' at pos. It returns the
// FormattedValue, preceded by a Constant for the text of a self-documenting
// field like "{x=}", and the position after the closing '}'.
func (ps *parser) replacementField(pos, end int, raw bool) ([]Expr, int) {
	open := pos
	exprFrom := pos + 1
	exprTo := ps.scanFieldExpr(exprFrom, end)
	if strings.TrimSpace(ps.src[exprFrom:exprTo]) == "" {
		ps.errorf(diag.Ranging{From: open, To: exprTo + 1}, "f-string: valid expression required before '%c'", ps.src[exprTo])
	}
	value := ps.fieldExpr(exprFrom, exprTo)
	pos = exprTo

	var parts []Expr
	debug := false
	if ps.src[pos] == '=' {
		debug = true
		pos++
		for pos < end && (ps.src[pos] == ' ' || ps.src[pos] == '\t') {
			pos++
		}
		parts = append(parts, &Constant{exprNode{diag.Ranging{From: exprFrom, To: pos}}, ps.src[exprFrom:pos]})
	}
	fv := &FormattedValue{Value: value}
	if pos < end && ps.src[pos] == '!' {
		pos++
		if pos >= end || !strings.ContainsRune("rsa", rune(ps.src[pos])) {
			ps.errorf(diag.Ranging{From: pos - 1, To: pos + 1},
				"f-string: invalid conversion character: expected 's', 'r', or 'a'")
		}
		fv.Conversion = rune(ps.src[pos])
		pos++
	}
	if pos < end && ps.src[pos] == ':' {
		pos++
		specFrom := pos
		var specParts []Expr
		specParts, pos = ps.fstringText(pos, end, raw, true)
		fv.FormatSpec = &JoinedStr{exprNode{diag.Ranging{From: specFrom, To: pos}}, specParts}
	}
	if pos >= end || ps.src[pos] != '}' {
		ps.errorf(diag.Ranging{From: open, To: pos}, "f-string: expecting '}'")
	}
	pos++
	if debug && fv.Conversion == 0 && fv.FormatSpec == nil {
		fv.Conversion = 'r'
	}
	fv.Ranging = diag.Ranging{From: open, To: pos}
	return append(parts, fv), pos
}

// Finds the end of the expression part of a replacement field: the first
// '}', ':', '!' (not part of "!=") or '=' (not part of a comparison operator)
// outside brackets and nested strings.
func (ps *parser) scanFieldExpr(pos, end int) int {
	depth := 0
	for pos < end {
		c := ps.src[pos]
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return pos
			}
			depth--
		case '\'', '"':
			prefix := strings.ToLower(precedingPrefix(ps.src, pos))
			lx := &lexer{srcName: ps.srcName, src: ps.src, end: end}
			pos = ps.scanNested(lx, pos, prefix)
			continue
		case ':':
			if depth == 0 {
				return pos
			}
		case '!', '<', '>', '=':
			if pos+1 < end && ps.src[pos+1] == '=' {
				pos += 2
				continue
			}
			if depth == 0 && (c == '!' || c == '=') {
				return pos
			}
		}
		pos++
	}
	ps.errorf(diag.PointRanging(end), "f-string: expecting '}'")
	return end
}

func (ps *parser) scanNested(lx *lexer, pos int, prefix string) (next int) {
	defer func() {
		if r := recover(); r != nil {
			if le, ok := r.(lexError); ok {
				panic(parseError{le.err})
			}
			panic(r)
		}
	}()
	return scanString(lx, pos, strings.ContainsRune(prefix, 'f'), strings.ContainsRune(prefix, 'r'))
}

// Parses the expression part of a replacement field. Like a parenthesized
// expression, it may span lines and may be a bare tuple.
func (ps *parser) fieldExpr(from, to int) Expr {
	toks, err := tokenize(ps.srcName, ps.src, from, to, true)
	if err != nil {
		panic(parseError{err.(*Error)})
	}
	sub := &parser{srcName: ps.srcName, src: ps.src, toks: toks}
	var e Expr
	if sub.isKw("yield") {
		e = sub.yieldExpr()
	} else {
		e = sub.starExpressions()
	}
	if sub.peek().typ != tokEOF {
		sub.invalidSyntax()
	}
	return e
}
