package parse

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Dump returns a one-line description of the tree rooted at n, with each
// node written as "Type(Field=value, ...)". Fields with zero values are
// omitted. It is used in tests and for debugging.
func Dump(n any) string {
	var sb strings.Builder
	dump(&sb, reflect.ValueOf(n))
	return sb.String()
}

var kindType = reflect.TypeOf(Kind(0))

func dump(sb *strings.Builder, v reflect.Value) {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			sb.WriteString("nil")
			return
		}
		dump(sb, v.Elem())
		return
	case reflect.Pointer:
		if v.IsNil() {
			sb.WriteString("nil")
			return
		}
		if s, ok := v.Interface().(fmt.Stringer); ok {
			sb.WriteString(s.String())
			return
		}
		dump(sb, v.Elem())
		return
	case reflect.Struct:
		t := v.Type()
		if t.NumField() == 0 {
			sb.WriteString(fmt.Sprint(v.Interface()))
			return
		}
		name := t.Name()
		if name == "ExprStmt" {
			name = "Expr"
		}
		sb.WriteString(name)
		sb.WriteByte('(')
		first := true
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous || !f.IsExported() || v.Field(i).IsZero() {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(f.Name)
			sb.WriteByte('=')
			dump(sb, v.Field(i))
		}
		sb.WriteByte(')')
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			sb.WriteString("b" + strconv.Quote(string(v.Bytes())))
			return
		}
		sb.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			dump(sb, v.Index(i))
		}
		sb.WriteByte(']')
	case reflect.String:
		sb.WriteString(strconv.Quote(v.String()))
	case reflect.Int32:
		if r := rune(v.Int()); r != 0 {
			sb.WriteString(strconv.QuoteRune(r))
		}
	default:
		if v.Type() == kindType {
			sb.WriteString(Kind(v.Int()).String())
			return
		}
		fmt.Fprint(sb, v.Interface())
	}
}
