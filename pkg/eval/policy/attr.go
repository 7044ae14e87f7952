package policy

import (
	"fmt"

	"github.com/sandcalc/sandcalc/pkg/eval/vals"
)

// CheckAttr decides whether sandboxed code may read the attribute name of v.
// When it may not, the returned message names the violated rule.
//
// A value that is a known module is checked against Modules. A class may read
// what its Classes entry lists as well as what the "type" entry of Instances
// lists. Everything else is checked against the Instances entry of its
// runtime type; a type without an entry exposes no attributes at all.
func CheckAttr(v any, name string) (bool, string) {
	if m, ok := v.(*vals.Module); ok {
		if allowed, ok := Modules[m.Name]; ok {
			if allowed[name] {
				return true, ""
			}
			return false, fmt.Sprintf("access to attribute '%s' of module '%s' is not allowed", name, m.Name)
		}
	}
	if t, ok := v.(*vals.Type); ok {
		if allowed, ok := Classes[t.QualName()]; ok {
			if allowed[name] || Instances["type"][name] {
				return true, ""
			}
			return false, fmt.Sprintf("access to attribute '%s' of class '%s' is not allowed", name, t.QualName())
		}
	}
	typeName := vals.TypeOf(v).QualName()
	allowed, ok := Instances[typeName]
	if !ok {
		return false, fmt.Sprintf("no attributes of '%s' objects are accessible", typeName)
	}
	if !allowed[name] {
		return false, fmt.Sprintf("access to attribute '%s' of '%s' objects is not allowed", name, typeName)
	}
	return true, ""
}

// IsModule reports whether name is a module reachable from sandboxed code.
func IsModule(name string) bool {
	_, ok := Modules[name]
	return ok
}
