package eval

import (
	"github.com/sandcalc/sandcalc/pkg/eval/policy"
	"github.com/sandcalc/sandcalc/pkg/mods"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

// Check parses src and finds the policy violations that can be detected
// without running it: rejected constructs, disallowed targets and
// disallowed attributes of modules referred to by their global names.
//
// If src does not parse, the parse error is returned and the slice is nil.
func Check(src parse.Source) ([]*BadSyntax, error) {
	mod, err := parse.Parse(src)
	if err != nil {
		return nil, err
	}
	modules := mods.All()
	var violations []*BadSyntax
	report := func(r parse.Node, msg string) {
		violations = append(violations, newBadSyntax(src, r, msg))
	}
	checkTargets := func(verb string, targets ...parse.Expr) {
		for _, t := range targets {
			if bad, msg := checkTarget(t, verb); bad != nil {
				report(bad, msg)
			}
		}
	}
	parse.Walk(mod, func(n parse.Node) bool {
		if msg, ok := rejectedMessage(n.Kind()); ok {
			report(n, msg)
			return false
		}
		switch n := n.(type) {
		case *parse.Assign:
			checkTargets(assignVerb, n.Targets...)
		case *parse.AugAssign:
			checkTargets(augAssignVerb, n.Target)
		case *parse.Delete:
			checkTargets(deleteVerb, n.Targets...)
		case *parse.For:
			checkTargets(assignVerb, n.Target)
		case *parse.Comprehension:
			if n.Async {
				report(n, "asynchronous comprehensions are not allowed")
			}
			checkTargets(assignVerb, n.Target)
		case *parse.Attribute:
			name, ok := n.Value.(*parse.Name)
			if !ok || !policy.IsModule(name.ID) {
				break
			}
			if ok, msg := policy.CheckAttr(modules[name.ID], n.Attr); !ok {
				report(n, msg)
			}
		}
		return true
	})
	return violations, nil
}
