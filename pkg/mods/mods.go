// Package mods collects the modules visible to sandboxed code.
package mods

import (
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/mods/datetime"
	"github.com/sandcalc/sandcalc/pkg/mods/math"
	"github.com/sandcalc/sandcalc/pkg/mods/random"
	"github.com/sandcalc/sandcalc/pkg/mods/statistics"
)

// All returns all modules, keyed by name.
func All() map[string]*vals.Module {
	return map[string]*vals.Module{
		"math":       math.Module,
		"statistics": statistics.Module,
		"datetime":   datetime.Module,
		"random":     random.Module,
	}
}
