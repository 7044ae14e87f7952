// Sandcalc is a calculator for a restricted subset of Python expressions and
// statements. Every calculation runs in a worker process with a deadline and
// a memory limit. It features a REPL with history and saved sessions, a
// script mode and a language server.
package main

import (
	"os"

	"github.com/sandcalc/sandcalc/pkg/buildinfo"
	"github.com/sandcalc/sandcalc/pkg/lsp"
	"github.com/sandcalc/sandcalc/pkg/prog"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
	"github.com/sandcalc/sandcalc/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &sandbox.Program{}, &lsp.Program{},
			&shell.Program{})))
}
