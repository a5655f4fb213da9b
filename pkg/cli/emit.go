package cli

import (
	"os"
	"strings"

	"github.com/funvibe/nodevm/internal/builtins"
	"github.com/funvibe/nodevm/internal/codegen"
	"github.com/funvibe/nodevm/internal/config"
	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/ir"
)

// EmitCommand renders built-in codegen bodies as Go source.
type EmitCommand struct {
	Meta
}

func (c *EmitCommand) Run(args []string) int {
	var pkg, out string
	f := c.flagSet("emit")
	f.StringVar(&pkg, "package", config.DefaultEmitPackage, "package name")
	f.StringVar(&out, "o", "", "output file")
	if err := f.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	var fns []*function.Function
	if f.NArg() == 0 {
		for _, fn := range builtins.Functions() {
			if fn.HasBody(function.Codegen) {
				fns = append(fns, fn)
			}
		}
	} else {
		for _, name := range f.Args() {
			fn, err := builtins.Lookup(name)
			if err != nil {
				c.Ui.Error(err.Error())
				return 1
			}
			fns = append(fns, fn)
		}
	}

	lowered := make([]*ir.Func, 0, len(fns))
	for _, fn := range fns {
		l, err := codegen.Lower(fn)
		if err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
		lowered = append(lowered, l)
	}

	src, err := codegen.EmitGo(pkg, lowered...)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if out == "" {
		c.Ui.Output(string(src))
		return 0
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	return 0
}

func (c *EmitCommand) Help() string {
	return strings.TrimSpace(`
Usage: nodevm emit [options] [FUNCTION...]

  Lowers the codegen bodies of the named built-in functions, or of every
  built-in that has one, and prints them as Go source.

Options:

  -package=NAME  Package clause of the generated file (default "kernels").
  -o=FILE        Write to FILE instead of standard output.
`)
}

func (c *EmitCommand) Synopsis() string { return "Generate Go source from codegen bodies" }
