package cli

import (
	"strings"

	"github.com/funvibe/nodevm/internal/bytecode"
	"github.com/funvibe/nodevm/internal/program"
)

// DisasmCommand prints the instruction listing of a program.
type DisasmCommand struct {
	Meta
}

func (c *DisasmCommand) Run(args []string) int {
	f := c.flagSet("disasm")
	if err := f.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if f.NArg() != 1 {
		c.Ui.Error("disasm expects exactly one program file")
		return 1
	}

	p, err := program.Load(f.Arg(0), nil)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	body, err := p.Function.ExpressionBody()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	c.Ui.Output(bytecode.Disassemble(body.Code, p.Entry, body.CalleeList(), p.Function.Name()))
	return 0
}

func (c *DisasmCommand) Help() string {
	return strings.TrimSpace(`
Usage: nodevm disasm PROGRAM

  Prints the assembled instruction stream of a program.
`)
}

func (c *DisasmCommand) Synopsis() string { return "Disassemble a program" }
