package cli

import (
	"fmt"
	"strings"

	"github.com/funvibe/nodevm/internal/program"
)

// CheckCommand loads and validates program files without running them.
type CheckCommand struct {
	Meta
}

func (c *CheckCommand) Run(args []string) int {
	f := c.flagSet("check")
	if err := f.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if f.NArg() == 0 {
		c.Ui.Error("check expects at least one program file")
		return 1
	}

	failed := 0
	for _, path := range f.Args() {
		p, err := program.Load(path, nil)
		if err != nil {
			c.Ui.Error(err.Error())
			failed++
			continue
		}
		body, _ := p.Function.ExpressionBody()
		c.Ui.Output(fmt.Sprintf("ok  %s (%d words, %d callees)", p.Function.Name(), body.Code.Len(), len(body.Callees)))
	}
	if failed > 0 {
		c.Ui.Error(fmt.Sprintf("%d of %d programs failed", failed, f.NArg()))
		return 1
	}
	return 0
}

func (c *CheckCommand) Help() string {
	return strings.TrimSpace(`
Usage: nodevm check PROGRAM...

  Loads every program, resolves its callees and validates every stack
  access of its instruction stream.
`)
}

func (c *CheckCommand) Synopsis() string { return "Validate program files" }
