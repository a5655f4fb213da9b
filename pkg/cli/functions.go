package cli

import (
	"fmt"
	"strings"

	"github.com/funvibe/nodevm/internal/builtins"
	"github.com/funvibe/nodevm/internal/config"
)

// FunctionsCommand lists the built-in function catalog.
type FunctionsCommand struct {
	Meta
}

func (c *FunctionsCommand) Run(args []string) int {
	f := c.flagSet("functions")
	if err := f.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	for _, fn := range builtins.Functions() {
		strategies := fn.Strategies()
		names := make([]string, len(strategies))
		for i, s := range strategies {
			names[i] = s.String()
		}
		c.Ui.Output(fmt.Sprintf("%-18s %s [%s]", fn.Name(), fn.Signature(), strings.Join(names, ", ")))
	}
	return 0
}

func (c *FunctionsCommand) Help() string {
	return strings.TrimSpace(`
Usage: nodevm functions

  Lists every built-in function with its signature and bodies.
`)
}

func (c *FunctionsCommand) Synopsis() string { return "List built-in functions" }

// VersionCommand prints the version.
type VersionCommand struct {
	Meta
}

func (c *VersionCommand) Run(_ []string) int {
	c.Ui.Output("nodevm " + config.Version)
	return 0
}

func (c *VersionCommand) Help() string { return "Usage: nodevm version" }

func (c *VersionCommand) Synopsis() string { return "Print the version" }
