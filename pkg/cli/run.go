package cli

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/nodevm/internal/eval"
	"github.com/funvibe/nodevm/internal/globals"
	"github.com/funvibe/nodevm/internal/program"
	"github.com/funvibe/nodevm/internal/site"
	"github.com/funvibe/nodevm/internal/types"
)

// RunCommand evaluates a program once per site.
type RunCommand struct {
	Meta
}

func (c *RunCommand) Run(args []string) int {
	var sites, workers, objects int
	var dump bool
	f := c.flagSet("run")
	f.IntVar(&sites, "sites", 0, "number of sites")
	f.IntVar(&workers, "workers", 0, "parallel sites")
	f.IntVar(&objects, "objects", 0, "placeholder objects to register")
	f.BoolVar(&dump, "dump", false, "dump the stack of every site")
	if err := f.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if f.NArg() != 1 {
		c.Ui.Error("run expects exactly one program file")
		return 1
	}

	s, err := c.settings()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if sites <= 0 {
		sites = s.Sites
	}
	if workers <= 0 {
		workers = s.Workers
	}
	logger := c.logger(s)

	p, err := program.Load(f.Arg(0), nil)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	ctx, err := c.evalContext(s, logger, p.Callees())
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	reg := globals.NewRegistry()
	for i := 0; i < objects; i++ {
		reg.Register(fmt.Sprintf("object%d", i))
	}
	g := reg.Snapshot()

	results := make([][]program.Result, sites)
	dumps := make([]string, sites)
	extent := stackExtent(p)

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i := 0; i < sites; i++ {
		eg.Go(func() error {
			var stack eval.Stack
			if err := p.Eval(ctx, g, &site.Data{Iteration: int32(i)}, &stack); err != nil {
				return fmt.Errorf("site %d: %w", i, err)
			}
			results[i] = p.Read(&stack)
			if dump {
				dumps[i] = spew.Sdump(stack[:extent])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	logger.Debug("evaluated", "program", p.Function.Name(), "sites", sites, "workers", workers, "strategy", s.Strategy)

	for i, rs := range results {
		c.Ui.Output(formatSite(i, rs))
		if dump {
			c.Ui.Output(dumps[i])
		}
	}
	return 0
}

// stackExtent is one past the highest slot any declared input or output uses.
func stackExtent(p *program.Program) int {
	extent := 0
	for _, slots := range [][]program.Slot{p.Inputs, p.Outputs} {
		for _, s := range slots {
			if end := s.Offset + s.Type.Slots(); end > extent {
				extent = end
			}
		}
	}
	return extent
}

func formatSite(i int, rs []program.Result) string {
	parts := make([]string, len(rs))
	for j, r := range rs {
		parts[j] = r.Name + "=" + formatValue(r.Value)
	}
	return fmt.Sprintf("site %d: %s", i, strings.Join(parts, " "))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float32:
		return fmt.Sprintf("%g", x)
	case types.Float3:
		return fmt.Sprintf("(%g, %g, %g)", x.X, x.Y, x.Z)
	case types.Float4:
		return fmt.Sprintf("(%g, %g, %g, %g)", x.X, x.Y, x.Z, x.W)
	}
	return fmt.Sprint(v)
}

func (c *RunCommand) Help() string {
	return strings.TrimSpace(`
Usage: nodevm run [options] PROGRAM

  Evaluates a compiled program once per site. Sites run in parallel; each
  gets its own stack and an iteration counter equal to its index.

Options:

  -sites=N       Number of sites (default from settings, 1).
  -workers=N     Sites evaluated in parallel (default from settings, 4).
  -objects=N     Register N placeholder objects in the globals.
  -strategy=S    "interpreted" or "codegen".
  -dump          Print the used stack region of every site.
  -log-level=L   trace, debug, info, warn, error or off.
`)
}

func (c *RunCommand) Synopsis() string { return "Evaluate a compiled program" }
