package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/funvibe/nodevm/internal/bytecode"
	"github.com/funvibe/nodevm/internal/program"
	"github.com/funvibe/nodevm/internal/store"
)

var errNoCache = errors.New("no cache configured: set cache in nodevm.yaml or pass -cache")

// openCache parses args and opens the configured program cache.
func (m *Meta) openCache(name string, args []string) (*store.Store, []string, error) {
	f := m.flagSet(name)
	if err := f.Parse(args); err != nil {
		return nil, nil, err
	}
	s, err := m.settings()
	if err != nil {
		return nil, nil, err
	}
	if s.Cache == "" {
		return nil, nil, errNoCache
	}
	st, err := store.Open(s.Cache)
	if err != nil {
		return nil, nil, err
	}
	return st, f.Args(), nil
}

// CacheCommand groups the cache subcommands.
type CacheCommand struct {
	Meta
}

func (c *CacheCommand) Run(_ []string) int { return cli.RunResultHelp }

func (c *CacheCommand) Help() string {
	return strings.TrimSpace(`
Usage: nodevm cache <subcommand> [options]

  Manages the sqlite cache of assembled programs.
`)
}

func (c *CacheCommand) Synopsis() string { return "Manage the program cache" }

// CachePutCommand assembles programs and stores them.
type CachePutCommand struct {
	Meta
}

func (c *CachePutCommand) Run(args []string) int {
	st, files, err := c.openCache("cache put", args)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer st.Close()

	if len(files) == 0 {
		c.Ui.Error("cache put expects at least one program file")
		return 1
	}
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
		p, err := program.Parse(src, path, nil)
		if err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
		body, _ := p.Function.ExpressionBody()
		rec := store.Record{
			Name:       p.Function.Name(),
			FunctionID: p.Function.ID(),
			Code:       body.Code,
			Entry:      p.Entry,
			Source:     src,
		}
		if err := st.Put(context.Background(), rec); err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
		c.Ui.Output(fmt.Sprintf("stored %s (%d words)", rec.Name, rec.Code.Len()))
	}
	return 0
}

func (c *CachePutCommand) Help() string {
	return strings.TrimSpace(`
Usage: nodevm cache put [-cache=PATH] PROGRAM...

  Assembles each program and stores it under its name, replacing any
  earlier entry.
`)
}

func (c *CachePutCommand) Synopsis() string { return "Store programs in the cache" }

// CacheListCommand lists cached programs.
type CacheListCommand struct {
	Meta
}

func (c *CacheListCommand) Run(args []string) int {
	st, _, err := c.openCache("cache list", args)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer st.Close()

	recs, err := st.List(context.Background())
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	for _, r := range recs {
		c.Ui.Output(fmt.Sprintf("%-24s %5d words  entry %-4d %s", r.Name, r.Code.Len(), r.Entry, r.Created.Format("2006-01-02 15:04:05")))
	}
	return 0
}

func (c *CacheListCommand) Help() string {
	return "Usage: nodevm cache list [-cache=PATH]"
}

func (c *CacheListCommand) Synopsis() string { return "List cached programs" }

// CacheShowCommand disassembles a cached program.
type CacheShowCommand struct {
	Meta
}

func (c *CacheShowCommand) Run(args []string) int {
	st, names, err := c.openCache("cache show", args)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer st.Close()

	if len(names) != 1 {
		c.Ui.Error("cache show expects exactly one program name")
		return 1
	}
	rec, err := st.Get(context.Background(), names[0])
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	// callees are only recorded by name in the source
	p, err := program.Parse(rec.Source, rec.Name, nil)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	body, _ := p.Function.ExpressionBody()
	c.Ui.Output(bytecode.Disassemble(rec.Code, rec.Entry, body.CalleeList(), rec.Name))
	return 0
}

func (c *CacheShowCommand) Help() string {
	return "Usage: nodevm cache show [-cache=PATH] NAME"
}

func (c *CacheShowCommand) Synopsis() string { return "Disassemble a cached program" }

// CacheRemoveCommand deletes cached programs.
type CacheRemoveCommand struct {
	Meta
}

func (c *CacheRemoveCommand) Run(args []string) int {
	st, names, err := c.openCache("cache rm", args)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer st.Close()

	for _, name := range names {
		if err := st.Delete(context.Background(), name); err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
	}
	return 0
}

func (c *CacheRemoveCommand) Help() string {
	return "Usage: nodevm cache rm [-cache=PATH] NAME..."
}

func (c *CacheRemoveCommand) Synopsis() string { return "Remove programs from the cache" }
