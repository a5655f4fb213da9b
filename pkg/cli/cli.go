// Package cli implements the nodevm command line.
package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mitchellh/cli"

	"github.com/funvibe/nodevm/internal/config"
)

// Run executes the command line args and returns the exit status.
func Run(args []string) int {
	var ui cli.Ui = &cli.BasicUi{Reader: os.Stdin, Writer: os.Stdout, ErrorWriter: os.Stderr}
	if isTerminal(os.Stderr) {
		ui = &cli.ColoredUi{ErrorColor: cli.UiColorRed, WarnColor: cli.UiColorYellow, Ui: ui}
	}
	return RunWith(args, Meta{Ui: ui, Stderr: os.Stderr})
}

// RunWith executes args with the given command environment.
func RunWith(args []string, meta Meta) int {
	c := cli.NewCLI(config.LoggerName, config.Version)
	c.Args = args
	c.Commands = Commands(meta)
	c.HelpWriter = uiWriter{meta.Ui}

	status, err := c.Run()
	if err != nil {
		meta.Ui.Error(err.Error())
		return 1
	}
	return status
}

// Commands returns the command table.
func Commands(meta Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"run":        func() (cli.Command, error) { return &RunCommand{Meta: meta}, nil },
		"check":      func() (cli.Command, error) { return &CheckCommand{Meta: meta}, nil },
		"disasm":     func() (cli.Command, error) { return &DisasmCommand{Meta: meta}, nil },
		"emit":       func() (cli.Command, error) { return &EmitCommand{Meta: meta}, nil },
		"functions":  func() (cli.Command, error) { return &FunctionsCommand{Meta: meta}, nil },
		"cache":      func() (cli.Command, error) { return &CacheCommand{Meta: meta}, nil },
		"cache put":  func() (cli.Command, error) { return &CachePutCommand{Meta: meta}, nil },
		"cache list": func() (cli.Command, error) { return &CacheListCommand{Meta: meta}, nil },
		"cache show": func() (cli.Command, error) { return &CacheShowCommand{Meta: meta}, nil },
		"cache rm":   func() (cli.Command, error) { return &CacheRemoveCommand{Meta: meta}, nil },
		"version":    func() (cli.Command, error) { return &VersionCommand{Meta: meta}, nil },
	}
}

// uiWriter sends help text through the Ui.
type uiWriter struct {
	ui cli.Ui
}

func (w uiWriter) Write(p []byte) (int, error) {
	w.ui.Output(string(p))
	return len(p), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
