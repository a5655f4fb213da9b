package cli

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/funvibe/nodevm/internal/codegen"
	"github.com/funvibe/nodevm/internal/config"
	"github.com/funvibe/nodevm/internal/eval"
	"github.com/funvibe/nodevm/internal/function"
)

// Meta is the state shared by every command.
type Meta struct {
	Ui cli.Ui

	// Dir is where the settings file search starts; empty means the
	// working directory.
	Dir string

	// Stderr receives log output.
	Stderr io.Writer

	logLevel string
	strategy string
	cache    string
}

func (m *Meta) flagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	f.StringVar(&m.logLevel, "log-level", "", "log level")
	f.StringVar(&m.strategy, "strategy", "", "callee strategy")
	f.StringVar(&m.cache, "cache", "", "program cache path")
	return f
}

// settings loads the nearest settings file and applies flag overrides.
func (m *Meta) settings() (*config.Settings, error) {
	dir := m.Dir
	if dir == "" {
		dir = "."
	}
	path, err := config.FindSettings(dir)
	if err != nil {
		return nil, err
	}

	s := config.DefaultSettings()
	if path != "" {
		if s, err = config.LoadSettings(path); err != nil {
			return nil, err
		}
	}

	if m.logLevel != "" {
		s.LogLevel = strings.ToLower(m.logLevel)
	}
	if m.strategy != "" {
		s.Strategy = m.strategy
	}
	if m.cache != "" {
		s.Cache = m.cache
	}
	return s, nil
}

func (m *Meta) logger(s *config.Settings) hclog.Logger {
	out := m.Stderr
	if out == nil {
		out = os.Stderr
	}
	color := hclog.ColorOff
	if isTerminal(out) {
		color = hclog.AutoColor
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   config.LoggerName,
		Level:  hclog.LevelFromString(s.LogLevel),
		Output: out,
		Color:  color,
	})
}

// evalContext builds a context for the configured strategy. Under codegen
// every callee with a codegen body is compiled up front.
func (m *Meta) evalContext(s *config.Settings, logger hclog.Logger, callees []*function.Function) (*eval.Context, error) {
	strategy, err := function.ParseStrategy(s.Strategy)
	if err != nil {
		return nil, err
	}

	ctx := eval.NewContext()
	ctx.SetLogger(logger.Named("eval"))
	if err := ctx.SetStrategy(strategy); err != nil {
		return nil, err
	}
	if strategy == function.Codegen {
		mod := codegen.NewModule()
		mod.SetLogger(logger.Named("codegen"))
		if err := mod.Prepare(callees...); err != nil {
			return nil, err
		}
		ctx.SetNative(mod)
	}
	return ctx, nil
}
