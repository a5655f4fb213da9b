package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/funvibe/nodevm/internal/config"
	"github.com/funvibe/nodevm/pkg/cli"
)

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	// library code that logs through hclog.L() stays quiet unless asked
	hclog.SetDefault(hclog.New(&hclog.LoggerOptions{
		Name:   config.LoggerName,
		Level:  hclog.LevelFromString(os.Getenv("NODEVM_LOG")),
		Output: os.Stderr,
	}))

	os.Exit(cli.Run(os.Args[1:]))
}
