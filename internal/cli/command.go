// Package cli provides the small command-dispatch shape lap-comctl's
// one-shot subcommands use. The REPL's verbs are dispatched by
// cmd/lap-comctl's own loop, not through this package.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Command is a single named, flag-parsing subcommand.
type Command struct {
	// Usage is "name [args...]"; the command's Name is its first word.
	Usage string
	Short string
	Long  string

	Flags *pflag.FlagSet

	// Exec runs the command body after Flags has parsed args.
	Exec func(ctx context.Context, io *IO, args []string) error
}

// Name returns the command's invocation name, the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine renders a one-line summary for a command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

// PrintHelp writes the command's full usage text.
func (c *Command) PrintHelp(o *IO) {
	o.Printf("usage: %s\n\n", c.Usage)

	if c.Long != "" {
		o.Printf("%s\n\n", c.Long)
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println("flags:")
		o.Printf("%s", c.Flags.FlagUsagesWrapped(0))
	}
}

// Run parses args against the command's flags and executes it, returning
// a process exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if c.Flags == nil {
		c.Flags = pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
	}

	// The command's own flag errors are reported through IO, not
	// pflag's default stderr writer.
	c.Flags.SetOutput(io.Discard)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln(err)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln(err)

		return 1
	}

	return 0
}
