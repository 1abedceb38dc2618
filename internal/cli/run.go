package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const gracefulShutdownTimeout = 5 * time.Second

// Run dispatches args[0] to the matching Command in commands, running it
// under a context cancelled on SIGINT/SIGTERM. If the command has not
// returned gracefulShutdownTimeout after a signal, Run returns exit code
// 130 without waiting further.
func Run(out, errOut io.Writer, args []string, commands []*Command) int {
	o := NewIO(out, errOut)

	if len(args) == 0 {
		printUsage(o, commands)

		return 1
	}

	name := args[0]

	for _, c := range commands {
		if c.Name() != name {
			continue
		}

		return runCommand(c, o, args[1:])
	}

	o.ErrPrintln(fmt.Sprintf("lap-comctl: unknown command %q", name))
	printUsage(o, commands)

	return 1
}

func runCommand(c *Command, o *IO, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan int, 1)

	go func() { done <- c.Run(ctx, o, args) }()

	select {
	case code := <-done:
		return code
	case <-ctx.Done():
		select {
		case code := <-done:
			return code
		case <-time.After(gracefulShutdownTimeout):
			o.ErrPrintln("lap-comctl: forced shutdown after signal")

			return 130
		}
	}
}

func printUsage(o *IO, commands []*Command) {
	o.Println("usage: lap-comctl <command> [flags]")
	o.Println()
	o.Println("commands:")

	for _, c := range commands {
		o.Println(c.HelpLine())
	}
}
