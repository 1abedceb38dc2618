//go:build linux

// lap-comctl is an interactive and scriptable operator shell over a live
// registry: it attaches to the QM and ASIL Initializer Servers' sockets
// and lets an operator register, find, unregister, and heartbeat
// services either as one-shot subcommands or from the "repl" subcommand's
// interactive loop.
//
// Usage:
//
//	lap-comctl [--qm-socket=<path>] [--asil-socket=<path>] <command> [flags]
//
// Commands:
//
//	register --service-id=<hex> --instance-id=<hex> --binding=<name> --endpoint=<url>
//	find --service-id=<hex>
//	unregister --service-id=<hex>
//	heartbeat --service-id=<hex>
//	repl
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/lightap/lap-com/internal/cli"
	"github.com/lightap/lap-com/pkg/regmem"
	"github.com/lightap/lap-com/pkg/registry"
	"github.com/lightap/lap-com/pkg/runtime"
)

func main() {
	fset := pflag.NewFlagSet("lap-comctl", pflag.ContinueOnError)
	fset.SetInterspersed(false)

	qmSocket := fset.String("qm-socket", runtime.DefaultQMSocketPath, "QM Initializer Server socket path")
	asilSocket := fset.String("asil-socket", runtime.DefaultASILSocketPath, "ASIL Initializer Server socket path")

	if err := fset.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	qmClient, err := regmem.Attach(*qmSocket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lap-comctl: attach qm: %v\n", err)
		os.Exit(1)
	}
	defer qmClient.Detach() //nolint:errcheck

	asilClient, err := regmem.Attach(*asilSocket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lap-comctl: attach asil: %v\n", err)
		os.Exit(1)
	}
	defer asilClient.Detach() //nolint:errcheck

	qmTable, err := qmClient.Table()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lap-comctl: qm table: %v\n", err)
		os.Exit(1)
	}

	asilTable, err := asilClient.Table()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lap-comctl: asil table: %v\n", err)
		os.Exit(1)
	}

	reg := registry.New(qmTable, asilTable)

	os.Exit(cli.Run(os.Stdout, os.Stderr, fset.Args(), commands(reg)))
}
