//go:build linux

// Package main implements registry-initd, the Initializer Server CLI
// (spec §6.5): one process binds and serves exactly one Fixed-Slot
// Table (QM or ASIL) over a local socket until signalled to stop.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/lightap/lap-com/pkg/fs"
	"github.com/lightap/lap-com/pkg/regmem"
)

// config is the parsed CLI surface of registry-initd (spec §6.5).
type config struct {
	kind       regmem.Kind
	socketPath string
}

var errInvalidType = errors.New("registry-initd: --type must be \"qm\" or \"asil\"")

func parseFlags(args []string, errOut *log.Logger) (config, bool, error) {
	fset := pflag.NewFlagSet("registry-initd", pflag.ContinueOnError)
	fset.SetOutput(errOut.Writer())

	typeFlag := fset.String("type", "", "table kind to serve: qm or asil")
	socketFlag := fset.String("socket", "", "unix socket path to bind")
	help := fset.BoolP("help", "h", false, "show usage")

	if err := fset.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return config{}, true, nil
		}

		return config{}, false, err
	}

	if *help {
		fset.PrintDefaults()

		return config{}, true, nil
	}

	var kind regmem.Kind

	switch *typeFlag {
	case "qm":
		kind = regmem.KindQM
	case "asil":
		kind = regmem.KindASIL
	default:
		return config{}, false, errInvalidType
	}

	if *socketFlag == "" {
		return config{}, false, fmt.Errorf("registry-initd: --socket is required")
	}

	return config{kind: kind, socketPath: *socketFlag}, false, nil
}

// run performs the full daemon lifecycle: bind, write the ready marker,
// serve until a signal arrives, then shut down. It returns the process
// exit code (spec §6.5: 0 clean, 1 on any init/runtime failure).
func run(args []string, errOut *log.Logger) int {
	signal.Ignore(syscall.SIGPIPE)

	cfg, helpRequested, err := parseFlags(args, errOut)
	if helpRequested {
		return 0
	}

	if err != nil {
		errOut.Println(err)

		return 1
	}

	srv, err := regmem.Open(regmem.ServerConfig{Kind: cfg.kind, SocketPath: cfg.socketPath})
	if err != nil {
		errOut.Println(err)

		return 1
	}

	markerPath := cfg.socketPath + ".ready.json"
	if err := regmem.WriteReadyMarker(fs.NewReal(), markerPath, cfg.socketPath, time.Now()); err != nil {
		// Diagnostic-only (spec §4.3a): log and continue serving.
		errOut.Println(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		if err := srv.Shutdown(); err != nil {
			errOut.Println(err)
		}
	}()

	if err := srv.Serve(); err != nil {
		errOut.Println(err)

		return 1
	}

	_ = os.Remove(markerPath)

	return 0
}

func main() {
	errOut := log.New(os.Stderr, "registry-initd: ", log.LstdFlags)
	os.Exit(run(os.Args[1:], errOut))
}
