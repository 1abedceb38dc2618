//go:build linux

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/registry"
)

var replVerbs = []string{
	"register", "find", "unregister", "heartbeat", "help", "exit", "quit",
}

// REPL is the interactive command loop over a live Registry.
type REPL struct {
	reg   *registry.Registry
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".lap_comctl_history")
}

// Run starts the REPL loop, blocking until the operator exits.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close() //nolint:errcheck

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println("lap-comctl - registry operator shell")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("lap-comctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "register":
			r.cmdRegister(args)

		case "find":
			r.cmdFind(args)

		case "unregister":
			r.cmdUnregister(args)

		case "heartbeat":
			r.cmdHeartbeat(args)

		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path) //nolint:gosec // operator's own home directory
	if err != nil {
		return
	}
	defer f.Close() //nolint:errcheck

	_, _ = r.liner.WriteHistory(f)
}

func (r *REPL) completer(line string) []string {
	var matches []string

	for _, v := range replVerbs {
		if strings.HasPrefix(v, line) {
			matches = append(matches, v)
		}
	}

	return matches
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  register <sid-hex> <iid-hex> <binding> <endpoint>   Register a service")
	fmt.Println("  find <sid-hex>                                      Look up a service")
	fmt.Println("  unregister <sid-hex>                                 Unregister a service")
	fmt.Println("  heartbeat <sid-hex>                                 Send one heartbeat")
	fmt.Println("  help                                                 Show this help")
	fmt.Println("  exit / quit / q                                     Exit")
}

func (r *REPL) cmdRegister(args []string) {
	if len(args) < 4 {
		fmt.Println("usage: register <sid-hex> <iid-hex> <binding> <endpoint>")

		return
	}

	sid, err := parseServiceID(args[0])
	if err != nil {
		fmt.Println(err)

		return
	}

	iid, err := strconv.ParseUint(strings.TrimPrefix(args[1], "0x"), 16, 64)
	if err != nil {
		fmt.Printf("invalid instance id %q: %v\n", args[1], err)

		return
	}

	opts := registry.RegisterOptions{
		InstanceID:  iid,
		BindingType: args[2],
		Endpoint:    args[3],
		OwnerPID:    int32(os.Getpid()),
	}

	if err := r.reg.RegisterService(sid, opts); err != nil {
		fmt.Println("error:", err)

		return
	}

	fmt.Printf("registered sid=%#04x iid=%#x binding=%s endpoint=%s\n", sid, iid, opts.BindingType, opts.Endpoint)
}

func (r *REPL) cmdFind(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: find <sid-hex>")

		return
	}

	sid, err := parseServiceID(args[0])
	if err != nil {
		fmt.Println(err)

		return
	}

	slot, ok, err := r.reg.FindService(sid)
	if err != nil {
		fmt.Println("error:", err)

		return
	}

	if !ok {
		fmt.Println("not found")

		return
	}

	fmt.Printf("sid=%#04x iid=%#x binding=%s endpoint=%s owner_pid=%d last_heartbeat_ns=%d\n",
		slot.ServiceID, slot.InstanceID, slot.BindingType, slot.Endpoint, slot.OwnerPID, slot.LastHeartbeatNs)
}

func (r *REPL) cmdUnregister(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: unregister <sid-hex>")

		return
	}

	sid, err := parseServiceID(args[0])
	if err != nil {
		fmt.Println(err)

		return
	}

	if err := r.reg.UnregisterService(sid); err != nil {
		fmt.Println("error:", err)

		return
	}

	fmt.Println("unregistered")
}

func (r *REPL) cmdHeartbeat(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: heartbeat <sid-hex>")

		return
	}

	sid, err := parseServiceID(args[0])
	if err != nil {
		fmt.Println(err)

		return
	}

	now := uint64(time.Now().UnixNano())

	if err := r.reg.UpdateHeartbeat(sid, now); err != nil {
		if errors.Is(err, regerr.ErrInvalidArgument) {
			fmt.Println("error: service not registered")

			return
		}

		fmt.Println("error:", err)

		return
	}

	fmt.Println("heartbeat sent")
}
