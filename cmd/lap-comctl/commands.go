//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/lightap/lap-com/internal/cli"
	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/registry"
)

// commands returns the one-shot subcommands plus "repl", all operating
// over the same attached Registry.
func commands(reg *registry.Registry) []*cli.Command {
	return []*cli.Command{
		registerCommand(reg),
		findCommand(reg),
		unregisterCommand(reg),
		heartbeatCommand(reg),
		replCommand(reg),
	}
}

func parseServiceID(arg string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid service id %q: %w", arg, err)
	}

	return uint16(n), nil
}

func registerCommand(reg *registry.Registry) *cli.Command {
	flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
	serviceID := flags.String("service-id", "", "service id, hex (e.g. 0x0010)")
	instanceID := flags.String("instance-id", "0x1", "instance id, hex")
	binding := flags.String("binding", "", "binding type name")
	endpoint := flags.String("endpoint", "", "transport endpoint")

	return &cli.Command{
		Usage: "register --service-id=<hex> --instance-id=<hex> --binding=<name> --endpoint=<url>",
		Short: "register a service",
		Flags: flags,
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			sid, err := parseServiceID(*serviceID)
			if err != nil {
				return err
			}

			iid, err := strconv.ParseUint(strings.TrimPrefix(*instanceID, "0x"), 16, 64)
			if err != nil {
				return fmt.Errorf("invalid instance id %q: %w", *instanceID, err)
			}

			opts := registry.RegisterOptions{
				InstanceID:  iid,
				BindingType: *binding,
				Endpoint:    *endpoint,
				OwnerPID:    int32(os.Getpid()),
			}

			if err := reg.RegisterService(sid, opts); err != nil {
				return err
			}

			o.Printf("registered sid=%#04x iid=%#x binding=%s endpoint=%s\n", sid, iid, *binding, *endpoint)

			return nil
		},
	}
}

func findCommand(reg *registry.Registry) *cli.Command {
	flags := pflag.NewFlagSet("find", pflag.ContinueOnError)
	serviceID := flags.String("service-id", "", "service id, hex (e.g. 0x0010)")

	return &cli.Command{
		Usage: "find --service-id=<hex>",
		Short: "look up a service",
		Flags: flags,
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			sid, err := parseServiceID(*serviceID)
			if err != nil {
				return err
			}

			slot, ok, err := reg.FindService(sid)
			if err != nil {
				return err
			}

			if !ok {
				o.Println("not found")

				return nil
			}

			o.Printf("sid=%#04x iid=%#x binding=%s endpoint=%s owner_pid=%d last_heartbeat_ns=%d\n",
				slot.ServiceID, slot.InstanceID, slot.BindingType, slot.Endpoint, slot.OwnerPID, slot.LastHeartbeatNs)

			return nil
		},
	}
}

func unregisterCommand(reg *registry.Registry) *cli.Command {
	flags := pflag.NewFlagSet("unregister", pflag.ContinueOnError)
	serviceID := flags.String("service-id", "", "service id, hex (e.g. 0x0010)")

	return &cli.Command{
		Usage: "unregister --service-id=<hex>",
		Short: "unregister a service",
		Flags: flags,
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			sid, err := parseServiceID(*serviceID)
			if err != nil {
				return err
			}

			if err := reg.UnregisterService(sid); err != nil {
				return err
			}

			o.Println("unregistered")

			return nil
		},
	}
}

func heartbeatCommand(reg *registry.Registry) *cli.Command {
	flags := pflag.NewFlagSet("heartbeat", pflag.ContinueOnError)
	serviceID := flags.String("service-id", "", "service id, hex (e.g. 0x0010)")

	return &cli.Command{
		Usage: "heartbeat --service-id=<hex>",
		Short: "send one heartbeat for a registered service",
		Flags: flags,
		Exec: func(_ context.Context, o *cli.IO, _ []string) error {
			sid, err := parseServiceID(*serviceID)
			if err != nil {
				return err
			}

			now := uint64(time.Now().UnixNano())

			if err := reg.UpdateHeartbeat(sid, now); err != nil {
				if errors.Is(err, regerr.ErrInvalidArgument) {
					return fmt.Errorf("service %#04x is not registered: %w", sid, err)
				}

				return err
			}

			o.Println("heartbeat sent")

			return nil
		},
	}
}

func replCommand(reg *registry.Registry) *cli.Command {
	return &cli.Command{
		Usage: "repl",
		Short: "open an interactive operator shell",
		Exec: func(_ context.Context, _ *cli.IO, _ []string) error {
			return (&REPL{reg: reg}).Run()
		},
	}
}
