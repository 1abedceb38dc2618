package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/pflag"
)

var errBoom = errors.New("boom")

func Test_Command_Run_Executes_Exec_With_Parsed_Args(t *testing.T) {
	t.Parallel()

	var got []string

	flags := pflag.NewFlagSet("greet", pflag.ContinueOnError)
	loud := flags.Bool("loud", false, "shout")

	c := &Command{
		Usage: "greet <name>",
		Short: "greet someone",
		Flags: flags,
		Exec: func(_ context.Context, o *IO, args []string) error {
			got = args

			if *loud {
				o.Println("HI")
			} else {
				o.Println("hi")
			}

			return nil
		},
	}

	var out, errOut bytes.Buffer

	code := c.Run(context.Background(), NewIO(&out, &errOut), []string{"--loud", "world"})

	if code != 0 {
		t.Fatalf("Run() code = %d, want 0, stderr=%q", code, errOut.String())
	}

	if len(got) != 1 || got[0] != "world" {
		t.Fatalf("Exec args = %v, want [world]", got)
	}

	if out.String() != "HI\n" {
		t.Fatalf("stdout = %q, want %q", out.String(), "HI\n")
	}
}

func Test_Command_Run_Reports_Exec_Error(t *testing.T) {
	t.Parallel()

	c := &Command{
		Usage: "fail",
		Exec: func(context.Context, *IO, []string) error {
			return errBoom
		},
	}

	var out, errOut bytes.Buffer

	code := c.Run(context.Background(), NewIO(&out, &errOut), nil)

	if code != 1 {
		t.Fatalf("Run() code = %d, want 1", code)
	}

	if errOut.Len() == 0 {
		t.Fatal("stderr is empty, want the Exec error reported")
	}
}

func Test_Command_Name_Is_First_Word_Of_Usage(t *testing.T) {
	t.Parallel()

	c := &Command{Usage: "register --service-id=<id>"}

	if c.Name() != "register" {
		t.Fatalf("Name() = %q, want %q", c.Name(), "register")
	}
}
