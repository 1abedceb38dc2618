//go:build linux

package main

import (
	"bytes"
	"log"
	"testing"

	"github.com/lightap/lap-com/pkg/regmem"
)

func testLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer

	return log.New(&buf, "", 0), &buf
}

func Test_ParseFlags_Requires_Socket(t *testing.T) {
	t.Parallel()

	logger, _ := testLogger()

	_, help, err := parseFlags([]string{"--type=qm"}, logger)
	if help {
		t.Fatal("help = true, want false")
	}

	if err == nil {
		t.Fatal("parseFlags() err = nil, want an error for missing --socket")
	}
}

func Test_ParseFlags_Rejects_Unknown_Type(t *testing.T) {
	t.Parallel()

	logger, _ := testLogger()

	_, _, err := parseFlags([]string{"--type=bogus", "--socket=/tmp/x.sock"}, logger)
	if err == nil {
		t.Fatal("parseFlags() err = nil, want an error for an unknown --type")
	}
}

func Test_ParseFlags_Accepts_Valid_QM_Config(t *testing.T) {
	t.Parallel()

	logger, _ := testLogger()

	cfg, help, err := parseFlags([]string{"--type=qm", "--socket=/tmp/qm.sock"}, logger)
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if help {
		t.Fatal("help = true, want false")
	}

	if cfg.kind != regmem.KindQM || cfg.socketPath != "/tmp/qm.sock" {
		t.Fatalf("cfg = %+v, want kind=QM socket=/tmp/qm.sock", cfg)
	}
}

func Test_ParseFlags_Help_Short_Circuits(t *testing.T) {
	t.Parallel()

	logger, _ := testLogger()

	_, help, err := parseFlags([]string{"--help"}, logger)
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if !help {
		t.Fatal("help = false, want true")
	}
}
