//go:build linux

package main

import "testing"

func Test_ParseServiceID_Accepts_With_And_Without_0x_Prefix(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"0x0010", "0010", "10"} {
		got, err := parseServiceID(in)
		if err != nil {
			t.Fatalf("parseServiceID(%q) failed: %v", in, err)
		}

		if got != 0x0010 {
			t.Errorf("parseServiceID(%q) = %#x, want 0x0010", in, got)
		}
	}
}

func Test_ParseServiceID_Rejects_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := parseServiceID("not-hex"); err == nil {
		t.Fatal("parseServiceID(garbage) err = nil, want an error")
	}
}

func Test_Completer_Matches_Verb_Prefix(t *testing.T) {
	t.Parallel()

	r := &REPL{}

	matches := r.completer("reg")
	if len(matches) != 1 || matches[0] != "register" {
		t.Fatalf("completer(\"reg\") = %v, want [register]", matches)
	}
}
