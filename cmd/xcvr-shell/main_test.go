// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"
	"testing"

	"github.com/go-lpc/xcvr"
	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/transport"
)

func newTestShell(t *testing.T) (*shell, *transport.Mem, *strings.Builder) {
	t.Helper()

	img := make([]byte, 512)
	img[0] = 0x03
	copy(img[20:], "ACME CORP.      ")
	mem := transport.NewMem(img)
	mod, err := xcvr.Open(mem)
	if err != nil {
		t.Fatalf("could not open module: %+v", err)
	}
	o := new(strings.Builder)
	return &shell{mod: mod, w: o}, mem, o
}

func TestShell(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  string
	}{
		{"read", "read vendor-name", "vendor-name = \"ACME CORP.\"\n"},
		{"read-alias", "r soft-tx-disable", "soft-tx-disable = false\n"},
		{"read-unknown", "read foo", "error: unknown field \"foo\"\n"},
		{"read-usage", "read", "error: usage: read FIELD\n"},
		{"write-bool", "write soft-tx-disable true", ""},
		{"write-invalid", "write soft-tx-disable maybe", "error: invalid boolean \"maybe\" for soft-tx-disable\n"},
		{"write-ro", "write vendor-name FOO", "error: could not write \"vendor-name\"\n"},
		{"raw", "raw 20 4", "41 43 4d 45"},
		{"raw-bad", "raw xx", "error: invalid offset \"xx\""},
		{"poke", "poke 0x100 0x2a", ""},
		{"poke-bad", "poke 0x100 0x2a2", "error: invalid byte \"0x2a2\""},
		{"info", "info", "vendor:  ACME CORP.\n"},
		{"fields", "fields vendor-n", "vendor-name"},
		{"unknown", "frobnicate", "error: unknown command \"frobnicate\""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sh, _, o := newTestShell(t)
			if sh.exec(tc.input) {
				t.Fatalf("unexpected exit")
			}
			got := o.String()
			if tc.want == "" && got != "" {
				t.Fatalf("unexpected output: %q", got)
			}
			if !strings.Contains(got, tc.want) {
				t.Fatalf("invalid output:\ngot= %q\nwant=%q", got, tc.want)
			}
		})
	}
}

func TestShellWrite(t *testing.T) {
	sh, mem, _ := newTestShell(t)

	sh.exec("write soft-tx-disable 1")
	if got := mem.Bytes()[256+110]; got != 0x40 {
		t.Fatalf("invalid control byte: 0x%02x", got)
	}
	sh.exec("poke 0x101 0x2a")
	if got := mem.Bytes()[0x101]; got != 0x2a {
		t.Fatalf("invalid poked byte: 0x%02x", got)
	}

	for _, cmd := range []string{"quit", "exit", "q"} {
		if !sh.exec(cmd) {
			t.Fatalf("%q did not exit", cmd)
		}
	}
}

func TestComplete(t *testing.T) {
	sh, _, _ := newTestShell(t)

	got := sh.complete("read vendor-p")
	if len(got) != 1 || got[0] != "read vendor-pn" {
		t.Fatalf("invalid completion: %q", got)
	}
	if got := sh.complete("info"); got != nil {
		t.Fatalf("invalid completion: %q", got)
	}
	if got := sh.complete("read vendor-pn "); got != nil {
		t.Fatalf("invalid completion: %q", got)
	}
}

func TestParseValue(t *testing.T) {
	for _, tc := range []struct {
		f    *field.Field
		in   string
		want any
	}{
		{field.NewBit("b", 0, 1), "true", true},
		{field.NewInt("i", 0, 2), "0x10", int64(16)},
		{field.NewEnum("e", 0, nil), "3", uint64(3)},
		{field.NewEnum("e", 0, nil), "ModuleReady", "ModuleReady"},
		{field.NewStr("s", 0, 4), `"ab"`, "ab"},
	} {
		got, err := parseValue(tc.f, tc.in)
		if err != nil {
			t.Fatalf("could not parse %q: %+v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("invalid value: got=%#v, want=%#v", got, tc.want)
		}
	}

	_, err := parseValue(field.NewHex("h", 0, 2), "01-02")
	if err == nil {
		t.Fatalf("expected an error")
	}
}
