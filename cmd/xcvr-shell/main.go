// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// xcvr-shell is an interactive shell to read and write the fields of a
// transceiver memory map.
//
// Usage: xcvr-shell [OPTIONS] [FILE]
//
// Example:
//
//	$> xcvr-shell -bus 3
//	xcvr> read vendor-name
//	vendor-name = "ACME CORP."
//	xcvr> write tx-disable-1 true
//	xcvr> raw 0x80 16
//	xcvr> quit
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/xcvr"
	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/internal/mmap"
	"github.com/go-lpc/xcvr/page"
	"github.com/go-lpc/xcvr/transport"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("xcvr-shell: ")
	log.SetFlags(0)

	var (
		bus     = flag.Int("bus", -1, "I2C bus of the module")
		rw      = flag.Bool("rw", false, "open FILE in read-write mode")
		verbose = flag.Bool("v", false, "enable verbose mode")
	)

	flag.Usage = func() {
		fmt.Printf(`xcvr-shell is an interactive shell to read and write transceiver fields.

Usage: xcvr-shell [OPTIONS] [FILE]

Example:

 $> xcvr-shell -bus 3
 $> xcvr-shell -rw ./testdata/qsfp-dd.bin

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	msg := log.New(io.Discard, "xcvr-shell: ", 0)
	if *verbose {
		msg.SetOutput(os.Stderr)
	}

	var dev xcvr.ReadWriterAt
	switch {
	case *bus >= 0:
		i2c, err := transport.OpenI2C(*bus, transport.Paged, msg)
		if err != nil {
			log.Fatalf("could not open module: %+v", err)
		}
		defer i2c.Close()
		dev = i2c
	case flag.NArg() == 1:
		f, err := mmap.Open(flag.Arg(0), *rw)
		if err != nil {
			log.Fatalf("could not open dump: %+v", err)
		}
		defer f.Close()
		dev = f
	default:
		flag.Usage()
		log.Fatalf("missing I2C bus or dump file")
	}

	mod, err := xcvr.Open(dev, xcvr.WithLogger(msg))
	if err != nil {
		log.Fatalf("could not open transceiver: %+v", err)
	}

	sh := newShell(mod, os.Stdout)
	err = sh.run()
	if err != nil {
		log.Fatalf("could not run shell: %+v", err)
	}
}

type shell struct {
	mod  api.Transceiver
	w    io.Writer
	hist string
}

func newShell(mod api.Transceiver, w io.Writer) *shell {
	sh := &shell{mod: mod, w: w}
	if dir, err := os.UserCacheDir(); err == nil {
		sh.hist = filepath.Join(dir, "xcvr-shell.history")
	}
	return sh
}

func (sh *shell) run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.complete)

	if sh.hist != "" {
		if f, err := os.Open(sh.hist); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			f, err := os.Create(sh.hist)
			if err != nil {
				return
			}
			defer f.Close()
			_, _ = line.WriteHistory(f)
		}()
	}

	fmt.Fprintf(sh.w, "%s module, type 'help' for commands\n", sh.mod.Family())
	for {
		input, err := line.Prompt("xcvr> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(sh.w)
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if sh.exec(input) {
			return nil
		}
	}
}

func (sh *shell) complete(line string) []string {
	parts := strings.Fields(line)
	if len(parts) != 2 || strings.HasSuffix(line, " ") {
		return nil
	}
	switch parts[0] {
	case "read", "r", "write", "w":
	default:
		return nil
	}
	var out []string
	for _, f := range sh.mod.Eeprom().Map().Fields() {
		if strings.HasPrefix(f.Name, parts[1]) {
			out = append(out, parts[0]+" "+f.Name)
		}
	}
	sort.Strings(out)
	return out
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(input string) bool {
	parts := strings.Fields(input)
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		sh.help()
	case "info", "i":
		err = sh.info()
	case "fields", "f":
		sh.fields(args)
	case "read", "r":
		err = sh.read(args)
	case "write", "w":
		err = sh.write(args)
	case "raw":
		err = sh.raw(args)
	case "poke":
		err = sh.poke(args)
	case "refresh":
		if !sh.mod.Eeprom().RefreshCache() {
			err = fmt.Errorf("could not refresh cache")
		}
	case "quit", "exit", "q":
		return true
	default:
		err = fmt.Errorf("unknown command %q (type 'help' for commands)", cmd)
	}
	if err != nil {
		fmt.Fprintf(sh.w, "error: %v\n", err)
	}
	return false
}

func (sh *shell) help() {
	fmt.Fprint(sh.w, `commands:
  info                 display the module identity
  fields [PREFIX]      list the fields of the memory map
  read FIELD           read a field
  write FIELD VALUE    write a field
  raw OFFSET [N]       hex dump N bytes at linear OFFSET
  poke OFFSET BYTE     write one byte at linear OFFSET
  refresh              refresh the snapshot cache
  quit                 exit the shell
`)
}

func (sh *shell) info() error {
	info := sh.mod.Info()
	if info == nil {
		return fmt.Errorf("could not read identifier")
	}
	fmt.Fprintf(sh.w, "type:    %v\n", info.Type)
	fmt.Fprintf(sh.w, "vendor:  %v\n", info.Vendor)
	fmt.Fprintf(sh.w, "pn:      %v\n", info.PartNumber)
	fmt.Fprintf(sh.w, "sn:      %v\n", info.Serial)
	return nil
}

func (sh *shell) fields(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	for _, f := range sh.mod.Eeprom().Map().Fields() {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		pg, off := page.Split(f.Offset)
		fmt.Fprintf(sh.w, "%-40s %02xh:%-3d %v\n", f.Name, pg, off, f.Kind)
	}
}

func (sh *shell) read(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read FIELD")
	}
	ee := sh.mod.Eeprom()
	if _, ok := ee.Field(args[0]); !ok {
		return fmt.Errorf("unknown field %q", args[0])
	}
	v := ee.Read(args[0])
	if v == nil {
		return fmt.Errorf("could not read %q", args[0])
	}
	if s, ok := v.(string); ok {
		fmt.Fprintf(sh.w, "%s = %q\n", args[0], s)
		return nil
	}
	fmt.Fprintf(sh.w, "%s = %v\n", args[0], v)
	return nil
}

func (sh *shell) write(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: write FIELD VALUE")
	}
	ee := sh.mod.Eeprom()
	f, ok := ee.Field(args[0])
	if !ok {
		return fmt.Errorf("unknown field %q", args[0])
	}
	v, err := parseValue(f, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if !ee.Write(f.Name, v) {
		return fmt.Errorf("could not write %q", f.Name)
	}
	return nil
}

func (sh *shell) raw(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: raw OFFSET [N]")
	}
	off, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %w", args[0], err)
	}
	n := uint64(16)
	if len(args) == 2 {
		n, err = strconv.ParseUint(args[1], 0, 16)
		if err != nil || n == 0 {
			return fmt.Errorf("invalid length %q", args[1])
		}
	}
	raw := sh.mod.Eeprom().ReadRaw(int(off), int(n))
	if raw == nil {
		return fmt.Errorf("could not read %d bytes at 0x%x", n, off)
	}
	fmt.Fprint(sh.w, hex.Dump(raw))
	return nil
}

func (sh *shell) poke(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: poke OFFSET BYTE")
	}
	off, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %w", args[0], err)
	}
	v, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return fmt.Errorf("invalid byte %q: %w", args[1], err)
	}
	if !sh.mod.Eeprom().SetByte(int(off), uint8(v)) {
		return fmt.Errorf("could not write byte at 0x%x", off)
	}
	return nil
}

// parseValue converts s to the Go value expected by f.
func parseValue(f *field.Field, s string) (any, error) {
	switch f.Kind {
	case field.BitValue:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q for %s", s, f.Name)
		}
		return v, nil
	case field.Int:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q for %s", s, f.Name)
		}
		return v, nil
	case field.Enum:
		if v, err := strconv.ParseUint(s, 0, 8); err == nil {
			return v, nil
		}
		return s, nil
	case field.Func:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q for %s", s, f.Name)
		}
		return v, nil
	case field.Str:
		return strings.Trim(s, `"`), nil
	}
	return nil, fmt.Errorf("field %s (%v) is not writable", f.Name, f.Kind)
}
