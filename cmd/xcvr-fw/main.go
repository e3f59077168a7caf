// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// xcvr-fw manages the firmware of a CMIS module through its CDB.
//
// Usage: xcvr-fw [OPTIONS] COMMAND [IMAGE]
//
// Commands:
//
//	status    query the CDB status
//	features  display the module and firmware management features
//	info      display the firmware banks
//	download  download IMAGE to the inactive bank
//	run       run the inactive bank
//	commit    commit the running bank
//	abort     abort an on-going download
//	upgrade   download IMAGE, run and commit it
//
// Example:
//
//	$> xcvr-fw -bus 3 upgrade ./fw-1.2.7.bin
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-lpc/xcvr"
	"github.com/go-lpc/xcvr/cmis"
	"github.com/go-lpc/xcvr/cmis/cdb"
	"github.com/go-lpc/xcvr/internal/mmap"
	"github.com/go-lpc/xcvr/transport"
)

func main() {
	log.SetPrefix("xcvr-fw: ")
	log.SetFlags(0)

	var (
		bus     = flag.Int("bus", 0, "I2C bus of the module")
		hitless = flag.Bool("hitless", false, "run the inactive image without disrupting traffic")
		delay   = flag.Duration("delay", cdb.DefaultRunDelay, "delay before running the inactive image")
		verbose = flag.Bool("v", false, "enable verbose mode")
	)

	flag.Usage = func() {
		fmt.Printf(`xcvr-fw manages the firmware of a CMIS module through its CDB.

Usage: xcvr-fw [OPTIONS] COMMAND [IMAGE]

Commands: status, features, info, download, run, commit, abort, upgrade.

Example:

 $> xcvr-fw -bus 3 upgrade ./fw-1.2.7.bin

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing command")
	}

	msg := log.New(io.Discard, "xcvr-fw: ", 0)
	if *verbose {
		msg.SetOutput(os.Stderr)
	}

	dev, err := transport.OpenI2C(*bus, transport.Paged, msg)
	if err != nil {
		log.Fatalf("could not open module: %+v", err)
	}
	defer dev.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tool := fwtool{
		w:       os.Stdout,
		msg:     msg,
		hitless: *hitless,
		delay:   *delay,
	}
	err = tool.run(ctx, dev, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		log.Fatalf("could not run %q: %+v", flag.Arg(0), err)
	}
}

type fwtool struct {
	w       io.Writer
	msg     *log.Logger
	hitless bool
	delay   time.Duration
	opts    []cdb.Option
}

func (tool *fwtool) run(ctx context.Context, rw xcvr.ReadWriterAt, cmd string, args []string) error {
	mod, err := xcvr.Open(rw,
		xcvr.WithLogger(tool.msg),
		xcvr.WithCMIS(cmis.WithRunDelay(tool.delay)),
	)
	if err != nil {
		return fmt.Errorf("could not open transceiver: %w", err)
	}
	c, ok := mod.(*cmis.API)
	if !ok {
		return fmt.Errorf("module is not a CMIS module (%s)", mod.Family())
	}

	opts := append([]cdb.Option{cdb.WithProgress(tool.progress)}, tool.opts...)
	e, err := c.CDB(opts...)
	if err != nil {
		return fmt.Errorf("could not create CDB engine: %w", err)
	}

	switch cmd {
	case "status":
		rep, err := e.QueryStatus(ctx, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(tool.w, "status: %v (0x%02x: %s)\n", rep.Status, uint8(rep.Status), rep.Status.Cause())
		return nil

	case "features":
		mf, st, err := e.ModuleFeatures(ctx)
		if err := check("module features", st, err); err != nil {
			return err
		}
		ff, st, err := e.FwManagementFeatures(ctx)
		if err := check("firmware features", st, err); err != nil {
			return err
		}
		fmt.Fprintf(tool.w, "completion:  %v\n", mf.Completion)
		fmt.Fprintf(tool.w, "header:      %d bytes\n", ff.HeaderSize)
		fmt.Fprintf(tool.w, "write:       lpl=%v epl=%v (max epl %d bytes)\n", ff.LPL(), ff.EPL(), ff.MaxEPL)
		fmt.Fprintf(tool.w, "hitless:     %v\n", ff.Hitless)
		var ids []string
		for id := uint16(0); id < 0x100; id++ {
			if mf.Supports(id) {
				ids = append(ids, fmt.Sprintf("%04xh", id))
			}
		}
		fmt.Fprintf(tool.w, "commands:    %s\n", strings.Join(ids, " "))
		return nil

	case "info":
		info, st, err := c.FirmwareInfo(ctx, e)
		if err := check("firmware info", st, err); err != nil {
			return err
		}
		fmt.Fprintf(tool.w, "bank A: %v\n", info.A)
		fmt.Fprintf(tool.w, "bank B: %v\n", info.B)
		return nil

	case "download", "upgrade":
		if len(args) != 1 {
			return fmt.Errorf("missing firmware image")
		}
		img, err := readImage(args[0])
		if err != nil {
			return err
		}
		if cmd == "download" {
			st, err := c.FirmwareDownload(ctx, e, img)
			return check("download", st, err)
		}
		st, err := c.FirmwareUpgrade(ctx, e, img, tool.hitless)
		if err := check("upgrade", st, err); err != nil {
			return err
		}
		fmt.Fprintf(tool.w, "firmware: %v\n", c.ActiveFirmware())
		return nil

	case "run":
		st, err := c.FirmwareRun(ctx, e, tool.hitless, tool.delay)
		return check("run", st, err)

	case "commit":
		st, err := c.FirmwareCommit(ctx, e)
		return check("commit", st, err)

	case "abort":
		st, err := e.Abort(ctx, 0)
		return check("abort", st, err)
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func (tool *fwtool) progress(p cdb.Progress) {
	switch p.Phase {
	case "write":
		tool.msg.Printf("%s: %d/%d bytes", p.Phase, p.Written, p.Total)
	default:
		fmt.Fprintf(tool.w, "%s: %d/%d bytes\n", p.Phase, p.Written, p.Total)
	}
}

func check(step string, st cdb.Status, err error) error {
	if err != nil {
		return fmt.Errorf("could not %s: %w", step, err)
	}
	if err := st.Err(); err != nil {
		return fmt.Errorf("could not %s: %w", step, err)
	}
	return nil
}

func readImage(fname string) ([]byte, error) {
	f, err := mmap.Open(fname, false)
	if err != nil {
		return nil, fmt.Errorf("could not open firmware image: %w", err)
	}
	defer f.Close()

	return f.Bytes(), nil
}
