// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// xcvr-mon polls a table of transceiver ports and records their
// diagnostics.
//
// Usage: xcvr-mon [OPTIONS] -cfg PORTS.yaml
//
//	xcvr-mon [OPTIONS] -dump RECORDS.cbor
//
// Example:
//
//	$> xcvr-mon -cfg ./ports.yaml
//	$> xcvr-mon -dump ./xcvr-mon.cbor -port eth0
//	2026-10-17T08:30:00Z eth0   #0     sff8472 temp=25 rx=[0.1] alarms=[]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/monitor"
	"github.com/sbinet/pmon"
)

const defaultOutput = "xcvr-mon.cbor"

func main() {
	log.SetPrefix("xcvr-mon: ")
	log.SetFlags(0)

	var (
		cfg     = flag.String("cfg", "", "path to the YAML port table")
		dump    = flag.String("dump", "", "path to a records file to display")
		port    = flag.String("port", "", "only display records of this port")
		doMon   = flag.Bool("pmon", false, "enable pmon monitoring of xcvr-mon")
		doFreq  = flag.Duration("freq", 1*time.Second, "pmon frequency")
		verbose = flag.Bool("v", false, "enable verbose mode")
	)

	flag.Usage = func() {
		fmt.Printf(`xcvr-mon polls a table of transceiver ports and records their diagnostics.

Usage: xcvr-mon [OPTIONS] -cfg PORTS.yaml
       xcvr-mon [OPTIONS] -dump RECORDS.cbor

Example:

 $> xcvr-mon -cfg ./ports.yaml
 $> xcvr-mon -dump ./xcvr-mon.cbor -port eth0

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	switch {
	case *dump != "":
		f, err := os.Open(*dump)
		if err != nil {
			log.Fatalf("could not open records file: %+v", err)
		}
		defer f.Close()

		err = display(os.Stdout, f, *port)
		if err != nil {
			log.Fatalf("could not display records: %+v", err)
		}
		return

	case *cfg == "":
		flag.Usage()
		log.Fatalf("missing path to port table")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *doMon {
		kill, err := startPmon(*cfg, *doFreq)
		if err != nil {
			log.Fatalf("could not start pmon: %+v", err)
		}
		defer func() {
			err := kill()
			if err != nil {
				log.Printf("could not stop pmon: %+v", err)
			}
		}()
	}

	msg := log.New(io.Discard, "xcvr-mon: ", 0)
	if *verbose {
		msg = log.New(os.Stderr, "xcvr-mon: ", 0)
	}

	err := run(ctx, *cfg, msg)
	if err != nil {
		log.Fatalf("could not run monitor: %+v", err)
	}
}

func run(ctx context.Context, fname string, msg *log.Logger) error {
	cfg, err := monitor.LoadConfigFile(fname)
	if err != nil {
		return err
	}

	oname := cfg.Output
	if oname == "" {
		oname = defaultOutput
	}
	f, err := os.OpenFile(oname, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()

	wbuf := bufio.NewWriter(f)
	mon, err := monitor.New(cfg, monitor.NewWriter(wbuf), monitor.WithLogger(msg))
	if err != nil {
		return fmt.Errorf("could not create monitor: %w", err)
	}

	log.Printf("monitoring %d port(s) every %v...", len(cfg.Ports), cfg.Interval)
	err = mon.Run(ctx)
	if err != nil {
		_ = wbuf.Flush()
		return err
	}

	err = wbuf.Flush()
	if err != nil {
		return fmt.Errorf("could not flush records: %w", err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}
	return nil
}

// startPmon monitors the resources used by xcvr-mon and returns the
// function stopping the monitoring.
func startPmon(cfg string, freq time.Duration) (func() error, error) {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		return nil, fmt.Errorf("could not start monitoring xcvr-mon (pid=%d): %w", os.Getpid(), err)
	}
	name := filepath.Join(filepath.Dir(cfg), "xcvr-mon-pmon.log")
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		defer f.Close()
		log.Printf("run pmon (log: %q)...", name)
		err := p.Run()
		if err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()
	return p.Kill, nil
}

func display(w io.Writer, r io.Reader, port string) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	dec := monitor.NewReader(r, port)
	for {
		rec, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		fmt.Fprintf(wbuf, "%s %-6s #%-5d %-7s", rec.Time.Format(time.RFC3339), rec.Port, rec.Seq, rec.Family)
		if rec.Err != "" {
			fmt.Fprintf(wbuf, " error=%q\n", rec.Err)
			continue
		}
		if rec.DOM != nil {
			fmt.Fprintf(wbuf, " temp=%v rx=%v", rec.DOM.Temperature, values(rec.DOM.RxPower))
		}
		fmt.Fprintf(wbuf, " alarms=%q\n", rec.Alarms)
	}
}

func values(vs []api.Opt[float64]) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
