// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// xcvr-dump decodes and displays the memory map of a transceiver.
//
// Usage: xcvr-dump [OPTIONS] [FILE]
//
// Example:
//
//	$> xcvr-dump -bus 3
//	$> xcvr-dump ./testdata/qsfp-dd.bin
//	=== cmis ===
//	Identifier:     QSFP-DD Double Density 8X Pluggable Transceiver
//	Vendor:         ACME CORP.
//	Part number:    QDD-400G-DR4
//	[...]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/go-lpc/xcvr"
	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/cmis"
	"github.com/go-lpc/xcvr/cmis/vdm"
	"github.com/go-lpc/xcvr/internal/mmap"
	"github.com/go-lpc/xcvr/transport"
)

func main() {
	log.SetPrefix("xcvr-dump: ")
	log.SetFlags(0)

	var (
		bus     = flag.Int("bus", -1, "I2C bus of the module")
		doVDM   = flag.Bool("vdm", false, "dump versatile diagnostics (CMIS)")
		verbose = flag.Bool("v", false, "enable verbose mode")
	)

	flag.Usage = func() {
		fmt.Printf(`xcvr-dump decodes and displays the memory map of a transceiver.

Usage: xcvr-dump [OPTIONS] [FILE]

Example:

 $> xcvr-dump -bus 3
 $> xcvr-dump ./testdata/qsfp-dd.bin

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	msg := log.New(io.Discard, "xcvr-dump: ", 0)
	if *verbose {
		msg.SetOutput(os.Stderr)
	}

	var rw xcvr.ReadWriterAt
	switch {
	case *bus >= 0:
		dev, err := transport.OpenI2C(*bus, transport.Paged, msg)
		if err != nil {
			log.Fatalf("could not open module: %+v", err)
		}
		defer dev.Close()
		rw = dev
	case flag.NArg() == 1:
		f, err := mmap.Open(flag.Arg(0), false)
		if err != nil {
			log.Fatalf("could not open dump: %+v", err)
		}
		defer f.Close()
		rw = f
	default:
		flag.Usage()
		log.Fatalf("missing I2C bus or dump file")
	}

	err := process(os.Stdout, rw, *doVDM, msg)
	if err != nil {
		log.Fatalf("could not dump module: %+v", err)
	}
}

func process(w io.Writer, rw xcvr.ReadWriterAt, doVDM bool, msg *log.Logger) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	mod, err := xcvr.Open(rw, xcvr.WithLogger(msg))
	if err != nil {
		return fmt.Errorf("could not open transceiver: %w", err)
	}
	mod.Eeprom().RefreshCache()

	info := mod.Info()
	if info == nil {
		return fmt.Errorf("could not read identifier")
	}

	fmt.Fprintf(wbuf, "=== %s ===\n", mod.Family())
	dumpInfo(wbuf, info)

	if dom := mod.DOM(); dom != nil {
		fmt.Fprintf(wbuf, "--- diagnostics ---\n")
		dumpDOM(wbuf, dom)
	}
	if th := mod.Thresholds(); th != nil {
		fmt.Fprintf(wbuf, "--- thresholds ---\n")
		dumpThresholds(wbuf, th)
	}
	if st := mod.Status(); st != nil {
		fmt.Fprintf(wbuf, "--- status ---\n")
		dumpStatus(wbuf, st)
	}

	if c, ok := mod.(*cmis.API); ok {
		dumpCMIS(wbuf, c)
		if doVDM {
			dumpVDM(wbuf, c)
		}
	}
	return nil
}

func dumpInfo(w io.Writer, info *api.Info) {
	fmt.Fprintf(w, "Identifier:     %v\n", info.Type)
	fmt.Fprintf(w, "Revision:       %v\n", info.Revision)
	fmt.Fprintf(w, "Vendor:         %v\n", info.Vendor)
	fmt.Fprintf(w, "Vendor OUI:     %v\n", info.OUI)
	fmt.Fprintf(w, "Part number:    %v\n", info.PartNumber)
	fmt.Fprintf(w, "Vendor rev:     %v\n", info.VendorRev)
	fmt.Fprintf(w, "Serial:         %v\n", info.Serial)
	fmt.Fprintf(w, "Date code:      %v\n", info.Date)
	fmt.Fprintf(w, "Connector:      %v\n", info.Connector)
	fmt.Fprintf(w, "Compliance:     %v\n", info.Compliance)
	if info.Wavelength.OK {
		fmt.Fprintf(w, "Wavelength:     %v nm\n", info.Wavelength.V)
	}
	if info.CableLength.OK {
		fmt.Fprintf(w, "Cable length:   %v m\n", info.CableLength.V)
	}
	if info.PowerClass.OK {
		fmt.Fprintf(w, "Power class:    %v\n", info.PowerClass.V)
	}
	if info.MaxPower.OK {
		fmt.Fprintf(w, "Max power:      %v W\n", info.MaxPower.V)
	}
	if info.Firmware.OK {
		fmt.Fprintf(w, "Firmware:       %v (inactive: %v)\n", info.Firmware, info.FirmwareB)
	}
	if info.HardwareRev.OK {
		fmt.Fprintf(w, "Hardware rev:   %v\n", info.HardwareRev)
	}

	ids := make([]int, 0, len(info.Applications))
	for id := range info.Applications {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		app := info.Applications[id]
		fmt.Fprintf(w, "Application %d:  %s / %s (host=%d media=%d)\n",
			id, app.HostInterface, app.MediaInterface, app.HostLanes, app.MediaLanes,
		)
	}
}

func dumpDOM(w io.Writer, dom *api.DOM) {
	fmt.Fprintf(w, "Temperature:    %v degC\n", dom.Temperature)
	fmt.Fprintf(w, "Voltage:        %v V\n", dom.Voltage)
	for i := range dom.RxPower {
		fmt.Fprintf(w, "Lane %d:         rx=%v mW bias=%v mA tx=%v mW\n",
			i+1, dom.RxPower[i], at(dom.TxBias, i), at(dom.TxPower, i),
		)
	}
}

func at[T any](vs []api.Opt[T], i int) api.Opt[T] {
	if i < len(vs) {
		return vs[i]
	}
	return api.Opt[T]{}
}

func dumpThresholds(w io.Writer, th *api.Thresholds) {
	for _, l := range []struct {
		name string
		lim  api.Limits
	}{
		{"Temperature", th.Temperature},
		{"Voltage", th.Voltage},
		{"Rx power", th.RxPower},
		{"Tx bias", th.TxBias},
		{"Tx power", th.TxPower},
	} {
		fmt.Fprintf(w, "%-15s alarm=[%v, %v] warn=[%v, %v]\n",
			l.name+":", l.lim.LowAlarm, l.lim.HighAlarm, l.lim.LowWarn, l.lim.HighWarn,
		)
	}
}

func dumpStatus(w io.Writer, st *api.Status) {
	if st.Module.OK {
		fmt.Fprintf(w, "Module state:   %v\n", st.Module)
	}
	for i := range st.RxLOS {
		fmt.Fprintf(w, "Lane %d:         rx-los=%v tx-los=%v tx-fault=%v tx-disable=%v\n",
			i+1, st.RxLOS[i], at(st.TxLOS, i), at(st.TxFault, i), at(st.TxDisable, i),
		)
	}
}

func dumpCMIS(w io.Writer, c *cmis.API) {
	if c.FlatMemory() {
		fmt.Fprintf(w, "Memory:         flat\n")
		return
	}
	fmt.Fprintf(w, "--- datapath ---\n")
	dps := c.DatapathState()
	apps := c.ActiveApplication()
	for i := range dps {
		fmt.Fprintf(w, "Lane %d:         %v app=%v\n", i+1, dps[i], at(apps, i))
	}
	if caps, ok := c.LoopbackCapability(); ok {
		fmt.Fprintf(w, "Loopbacks:      %+v\n", caps)
	}
}

func dumpVDM(w io.Writer, c *cmis.API) {
	dec := c.VDM()
	if !dec.Supported() {
		fmt.Fprintf(w, "VDM:            not supported\n")
		return
	}
	obs := dec.Read(context.Background())
	fmt.Fprintf(w, "--- vdm (%d groups) ---\n", dec.Groups())
	for _, o := range obs {
		fmt.Fprintf(w, "Lane %d: %-40s %g%s\n", o.Lane, o.Name, o.Value, flags(o))
	}
}

func flags(o vdm.Observable) string {
	switch {
	case o.HighAlarmFlag:
		return " (high alarm)"
	case o.LowAlarmFlag:
		return " (low alarm)"
	case o.HighWarnFlag:
		return " (high warning)"
	case o.LowWarnFlag:
		return " (low warning)"
	}
	return ""
}
