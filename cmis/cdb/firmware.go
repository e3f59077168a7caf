// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-lpc/xcvr/api"
)

// ModuleFeatures is the reply of the module features command.
type ModuleFeatures struct {
	Commands   [32]byte      // bitmap of the supported commands 0000h-00FFh
	Completion time.Duration // maximum completion time of a CDB command
}

// Supports reports whether command id, in 0000h-00FFh, is supported.
func (mf ModuleFeatures) Supports(id uint16) bool {
	if id > 0xff {
		return false
	}
	return mf.Commands[id/8]&(1<<(id%8)) != 0
}

// ModuleFeatures queries the CDB module features.
func (e *Engine) ModuleFeatures(ctx context.Context) (ModuleFeatures, Status, error) {
	var mf ModuleFeatures
	rep, err := e.exec(ctx, CmdModuleFeatures, nil, nil, 0)
	if err != nil || !rep.Status.Success() {
		return mf, rep.Status, err
	}
	if len(rep.Data) < 36 {
		return mf, rep.Status, fmt.Errorf("cdb: module features reply too short (%d bytes)", len(rep.Data))
	}
	copy(mf.Commands[:], rep.Data[2:34])
	mf.Completion = ms(rep.Data[34:36])
	return mf, rep.Status, nil
}

// Write mechanisms advertised by the firmware management features.
const (
	WriteLPL  = 0x01
	WriteEPL  = 0x10
	WriteBoth = 0x11
)

// FwFeatures is the reply of the firmware management features command.
type FwFeatures struct {
	HeaderSize int   // size of the vendor header sent with the start command
	ErasedByte uint8 // value of an erased byte
	MaxEPL     int   // maximum EPL block size
	Write      uint8 // write mechanism
	Read       uint8 // read mechanism
	Hitless    bool  // hitless restart supported

	StartTime    time.Duration
	AbortTime    time.Duration
	WriteTime    time.Duration
	CompleteTime time.Duration
	CopyTime     time.Duration
}

// LPL reports whether firmware blocks can be written through the local
// payload.
func (f FwFeatures) LPL() bool { return f.Write&WriteLPL != 0 }

// EPL reports whether firmware blocks can be written through the extended
// payload.
func (f FwFeatures) EPL() bool { return f.Write&WriteEPL != 0 }

// FwManagementFeatures queries the firmware management features.
func (e *Engine) FwManagementFeatures(ctx context.Context) (FwFeatures, Status, error) {
	var ff FwFeatures
	rep, err := e.exec(ctx, CmdFwMgmtFeatures, nil, nil, 0)
	if err != nil || !rep.Status.Success() {
		return ff, rep.Status, err
	}
	d := rep.Data
	if len(d) < 18 {
		return ff, rep.Status, fmt.Errorf("cdb: firmware features reply too short (%d bytes)", len(d))
	}
	// max duration coding: durations in units of 10 ms instead of 1 ms.
	unit := time.Millisecond
	if d[1]&0x08 != 0 {
		unit = 10 * time.Millisecond
	}
	ff = FwFeatures{
		HeaderSize:   int(d[2]),
		ErasedByte:   d[3],
		MaxEPL:       8 * (int(d[4]) + 1),
		Write:        d[5],
		Read:         d[6],
		Hitless:      d[7]&1 != 0,
		StartTime:    duration(d[8:10], unit),
		AbortTime:    duration(d[10:12], unit),
		WriteTime:    duration(d[12:14], unit),
		CompleteTime: duration(d[14:16], unit),
		CopyTime:     duration(d[16:18], unit),
	}
	if ff.MaxEPL > MaxEPL {
		ff.MaxEPL = MaxEPL
	}
	return ff, rep.Status, nil
}

// Image describes one firmware bank.
type Image struct {
	Version   string
	Build     uint16
	Extra     string
	Running   bool
	Committed bool
	Valid     bool
}

func (img Image) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "%s.%d", img.Version, img.Build)
	if img.Extra != "" {
		fmt.Fprintf(o, " (%s)", img.Extra)
	}
	for _, v := range []struct {
		ok   bool
		name string
	}{
		{img.Running, "running"},
		{img.Committed, "committed"},
		{img.Valid, "valid"},
	} {
		if v.ok {
			fmt.Fprintf(o, " %s", v.name)
		}
	}
	return o.String()
}

// FwInfo is the reply of the get firmware info command.
type FwInfo struct {
	A Image
	B Image
}

// FwInfo queries the firmware images of the module.
func (e *Engine) FwInfo(ctx context.Context) (FwInfo, Status, error) {
	var fi FwInfo
	rep, err := e.exec(ctx, CmdFwInfo, nil, nil, 0)
	if err != nil || !rep.Status.Success() {
		return fi, rep.Status, err
	}
	d := rep.Data
	if len(d) < 6 {
		return fi, rep.Status, fmt.Errorf("cdb: firmware info reply too short (%d bytes)", len(d))
	}
	flags := d[0]
	image := func(p []byte, shift uint) Image {
		img := Image{
			Version:   fmt.Sprintf("%d.%d", p[0], p[1]),
			Build:     binary.BigEndian.Uint16(p[2:4]),
			Running:   flags>>shift&1 != 0,
			Committed: flags>>(shift+1)&1 != 0,
			Valid:     flags>>(shift+2)&1 == 0,
		}
		if len(p) >= 36 {
			img.Extra = strings.TrimRight(string(p[4:36]), " \x00")
		}
		return img
	}
	fi.A = image(d[2:min(len(d), 38)], 0)
	if len(d) >= 42 {
		fi.B = image(d[38:min(len(d), 74)], 4)
	}
	return fi, rep.Status, nil
}

// StartDownload announces the download of an image of size bytes, starting
// with the vendor header hdr.
func (e *Engine) StartDownload(ctx context.Context, size int, hdr []byte, timeout time.Duration) (Status, error) {
	lpl := make([]byte, 8+len(hdr))
	binary.BigEndian.PutUint32(lpl[0:4], uint32(size))
	copy(lpl[8:], hdr)
	rep, err := e.exec(ctx, CmdStartDownload, lpl, nil, timeout)
	return rep.Status, err
}

// WriteLPL writes a block of at most MaxBlock image bytes at address addr,
// through the local payload.
func (e *Engine) WriteLPL(ctx context.Context, addr uint32, data []byte, timeout time.Duration) (Status, error) {
	if len(data) > MaxBlock {
		return 0, fmt.Errorf("cdb: LPL block too large (%d > %d)", len(data), MaxBlock)
	}
	lpl := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(lpl[0:4], addr)
	copy(lpl[4:], data)
	rep, err := e.exec(ctx, CmdWriteLPL, lpl, nil, timeout)
	return rep.Status, err
}

// WriteEPL writes a block of at most MaxEPL image bytes at address addr,
// through the extended payload pages.
func (e *Engine) WriteEPL(ctx context.Context, addr uint32, data []byte, timeout time.Duration) (Status, error) {
	lpl := make([]byte, 4)
	binary.BigEndian.PutUint32(lpl, addr)
	rep, err := e.exec(ctx, CmdWriteEPL, lpl, data, timeout)
	return rep.Status, err
}

// CompleteDownload ends the download: the module validates the image.
func (e *Engine) CompleteDownload(ctx context.Context, timeout time.Duration) (Status, error) {
	rep, err := e.exec(ctx, CmdCompleteDownload, nil, nil, timeout)
	return rep.Status, err
}

// Abort aborts the current download.
func (e *Engine) Abort(ctx context.Context, timeout time.Duration) (Status, error) {
	rep, err := e.exec(ctx, CmdAbortDownload, nil, nil, timeout)
	return rep.Status, err
}

// RunMode selects how an image is run.
type RunMode uint8

const (
	RunInactive        RunMode = 0 // traffic affecting reset to the inactive image
	RunInactiveHitless RunMode = 1 // attempt a hitless reset to the inactive image
	RunRunning         RunMode = 2 // traffic affecting reset to the running image
	RunRunningHitless  RunMode = 3 // attempt a hitless reset to the running image
)

// runSettle is added to the reset delay before polling a module running a
// new image.
const runSettle = 50 * time.Millisecond

// DefaultRunDelay is the reset delay used when running a freshly
// downloaded image.
const DefaultRunDelay = 512 * time.Millisecond

// Run resets the module to the image selected by mode, after delay.
// Run waits delay plus a settle time before polling the status: the module
// does not answer while it resets.
func (e *Engine) Run(ctx context.Context, mode RunMode, delay time.Duration) (Status, error) {
	dms := delay.Milliseconds()
	if dms > 0xffff {
		return 0, fmt.Errorf("cdb: run delay %v too large", delay)
	}
	cmd, err := NewCommand(CmdRunImage, []byte{0, uint8(mode), uint8(dms >> 8), uint8(dms)}, nil)
	if err != nil {
		return 0, err
	}
	if err := e.submit(cmd); err != nil {
		return 0, err
	}
	if !api.Sleep(ctx, delay+runSettle) {
		return 0, ctx.Err()
	}
	st, err := e.wait(ctx, 0)
	return st, err
}

// Commit makes the running image the boot default.
func (e *Engine) Commit(ctx context.Context, timeout time.Duration) (Status, error) {
	rep, err := e.exec(ctx, CmdCommitImage, nil, nil, timeout)
	return rep.Status, err
}

// Progress describes the state of a firmware download.
type Progress struct {
	Phase   string // "start", "write", "complete" or "done"
	Written int    // image bytes written
	Total   int    // image size
}

// Download downloads image to the inactive bank: start, block writes,
// complete. The first FwFeatures.HeaderSize bytes of the image are sent
// with the start command; the remaining bytes are written from address 0,
// through EPL blocks when the module supports them, LPL blocks otherwise.
//
// Download stops at the first unsuccessful status and returns it; no
// command is retried.
func (e *Engine) Download(ctx context.Context, image []byte) (Status, error) {
	ff, st, err := e.FwManagementFeatures(ctx)
	if err != nil || !st.Success() {
		return st, err
	}
	if ff.HeaderSize > len(image) {
		return 0, fmt.Errorf("cdb: image too short for a %d bytes header (%d bytes)", ff.HeaderSize, len(image))
	}

	total := len(image)
	e.cfg.progress(Progress{Phase: "start", Total: total})
	st, err = e.StartDownload(ctx, total, image[:ff.HeaderSize], ff.StartTime)
	if err != nil || !st.Success() {
		return st, err
	}

	var (
		body  = image[ff.HeaderSize:]
		block = MaxBlock
		write = e.WriteLPL
	)
	if ff.EPL() && (ff.MaxEPL > MaxBlock || !ff.LPL()) {
		block = ff.MaxEPL
		write = e.WriteEPL
	}

	for beg := 0; beg < len(body); beg += block {
		end := min(beg+block, len(body))
		st, err = write(ctx, uint32(beg), body[beg:end], ff.WriteTime)
		if err != nil || !st.Success() {
			e.msg.Printf("could not write block at 0x%x: %v (%s)", beg, st, st.Cause())
			return st, err
		}
		e.cfg.progress(Progress{Phase: "write", Written: ff.HeaderSize + end, Total: total})
	}

	e.cfg.progress(Progress{Phase: "complete", Written: total, Total: total})
	st, err = e.CompleteDownload(ctx, ff.CompleteTime)
	if err != nil || !st.Success() {
		return st, err
	}
	e.cfg.progress(Progress{Phase: "done", Written: total, Total: total})
	return st, nil
}

func ms(p []byte) time.Duration {
	return duration(p, time.Millisecond)
}

func duration(p []byte, unit time.Duration) time.Duration {
	return time.Duration(binary.BigEndian.Uint16(p)) * unit
}
