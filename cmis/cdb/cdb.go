// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cdb implements the CMIS Command Data Block (CDB) protocol: command
// framing, status polling and the firmware management commands.
//
// Commands are submitted through page 9Fh, instance 1. Protocol failures
// are reported as Status values; Go errors are reserved for cancelled
// contexts, I/O failures and malformed commands or replies.
package cdb // import "github.com/go-lpc/xcvr/cmis/cdb"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/eeprom"
	"github.com/go-lpc/xcvr/page"
)

const (
	pageCDB = 0x9f
	pageEPL = 0xa0

	flatOff      = 2  // lower page, bit 7: flat memory
	statusOff    = 37 // lower page, CDB instance 1 status
	cmdOff       = 128
	replyLenOff  = 134
	replyChkOff  = 135
	replyDataOff = 136
)

var (
	// ErrUnsupported is returned by New for modules without CDB support.
	ErrUnsupported = errors.New("cdb: module does not support CDB")

	errNoStatus   = errors.New("cdb: could not read status")
	errWrite      = errors.New("cdb: could not write command")
	errReply      = errors.New("cdb: could not read reply")
	errReplyCheck = errors.New("cdb: invalid reply check code")
)

type config struct {
	msg      *log.Logger
	retries  int
	delay    time.Duration
	autoPage bool
	progress func(Progress)
}

func newConfig() config {
	return config{
		msg:      log.New(io.Discard, "cdb: ", 0),
		retries:  500,
		delay:    10 * time.Millisecond,
		autoPage: true,
		progress: func(Progress) {},
	}
}

// Option configures an Engine.
type Option func(*config)

// WithLogger sets the logger of the engine.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithPollRetries sets the minimum number of status polls of a command.
func WithPollRetries(n int) Option {
	return func(cfg *config) {
		cfg.retries = n
	}
}

// WithPollDelay sets the delay between two status polls.
func WithPollDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.delay = d
	}
}

// WithAutoPaging controls whether EPL payloads are written in a single
// transfer across pages A0h-AFh (the default) or one page at a time.
func WithAutoPaging(v bool) Option {
	return func(cfg *config) {
		cfg.autoPage = v
	}
}

// WithProgress registers a callback reporting firmware download progress.
func WithProgress(f func(Progress)) Option {
	return func(cfg *config) {
		cfg.progress = f
	}
}

// Engine submits CDB commands to a CMIS module.
//
// Engine is not safe for concurrent use.
type Engine struct {
	msg *log.Logger
	ee  *eeprom.Eeprom
	cfg config
}

// New creates a CDB engine for the CMIS module behind ee.
// New fails with ErrUnsupported when the module is flat or advertises no
// CDB instance.
func New(ee *eeprom.Eeprom, opts ...Option) (*Engine, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	flat := ee.ReadRaw(flatOff, 1)
	if flat == nil {
		return nil, fmt.Errorf("cdb: could not read memory model: %w", errNoStatus)
	}
	if flat[0]&0x80 != 0 {
		return nil, ErrUnsupported
	}
	// page 01h, byte 163, bits 7-6: number of CDB instances.
	inst := ee.ReadRaw(page.Upper(0x01, 35), 1)
	if inst == nil {
		return nil, fmt.Errorf("cdb: could not read CDB advertisement: %w", errNoStatus)
	}
	if inst[0]>>6 == 0 {
		return nil, ErrUnsupported
	}

	return &Engine{msg: cfg.msg, ee: ee, cfg: cfg}, nil
}

// Reply is the outcome of a command.
type Reply struct {
	Status Status
	Data   []byte // reply payload, read from 9Fh:136
}

// Status reads the CDB status register.
func (e *Engine) Status() (Status, bool) {
	e.ee.ClearCache()
	raw := e.ee.ReadRaw(statusOff, 1)
	if raw == nil {
		return 0, false
	}
	return Status(raw[0]), true
}

// Exec submits cmd and waits for its completion.
//
// The extended payload, then the header tail and the local payload are
// written first; the 2-byte command id at 9Fh:128 is written last and
// triggers the command. Status is polled at least the configured number of
// times, and for at most timeout when that is longer.
func (e *Engine) Exec(ctx context.Context, cmd Command, timeout time.Duration) (Reply, error) {
	if len(cmd.LPL) > MaxLPL || len(cmd.EPL) > MaxEPL {
		return Reply{}, fmt.Errorf("cdb: malformed command %v", cmd)
	}
	if err := e.submit(cmd); err != nil {
		return Reply{}, err
	}

	st, err := e.wait(ctx, timeout)
	if err != nil {
		return Reply{Status: st}, err
	}
	if !st.Success() {
		e.msg.Printf("command 0x%04x: %v (%s)", cmd.ID, st, st.Cause())
		return Reply{Status: st}, nil
	}

	data, err := e.reply()
	if err != nil {
		return Reply{Status: st}, fmt.Errorf("cdb: command 0x%04x: %w", cmd.ID, err)
	}
	return Reply{Status: st, Data: data}, nil
}

func (e *Engine) submit(cmd Command) error {
	if len(cmd.EPL) > 0 {
		if err := e.writeEPL(cmd.EPL); err != nil {
			return err
		}
	}
	frame := cmd.Frame()
	off := page.Upper(pageCDB, 0)
	if !e.ee.WriteRaw(off+2, frame[2:]) {
		return fmt.Errorf("cdb: could not write payload of command 0x%04x: %w", cmd.ID, errWrite)
	}
	if !e.ee.WriteRaw(off, frame[:2]) {
		return fmt.Errorf("cdb: could not trigger command 0x%04x: %w", cmd.ID, errWrite)
	}
	return nil
}

func (e *Engine) writeEPL(p []byte) error {
	off := page.Upper(pageEPL, 0)
	if e.cfg.autoPage {
		if !e.ee.WriteRaw(off, p) {
			return fmt.Errorf("cdb: could not write EPL: %w", errWrite)
		}
		return nil
	}
	for beg := 0; beg < len(p); beg += page.Size {
		end := beg + page.Size
		if end > len(p) {
			end = len(p)
		}
		if !e.ee.WriteRaw(off+beg, p[beg:end]) {
			return fmt.Errorf("cdb: could not write EPL page 0x%02x: %w", pageEPL+beg/page.Size, errWrite)
		}
	}
	return nil
}

// wait polls the status register until the module is not busy.
// Unreadable status counts as busy: modules may not answer while
// processing a command.
func (e *Engine) wait(ctx context.Context, timeout time.Duration) (Status, error) {
	n := e.cfg.retries
	if e.cfg.delay > 0 {
		if m := int(timeout/e.cfg.delay) + 1; m > n {
			n = m
		}
	}
	if n < 1 {
		n = 1
	}

	var (
		st Status
		ok bool
	)
	for i := 0; i < n; i++ {
		st, ok = e.Status()
		if ok && !st.Busy() {
			return st, nil
		}
		if i == n-1 {
			break
		}
		if !api.Sleep(ctx, e.cfg.delay) {
			return st, ctx.Err()
		}
	}
	if !ok {
		return st, errNoStatus
	}
	e.msg.Printf("command still busy after %d polls: %s", n, st.Cause())
	return st, nil
}

func (e *Engine) reply() ([]byte, error) {
	hdr := e.ee.ReadRaw(page.Upper(pageCDB, replyLenOff-cmdOff), 2)
	if hdr == nil {
		return nil, errReply
	}
	n := int(hdr[0])
	if n == 0 {
		return nil, nil
	}
	if n > MaxLPL {
		return nil, fmt.Errorf("cdb: reply length %d too large: %w", n, errReply)
	}
	data := e.ee.ReadRaw(page.Upper(pageCDB, replyDataOff-cmdOff), n)
	if data == nil {
		return nil, errReply
	}
	if Checksum(data) != hdr[1] {
		return nil, fmt.Errorf("cdb: reply check code 0x%02x, want 0x%02x: %w", hdr[1], Checksum(data), errReplyCheck)
	}
	return data, nil
}

// exec builds and runs a command.
func (e *Engine) exec(ctx context.Context, id uint16, lpl, epl []byte, timeout time.Duration) (Reply, error) {
	cmd, err := NewCommand(id, lpl, epl)
	if err != nil {
		return Reply{}, err
	}
	return e.Exec(ctx, cmd, timeout)
}

// QueryStatus runs the query status command, with the given response
// delay in milliseconds. It returns the status and the reply, whose first
// byte is the password status.
func (e *Engine) QueryStatus(ctx context.Context, delay uint16) (Reply, error) {
	return e.exec(ctx, CmdQueryStatus, []byte{uint8(delay >> 8), uint8(delay)}, nil, 0)
}
