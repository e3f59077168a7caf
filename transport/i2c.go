// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-daq/smbus"
	"github.com/go-lpc/xcvr/page"
)

// Mode describes how the linear offset space maps onto I2C transactions.
type Mode uint8

const (
	// Paged modules expose upper pages through the page-select byte.
	Paged Mode = iota
	// Flat modules only implement the lower page and page 00h.
	Flat
	// SFP modules expose A0h at address 0x50 (linear 0-255) and A2h at
	// address 0x51 (linear 256-511), without paging.
	SFP
)

func (m Mode) String() string {
	switch m {
	case Paged:
		return "paged"
	case Flat:
		return "flat"
	case SFP:
		return "sfp"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

const (
	addrA0 = 0x50
	addrA2 = 0x51
)

var errFlat = errors.New("transport: offset out of flat memory")

type conn interface {
	ReadReg(addr, reg uint8) (uint8, error)
	WriteReg(addr, reg, v uint8) error
	Close() error
}

var smbusOpen = smbusOpenImpl

func smbusOpenImpl(bus int, addr uint8) (conn, error) {
	c, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// I2C is a transport talking to a module over a Linux I2C/SMBus adapter.
type I2C struct {
	msg  *log.Logger
	c    conn
	mode Mode
	page int // currently selected page, -1 when unknown
}

// OpenI2C opens the module sitting on the provided I2C bus.
func OpenI2C(bus int, mode Mode, msg *log.Logger) (*I2C, error) {
	c, err := smbusOpen(bus, addrA0)
	if err != nil {
		return nil, fmt.Errorf("transport: could not open i2c bus %d: %w", bus, err)
	}
	if msg == nil {
		msg = log.New(io.Discard, "i2c: ", 0)
	}
	return &I2C{msg: msg, c: c, mode: mode, page: -1}, nil
}

// Close closes the underlying adapter.
func (dev *I2C) Close() error {
	return dev.c.Close()
}

// SetMode changes the addressing mode, typically once the memory model of
// the module has been read from its lower page.
func (dev *I2C) SetMode(m Mode) {
	dev.mode = m
	dev.page = -1
}

// locate resolves the linear offset o into a device address and register,
// selecting the right page when needed.
func (dev *I2C) locate(o int) (addr, reg uint8, n int, err error) {
	switch dev.mode {
	case SFP:
		switch {
		case o < 2*page.Size:
			return addrA0, uint8(o), 2*page.Size - o, nil
		case o < 4*page.Size:
			return addrA2, uint8(o - 2*page.Size), 4*page.Size - o, nil
		}
		return 0, 0, 0, errFlat

	case Flat:
		if o >= 2*page.Size {
			return 0, 0, 0, errFlat
		}
		return addrA0, uint8(o), 2*page.Size - o, nil
	}

	pg, a := page.Split(o)
	if a < page.Size {
		return addrA0, uint8(a), page.Size - a, nil
	}
	err = dev.selectPage(pg)
	if err != nil {
		return 0, 0, 0, err
	}
	return addrA0, uint8(a), 2*page.Size - a, nil
}

func (dev *I2C) selectPage(pg int) error {
	if dev.page == pg {
		return nil
	}
	err := dev.c.WriteReg(addrA0, page.Select, uint8(pg))
	if err != nil {
		dev.page = -1
		return fmt.Errorf("transport: could not select page 0x%02x: %w", pg, err)
	}
	dev.page = pg
	return nil
}

// ReadAt implements the io.ReaderAt interface.
func (dev *I2C) ReadAt(p []byte, off int64) (int, error) {
	n := 0
	for n < len(p) {
		addr, reg, avail, err := dev.locate(int(off) + n)
		if err != nil {
			return n, err
		}
		for i := 0; i < avail && n < len(p); i++ {
			v, err := dev.c.ReadReg(addr, reg+uint8(i))
			if err != nil {
				return n, fmt.Errorf("transport: could not read 0x%02x:0x%02x: %w", addr, reg+uint8(i), err)
			}
			p[n] = v
			n++
		}
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
func (dev *I2C) WriteAt(p []byte, off int64) (int, error) {
	n := 0
	for n < len(p) {
		addr, reg, avail, err := dev.locate(int(off) + n)
		if err != nil {
			return n, err
		}
		for i := 0; i < avail && n < len(p); i++ {
			r := reg + uint8(i)
			err := dev.c.WriteReg(addr, r, p[n])
			if err != nil {
				return n, fmt.Errorf("transport: could not write 0x%02x:0x%02x: %w", addr, r, err)
			}
			if addr == addrA0 && r == page.Select && dev.mode == Paged {
				dev.page = int(p[n])
			}
			n++
		}
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*I2C)(nil)
	_ io.WriterAt = (*I2C)(nil)
	_ io.Closer   = (*I2C)(nil)
)
