// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcvr

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/cmis"
	"github.com/go-lpc/xcvr/eeprom"
	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/sff8024"
	"github.com/go-lpc/xcvr/sff8472"
	"github.com/go-lpc/xcvr/sff8636"
	"github.com/go-lpc/xcvr/transport"
)

// ErrUnknownType is returned by Open for unsupported identifiers.
var ErrUnknownType = errors.New("xcvr: unknown transceiver type")

// Family is a memory map family.
type Family uint8

const (
	Unknown Family = iota
	SFF8472               // SFP
	SFF8636               // QSFP
	CMIS                  // QSFP-DD, OSFP
)

func (f Family) String() string {
	switch f {
	case SFF8472:
		return "sff8472"
	case SFF8636:
		return "sff8636"
	case CMIS:
		return "cmis"
	}
	return "unknown"
}

// Map returns the memory map of the family.
func (f Family) Map() *field.Map {
	switch f {
	case SFF8472:
		return sff8472.Map
	case SFF8636:
		return sff8636.Map
	case CMIS:
		return cmis.Map
	}
	return nil
}

// Detect returns the family of a module from its identifier byte.
func Detect(id uint8) (Family, error) {
	switch id {
	case sff8024.SFP:
		return SFF8472, nil
	case sff8024.QSFP, sff8024.QSFPPlus, sff8024.QSFP28:
		return SFF8636, nil
	case sff8024.QSFPDD, sff8024.OSFP, sff8024.QSFPCMIS:
		return CMIS, nil
	}
	return Unknown, fmt.Errorf("xcvr: identifier 0x%02x (%s): %w", id, sff8024.Identifiers.Name(id), ErrUnknownType)
}

type config struct {
	msg  *log.Logger
	size int
	cmis []cmis.Option
}

func newConfig() config {
	return config{
		msg:  log.New(io.Discard, "xcvr: ", 0),
		size: eeprom.DefaultCacheSize,
	}
}

// Option configures Open.
type Option func(*config)

// WithLogger sets the logger handed to the eeprom facade and the APIs.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithCacheSize sets the snapshot cache size of the eeprom facade.
func WithCacheSize(n int) Option {
	return func(cfg *config) {
		cfg.size = n
	}
}

// WithCMIS passes options to the CMIS API.
func WithCMIS(opts ...cmis.Option) Option {
	return func(cfg *config) {
		cfg.cmis = append(cfg.cmis, opts...)
	}
}

// ReadWriterAt is a byte transport addressed with linear offsets.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// moder is implemented by transports needing the memory model, such as
// transport.I2C.
type moder interface {
	SetMode(transport.Mode)
}

// Open reads the identifier byte of the module behind rw and returns the
// API of its family. Open fails with ErrUnknownType for unsupported
// modules.
func Open(rw ReadWriterAt, opts ...Option) (api.Transceiver, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var id [3]byte
	if _, err := rw.ReadAt(id[:], 0); err != nil {
		return nil, fmt.Errorf("xcvr: could not read identifier: %w", err)
	}
	fam, err := Detect(id[0])
	if err != nil {
		return nil, err
	}

	if m, ok := rw.(moder); ok {
		m.SetMode(modeOf(fam, id[2]))
	}

	ee := eeprom.New(rw, fam.Map(), eeprom.WithLogger(cfg.msg), eeprom.WithCacheSize(cfg.size))
	switch fam {
	case SFF8472:
		return sff8472.New(ee), nil
	case SFF8636:
		return sff8636.New(ee), nil
	default:
		opts := append([]cmis.Option{cmis.WithLogger(cfg.msg)}, cfg.cmis...)
		return cmis.New(ee, opts...), nil
	}
}

// modeOf returns the memory model of a module, given its family and its
// status byte 2.
func modeOf(fam Family, status uint8) transport.Mode {
	switch fam {
	case SFF8472:
		return transport.SFP
	case SFF8636:
		if status&0x04 != 0 {
			return transport.Flat
		}
	case CMIS:
		if status&0x80 != 0 {
			return transport.Flat
		}
	}
	return transport.Paged
}
