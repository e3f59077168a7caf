// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eeprom provides named access to the fields of a transceiver
// memory map, on top of a byte transport addressed with linear offsets.
//
// Reads never fail loudly: any I/O or decoding problem yields a nil value,
// which callers treat as "unavailable". Writes report success as a bool.
// No retries are performed at this layer.
package eeprom // import "github.com/go-lpc/xcvr/eeprom"

import (
	"io"
	"log"

	"github.com/go-lpc/xcvr/field"
)

// DefaultCacheSize is the default size of the snapshot cache: the lower
// page and the upper half of page 00h.
const DefaultCacheSize = 256

type rwer interface {
	io.ReaderAt
	io.WriterAt
}

type config struct {
	msg  *log.Logger
	size int
}

func newConfig() config {
	return config{
		msg:  log.New(io.Discard, "eeprom: ", 0),
		size: DefaultCacheSize,
	}
}

// Option configures an Eeprom.
type Option func(*config)

// WithLogger sets the logger used to report I/O failures.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithCacheSize sets the number of bytes fetched by RefreshCache.
func WithCacheSize(n int) Option {
	return func(cfg *config) {
		cfg.size = n
	}
}

// Eeprom is the field-level facade over a transceiver memory map.
//
// Eeprom is not safe for concurrent use: callers serialize all accesses
// to one device.
type Eeprom struct {
	msg *log.Logger
	rw  rwer
	m   *field.Map

	size  int
	cache []byte // snapshot of the first size bytes, nil when cleared
}

// New creates a facade reading and writing fields of m through rw.
func New(rw rwer, m *field.Map, opts ...Option) *Eeprom {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Eeprom{
		msg:  cfg.msg,
		rw:   rw,
		m:    m,
		size: cfg.size,
	}
}

// Map returns the memory map of the device.
func (ee *Eeprom) Map() *field.Map { return ee.m }

// Field returns the field named name.
func (ee *Eeprom) Field(name string) (*field.Field, bool) {
	return ee.m.Field(name)
}

// Read returns the decoded value of the named field, or nil when the field
// is unknown or could not be read or decoded.
func (ee *Eeprom) Read(name string) any {
	f, ok := ee.m.Field(name)
	if !ok {
		ee.msg.Printf("unknown field %q", name)
		return nil
	}
	raw := ee.ReadRaw(f.Offset, f.Size)
	if raw == nil {
		return nil
	}
	v, err := f.Decode(raw)
	if err != nil {
		ee.msg.Printf("could not decode %v: %+v", f, err)
		return nil
	}
	return v
}

// Write encodes v and writes it to the named field.
// Read-before-write fields read the current byte from the device first.
func (ee *Eeprom) Write(name string, v any) bool {
	f, ok := ee.m.Field(name)
	if !ok {
		ee.msg.Printf("unknown field %q", name)
		return false
	}
	var cur []byte
	if f.NeedsCurrent() {
		cur = ee.read(f.Offset, f.Size)
		if cur == nil {
			return false
		}
	}
	raw, err := f.Encode(v, cur)
	if err != nil {
		ee.msg.Printf("could not encode %v: %+v", f, err)
		return false
	}
	return ee.WriteRaw(f.Offset, raw)
}

// ReadRaw reads n bytes at linear offset off.
// The snapshot cache serves the read when it fully covers it.
// ReadRaw returns nil on failure.
func (ee *Eeprom) ReadRaw(off, n int) []byte {
	if n <= 0 || off < 0 {
		return nil
	}
	if ee.cache != nil && off+n <= len(ee.cache) {
		out := make([]byte, n)
		copy(out, ee.cache[off:off+n])
		return out
	}
	return ee.read(off, n)
}

func (ee *Eeprom) read(off, n int) []byte {
	buf := make([]byte, n)
	nn, err := ee.rw.ReadAt(buf, int64(off))
	if nn != n {
		ee.msg.Printf("could not read %d bytes at 0x%x: %+v", n, off, err)
		return nil
	}
	return buf
}

// WriteRaw writes p at linear offset off.
// A successful write invalidates the snapshot cache.
func (ee *Eeprom) WriteRaw(off int, p []byte) bool {
	if len(p) == 0 || off < 0 {
		return false
	}
	n, err := ee.rw.WriteAt(p, int64(off))
	if n != len(p) || err != nil {
		ee.msg.Printf("could not write %d bytes at 0x%x: %+v", len(p), off, err)
		return false
	}
	ee.cache = nil
	return true
}

// RefreshCache fetches a new snapshot of the device in one transaction.
func (ee *Eeprom) RefreshCache() bool {
	ee.cache = nil
	buf := ee.read(0, ee.size)
	if buf == nil {
		return false
	}
	ee.cache = buf
	return true
}

// ClearCache drops the snapshot; subsequent reads hit the device.
func (ee *Eeprom) ClearCache() { ee.cache = nil }

// Cached reports whether a snapshot is currently held.
func (ee *Eeprom) Cached() bool { return ee.cache != nil }
