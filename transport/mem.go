// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport provides byte transports for transceiver memory maps.
//
// All transports implement io.ReaderAt and io.WriterAt over the linear
// offset space of package page. Page selection, when needed, is a
// transport concern.
package transport // import "github.com/go-lpc/xcvr/transport"

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	errReadOnly = errors.New("transport: read-only memory")
)

// Mem is an in-memory memory-map image, addressed with linear offsets.
type Mem struct {
	data []byte
	ro   bool
}

// NewMem creates an in-memory image backed by data.
func NewMem(data []byte) *Mem {
	return &Mem{data: data}
}

// NewROM creates a read-only in-memory image backed by data.
func NewROM(data []byte) *Mem {
	return &Mem{data: data, ro: true}
}

// Bytes returns the underlying image.
func (m *Mem) Bytes() []byte { return m.data }

// Len returns the size of the image.
func (m *Mem) Len() int { return len(m.data) }

// ReadAt implements the io.ReaderAt interface.
func (m *Mem) ReadAt(p []byte, off int64) (int, error) {
	if m == nil {
		return 0, os.ErrInvalid
	}
	if off < 0 || int64(len(m.data)) < off {
		return 0, fmt.Errorf("transport: invalid ReadAt offset %d", off)
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
func (m *Mem) WriteAt(p []byte, off int64) (int, error) {
	if m == nil {
		return 0, os.ErrInvalid
	}
	if m.ro {
		return 0, errReadOnly
	}
	if off < 0 || int64(len(m.data)) < off {
		return 0, fmt.Errorf("transport: invalid WriteAt offset %d", off)
	}
	n := copy(m.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Mem)(nil)
	_ io.WriterAt = (*Mem)(nil)
)
