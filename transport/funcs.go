// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"errors"
	"io"
)

var (
	errRead  = errors.New("transport: read failed")
	errWrite = errors.New("transport: write failed")
)

// Funcs adapts a platform driver exposing a reader/writer function pair.
//
// Read returns the length bytes at offset, or nil on failure.
// Write reports whether the length bytes of data were written at offset.
type Funcs struct {
	Read  func(offset, length int) []byte
	Write func(offset, length int, data []byte) bool
}

// ReadAt implements the io.ReaderAt interface.
func (f Funcs) ReadAt(p []byte, off int64) (int, error) {
	if f.Read == nil {
		return 0, errRead
	}
	raw := f.Read(int(off), len(p))
	if raw == nil {
		return 0, errRead
	}
	n := copy(p, raw)
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
func (f Funcs) WriteAt(p []byte, off int64) (int, error) {
	if f.Write == nil || !f.Write(int(off), len(p), p) {
		return 0, errWrite
	}
	return len(p), nil
}

var (
	_ io.ReaderAt = Funcs{}
	_ io.WriterAt = Funcs{}
)
