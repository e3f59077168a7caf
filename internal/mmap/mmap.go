// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap provides memory-mapped files, used to access firmware
// images and EEPROM dumps.
package mmap // import "github.com/go-lpc/xcvr/internal/mmap"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed   = errors.New("mmap: closed")
	errReadOnly = errors.New("mmap: read-only mapping")
	errEmpty    = errors.New("mmap: empty file")
)

// Handle is a memory-mapped file.
type Handle struct {
	data []byte
	rw   bool
}

// Open maps the whole file name in memory. When rw is set, the file is
// mapped shared and writes go through to it.
func Open(name string, rw bool) (*Handle, error) {
	flag := os.O_RDONLY
	prot := unix.PROT_READ
	if rw {
		flag = os.O_RDWR
		prot |= unix.PROT_WRITE
	}

	f, err := os.OpenFile(name, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not open %q: %w", name, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mmap: could not stat %q: %w", name, err)
	}
	size := fi.Size()
	if size == 0 {
		return nil, fmt.Errorf("mmap: could not map %q: %w", name, errEmpty)
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap: file %q too large (%d bytes)", name, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not map %q: %w", name, err)
	}
	h := HandleFrom(data)
	h.rw = rw
	return h, nil
}

// HandleFrom wraps an existing read-only mapping.
func HandleFrom(data []byte) *Handle {
	h := &Handle{data: data}
	runtime.SetFinalizer(h, (*Handle).Close)
	return h
}

// Close closes the mmap handle.
func (h *Handle) Close() error {
	if h == nil {
		return os.ErrInvalid
	}

	if h.data == nil {
		return nil
	}
	data := h.data
	h.data = nil
	runtime.SetFinalizer(h, nil)

	return unix.Munmap(data)
}

// Len returns the length of the underlying memory-mapped file.
func (h *Handle) Len() int {
	return len(h.data)
}

// Bytes returns a copy of the mapped content.
func (h *Handle) Bytes() []byte {
	return append([]byte(nil), h.data...)
}

// ReadAt implements the io.ReaderAt interface.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if h == nil {
		return 0, os.ErrInvalid
	}

	if h.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(h.data)) < off {
		return 0, fmt.Errorf("mmap: invalid ReadAt offset %d", off)
	}
	n := copy(p, h.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
// WriteAt fails on read-only mappings.
func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	if h == nil {
		return 0, os.ErrInvalid
	}

	if h.data == nil {
		return 0, errClosed
	}
	if !h.rw {
		return 0, errReadOnly
	}
	if off < 0 || int64(len(h.data)) < off {
		return 0, fmt.Errorf("mmap: invalid WriteAt offset %d", off)
	}
	n := copy(h.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Handle)(nil)
	_ io.WriterAt = (*Handle)(nil)
	_ io.Closer   = (*Handle)(nil)
)
