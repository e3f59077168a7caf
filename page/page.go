// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package page implements the two-tier paged addressing of transceiver
// management memory.
//
// The first 128 bytes (the lower page) are always mapped. Bytes 128-255
// are a window onto the currently selected upper page, chosen by writing
// the page number to the page-select byte at address 127.
//
// The rest of the module flattens this layout into a linear offset space,
// the same way the Linux optoe driver does:
//
//	linear   0 - 127 : lower page
//	linear 128 - 255 : page 00h, upper half
//	linear N*128+128 - N*128+255 : page N, upper half (N >= 1)
package page // import "github.com/go-lpc/xcvr/page"

const (
	Size   = 128 // size of a page, in bytes
	Select = 127 // address of the page-select byte
	Bank   = 126 // address of the bank-select byte (CMIS)

	// MaxLanes is the number of lanes held by one CMIS bank.
	MaxLanes = 8
)

// Split converts a linear offset into a (page, address) pair, where
// address is the byte address within the 256-byte device window.
//
// Offsets below 256 live in page 0 and are addressed directly.
func Split(o int) (pg, addr int) {
	if o < 2*Size {
		return 0, o
	}
	return o/Size - 1, o%Size + Size
}

// Linear is the inverse of Split. addr is the address within the
// 256-byte device window; for pages other than 0 it must be in the upper
// half.
func Linear(pg, addr int) int {
	if pg == 0 {
		return addr
	}
	return pg*Size + addr
}

// Upper returns the linear offset of byte off (0-127) of the upper half
// of page pg.
func Upper(pg, off int) int {
	return Linear(pg, Size+off)
}

// Lower reports whether the linear offset o lives in the always-mapped
// lower page.
func Lower(o int) bool {
	return o < Size
}

// Same reports whether the n bytes starting at linear offset o can be
// accessed with a single page selection.
func Same(o, n int) bool {
	if n <= 0 {
		return true
	}
	p0, a0 := Split(o)
	p1, a1 := Split(o + n - 1)
	if p0 != p1 {
		return false
	}
	if p0 == 0 {
		return true
	}
	return a0 >= Size && a1 >= Size
}
