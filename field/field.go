// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package field implements the declarative decoding engine for transceiver
// memory maps.
//
// A Field describes a window of bytes (offset and size in the linear
// offset space of package page) together with a decode Kind and the
// parameters of that kind. Fields are grouped into per-family Maps, built
// once when a device family is detected.
package field // import "github.com/go-lpc/xcvr/field"

import (
	"fmt"
)

// Kind describes how the bytes of a field are interpreted.
type Kind uint8

const (
	Enum     Kind = iota + 1 // byte value looked up in a code table
	Bitmap                   // first matching bit of a list of named bits
	BitValue                 // single bit, as a bool
	Func                     // numeric conversion through a Conv
	Str                      // fixed-width ASCII, trimmed
	Int                      // 1-byte (optionally masked) or big-endian multi-byte integer
	Hex                      // dash-joined raw hex
	Date                     // 8-char vendor date code
	Nested                   // sub-schema over the same window
)

func (k Kind) String() string {
	switch k {
	case Enum:
		return "enum"
	case Bitmap:
		return "bitmap"
	case BitValue:
		return "bitvalue"
	case Func:
		return "func"
	case Str:
		return "str"
	case Int:
		return "int"
	case Hex:
		return "hex"
	case Date:
		return "date"
	case Nested:
		return "nested"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Access describes whether a field may be written and how.
type Access uint8

const (
	RO  Access = iota // read-only
	RW                // writable, the whole window is replaced
	RMW               // writable, the current byte is read and merged first
)

// Bit is a named bit of a Bitmap field.
type Bit struct {
	Name string
	Byte int  // index of the byte within the field window
	Pos  uint // bit position, 0 is the LSB
	On   bool // value the bit must have to select Name
}

// Field is the declarative description of one memory-map element.
type Field struct {
	Name   string
	Offset int // linear offset
	Size   int // size in bytes
	Kind   Kind
	Access Access

	Codes  Codes    // Enum
	Bits   []Bit    // Bitmap
	Bit    uint     // BitValue
	Mask   uint8    // Enum, Int: single byte mask (0 means 0xff)
	Shift  uint     // Enum, Int: right shift applied after masking
	Signed bool     // Int
	Conv   Conv     // Func
	Fields []*Field // Nested, offsets are absolute
}

func (f *Field) String() string {
	return fmt.Sprintf("%s[%s@0x%x+%d]", f.Name, f.Kind, f.Offset, f.Size)
}

// Writable reports whether the field accepts writes.
func (f *Field) Writable() bool { return f.Access != RO }

// NeedsCurrent reports whether encoding needs the current content of the
// field window.
func (f *Field) NeedsCurrent() bool { return f.Access == RMW }

// RW marks the field as writable and returns it.
func (f *Field) RW() *Field {
	f.Access = RW
	return f
}

// RMW marks the field as read-before-write and returns it.
func (f *Field) RMW() *Field {
	f.Access = RMW
	return f
}

// NewEnum creates a 1-byte field decoded through a code table.
func NewEnum(name string, off int, codes Codes) *Field {
	return &Field{Name: name, Offset: off, Size: 1, Kind: Enum, Codes: codes}
}

// NewMaskedEnum creates a 1-byte enum field over the masked, shifted bits
// of a byte.
func NewMaskedEnum(name string, off int, mask uint8, shift uint, codes Codes) *Field {
	f := NewEnum(name, off, codes)
	f.Mask = mask
	f.Shift = shift
	return f
}

// NewBitmap creates a field returning the name of the first matching bit.
func NewBitmap(name string, off, size int, bits ...Bit) *Field {
	return &Field{Name: name, Offset: off, Size: size, Kind: Bitmap, Bits: bits}
}

// NewBit creates a single-bit boolean field.
func NewBit(name string, off int, bit uint) *Field {
	return &Field{Name: name, Offset: off, Size: 1, Kind: BitValue, Bit: bit}
}

// NewNumber creates a numeric field converted through conv.
func NewNumber(name string, off, size int, conv Conv) *Field {
	return &Field{Name: name, Offset: off, Size: size, Kind: Func, Conv: conv}
}

// NewStr creates a fixed-width ASCII field.
func NewStr(name string, off, size int) *Field {
	return &Field{Name: name, Offset: off, Size: size, Kind: Str}
}

// NewInt creates an unsigned big-endian integer field.
func NewInt(name string, off, size int) *Field {
	return &Field{Name: name, Offset: off, Size: size, Kind: Int}
}

// NewSigned creates a signed (two's complement) big-endian integer field.
func NewSigned(name string, off, size int) *Field {
	return &Field{Name: name, Offset: off, Size: size, Kind: Int, Signed: true}
}

// NewMasked creates a 1-byte integer field over the masked, shifted bits
// of a byte.
func NewMasked(name string, off int, mask uint8, shift uint) *Field {
	return &Field{Name: name, Offset: off, Size: 1, Kind: Int, Mask: mask, Shift: shift}
}

// NewHex creates a field displayed as dash-joined hex bytes.
func NewHex(name string, off, size int) *Field {
	return &Field{Name: name, Offset: off, Size: size, Kind: Hex}
}

// NewDate creates an 8-byte vendor date code field.
func NewDate(name string, off int) *Field {
	return &Field{Name: name, Offset: off, Size: 8, Kind: Date}
}

// NewGroup creates a nested field spanning all of its sub-fields.
func NewGroup(name string, fields ...*Field) *Field {
	if len(fields) == 0 {
		panic(fmt.Errorf("field: empty group %q", name))
	}
	beg := fields[0].Offset
	end := fields[0].Offset + fields[0].Size
	for _, sub := range fields[1:] {
		if sub.Offset < beg {
			beg = sub.Offset
		}
		if v := sub.Offset + sub.Size; v > end {
			end = v
		}
	}
	return &Field{Name: name, Offset: beg, Size: end - beg, Kind: Nested, Fields: fields}
}

func (f *Field) mask() uint8 {
	if f.Mask == 0 {
		return 0xff
	}
	return f.Mask
}
