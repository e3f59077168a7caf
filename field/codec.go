// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"golang.org/x/xerrors"
)

var (
	ErrShort       = xerrors.New("field: short buffer")
	ErrReadOnly    = xerrors.New("field: read-only field")
	ErrNotWritable = xerrors.New("field: kind can not be encoded")
	ErrRange       = xerrors.New("field: value out of range")
)

// Decode interprets raw, the content of the field window, according to the
// field kind.
//
// The returned value is a string (Enum, Bitmap, Str, Hex, Date), a bool
// (BitValue), a float64 (Func), an int64 (Int) or a map[string]any (Nested).
// A nil or short buffer yields a nil value and ErrShort.
func (f *Field) Decode(raw []byte) (any, error) {
	if len(raw) < f.Size {
		return nil, ErrShort
	}
	raw = raw[:f.Size]

	switch f.Kind {
	case Enum:
		v := (raw[0] & f.mask()) >> f.Shift
		return f.Codes.Name(v), nil

	case Bitmap:
		for _, bit := range f.Bits {
			on := (raw[bit.Byte]>>bit.Pos)&1 == 1
			if on == bit.On {
				return bit.Name, nil
			}
		}
		return "", nil

	case BitValue:
		return (raw[0]>>f.Bit)&1 == 1, nil

	case Func:
		return f.Conv.Decode(raw), nil

	case Str:
		return ascii(raw), nil

	case Int:
		if f.Size == 1 {
			v := (raw[0] & f.mask()) >> f.Shift
			if f.Signed {
				return int64(int8(v)), nil
			}
			return int64(v), nil
		}
		return BigEndian(raw, f.Signed), nil

	case Hex:
		o := new(strings.Builder)
		for i, b := range raw {
			if i > 0 {
				o.WriteByte('-')
			}
			fmt.Fprintf(o, "%02x", b)
		}
		return o.String(), nil

	case Date:
		d := printable(raw)
		lot := strings.TrimSpace(string(d[6:8]))
		return fmt.Sprintf("20%s-%s-%s %s", d[0:2], d[2:4], d[4:6], lot), nil

	case Nested:
		out := make(map[string]any, len(f.Fields))
		for _, sub := range f.Fields {
			beg := sub.Offset - f.Offset
			v, err := sub.Decode(raw[beg:])
			if err != nil {
				v = nil
			}
			out[sub.Name] = v
		}
		return out, nil
	}

	return nil, xerrors.Errorf("field: %s has an invalid kind %v", f.Name, f.Kind)
}

// ascii returns the printable content of a fixed-width string field.
// Space, NUL and 0xFF padding is trimmed and any other byte outside of
// 0x20-0x7E is replaced with '?'.
func ascii(raw []byte) string {
	beg, end := 0, len(raw)
	for end > 0 && (raw[end-1] == ' ' || raw[end-1] == 0x00 || raw[end-1] == 0xff) {
		end--
	}
	for beg < end && raw[beg] == ' ' {
		beg++
	}
	return string(printable(raw[beg:end]))
}

func printable(raw []byte) []byte {
	out := make([]byte, len(raw))
	for i, c := range raw {
		if c < 0x20 || c > 0x7e {
			c = '?'
		}
		out[i] = c
	}
	return out
}

// Encode returns the raw bytes to write for value v.
//
// cur holds the current content of the field window; it is required for
// read-before-write fields and ignored otherwise.
func (f *Field) Encode(v any, cur []byte) ([]byte, error) {
	if !f.Writable() {
		return nil, xerrors.Errorf("field: could not encode %s: %w", f.Name, ErrReadOnly)
	}
	var base byte
	if f.NeedsCurrent() {
		if len(cur) < 1 {
			return nil, xerrors.Errorf("field: could not encode %s: missing current value: %w", f.Name, ErrShort)
		}
		base = cur[0]
	}

	switch f.Kind {
	case BitValue:
		on, ok := v.(bool)
		if !ok {
			n, ok := toInt(v)
			if !ok {
				return nil, xerrors.Errorf("field: could not encode %s: invalid value type %T", f.Name, v)
			}
			on = n != 0
		}
		out := base &^ (1 << f.Bit)
		if on {
			out |= 1 << f.Bit
		}
		return []byte{out}, nil

	case Int:
		n, ok := toInt(v)
		if !ok {
			return nil, xerrors.Errorf("field: could not encode %s: invalid value type %T", f.Name, v)
		}
		if lo, hi := f.bounds(); n < lo || n > hi {
			return nil, xerrors.Errorf("field: could not encode %s: %d not in [%d, %d]: %w", f.Name, n, lo, hi, ErrRange)
		}
		if f.Size == 1 {
			m := f.mask()
			return []byte{base&^m | (byte(n)<<f.Shift)&m}, nil
		}
		return PutBigEndian(n, f.Size), nil

	case Enum:
		var n int64
		switch v := v.(type) {
		case string:
			c, ok := f.Codes.Lookup(v)
			if !ok {
				return nil, xerrors.Errorf("field: could not encode %s: unknown code %q", f.Name, v)
			}
			n = int64(c)
		default:
			var ok bool
			n, ok = toInt(v)
			if !ok {
				return nil, xerrors.Errorf("field: could not encode %s: invalid value type %T", f.Name, v)
			}
		}
		if lo, hi := f.bounds(); n < lo || n > hi {
			return nil, xerrors.Errorf("field: could not encode %s: %d not in [%d, %d]: %w", f.Name, n, lo, hi, ErrRange)
		}
		m := f.mask()
		return []byte{base&^m | (uint8(n)<<f.Shift)&m}, nil

	case Func:
		x, ok := toFloat(v)
		if !ok {
			return nil, xerrors.Errorf("field: could not encode %s: invalid value type %T", f.Name, v)
		}
		out := f.Conv.Encode(x, f.Size)
		if out == nil {
			return nil, xerrors.Errorf("field: could not encode %s: %w", f.Name, ErrNotWritable)
		}
		return out, nil

	case Str:
		s, ok := v.(string)
		if !ok {
			return nil, xerrors.Errorf("field: could not encode %s: invalid value type %T", f.Name, v)
		}
		if len(s) > f.Size {
			return nil, xerrors.Errorf("field: could not encode %s: string too long (%d > %d)", f.Name, len(s), f.Size)
		}
		out := []byte(s + strings.Repeat(" ", f.Size-len(s)))
		return out, nil
	}

	return nil, xerrors.Errorf("field: could not encode %s (kind=%v): %w", f.Name, f.Kind, ErrNotWritable)
}

// bounds returns the range of the integers an Int or Enum field holds.
func (f *Field) bounds() (lo, hi int64) {
	n := 8 * f.Size
	if f.Size == 1 {
		n = bits.OnesCount8(f.mask() >> f.Shift)
	}
	signed := f.Kind == Int && f.Signed
	switch {
	case n >= 64 && signed:
		return math.MinInt64, math.MaxInt64
	case n >= 64:
		return 0, math.MaxInt64
	case signed:
		return -(1 << (n - 1)), 1<<(n-1) - 1
	}
	return 0, 1<<n - 1
}

func toInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	n, ok := toInt(v)
	return float64(n), ok
}
