// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"encoding/binary"
	"math"
)

// Conv converts the raw bytes of a Func field to and from a float.
type Conv interface {
	Decode(raw []byte) float64
	// Encode returns the size-byte raw representation of v,
	// or nil when the conversion can not be inverted.
	Encode(v float64, size int) []byte
}

// Scale is a linear conversion of a big-endian integer: v = raw * Factor.
type Scale struct {
	Signed bool
	Factor float64
}

func (s Scale) Decode(raw []byte) float64 {
	return float64(BigEndian(raw, s.Signed)) * s.Factor
}

func (s Scale) Encode(v float64, size int) []byte {
	if s.Factor == 0 || size <= 0 || size > 8 {
		return nil
	}
	n := int64(math.Round(v / s.Factor))
	return PutBigEndian(n, size)
}

// ConvFunc adapts a decode-only function to the Conv interface.
type ConvFunc func(raw []byte) float64

func (f ConvFunc) Decode(raw []byte) float64 { return f(raw) }
func (ConvFunc) Encode(v float64, size int) []byte { return nil }

// Internal calibration of the standard diagnostic monitors.
var (
	Temperature = Scale{Signed: true, Factor: 1.0 / 256} // degC
	Voltage     = Scale{Factor: 1e-4}                    // V
	Bias        = Scale{Factor: 2e-3}                    // mA
	Power       = Scale{Factor: 1e-4}                    // mW
)

// MWToDBm converts a power in mW to dBm.
// MWToDBm(0) is -Inf and negative powers are NaN.
func MWToDBm(mw float64) float64 {
	switch {
	case mw == 0:
		return math.Inf(-1)
	case mw < 0:
		return math.NaN()
	}
	return 10 * math.Log10(mw)
}

// DBmToMW converts a power in dBm to mW.
func DBmToMW(dbm float64) float64 {
	return math.Pow(10, dbm/10)
}

// Calib holds the slope and offset of an externally calibrated monitor.
// The calibrated value, in the units of the raw reading, is
// Slope*raw + Offset.
type Calib struct {
	Slope  float64
	Offset float64
}

// NewCalib decodes a 2-byte unsigned fixed-point (8.8) slope and a 2-byte
// signed offset.
func NewCalib(slope, offset []byte) (Calib, bool) {
	if len(slope) < 2 || len(offset) < 2 {
		return Calib{}, false
	}
	return Calib{
		Slope:  float64(binary.BigEndian.Uint16(slope)) / 256,
		Offset: float64(int16(binary.BigEndian.Uint16(offset))),
	}, true
}

// Apply returns the calibrated raw reading.
func (c Calib) Apply(raw float64) float64 {
	return c.Slope*raw + c.Offset
}

// Poly holds the coefficients of the 4th order Rx power calibration
// polynomial, Poly[i] being the coefficient of raw^i.
type Poly [5]float64

// NewPoly decodes 5 big-endian IEEE-754 single precision coefficients,
// highest order first, as laid out in the memory map.
func NewPoly(raw []byte) (Poly, bool) {
	var p Poly
	if len(raw) < 20 {
		return p, false
	}
	for i := 0; i < 5; i++ {
		v := math.Float32frombits(binary.BigEndian.Uint32(raw[4*i:]))
		p[4-i] = float64(v)
	}
	return p, true
}

// Apply evaluates the polynomial at raw.
func (p Poly) Apply(raw float64) float64 {
	var (
		v float64
		x = 1.0
	)
	for _, c := range p {
		v += c * x
		x *= raw
	}
	return v
}

// BigEndian decodes up to 8 bytes as a big-endian integer.
func BigEndian(raw []byte, signed bool) int64 {
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	n := uint(len(raw)) * 8
	if signed && n > 0 && n < 64 && v&(1<<(n-1)) != 0 {
		return int64(v) - int64(1)<<n
	}
	return int64(v)
}

// PutBigEndian encodes the low size bytes of v, big-endian.
func PutBigEndian(v int64, size int) []byte {
	out := make([]byte, size)
	u := uint64(v)
	for i := size - 1; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return out
}
