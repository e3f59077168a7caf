// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdm

import (
	"math"
)

// Format is the numeric format of an observable.
type Format uint8

const (
	U16 Format = iota // unsigned fixed-point
	S16               // signed fixed-point
	F16               // 5-bit exponent, 11-bit mantissa
)

func (f Format) String() string {
	switch f {
	case U16:
		return "U16"
	case S16:
		return "S16"
	case F16:
		return "F16"
	}
	return "Format(?)"
}

// Type describes a recognized observable type.
type Type struct {
	ID     uint8
	Name   string
	Format Format
	Scale  float64 // for U16 and S16
}

// Decode converts a raw sample.
func (t Type) Decode(raw uint16) float64 {
	switch t.Format {
	case S16:
		return float64(int16(raw)) * t.Scale
	case F16:
		return DecodeF16(raw)
	}
	return float64(raw) * t.Scale
}

// DecodeF16 decodes a F16 sample: mantissa * 10^(exponent-24).
func DecodeF16(raw uint16) float64 {
	exp := int(raw >> 11)
	mant := float64(raw & 0x7ff)
	return mant * math.Pow10(exp-24)
}

// Types holds the recognized observable types, by id.
var Types = func() map[uint8]Type {
	m := make(map[uint8]Type)
	for _, t := range []Type{
		{1, "Laser Age [%]", U16, 1},
		{2, "TEC Current [%]", S16, 100.0 / 32767},
		{3, "Laser Frequency Error [MHz]", S16, 10},
		{4, "Laser Temperature [C]", S16, 1.0 / 256},
		{5, "eSNR Media Input [dB]", U16, 1.0 / 256},
		{6, "eSNR Host Input [dB]", U16, 1.0 / 256},
		{7, "PAM4 Level Transition Parameter Media Input [dB]", U16, 1.0 / 256},
		{8, "PAM4 Level Transition Parameter Host Input [dB]", U16, 1.0 / 256},
		{9, "Pre-FEC BER Minimum Media Input", F16, 0},
		{10, "Pre-FEC BER Minimum Host Input", F16, 0},
		{11, "Pre-FEC BER Maximum Media Input", F16, 0},
		{12, "Pre-FEC BER Maximum Host Input", F16, 0},
		{13, "Pre-FEC BER Average Media Input", F16, 0},
		{14, "Pre-FEC BER Average Host Input", F16, 0},
		{15, "Pre-FEC BER Current Value Media Input", F16, 0},
		{16, "Pre-FEC BER Current Value Host Input", F16, 0},
		{17, "Errored Frames Minimum Media Input", F16, 0},
		{18, "Errored Frames Minimum Host Input", F16, 0},
		{19, "Errored Frames Maximum Media Input", F16, 0},
		{20, "Errored Frames Maximum Host Input", F16, 0},
		{21, "Errored Frames Average Media Input", F16, 0},
		{22, "Errored Frames Average Host Input", F16, 0},
		{23, "Errored Frames Current Value Media Input", F16, 0},
		{24, "Errored Frames Current Value Host Input", F16, 0},
	} {
		m[t.ID] = t
	}
	return m
}()
