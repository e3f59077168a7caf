// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"fmt"

	"github.com/go-lpc/xcvr/eeprom"
)

// Float reads a numeric field.
func Float(ee *eeprom.Eeprom, name string) Opt[float64] {
	v, ok := ee.ReadFloat(name)
	return Opt[float64]{V: v, OK: ok}
}

// Int reads an integer field.
func Int(ee *eeprom.Eeprom, name string) Opt[int64] {
	v, ok := ee.ReadInt(name)
	return Opt[int64]{V: v, OK: ok}
}

// String reads a string-valued field.
func String(ee *eeprom.Eeprom, name string) Opt[string] {
	v, ok := ee.ReadString(name)
	return Opt[string]{V: v, OK: ok}
}

// Bool reads a single-bit field.
func Bool(ee *eeprom.Eeprom, name string) Opt[bool] {
	v, ok := ee.ReadBool(name)
	return Opt[bool]{V: v, OK: ok}
}

// Lanes reads the per-lane fields fmt.Sprintf(format, lane) for lanes
// 1 to n, with fct.
func Lanes[T any](ee *eeprom.Eeprom, format string, n int, fct func(*eeprom.Eeprom, string) Opt[T]) []Opt[T] {
	out := make([]Opt[T], n)
	for i := range out {
		out[i] = fct(ee, fmt.Sprintf(format, i+1))
	}
	return out
}

// ReadLimits reads the four thresholds prefix+"-high-alarm", prefix+"-low-alarm",
// prefix+"-high-warn" and prefix+"-low-warn".
func ReadLimits(ee *eeprom.Eeprom, prefix string) Limits {
	return Limits{
		HighAlarm: Float(ee, prefix+"-high-alarm"),
		LowAlarm:  Float(ee, prefix+"-low-alarm"),
		HighWarn:  Float(ee, prefix+"-high-warn"),
		LowWarn:   Float(ee, prefix+"-low-warn"),
	}
}

// Version formats a major.minor version pair read from two bytes.
func Version(raw []byte) Opt[string] {
	if len(raw) < 2 {
		return Opt[string]{}
	}
	return Some(fmt.Sprintf("%d.%d", raw[0], raw[1]))
}

// Bits returns the lanes (starting at 1) whose bits are set in v.
func Bits(v uint8) []int {
	var out []int
	for i := 0; i < 8; i++ {
		if (v>>i)&1 == 1 {
			out = append(out, i+1)
		}
	}
	return out
}
