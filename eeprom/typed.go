// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eeprom

// ReadInt reads an integer field.
func (ee *Eeprom) ReadInt(name string) (int64, bool) {
	v, ok := ee.Read(name).(int64)
	return v, ok
}

// ReadFloat reads a numeric field.
func (ee *Eeprom) ReadFloat(name string) (float64, bool) {
	switch v := ee.Read(name).(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// ReadString reads a string-valued field (enum, bitmap, str, hex, date).
func (ee *Eeprom) ReadString(name string) (string, bool) {
	v, ok := ee.Read(name).(string)
	return v, ok
}

// ReadBool reads a single-bit field.
func (ee *Eeprom) ReadBool(name string) (bool, bool) {
	v, ok := ee.Read(name).(bool)
	return v, ok
}

// Byte reads the single byte at linear offset off.
func (ee *Eeprom) Byte(off int) (byte, bool) {
	raw := ee.ReadRaw(off, 1)
	if raw == nil {
		return 0, false
	}
	return raw[0], true
}

// SetByte writes the single byte v at linear offset off.
func (ee *Eeprom) SetByte(off int, v byte) bool {
	return ee.WriteRaw(off, []byte{v})
}
