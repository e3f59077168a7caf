// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eeprom

import (
	"errors"
	"testing"

	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter counts the transport transactions and optionally fails them.
type counter struct {
	mem    *transport.Mem
	reads  int
	writes int
	fail   bool
}

func (c *counter) ReadAt(p []byte, off int64) (int, error) {
	c.reads++
	if c.fail {
		return 0, errors.New("i/o error")
	}
	return c.mem.ReadAt(p, off)
}

func (c *counter) WriteAt(p []byte, off int64) (int, error) {
	c.writes++
	if c.fail {
		return 0, errors.New("i/o error")
	}
	return c.mem.WriteAt(p, off)
}

var testMap = field.NewMap("test",
	field.NewEnum("id", 0, field.Codes{0x18: "QSFP-DD"}),
	field.NewNumber("temp", 14, 2, field.Temperature),
	field.NewBit("sw-reset", 26, 3).RMW(),
	field.NewStr("vendor", 129, 4),
	field.NewInt("page-byte", 0x10*128+130, 1).RW(),
)

func newTestEeprom() (*Eeprom, *counter) {
	img := make([]byte, 0x20*128)
	img[0] = 0x18
	img[14] = 0x19
	img[26] = 0x10
	copy(img[129:], "ACME")
	c := &counter{mem: transport.NewMem(img)}
	return New(c, testMap), c
}

func TestRead(t *testing.T) {
	ee, _ := newTestEeprom()
	assert.Equal(t, "QSFP-DD", ee.Read("id"))
	assert.Nil(t, ee.Read("not-there"))

	v, ok := ee.ReadFloat("temp")
	require.True(t, ok)
	assert.Equal(t, 25.0, v)

	s, ok := ee.ReadString("vendor")
	require.True(t, ok)
	assert.Equal(t, "ACME", s)

	_, ok = ee.ReadInt("vendor")
	assert.False(t, ok)

	b, ok := ee.ReadBool("sw-reset")
	require.True(t, ok)
	assert.False(t, b)
}

func TestReadFailure(t *testing.T) {
	ee, c := newTestEeprom()
	c.fail = true
	assert.Nil(t, ee.Read("id"))
	assert.Nil(t, ee.ReadRaw(0, 1))
	assert.False(t, ee.RefreshCache())
	assert.False(t, ee.Write("page-byte", 1))
	_, ok := ee.Byte(0)
	assert.False(t, ok)
}

func TestWrite(t *testing.T) {
	ee, c := newTestEeprom()

	require.True(t, ee.Write("sw-reset", true))
	assert.Equal(t, byte(0x18), c.mem.Bytes()[26])

	require.True(t, ee.Write("page-byte", 0x42))
	v, ok := ee.ReadInt("page-byte")
	require.True(t, ok)
	assert.Equal(t, int64(0x42), v)

	w := c.writes
	assert.False(t, ee.Write("page-byte", 0x142), "out of range")
	assert.Equal(t, w, c.writes)
	v, ok = ee.ReadInt("page-byte")
	require.True(t, ok)
	assert.Equal(t, int64(0x42), v)

	assert.False(t, ee.Write("id", 0x11), "read-only field")
	assert.False(t, ee.Write("nope", 1))
	assert.False(t, ee.WriteRaw(0, nil))

	require.True(t, ee.SetByte(3, 0x07))
	b, ok := ee.Byte(3)
	require.True(t, ok)
	assert.Equal(t, byte(0x07), b)
}

func TestCache(t *testing.T) {
	ee, c := newTestEeprom()
	require.True(t, ee.RefreshCache())
	require.True(t, ee.Cached())
	reads := c.reads

	for i := 0; i < 10; i++ {
		assert.Equal(t, "QSFP-DD", ee.Read("id"))
		assert.Equal(t, "ACME", ee.Read("vendor"))
	}
	assert.Equal(t, reads, c.reads)

	// outside the snapshot.
	_, _ = ee.ReadInt("page-byte")
	assert.Equal(t, reads+1, c.reads)

	// writes invalidate the snapshot.
	require.True(t, ee.SetByte(0, 0x19))
	assert.False(t, ee.Cached())
	assert.Equal(t, field.Unknown, ee.Read("id"))

	require.True(t, ee.RefreshCache())
	ee.ClearCache()
	assert.False(t, ee.Cached())
	reads = c.reads
	_ = ee.Read("id")
	assert.Equal(t, reads+1, c.reads)
}

func TestCacheSize(t *testing.T) {
	c := &counter{mem: transport.NewMem(make([]byte, 64))}
	ee := New(c, testMap, WithCacheSize(64))
	require.True(t, ee.RefreshCache())
	assert.NotNil(t, ee.ReadRaw(0, 64))
	assert.Nil(t, ee.ReadRaw(60, 8))
	assert.Same(t, testMap, ee.Map())
	_, ok := ee.Field("temp")
	assert.True(t, ok)
}
