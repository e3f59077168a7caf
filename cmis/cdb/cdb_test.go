// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/go-lpc/xcvr/eeprom"
	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/page"
	"github.com/go-lpc/xcvr/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// device emulates the CDB side of a CMIS module.
type device struct {
	*transport.Mem

	writes []int    // offsets of the writes, in order
	cmds   []uint16 // triggered commands
	epl    [][]byte // EPL content at trigger time, for EPL writes
	lpl    [][]byte // LPL content at trigger time
	busy   int      // number of busy status reads after a trigger
	handle func(id uint16, lpl []byte) (Status, []byte)
}

func newDevice() *device {
	buf := make([]byte, page.Upper(0xaf, 127)+1)
	buf[page.Upper(0x01, 35)] = 0x40 // one CDB instance
	dev := &device{Mem: transport.NewMem(buf)}
	dev.handle = func(uint16, []byte) (Status, []byte) { return 0x01, nil }
	return dev
}

func (dev *device) WriteAt(p []byte, off int64) (int, error) {
	n, err := dev.Mem.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	dev.writes = append(dev.writes, int(off))
	if int(off) == page.Upper(pageCDB, 0) && len(p) == 2 {
		dev.trigger()
	}
	return n, nil
}

func (dev *device) ReadAt(p []byte, off int64) (int, error) {
	if int(off) == statusOff && dev.busy > 0 {
		dev.busy--
		p[0] = 0x83
		return 1, nil
	}
	return dev.Mem.ReadAt(p, off)
}

func (dev *device) trigger() {
	buf := dev.Bytes()
	off := page.Upper(pageCDB, 0)
	hdr := buf[off : off+HeaderLen]
	id := binary.BigEndian.Uint16(hdr[0:2])
	eplLen := int(binary.BigEndian.Uint16(hdr[2:4]))
	lpl := append([]byte(nil), buf[off+HeaderLen:off+HeaderLen+int(hdr[4])]...)
	dev.cmds = append(dev.cmds, id)
	dev.lpl = append(dev.lpl, lpl)
	if id == CmdWriteEPL {
		beg := page.Upper(pageEPL, 0)
		dev.epl = append(dev.epl, append([]byte(nil), buf[beg:beg+eplLen]...))
	}

	if Checksum(buf[off:off+HeaderLen+int(hdr[4])]) != 0 {
		buf[statusOff] = 0x45
		return
	}
	st, reply := dev.handle(id, lpl)
	buf[statusOff] = uint8(st)
	buf[off+replyLenOff-cmdOff] = uint8(len(reply))
	buf[off+replyChkOff-cmdOff] = Checksum(reply)
	copy(buf[off+replyDataOff-cmdOff:], reply)
}

func newEngine(t *testing.T, dev *device, opts ...Option) *Engine {
	t.Helper()
	ee := eeprom.New(dev, field.NewMap("test", field.NewInt("id", 0, 1)))
	opts = append([]Option{WithPollDelay(time.Microsecond), WithPollRetries(10)}, opts...)
	e, err := New(ee, opts...)
	require.NoError(t, err)
	return e
}

func TestChecksum(t *testing.T) {
	cmd, err := NewCommand(CmdQueryStatus, []byte{0x00, 0x10}, nil)
	require.NoError(t, err)
	frame := cmd.Frame()
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x02, 0xed, 0x00, 0x00, 0x00, 0x10}, frame)

	for _, tc := range []struct {
		id  uint16
		lpl []byte
		epl []byte
	}{
		{CmdFwInfo, nil, nil},
		{CmdWriteLPL, bytes.Repeat([]byte{0xa5}, 120), nil},
		{CmdWriteEPL, []byte{0, 0, 1, 0}, make([]byte, 2048)},
		{CmdRunImage, []byte{0, 1, 0x01, 0xf4}, nil},
	} {
		cmd, err := NewCommand(tc.id, tc.lpl, tc.epl)
		require.NoError(t, err)
		assert.Equal(t, byte(0), Checksum(cmd.Frame()), "cmd=%v", cmd)
	}
}

func TestNewCommand(t *testing.T) {
	_, err := NewCommand(CmdWriteLPL, make([]byte, MaxLPL+1), nil)
	assert.Error(t, err)
	_, err = NewCommand(CmdWriteEPL, nil, make([]byte, MaxEPL+1))
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	for _, tc := range []struct {
		st    Status
		str   string
		cause string
	}{
		{0x01, "Success", "Command completed successfully"},
		{0x03, "Success", "Previous command was aborted"},
		{0x00, "Idle", "No command issued"},
		{0x81, "Busy", "Command captured but not processed"},
		{0x83, "Busy", "Command execution in progress"},
		{0x45, "Failed", "Check code error"},
		{0x5f, "Failed", "Unknown"},
	} {
		t.Run(tc.str, func(t *testing.T) {
			assert.Equal(t, tc.str, tc.st.String())
			assert.Equal(t, tc.cause, tc.st.Cause())
			assert.Equal(t, tc.st.Success(), tc.st.Err() == nil)
		})
	}
}

func TestNew(t *testing.T) {
	dev := newDevice()
	dev.Bytes()[page.Upper(0x01, 35)] = 0
	ee := eeprom.New(dev, field.NewMap("test", field.NewInt("id", 0, 1)))
	_, err := New(ee)
	assert.True(t, errors.Is(err, ErrUnsupported))

	dev = newDevice()
	dev.Bytes()[flatOff] = 0x80
	ee = eeprom.New(dev, field.NewMap("test", field.NewInt("id", 0, 1)))
	_, err = New(ee)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestQueryStatus(t *testing.T) {
	dev := newDevice()
	dev.busy = 3
	dev.handle = func(id uint16, lpl []byte) (Status, []byte) {
		return 0x01, []byte{0x00}
	}
	e := newEngine(t, dev)

	rep, err := e.QueryStatus(context.Background(), 0x10)
	require.NoError(t, err)
	assert.True(t, rep.Status.Success())
	assert.Equal(t, "Success", rep.Status.String())
	assert.Equal(t, []byte{0x00}, rep.Data)
	assert.Equal(t, []uint16{CmdQueryStatus}, dev.cmds)

	off := page.Upper(pageCDB, 0)
	// payload first, trigger last.
	assert.Equal(t, []int{off + 2, off}, dev.writes)
	assert.Equal(t, byte(0xed), dev.Bytes()[off+5])
}

func TestExecBusy(t *testing.T) {
	dev := newDevice()
	dev.busy = 1000
	e := newEngine(t, dev)

	rep, err := e.QueryStatus(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, rep.Status.Busy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.QueryStatus(ctx, 0)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecFailure(t *testing.T) {
	dev := newDevice()
	dev.handle = func(uint16, []byte) (Status, []byte) { return 0x42, nil }
	e := newEngine(t, dev)

	st, err := e.Commit(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, st.Failed())
	assert.Equal(t, "Parameter range error or not supported", st.Cause())
	assert.Error(t, st.Err())
}

func TestReplyCheck(t *testing.T) {
	dev := newDevice()
	dev.handle = func(uint16, []byte) (Status, []byte) { return 0x01, []byte{1, 2, 3} }
	e := newEngine(t, dev)

	_, _, err := e.FwInfo(context.Background())
	assert.Error(t, err) // too short

	cmd, err := NewCommand(CmdFwInfo, nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.submit(cmd))
	dev.Bytes()[page.Upper(pageCDB, replyChkOff-cmdOff)] ^= 0xff
	_, err = e.reply()
	assert.True(t, errors.Is(err, errReplyCheck))
}

func fwFeatures(hdr, eplExt, mech byte) []byte {
	d := make([]byte, 18)
	d[2] = hdr
	d[3] = 0xff
	d[4] = eplExt
	d[5] = mech
	binary.BigEndian.PutUint16(d[14:16], 100)
	return d
}

func TestFwManagementFeatures(t *testing.T) {
	dev := newDevice()
	dev.handle = func(id uint16, _ []byte) (Status, []byte) {
		return 0x01, fwFeatures(16, 0xff, WriteBoth)
	}
	e := newEngine(t, dev)

	ff, st, err := e.FwManagementFeatures(context.Background())
	require.NoError(t, err)
	require.True(t, st.Success())
	assert.Equal(t, 16, ff.HeaderSize)
	assert.Equal(t, MaxEPL, ff.MaxEPL)
	assert.True(t, ff.LPL())
	assert.True(t, ff.EPL())
	assert.Equal(t, 100*time.Millisecond, ff.CompleteTime)

	dev.handle = func(id uint16, _ []byte) (Status, []byte) {
		d := fwFeatures(16, 0xff, WriteBoth)
		d[1] = 0x08
		binary.BigEndian.PutUint16(d[8:10], 30)
		binary.BigEndian.PutUint16(d[12:14], 2)
		return 0x01, d
	}
	ff, _, err = e.FwManagementFeatures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, ff.StartTime)
	assert.Equal(t, 20*time.Millisecond, ff.WriteTime)
	assert.Equal(t, time.Second, ff.CompleteTime)
}

func TestFwInfo(t *testing.T) {
	d := make([]byte, 74)
	d[0] = 0x03 | 0x04<<4 // A running and committed, B invalid
	copy(d[2:], []byte{1, 2, 0x00, 0x07})
	copy(d[6:], "release")
	copy(d[38:], []byte{1, 1, 0x00, 0x03})

	dev := newDevice()
	dev.handle = func(uint16, []byte) (Status, []byte) { return 0x01, d }
	e := newEngine(t, dev)

	fi, st, err := e.FwInfo(context.Background())
	require.NoError(t, err)
	require.True(t, st.Success())
	assert.Equal(t, Image{Version: "1.2", Build: 7, Extra: "release", Running: true, Committed: true, Valid: true}, fi.A)
	assert.Equal(t, Image{Version: "1.1", Build: 3}, fi.B)
	assert.Equal(t, "1.2.7 (release) running committed valid", fi.A.String())
}

func TestModuleFeatures(t *testing.T) {
	d := make([]byte, 36)
	d[2] = 0x01   // 0000h
	d[2+8] = 0x03 // 0040h, 0041h
	binary.BigEndian.PutUint16(d[34:], 2000)

	dev := newDevice()
	dev.handle = func(uint16, []byte) (Status, []byte) { return 0x01, d }
	e := newEngine(t, dev)

	mf, _, err := e.ModuleFeatures(context.Background())
	require.NoError(t, err)
	assert.True(t, mf.Supports(CmdQueryStatus))
	assert.True(t, mf.Supports(CmdModuleFeatures))
	assert.True(t, mf.Supports(CmdFwMgmtFeatures))
	assert.False(t, mf.Supports(0x0001))
	assert.False(t, mf.Supports(CmdFwInfo))
	assert.Equal(t, 2*time.Second, mf.Completion)
}

func TestDownload(t *testing.T) {
	image := make([]byte, 16+300)
	for i := range image {
		image[i] = byte(i)
	}

	for _, tc := range []struct {
		name     string
		mech     byte
		eplExt   byte
		autoPage bool
		cmd      uint16
		blocks   int
	}{
		{"lpl", WriteLPL, 0, true, CmdWriteLPL, 3},
		{"epl", WriteBoth, 15, true, CmdWriteEPL, 3}, // 128 bytes blocks
		{"epl-pages", WriteEPL, 31, false, CmdWriteEPL, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev := newDevice()
			dev.handle = func(id uint16, _ []byte) (Status, []byte) {
				if id == CmdFwMgmtFeatures {
					return 0x01, fwFeatures(16, tc.eplExt, tc.mech)
				}
				return 0x01, nil
			}
			var prog []Progress
			e := newEngine(t, dev,
				WithAutoPaging(tc.autoPage),
				WithProgress(func(p Progress) { prog = append(prog, p) }),
			)

			st, err := e.Download(context.Background(), image)
			require.NoError(t, err)
			require.True(t, st.Success())

			want := []uint16{CmdFwMgmtFeatures, CmdStartDownload}
			for i := 0; i < tc.blocks; i++ {
				want = append(want, tc.cmd)
			}
			want = append(want, CmdCompleteDownload)
			assert.Equal(t, want, dev.cmds)

			start := dev.lpl[1]
			assert.Equal(t, uint32(len(image)), binary.BigEndian.Uint32(start[0:4]))
			assert.Equal(t, image[:16], start[8:])

			var body []byte
			for i := 0; i < tc.blocks; i++ {
				lpl := dev.lpl[2+i]
				addr := binary.BigEndian.Uint32(lpl[0:4])
				assert.Equal(t, uint32(len(body)), addr)
				switch tc.cmd {
				case CmdWriteLPL:
					body = append(body, lpl[4:]...)
				default:
					body = append(body, dev.epl[i]...)
				}
			}
			assert.Equal(t, image[16:], body)

			require.NotEmpty(t, prog)
			assert.Equal(t, Progress{Phase: "done", Written: len(image), Total: len(image)}, prog[len(prog)-1])
		})
	}
}

func TestDownloadFailure(t *testing.T) {
	dev := newDevice()
	dev.handle = func(id uint16, _ []byte) (Status, []byte) {
		switch id {
		case CmdFwMgmtFeatures:
			return 0x01, fwFeatures(0, 0, WriteLPL)
		case CmdWriteLPL:
			return 0x47, nil
		}
		return 0x01, nil
	}
	e := newEngine(t, dev)

	st, err := e.Download(context.Background(), make([]byte, 1000))
	require.NoError(t, err)
	assert.True(t, st.Failed())
	assert.Equal(t, []uint16{CmdFwMgmtFeatures, CmdStartDownload, CmdWriteLPL}, dev.cmds)
}

func TestRun(t *testing.T) {
	dev := newDevice()
	e := newEngine(t, dev)

	st, err := e.Run(context.Background(), RunInactiveHitless, 2*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, st.Success())
	assert.Equal(t, []uint16{CmdRunImage}, dev.cmds)
	assert.Equal(t, []byte{0, 1, 0, 2}, dev.lpl[0])
}
