// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-lpc/xcvr/cmis/cdb"
	"github.com/go-lpc/xcvr/eeprom"
	"github.com/go-lpc/xcvr/page"
	"github.com/go-lpc/xcvr/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateOff = 3

func setState(buf []byte, st uint8) {
	buf[stateOff] = buf[stateOff]&^0x0e | st<<1
}

// newImage returns a paged QSFP-DD image, in ModuleReady state, with two
// advertised applications and all data paths activated.
func newImage() []byte {
	img := make([]byte, page.Upper(0x9f, 127)+1)
	img[0] = 0x18
	img[1] = 0x50
	setState(img, 3)
	binary.BigEndian.PutUint16(img[14:], 0x1900)
	binary.BigEndian.PutUint16(img[16:], 33000)
	img[39], img[40] = 1, 2
	img[85] = 0x01 // MMF

	// application 1: 400GAUI-8, 400GBASE-SR8, 8+8 lanes, first lane 1
	copy(img[86:], []byte{0x11, 0x10, 0x88, 0x01})
	// application 2: 400GAUI-8, 400GBASE-SR8, 4+4 lanes, first lanes 1 and 5
	copy(img[90:], []byte{0x11, 0x10, 0x44, 0x11})
	img[94] = 0xff

	copy(img[129:], "ACME            ")
	copy(img[148:], "QDD-400G-SR8    ")
	copy(img[182:], "240315AB")
	img[200] = 0x40 // power class 3
	img[201] = 40   // 10 W
	img[202] = 0x41 // 1 m
	img[203] = 0x0c
	img[212] = 0x00

	adv := func(off int) int { return page.Upper(pageAdvert, off) }
	img[adv(0)], img[adv(1)] = 1, 1
	img[adv(2)], img[adv(3)] = 2, 0
	binary.BigEndian.PutUint16(img[adv(10):], 850*20)
	img[adv(14)] = 0x40   // VDM
	img[adv(32)] = 1 << 3 // bias multiplier: x2
	img[adv(48)], img[adv(49)] = 0x01, 0x11

	binary.BigEndian.PutUint16(img[page.Upper(pageThreshold, 0):], 75*256)

	st := func(off int) int { return page.Upper(pageStatus, off) }
	for i := 0; i < 4; i++ {
		img[st(i)] = 0x44 // DataPathActivated
		img[st(74+i)] = 0x11
	}
	img[st(8)] = 0x02 // tx los lane 2
	img[st(19)] = 0x81
	binary.BigEndian.PutUint16(img[st(42):], 500)
	binary.BigEndian.PutUint16(img[st(58):], 10000)
	img[st(78)] = 0x10
	return img
}

// module emulates the module state machine and a minimal CDB responder
// on top of an in-memory image.
type module struct {
	*transport.Mem

	stuck    bool     // ignore module control writes
	maxRead  int      // end of the farthest read
	cmds     []uint16 // triggered CDB commands
	runDelay uint16   // reset delay of the last run command, in ms
}

func newModule(img []byte) *module {
	return &module{Mem: transport.NewMem(img)}
}

func (m *module) ReadAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > m.maxRead {
		m.maxRead = end
	}
	return m.Mem.ReadAt(p, off)
}

func (m *module) WriteAt(p []byte, off int64) (int, error) {
	n, err := m.Mem.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	buf := m.Bytes()
	switch {
	case off == 26 && !m.stuck:
		v := buf[26]
		switch {
		case v&(1<<3) != 0:
			buf[26] = v &^ (1 << 3)
			setState(buf, 2)
		case v&(1<<4) != 0:
			setState(buf, 1)
		default:
			setState(buf, 3)
		}
	case int(off) == page.Upper(0x9f, 0) && len(p) == 2:
		m.respond(binary.BigEndian.Uint16(p))
	}
	return n, nil
}

func (m *module) respond(id uint16) {
	buf := m.Bytes()
	m.cmds = append(m.cmds, id)
	if id == cdb.CmdRunImage {
		m.runDelay = binary.BigEndian.Uint16(buf[page.Upper(0x9f, 10):])
	}
	var reply []byte
	if id == cdb.CmdFwMgmtFeatures {
		reply = make([]byte, 18)
		reply[5] = cdb.WriteLPL
	}
	buf[37] = 0x01
	buf[page.Upper(0x9f, 6)] = uint8(len(reply))
	buf[page.Upper(0x9f, 7)] = cdb.Checksum(reply)
	copy(buf[page.Upper(0x9f, 8):], reply)
}

func newAPI(m *module) *API {
	return New(eeprom.New(m, Map), WithPollDelay(time.Millisecond), WithPollRetries(5))
}

func TestInfo(t *testing.T) {
	a := newAPI(newModule(newImage()))
	assert.False(t, a.FlatMemory())

	info := a.Info()
	require.NotNil(t, info)
	assert.Equal(t, "QSFP-DD Double Density 8X Pluggable Transceiver", info.Type.V)
	assert.Equal(t, "5.0", info.Revision.V)
	assert.Equal(t, "ACME", info.Vendor.V)
	assert.Equal(t, "QDD-400G-SR8", info.PartNumber.V)
	assert.Equal(t, "2024-03-15 AB", info.Date.V)
	assert.Equal(t, "MPO 1x12", info.Connector.V)
	assert.Equal(t, "850 nm VCSEL", info.Compliance.V)
	assert.Equal(t, int64(3), info.PowerClass.V)
	assert.Equal(t, 10.0, info.MaxPower.V)
	assert.Equal(t, 1.0, info.CableLength.V)
	assert.InDelta(t, 850.0, info.Wavelength.V, 1e-9)
	assert.Equal(t, "1.2", info.Firmware.V)
	assert.Equal(t, "1.1", info.FirmwareB.V)
	assert.Equal(t, "2.0", info.HardwareRev.V)
	assert.Len(t, info.Applications, 2)
	assert.True(t, a.VDMSupported())

	empty := newAPI(newModule(nil))
	assert.Nil(t, empty.Info())
}

func TestApplicationAdvertisement(t *testing.T) {
	a := newAPI(newModule(newImage()))
	apps := a.ApplicationAdvertisement()
	require.Len(t, apps, 2)
	for app := range apps {
		assert.True(t, app >= 1 && app <= 2, "app=%d", app)
	}
	assert.Equal(t, "400GAUI-8 C2M (Annex 120E)", apps[1].HostInterface)
	assert.Equal(t, "400GBASE-SR8 (Clause 138)", apps[1].MediaInterface)
	assert.Equal(t, 8, apps[1].HostLanes)
	assert.Equal(t, 8, apps[1].MediaLanes)
	assert.Equal(t, uint8(0x11), apps[2].HostLaneMask)
	assert.Equal(t, uint8(0x11), apps[2].MediaLaneMask)

	assert.False(t, a.MediaLaneCount(0).OK)
	assert.Equal(t, int64(8), a.MediaLaneCount(1).V)
	assert.True(t, a.MediaLaneCount(1).OK)
	assert.Equal(t, int64(4), a.HostLaneCount(2).V)
	assert.False(t, a.HostLaneCount(16).OK)
	assert.Equal(t, int64(0x11), a.HostLaneAssignment(2).V)
	assert.Equal(t, int64(0x01), a.MediaLaneAssignment(1).V)
}

func TestDOM(t *testing.T) {
	a := newAPI(newModule(newImage()))
	dom := a.DOM()
	assert.InDelta(t, 25.0, dom.Temperature.V, 1e-9)
	assert.InDelta(t, 3.3, dom.Voltage.V, 1e-9)
	require.Len(t, dom.TxBias, Lanes)
	assert.InDelta(t, 2.0, dom.TxBias[0].V, 1e-9)
	assert.InDelta(t, 1.0, dom.RxPower[0].V, 1e-9)
	assert.True(t, dom.TxPower[7].OK)

	th := a.Thresholds()
	require.NotNil(t, th)
	assert.InDelta(t, 75.0, th.Temperature.HighAlarm.V, 1e-9)

	st := a.Status()
	assert.Equal(t, ModuleReady, st.Module.V)
	assert.True(t, st.RxLOS[0].V)
	assert.False(t, st.RxLOS[1].V)
	assert.True(t, st.RxLOS[7].V)
	assert.True(t, st.TxLOS[1].V)
}

func TestTxBiasMultiplier(t *testing.T) {
	img := newImage()
	binary.BigEndian.PutUint16(img[page.Upper(pageStatus, 42):], 3000)
	th := page.Upper(pageThreshold, 56)
	binary.BigEndian.PutUint16(img[th+0:], 5000)
	binary.BigEndian.PutUint16(img[th+2:], 500)
	binary.BigEndian.PutUint16(img[th+4:], 4500)
	binary.BigEndian.PutUint16(img[th+6:], 1000)

	for _, tc := range []struct {
		name  string
		mult  uint8
		scale float64
	}{
		{"x1", 0, 1},
		{"x2", 1, 2},
		{"x4", 2, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buf := append([]byte(nil), img...)
			buf[page.Upper(pageAdvert, 32)] = tc.mult << 3
			a := newAPI(newModule(buf))

			dom := a.DOM()
			assert.InDelta(t, 6*tc.scale, dom.TxBias[0].V, 1e-9)

			lim := a.Thresholds().TxBias
			assert.InDelta(t, 10*tc.scale, lim.HighAlarm.V, 1e-9)
			assert.InDelta(t, 1*tc.scale, lim.LowAlarm.V, 1e-9)
			assert.InDelta(t, 9*tc.scale, lim.HighWarn.V, 1e-9)
			assert.InDelta(t, 2*tc.scale, lim.LowWarn.V, 1e-9)
			assert.Less(t, dom.TxBias[0].V, lim.HighAlarm.V)
		})
	}
}

func TestFlatMemory(t *testing.T) {
	img := newImage()
	img[2] = 0x80
	m := newModule(img)
	a := newAPI(m)

	assert.True(t, a.FlatMemory())
	assert.Nil(t, a.Thresholds())
	for _, v := range a.DatapathState() {
		assert.False(t, v.OK)
	}
	for _, v := range a.DOM().RxPower {
		assert.False(t, v.OK)
	}
	assert.False(t, a.InactiveFirmware().OK)
	assert.False(t, a.MediaLaneAssignment(1).OK)
	assert.True(t, a.MediaLaneCount(1).OK)
	assert.False(t, a.SetApplication(0xff, 1, false))
	assert.False(t, a.TxDisable(true))
	_, ok := a.LoopbackCapability()
	assert.False(t, ok)
	assert.False(t, a.VDMSupported())

	info := a.Info()
	require.NotNil(t, info)
	assert.Len(t, info.Applications, 2)
	assert.Equal(t, uint8(0), info.Applications[2].MediaLaneMask)

	_, err := a.CDB()
	assert.True(t, errors.Is(err, cdb.ErrUnsupported))

	assert.LessOrEqual(t, m.maxRead, 2*page.Size, "flat module read beyond page 00h")
}

func TestModuleState(t *testing.T) {
	ctx := context.Background()
	m := newModule(newImage())
	a := newAPI(m)

	assert.Equal(t, ModuleReady, a.ModuleState().V)
	assert.False(t, a.Lpmode().V)

	require.True(t, a.SetLpmode(ctx, true))
	assert.Equal(t, ModuleLowPwr, a.ModuleState().V)
	assert.True(t, a.Lpmode().V)
	assert.Equal(t, uint8(1<<4), m.Bytes()[26])

	m.Bytes()[26] |= 1 << 6
	require.True(t, a.SetLpmode(ctx, false))
	assert.Equal(t, ModuleReady, a.ModuleState().V)
	assert.Equal(t, uint8(0), m.Bytes()[26])

	require.True(t, a.Reset(ctx))
	assert.Equal(t, ModulePwrUp, a.ModuleState().V)
	assert.Equal(t, uint8(0), m.Bytes()[26]&(1<<3))

	m.stuck = true
	assert.False(t, a.SetLpmode(ctx, true))

	nowait := New(eeprom.New(m, Map), WithPollRetries(0))
	assert.True(t, nowait.SetLpmode(ctx, true))

	assert.Equal(t, "No Fault detected", a.ModuleFaultCause().V)
}

func TestDatapath(t *testing.T) {
	ctx := context.Background()
	m := newModule(newImage())
	a := newAPI(m)

	for _, v := range a.DatapathState() {
		assert.Equal(t, DataPathActivated, v.V)
	}
	for _, v := range a.ConfigStatus() {
		assert.Equal(t, ConfigSuccess, v.V)
	}
	assert.True(t, a.WaitDatapathState(ctx, 0xff, DataPathActivated))
	assert.False(t, a.WaitDatapathState(ctx, 0x01, DataPathDeactivated))

	deinit := page.Upper(pageControl, 0)
	require.True(t, a.SetDatapathDeinit(0x0f))
	assert.Equal(t, uint8(0x0f), m.Bytes()[deinit])
	require.True(t, a.SetDatapathInit(0x03))
	assert.Equal(t, uint8(0x0c), m.Bytes()[deinit])

	m.Bytes()[page.Upper(pageStatus, 6)] = 0x05
	changed := a.DatapathStateChanged()
	assert.True(t, changed[0].V)
	assert.False(t, changed[1].V)
	assert.True(t, changed[2].V)
}

func TestSetApplication(t *testing.T) {
	m := newModule(newImage())
	a := newAPI(m)

	require.True(t, a.SetApplication(0x0f, 2, false))
	require.True(t, a.SetApplication(0xf0, 2, true))
	for lane := 1; lane <= Lanes; lane++ {
		want := uint8(0x20)
		if lane > 4 {
			want = 0x20 | 4<<1 | 1
		}
		got := m.Bytes()[page.Upper(pageControl, 17+lane-1)]
		assert.Equal(t, want, got, "lane=%d", lane)
	}
	require.True(t, a.ApplyDatapathInit(0xff))
	assert.Equal(t, uint8(0xff), m.Bytes()[page.Upper(pageControl, 15)])

	assert.False(t, a.SetApplication(0, 1, false))
	assert.False(t, a.SetApplication(0xff, 16, false))

	active := a.ActiveApplication()
	assert.Equal(t, DPConfig{AppSel: 1}, active[0].V)
	assert.True(t, active[1].OK)
}

func TestTxDisable(t *testing.T) {
	m := newModule(newImage())
	a := newAPI(m)
	off := page.Upper(pageControl, 2)

	require.True(t, a.TxDisable(true))
	assert.Equal(t, uint8(0xff), m.Bytes()[off])
	require.True(t, a.TxDisableChannel(0x81, false))
	assert.Equal(t, uint8(0x7e), m.Bytes()[off])
	assert.True(t, a.Status().TxDisable[1].V)
	assert.False(t, a.Status().TxDisable[0].V)
}

func TestLoopback(t *testing.T) {
	hostIn := page.Upper(pageDiag, 55)
	mediaOut := page.Upper(pageDiag, 52)

	for _, tc := range []struct {
		name string
		caps uint8
		pre  map[int]uint8
		lb   Loopback
		mask uint8
		on   bool
		ok   bool
		want map[int]uint8
	}{
		{
			name: "host-input",
			caps: 0x0f,
			lb:   LoopbackHostInput, mask: 0xff, on: true, ok: true,
			want: map[int]uint8{hostIn: 0xff},
		},
		{
			name: "unsupported",
			caps: 0x07,
			lb:   LoopbackHostInput, mask: 0xff, on: true, ok: false,
			want: map[int]uint8{hostIn: 0x00},
		},
		{
			name: "per-lane-unsupported",
			caps: 0x0f,
			lb:   LoopbackHostInput, mask: 0x01, on: true, ok: false,
			want: map[int]uint8{hostIn: 0x00},
		},
		{
			name: "per-lane",
			caps: 0x4f,
			pre:  map[int]uint8{hostIn: 0x10},
			lb:   LoopbackHostInput, mask: 0x01, on: true, ok: true,
			want: map[int]uint8{hostIn: 0x11},
		},
		{
			name: "conflict",
			caps: 0x0f,
			pre:  map[int]uint8{hostIn: 0xff},
			lb:   LoopbackMediaOutput, mask: 0xff, on: true, ok: false,
			want: map[int]uint8{hostIn: 0xff, mediaOut: 0x00},
		},
		{
			name: "simultaneous",
			caps: 0x1f,
			pre:  map[int]uint8{hostIn: 0xff},
			lb:   LoopbackMediaOutput, mask: 0xff, on: true, ok: true,
			want: map[int]uint8{hostIn: 0xff, mediaOut: 0xff},
		},
		{
			name: "disable",
			caps: 0x0f,
			pre:  map[int]uint8{hostIn: 0xff},
			lb:   LoopbackHostInput, mask: 0xff, on: false, ok: true,
			want: map[int]uint8{hostIn: 0x00},
		},
		{
			name: "none",
			caps: 0x1f,
			pre:  map[int]uint8{hostIn: 0xff, mediaOut: 0x0f},
			lb:   LoopbackNone, mask: 0xff, on: true, ok: true,
			want: map[int]uint8{hostIn: 0x00, mediaOut: 0x00},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img := newImage()
			img[page.Upper(pageDiag, 0)] = tc.caps
			for off, v := range tc.pre {
				img[off] = v
			}
			m := newModule(img)
			a := newAPI(m)

			assert.Equal(t, tc.ok, a.SetLoopback(tc.lb, tc.mask, tc.on))
			for off, v := range tc.want {
				assert.Equal(t, v, m.Bytes()[off], "off=%d", off)
			}
		})
	}
}

func TestParseLoopback(t *testing.T) {
	for _, lb := range []Loopback{
		LoopbackNone,
		LoopbackHostInput, LoopbackHostOutput,
		LoopbackMediaInput, LoopbackMediaOutput,
	} {
		got, err := ParseLoopback(lb.String())
		require.NoError(t, err)
		assert.Equal(t, lb, got)
	}
	_, err := ParseLoopback("sideways")
	assert.Error(t, err)

	img := newImage()
	img[page.Upper(pageDiag, 0)] = 0x2b
	caps, ok := newAPI(newModule(img)).LoopbackCapability()
	require.True(t, ok)
	assert.Equal(t, LoopbackCaps{MediaOutput: true, MediaInput: true, HostInput: true, PerLaneMedia: true}, caps)
}

func TestFirmwareUpgrade(t *testing.T) {
	img := newImage()
	img[page.Upper(pageAdvert, 35)] = 0x40
	m := newModule(img)
	a := newAPI(m)

	e, err := a.CDB(cdb.WithPollDelay(time.Microsecond))
	require.NoError(t, err)

	st, err := a.FirmwareUpgrade(context.Background(), e, make([]byte, 200), false)
	require.NoError(t, err)
	assert.True(t, st.Success())
	assert.Equal(t, []uint16{
		cdb.CmdFwMgmtFeatures,
		cdb.CmdStartDownload,
		cdb.CmdWriteLPL, cdb.CmdWriteLPL,
		cdb.CmdCompleteDownload,
		cdb.CmdRunImage,
		cdb.CmdCommitImage,
	}, m.cmds, fmt.Sprintf("%04x", m.cmds))
	assert.Equal(t, uint16(cdb.DefaultRunDelay/time.Millisecond), m.runDelay)

	m = newModule(img)
	a = New(eeprom.New(m, Map),
		WithPollDelay(time.Millisecond), WithPollRetries(5),
		WithRunDelay(20*time.Millisecond),
	)
	e, err = a.CDB(cdb.WithPollDelay(time.Microsecond))
	require.NoError(t, err)
	_, err = a.FirmwareUpgrade(context.Background(), e, make([]byte, 200), true)
	require.NoError(t, err)
	assert.Equal(t, uint16(20), m.runDelay)
}
