// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmis

import (
	"fmt"
	"math"

	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/page"
	"github.com/go-lpc/xcvr/sff8024"
)

// Lanes is the number of lanes of a CMIS bank.
const Lanes = page.MaxLanes

// Applications is the maximum number of advertised applications.
const Applications = 15

// Field names.
const (
	Identifier      = "identifier"
	Revision        = "cmis-revision"
	FlatMem         = "flat-mem"
	ModuleState     = "module-state"
	Temperature     = "temperature"
	Voltage         = "voltage"
	ModuleControl   = "module-control"
	LowPwrAllowHW   = "low-pwr-allow-request-hw"
	LowPwrRequestSW = "low-pwr-request-sw"
	SoftwareReset   = "software-reset"
	CDBStatus       = "cdb1-status"
	ActiveFirmware  = "active-firmware"
	FaultCause      = "module-fault-cause"
	MediaType       = "media-type"

	VendorName  = "vendor-name"
	VendorOUI   = "vendor-oui"
	VendorPN    = "vendor-pn"
	VendorRev   = "vendor-rev"
	VendorSN    = "vendor-sn"
	VendorDate  = "vendor-date"
	CLEI        = "clei"
	PowerClass  = "power-class"
	MaxPower    = "max-power"
	CableLength = "cable-length"
	Connector   = "connector"
	MediaTech   = "media-interface-technology"

	InactiveFirmware = "inactive-firmware"
	HardwareRev      = "hardware-revision"
	Wavelength       = "wavelength"
	VDMSupported     = "vdm-supported"
	DiagSupported    = "diag-pages-supported"
	Page03Supported  = "page-03h-supported"
	BiasMultiplier   = "tx-bias-multiplier"
	CDBInstances     = "cdb-instances"
	CDBWriteLength   = "cdb-epl-write-length"

	DatapathDeinit = "datapath-deinit"
	TxDisable      = "tx-disable"
	ApplyDPInit    = "apply-dp-init"
	DPStateChanged = "datapath-state-changed"

	LoopbackSupport = "loopback-capabilities"
)

// Per-application field names, formatted with the application number
// (1-15).
const (
	HostIfApp      = "host-interface-%d"
	MediaIfApp     = "media-interface-%d"
	HostLanesApp   = "host-lane-count-%d"
	MediaLanesApp  = "media-lane-count-%d"
	HostAssignApp  = "host-lane-assignment-%d"
	MediaAssignApp = "media-lane-assignment-%d"
)

// Per-lane field names, formatted with the lane number (1-8).
const (
	StagedConfigLane = "staged-dpconfig-%d"
	ActiveConfigLane = "active-dpconfig-%d"
	DPStateLane      = "datapath-state-%d"
	ConfigStatusLane = "config-status-%d"
	TxFaultLane      = "tx-fault-%d"
	TxLOSLane        = "tx-los-%d"
	RxLOSLane        = "rx-los-%d"
	RxLOLLane        = "rx-lol-%d"
	TxDisableLane    = "tx-disable-%d"
	TxPowerLane      = "tx-power-%d"
	TxBiasLane       = "tx-bias-%d"
	RxPowerLane      = "rx-power-%d"
)

// Loopback control registers, in page 13h.
const (
	MediaOutputLoopback = "media-output-loopback"
	MediaInputLoopback  = "media-input-loopback"
	HostOutputLoopback  = "host-output-loopback"
	HostInputLoopback   = "host-input-loopback"
)

// Banked pages.
const (
	pageAdvert    = 0x01
	pageThreshold = 0x02
	pageControl   = 0x10
	pageStatus    = 0x11
	pageDiag      = 0x13
)

// cableLength decodes the length byte: bits 7-6 select the multiplier of
// the base length held in bits 5-0, in meters.
var cableLength = field.ConvFunc(func(raw []byte) float64 {
	mult := math.Pow(10, float64(raw[0]>>6)-1)
	return float64(raw[0]&0x3f) * mult
})

// appOffset returns the linear offset of the 4-byte advertisement of
// application app (1-15).
func appOffset(app int) int {
	if app <= 8 {
		return 86 + 4*(app-1)
	}
	return page.Upper(pageAdvert, 95+4*(app-9))
}

func perLane(format string, fct func(lane int, name string) *field.Field) []*field.Field {
	fs := make([]*field.Field, Lanes)
	for i := range fs {
		fs[i] = fct(i+1, fmt.Sprintf(format, i+1))
	}
	return fs
}

// laneBits creates one bit field per lane over the byte at linear offset off.
func laneBits(format string, off int) []*field.Field {
	return perLane(format, func(lane int, name string) *field.Field {
		return field.NewBit(name, off, uint(lane-1))
	})
}

// laneNibbles creates one 4-bit enum per lane, two lanes per byte, lane 1
// in the low nibble of the byte at linear offset off.
func laneNibbles(format string, off int, codes field.Codes) []*field.Field {
	return perLane(format, func(lane int, name string) *field.Field {
		i := lane - 1
		shift := uint(4 * (i % 2))
		return field.NewMaskedEnum(name, off+i/2, 0x0f<<shift, shift, codes)
	})
}

func laneMonitors(format string, off int, conv field.Conv) []*field.Field {
	return perLane(format, func(lane int, name string) *field.Field {
		return field.NewNumber(name, off+2*(lane-1), 2, conv)
	})
}

func thresholds(prefix string, off int, conv field.Conv) *field.Field {
	return field.NewGroup(prefix+"-thresholds",
		field.NewNumber(prefix+"-high-alarm", off+0, 2, conv),
		field.NewNumber(prefix+"-low-alarm", off+2, 2, conv),
		field.NewNumber(prefix+"-high-warn", off+4, 2, conv),
		field.NewNumber(prefix+"-low-warn", off+6, 2, conv),
	)
}

func newMap() *field.Map {
	var fields []*field.Field
	add := func(fs ...*field.Field) { fields = append(fields, fs...) }

	// lower page
	add(
		field.NewEnum(Identifier, 0, sff8024.Identifiers),
		field.NewInt(Revision, 1, 1),
		field.NewBit(FlatMem, 2, 7),
		field.NewMaskedEnum(ModuleState, 3, 0x0e, 1, moduleStates),
		field.NewGroup("module-flags",
			field.NewBit("module-state-changed-flag", 8, 0),
			field.NewBit("temp-high-alarm-flag", 9, 0),
			field.NewBit("temp-low-alarm-flag", 9, 1),
			field.NewBit("temp-high-warn-flag", 9, 2),
			field.NewBit("temp-low-warn-flag", 9, 3),
			field.NewBit("vcc-high-alarm-flag", 9, 4),
			field.NewBit("vcc-low-alarm-flag", 9, 5),
			field.NewBit("vcc-high-warn-flag", 9, 6),
			field.NewBit("vcc-low-warn-flag", 9, 7),
		),
		field.NewNumber(Temperature, 14, 2, field.Temperature),
		field.NewNumber(Voltage, 16, 2, field.Voltage),
		field.NewInt(ModuleControl, 26, 1).RW(),
		field.NewBit(LowPwrAllowHW, 26, 6).RMW(),
		field.NewBit(LowPwrRequestSW, 26, 4).RMW(),
		field.NewBit(SoftwareReset, 26, 3).RMW(),
		field.NewInt(CDBStatus, 37, 1),
		field.NewInt(ActiveFirmware, 39, 2),
		field.NewEnum(FaultCause, 41, faultCauses),
		field.NewEnum(MediaType, 85, sff8024.MediaTypes),
	)
	for app := 1; app <= Applications; app++ {
		off := appOffset(app)
		add(field.NewGroup(fmt.Sprintf("application-%d", app),
			field.NewEnum(fmt.Sprintf(HostIfApp, app), off, sff8024.HostInterfaces),
			field.NewInt(fmt.Sprintf(MediaIfApp, app), off+1, 1),
			field.NewMasked(fmt.Sprintf(HostLanesApp, app), off+2, 0xf0, 4),
			field.NewMasked(fmt.Sprintf(MediaLanesApp, app), off+2, 0x0f, 0),
			field.NewInt(fmt.Sprintf(HostAssignApp, app), off+3, 1),
		))
		add(field.NewInt(fmt.Sprintf(MediaAssignApp, app), page.Upper(pageAdvert, 48+app-1), 1))
	}

	// page 00h
	add(
		field.NewStr(VendorName, 129, 16),
		field.NewHex(VendorOUI, 145, 3),
		field.NewStr(VendorPN, 148, 16),
		field.NewStr(VendorRev, 164, 2),
		field.NewStr(VendorSN, 166, 16),
		field.NewDate(VendorDate, 182),
		field.NewStr(CLEI, 190, 10),
		field.NewMasked(PowerClass, 200, 0xe0, 5),
		field.NewNumber(MaxPower, 201, 1, field.Scale{Factor: 0.25}), // W
		field.NewNumber(CableLength, 202, 1, cableLength),
		field.NewEnum(Connector, 203, sff8024.Connectors),
		field.NewEnum(MediaTech, 212, mediaTechnologies),
	)

	// page 01h
	add(
		field.NewInt(InactiveFirmware, page.Upper(pageAdvert, 0), 2),
		field.NewInt(HardwareRev, page.Upper(pageAdvert, 2), 2),
		field.NewNumber(Wavelength, page.Upper(pageAdvert, 10), 2, field.Scale{Factor: 0.05}), // nm
		field.NewBit(VDMSupported, page.Upper(pageAdvert, 14), 6),
		field.NewBit(DiagSupported, page.Upper(pageAdvert, 14), 5),
		field.NewBit(Page03Supported, page.Upper(pageAdvert, 14), 2),
		field.NewMasked(BiasMultiplier, page.Upper(pageAdvert, 32), 0x18, 3),
		field.NewMasked(CDBInstances, page.Upper(pageAdvert, 35), 0xc0, 6),
		field.NewInt(CDBWriteLength, page.Upper(pageAdvert, 36), 1),
	)

	// page 02h
	add(
		thresholds("temp", page.Upper(pageThreshold, 0), field.Temperature),
		thresholds("vcc", page.Upper(pageThreshold, 8), field.Voltage),
		thresholds("tx-power", page.Upper(pageThreshold, 48), field.Power),
		thresholds("tx-bias", page.Upper(pageThreshold, 56), field.Bias),
		thresholds("rx-power", page.Upper(pageThreshold, 64), field.Power),
	)

	// page 10h
	add(
		field.NewInt(DatapathDeinit, page.Upper(pageControl, 0), 1).RW(),
		field.NewInt(TxDisable, page.Upper(pageControl, 2), 1).RW(),
		field.NewInt(ApplyDPInit, page.Upper(pageControl, 15), 1).RW(),
	)
	add(laneBits(TxDisableLane, page.Upper(pageControl, 2))...)
	add(perLane(StagedConfigLane, func(lane int, name string) *field.Field {
		return field.NewInt(name, page.Upper(pageControl, 17+lane-1), 1).RW()
	})...)

	// page 11h
	add(laneNibbles(DPStateLane, page.Upper(pageStatus, 0), datapathStates)...)
	add(
		field.NewInt(DPStateChanged, page.Upper(pageStatus, 6), 1),
		field.NewGroup("tx-fault", laneBits(TxFaultLane, page.Upper(pageStatus, 7))...),
		field.NewGroup("tx-los", laneBits(TxLOSLane, page.Upper(pageStatus, 8))...),
		field.NewGroup("rx-los", laneBits(RxLOSLane, page.Upper(pageStatus, 19))...),
		field.NewGroup("rx-lol", laneBits(RxLOLLane, page.Upper(pageStatus, 20))...),
		field.NewGroup("tx-power", laneMonitors(TxPowerLane, page.Upper(pageStatus, 26), field.Power)...),
		field.NewGroup("tx-bias", laneMonitors(TxBiasLane, page.Upper(pageStatus, 42), field.Bias)...),
		field.NewGroup("rx-power", laneMonitors(RxPowerLane, page.Upper(pageStatus, 58), field.Power)...),
	)
	add(laneNibbles(ConfigStatusLane, page.Upper(pageStatus, 74), configStatuses)...)
	add(perLane(ActiveConfigLane, func(lane int, name string) *field.Field {
		return field.NewInt(name, page.Upper(pageStatus, 78+lane-1), 1)
	})...)

	// page 13h
	add(
		field.NewGroup(LoopbackSupport,
			field.NewBit("media-output-loopback-supported", page.Upper(pageDiag, 0), 0),
			field.NewBit("media-input-loopback-supported", page.Upper(pageDiag, 0), 1),
			field.NewBit("host-output-loopback-supported", page.Upper(pageDiag, 0), 2),
			field.NewBit("host-input-loopback-supported", page.Upper(pageDiag, 0), 3),
			field.NewBit("simultaneous-host-media-loopback-supported", page.Upper(pageDiag, 0), 4),
			field.NewBit("per-lane-media-loopback-supported", page.Upper(pageDiag, 0), 5),
			field.NewBit("per-lane-host-loopback-supported", page.Upper(pageDiag, 0), 6),
		),
		field.NewInt(MediaOutputLoopback, page.Upper(pageDiag, 52), 1).RW(),
		field.NewInt(MediaInputLoopback, page.Upper(pageDiag, 53), 1).RW(),
		field.NewInt(HostOutputLoopback, page.Upper(pageDiag, 54), 1).RW(),
		field.NewInt(HostInputLoopback, page.Upper(pageDiag, 55), 1).RW(),
	)
	return field.NewMap("cmis", fields...)
}

// Map is the CMIS memory map, bank 0.
var Map = newMap()
