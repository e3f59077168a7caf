// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sff8472

import (
	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/sff8024"
)

// a2 is the linear offset of the diagnostics (A2h) device.
const a2 = 256

// Field names.
const (
	Identifier      = "identifier"
	ExtIdentifier   = "ext-identifier"
	Connector       = "connector"
	Compliance      = "compliance"
	Encoding        = "encoding"
	BitRate         = "bit-rate"
	LengthSMFKm     = "length-smf-km"
	LengthSMF       = "length-smf"
	LengthOM2       = "length-om2"
	LengthOM1       = "length-om1"
	LengthCopper    = "length-copper"
	LengthOM3       = "length-om3"
	VendorName      = "vendor-name"
	ExtCompliance   = "ext-compliance"
	VendorOUI       = "vendor-oui"
	VendorPN        = "vendor-pn"
	VendorRev       = "vendor-rev"
	Wavelength      = "wavelength"
	VendorSN        = "vendor-sn"
	VendorDate      = "vendor-date"
	DiagType        = "diag-monitoring-type"
	DDM             = "ddm-implemented"
	InternalCal     = "internal-cal"
	ExternalCal     = "external-cal"
	RxPowerAvg      = "rx-power-avg"
	SFF8472Revision = "sff8472-compliance"

	Temperature = "temperature"
	Voltage     = "voltage"
	TxBias      = "tx-bias"
	TxPower     = "tx-power"
	RxPower     = "rx-power"

	StatusControl  = "status-control"
	TxDisableState = "tx-disable-state"
	SoftTxDisable  = "soft-tx-disable"
	TxFault        = "tx-fault"
	RxLOS          = "rx-los"
	DataNotReady   = "data-not-ready"

	RxPowerPoly   = "ext-cal-rx-power"
	TxBiasSlope   = "ext-cal-tx-bias-slope"
	TxBiasOffset  = "ext-cal-tx-bias-offset"
	TxPowerSlope  = "ext-cal-tx-power-slope"
	TxPowerOffset = "ext-cal-tx-power-offset"
	TempSlope     = "ext-cal-temp-slope"
	TempOffset    = "ext-cal-temp-offset"
	VccSlope      = "ext-cal-vcc-slope"
	VccOffset     = "ext-cal-vcc-offset"
)

var revisions = field.Codes{
	0x00: "Digital diagnostic functionality not included",
	0x01: "Rev 9.3",
	0x02: "Rev 9.5",
	0x03: "Rev 10.2",
	0x04: "Rev 10.4",
	0x05: "Rev 11.0",
	0x06: "Rev 11.3",
	0x07: "Rev 11.4",
	0x08: "Rev 12.3",
	0x09: "Rev 12.4",
}

// thresholds returns the four thresholds of a monitor, starting at linear
// offset off.
func thresholds(prefix string, off int, conv field.Conv) []*field.Field {
	return []*field.Field{
		field.NewNumber(prefix+"-high-alarm", off+0, 2, conv),
		field.NewNumber(prefix+"-low-alarm", off+2, 2, conv),
		field.NewNumber(prefix+"-high-warn", off+4, 2, conv),
		field.NewNumber(prefix+"-low-warn", off+6, 2, conv),
	}
}

func flags(name string, off int, names ...string) *field.Field {
	fs := make([]*field.Field, len(names))
	for i, n := range names {
		fs[i] = field.NewBit(n, off+i/8, uint(7-i%8))
	}
	return field.NewGroup(name, fs...)
}

func newMap() *field.Map {
	fields := []*field.Field{
		field.NewEnum(Identifier, 0, sff8024.Identifiers),
		field.NewInt(ExtIdentifier, 1, 1),
		field.NewEnum(Connector, 2, sff8024.Connectors),
		field.NewBitmap(Compliance, 3, 4,
			field.Bit{Name: "10GBASE-ER", Byte: 0, Pos: 7, On: true},
			field.Bit{Name: "10GBASE-LRM", Byte: 0, Pos: 6, On: true},
			field.Bit{Name: "10GBASE-LR", Byte: 0, Pos: 5, On: true},
			field.Bit{Name: "10GBASE-SR", Byte: 0, Pos: 4, On: true},
			field.Bit{Name: "BASE-PX", Byte: 3, Pos: 7, On: true},
			field.Bit{Name: "BASE-BX10", Byte: 3, Pos: 6, On: true},
			field.Bit{Name: "100BASE-FX", Byte: 3, Pos: 5, On: true},
			field.Bit{Name: "100BASE-LX/LX10", Byte: 3, Pos: 4, On: true},
			field.Bit{Name: "1000BASE-T", Byte: 3, Pos: 3, On: true},
			field.Bit{Name: "1000BASE-CX", Byte: 3, Pos: 2, On: true},
			field.Bit{Name: "1000BASE-LX", Byte: 3, Pos: 1, On: true},
			field.Bit{Name: "1000BASE-SX", Byte: 3, Pos: 0, On: true},
		),
		field.NewEnum(Encoding, 11, sff8024.Encodings),
		field.NewNumber(BitRate, 12, 1, field.Scale{Factor: 100}), // MBd
		field.NewInt(LengthSMFKm, 14, 1),
		field.NewInt(LengthSMF, 15, 1),
		field.NewInt(LengthOM2, 16, 1),
		field.NewInt(LengthOM1, 17, 1),
		field.NewInt(LengthCopper, 18, 1),
		field.NewInt(LengthOM3, 19, 1),
		field.NewStr(VendorName, 20, 16),
		field.NewEnum(ExtCompliance, 36, sff8024.ExtendedCompliance),
		field.NewHex(VendorOUI, 37, 3),
		field.NewStr(VendorPN, 40, 16),
		field.NewStr(VendorRev, 56, 4),
		field.NewInt(Wavelength, 60, 2),
		field.NewStr(VendorSN, 68, 16),
		field.NewDate(VendorDate, 84),
		field.NewGroup(DiagType,
			field.NewBit(DDM, 92, 6),
			field.NewBit(InternalCal, 92, 5),
			field.NewBit(ExternalCal, 92, 4),
			field.NewBit(RxPowerAvg, 92, 3),
		),
		field.NewEnum(SFF8472Revision, 94, revisions),
	}

	fields = append(fields, thresholds("temp", a2+0, field.Temperature)...)
	fields = append(fields, thresholds("vcc", a2+8, field.Voltage)...)
	fields = append(fields, thresholds("tx-bias", a2+16, field.Bias)...)
	fields = append(fields, thresholds("tx-power", a2+24, field.Power)...)
	fields = append(fields, thresholds("rx-power", a2+32, field.Power)...)

	fields = append(fields,
		field.NewHex(RxPowerPoly, a2+56, 20),
		field.NewInt(TxBiasSlope, a2+76, 2),
		field.NewSigned(TxBiasOffset, a2+78, 2),
		field.NewInt(TxPowerSlope, a2+80, 2),
		field.NewSigned(TxPowerOffset, a2+82, 2),
		field.NewInt(TempSlope, a2+84, 2),
		field.NewSigned(TempOffset, a2+86, 2),
		field.NewInt(VccSlope, a2+88, 2),
		field.NewSigned(VccOffset, a2+90, 2),

		field.NewNumber(Temperature, a2+96, 2, field.Temperature),
		field.NewNumber(Voltage, a2+98, 2, field.Voltage),
		field.NewNumber(TxBias, a2+100, 2, field.Bias),
		field.NewNumber(TxPower, a2+102, 2, field.Power),
		field.NewNumber(RxPower, a2+104, 2, field.Power),

		field.NewGroup(StatusControl,
			field.NewBit(TxDisableState, a2+110, 7),
			field.NewBit(SoftTxDisable, a2+110, 6).RMW(),
			field.NewBit(TxFault, a2+110, 2),
			field.NewBit(RxLOS, a2+110, 1),
			field.NewBit(DataNotReady, a2+110, 0),
		),
		flags("alarm-flags", a2+112,
			"temp-high-alarm-flag", "temp-low-alarm-flag",
			"vcc-high-alarm-flag", "vcc-low-alarm-flag",
			"tx-bias-high-alarm-flag", "tx-bias-low-alarm-flag",
			"tx-power-high-alarm-flag", "tx-power-low-alarm-flag",
			"rx-power-high-alarm-flag", "rx-power-low-alarm-flag",
		),
		flags("warning-flags", a2+116,
			"temp-high-warn-flag", "temp-low-warn-flag",
			"vcc-high-warn-flag", "vcc-low-warn-flag",
			"tx-bias-high-warn-flag", "tx-bias-low-warn-flag",
			"tx-power-high-warn-flag", "tx-power-low-warn-flag",
			"rx-power-high-warn-flag", "rx-power-low-warn-flag",
		),
	)
	return field.NewMap("sff8472", fields...)
}

// Map is the SFF-8472 memory map. A2h is mapped at linear offsets 256-511.
var Map = newMap()
