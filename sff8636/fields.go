// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sff8636

import (
	"fmt"

	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/page"
	"github.com/go-lpc/xcvr/sff8024"
)

// Lanes is the number of lanes of an SFF-8636 module.
const Lanes = 4

// Field names.
const (
	Identifier     = "identifier"
	Revision       = "revision"
	FlatMem        = "flat-mem"
	DataNotReady   = "data-not-ready"
	Temperature    = "temperature"
	Voltage        = "voltage"
	TxDisable      = "tx-disable"
	SoftwareReset  = "software-reset"
	PowerOverride  = "power-override"
	PowerSet       = "power-set"
	HighPowerClass = "high-power-class-enable"

	PowerClass    = "power-class"
	PowerClassExt = "power-class-ext"
	Connector     = "connector"
	Compliance    = "compliance"
	Encoding      = "encoding"
	BitRate       = "bit-rate"
	LengthSMFKm   = "length-smf-km"
	LengthOM3     = "length-om3"
	LengthOM2     = "length-om2"
	LengthOM1     = "length-om1"
	LengthCopper  = "length-copper"
	VendorName    = "vendor-name"
	VendorOUI     = "vendor-oui"
	VendorPN      = "vendor-pn"
	VendorRev     = "vendor-rev"
	Wavelength    = "wavelength"
	ExtCompliance = "ext-compliance"
	VendorSN      = "vendor-sn"
	VendorDate    = "vendor-date"
	DiagType      = "diag-monitoring-type"
)

// Per-lane field names, formatted with the lane number (1-4).
const (
	RxLOSLane     = "rx-los-%d"
	TxLOSLane     = "tx-los-%d"
	TxFaultLane   = "tx-fault-%d"
	RxPowerLane   = "rx-power-%d"
	TxBiasLane    = "tx-bias-%d"
	TxPowerLane   = "tx-power-%d"
	TxDisableLane = "tx-disable-%d"
)

var revisions = field.Codes{
	0x00: "Revision not specified",
	0x01: "SFF-8436 Rev 4.8 or earlier",
	0x02: "SFF-8436 Rev 4.8 or earlier (except 0x186-0x189)",
	0x03: "SFF-8636 Rev 1.3 or earlier",
	0x04: "SFF-8636 Rev 1.4",
	0x05: "SFF-8636 Rev 1.5",
	0x06: "SFF-8636 Rev 2.0",
	0x07: "SFF-8636 Rev 2.5, 2.6 and 2.7",
	0x08: "SFF-8636 Rev 2.8, 2.9 and 2.10",
}

func lanes(format string, off int, bit0 uint, rmw bool) []*field.Field {
	fs := make([]*field.Field, Lanes)
	for i := range fs {
		fs[i] = field.NewBit(fmt.Sprintf(format, i+1), off, bit0+uint(i))
		if rmw {
			fs[i].RMW()
		}
	}
	return fs
}

func monitors(format string, off int, conv field.Conv) []*field.Field {
	fs := make([]*field.Field, Lanes)
	for i := range fs {
		fs[i] = field.NewNumber(fmt.Sprintf(format, i+1), off+2*i, 2, conv)
	}
	return fs
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

	add(
		field.NewEnum(Identifier, 0, sff8024.Identifiers),
		field.NewEnum(Revision, 1, revisions),
		field.NewBit(FlatMem, 2, 2),
		field.NewBit(DataNotReady, 2, 0),
	)
	add(field.NewGroup("los", append(lanes(RxLOSLane, 3, 0, false), lanes(TxLOSLane, 3, 4, false)...)...))
	add(field.NewGroup("tx-fault", lanes(TxFaultLane, 4, 0, false)...))
	add(
		field.NewGroup("temp-flags",
			field.NewBit("temp-high-alarm-flag", 6, 7),
			field.NewBit("temp-low-alarm-flag", 6, 6),
			field.NewBit("temp-high-warn-flag", 6, 5),
			field.NewBit("temp-low-warn-flag", 6, 4),
		),
		field.NewGroup("vcc-flags",
			field.NewBit("vcc-high-alarm-flag", 7, 7),
			field.NewBit("vcc-low-alarm-flag", 7, 6),
			field.NewBit("vcc-high-warn-flag", 7, 5),
			field.NewBit("vcc-low-warn-flag", 7, 4),
		),
		field.NewNumber(Temperature, 22, 2, field.Temperature),
		field.NewNumber(Voltage, 26, 2, field.Voltage),
	)
	add(field.NewGroup("rx-power", monitors(RxPowerLane, 34, field.Power)...))
	add(field.NewGroup("tx-bias", monitors(TxBiasLane, 42, field.Bias)...))
	add(field.NewGroup("tx-power", monitors(TxPowerLane, 50, field.Power)...))

	add(field.NewMasked(TxDisable, 86, 0x0f, 0).RMW())
	add(lanes(TxDisableLane, 86, 0, true)...)
	add(field.NewGroup("power-control",
		field.NewBit(SoftwareReset, 93, 7).RMW(),
		field.NewBit(HighPowerClass, 93, 2).RMW(),
		field.NewBit(PowerSet, 93, 1).RMW(),
		field.NewBit(PowerOverride, 93, 0).RMW(),
	))

	add(
		field.NewMasked(PowerClass, 129, 0xc0, 6),
		field.NewMasked(PowerClassExt, 129, 0x03, 0),
		field.NewEnum(Connector, 130, sff8024.Connectors),
		field.NewBitmap(Compliance, 131, 1,
			field.Bit{Name: "Extended", Pos: 7, On: true},
			field.Bit{Name: "10GBASE-LRM", Pos: 6, On: true},
			field.Bit{Name: "10GBASE-LR", Pos: 5, On: true},
			field.Bit{Name: "10GBASE-SR", Pos: 4, On: true},
			field.Bit{Name: "40GBASE-CR4", Pos: 3, On: true},
			field.Bit{Name: "40GBASE-SR4", Pos: 2, On: true},
			field.Bit{Name: "40GBASE-LR4", Pos: 1, On: true},
			field.Bit{Name: "40G Active Cable (XLPPI)", Pos: 0, On: true},
		),
		field.NewEnum(Encoding, 139, sff8024.Encodings),
		field.NewNumber(BitRate, 140, 1, field.Scale{Factor: 100}), // MBd
		field.NewInt(LengthSMFKm, 142, 1),
		field.NewInt(LengthOM3, 143, 1),
		field.NewInt(LengthOM2, 144, 1),
		field.NewInt(LengthOM1, 145, 1),
		field.NewInt(LengthCopper, 146, 1),
		field.NewStr(VendorName, 148, 16),
		field.NewHex(VendorOUI, 165, 3),
		field.NewStr(VendorPN, 168, 16),
		field.NewStr(VendorRev, 184, 2),
		field.NewNumber(Wavelength, 186, 2, field.Scale{Factor: 0.05}), // nm
		field.NewEnum(ExtCompliance, 192, sff8024.ExtendedCompliance),
		field.NewStr(VendorSN, 196, 16),
		field.NewDate(VendorDate, 212),
		field.NewGroup(DiagType,
			field.NewBit("rx-power-avg", 220, 3),
			field.NewBit("tx-power-supported", 220, 2),
		),
	)

	// page 03h
	add(
		thresholds("temp", page.Upper(3, 0), field.Temperature),
		thresholds("vcc", page.Upper(3, 16), field.Voltage),
		thresholds("rx-power", page.Upper(3, 48), field.Power),
		thresholds("tx-bias", page.Upper(3, 56), field.Bias),
		thresholds("tx-power", page.Upper(3, 64), field.Power),
	)
	return field.NewMap("sff8636", fields...)
}

// Map is the SFF-8636 memory map.
var Map = newMap()
