// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sff8024 holds the code tables shared by the SFF-8472, SFF-8636
// and CMIS memory maps.
package sff8024 // import "github.com/go-lpc/xcvr/sff8024"

import (
	"github.com/go-lpc/xcvr/field"
)

// Identifier values.
const (
	SFP       = 0x03
	QSFP      = 0x0c
	QSFPPlus  = 0x0d
	QSFP28    = 0x11
	QSFPDD    = 0x18
	OSFP      = 0x19
	QSFPCMIS  = 0x1e
	EndOfList = 0xff
)

// Identifiers maps the identifier byte to the module form factor.
var Identifiers = field.Codes{
	0x00: "Unknown or unspecified",
	0x01: "GBIC",
	0x02: "Module/connector soldered to motherboard",
	0x03: "SFP/SFP+/SFP28",
	0x04: "300 pin XBI",
	0x05: "XENPAK",
	0x06: "XFP",
	0x07: "XFF",
	0x08: "XFP-E",
	0x09: "XPAK",
	0x0a: "X2",
	0x0b: "DWDM-SFP/SFP+",
	0x0c: "QSFP",
	0x0d: "QSFP+ or later",
	0x0e: "CXP or later",
	0x0f: "Shielded Mini Multilane HD 4X",
	0x10: "Shielded Mini Multilane HD 8X",
	0x11: "QSFP28 or later",
	0x12: "CXP2 (aka CXP28) or later",
	0x13: "CDFP (Style 1/Style2)",
	0x14: "Shielded Mini Multilane HD 4X Fanout Cable",
	0x15: "Shielded Mini Multilane HD 8X Fanout Cable",
	0x16: "CDFP (Style 3)",
	0x17: "microQSFP",
	0x18: "QSFP-DD Double Density 8X Pluggable Transceiver",
	0x19: "OSFP 8X Pluggable Transceiver",
	0x1a: "SFP-DD Double Density 2X Pluggable Transceiver",
	0x1b: "DSFP Dual Small Form Factor Pluggable Transceiver",
	0x1c: "x4 MiniLink/OcuLink",
	0x1d: "x8 MiniLink",
	0x1e: "QSFP+ or later with CMIS",
}

// Abbreviations maps the identifier byte to a short form factor name.
var Abbreviations = field.Codes{
	0x03: "SFP",
	0x0c: "QSFP",
	0x0d: "QSFP+",
	0x11: "QSFP28",
	0x18: "QSFP-DD",
	0x19: "OSFP-8X",
	0x1e: "QSFP+C",
}

// Connectors maps the connector type byte.
var Connectors = field.Codes{
	0x00: "Unknown or unspecified",
	0x01: "SC",
	0x02: "FC Style 1 copper connector",
	0x03: "FC Style 2 copper connector",
	0x04: "BNC/TNC",
	0x05: "FC coax headers",
	0x06: "Fiberjack",
	0x07: "LC",
	0x08: "MT-RJ",
	0x09: "MU",
	0x0a: "SG",
	0x0b: "Optical Pigtail",
	0x0c: "MPO 1x12",
	0x0d: "MPO 2x16",
	0x20: "HSSDC II",
	0x21: "Copper pigtail",
	0x22: "RJ45",
	0x23: "No separable connector",
	0x24: "MXC 2x16",
	0x25: "CS optical connector",
	0x26: "SN optical connector",
	0x27: "MPO 2x12",
	0x28: "MPO 1x16",
}

// Encodings maps the serial encoding byte of SFF-8472 and SFF-8636.
var Encodings = field.Codes{
	0x00: "Unspecified",
	0x01: "8B/10B",
	0x02: "4B/5B",
	0x03: "NRZ",
	0x04: "Manchester",
	0x05: "SONET Scrambled",
	0x06: "64B/66B",
	0x07: "256B/257B (transcoded FEC-enabled data)",
	0x08: "PAM4",
}

// ExtendedCompliance maps the extended specification compliance byte.
var ExtendedCompliance = field.Codes{
	0x00: "Unspecified",
	0x01: "100G AOC (Active Optical Cable) or 25GAUI C2M AOC",
	0x02: "100GBASE-SR4 or 25GBASE-SR",
	0x03: "100GBASE-LR4 or 25GBASE-LR",
	0x04: "100GBASE-ER4 or 25GBASE-ER",
	0x05: "100GBASE-SR10",
	0x06: "100G CWDM4",
	0x07: "100G PSM4 Parallel SMF",
	0x08: "100G ACC (Active Copper Cable) or 25GAUI C2M ACC",
	0x0b: "100GBASE-CR4, 25GBASE-CR CA-25G-L or 50GBASE-CR2 with RS FEC",
	0x0c: "25GBASE-CR CA-25G-S or 50GBASE-CR2 with BASE-R FEC",
	0x0d: "25GBASE-CR CA-25G-N or 50GBASE-CR2 with no FEC",
	0x10: "40GBASE-ER4",
	0x11: "4 x 10GBASE-SR",
	0x12: "40G PSM4 Parallel SMF",
	0x16: "10GBASE-T with SFI electrical interface",
	0x17: "100G CLR4",
	0x18: "100G AOC or 25GAUI C2M AOC",
	0x19: "100G ACC or 25GAUI C2M ACC",
	0x1a: "100GE-DWDM2",
	0x1c: "10GBASE-T Short Reach",
	0x20: "100G SWDM4",
	0x21: "100G PAM4 BiDi",
	0x25: "100GBASE-DR",
	0x26: "100G-FR or 100GBASE-FR1",
	0x27: "100G-LR or 100GBASE-LR1",
}

// HostInterfaces maps the CMIS host electrical interface IDs.
var HostInterfaces = field.Codes{
	0x00: "Undefined",
	0x01: "1000BASE -CX(Clause 39)",
	0x02: "XAUI(Clause 47)",
	0x03: "XFI (SFF INF-8071i)",
	0x04: "SFI (SFF-8431)",
	0x05: "25GAUI C2M (Annex 109B)",
	0x06: "XLAUI C2M (Annex 83B)",
	0x07: "XLPPI (Annex 86A)",
	0x08: "LAUI-2 C2M (Annex 135C)",
	0x09: "50GAUI-2 C2M (Annex 135E)",
	0x0a: "50GAUI-1 C2M (Annex 135G)",
	0x0b: "CAUI-4 C2M (Annex 83E)",
	0x0c: "100GAUI-4 C2M (Annex 135E)",
	0x0d: "100GAUI-2 C2M (Annex 135G)",
	0x0e: "200GAUI-8 C2M (Annex 120C)",
	0x0f: "200GAUI-4 C2M (Annex 120E)",
	0x10: "400GAUI-16 C2M (Annex 120C)",
	0x11: "400GAUI-8 C2M (Annex 120E)",
	0x13: "10GBASE-CX4 (Clause 54)",
	0x14: "25GBASE-CR CA-L (Clause 110)",
	0x15: "25GBASE-CR CA-S (Clause 110)",
	0x16: "25GBASE-CR CA-N (Clause 110)",
	0x17: "40GBASE-CR4 (Clause 85)",
	0x18: "50GBASE-CR (Clause 126)",
	0x19: "100GBASE-CR10 (Clause 85)",
	0x1a: "100GBASE-CR4 (Clause 92)",
	0x1b: "100GBASE-CR2 (Clause 136)",
	0x1c: "200GBASE-CR4 (Clause 136)",
	0x1d: "400G CR8",
	0x41: "CAUI-4 C2M (Annex 83E) without FEC",
	0x42: "CAUI-4 C2M (Annex 83E) with RS(528,514) FEC",
	0x4b: "100GAUI-1-S C2M (Annex 120G)",
	0x4c: "100GAUI-1-L C2M (Annex 120G)",
	0x4d: "200GAUI-2-S C2M (Annex 120G)",
	0x4e: "200GAUI-2-L C2M (Annex 120G)",
	0x4f: "400GAUI-4-S C2M (Annex 120G)",
	0x50: "400GAUI-4-L C2M (Annex 120G)",
	0x51: "800G S C2M (placeholder)",
	0x52: "800G L C2M (placeholder)",
	0xff: "End of list",
}

// Module media types, as found in byte 85 of the CMIS lower page.
const (
	MediaUndefined = 0x00
	MediaMMF       = 0x01
	MediaSMF       = 0x02
	MediaCopper    = 0x03
	MediaActive    = 0x04
	MediaBaseT     = 0x05
)

// MediaTypes maps the CMIS module media type byte.
var MediaTypes = field.Codes{
	MediaUndefined: "Undefined",
	MediaMMF:       "Optical Interfaces: MMF",
	MediaSMF:       "Optical Interfaces: SMF",
	MediaCopper:    "Passive Copper Cables",
	MediaActive:    "Active Cables",
	MediaBaseT:     "BASE-T",
}

// MMFInterfaces maps the multimode fiber media interface IDs.
var MMFInterfaces = field.Codes{
	0x00: "Undefined",
	0x01: "10GBASE-SW (Clause 52)",
	0x02: "10GBASE-SR (Clause 52)",
	0x03: "25GBASE-SR (Clause 112)",
	0x04: "40GBASE-SR4 (Clause 86)",
	0x05: "40GE SWDM4 MSA Spec",
	0x06: "40GE BiDi",
	0x07: "50GBASE-SR (Clause 138)",
	0x08: "100GBASE-SR10 (Clause 86)",
	0x09: "100GBASE-SR4 (Clause 95)",
	0x0a: "100GE SWDM4 MSA Spec",
	0x0b: "100GE BiDi",
	0x0c: "100GBASE-SR2 (Clause 138)",
	0x0d: "100G-SR (Placeholder)",
	0x0e: "200GBASE-SR4 (Clause 138)",
	0x0f: "400GBASE-SR16 (Clause 123)",
	0x10: "400GBASE-SR8 (Clause 138)",
	0x11: "400G-SR4 (Placeholder)",
	0x12: "800G-SR8 (Placeholder)",
	0x1a: "400GBASE-SR4.2 (Clause 150) (400GE BiDi)",
	0xff: "End of list",
}

// SMFInterfaces maps the single mode fiber media interface IDs.
var SMFInterfaces = field.Codes{
	0x00: "Undefined",
	0x01: "10GBASE-LW (Cl 52)",
	0x02: "10GBASE-EW (Cl 52)",
	0x03: "10G-ZW",
	0x04: "10GBASE-LR (Cl 52)",
	0x05: "10GBASE-ER (Cl 52)",
	0x06: "10G-ZR",
	0x07: "25GBASE-LR (Cl 114)",
	0x08: "25GBASE-ER (Cl 114)",
	0x09: "40GBASE-LR4 (Cl 87)",
	0x0a: "40GBASE-FR (Cl 89)",
	0x0b: "50GBASE-FR (Cl 139)",
	0x0c: "50GBASE-LR (Cl 139)",
	0x0d: "100GBASE-LR4 (Cl 88)",
	0x0e: "100GBASE-ER4 (Cl 88)",
	0x0f: "100G PSM4 MSA Spec",
	0x10: "100G CWDM4 MSA Spec",
	0x11: "100G 4WDM-10 MSA Spec",
	0x12: "100G 4WDM-20 MSA Spec",
	0x13: "100G 4WDM-40 MSA Spec",
	0x14: "100GBASE-DR (Cl 140)",
	0x15: "100G-FR/100GBASE-FR1 (Cl 140)",
	0x16: "100G-LR/100GBASE-LR1 (Cl 140)",
	0x17: "200GBASE-DR4 (Cl 121)",
	0x18: "200GBASE-FR4 (Cl 122)",
	0x19: "200GBASE-LR4 (Cl 122)",
	0x1a: "400GBASE-FR8 (Cl 122)",
	0x1b: "400GBASE-LR8 (Cl 122)",
	0x1c: "400GBASE-DR4 (Cl 124)",
	0x1d: "400G-FR4/400GBASE-FR4 (Cl 151)",
	0x1e: "400G-LR4-10",
	0x3e: "400ZR, DWDM, amplified",
	0x3f: "400ZR, Single Wavelength, Unamplified",
	0xff: "End of list",
}

// CopperInterfaces maps the passive copper media interface IDs.
var CopperInterfaces = field.Codes{
	0x00: "Undefined",
	0x01: "Copper cable",
	0xff: "End of list",
}

// ActiveInterfaces maps the active cable media interface IDs.
var ActiveInterfaces = field.Codes{
	0x00: "Undefined",
	0x01: "Active Cable assembly with BER < 1e-12",
	0x02: "Active Cable assembly with BER < 5e-5",
	0x03: "Active Cable assembly with BER < 2.6e-4",
	0x04: "Active Cable assembly with BER < 1e-6",
	0xff: "End of list",
}

// BaseTInterfaces maps the BASE-T media interface IDs.
var BaseTInterfaces = field.Codes{
	0x00: "Undefined",
	0x01: "1000BASE-T (Clause 40)",
	0x02: "2.5GBASE-T (Clause 126)",
	0x03: "5GBASE-T (Clause 126)",
	0x04: "10GBASE-T (Clause 55)",
	0xff: "End of list",
}

// MediaInterfaces returns the media interface table for a module media
// type, or nil when the type is undefined.
func MediaInterfaces(media uint8) field.Codes {
	switch media {
	case MediaMMF:
		return MMFInterfaces
	case MediaSMF:
		return SMFInterfaces
	case MediaCopper:
		return CopperInterfaces
	case MediaActive:
		return ActiveInterfaces
	case MediaBaseT:
		return BaseTInterfaces
	}
	return nil
}
