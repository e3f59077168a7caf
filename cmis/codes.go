// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmis

import (
	"github.com/go-lpc/xcvr/field"
)

// Module states.
const (
	ModuleLowPwr = "ModuleLowPwr"
	ModulePwrUp  = "ModulePwrUp"
	ModuleReady  = "ModuleReady"
	ModulePwrDn  = "ModulePwrDn"
	ModuleFault  = "ModuleFault"
)

var moduleStates = field.Codes{
	0: "Reserved",
	1: ModuleLowPwr,
	2: ModulePwrUp,
	3: ModuleReady,
	4: ModulePwrDn,
	5: ModuleFault,
}

var faultCauses = field.Codes{
	0: "No Fault detected",
	1: "TEC runaway",
	2: "Data memory corrupted",
	3: "Program memory corrupted",
}

// Data path states.
const (
	DataPathDeactivated = "DataPathDeactivated"
	DataPathInit        = "DataPathInit"
	DataPathDeinit      = "DataPathDeinit"
	DataPathActivated   = "DataPathActivated"
	DataPathTxTurnOn    = "DataPathTxTurnOn"
	DataPathTxTurnOff   = "DataPathTxTurnOff"
	DataPathInitialized = "DataPathInitialized"
)

var datapathStates = field.Codes{
	0: "Reserved",
	1: DataPathDeactivated,
	2: DataPathInit,
	3: DataPathDeinit,
	4: DataPathActivated,
	5: DataPathTxTurnOn,
	6: DataPathTxTurnOff,
	7: DataPathInitialized,
}

// Configuration status of a lane, after an application select.
const (
	ConfigUndefined             = "ConfigUndefined"
	ConfigSuccess               = "ConfigSuccess"
	ConfigRejected              = "ConfigRejected"
	ConfigRejectedInvalidAppSel = "ConfigRejectedInvalidAppSel"
	ConfigRejectedInvalidPath   = "ConfigRejectedInvalidDataPath"
	ConfigRejectedInvalidSI     = "ConfigRejectedInvalidSI"
	ConfigRejectedLanesInUse    = "ConfigRejectedLanesInUse"
	ConfigRejectedPartialPath   = "ConfigRejectedPartialDataPath"
	ConfigInProgress            = "ConfigInProgress"
)

var configStatuses = field.Codes{
	0x0: ConfigUndefined,
	0x1: ConfigSuccess,
	0x2: ConfigRejected,
	0x3: ConfigRejectedInvalidAppSel,
	0x4: ConfigRejectedInvalidPath,
	0x5: ConfigRejectedInvalidSI,
	0x6: ConfigRejectedLanesInUse,
	0x7: ConfigRejectedPartialPath,
	0xc: ConfigInProgress,
}

var mediaTechnologies = field.Codes{
	0x00: "850 nm VCSEL",
	0x01: "1310 nm VCSEL",
	0x02: "1550 nm VCSEL",
	0x03: "1310 nm FP",
	0x04: "1310 nm DFB",
	0x05: "1550 nm DFB",
	0x06: "1310 nm EML",
	0x07: "1550 nm EML",
	0x08: "Others",
	0x09: "1490 nm DFB",
	0x0a: "Copper cable unequalized",
	0x0b: "Copper cable passive equalized",
	0x0c: "Copper cable, near and far end limiting active equalizers",
	0x0d: "Copper cable, far end limiting active equalizers",
	0x0e: "Copper cable, near end limiting active equalizers",
	0x0f: "Copper cable, linear active equalizers",
	0x10: "C-band tunable laser",
	0x11: "L-band tunable laser",
}
