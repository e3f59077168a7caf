// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sff8636 implements the SFF-8636 (QSFP+/QSFP28) memory map.
package sff8636 // import "github.com/go-lpc/xcvr/sff8636"

import (
	"context"
	"time"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/eeprom"
)

const (
	resetRetries = 20
	resetDelay   = 100 * time.Millisecond
)

// maxPower maps a power class to its maximum power consumption, in W.
var maxPower = map[int64]float64{
	1: 1.5,
	2: 2.0,
	3: 2.5,
	4: 3.5,
	5: 4.0,
	6: 4.5,
	7: 5.0,
}

// API gives access to an SFF-8636 module.
type API struct {
	ee *eeprom.Eeprom
}

// New returns the API of the module behind ee, which must use Map.
func New(ee *eeprom.Eeprom) *API {
	return &API{ee: ee}
}

func (*API) Family() string { return "sff8636" }
func (a *API) Eeprom() *eeprom.Eeprom { return a.ee }
func (*API) Lanes() int { return Lanes }

// FlatMemory reports whether the module only implements page 00h.
// Unreadable modules are considered flat.
func (a *API) FlatMemory() bool {
	v, ok := a.ee.ReadBool(FlatMem)
	return !ok || v
}

// PowerClass returns the power class (1-7) of the module.
func (a *API) PowerClass() api.Opt[int64] {
	ext := api.Int(a.ee, PowerClassExt)
	if ext.OK && ext.V != 0 {
		return api.Some(4 + ext.V)
	}
	pc := api.Int(a.ee, PowerClass)
	if !pc.OK {
		return pc
	}
	return api.Some(pc.V + 1)
}

// Info returns the identity of the module.
func (a *API) Info() *api.Info {
	typ := api.String(a.ee, Identifier)
	if !typ.OK {
		return nil
	}
	info := &api.Info{
		Type:       typ,
		Revision:   api.String(a.ee, Revision),
		Vendor:     api.String(a.ee, VendorName),
		OUI:        api.String(a.ee, VendorOUI),
		PartNumber: api.String(a.ee, VendorPN),
		VendorRev:  api.String(a.ee, VendorRev),
		Serial:     api.String(a.ee, VendorSN),
		Date:       api.String(a.ee, VendorDate),
		Connector:  api.String(a.ee, Connector),
		Compliance: api.String(a.ee, Compliance),
		Wavelength: api.Float(a.ee, Wavelength),
		PowerClass: a.PowerClass(),
	}
	if c := info.Compliance; c.OK && (c.V == "" || c.V == "Extended") {
		info.Compliance = api.String(a.ee, ExtCompliance)
	}
	if pc := info.PowerClass; pc.OK {
		if w, ok := maxPower[pc.V]; ok {
			info.MaxPower = api.Some(w)
		}
	}
	for _, l := range []struct {
		name string
		unit float64
	}{
		{LengthSMFKm, 1000},
		{LengthOM3, 2},
		{LengthOM2, 1},
		{LengthOM1, 1},
		{LengthCopper, 1},
	} {
		v := api.Int(a.ee, l.name)
		if v.OK && v.V != 0 {
			info.CableLength = api.Some(float64(v.V) * l.unit)
			break
		}
	}
	return info
}

// DOM returns the digital diagnostics of the module.
func (a *API) DOM() *api.DOM {
	return &api.DOM{
		Temperature: api.Float(a.ee, Temperature),
		Voltage:     api.Float(a.ee, Voltage),
		RxPower:     api.Lanes(a.ee, RxPowerLane, Lanes, api.Float),
		TxBias:      api.Lanes(a.ee, TxBiasLane, Lanes, api.Float),
		TxPower:     api.Lanes(a.ee, TxPowerLane, Lanes, api.Float),
	}
}

// Thresholds returns the thresholds held in page 03h, or nil for flat
// memory modules.
func (a *API) Thresholds() *api.Thresholds {
	if a.FlatMemory() {
		return nil
	}
	return &api.Thresholds{
		Temperature: api.ReadLimits(a.ee, "temp"),
		Voltage:     api.ReadLimits(a.ee, "vcc"),
		RxPower:     api.ReadLimits(a.ee, "rx-power"),
		TxBias:      api.ReadLimits(a.ee, "tx-bias"),
		TxPower:     api.ReadLimits(a.ee, "tx-power"),
	}
}

// Status returns the per-lane status flags.
func (a *API) Status() *api.Status {
	return &api.Status{
		RxLOS:     api.Lanes(a.ee, RxLOSLane, Lanes, api.Bool),
		TxLOS:     api.Lanes(a.ee, TxLOSLane, Lanes, api.Bool),
		TxFault:   api.Lanes(a.ee, TxFaultLane, Lanes, api.Bool),
		TxDisable: api.Lanes(a.ee, TxDisableLane, Lanes, api.Bool),
	}
}

// TxDisable disables (or enables) the transmitters of all lanes.
func (a *API) TxDisable(disable bool) bool {
	v := 0
	if disable {
		v = 0x0f
	}
	return a.ee.Write(TxDisable, v)
}

// TxDisableChannel disables (or enables) the transmitters of the lanes
// set in mask.
func (a *API) TxDisableChannel(mask uint8, disable bool) bool {
	cur, ok := a.ee.ReadInt(TxDisable)
	if !ok {
		return false
	}
	v := uint8(cur)
	if disable {
		v |= mask & 0x0f
	} else {
		v &^= mask & 0x0f
	}
	return a.ee.Write(TxDisable, v)
}

// PowerOverride reports whether low-power mode is controlled by software.
func (a *API) PowerOverride() api.Opt[bool] {
	return api.Bool(a.ee, PowerOverride)
}

// SetPowerOverride sets the power override and power set control bits.
func (a *API) SetPowerOverride(override, set bool) bool {
	return a.ee.Write(PowerOverride, override) && a.ee.Write(PowerSet, set)
}

// Lpmode reports whether the module is held in low-power mode by software.
func (a *API) Lpmode() api.Opt[bool] {
	ovr := api.Bool(a.ee, PowerOverride)
	set := api.Bool(a.ee, PowerSet)
	if !ovr.OK || !set.OK {
		return api.Opt[bool]{}
	}
	return api.Some(ovr.V && set.V)
}

// SetLpmode puts the module in (or out of) low-power mode through the
// power override. Power class 1 modules can not be overridden.
func (a *API) SetLpmode(ctx context.Context, lpmode bool) bool {
	pc := a.PowerClass()
	if !pc.OK || pc.V == 1 {
		return false
	}
	if !lpmode && pc.V >= 5 && !a.ee.Write(HighPowerClass, true) {
		return false
	}
	return a.SetPowerOverride(true, lpmode)
}

// Reset triggers a software reset and waits for the module to report
// data ready.
func (a *API) Reset(ctx context.Context) bool {
	if !a.ee.Write(SoftwareReset, true) {
		return false
	}
	return api.Poll(ctx, resetRetries, resetDelay, func() bool {
		v, ok := a.ee.ReadBool(DataNotReady)
		return ok && !v
	})
}

var _ api.Transceiver = (*API)(nil)
