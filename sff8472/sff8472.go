// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sff8472 implements the SFF-8472 (SFP/SFP+/SFP28) memory map.
package sff8472 // import "github.com/go-lpc/xcvr/sff8472"

import (
	"context"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/eeprom"
	"github.com/go-lpc/xcvr/field"
)

// API gives access to an SFF-8472 module.
type API struct {
	ee *eeprom.Eeprom
}

// New returns the API of the module behind ee, which must use Map.
func New(ee *eeprom.Eeprom) *API {
	return &API{ee: ee}
}

func (*API) Family() string { return "sff8472" }
func (a *API) Eeprom() *eeprom.Eeprom { return a.ee }
func (*API) Lanes() int { return 1 }
func (*API) Lpmode() api.Opt[bool] { return api.Opt[bool]{} }
func (*API) Reset(context.Context) bool { return false }

// SetLpmode is not supported by SFP modules.
func (*API) SetLpmode(context.Context, bool) bool { return false }

// Info returns the identity of the module.
func (a *API) Info() *api.Info {
	typ := api.String(a.ee, Identifier)
	if !typ.OK {
		return nil
	}
	info := &api.Info{
		Type:       typ,
		Revision:   api.String(a.ee, SFF8472Revision),
		Vendor:     api.String(a.ee, VendorName),
		OUI:        api.String(a.ee, VendorOUI),
		PartNumber: api.String(a.ee, VendorPN),
		VendorRev:  api.String(a.ee, VendorRev),
		Serial:     api.String(a.ee, VendorSN),
		Date:       api.String(a.ee, VendorDate),
		Connector:  api.String(a.ee, Connector),
		Compliance: api.String(a.ee, Compliance),
	}
	if info.Compliance.OK && info.Compliance.V == "" {
		info.Compliance = api.String(a.ee, ExtCompliance)
	}
	if v := api.Int(a.ee, Wavelength); v.OK {
		info.Wavelength = api.Some(float64(v.V))
	}
	info.CableLength = a.cableLength()
	return info
}

func (a *API) cableLength() api.Opt[float64] {
	for _, l := range []struct {
		name string
		unit float64
	}{
		{LengthSMFKm, 1000},
		{LengthSMF, 100},
		{LengthOM3, 10},
		{LengthOM2, 10},
		{LengthOM1, 10},
		{LengthCopper, 1},
	} {
		v := api.Int(a.ee, l.name)
		if v.OK && v.V != 0 {
			return api.Some(float64(v.V) * l.unit)
		}
	}
	return api.Opt[float64]{}
}

// DDM reports whether digital diagnostics are implemented.
func (a *API) DDM() bool {
	v, ok := a.ee.ReadBool(DDM)
	return ok && v
}

// External reports whether the diagnostics are externally calibrated.
func (a *API) External() bool {
	v, ok := a.ee.ReadBool(ExternalCal)
	return ok && v
}

// monitor reads one analog monitor (or threshold) field, applying the
// external calibration constants when needed.
type monitor struct {
	scale  field.Scale
	slope  string
	offset string
}

var (
	monTemp    = monitor{field.Temperature, TempSlope, TempOffset}
	monVcc     = monitor{field.Voltage, VccSlope, VccOffset}
	monTxBias  = monitor{field.Bias, TxBiasSlope, TxBiasOffset}
	monTxPower = monitor{field.Power, TxPowerSlope, TxPowerOffset}
	monRxPower = monitor{scale: field.Power}
)

func (a *API) read(mon monitor, name string, ext bool) api.Opt[float64] {
	if !ext {
		return api.Float(a.ee, name)
	}
	f, ok := a.ee.Field(name)
	if !ok {
		return api.Opt[float64]{}
	}
	raw := a.ee.ReadRaw(f.Offset, f.Size)
	if raw == nil {
		return api.Opt[float64]{}
	}
	v := float64(field.BigEndian(raw, mon.scale.Signed))

	if mon.slope == "" {
		pf, _ := a.ee.Field(RxPowerPoly)
		poly, ok := field.NewPoly(a.ee.ReadRaw(pf.Offset, pf.Size))
		if !ok {
			return api.Opt[float64]{}
		}
		return api.Some(poly.Apply(v) * mon.scale.Factor)
	}

	sf, _ := a.ee.Field(mon.slope)
	of, _ := a.ee.Field(mon.offset)
	cal, ok := field.NewCalib(
		a.ee.ReadRaw(sf.Offset, sf.Size),
		a.ee.ReadRaw(of.Offset, of.Size),
	)
	if !ok {
		return api.Opt[float64]{}
	}
	return api.Some(cal.Apply(v) * mon.scale.Factor)
}

// DOM returns the digital diagnostics, or nil when not implemented.
func (a *API) DOM() *api.DOM {
	if !a.DDM() {
		return nil
	}
	ext := a.External()
	return &api.DOM{
		Temperature: a.read(monTemp, Temperature, ext),
		Voltage:     a.read(monVcc, Voltage, ext),
		RxPower:     []api.Opt[float64]{a.read(monRxPower, RxPower, ext)},
		TxBias:      []api.Opt[float64]{a.read(monTxBias, TxBias, ext)},
		TxPower:     []api.Opt[float64]{a.read(monTxPower, TxPower, ext)},
	}
}

func (a *API) limits(mon monitor, prefix string, ext bool) api.Limits {
	return api.Limits{
		HighAlarm: a.read(mon, prefix+"-high-alarm", ext),
		LowAlarm:  a.read(mon, prefix+"-low-alarm", ext),
		HighWarn:  a.read(mon, prefix+"-high-warn", ext),
		LowWarn:   a.read(mon, prefix+"-low-warn", ext),
	}
}

// Thresholds returns the alarm and warning thresholds, or nil when
// diagnostics are not implemented.
func (a *API) Thresholds() *api.Thresholds {
	if !a.DDM() {
		return nil
	}
	ext := a.External()
	return &api.Thresholds{
		Temperature: a.limits(monTemp, "temp", ext),
		Voltage:     a.limits(monVcc, "vcc", ext),
		TxBias:      a.limits(monTxBias, "tx-bias", ext),
		TxPower:     a.limits(monTxPower, "tx-power", ext),
		RxPower:     a.limits(monRxPower, "rx-power", ext),
	}
}

// Status returns the status flags of the module.
func (a *API) Status() *api.Status {
	return &api.Status{
		RxLOS:     []api.Opt[bool]{api.Bool(a.ee, RxLOS)},
		TxLOS:     []api.Opt[bool]{{}},
		TxFault:   []api.Opt[bool]{api.Bool(a.ee, TxFault)},
		TxDisable: []api.Opt[bool]{api.Bool(a.ee, TxDisableState)},
	}
}

// TxDisable sets the soft tx disable control bit.
func (a *API) TxDisable(disable bool) bool {
	return a.ee.Write(SoftTxDisable, disable)
}

// TxDisableChannel sets the soft tx disable control bit when lane 1 is in
// mask.
func (a *API) TxDisableChannel(mask uint8, disable bool) bool {
	if mask&1 == 0 {
		return true
	}
	return a.TxDisable(disable)
}

var _ api.Transceiver = (*API)(nil)
