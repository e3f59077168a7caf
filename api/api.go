// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package api defines the family-independent view of a transceiver.
//
// Every getter returns a fixed-shape result: values that could not be read
// are marked unavailable with the zero Opt, so that one failed field never
// hides the others.
package api // import "github.com/go-lpc/xcvr/api"

import (
	"context"
	"fmt"

	"github.com/go-lpc/xcvr/eeprom"
)

// Opt is an optional value. The zero Opt is unavailable.
type Opt[T any] struct {
	V  T
	OK bool
}

// Some returns an available value.
func Some[T any](v T) Opt[T] { return Opt[T]{V: v, OK: true} }

// Get returns the value and whether it is available.
func (o Opt[T]) Get() (T, bool) { return o.V, o.OK }

// Or returns the value, or def when unavailable.
func (o Opt[T]) Or(def T) T {
	if !o.OK {
		return def
	}
	return o.V
}

func (o Opt[T]) String() string {
	if !o.OK {
		return "N/A"
	}
	return fmt.Sprint(o.V)
}

// Transceiver is implemented by the per-family APIs.
type Transceiver interface {
	// Family returns the memory-map family ("sff8472", "sff8636", "cmis").
	Family() string
	// Eeprom returns the underlying field facade.
	Eeprom() *eeprom.Eeprom
	// Lanes returns the number of host lanes handled by the API.
	Lanes() int

	// Info returns the identity of the module, or nil when the
	// identifier could not be read.
	Info() *Info
	// DOM returns the digital diagnostics, or nil when the module does
	// not implement them.
	DOM() *DOM
	// Thresholds returns the alarm and warning thresholds, or nil when
	// unsupported (e.g. flat memory modules).
	Thresholds() *Thresholds
	// Status returns the per-lane status flags.
	Status() *Status

	// TxDisable disables (or enables) the transmitters of all lanes.
	TxDisable(disable bool) bool
	// TxDisableChannel disables (or enables) the transmitters of the
	// lanes set in mask.
	TxDisableChannel(mask uint8, disable bool) bool

	// Lpmode reports whether the module is in low-power mode.
	Lpmode() Opt[bool]
	// SetLpmode puts the module in (or out of) low-power mode.
	SetLpmode(ctx context.Context, lpmode bool) bool
	// Reset resets the module.
	Reset(ctx context.Context) bool
}

// Info is the identity of a module.
type Info struct {
	Type         Opt[string] // identifier
	Revision     Opt[string] // management interface revision
	Vendor       Opt[string]
	OUI          Opt[string]
	PartNumber   Opt[string]
	VendorRev    Opt[string]
	Serial       Opt[string]
	Date         Opt[string]
	Connector    Opt[string]
	Compliance   Opt[string] // media compliance or interface technology
	Wavelength   Opt[float64] // nm
	CableLength  Opt[float64] // m
	PowerClass   Opt[int64]
	MaxPower     Opt[float64] // W
	Firmware     Opt[string]  // active firmware
	FirmwareB    Opt[string]  // inactive firmware
	HardwareRev  Opt[string]
	Applications map[int]Application
}

// Application is an application advertised by a module.
type Application struct {
	HostInterface  string
	MediaInterface string
	HostLanes      int
	MediaLanes     int
	HostLaneMask   uint8 // allowed first host lanes
	MediaLaneMask  uint8 // allowed first media lanes
}

// DOM holds digital diagnostics, per lane quantities being indexed from
// lane 1 at index 0.
type DOM struct {
	Temperature Opt[float64]   // degC
	Voltage     Opt[float64]   // V
	RxPower     []Opt[float64] // mW
	TxBias      []Opt[float64] // mA
	TxPower     []Opt[float64] // mW
}

// Limits holds the alarm and warning thresholds of one monitor.
type Limits struct {
	HighAlarm Opt[float64]
	LowAlarm  Opt[float64]
	HighWarn  Opt[float64]
	LowWarn   Opt[float64]
}

// Thresholds holds the thresholds of the standard monitors.
type Thresholds struct {
	Temperature Limits // degC
	Voltage     Limits // V
	RxPower     Limits // mW
	TxBias      Limits // mA
	TxPower     Limits // mW
}

// Status holds per-lane status flags, lane 1 at index 0.
type Status struct {
	Module    Opt[string] // module state, when defined by the family
	RxLOS     []Opt[bool]
	TxLOS     []Opt[bool]
	TxFault   []Opt[bool]
	TxDisable []Opt[bool]
}
