// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmis implements the CMIS (QSFP-DD/OSFP) memory map and the
// module management operations built on it: module and data path state
// machines, application selection, loopback and low-power control.
//
// Lane-indexed fields refer to bank 0 (lanes 1 to 8).
package cmis // import "github.com/go-lpc/xcvr/cmis"

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/cmis/cdb"
	"github.com/go-lpc/xcvr/cmis/vdm"
	"github.com/go-lpc/xcvr/eeprom"
	"github.com/go-lpc/xcvr/sff8024"
)

type config struct {
	msg      *log.Logger
	retries  int
	delay    time.Duration
	runDelay time.Duration
}

func newConfig() config {
	return config{
		msg:      log.New(io.Discard, "cmis: ", 0),
		retries:  50,
		delay:    100 * time.Millisecond,
		runDelay: cdb.DefaultRunDelay,
	}
}

// Option configures an API.
type Option func(*config)

// WithLogger sets the logger of the API.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithPollRetries sets how many times module and data path states are
// polled after a state-changing command. Zero disables waiting.
func WithPollRetries(n int) Option {
	return func(cfg *config) {
		cfg.retries = n
	}
}

// WithPollDelay sets the delay between two state polls.
func WithPollDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.delay = d
	}
}

// WithRunDelay sets the reset delay requested when FirmwareUpgrade runs
// the downloaded image.
func WithRunDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.runDelay = d
	}
}

// API gives access to a CMIS module.
type API struct {
	msg *log.Logger
	ee  *eeprom.Eeprom
	cfg config
}

// New returns the API of the module behind ee, which must use Map.
func New(ee *eeprom.Eeprom, opts ...Option) *API {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &API{msg: cfg.msg, ee: ee, cfg: cfg}
}

func (*API) Family() string { return "cmis" }
func (a *API) Eeprom() *eeprom.Eeprom { return a.ee }
func (*API) Lanes() int { return Lanes }

// FlatMemory reports whether the module only implements the lower page and
// page 00h. Unreadable modules are considered flat so that no page switch
// is ever attempted on them.
func (a *API) FlatMemory() bool {
	v, ok := a.ee.ReadBool(FlatMem)
	return !ok || v
}

// Revision returns the CMIS revision, as "major.minor".
func (a *API) Revision() api.Opt[string] {
	v, ok := a.ee.ReadInt(Revision)
	if !ok {
		return api.Opt[string]{}
	}
	return api.Some(fmt.Sprintf("%d.%d", v>>4, v&0x0f))
}

func (a *API) version(name string) api.Opt[string] {
	f, _ := a.ee.Field(name)
	return api.Version(a.ee.ReadRaw(f.Offset, f.Size))
}

// ActiveFirmware returns the version of the running firmware image.
func (a *API) ActiveFirmware() api.Opt[string] {
	return a.version(ActiveFirmware)
}

// InactiveFirmware returns the version of the inactive firmware image.
func (a *API) InactiveFirmware() api.Opt[string] {
	if a.FlatMemory() {
		return api.Opt[string]{}
	}
	return a.version(InactiveFirmware)
}

// HardwareRevision returns the hardware revision of the module.
func (a *API) HardwareRevision() api.Opt[string] {
	if a.FlatMemory() {
		return api.Opt[string]{}
	}
	return a.version(HardwareRev)
}

// PowerClass returns the power class (1-8) of the module.
func (a *API) PowerClass() api.Opt[int64] {
	v := api.Int(a.ee, PowerClass)
	if !v.OK {
		return v
	}
	return api.Some(v.V + 1)
}

// Info returns the identity of the module.
func (a *API) Info() *api.Info {
	typ := api.String(a.ee, Identifier)
	if !typ.OK {
		return nil
	}
	info := &api.Info{
		Type:         typ,
		Revision:     a.Revision(),
		Vendor:       api.String(a.ee, VendorName),
		OUI:          api.String(a.ee, VendorOUI),
		PartNumber:   api.String(a.ee, VendorPN),
		VendorRev:    api.String(a.ee, VendorRev),
		Serial:       api.String(a.ee, VendorSN),
		Date:         api.String(a.ee, VendorDate),
		Connector:    api.String(a.ee, Connector),
		Compliance:   api.String(a.ee, MediaTech),
		CableLength:  api.Float(a.ee, CableLength),
		PowerClass:   a.PowerClass(),
		MaxPower:     api.Float(a.ee, MaxPower),
		Firmware:     a.ActiveFirmware(),
		FirmwareB:    a.InactiveFirmware(),
		HardwareRev:  a.HardwareRevision(),
		Applications: a.ApplicationAdvertisement(),
	}
	if !a.FlatMemory() {
		info.Wavelength = api.Float(a.ee, Wavelength)
	}
	return info
}

// MediaType returns the raw module media type.
func (a *API) MediaType() (uint8, bool) {
	f, _ := a.ee.Field(MediaType)
	return a.ee.Byte(f.Offset)
}

// MediaInterface returns the name of media interface id, looked up in the
// table of the module media type.
func (a *API) MediaInterface(id uint8) string {
	media, ok := a.MediaType()
	if !ok {
		return "Unknown"
	}
	codes := sff8024.MediaInterfaces(media)
	if codes == nil {
		return "Unknown"
	}
	return codes.Name(id)
}

// lanes reads a per-lane field, all lanes being unavailable on flat
// memory modules.
func lanes[T any](a *API, format string, fct func(*eeprom.Eeprom, string) api.Opt[T]) []api.Opt[T] {
	if a.FlatMemory() {
		return make([]api.Opt[T], Lanes)
	}
	return api.Lanes(a.ee, format, Lanes, fct)
}

// DOM returns the module and lane monitors.
func (a *API) DOM() *api.DOM {
	dom := &api.DOM{
		Temperature: api.Float(a.ee, Temperature),
		Voltage:     api.Float(a.ee, Voltage),
		RxPower:     lanes(a, RxPowerLane, api.Float),
		TxBias:      lanes(a, TxBiasLane, api.Float),
		TxPower:     lanes(a, TxPowerLane, api.Float),
	}
	if a.FlatMemory() {
		return dom
	}
	scale := a.biasScale()
	for i := range dom.TxBias {
		dom.TxBias[i].V *= scale
	}
	return dom
}

// biasScale returns the factor applied to tx bias monitors and thresholds.
func (a *API) biasScale() float64 {
	m := api.Int(a.ee, BiasMultiplier)
	if !m.OK || m.V <= 0 {
		return 1
	}
	return float64(int64(1) << m.V)
}

// Thresholds returns the module and lane thresholds held in page 02h, or
// nil for flat memory modules. Tx bias thresholds carry the same
// multiplier as the tx bias monitors.
func (a *API) Thresholds() *api.Thresholds {
	if a.FlatMemory() {
		return nil
	}
	th := &api.Thresholds{
		Temperature: api.ReadLimits(a.ee, "temp"),
		Voltage:     api.ReadLimits(a.ee, "vcc"),
		RxPower:     api.ReadLimits(a.ee, "rx-power"),
		TxBias:      api.ReadLimits(a.ee, "tx-bias"),
		TxPower:     api.ReadLimits(a.ee, "tx-power"),
	}
	scale := a.biasScale()
	for _, v := range []*api.Opt[float64]{
		&th.TxBias.HighAlarm, &th.TxBias.LowAlarm,
		&th.TxBias.HighWarn, &th.TxBias.LowWarn,
	} {
		v.V *= scale
	}
	return th
}

// Status returns the module state and the latched lane flags.
func (a *API) Status() *api.Status {
	return &api.Status{
		Module:    a.ModuleState(),
		RxLOS:     lanes(a, RxLOSLane, api.Bool),
		TxLOS:     lanes(a, TxLOSLane, api.Bool),
		TxFault:   lanes(a, TxFaultLane, api.Bool),
		TxDisable: lanes(a, TxDisableLane, api.Bool),
	}
}

// RxLOL returns the latched rx loss of lock flags.
func (a *API) RxLOL() []api.Opt[bool] {
	return lanes(a, RxLOLLane, api.Bool)
}

// ModuleFlags returns the latched module-level flags.
func (a *API) ModuleFlags() map[string]any {
	v, ok := a.ee.Read("module-flags").(map[string]any)
	if !ok {
		return nil
	}
	return v
}

// TxDisable disables (or enables) the transmitters of all lanes.
func (a *API) TxDisable(disable bool) bool {
	if a.FlatMemory() {
		return false
	}
	v := 0
	if disable {
		v = 0xff
	}
	return a.ee.Write(TxDisable, v)
}

// TxDisableChannel disables (or enables) the transmitters of the lanes
// set in mask.
func (a *API) TxDisableChannel(mask uint8, disable bool) bool {
	if a.FlatMemory() {
		return false
	}
	cur, ok := a.ee.ReadInt(TxDisable)
	if !ok {
		return false
	}
	v := uint8(cur)
	if disable {
		v |= mask
	} else {
		v &^= mask
	}
	return a.ee.Write(TxDisable, v)
}

// VDMSupported reports whether the module implements VDM pages.
func (a *API) VDMSupported() bool {
	if a.FlatMemory() {
		return false
	}
	v, ok := a.ee.ReadBool(VDMSupported)
	return ok && v
}

// VDM returns a VDM decoder for the module.
func (a *API) VDM(opts ...vdm.Option) *vdm.Decoder {
	opts = append([]vdm.Option{vdm.WithLogger(a.msg)}, opts...)
	return vdm.New(a.ee, opts...)
}

var _ api.Transceiver = (*API)(nil)
