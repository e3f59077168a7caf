// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmis

import (
	"context"

	"github.com/go-lpc/xcvr/api"
)

// ModuleState returns the current state of the module state machine.
func (a *API) ModuleState() api.Opt[string] {
	return api.String(a.ee, ModuleState)
}

// ModuleFaultCause returns the cause of the last ModuleFault state.
func (a *API) ModuleFaultCause() api.Opt[string] {
	return api.String(a.ee, FaultCause)
}

func (a *API) poll(ctx context.Context, cond func() bool) bool {
	if a.cfg.retries <= 0 {
		return true
	}
	return api.Poll(ctx, a.cfg.retries, a.cfg.delay, cond)
}

// Reset triggers a software reset of the module and waits for the module
// to answer again.
func (a *API) Reset(ctx context.Context) bool {
	if !a.ee.Write(SoftwareReset, true) {
		return false
	}
	a.ee.ClearCache()
	return a.poll(ctx, func() bool {
		return a.ModuleState().OK
	})
}

// Lpmode reports whether the module is in low-power state.
func (a *API) Lpmode() api.Opt[bool] {
	st := a.ModuleState()
	if !st.OK {
		return api.Opt[bool]{}
	}
	return api.Some(st.V == ModuleLowPwr || st.V == ModulePwrDn)
}

// SetLpmode requests the module to enter (or leave) low-power state, then
// polls the module state until the transition is observed.
//
// Leaving low-power state also clears the hardware low-power allow bit so
// that the module is controlled by software only.
func (a *API) SetLpmode(ctx context.Context, lpmode bool) bool {
	if lpmode {
		if !a.ee.Write(LowPwrRequestSW, true) {
			return false
		}
		return a.poll(ctx, func() bool {
			return a.ModuleState().V == ModuleLowPwr
		})
	}

	cur, ok := a.ee.ReadInt(ModuleControl)
	if !ok {
		return false
	}
	v := uint8(cur) &^ (1<<4 | 1<<6)
	if !a.ee.Write(ModuleControl, v) {
		return false
	}
	return a.poll(ctx, func() bool {
		st := a.ModuleState()
		return st.OK && st.V != ModuleLowPwr
	})
}

// DatapathState returns the data path state of each lane.
func (a *API) DatapathState() []api.Opt[string] {
	return lanes(a, DPStateLane, api.String)
}

// ConfigStatus returns the outcome of the last configuration command of
// each lane.
func (a *API) ConfigStatus() []api.Opt[string] {
	return lanes(a, ConfigStatusLane, api.String)
}

// DatapathStateChanged returns the latched data path state changed flags.
func (a *API) DatapathStateChanged() []api.Opt[bool] {
	out := make([]api.Opt[bool], Lanes)
	if a.FlatMemory() {
		return out
	}
	v, ok := a.ee.ReadInt(DPStateChanged)
	if !ok {
		return out
	}
	for i := range out {
		out[i] = api.Some((v>>i)&1 == 1)
	}
	return out
}

// SetDatapathDeinit puts the data paths of the lanes in mask into the
// deactivated state.
func (a *API) SetDatapathDeinit(mask uint8) bool {
	return a.updateDeinit(mask, true)
}

// SetDatapathInit releases the lanes in mask from the deinit request, so
// that their data paths get initialized.
func (a *API) SetDatapathInit(mask uint8) bool {
	return a.updateDeinit(mask, false)
}

func (a *API) updateDeinit(mask uint8, deinit bool) bool {
	if a.FlatMemory() {
		return false
	}
	cur, ok := a.ee.ReadInt(DatapathDeinit)
	if !ok {
		return false
	}
	v := uint8(cur)
	if deinit {
		v |= mask
	} else {
		v &^= mask
	}
	return a.ee.Write(DatapathDeinit, v)
}

// WaitDatapathState polls the data path state of the lanes in mask until
// all of them reached state.
func (a *API) WaitDatapathState(ctx context.Context, mask uint8, state string) bool {
	return a.poll(ctx, func() bool {
		st := a.DatapathState()
		for _, lane := range api.Bits(mask) {
			if s := st[lane-1]; !s.OK || s.V != state {
				return false
			}
		}
		return true
	})
}
