// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmis

import (
	"fmt"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/field"
	"github.com/go-lpc/xcvr/sff8024"
)

func (a *API) appByte(format string, app int) (uint8, bool) {
	name := fmt.Sprintf(format, app)
	f, ok := a.ee.Field(name)
	if !ok {
		return 0, false
	}
	if f.Kind == field.Enum {
		return a.ee.Byte(f.Offset)
	}
	v, ok := a.ee.ReadInt(name)
	return uint8(v), ok
}

// validApp reports whether app is an application number whose
// advertisement can be read from this module.
func (a *API) validApp(app int) bool {
	switch {
	case app <= 0 || app > Applications:
		return false
	case app > 8:
		return !a.FlatMemory()
	}
	return true
}

// ApplicationAdvertisement returns the advertised applications, keyed from
// 1. The list ends at the first undefined or end-of-list host interface.
func (a *API) ApplicationAdvertisement() map[int]api.Application {
	apps := make(map[int]api.Application)
	for app := 1; app <= Applications; app++ {
		if !a.validApp(app) {
			break
		}
		host, ok := a.appByte(HostIfApp, app)
		if !ok || host == 0x00 || host == sff8024.EndOfList {
			break
		}
		name := sff8024.HostInterfaces.Name(host)
		media, _ := a.appByte(MediaIfApp, app)
		hostLanes, _ := a.appByte(HostLanesApp, app)
		mediaLanes, _ := a.appByte(MediaLanesApp, app)
		hostMask, _ := a.appByte(HostAssignApp, app)
		var mediaMask uint8
		if !a.FlatMemory() {
			mediaMask, _ = a.appByte(MediaAssignApp, app)
		}
		apps[app] = api.Application{
			HostInterface:  name,
			MediaInterface: a.MediaInterface(media),
			HostLanes:      int(hostLanes),
			MediaLanes:     int(mediaLanes),
			HostLaneMask:   hostMask,
			MediaLaneMask:  mediaMask,
		}
	}
	return apps
}

func (a *API) appInt(format string, app int) api.Opt[int64] {
	if !a.validApp(app) {
		return api.Opt[int64]{}
	}
	return api.Int(a.ee, fmt.Sprintf(format, app))
}

// HostLaneCount returns the host lane count of application app.
func (a *API) HostLaneCount(app int) api.Opt[int64] {
	return a.appInt(HostLanesApp, app)
}

// MediaLaneCount returns the media lane count of application app.
func (a *API) MediaLaneCount(app int) api.Opt[int64] {
	return a.appInt(MediaLanesApp, app)
}

// HostLaneAssignment returns the bitmask of the allowed first host lanes
// of application app.
func (a *API) HostLaneAssignment(app int) api.Opt[int64] {
	return a.appInt(HostAssignApp, app)
}

// MediaLaneAssignment returns the bitmask of the allowed first media lanes
// of application app. It lives in page 01h.
func (a *API) MediaLaneAssignment(app int) api.Opt[int64] {
	if a.FlatMemory() {
		return api.Opt[int64]{}
	}
	return a.appInt(MediaAssignApp, app)
}

// DPConfig is the data path configuration of one lane.
type DPConfig struct {
	AppSel     int  // application, 0 when unused
	DataPathID int  // first lane (0-7) of the data path
	Explicit   bool // explicit control of the signal integrity settings
}

func (c DPConfig) byte() uint8 {
	v := uint8(c.AppSel&0x0f)<<4 | uint8(c.DataPathID&0x07)<<1
	if c.Explicit {
		v |= 1
	}
	return v
}

func decodeDPConfig(v int64) DPConfig {
	return DPConfig{
		AppSel:     int(v>>4) & 0x0f,
		DataPathID: int(v>>1) & 0x07,
		Explicit:   v&1 == 1,
	}
}

// SetApplication stages application app for the lanes in mask, with one
// write per lane. The data path is identified by the first lane of mask.
// The staged configuration is applied by ApplyDatapathInit.
func (a *API) SetApplication(mask uint8, app int, explicit bool) bool {
	if a.FlatMemory() || mask == 0 || app < 0 || app > Applications {
		return false
	}
	lanes := api.Bits(mask)
	cfg := DPConfig{AppSel: app, DataPathID: lanes[0] - 1, Explicit: explicit}
	for _, lane := range lanes {
		if !a.ee.Write(fmt.Sprintf(StagedConfigLane, lane), cfg.byte()) {
			a.msg.Printf("could not stage application %d on lane %d", app, lane)
			return false
		}
	}
	return true
}

// ApplyDatapathInit applies the staged configuration of the lanes in mask.
func (a *API) ApplyDatapathInit(mask uint8) bool {
	if a.FlatMemory() {
		return false
	}
	return a.ee.Write(ApplyDPInit, mask)
}

// ActiveApplication returns the active data path configuration of each
// lane.
func (a *API) ActiveApplication() []api.Opt[DPConfig] {
	out := make([]api.Opt[DPConfig], Lanes)
	if a.FlatMemory() {
		return out
	}
	for i := range out {
		v, ok := a.ee.ReadInt(fmt.Sprintf(ActiveConfigLane, i+1))
		if ok {
			out[i] = api.Some(decodeDPConfig(v))
		}
	}
	return out
}
