// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmis

import (
	"fmt"
)

// Loopback is a loopback control point.
type Loopback uint8

const (
	LoopbackNone Loopback = iota
	LoopbackHostInput
	LoopbackHostOutput
	LoopbackMediaInput
	LoopbackMediaOutput
)

func (lb Loopback) String() string {
	switch lb {
	case LoopbackNone:
		return "none"
	case LoopbackHostInput:
		return "host-side-input"
	case LoopbackHostOutput:
		return "host-side-output"
	case LoopbackMediaInput:
		return "media-side-input"
	case LoopbackMediaOutput:
		return "media-side-output"
	}
	return fmt.Sprintf("Loopback(%d)", uint8(lb))
}

// ParseLoopback parses the name of a loopback control point.
func ParseLoopback(name string) (Loopback, error) {
	for _, lb := range []Loopback{
		LoopbackNone,
		LoopbackHostInput, LoopbackHostOutput,
		LoopbackMediaInput, LoopbackMediaOutput,
	} {
		if lb.String() == name {
			return lb, nil
		}
	}
	return 0, fmt.Errorf("cmis: invalid loopback mode %q", name)
}

func (lb Loopback) host() bool {
	return lb == LoopbackHostInput || lb == LoopbackHostOutput
}

func (lb Loopback) register() string {
	switch lb {
	case LoopbackHostInput:
		return HostInputLoopback
	case LoopbackHostOutput:
		return HostOutputLoopback
	case LoopbackMediaInput:
		return MediaInputLoopback
	case LoopbackMediaOutput:
		return MediaOutputLoopback
	}
	return ""
}

// LoopbackCaps describes the loopback capabilities advertised in page 13h.
type LoopbackCaps struct {
	MediaOutput  bool
	MediaInput   bool
	HostOutput   bool
	HostInput    bool
	Simultaneous bool // host and media side loopbacks at the same time
	PerLaneMedia bool
	PerLaneHost  bool
}

func (c LoopbackCaps) supports(lb Loopback) bool {
	switch lb {
	case LoopbackHostInput:
		return c.HostInput
	case LoopbackHostOutput:
		return c.HostOutput
	case LoopbackMediaInput:
		return c.MediaInput
	case LoopbackMediaOutput:
		return c.MediaOutput
	}
	return true
}

// LoopbackCapability returns the loopback capabilities of the module.
func (a *API) LoopbackCapability() (LoopbackCaps, bool) {
	if a.FlatMemory() {
		return LoopbackCaps{}, false
	}
	f, _ := a.ee.Field(LoopbackSupport)
	v, ok := a.ee.Byte(f.Offset)
	if !ok {
		return LoopbackCaps{}, false
	}
	bit := func(i uint) bool { return (v>>i)&1 == 1 }
	return LoopbackCaps{
		MediaOutput:  bit(0),
		MediaInput:   bit(1),
		HostOutput:   bit(2),
		HostInput:    bit(3),
		Simultaneous: bit(4),
		PerLaneMedia: bit(5),
		PerLaneHost:  bit(6),
	}, true
}

// Loopbacks returns the enabled lanes of each loopback control point.
func (a *API) Loopbacks() (map[Loopback]uint8, bool) {
	if a.FlatMemory() {
		return nil, false
	}
	out := make(map[Loopback]uint8, 4)
	for _, lb := range []Loopback{
		LoopbackHostInput, LoopbackHostOutput,
		LoopbackMediaInput, LoopbackMediaOutput,
	} {
		v, ok := a.ee.ReadInt(lb.register())
		if !ok {
			return nil, false
		}
		out[lb] = uint8(v)
	}
	return out, true
}

// SetLoopback enables (or disables) loopback lb on the lanes in mask.
// LoopbackNone disables every loopback on all lanes.
//
// SetLoopback returns false when the module capabilities do not allow the
// requested configuration: missing loopback point, per-lane control on a
// module that only supports all-lanes control, or host and media side
// loopbacks enabled together without simultaneous support.
func (a *API) SetLoopback(lb Loopback, mask uint8, enable bool) bool {
	caps, ok := a.LoopbackCapability()
	if !ok {
		return false
	}

	if lb == LoopbackNone {
		for _, reg := range []string{
			HostInputLoopback, HostOutputLoopback,
			MediaInputLoopback, MediaOutputLoopback,
		} {
			if !a.ee.Write(reg, 0) {
				return false
			}
		}
		return true
	}

	if !caps.supports(lb) {
		a.msg.Printf("loopback %v not supported", lb)
		return false
	}
	perLane := caps.PerLaneMedia
	if lb.host() {
		perLane = caps.PerLaneHost
	}
	if mask != 0xff && !perLane {
		a.msg.Printf("per-lane loopback %v not supported", lb)
		return false
	}

	if enable && !caps.Simultaneous {
		cur, ok := a.Loopbacks()
		if !ok {
			return false
		}
		for other, v := range cur {
			if other.host() != lb.host() && v != 0 {
				a.msg.Printf("loopback %v conflicts with enabled %v", lb, other)
				return false
			}
		}
	}

	reg := lb.register()
	cur, ok := a.ee.ReadInt(reg)
	if !ok {
		return false
	}
	v := uint8(cur)
	if enable {
		v |= mask
	} else {
		v &^= mask
	}
	return a.ee.Write(reg, v)
}
