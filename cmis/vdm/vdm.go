// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vdm decodes the CMIS Versatile Diagnostics Monitoring (VDM)
// pages.
//
// Each supported group is made of a descriptor page (20h-23h) holding 64
// slots, the page of the sampled values (+4) and the page of the
// threshold sets (+8). The latched flags of all groups live in page 2Ch.
package vdm // import "github.com/go-lpc/xcvr/cmis/vdm"

import (
	"context"
	"encoding/binary"
	"io"
	"log"
	"time"

	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/eeprom"
	"github.com/go-lpc/xcvr/page"
)

const (
	pageDescr  = 0x20
	pageValues = 0x24
	pageThresh = 0x28
	pageFlags  = 0x2c
	pageCtrl   = 0x2f

	// Slots is the number of descriptor slots of a group.
	Slots = 64
	// MaxGroups is the maximum number of VDM groups.
	MaxGroups = 4
)

type config struct {
	msg    *log.Logger
	settle time.Duration
}

func newConfig() config {
	return config{
		msg:    log.New(io.Discard, "vdm: ", 0),
		settle: 100 * time.Millisecond,
	}
}

// Option configures a Decoder.
type Option func(*config)

// WithLogger sets the logger of the decoder.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithSettle sets the delay following each edge of the freeze pulse.
func WithSettle(d time.Duration) Option {
	return func(cfg *config) {
		cfg.settle = d
	}
}

// Observable is the decoded state of one VDM slot.
type Observable struct {
	Type uint8
	Name string
	Lane int // 1-8

	Value     float64
	HighAlarm float64
	LowAlarm  float64
	HighWarn  float64
	LowWarn   float64

	HighAlarmFlag bool
	LowAlarmFlag  bool
	HighWarnFlag  bool
	LowWarnFlag   bool
}

// Decoder reads the VDM observables of a CMIS module.
type Decoder struct {
	msg *log.Logger
	ee  *eeprom.Eeprom
	cfg config
}

// New creates a VDM decoder for the CMIS module behind ee.
func New(ee *eeprom.Eeprom, opts ...Option) *Decoder {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Decoder{msg: cfg.msg, ee: ee, cfg: cfg}
}

// Supported reports whether the module is paged and advertises VDM.
func (d *Decoder) Supported() bool {
	flat := d.ee.ReadRaw(2, 1)
	if flat == nil || flat[0]&0x80 != 0 {
		return false
	}
	// page 01h, byte 142, bit 6.
	adv := d.ee.ReadRaw(page.Upper(0x01, 14), 1)
	return adv != nil && adv[0]&0x40 != 0
}

// Groups returns the number of supported VDM groups, or 0.
func (d *Decoder) Groups() int {
	if !d.Supported() {
		return 0
	}
	raw := d.ee.ReadRaw(page.Upper(pageCtrl, 0), 1)
	if raw == nil {
		return 0
	}
	return int(raw[0]&0x03) + 1
}

// Refresh pulses the freeze request bit (2Fh:144, bit 7) so the module
// latches fresh samples: set, wait, clear, wait.
func (d *Decoder) Refresh(ctx context.Context) bool {
	off := page.Upper(pageCtrl, 16)
	cur := d.ee.ReadRaw(off, 1)
	if cur == nil {
		return false
	}
	if !d.ee.WriteRaw(off, []byte{cur[0] | 0x80}) {
		return false
	}
	if !api.Sleep(ctx, d.cfg.settle) {
		return false
	}
	if !d.ee.WriteRaw(off, []byte{cur[0] &^ 0x80}) {
		return false
	}
	return api.Sleep(ctx, d.cfg.settle)
}

// Read refreshes and decodes all recognized observables, in descriptor
// order. Slots with unused or unrecognized types are skipped. Read returns
// nil when the module does not support VDM or when the refresh fails.
func (d *Decoder) Read(ctx context.Context) []Observable {
	n := d.Groups()
	if n == 0 {
		return nil
	}
	if !d.Refresh(ctx) {
		d.msg.Printf("could not refresh VDM samples")
		return nil
	}

	flags := d.ee.ReadRaw(page.Upper(pageFlags, 0), page.Size)
	var out []Observable
	for g := 0; g < n; g++ {
		descr := d.ee.ReadRaw(page.Upper(pageDescr+g, 0), page.Size)
		values := d.ee.ReadRaw(page.Upper(pageValues+g, 0), page.Size)
		thresh := d.ee.ReadRaw(page.Upper(pageThresh+g, 0), page.Size)
		if descr == nil || values == nil {
			d.msg.Printf("could not read VDM group %d", g)
			continue
		}
		for i := 0; i < Slots; i++ {
			id := descr[2*i+1]
			typ, ok := Types[id]
			if !ok {
				continue
			}
			set := int(descr[2*i] >> 4)
			obs := Observable{
				Type:  id,
				Name:  typ.Name,
				Lane:  int(descr[2*i]&0x0f) + 1,
				Value: typ.Decode(binary.BigEndian.Uint16(values[2*i:])),
			}
			if thresh != nil {
				p := thresh[8*set:]
				obs.HighAlarm = typ.Decode(binary.BigEndian.Uint16(p[0:]))
				obs.LowAlarm = typ.Decode(binary.BigEndian.Uint16(p[2:]))
				obs.HighWarn = typ.Decode(binary.BigEndian.Uint16(p[4:]))
				obs.LowWarn = typ.Decode(binary.BigEndian.Uint16(p[6:]))
			}
			if flags != nil {
				slot := g*Slots + i
				v := flags[slot/2] >> (4 * uint(slot%2))
				obs.HighAlarmFlag = v&0x1 != 0
				obs.LowAlarmFlag = v&0x2 != 0
				obs.HighWarnFlag = v&0x4 != 0
				obs.LowWarnFlag = v&0x8 != 0
			}
			out = append(out, obs)
		}
	}
	return out
}

// ByLane indexes observables by name and lane.
func ByLane(obs []Observable) map[string]map[int]Observable {
	out := make(map[string]map[int]Observable)
	for _, o := range obs {
		m, ok := out[o.Name]
		if !ok {
			m = make(map[int]Observable)
			out[o.Name] = m
		}
		m[o.Lane] = o
	}
	return out
}
