// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package monitor polls a table of transceiver ports concurrently and
// records decoded snapshots.
package monitor // import "github.com/go-lpc/xcvr/monitor"

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/xcvr"
	"github.com/go-lpc/xcvr/api"
	"github.com/go-lpc/xcvr/transport"
	"golang.org/x/sync/errgroup"
)

// Device is an open port.
type Device interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// Opener opens the device behind a port.
type Opener func(p Port) (Device, error)

type config struct {
	msg    *log.Logger
	open   Opener
	notify Notifier
	xcvr   []xcvr.Option
	now    func() time.Time
}

func newConfig() config {
	return config{
		msg:  log.New(io.Discard, "monitor: ", 0),
		open: openPort,
		now:  time.Now,
	}
}

// Option configures a Monitor.
type Option func(*config)

// WithLogger sets the monitor logger.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithOpener replaces the way ports are opened.
func WithOpener(open Opener) Option {
	return func(cfg *config) {
		cfg.open = open
	}
}

// WithNotifier sets the notifier told about alarm transitions.
func WithNotifier(n Notifier) Option {
	return func(cfg *config) {
		cfg.notify = n
	}
}

// WithXcvr passes options to xcvr.Open.
func WithXcvr(opts ...xcvr.Option) Option {
	return func(cfg *config) {
		cfg.xcvr = append(cfg.xcvr, opts...)
	}
}

// Monitor runs one poll loop per configured port.
type Monitor struct {
	msg   *log.Logger
	ports Config
	sink  Sink
	cfg   config
}

// New creates a monitor writing the records of the ports of cfg to sink.
func New(cfg Config, sink Sink, opts ...Option) (*Monitor, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("monitor: nil sink")
	}

	c := newConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if c.notify == nil && cfg.Alert != nil {
		c.notify = NewMailer(*cfg.Alert)
	}

	return &Monitor{
		msg:   c.msg,
		ports: cfg,
		sink:  sink,
		cfg:   c,
	}, nil
}

// Run polls all ports until each has performed its configured number of
// polls or ctx is done. The first port failing to open or to record stops
// the other loops.
func (m *Monitor) Run(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	for i := range m.ports.Ports {
		p := m.ports.Ports[i]
		grp.Go(func() error {
			err := m.poll(ctx, p)
			if err != nil {
				m.msg.Printf("port %q: %+v", p.Name, err)
				return err
			}
			return nil
		})
	}
	return grp.Wait()
}

func (m *Monitor) poll(ctx context.Context, p Port) error {
	dev, err := m.cfg.open(p)
	if err != nil {
		return fmt.Errorf("monitor: could not open port %q: %w", p.Name, err)
	}
	defer dev.Close()

	opts := append([]xcvr.Option{xcvr.WithLogger(m.msg)}, m.cfg.xcvr...)
	var (
		mod    api.Transceiver
		alarms []string
	)
	for i := 0; m.ports.Count == 0 || i < m.ports.Count; i++ {
		if i > 0 && !api.Sleep(ctx, m.ports.Interval) {
			return nil
		}

		rec := Record{Port: p.Name, Time: m.cfg.now().UTC(), Seq: i}
		if mod == nil {
			// modules may be plugged in between two polls.
			mod, err = xcvr.Open(dev, opts...)
			if err != nil {
				rec.Err = err.Error()
			}
		}
		if mod != nil {
			m.snapshot(&rec, mod)
			if rec.Info == nil {
				// identifier went away: module unplugged.
				mod = nil
			}
		}

		err = m.sink.Write(rec)
		if err != nil {
			return err
		}

		if changed(alarms, rec.Alarms) {
			m.msg.Printf("port %q: alarms %q", p.Name, rec.Alarms)
			if m.cfg.notify != nil {
				err = m.cfg.notify.Notify(rec)
				if err != nil {
					m.msg.Printf("port %q: %+v", p.Name, err)
				}
			}
		}
		alarms = rec.Alarms
	}
	return nil
}

func (m *Monitor) snapshot(rec *Record, mod api.Transceiver) {
	mod.Eeprom().RefreshCache()

	rec.Family = mod.Family()
	rec.Info = mod.Info()
	if rec.Info == nil {
		rec.Err = "could not read identifier"
		return
	}
	rec.DOM = mod.DOM()
	rec.Status = mod.Status()
	rec.Alarms = Alarms(rec.DOM, mod.Thresholds())
}

func changed(prev, cur []string) bool {
	if len(prev) != len(cur) {
		return true
	}
	for i := range prev {
		if prev[i] != cur[i] {
			return true
		}
	}
	return false
}

func openPort(p Port) (Device, error) {
	if p.Bus != nil {
		dev, err := transport.OpenI2C(*p.Bus, transport.Paged, nil)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
	f, err := os.Open(p.File)
	if err != nil {
		return nil, err
	}
	return f, nil
}
