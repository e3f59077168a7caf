// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 1 * time.Second

// Config is the port table of a monitor.
//
//	interval: 5s
//	count: 0
//	output: xcvr-mon.cbor
//	ports:
//	  - name: eth0
//	    bus: 3
//	  - name: dump
//	    file: testdata/qsfp-dd.bin
type Config struct {
	Interval time.Duration `yaml:"interval"`
	Count    int           `yaml:"count"` // polls per port, 0 for unbounded
	Output   string        `yaml:"output"`
	Alert    *Alert        `yaml:"alert,omitempty"`
	Ports    []Port        `yaml:"ports"`
}

// Port describes where a module is reached: an I2C bus or a memory-map
// image file (sysfs/optoe eeprom file or a dump).
type Port struct {
	Name string `yaml:"name"`
	Bus  *int   `yaml:"bus,omitempty"`
	File string `yaml:"file,omitempty"`
}

// Alert configures the mail notifier.
// The password is read from the XCVR_MON_SMTP_PASSWORD environment variable.
type Alert struct {
	Server string   `yaml:"server"`
	Port   int      `yaml:"port"`
	User   string   `yaml:"user"`
	From   string   `yaml:"from"`
	To     []string `yaml:"to"`
}

// LoadConfig decodes and validates a YAML port table.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	raw, err := io.ReadAll(r)
	if err != nil {
		return cfg, fmt.Errorf("monitor: could not read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("monitor: could not decode config: %w", err)
	}

	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigFile loads the YAML port table stored in fname.
func LoadConfigFile(fname string) (Config, error) {
	f, err := os.Open(fname)
	if err != nil {
		return Config{}, fmt.Errorf("monitor: could not open config: %w", err)
	}
	defer f.Close()

	return LoadConfig(f)
}

// Validate checks the port table is usable.
func (cfg Config) Validate() error {
	if cfg.Interval < 0 {
		return fmt.Errorf("monitor: invalid interval %v", cfg.Interval)
	}
	if cfg.Count < 0 {
		return fmt.Errorf("monitor: invalid count %d", cfg.Count)
	}
	if len(cfg.Ports) == 0 {
		return fmt.Errorf("monitor: no port configured")
	}

	names := make(map[string]struct{}, len(cfg.Ports))
	for i, p := range cfg.Ports {
		if p.Name == "" {
			return fmt.Errorf("monitor: port #%d has no name", i)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("monitor: duplicate port %q", p.Name)
		}
		names[p.Name] = struct{}{}

		switch {
		case p.Bus == nil && p.File == "":
			return fmt.Errorf("monitor: port %q has neither bus nor file", p.Name)
		case p.Bus != nil && p.File != "":
			return fmt.Errorf("monitor: port %q has both bus and file", p.Name)
		case p.Bus != nil && *p.Bus < 0:
			return fmt.Errorf("monitor: port %q has invalid bus %d", p.Name, *p.Bus)
		}
	}

	if a := cfg.Alert; a != nil {
		if a.Server == "" || a.From == "" || len(a.To) == 0 {
			return fmt.Errorf("monitor: incomplete alert configuration")
		}
	}
	return nil
}
