// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-lpc/xcvr/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
interval: 5s
count: 10
output: mon.cbor
alert:
  server: smtp.example.org
  port: 587
  user: mon
  from: mon@example.org
  to: [ops@example.org]
ports:
  - name: eth0
    bus: 0
  - name: eth1
    file: /sys/bus/i2c/devices/4-0050/eeprom
`))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, 10, cfg.Count)
	assert.Equal(t, "mon.cbor", cfg.Output)
	require.NotNil(t, cfg.Alert)
	assert.Equal(t, 587, cfg.Alert.Port)
	assert.Equal(t, []string{"ops@example.org"}, cfg.Alert.To)
	require.Len(t, cfg.Ports, 2)
	require.NotNil(t, cfg.Ports[0].Bus)
	assert.Equal(t, 0, *cfg.Ports[0].Bus)
	assert.Nil(t, cfg.Ports[1].Bus)
	assert.Equal(t, "/sys/bus/i2c/devices/4-0050/eeprom", cfg.Ports[1].File)

	cfg, err = LoadConfig(strings.NewReader("ports: [{name: p, bus: 1}]"))
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Nil(t, cfg.Alert)
}

func TestLoadConfigErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  string
		err  string
	}{
		{"empty", "", "monitor: no port configured"},
		{"syntax", "ports: [", "monitor: could not decode config"},
		{"unknown-key", "portz: []", "monitor: could not decode config"},
		{"interval", "interval: -1s\nports: [{name: p, bus: 1}]", "monitor: invalid interval -1s"},
		{"count", "count: -1\nports: [{name: p, bus: 1}]", "monitor: invalid count -1"},
		{"no-name", "ports: [{bus: 1}]", "monitor: port #0 has no name"},
		{"dup", "ports: [{name: p, bus: 1}, {name: p, bus: 2}]", `monitor: duplicate port "p"`},
		{"none", "ports: [{name: p}]", `monitor: port "p" has neither bus nor file`},
		{"both", "ports: [{name: p, bus: 1, file: f}]", `monitor: port "p" has both bus and file`},
		{"bus", "ports: [{name: p, bus: -2}]", `monitor: port "p" has invalid bus -2`},
		{"alert", "alert: {server: s}\nports: [{name: p, bus: 1}]", "monitor: incomplete alert configuration"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(tc.cfg))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "mon.yaml")
	require.NoError(t, os.WriteFile(fname, []byte("ports: [{name: p, file: dump.bin}]\n"), 0644))

	cfg, err := LoadConfigFile(fname)
	require.NoError(t, err)
	assert.Equal(t, "dump.bin", cfg.Ports[0].File)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRecords(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)

	t0 := time.Date(2026, 10, 17, 8, 30, 0, 123, time.UTC)
	recs := []Record{
		{
			Port: "eth0", Time: t0, Family: "sff8472",
			DOM: &api.DOM{
				Temperature: api.Some(25.5),
				RxPower:     []api.Opt[float64]{api.Some(0.1)},
			},
			Alarms: []string{"temperature high alarm: 80 > 75"},
		},
		{Port: "eth1", Time: t0, Err: "xcvr: unknown transceiver type"},
		{Port: "eth0", Time: t0.Add(time.Second), Seq: 1, Family: "sff8472"},
	}
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}

	got, err := NewReader(bytes.NewReader(buf.Bytes()), "").ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Time.Equal(t0))
	assert.Equal(t, 25.5, got[0].DOM.Temperature.V)
	assert.True(t, got[0].DOM.Temperature.OK)
	assert.False(t, got[0].DOM.Voltage.OK)
	assert.Equal(t, recs[0].Alarms, got[0].Alarms)
	assert.Equal(t, recs[1].Err, got[1].Err)
	assert.Nil(t, got[1].DOM)

	r := NewReader(bytes.NewReader(buf.Bytes()), "eth0")
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Seq)
	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Seq)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)

	_, err = NewReader(bytes.NewReader([]byte{0xff, 0x00}), "").Next()
	assert.Error(t, err)
}

func TestRecordsBinaryStrings(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)
	require.NoError(t, w.Write(Record{
		Port: "eth0",
		Info: &api.Info{Vendor: api.Some("\xff\xff\xff\xff")},
	}))
	require.NoError(t, w.Write(Record{Port: "eth0", Seq: 1}))

	got, err := NewReader(bytes.NewReader(buf.Bytes()), "eth0").ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "\xff\xff\xff\xff", got[0].Info.Vendor.V)
	assert.Equal(t, 1, got[1].Seq)
}
