// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cdb

import (
	"fmt"
)

// Status is the value of the CDB status register.
type Status uint8

const (
	busyBit = 0x80
	failBit = 0x40
)

// Busy reports whether a command is still being processed.
func (st Status) Busy() bool { return st&busyBit != 0 }

// Failed reports whether the last command failed.
func (st Status) Failed() bool { return !st.Busy() && st&failBit != 0 }

// Success reports whether the last command completed successfully.
func (st Status) Success() bool { return st&(busyBit|failBit) == 0 && st.Code() != 0 }

// Code returns the 6-bit result code.
func (st Status) Code() uint8 { return uint8(st) & 0x3f }

func (st Status) String() string {
	switch {
	case st.Busy():
		return "Busy"
	case st.Failed():
		return "Failed"
	case st.Success():
		return "Success"
	}
	return "Idle"
}

// Cause returns the description of the status.
func (st Status) Cause() string {
	var tbl map[uint8]string
	switch {
	case st.Busy():
		tbl = busyCauses
	case st.Failed():
		tbl = failCauses
	default:
		tbl = successCauses
	}
	if v, ok := tbl[st.Code()]; ok {
		return v
	}
	return "Unknown"
}

// Err returns nil for a successful status, or an error describing it.
func (st Status) Err() error {
	if st.Success() {
		return nil
	}
	return fmt.Errorf("cdb: status 0x%02x (%v: %s)", uint8(st), st, st.Cause())
}

var (
	successCauses = map[uint8]string{
		0x00: "No command issued",
		0x01: "Command completed successfully",
		0x03: "Previous command was aborted",
	}

	busyCauses = map[uint8]string{
		0x01: "Command captured but not processed",
		0x02: "Command checking in progress",
		0x03: "Command execution in progress",
	}

	failCauses = map[uint8]string{
		0x01: "Command code unknown",
		0x02: "Parameter range error or not supported",
		0x03: "Previous command was not aborted",
		0x04: "Command checking timeout",
		0x05: "Check code error",
		0x06: "Password error",
		0x07: "Command not compatible with operating status",
	}
)
