// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cdb

import (
	"encoding/binary"
	"fmt"
)

// Command identifiers.
const (
	CmdQueryStatus      uint16 = 0x0000
	CmdModuleFeatures   uint16 = 0x0040
	CmdFwMgmtFeatures   uint16 = 0x0041
	CmdFwInfo           uint16 = 0x0100
	CmdStartDownload    uint16 = 0x0101
	CmdAbortDownload    uint16 = 0x0102
	CmdWriteLPL         uint16 = 0x0103
	CmdWriteEPL         uint16 = 0x0104
	CmdCompleteDownload uint16 = 0x0107
	CmdRunImage         uint16 = 0x0109
	CmdCommitImage      uint16 = 0x010a
)

// Frame limits.
const (
	HeaderLen = 8    // command id, EPL length, LPL length, check code, reply length and check code
	MaxLPL    = 120  // local payload, in page 9Fh
	MaxEPL    = 2048 // extended payload, in pages A0h-AFh
	MaxBlock  = 116  // firmware bytes per LPL block write, after the 4 address bytes
)

// Command is a CDB command.
type Command struct {
	ID  uint16
	LPL []byte // local payload
	EPL []byte // extended payload
}

// NewCommand creates a command, checking the payload sizes.
func NewCommand(id uint16, lpl, epl []byte) (Command, error) {
	if len(lpl) > MaxLPL {
		return Command{}, fmt.Errorf("cdb: LPL payload of command 0x%04x too large (%d > %d)", id, len(lpl), MaxLPL)
	}
	if len(epl) > MaxEPL {
		return Command{}, fmt.Errorf("cdb: EPL payload of command 0x%04x too large (%d > %d)", id, len(epl), MaxEPL)
	}
	return Command{ID: id, LPL: lpl, EPL: epl}, nil
}

// Frame returns the bytes written at 9Fh:128, header and local payload,
// with the check code filled in.
func (cmd Command) Frame() []byte {
	frame := make([]byte, HeaderLen+len(cmd.LPL))
	binary.BigEndian.PutUint16(frame[0:2], cmd.ID)
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(cmd.EPL)))
	frame[4] = uint8(len(cmd.LPL))
	copy(frame[HeaderLen:], cmd.LPL)
	frame[5] = Checksum(frame)
	return frame
}

func (cmd Command) String() string {
	return fmt.Sprintf("cdb-cmd{id=0x%04x, lpl=%d, epl=%d}", cmd.ID, len(cmd.LPL), len(cmd.EPL))
}

// Checksum returns the CDB check code of p: the ones' complement of the
// sum of its bytes. Recomputed over a whole frame, it yields 0.
func Checksum(p []byte) byte {
	var sum byte
	for _, v := range p {
		sum += v
	}
	return 0xff - sum
}
