// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcvr holds code to decode and drive pluggable optical transceivers
// (SFP, QSFP, QSFP-DD/OSFP) through their paged management memory.
//
// Open detects the device family from the Identifier byte and returns the
// family specific API behind the api.Transceiver interface.
package xcvr // import "github.com/go-lpc/xcvr"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of xcvr and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/xcvr"
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
