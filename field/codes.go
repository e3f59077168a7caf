// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"sort"
)

// Unknown is the name returned for values missing from a code table.
const Unknown = "Unknown"

// Codes maps raw byte values to human readable names.
type Codes map[uint8]string

// Name returns the name associated with v, or Unknown.
func (c Codes) Name(v uint8) string {
	name, ok := c[v]
	if !ok {
		return Unknown
	}
	return name
}

// Lookup returns the smallest raw value associated with name.
func (c Codes) Lookup(name string) (uint8, bool) {
	keys := make([]int, 0, len(c))
	for k, v := range c {
		if v == name {
			keys = append(keys, int(k))
		}
	}
	if len(keys) == 0 {
		return 0, false
	}
	sort.Ints(keys)
	return uint8(keys[0]), true
}
