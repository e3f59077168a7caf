// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package page

import (
	"fmt"
	"testing"
)

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		o    int
		pg   int
		addr int
	}{
		{0, 0, 0},
		{127, 0, 127},
		{128, 0, 128},
		{129, 0, 129},
		{255, 0, 255},
		{256, 1, 128},
		{257, 1, 129},
		{383, 1, 255},
		{384, 2, 128},
		{0x9f*Size + 130, 0x9f, 130},
		{0x2f*Size + 128, 0x2f, 128},
	} {
		t.Run(fmt.Sprintf("%d", tc.o), func(t *testing.T) {
			pg, addr := Split(tc.o)
			if pg != tc.pg || addr != tc.addr {
				t.Fatalf("invalid split: got=(%d, %d), want=(%d, %d)", pg, addr, tc.pg, tc.addr)
			}
			if got, want := Linear(pg, addr), tc.o; got != want {
				t.Fatalf("invalid linear offset: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestUpper(t *testing.T) {
	if got, want := Upper(0, 0), 128; got != want {
		t.Fatalf("invalid page 00h upper: got=%d, want=%d", got, want)
	}
	if got, want := Upper(0x11, 2), 0x11*Size+130; got != want {
		t.Fatalf("invalid page 11h upper: got=%d, want=%d", got, want)
	}
}

func TestSame(t *testing.T) {
	for _, tc := range []struct {
		o, n int
		want bool
	}{
		{0, 256, true},
		{120, 16, true},
		{250, 8, false},
		{256, 128, true},
		{256, 129, false},
		{300, 0, true},
		{Upper(0x10, 0), Size, true},
		{Upper(0x10, 120), 16, false},
	} {
		if got := Same(tc.o, tc.n); got != tc.want {
			t.Errorf("Same(%d, %d) = %v, want %v", tc.o, tc.n, got, tc.want)
		}
	}
}
