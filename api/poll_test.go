// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoll(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name  string
		n     int
		ok    int // iteration at which cond becomes true, -1 for never
		want  bool
		calls int
	}{
		{name: "first", n: 5, ok: 0, want: true, calls: 1},
		{name: "third", n: 5, ok: 2, want: true, calls: 3},
		{name: "never", n: 4, ok: -1, want: false, calls: 4},
		{name: "zero", n: 0, ok: 0, want: false, calls: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			got := Poll(ctx, tc.n, time.Microsecond, func() bool {
				calls++
				return tc.ok >= 0 && calls > tc.ok
			})
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.calls, calls)
		})
	}
}

func TestPollCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	ok := Poll(ctx, 100, time.Hour, func() bool {
		calls++
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.False(t, Sleep(ctx, 0))
}
