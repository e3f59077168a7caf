// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"time"
)

// Poll evaluates cond up to n times, sleeping delay between attempts,
// until cond returns true. Poll returns false when cond never held or when
// ctx is done.
func Poll(ctx context.Context, n int, delay time.Duration, cond func() bool) bool {
	for i := 0; i < n; i++ {
		if cond() {
			return true
		}
		if i == n-1 {
			break
		}
		if !Sleep(ctx, delay) {
			return false
		}
	}
	return false
}

// Sleep pauses for d, returning false if ctx is done first.
func Sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
