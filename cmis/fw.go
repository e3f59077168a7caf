// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-lpc/xcvr/cmis/cdb"
)

// CDB returns a CDB engine for the module.
func (a *API) CDB(opts ...cdb.Option) (*cdb.Engine, error) {
	opts = append([]cdb.Option{cdb.WithLogger(a.msg)}, opts...)
	return cdb.New(a.ee, opts...)
}

// FirmwareInfo returns the firmware images of the module.
func (a *API) FirmwareInfo(ctx context.Context, e *cdb.Engine) (cdb.FwInfo, cdb.Status, error) {
	return e.FwInfo(ctx)
}

// FirmwareDownload downloads image to the inactive bank.
func (a *API) FirmwareDownload(ctx context.Context, e *cdb.Engine, image []byte) (cdb.Status, error) {
	return e.Download(ctx, image)
}

// FirmwareRun resets the module to its inactive image, hitless when the
// module supports it, and waits for the module to come back.
func (a *API) FirmwareRun(ctx context.Context, e *cdb.Engine, hitless bool, delay time.Duration) (cdb.Status, error) {
	mode := cdb.RunInactive
	if hitless {
		mode = cdb.RunInactiveHitless
	}
	st, err := e.Run(ctx, mode, delay)
	a.ee.ClearCache()
	return st, err
}

// FirmwareCommit makes the running image the boot default.
func (a *API) FirmwareCommit(ctx context.Context, e *cdb.Engine) (cdb.Status, error) {
	return e.Commit(ctx, 0)
}

// FirmwareUpgrade downloads image, runs it and commits it. It stops at
// the first unsuccessful step. The image is run after the delay set with
// WithRunDelay.
func (a *API) FirmwareUpgrade(ctx context.Context, e *cdb.Engine, image []byte, hitless bool) (cdb.Status, error) {
	before := a.ActiveFirmware()

	st, err := a.FirmwareDownload(ctx, e, image)
	if err != nil || !st.Success() {
		return st, wrapStep("download", st, err)
	}
	st, err = a.FirmwareRun(ctx, e, hitless, a.cfg.runDelay)
	if err != nil || !st.Success() {
		return st, wrapStep("run", st, err)
	}
	st, err = a.FirmwareCommit(ctx, e)
	if err != nil || !st.Success() {
		return st, wrapStep("commit", st, err)
	}

	a.msg.Printf("firmware upgraded from %v to %v", before, a.ActiveFirmware())
	return st, nil
}

func wrapStep(step string, st cdb.Status, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cmis: could not %s firmware (%v): %w", step, st, err)
}
