// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/go-lpc/xcvr/api"
	mail "gopkg.in/gomail.v2"
)

// Notifier is told about alarm transitions of a port.
type Notifier interface {
	Notify(rec Record) error
}

// Mailer sends alarm notifications by mail.
type Mailer struct {
	cfg  Alert
	send func(msg *mail.Message) error
}

// NewMailer returns a mail notifier.
func NewMailer(cfg Alert) *Mailer {
	dial := mail.NewDialer(cfg.Server, cfg.Port, cfg.User, os.Getenv("XCVR_MON_SMTP_PASSWORD"))
	dial.TLSConfig = &tls.Config{
		ServerName: cfg.Server,
	}
	return &Mailer{
		cfg:  cfg,
		send: func(msg *mail.Message) error { return dial.DialAndSend(msg) },
	}
}

// Notify sends one mail describing the alarms of rec.
func (m *Mailer) Notify(rec Record) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("Bcc", m.cfg.To...)
	msg.SetHeader("Subject", subject(rec))
	msg.SetBody("text/plain", body(rec))

	err := m.send(msg)
	if err != nil {
		return fmt.Errorf("monitor: could not send mail alert for %q: %w", rec.Port, err)
	}
	return nil
}

func subject(rec Record) string {
	if len(rec.Alarms) == 0 {
		return fmt.Sprintf("[xcvr-mon] %s: alarms cleared", rec.Port)
	}
	return fmt.Sprintf("[xcvr-mon] %s: %d alarm(s)", rec.Port, len(rec.Alarms))
}

func body(rec Record) string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "port:   %s\n", rec.Port)
	fmt.Fprintf(o, "time:   %s\n", rec.Time.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(o, "family: %s\n", rec.Family)
	if rec.Info != nil {
		fmt.Fprintf(o, "vendor: %v\n", rec.Info.Vendor)
		fmt.Fprintf(o, "pn:     %v\n", rec.Info.PartNumber)
		fmt.Fprintf(o, "sn:     %v\n", rec.Info.Serial)
	}
	for _, a := range rec.Alarms {
		fmt.Fprintf(o, " - %s\n", a)
	}
	return o.String()
}

// Alarms compares the monitors of dom with the alarm thresholds th and
// returns one description per monitor out of its alarm range.
func Alarms(dom *api.DOM, th *api.Thresholds) []string {
	if dom == nil || th == nil {
		return nil
	}

	var out []string
	check := func(name string, v api.Opt[float64], lim api.Limits) {
		x, ok := v.Get()
		if !ok {
			return
		}
		if hi, ok := lim.HighAlarm.Get(); ok && x > hi {
			out = append(out, fmt.Sprintf("%s high alarm: %g > %g", name, x, hi))
		}
		if lo, ok := lim.LowAlarm.Get(); ok && x < lo {
			out = append(out, fmt.Sprintf("%s low alarm: %g < %g", name, x, lo))
		}
	}

	check("temperature", dom.Temperature, th.Temperature)
	check("voltage", dom.Voltage, th.Voltage)
	for i, v := range dom.RxPower {
		check(fmt.Sprintf("rx-power-%d", i+1), v, th.RxPower)
	}
	for i, v := range dom.TxBias {
		check(fmt.Sprintf("tx-bias-%d", i+1), v, th.TxBias)
	}
	for i, v := range dom.TxPower {
		check(fmt.Sprintf("tx-power-%d", i+1), v, th.TxPower)
	}
	return out
}
