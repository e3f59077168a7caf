// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-lpc/xcvr/api"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Errorf("monitor: could not create CBOR encoder mode: %w", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		UTF8:              cbor.UTF8DecodeInvalid,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Errorf("monitor: could not create CBOR decoder mode: %w", err))
	}
}

// Record is one decoded snapshot of a port.
type Record struct {
	Port   string      `cbor:"1,keyasint"`
	Time   time.Time   `cbor:"2,keyasint"`
	Seq    int         `cbor:"3,keyasint"`
	Family string      `cbor:"4,keyasint,omitempty"`
	Info   *api.Info   `cbor:"5,keyasint,omitempty"`
	DOM    *api.DOM    `cbor:"6,keyasint,omitempty"`
	Status *api.Status `cbor:"7,keyasint,omitempty"`
	Alarms []string    `cbor:"8,keyasint,omitempty"`
	Err    string      `cbor:"9,keyasint,omitempty"`
}

// Sink consumes records. Implementations must be safe for concurrent use.
type Sink interface {
	Write(rec Record) error
}

// Writer writes CBOR-encoded records to an io.Writer.
// It is safe for concurrent use from multiple goroutines.
type Writer struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

// NewWriter returns a record writer encoding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: encMode.NewEncoder(w)}
}

// Write encodes one record.
func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.enc.Encode(rec)
	if err != nil {
		return fmt.Errorf("monitor: could not encode record for %q: %w", rec.Port, err)
	}
	return nil
}

// Reader decodes a stream of records written by Writer.
type Reader struct {
	dec  *cbor.Decoder
	port string
}

// NewReader returns a record reader decoding from r.
// When port is not empty, only records of that port are returned.
func NewReader(r io.Reader, port string) *Reader {
	return &Reader{dec: decMode.NewDecoder(r), port: port}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	for {
		var rec Record
		err := r.dec.Decode(&rec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, fmt.Errorf("monitor: could not decode record: %w", err)
		}
		if r.port != "" && rec.Port != r.port {
			continue
		}
		return rec, nil
	}
}

// ReadAll decodes all the remaining records.
func (r *Reader) ReadAll() ([]Record, error) {
	var recs []Record
	for {
		rec, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return recs, nil
			}
			return recs, err
		}
		recs = append(recs, rec)
	}
}

var _ Sink = (*Writer)(nil)
