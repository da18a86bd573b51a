// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rawevt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/mupix/internal/crc16"
)

// Encoder writes raw events to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
	crc crc16.Hash16
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 4),
		crc: crc16.New(nil),
	}
}

// Encode writes the raw event to the stream, followed by its CRC-16.
func (enc *Encoder) Encode(evt *Event) error {
	if !evt.Kind.valid() {
		return fmt.Errorf("rawevt: invalid event kind %d", evt.Kind)
	}
	if len(evt.Type) > maxTypeLen {
		return fmt.Errorf("rawevt: event type too long (n=%d)", len(evt.Type))
	}

	enc.crc.Reset()

	enc.writeU8(evHeader)
	enc.writeU8(uint8(evt.Kind))
	enc.writeU16(uint16(len(evt.Type)))
	enc.write([]byte(evt.Type))
	enc.writeU32(evt.Run)
	enc.writeU32(evt.Number)
	enc.writeU32(uint32(len(evt.Blocks)))
	for _, blk := range evt.Blocks {
		enc.writeU32(blk.ID)
		enc.writeU32(uint32(len(blk.Data)))
		enc.write(blk.Data)
	}
	enc.writeU8(evTrailer)
	enc.writeU16(enc.crc.Sum16())

	if enc.err != nil {
		return fmt.Errorf("rawevt: could not encode event %d: %w", evt.Number, enc.err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	_, _ = enc.crc.Write(p)
}

func (enc *Encoder) writeU8(v uint8) {
	enc.buf[0] = v
	enc.write(enc.buf[:1])
}

func (enc *Encoder) writeU16(v uint16) {
	binary.BigEndian.PutUint16(enc.buf[:2], v)
	enc.write(enc.buf[:2])
}

func (enc *Encoder) writeU32(v uint32) {
	binary.BigEndian.PutUint32(enc.buf[:4], v)
	enc.write(enc.buf[:4])
}
