// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package telescope

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/mupix/internal/crc16"
)

// Encoder writes readout frames to an output stream.
// Encoder computes the CRC-16 checksum on the fly and appends it
// at the end of each frame.
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
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Marshal returns the wire encoding of f.
func Marshal(f *Frame) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := NewEncoder(buf).Encode(f)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (enc *Encoder) crcw(p []byte) {
	_, _ = enc.crc.Write(p) // can not fail.
}

func (enc *Encoder) reset() {
	enc.crc.Reset()
}

// Encode writes the frame to the stream, computes the corresponding
// CRC-16 checksum on the fly and appends it to the stream.
func (enc *Encoder) Encode(f *Frame) error {
	if f == nil {
		return nil
	}

	for _, v := range []struct {
		name string
		n    int
	}{
		{"hits", len(f.Hits)},
		{"triggers", len(f.Triggers)},
		{"ToTs", len(f.ToTs)},
	} {
		if v.n > 0xffff {
			return fmt.Errorf("telescope: too many %s (n=%d)", v.name, v.n)
		}
	}

	enc.reset()

	enc.writeU8(frHeader)
	if enc.err != nil {
		return fmt.Errorf("telescope: could not write frame header marker: %w", enc.err)
	}

	enc.writeU64(f.Timestamp)
	enc.writeU16(uint16(len(f.Hits)))
	enc.writeU16(uint16(len(f.Triggers)))
	enc.writeU16(uint16(len(f.ToTs)))

	for _, hit := range f.Hits {
		enc.writeU32(uint32(hit.Column)<<16 | uint32(hit.Row)<<8 | uint32(hit.TimestampRaw))
	}
	for _, trg := range f.Triggers {
		enc.writeU64(trg.Timestamp)
		enc.writeU16(trg.Tag)
	}
	for _, tot := range f.ToTs {
		enc.writeU64(tot.Timestamp)
		enc.writeU8(tot.Length)
	}
	enc.writeU8(frTrailer)

	crc := enc.crc.Sum16()
	enc.writeU16(crc)

	if enc.err != nil {
		return fmt.Errorf("telescope: could not encode frame: %w", enc.err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	enc.crcw(p)
}

func (enc *Encoder) writeU8(v uint8) {
	const n = 1
	enc.buf[0] = v
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU16(v uint16) {
	const n = 2
	binary.BigEndian.PutUint16(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU32(v uint32) {
	const n = 4
	binary.BigEndian.PutUint32(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU64(v uint64) {
	const n = 8
	binary.BigEndian.PutUint64(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}
