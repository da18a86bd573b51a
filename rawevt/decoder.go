// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rawevt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/mupix/internal/crc16"
)

// maxPrealloc is the largest block size allocated up front.
const maxPrealloc = 1 << 16

// Decoder reads raw events from an underlying data source.
// Decoder validates the CRC-16 checksum of each event on the fly.
type Decoder struct {
	r io.Reader

	buf []byte
	err error
	crc crc16.Hash16
}

// NewDecoder creates a decoder that reads and validates raw events from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 4),
		crc: crc16.New(nil),
	}
}

func (dec *Decoder) crcw(p []byte) {
	_, _ = dec.crc.Write(p) // can not fail.
}

// Decode reads the next raw event from the stream into evt.
// Decode returns io.EOF when the stream is exhausted.
func (dec *Decoder) Decode(evt *Event) error {
	dec.crc.Reset()

	v := dec.readU8()
	if dec.err != nil {
		if errors.Is(dec.err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("rawevt: could not read event header marker: %w", dec.err)
	}
	if v != evHeader {
		return fmt.Errorf("rawevt: invalid event header marker (got=0x%x)", v)
	}

	kind := Kind(dec.readU8())
	if dec.err == nil && !kind.valid() {
		return fmt.Errorf("rawevt: invalid event kind %d", kind)
	}
	typ := make([]byte, dec.readU16())
	dec.read(typ)
	var (
		run    = dec.readU32()
		number = dec.readU32()
		nblks  = dec.readU32()
	)
	if dec.err != nil {
		return fmt.Errorf("rawevt: could not read event header: %w", dec.unexpected())
	}

	evt.Kind = kind
	evt.Type = string(typ)
	evt.Run = run
	evt.Number = number
	evt.Blocks = evt.Blocks[:0]

	for i := 0; i < int(nblks); i++ {
		var (
			id   = dec.readU32()
			size = dec.readU32()
		)
		if dec.err != nil {
			return fmt.Errorf("rawevt: could not read block header %d/%d: %w", i, nblks, dec.unexpected())
		}
		data := dec.readN(size)
		if dec.err != nil {
			return fmt.Errorf("rawevt: could not read block %d/%d (size=%d): %w", i, nblks, size, dec.unexpected())
		}
		evt.Blocks = append(evt.Blocks, Block{ID: id, Data: data})
	}

	v = dec.readU8()
	if dec.err != nil {
		return fmt.Errorf("rawevt: could not read event trailer marker: %w", dec.unexpected())
	}
	if v != evTrailer {
		return fmt.Errorf("rawevt: invalid event trailer marker (got=0x%x)", v)
	}

	var (
		comp = dec.crc.Sum16()
		recv = dec.readU16()
	)
	if dec.err != nil {
		return fmt.Errorf("rawevt: could not receive CRC-16: %w", dec.unexpected())
	}
	if comp != recv {
		return fmt.Errorf("rawevt: inconsistent CRC: recv=0x%04x comp=0x%04x", recv, comp)
	}

	return nil
}

func (dec *Decoder) unexpected() error {
	if errors.Is(dec.err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return dec.err
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, p)
	if dec.err == nil {
		dec.crcw(p)
	}
}

// readN reads a block of n bytes.
// Large blocks are only allocated as their content arrives, so a corrupted
// block size can not trigger a huge allocation.
func (dec *Decoder) readN(n uint32) []byte {
	if dec.err != nil {
		return nil
	}
	if n <= maxPrealloc {
		p := make([]byte, n)
		dec.read(p)
		return p
	}

	var buf bytes.Buffer
	buf.Grow(maxPrealloc)
	_, dec.err = io.CopyN(&buf, dec.r, int64(n))
	if dec.err != nil {
		return nil
	}
	p := buf.Bytes()
	dec.crcw(p)
	return p
}

func (dec *Decoder) load(n int) {
	dec.buf = dec.buf[:n]
	dec.read(dec.buf)
}

func (dec *Decoder) readU8() uint8 {
	dec.load(1)
	return dec.buf[0]
}

func (dec *Decoder) readU16() uint16 {
	const n = 2
	dec.load(n)
	return binary.BigEndian.Uint16(dec.buf[:n])
}

func (dec *Decoder) readU32() uint32 {
	const n = 4
	dec.load(n)
	return binary.BigEndian.Uint32(dec.buf[:n])
}
