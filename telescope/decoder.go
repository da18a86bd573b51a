// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package telescope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/mupix/internal/crc16"
)

// Decoder reads (and validates) readout frames from an underlying data source.
// Decoder computes CRC-16 checksums on the fly.
type Decoder struct {
	r io.Reader

	buf []byte
	err error
	crc crc16.Hash16
}

// NewDecoder creates a decoder that reads and validates frames from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Unmarshal decodes the single readout frame held in p into f.
// The previous content of f is discarded, even on error.
// Unmarshal fails if p holds anything but exactly one frame.
func Unmarshal(p []byte, f *Frame) error {
	if len(p) > MaxFrameSize {
		f.reset()
		return malformedf("telescope: frame too large (size=%d, max=%d)", len(p), MaxFrameSize)
	}

	r := bytes.NewReader(p)
	err := NewDecoder(r).Decode(f)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return malformedf("telescope: empty frame: %w", io.ErrUnexpectedEOF)
		}
		return err
	}

	if n := r.Len(); n != 0 {
		f.reset()
		return malformedf("telescope: %d trailing bytes after frame trailer", n)
	}

	return nil
}

func (dec *Decoder) crcw(p []byte) {
	_, _ = dec.crc.Write(p) // can not fail.
}

func (dec *Decoder) reset() {
	dec.crc.Reset()
}

// Decode reads the next frame from the stream into f.
// f is reset before decoding: nothing from a previous frame is kept.
// Decode returns an error wrapping io.EOF when the stream is exhausted,
// and an error matching ErrMalformed when the frame is invalid.
func (dec *Decoder) Decode(f *Frame) error {
	f.reset()
	err := dec.decode(f)
	if err != nil {
		f.reset()
	}
	return err
}

func (dec *Decoder) decode(f *Frame) error {
	dec.reset()

	v := dec.readU8()
	if dec.err != nil {
		if errors.Is(dec.err, io.EOF) {
			return fmt.Errorf("telescope: could not read frame header marker: %w", dec.err)
		}
		return malformedf("telescope: could not read frame header marker: %w", dec.err)
	}
	if v != frHeader {
		return malformedf("telescope: invalid frame header marker (got=0x%x)", v)
	}
	dec.crcU8(v)

	var hdr [hdrSize - 1]byte
	dec.read(hdr[:])
	if dec.err != nil {
		return malformedf("telescope: could not read frame header: %w", dec.unexpected())
	}
	dec.crcw(hdr[:])

	f.Timestamp = binary.BigEndian.Uint64(hdr[0:8])
	var (
		nhits = int(binary.BigEndian.Uint16(hdr[8:10]))
		ntrgs = int(binary.BigEndian.Uint16(hdr[10:12]))
		ntots = int(binary.BigEndian.Uint16(hdr[12:14]))
	)

	raw := dec.payload(nhits * hitSize)
	if dec.err != nil {
		return malformedf("telescope: could not read %d hits: %w", nhits, dec.err)
	}
	if cap(f.Hits) < nhits {
		f.Hits = make([]Hit, 0, nhits)
	}
	for i := 0; i < nhits; i++ {
		w := binary.BigEndian.Uint32(raw[i*hitSize:])
		f.Hits = append(f.Hits, hitFrom(w))
	}

	raw = dec.payload(ntrgs * trigSize)
	if dec.err != nil {
		return malformedf("telescope: could not read %d triggers: %w", ntrgs, dec.err)
	}
	if cap(f.Triggers) < ntrgs {
		f.Triggers = make([]Trigger, 0, ntrgs)
	}
	for i := 0; i < ntrgs; i++ {
		p := raw[i*trigSize:]
		f.Triggers = append(f.Triggers, Trigger{
			Timestamp: binary.BigEndian.Uint64(p[0:8]),
			Tag:       binary.BigEndian.Uint16(p[8:10]),
		})
	}

	raw = dec.payload(ntots * totSize)
	if dec.err != nil {
		return malformedf("telescope: could not read %d ToTs: %w", ntots, dec.err)
	}
	if cap(f.ToTs) < ntots {
		f.ToTs = make([]ToT, 0, ntots)
	}
	for i := 0; i < ntots; i++ {
		p := raw[i*totSize:]
		f.ToTs = append(f.ToTs, ToT{
			Timestamp: binary.BigEndian.Uint64(p[0:8]),
			Length:    p[8],
		})
	}

	v = dec.readU8()
	if dec.err != nil {
		return malformedf("telescope: could not read frame trailer marker: %w", dec.unexpected())
	}
	if v != frTrailer {
		return malformedf("telescope: invalid frame trailer marker (got=0x%x)", v)
	}
	dec.crcU8(v)

	var (
		compCRC = dec.crc.Sum16()
		recvCRC = dec.readU16()
	)
	if dec.err != nil {
		return malformedf("telescope: could not receive CRC-16: %w", dec.unexpected())
	}
	if compCRC != recvCRC {
		return malformedf(
			"telescope: inconsistent CRC: recv=0x%04x comp=0x%04x",
			recvCRC, compCRC,
		)
	}

	return nil
}

func hitFrom(w uint32) Hit {
	return Hit{
		Column:       uint8(w >> 16),
		Row:          uint8(w >> 8),
		TimestampRaw: uint8(w),
	}
}

// payload reads n bytes of frame payload and feeds them to the CRC.
func (dec *Decoder) payload(n int) []byte {
	if dec.err != nil {
		return nil
	}
	p := make([]byte, n)
	dec.read(p)
	if dec.err != nil {
		dec.err = dec.unexpected()
		return nil
	}
	dec.crcw(p)
	return p
}

// unexpected converts a premature end of stream into io.ErrUnexpectedEOF.
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

func (dec *Decoder) load(n int) {
	if dec.err != nil {
		return
	}
	dec.buf = dec.buf[:n]
	_, dec.err = io.ReadFull(dec.r, dec.buf[:n])
}

func (dec *Decoder) crcU8(v uint8) {
	dec.buf[0] = v
	dec.crcw(dec.buf[:1])
}

type malformedError struct {
	err error
}

func malformedf(format string, args ...interface{}) error {
	return &malformedError{err: fmt.Errorf(format, args...)}
}

func (e *malformedError) Error() string        { return e.err.Error() }
func (e *malformedError) Unwrap() error        { return e.err }
func (e *malformedError) Is(target error) bool { return target == ErrMalformed }
