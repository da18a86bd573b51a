// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package telescope describes and handles the readout frames of a MuPix
// telescope plane: one frame holds the pixel hits, the external triggers
// and the time-over-threshold measurements of one readout cycle.
package telescope // import "github.com/go-lpc/mupix/telescope"

// Frame is the decoded content of one readout cycle.
type Frame struct {
	Timestamp uint64 // absolute time base of the readout cycle
	Hits      []Hit
	Triggers  []Trigger
	ToTs      []ToT
}

// Hit is a pixel hit, in wire order.
type Hit struct {
	Column       uint8
	Row          uint8
	TimestampRaw uint8 // coarse hit time stamp
}

// Trigger is an external trigger.
// The time stamp is the absolute one, not relative to the frame.
type Trigger struct {
	Timestamp uint64
	Tag       uint16
}

// ToT is a time-over-threshold measurement.
type ToT struct {
	Timestamp uint64
	Length    uint8
}

// reset clears the frame content, keeping the allocated storage.
func (f *Frame) reset() {
	f.Timestamp = 0
	f.Hits = f.Hits[:0]
	f.Triggers = f.Triggers[:0]
	f.ToTs = f.ToTs[:0]
}

// PackToT packs a ToT measurement into a single 64-bit word:
// the 48 low bits of the time stamp in the upper bytes and the
// ToT length in the lowest byte.
func PackToT(tot ToT) uint64 {
	return (tot.Timestamp&mask48)<<8 | uint64(tot.Length)&0xff
}

// UnpackToT is the inverse of PackToT.
func UnpackToT(v uint64) ToT {
	return ToT{
		Timestamp: (v >> 8) & mask48,
		Length:    uint8(v & 0xff),
	}
}

// FrameTime returns the frame time stamp as stored in per-hit records.
// Only the 32 low bits are kept.
func (f *Frame) FrameTime() uint32 {
	return uint32(f.Timestamp & 0xffffffff)
}
