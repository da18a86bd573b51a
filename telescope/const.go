// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package telescope

import "errors"

const (
	frHeader  = 0xfa // frame header marker
	frTrailer = 0xaf // frame trailer marker

	mask48 = 0xffffffffffff
)

// Trigger tags seen on the wire.
const (
	TagTLU     = 0x01 // external clock trigger from the TLU
	TagTrigger = 0xba // "normal" trigger
	TagToT     = 0x02 // marks ToT entries in the shared trigger stream
)

const (
	hdrSize  = 1 + 8 + 3*2 // header marker + timestamp + counters
	hitSize  = 4
	trigSize = 8 + 2
	totSize  = 8 + 1
	tlrSize  = 1 + 2 // trailer marker + CRC-16

	// MaxFrameSize is the size of the largest possible frame.
	MaxFrameSize = hdrSize + 0xffff*(hitSize+trigSize+totSize) + tlrSize
)

// ErrMalformed is returned (wrapped) when a readout frame can not be
// decoded to completion.
var ErrMalformed = errors.New("telescope: malformed frame")
