// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rawevt describes and handles block-oriented raw events, as
// produced by the data acquisition of a telescope run.
//
// A raw event carries a list of data blocks, each tagged with an
// identifier (usually the TLU trigger number), and is one of three kinds:
// a regular data event, a begin-of-run event (BORE) or an end-of-run
// event (EORE).
package rawevt // import "github.com/go-lpc/mupix/rawevt"

import "fmt"

// NoID is the sentinel identifier of blocks (or events) whose identifier
// is not available.
const NoID = 0xffffffff

// Kind is the kind of a raw event.
type Kind uint8

const (
	Data Kind = iota // regular data event
	BORE             // begin-of-run event
	EORE             // end-of-run event
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "Data"
	case BORE:
		return "BORE"
	case EORE:
		return "EORE"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) valid() bool { return k <= EORE }

// Event is a block-oriented raw event.
type Event struct {
	Kind   Kind
	Type   string // event type, used to dispatch to a converter
	Run    uint32
	Number uint32
	Blocks []Block
}

// Block is one data block of a raw event.
type Block struct {
	ID   uint32
	Data []byte
}

// NumBlocks returns the number of data blocks of the event.
func (evt *Event) NumBlocks() int { return len(evt.Blocks) }

// Block returns the payload of the i-th data block.
func (evt *Event) Block(i int) []byte { return evt.Blocks[i].Data }

// ID returns the identifier of the i-th data block.
func (evt *Event) ID(i int) uint32 { return evt.Blocks[i].ID }

func (evt *Event) IsBORE() bool { return evt.Kind == BORE }
func (evt *Event) IsEORE() bool { return evt.Kind == EORE }

// TriggerID returns the identifier of the last data block of the event.
// TriggerID returns NoID for begin/end of run events and for events
// without any data block.
func (evt *Event) TriggerID() uint32 {
	if evt.Kind != Data || len(evt.Blocks) == 0 {
		return NoID
	}
	return evt.Blocks[len(evt.Blocks)-1].ID
}

// Append appends a data block to the event.
func (evt *Event) Append(id uint32, data []byte) {
	evt.Blocks = append(evt.Blocks, Block{ID: id, Data: data})
}
