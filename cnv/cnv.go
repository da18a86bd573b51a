// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cnv converts raw MuPix7 telescope events into zero-suppressed
// pixel planes and EUTelescope-style pixel, trigger and ToT collections.
//
// A conversion takes a group of 1 to 3 consecutive raw events (the
// "current", "next" and "next-next" readout cycles), decodes every data
// block of the group in order and re-encodes the aggregated content.
package cnv // import "github.com/go-lpc/mupix/cnv"

const (
	EventType  = "MUPIX7" // raw event type handled by the converter
	SensorType = "MUPIX7"
	SensorID   = 71

	// MaxCycles is the maximum number of readout cycles aggregated
	// into one output event.
	MaxCycles = 3

	// warmUpID is the last TLU event id of the warm-up window of a run.
	warmUpID = 100

	binarySignal = 1
)

// Names of the output collections.
const (
	PixelCollection   = "zsdata_mupix7"
	TriggerCollection = "eudet_triggers"
	ToTCollection     = "eudet_tots"
)

// MaxCellSensorID is the largest sensor id a cell id can hold.
const MaxCellSensorID = 0x7f

// CellSensorID returns the sensor id stored in the cell id of the pixel
// collection frames.
func CellSensorID(id uint32) uint32 {
	switch id {
	case 601:
		return 61
	case 701:
		return 71
	default:
		return id
	}
}
