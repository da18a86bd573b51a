// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert raw MuPix7 telescope data to/from LCIO.
package xcnv // import "github.com/go-lpc/mupix/internal/xcnv"

const (
	// Detector is the detector name stored in LCIO headers.
	Detector = "MuPix7-telescope"

	// CellIDEncoding describes the layout of the cell id of the
	// MuPix collection frames.
	CellIDEncoding = "sensorID:7,sparsePixelType:5"

	muPixelType  = 5 // sparse pixel type of MuPix7 pixel frames
	triggerType  = 0 // external trigger frames
	pixelSize    = 6 // number of int32 words per pixel record
	triggerSize  = 3 // number of int32 words per trigger record
	frameHdrSize = 2 // cell id + number of records
)
