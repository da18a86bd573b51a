// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import "github.com/go-lpc/mupix/telescope"

// Geometry describes the pixel matrix of a sensor.
type Geometry struct {
	Columns int
	Rows    int
}

// MuPix7 is the geometry of the MuPix7 sensor.
var MuPix7 = Geometry{Columns: 40, Rows: 32}

// Contains reports whether the hit fits in the sensor matrix.
//
// Rows and columns of the readout are rotated by 90 degrees with respect
// to the telescope frame: the hit row is checked against the number of
// columns and the hit column against the number of rows.
func (g Geometry) Contains(hit telescope.Hit) bool {
	return int(hit.Row) < g.Columns && int(hit.Column) < g.Rows
}

// planeAccepts reports whether a hit is kept in a standard plane.
// Hits at (0,0) are readout artifacts, unless out of the matrix.
func (g Geometry) planeAccepts(hit telescope.Hit) bool {
	col := int(hit.Column)
	row := int(hit.Row)
	return !(col == 0 && row == 0) || col > g.Rows-1 || row > g.Columns-1
}
