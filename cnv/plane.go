// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

// StandardEvent is a decoded event made of sensor planes.
type StandardEvent struct {
	Run    uint32
	Number uint32
	Planes []StandardPlane
}

// AddPlane appends a plane to the event.
func (evt *StandardEvent) AddPlane(p StandardPlane) {
	evt.Planes = append(evt.Planes, p)
}

// StandardPlane is a zero-suppressed pixel plane.
type StandardPlane struct {
	ID         uint32
	Type       string
	SensorType string
	Columns    int
	Rows       int
	TLUEvent   uint32

	// NumPixels is the declared number of pixels of the plane.
	// NumPixels counts all the hits of the event, including the
	// ones that were suppressed, so it may differ from len(Pixels).
	NumPixels int
	Pixels    []PlanePixel
}

// PlanePixel is a pixel of a zero-suppressed plane.
type PlanePixel struct {
	Index     int // position of the hit in the aggregated hit sequence
	X         int // hit row
	Y         int // hit column
	Signal    int
	Amplitude int
	Extra     int
}

func newPlane(g Geometry, id uint32, tlu uint32, n int) StandardPlane {
	return StandardPlane{
		ID:         id,
		Type:       EventType,
		SensorType: SensorType,
		Columns:    g.Columns,
		Rows:       g.Rows,
		TLUEvent:   tlu,
		NumPixels:  n,
	}
}

// EncodePlane encodes the aggregated hits into a zero-suppressed plane.
//
// Pixel indices run over the whole group and are not renumbered when a
// hit is suppressed. Events of the warm-up window yield an empty plane
// that only carries the TLU event id.
func EncodePlane(sensor uint32, agg *Aggregated) StandardPlane {
	g := MuPix7

	if agg.WarmUp() {
		return newPlane(g, sensor, agg.ID, 0)
	}

	plane := newPlane(g, sensor, agg.ID, len(agg.Hits))
	plane.Pixels = make([]PlanePixel, 0, len(agg.Hits))
	for i, hit := range agg.Hits {
		if !g.planeAccepts(hit.Hit) {
			continue
		}
		plane.Pixels = append(plane.Pixels, PlanePixel{
			Index:  i,
			X:      int(hit.Row),
			Y:      int(hit.Column),
			Signal: binarySignal,
		})
	}
	return plane
}
