// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"

	"github.com/go-lpc/mupix/cnv"
	"go-hep.org/x/hep/lcio"
)

// Each frame of a collection is stored as one list of int32 words:
//
//	cell-id | nrecords | records...
//
// with pixel records made of (x, y, signal, time, hit-time, frame-time)
// and trigger records made of (timestamp-hi, timestamp-lo, label).

func cellID(sensor uint32, typ uint32) int32 {
	return int32(sensor&cnv.MaxCellSensorID | (typ&0x1f)<<7)
}

func cellFrom(id int32) (sensor, typ uint32) {
	v := uint32(id)
	return v & 0x7f, (v >> 7) & 0x1f
}

func encodeCollection(c *cnv.Collection) (*lcio.GenericObject, error) {
	obj := &lcio.GenericObject{
		Data: make([]lcio.GenericObjectData, 0, len(c.Frames)),
	}
	for i := range c.Frames {
		i32s, err := encodeFrame(&c.Frames[i])
		if err != nil {
			return nil, fmt.Errorf("could not encode frame %d: %w", i, err)
		}
		obj.Data = append(obj.Data, lcio.GenericObjectData{I32s: i32s})
	}
	return obj, nil
}

func encodeFrame(f *cnv.Frame) ([]int32, error) {
	if f.SensorID > cnv.MaxCellSensorID {
		return nil, fmt.Errorf("sensor id %d overflows cell id", f.SensorID)
	}
	if len(f.Pixels) != 0 && len(f.Triggers) != 0 {
		return nil, fmt.Errorf("mixed pixel and trigger records")
	}

	if len(f.Triggers) != 0 {
		i32s := make([]int32, 0, frameHdrSize+triggerSize*len(f.Triggers))
		i32s = append(i32s, cellID(f.SensorID, triggerType), int32(len(f.Triggers)))
		for _, trg := range f.Triggers {
			i32s = append(i32s,
				int32(uint32(trg.Timestamp>>32)),
				int32(uint32(trg.Timestamp)),
				int32(trg.Label),
			)
		}
		return i32s, nil
	}

	i32s := make([]int32, 0, frameHdrSize+pixelSize*len(f.Pixels))
	i32s = append(i32s, cellID(f.SensorID, muPixelType), int32(len(f.Pixels)))
	for _, p := range f.Pixels {
		i32s = append(i32s,
			int32(p.X), int32(p.Y),
			int32(p.Signal), int32(p.Time),
			int32(p.HitTime), int32(p.FrameTime),
		)
	}
	return i32s, nil
}

func decodeCollection(obj *lcio.GenericObject) (*cnv.Collection, error) {
	coll := &cnv.Collection{
		Frames: make([]cnv.Frame, 0, len(obj.Data)),
	}
	for i, data := range obj.Data {
		f, err := decodeFrame(data.I32s)
		if err != nil {
			return nil, fmt.Errorf("could not decode frame %d: %w", i, err)
		}
		coll.Frames = append(coll.Frames, f)
	}
	return coll, nil
}

func decodeFrame(i32s []int32) (cnv.Frame, error) {
	var f cnv.Frame
	if len(i32s) < frameHdrSize {
		return f, fmt.Errorf("frame too short (n=%d)", len(i32s))
	}

	sensor, typ := cellFrom(i32s[0])
	f.SensorID = sensor
	n := int(i32s[1])
	raw := i32s[frameHdrSize:]

	switch typ {
	case triggerType:
		if n < 0 || len(raw) != n*triggerSize {
			return f, fmt.Errorf("invalid trigger frame size (n=%d, words=%d)", n, len(raw))
		}
		f.Triggers = make([]cnv.ExtTrigger, n)
		for i := range f.Triggers {
			w := raw[i*triggerSize:]
			f.Triggers[i] = cnv.ExtTrigger{
				Timestamp: uint64(uint32(w[0]))<<32 | uint64(uint32(w[1])),
				Label:     uint16(w[2]),
			}
		}
	case muPixelType:
		if n < 0 || len(raw) != n*pixelSize {
			return f, fmt.Errorf("invalid pixel frame size (n=%d, words=%d)", n, len(raw))
		}
		f.Pixels = make([]cnv.MuPixel, n)
		for i := range f.Pixels {
			w := raw[i*pixelSize:]
			f.Pixels[i] = cnv.MuPixel{
				X:         uint16(w[0]),
				Y:         uint16(w[1]),
				Signal:    uint16(w[2]),
				Time:      uint16(w[3]),
				HitTime:   uint16(w[4]),
				FrameTime: uint32(w[5]),
			}
		}
	default:
		return f, fmt.Errorf("unknown sparse pixel type %d", typ)
	}
	return f, nil
}
