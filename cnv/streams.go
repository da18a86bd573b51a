// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import "github.com/go-lpc/mupix/telescope"

// Names names the output collections.
type Names struct {
	Pixels   string `yaml:"pixels"`
	Triggers string `yaml:"triggers"`
	ToTs     string `yaml:"tots"`
}

// DefaultNames returns the standard EUTelescope collection names.
func DefaultNames() Names {
	return Names{
		Pixels:   PixelCollection,
		Triggers: TriggerCollection,
		ToTs:     ToTCollection,
	}
}

// EncodeStreams encodes the aggregated hits, triggers and ToTs into
// three frames, appended to the named collections of dst.
//
// Hits outside of the sensor matrix are dropped with a diagnostic.
// ToTs are stored as packed external triggers with the ToT label.
func EncodeStreams(dst Sink, names Names, sensor uint32, agg *Aggregated) Report {
	var (
		rep    Report
		pixels = newBuilder(dst, names.Pixels, CellSensorID(sensor))
		trigs  = newBuilder(dst, names.Triggers, 1)
		tots   = newBuilder(dst, names.ToTs, 1)
	)

	for _, trg := range agg.Triggers {
		trigs.frame.Triggers = append(trigs.frame.Triggers, ExtTrigger{
			Timestamp: trg.Timestamp,
			Label:     trg.Tag,
		})
	}

	for _, tot := range agg.ToTs {
		tots.frame.Triggers = append(tots.frame.Triggers, ExtTrigger{
			Timestamp: telescope.PackToT(tot),
			Label:     telescope.TagToT,
		})
	}

	for _, hit := range agg.Hits {
		if !MuPix7.Contains(hit.Hit) {
			rep.addf(OutOfRange, "col = %d, row = %d", hit.Row, hit.Column)
			continue
		}
		pixels.frame.Pixels = append(pixels.frame.Pixels, MuPixel{
			X:         uint16(hit.Row),
			Y:         uint16(hit.Column),
			Signal:    binarySignal,
			HitTime:   uint16(hit.TimestampRaw),
			FrameTime: hit.FrameTime,
		})
	}

	pixels.attach(dst, "pixel", &rep)
	trigs.attach(dst, "trigger", &rep)
	tots.attach(dst, "tot", &rep)

	return rep
}
