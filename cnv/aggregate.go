// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import (
	"fmt"

	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
)

// Hit is a pixel hit, with the frame time stamp of the readout cycle
// it was recorded in.
type Hit struct {
	telescope.Hit
	FrameTime uint32 // low 32 bits of the frame time stamp
}

// Aggregated is the content of a group of consecutive readout cycles.
// Hits, triggers and ToTs are in cycle order, then in decode order.
type Aggregated struct {
	ID       uint32 // TLU event id of the last block of the group
	Blocks   int    // number of decoded blocks
	Hits     []Hit
	Triggers []telescope.Trigger
	ToTs     []telescope.ToT
}

// WarmUp reports whether the aggregated event belongs to the warm-up
// window of the run, or has no TLU event id.
func (agg *Aggregated) WarmUp() bool {
	return agg.ID == rawevt.NoID || agg.ID <= warmUpID
}

// Aggregate decodes all the data blocks of a group of 1 to 3 consecutive
// raw events and concatenates their content.
//
// Aggregate fails when any block is malformed: nothing of the group
// is returned in that case.
func Aggregate(grp ...*rawevt.Event) (Aggregated, error) {
	var agg Aggregated
	switch n := len(grp); {
	case n == 0:
		return agg, fmt.Errorf("cnv: empty event group")
	case n > MaxCycles:
		return agg, fmt.Errorf("cnv: too many events in group (n=%d, max=%d)", n, MaxCycles)
	}

	agg.ID = grp[len(grp)-1].TriggerID()

	// one frame per conversion: Unmarshal resets it before each block.
	var frame telescope.Frame
	for i, evt := range grp {
		for j := 0; j < evt.NumBlocks(); j++ {
			err := telescope.Unmarshal(evt.Block(j), &frame)
			if err != nil {
				return Aggregated{}, fmt.Errorf(
					"cnv: could not decode block %d of event %d (cycle %d): %w",
					j, evt.Number, i, err,
				)
			}
			agg.Blocks++

			ts := frame.FrameTime()
			for _, hit := range frame.Hits {
				agg.Hits = append(agg.Hits, Hit{Hit: hit, FrameTime: ts})
			}
			agg.Triggers = append(agg.Triggers, frame.Triggers...)
			agg.ToTs = append(agg.ToTs, frame.ToTs...)
		}
	}

	return agg, nil
}
