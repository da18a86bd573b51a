// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import (
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/mupix/rawevt"
)

// Converter converts MuPix7 raw events.
// Converter is safe for concurrent use: each call decodes its blocks
// with its own frame.
type Converter struct {
	msg *log.Logger
	cfg Config
}

var _ Plugin = (*Converter)(nil)

// New returns a new MuPix7 converter.
// Conversion diagnostics are written to msg.
func New(msg *log.Logger, cfg Config) (*Converter, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	return &Converter{msg: msg, cfg: cfg}, nil
}

// Register registers a new MuPix7 converter with reg.
func Register(reg *Registry, msg *log.Logger, cfg Config) error {
	cnv, err := New(msg, cfg)
	if err != nil {
		return fmt.Errorf("cnv: could not create converter: %w", err)
	}
	return reg.Register(EventType, cnv)
}

func (cnv *Converter) Config() Config { return cnv.cfg }

// TriggerID returns the id of the last data block of evt.
func (cnv *Converter) TriggerID(evt *rawevt.Event) uint32 {
	return evt.TriggerID()
}

// StandardSubEvent converts evt into a zero-suppressed plane added to dst.
// Begin and end of run events are ignored.
func (cnv *Converter) StandardSubEvent(dst *StandardEvent, evt *rawevt.Event) error {
	plane, rep, err := cnv.Plane(evt)
	rep.Log(cnv.msg)
	if err != nil {
		return err
	}
	if plane != nil {
		dst.AddPlane(*plane)
	}
	return nil
}

// Plane converts evt into a zero-suppressed plane.
// Plane returns a nil plane for begin and end of run events.
func (cnv *Converter) Plane(evt *rawevt.Event) (*StandardPlane, Report, error) {
	var rep Report
	if !filter(evt, "standard", &rep) {
		return nil, rep, nil
	}

	agg, err := Aggregate(evt)
	if err != nil {
		return nil, rep, err
	}

	plane := EncodePlane(cnv.cfg.SensorID, &agg)
	return &plane, rep, nil
}

// LCIOSubEvent converts a group of 1 to 3 consecutive raw events into
// the pixel, trigger and ToT collections of dst.
//
// Begin and end of run events are ignored. When any block of the group
// is malformed, nothing is written to dst and the error is returned.
func (cnv *Converter) LCIOSubEvent(dst Sink, grp ...*rawevt.Event) error {
	rep, err := cnv.Streams(dst, grp...)
	rep.Log(cnv.msg)
	return err
}

// Streams converts a group of consecutive raw events into the
// collections of dst and returns the conversion diagnostics.
func (cnv *Converter) Streams(dst Sink, grp ...*rawevt.Event) (Report, error) {
	var rep Report
	if len(grp) == 0 || grp[0] == nil {
		return rep, fmt.Errorf("cnv: empty event group")
	}
	if !filter(grp[0], "lcio", &rep) {
		return rep, nil
	}

	agg, err := Aggregate(Trim(grp)...)
	if err != nil {
		return rep, err
	}

	rep.merge(EncodeStreams(dst, cnv.cfg.Collections, cnv.cfg.SensorID, &agg))
	return rep, nil
}
