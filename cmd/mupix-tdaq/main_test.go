// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"reflect"
	"testing"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func encode(t *testing.T, evt rawevt.Event) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	err := rawevt.NewEncoder(buf).Encode(&evt)
	if err != nil {
		t.Fatalf("could not encode raw event: %+v", err)
	}
	return buf.Bytes()
}

func TestProcess(t *testing.T) {
	msg := log.New(io.Discard, "", 0)
	dev, err := newProcess(msg, cnv.DefaultConfig())
	if err != nil {
		t.Fatalf("could not create process: %+v", err)
	}

	frame, err := telescope.Marshal(&telescope.Frame{
		Timestamp: 0x1482,
		Hits: []telescope.Hit{
			{Column: 12, Row: 30, TimestampRaw: 0x9b},
			{Column: 0, Row: 0, TimestampRaw: 0x01},
		},
	})
	if err != nil {
		t.Fatalf("could not marshal frame: %+v", err)
	}

	var (
		conv0 = testutil.ToFloat64(convertedEvents)
		rej0  = testutil.ToFloat64(rejectedEvents)
	)

	ctx := context.Background()
	for _, tc := range []struct {
		name string
		raw  []byte
		err  bool
	}{
		{
			name: "bore",
			raw:  encode(t, rawevt.Event{Kind: rawevt.BORE, Type: cnv.EventType, Run: 42}),
		},
		{
			name: "data",
			raw: encode(t, rawevt.Event{
				Kind: rawevt.Data, Type: cnv.EventType, Run: 42, Number: 7,
				Blocks: []rawevt.Block{{ID: 142, Data: frame}},
			}),
		},
		{
			name: "malformed",
			raw: encode(t, rawevt.Event{
				Kind: rawevt.Data, Type: cnv.EventType, Run: 42, Number: 8,
				Blocks: []rawevt.Block{{ID: 143, Data: frame[:10]}},
			}),
			err: true,
		},
		{
			name: "unknown-type",
			raw: encode(t, rawevt.Event{
				Kind: rawevt.Data, Type: "MIMOSA26", Run: 42, Number: 9,
			}),
			err: true,
		},
		{
			name: "invalid-raw",
			raw:  []byte{1, 2, 3},
			err:  true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := dev.push(ctx, tc.raw)
			switch {
			case err != nil && !tc.err:
				t.Fatalf("could not process raw event: %+v", err)
			case err == nil && tc.err:
				t.Fatalf("expected an error")
			}
		})
	}

	if got, want := dev.n.Load(), int64(1); got != want {
		t.Fatalf("invalid number of converted events: got=%d, want=%d", got, want)
	}
	if got, want := dev.nerr.Load(), int64(3); got != want {
		t.Fatalf("invalid number of rejected events: got=%d, want=%d", got, want)
	}

	if got, want := testutil.ToFloat64(convertedEvents)-conv0, 1.0; got != want {
		t.Fatalf("invalid converted-events metric: got=%v, want=%v", got, want)
	}
	if got, want := testutil.ToFloat64(rejectedEvents)-rej0, 3.0; got != want {
		t.Fatalf("invalid rejected-events metric: got=%v, want=%v", got, want)
	}
	if got, want := testutil.ToFloat64(queuedPlanes), 1.0; got != want {
		t.Fatalf("invalid queued-events metric: got=%v, want=%v", got, want)
	}

	var evt cnv.StandardEvent
	err = json.Unmarshal(<-dev.data, &evt)
	if err != nil {
		t.Fatalf("could not decode standard event: %+v", err)
	}

	want := cnv.StandardEvent{
		Run:    42,
		Number: 7,
		Planes: []cnv.StandardPlane{{
			ID:         cnv.SensorID,
			Type:       cnv.EventType,
			SensorType: cnv.SensorType,
			Columns:    40,
			Rows:       32,
			TLUEvent:   142,
			NumPixels:  2,
			Pixels: []cnv.PlanePixel{
				{Index: 0, X: 30, Y: 12, Signal: 1},
			},
		}},
	}
	if !reflect.DeepEqual(evt, want) {
		t.Fatalf("invalid standard event:\ngot= %+v\nwant=%+v", evt, want)
	}

	dev.reset()
	if got := dev.n.Load(); got != 0 {
		t.Fatalf("invalid counter after reset: got=%d", got)
	}
}

func TestProcessCanceled(t *testing.T) {
	msg := log.New(io.Discard, "", 0)
	dev, err := newProcess(msg, cnv.DefaultConfig())
	if err != nil {
		t.Fatalf("could not create process: %+v", err)
	}
	dev.data = make(chan []byte)

	frame, err := telescope.Marshal(&telescope.Frame{Timestamp: 1})
	if err != nil {
		t.Fatalf("could not marshal frame: %+v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = dev.push(ctx, encode(t, rawevt.Event{
		Kind: rawevt.Data, Type: cnv.EventType, Run: 1, Number: 1,
		Blocks: []rawevt.Block{{ID: 101, Data: frame}},
	}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("invalid error: got=%v, want=%v", err, context.Canceled)
	}
}

func TestProcessReset(t *testing.T) {
	msg := log.New(io.Discard, "", 0)
	dev, err := newProcess(msg, cnv.DefaultConfig())
	if err != nil {
		t.Fatalf("could not create process: %+v", err)
	}

	data := dev.data
	for i := 0; i < 3; i++ {
		dev.data <- []byte("{}")
		queuedPlanes.Inc()
	}
	dev.n.Store(3)

	dev.reset()

	if dev.data != data {
		t.Fatalf("output channel was reallocated")
	}
	if got, want := len(dev.data), 0; got != want {
		t.Fatalf("invalid number of queued planes: got=%d, want=%d", got, want)
	}
	if got, want := testutil.ToFloat64(queuedPlanes), 0.0; got != want {
		t.Fatalf("invalid queued-events metric: got=%v, want=%v", got, want)
	}
	if got := dev.n.Load(); got != 0 {
		t.Fatalf("invalid counter after reset: got=%d", got)
	}
}
