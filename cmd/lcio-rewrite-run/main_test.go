// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/internal/xcnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
	"go-hep.org/x/hep/lcio"
)

func TestRewrite(t *testing.T) {
	tmp, err := os.MkdirTemp("", "lcio-rewrite-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	conv, err := cnv.New(nil, cnv.DefaultConfig())
	if err != nil {
		t.Fatalf("could not create converter: %+v", err)
	}

	const nevts = 12
	iname := filepath.Join(tmp, "in.lcio")
	w, err := lcio.Create(iname)
	if err != nil {
		t.Fatalf("could not create input LCIO file: %+v", err)
	}
	defer w.Close()

	err = w.WriteRunHeader(&lcio.RunHeader{RunNumber: 42, Detector: xcnv.Detector})
	if err != nil {
		t.Fatalf("could not write run header: %+v", err)
	}

	for i := 0; i < nevts; i++ {
		raw, err := telescope.Marshal(&telescope.Frame{
			Timestamp: uint64(i),
			Hits:      []telescope.Hit{{Column: 1, Row: uint8(i), TimestampRaw: 2}},
		})
		if err != nil {
			t.Fatalf("could not marshal frame: %+v", err)
		}
		evt := &rawevt.Event{Kind: rawevt.Data, Type: cnv.EventType, Run: 42, Number: uint32(i)}
		evt.Append(uint32(101+i), raw)

		out, err := xcnv.Convert(conv, evt)
		if err != nil {
			t.Fatalf("could not convert event %d: %+v", i, err)
		}
		err = w.WriteEvent(out)
		if err != nil {
			t.Fatalf("could not write event %d: %+v", i, err)
		}
	}

	err = w.Close()
	if err != nil {
		t.Fatalf("could not close input LCIO file: %+v", err)
	}

	oname := filepath.Join(tmp, "out.lcio")
	err = xmain([]string{"-o", oname, "-run", "1234", "-sensor", "601", iname})
	if err != nil {
		t.Fatalf("could not rewrite LCIO file: %+v", err)
	}

	r, err := lcio.Open(oname)
	if err != nil {
		t.Fatalf("could not open output LCIO file: %+v", err)
	}
	defer r.Close()

	n := 0
	for r.Next() {
		evt := r.Event()
		if got, want := evt.RunNumber, int32(1234); got != want {
			t.Fatalf("invalid run number: got=%d, want=%d", got, want)
		}
		out, err := xcnv.ReadEvent(&evt, cnv.DefaultNames())
		if err != nil {
			t.Fatalf("could not read event %d: %+v", n, err)
		}
		coll, ok := out.Collection(cnv.PixelCollection)
		if !ok {
			t.Fatalf("missing pixel collection in event %d", n)
		}
		if got, want := coll.Frames[0].SensorID, uint32(61); got != want {
			t.Fatalf("invalid sensor id: got=%d, want=%d", got, want)
		}
		if got, want := coll.Frames[0].Pixels[0].X, uint16(n); got != want {
			t.Fatalf("invalid pixel: got=%d, want=%d", got, want)
		}
		n++
	}
	err = r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("could not read output LCIO file: %+v", err)
	}

	if got, want := n, nevts; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}

	if got, want := r.RunHeader().RunNumber, int32(1234); got != want {
		t.Fatalf("invalid run header: got=%d, want=%d", got, want)
	}
}
