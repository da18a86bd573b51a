// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/internal/xcnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
	"go-hep.org/x/hep/lcio"
)

func TestDump(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "lcio-dump-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpdir)

	frames := []telescope.Frame{
		{
			Timestamp: 0x1482,
			Hits: []telescope.Hit{
				{Column: 12, Row: 30, TimestampRaw: 0x9b},
				{Column: 7, Row: 4, TimestampRaw: 0x1e},
			},
			Triggers: []telescope.Trigger{
				{Timestamp: 0x1597, Tag: telescope.TagTLU},
			},
			ToTs: []telescope.ToT{
				{Timestamp: 0x1618, Length: 0x3f},
			},
		},
		{
			Timestamp: 0x2000,
			Hits: []telescope.Hit{
				{Column: 3, Row: 5, TimestampRaw: 0x01},
			},
		},
	}

	var grp []*rawevt.Event
	for i := range frames {
		raw, err := telescope.Marshal(&frames[i])
		if err != nil {
			t.Fatal(err)
		}
		evt := &rawevt.Event{
			Kind:   rawevt.Data,
			Type:   cnv.EventType,
			Run:    42,
			Number: uint32(101 + i),
		}
		evt.Append(uint32(101+i), raw)
		grp = append(grp, evt)
	}

	cfg := cnv.DefaultConfig()
	conv, err := cnv.New(nil, cfg)
	if err != nil {
		t.Fatal(err)
	}

	evt, err := xcnv.Convert(conv, grp...)
	if err != nil {
		t.Fatal(err)
	}

	fname := filepath.Join(tmpdir, "run000042.slcio")
	w, err := lcio.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	err = w.WriteEvent(evt)
	if err != nil {
		t.Fatal(err)
	}

	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	o := new(strings.Builder)
	xmain(o, []string{fname})

	want := `=== run=42 evt=101 tlu=102 cycles=2 ===
collection "zsdata_mupix7": frames=1
  frame[0] sensor=71 pixels=3
    pix x= 30 y= 12 sig=1 ts=0x9b frame=0x00001482
    pix x=  4 y=  7 sig=1 ts=0x1e frame=0x00001482
    pix x=  5 y=  3 sig=1 ts=0x01 frame=0x00002000
collection "eudet_triggers": frames=1
  frame[0] sensor=1 triggers=1
    trg ts=0x0000000000001597 label=0x01
collection "eudet_tots": frames=1
  frame[0] sensor=1 triggers=1
    trg ts=0x000000000016183f label=0x02
`

	if got := o.String(); got != want {
		t.Fatalf("invalid dump:\ngot:\n%s\nwant:\n%s\n", got, want)
	}
}
