// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
)

func TestDump(t *testing.T) {
	tmpdir, err := os.MkdirTemp("", "mupix-dump-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpdir)

	f, err := os.Create(filepath.Join(tmpdir, "run000042.raw"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	raw, err := telescope.Marshal(&telescope.Frame{
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
	})
	if err != nil {
		t.Fatal(err)
	}

	enc := rawevt.NewEncoder(f)
	for _, evt := range []rawevt.Event{
		{Kind: rawevt.BORE, Type: cnv.EventType, Run: 42},
		{Kind: rawevt.Data, Type: cnv.EventType, Run: 42, Number: 1, Blocks: []rawevt.Block{{ID: 1, Data: raw}}},
		{Kind: rawevt.Data, Type: cnv.EventType, Run: 42, Number: 2, Blocks: []rawevt.Block{{ID: 101, Data: raw}}},
		{Kind: rawevt.Data, Type: cnv.EventType, Run: 42, Number: 3, Blocks: []rawevt.Block{{ID: 102, Data: []byte{1, 2}}}},
		{Kind: rawevt.EORE, Type: cnv.EventType, Run: 42, Number: 4},
	} {
		err = enc.Encode(&evt)
		if err != nil {
			t.Fatal(err)
		}
	}

	_ = f.Close()

	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{
			name: "frames",
			args: []string{f.Name()},
			want: `=== BORE run=42 evt=0 type="MUPIX7" ===
=== Data run=42 evt=1 type="MUPIX7" ===
block[0]: id=1 size=45
  frame ts=0x0000000000001482 hits=2 trigs=1 tots=1
    hit col= 12 row= 30 ts=0x9b
    hit col=  7 row=  4 ts=0x1e
    trg ts=0x0000000000001597 tag=0x01
    tot ts=0x0000000000001618 len=0x3f
=== Data run=42 evt=2 type="MUPIX7" ===
block[0]: id=101 size=45
  frame ts=0x0000000000001482 hits=2 trigs=1 tots=1
    hit col= 12 row= 30 ts=0x9b
    hit col=  7 row=  4 ts=0x1e
    trg ts=0x0000000000001597 tag=0x01
    tot ts=0x0000000000001618 len=0x3f
=== Data run=42 evt=3 type="MUPIX7" ===
block[0]: id=102 size=2
  invalid frame: telescope: invalid frame header marker (got=0x1)
=== EORE run=42 evt=4 type="MUPIX7" ===
`,
		},
		{
			name: "planes",
			args: []string{"-planes", f.Name()},
			want: `=== BORE run=42 evt=0 type="MUPIX7" ===
=== Data run=42 evt=1 type="MUPIX7" ===
block[0]: id=1 size=45
  frame ts=0x0000000000001482 hits=2 trigs=1 tots=1
    hit col= 12 row= 30 ts=0x9b
    hit col=  7 row=  4 ts=0x1e
    trg ts=0x0000000000001597 tag=0x01
    tot ts=0x0000000000001618 len=0x3f
  plane id=71 tlu=1 pixels=0/0
=== Data run=42 evt=2 type="MUPIX7" ===
block[0]: id=101 size=45
  frame ts=0x0000000000001482 hits=2 trigs=1 tots=1
    hit col= 12 row= 30 ts=0x9b
    hit col=  7 row=  4 ts=0x1e
    trg ts=0x0000000000001597 tag=0x01
    tot ts=0x0000000000001618 len=0x3f
  plane id=71 tlu=101 pixels=2/2
    pix[0] x= 30 y= 12
    pix[1] x=  4 y=  7
=== Data run=42 evt=3 type="MUPIX7" ===
block[0]: id=102 size=2
  invalid frame: telescope: invalid frame header marker (got=0x1)
  invalid plane: cnv: could not decode block 0 of event 3 (cycle 0): telescope: invalid frame header marker (got=0x1)
=== EORE run=42 evt=4 type="MUPIX7" ===
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := new(strings.Builder)
			xmain(o, tc.args)

			if got, want := o.String(), tc.want; got != want {
				t.Fatalf("invalid dump:\ngot:\n%s\nwant:\n%s\n", got, want)
			}
		})
	}
}
