// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mupix-dump decodes and displays MuPix7 raw data files.
//
// Usage: mupix-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> mupix-dump -planes ./run000042.raw
//  === BORE run=42 evt=0 type="MUPIX7" ===
//  === Data run=42 evt=1 type="MUPIX7" ===
//  block[0]: id=1 size=58
//    frame ts=0x0000000000001482 hits=3 trigs=1 tots=2
//      hit col= 12 row= 30 ts=0x9b
//      hit col=  7 row=  4 ts=0x1e
//      hit col= 28 row= 17 ts=0xc1
//      trg ts=0x0000000000001597 tag=0x01
//      tot ts=0x0000000000001618 len=0x3f
//      tot ts=0x00000000000016c8 len=0x80
//    plane id=71 tlu=1 pixels=0/3
//  [...]
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
)

const usage = `mupix-dump decodes and displays MuPix7 raw data files.

Usage: mupix-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> mupix-dump -planes ./run000042.raw
 === BORE run=42 evt=0 type="MUPIX7" ===
 === Data run=42 evt=1 type="MUPIX7" ===
 block[0]: id=1 size=58
   frame ts=0x0000000000001482 hits=3 trigs=1 tots=2
     hit col= 12 row= 30 ts=0x9b
     hit col=  7 row=  4 ts=0x1e
     hit col= 28 row= 17 ts=0xc1
     trg ts=0x0000000000001597 tag=0x01
     tot ts=0x0000000000001618 len=0x3f
     tot ts=0x00000000000016c8 len=0x80
   plane id=71 tlu=1 pixels=0/3
 [...]

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("mupix-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("mupix-dump", flag.ExitOnError)

		planes = fset.Bool("planes", false, "display the zero-suppressed planes")
		sensor = fset.Uint("sensor", cnv.SensorID, "sensor id of the displayed planes")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input MuPix7 raw file")
	}

	var conv *cnv.Converter
	if *planes {
		cfg := cnv.DefaultConfig()
		cfg.SensorID = uint32(*sensor)
		conv, err = cnv.New(nil, cfg)
		if err != nil {
			log.Fatalf("could not create converter: %+v", err)
		}
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, conv)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, conv *cnv.Converter) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	dec := rawevt.NewDecoder(bufio.NewReader(f))
loop:
	for {
		var evt rawevt.Event
		err := dec.Decode(&evt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not decode raw event: %w", err)
		}
		dump(wbuf, &evt, conv)
	}

	return wbuf.Flush()
}

func dump(w io.Writer, evt *rawevt.Event, conv *cnv.Converter) {
	fmt.Fprintf(w, "=== %v run=%d evt=%d type=%q ===\n", evt.Kind, evt.Run, evt.Number, evt.Type)

	var frame telescope.Frame
	for i, blk := range evt.Blocks {
		fmt.Fprintf(w, "block[%d]: id=%d size=%d\n", i, blk.ID, len(blk.Data))
		err := telescope.Unmarshal(blk.Data, &frame)
		if err != nil {
			fmt.Fprintf(w, "  invalid frame: %+v\n", err)
			continue
		}
		fmt.Fprintf(w, "  frame ts=0x%016x hits=%d trigs=%d tots=%d\n",
			frame.Timestamp, len(frame.Hits), len(frame.Triggers), len(frame.ToTs),
		)
		for _, hit := range frame.Hits {
			fmt.Fprintf(w, "    hit col=% 3d row=% 3d ts=0x%02x\n", hit.Column, hit.Row, hit.TimestampRaw)
		}
		for _, trg := range frame.Triggers {
			fmt.Fprintf(w, "    trg ts=0x%016x tag=0x%02x\n", trg.Timestamp, trg.Tag)
		}
		for _, tot := range frame.ToTs {
			fmt.Fprintf(w, "    tot ts=0x%016x len=0x%02x\n", tot.Timestamp, tot.Length)
		}
	}

	if conv == nil || evt.Kind != rawevt.Data {
		return
	}

	plane, _, err := conv.Plane(evt)
	if err != nil {
		fmt.Fprintf(w, "  invalid plane: %+v\n", err)
		return
	}
	fmt.Fprintf(w, "  plane id=%d tlu=%d pixels=%d/%d\n",
		plane.ID, plane.TLUEvent, len(plane.Pixels), plane.NumPixels,
	)
	for _, pix := range plane.Pixels {
		fmt.Fprintf(w, "    pix[%d] x=% 3d y=% 3d\n", pix.Index, pix.X, pix.Y)
	}
}
