// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lcio-dump decodes and displays MuPix7 data embedded in LCIO files.
//
// Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> lcio-dump ./run000042.slcio
//  === run=42 evt=101 tlu=102 cycles=2 ===
//  collection "zsdata_mupix7": frames=1
//    frame[0] sensor=71 pixels=2
//      pix x= 30 y= 12 sig=1 ts=0x9b frame=0x00001482
//      pix x=  4 y=  7 sig=1 ts=0x1e frame=0x00001482
//  collection "eudet_triggers": frames=1
//    frame[0] sensor=1 triggers=1
//      trg ts=0x0000000000001597 label=0x01
//  [...]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

const usage = `lcio-dump decodes and displays MuPix7 data embedded in LCIO files.

Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> lcio-dump ./run000042.slcio
 === run=42 evt=101 tlu=102 cycles=2 ===
 collection "zsdata_mupix7": frames=1
   frame[0] sensor=71 pixels=2
     pix x= 30 y= 12 sig=1 ts=0x9b frame=0x00001482
     pix x=  4 y=  7 sig=1 ts=0x1e frame=0x00001482
 collection "eudet_triggers": frames=1
   frame[0] sensor=1 triggers=1
     trg ts=0x0000000000001597 label=0x01
 [...]

`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("lcio-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("lcio", flag.ExitOnError)

		cname = fset.String("cfg", "", "path to a YAML converter configuration file, for the collection names")
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
		log.Fatalf("missing path to input LCIO file")
	}

	names := cnv.DefaultNames()
	if *cname != "" {
		cfg, err := cnv.ReadConfig(*cname)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
		names = cfg.Collections
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, names)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, names cnv.Names) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	for r.Next() {
		evt := r.Event()
		out, err := xcnv.ReadEvent(&evt, names)
		if err != nil {
			return fmt.Errorf("could not read event %d: %w", evt.EventNumber, err)
		}

		fmt.Fprintf(wbuf, "=== run=%d evt=%d tlu=%d cycles=%d ===\n",
			evt.RunNumber, evt.EventNumber,
			param(&evt, "TLUEvent"), param(&evt, "Cycles"),
		)
		for _, name := range []string{names.Pixels, names.Triggers, names.ToTs} {
			coll, ok := out.Collection(name)
			if !ok {
				continue
			}
			dump(wbuf, name, coll)
		}
	}

	err = r.Err()
	if err != nil && err != io.EOF {
		return fmt.Errorf("could not read LCIO file: %w", err)
	}

	return nil
}

func param(evt *lcio.Event, name string) int32 {
	vs := evt.Params.Ints[name]
	if len(vs) == 0 {
		return -1
	}
	return vs[0]
}

func dump(w io.Writer, name string, coll *cnv.Collection) {
	fmt.Fprintf(w, "collection %q: frames=%d\n", name, len(coll.Frames))
	for i, frame := range coll.Frames {
		switch {
		case len(frame.Pixels) > 0:
			fmt.Fprintf(w, "  frame[%d] sensor=%d pixels=%d\n", i, frame.SensorID, len(frame.Pixels))
		default:
			fmt.Fprintf(w, "  frame[%d] sensor=%d triggers=%d\n", i, frame.SensorID, len(frame.Triggers))
		}
		for _, pix := range frame.Pixels {
			fmt.Fprintf(w, "    pix x=% 3d y=% 3d sig=%d ts=0x%02x frame=0x%08x\n",
				pix.X, pix.Y, pix.Signal, pix.HitTime, pix.FrameTime,
			)
		}
		for _, trg := range frame.Triggers {
			fmt.Fprintf(w, "    trg ts=0x%016x label=0x%02x\n", trg.Timestamp, trg.Label)
		}
	}
}
