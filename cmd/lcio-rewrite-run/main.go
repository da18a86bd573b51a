// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lcio-rewrite-run reads a LCIO file and rewrites its run number
// with the provided value.
// The sensor id of the MuPix7 pixel frames may also be rewritten.
package main // import "github.com/go-lpc/mupix/cmd/lcio-rewrite-run"

import (
	"compress/flate"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "lcio-rewrite: ", 0)
)

const usage = `Usage: lcio-rewrite-run [OPTIONS] FILE.lcio

ex:
 $> lcio-rewrite-run -o output.lcio -run=1234 ./input.lcio
 lcio-rewrite: processing event 0...
 lcio-rewrite: processing event 10...
 lcio-rewrite: processing event 20...
 lcio-rewrite: processing event 30...
 lcio-rewrite: processed 36 events

 $> lcio-rewrite-run -o output.lcio -run=1234 -sensor=601 ./input.lcio

options:
`

func main() {
	err := xmain(os.Args[1:])
	if err != nil {
		msg.Fatalf("%+v", err)
	}
}

func xmain(args []string) error {
	var (
		fset = flag.NewFlagSet("lcio-rewrite-run", flag.ExitOnError)

		runnbr = fset.Int("run", 0, "run number to use for output LCIO file")
		oname  = fset.String("o", "out.lcio", "path to output rewritten LCIO file")
		sensor = fset.Uint("sensor", 0, "sensor id to use for the MuPix7 pixel frames (0: keep)")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	if fset.NArg() != 1 {
		fset.Usage()
		return fmt.Errorf("missing input LCIO file to rewrite")
	}

	r, err := lcio.Open(fset.Arg(0))
	if err != nil {
		return fmt.Errorf("could not open input LCIO file: %w", err)
	}
	defer r.Close()

	w, err := lcio.Create(*oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(flate.BestCompression)

	err = process(w, r, int32(*runnbr), uint32(*sensor))
	if err != nil {
		return fmt.Errorf("could not rewrite %q: %w", fset.Arg(0), err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}

	return nil
}

func process(w *lcio.Writer, r *lcio.Reader, run int32, sensor uint32) error {
	var (
		rhdr lcio.RunHeader
		i    = 0
	)
	for r.Next() {
		if i == 0 {
			rhdr = r.RunHeader()
			rhdr.RunNumber = run

			err := w.WriteRunHeader(&rhdr)
			if err != nil {
				return fmt.Errorf("could not write run header: %w", err)
			}

		}

		evt := r.Event()
		evt.RunNumber = run
		if sensor != 0 {
			err := rewriteSensor(&evt, sensor)
			if err != nil {
				return fmt.Errorf("could not rewrite sensor of evt %d: %w", evt.EventNumber, err)
			}
		}
		if i%10 == 0 {
			msg.Printf("processing event %d...", evt.EventNumber)
		}
		err := w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write evt %d: %w", evt.EventNumber, err)
		}
		i++
	}

	err := r.Err()
	if err != nil && err != io.EOF {
		return fmt.Errorf("could not read LCIO file: %w", err)
	}

	msg.Printf("processed %d events", i)

	return nil
}

func rewriteSensor(evt *lcio.Event, sensor uint32) error {
	sink := xcnv.NewSink(evt)
	coll, ok := sink.Collection(cnv.PixelCollection)
	if !ok {
		return nil
	}
	for i := range coll.Frames {
		coll.Frames[i].SensorID = cnv.CellSensorID(sensor)
	}
	return sink.Flush()
}
