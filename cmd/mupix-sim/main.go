// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mupix-sim writes a synthetic MuPix7 raw data run.
//
// The run starts with a begin of run event, holds the requested number
// of data events (one readout frame each) and ends with an end of run
// event.
package main // import "github.com/go-lpc/mupix/cmd/mupix-sim"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
)

var (
	msg = log.New(os.Stdout, "mupix-sim: ", 0)
)

const usage = `Usage: mupix-sim [OPTIONS]

ex:
 $> mupix-sim -o run000042.raw -n 1000
 $> mupix-sim -o run000042.raw -n 1000 -run=42 -seed=1234 -noise=0.01

options:
`

func main() {
	err := xmain(os.Args[1:])
	if err != nil {
		msg.Fatalf("could not simulate MuPix7 run: %+v", err)
	}
}

func xmain(args []string) error {
	var (
		fset = flag.NewFlagSet("mupix-sim", flag.ExitOnError)

		oname = fset.String("o", "out.raw", "path to output raw file")
		nevts = fset.Int("n", 100, "number of data events to generate")
		run   = fset.Uint("run", 1, "run number")
		seed  = fset.Int64("seed", 1234, "seed for the random number generator")
		noise = fset.Float64("noise", 0.01, "fraction of out-of-matrix hits")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	if *oname == "" {
		fset.Usage()
		return fmt.Errorf("invalid output file name")
	}

	if *nevts < 0 {
		fset.Usage()
		return fmt.Errorf("invalid number of events (n=%d)", *nevts)
	}

	f, err := os.Create(*oname)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()

	sim := newSimulator(uint32(*run), *seed)
	sim.noise = *noise

	err = sim.generate(f, *nevts)
	if err != nil {
		return fmt.Errorf("could not generate run: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}

	msg.Printf("wrote %d events to %q", *nevts, *oname)
	return nil
}

type simulator struct {
	run   uint32
	rnd   *rand.Rand
	noise float64 // fraction of hits outside of the sensor matrix

	maxHits int
	maxToTs int

	ts uint64 // time stamp of the current readout cycle
}

func newSimulator(run uint32, seed int64) *simulator {
	return &simulator{
		run:     run,
		rnd:     rand.New(rand.NewSource(seed)),
		maxHits: 16,
		maxToTs: 4,
		ts:      0x1000,
	}
}

func (sim *simulator) generate(w io.Writer, n int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	enc := rawevt.NewEncoder(wbuf)
	err := enc.Encode(&rawevt.Event{
		Kind: rawevt.BORE,
		Type: cnv.EventType,
		Run:  sim.run,
	})
	if err != nil {
		return fmt.Errorf("could not write BORE: %w", err)
	}

	var evt rawevt.Event
	for i := 0; i < n; i++ {
		err = sim.next(&evt, uint32(i+1))
		if err != nil {
			return fmt.Errorf("could not generate event %d: %w", i, err)
		}
		err = enc.Encode(&evt)
		if err != nil {
			return fmt.Errorf("could not write event %d: %w", i, err)
		}
	}

	err = enc.Encode(&rawevt.Event{
		Kind:   rawevt.EORE,
		Type:   cnv.EventType,
		Run:    sim.run,
		Number: uint32(n + 1),
	})
	if err != nil {
		return fmt.Errorf("could not write EORE: %w", err)
	}

	return wbuf.Flush()
}

// next fills evt with the data event number, holding one readout frame
// tagged with the TLU trigger id number.
func (sim *simulator) next(evt *rawevt.Event, number uint32) error {
	frame := sim.frame()
	raw, err := telescope.Marshal(&frame)
	if err != nil {
		return err
	}

	*evt = rawevt.Event{
		Kind:   rawevt.Data,
		Type:   cnv.EventType,
		Run:    sim.run,
		Number: number,
	}
	evt.Append(number, raw)
	return nil
}

func (sim *simulator) frame() telescope.Frame {
	sim.ts += 0x400 + uint64(sim.rnd.Intn(0x100))

	var (
		g     = cnv.MuPix7
		frame = telescope.Frame{Timestamp: sim.ts}
		nhits = sim.rnd.Intn(sim.maxHits + 1)
		ntots = sim.rnd.Intn(sim.maxToTs + 1)
	)

	for i := 0; i < nhits; i++ {
		// the wire column spans the sensor rows.
		hit := telescope.Hit{
			Column:       uint8(sim.rnd.Intn(g.Rows)),
			Row:          uint8(sim.rnd.Intn(g.Columns)),
			TimestampRaw: uint8(sim.rnd.Intn(256)),
		}
		if sim.rnd.Float64() < sim.noise {
			hit.Column = uint8(g.Rows + sim.rnd.Intn(256-g.Rows))
		}
		frame.Hits = append(frame.Hits, hit)
	}

	frame.Triggers = append(frame.Triggers, telescope.Trigger{
		Timestamp: sim.ts + uint64(sim.rnd.Intn(0x400)),
		Tag:       telescope.TagTLU,
	})

	for i := 0; i < ntots; i++ {
		frame.ToTs = append(frame.ToTs, telescope.ToT{
			Timestamp: sim.ts + uint64(sim.rnd.Intn(0x400)),
			Length:    uint8(sim.rnd.Intn(256)),
		})
	}

	return frame
}
