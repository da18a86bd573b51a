// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mupix2lcio converts a MuPix7 raw data file to an LCIO one.
package main // import "github.com/go-lpc/mupix/cmd/mupix2lcio"

import (
	"compress/flate"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/conddb"
	"github.com/go-lpc/mupix/internal/mmap"
	"github.com/go-lpc/mupix/internal/xcnv"
	"github.com/go-lpc/mupix/rawevt"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "mupix2lcio: ", 0)
)

const usage = `Usage: mupix2lcio [OPTIONS] file.raw

ex:
 $> mupix2lcio -o out.lcio -lvl=9 ./run000123.raw
 $> mupix2lcio -o out.lcio -cycles=3 -j=4 ./run000123.raw
 $> mupix2lcio -o out.lcio -cfg=mupix.yaml -db=telescope ./run000123.raw

options:
`

func main() {
	err := xmain(os.Args[1:])
	if err != nil {
		msg.Fatalf("could not convert MuPix7 file: %+v", err)
	}
}

func xmain(args []string) error {
	var (
		fset = flag.NewFlagSet("mupix2lcio", flag.ExitOnError)

		oname  = fset.String("o", "out.lcio", "path to output LCIO file")
		compr  = fset.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		cycles = fset.Int("cycles", 0, "number of readout cycles per output event (default from configuration)")
		cname  = fset.String("cfg", "", "path to a YAML converter configuration file")
		dbname = fset.String("db", "", "name of the conditions database to retrieve run conditions from")
		nwrks  = fset.Int("j", 0, "number of concurrent conversions (default from configuration)")
		freq   = fset.Int("freq", 1000, "event printing frequency")
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
		return fmt.Errorf("missing input MuPix7 raw file")
	}

	if *oname == "" {
		fset.Usage()
		return fmt.Errorf("invalid output LCIO file name")
	}

	fname := fset.Arg(0)

	cfg := cnv.DefaultConfig()
	if *cname != "" {
		cfg, err = cnv.ReadConfig(*cname)
		if err != nil {
			return fmt.Errorf("could not load configuration: %w", err)
		}
	}

	if *dbname != "" {
		cfg, err = runConditions(*dbname, fname, cfg)
		if err != nil {
			return fmt.Errorf("could not retrieve run conditions: %w", err)
		}
	}

	if *cycles != 0 {
		cfg.Cycles = *cycles
	}
	if *nwrks != 0 {
		cfg.Workers = *nwrks
	}

	return process(*oname, *compr, fname, *freq, cfg)
}

func process(oname string, lvl int, fname string, freq int, cfg cnv.Config) error {
	conv, err := cnv.New(msg, cfg)
	if err != nil {
		return fmt.Errorf("could not create MuPix7 converter: %w", err)
	}

	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open MuPix7 file: %w", err)
	}
	defer f.Close()

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	dec := rawevt.NewDecoder(f.Reader())
	err = xcnv.Raw2LCIO(w, dec, conv, freq, msg)
	if err != nil {
		return fmt.Errorf("could not convert MuPix7 to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

func runConditions(dbname, fname string, cfg cnv.Config) (cnv.Config, error) {
	run, err := runNbrFrom(fname)
	if err != nil {
		return cfg, fmt.Errorf("could not infer run from %q: %w", fname, err)
	}

	db, err := conddb.Open(dbname)
	if err != nil {
		return cfg, fmt.Errorf("could not open conditions db: %w", err)
	}
	defer db.Close()

	cond, err := db.RunConditions(context.Background(), run)
	if err != nil {
		return cfg, err
	}
	msg.Printf("run %d: sensor=%d, cycles=%d (%s)", cond.Run, cond.SensorID, cond.Cycles, cond.Comment)

	return cond.Apply(cfg), nil
}

func runNbrFrom(fname string) (uint32, error) {
	var (
		name = filepath.Base(fname)
		run  uint32
	)
	_, err := fmt.Sscanf(name, "run%d.raw", &run)
	return run, err
}
