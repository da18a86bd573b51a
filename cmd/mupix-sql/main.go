// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mupix-sql displays the conditions of a MuPix7 telescope run.
package main // import "github.com/go-lpc/mupix/cmd/mupix-sql"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/conddb"
)

func main() {
	log.SetPrefix("mupix-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "telescope", "name of the conditions database")
		run    = flag.Uint("run", 0, "run to inspect (0: last run)")
	)

	flag.Parse()

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open telescope db: %+v", err)
	}
	defer db.Close()

	err = doQuery(os.Stdout, db, uint32(*run))
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(w io.Writer, db *conddb.DB, run uint32) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if run == 0 {
		v, err := db.LastRun(ctx)
		if err != nil {
			return fmt.Errorf("could not get last run: %w", err)
		}
		run = v
	}
	fmt.Fprintf(w, "run: %d\n", run)

	cond, err := db.RunConditions(ctx, run)
	if err != nil {
		return fmt.Errorf("could not get run conditions (run=%d): %w", run, err)
	}
	fmt.Fprintf(w, "sensor:    %d\n", cond.SensorID)
	fmt.Fprintf(w, "cycles:    %d\n", cond.Cycles)
	fmt.Fprintf(w, "threshold: 0x%x\n", cond.Threshold)
	fmt.Fprintf(w, "comment:   %q\n", cond.Comment)

	sensors, err := db.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("could not retrieve sensors: %w", err)
	}
	fmt.Fprintf(w, "sensors:   %d\n", len(sensors))
	for _, s := range sensors {
		fmt.Fprintf(w, ">>> plane=%d, id=%03d, type=%s\n", s.Plane, s.ID, s.Type)
	}

	cfg := cond.Apply(cnv.DefaultConfig())
	err = cfg.Validate()
	if err != nil {
		fmt.Fprintf(w, "invalid converter configuration: %+v\n", err)
	}

	return nil
}
