// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/go-lpc/mupix/telescope"
	"go-hep.org/x/hep/lcio"
	"golang.org/x/sync/errgroup"
)

// batchSize is the number of raw events converted concurrently before
// being written out.
const batchSize = 256

// Raw2LCIO converts the raw events read from dec into LCIO events written
// to w.
//
// Each data event is converted together with the following data events,
// up to the number of cycles of the converter configuration.
// Groups are converted concurrently and written in input order.
// Groups with a malformed block are logged and skipped.
func Raw2LCIO(w *lcio.Writer, dec *rawevt.Decoder, conv *cnv.Converter, freq int, msg *log.Logger) error {
	var (
		cfg  = conv.Config()
		evts []*rawevt.Event
		eof  bool

		rhdr  = false
		nevts = 0
		nskip = 0
	)

	if freq <= 0 {
		freq = 1
	}

	writeRunHeader := func(evt *rawevt.Event) error {
		if rhdr {
			return nil
		}
		rhdr = true
		err := w.WriteRunHeader(&lcio.RunHeader{
			RunNumber: int32(evt.Run),
			Detector:  Detector,
			Descr:     evt.Type,
			Params: lcio.Params{
				Ints: map[string][]int32{
					"Cycles":   {int32(cfg.Cycles)},
					"SensorID": {int32(cfg.SensorID)},
				},
				Strings: map[string][]string{
					"CellIDEncoding": {CellIDEncoding},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("could not write run header: %w", err)
		}
		return nil
	}

	for !eof || len(evts) > 0 {
		for !eof && len(evts) < batchSize+cfg.Cycles-1 {
			evt := new(rawevt.Event)
			err := dec.Decode(evt)
			if err != nil {
				if errors.Is(err, io.EOF) {
					eof = true
					break
				}
				return fmt.Errorf("could not decode raw event: %w", err)
			}
			evts = append(evts, evt)
		}

		n := len(evts)
		if !eof && n > batchSize {
			n = batchSize
		}

		out, err := convertBatch(conv, evts, n, cfg, msg)
		if err != nil {
			return err
		}

		for i, evt := range evts[:n] {
			switch evt.Kind {
			case rawevt.BORE:
				err := writeRunHeader(evt)
				if err != nil {
					return err
				}
			case rawevt.EORE:
				msg.Printf("end of run %d (event %d)", evt.Run, evt.Number)
			case rawevt.Data:
				err := writeRunHeader(evt)
				if err != nil {
					return err
				}
				if out[i] == nil {
					nskip++
					continue
				}
				if nevts%freq == 0 {
					msg.Printf("processing evt %d...", nevts)
				}
				err = w.WriteEvent(out[i])
				if err != nil {
					return fmt.Errorf("could not write event %d: %w", evt.Number, err)
				}
				nevts++
			}
		}
		evts = evts[n:]
	}

	msg.Printf("converted %d events (skipped %d)", nevts, nskip)
	return nil
}

// convertBatch converts the first n events of evts concurrently.
// Events past n are only used to complete the groups of the last events.
func convertBatch(conv *cnv.Converter, evts []*rawevt.Event, n int, cfg cnv.Config, msg *log.Logger) ([]*lcio.Event, error) {
	var (
		out = make([]*lcio.Event, n)
		grp errgroup.Group
	)
	grp.SetLimit(cfg.Workers)

	for i := 0; i < n; i++ {
		if evts[i].Kind != rawevt.Data {
			continue
		}
		var (
			i   = i
			end = i + cfg.Cycles
		)
		if end > len(evts) {
			end = len(evts)
		}
		win := evts[i:end]
		grp.Go(func() error {
			evt, err := Convert(conv, win...)
			if err != nil {
				if errors.Is(err, telescope.ErrMalformed) {
					msg.Printf("skipping event %d: %+v", win[0].Number, err)
					return nil
				}
				return fmt.Errorf("could not convert event %d: %w", win[0].Number, err)
			}
			out[i] = evt
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Convert converts a group of consecutive raw events into one LCIO event.
func Convert(conv *cnv.Converter, grp ...*rawevt.Event) (*lcio.Event, error) {
	if len(grp) == 0 {
		return nil, fmt.Errorf("xcnv: empty event group")
	}

	var (
		cur  = grp[0]
		data = cnv.Trim(grp)
		tlu  = uint32(rawevt.NoID)
	)
	if n := len(data); n > 0 {
		tlu = conv.TriggerID(data[n-1])
	}

	evt := &lcio.Event{
		RunNumber:   int32(cur.Run),
		EventNumber: int32(cur.Number),
		Detector:    Detector,
		Params: lcio.Params{
			Ints: map[string][]int32{
				"TLUEvent": {int32(tlu)},
				"Cycles":   {int32(len(data))},
			},
		},
	}

	sink := NewSink(evt)
	err := conv.LCIOSubEvent(sink, grp...)
	if err != nil {
		return nil, err
	}

	err = sink.Flush()
	if err != nil {
		return nil, err
	}
	return evt, nil
}
