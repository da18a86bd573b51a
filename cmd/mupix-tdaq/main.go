// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mupix-tdaq starts a TDAQ process converting MuPix7 raw events.
//
// Raw events are received on the /mupix-raw input port, converted into
// zero-suppressed planes and published, JSON encoded, on the
// /mupix-planes output port.
//
// Conversion metrics are served over HTTP, in the Prometheus format, when
// the MUPIX_METRICS_ADDR environment variable holds a listening address.
package main // import "github.com/go-lpc/mupix/cmd/mupix-tdaq"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/mupix/cnv"
	"github.com/go-lpc/mupix/rawevt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	convertedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mupix",
		Subsystem: "tdaq",
		Name:      "converted_events_total",
		Help:      "Total number of raw events converted into planes.",
	})

	rejectedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mupix",
		Subsystem: "tdaq",
		Name:      "rejected_events_total",
		Help:      "Total number of raw events that could not be converted.",
	})

	queuedPlanes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mupix",
		Subsystem: "tdaq",
		Name:      "queued_events",
		Help:      "Number of converted events waiting on the output port.",
	})
)

func init() {
	prometheus.MustRegister(convertedEvents, rejectedEvents, queuedPlanes)
}

func main() {
	cmd := flags.New()

	msg := log.New(os.Stdout, "mupix-tdaq: ", 0)
	dev, err := newProcess(msg, cnv.DefaultConfig())
	if err != nil {
		log.Panicf("could not create MuPix7 process: %+v", err)
	}

	if addr := os.Getenv("MUPIX_METRICS_ADDR"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			err := http.ListenAndServe(addr, mux)
			if err != nil {
				msg.Printf("could not serve metrics on %q: %+v", addr, err)
			}
		}()
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.InputHandle("/mupix-raw", dev.input)
	srv.OutputHandle("/mupix-planes", dev.output)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type process struct {
	reg *cnv.Registry

	n    atomic.Int64 // number of converted events
	nerr atomic.Int64 // number of rejected raw events
	data chan []byte
}

func newProcess(msg *log.Logger, cfg cnv.Config) (*process, error) {
	reg := cnv.NewRegistry()
	err := cnv.Register(reg, msg, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not register MuPix7 converter: %w", err)
	}

	dev := &process{
		reg:  reg,
		data: make(chan []byte, 1024),
	}
	dev.reset()
	return dev, nil
}

// reset drops the queued planes.
// The output channel is kept as it may be in use by the output handler.
func (dev *process) reset() {
loop:
	for {
		select {
		case <-dev.data:
		default:
			break loop
		}
	}
	queuedPlanes.Set(0)
	dev.n.Store(0)
	dev.nerr.Store(0)
}

func (dev *process) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command... (types=%q)", dev.reg.Types())
	return nil
}

func (dev *process) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	dev.reset()
	return nil
}

func (dev *process) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	dev.reset()
	return nil
}

func (dev *process) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *process) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d (errs=%d)", dev.n.Load(), dev.nerr.Load())
	return nil
}

func (dev *process) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *process) input(ctx tdaq.Context, src tdaq.Frame) error {
	err := dev.push(ctx.Ctx, src.Body)
	if err != nil {
		ctx.Msg.Warnf("could not convert raw event: %+v", err)
	}
	return nil
}

func (dev *process) output(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		queuedPlanes.Dec()
		dst.Body = data
	}
	return nil
}

// push converts a raw event and queues the resulting planes for output.
func (dev *process) push(ctx context.Context, raw []byte) error {
	out, err := dev.convert(raw)
	if err != nil {
		dev.nerr.Add(1)
		rejectedEvents.Inc()
		return err
	}
	if out == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case dev.data <- out:
		dev.n.Add(1)
		convertedEvents.Inc()
		queuedPlanes.Inc()
	}
	return nil
}

// convert converts a raw event into a JSON encoded standard event.
// convert returns a nil slice for events without any plane.
func (dev *process) convert(raw []byte) ([]byte, error) {
	var evt rawevt.Event
	err := rawevt.NewDecoder(bytes.NewReader(raw)).Decode(&evt)
	if err != nil {
		return nil, fmt.Errorf("could not decode raw event: %w", err)
	}

	p, ok := dev.reg.Lookup(evt.Type)
	if !ok {
		return nil, fmt.Errorf("no converter for event type %q", evt.Type)
	}

	out := cnv.StandardEvent{Run: evt.Run, Number: evt.Number}
	err = p.StandardSubEvent(&out, &evt)
	if err != nil {
		return nil, fmt.Errorf("could not convert event %d: %w", evt.Number, err)
	}

	if len(out.Planes) == 0 {
		return nil, nil
	}

	return json.Marshal(out)
}
