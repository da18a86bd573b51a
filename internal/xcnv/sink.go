// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"

	"github.com/go-lpc/mupix/cnv"
	"go-hep.org/x/hep/lcio"
)

// Sink is a cnv.Sink backed by an LCIO event.
//
// Collections already present in the LCIO event are decoded on first
// access. Modified and attached collections are written back to the
// LCIO event by Flush.
type Sink struct {
	evt   *lcio.Event
	names []string
	colls map[string]*entry
}

type entry struct {
	coll *cnv.Collection
	obj  *lcio.GenericObject // backing LCIO collection, nil when attached
}

var _ cnv.Sink = (*Sink)(nil)

// NewSink returns a new sink writing to evt.
func NewSink(evt *lcio.Event) *Sink {
	return &Sink{
		evt:   evt,
		colls: make(map[string]*entry),
	}
}

func (s *Sink) Collection(name string) (*cnv.Collection, bool) {
	if e, ok := s.colls[name]; ok {
		return e.coll, true
	}
	obj, ok := s.evt.Get(name).(*lcio.GenericObject)
	if !ok || obj == nil {
		return nil, false
	}
	coll, err := decodeCollection(obj)
	if err != nil {
		return nil, false
	}
	s.add(name, &entry{coll: coll, obj: obj})
	return coll, true
}

func (s *Sink) Attach(name string, c *cnv.Collection) error {
	if c == nil {
		return fmt.Errorf("xcnv: nil collection %q", name)
	}
	if _, dup := s.colls[name]; dup || s.evt.Get(name) != nil {
		return fmt.Errorf("xcnv: collection %q already in LCIO event", name)
	}
	s.add(name, &entry{coll: c})
	return nil
}

func (s *Sink) add(name string, e *entry) {
	s.names = append(s.names, name)
	s.colls[name] = e
}

// Flush writes all the collections of the sink to the LCIO event.
func (s *Sink) Flush() error {
	for _, name := range s.names {
		e := s.colls[name]
		obj, err := encodeCollection(e.coll)
		if err != nil {
			return fmt.Errorf("xcnv: could not encode collection %q: %w", name, err)
		}
		if e.obj != nil {
			*e.obj = *obj
			continue
		}
		s.evt.Add(name, obj)
		e.obj = obj
	}
	return nil
}

// ReadEvent extracts the named MuPix collections of an LCIO event.
// Missing collections are skipped.
func ReadEvent(evt *lcio.Event, names cnv.Names) (*cnv.Event, error) {
	out := cnv.NewEvent(uint32(evt.RunNumber), uint32(evt.EventNumber))
	for _, name := range []string{names.Pixels, names.Triggers, names.ToTs} {
		v := evt.Get(name)
		if v == nil {
			continue
		}
		obj, ok := v.(*lcio.GenericObject)
		if !ok {
			return nil, fmt.Errorf("xcnv: invalid LCIO collection %q (type=%T)", name, v)
		}
		coll, err := decodeCollection(obj)
		if err != nil {
			return nil, fmt.Errorf("xcnv: could not decode collection %q: %w", name, err)
		}
		err = out.Attach(name, coll)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
