// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import (
	"fmt"
	"sort"
)

// Sink is the destination of the pixel, trigger and ToT collections.
type Sink interface {
	// Collection returns the named collection, if it exists.
	Collection(name string) (*Collection, bool)
	// Attach adds a new named collection to the sink.
	Attach(name string, c *Collection) error
}

// Collection is an appendable list of readout frames.
type Collection struct {
	Frames []Frame
}

// Frame holds the records of one conversion, for one collection.
type Frame struct {
	SensorID uint32 // sensor id encoded in the frame cell id
	Pixels   []MuPixel
	Triggers []ExtTrigger
}

// Len returns the number of records of the frame.
func (f *Frame) Len() int { return len(f.Pixels) + len(f.Triggers) }

// MuPixel is a sparse MuPix pixel record.
// X and Y hold the hit row and column, rotated for the telescope frame.
type MuPixel struct {
	X         uint16
	Y         uint16
	Signal    uint16
	Time      uint16
	HitTime   uint16 // 8-bit hit time stamp
	FrameTime uint32 // low 32 bits of the frame time stamp
}

// ExtTrigger is an external trigger record.
// ToT measurements are stored as external triggers with the ToT label
// and a packed time stamp.
type ExtTrigger struct {
	Timestamp uint64
	Label     uint16
}

// Event is an in-memory Sink.
type Event struct {
	Run    uint32
	Number uint32

	colls map[string]*Collection
}

// NewEvent returns a new empty event.
func NewEvent(run, number uint32) *Event {
	return &Event{
		Run:    run,
		Number: number,
		colls:  make(map[string]*Collection),
	}
}

func (evt *Event) Collection(name string) (*Collection, bool) {
	c, ok := evt.colls[name]
	return c, ok
}

func (evt *Event) Attach(name string, c *Collection) error {
	if c == nil {
		return fmt.Errorf("cnv: nil collection %q", name)
	}
	if _, dup := evt.colls[name]; dup {
		return fmt.Errorf("cnv: collection %q already attached", name)
	}
	if evt.colls == nil {
		evt.colls = make(map[string]*Collection)
	}
	evt.colls[name] = c
	return nil
}

// Names returns the sorted names of the attached collections.
func (evt *Event) Names() []string {
	names := make([]string, 0, len(evt.colls))
	for name := range evt.colls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builder owns a frame until it is attached to its collection.
// The existence of the collection is checked once, at creation.
type builder struct {
	name  string
	coll  *Collection
	fresh bool
	frame Frame
}

func newBuilder(dst Sink, name string, sensor uint32) *builder {
	coll, ok := dst.Collection(name)
	if !ok {
		coll = new(Collection)
	}
	return &builder{
		name:  name,
		coll:  coll,
		fresh: !ok,
		frame: Frame{SensorID: sensor},
	}
}

// attach moves the frame into its collection and hands a fresh collection
// over to dst.
// Empty frames are dropped. A fresh collection is only attached when
// it holds data.
func (b *builder) attach(dst Sink, what string, rep *Report) {
	defer func() { b.frame = Frame{} }()

	empty := b.frame.Len() == 0
	switch {
	case !b.fresh:
		if !empty {
			b.coll.Frames = append(b.coll.Frames, b.frame)
		}
	case empty:
		rep.addf(EmptyCollection, "FAILED to convert %s event: nothing to store in %q", what, b.name)
	default:
		b.coll.Frames = append(b.coll.Frames, b.frame)
		err := dst.Attach(b.name, b.coll)
		if err != nil {
			rep.addf(MissingCollection, "FAILED to convert %s event: %+v", what, err)
		}
	}
}
