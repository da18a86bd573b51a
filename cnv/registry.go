// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import (
	"fmt"
	"sort"

	"github.com/go-lpc/mupix/rawevt"
)

// Plugin converts raw events of a given type.
type Plugin interface {
	// TriggerID returns the TLU trigger id of a raw event,
	// or rawevt.NoID when it is not available.
	TriggerID(evt *rawevt.Event) uint32

	// StandardSubEvent converts a raw event into a plane of dst.
	StandardSubEvent(dst *StandardEvent, evt *rawevt.Event) error

	// LCIOSubEvent converts a group of consecutive raw events into the
	// collections of dst.
	LCIOSubEvent(dst Sink, grp ...*rawevt.Event) error
}

// Registry maps raw event types to the plugins converting them.
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry returns a new empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register associates the raw event type typ with the plugin p.
func (reg *Registry) Register(typ string, p Plugin) error {
	if p == nil {
		return fmt.Errorf("cnv: nil plugin for event type %q", typ)
	}
	if _, dup := reg.plugins[typ]; dup {
		return fmt.Errorf("cnv: event type %q already registered", typ)
	}
	reg.plugins[typ] = p
	return nil
}

// Lookup returns the plugin associated with typ.
func (reg *Registry) Lookup(typ string) (Plugin, bool) {
	p, ok := reg.plugins[typ]
	return p, ok
}

// Types returns the sorted list of registered event types.
func (reg *Registry) Types() []string {
	types := make([]string, 0, len(reg.plugins))
	for typ := range reg.plugins {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
