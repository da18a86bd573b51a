// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import (
	"fmt"
	"log"
)

// DiagKind is the kind of a non-fatal conversion diagnostic.
type DiagKind uint8

const (
	OutOfRange        DiagKind = iota // hit outside of the sensor matrix
	UnexpectedBORE                    // begin-of-run event reached the converter
	UnexpectedEORE                    // end-of-run event reached the converter
	EmptyCollection                   // freshly created collection left empty
	MissingCollection                 // populated collection could not be attached
)

func (k DiagKind) String() string {
	switch k {
	case OutOfRange:
		return "out-of-range"
	case UnexpectedBORE:
		return "unexpected-bore"
	case UnexpectedEORE:
		return "unexpected-eore"
	case EmptyCollection:
		return "empty-collection"
	case MissingCollection:
		return "missing-collection"
	}
	return fmt.Sprintf("DiagKind(%d)", uint8(k))
}

// level returns the logging level of a diagnostic kind.
func (k DiagKind) level() string {
	switch k {
	case UnexpectedBORE, MissingCollection:
		return "ERROR"
	default:
		return "WARN"
	}
}

// Diag is a non-fatal conversion diagnostic.
type Diag struct {
	Kind DiagKind
	Msg  string
}

func (d Diag) String() string {
	return d.Kind.level() + ": " + d.Msg
}

// Report collects the diagnostics of a conversion.
type Report struct {
	Diags []Diag
}

func (r *Report) addf(kind DiagKind, format string, args ...interface{}) {
	r.Diags = append(r.Diags, Diag{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (r *Report) merge(o Report) {
	r.Diags = append(r.Diags, o.Diags...)
}

// Count returns the number of diagnostics of the given kind.
func (r Report) Count(kind DiagKind) int {
	n := 0
	for _, d := range r.Diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Log writes all diagnostics to msg.
func (r Report) Log(msg *log.Logger) {
	if msg == nil {
		return
	}
	for _, d := range r.Diags {
		msg.Print(d.String())
	}
}
