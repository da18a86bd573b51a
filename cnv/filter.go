// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import "github.com/go-lpc/mupix/rawevt"

// filter intercepts begin/end of run events, which carry no readout data.
// filter returns false when evt must not be converted.
func filter(evt *rawevt.Event, what string, rep *Report) bool {
	switch evt.Kind {
	case rawevt.BORE:
		rep.addf(UnexpectedBORE, "got BORE during %s conversion", what)
		return false
	case rawevt.EORE:
		rep.addf(UnexpectedEORE, "got EORE during %s conversion", what)
		return false
	}
	return true
}

// Trim returns the leading data events of a group.
// A group stops at the first special event.
func Trim(grp []*rawevt.Event) []*rawevt.Event {
	for i, evt := range grp {
		if evt == nil || evt.Kind != rawevt.Data {
			return grp[:i]
		}
	}
	return grp
}
