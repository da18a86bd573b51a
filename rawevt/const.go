// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rawevt

const (
	evHeader  = 0xe0 // event header marker
	evTrailer = 0xe1 // event trailer marker

	maxTypeLen = 0xffff
)
