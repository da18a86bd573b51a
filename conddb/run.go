// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import "github.com/go-lpc/mupix/cnv"

// RunConditions describes the data taking conditions of a run.
type RunConditions struct {
	Run       uint32
	SensorID  uint32 // id of the MuPix sensor under test
	Cycles    int    // number of readout cycles per event
	Threshold uint16 // sensor threshold DAC value
	Comment   string
}

// Apply returns the converter configuration updated with the run
// conditions.
// Unset conditions leave the configuration untouched.
func (rc RunConditions) Apply(cfg cnv.Config) cnv.Config {
	if rc.SensorID != 0 {
		cfg.SensorID = rc.SensorID
	}
	if rc.Cycles != 0 {
		cfg.Cycles = rc.Cycles
	}
	return cfg
}

// Sensor describes a sensor of the telescope.
type Sensor struct {
	ID    uint32
	Type  string
	Plane uint8 // position of the sensor along the beam
}
