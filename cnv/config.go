// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration of a converter.
type Config struct {
	SensorID    uint32 `yaml:"sensor-id"`
	Cycles      int    `yaml:"cycles"`  // number of readout cycles per output event
	Workers     int    `yaml:"workers"` // number of concurrent group conversions
	Collections Names  `yaml:"collections"`
}

// DefaultConfig returns the configuration of the MuPix7 telescope plane.
func DefaultConfig() Config {
	return Config{
		SensorID:    SensorID,
		Cycles:      2,
		Workers:     1,
		Collections: DefaultNames(),
	}
}

// Validate checks the configuration is consistent.
func (cfg Config) Validate() error {
	if cfg.Cycles < 1 || cfg.Cycles > MaxCycles {
		return fmt.Errorf("cnv: invalid number of cycles %d (must be in [1, %d])", cfg.Cycles, MaxCycles)
	}
	if id := CellSensorID(cfg.SensorID); id > MaxCellSensorID {
		return fmt.Errorf("cnv: invalid sensor id %d (cell id %d overflows %d)", cfg.SensorID, id, MaxCellSensorID)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("cnv: invalid number of workers %d", cfg.Workers)
	}
	names := cfg.Collections
	for _, name := range []string{names.Pixels, names.Triggers, names.ToTs} {
		if name == "" {
			return fmt.Errorf("cnv: empty collection name")
		}
	}
	if names.Pixels == names.Triggers || names.Pixels == names.ToTs || names.Triggers == names.ToTs {
		return fmt.Errorf("cnv: collection names must be distinct (%+v)", names)
	}
	return nil
}

// LoadConfig decodes a YAML configuration from r.
// Missing fields keep their default value.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	err := yaml.NewDecoder(r).Decode(&cfg)
	if err != nil && err != io.EOF {
		return cfg, fmt.Errorf("cnv: could not decode YAML configuration: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ReadConfig reads the YAML configuration file fname.
func ReadConfig(fname string) (Config, error) {
	f, err := os.Open(fname)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("cnv: could not open configuration file: %w", err)
	}
	defer f.Close()

	return LoadConfig(f)
}
