// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnv

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
		want Config
		err  string
	}{
		{
			name: "empty",
			yaml: "",
			want: DefaultConfig(),
		},
		{
			name: "partial",
			yaml: "cycles: 3\nworkers: 4\n",
			want: func() Config {
				cfg := DefaultConfig()
				cfg.Cycles = 3
				cfg.Workers = 4
				return cfg
			}(),
		},
		{
			name: "full",
			yaml: `
sensor-id: 601
cycles: 1
workers: 2
collections:
  pixels: zsdata_m26
  triggers: trg
  tots: tot
`,
			want: Config{
				SensorID: 601,
				Cycles:   1,
				Workers:  2,
				Collections: Names{
					Pixels:   "zsdata_m26",
					Triggers: "trg",
					ToTs:     "tot",
				},
			},
		},
		{
			name: "invalid-cycles",
			yaml: "cycles: 4\n",
			err:  "cnv: invalid number of cycles 4 (must be in [1, 3])",
		},
		{
			name: "invalid-sensor-id",
			yaml: "sensor-id: 200\n",
			err:  "cnv: invalid sensor id 200 (cell id 200 overflows 127)",
		},
		{
			name: "invalid-workers",
			yaml: "workers: 0\n",
			err:  "cnv: invalid number of workers 0",
		},
		{
			name: "same-names",
			yaml: "collections:\n  tots: eudet_triggers\n",
			err:  "cnv: collection names must be distinct",
		},
		{
			name: "empty-name",
			yaml: "collections:\n  pixels: \"\"\n",
			err:  "cnv: empty collection name",
		},
		{
			name: "invalid-yaml",
			yaml: "cycles: [1, 2\n",
			err:  "cnv: could not decode YAML configuration",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(strings.NewReader(tc.yaml))
			switch {
			case err != nil && tc.err != "":
				if !strings.HasPrefix(err.Error(), tc.err) {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v", err, tc.err)
				}
			case err != nil:
				t.Fatalf("could not load configuration: %+v", err)
			case tc.err != "":
				t.Fatalf("expected an error (%s)", tc.err)
			default:
				if !reflect.DeepEqual(cfg, tc.want) {
					t.Fatalf("invalid configuration:\ngot= %+v\nwant=%+v", cfg, tc.want)
				}
			}
		})
	}
}

func TestReadConfig(t *testing.T) {
	tmp, err := os.MkdirTemp("", "mupix-cnv-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "cfg.yaml")
	err = os.WriteFile(fname, []byte("cycles: 1\n"), 0644)
	if err != nil {
		t.Fatalf("could not write config file: %+v", err)
	}

	cfg, err := ReadConfig(fname)
	if err != nil {
		t.Fatalf("could not read config file: %+v", err)
	}
	if got, want := cfg.Cycles, 1; got != want {
		t.Fatalf("invalid cycles: got=%d, want=%d", got, want)
	}

	_, err = ReadConfig(filepath.Join(tmp, "not-there.yaml"))
	if err == nil {
		t.Fatalf("expected an error")
	}
}
