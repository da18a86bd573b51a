// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package telescope

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
)

func TestEncoder(t *testing.T) {
	for _, tc := range []struct {
		name  string
		frame Frame
		want  []byte
	}{
		{
			name:  "normal",
			frame: refFrame,
			want:  refRaw,
		},
		{
			name:  "empty-cycle",
			frame: Frame{Timestamp: 42},
			want:  emptyRaw,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Marshal(&tc.frame)
			if err != nil {
				t.Fatalf("could not marshal frame: %+v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("invalid encoding:\ngot= %x\nwant=%x", got, tc.want)
			}

			var f Frame
			err = Unmarshal(got, &f)
			if err != nil {
				t.Fatalf("could not unmarshal frame: %+v", err)
			}
			if f.Timestamp != tc.frame.Timestamp ||
				len(f.Hits) != len(tc.frame.Hits) ||
				len(f.Triggers) != len(tc.frame.Triggers) ||
				len(f.ToTs) != len(tc.frame.ToTs) {
				t.Fatalf("round-trip failed:\ngot= %+v\nwant=%+v", f, tc.frame)
			}
		})
	}
}

func TestEncoderTooMany(t *testing.T) {
	f := Frame{Hits: make([]Hit, 0x10000)}
	_, err := Marshal(&f)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), fmt.Errorf("telescope: too many hits (n=%d)", 0x10000).Error(); got != want {
		t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
	}
}

type failWriter struct {
	n int
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrShortWrite
	}
	w.n--
	return len(p), nil
}

func TestEncoderWriteError(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("fail-%d", n), func(t *testing.T) {
			err := NewEncoder(&failWriter{n: n}).Encode(&refFrame)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, io.ErrShortWrite) {
				t.Fatalf("invalid error: %+v", err)
			}
		})
	}
}

func TestEncoderStream(t *testing.T) {
	var (
		buf = new(bytes.Buffer)
		enc = NewEncoder(buf)
	)
	frames := []Frame{refFrame, {Timestamp: 42}, refFrame}
	for i := range frames {
		err := enc.Encode(&frames[i])
		if err != nil {
			t.Fatalf("could not encode frame %d: %+v", i, err)
		}
	}

	want := append(append(append([]byte(nil), refRaw...), emptyRaw...), refRaw...)
	if got := buf.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("invalid stream:\ngot= %x\nwant=%x", got, want)
	}
}

func TestPackToT(t *testing.T) {
	for _, tc := range []struct {
		tot  ToT
		want uint64
	}{
		{
			tot:  ToT{Timestamp: 0x0000aabbccddeeff, Length: 0x12},
			want: 0xaabbccddeeff12,
		},
		{
			tot:  ToT{Timestamp: 0xffff000000000001, Length: 0xff},
			want: 0x1ff,
		},
		{
			tot:  ToT{},
			want: 0,
		},
	} {
		t.Run(fmt.Sprintf("0x%x", tc.want), func(t *testing.T) {
			got := PackToT(tc.tot)
			if got != tc.want {
				t.Fatalf("invalid packed ToT: got=0x%x, want=0x%x", got, tc.want)
			}
			back := UnpackToT(got)
			want := ToT{Timestamp: tc.tot.Timestamp & mask48, Length: tc.tot.Length}
			if !reflect.DeepEqual(back, want) {
				t.Fatalf("invalid unpacked ToT: got=%+v, want=%+v", back, want)
			}
		})
	}
}

func TestFrameTime(t *testing.T) {
	f := Frame{Timestamp: 0x0102030405060708}
	if got, want := f.FrameTime(), uint32(0x05060708); got != want {
		t.Fatalf("invalid frame time: got=0x%x, want=0x%x", got, want)
	}
}
