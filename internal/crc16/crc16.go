// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc16 implements the 16-bit cyclic redundancy check (CRC-16)
// used to protect MuPix readout frames and raw event records.
//
// The default table implements CRC-16/CCITT-FALSE:
// polynomial 0x1021, initial value 0xffff, no reflection, no final xor.
package crc16 // import "github.com/go-lpc/mupix/internal/crc16"

import (
	"hash"
)

// Size of a CRC-16 checksum in bytes.
const Size = 2

const (
	ccitt = 0x1021
	init0 = 0xffff
)

// Table is a 256-word table representing the polynomial for
// efficient processing.
type Table [256]uint16

// CCITTTable is the table for the CCITT polynomial.
var CCITTTable = MakeTable(ccitt)

// MakeTable returns a Table constructed from the specified
// (non-reflected) polynomial.
func MakeTable(poly uint16) *Table {
	tab := new(Table)
	for i := range tab {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			switch {
			case crc&0x8000 != 0:
				crc = crc<<1 ^ poly
			default:
				crc <<= 1
			}
		}
		tab[i] = crc
	}
	return tab
}

// Hash16 is the common interface implemented by all 16-bit hash functions.
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	crc uint16
	tab *Table
}

// New creates a new Hash16 computing the CRC-16 checksum using the
// polynomial represented by the Table.
// A nil table selects CCITTTable.
func New(tab *Table) Hash16 {
	if tab == nil {
		tab = CCITTTable
	}
	return &digest{crc: init0, tab: tab}
}

// Checksum returns the CRC-16 checksum of data using CCITTTable.
func Checksum(data []byte) uint16 {
	return update(init0, CCITTTable, data)
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 1 }
func (d *digest) Reset()         { d.crc = init0 }

func (d *digest) Write(p []byte) (int, error) {
	d.crc = update(d.crc, d.tab, p)
	return len(p), nil
}

func (d *digest) Sum16() uint16 { return d.crc }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}

func update(crc uint16, tab *Table, p []byte) uint16 {
	for _, v := range p {
		crc = crc<<8 ^ tab[byte(crc>>8)^v]
	}
	return crc
}
