// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB.
//
// Every query returns the rows registered with Run, whatever the SQL.
// The last query and its arguments are recorded for inspection.
// Connections to the Unreachable database fail to ping.
package fakedb // import "github.com/go-lpc/mupix/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// Unreachable is the name of a database whose connections fail to ping.
const Unreachable = "unreachable"

var errUnreachable = errors.New("fakedb: database unreachable")

var conns atomic.Int64

var query struct {
	mu   sync.Mutex
	rows Rows

	last struct {
		sync.Mutex
		sql  string
		args []driver.Value
	}
}

// Run runs f with the database returning the provided rows.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows

	return f(ctx)
}

// LastQuery returns the last SQL query run against the database,
// with its arguments.
func LastQuery() (string, []driver.Value) {
	query.last.Lock()
	defer query.last.Unlock()
	return query.last.sql, query.last.args
}

// Conns returns the number of open connections.
func Conns() int64 {
	return conns.Load()
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	conns.Add(1)
	return &Conn{name: name}, nil
}

type Conn struct {
	name string
}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

func (c *Conn) Close() error {
	conns.Add(-1)
	return nil
}

// Ping fails for connections to the Unreachable database.
func (c *Conn) Ping(ctx context.Context) error {
	if c.name == Unreachable || strings.HasSuffix(c.name, "/"+Unreachable) {
		return errUnreachable
	}
	return nil
}

// Begin is not supported: the fake database is read-only.
func (c *Conn) Begin() (driver.Tx, error) {
	return nil, driver.ErrSkip
}

type Stmt struct {
	query string
}

func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: placeholders are not checked.
func (stmt *Stmt) NumInput() int {
	return -1
}

func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, driver.ErrSkip
}

// Query records the query and returns a copy of the registered rows.
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	query.last.Lock()
	query.last.sql = stmt.query
	query.last.args = append([]driver.Value(nil), args...)
	query.last.Unlock()

	rows := &Rows{
		Names:  query.rows.Names,
		Values: query.rows.Values,
	}
	return rows, nil
}

type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

func (rows *Rows) Close() error {
	return nil
}

// Next populates the next row of data into dest.
// Next returns io.EOF when there are no more rows.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Pinger = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
)
