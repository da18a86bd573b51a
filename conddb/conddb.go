// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to describe the condition database of the
// MuPix telescope: run conditions and sensor descriptions.
package conddb // import "github.com/go-lpc/mupix/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve conditions data
// from the telescope database.
type DB struct {
	db   *sql.DB
	name string // name of the telescope database
}

// Open opens a connection to the telescope database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastRun returns the number of the last run recorded in the database.
func (db *DB) LastRun(ctx context.Context) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var run uint32
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT run FROM runs ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return run, fmt.Errorf("conddb: could not query last run: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&run)
		if err != nil {
			return run, fmt.Errorf("conddb: could not get last run value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return run, fmt.Errorf("conddb: could not scan db for last run: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("conddb: context error while retrieving last run: %w", err)
	}

	return run, nil
}

// RunConditions returns the conditions of the provided run.
func (db *DB) RunConditions(ctx context.Context, run uint32) (RunConditions, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		cond RunConditions
		n    = 0
	)

	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT runs.run, runs.sensor, runs.cycles, runs.threshold, runs.comment FROM runs
WHERE (
	runs.run=?
)
`,
		run,
	)
	if err != nil {
		return cond, fmt.Errorf("conddb: could not run run-conditions query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(
			&cond.Run, &cond.SensorID, &cond.Cycles,
			&cond.Threshold, &cond.Comment,
		)
		if err != nil {
			return cond, fmt.Errorf("conddb: could not scan run-conditions for run %d: %w", run, err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return cond, fmt.Errorf("conddb: could not scan db for run-conditions: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return cond, fmt.Errorf("conddb: context error while retrieving run-conditions: %w", err)
	}

	switch n {
	case 0:
		return cond, fmt.Errorf("conddb: no conditions for run %d", run)
	case 1:
		return cond, nil
	default:
		return cond, fmt.Errorf("conddb: too many conditions for run %d (n=%d)", run, n)
	}
}

// Sensors returns the list of sensors of the telescope.
func (db *DB) Sensors(ctx context.Context) ([]Sensor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sensors []Sensor
	rows, err := db.db.QueryContext(ctx, "SELECT identifier, type, plane FROM sensors")
	if err != nil {
		return sensors, fmt.Errorf(
			"conddb: could not run sensors query: %w",
			err,
		)
	}
	defer rows.Close()

	for rows.Next() {
		var s Sensor
		err = rows.Scan(&s.ID, &s.Type, &s.Plane)
		if err != nil {
			return sensors, fmt.Errorf(
				"conddb: could not scan sensors: %w",
				err,
			)
		}
		sensors = append(sensors, s)
	}

	if err := rows.Err(); err != nil {
		return sensors, fmt.Errorf(
			"conddb: could not scan db for sensors: %w",
			err,
		)
	}

	if err := ctx.Err(); err != nil {
		return sensors, fmt.Errorf(
			"conddb: context error while retrieving sensors: %w",
			err,
		)
	}

	return sensors, nil
}
