/*
Copyright © 2024 the IBC-grass authors.
This file is part of IBC-grass.

IBC-grass is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IBC-grass is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IBC-grass.  If not, see <http://www.gnu.org/licenses/>.
*/

package output

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spatialmodel/ibcgrass"

	_ "modernc.org/sqlite" // SQLite driver
)

// sqliteBatch is the number of rows inserted per transaction.
const sqliteBatch = 10000

// streamRows are zero rows of every result stream. Only their Stream and
// Columns methods are used.
var streamRows = []ibcgrass.Row{
	ibcgrass.ParamRow{},
	ibcgrass.TraitRow{},
	ibcgrass.SrvRow{},
	ibcgrass.PFTRow{},
	ibcgrass.IndRow{},
	ibcgrass.AggregatedRow{},
}

// SQLite writes all result streams into <dir>/<prefix>.sqlite, one table
// per stream.
type SQLite struct {
	db *sql.DB

	mu      sync.Mutex
	tx      *sql.Tx
	stmts   map[string]*sql.Stmt
	pending int
}

// NewSQLite opens the database and creates the stream tables if they do
// not exist.
func NewSQLite(dir, prefix string) (*SQLite, error) {
	path := filepath.Join(dir, prefix+".sqlite")
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("ibcgrass: opening database: %v", err)
	}
	db.SetMaxOpenConns(1)
	for _, r := range streamRows {
		if _, err := db.Exec(createTable(r)); err != nil {
			db.Close()
			return nil, fmt.Errorf("ibcgrass: creating %s table: %v", r.Stream(), err)
		}
	}
	return &SQLite{db: db, stmts: make(map[string]*sql.Stmt)}, nil
}

func quote(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

func createTable(r ibcgrass.Row) string {
	cols := make([]string, len(r.Columns()))
	for i, c := range r.Columns() {
		cols[i] = quote(c)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(r.Stream()), strings.Join(cols, ", "))
}

func insert(r ibcgrass.Row) string {
	cols := make([]string, len(r.Columns()))
	marks := make([]string, len(r.Columns()))
	for i, c := range r.Columns() {
		cols[i] = quote(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(r.Stream()), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// Record implements ibcgrass.Recorder.
func (s *SQLite) Record(r ibcgrass.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("ibcgrass: database: %v", err)
		}
		s.tx = tx
	}
	stmt, ok := s.stmts[r.Stream()]
	if !ok {
		var err error
		if stmt, err = s.tx.Prepare(insert(r)); err != nil {
			return fmt.Errorf("ibcgrass: preparing %s insert: %v", r.Stream(), err)
		}
		s.stmts[r.Stream()] = stmt
	}
	if _, err := stmt.Exec(r.Values()...); err != nil {
		return fmt.Errorf("ibcgrass: inserting %s row: %v", r.Stream(), err)
	}
	s.pending++
	if s.pending >= sqliteBatch {
		return s.commit()
	}
	return nil
}

// commit ends the current transaction. Prepared statements belong to
// the transaction and are dropped with it.
func (s *SQLite) commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	s.stmts = make(map[string]*sql.Stmt)
	s.pending = 0
	if err != nil {
		return fmt.Errorf("ibcgrass: database commit: %v", err)
	}
	return nil
}

// Close commits the pending rows and closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.commit()
	if cerr := s.db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("ibcgrass: closing database: %v", cerr)
	}
	return err
}
