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

// Package output holds the recorders that write the result streams of
// IBC-grass simulations.
package output

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spatialmodel/ibcgrass"
)

// Recorder is an ibcgrass.Recorder that must be closed after the last
// run to flush its results.
type Recorder interface {
	ibcgrass.Recorder
	io.Closer
}

// Open returns a recorder writing to dir in every one of the given
// formats. Supported formats are csv, sqlite and xlsx.
func Open(formats []string, dir, prefix string) (Recorder, error) {
	var m Multi
	for _, f := range formats {
		var r Recorder
		var err error
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "csv":
			r = NewCSV(dir, prefix)
		case "sqlite":
			r, err = NewSQLite(dir, prefix)
		case "xlsx":
			r = NewXLSX(dir, prefix)
		default:
			err = fmt.Errorf("ibcgrass: unknown output format %q; use csv, sqlite or xlsx", f)
		}
		if err != nil {
			m.Close()
			return nil, err
		}
		m = append(m, r)
	}
	if len(m) == 1 {
		return m[0], nil
	}
	return m, nil
}

// Multi sends every row to each of its recorders.
type Multi []Recorder

// Record implements ibcgrass.Recorder.
func (m Multi) Record(r ibcgrass.Row) error {
	for _, rec := range m {
		if err := rec.Record(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all recorders and returns the first error.
func (m Multi) Close() error {
	var first error
	for _, rec := range m {
		if err := rec.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// formatValue renders a row value as text.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ibcgrass.NA
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
