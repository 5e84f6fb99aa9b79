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
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spatialmodel/ibcgrass"
	"github.com/tealeg/xlsx"
)

// summaryStreams are the streams kept in the summary workbook.
var summaryStreams = map[string]bool{
	ibcgrass.StreamParam: true,
	ibcgrass.StreamTrait: true,
	ibcgrass.StreamSrv:   true,
}

// XLSX collects the param, trait and srv streams into one workbook with
// a sheet per stream, saved to <dir>/<prefix>_summary.xlsx on Close.
// Other streams are ignored.
type XLSX struct {
	path string

	mu     sync.Mutex
	file   *xlsx.File
	sheets map[string]*xlsx.Sheet
}

// NewXLSX returns an XLSX recorder.
func NewXLSX(dir, prefix string) *XLSX {
	return &XLSX{
		path:   filepath.Join(dir, prefix+"_summary.xlsx"),
		file:   xlsx.NewFile(),
		sheets: make(map[string]*xlsx.Sheet),
	}
}

// Path returns the workbook location.
func (x *XLSX) Path() string { return x.path }

// Record implements ibcgrass.Recorder.
func (x *XLSX) Record(r ibcgrass.Row) error {
	if !summaryStreams[r.Stream()] {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	sheet, ok := x.sheets[r.Stream()]
	if !ok {
		var err error
		if sheet, err = x.file.AddSheet(r.Stream()); err != nil {
			return fmt.Errorf("ibcgrass: adding %s sheet: %v", r.Stream(), err)
		}
		header := sheet.AddRow()
		for _, c := range r.Columns() {
			header.AddCell().SetString(c)
		}
		x.sheets[r.Stream()] = sheet
	}
	row := sheet.AddRow()
	for _, v := range r.Values() {
		cell := row.AddCell()
		switch val := v.(type) {
		case int:
			cell.SetInt(val)
		case float64:
			cell.SetFloat(val)
		default:
			cell.SetString(formatValue(val))
		}
	}
	return nil
}

// Close saves the workbook if any rows were recorded.
func (x *XLSX) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.sheets) == 0 {
		return nil
	}
	if err := x.file.Save(x.path); err != nil {
		return fmt.Errorf("ibcgrass: saving summary workbook: %v", err)
	}
	return nil
}
