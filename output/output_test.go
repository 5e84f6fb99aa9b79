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
	"bufio"
	"database/sql"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/spatialmodel/ibcgrass"
	"github.com/tealeg/xlsx"
)

var srvRow = ibcgrass.SrvRow{
	SimID:          "1_0_0",
	PFT:            "A",
	ExtinctionYear: 3,
	Shootmass:      1.5,
}

func readLines(t *testing.T, path string) []string {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	return lines
}

func TestCSV(t *testing.T) {
	dir := t.TempDir()
	c := NewCSV(dir, "test")
	if err := c.Record(srvRow); err != nil {
		t.Fatal(err)
	}
	if err := c.Record(ibcgrass.AggregatedRow{SimID: "1_0_0", Year: 2, Week: 20}); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"SimID, PFT, Extinction_Year, Final_Pop, Final_Shootmass, Final_Rootmass",
		"1_0_0, A, 3, 0, 1.5, 0",
	}
	if have := readLines(t, filepath.Join(dir, "test_srv.csv")); !reflect.DeepEqual(have, want) {
		t.Errorf("have %q, want %q", have, want)
	}
	agg := readLines(t, c.Path(ibcgrass.StreamAggregated))
	if len(agg) != 2 || strings.Split(agg[1], csvSeparator)[7] != ibcgrass.NA {
		t.Errorf("aggregated output %q", agg)
	}

	// A second recorder appends without repeating the header.
	c = NewCSV(dir, "test")
	if err := c.Record(srvRow); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	want = append(want, want[1])
	if have := readLines(t, c.Path(ibcgrass.StreamSrv)); !reflect.DeepEqual(have, want) {
		t.Errorf("appended: have %q, want %q", have, want)
	}
}

func TestCSVConcurrent(t *testing.T) {
	dir := t.TempDir()
	c := NewCSV(dir, "conc")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r := ibcgrass.PFTRow{SimID: "1_0_0", PFT: "A", Year: i, Week: j}
				if err := c.Record(r); err != nil {
					t.Error(err)
				}
			}
		}(i)
	}
	wg.Wait()
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	lines := readLines(t, c.Path(ibcgrass.StreamPFT))
	if len(lines) != 801 {
		t.Fatalf("have %d lines, want 801", len(lines))
	}
	for _, l := range lines[1:] {
		if n := len(strings.Split(l, csvSeparator)); n != 8 {
			t.Errorf("line %q has %d values", l, n)
		}
	}
}

func TestSQLite(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLite(dir, "test")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Record(srvRow); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Record(ibcgrass.ParamRow{SimID: "1_0_0", Invader: ibcgrass.NA}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "test.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "srv"`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("have %d srv rows, want 3", n)
	}
	var pft string
	var year int
	var shoot float64
	err = db.QueryRow(`SELECT "PFT", "Extinction_Year", "Final_Shootmass" FROM "srv" LIMIT 1`).Scan(&pft, &year, &shoot)
	if err != nil {
		t.Fatal(err)
	}
	if pft != "A" || year != 3 || shoot != 1.5 {
		t.Errorf("have %s %d %g", pft, year, shoot)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM "ind"`).Scan(&n); err != nil || n != 0 {
		t.Errorf("ind table: %d rows, %v", n, err)
	}
}

func TestXLSX(t *testing.T) {
	dir := t.TempDir()
	x := NewXLSX(dir, "test")
	for _, r := range []ibcgrass.Row{srvRow, ibcgrass.PFTRow{SimID: "1_0_0"}, srvRow} {
		if err := x.Record(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := x.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := xlsx.OpenFile(x.Path())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Sheet[ibcgrass.StreamPFT]; ok {
		t.Error("PFT stream in the summary workbook")
	}
	sheet, ok := f.Sheet[ibcgrass.StreamSrv]
	if !ok {
		t.Fatal("no srv sheet")
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("have %d rows, want 3", len(sheet.Rows))
	}
	if v := sheet.Rows[0].Cells[2].Value; v != "Extinction_Year" {
		t.Errorf("header cell %q", v)
	}
	if v := sheet.Rows[1].Cells[1].Value; v != "A" {
		t.Errorf("PFT cell %q", v)
	}
}

func TestXLSXEmpty(t *testing.T) {
	dir := t.TempDir()
	x := NewXLSX(dir, "empty")
	if err := x.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(x.Path()); !os.IsNotExist(err) {
		t.Errorf("workbook written without rows: %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	r, err := Open([]string{"csv", "xlsx"}, dir, "multi")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(Multi); !ok {
		t.Errorf("have %T, want Multi", r)
	}
	if err := r.Record(srvRow); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"multi_srv.csv", "multi_summary.xlsx"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Error(err)
		}
	}

	if r, err := Open([]string{"csv"}, dir, "single"); err != nil {
		t.Error(err)
	} else if _, ok := r.(*CSV); !ok {
		t.Errorf("have %T, want *CSV", r)
	}
	if _, err := Open([]string{"csv", "parquet"}, dir, "bad"); err == nil {
		t.Error("unknown format accepted")
	}
}
