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

package ibcgrassutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/ibcgrass"
)

// testSimFile writes two trait files and returns a simulation file
// with a community assembly and an invasion line.
func testSimFile(t *testing.T) (*SimFile, string) {
	dir := t.TempDir()
	writeFile(t, dir, "AB.txt", traitHeader+traitA+traitB)
	writeFile(t, dir, "A.txt", traitHeader+traitA)
	sf, err := ParseSimFile(strings.NewReader("NRep 2\n" + simHeader + simLine(1, 0, "AB.txt") + simLine(2, 1, "AB.txt")))
	if err != nil {
		t.Fatal(err)
	}
	return sf, dir
}

func TestExpand(t *testing.T) {
	sf, dir := testSimFile(t)
	runs, err := Expand(sf, testBase(), dir, -1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 4 {
		t.Fatalf("have %d runs, want 4", len(runs))
	}
	for i, r := range runs {
		if r.Seed != uint64(100+i) {
			t.Errorf("run %d: seed %d", i, r.Seed)
		}
		if r.Params.RunNr != i%2 || r.Params.SimID != i/2+1 {
			t.Errorf("run %d: %s", i, r.Params.SimIDString())
		}
		if r.TraitFile != filepath.Join(dir, "AB.txt") {
			t.Errorf("run %d: trait file %s", i, r.TraitFile)
		}
	}
	if runs[2].Params.Mode != ibcgrass.InvasionCriterion {
		t.Errorf("mode %v", runs[2].Params.Mode)
	}

	runs, err = Expand(sf, testBase(), dir, 2, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Seed != 102 || runs[1].Seed != 103 || runs[0].Params.SimID != 2 {
		t.Errorf("line 2 runs %+v %+v", runs[0], runs[1])
	}

	if _, err := Expand(sf, testBase(), dir, 3, 100); configField(t, err) != "line" {
		t.Errorf("field of error %v", err)
	}

	runs, err = Expand(sf, testBase(), dir, 1, -1)
	if err != nil {
		t.Fatal(err)
	}
	if runs[1].Seed != runs[0].Seed+1 {
		t.Errorf("seeds %d and %d are not consecutive", runs[0].Seed, runs[1].Seed)
	}
}

func TestExpandErrors(t *testing.T) {
	sf, dir := testSimFile(t)
	sf.Scenarios[1].NamePftFile = "A.txt"
	_, err := Expand(sf, testBase(), dir, -1, 1)
	if err == nil || !strings.Contains(err.Error(), "exactly 2 PFTs") || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("have error %v", err)
	}

	sf.Scenarios[1].NamePftFile = "missing.txt"
	if _, err := Expand(sf, testBase(), dir, -1, 1); err == nil {
		t.Error("missing trait file accepted")
	}
	if _, err := Expand(sf, testBase(), dir, 1, 1); err != nil {
		t.Errorf("line 1 only: %v", err)
	}
}

func TestExecute(t *testing.T) {
	sf, dir := testSimFile(t)
	runs, err := Expand(sf, testBase(), dir, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	rec := new(memRecorder)
	res := runs[0].Execute(rec, testLogger())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.SimID != "1_1_0" || res.Seed != 5 || res.Fingerprint == "" {
		t.Errorf("result %+v", res)
	}
	if res.Year < 1 || res.Year > 2 || (res.Year < 2 && !res.Extinct) {
		t.Errorf("run ended in year %d, extinct: %v", res.Year, res.Extinct)
	}
	if n := rec.count(ibcgrass.StreamParam); n != 1 {
		t.Errorf("have %d param rows", n)
	}
	if n := rec.count(ibcgrass.StreamTrait); n != 2 {
		t.Errorf("have %d trait rows", n)
	}

	again := runs[0].Execute(new(memRecorder), testLogger())
	if again.Fingerprint != res.Fingerprint || again.Year != res.Year {
		t.Errorf("repeated run differs: %+v != %+v", again, res)
	}
	if other := runs[1].Execute(new(memRecorder), testLogger()); other.Fingerprint == res.Fingerprint {
		t.Error("different replicates share a fingerprint")
	}
}

// panicRecorder fails inside the simulation.
type panicRecorder struct{}

func (panicRecorder) Record(ibcgrass.Row) error { panic("disk on fire") }

func TestExecutePanic(t *testing.T) {
	sf, dir := testSimFile(t)
	runs, err := Expand(sf, testBase(), dir, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	res := runs[0].Execute(panicRecorder{}, testLogger())
	if res.Err == nil || !strings.Contains(res.Err.Error(), "disk on fire") {
		t.Errorf("have error %v", res.Err)
	}
}

func TestRunReplicates(t *testing.T) {
	sf, dir := testSimFile(t)
	runs, err := Expand(sf, testBase(), dir, -1, 11)
	if err != nil {
		t.Fatal(err)
	}
	rec := new(memRecorder)
	done := make(map[string]bool)
	err = RunReplicates(runs, 3, rec, testLogger(), func(r RunResult) {
		if r.Err != nil {
			t.Error(r.Err)
		}
		done[r.SimID] = true
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != len(runs) {
		t.Errorf("%d runs reported done, want %d", len(done), len(runs))
	}
	if n := rec.count(ibcgrass.StreamParam); n != len(runs) {
		t.Errorf("have %d param rows for %d runs", n, len(runs))
	}

	broken := &Run{Params: runs[0].Params, TraitFile: filepath.Join(dir, "missing.txt"), Seed: 1}
	var failed int
	err = RunReplicates([]*Run{runs[0], broken}, 0, new(memRecorder), testLogger(), func(r RunResult) {
		if r.Err != nil {
			failed++
		}
	})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 runs failed") {
		t.Errorf("have error %v", err)
	}
	if failed != 1 {
		t.Errorf("%d failed runs reported", failed)
	}
}
