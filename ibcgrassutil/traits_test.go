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
	"strings"
	"testing"

	"github.com/spatialmodel/ibcgrass"
)

func TestReadTraitsTable(t *testing.T) {
	tt, err := ReadTraitsTable(strings.NewReader(traitHeader+traitA+"\n"+traitB), ibcgrass.NewRand(1))
	if err != nil {
		t.Fatal(err)
	}
	if names := tt.Names(); len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Fatalf("PFTs %v", names)
	}
	a, _ := tt.Get("A")
	if a.Clonal || a.Memory != 4 || a.MaxMass != 2000 || a.MycStat != ibcgrass.NonMycorrhizal ||
		a.MycZOI != 1 || a.MycComp != 1 || a.MycC != 0 {
		t.Errorf("A: %+v", a)
	}
	b, _ := tt.Get("B")
	if !b.Clonal || !b.ResourceShare || b.MSpacer != 70 || b.MeanSpacerLength != 3 ||
		b.MycZOI != 1.5 || b.MycComp != 0.25 || b.MycC != 0.2 {
		t.Errorf("B: %+v", b)
	}
	if b.FlowerWeek != 16 || b.DispersalWeek != 20 || b.Dormancy != 1 {
		t.Errorf("B phenology %d %d %d", b.FlowerWeek, b.DispersalWeek, b.Dormancy)
	}
}

func TestReadTraitsTableErrors(t *testing.T) {
	rng := ibcgrass.NewRand(1)
	for _, test := range []struct {
		name, contents, field string
	}{
		{name: "short line", contents: traitHeader + "A 0.05 0.5\n", field: "trait file"},
		{name: "duplicate", contents: traitHeader + traitA + traitA, field: "trait file"},
		{name: "invalid", contents: traitHeader + strings.Replace(traitA, " 0.5 10 ", " 1.5 10 ", 1), field: "trait file"},
		{name: "not a number", contents: traitHeader + strings.Replace(traitA, " 2000 ", " big ", 1), field: "maxMass"},
		{name: "empty", contents: traitHeader, field: "trait file"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := ReadTraitsTable(strings.NewReader(test.contents), rng)
			if f := configField(t, err); f != test.field {
				t.Errorf("field %q, want %q", f, test.field)
			}
		})
	}
}

const traitYAML = `
- PFT_ID: A
  LMR: 0.5
  m0: 10
  maxMass: 2000
  seedMass: 0.3
  dispersalDist: 0.2
  Gmax: 20
  SLA: 1
  palat: 0.5
  memory: 4
  mycStat: FM
  mycC: 15
- PFT_ID: B
  LMR: 0.6
  m0: 12
  maxMass: 2400
  seedMass: 0.36
  dispersalDist: 0.16
  Gmax: 21
  SLA: 0.9
  palat: 0.45
  memory: 3
  clonal: true
  mSpacer: 70
  mycStat: NM
`

func TestReadTraitsYAML(t *testing.T) {
	tt, err := ReadTraitsYAML(strings.NewReader(traitYAML), ibcgrass.NewRand(1))
	if err != nil {
		t.Fatal(err)
	}
	if tt.Len() != 2 {
		t.Fatalf("have %d PFTs", tt.Len())
	}
	a, _ := tt.Get("A")
	if a.AllocSeed != 0.05 || a.PEstab != 0.5 || a.MycC != 0.15 {
		t.Errorf("A: %+v", a)
	}
	if a.MycZOI < 1 || a.MycZOI >= 2 || a.MycComp < 1 || a.MycComp >= 2 {
		t.Errorf("facultative mycorrhiza ZOI %g COMP %g", a.MycZOI, a.MycComp)
	}
	b, _ := tt.Get("B")
	if !b.Clonal || b.MSpacer != 70 || b.Memory != 3 || b.MycZOI != 1 {
		t.Errorf("B: %+v", b)
	}
}

func TestReadTraitsYAMLErrors(t *testing.T) {
	rng := ibcgrass.NewRand(1)
	if _, err := ReadTraitsYAML(strings.NewReader(""), rng); configField(t, err) != "trait file" {
		t.Errorf("field of error %v", err)
	}
	_, err := ReadTraitsYAML(strings.NewReader(strings.Replace(traitYAML, "mycC:", "mycCost:", 1)), rng)
	if f := configField(t, err); f != "mycCost" {
		t.Errorf("field %q", f)
	}
	_, err = ReadTraitsYAML(strings.NewReader("PFT_ID: A\n"), rng)
	if f := configField(t, err); f != "trait file" {
		t.Errorf("field %q", f)
	}
}

func TestReadTraits(t *testing.T) {
	dir := t.TempDir()
	table := writeFile(t, dir, "PFTs.txt", traitHeader+traitA)
	yml := writeFile(t, dir, "PFTs.yaml", traitYAML)
	for path, n := range map[string]int{table: 1, yml: 2} {
		tt, err := ReadTraits(path, ibcgrass.NewRand(2))
		if err != nil {
			t.Fatal(err)
		}
		if tt.Len() != n {
			t.Errorf("%s: have %d PFTs, want %d", path, tt.Len(), n)
		}
	}
	bad := writeFile(t, dir, "bad.txt", traitHeader+"A\n")
	if _, err := ReadTraits(bad, ibcgrass.NewRand(2)); err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("have error %v", err)
	}
}
