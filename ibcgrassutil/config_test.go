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
	"errors"
	"strings"
	"testing"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/ibcgrass"
)

func configField(t *testing.T, err error) string {
	var cerr *ibcgrass.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("have error %v, want a configuration error", err)
	}
	return cerr.Field
}

func TestParseSimFile(t *testing.T) {
	r := strings.NewReader("NRep 3\n" + simHeader + simLine(1, 0, "a.txt") + "\n" + simLine(2, 2, "b.txt"))
	sf, err := ParseSimFile(r)
	if err != nil {
		t.Fatal(err)
	}
	if sf.NRep != 3 {
		t.Errorf("NRep %d, want 3", sf.NRep)
	}
	if len(sf.Scenarios) != 2 {
		t.Fatalf("have %d scenarios, want 2", len(sf.Scenarios))
	}
	s := sf.Scenarios[1]
	if s.Line != 2 || s.SimID != 2 || s.Mode != 2 || s.NamePftFile != "b.txt" ||
		s.BelGrazHistorySize != 60 || s.PFTOut != 2 || s.CatastrophicDistWeek != 20 {
		t.Errorf("scenario %+v", s)
	}
}

func TestParseSimFileBadLine(t *testing.T) {
	_, err := ParseSimFile(strings.NewReader("NRep 1\n" + simHeader + "1 2 3\n"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("have error %v", err)
	}
	if _, err := ParseSimFile(strings.NewReader("")); err == nil {
		t.Error("empty file accepted")
	}
	if _, err := ParseSimFile(strings.NewReader("NRep x\n")); configField(t, err) != "NRep" {
		t.Errorf("field of error %v", err)
	}
}

func TestParseSimLine(t *testing.T) {
	_, err := ParseSimLine("1 2 3")
	if f := configField(t, err); f != "sim file" {
		t.Errorf("field %q", f)
	}
	_, err = ParseSimLine(strings.Replace(simLine(1, 0, "a.txt"), "1", "x", 1))
	if f := configField(t, err); f != "SimID" {
		t.Errorf("field %q", f)
	}
}

func TestScenarioParameters(t *testing.T) {
	s, err := ParseSimLine(simLine(4, 0, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	base := testBase()

	for _, test := range []struct {
		mode      int
		mortality float64
		want      ibcgrass.ExperimentMode
	}{
		{mode: 0, want: ibcgrass.CommunityAssembly},
		{mode: 1, want: ibcgrass.InvasionCriterion},
		{mode: 2, want: ibcgrass.CommunityAssembly},
		{mode: 2, mortality: 0.5, want: ibcgrass.CatastrophicDisturbance},
	} {
		s.Mode, s.CatastrophicPlantMortality = test.mode, test.mortality
		p, err := s.Parameters(base)
		if err != nil {
			t.Fatal(err)
		}
		if p.Mode != test.want {
			t.Errorf("mode %d mortality %g: have %v, want %v", test.mode, test.mortality, p.Mode, test.want)
		}
	}

	s.Mode = 1
	p, err := s.Parameters(base)
	if err != nil {
		t.Fatal(err)
	}
	if p.LastYear() != 12 {
		t.Errorf("last year %d, want 12", p.LastYear())
	}
	if p.SimID != 4 || p.GridSize != 10 || p.NamePftFile != "a.txt" || p.Output.PFT != 2 ||
		!p.Output.Srv || !p.Output.Trait || !p.Output.Aggregated || p.Output.Ind || p.Output.Weekly {
		t.Errorf("parameters %+v", p)
	}
	if base.Mode != ibcgrass.CommunityAssembly || base.SimID != 0 {
		t.Error("base parameters modified")
	}

	s.ICVersion = 3
	if _, err := s.Parameters(base); configField(t, err) != "IC_version" {
		t.Errorf("field of error %v", err)
	}
	s.ICVersion, s.Mode = 2, 5
	if _, err := s.Parameters(base); configField(t, err) != "mode" {
		t.Errorf("field of error %v", err)
	}
	s.Mode, s.Tmax = 0, 0
	if _, err := s.Parameters(base); configField(t, err) != "Tmax" {
		t.Errorf("field of error %v", err)
	}
}

func TestReadSimFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sims.txt", "NRep 2\n"+simHeader+simLine(1, 0, "a.txt"))
	sf, err := ReadSimFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if sf.NRep != 2 || len(sf.Scenarios) != 1 {
		t.Errorf("simulation file %+v", sf)
	}

	path = writeFile(t, dir, "zero.txt", "NRep 0\n"+simHeader+simLine(1, 0, "a.txt"))
	if _, err := ReadSimFile(path); configField(t, err) != "NRep" {
		t.Errorf("field of error %v", err)
	}
	if _, err := ReadSimFile(dir + "/missing.txt"); err == nil {
		t.Error("missing file accepted")
	}
}

func TestReadSimFileTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sims.toml", `NRep = 4

[[Scenario]]
SimID = 7
ComNr = 2
IC_version = 1
mode = 0
Tmax = 50
meanARes = 90.0
meanBRes = 80.0
BelGrazHistorySize = 60
PFT_out = 1
ind_out = 1
NamePftFile = "a.txt"

[[Scenario]]
SimID = 8
Tmax = 10
BelGrazHistorySize = 60
NamePftFile = "b.txt"
`)
	sf, err := ReadSimFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if sf.NRep != 4 || len(sf.Scenarios) != 2 {
		t.Fatalf("simulation file %+v", sf)
	}
	s := sf.Scenarios[0]
	if s.Line != 1 || s.SimID != 7 || s.ICVersion != 1 || s.MeanBRes != 80 || s.IndOut != 1 || s.NamePftFile != "a.txt" {
		t.Errorf("scenario %+v", s)
	}
	p, err := s.Parameters(testBase())
	if err != nil {
		t.Fatal(err)
	}
	if p.Stabilization != ibcgrass.Version2 || !p.Output.Ind || p.Output.PFT != 1 || p.Tmax != 50 {
		t.Errorf("parameters %+v", p)
	}
	if sf.Scenarios[1].Line != 2 {
		t.Errorf("line %d, want 2", sf.Scenarios[1].Line)
	}
}

func TestBaseParameters(t *testing.T) {
	cfg := viper.New()
	cfg.Set("GridSize", 50)
	cfg.Set("TmaxMonoculture", 5)
	cfg.Set("CompetitionMode.Above", "asympart")
	cfg.Set("CompetitionMode.Below", "sym")
	cfg.Set("CutHeight", 10.0)
	cfg.Set("NCut", 2)
	cfg.Set("Aampl", 0.3)
	cfg.Set("CatastrophicDistYear", 40)
	p, err := BaseParameters(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.GridSize != 50 || p.TmaxMonoculture != 5 || p.CutHeight != 10 || p.NCut != 2 ||
		p.Aampl != 0.3 || p.Bampl != 0 || p.CatastrophicDistYear != 40 ||
		p.AboveCompMode != ibcgrass.AsymmetricPartial || p.BelowCompMode != ibcgrass.Symmetric {
		t.Errorf("parameters %+v", p)
	}
	if p.MeanARes != 100 || p.BelGrazAlpha != 2 {
		t.Error("defaults not kept")
	}

	cfg.Set("CompetitionMode.Below", "fair")
	if _, err := BaseParameters(cfg); configField(t, err) != "CompetitionMode" {
		t.Errorf("field of error %v", err)
	}
}

func TestResolveTraitFile(t *testing.T) {
	if have := resolveTraitFile("data/in", "A.txt"); have != "data/in/A.txt" {
		t.Errorf("have %s", have)
	}
	if have := resolveTraitFile("data/in", "/tmp/A.txt"); have != "/tmp/A.txt" {
		t.Errorf("have %s", have)
	}
}
