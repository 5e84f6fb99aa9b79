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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/ibcgrass"
	"gopkg.in/yaml.v3"
)

// traitColumns are the required columns of a trait table.
var traitColumns = []string{
	"PFT_ID", "allocSeed", "LMR", "m0", "maxMass", "seedMass", "dispersalDist",
	"pEstab", "Gmax", "SLA", "palat", "memory", "RAR", "growth", "mThres",
	"clonal", "meanSpacerlength", "sdSpacerlength", "resourceShare",
	"allocSpacer", "mSpacer", "mycStat",
}

// mycColumns are the optional trailing columns of a trait table. mycC
// is given in percent.
var mycColumns = []string{"mycZOI", "mycCOMP", "mycC"}

// ReadTraits reads the PFT definitions in path. Files ending in .yaml
// or .yml hold a list of PFT maps; all other files are trait tables.
// Mycorrhizal values that are not given are drawn from rng.
func ReadTraits(path string, rng ibcgrass.RandomGenerator) (*ibcgrass.TraitTemplates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ibcgrass: opening trait file: %v", err)
	}
	defer f.Close()
	var tt *ibcgrass.TraitTemplates
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		tt, err = ReadTraitsYAML(f, rng)
	default:
		tt, err = ReadTraitsTable(f, rng)
	}
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, path)
	}
	return tt, nil
}

// ReadTraitsTable reads a header line followed by one
// whitespace-separated row per PFT.
func ReadTraitsTable(r io.Reader, rng ibcgrass.RandomGenerator) (*ibcgrass.TraitTemplates, error) {
	tt := ibcgrass.NewTraitTemplates()
	sc := bufio.NewScanner(r)
	sc.Scan() // header
	for line := 2; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < len(traitColumns) || len(fields) > len(traitColumns)+len(mycColumns) {
			return nil, &ibcgrass.ConfigError{
				Field: "trait file",
				Msg:   fmt.Sprintf("line %d has %d columns, want %d to %d",
					line, len(fields), len(traitColumns), len(traitColumns)+len(mycColumns)),
			}
		}
		rec := make(map[string]interface{}, len(fields))
		for i, f := range fields {
			if i < len(traitColumns) {
				rec[traitColumns[i]] = f
			} else {
				rec[mycColumns[i-len(traitColumns)]] = f
			}
		}
		if err := addTraits(tt, rec, rng); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ibcgrass: reading trait file: %v", err)
	}
	return checkTemplates(tt)
}

// ReadTraitsYAML reads a YAML list of PFT definitions keyed by the trait
// table column names. Keys that are left out take their default values.
func ReadTraitsYAML(r io.Reader, rng ibcgrass.RandomGenerator) (*ibcgrass.TraitTemplates, error) {
	var recs []map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&recs); err != nil && err != io.EOF {
		return nil, &ibcgrass.ConfigError{Field: "trait file", Msg: err.Error()}
	}
	tt := ibcgrass.NewTraitTemplates()
	for _, rec := range recs {
		if err := addTraits(tt, rec, rng); err != nil {
			return nil, err
		}
	}
	return checkTemplates(tt)
}

func checkTemplates(tt *ibcgrass.TraitTemplates) (*ibcgrass.TraitTemplates, error) {
	if tt.Len() == 0 {
		return nil, &ibcgrass.ConfigError{Field: "trait file", Msg: "no PFTs defined"}
	}
	return tt, nil
}

func addTraits(tt *ibcgrass.TraitTemplates, rec map[string]interface{}, rng ibcgrass.RandomGenerator) error {
	t, err := traitsFromRecord(rec, rng)
	if err != nil {
		return err
	}
	if err := tt.Add(t); err != nil {
		return &ibcgrass.ConfigError{Field: "trait file", Msg: err.Error()}
	}
	return nil
}

var knownTraitKeys = func() map[string]bool {
	m := make(map[string]bool)
	for _, k := range append(append([]string(nil), traitColumns...), mycColumns...) {
		m[k] = true
	}
	return m
}()

// traitsFromRecord converts one PFT definition into a trait set.
func traitsFromRecord(rec map[string]interface{}, rng ibcgrass.RandomGenerator) (*ibcgrass.Traits, error) {
	for k := range rec {
		if !knownTraitKeys[k] {
			return nil, &ibcgrass.ConfigError{Field: k, Msg: "unknown trait"}
		}
	}
	c := columnReader{vals: rec}
	t := ibcgrass.DefaultTraits()
	t.PFT = c.getString("PFT_ID", t.PFT)
	t.AllocSeed = c.getFloat("allocSeed", t.AllocSeed)
	t.LMR = c.getFloat("LMR", t.LMR)
	t.M0 = c.getFloat("m0", t.M0)
	t.MaxMass = c.getFloat("maxMass", t.MaxMass)
	t.SeedMass = c.getFloat("seedMass", t.SeedMass)
	t.DispersalDist = c.getFloat("dispersalDist", t.DispersalDist)
	t.PEstab = c.getFloat("pEstab", t.PEstab)
	t.Gmax = c.getFloat("Gmax", t.Gmax)
	t.SLA = c.getFloat("SLA", t.SLA)
	t.Palat = c.getFloat("palat", t.Palat)
	t.Memory = c.getInt("memory", t.Memory)
	t.RAR = c.getFloat("RAR", t.RAR)
	t.Growth = c.getFloat("growth", t.Growth)
	t.MThres = c.getFloat("mThres", t.MThres)
	t.Clonal = c.getBool("clonal", t.Clonal)
	t.MeanSpacerLength = c.getFloat("meanSpacerlength", t.MeanSpacerLength)
	t.SdSpacerLength = c.getFloat("sdSpacerlength", t.SdSpacerLength)
	t.ResourceShare = c.getBool("resourceShare", t.ResourceShare)
	t.AllocSpacer = c.getFloat("allocSpacer", t.AllocSpacer)
	t.MSpacer = c.getFloat("mSpacer", t.MSpacer)
	t.MycStat = c.getString("mycStat", t.MycStat)
	t.MycZOI = c.getFloat("mycZOI", 0)
	t.MycComp = c.getFloat("mycCOMP", 0)
	t.MycC = c.getFloat("mycC", 0) / 100
	if c.err != nil {
		return nil, c.err
	}
	_, hasZOI := rec["mycZOI"]
	_, hasComp := rec["mycCOMP"]
	_, hasC := rec["mycC"]
	t.SetMycorrhizaDefaults(rng, hasZOI, hasComp, hasC)
	return t, nil
}
