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

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/ibcgrass"
	"github.com/spf13/cast"
)

// Scenario is one line of a simulation file.
type Scenario struct {
	SimID                      int     `toml:"SimID"`
	ComNr                      int     `toml:"ComNr"`
	ICVersion                  int     `toml:"IC_version"`
	Mode                       int     `toml:"mode"`
	ITVsd                      float64 `toml:"ITVsd"`
	Tmax                       int     `toml:"Tmax"`
	MeanARes                   float64 `toml:"meanARes"`
	MeanBRes                   float64 `toml:"meanBRes"`
	AbvGrazProb                float64 `toml:"AbvGrazProb"`
	AbvPropRemoved             float64 `toml:"AbvPropRemoved"`
	BelGrazProb                float64 `toml:"BelGrazProb"`
	BelGrazPerc                float64 `toml:"BelGrazPerc"`
	BelGrazAlpha               float64 `toml:"BelGrazAlpha"`
	BelGrazHistorySize         int     `toml:"BelGrazHistorySize"`
	CatastrophicPlantMortality float64 `toml:"CatastrophicPlantMortality"`
	CatastrophicDistWeek       int     `toml:"CatastrophicDistWeek"`
	SeedRainType               int     `toml:"SeedRainType"`
	SeedInput                  int     `toml:"SeedInput"`
	Weekly                     int     `toml:"weekly"`
	IndOut                     int     `toml:"ind_out"`
	PFTOut                     int     `toml:"PFT_out"`
	SrvOut                     int     `toml:"srv_out"`
	TraitOut                   int     `toml:"trait_out"`
	AggregatedOut              int     `toml:"aggregated_out"`
	NamePftFile                string  `toml:"NamePftFile"`

	// Line is the 1-based position of the scenario in its file.
	Line int `toml:"-"`
}

// simColumns are the columns of a simulation file line, in order.
var simColumns = []string{
	"SimID", "ComNr", "IC_version", "mode", "ITVsd", "Tmax",
	"meanARes", "meanBRes",
	"AbvGrazProb", "AbvPropRemoved",
	"BelGrazProb", "BelGrazPerc", "BelGrazAlpha", "BelGrazHistorySize",
	"CatastrophicPlantMortality", "CatastrophicDistWeek",
	"SeedRainType", "SeedInput",
	"weekly", "ind_out", "PFT_out", "srv_out", "trait_out", "aggregated_out",
	"NamePftFile",
}

// columnReader converts named text columns, keeping the first error.
type columnReader struct {
	vals map[string]interface{}
	err  error
}

func (c *columnReader) fail(name string, err error) {
	if c.err == nil {
		c.err = &ibcgrass.ConfigError{Field: name, Msg: err.Error()}
	}
}

func (c *columnReader) getInt(name string, def int) int {
	v, ok := c.vals[name]
	if !ok {
		return def
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		c.fail(name, err)
	}
	return i
}

func (c *columnReader) getFloat(name string, def float64) float64 {
	v, ok := c.vals[name]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		c.fail(name, err)
	}
	return f
}

func (c *columnReader) getBool(name string, def bool) bool {
	v, ok := c.vals[name]
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		c.fail(name, err)
	}
	return b
}

func (c *columnReader) getString(name, def string) string {
	v, ok := c.vals[name]
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		c.fail(name, err)
	}
	return s
}

// ParseSimLine parses one whitespace-separated simulation file line.
func ParseSimLine(line string) (*Scenario, error) {
	fields := strings.Fields(line)
	if len(fields) != len(simColumns) {
		return nil, &ibcgrass.ConfigError{
			Field: "sim file",
			Msg:   fmt.Sprintf("line has %d columns, want %d", len(fields), len(simColumns)),
		}
	}
	c := columnReader{vals: make(map[string]interface{}, len(fields))}
	for i, f := range fields {
		c.vals[simColumns[i]] = f
	}
	s := &Scenario{
		SimID:                      c.getInt("SimID", 0),
		ComNr:                      c.getInt("ComNr", 0),
		ICVersion:                  c.getInt("IC_version", 0),
		Mode:                       c.getInt("mode", 0),
		ITVsd:                      c.getFloat("ITVsd", 0),
		Tmax:                       c.getInt("Tmax", 0),
		MeanARes:                   c.getFloat("meanARes", 0),
		MeanBRes:                   c.getFloat("meanBRes", 0),
		AbvGrazProb:                c.getFloat("AbvGrazProb", 0),
		AbvPropRemoved:             c.getFloat("AbvPropRemoved", 0),
		BelGrazProb:                c.getFloat("BelGrazProb", 0),
		BelGrazPerc:                c.getFloat("BelGrazPerc", 0),
		BelGrazAlpha:               c.getFloat("BelGrazAlpha", 0),
		BelGrazHistorySize:         c.getInt("BelGrazHistorySize", 0),
		CatastrophicPlantMortality: c.getFloat("CatastrophicPlantMortality", 0),
		CatastrophicDistWeek:       c.getInt("CatastrophicDistWeek", 0),
		SeedRainType:               c.getInt("SeedRainType", 0),
		SeedInput:                  c.getInt("SeedInput", 0),
		Weekly:                     c.getInt("weekly", 0),
		IndOut:                     c.getInt("ind_out", 0),
		PFTOut:                     c.getInt("PFT_out", 0),
		SrvOut:                     c.getInt("srv_out", 0),
		TraitOut:                   c.getInt("trait_out", 0),
		AggregatedOut:              c.getInt("aggregated_out", 0),
		NamePftFile:                c.getString("NamePftFile", ""),
	}
	if c.err != nil {
		return nil, c.err
	}
	return s, nil
}

// Parameters returns the parameters of the scenario on top of base,
// which supplies the settings that simulation files do not contain.
// Mode 2 without catastrophic mortality is run as community assembly.
func (s *Scenario) Parameters(base *ibcgrass.Parameters) (*ibcgrass.Parameters, error) {
	p := *base
	p.SimID, p.ComNr = s.SimID, s.ComNr
	p.NamePftFile = s.NamePftFile

	if s.ICVersion < 0 || s.ICVersion > 2 {
		return nil, &ibcgrass.ConfigError{Field: "IC_version", Msg: fmt.Sprintf("unknown version %d", s.ICVersion)}
	}
	p.Stabilization = ibcgrass.Stabilization(s.ICVersion)

	switch s.Mode {
	case 0:
		p.Mode = ibcgrass.CommunityAssembly
	case 1:
		p.Mode = ibcgrass.InvasionCriterion
	case 2:
		if s.CatastrophicPlantMortality > 0 {
			p.Mode = ibcgrass.CatastrophicDisturbance
		} else {
			p.Mode = ibcgrass.CommunityAssembly
		}
	default:
		return nil, &ibcgrass.ConfigError{Field: "mode", Msg: fmt.Sprintf("invalid mode %d", s.Mode)}
	}

	p.ITVsd = s.ITVsd
	p.Tmax = s.Tmax
	p.MeanARes, p.MeanBRes = s.MeanARes, s.MeanBRes
	p.AbvGrazProb, p.AbvPropRemoved = s.AbvGrazProb, s.AbvPropRemoved
	p.BelGrazProb, p.BelGrazPerc = s.BelGrazProb, s.BelGrazPerc
	p.BelGrazAlpha, p.BelGrazHistorySize = s.BelGrazAlpha, s.BelGrazHistorySize
	p.CatastrophicPlantMortality = s.CatastrophicPlantMortality
	p.CatastrophicDistWeek = s.CatastrophicDistWeek
	p.SeedRainType, p.SeedInput = s.SeedRainType, s.SeedInput
	p.Output = ibcgrass.OutputFlags{
		Weekly:     s.Weekly != 0,
		Ind:        s.IndOut != 0,
		PFT:        s.PFTOut,
		Srv:        s.SrvOut != 0,
		Trait:      s.TraitOut != 0,
		Aggregated: s.AggregatedOut != 0,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// SimFile is a set of scenarios, each of which is run NRep times.
type SimFile struct {
	NRep      int         `toml:"NRep"`
	Scenarios []*Scenario `toml:"Scenario"`
}

// ReadSimFile reads a simulation file. Files ending in .toml are read
// as TOML; all others are read in the whitespace-separated format.
func ReadSimFile(path string) (*SimFile, error) {
	var sf *SimFile
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		sf = new(SimFile)
		if _, err := toml.DecodeFile(path, sf); err != nil {
			return nil, fmt.Errorf("ibcgrass: reading simulation file: %v", err)
		}
		for i, s := range sf.Scenarios {
			s.Line = i + 1
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("ibcgrass: opening simulation file: %v", err)
		}
		defer f.Close()
		if sf, err = ParseSimFile(f); err != nil {
			return nil, err
		}
	}
	if sf.NRep < 1 {
		return nil, &ibcgrass.ConfigError{Field: "NRep", Msg: fmt.Sprintf("must be at least 1, got %d", sf.NRep)}
	}
	return sf, nil
}

// ParseSimFile reads a simulation file in the whitespace-separated
// format: a line "NRep n", a header line, and one scenario per line.
// Blank lines are skipped.
func ParseSimFile(r io.Reader) (*SimFile, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("ibcgrass: reading simulation file: %v", err)
		}
		return nil, &ibcgrass.ConfigError{Field: "sim file", Msg: "file is empty"}
	}
	first := strings.Fields(sc.Text())
	if len(first) < 2 {
		return nil, &ibcgrass.ConfigError{Field: "NRep", Msg: fmt.Sprintf("malformed first line %q", sc.Text())}
	}
	nrep, err := cast.ToIntE(first[1])
	if err != nil {
		return nil, &ibcgrass.ConfigError{Field: "NRep", Msg: err.Error()}
	}
	sf := &SimFile{NRep: nrep}

	sc.Scan() // header
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		s, err := ParseSimLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("ibcgrass: simulation file line %d: %v", len(sf.Scenarios)+1, err)
		}
		s.Line = len(sf.Scenarios) + 1
		sf.Scenarios = append(sf.Scenarios, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ibcgrass: reading simulation file: %v", err)
	}
	return sf, nil
}

// BaseParameters returns the default parameters with the settings
// given in cfg applied.
func BaseParameters(cfg *viper.Viper) (*ibcgrass.Parameters, error) {
	p := ibcgrass.DefaultParameters()
	p.GridSize = cfg.GetInt("GridSize")
	p.TmaxMonoculture = cfg.GetInt("TmaxMonoculture")

	var err error
	if p.AboveCompMode, err = ibcgrass.ParseCompMode(cfg.GetString("CompetitionMode.Above")); err != nil {
		return nil, err
	}
	if p.BelowCompMode, err = ibcgrass.ParseCompMode(cfg.GetString("CompetitionMode.Below")); err != nil {
		return nil, err
	}
	p.CutHeight = cfg.GetFloat64("CutHeight")
	p.NCut = cfg.GetInt("NCut")
	p.Aampl = cfg.GetFloat64("Aampl")
	p.Bampl = cfg.GetFloat64("Bampl")
	p.CatastrophicDistYear = cfg.GetInt("CatastrophicDistYear")
	return p, nil
}

// checkOutputDir makes sure that the output directory exists.
func checkOutputDir(dir string) (string, error) {
	dir = os.ExpandEnv(dir)
	if _, err := os.Stat(dir); err != nil {
		return dir, fmt.Errorf("ibcgrass: the output directory doesn't exist: %v", err)
	}
	return dir, nil
}

// resolveTraitFile joins a trait file name from a simulation file with
// the data directory unless it is absolute.
func resolveTraitFile(dataDir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(os.ExpandEnv(dataDir), name)
}
