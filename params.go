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

package ibcgrass

import (
	"fmt"
	"math"
)

// CompMode specifies the size symmetry of competition in one layer.
type CompMode int

// Competition modes.
const (
	Symmetric CompMode = iota
	AsymmetricPartial
	AsymmetricTotal
)

func (m CompMode) String() string {
	switch m {
	case Symmetric:
		return "sym"
	case AsymmetricPartial:
		return "asympart"
	case AsymmetricTotal:
		return "asymtot"
	default:
		return fmt.Sprintf("CompMode(%d)", int(m))
	}
}

// ParseCompMode converts a competition mode name into a CompMode.
func ParseCompMode(s string) (CompMode, error) {
	switch s {
	case "sym", "symmetric":
		return Symmetric, nil
	case "asympart", "partial":
		return AsymmetricPartial, nil
	case "asymtot", "total":
		return AsymmetricTotal, nil
	}
	return 0, configErrorf("CompetitionMode", "unknown competition mode %q", s)
}

// Stabilization selects how intraspecific competition differs from
// interspecific competition.
type Stabilization int

// Stabilization versions. Version1 treats intra- and interspecific
// competition identically, Version2 strengthens intraspecific
// competition, and Version3 reduces resource availability with
// increasing local PFT diversity.
const (
	Version1 Stabilization = iota
	Version2
	Version3
)

func (s Stabilization) String() string {
	switch s {
	case Version1, Version2, Version3:
		return fmt.Sprintf("V%d", int(s)+1)
	default:
		return fmt.Sprintf("Stabilization(%d)", int(s))
	}
}

// ExperimentMode is the type of simulation experiment.
type ExperimentMode int

// Experiment modes.
const (
	CommunityAssembly ExperimentMode = iota
	InvasionCriterion
	CatastrophicDisturbance
)

func (m ExperimentMode) String() string {
	switch m {
	case CommunityAssembly:
		return "communityAssembly"
	case InvasionCriterion:
		return "invasionCriterion"
	case CatastrophicDisturbance:
		return "catastrophicDisturbance"
	default:
		return fmt.Sprintf("ExperimentMode(%d)", int(m))
	}
}

// OutputFlags select which result streams are recorded.
type OutputFlags struct {
	Weekly     bool // record every week instead of once a year
	Ind        bool // individual plants
	PFT        int  // 0: none; 1: only living PFTs and their extinction year; 2: all PFTs
	Srv        bool // PFT survival
	Trait      bool // trait templates
	Aggregated bool // community-level summaries
}

// Parameters holds all the parameters that control the behavior of one
// simulation run.
type Parameters struct {
	SimID, ComNr, RunNr int

	// NamePftFile is the PFT trait file of this scenario.
	NamePftFile string

	Output OutputFlags

	AboveCompMode CompMode
	BelowCompMode CompMode
	Stabilization Stabilization
	Mode          ExperimentMode

	// TmaxMonoculture is the length in years of the monoculture phase of
	// an invasion experiment.
	TmaxMonoculture int

	// ITVsd is the standard deviation of intraspecific trait variation.
	// Variation is switched off when it is zero.
	ITVsd float64

	GridSize int // side length of the grid [cells]
	Tmax     int // simulated years

	SeedMortality       float64 // yearly seed mortality in winter
	WinterDieback       float64 // portion of aboveground biomass removed in winter
	BackgroundMortality float64 // weekly basic mortality
	LitterDecomp        float64 // weekly litter decomposition factor
	MeanARes            float64 // mean above-ground resource availability
	MeanBRes            float64 // mean below-ground resource availability
	RametEstab          float64 // probability of ramet establishment

	AbvGrazProb    float64 // weekly above-ground grazing probability
	AbvPropRemoved float64 // proportion of above-ground mass removed per grazing event
	BiteSize       float64 // bite size of a macro-herbivore
	MassUngrazable float64 // ungrazable biomass [mg/m²]

	BelGrazProb        float64
	BelGrazPerc        float64
	BelGrazAlpha       float64
	BelGrazHistorySize int

	CutHeight float64 // height plants are cut to [cm]
	NCut      int     // number of cuts per year

	CatastrophicDistYear       int
	CatastrophicDistWeek       int
	CatastrophicPlantMortality float64

	Aampl float64 // within-year above-ground resource amplitude
	Bampl float64 // within-year below-ground resource amplitude

	SeedInput    int // seeds introduced per PFT per seed rain event
	SeedRainType int // 0: no seed rain; 1: SeedInput seeds per PFT
}

// DefaultParameters returns the standard parameterization.
func DefaultParameters() *Parameters {
	return &Parameters{
		Output: OutputFlags{
			PFT:        2,
			Srv:        true,
			Trait:      true,
			Aggregated: true,
		},
		AboveCompMode:        AsymmetricPartial,
		BelowCompMode:        Symmetric,
		Stabilization:        Version1,
		Mode:                 CommunityAssembly,
		TmaxMonoculture:      10,
		GridSize:             173,
		Tmax:                 100,
		SeedMortality:        0.5,
		WinterDieback:        0.5,
		BackgroundMortality:  0.007,
		LitterDecomp:         0.5,
		MeanARes:             100,
		MeanBRes:             100,
		RametEstab:           1,
		BiteSize:             0.5,
		MassUngrazable:       15300,
		BelGrazAlpha:         2,
		BelGrazHistorySize:   60,
		CatastrophicDistYear: 100,
		CatastrophicDistWeek: 20,
	}
}

// ITV reports whether intraspecific trait variation is switched on.
func (p *Parameters) ITV() bool { return p.ITVsd > 0 }

// BelGrazResidualPerc is the fraction of living root mass that below-ground
// grazing always leaves behind.
func (p *Parameters) BelGrazResidualPerc() float64 {
	if p.BelGrazPerc > 0 {
		return math.Exp(-p.BelGrazPerc / 0.0651)
	}
	return 0
}

// LastYear is the final simulated year. Invasion experiments add the
// monoculture phase to Tmax.
func (p *Parameters) LastYear() int {
	if p.Mode == InvasionCriterion {
		return p.Tmax + p.TmaxMonoculture
	}
	return p.Tmax
}

// SimIDString identifies a single run as SimID_ComNr_RunNr.
func (p *Parameters) SimIDString() string {
	return fmt.Sprintf("%d_%d_%d", p.SimID, p.ComNr, p.RunNr)
}

// Validate checks the parameters for unsupported combinations.
func (p *Parameters) Validate() error {
	if p.GridSize < 1 {
		return configErrorf("GridSize", "must be at least 1, got %d", p.GridSize)
	}
	if p.Tmax < 1 {
		return configErrorf("Tmax", "must be at least 1, got %d", p.Tmax)
	}
	if p.AboveCompMode != AsymmetricPartial || p.BelowCompMode != Symmetric {
		return configErrorf("CompetitionMode",
			"above=%v below=%v is not supported; use above=asympart below=sym",
			p.AboveCompMode, p.BelowCompMode)
	}
	switch p.Stabilization {
	case Version1, Version2, Version3:
	default:
		return configErrorf("IC_version", "unknown stabilization version %d", int(p.Stabilization))
	}
	switch p.Mode {
	case CommunityAssembly, InvasionCriterion, CatastrophicDisturbance:
	default:
		return configErrorf("mode", "unknown experiment mode %d", int(p.Mode))
	}
	if p.NCut < 0 || p.NCut > 3 {
		return configErrorf("NCut", "must be between 0 and 3, got %d", p.NCut)
	}
	if p.SeedRainType < 0 || p.SeedRainType > 1 {
		return configErrorf("SeedRainType", "unknown seed rain type %d", p.SeedRainType)
	}
	if p.BelGrazHistorySize < 1 {
		return configErrorf("BelGrazHistorySize", "must be at least 1, got %d", p.BelGrazHistorySize)
	}
	if p.Output.PFT < 0 || p.Output.PFT > 2 {
		return configErrorf("PFT_out", "must be 0, 1 or 2, got %d", p.Output.PFT)
	}
	return nil
}
