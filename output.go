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

// Names of the result streams.
const (
	StreamParam      = "param"
	StreamTrait      = "trait"
	StreamSrv        = "srv"
	StreamPFT        = "PFT"
	StreamInd        = "ind"
	StreamAggregated = "aggregated"
)

// NA marks a missing value in a result row.
const NA = "NA"

// Row is one record of a result stream. Values returns one value per
// column; every value is a string, an int or a float64.
type Row interface {
	Stream() string
	Columns() []string
	Values() []interface{}
}

// Recorder receives the result rows of simulation runs. Implementations
// must be safe for concurrent use by multiple runs.
type Recorder interface {
	Record(Row) error
}

type discard struct{}

func (discard) Record(Row) error { return nil }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParamRow describes the setup of one run.
type ParamRow struct {
	SimID                    string
	ComNr, RunNr, NPFTs      int
	ICVersion                int
	ITVsd                    float64
	Tmax                     int
	Invader, Resident        string
	ARes, BRes               float64
	GrazProb, PropRemove     float64
	BelGrazProb, BelGrazPerc float64
	BelGrazAlpha             float64
	BelGrazHistorySize       int
	CatastrophicMortality    float64
	CatastrophicDistWeek     int
	SeedRainType, SeedInput  int
}

var paramColumns = []string{
	"SimID", "ComNr", "RunNr", "nPFTs",
	"IC_vers", "ITVsd", "Tmax",
	"Invader", "Resident",
	"ARes", "BRes",
	"GrazProb", "PropRemove",
	"BelGrazProb", "BelGrazPerc",
	"BelGrazAlpha", "BelGrazHistorySize",
	"CatastrophicMortality", "CatastrophicDistWeek",
	"SeedRainType", "SeedInput",
}

func (ParamRow) Stream() string { return StreamParam }
func (ParamRow) Columns() []string { return paramColumns }
func (r ParamRow) Values() []interface{} {
	return []interface{}{
		r.SimID, r.ComNr, r.RunNr, r.NPFTs,
		r.ICVersion, r.ITVsd, r.Tmax,
		r.Invader, r.Resident,
		r.ARes, r.BRes,
		r.GrazProb, r.PropRemove,
		r.BelGrazProb, r.BelGrazPerc,
		r.BelGrazAlpha, r.BelGrazHistorySize,
		r.CatastrophicMortality, r.CatastrophicDistWeek,
		r.SeedRainType, r.SeedInput,
	}
}

// TraitRow holds the template traits of one PFT.
type TraitRow struct {
	SimID, PFT                       string
	LMR, M0, MaxMass, SeedMass, Dist float64
	SLA, Palat, Gmax                 float64
	Memory                           int
	Clonal                           bool
	MeanSpacerLength, SdSpacerLength float64
}

var traitColumns = []string{
	"SimID", "PFT",
	"LMR",
	"m0", "MaxMass", "SeedMass", "Dist",
	"SLA", "palat",
	"Gmax", "memory",
	"clonal", "meanSpacerlength", "sdSpacerlength",
}

func (TraitRow) Stream() string { return StreamTrait }
func (TraitRow) Columns() []string { return traitColumns }
func (r TraitRow) Values() []interface{} {
	return []interface{}{
		r.SimID, r.PFT,
		r.LMR,
		r.M0, r.MaxMass, r.SeedMass, r.Dist,
		r.SLA, r.Palat,
		r.Gmax, r.Memory,
		boolInt(r.Clonal), r.MeanSpacerLength, r.SdSpacerLength,
	}
}

// SrvRow records the extinction of a PFT, or its final state if it
// survived.
type SrvRow struct {
	SimID, PFT          string
	ExtinctionYear      int
	FinalPop            int
	Shootmass, Rootmass float64
}

var srvColumns = []string{
	"SimID", "PFT", "Extinction_Year", "Final_Pop", "Final_Shootmass", "Final_Rootmass",
}

func (SrvRow) Stream() string { return StreamSrv }
func (SrvRow) Columns() []string { return srvColumns }
func (r SrvRow) Values() []interface{} {
	return []interface{}{r.SimID, r.PFT, r.ExtinctionYear, r.FinalPop, r.Shootmass, r.Rootmass}
}

// PFTRow is the state of one PFT in one week.
type PFTRow struct {
	SimID, PFT string
	Year, Week int
	Stats      PFTStats
}

var pftColumns = []string{
	"SimID", "PFT", "Year", "Week", "Pop", "Shootmass", "Rootmass", "Repro",
}

func (PFTRow) Stream() string { return StreamPFT }
func (PFTRow) Columns() []string { return pftColumns }
func (r PFTRow) Values() []interface{} {
	return []interface{}{
		r.SimID, r.PFT, r.Year, r.Week,
		r.Stats.Pop, r.Stats.Shootmass, r.Stats.Rootmass, r.Stats.Repro,
	}
}

// IndRow is the state of one living plant in one week.
type IndRow struct {
	SimID      string
	Year, Week int
	Plant      *Plant
}

var indColumns = []string{
	"SimID", "plantID", "PFT", "Year", "Week",
	"i_X", "i_Y",
	"i_LMR",
	"i_m0", "i_MaxMass", "i_SeedMass", "i_Dist",
	"i_SLA", "i_palat",
	"i_Gmax", "i_memory",
	"i_clonal", "i_meanSpacerlength", "i_sdSpacerlength",
	"i_genetID", "i_Age",
	"i_mShoot", "i_mRoot", "i_rShoot", "i_rRoot",
	"i_mRepro", "i_lifetimeFecundity",
	"i_stress",
}

func (IndRow) Stream() string { return StreamInd }
func (IndRow) Columns() []string { return indColumns }
func (r IndRow) Values() []interface{} {
	p := r.Plant
	t := p.Traits
	return []interface{}{
		r.SimID, int(p.ID), t.PFT, r.Year, r.Week,
		p.X, p.Y,
		t.LMR,
		t.M0, t.MaxMass, t.SeedMass, t.DispersalDist,
		t.SLA, t.Palat,
		t.Gmax, t.Memory,
		boolInt(t.Clonal), t.MeanSpacerLength, t.SdSpacerLength,
		int(p.Genet), p.Age,
		p.MShoot, p.MRoot, p.RadiusShoot(), p.RadiusRoot(),
		p.MRepro, p.LifetimeFecundity,
		p.Stress,
	}
}

// AggregatedRow holds the community-level state in one week.
type AggregatedRow struct {
	SimID                          string
	Year, Week                     int
	FeedingPressure                float64
	ContemporaneousRootmass        float64
	Shannon                        float64
	Richness                       int
	BrayCurtis                     float64
	BrayCurtisOK                   bool // BrayCurtis is NA when false
	TotalAboveComp, TotalBelowComp float64
	TotalShootmass, TotalRootmass  float64
	TotalNonClonalPlants           int
	TotalClonalPlants              int
	Mean                           MeanTraits
}

var aggregatedColumns = []string{
	"SimID", "Year", "Week",
	"FeedingPressure", "ContemporaneousRootmass",
	"Shannon", "Richness", "BrayCurtisDissimilarity",
	"TotalAboveComp", "TotalBelowComp",
	"TotalShootmass", "TotalRootmass",
	"TotalNonClonalPlants", "TotalClonalPlants",
	"wm_LMR", "wm_MaxMass", "wm_Gmax", "wm_SLA",
}

func (AggregatedRow) Stream() string { return StreamAggregated }
func (AggregatedRow) Columns() []string { return aggregatedColumns }
func (r AggregatedRow) Values() []interface{} {
	var bc interface{} = NA
	if r.BrayCurtisOK {
		bc = r.BrayCurtis
	}
	return []interface{}{
		r.SimID, r.Year, r.Week,
		r.FeedingPressure, r.ContemporaneousRootmass,
		r.Shannon, r.Richness, bc,
		r.TotalAboveComp, r.TotalBelowComp,
		r.TotalShootmass, r.TotalRootmass,
		r.TotalNonClonalPlants, r.TotalClonalPlants,
		r.Mean.LMR, r.Mean.MaxMass, r.Mean.Gmax, r.Mean.SLA,
	}
}

// RecordParam records the setup of the run.
func (g *Grid) RecordParam() error {
	p := g.Params
	inv, res := NA, NA
	if p.Mode == InvasionCriterion {
		names := g.Traits.Names()
		inv, res = names[0], names[1]
	}
	return g.Recorder.Record(ParamRow{
		SimID:                 p.SimIDString(),
		ComNr:                 p.ComNr,
		RunNr:                 p.RunNr,
		NPFTs:                 g.Traits.Len(),
		ICVersion:             int(p.Stabilization),
		ITVsd:                 p.ITVsd,
		Tmax:                  p.LastYear(),
		Invader:               inv,
		Resident:              res,
		ARes:                  p.MeanARes,
		BRes:                  p.MeanBRes,
		GrazProb:              p.AbvGrazProb,
		PropRemove:            p.AbvPropRemoved,
		BelGrazProb:           p.BelGrazProb,
		BelGrazPerc:           p.BelGrazPerc,
		BelGrazAlpha:          p.BelGrazAlpha,
		BelGrazHistorySize:    p.BelGrazHistorySize,
		CatastrophicMortality: p.CatastrophicPlantMortality,
		CatastrophicDistWeek:  p.CatastrophicDistWeek,
		SeedRainType:          p.SeedRainType,
		SeedInput:             p.SeedInput,
	})
}

// RecordTraits records the template traits of every PFT.
func (g *Grid) RecordTraits() error {
	id := g.Params.SimIDString()
	for _, name := range g.Traits.Names() {
		t, _ := g.Traits.Get(name)
		err := g.Recorder.Record(TraitRow{
			SimID:            id,
			PFT:              name,
			LMR:              t.LMR,
			M0:               t.M0,
			MaxMass:          t.MaxMass,
			SeedMass:         t.SeedMass,
			Dist:             t.DispersalDist,
			SLA:              t.SLA,
			Palat:            t.Palat,
			Gmax:             t.Gmax,
			Memory:           t.Memory,
			Clonal:           t.Clonal,
			MeanSpacerLength: t.MeanSpacerLength,
			SdSpacerLength:   t.SdSpacerLength,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// recordingWeek reports whether results are recorded in the current
// week. Nothing is recorded during the monoculture phase of an invasion
// experiment.
func (g *Grid) recordingWeek() bool {
	p := g.Params
	if p.Mode == InvasionCriterion && g.Year <= p.TmaxMonoculture {
		return false
	}
	return p.Output.Weekly || g.Week == 20
}

// RecordWeek records the survival, PFT, aggregated and individual
// streams of the current week.
func (g *Grid) RecordWeek() error {
	p := g.Params
	id := p.SimIDString()
	s := g.Summarize()

	if p.Output.Srv {
		for _, name := range s.Names {
			st := s.Stats[name]
			if g.survTime[name] != 0 || (st.Pop != 0 && g.Year != p.LastYear()) {
				continue
			}
			g.survTime[name] = g.Year
			err := g.Recorder.Record(SrvRow{
				SimID:          id,
				PFT:            name,
				ExtinctionYear: g.Year,
				FinalPop:       st.Pop,
				Shootmass:      st.Shootmass,
				Rootmass:       st.Rootmass,
			})
			if err != nil {
				return err
			}
		}
	}

	if p.Output.PFT != 0 {
		for _, name := range s.Names {
			st := s.Stats[name]
			if p.Output.PFT == 1 && st.Pop == 0 && g.survTime[name] != g.Year {
				continue
			}
			err := g.Recorder.Record(PFTRow{SimID: id, PFT: name, Year: g.Year, Week: g.Week, Stats: *st})
			if err != nil {
				return err
			}
		}
	}

	if p.Output.Aggregated {
		fp, rm := g.FeedingPressure()
		bc, ok := g.bc.Observe(s, g.Year)
		err := g.Recorder.Record(AggregatedRow{
			SimID:                   id,
			Year:                    g.Year,
			Week:                    g.Week,
			FeedingPressure:         fp,
			ContemporaneousRootmass: rm,
			Shannon:                 s.Shannon(),
			Richness:                s.Richness(),
			BrayCurtis:              bc,
			BrayCurtisOK:            ok,
			TotalAboveComp:          g.TotalAboveComp(),
			TotalBelowComp:          g.TotalBelowComp(),
			TotalShootmass:          g.TotalAboveMass(),
			TotalRootmass:           g.TotalBelowMass(),
			TotalNonClonalPlants:    g.NPlants(),
			TotalClonalPlants:       g.NClonalPlants(),
			Mean:                    g.MeanTraits(),
		})
		if err != nil {
			return err
		}
	}

	if p.Output.Ind {
		for _, pl := range g.plants {
			if pl.Dead {
				continue
			}
			if err := g.Recorder.Record(IndRow{SimID: id, Year: g.Year, Week: g.Week, Plant: pl}); err != nil {
				return err
			}
		}
	}
	return nil
}
