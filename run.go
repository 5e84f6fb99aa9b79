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

// Initial seeding.
const (
	initSeeds        = 10
	initInvaderSeeds = 100
	initEstab        = 1.0
)

// Init runs the InitFuncs.
func (g *Grid) Init() error {
	for _, f := range g.InitFuncs {
		if err := f(g); err != nil {
			return err
		}
	}
	return nil
}

// Run simulates years 1 through Params.LastYear. Every week the
// RunFuncs are run in order, and after every year the YearFuncs. The
// simulation stops early once Done is set at the end of a week or a
// year. When Run returns, Year and Week hold the last simulated week.
func (g *Grid) Run() error {
	last := g.Params.LastYear()
	for g.Year = 1; ; g.Year++ {
		g.Log.Debugf("year %d", g.Year)
		for g.Week = 1; ; g.Week++ {
			for _, f := range g.RunFuncs {
				if err := f(g); err != nil {
					return err
				}
			}
			if g.Done || g.Week == WeeksPerYear {
				break
			}
		}
		for _, f := range g.YearFuncs {
			if err := f(g); err != nil {
				return err
			}
		}
		if g.Done || g.Year == last {
			return nil
		}
	}
}

// Cleanup runs the CleanupFuncs.
func (g *Grid) Cleanup() error {
	for _, f := range g.CleanupFuncs {
		if err := f(g); err != nil {
			return err
		}
	}
	return nil
}

// NewSimulation returns a grid for the run described by e with the
// standard initialization, weekly and yearly steps.
func NewSimulation(e *Environment) *Grid {
	g := NewGrid(e)
	g.InitFuncs = DefaultInitFuncs()
	g.RunFuncs = DefaultRunFuncs()
	g.YearFuncs = DefaultYearFuncs()
	return g
}

// DefaultInitFuncs creates the cells, sows the initial seeds and
// records the setup of the run.
func DefaultInitFuncs() []DomainManipulator {
	return []DomainManipulator{
		CellsInit(),
		InitIndividuals(),
		RecordSetup(),
	}
}

// DefaultRunFuncs is the weekly schedule.
func DefaultRunFuncs() []DomainManipulator {
	return []DomainManipulator{
		step((*Grid).ResetWeeklyVariables),
		step((*Grid).SetCellResources),
		step((*Grid).CoverCells),
		step((*Grid).DistributeResource),
		step((*Grid).PlantLoop),
		Disturbance(),
		Catastrophe(),
		step((*Grid).RemovePlants),
		SeedRainEvent(),
		step((*Grid).EstablishmentLottery),
		SeedDormancy(),
		WinterEvents(),
		RecordResults(),
		ExitCheck(),
	}
}

// DefaultYearFuncs introduces the invader of an invasion experiment and
// re-evaluates the exit condition.
func DefaultYearFuncs() []DomainManipulator {
	return []DomainManipulator{
		Invasion(),
		ExitCheck(),
	}
}

// step wraps a grid operation that cannot fail.
func step(f func(*Grid)) DomainManipulator {
	return func(g *Grid) error {
		f(g)
		return nil
	}
}

// CellsInit allocates the cells.
func CellsInit() DomainManipulator {
	return func(g *Grid) error {
		return g.CellsInit()
	}
}

// InitIndividuals sows the initial seeds. Community assembly and
// catastrophic disturbance experiments start with seeds of every PFT;
// invasion experiments start with the resident, which is the second
// PFT of the trait file.
func InitIndividuals() DomainManipulator {
	return func(g *Grid) error {
		switch g.Params.Mode {
		case InvasionCriterion:
			if g.Traits.Len() != 2 {
				return configErrorf("mode", "invasion experiments need exactly 2 PFTs, got %d", g.Traits.Len())
			}
			resident := g.Traits.Names()[1]
			g.InitSeeds(resident, initSeeds, initEstab)
			g.survTime[resident] = 0
		default:
			for _, pft := range g.Traits.Names() {
				g.InitSeeds(pft, initSeeds, initEstab)
				g.survTime[pft] = 0
			}
		}
		return nil
	}
}

// RecordSetup records the param stream and, if requested, the trait
// stream.
func RecordSetup() DomainManipulator {
	return func(g *Grid) error {
		if err := g.RecordParam(); err != nil {
			return err
		}
		if g.Params.Output.Trait {
			return g.RecordTraits()
		}
		return nil
	}
}

// Disturbance runs grazing and cutting from the second year on.
func Disturbance() DomainManipulator {
	return func(g *Grid) error {
		if g.Year > 1 {
			g.Disturb()
		}
		return nil
	}
}

// Catastrophe applies the catastrophic plant mortality in the
// disturbance week of a catastrophic disturbance experiment.
func Catastrophe() DomainManipulator {
	return func(g *Grid) error {
		p := g.Params
		if p.Mode == CatastrophicDisturbance &&
			g.Year == p.CatastrophicDistYear && g.Week == p.CatastrophicDistWeek {
			g.CatastrophicMortality()
		}
		return nil
	}
}

// SeedRainEvent adds the external seed input in week 21.
func SeedRainEvent() DomainManipulator {
	return func(g *Grid) error {
		if g.Params.SeedRainType > 0 && g.Week == 21 {
			g.SeedRain()
		}
		return nil
	}
}

// SeedDormancy removes the seeds past their dormancy in week 20,
// before autumn.
func SeedDormancy() DomainManipulator {
	return func(g *Grid) error {
		if g.Week == 20 {
			g.SeedMortalityAge()
		}
		return nil
	}
}

// WinterEvents applies the winter dieback and seed mortality in the
// last week of the year.
func WinterEvents() DomainManipulator {
	return func(g *Grid) error {
		if g.Week == WeeksPerYear {
			g.Winter()
			g.SeedMortalityWinter()
		}
		return nil
	}
}

// RecordResults records the weekly result streams in the recording
// weeks.
func RecordResults() DomainManipulator {
	return func(g *Grid) error {
		if !g.recordingWeek() {
			return nil
		}
		return g.RecordWeek()
	}
}

// ExitCheck sets Done according to the exit condition.
func ExitCheck() DomainManipulator {
	return func(g *Grid) error {
		g.Done = g.ExitConditions()
		return nil
	}
}

// Invasion sows the invader, the first PFT of the trait file, after the
// monoculture phase of an invasion experiment.
func Invasion() DomainManipulator {
	return func(g *Grid) error {
		p := g.Params
		if p.Mode != InvasionCriterion || g.Year != p.TmaxMonoculture {
			return nil
		}
		invader := g.Traits.Names()[0]
		g.InitSeeds(invader, initInvaderSeeds, initEstab)
		g.survTime[invader] = 0
		g.Log.WithField("pft", invader).Debug("invader introduced")
		return nil
	}
}

// ExitConditions reports whether the community has gone extinct: no
// living non-clonal plants, no clonal genets and no seeds. A run with
// external seed input never exits early.
func (g *Grid) ExitConditions() bool {
	if g.Params.SeedInput > 0 {
		return false
	}
	return g.NPlants()+g.NClonalPlants()+g.NSeeds() == 0
}
