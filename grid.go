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
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// Environment is the context of one simulation run: its parameters,
// trait templates, random stream, clock and result recorder. Nothing in
// an Environment is shared between runs.
type Environment struct {
	Params   *Parameters
	Traits   *TraitTemplates
	Rand     RandomGenerator
	Recorder Recorder
	Log      logrus.FieldLogger

	Week, Year int

	// Done is set when the run has reached its exit condition.
	Done bool

	nextPlant PlantID
	nextGenet GenetID

	// belowMassHistory holds the total below-ground mass recorded at
	// every disturbance step.
	belowMassHistory []float64

	// feedingPressure and grazedRootmass are the target removal and the
	// living root mass of the latest below-ground grazing event.
	feedingPressure, grazedRootmass float64
	grazed                          bool

	survTime map[string]int
	bc       *BrayCurtis
}

// NewEnvironment returns the context of a run that starts in week 1
// of year 1. A nil recorder discards all results and a nil logger
// logs to the standard logger.
func NewEnvironment(p *Parameters, t *TraitTemplates, rng RandomGenerator, rec Recorder, log logrus.FieldLogger) *Environment {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if rec == nil {
		rec = discard{}
	}
	return &Environment{
		Params:   p,
		Traits:   t,
		Rand:     rng,
		Recorder: rec,
		Log:      log,
		Week:     1,
		Year:     1,
		survTime: make(map[string]int),
		bc:       NewBrayCurtis(p.CatastrophicDistYear-1, brayCurtisWindow),
	}
}

func (e *Environment) newPlantID() PlantID {
	e.nextPlant++
	return e.nextPlant
}

func (e *Environment) newGenetID() GenetID {
	e.nextGenet++
	return e.nextGenet
}

// Grid is the square torus of cells together with the plants and
// genets living on it.
type Grid struct {
	*Environment

	N       int     // side length
	Cells   []*Cell // index x*N+y
	ZOIBase []int   // cell indices sorted by distance from the grid center

	strategy Strategy

	plants    []*Plant
	plantByID map[PlantID]*Plant
	genets    []*Genet
	genetByID map[GenetID]*Genet

	// InitFuncs are run once before the first week, RunFuncs are run
	// every week, YearFuncs after every year, and CleanupFuncs after the
	// last year.
	InitFuncs, RunFuncs, YearFuncs, CleanupFuncs []DomainManipulator
}

// NewGrid returns an empty grid for the run described by e. The cells
// are created by CellsInit.
func NewGrid(e *Environment) *Grid {
	return &Grid{
		Environment: e,
		N:           e.Params.GridSize,
		plantByID:   make(map[PlantID]*Plant),
		genetByID:   make(map[GenetID]*Genet),
	}
}

// CellsInit allocates the cells of the grid and sorts the zone of
// influence offsets.
func (g *Grid) CellsInit() error {
	p := g.Params
	if err := p.Validate(); err != nil {
		return err
	}
	g.strategy = Strategy{Above: p.AboveCompMode, Below: p.BelowCompMode, Stabilization: p.Stabilization}

	n := g.N
	g.Cells = make([]*Cell, n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			c := newCell(x, y)
			c.AResConc, c.BResConc = p.MeanARes, p.MeanBRes
			g.Cells[x*n+y] = c
		}
	}
	g.ZOIBase = zoiBase(n)
	return nil
}

// zoiBase returns the indices of an n×n grid ordered by their distance
// from the center cell.
func zoiBase(n int) []int {
	base := make([]int, n*n)
	for i := range base {
		base[i] = i
	}
	d2 := func(i int) int {
		dx, dy := i/n-n/2, i%n-n/2
		return dx*dx + dy*dy
	}
	sort.SliceStable(base, func(a, b int) bool { return d2(base[a]) < d2(base[b]) })
	return base
}

// Cell returns the cell at (x, y), wrapping the coordinates.
func (g *Grid) Cell(x, y int) *Cell {
	x, y = Torus(x, y, g.N)
	return g.Cells[x*g.N+y]
}

// Plant returns the plant with the given identifier, or nil if it is
// not on the grid.
func (g *Grid) Plant(id PlantID) *Plant { return g.plantByID[id] }

// Plants returns the master plant list. It must not be modified.
func (g *Grid) Plants() []*Plant { return g.plants }

// Genet returns the genet with the given identifier, or nil.
func (g *Grid) Genet(id GenetID) *Genet { return g.genetByID[id] }

// Genets returns the genets on the grid. It must not be modified.
func (g *Grid) Genets() []*Genet { return g.genets }

// addPlant establishes p in its cell.
func (g *Grid) addPlant(p *Plant) {
	_, dup := g.plantByID[p.ID]
	invariant(!dup, "plant %d is already on the grid", p.ID)
	g.plants = append(g.plants, p)
	g.plantByID[p.ID] = p
	g.Cell(p.X, p.Y).Occupied = true
}

func (g *Grid) addGenet() *Genet {
	gen := &Genet{ID: g.newGenetID()}
	g.genets = append(g.genets, gen)
	g.genetByID[gen.ID] = gen
	return gen
}

// ResetWeeklyVariables clears the zone of influence data of all cells
// and the resource uptake of all plants.
func (g *Grid) ResetWeeklyVariables() {
	for _, c := range g.Cells {
		c.weeklyReset()
	}
	for _, p := range g.plants {
		p.weeklyReset()
	}
}

// SetCellResources sets the resource concentrations of the current
// week. Above-ground resources follow a negative cosine and
// below-ground resources a sine over the year.
func (g *Grid) SetCellResources() {
	p := g.Params
	phase := 2 * math.Pi * float64(g.Week) / float64(WeeksPerYear)
	a := math.Max(0, -p.Aampl*math.Cos(phase)+p.MeanARes)
	b := math.Max(0, p.Bampl*math.Sin(phase)+p.MeanBRes)
	for _, c := range g.Cells {
		c.AResConc, c.BResConc = a, b
	}
}

// CoverCells computes the zones of influence of all plants. Each plant
// covers the cells of the first ZOIBase entries around its own cell:
// as many as its shoot area above ground and as many as its root area
// below ground. Dead plants only cover above ground.
func (g *Grid) CoverCells() {
	n := g.N
	for _, p := range g.plants {
		ash := p.AreaShoot()
		p.AshDisc = int(math.Floor(ash)) + 1
		art := p.AreaRoot()
		p.ArtDisc = int(math.Floor(art)) + 1

		amax := math.Max(ash, art)
		pft := p.pft()
		for a := 0; a < len(g.ZOIBase) && float64(a) < amax; a++ {
			x := p.X + g.ZOIBase[a]/n - n/2
			y := p.Y + g.ZOIBase[a]%n - n/2
			c := g.Cell(x, y)
			if float64(a) < ash {
				c.Above = append(c.Above, p.ID)
				c.PftNIndA[pft]++
			}
			if float64(a) < art && !p.Dead {
				c.Below = append(c.Below, p.ID)
				c.PftNIndB[pft]++
			}
		}
	}
}

// DistributeResource runs the competition of every cell and then
// shares resources within clonal genets.
func (g *Grid) DistributeResource() {
	for _, c := range g.Cells {
		c.AboveComp(g.strategy, g.Plant)
		c.BelowComp(g.strategy, g.Plant)
	}
	g.shareResources()
}

// shareResources pools and evenly redistributes resource uptake among
// the ramets of each genet whose PFT shares resources.
func (g *Grid) shareResources() {
	for _, gen := range g.genets {
		if len(gen.Ramets) < 2 {
			continue
		}
		first := g.Plant(gen.Ramets[0])
		invariant(first != nil, "genet %d references missing ramet %d", gen.ID, gen.Ramets[0])
		invariant(first.Traits.Clonal, "genet %d has %d ramets of non-clonal PFT %s",
			gen.ID, len(gen.Ramets), first.pft())
		if first.Traits.ResourceShare {
			gen.share(Above, g.Plant)
			gen.share(Below, g.Plant)
		}
	}
}

// RemovePlants removes the dead and decomposed plants, frees their
// cells, prunes the genets' ramet lists of removed plants and removes
// genets without ramets.
func (g *Grid) RemovePlants() {
	kept := g.plants[:0]
	for _, p := range g.plants {
		if p.ShouldRemove() {
			g.Cell(p.X, p.Y).Occupied = false
			delete(g.plantByID, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(g.plants); i++ {
		g.plants[i] = nil
	}
	g.plants = kept

	genets := g.genets[:0]
	for _, gen := range g.genets {
		ramets := gen.Ramets[:0]
		for _, id := range gen.Ramets {
			if _, ok := g.plantByID[id]; ok {
				ramets = append(ramets, id)
			}
		}
		gen.Ramets = ramets
		if len(gen.Ramets) == 0 {
			delete(g.genetByID, gen.ID)
			continue
		}
		genets = append(genets, gen)
	}
	for i := len(genets); i < len(g.genets); i++ {
		g.genets[i] = nil
	}
	g.genets = genets
}

// Winter removes decomposed plants and applies the winter dieback to
// the survivors.
func (g *Grid) Winter() {
	g.RemovePlants()
	for _, p := range g.plants {
		p.WinterLoss(g.Params.WinterDieback)
	}
}

// TotalAboveMass is the shoot and reproductive mass of all living plants.
func (g *Grid) TotalAboveMass() float64 {
	var m float64
	for _, p := range g.plants {
		if !p.Dead {
			m += p.MShoot + p.MRepro
		}
	}
	return m
}

// TotalBelowMass is the root mass of all living plants.
func (g *Grid) TotalBelowMass() float64 {
	var m float64
	for _, p := range g.plants {
		if !p.Dead {
			m += p.MRoot
		}
	}
	return m
}

// TotalAboveComp is the sum of the above-ground competition totals of
// all cells.
func (g *Grid) TotalAboveComp() float64 {
	var s float64
	for _, c := range g.Cells {
		s += c.AComp
	}
	return s
}

// TotalBelowComp is the sum of the below-ground competition totals of
// all cells.
func (g *Grid) TotalBelowComp() float64 {
	var s float64
	for _, c := range g.Cells {
		s += c.BComp
	}
	return s
}

// NClonalPlants is the number of genets with at least one living ramet.
func (g *Grid) NClonalPlants() int {
	var n int
	for _, gen := range g.genets {
		for _, id := range gen.Ramets {
			if p := g.Plant(id); p != nil && !p.Dead && p.Traits.Clonal {
				n++
				break
			}
		}
	}
	return n
}

// NPlants is the number of living non-clonal plants.
func (g *Grid) NPlants() int {
	var n int
	for _, p := range g.plants {
		if !p.Dead && !p.Traits.Clonal {
			n++
		}
	}
	return n
}

// NSeeds is the number of seeds in all seed banks.
func (g *Grid) NSeeds() int {
	var n int
	for _, c := range g.Cells {
		n += len(c.SeedBank)
	}
	return n
}
