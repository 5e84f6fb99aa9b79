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

import "math"

// EstablishmentWeek reports whether seedlings can establish in week w.
// The windows are weeks 1 to 4 and 22 to 25.
func EstablishmentWeek(w int) bool {
	return (w >= 1 && w < 5) || (w > 21 && w <= 25)
}

// EstablishmentLottery advances the establishment of clonal spacers
// and, during the establishment windows, lets one germinated seedling
// establish in every free cell.
func (g *Grid) EstablishmentLottery() {
	// establishRamets appends to the plant list, so only the plants
	// present at the start are visited.
	n := len(g.plants)
	for i := 0; i < n; i++ {
		p := g.plants[i]
		if p.Traits.Clonal && !p.Dead {
			g.establishRamets(p)
		}
	}

	if !EstablishmentWeek(g.Week) {
		return
	}

	for _, c := range g.Cells {
		if len(c.Above) > 0 || len(c.SeedBank) == 0 || c.Occupied {
			continue
		}
		sum := c.Germinate(g.Rand)
		if areSame(sum, 0) {
			continue
		}
		if s := selectSeedling(c.Seedlings, g.Rand.Float64()*sum); s != nil {
			g.establishSeedling(s)
		}
		for i := range c.Seedlings {
			c.Seedlings[i] = nil
		}
		c.Seedlings = c.Seedlings[:0]
	}
}

// selectSeedling runs the mass-weighted lottery: it subtracts the
// seedling masses from draw in order and returns the seedling at which
// the remainder is no longer positive.
func selectSeedling(seedlings []*Seed, draw float64) *Seed {
	for _, s := range seedlings {
		draw -= s.Mass
		if draw <= 0 {
			return s
		}
	}
	return nil
}

// establishSeedling turns a seed into a new plant and a new genet.
func (g *Grid) establishSeedling(s *Seed) {
	c := g.Cells[s.Cell]
	p := newPlant(g.newPlantID(), c.X, c.Y, s.Traits)
	gen := g.addGenet()
	gen.Ramets = append(gen.Ramets, p.ID)
	p.Genet = gen.ID
	g.addPlant(p)
}

// establishRamets resolves the spacers of pl that have reached their
// target cell. A spacer establishes in a free cell with probability
// RametEstab and is dropped otherwise. A spacer whose target is
// occupied dies in the last week of the year and otherwise moves on to
// a random neighboring cell.
func (g *Grid) establishRamets(pl *Plant) {
	kept := pl.Spacers[:0]
	for _, s := range pl.Spacers {
		if s.SpacerLengthToGrow > 0 {
			kept = append(kept, s)
			continue
		}
		c := g.Cell(s.X, s.Y)
		switch {
		case !c.Occupied:
			if g.Rand.Float64() < g.Params.RametEstab {
				gen := g.Genet(s.Genet)
				invariant(gen != nil, "spacer %d establishing without a live genet %d", s.ID, s.Genet)
				gen.Ramets = append(gen.Ramets, s.ID)
				s.X, s.Y = c.X, c.Y
				g.addPlant(s)
			}
		case g.Week == WeeksPerYear:
		default:
			var dx, dy int
			for dx == 0 && dy == 0 {
				dx = g.Rand.Intn(5) - 2
				dy = g.Rand.Intn(5) - 2
			}
			s.X, s.Y = Torus(s.X+dx, s.Y+dy, g.N)
			s.SpacerLengthToGrow = math.Hypot(float64(dx), float64(dy))
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(pl.Spacers); i++ {
		pl.Spacers[i] = nil
	}
	pl.Spacers = kept
}

// InitSeeds drops n seeds of a PFT on uniformly random cells. If
// pEstab is negative, the germination probability of the PFT is used.
func (g *Grid) InitSeeds(pft string, n int, pEstab float64) {
	p := g.Params
	for i := 0; i < n; i++ {
		x := g.Rand.Intn(g.N)
		y := g.Rand.Intn(g.N)
		idx := x*g.N + y
		s := newSeed(g.Traits.Clone(pft), idx, pEstab, p.ITV(), p.ITVsd, g.Rand)
		g.Cells[idx].SeedBank = append(g.Cells[idx].SeedBank, s)
	}
}

// SeedRain adds external seed input for every PFT.
func (g *Grid) SeedRain() {
	for _, pft := range g.Traits.Names() {
		switch g.Params.SeedRainType {
		case 1:
			g.InitSeeds(pft, g.Params.SeedInput, 1)
		default:
			invariant(false, "unknown seed rain type %d", g.Params.SeedRainType)
		}
	}
}

// SeedMortalityAge removes the seeds that have reached their dormancy
// age.
func (g *Grid) SeedMortalityAge() {
	for _, c := range g.Cells {
		for _, s := range c.SeedBank {
			if s.Age >= s.Traits.Dormancy {
				s.remove = true
			}
		}
		c.removeSeeds()
	}
}

// SeedMortalityWinter kills seeds with the yearly seed mortality and
// ages the survivors by one year.
func (g *Grid) SeedMortalityWinter() {
	for _, c := range g.Cells {
		for _, s := range c.SeedBank {
			if g.Rand.Float64() < g.Params.SeedMortality {
				s.remove = true
			} else {
				s.Age++
			}
		}
		c.removeSeeds()
	}
}
