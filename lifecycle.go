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

// PlantLoop grows, propagates and kills the living plants and
// decomposes the dead ones.
func (g *Grid) PlantLoop() {
	p := g.Params
	for _, pl := range g.plants {
		if p.ITV() {
			invariant(pl.Traits.Type == Individualized,
				"plant %d of PFT %s has species traits with ITV on", pl.ID, pl.pft())
		}
		if pl.Dead {
			pl.DecomposeDead(p.LitterDecomp)
			continue
		}
		pl.Grow(g.Week)
		if pl.Traits.Clonal {
			g.DisperseRamets(pl)
			pl.SpacerGrow()
		}
		if g.Week > pl.Traits.DispersalWeek {
			g.DisperseSeeds(pl)
		}
		pl.Kill(g.Rand, p.BackgroundMortality)
	}
}

// dispersalTarget draws a landing position from a log-normal kernel
// with the given mean and standard deviation [cm] and a uniformly
// distributed direction.
func dispersalTarget(rng RandomGenerator, x, y int, mean, sd float64) (int, int) {
	sigma := math.Sqrt(math.Log((sd/mean)*(sd/mean) + 1))
	mu := math.Log(mean) - 0.5*sigma
	dist := math.Exp(rng.Normal(mu, sigma))
	dir := 2 * math.Pi * rng.Float64()
	return int(math.Round(float64(x) + math.Cos(dir)*dist)),
		int(math.Round(float64(y) + math.Sin(dir)*dist))
}

// DisperseSeeds converts the reproductive mass of pl into seeds and
// disperses them into the seed banks around it.
func (g *Grid) DisperseSeeds(pl *Plant) {
	n := pl.ConvertReproMassToSeeds()
	if n == 0 {
		return
	}
	p := g.Params
	// Dispersal distances are given in m; mean and sd are equal.
	d := pl.Traits.DispersalDist * 100
	for i := 0; i < n; i++ {
		var x, y int
		if d > 0 {
			x, y = dispersalTarget(g.Rand, pl.X, pl.Y, d, d)
		} else {
			x, y = pl.X, pl.Y
		}
		x, y = Torus(x, y, g.N)
		idx := x*g.N + y
		s := newSeed(g.Traits.Clone(pl.pft()), idx, -1, p.ITV(), p.ITVsd, g.Rand)
		g.Cells[idx].SeedBank = append(g.Cells[idx].SeedBank, s)
	}
}

// DisperseRamets starts a new spacer for a clonal plant whose genet
// has a single ramet. The spacer length is drawn from a Gaussian and
// its direction is uniform.
func (g *Grid) DisperseRamets(pl *Plant) {
	invariant(pl.Traits.Clonal, "plant %d of non-clonal PFT %s dispersing ramets", pl.ID, pl.pft())
	gen := g.Genet(pl.Genet)
	invariant(gen != nil, "clonal plant %d without a live genet %d", pl.ID, pl.Genet)
	if len(gen.Ramets) != 1 {
		return
	}
	t := pl.Traits
	dist := math.Abs(g.Rand.Normal(t.MeanSpacerLength, t.SdSpacerLength))
	dir := 2 * math.Pi * g.Rand.Float64()
	x := int(math.Round(float64(pl.X) + math.Cos(dir)*dist))
	y := int(math.Round(float64(pl.Y) + math.Sin(dir)*dist))
	x, y = Torus(x, y, g.N)

	s := newPlant(g.newPlantID(), x, y, t.Clone())
	s.Genet = pl.Genet
	s.SpacerLengthToGrow = dist
	pl.Spacers = append(pl.Spacers, s)
}
