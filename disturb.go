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

	"gonum.org/v1/gonum/stat"
)

// cutWeeks are the weeks in which the grid is mown, by number of cuts
// per year.
var cutWeeks = [][]int{
	1: {22},
	2: {10, 22},
	3: {10, 16, 22},
}

// Disturb records the below-ground mass history and applies grazing
// and cutting.
func (g *Grid) Disturb() {
	p := g.Params
	g.belowMassHistory = append(g.belowMassHistory, g.TotalBelowMass())

	if g.Rand.Float64() < p.AbvGrazProb {
		g.GrazingAbvGr()
	}
	if g.Rand.Float64() < p.BelGrazProb {
		g.GrazingBelGr()
	}
	if p.NCut > 0 {
		for _, w := range cutWeeks[p.NCut] {
			if g.Week == w {
				g.Cutting(p.CutHeight)
			}
		}
	}
}

// Area is the grid area [cm²].
func (g *Grid) Area() float64 { return float64(g.N * g.N) }

// GrazingAbvGr grazes the plants according to their relative
// palatability until the removal target is reached. The target is the
// smaller of the mass above the ungrazable residual and the configured
// proportion of the total above-ground mass. It returns the removed
// mass.
func (g *Grid) GrazingAbvGr() float64 {
	p := g.Params
	residual := p.MassUngrazable * g.Area() * 0.0001
	total := g.TotalAboveMass()
	target := math.Min(total-residual, total*p.AbvPropRemoved)

	var removed float64
	for removed < target {
		var maxPalat float64
		for _, pl := range g.plants {
			maxPalat = math.Max(maxPalat, pl.Palatability())
		}
		if maxPalat <= 0 {
			break
		}

		g.Rand.Shuffle(len(g.plants), func(i, j int) {
			g.plants[i], g.plants[j] = g.plants[j], g.plants[i]
		})

		pass := 0.0
		for _, pl := range g.plants {
			if removed >= target {
				break
			}
			if pl.Dead {
				continue
			}
			if g.Rand.Float64() < pl.Palatability()/maxPalat {
				m := pl.RemoveShootMass(p.BiteSize)
				removed += m
				pass += m
			}
		}
		if pass == 0 && g.ungrazable() {
			break
		}
	}
	return removed
}

// ungrazable reports whether no palatable plant has enough mass left
// for a bite.
func (g *Grid) ungrazable() bool {
	for _, pl := range g.plants {
		if pl.Palatability() > 0 && pl.MShoot+pl.MRepro > 1 {
			return false
		}
	}
	return true
}

// Cutting mows all plants taller than h down to h.
func (g *Grid) Cutting(h float64) {
	for _, pl := range g.plants {
		if pl.Height() > h {
			pl.MShoot = pl.BiomassAtHeight(h)
			pl.MRepro = 0
		}
	}
}

// GrazingBelGr removes root mass with a functional response to the
// recent below-ground mass. The target is BelGrazPerc of the mean of
// the last BelGrazHistorySize entries of the mass history, limited so
// that BelGrazResidualPerc of the living root mass remains. Each living
// plant loses a share proportional to (mRoot/total)^BelGrazAlpha.
// Plants whose share exceeds their root mass die and the overshoot is
// distributed among the others in the next iteration. It returns the
// removed mass.
func (g *Grid) GrazingBelGr() float64 {
	p := g.Params
	invariant(len(g.belowMassHistory) > 0, "below-ground grazing without mass history")

	bt := g.TotalBelowMass()

	hist := g.belowMassHistory
	if len(hist) > p.BelGrazHistorySize {
		hist = hist[len(hist)-p.BelGrazHistorySize:]
	}
	target := p.BelGrazPerc * stat.Mean(hist, nil)
	if resid := p.BelGrazResidualPerc(); bt-target < bt*resid {
		target = bt - bt*resid
	}

	g.feedingPressure = target
	g.grazedRootmass = bt
	g.grazed = true

	if bt <= 0 {
		return 0
	}

	alpha := p.BelGrazAlpha
	fn := target
	var removed float64
	for math.Ceil(removed) < target {
		var weights float64
		for _, pl := range g.plants {
			if !pl.Dead {
				weights += math.Pow(pl.MRoot/bt, alpha)
			}
		}
		if weights <= 0 {
			break
		}

		var br, leftovers float64
		for _, pl := range g.plants {
			if pl.Dead {
				continue
			}
			m := math.Pow(pl.MRoot/bt, alpha) * fn / weights
			if m >= pl.MRoot {
				leftovers += m - pl.MRoot
				br += pl.MRoot
				pl.RemoveRootMass(pl.MRoot)
				continue
			}
			pl.RemoveRootMass(m)
			br += m
		}

		removed += br
		bt -= br
		fn = leftovers
		invariant(bt >= -epsilon*math.Max(1, removed), "negative total root mass %g after below-ground grazing", bt)
		if br <= 0 || fn <= 0 {
			break
		}
	}
	return removed
}

// CatastrophicMortality kills each living plant with the catastrophic
// plant mortality.
func (g *Grid) CatastrophicMortality() {
	for _, pl := range g.plants {
		if pl.Dead {
			continue
		}
		if g.Rand.Float64() < g.Params.CatastrophicPlantMortality {
			pl.Dead = true
		}
	}
}
