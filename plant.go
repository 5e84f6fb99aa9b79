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

// PlantID is the stable identifier of a plant within one run.
type PlantID int64

// minMass is the total mass [mg] below which a dead plant is fully
// decomposed.
const minMass = 10

// heightCoefficient relates shoot mass to height [cm].
const heightCoefficient = 6.5

// Plant is an individual plant or ramet.
type Plant struct {
	ID     PlantID
	X, Y   int
	Traits *Traits
	Genet  GenetID

	MShoot, MRoot, MRepro float64 // biomass [mg]
	// MReproRamets is the resource allocated to spacer growth that has
	// not yet been converted into spacer length.
	MReproRamets float64

	Age               int // weeks
	LifetimeFecundity int // seeds produced
	Stress            int // consecutive stress counter
	Dead              bool

	// Spacers are clonal offspring that have not yet established.
	Spacers []*Plant
	// SpacerLengthToGrow is the distance [cm] a spacer still has to grow
	// before it reaches its target cell.
	SpacerLengthToGrow float64

	AUptake, BUptake float64 // resource uptake of the current week
	AshDisc, ArtDisc int     // discretized shoot and root areas
}

func newPlant(id PlantID, x, y int, t *Traits) *Plant {
	return &Plant{
		ID:     id,
		X:      x,
		Y:      y,
		Traits: t,
		MShoot: t.M0,
		MRoot:  t.M0,
	}
}

func (p *Plant) pft() string { return p.Traits.PFT }

// AreaShoot is the shoot footprint [cm²].
func (p *Plant) AreaShoot() float64 {
	return p.Traits.SLA * math.Pow(p.Traits.LMR*p.MShoot, 2.0/3.0)
}

// AreaRoot is the root footprint [cm²].
func (p *Plant) AreaRoot() float64 {
	return p.Traits.RAR * math.Pow(p.MRoot, 2.0/3.0) * p.Traits.mycZOI()
}

// RadiusShoot is the radius [cm] of a circle with the shoot footprint area.
func (p *Plant) RadiusShoot() float64 { return math.Sqrt(p.AreaShoot() / math.Pi) }

// RadiusRoot is the radius [cm] of a circle with the root footprint area.
func (p *Plant) RadiusRoot() float64 { return math.Sqrt(p.AreaRoot() / math.Pi) }

// CompCoef is the competitive weight of the plant on one cell of the
// given layer.
func (p *Plant) CompCoef(layer Layer, mode CompMode) float64 {
	t := p.Traits
	switch mode {
	case Symmetric:
		if layer == Below {
			return t.Gmax * t.mycComp()
		}
		return t.Gmax
	case AsymmetricPartial:
		var mass, area float64
		if layer == Above {
			mass, area = t.LMR*p.MShoot, p.AreaShoot()
		} else {
			mass, area = p.MRoot, p.AreaRoot()
		}
		if area <= 0 {
			return 0
		}
		return t.Gmax * mass / area
	default:
		panic("ibcgrass: unsupported competition mode " + mode.String())
	}
}

func (p *Plant) uptake(layer Layer) float64 {
	if layer == Above {
		return p.AUptake
	}
	return p.BUptake
}

func (p *Plant) setUptake(layer Layer, u float64) {
	if layer == Above {
		p.AUptake = u
	} else {
		p.BUptake = u
	}
}

func (p *Plant) addUptake(layer Layer, u float64) {
	p.setUptake(layer, p.uptake(layer)+u)
}

// minres is the minimum weekly resource requirement on a layer.
func (p *Plant) minres(layer Layer) float64 {
	disc := p.ArtDisc
	if layer == Above {
		disc = p.AshDisc
	}
	return p.Traits.MThres * float64(disc) * p.Traits.Gmax
}

func (p *Plant) stressed() bool {
	return p.AUptake/2 < p.minres(Above) || p.BUptake/2 < p.minres(Below)
}

func (p *Plant) weeklyReset() {
	p.AUptake, p.BUptake = 0, 0
}

// Grow converts the resource uptake of the current week into biomass.
// Growth is limited by the scarcer of the two resources.
func (p *Plant) Grow(week int) {
	limRes := math.Min(p.AUptake, p.BUptake)
	vegRes := p.reproGrow(limRes, week)

	allocShoot := 0.5
	if sum := p.AUptake + p.BUptake; sum > 0 {
		allocShoot = p.BUptake / sum
	}
	shootRes := allocShoot * vegRes
	rootRes := vegRes - shootRes

	p.MShoot += p.shootGrow(shootRes)
	p.MRoot += p.rootGrow(rootRes)

	if p.stressed() {
		p.Stress++
	} else if p.Stress > 0 {
		p.Stress--
	}
	p.Age++
}

// reproGrow allocates resources to seeds and spacers and returns the
// resources left for vegetative growth.
func (p *Plant) reproGrow(uptake float64, week int) float64 {
	t := p.Traits
	vegRes := uptake
	if t.Clonal {
		spacerRes := uptake * t.AllocSpacer
		p.MReproRamets += math.Max(0, t.Growth*spacerRes)
		vegRes -= spacerRes
	}
	if week >= t.FlowerWeek && week < t.DispersalWeek && p.MRepro <= t.AllocSeed*p.MShoot {
		seedRes := uptake * t.AllocSeed
		p.MRepro += math.Max(0, t.Growth*seedRes)
		vegRes -= seedRes
	}
	return vegRes
}

func (p *Plant) shootGrow(res float64) float64 {
	t := p.Traits
	assim := t.Growth * math.Min(res, t.Gmax*float64(p.AshDisc))
	resp := t.Growth * t.SLA * math.Pow(t.LMR, 2.0/3.0) * t.Gmax *
		p.MShoot * p.MShoot / t.MaxMassPow43()
	return math.Max(0, assim-resp)
}

func (p *Plant) rootGrow(res float64) float64 {
	t := p.Traits
	assim := t.Growth * math.Min(res, t.Gmax*float64(p.ArtDisc))
	resp := t.Growth * t.Gmax * t.RAR * p.MRoot * p.MRoot / t.MaxMassPow43()
	return math.Max(0, assim-resp)
}

// Kill applies stress-dependent and background mortality.
func (p *Plant) Kill(rng RandomGenerator, backgroundMortality float64) {
	pmort := float64(p.Stress)/float64(p.Traits.Memory) + backgroundMortality
	if rng.Float64() < pmort {
		p.Dead = true
	}
}

// DecomposeDead decomposes a dead plant by the weekly litter
// decomposition factor.
func (p *Plant) DecomposeDead(rate float64) {
	p.MRepro = 0
	p.MShoot *= rate
	p.MRoot *= rate
}

// ShouldRemove reports whether the plant is dead and fully decomposed.
func (p *Plant) ShouldRemove() bool {
	return p.Dead && p.MShoot+p.MRoot < minMass
}

// Palatability is the attractiveness of the plant to grazers.
func (p *Plant) Palatability() float64 {
	if p.Dead {
		return 0
	}
	return p.MShoot * p.Traits.Palat
}

// RemoveShootMass removes one bite from the shoot along with all
// reproductive mass and returns the removed mass.
func (p *Plant) RemoveShootMass(bite float64) float64 {
	if p.MShoot+p.MRepro <= 1 {
		return 0
	}
	removed := bite*p.MShoot + p.MRepro
	p.MShoot *= 1 - bite
	p.MRepro = 0
	return removed
}

// RemoveRootMass removes root mass. The plant dies when no root mass is
// left.
func (p *Plant) RemoveRootMass(m float64) {
	p.MRoot -= m
	if p.MRoot <= 0 {
		p.MRoot = 0
		p.Dead = true
	}
}

// Height is the shoot height [cm].
func (p *Plant) Height() float64 {
	if p.Traits.LMR <= 0 {
		return 0
	}
	return math.Cbrt(p.MShoot/p.Traits.LMR) * heightCoefficient
}

// BiomassAtHeight is the shoot mass of the plant at height h [cm].
func (p *Plant) BiomassAtHeight(h float64) float64 {
	r := h / heightCoefficient
	return r * r * r * p.Traits.LMR
}

// ConvertReproMassToSeeds turns reproductive mass into whole seeds and
// returns their number.
func (p *Plant) ConvertReproMassToSeeds() int {
	if p.Traits.SeedMass <= 0 || p.MRepro <= 0 {
		return 0
	}
	n := int(math.Floor(p.MRepro / p.Traits.SeedMass))
	p.MRepro -= float64(n) * p.Traits.SeedMass
	p.LifetimeFecundity += n
	return n
}

// WinterLoss removes the winter dieback of the shoot and all
// reproductive mass.
func (p *Plant) WinterLoss(dieback float64) {
	p.MShoot *= 1 - dieback
	p.MRepro = 0
}

// SpacerGrow divides the resources allocated to clonal growth evenly
// among the growing spacers.
func (p *Plant) SpacerGrow() {
	if len(p.Spacers) == 0 || p.MReproRamets <= 0 {
		return
	}
	share := p.MReproRamets / float64(len(p.Spacers))
	for _, s := range p.Spacers {
		s.SpacerLengthToGrow = math.Max(0, s.SpacerLengthToGrow-share/p.Traits.MSpacer)
	}
	p.MReproRamets = 0
}
