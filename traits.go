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

// TraitType tells whether a trait set is a species template or has been
// varied for an individual.
type TraitType int

// Trait set types.
const (
	Species TraitType = iota
	Individualized
)

// Mycorrhizal status values.
const (
	Obligate       = "OM"
	Facultative    = "FM"
	NonMycorrhizal = "NM"
)

// Traits are the biological parameters of a plant functional type (PFT).
type Traits struct {
	Type TraitType
	PFT  string

	AllocSeed     float64 // resource allocation to seed production
	LMR           float64 // leaf mass ratio
	M0            float64 // initial mass of shoot and root [mg]
	MaxMass       float64 // maximum individual mass [mg]
	SeedMass      float64 // [mg]
	DispersalDist float64 // mean seed dispersal distance [m]
	PEstab        float64 // seedling establishment probability
	Gmax          float64 // maximal resource utilization per ZOI cell
	SLA           float64 // specific leaf area
	Palat         float64 // palatability
	Memory        int     // weeks a plant survives under resource stress
	RAR           float64 // root area ratio
	Growth        float64 // biomass conversion rate
	MThres        float64 // resource threshold for stress

	Clonal           bool
	MeanSpacerLength float64 // [cm]
	SdSpacerLength   float64 // [cm]
	ResourceShare    bool
	AllocSpacer      float64 // resource allocation to spacer growth
	MSpacer          float64 // resources per cm spacer length

	MycStat string  // OM, FM or NM
	MycZOI  float64 // root footprint multiplier
	MycComp float64 // below-ground competitive weight multiplier
	MycC    float64 // carbon cost of the mycorrhizal association

	FlowerWeek    int // first week of seed production
	DispersalWeek int // week seeds are released after
	Dormancy      int // years a seed stays viable

	maxMassPow43 float64
}

// DefaultTraits returns a trait set with the default values of all
// parameters that trait definitions may leave out.
func DefaultTraits() *Traits {
	return &Traits{
		PFT:           "EMPTY",
		AllocSeed:     0.05,
		LMR:           -1,
		M0:            -1,
		MaxMass:       -1,
		SeedMass:      -1,
		DispersalDist: -1,
		PEstab:        0.5,
		Gmax:          -1,
		SLA:           -1,
		Palat:         -1,
		Memory:        -1,
		RAR:           1,
		Growth:        0.25,
		MThres:        0.2,
		FlowerWeek:    16,
		DispersalWeek: 20,
		Dormancy:      1,
	}
}

// Clone returns a deep copy of t.
func (t *Traits) Clone() *Traits {
	c := *t
	return &c
}

// MaxMassPow43 returns MaxMass^(4/3).
func (t *Traits) MaxMassPow43() float64 {
	if t.maxMassPow43 == 0 {
		t.maxMassPow43 = math.Pow(t.MaxMass, 4.0/3.0)
	}
	return t.maxMassPow43
}

// mycZOI and mycComp treat an unset mycorrhizal value as neutral.
func (t *Traits) mycZOI() float64 {
	if t.MycZOI == 0 {
		return 1
	}
	return t.MycZOI
}

func (t *Traits) mycComp() float64 {
	if t.MycComp == 0 {
		return 1
	}
	return t.MycComp
}

// SetMycorrhizaDefaults draws the mycorrhizal parameters that a trait
// definition did not specify. hasZOI, hasComp and hasC tell which of
// MycZOI, MycComp and MycC were given.
func (t *Traits) SetMycorrhizaDefaults(rng RandomGenerator, hasZOI, hasComp, hasC bool) {
	open := func() float64 { return 1 - rng.Float64() } // (0,1]
	switch t.MycStat {
	case Obligate:
		if !hasZOI {
			t.MycZOI = open() + 1
		}
		if !hasComp {
			t.MycComp = open() / 2
		}
		if !hasC {
			t.MycC = rng.Float64()*0.4 + 0.1
		}
	case Facultative:
		if !hasZOI {
			t.MycZOI = rng.Float64() + 1
		}
		if !hasComp {
			t.MycComp = rng.Float64() + 1
		}
		if !hasC {
			t.MycC = rng.Float64()*0.1 + 0.1
		}
	case NonMycorrhizal:
		if !hasZOI {
			t.MycZOI = 1
		}
		if !hasComp {
			t.MycComp = 1
		}
		if !hasC {
			t.MycC = 0
		}
	}
}

// Validate checks that the required trait values have been set.
func (t *Traits) Validate() error {
	req := []struct {
		name string
		v    float64
	}{
		{"LMR", t.LMR}, {"m0", t.M0}, {"maxMass", t.MaxMass},
		{"seedMass", t.SeedMass}, {"dispersalDist", t.DispersalDist},
		{"Gmax", t.Gmax}, {"SLA", t.SLA}, {"palat", t.Palat},
		{"memory", float64(t.Memory)},
	}
	for _, r := range req {
		if r.v < 0 || math.IsNaN(r.v) {
			return fmt.Errorf("ibcgrass: PFT %s: trait %s must be non-negative, got %g", t.PFT, r.name, r.v)
		}
	}
	if t.LMR > 1 {
		return fmt.Errorf("ibcgrass: PFT %s: LMR must not exceed 1, got %g", t.PFT, t.LMR)
	}
	if t.Memory < 1 {
		return fmt.Errorf("ibcgrass: PFT %s: memory must be at least 1, got %d", t.PFT, t.Memory)
	}
	if t.Clonal && t.MSpacer <= 0 {
		return fmt.Errorf("ibcgrass: PFT %s: clonal PFTs need a positive mSpacer", t.PFT)
	}
	return nil
}

// Vary perturbs a species trait set into an individual one. Linked
// traits share one deviation drawn from N(0, sd); each draw is repeated
// until the deviation lies within [-1, 1] and every resulting trait is
// within its valid range.
func (t *Traits) Vary(rng RandomGenerator, sd float64) {
	invariant(t.Type == Species, "PFT %s: trait set has already been individualized", t.PFT)
	t.Type = Individualized

	outOfRange := func(dev float64) bool { return dev < -1 || dev > 1 }
	var dev float64

	for {
		dev = rng.Normal(0, sd)
		lmr := t.LMR + t.LMR*dev
		if !outOfRange(dev) && lmr >= 0 && lmr <= 1 {
			t.LMR = lmr
			break
		}
	}

	for {
		dev = rng.Normal(0, sd)
		m0 := t.M0 + t.M0*dev
		maxMass := t.MaxMass + t.MaxMass*dev
		seedMass := t.SeedMass + t.SeedMass*dev
		dist := t.DispersalDist - t.DispersalDist*dev
		if !outOfRange(dev) && m0 >= 0 && maxMass >= 0 && seedMass >= 0 && dist >= 0 {
			t.M0, t.MaxMass, t.SeedMass, t.DispersalDist = m0, maxMass, seedMass, dist
			t.maxMassPow43 = 0
			break
		}
	}

	for {
		dev = rng.Normal(0, sd)
		gmax := t.Gmax + t.Gmax*dev
		memory := int(float64(t.Memory) - float64(t.Memory)*dev)
		if !outOfRange(dev) && gmax >= 0 && memory >= 1 {
			t.Gmax, t.Memory = gmax, memory
			break
		}
	}

	for {
		dev = rng.Normal(0, sd)
		palat := t.Palat + t.Palat*dev
		sla := t.SLA + t.SLA*dev
		if !outOfRange(dev) && palat >= 0 && sla >= 0 {
			t.Palat, t.SLA = palat, sla
			break
		}
	}

	for {
		dev = rng.Normal(0, sd)
		mean := t.MeanSpacerLength + t.MeanSpacerLength*dev
		sdl := t.SdSpacerLength + t.SdSpacerLength*dev
		if !outOfRange(dev) && mean >= 0 && sdl >= 0 {
			t.MeanSpacerLength, t.SdSpacerLength = mean, sdl
			break
		}
	}
}

// TraitTemplates holds one canonical trait set per PFT, in the order
// the PFTs were defined.
type TraitTemplates struct {
	order []string
	byPFT map[string]*Traits
}

// NewTraitTemplates returns an empty template collection.
func NewTraitTemplates() *TraitTemplates {
	return &TraitTemplates{byPFT: make(map[string]*Traits)}
}

// Add adds a PFT template.
func (tt *TraitTemplates) Add(t *Traits) error {
	if _, ok := tt.byPFT[t.PFT]; ok {
		return fmt.Errorf("ibcgrass: duplicate PFT %q", t.PFT)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	t.Type = Species
	tt.byPFT[t.PFT] = t
	tt.order = append(tt.order, t.PFT)
	return nil
}

// Names returns the PFT names in insertion order.
func (tt *TraitTemplates) Names() []string { return tt.order }

// Len returns the number of PFTs.
func (tt *TraitTemplates) Len() int { return len(tt.order) }

// Get returns the template for pft.
func (tt *TraitTemplates) Get(pft string) (*Traits, bool) {
	t, ok := tt.byPFT[pft]
	return t, ok
}

// Clone returns a private copy of the template for pft.
func (tt *TraitTemplates) Clone(pft string) *Traits {
	t, ok := tt.byPFT[pft]
	invariant(ok, "no trait template for PFT %q", pft)
	return t.Clone()
}
