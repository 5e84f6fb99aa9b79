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

// Seed is a dormant propagule in a cell's seed bank.
type Seed struct {
	Traits *Traits
	PEstab float64 // germination probability
	Mass   float64
	Age    int // years
	Cell   int // index of the containing cell

	remove bool
}

// newSeed creates a seed from a private copy of a trait template. If
// pEstab is negative, the germination probability is taken from the
// traits.
func newSeed(t *Traits, cell int, pEstab float64, itv bool, sd float64, rng RandomGenerator) *Seed {
	if itv {
		t.Vary(rng, sd)
	}
	if pEstab < 0 {
		pEstab = t.PEstab
	}
	return &Seed{
		Traits: t,
		PEstab: pEstab,
		Mass:   t.SeedMass,
		Cell:   cell,
	}
}
