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

// Layer is a resource layer of a cell.
type Layer int

// Resource layers.
const (
	Above Layer = iota + 1
	Below
)

// Strategy is the competition strategy of the cells of a grid: the size
// symmetry of each layer and the intraspecific discount version.
type Strategy struct {
	Above, Below  CompMode
	Stabilization Stabilization
}

// Discount is the intraspecific crowding discount multiplied into a
// plant's competitive weight. For Version2, n is the number of
// individuals of the plant's own PFT on the cell layer; for Version3 it
// is the number of distinct PFTs on the cell layer.
func (s Stabilization) Discount(n int) float64 {
	switch s {
	case Version1:
		return 1
	case Version2:
		if n <= 0 {
			return 1
		}
		return 1 / math.Sqrt(float64(n))
	case Version3:
		return float64(n) / (1 + float64(n))
	default:
		panic("ibcgrass: invalid stabilization version")
	}
}

// Cell is one 1 cm² grid location.
type Cell struct {
	X, Y int

	AResConc, BResConc float64 // resource concentrations
	AComp, BComp       float64 // competition totals of the current week

	// Occupied is true once a plant has established here and until it
	// has been removed.
	Occupied bool

	// Above and Below hold the plants whose zone of influence covers
	// this cell in the current week. Dead plants still shade, so they
	// are included Above but not Below.
	Above, Below []PlantID

	// PftNIndA and PftNIndB count the plants of each PFT in Above and
	// Below.
	PftNIndA, PftNIndB map[string]int

	SeedBank  []*Seed
	Seedlings []*Seed
}

func newCell(x, y int) *Cell {
	return &Cell{
		X:        x,
		Y:        y,
		PftNIndA: make(map[string]int),
		PftNIndB: make(map[string]int),
	}
}

// weeklyReset clears the zone of influence data and the seedlings.
func (c *Cell) weeklyReset() {
	c.Above = c.Above[:0]
	c.Below = c.Below[:0]
	for k := range c.PftNIndA {
		delete(c.PftNIndA, k)
	}
	for k := range c.PftNIndB {
		delete(c.PftNIndB, k)
	}
	c.Seedlings = c.Seedlings[:0]
	c.AComp, c.BComp = 0, 0
}

// compete distributes resource res among the plants ids proportional to
// their competitive weights and returns the total weight. counts is
// the per-PFT occupancy of the layer.
func compete(res float64, ids []PlantID, lookup func(PlantID) *Plant, layer Layer,
	mode CompMode, v Stabilization, counts map[string]int) float64 {
	if len(ids) == 0 {
		return 0
	}
	weight := func(p *Plant) float64 {
		w := p.CompCoef(layer, mode)
		switch v {
		case Version2:
			w *= v.Discount(counts[p.pft()])
		case Version3:
			w *= v.Discount(len(counts))
		}
		return w
	}
	var total float64
	for _, id := range ids {
		p := lookup(id)
		invariant(p != nil, "cell references missing plant %d", id)
		total += weight(p)
	}
	if total <= 0 {
		return 0
	}
	for _, id := range ids {
		p := lookup(id)
		p.addUptake(layer, res*weight(p)/total)
	}
	return total
}

// AboveComp distributes the above-ground resource among the plants
// shading the cell.
func (c *Cell) AboveComp(s Strategy, lookup func(PlantID) *Plant) {
	c.AComp = compete(c.AResConc, c.Above, lookup, Above, s.Above, s.Stabilization, c.PftNIndA)
}

// BelowComp distributes the below-ground resource among the plants
// rooting in the cell.
func (c *Cell) BelowComp(s Strategy, lookup func(PlantID) *Plant) {
	c.BComp = compete(c.BResConc, c.Below, lookup, Below, s.Below, s.Stabilization, c.PftNIndB)
}

// Germinate moves each seed of the seed bank to the seedlings with its
// germination probability. It returns the total mass of the seedlings.
func (c *Cell) Germinate(rng RandomGenerator) float64 {
	var sum float64
	bank := c.SeedBank[:0]
	for _, s := range c.SeedBank {
		if rng.Float64() < s.PEstab {
			sum += s.Mass
			c.Seedlings = append(c.Seedlings, s)
		} else {
			bank = append(bank, s)
		}
	}
	for i := len(bank); i < len(c.SeedBank); i++ {
		c.SeedBank[i] = nil
	}
	c.SeedBank = bank
	return sum
}

// removeSeeds drops the seeds flagged for removal.
func (c *Cell) removeSeeds() {
	bank := c.SeedBank[:0]
	for _, s := range c.SeedBank {
		if !s.remove {
			bank = append(bank, s)
		}
	}
	for i := len(bank); i < len(c.SeedBank); i++ {
		c.SeedBank[i] = nil
	}
	c.SeedBank = bank
}
