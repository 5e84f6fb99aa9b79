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
	"testing"
)

// competitionCell returns a grid cell shaded and rooted by four plants
// of two PFTs with different sizes.
func competitionCell(t *testing.T, v Stabilization) (*Grid, *Cell) {
	p := testParams(5)
	p.Stabilization = v
	g := testGrid(t, p, &scriptedRand{}, testTraits("A"), testTraits("B"))
	c := g.Cell(2, 2)
	for i, pft := range []string{"A", "A", "A", "B"} {
		pl := newPlant(g.newPlantID(), i, 0, g.Traits.Clone(pft))
		pl.MShoot *= float64(i + 1)
		pl.MRoot *= float64(i + 2)
		g.plants = append(g.plants, pl)
		g.plantByID[pl.ID] = pl
		c.Above = append(c.Above, pl.ID)
		c.Below = append(c.Below, pl.ID)
		c.PftNIndA[pft]++
		c.PftNIndB[pft]++
	}
	return g, c
}

func TestCompetitionConservesResources(t *testing.T) {
	const tolerance = 1.e-10
	for _, v := range []Stabilization{Version1, Version2, Version3} {
		t.Run(v.String(), func(t *testing.T) {
			g, c := competitionCell(t, v)
			c.AboveComp(g.strategy, g.Plant)
			c.BelowComp(g.strategy, g.Plant)
			var a, b float64
			for _, pl := range g.Plants() {
				a += pl.AUptake
				b += pl.BUptake
			}
			if different(a, c.AResConc, tolerance) {
				t.Errorf("above: have %g allocated, want %g", a, c.AResConc)
			}
			if different(b, c.BResConc, tolerance) {
				t.Errorf("below: have %g allocated, want %g", b, c.BResConc)
			}
			if c.AComp <= 0 || c.BComp <= 0 {
				t.Errorf("competition totals %g and %g should be positive", c.AComp, c.BComp)
			}
		})
	}
}

func TestCompetitionSymmetricBelow(t *testing.T) {
	g, c := competitionCell(t, Version1)
	c.BelowComp(g.strategy, g.Plant)
	want := c.BResConc / 4
	for _, pl := range g.Plants() {
		if different(pl.BUptake, want, 1.e-12) {
			t.Errorf("plant %d: have %g, want %g", pl.ID, pl.BUptake, want)
		}
	}
}

func TestCompetitionIntraspecificDiscount(t *testing.T) {
	g1, c1 := competitionCell(t, Version1)
	c1.BelowComp(g1.strategy, g1.Plant)
	g2, c2 := competitionCell(t, Version2)
	c2.BelowComp(g2.strategy, g2.Plant)

	// The single B plant gains relative to the three A plants.
	b1 := g1.Plants()[3].BUptake
	b2 := g2.Plants()[3].BUptake
	if b2 <= b1 {
		t.Errorf("B uptake with discount %g should exceed %g", b2, b1)
	}
}

// Version3 scales every occupant of a cell by the same diversity
// factor, so the split of resources is unchanged and only the
// competition totals shrink.
func TestCompetitionDiversityDiscount(t *testing.T) {
	g1, c1 := competitionCell(t, Version1)
	c1.AboveComp(g1.strategy, g1.Plant)
	c1.BelowComp(g1.strategy, g1.Plant)
	g3, c3 := competitionCell(t, Version3)
	c3.AboveComp(g3.strategy, g3.Plant)
	c3.BelowComp(g3.strategy, g3.Plant)

	for i, p1 := range g1.Plants() {
		p3 := g3.Plants()[i]
		if different(p1.AUptake, p3.AUptake, 1.e-12) || different(p1.BUptake, p3.BUptake, 1.e-12) {
			t.Errorf("plant %d: V1 uptake %g/%g, V3 uptake %g/%g",
				p1.ID, p1.AUptake, p1.BUptake, p3.AUptake, p3.BUptake)
		}
	}
	// Two PFTs on the cell give a factor of 2/3.
	if want := c1.AComp * Version3.Discount(2); different(c3.AComp, want, 1.e-12) {
		t.Errorf("above total: have %g, want %g", c3.AComp, want)
	}
	if want := c1.BComp * Version3.Discount(2); different(c3.BComp, want, 1.e-12) {
		t.Errorf("below total: have %g, want %g", c3.BComp, want)
	}
}

func TestCompetitionEmptyCell(t *testing.T) {
	g := testGrid(t, testParams(3), &scriptedRand{})
	c := g.Cell(1, 1)
	c.AComp, c.BComp = 5, 5
	c.AboveComp(g.strategy, g.Plant)
	c.BelowComp(g.strategy, g.Plant)
	if c.AComp != 0 || c.BComp != 0 {
		t.Errorf("have totals %g and %g, want 0", c.AComp, c.BComp)
	}
}

func TestDiscount(t *testing.T) {
	for n := 1; n < 50; n++ {
		if Version1.Discount(n) != 1 {
			t.Errorf("V1(%d) = %g", n, Version1.Discount(n))
		}
		if Version2.Discount(n+1) >= Version2.Discount(n) {
			t.Errorf("V2(%d) = %g is not below V2(%d) = %g", n+1, Version2.Discount(n+1), n, Version2.Discount(n))
		}
		v3, v3next := Version3.Discount(n), Version3.Discount(n+1)
		if v3next <= v3 || v3next >= 1 {
			t.Errorf("V3(%d) = %g should be in (%g, 1)", n+1, v3next, v3)
		}
	}
	if have, want := Version2.Discount(4), 0.5; have != want {
		t.Errorf("V2(4): have %g, want %g", have, want)
	}
	if have, want := Version3.Discount(3), 0.75; math.Abs(have-want) > 1e-15 {
		t.Errorf("V3(3): have %g, want %g", have, want)
	}
}

func TestGerminate(t *testing.T) {
	c := newCell(0, 0)
	for i, m := range []float64{1, 2, 4} {
		c.SeedBank = append(c.SeedBank, &Seed{PEstab: 0.5, Mass: m, Cell: i})
	}
	sum := c.Germinate(&scriptedRand{floats: []float64{0.1, 0.9, 0.2}})
	if sum != 5 {
		t.Errorf("germinated mass: have %g, want 5", sum)
	}
	if len(c.Seedlings) != 2 || len(c.SeedBank) != 1 {
		t.Fatalf("have %d seedlings and %d seeds, want 2 and 1", len(c.Seedlings), len(c.SeedBank))
	}
	if c.SeedBank[0].Mass != 2 {
		t.Errorf("remaining seed has mass %g, want 2", c.SeedBank[0].Mass)
	}
}
