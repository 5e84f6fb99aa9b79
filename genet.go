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

// GenetID is the stable identifier of a genet within one run.
type GenetID int64

// Genet is a clonal individual. Ramets holds the identifiers of its
// established ramets; identifiers of plants that have been removed
// from the grid are pruned by Grid.RemovePlants.
type Genet struct {
	ID     GenetID
	Ramets []PlantID
}

// share pools the resource surplus of the living ramets on one layer
// and redistributes it evenly among them. The surplus of a ramet is its
// uptake above its minimum requirement.
func (g *Genet) share(layer Layer, lookup func(PlantID) *Plant) {
	var pool float64
	living := make([]*Plant, 0, len(g.Ramets))
	for _, id := range g.Ramets {
		p := lookup(id)
		if p == nil || p.Dead {
			continue
		}
		living = append(living, p)
		if minres := p.minres(layer); p.uptake(layer) > minres {
			pool += p.uptake(layer) - minres
			p.setUptake(layer, minres)
		}
	}
	if len(living) == 0 {
		return
	}
	mean := pool / float64(len(living))
	for _, p := range living {
		p.addUptake(layer, mean)
	}
}
