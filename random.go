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
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomGenerator is the source of all stochastic decisions in a
// simulation run.
type RandomGenerator interface {
	// Float64 returns a uniform draw in [0,1).
	Float64() float64
	// Normal returns a Gaussian draw.
	Normal(mean, sd float64) float64
	// Intn returns a uniform integer in [0,n).
	Intn(n int) int
	// Shuffle pseudo-randomizes the order of n elements.
	Shuffle(n int, swap func(i, j int))
}

// Rand is the default RandomGenerator. It is not safe for concurrent
// use; each simulation run owns its own instance.
type Rand struct {
	src rand.Source
	r   *rand.Rand
}

// NewRand returns a random generator seeded with seed.
func NewRand(seed uint64) *Rand {
	src := rand.NewSource(seed)
	return &Rand{src: src, r: rand.New(src)}
}

// Float64 implements RandomGenerator.
func (r *Rand) Float64() float64 { return r.r.Float64() }

// Normal implements RandomGenerator.
func (r *Rand) Normal(mean, sd float64) float64 {
	if sd == 0 {
		return mean
	}
	return distuv.Normal{Mu: mean, Sigma: sd, Src: r.src}.Rand()
}

// Intn implements RandomGenerator.
func (r *Rand) Intn(n int) int { return r.r.Intn(n) }

// Shuffle implements RandomGenerator.
func (r *Rand) Shuffle(n int, swap func(i, j int)) { r.r.Shuffle(n, swap) }
