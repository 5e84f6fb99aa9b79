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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PFTStats aggregates the living plants of one PFT.
type PFTStats struct {
	Pop                        int
	Shootmass, Rootmass, Repro float64
}

// PFTSummary holds one PFTStats for every PFT of the trait templates,
// in template order.
type PFTSummary struct {
	Names []string
	Stats map[string]*PFTStats
}

// Summarize aggregates the living plants by PFT. PFTs without living
// plants are included with zero values.
func (g *Grid) Summarize() *PFTSummary {
	s := &PFTSummary{
		Names: append([]string(nil), g.Traits.Names()...),
		Stats: make(map[string]*PFTStats, g.Traits.Len()),
	}
	for _, name := range s.Names {
		s.Stats[name] = new(PFTStats)
	}
	for _, p := range g.plants {
		if p.Dead {
			continue
		}
		st, ok := s.Stats[p.pft()]
		if !ok {
			st = new(PFTStats)
			s.Stats[p.pft()] = st
			s.Names = append(s.Names, p.pft())
		}
		st.Pop++
		st.Shootmass += p.MShoot
		st.Rootmass += p.MRoot
		st.Repro += p.MRepro
	}
	return s
}

func (s *PFTSummary) pops() []float64 {
	pops := make([]float64, len(s.Names))
	for i, name := range s.Names {
		pops[i] = float64(s.Stats[name].Pop)
	}
	return pops
}

// Shannon is the Shannon diversity index of the PFT populations.
func (s *PFTSummary) Shannon() float64 {
	pops := s.pops()
	total := floats.Sum(pops)
	if total == 0 {
		return 0
	}
	p := make([]float64, 0, len(pops))
	for _, n := range pops {
		if n > 0 {
			p = append(p, n/total)
		}
	}
	h := stat.Entropy(p)
	if areSame(h, 0) {
		return 0
	}
	return h
}

// Richness is the number of PFTs with living plants.
func (s *PFTSummary) Richness() int {
	var n int
	for _, name := range s.Names {
		if s.Stats[name].Pop > 0 {
			n++
		}
	}
	return n
}

// brayCurtisWindow is the number of years over which the reference
// populations are averaged.
const brayCurtisWindow = 10

// BrayCurtis computes the Bray-Curtis dissimilarity of the current PFT
// populations to their mean over the years leading up to a benchmark
// year.
type BrayCurtis struct {
	benchmark, window int
	pre               map[string]int
	lastYear          int
}

// NewBrayCurtis returns a dissimilarity tracker that averages the
// populations over window years ending with year benchmark.
func NewBrayCurtis(benchmark, window int) *BrayCurtis {
	return &BrayCurtis{
		benchmark: benchmark,
		window:    window,
		pre:       make(map[string]int),
	}
}

// Observe records the populations of year and returns the
// dissimilarity. Only the first observation of every year contributes
// to the reference populations. ok is false up to and including the
// benchmark year.
func (bc *BrayCurtis) Observe(s *PFTSummary, year int) (d float64, ok bool) {
	if year > bc.benchmark-bc.window && year <= bc.benchmark && year != bc.lastYear {
		bc.lastYear = year
		for _, name := range s.Names {
			bc.pre[name] += s.Stats[name].Pop
		}
		if year == bc.benchmark {
			for name := range bc.pre {
				bc.pre[name] /= bc.window
			}
		}
	}
	if year <= bc.benchmark {
		return 0, false
	}

	var dist, now, past int
	for _, name := range s.Names {
		pop := s.Stats[name].Pop
		diff := bc.pre[name] - pop
		if diff < 0 {
			diff = -diff
		}
		dist += diff
		now += pop
	}
	for _, n := range bc.pre {
		past += n
	}
	if now+past == 0 {
		return 0, true
	}
	return float64(dist) / float64(now+past), true
}

// MeanTraits are the means of selected traits over the living plants.
type MeanTraits struct {
	LMR, MaxMass, Gmax, SLA float64
}

// MeanTraits averages the traits of the living plants. It returns zero
// values when no plant is alive.
func (g *Grid) MeanTraits() MeanTraits {
	var lmr, maxMass, gmax, sla []float64
	for _, p := range g.plants {
		if p.Dead {
			continue
		}
		lmr = append(lmr, p.Traits.LMR)
		maxMass = append(maxMass, p.Traits.MaxMass)
		gmax = append(gmax, p.Traits.Gmax)
		sla = append(sla, p.Traits.SLA)
	}
	if len(lmr) == 0 {
		return MeanTraits{}
	}
	return MeanTraits{
		LMR:     stat.Mean(lmr, nil),
		MaxMass: stat.Mean(maxMass, nil),
		Gmax:    stat.Mean(gmax, nil),
		SLA:     stat.Mean(sla, nil),
	}
}

// FeedingPressure returns the target removal and the living root mass
// of the latest below-ground grazing event, or zeros if there has been
// none.
func (g *Grid) FeedingPressure() (target, rootmass float64) {
	if !g.grazed {
		return 0, 0
	}
	return g.feedingPressure, g.grazedRootmass
}
