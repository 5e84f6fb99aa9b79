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

package ibcgrassutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ibcgrass"
	"github.com/spatialmodel/ibcgrass/internal/hash"
	"golang.org/x/sync/errgroup"
)

// Run is one replicate of one simulation file line.
type Run struct {
	Params    *ibcgrass.Parameters
	TraitFile string
	Seed      uint64
}

// RunResult is the outcome of a Run.
type RunResult struct {
	SimID       string
	Seed        uint64
	Fingerprint string // hash of the parameters and trait templates

	// Year is the last simulated year and Extinct tells whether the
	// run ended because the community went extinct.
	Year    int
	Extinct bool

	Duration time.Duration
	Err      error
}

// Expand turns a simulation file into its runs. Only the 1-based line
// is expanded if line > 0. Run k of line i (counting from 0) is seeded
// with startSeed + i·NRep + k, or with a clock-derived base seed if
// startSeed is negative. Trait file names are resolved against dataDir.
// All scenarios and trait files are checked here so that configuration
// errors surface before any run starts.
func Expand(sf *SimFile, base *ibcgrass.Parameters, dataDir string, line int, startSeed int64) ([]*Run, error) {
	seed0 := uint64(startSeed)
	if startSeed < 0 {
		seed0 = uint64(time.Now().UnixNano())
	}
	checked := make(map[string]int)
	var runs []*Run
	for i, s := range sf.Scenarios {
		if line > 0 && s.Line != line {
			continue
		}
		traitFile := resolveTraitFile(dataDir, s.NamePftFile)
		for k := 0; k < sf.NRep; k++ {
			p, err := s.Parameters(base)
			if err != nil {
				return nil, fmt.Errorf("ibcgrass: simulation file line %d: %v", s.Line, err)
			}
			p.RunNr = k
			if err := checkTraitFile(checked, traitFile, p); err != nil {
				return nil, fmt.Errorf("ibcgrass: simulation file line %d: %v", s.Line, err)
			}
			runs = append(runs, &Run{
				Params:    p,
				TraitFile: traitFile,
				Seed:      seed0 + uint64(i*sf.NRep+k),
			})
		}
	}
	if line > 0 && len(runs) == 0 {
		return nil, &ibcgrass.ConfigError{Field: "line", Msg: fmt.Sprintf("the simulation file has no line %d", line)}
	}
	return runs, nil
}

// checkTraitFile reads a trait file once and checks it against the
// experiment mode. checked caches the number of PFTs per file.
func checkTraitFile(checked map[string]int, path string, p *ibcgrass.Parameters) error {
	n, ok := checked[path]
	if !ok {
		tt, err := ReadTraits(path, ibcgrass.NewRand(0))
		if err != nil {
			return err
		}
		n = tt.Len()
		checked[path] = n
	}
	if p.Mode == ibcgrass.InvasionCriterion && n != 2 {
		return &ibcgrass.ConfigError{Field: "mode", Msg: fmt.Sprintf("invasion experiments need exactly 2 PFTs, %s has %d", path, n)}
	}
	return nil
}

// Execute performs the run. Results are sent to rec. A panic inside the
// simulation is recovered and returned as the run's error.
func (r *Run) Execute(rec ibcgrass.Recorder, log logrus.FieldLogger) (res RunResult) {
	start := time.Now()
	res = RunResult{SimID: r.Params.SimIDString(), Seed: r.Seed}
	defer func() {
		if v := recover(); v != nil {
			res.Err = fmt.Errorf("ibcgrass: run %s failed: %v", res.SimID, v)
		}
		res.Duration = time.Since(start)
	}()

	rng := ibcgrass.NewRand(r.Seed)
	traits, err := ReadTraits(r.TraitFile, rng)
	if err != nil {
		res.Err = err
		return res
	}
	res.Fingerprint = hash.Hash(r.Params, traits)
	l := log.WithFields(logrus.Fields{
		"simID":       res.SimID,
		"run":         r.Params.RunNr,
		"fingerprint": res.Fingerprint,
	})
	l.WithField("seed", r.Seed).Info("run started")

	g := ibcgrass.NewSimulation(ibcgrass.NewEnvironment(r.Params, traits, rng, rec, l))
	for _, f := range []func() error{g.Init, g.Run, g.Cleanup} {
		if err := f(); err != nil {
			res.Err = fmt.Errorf("ibcgrass: run %s: %v", res.SimID, err)
			return res
		}
	}
	res.Year, res.Extinct = g.Year, g.Done
	l.WithFields(logrus.Fields{"year": g.Year, "extinct": g.Done}).Info("run finished")
	return res
}

// RunReplicates performs the runs with at most procs of them active at
// once and waits for all of them to finish. Every run shares rec and
// nothing else. onDone, if not nil, is called once per completed run;
// the calls are serialized. A failed run does not stop the others; the
// returned error reports how many runs failed.
func RunReplicates(runs []*Run, procs int, rec ibcgrass.Recorder, log logrus.FieldLogger, onDone func(RunResult)) error {
	if procs < 1 {
		procs = 1
	}
	var g errgroup.Group
	g.SetLimit(procs)

	var mu sync.Mutex
	var failed int
	for _, r := range runs {
		r := r
		g.Go(func() error {
			res := r.Execute(rec, log)
			mu.Lock()
			defer mu.Unlock()
			if res.Err != nil {
				failed++
				log.WithField("simID", res.SimID).Error(res.Err)
			}
			if onDone != nil {
				onDone(res)
			}
			return nil
		})
	}
	g.Wait()
	if failed > 0 {
		return fmt.Errorf("ibcgrass: %d of %d runs failed", failed, len(runs))
	}
	return nil
}
