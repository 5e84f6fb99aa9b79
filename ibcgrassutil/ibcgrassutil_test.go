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
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ibcgrass"
)

const (
	traitHeader = "PFT_ID allocSeed LMR m0 maxMass seedMass dispersalDist pEstab Gmax SLA palat memory RAR growth mThres clonal meanSpacerlength sdSpacerlength resourceShare allocSpacer mSpacer mycStat mycZOI mycCOMP mycC\n"
	traitA      = "A 0.05 0.5 10 2000 0.3 0.2 0.5 20 1 0.5 4 1 0.25 0.2 0 0 0 0 0 0 NM\n"
	traitB      = "B 0.05 0.6 12 2400 0.36 0.16 0.5 21 0.9 0.45 3 1 0.25 0.2 1 3 1 1 0.05 70 OM 1.5 0.25 20\n"

	simHeader = "SimID ComNr IC_version mode ITVsd Tmax meanARes meanBRes AbvGrazProb AbvPropRemoved BelGrazProb BelGrazPerc BelGrazAlpha BelGrazHistorySize CatastrophicPlantMortality CatastrophicDistWeek SeedRainType SeedInput weekly ind_out PFT_out srv_out trait_out aggregated_out NamePftFile\n"
)

// simLine returns a simulation file line with the given identifiers,
// experiment mode and trait file.
func simLine(simID, mode int, traitFile string) string {
	return strings.Join([]string{
		strconv.Itoa(simID), "1", "0", strconv.Itoa(mode), "0", "2", "100", "100",
		"0", "0", "0", "0", "2", "60", "0", "20", "0", "0",
		"0", "0", "2", "1", "1", "1", traitFile,
	}, " ") + "\n"
}

func writeFile(t *testing.T, dir, name, contents string) string {
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testBase() *ibcgrass.Parameters {
	p := ibcgrass.DefaultParameters()
	p.GridSize = 10
	return p
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = ioutil.Discard
	return log
}

// memRecorder stores rows in memory.
type memRecorder struct {
	mu   sync.Mutex
	rows []ibcgrass.Row
}

func (r *memRecorder) Record(row ibcgrass.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *memRecorder) count(stream string) int {
	var n int
	for _, row := range r.rows {
		if row.Stream() == stream {
			n++
		}
	}
	return n
}
