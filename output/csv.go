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

package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spatialmodel/ibcgrass"
)

// csvSeparator separates the values of CSV rows.
const csvSeparator = ", "

// CSV writes each result stream to <dir>/<prefix>_<stream>.csv. Files
// are created when the first row of their stream arrives. The header is
// only written to files that did not exist before, so repeated
// invocations append to the same files.
type CSV struct {
	dir, prefix string

	// openMu guards files; writeMu serializes writes.
	openMu  sync.Mutex
	writeMu sync.Mutex
	files   map[string]*csvFile
}

type csvFile struct {
	f *os.File
	w *bufio.Writer
}

// NewCSV returns a CSV recorder.
func NewCSV(dir, prefix string) *CSV {
	return &CSV{dir: dir, prefix: prefix, files: make(map[string]*csvFile)}
}

// Path returns the file that stream is written to.
func (c *CSV) Path(stream string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.csv", c.prefix, stream))
}

func (c *CSV) file(r ibcgrass.Row) (*csvFile, error) {
	c.openMu.Lock()
	defer c.openMu.Unlock()
	if f, ok := c.files[r.Stream()]; ok {
		return f, nil
	}
	path := c.Path(r.Stream())
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("ibcgrass: opening %s output: %v", r.Stream(), err)
	}
	cf := &csvFile{f: f, w: bufio.NewWriter(f)}
	if os.IsNotExist(statErr) {
		if _, err := fmt.Fprintln(cf.w, strings.Join(r.Columns(), csvSeparator)); err != nil {
			f.Close()
			return nil, err
		}
	}
	c.files[r.Stream()] = cf
	return cf, nil
}

// Record implements ibcgrass.Recorder.
func (c *CSV) Record(r ibcgrass.Row) error {
	f, err := c.file(r)
	if err != nil {
		return err
	}
	vals := r.Values()
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = formatValue(v)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := fmt.Fprintln(f.w, strings.Join(s, csvSeparator)); err != nil {
		return fmt.Errorf("ibcgrass: writing %s output: %v", r.Stream(), err)
	}
	return nil
}

// Close flushes and closes all files.
func (c *CSV) Close() error {
	c.openMu.Lock()
	defer c.openMu.Unlock()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	var first error
	for stream, f := range c.files {
		if err := f.w.Flush(); err != nil && first == nil {
			first = err
		}
		if err := f.f.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.files, stream)
	}
	return first
}
