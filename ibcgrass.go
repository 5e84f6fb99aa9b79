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

// Package ibcgrass is an individual-based model of grassland plant
// communities. Plants live on a square torus of 1 cm² cells, compete
// for above- and below-ground resources within their zones of
// influence, grow, reproduce by seed and by clonal spacers, and are
// subjected to grazing, cutting and catastrophic disturbance in weekly
// time steps.
package ibcgrass

import (
	"fmt"
	"math"
)

// Version gives the version number.
const Version = "3.1.0"

// WeeksPerYear is the number of simulated weeks in one vegetation period.
const WeeksPerYear = 30

// DomainManipulator is a class of functions that operate on the entire
// simulation grid.
type DomainManipulator func(g *Grid) error

// ConfigError is returned when a simulation is configured with an
// invalid or unsupported combination of settings. Configuration errors
// are detected before the simulation starts.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "ibcgrass: invalid configuration: " + e.Msg
	}
	return fmt.Sprintf("ibcgrass: invalid configuration: %s: %s", e.Field, e.Msg)
}

func configErrorf(field, format string, a ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, a...)}
}

// InvariantError is the value a simulation panics with when its
// internal state becomes inconsistent.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "ibcgrass: invariant violated: " + e.Msg
}

// invariant panics with an *InvariantError if ok is false.
func invariant(ok bool, format string, a ...interface{}) {
	if !ok {
		panic(&InvariantError{Msg: fmt.Sprintf(format, a...)})
	}
}

// epsilon is the tolerance for treating two floating point numbers as equal.
const epsilon = 1e-9

// areSame returns whether a and b are equal within a relative tolerance.
func areSame(a, b float64) bool {
	return math.Abs(a-b) < epsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// Torus wraps the coordinates x and y onto a square torus with side n.
func Torus(x, y, n int) (int, int) {
	return wrap(x, n), wrap(y, n)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
