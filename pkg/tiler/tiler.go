// Package tiler places rotated copies of an ommatidium over a patch of the
// sphere. A Policy turns the ommatidium footprint into a placement grid;
// Tile unions one rotated copy per grid point.
package tiler

import (
	"fmt"

	"github.com/chazu/motheye/pkg/geom"
	"github.com/chazu/motheye/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Placement is one grid point, in degrees.
type Placement struct {
	Elevation float64 `json:"elevation"`
	Azimuth   float64 `json:"azimuth"`
}

// Direction returns the unit vector the ommatidium axis points along once
// rotated by (0, Elevation, Azimuth). The template axis is +X, so positive
// elevations tilt it below the equator.
func (p Placement) Direction() r3.Vec {
	return geom.RotateXYZ(r3.Vec{X: 1}, 0, p.Elevation, p.Azimuth)
}

// Row is the run of placements sharing one elevation.
type Row struct {
	Elevation float64
	Count     int
}

// Grid is an ordered set of placements, elevation-major.
type Grid struct {
	Placements []Placement
	rows       []Row
}

func (g *Grid) appendRow(el float64, azimuths []float64) {
	for _, az := range azimuths {
		g.Placements = append(g.Placements, Placement{Elevation: el, Azimuth: az})
	}
	g.rows = append(g.rows, Row{Elevation: el, Count: len(azimuths)})
}

// Len returns the number of placements.
func (g Grid) Len() int {
	return len(g.Placements)
}

// Rows summarises the grid per elevation, in generation order.
func (g Grid) Rows() []Row {
	return append([]Row(nil), g.rows...)
}

// Tile unions one copy of ommatidium per placement, each rotated by
// (0, elevation, azimuth) degrees. The template is shared, never modified.
func Tile(k kernel.Kernel, ommatidium kernel.Solid, g Grid) (kernel.Solid, error) {
	if ommatidium == nil {
		return nil, fmt.Errorf("tile: no ommatidium")
	}
	if g.Len() == 0 {
		return nil, geom.Invalid("placements", 0, "grid is empty")
	}
	children := make([]kernel.Solid, 0, g.Len())
	for _, p := range g.Placements {
		children = append(children, k.Rotate(ommatidium, 0, p.Elevation, p.Azimuth))
	}
	return k.Union(children...), nil
}
