// Package ommatidium builds a single ommatidium: a hollow hexagonal pyramid
// whose apex sits at the origin and whose hexagonal base lies on the outer
// sphere, clipped by the inner sphere.
package ommatidium

import (
	"fmt"
	"math"

	"github.com/chazu/motheye/pkg/geom"
	"github.com/chazu/motheye/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Faces is the fixed face list of the pyramid: six triangles fanning from
// the apex (vertex 0) around the rim, then the hexagonal base.
var Faces = [][]int{
	{0, 1, 2},
	{0, 2, 3},
	{0, 3, 4},
	{0, 4, 5},
	{0, 5, 6},
	{0, 6, 1},
	{1, 2, 3, 4, 5, 6},
}

// Params are the scalar inputs of an ommatidium.
type Params struct {
	OuterSphereRadius float64 // axial distance from apex to the hexagonal base
	InnerSphereRadius float64 // radius of the clipping sphere
	Radius            float64 // footprint circumradius of the outer hexagon
	Thickness         float64 // wall thickness, subtracted from Radius for the inner hexagon
}

// FootprintRadius returns the hexagon circumradius that subtends
// halfAngleDeg at the centre of a sphere of radius outerRadius.
func FootprintRadius(halfAngleDeg, outerRadius float64) float64 {
	return math.Tan(geom.Deg2Rad(halfAngleDeg)) * outerRadius
}

// Validate reports the first invalid parameter as a *geom.GeometryError.
func (p Params) Validate() error {
	checks := []struct {
		field string
		v     float64
	}{
		{"outer sphere radius", p.OuterSphereRadius},
		{"inner sphere radius", p.InnerSphereRadius},
		{"ommatidium radius", p.Radius},
		{"thickness", p.Thickness},
	}
	for _, c := range checks {
		if err := geom.RequirePositive(c.field, c.v); err != nil {
			return err
		}
	}
	if p.Thickness >= p.Radius {
		return geom.Invalid("thickness", p.Thickness,
			fmt.Sprintf("must be less than the ommatidium radius %g", p.Radius))
	}
	if p.InnerSphereRadius >= p.OuterSphereRadius {
		return geom.Invalid("inner sphere radius", p.InnerSphereRadius,
			fmt.Sprintf("must be less than the outer sphere radius %g", p.OuterSphereRadius))
	}
	return nil
}

// InnerRadius is the circumradius of the hollowing hexagon.
func (p Params) InnerRadius() float64 {
	return p.Radius - p.Thickness
}

// OuterPoints returns the apex followed by the six outer rim vertices.
func (p Params) OuterPoints() ([]r3.Vec, error) {
	return pyramidPoints(p.Radius, p.OuterSphereRadius)
}

// InnerPoints returns the apex followed by the six inner rim vertices. The
// inner rim sits at the same axial depth as the outer one.
func (p Params) InnerPoints() ([]r3.Vec, error) {
	return pyramidPoints(p.InnerRadius(), p.OuterSphereRadius)
}

// pyramidPoints lays the hexagonal shell of radius shellRadius in the plane
// x = depth: a shell vertex (sx, sy, 0) becomes (depth, sx, sy).
func pyramidPoints(shellRadius, depth float64) ([]r3.Vec, error) {
	shell, err := geom.HexagonalShell(shellRadius)
	if err != nil {
		return nil, err
	}
	points := make([]r3.Vec, 0, len(shell)+1)
	points = append(points, r3.Vec{})
	for _, v := range shell {
		v = geom.Round(v, geom.VertexPrecision)
		points = append(points, r3.Vec{X: depth, Y: v.X, Z: v.Y})
	}
	return points, nil
}

// Build constructs the ommatidium on k:
//
//	difference(hull(outer pyramid), hull(inner pyramid), sphere(inner radius))
//
// Invalid parameters return a *geom.GeometryError and no solid.
func Build(k kernel.Kernel, p Params) (kernel.Solid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	outerPts, err := p.OuterPoints()
	if err != nil {
		return nil, err
	}
	innerPts, err := p.InnerPoints()
	if err != nil {
		return nil, err
	}
	if innerPts[1].Y >= outerPts[1].Y {
		// Rounding to VertexPrecision can erase a very thin wall.
		return nil, geom.Invalid("thickness", p.Thickness,
			fmt.Sprintf("wall vanishes at %d decimal places", geom.VertexPrecision))
	}

	outer, err := k.Polyhedron(outerPts, Faces)
	if err != nil {
		return nil, fmt.Errorf("ommatidium: outer shell: %w", err)
	}
	inner, err := k.Polyhedron(innerPts, Faces)
	if err != nil {
		return nil, fmt.Errorf("ommatidium: inner shell: %w", err)
	}

	return k.Difference(
		k.Hull(outer),
		k.Hull(inner),
		k.Sphere(p.InnerSphereRadius),
	), nil
}
