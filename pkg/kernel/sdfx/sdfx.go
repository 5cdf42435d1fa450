// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. It evaluates the same
// construction the graph builder records, so geometric properties of an
// ommatidium (extent, volume, mesh) can be checked without a CSG backend.
package sdfx

import (
	"fmt"

	"github.com/chazu/motheye/pkg/geom"
	"github.com/chazu/motheye/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*SdfxKernel)(nil)
var _ kernel.Mesher = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid. Convex solids
// also keep their vertex set so Hull can merge them.
type sdfxSolid struct {
	s      sdf.SDF3
	points []r3.Vec // nil unless the solid is convex
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() r3.Box {
	bb := s.s.BoundingBox()
	return r3.Box{Min: fromV3(bb.Min), Max: fromV3(bb.Max)}
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{cells: defaultMeshCells}
}

// WithCells returns a copy of k that meshes with the given marching cubes
// resolution along the longest bounding box axis.
func (k *SdfxKernel) WithCells(cells int) *SdfxKernel {
	return &SdfxKernel{cells: cells}
}

// unwrap extracts the underlying sdfxSolid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

func toV3(v r3.Vec) v3.Vec   { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromV3(v v3.Vec) r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// Polyhedron creates a solid from a closed convex point/face description.
// sdfx has no mesh primitive, so the solid is the convex hull of points;
// faces are only checked for range.
func (k *SdfxKernel) Polyhedron(points []r3.Vec, faces [][]int) (kernel.Solid, error) {
	if err := kernel.CheckFaces(len(points), faces); err != nil {
		return nil, fmt.Errorf("sdfx polyhedron: %w", err)
	}
	c, err := newConvex(points)
	if err != nil {
		return nil, fmt.Errorf("sdfx polyhedron: %w", err)
	}
	return &sdfxSolid{s: c, points: c.points}, nil
}

// Sphere creates a sphere centred at the origin.
func (k *SdfxKernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return wrap(s)
}

// Hull returns the convex hull of convex solids (polyhedra and hulls).
// Hulls of curved or non-convex solids are not supported.
func (k *SdfxKernel) Hull(solids ...kernel.Solid) kernel.Solid {
	var points []r3.Vec
	for _, s := range solids {
		ss := unwrap(s)
		if ss.points == nil {
			panic("sdfx: hull of a non-convex solid is not supported")
		}
		points = append(points, ss.points...)
	}
	c, err := newConvex(points)
	if err != nil {
		panic(fmt.Sprintf("sdfx hull: %v", err))
	}
	return &sdfxSolid{s: c, points: c.points}
}

// Union returns the union of solids.
func (k *SdfxKernel) Union(solids ...kernel.Solid) kernel.Solid {
	if len(solids) == 1 {
		return solids[0]
	}
	parts := make([]sdf.SDF3, len(solids))
	for i, s := range solids {
		parts[i] = unwrap(s).s
	}
	return wrap(sdf.Union3D(parts...))
}

// Difference returns base minus every subtrahend.
func (k *SdfxKernel) Difference(base kernel.Solid, subtrahends ...kernel.Solid) kernel.Solid {
	out := unwrap(base).s
	for _, s := range subtrahends {
		out = sdf.Difference3D(out, unwrap(s).s)
	}
	return wrap(out)
}

// Rotate rotates a solid by Euler angles (degrees) around X, then Y, then Z.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.RotateZ(geom.Deg2Rad(z)).Mul(sdf.RotateY(geom.Deg2Rad(y))).Mul(sdf.RotateX(geom.Deg2Rad(x)))
	return wrap(sdf.Transform3D(unwrap(s).s, m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s).s

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// Volume estimates the volume of s by sampling the distance field at the
// centres of a cells×cells×cells grid over its bounding box.
func (k *SdfxKernel) Volume(s kernel.Solid, cells int) float64 {
	sdf3 := unwrap(s).s
	bb := sdf3.BoundingBox()
	n := float64(cells)
	dx := (bb.Max.X - bb.Min.X) / n
	dy := (bb.Max.Y - bb.Min.Y) / n
	dz := (bb.Max.Z - bb.Min.Z) / n

	inside := 0
	for i := 0; i < cells; i++ {
		x := bb.Min.X + (float64(i)+0.5)*dx
		for j := 0; j < cells; j++ {
			y := bb.Min.Y + (float64(j)+0.5)*dy
			for l := 0; l < cells; l++ {
				z := bb.Min.Z + (float64(l)+0.5)*dz
				if sdf3.Evaluate(v3.Vec{X: x, Y: y, Z: z}) <= 0 {
					inside++
				}
			}
		}
	}
	return float64(inside) * dx * dy * dz
}
