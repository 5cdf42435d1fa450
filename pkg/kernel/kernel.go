// Package kernel defines the abstract CSG kernel interface.
// Implementations (the graph builder, sdfx) provide the solid primitives,
// boolean operations and rotations behind this interface. The ommatidium
// builder and the eye tiler only ever talk to a Kernel, so the same
// construction can be serialized as a tree or evaluated geometrically.
package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() r3.Box
}

// Kernel is the abstract CSG capability interface. All operations are pure:
// inputs are never mutated and results compose into a tree.
type Kernel interface {
	// Primitives
	Polyhedron(points []r3.Vec, faces [][]int) (Solid, error)
	Sphere(radius float64) Solid

	// Boolean operations
	Hull(solids ...Solid) Solid
	Union(solids ...Solid) Solid
	Difference(base Solid, subtrahends ...Solid) Solid

	// Transforms
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, X then Y then Z
}

// Mesher is implemented by kernels that can tessellate a solid.
type Mesher interface {
	ToMesh(s Solid) (*Mesh, error)
}

// CheckFaces reports the first face that has fewer than three indices or
// references a point outside [0, numPoints).
func CheckFaces(numPoints int, faces [][]int) error {
	if len(faces) == 0 {
		return fmt.Errorf("polyhedron has no faces")
	}
	for i, f := range faces {
		if len(f) < 3 {
			return fmt.Errorf("face %d has %d indices, need at least 3", i, len(f))
		}
		for _, idx := range f {
			if idx < 0 || idx >= numPoints {
				return fmt.Errorf("face %d references point %d, have %d points", i, idx, numPoints)
			}
		}
	}
	return nil
}

// EmptyBox is the identity for Enclose.
func EmptyBox() r3.Box {
	inf := math.Inf(1)
	return r3.Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// Enclose grows b to contain p.
func Enclose(b r3.Box, p r3.Vec) r3.Box {
	b.Min = r3.Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
	b.Max = r3.Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	return b
}

// MergeBoxes returns the smallest box containing every input box.
func MergeBoxes(boxes ...r3.Box) r3.Box {
	out := EmptyBox()
	for _, b := range boxes {
		out = Enclose(out, b.Min)
		out = Enclose(out, b.Max)
	}
	return out
}

// Corners returns the eight corners of b.
func Corners(b r3.Box) [8]r3.Vec {
	var c [8]r3.Vec
	for i := range c {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		c[i] = p
	}
	return c
}
