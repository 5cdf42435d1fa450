package graph

import (
	"fmt"

	"github.com/chazu/motheye/pkg/geom"
	"github.com/chazu/motheye/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Builder)(nil)

// Builder implements kernel.Kernel by recording operations as tree nodes.
// It holds no state; one Builder can be shared freely.
type Builder struct{}

// NewBuilder returns a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// unwrap extracts the *Node behind a kernel.Solid.
func unwrap(s kernel.Solid) *Node {
	n, ok := s.(*Node)
	if !ok {
		panic(fmt.Sprintf("graph: solid %T was not built by graph.Builder", s))
	}
	return n
}

func unwrapAll(solids []kernel.Solid) []*Node {
	nodes := make([]*Node, len(solids))
	for i, s := range solids {
		nodes[i] = unwrap(s)
	}
	return nodes
}

// Polyhedron records a polyhedron primitive. Points and faces are copied.
func (b *Builder) Polyhedron(points []r3.Vec, faces [][]int) (kernel.Solid, error) {
	if err := kernel.CheckFaces(len(points), faces); err != nil {
		return nil, fmt.Errorf("polyhedron: %w", err)
	}
	data := PolyhedronData{
		Points: append([]r3.Vec(nil), points...),
		Faces:  make([][]int, len(faces)),
	}
	box := kernel.EmptyBox()
	for _, p := range points {
		box = kernel.Enclose(box, p)
	}
	for i, f := range faces {
		data.Faces[i] = append([]int(nil), f...)
	}
	return &Node{Kind: NodePolyhedron, Data: data, box: box}, nil
}

// Sphere records a sphere centred at the origin.
func (b *Builder) Sphere(radius float64) kernel.Solid {
	r := r3.Vec{X: radius, Y: radius, Z: radius}
	return &Node{
		Kind: NodeSphere,
		Data: SphereData{Radius: radius},
		box:  r3.Box{Min: r3.Scale(-1, r), Max: r},
	}
}

// Hull records the convex hull of solids.
func (b *Builder) Hull(solids ...kernel.Solid) kernel.Solid {
	return combine(NodeHull, unwrapAll(solids))
}

// Union records the union of solids.
func (b *Builder) Union(solids ...kernel.Solid) kernel.Solid {
	return combine(NodeUnion, unwrapAll(solids))
}

// Difference records base minus every subtrahend.
func (b *Builder) Difference(base kernel.Solid, subtrahends ...kernel.Solid) kernel.Solid {
	children := append([]*Node{unwrap(base)}, unwrapAll(subtrahends)...)
	return &Node{Kind: NodeDifference, Children: children, box: children[0].box}
}

// Rotate records a rotation by Euler angles in degrees.
func (b *Builder) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	child := unwrap(s)
	box := kernel.EmptyBox()
	if child.box.Min.X <= child.box.Max.X {
		for _, c := range kernel.Corners(child.box) {
			box = kernel.Enclose(box, geom.RotateXYZ(c, x, y, z))
		}
	}
	return &Node{
		Kind:     NodeRotate,
		Children: []*Node{child},
		Data:     RotateData{Angles: r3.Vec{X: x, Y: y, Z: z}},
		box:      box,
	}
}

func combine(kind NodeKind, children []*Node) *Node {
	boxes := make([]r3.Box, len(children))
	for i, c := range children {
		boxes[i] = c.box
	}
	return &Node{Kind: kind, Children: children, box: kernel.MergeBoxes(boxes...)}
}
