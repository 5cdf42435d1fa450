package graph

import "gonum.org/v1/gonum/spatial/r3"

// NodeKind enumerates the CSG operations a node can represent.
type NodeKind int

const (
	NodePolyhedron NodeKind = iota // point/face primitive
	NodeSphere                     // sphere centred at the origin
	NodeHull                       // convex hull of children
	NodeUnion                      // boolean union of children
	NodeDifference                 // first child minus the rest
	NodeRotate                     // Euler rotation of a single child
)

func (k NodeKind) String() string {
	switch k {
	case NodePolyhedron:
		return "polyhedron"
	case NodeSphere:
		return "sphere"
	case NodeHull:
		return "hull"
	case NodeUnion:
		return "union"
	case NodeDifference:
		return "difference"
	case NodeRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the CSG tree. Nodes are never mutated
// after construction.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Children []*Node  `json:"children,omitempty"`
	Data     NodeData `json:"data,omitempty"`

	box r3.Box
}

// BoundingBox returns a conservative axis-aligned bounding box. Differences
// report the box of their base; rotations enclose the rotated child box.
func (n *Node) BoundingBox() r3.Box {
	return n.box
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// PolyhedronData lists the vertices and faces of a polyhedron primitive.
// Faces index into Points.
type PolyhedronData struct {
	Points []r3.Vec `json:"points"`
	Faces  [][]int  `json:"faces"`
}

func (PolyhedronData) nodeData() {}

// SphereData is a sphere of the given radius centred at the origin.
type SphereData struct {
	Radius float64 `json:"radius"`
}

func (SphereData) nodeData() {}

// RotateData holds Euler angles in degrees, applied X then Y then Z.
type RotateData struct {
	Angles r3.Vec `json:"angles"`
}

func (RotateData) nodeData() {}
