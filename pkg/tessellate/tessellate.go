// Package tessellate replays a CSG tree onto a geometric kernel and, when
// the kernel supports it, produces a triangle mesh. Shared subtrees are
// evaluated once.
package tessellate

import (
	"fmt"

	"github.com/chazu/motheye/pkg/graph"
	"github.com/chazu/motheye/pkg/kernel"
)

// evaluator memoises solids per tree node so a template referenced by many
// rotations is only built once.
type evaluator struct {
	k    kernel.Kernel
	memo map[*graph.Node]kernel.Solid
}

// Evaluate rebuilds the tree rooted at root on k. The tree is read-only
// and never mutated.
func Evaluate(root *graph.Node, k kernel.Kernel) (kernel.Solid, error) {
	if root == nil {
		return nil, fmt.Errorf("tessellate: empty tree")
	}
	ev := &evaluator{k: k, memo: make(map[*graph.Node]kernel.Solid)}
	return ev.walk(root)
}

// Mesh evaluates root on k and tessellates the result.
func Mesh(root *graph.Node, k kernel.Kernel) (*kernel.Mesh, error) {
	m, ok := k.(kernel.Mesher)
	if !ok {
		return nil, fmt.Errorf("tessellate: kernel %T cannot produce meshes", k)
	}
	s, err := Evaluate(root, k)
	if err != nil {
		return nil, err
	}
	mesh, err := m.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed: %w", err)
	}
	return mesh, nil
}

// walk recursively evaluates a node after its children.
func (ev *evaluator) walk(n *graph.Node) (kernel.Solid, error) {
	if s, ok := ev.memo[n]; ok {
		return s, nil
	}

	children := make([]kernel.Solid, 0, len(n.Children))
	for _, c := range n.Children {
		s, err := ev.walk(c)
		if err != nil {
			return nil, err
		}
		children = append(children, s)
	}

	s, err := ev.apply(n, children)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %s node: %w", n.Kind, err)
	}
	ev.memo[n] = s
	return s, nil
}

// apply builds the solid for a single node from its evaluated children.
func (ev *evaluator) apply(n *graph.Node, children []kernel.Solid) (kernel.Solid, error) {
	switch n.Kind {
	case graph.NodePolyhedron:
		d, ok := n.Data.(graph.PolyhedronData)
		if !ok {
			return nil, fmt.Errorf("unexpected data type %T", n.Data)
		}
		return ev.k.Polyhedron(d.Points, d.Faces)

	case graph.NodeSphere:
		d, ok := n.Data.(graph.SphereData)
		if !ok {
			return nil, fmt.Errorf("unexpected data type %T", n.Data)
		}
		return ev.k.Sphere(d.Radius), nil

	case graph.NodeHull:
		if len(children) == 0 {
			return nil, fmt.Errorf("no children")
		}
		return ev.k.Hull(children...), nil

	case graph.NodeUnion:
		if len(children) == 0 {
			return nil, fmt.Errorf("no children")
		}
		return ev.k.Union(children...), nil

	case graph.NodeDifference:
		if len(children) == 0 {
			return nil, fmt.Errorf("no base")
		}
		return ev.k.Difference(children[0], children[1:]...), nil

	case graph.NodeRotate:
		d, ok := n.Data.(graph.RotateData)
		if !ok {
			return nil, fmt.Errorf("unexpected data type %T", n.Data)
		}
		if len(children) != 1 {
			return nil, fmt.Errorf("rotate needs 1 child, has %d", len(children))
		}
		return ev.k.Rotate(children[0], d.Angles.X, d.Angles.Y, d.Angles.Z), nil

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}
