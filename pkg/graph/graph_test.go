package graph

import (
	"testing"

	"github.com/chazu/motheye/pkg/kernel"
)

func buildTiled(t *testing.T, angles ...float64) *Node {
	t.Helper()
	b := NewBuilder()
	tetra := mustPolyhedron(t, b, tetraPoints, tetraFaces)
	template := b.Difference(b.Hull(tetra), b.Sphere(0.2))
	var placed []kernel.Solid
	for _, a := range angles {
		placed = append(placed, b.Rotate(template, 0, a, 0))
	}
	return b.Union(placed...).(*Node)
}

func TestCollectCountsSharedOnce(t *testing.T) {
	root := buildTiled(t, 0, 10, 20, 30)
	s := Collect(root)

	// union + 4 rotate + difference + hull + polyhedron + sphere
	if s.Nodes != 9 {
		t.Errorf("Nodes = %d, want 9", s.Nodes)
	}
	if s.ByKind[NodeRotate] != 4 {
		t.Errorf("rotate nodes = %d, want 4", s.ByKind[NodeRotate])
	}
	if s.ByKind[NodeDifference] != 1 {
		t.Errorf("difference nodes = %d, want 1 (shared template)", s.ByKind[NodeDifference])
	}
	// union->4 rotate, 4 rotate->difference, difference->2, hull->1
	if s.Edges != 11 {
		t.Errorf("Edges = %d, want 11", s.Edges)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	root := buildTiled(t, 0, 10)
	visited := 0
	Walk(root, func(n *Node) bool {
		visited++
		return n.Kind != NodeRotate
	})
	// union + two rotates
	if visited != 3 {
		t.Errorf("visited %d nodes, want 3", visited)
	}
}

func TestDigestDeterministic(t *testing.T) {
	a := buildTiled(t, 0, 10, 20)
	b := buildTiled(t, 0, 10, 20)
	c := buildTiled(t, 0, 10, 25)

	if Digest(a) != Digest(b) {
		t.Error("identical trees have different digests")
	}
	if Digest(a) == Digest(c) {
		t.Error("different trees share a digest")
	}
	if len(Digest(a)) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(Digest(a)))
	}
}
