package graph

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Walk visits n and its descendants depth-first, parents before children.
// A subtree shared by several parents is visited once. Returning false from
// fn skips the children of that node.
func Walk(n *Node, fn func(*Node) bool) {
	seen := make(map[*Node]bool)
	var visit func(*Node)
	visit = func(n *Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(n)
}

// Stats summarises a tree.
type Stats struct {
	Nodes  int              // distinct nodes
	Edges  int              // parent-child references, counting sharing
	ByKind map[NodeKind]int // distinct nodes per kind
}

// Collect returns statistics for the tree rooted at n.
func Collect(n *Node) Stats {
	s := Stats{ByKind: make(map[NodeKind]int)}
	Walk(n, func(n *Node) bool {
		s.Nodes++
		s.Edges += len(n.Children)
		s.ByKind[n.Kind]++
		return true
	})
	return s
}

// Digest returns a content hash of the tree. Two trees built from the same
// configuration have the same digest.
func Digest(n *Node) string {
	memo := make(map[*Node][]byte)
	return hex.EncodeToString(digest(n, memo))
}

func digest(n *Node, memo map[*Node][]byte) []byte {
	if d, ok := memo[n]; ok {
		return d
	}
	h := sha256.New()
	var buf [8]byte
	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	putInt(int(n.Kind))
	switch d := n.Data.(type) {
	case PolyhedronData:
		putInt(len(d.Points))
		for _, p := range d.Points {
			putFloat(p.X)
			putFloat(p.Y)
			putFloat(p.Z)
		}
		putInt(len(d.Faces))
		for _, f := range d.Faces {
			putInt(len(f))
			for _, idx := range f {
				putInt(idx)
			}
		}
	case SphereData:
		putFloat(d.Radius)
	case RotateData:
		putFloat(d.Angles.X)
		putFloat(d.Angles.Y)
		putFloat(d.Angles.Z)
	}
	putInt(len(n.Children))
	for _, c := range n.Children {
		h.Write(digest(c, memo))
	}
	sum := h.Sum(nil)
	memo[n] = sum
	return sum
}
