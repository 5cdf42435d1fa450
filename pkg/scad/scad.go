// Package scad serializes a CSG tree as OpenSCAD source.
package scad

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/motheye/pkg/graph"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSerialization matches every *SerializationError via errors.Is.
var ErrSerialization = errors.New("serialization failed")

// SerializationError reports a failure producing the output artifact.
type SerializationError struct {
	Op   string // "validate", "create", "write", "rename"
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("scad: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("scad: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSerialization.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// Header returns the global tessellation header for the given segment count.
func Header(segments int) string {
	return fmt.Sprintf("$fn = %d;", segments)
}

// Options control rendering.
type Options struct {
	// Modules emits every subtree referenced more than once as an OpenSCAD
	// module and calls it by name, instead of repeating it inline.
	Modules bool
}

// Render writes root to w: the header, a blank line, then the tree.
func Render(w io.Writer, root *graph.Node, header string) error {
	return Options{}.Render(w, root, header)
}

// Render writes root to w using o.
func (o Options) Render(w io.Writer, root *graph.Node, header string) error {
	if root == nil {
		return &SerializationError{Op: "validate", Err: errors.New("empty tree")}
	}
	bw := bufio.NewWriter(w)
	p := &printer{w: bw}
	if header != "" {
		p.line(0, header)
		p.line(0, "")
	}
	if o.Modules {
		p.names = p.declareShared(root)
	}
	p.node(0, root)
	if p.err == nil {
		p.err = bw.Flush()
	}
	if p.err != nil {
		return &SerializationError{Op: "write", Err: p.err}
	}
	return nil
}

// RenderToFile renders root into path. The output is written to a temporary
// file next to path and renamed into place, so a failure never leaves a
// truncated artifact behind.
func RenderToFile(root *graph.Node, path, header string) error {
	return Options{}.RenderToFile(root, path, header)
}

// RenderToFile renders root into path using o.
func (o Options) RenderToFile(root *graph.Node, path, header string) error {
	if root == nil {
		return &SerializationError{Op: "validate", Path: path, Err: errors.New("empty tree")}
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &SerializationError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := o.Render(tmp, root, header); err != nil {
		cleanup()
		var se *SerializationError
		if errors.As(err, &se) {
			se.Path = path
			return se
		}
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &SerializationError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// printer accumulates the first write error and ignores later writes.
type printer struct {
	w     *bufio.Writer
	err   error
	names map[*graph.Node]string
}

func (p *printer) line(depth int, s string) {
	if p.err != nil {
		return
	}
	if _, err := p.w.WriteString(strings.Repeat("\t", depth)); err != nil {
		p.err = err
		return
	}
	if _, err := p.w.WriteString(s); err != nil {
		p.err = err
		return
	}
	p.err = p.w.WriteByte('\n')
}

// declareShared writes one module per shared non-primitive subtree,
// dependencies first, and returns the module names.
func (p *printer) declareShared(root *graph.Node) map[*graph.Node]string {
	refs := make(map[*graph.Node]int)
	graph.Walk(root, func(n *graph.Node) bool {
		for _, c := range n.Children {
			refs[c]++
		}
		return true
	})

	var order []*graph.Node
	done := make(map[*graph.Node]bool)
	var post func(n *graph.Node)
	post = func(n *graph.Node) {
		if done[n] {
			return
		}
		done[n] = true
		for _, c := range n.Children {
			post(c)
		}
		if refs[n] > 1 {
			order = append(order, n)
		}
	}
	post(root)

	names := make(map[*graph.Node]string, len(order))
	for i, n := range order {
		name := fmt.Sprintf("shared_%d", i)
		p.line(0, "module "+name+"() {")
		p.node(1, n)
		p.line(0, "}")
		p.line(0, "")
		// Register after writing so the body is expanded, not self-referenced.
		names[n] = name
		p.names = names
	}
	return names
}

func (p *printer) node(depth int, n *graph.Node) {
	if name, ok := p.names[n]; ok {
		p.line(depth, name+"();")
		return
	}
	switch n.Kind {
	case graph.NodePolyhedron:
		d, _ := n.Data.(graph.PolyhedronData)
		p.line(depth, fmt.Sprintf("polyhedron(faces = %s, points = %s);", formatFaces(d.Faces), formatPoints(d.Points)))
	case graph.NodeSphere:
		d, _ := n.Data.(graph.SphereData)
		p.line(depth, fmt.Sprintf("sphere(r = %s);", formatFloat(d.Radius)))
	case graph.NodeRotate:
		d, _ := n.Data.(graph.RotateData)
		p.block(depth, fmt.Sprintf("rotate(a = %s)", formatVec(d.Angles)), n.Children)
	default:
		p.block(depth, n.Kind.String()+"()", n.Children)
	}
}

func (p *printer) block(depth int, head string, children []*graph.Node) {
	p.line(depth, head+" {")
	for _, c := range children {
		p.node(depth+1, c)
	}
	p.line(depth, "}")
}

// formatFloat returns the shortest decimal that round-trips v.
func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatVec(v r3.Vec) string {
	return "[" + formatFloat(v.X) + ", " + formatFloat(v.Y) + ", " + formatFloat(v.Z) + "]"
}

func formatPoints(points []r3.Vec) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatVec(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatFaces(faces [][]int) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		idx := make([]string, len(f))
		for j, v := range f {
			idx[j] = strconv.Itoa(v)
		}
		parts[i] = "[" + strings.Join(idx, ", ") + "]"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
