package scad

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/motheye/pkg/graph"
	"github.com/chazu/motheye/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

var tetraFaces = [][]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}

func tetra(t *testing.T, b *graph.Builder) kernel.Solid {
	t.Helper()
	s, err := b.Polyhedron([]r3.Vec{
		{}, {X: 1}, {Y: 1}, {Z: 1},
	}, tetraFaces)
	if err != nil {
		t.Fatalf("Polyhedron: %v", err)
	}
	return s
}

// shared builds union(rotate(cell), rotate(cell)) around one cell node.
func shared(t *testing.T) *graph.Node {
	t.Helper()
	b := graph.NewBuilder()
	cell := b.Difference(b.Hull(tetra(t, b)), b.Sphere(0.5))
	return b.Union(b.Rotate(cell, 0, 0, 0), b.Rotate(cell, 0, 10, 0)).(*graph.Node)
}

func TestHeader(t *testing.T) {
	if got := Header(20); got != "$fn = 20;" {
		t.Errorf("Header(20) = %q", got)
	}
}

func TestRenderFormat(t *testing.T) {
	b := graph.NewBuilder()
	root := b.Union(b.Rotate(b.Sphere(2.5), 0, -36.5, 12.25)).(*graph.Node)

	var buf bytes.Buffer
	if err := Render(&buf, root, Header(20)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "$fn = 20;\n" +
		"\n" +
		"union() {\n" +
		"\trotate(a = [0, -36.5, 12.25]) {\n" +
		"\t\tsphere(r = 2.5);\n" +
		"\t}\n" +
		"}\n"
	if buf.String() != want {
		t.Errorf("Render output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderInlinesSharedSubtrees(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, shared(t), ""); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if n := strings.Count(out, "difference() {"); n != 2 {
		t.Errorf("difference blocks = %d, want 2", n)
	}
	poly := "polyhedron(faces = [[0, 1, 2], [0, 1, 3], [0, 2, 3], [1, 2, 3]], " +
		"points = [[0, 0, 0], [1, 0, 0], [0, 1, 0], [0, 0, 1]]);"
	if !strings.Contains(out, "\t\t\t\t"+poly+"\n") {
		t.Errorf("polyhedron line missing or misindented:\n%s", out)
	}
	if strings.HasPrefix(out, "\n") {
		t.Error("empty header should not emit a blank line")
	}
}

func TestRenderModules(t *testing.T) {
	var buf bytes.Buffer
	if err := (Options{Modules: true}).Render(&buf, shared(t), Header(8)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "$fn = 8;\n" +
		"\n" +
		"module shared_0() {\n" +
		"\tdifference() {\n" +
		"\t\thull() {\n" +
		"\t\t\tpolyhedron(faces = [[0, 1, 2], [0, 1, 3], [0, 2, 3], [1, 2, 3]], points = [[0, 0, 0], [1, 0, 0], [0, 1, 0], [0, 0, 1]]);\n" +
		"\t\t}\n" +
		"\t\tsphere(r = 0.5);\n" +
		"\t}\n" +
		"}\n" +
		"\n" +
		"union() {\n" +
		"\trotate(a = [0, 0, 0]) {\n" +
		"\t\tshared_0();\n" +
		"\t}\n" +
		"\trotate(a = [0, 10, 0]) {\n" +
		"\t\tshared_0();\n" +
		"\t}\n" +
		"}\n"
	if buf.String() != want {
		t.Errorf("Render output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{35, "35"},
		{3.06, "3.06"},
		{-1.53, "-1.53"},
		{4.332869785540436, "4.332869785540436"},
		{1e-7, "0.0000001"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := Render(&a, shared(t), Header(20)); err != nil {
		t.Fatal(err)
	}
	if err := Render(&b, shared(t), Header(20)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("two renders of equal trees differ")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderWriteFailure(t *testing.T) {
	err := Render(failingWriter{}, shared(t), Header(20))
	if !errors.Is(err, ErrSerialization) {
		t.Fatalf("err = %v, want ErrSerialization", err)
	}
	var se *SerializationError
	if !errors.As(err, &se) || se.Op != "write" {
		t.Errorf("err = %#v, want Op write", err)
	}
}

func TestRenderNilRoot(t *testing.T) {
	if err := Render(&bytes.Buffer{}, nil, ""); !errors.Is(err, ErrSerialization) {
		t.Errorf("err = %v, want ErrSerialization", err)
	}
}

func TestRenderToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eye.scad")
	if err := RenderToFile(shared(t), path, Header(20)); err != nil {
		t.Fatalf("RenderToFile: %v", err)
	}

	var want bytes.Buffer
	if err := Render(&want, shared(t), Header(20)); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want.Bytes()) {
		t.Error("file contents differ from Render output")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory holds %v, want only eye.scad", names)
	}
}

func TestRenderToFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eye.scad")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RenderToFile(shared(t), path, Header(20)); err != nil {
		t.Fatalf("RenderToFile: %v", err)
	}
	got, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(got), "$fn = 20;") {
		t.Errorf("file not replaced: %q", got)
	}
}

func TestRenderToFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "eye.scad")
	err := RenderToFile(shared(t), path, Header(20))
	if !errors.Is(err, ErrSerialization) {
		t.Fatalf("err = %v, want ErrSerialization", err)
	}
	var se *SerializationError
	if !errors.As(err, &se) || se.Path != path || se.Op != "create" {
		t.Errorf("err = %#v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err should unwrap to os.ErrNotExist: %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("artifact exists after failed write")
	}
}
