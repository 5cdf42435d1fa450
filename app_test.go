package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/motheye/pkg/config"
	"github.com/chazu/motheye/pkg/graph"
	"gonum.org/v1/gonum/floats/scalar"
)

// TestE2EMothGoggles exercises the full pipeline: script → engine → config →
// ommatidium → tiler → OpenSCAD file.
func TestE2EMothGoggles(t *testing.T) {
	app := NewApp()

	cfg, err := app.LoadConfig("examples/moth-goggles.lisp")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OuterSphereRadius != 35 || cfg.InnerSphereRadius != 20 || cfg.Policy != "adaptive" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	cfg.Output = filepath.Join(t.TempDir(), cfg.Output)

	rep, err := app.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !scalar.EqualWithinAbs(rep.OmmatidiumRadius, 3.0621, 1e-4) {
		t.Errorf("ommatidium radius = %v, want ~3.0621", rep.OmmatidiumRadius)
	}
	if rep.Placements != 181 {
		t.Errorf("placements = %d, want 181", rep.Placements)
	}
	wantRows := []int{13, 15, 16, 18, 18, 18, 18, 18, 17, 16, 14}
	if len(rep.Rows) != len(wantRows) {
		t.Fatalf("rows = %d, want %d", len(rep.Rows), len(wantRows))
	}
	for i, r := range rep.Rows {
		if r.Count != wantRows[i] {
			t.Errorf("row %d (el %.3f): %d ommatidia, want %d", i, r.Elevation, r.Count, wantRows[i])
		}
	}

	// One union, 181 rotations and a single shared ommatidium of six nodes.
	if rep.Stats.Nodes != 188 {
		t.Errorf("nodes = %d, want 188", rep.Stats.Nodes)
	}
	if rep.Stats.Edges != 367 {
		t.Errorf("edges = %d, want 367", rep.Stats.Edges)
	}
	if rep.Stats.ByKind[graph.NodeRotate] != 181 {
		t.Errorf("rotations = %d, want 181", rep.Stats.ByKind[graph.NodeRotate])
	}

	out, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(out)
	if !strings.HasPrefix(text, "$fn = 20;\n\nunion() {\n\trotate(a = [0, -45, 0]) {\n") {
		t.Errorf("unexpected file head:\n%.120s", text)
	}
	if n := strings.Count(text, "\trotate(a = [0, "); n != 181 {
		t.Errorf("rotate blocks = %d, want 181", n)
	}
	if n := strings.Count(text, "sphere(r = 20);"); n != 181 {
		t.Errorf("inner spheres = %d, want 181", n)
	}
	if !strings.Contains(text, "[35, 3.06, 0], [35, 1.53, 2.65]") {
		t.Error("outer rim vertices not found")
	}
	if !strings.Contains(text, "[35, 2.81, 0], [35, 1.41, 2.44]") {
		t.Error("inner rim vertices not found")
	}
}

func TestE2EFixedStepModules(t *testing.T) {
	app := NewApp()

	cfg, err := app.LoadConfig("examples/fixed-step.lisp")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Output = filepath.Join(t.TempDir(), "fixed.scad")

	rep, err := app.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rep.Placements != 162 {
		t.Errorf("placements = %d, want 162", rep.Placements)
	}
	if len(rep.Rows) != 9 {
		t.Errorf("rows = %d, want 9", len(rep.Rows))
	}

	out, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	if n := strings.Count(text, "module shared_0() {"); n != 1 {
		t.Errorf("module declarations = %d, want 1", n)
	}
	if n := strings.Count(text, "shared_0();"); n != 162 {
		t.Errorf("module calls = %d, want 162", n)
	}
	if n := strings.Count(text, "polyhedron("); n != 2 {
		t.Errorf("polyhedra = %d, want 2", n)
	}
}

func TestE2EIdempotent(t *testing.T) {
	dir := t.TempDir()
	app := NewApp()

	var outputs [][]byte
	var digests []string
	for i := 0; i < 2; i++ {
		cfg := config.Default()
		cfg.Output = filepath.Join(dir, "run"+string(rune('a'+i))+".scad")
		rep, err := app.Generate(cfg)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		b, err := os.ReadFile(cfg.Output)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, b)
		digests = append(digests, rep.Digest)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("two runs with the same configuration produced different files")
	}
	if digests[0] != digests[1] {
		t.Errorf("digests differ: %s vs %s", digests[0], digests[1])
	}
}

func TestE2EOverwriteIsIdempotent(t *testing.T) {
	app := NewApp()
	cfg := config.Default()
	cfg.Output = filepath.Join(t.TempDir(), "eye.scad")

	if _, err := app.Generate(cfg); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(cfg.Output)
	if _, err := app.Generate(cfg); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(cfg.Output)
	if !bytes.Equal(first, second) {
		t.Error("regenerating in place changed the file")
	}
}

func TestE2ECheck(t *testing.T) {
	app := NewApp().withCells(48)

	rep, err := app.Check(config.Default())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.Triangles == 0 {
		t.Error("expected a non-empty mesh")
	}
	if !scalar.EqualWithinAbs(rep.BoundingBox.Max.X, 35, 0.05) {
		t.Errorf("bbox max x = %v, want ~35", rep.BoundingBox.Max.X)
	}
	if !scalar.EqualWithinAbs(rep.BoundingBox.Max.Y, 3.06, 0.05) {
		t.Errorf("bbox max y = %v, want ~3.06", rep.BoundingBox.Max.Y)
	}
	// Outer pyramid ~284.2, inner ~239.7; the inner sphere removes the
	// rest of the wall near the apex.
	if rep.Volume < 30 || rep.Volume > 284.2-239.7 {
		t.Errorf("volume = %v, want in [30, 44.5]", rep.Volume)
	}
}
