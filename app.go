package main

import (
	"fmt"
	"log"
	"os"

	"github.com/chazu/motheye/pkg/config"
	"github.com/chazu/motheye/pkg/engine"
	"github.com/chazu/motheye/pkg/graph"
	"github.com/chazu/motheye/pkg/kernel/sdfx"
	"github.com/chazu/motheye/pkg/ommatidium"
	"github.com/chazu/motheye/pkg/scad"
	"github.com/chazu/motheye/pkg/tessellate"
	"github.com/chazu/motheye/pkg/tiler"
	"gonum.org/v1/gonum/spatial/r3"
)

// defaultCheckCells is the marching cubes and volume sampling resolution
// used by Check.
const defaultCheckCells = 96

// App runs the generator pipeline: configuration, ommatidium, tiling,
// serialization.
type App struct {
	engine  *engine.Engine
	builder *graph.Builder
	checker *sdfx.SdfxKernel
	cells   int
}

// Report summarizes a generated eye.
type Report struct {
	Output           string
	Policy           string
	OmmatidiumRadius float64
	Rows             []tiler.Row
	Placements       int
	Stats            graph.Stats
	Digest           string
}

// CheckReport describes a single ommatidium evaluated as a solid.
type CheckReport struct {
	BoundingBox r3.Box
	Volume      float64 // grid-sampled
	Triangles   int
}

// NewApp creates a new App with an engine, the graph builder and the sdfx
// kernel for checks.
func NewApp() *App {
	return &App{
		engine:  engine.NewEngine(),
		builder: graph.NewBuilder(),
		checker: sdfx.New().WithCells(defaultCheckCells),
		cells:   defaultCheckCells,
	}
}

// LoadConfig evaluates the configuration script at path.
func (a *App) LoadConfig(path string) (config.Config, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, evalErrs, err := a.engine.Evaluate(string(source))
	if err != nil {
		return config.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs[1:] {
			log.Printf("%s: %v", path, e)
		}
		return config.Config{}, fmt.Errorf("%s: %w", path, evalErrs[0])
	}
	return *cfg, nil
}

// Build validates cfg and constructs the moth-eye tree.
func (a *App) Build(cfg config.Config) (*graph.Node, Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Report{}, err
	}
	policy, err := cfg.PlacementPolicy()
	if err != nil {
		return nil, Report{}, err
	}
	rep := Report{
		Output:           cfg.Output,
		Policy:           policy.Name(),
		OmmatidiumRadius: cfg.OmmatidiumRadius(),
	}
	log.Printf("ommatidium radius %.4f (half-angle %g° on R=%g)",
		rep.OmmatidiumRadius, cfg.OmmatidiumAngle, cfg.OuterSphereRadius)

	omm, err := ommatidium.Build(a.builder, cfg.Params())
	if err != nil {
		return nil, Report{}, err
	}

	grid, err := policy.Grid(cfg.Footprint(), cfg.Domain())
	if err != nil {
		return nil, Report{}, err
	}
	rep.Rows = grid.Rows()
	rep.Placements = grid.Len()
	if policy.Name() == "adaptive" {
		log.Printf("adaptive elevation step %.4f°", 2*tiler.ElevationStep(cfg.Footprint()))
	}
	log.Printf("%s placement: %d rows, %d ommatidia", rep.Policy, len(rep.Rows), rep.Placements)

	eye, err := tiler.Tile(a.builder, omm, grid)
	if err != nil {
		return nil, Report{}, err
	}
	root := eye.(*graph.Node)

	if errs := graph.Errors(graph.Validate(root)); len(errs) > 0 {
		return nil, Report{}, fmt.Errorf("invalid tree: %w", errs[0])
	}
	rep.Stats = graph.Collect(root)
	rep.Digest = graph.Digest(root)
	log.Printf("tree: %d nodes, %d edges", rep.Stats.Nodes, rep.Stats.Edges)
	return root, rep, nil
}

// Generate builds the eye described by cfg and writes it to cfg.Output.
// On error nothing is written.
func (a *App) Generate(cfg config.Config) (Report, error) {
	root, rep, err := a.Build(cfg)
	if err != nil {
		return Report{}, err
	}
	opts := scad.Options{Modules: cfg.Modules}
	if err := opts.RenderToFile(root, cfg.Output, scad.Header(cfg.Segments)); err != nil {
		return Report{}, err
	}
	log.Printf("wrote %s", cfg.Output)
	return rep, nil
}

// Check builds one ommatidium as a graph, replays it onto the sdfx kernel
// and measures the resulting solid.
func (a *App) Check(cfg config.Config) (CheckReport, error) {
	if err := cfg.Validate(); err != nil {
		return CheckReport{}, err
	}
	omm, err := ommatidium.Build(a.builder, cfg.Params())
	if err != nil {
		return CheckReport{}, err
	}
	root := omm.(*graph.Node)

	solid, err := tessellate.Evaluate(root, a.checker)
	if err != nil {
		return CheckReport{}, fmt.Errorf("check: %w", err)
	}
	mesh, err := a.checker.ToMesh(solid)
	if err != nil {
		return CheckReport{}, fmt.Errorf("check: %w", err)
	}
	rep := CheckReport{
		BoundingBox: solid.BoundingBox(),
		Volume:      a.checker.Volume(solid, a.cells),
		Triangles:   mesh.TriangleCount(),
	}
	if mesh.IsEmpty() {
		return rep, fmt.Errorf("check: ommatidium meshes to nothing at %d cells", a.cells)
	}
	log.Printf("check: %d triangles, volume %.3f", rep.Triangles, rep.Volume)
	return rep, nil
}

// withCells sets the check resolution.
func (a *App) withCells(cells int) *App {
	a.checker = sdfx.New().WithCells(cells)
	a.cells = cells
	return a
}
