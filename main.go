// Command motheye generates a moth-eye lens: hexagonal ommatidia tiled over
// a spherical patch, written as an OpenSCAD file.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chazu/motheye/pkg/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, generates (or checks) the eye and returns the exit code.
// Precedence: defaults, then -config script, then explicit flags.
func run(args []string, stdout, stderr io.Writer) int {
	def := config.Default()

	fs := flag.NewFlagSet("motheye", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration script (zygomys Lisp)")
	output := fs.String("o", def.Output, "output OpenSCAD file")
	segments := fs.Int("segments", def.Segments, "OpenSCAD $fn tessellation")
	outer := fs.Float64("outer", def.OuterSphereRadius, "outer sphere radius")
	inner := fs.Float64("inner", def.InnerSphereRadius, "inner (clipping) sphere radius")
	angle := fs.Float64("angle", def.OmmatidiumAngle, "ommatidium half-angle in degrees")
	thickness := fs.Float64("thickness", def.Thickness, "ommatidium wall thickness")
	policy := fs.String("policy", def.Policy, "placement policy: adaptive or fixed")
	elMin := fs.Float64("el-min", def.Elevation.Min, "lowest elevation (degrees)")
	elMax := fs.Float64("el-max", def.Elevation.Max, "elevation upper bound, exclusive (degrees)")
	azMin := fs.Float64("az-min", def.Azimuth.Min, "lowest azimuth (degrees)")
	azMax := fs.Float64("az-max", def.Azimuth.Max, "azimuth upper bound, exclusive (degrees)")
	modules := fs.Bool("modules", def.Modules, "emit the shared ommatidium as an OpenSCAD module")
	check := fs.Bool("check", false, "mesh one ommatidium with sdfx and report its geometry instead of writing output")
	quiet := fs.Bool("quiet", false, "suppress progress logging")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "motheye: unexpected argument %q\n", fs.Arg(0))
		return 2
	}

	if *quiet {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(stderr)
	}

	app := NewApp()
	cfg := def
	if *configPath != "" {
		loaded, err := app.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "motheye: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.Output = *output
		case "segments":
			cfg.Segments = *segments
		case "outer":
			cfg.OuterSphereRadius = *outer
		case "inner":
			cfg.InnerSphereRadius = *inner
		case "angle":
			cfg.OmmatidiumAngle = *angle
		case "thickness":
			cfg.Thickness = *thickness
		case "policy":
			cfg.Policy = *policy
		case "el-min":
			cfg.Elevation.Min = *elMin
		case "el-max":
			cfg.Elevation.Max = *elMax
		case "az-min":
			cfg.Azimuth.Min = *azMin
		case "az-max":
			cfg.Azimuth.Max = *azMax
		case "modules":
			cfg.Modules = *modules
		}
	})

	if *check {
		rep, err := app.Check(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "motheye: %v\n", err)
			return 1
		}
		b := rep.BoundingBox
		fmt.Fprintf(stdout, "triangles: %d\nvolume:    %.3f\nbounds:    [%.3f %.3f %.3f] .. [%.3f %.3f %.3f]\n",
			rep.Triangles, rep.Volume, b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		return 0
	}

	rep, err := app.Generate(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "motheye: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s: %d ommatidia in %d rows (%s)\n", rep.Output, rep.Placements, len(rep.Rows), rep.Policy)
	return 0
}
