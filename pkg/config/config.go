// Package config holds the run configuration of the moth-eye generator.
//
// A Config is a plain value. It is assembled once from defaults, an optional
// configuration script and command-line flags, validated, and then passed
// unchanged through the pipeline.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/motheye/pkg/geom"
	"github.com/chazu/motheye/pkg/ommatidium"
	"github.com/chazu/motheye/pkg/tiler"
)

// Range is a half-open angular interval [Min, Max) in degrees.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g)", r.Min, r.Max)
}

// Config is the complete set of generator inputs.
type Config struct {
	Output            string  `json:"output"`
	Segments          int     `json:"segments"`            // OpenSCAD $fn
	OuterSphereRadius float64 `json:"outer_sphere_radius"` // sphere carrying the hexagon bases
	InnerSphereRadius float64 `json:"inner_sphere_radius"` // clipping sphere
	OmmatidiumAngle   float64 `json:"ommatidium_angle"`    // half-angle in degrees
	Thickness         float64 `json:"thickness"`           // ommatidium wall thickness
	Policy            string  `json:"policy"`              // "adaptive" or "fixed"
	Elevation         Range   `json:"elevation"`
	Azimuth           Range   `json:"azimuth"`
	Modules           bool    `json:"modules"` // emit the shared ommatidium as an OpenSCAD module
}

// Default returns the moth-goggles configuration.
func Default() Config {
	return Config{
		Output:            "moth-goggles.scad",
		Segments:          20,
		OuterSphereRadius: 35,
		InnerSphereRadius: 20,
		OmmatidiumAngle:   5,
		Thickness:         0.25,
		Policy:            "adaptive",
		Elevation: Range{
			Min: tiler.DefaultDomain.ElevationMin,
			Max: tiler.DefaultDomain.ElevationMax,
		},
		Azimuth: Range{
			Min: tiler.DefaultDomain.AzimuthMin,
			Max: tiler.DefaultDomain.AzimuthMax,
		},
	}
}

// MinSegments is the smallest tessellation OpenSCAD accepts for a sphere.
const MinSegments = 3

// Validate reports the first problem with c. Geometric problems are
// *geom.GeometryError values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("config: output path is empty")
	}
	if c.Segments < MinSegments {
		return fmt.Errorf("config: segments = %d: must be at least %d", c.Segments, MinSegments)
	}
	if _, err := c.PlacementPolicy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := geom.RequirePositive("ommatidium angle", c.OmmatidiumAngle); err != nil {
		return err
	}
	if c.OmmatidiumAngle >= 90 {
		return geom.Invalid("ommatidium angle", c.OmmatidiumAngle, "must be less than 90 degrees")
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	return c.Domain().Validate()
}

// OmmatidiumRadius is the hexagon circumradius implied by the half-angle
// on the outer sphere.
func (c Config) OmmatidiumRadius() float64 {
	return ommatidium.FootprintRadius(c.OmmatidiumAngle, c.OuterSphereRadius)
}

// Params returns the ommatidium builder inputs.
func (c Config) Params() ommatidium.Params {
	return ommatidium.Params{
		OuterSphereRadius: c.OuterSphereRadius,
		InnerSphereRadius: c.InnerSphereRadius,
		Radius:            c.OmmatidiumRadius(),
		Thickness:         c.Thickness,
	}
}

// Footprint returns the tiler's view of the ommatidium.
func (c Config) Footprint() tiler.Footprint {
	return tiler.Footprint{
		SphereRadius:     c.OuterSphereRadius,
		OmmatidiumRadius: c.OmmatidiumRadius(),
		HalfAngle:        c.OmmatidiumAngle,
	}
}

// Domain returns the angular patch to tile.
func (c Config) Domain() tiler.Domain {
	return tiler.Domain{
		ElevationMin: c.Elevation.Min,
		ElevationMax: c.Elevation.Max,
		AzimuthMin:   c.Azimuth.Min,
		AzimuthMax:   c.Azimuth.Max,
	}
}

// PlacementPolicy resolves c.Policy.
func (c Config) PlacementPolicy() (tiler.Policy, error) {
	return tiler.ParsePolicy(c.Policy)
}
