package tiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/motheye/pkg/geom"
)

// Footprint describes the sphere being tiled and the ommatidium tiling it.
type Footprint struct {
	SphereRadius     float64 // radius of the sphere carrying the hexagon bases
	OmmatidiumRadius float64 // hexagon circumradius
	HalfAngle        float64 // degrees subtended by OmmatidiumRadius at the sphere centre
}

// Domain is the angular patch to tile, half-open on the upper bounds.
type Domain struct {
	ElevationMin, ElevationMax float64
	AzimuthMin, AzimuthMax     float64
}

// DefaultDomain is the hemispherical patch: elevation [-45, 45), azimuth [0, 180).
var DefaultDomain = Domain{
	ElevationMin: -45,
	ElevationMax: 45,
	AzimuthMin:   0,
	AzimuthMax:   180,
}

// Validate checks that both ranges are finite and non-empty.
func (d Domain) Validate() error {
	for _, v := range []struct {
		field string
		v     float64
	}{
		{"elevation min", d.ElevationMin},
		{"elevation max", d.ElevationMax},
		{"azimuth min", d.AzimuthMin},
		{"azimuth max", d.AzimuthMax},
	} {
		if math.IsNaN(v.v) || math.IsInf(v.v, 0) {
			return geom.Invalid(v.field, v.v, "must be finite")
		}
	}
	if d.ElevationMin >= d.ElevationMax {
		return geom.Invalid("elevation max", d.ElevationMax,
			fmt.Sprintf("must exceed elevation min %g", d.ElevationMin))
	}
	if d.AzimuthMin >= d.AzimuthMax {
		return geom.Invalid("azimuth max", d.AzimuthMax,
			fmt.Sprintf("must exceed azimuth min %g", d.AzimuthMin))
	}
	if d.ElevationMin < -90 || d.ElevationMax > 90 {
		return geom.Invalid("elevation", d.ElevationMin, "range must lie within [-90, 90]")
	}
	return nil
}

// Policy generates the placement grid for a footprint over a domain.
type Policy interface {
	Name() string
	Grid(f Footprint, d Domain) (Grid, error)
}

// Adaptive spaces rows by the hexagon's apothem and, within each row,
// spaces azimuths by the footprint seen at that row's latitude circle,
// compensating for foreshortening away from the equator.
type Adaptive struct{}

// Fixed spaces both elevation and azimuth uniformly at twice the half-angle.
type Fixed struct{}

// Name implements Policy.
func (Adaptive) Name() string { return "adaptive" }

// Name implements Policy.
func (Fixed) Name() string { return "fixed" }

// ElevationStep returns the adaptive half-step in degrees:
// atan2(r·cos 30°, R). The grid spacing is twice this value.
func ElevationStep(f Footprint) float64 {
	return geom.Rad2Deg(math.Atan2(f.OmmatidiumRadius*math.Cos(geom.Deg2Rad(30)), f.SphereRadius))
}

// AzimuthStep returns the adaptive azimuth half-step in degrees for the row
// at elevation el: atan2(r, R·cos el).
func AzimuthStep(f Footprint, el float64) float64 {
	curr := f.SphereRadius * math.Cos(geom.Deg2Rad(el))
	return geom.Rad2Deg(math.Atan2(f.OmmatidiumRadius, curr))
}

// Grid implements Policy.
func (Adaptive) Grid(f Footprint, d Domain) (Grid, error) {
	if err := validateFootprint(f, false); err != nil {
		return Grid{}, err
	}
	if err := d.Validate(); err != nil {
		return Grid{}, err
	}
	elStep := 2 * ElevationStep(f)
	elevations, err := arange(d.ElevationMin, d.ElevationMax, elStep, "elevation step")
	if err != nil {
		return Grid{}, err
	}

	var g Grid
	for _, el := range elevations {
		azimuths, err := arange(d.AzimuthMin, d.AzimuthMax, 2*AzimuthStep(f, el), "azimuth step")
		if err != nil {
			return Grid{}, err
		}
		g.appendRow(el, azimuths)
	}
	return g, nil
}

// Grid implements Policy.
func (Fixed) Grid(f Footprint, d Domain) (Grid, error) {
	if err := validateFootprint(f, true); err != nil {
		return Grid{}, err
	}
	if err := d.Validate(); err != nil {
		return Grid{}, err
	}
	step := 2 * f.HalfAngle
	elevations, err := arange(d.ElevationMin, d.ElevationMax, step, "elevation step")
	if err != nil {
		return Grid{}, err
	}
	azimuths, err := arange(d.AzimuthMin, d.AzimuthMax, step, "azimuth step")
	if err != nil {
		return Grid{}, err
	}

	var g Grid
	for _, el := range elevations {
		g.appendRow(el, azimuths)
	}
	return g, nil
}

func validateFootprint(f Footprint, needAngle bool) error {
	if err := geom.RequirePositive("sphere radius", f.SphereRadius); err != nil {
		return err
	}
	if err := geom.RequirePositive("ommatidium radius", f.OmmatidiumRadius); err != nil {
		return err
	}
	if needAngle {
		if err := geom.RequirePositive("ommatidium half-angle", f.HalfAngle); err != nil {
			return err
		}
	}
	return nil
}

// maxSamples bounds a single arange so a vanishing step fails instead of
// exhausting memory.
const maxSamples = 1 << 20

// arange returns start, start+step, ... up to but excluding stop, with
// ceil((stop-start)/step) values computed by multiplication rather than
// accumulation.
func arange(start, stop, step float64, field string) ([]float64, error) {
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return nil, geom.Invalid(field, step, "must be a positive finite angle")
	}
	n := math.Ceil((stop - start) / step)
	if n > maxSamples {
		return nil, geom.Invalid(field, step, fmt.Sprintf("yields more than %d samples", maxSamples))
	}
	values := make([]float64, 0, int(n))
	for i := 0; i < int(n); i++ {
		values = append(values, start+float64(i)*step)
	}
	return values, nil
}

// ParsePolicy maps a policy name to its implementation.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "adaptive", "":
		return Adaptive{}, nil
	case "fixed":
		return Fixed{}, nil
	}
	return nil, fmt.Errorf("unknown placement policy %q, expected adaptive or fixed", name)
}
