package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// VertexPrecision is the number of decimals kept on polyhedron vertices.
// Rounding suppresses floating-point jitter in the CSG backend.
const VertexPrecision = 2

// SphericalPoint is a point in spherical coordinates. Angles are in degrees;
// elevation is measured from the equatorial (XY) plane and azimuth within it.
type SphericalPoint struct {
	Radius    float64 `json:"radius"`
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Sph2Cart projects p onto Cartesian coordinates.
func Sph2Cart(p SphericalPoint) r3.Vec {
	az := Deg2Rad(p.Azimuth)
	el := Deg2Rad(p.Elevation)
	return r3.Vec{
		X: p.Radius * math.Cos(el) * math.Cos(az),
		Y: p.Radius * math.Cos(el) * math.Sin(az),
		Z: p.Radius * math.Sin(el),
	}
}

// Cart2Sph is the inverse of Sph2Cart. The azimuth is normalised to
// [0, 360). The origin maps to the zero SphericalPoint.
func Cart2Sph(v r3.Vec) SphericalPoint {
	r := r3.Norm(v)
	if r == 0 {
		return SphericalPoint{}
	}
	az := Rad2Deg(math.Atan2(v.Y, v.X))
	if az < 0 {
		az += 360
	}
	if az >= 360 {
		az -= 360
	}
	return SphericalPoint{
		Radius:    r,
		Azimuth:   az,
		Elevation: Rad2Deg(math.Atan2(v.Z, math.Hypot(v.X, v.Y))),
	}
}

// Round rounds every coordinate of v to the given number of decimals,
// half to even, and folds negative zero to zero.
func Round(v r3.Vec, places int) r3.Vec {
	return r3.Vec{
		X: roundTo(v.X, places),
		Y: roundTo(v.Y, places),
		Z: roundTo(v.Z, places),
	}
}

func roundTo(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	r := math.RoundToEven(x*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}
