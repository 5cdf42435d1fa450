package geom

import "gonum.org/v1/gonum/spatial/r3"

// HexagonAzimuths are the six rim directions of a hexagonal shell.
var HexagonAzimuths = [6]float64{0, 60, 120, 180, 240, 300}

// HexagonalShell returns the six rim vertices of a hexagon of the given
// circumradius lying in the equatorial plane, one per HexagonAzimuths entry.
func HexagonalShell(radius float64) ([6]r3.Vec, error) {
	var shell [6]r3.Vec
	if err := RequirePositive("shell radius", radius); err != nil {
		return shell, err
	}
	for i, az := range HexagonAzimuths {
		shell[i] = Sph2Cart(SphericalPoint{Radius: radius, Azimuth: az})
	}
	return shell, nil
}
