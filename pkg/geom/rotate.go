package geom

import "gonum.org/v1/gonum/spatial/r3"

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

// RotateXYZ rotates v by x, then y, then z degrees about the fixed X, Y
// and Z axes. This is the order OpenSCAD applies rotate([x, y, z]).
func RotateXYZ(v r3.Vec, x, y, z float64) r3.Vec {
	if x != 0 {
		v = r3.NewRotation(Deg2Rad(x), axisX).Rotate(v)
	}
	if y != 0 {
		v = r3.NewRotation(Deg2Rad(y), axisY).Rotate(v)
	}
	if z != 0 {
		v = r3.NewRotation(Deg2Rad(z), axisZ).Rotate(v)
	}
	return v
}
