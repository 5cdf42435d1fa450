package geom

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-6

func TestSph2CartAxes(t *testing.T) {
	tests := []struct {
		name string
		in   SphericalPoint
		want r3.Vec
	}{
		{"x axis", SphericalPoint{Radius: 2}, r3.Vec{X: 2}},
		{"y axis", SphericalPoint{Radius: 2, Azimuth: 90}, r3.Vec{Y: 2}},
		{"north pole", SphericalPoint{Radius: 3, Elevation: 90}, r3.Vec{Z: 3}},
		{"south pole", SphericalPoint{Radius: 3, Elevation: -90}, r3.Vec{Z: -3}},
		{"negative x", SphericalPoint{Radius: 1, Azimuth: 180}, r3.Vec{X: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sph2Cart(tt.in)
			if !vecNear(got, tt.want, tol) {
				t.Errorf("Sph2Cart(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	for az := 0.0; az < 360; az += 7.5 {
		for el := -89.5; el < 90; el += 4.5 {
			p := SphericalPoint{Radius: 35, Azimuth: az, Elevation: el}
			back := Cart2Sph(Sph2Cart(p))
			if !scalar.EqualWithinAbs(back.Radius, p.Radius, tol) {
				t.Fatalf("radius %v -> %v", p, back)
			}
			if !scalar.EqualWithinAbs(back.Azimuth, p.Azimuth, tol) {
				t.Fatalf("azimuth %v -> %v", p, back)
			}
			if !scalar.EqualWithinAbs(back.Elevation, p.Elevation, tol) {
				t.Fatalf("elevation %v -> %v", p, back)
			}
		}
	}
}

func TestCart2SphOrigin(t *testing.T) {
	if got := Cart2Sph(r3.Vec{}); got != (SphericalPoint{}) {
		t.Errorf("Cart2Sph(origin) = %+v, want zero point", got)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{3.0620, 3.06},
		{-1.5311, -1.53},
		{2.675, 2.68}, // 2.675*100 rounds to exactly 267.5, a tie
		{2.6749, 2.67},
		{0.125, 0.12},
		{-0.0001, 0},
	}
	for _, tt := range tests {
		got := Round(r3.Vec{X: tt.in}, VertexPrecision).X
		if got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if z := Round(r3.Vec{Y: -1e-17}, 2).Y; math.Signbit(z) {
		t.Error("Round kept a negative zero")
	}
}

func TestRequirePositive(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		err := RequirePositive("r", v)
		if !errors.Is(err, ErrGeometry) {
			t.Errorf("RequirePositive(%v) = %v, want geometry error", v, err)
		}
	}
	if err := RequirePositive("r", 0.01); err != nil {
		t.Errorf("RequirePositive(0.01) = %v", err)
	}
}

func vecNear(a, b r3.Vec, eps float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, eps) &&
		scalar.EqualWithinAbs(a.Y, b.Y, eps) &&
		scalar.EqualWithinAbs(a.Z, b.Z, eps)
}
