package sdfx

import (
	"errors"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// plane is an outward facing half-space boundary: n·p = d, |n| = 1.
type plane struct {
	n r3.Vec
	d float64
}

// convex is the intersection of the half-spaces bounding a point set.
// It implements sdf.SDF3. Outside the solid the value is a lower bound on
// the true distance, which is enough for sign tests and marching cubes.
type convex struct {
	points []r3.Vec
	planes []plane
	bb     sdf.Box3
}

var _ sdf.SDF3 = (*convex)(nil)

// newConvex computes the supporting planes of the convex hull of points by
// testing every point triple. Point sets here are small (a few dozen at
// most), so the quartic cost does not matter.
func newConvex(points []r3.Vec) (*convex, error) {
	pts := dedupe(points)
	if len(pts) < 4 {
		return nil, errors.New("convex hull needs at least 4 distinct points")
	}

	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	eps := 1e-9 * math.Max(r3.Norm(r3.Sub(hi, lo)), 1)

	var planes []plane
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				n := r3.Cross(r3.Sub(pts[j], pts[i]), r3.Sub(pts[k], pts[i]))
				if r3.Norm(n) <= eps*eps {
					continue
				}
				n = r3.Unit(n)
				d := r3.Dot(n, pts[i])
				above, below := false, false
				for _, p := range pts {
					s := r3.Dot(n, p) - d
					if s > eps {
						above = true
					} else if s < -eps {
						below = true
					}
				}
				switch {
				case above && below:
					continue
				case above:
					n, d = r3.Scale(-1, n), -d
				case !below:
					// Every point is on the plane: the set is flat.
					return nil, errors.New("convex hull of coplanar points has no volume")
				}
				planes = appendPlane(planes, plane{n: n, d: d}, eps)
			}
		}
	}
	if len(planes) < 4 {
		return nil, errors.New("convex hull is degenerate")
	}
	return &convex{
		points: pts,
		planes: planes,
		bb:     sdf.Box3{Min: v3.Vec{X: lo.X, Y: lo.Y, Z: lo.Z}, Max: v3.Vec{X: hi.X, Y: hi.Y, Z: hi.Z}},
	}, nil
}

// Evaluate returns the signed distance bound at p: negative inside.
func (c *convex) Evaluate(p v3.Vec) float64 {
	q := fromV3(p)
	dist := math.Inf(-1)
	for _, pl := range c.planes {
		dist = math.Max(dist, r3.Dot(pl.n, q)-pl.d)
	}
	return dist
}

// BoundingBox returns the bounding box of the hull vertices.
func (c *convex) BoundingBox() sdf.Box3 {
	return c.bb
}

func dedupe(points []r3.Vec) []r3.Vec {
	seen := make(map[r3.Vec]bool, len(points))
	out := make([]r3.Vec, 0, len(points))
	for _, p := range points {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func appendPlane(planes []plane, p plane, eps float64) []plane {
	for _, q := range planes {
		if r3.Norm(r3.Sub(p.n, q.n)) <= 1e-9 && math.Abs(p.d-q.d) <= eps {
			return planes
		}
	}
	return append(planes, p)
}
