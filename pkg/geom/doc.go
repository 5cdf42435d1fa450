// Package geom holds the coordinate conversions shared by the ommatidium
// builder and the eye tiler: spherical to Cartesian projection, vertex
// rounding, the hexagonal shell and fixed-order axis rotations.
package geom
