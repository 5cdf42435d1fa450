// Package graph defines the CSG tree for motheye.
// The tree is an immutable DAG of primitives, boolean operations and
// rotations built bottom-up through the kernel.Kernel interface. Subtrees
// are shared by reference: every placed ommatidium points at the same
// template node.
package graph
