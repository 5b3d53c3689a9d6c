// Package csg implements boolean operations on closed polygonal solids
// using binary space partitioning trees.
//
// A Solid is built from a triangle mesh with Construct. Union, Subtract
// and Intersect combine two solids without modifying either operand, and
// Inverse returns the complement. The result is flattened back into an
// indexed triangle mesh with Mesh, which welds coincident vertices and
// splits the triangles into two groups by the solid id each fragment
// originated from.
//
// Trees are stored as an arena of nodes addressed by index, so copying a
// solid is a slice copy and every traversal is iterative.
package csg
