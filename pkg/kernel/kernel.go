// Package kernel defines the geometry kernel interface used by the
// tessellator. A kernel builds solids from primitives, combines them with
// boolean operations and turns the result into a renderable mesh.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box. An empty solid
	// returns two zero corners.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the geometry kernel interface. Primitives are centered on the
// origin.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64, segments int) Solid

	// Boolean operations. The faces contributed by b end up in group 1
	// of the output mesh.
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid
	Inverse(s Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, X then Y then Z

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
