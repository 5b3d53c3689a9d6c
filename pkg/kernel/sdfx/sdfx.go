// Package sdfx implements kernel.Kernel with signed distance functions
// from github.com/deadsy/sdfx, meshed by marching cubes.
//
// The meshes are approximate: sharp edges are bevelled at the cell size and
// cut faces are not tracked, so every triangle lands in group 0. It serves
// as an independent check on the exact BSP kernel and as a fast preview for
// smooth shapes.
package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"

	"github.com/chazu/carve/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 200

const approximateWarning = "approximate mesh: cut faces are not tracked"

// solid wraps an sdf.SDF3. A primitive that failed to build keeps its error
// and passes it on through every operation.
type solid struct {
	s   sdf.SDF3
	err error
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	if s.err != nil {
		return min, max
	}
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// complement is the outside of an SDF3. Its bounding box is the one of the
// solid it inverts, which is where the shared surface lies.
type complement struct {
	sdf.SDF3
}

func (c complement) Evaluate(p v3.Vec) float64 {
	return -c.SDF3.Evaluate(p)
}

// Kernel implements kernel.Kernel over sdfx.
type Kernel struct {
	cells int
}

// New returns a kernel meshing with the given number of cells along the
// longest axis. Zero or less selects DefaultCells.
func New(cells int) *Kernel {
	if cells <= 0 {
		cells = DefaultCells
	}
	return &Kernel{cells: cells}
}

func wrap(s sdf.SDF3, err error) kernel.Solid {
	return &solid{s: s, err: err}
}

// apply runs fn on the operands unless one of them already failed.
func apply(fn func(...sdf.SDF3) sdf.SDF3, operands ...kernel.Solid) kernel.Solid {
	sdfs := make([]sdf.SDF3, 0, len(operands))
	for _, o := range operands {
		s := o.(*solid)
		if s.err != nil {
			return s
		}
		sdfs = append(sdfs, s.s)
	}
	return wrap(fn(sdfs...), nil)
}

// Box creates a box centered on the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	return wrap(s, errors.Wrap(err, "sdfx box"))
}

// Cylinder creates a cylinder along Z centered on the origin. The segment
// count is ignored; the surface is smooth up to the mesh resolution.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	return wrap(s, errors.Wrap(err, "sdfx cylinder"))
}

// Sphere creates a sphere centered on the origin. The segment count is
// ignored.
func (k *Kernel) Sphere(radius float64, segments int) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	return wrap(s, errors.Wrap(err, "sdfx sphere"))
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return apply(func(s ...sdf.SDF3) sdf.SDF3 { return sdf.Union3D(s...) }, a, b)
}

func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return apply(func(s ...sdf.SDF3) sdf.SDF3 { return sdf.Difference3D(s[0], s[1]) }, a, b)
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return apply(func(s ...sdf.SDF3) sdf.SDF3 { return sdf.Intersect3D(s[0], s[1]) }, a, b)
}

// Inverse negates the distance field. The mesh is the same surface wound
// the other way, so its volume is negative.
func (k *Kernel) Inverse(a kernel.Solid) kernel.Solid {
	return apply(func(s ...sdf.SDF3) sdf.SDF3 { return complement{s[0]} }, a)
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(a kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return apply(func(s ...sdf.SDF3) sdf.SDF3 { return sdf.Transform3D(s[0], m) }, a)
}

// Rotate rotates a solid by Euler angles in degrees, X first, then Y, then Z.
func (k *Kernel) Rotate(a kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.RotateZ(radians(z)).Mul(sdf.RotateY(radians(y))).Mul(sdf.RotateX(radians(x)))
	return apply(func(s ...sdf.SDF3) sdf.SDF3 { return sdf.Transform3D(s[0], m) }, a)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToMesh converts a solid to a triangle mesh using marching cubes. Every
// triangle gets its own three vertices with the face normal and zero UVs.
func (k *Kernel) ToMesh(a kernel.Solid) (*kernel.Mesh, error) {
	s := a.(*solid)
	if s.err != nil {
		return nil, s.err
	}

	triangles := render.ToTriangles(s.s, render.NewMarchingCubesUniform(k.cells))

	n := len(triangles) * 3
	mesh := &kernel.Mesh{
		Vertices: make([]float32, 0, n*3),
		Normals:  make([]float32, 0, n*3),
		UVs:      make([]float32, n*2),
		Indices:  make([]uint32, 0, n),
		Warnings: []string{approximateWarning},
	}
	for i, tri := range triangles {
		normal := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			mesh.Vertices = append(mesh.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			mesh.Normals = append(mesh.Normals, float32(normal.X), float32(normal.Y), float32(normal.Z))
			mesh.Indices = append(mesh.Indices, uint32(i*3+j))
		}
	}
	mesh.Groups[0] = mesh.Indices
	return mesh, nil
}
