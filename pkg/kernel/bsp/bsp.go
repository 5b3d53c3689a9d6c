// Package bsp implements the kernel.Kernel interface with the polygonal
// BSP solids of package csg. Booleans are exact up to the configured
// tolerances and the output mesh keeps flat faces sharp.
package bsp

import (
	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// MinSegments is the fewest segments a cylinder or sphere may have.
const MinSegments = 3

// solid wraps a csg.Solid to implement kernel.Solid. A solid built from
// bad parameters carries the error instead and poisons every result that
// uses it.
type solid struct {
	s   *csg.Solid
	err error
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() (min, max [3]float64) {
	if s.err != nil {
		return min, max
	}
	bb := s.s.Bounds()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Kernel implements kernel.Kernel on top of csg.
type Kernel struct {
	opts csg.Options
	log  *zap.SugaredLogger
}

// New returns a Kernel whose solids use opts.
func New(opts csg.Options) (*Kernel, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "bsp: invalid options")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Kernel{opts: opts, log: log}, nil
}

// Options returns the options solids are built with.
func (k *Kernel) Options() csg.Options {
	return k.opts
}

func unwrap(s kernel.Solid) *solid {
	return s.(*solid)
}

func (k *Kernel) construct(in csg.MeshInput) kernel.Solid {
	s, err := csg.Construct(in, k.opts)
	return &solid{s: s, err: err}
}

func failed(format string, args ...interface{}) kernel.Solid {
	return &solid{err: errors.Errorf(format, args...)}
}

// Box creates a box with the given dimensions centered on the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	if x <= 0 || y <= 0 || z <= 0 {
		return failed("bsp: box dimensions must be positive, got %g x %g x %g", x, y, z)
	}
	return k.construct(boxMesh(x, y, z))
}

// Cylinder creates a cylinder along Z centered on the origin, approximated
// by a prism with the given number of sides.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if height <= 0 || radius <= 0 {
		return failed("bsp: cylinder height and radius must be positive, got %g and %g", height, radius)
	}
	if segments < MinSegments {
		return failed("bsp: cylinder needs at least %d segments, got %d", MinSegments, segments)
	}
	return k.construct(cylinderMesh(height, radius, segments))
}

// Sphere creates a UV sphere centered on the origin with segments columns
// of longitude and half as many rows of latitude.
func (k *Kernel) Sphere(radius float64, segments int) kernel.Solid {
	if radius <= 0 {
		return failed("bsp: sphere radius must be positive, got %g", radius)
	}
	if segments < MinSegments {
		return failed("bsp: sphere needs at least %d segments, got %d", MinSegments, segments)
	}
	return k.construct(sphereMesh(radius, segments))
}

type boolOp func(a, b *csg.Solid) *csg.Solid

// combine applies op with b retagged as solid 1, so the faces it
// contributes end up in group 1.
func combine(op boolOp, a, b kernel.Solid) kernel.Solid {
	x, y := unwrap(a), unwrap(b)
	if err := multierr.Combine(x.err, y.err); err != nil {
		return &solid{err: err}
	}
	return &solid{s: op(x.s, y.s.WithSolidID(1))}
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return combine(csg.Union, a, b)
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return combine(csg.Subtract, a, b)
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return combine(csg.Intersect, a, b)
}

// Inverse returns the complement of s.
func (k *Kernel) Inverse(s kernel.Solid) kernel.Solid {
	x := unwrap(s)
	if x.err != nil {
		return x
	}
	return &solid{s: x.s.Inverse()}
}

func transform(s kernel.Solid, m mgl64.Mat4) kernel.Solid {
	x := unwrap(s)
	if x.err != nil {
		return x
	}
	return &solid{s: x.s.Transform(m)}
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return transform(s, mgl64.Translate3D(x, y, z))
}

// Rotate rotates a solid by Euler angles (degrees) around X, then Y, then
// Z.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return transform(s, RotationMatrix(x, y, z))
}

// RotationMatrix returns the matrix that rotates by x degrees about X,
// then y about Y, then z about Z.
func RotationMatrix(x, y, z float64) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(x))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(y))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(z))
	return rz.Mul4(ry).Mul4(rx)
}

// ToMesh welds the solid's surface into a flat triangle mesh. Geometry
// faults skipped while building the solid are listed in Warnings.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	x := unwrap(s)
	if x.err != nil {
		return nil, x.err
	}
	m := x.s.Mesh()

	out := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*m.VertexCount()),
		Normals:  make([]float32, 0, 3*m.VertexCount()),
		UVs:      make([]float32, 0, 2*m.VertexCount()),
	}
	for i := range m.Positions {
		p, n, uv := m.Positions[i], m.Normals[i], m.UVs[i]
		out.Vertices = append(out.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		out.UVs = append(out.UVs, float32(uv.X), float32(uv.Y))
	}
	toUint32 := func(i int, _ int) uint32 { return uint32(i) }
	out.Groups[0] = lo.Map(m.Groups[0], toUint32)
	out.Groups[1] = lo.Map(m.Groups[1], toUint32)
	out.Indices = lo.Flatten([][]uint32{out.Groups[0], out.Groups[1]})

	for _, err := range multierr.Errors(x.s.Err()) {
		out.Warnings = append(out.Warnings, err.Error())
	}
	if len(out.Warnings) > 0 {
		k.log.Debugw("mesh has skipped fragments", "count", len(out.Warnings))
	}
	return out, nil
}
