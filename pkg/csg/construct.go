package csg

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// MeshInput is an indexed triangle mesh to be turned into a Solid.
type MeshInput struct {
	// Indices holds three entries per triangle, wound counter-clockwise
	// when seen from outside.
	Indices   []int
	Positions []v3.Vec
	// Normals and UVs are optional. When present they must have one
	// entry per position. Missing normals are replaced by face normals.
	Normals []v3.Vec
	UVs     []v2.Vec
	// Transform is baked into positions and normals. The zero matrix is
	// treated as the identity.
	Transform mgl64.Mat4
	// SolidID tags every polygon and must be 0 or 1.
	SolidID int
}

// Construct builds a solid from a triangle mesh. Structural problems with
// the input are returned as errors. Degenerate triangles are skipped and
// reported through the Err method of the returned solid.
func Construct(in MeshInput, opts Options) (*Solid, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	if in.SolidID != 0 && in.SolidID != 1 {
		return nil, errors.Errorf("csg: solid id must be 0 or 1, got %d", in.SolidID)
	}
	if len(in.Indices)%3 != 0 {
		return nil, errors.Errorf("csg: index count %d is not a multiple of 3", len(in.Indices))
	}
	if len(in.Normals) != 0 && len(in.Normals) != len(in.Positions) {
		return nil, errors.Errorf("csg: %d normals for %d positions", len(in.Normals), len(in.Positions))
	}
	if len(in.UVs) != 0 && len(in.UVs) != len(in.Positions) {
		return nil, errors.Errorf("csg: %d uvs for %d positions", len(in.UVs), len(in.Positions))
	}
	for i, idx := range in.Indices {
		if idx < 0 || idx >= len(in.Positions) {
			return nil, errors.Errorf("csg: index %d at position %d out of range [0,%d)", idx, i, len(in.Positions))
		}
	}

	bake := newBaker(in.Transform)
	diag := newDiagnostics(opts)
	polys := make([]Polygon, 0, len(in.Indices)/3)
	for tri := 0; tri < len(in.Indices); tri += 3 {
		verts := make([]Vertex, 3)
		for k := 0; k < 3; k++ {
			idx := in.Indices[tri+k]
			v := Vertex{Position: bake.point(in.Positions[idx])}
			if len(in.Normals) != 0 {
				v.Normal = bake.normal(in.Normals[idx])
			}
			if len(in.UVs) != 0 {
				v.UV = in.UVs[idx]
			}
			verts[k] = v
		}
		if bake.mirrors {
			verts[1], verts[2] = verts[2], verts[1]
		}
		poly, err := NewPolygon(verts, in.SolidID)
		if err != nil {
			var ge *GeometryError
			if errors.As(err, &ge) {
				ge.Op = "construct"
				ge.Detail = fmt.Sprintf("triangle %d", tri/3)
			}
			diag.record(err)
			continue
		}
		if len(in.Normals) == 0 {
			for k := range poly.Vertices {
				poly.Vertices[k].Normal = poly.Plane.Normal
			}
		}
		polys = append(polys, poly)
	}

	return fromPolygons(polys, opts, diag), nil
}

// baker applies an affine transform to positions, normals and polygons.
type baker struct {
	m         mgl64.Mat4
	normalMat mgl64.Mat3
	identity  bool
	mirrors   bool
}

func newBaker(m mgl64.Mat4) baker {
	if m == (mgl64.Mat4{}) || m == mgl64.Ident4() {
		return baker{m: mgl64.Ident4(), normalMat: mgl64.Ident3(), identity: true}
	}
	upper := m.Mat3()
	return baker{
		m:         m,
		normalMat: upper.Inv().Transpose(),
		mirrors:   upper.Det() < 0,
	}
}

func (b baker) point(p v3.Vec) v3.Vec {
	if b.identity {
		return p
	}
	return fromMgl(b.m.Mul4x1(toMgl(p).Vec4(1)).Vec3())
}

func (b baker) normal(n v3.Vec) v3.Vec {
	if b.identity {
		return n
	}
	out := b.normalMat.Mul3x1(toMgl(n))
	if l := out.Len(); l > 0 && !math.IsInf(l, 0) {
		out = out.Mul(1 / l)
	}
	return fromMgl(out)
}

// polygon returns a transformed copy of p.
func (b baker) polygon(p Polygon) Polygon {
	out := p.Clone()
	if b.identity {
		return out
	}
	for i := range out.Vertices {
		out.Vertices[i].Position = b.point(out.Vertices[i].Position)
		out.Vertices[i].Normal = b.normal(out.Vertices[i].Normal)
	}
	if b.mirrors {
		for i, j := 0, len(out.Vertices)-1; i < j; i, j = i+1, j-1 {
			out.Vertices[i], out.Vertices[j] = out.Vertices[j], out.Vertices[i]
		}
	}
	onPlane := p.Plane.Normal.MulScalar(p.Plane.Distance)
	if pl, err := NewPlaneFromNormal(b.normal(p.Plane.Normal), b.point(onPlane)); err == nil {
		out.Plane = pl
	}
	return out
}

func toMgl(v v3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) v3.Vec {
	return v3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
