package csg

import (
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.viam.com/test"
)

// cubeFaces lists the corner indices of each face, counter-clockwise from
// outside, with the face normal. Corner i has its x, y and z offsets
// selected by bits 0, 1 and 2.
var cubeFaces = []struct {
	corners [4]int
	normal  v3.Vec
}{
	{[4]int{0, 4, 6, 2}, v3.Vec{X: -1}},
	{[4]int{1, 3, 7, 5}, v3.Vec{X: 1}},
	{[4]int{0, 1, 5, 4}, v3.Vec{Y: -1}},
	{[4]int{2, 6, 7, 3}, v3.Vec{Y: 1}},
	{[4]int{0, 2, 3, 1}, v3.Vec{Z: -1}},
	{[4]int{4, 5, 7, 6}, v3.Vec{Z: 1}},
}

// boxMesh returns an axis aligned box with the given center and half
// extents as 12 triangles with per-face normals and UVs.
func boxMesh(center, half v3.Vec, solidID int) MeshInput {
	var in MeshInput
	in.SolidID = solidID
	uvs := []v2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for _, f := range cubeFaces {
		base := len(in.Positions)
		for k, c := range f.corners {
			p := v3.Vec{
				X: center.X + half.X*float64(2*(c&1)-1),
				Y: center.Y + half.Y*float64((c&2)-1),
				Z: center.Z + half.Z*float64((c&4)/2-1),
			}
			in.Positions = append(in.Positions, p)
			in.Normals = append(in.Normals, f.normal)
			in.UVs = append(in.UVs, uvs[k])
		}
		in.Indices = append(in.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return in
}

func unitCube(x, y, z float64) MeshInput {
	return boxMesh(v3.Vec{X: x, Y: y, Z: z}, v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, 0)
}

func mustConstruct(t *testing.T, in MeshInput) *Solid {
	t.Helper()
	s, err := Construct(in, DefaultOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Err(), test.ShouldBeNil)
	return s
}

func volume(s *Solid) float64 {
	return s.Mesh().Volume()
}

// square returns a unit square in the z=0 plane facing +z, offset along x.
func square(x0 float64, solidID int) Polygon {
	verts := []Vertex{
		{Position: v3.Vec{X: x0, Y: 0}, Normal: v3.Vec{Z: 1}, UV: v2.Vec{X: 0, Y: 0}},
		{Position: v3.Vec{X: x0 + 1, Y: 0}, Normal: v3.Vec{Z: 1}, UV: v2.Vec{X: 1, Y: 0}},
		{Position: v3.Vec{X: x0 + 1, Y: 1}, Normal: v3.Vec{Z: 1}, UV: v2.Vec{X: 1, Y: 1}},
		{Position: v3.Vec{X: x0, Y: 1}, Normal: v3.Vec{Z: 1}, UV: v2.Vec{X: 0, Y: 1}},
	}
	p, err := NewPolygon(verts, solidID)
	if err != nil {
		panic(err)
	}
	return p
}
