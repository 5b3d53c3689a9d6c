package bsp

import (
	"math"

	"github.com/chazu/carve/pkg/csg"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// boxFaces lists the corner indices of each box face, counter-clockwise
// seen from outside, with the face normal. Corner i takes its x, y and z
// sign from bits 0, 1 and 2.
var boxFaces = []struct {
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

var quadUVs = [4]v2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// boxMesh returns a box centered on the origin. Each face has its own four
// vertices so normals stay flat and every face maps the full UV square.
func boxMesh(x, y, z float64) csg.MeshInput {
	var in csg.MeshInput
	half := v3.Vec{X: x / 2, Y: y / 2, Z: z / 2}
	for _, f := range boxFaces {
		base := len(in.Positions)
		for k, c := range f.corners {
			in.Positions = append(in.Positions, v3.Vec{
				X: half.X * sign(c&1),
				Y: half.Y * sign(c&2),
				Z: half.Z * sign(c&4),
			})
			in.Normals = append(in.Normals, f.normal)
			in.UVs = append(in.UVs, quadUVs[k])
		}
		in.Indices = append(in.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return in
}

func sign(bit int) float64 {
	if bit != 0 {
		return 1
	}
	return -1
}

// angle returns the longitude of column j out of n. The last column maps
// back to exactly zero so the seam closes.
func angle(j, n int) float64 {
	return 2 * math.Pi * float64(j%n) / float64(n)
}

// cylinderMesh returns a cylinder along Z centered on the origin. The side
// has smooth normals and wraps U once around; the caps are planar-mapped
// discs.
func cylinderMesh(height, radius float64, segments int) csg.MeshInput {
	var in csg.MeshInput
	h := height / 2

	// Side: two rows of segments+1 vertices, bottom then top.
	for row, z := range []float64{-h, h} {
		for j := 0; j <= segments; j++ {
			a := angle(j, segments)
			n := v3.Vec{X: math.Cos(a), Y: math.Sin(a)}
			in.Positions = append(in.Positions, v3.Vec{X: radius * n.X, Y: radius * n.Y, Z: z})
			in.Normals = append(in.Normals, n)
			in.UVs = append(in.UVs, v2.Vec{X: float64(j) / float64(segments), Y: float64(row)})
		}
	}
	top := segments + 1
	for j := 0; j < segments; j++ {
		b0, b1 := j, j+1
		t0, t1 := top+j, top+j+1
		in.Indices = append(in.Indices, b0, b1, t1, b0, t1, t0)
	}

	for _, z := range []float64{-h, h} {
		normal := v3.Vec{Z: 1}
		if z < 0 {
			normal = v3.Vec{Z: -1}
		}
		center := len(in.Positions)
		in.Positions = append(in.Positions, v3.Vec{Z: z})
		in.Normals = append(in.Normals, normal)
		in.UVs = append(in.UVs, v2.Vec{X: 0.5, Y: 0.5})
		for j := 0; j < segments; j++ {
			a := angle(j, segments)
			c, s := math.Cos(a), math.Sin(a)
			in.Positions = append(in.Positions, v3.Vec{X: radius * c, Y: radius * s, Z: z})
			in.Normals = append(in.Normals, normal)
			in.UVs = append(in.UVs, v2.Vec{X: 0.5 + 0.5*c, Y: 0.5 + 0.5*s})
		}
		for j := 0; j < segments; j++ {
			r0 := center + 1 + j
			r1 := center + 1 + (j+1)%segments
			if z > 0 {
				in.Indices = append(in.Indices, center, r0, r1)
			} else {
				in.Indices = append(in.Indices, center, r1, r0)
			}
		}
	}
	return in
}

// sphereMesh returns a UV sphere centered on the origin with segments
// columns of longitude and segments/2 rows of latitude.
func sphereMesh(radius float64, segments int) csg.MeshInput {
	var in csg.MeshInput
	rings := segments / 2
	if rings < 2 {
		rings = 2
	}
	cols := segments + 1
	for i := 0; i <= rings; i++ {
		phi := math.Pi * float64(i) / float64(rings)
		for j := 0; j <= segments; j++ {
			var n v3.Vec
			switch i {
			case 0:
				n = v3.Vec{Z: 1}
			case rings:
				n = v3.Vec{Z: -1}
			default:
				a := angle(j, segments)
				n = v3.Vec{
					X: math.Sin(phi) * math.Cos(a),
					Y: math.Sin(phi) * math.Sin(a),
					Z: math.Cos(phi),
				}
			}
			in.Positions = append(in.Positions, n.MulScalar(radius))
			in.Normals = append(in.Normals, n)
			in.UVs = append(in.UVs, v2.Vec{
				X: float64(j) / float64(segments),
				Y: 1 - float64(i)/float64(rings),
			})
		}
	}
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			v00 := i*cols + j
			v01 := v00 + 1
			v10 := v00 + cols
			v11 := v10 + 1
			// The quads touching a pole collapse to one triangle.
			if i != rings-1 {
				in.Indices = append(in.Indices, v00, v10, v11)
			}
			if i != 0 {
				in.Indices = append(in.Indices, v00, v11, v01)
			}
		}
	}
	return in
}
