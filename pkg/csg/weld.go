package csg

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

// Mesh is an indexed triangle mesh with two triangle groups. Groups[0]
// holds triangles from polygons with solid id 0, Groups[1] the rest.
type Mesh struct {
	Positions []v3.Vec
	Normals   []v3.Vec
	UVs       []v2.Vec
	Groups    [2][]int
}

// VertexCount is the number of distinct welded vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount is the number of triangles across both groups.
func (m *Mesh) TriangleCount() int {
	return (len(m.Groups[0]) + len(m.Groups[1])) / 3
}

// Indices returns the triangles of group 0 followed by those of group 1.
func (m *Mesh) Indices() []int {
	return lo.Flatten(m.Groups[:])
}

// Volume is the signed volume enclosed by the mesh. It is positive for a
// closed surface whose triangles face outwards.
func (m *Mesh) Volume() float64 {
	idx := m.Indices()
	terms := make([]float64, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := m.Positions[idx[i]], m.Positions[idx[i+1]], m.Positions[idx[i+2]]
		terms = append(terms, a.Dot(b.Cross(c)))
	}
	return floats.Sum(terms) / 6
}

// Area is the total surface area of the mesh.
func (m *Mesh) Area() float64 {
	idx := m.Indices()
	terms := make([]float64, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := m.Positions[idx[i]], m.Positions[idx[i+1]], m.Positions[idx[i+2]]
		terms = append(terms, b.Sub(a).Cross(c.Sub(a)).Length())
	}
	return floats.Sum(terms) / 2
}

// Weld triangulates each polygon as a fan around its first vertex and
// merges vertices whose position, normal and UV each lie closer than
// bucketSize to an earlier vertex. The search is linear in the number of
// output vertices.
func Weld(polys []Polygon, bucketSize float64) *Mesh {
	w := welder{tol2: bucketSize * bucketSize, mesh: &Mesh{}}
	for _, p := range polys {
		group := 0
		if p.SolidID != 0 {
			group = 1
		}
		for i := 2; i < len(p.Vertices); i++ {
			a := w.index(p.Vertices[0])
			b := w.index(p.Vertices[i-1])
			c := w.index(p.Vertices[i])
			w.mesh.Groups[group] = append(w.mesh.Groups[group], a, b, c)
		}
	}
	return w.mesh
}

type welder struct {
	tol2 float64
	mesh *Mesh
}

func (w *welder) index(v Vertex) int {
	m := w.mesh
	for i := range m.Positions {
		if d := m.Positions[i].Sub(v.Position); d.Dot(d) >= w.tol2 {
			continue
		}
		if d := m.Normals[i].Sub(v.Normal); d.Dot(d) >= w.tol2 {
			continue
		}
		du, dv := m.UVs[i].X-v.UV.X, m.UVs[i].Y-v.UV.Y
		if du*du+dv*dv >= w.tol2 {
			continue
		}
		return i
	}
	m.Positions = append(m.Positions, v.Position)
	m.Normals = append(m.Normals, v.Normal)
	m.UVs = append(m.UVs, v.UV)
	return len(m.Positions) - 1
}
