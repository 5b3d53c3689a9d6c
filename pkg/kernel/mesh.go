package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices and normals have 3 floats per vertex,
// uvs 2 floats per vertex and indices 3 uint32s per triangle.
//
// Indices holds every triangle. Groups splits the same triangles in two:
// group 1 holds faces contributed by the second operand of any boolean,
// group 0 the rest.
type Mesh struct {
	Vertices []float32   `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32   `json:"normals"`  // [nx0,ny0,nz0, ...]
	UVs      []float32   `json:"uvs"`      // [u0,v0, u1,v1, ...]
	Indices  []uint32    `json:"indices"`  // [i0,i1,i2, ...] triangles
	Groups   [2][]uint32 `json:"groups"`
	PartName string      `json:"partName"` // which design graph part this came from
	Warnings []string    `json:"warnings,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// GroupTriangleCount returns the number of triangles in group g.
func (m *Mesh) GroupTriangleCount(g int) int {
	if g < 0 || g >= len(m.Groups) {
		return 0
	}
	return len(m.Groups[g]) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Volume returns the signed volume enclosed by the triangles. It is
// positive for a closed mesh wound counter-clockwise from outside.
func (m *Mesh) Volume() float64 {
	var sum float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.vertex(m.Indices[i])
		b := m.vertex(m.Indices[i+1])
		c := m.vertex(m.Indices[i+2])
		sum += a[0]*(b[1]*c[2]-b[2]*c[1]) +
			a[1]*(b[2]*c[0]-b[0]*c[2]) +
			a[2]*(b[0]*c[1]-b[1]*c[0])
	}
	return sum / 6
}

func (m *Mesh) vertex(i uint32) [3]float64 {
	return [3]float64{
		float64(m.Vertices[3*i]),
		float64(m.Vertices[3*i+1]),
		float64(m.Vertices[3*i+2]),
	}
}
