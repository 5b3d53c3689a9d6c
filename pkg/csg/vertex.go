package csg

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vertex is a polygon corner with the attributes carried through splits.
type Vertex struct {
	Position v3.Vec
	Normal   v3.Vec
	UV       v2.Vec
}

// Interpolate returns the vertex a fraction t of the way from v to o.
// The normal is interpolated linearly and not renormalized.
func (v Vertex) Interpolate(o Vertex, t float64) Vertex {
	return Vertex{
		Position: v.Position.Add(o.Position.Sub(v.Position).MulScalar(t)),
		Normal:   v.Normal.Add(o.Normal.Sub(v.Normal).MulScalar(t)),
		UV:       v.UV.Add(o.UV.Sub(v.UV).MulScalar(t)),
	}
}

// Flip negates the vertex normal.
func (v *Vertex) Flip() {
	v.Normal = v.Normal.Neg()
}
