package csg

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is the set of points p with Normal·p == Distance. Points with a
// larger dot product are in front.
type Plane struct {
	Normal   v3.Vec
	Distance float64
}

// NewPlane returns the plane through three points, facing the side from
// which a, b, c appear counter-clockwise.
func NewPlane(a, b, c v3.Vec) (Plane, error) {
	return NewPlaneFromNormal(b.Sub(a).Cross(c.Sub(a)), a)
}

// NewPlaneFromNormal returns the plane with the given normal passing
// through point. The normal need not be unit length.
func NewPlaneFromNormal(normal, point v3.Vec) (Plane, error) {
	l := normal.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Plane{}, &GeometryError{Kind: ErrNonFiniteNormal, Op: "plane"}
	}
	n := normal.MulScalar(1 / l)
	return Plane{Normal: n, Distance: n.Dot(point)}, nil
}

// Flip reverses the half-space sense of the plane.
func (p *Plane) Flip() {
	p.Normal = p.Normal.Neg()
	p.Distance = -p.Distance
}

// SignedDistance is positive for points in front of the plane.
func (p Plane) SignedDistance(pt v3.Vec) float64 {
	return p.Normal.Dot(pt) - p.Distance
}

// ClassifyPoint places pt in front, behind, or on the plane, treating
// anything within eps of the plane as on it.
func (p Plane) ClassifyPoint(pt v3.Vec, eps float64) Classification {
	d := p.SignedDistance(pt)
	switch {
	case d < -eps:
		return Back
	case d > eps:
		return Front
	default:
		return Coplanar
	}
}

// Fragments receives the output of Plane.Split.
type Fragments struct {
	CoplanarFront []Polygon
	CoplanarBack  []Polygon
	Front         []Polygon
	Back          []Polygon
}

// Split sorts poly into out. Coplanar polygons go to CoplanarFront or
// CoplanarBack depending on whether they face the same way as the plane.
// Spanning polygons are cut along the plane; the pieces inherit poly's
// plane and solid id. An intersection parameter outside
// [-eps-slack, 1+eps+slack] aborts the split of poly, leaving out
// unchanged, and is returned as a GeometryError.
func (p Plane) Split(poly Polygon, eps, slack float64, out *Fragments) error {
	n := len(poly.Vertices)
	classes := make([]Classification, n)
	var class Classification
	for i, v := range poly.Vertices {
		classes[i] = p.ClassifyPoint(v.Position, eps)
		class = class.Combine(classes[i])
	}

	switch class {
	case Coplanar:
		if p.Normal.Dot(poly.Plane.Normal) > 0 {
			out.CoplanarFront = append(out.CoplanarFront, poly)
		} else {
			out.CoplanarBack = append(out.CoplanarBack, poly)
		}
	case Front:
		out.Front = append(out.Front, poly)
	case Back:
		out.Back = append(out.Back, poly)
	case Spanning:
		f := make([]Vertex, 0, n+1)
		b := make([]Vertex, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			vi, vj := poly.Vertices[i], poly.Vertices[j]
			if classes[i] != Back {
				f = append(f, vi)
			}
			if classes[i] != Front {
				b = append(b, vi)
			}
			if classes[i].Combine(classes[j]) != Spanning {
				continue
			}
			t := (p.Distance - p.Normal.Dot(vi.Position)) / p.Normal.Dot(vj.Position.Sub(vi.Position))
			if !(t >= -eps-slack && t <= 1+eps+slack) {
				return &GeometryError{
					Kind:    ErrIntersectionOutOfRange,
					Op:      "split",
					SolidID: poly.SolidID,
					T:       t,
				}
			}
			v := vi.Interpolate(vj, t)
			f = append(f, v)
			b = append(b, v)
		}
		if len(f) >= 3 {
			out.Front = append(out.Front, Polygon{Vertices: f, Plane: poly.Plane, SolidID: poly.SolidID})
		}
		if len(b) >= 3 {
			out.Back = append(out.Back, Polygon{Vertices: b, Plane: poly.Plane, SolidID: poly.SolidID})
		}
	}
	return nil
}
