package csg

import (
	"fmt"

	"github.com/pkg/errors"
)

// Polygon is a convex, planar loop of vertices. Plane is computed from the
// first three vertices when the polygon is created and is carried
// unchanged by the fragments split from it.
type Polygon struct {
	Vertices []Vertex
	Plane    Plane
	// SolidID is 0 or 1 and selects the output triangle group.
	SolidID int
}

// NewPolygon builds a polygon from at least three vertices wound
// counter-clockwise when seen from the front.
func NewPolygon(vertices []Vertex, solidID int) (Polygon, error) {
	if len(vertices) < 3 {
		return Polygon{}, &GeometryError{
			Kind:    ErrTooFewVertices,
			Op:      "polygon",
			SolidID: solidID,
			Detail:  fmt.Sprintf("%d vertices", len(vertices)),
		}
	}
	plane, err := NewPlane(vertices[0].Position, vertices[1].Position, vertices[2].Position)
	if err != nil {
		var ge *GeometryError
		if errors.As(err, &ge) {
			ge.Op = "polygon"
			ge.SolidID = solidID
		}
		return Polygon{}, err
	}
	return Polygon{Vertices: vertices, Plane: plane, SolidID: solidID}, nil
}

// Flip reverses the winding, negates each vertex normal and flips the plane.
func (p *Polygon) Flip() {
	for i, j := 0, len(p.Vertices)-1; i < j; i, j = i+1, j-1 {
		p.Vertices[i], p.Vertices[j] = p.Vertices[j], p.Vertices[i]
	}
	for i := range p.Vertices {
		p.Vertices[i].Flip()
	}
	p.Plane.Flip()
}

// Clone returns a copy that shares no vertex storage with p.
func (p Polygon) Clone() Polygon {
	p.Vertices = append([]Vertex(nil), p.Vertices...)
	return p
}
