package csg

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// Solid is a closed polygonal solid held as a BSP tree. Solids are never
// modified by the boolean operators; each operator works on copies.
type Solid struct {
	tree *tree
	// source is the flat polygon list the solid was built from. Solids
	// produced by operators do not retain one.
	source []Polygon
	opts   Options
}

// FromPolygons builds a solid from polygons describing a closed surface.
// The polygons are copied.
func FromPolygons(polys []Polygon, opts Options) (*Solid, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	return fromPolygons(polys, opts, newDiagnostics(opts)), nil
}

func fromPolygons(polys []Polygon, opts Options, diag *diagnostics) *Solid {
	source := lo.Map(polys, func(p Polygon, _ int) Polygon { return p.Clone() })
	t := newTree(opts, diag)
	t.build(root, lo.Map(source, func(p Polygon, _ int) Polygon { return p.Clone() }))
	return &Solid{tree: t, source: source, opts: opts}
}

// Clone returns a deep copy of s.
func (s *Solid) Clone() *Solid {
	c := &Solid{tree: s.tree.clone(), opts: s.opts}
	c.tree.diag = s.tree.diag.clone()
	if s.source != nil {
		c.source = lo.Map(s.source, func(p Polygon, _ int) Polygon { return p.Clone() })
	}
	return c
}

// Options returns the options the solid was built with.
func (s *Solid) Options() Options {
	return s.opts
}

// Polygons returns a copy of every polygon in the solid.
func (s *Solid) Polygons() []Polygon {
	return lo.Map(s.tree.allPolygons(), func(p Polygon, _ int) Polygon { return p.Clone() })
}

// PolygonCount is the number of polygon fragments in the tree.
func (s *Solid) PolygonCount() int {
	n := 0
	for _, nd := range s.tree.nodes {
		n += len(nd.polygons)
	}
	return n
}

// IsEmpty reports whether the solid has no surface.
func (s *Solid) IsEmpty() bool {
	return s.PolygonCount() == 0
}

// Depth is the depth of the BSP tree.
func (s *Solid) Depth() int {
	return s.tree.depth()
}

// Err returns the geometry errors collected while building s and its
// operands, combined into one error, or nil.
func (s *Solid) Err() error {
	return s.tree.diag.err()
}

// Bounds returns the axis aligned bounding box of the surface. An empty
// solid has a zero box.
func (s *Solid) Bounds() sdf.Box3 {
	polys := s.tree.allPolygons()
	if len(polys) == 0 {
		return sdf.Box3{}
	}
	low := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	high := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range polys {
		for _, v := range p.Vertices {
			low = v3.Vec{X: math.Min(low.X, v.Position.X), Y: math.Min(low.Y, v.Position.Y), Z: math.Min(low.Z, v.Position.Z)}
			high = v3.Vec{X: math.Max(high.X, v.Position.X), Y: math.Max(high.Y, v.Position.Y), Z: math.Max(high.Z, v.Position.Z)}
		}
	}
	return sdf.Box3{Min: low, Max: high}
}

// Mesh welds the surface into an indexed triangle mesh.
func (s *Solid) Mesh() *Mesh {
	return Weld(s.tree.allPolygons(), s.opts.WeldTolerance)
}

// WithSolidID returns a copy of s with every polygon tagged with id.
func (s *Solid) WithSolidID(id int) *Solid {
	c := s.Clone()
	for i := range c.tree.nodes {
		for j := range c.tree.nodes[i].polygons {
			c.tree.nodes[i].polygons[j].SolidID = id
		}
	}
	for i := range c.source {
		c.source[i].SolidID = id
	}
	return c
}

// Transform returns a copy of s with m applied to every vertex. Normals
// are transformed by the inverse transpose of m and renormalized. A
// mirroring transform reverses polygon winding so the surface keeps
// facing outwards.
func (s *Solid) Transform(m mgl64.Mat4) *Solid {
	bake := newBaker(m)
	polys := make([]Polygon, 0, s.PolygonCount())
	for _, p := range s.tree.allPolygons() {
		polys = append(polys, bake.polygon(p))
	}
	out := fromPolygons(polys, s.opts, s.tree.diag.clone())
	out.source = nil
	if s.source != nil {
		out.source = lo.Map(s.source, func(p Polygon, _ int) Polygon { return bake.polygon(p) })
	}
	return out
}

// operands copies a and b for a boolean operation. Both copies report
// into one set of diagnostics that starts with the errors of a and b.
func operands(a, b *Solid) (*tree, *tree) {
	x, y := a.tree.clone(), b.tree.clone()
	diag := a.tree.diag.clone()
	diag.absorb(b.tree.diag)
	x.diag, y.diag = diag, diag
	return x, y
}

// Union returns the region inside a or b.
func Union(a, b *Solid) *Solid {
	x, y := operands(a, b)
	switch {
	case y.empty():
	case x.empty():
		x.build(root, y.allPolygons())
	default:
		x.clipTo(y)
		y.clipTo(x)
		y.invert()
		y.clipTo(x)
		y.invert()
		x.build(root, y.allPolygons())
	}
	return a.derive(x)
}

// Subtract returns the region inside a and outside b.
func Subtract(a, b *Solid) *Solid {
	x, y := operands(a, b)
	if !x.empty() && !y.empty() {
		x.invert()
		x.clipTo(y)
		y.clipTo(x)
		y.invert()
		y.clipTo(x)
		y.invert()
		x.build(root, y.allPolygons())
		x.invert()
	}
	return a.derive(x)
}

// Intersect returns the region inside both a and b.
func Intersect(a, b *Solid) *Solid {
	x, y := operands(a, b)
	if x.empty() || y.empty() {
		return a.derive(newTree(a.opts, x.diag))
	}
	x.invert()
	y.clipTo(x)
	y.invert()
	x.clipTo(y)
	y.clipTo(x)
	x.build(root, y.allPolygons())
	x.invert()
	return a.derive(x)
}

// derive wraps the result of an operator. A tree left without polygons
// is replaced by a fresh one: its planes would otherwise still partition
// space when the result is used as an operand.
func (s *Solid) derive(t *tree) *Solid {
	if t.empty() {
		t = newTree(s.opts, t.diag)
	}
	return &Solid{tree: t, opts: s.opts}
}

// Inverse returns the complement of s. With InverseLegacy the returned
// solid is an unflipped copy and the retained source polygons of s are
// flipped in place instead.
func (s *Solid) Inverse() *Solid {
	if s.opts.InverseMode == InverseLegacy {
		c := &Solid{tree: s.tree.clone(), opts: s.opts}
		c.tree.diag = s.tree.diag.clone()
		for i := range s.source {
			s.source[i].Flip()
		}
		return c
	}
	c := s.Clone()
	c.tree.invert()
	for i := range c.source {
		c.source[i].Flip()
	}
	return c
}

// Source returns a copy of the polygons s was built from, or nil for
// solids produced by an operator.
func (s *Solid) Source() []Polygon {
	if s.source == nil {
		return nil
	}
	return lo.Map(s.source, func(p Polygon, _ int) Polygon { return p.Clone() })
}
