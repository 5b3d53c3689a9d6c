// Package tessellate walks a design graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per model.
package tessellate

import (
	"fmt"

	"github.com/chazu/carve/pkg/graph"
	"github.com/chazu/carve/pkg/kernel"
)

// Tessellate evaluates every root of the design graph with the provided
// geometry kernel and returns one mesh per root, in root order, named after
// the model. Nodes shared by several parents are evaluated once. The
// tessellator is read-only and never mutates the graph.
func Tessellate(g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	w := newWalker(g, k)
	meshes := make([]*kernel.Mesh, 0, len(g.Roots))
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		solid, err := w.solid(root)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", partName(root), err)
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", partName(root), err)
		}
		mesh.PartName = partName(root)
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}

// partName prefers the node's Name and falls back to its short ID.
func partName(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// walker evaluates nodes bottom-up. Solids are memoized by node id; the
// kernel never mutates a solid, so a shared subtree can be reused by every
// parent.
type walker struct {
	g        *graph.DesignGraph
	k        kernel.Kernel
	memo     map[graph.NodeID]kernel.Solid
	visiting map[graph.NodeID]bool
}

func newWalker(g *graph.DesignGraph, k kernel.Kernel) *walker {
	return &walker{
		g:        g,
		k:        k,
		memo:     make(map[graph.NodeID]kernel.Solid),
		visiting: make(map[graph.NodeID]bool),
	}
}

// solid returns the kernel solid for n.
func (w *walker) solid(n *graph.Node) (kernel.Solid, error) {
	if s, ok := w.memo[n.ID]; ok {
		return s, nil
	}
	if w.visiting[n.ID] {
		return nil, fmt.Errorf("cycle through node %s", partName(n))
	}
	w.visiting[n.ID] = true
	defer delete(w.visiting, n.ID)

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case graph.NodePrimitive:
		s, err = w.primitive(n)
	case graph.NodeTransform:
		s, err = w.transform(n)
	case graph.NodeBoolean:
		s, err = w.boolean(n)
	case graph.NodeGroup:
		s, err = w.group(n)
	default:
		err = fmt.Errorf("unknown node kind: %v", n.Kind)
	}
	if err != nil {
		return nil, err
	}

	w.memo[n.ID] = s
	return s, nil
}

// children evaluates the children of n in order.
func (w *walker) children(n *graph.Node) ([]kernel.Solid, error) {
	solids := make([]kernel.Solid, 0, len(n.Children))
	for _, cid := range n.Children {
		child := w.g.Get(cid)
		if child == nil {
			return nil, fmt.Errorf("node %s references missing child %s", partName(n), cid.Short())
		}
		s, err := w.solid(child)
		if err != nil {
			return nil, err
		}
		solids = append(solids, s)
	}
	return solids, nil
}

// primitive creates geometry for a primitive node. Curved primitives
// without a segment count use the graph default.
func (w *walker) primitive(n *graph.Node) (kernel.Solid, error) {
	switch data := n.Data.(type) {
	case graph.BoxData:
		return w.k.Box(data.Size.X, data.Size.Y, data.Size.Z), nil
	case graph.CylinderData:
		return w.k.Cylinder(data.Height, data.Radius, w.g.Segments(data.Segments)), nil
	case graph.SphereData:
		return w.k.Sphere(data.Radius, w.g.Segments(data.Segments)), nil
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", partName(n), n.Data)
	}
}

// transform rotates its single child, then translates it.
func (w *walker) transform(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", partName(n), n.Data)
	}
	solids, err := w.children(n)
	if err != nil {
		return nil, err
	}
	if len(solids) != 1 {
		return nil, fmt.Errorf("transform node %s has %d children, want 1", partName(n), len(solids))
	}

	s := solids[0]
	if r := td.Rotation; r != nil && !r.IsZero() {
		s = w.k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && !t.IsZero() {
		s = w.k.Translate(s, t.X, t.Y, t.Z)
	}
	return s, nil
}

// boolean folds the children left to right with the node's operator.
func (w *walker) boolean(n *graph.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", partName(n), n.Data)
	}
	solids, err := w.children(n)
	if err != nil {
		return nil, err
	}
	min, max := bd.Op.Arity()
	if len(solids) < min || (max >= 0 && len(solids) > max) {
		return nil, fmt.Errorf("%s node %s has %d children", bd.Op, partName(n), len(solids))
	}

	var op func(a, b kernel.Solid) kernel.Solid
	switch bd.Op {
	case graph.OpUnion:
		op = w.k.Union
	case graph.OpDifference:
		op = w.k.Difference
	case graph.OpIntersection:
		op = w.k.Intersection
	case graph.OpInverse:
		return w.k.Inverse(solids[0]), nil
	default:
		return nil, fmt.Errorf("boolean node %s has unknown operator %s", partName(n), bd.Op)
	}
	return fold(solids, op), nil
}

// group unions its children into one solid.
func (w *walker) group(n *graph.Node) (kernel.Solid, error) {
	solids, err := w.children(n)
	if err != nil {
		return nil, err
	}
	if len(solids) == 0 {
		return nil, fmt.Errorf("model %s is empty", partName(n))
	}
	return fold(solids, w.k.Union), nil
}

func fold(solids []kernel.Solid, op func(a, b kernel.Solid) kernel.Solid) kernel.Solid {
	acc := solids[0]
	for _, s := range solids[1:] {
		acc = op(acc, s)
	}
	return acc
}
