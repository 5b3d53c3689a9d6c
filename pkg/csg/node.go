package csg

// nodeRef addresses a node in a tree's arena.
type nodeRef int32

const (
	noNode nodeRef = -1
	root   nodeRef = 0
)

// node is one partition of a BSP tree. polygons are exactly coplanar with
// plane; everything else reachable from the node lies strictly in the
// front or back subtree.
type node struct {
	plane    Plane
	hasPlane bool
	polygons []Polygon
	front    nodeRef
	back     nodeRef
}

// tree is a BSP tree stored as an arena. The root is always index 0 and
// nodes are never removed, so every node in the arena is reachable.
type tree struct {
	nodes []node
	eps   float64
	slack float64
	diag  *diagnostics
}

func newTree(opts Options, diag *diagnostics) *tree {
	return &tree{
		nodes: []node{{front: noNode, back: noNode}},
		eps:   opts.Epsilon,
		slack: opts.IntersectionSlack,
		diag:  diag,
	}
}

func (t *tree) alloc() nodeRef {
	t.nodes = append(t.nodes, node{front: noNode, back: noNode})
	return nodeRef(len(t.nodes) - 1)
}

func (t *tree) split(pl Plane, poly Polygon, out *Fragments) {
	if err := pl.Split(poly, t.eps, t.slack, out); err != nil {
		t.diag.record(err)
	}
}

// clone deep-copies the arena, including vertex storage. The copy shares
// the diagnostics of t until the caller replaces them.
func (t *tree) clone() *tree {
	c := &tree{
		nodes: make([]node, len(t.nodes)),
		eps:   t.eps,
		slack: t.slack,
		diag:  t.diag,
	}
	copy(c.nodes, t.nodes)
	for i := range c.nodes {
		polys := make([]Polygon, len(c.nodes[i].polygons))
		for j, p := range c.nodes[i].polygons {
			polys[j] = p.Clone()
		}
		c.nodes[i].polygons = polys
	}
	return c
}

type buildTask struct {
	at    nodeRef
	polys []Polygon
}

// build inserts polys into the subtree at the given node. A node without a
// plane adopts the plane of the first polygon it receives.
func (t *tree) build(at nodeRef, polys []Polygon) {
	stack := []buildTask{{at: at, polys: polys}}
	for len(stack) > 0 {
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(task.polys) == 0 {
			continue
		}

		if !t.nodes[task.at].hasPlane {
			t.nodes[task.at].plane = task.polys[0].Plane
			t.nodes[task.at].hasPlane = true
		}
		pl := t.nodes[task.at].plane

		var out Fragments
		for _, p := range task.polys {
			t.split(pl, p, &out)
		}
		n := &t.nodes[task.at]
		n.polygons = append(n.polygons, out.CoplanarFront...)
		n.polygons = append(n.polygons, out.CoplanarBack...)

		if len(out.Front) > 0 {
			if t.nodes[task.at].front == noNode {
				ref := t.alloc()
				t.nodes[task.at].front = ref
			}
			stack = append(stack, buildTask{at: t.nodes[task.at].front, polys: out.Front})
		}
		if len(out.Back) > 0 {
			if t.nodes[task.at].back == noNode {
				ref := t.alloc()
				t.nodes[task.at].back = ref
			}
			stack = append(stack, buildTask{at: t.nodes[task.at].back, polys: out.Back})
		}
	}
}

// clipPolygons removes the parts of polys inside the solid represented by
// the subtree at the given node. Fragments that reach the back of a node
// without a back child are inside and are dropped. The result lists the
// surviving front fragments before the back ones at every level.
func (t *tree) clipPolygons(at nodeRef, polys []Polygon) []Polygon {
	var result []Polygon
	stack := []buildTask{{at: at, polys: polys}}
	for len(stack) > 0 {
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.nodes[task.at]
		if !n.hasPlane {
			result = append(result, task.polys...)
			continue
		}

		var out Fragments
		for _, p := range task.polys {
			t.split(n.plane, p, &out)
		}
		front := append(out.CoplanarFront, out.Front...)
		back := append(out.CoplanarBack, out.Back...)

		// The front subtree must be emitted before the back one, so the back
		// task goes on the stack first.
		if n.back != noNode && len(back) > 0 {
			stack = append(stack, buildTask{at: n.back, polys: back})
		}
		if n.front == noNode {
			result = append(result, front...)
		} else if len(front) > 0 {
			stack = append(stack, buildTask{at: n.front, polys: front})
		}
	}
	return result
}

// clipTo trims every polygon in t to the region outside other.
func (t *tree) clipTo(other *tree) {
	for i := range t.nodes {
		t.nodes[i].polygons = other.clipPolygons(root, t.nodes[i].polygons)
	}
}

// invert turns the tree inside out: solid space becomes empty space and
// the reverse.
func (t *tree) invert() {
	for i := range t.nodes {
		n := &t.nodes[i]
		for j := range n.polygons {
			n.polygons[j].Flip()
		}
		if n.hasPlane {
			n.plane.Flip()
		}
		n.front, n.back = n.back, n.front
	}
}

// allPolygons collects the polygons of the whole tree depth first: a node's
// own polygons, then its back subtree, then its front subtree. The result
// shares vertex storage with the tree.
func (t *tree) allPolygons() []Polygon {
	var result []Polygon
	stack := []nodeRef{root}
	for len(stack) > 0 {
		at := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[at]
		result = append(result, n.polygons...)
		if n.front != noNode {
			stack = append(stack, n.front)
		}
		if n.back != noNode {
			stack = append(stack, n.back)
		}
	}
	return result
}

func (t *tree) empty() bool {
	for i := range t.nodes {
		if len(t.nodes[i].polygons) > 0 {
			return false
		}
	}
	return true
}

// depth is the number of nodes on the longest root-to-leaf path.
func (t *tree) depth() int {
	type item struct {
		at    nodeRef
		level int
	}
	deepest := 0
	stack := []item{{root, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.level > deepest {
			deepest = it.level
		}
		n := t.nodes[it.at]
		for _, c := range []nodeRef{n.front, n.back} {
			if c != noNode {
				stack = append(stack, item{c, it.level + 1})
			}
		}
	}
	return deepest
}
