package engine

import (
	"testing"

	"github.com/chazu/carve/pkg/graph"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEval(t *testing.T, source string) *graph.DesignGraph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

func expectEvalError(t *testing.T, source string) {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected an eval error for %q", source)
	}
	if g != nil {
		t.Error("expected nil graph on eval error")
	}
	t.Logf("eval error: %v", evalErrs[0])
}

// only returns the single node of the given kind.
func only(t *testing.T, g *graph.DesignGraph, kind graph.NodeKind) *graph.Node {
	t.Helper()
	nodes := g.OfKind(kind)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 %s node, got %d", kind, len(nodes))
	}
	return nodes[0]
}

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 5)`,
			expect: `(sphere "__kw_radius" 5)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :height 40 :radius 3)`,
			expect: `(cylinder "__kw_height" 40 "__kw_radius" 3)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote inside string",
			input:  `"a \" :kw" :b`,
			expect: `"a \" :kw" "__kw_b"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw ; text`",
			expect: "`raw :kw ; text`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def hole-depth 12)`,
			expect: `(def hole_depth 12)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 0 -5 x-1)`,
			expect: `(vec3 0 -5 x-1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  "; simple comment\n(box 1 1 1)",
			expect: "// simple comment\n(box 1 1 1)",
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:wall-thickness`,
			expect: `"__kw_wall-thickness"`,
		},
		{
			name:   "unterminated string",
			input:  `"open :kw`,
			expect: `"open :kw`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Primitive tests
// ---------------------------------------------------------------------------

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   graph.NodeData
	}{
		{"box positional", `(box 40 20 10)`, graph.BoxData{Size: graph.Vec3{X: 40, Y: 20, Z: 10}}},
		{"box size keyword", `(box :size (vec3 1.5 2 3))`, graph.BoxData{Size: graph.Vec3{X: 1.5, Y: 2, Z: 3}}},
		{"cylinder positional", `(cylinder 30 5)`, graph.CylinderData{Height: 30, Radius: 5}},
		{"cylinder with segments", `(cylinder 30 5 48)`, graph.CylinderData{Height: 30, Radius: 5, Segments: 48}},
		{"cylinder keywords", `(cylinder :radius 2 :height 8 :segments 12)`, graph.CylinderData{Height: 8, Radius: 2, Segments: 12}},
		{"cylinder keyword overrides", `(cylinder 30 5 :segments 6)`, graph.CylinderData{Height: 30, Radius: 5, Segments: 6}},
		{"sphere positional", `(sphere 10)`, graph.SphereData{Radius: 10}},
		{"sphere with segments", `(sphere 10 24)`, graph.SphereData{Radius: 10, Segments: 24}},
		{"sphere keywords", `(sphere :radius 2.5 :segments 8)`, graph.SphereData{Radius: 2.5, Segments: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustEval(t, tt.source)
			n := only(t, g, graph.NodePrimitive)
			if n.Data != tt.want {
				t.Errorf("data = %+v, want %+v", n.Data, tt.want)
			}
			if n.Name != "" {
				t.Errorf("anonymous primitive got name %q", n.Name)
			}
			if len(g.Roots) != 0 {
				t.Errorf("expected no roots, got %d", len(g.Roots))
			}
		})
	}
}

func TestPrimitiveArgumentErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"box too few", `(box 1 2)`},
		{"box non-number", `(box 1 "two" 3)`},
		{"box size and dims", `(box 1 2 3 :size (vec3 1 2 3))`},
		{"box size not vec3", `(box :size 4)`},
		{"box unknown keyword", `(box 1 2 3 :colour "red")`},
		{"cylinder missing radius", `(cylinder 10)`},
		{"cylinder fractional segments", `(cylinder 10 2 7.5)`},
		{"cylinder too many", `(cylinder 1 2 3 4)`},
		{"sphere missing radius", `(sphere)`},
		{"sphere unknown keyword", `(sphere 3 :height 2)`},
		{"vec3 too few", `(vec3 1 2)`},
		{"vec3 non-number", `(vec3 1 2 "z")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectEvalError(t, tt.source)
		})
	}
}

// ---------------------------------------------------------------------------
// Placement and boolean tests
// ---------------------------------------------------------------------------

func TestPlace(t *testing.T) {
	g := mustEval(t, `(place (box 1 1 1) :at (vec3 10 20.5 -3) :rotate (vec3 90 0 45))`)

	tn := only(t, g, graph.NodeTransform)
	td, ok := tn.Data.(graph.TransformData)
	if !ok {
		t.Fatalf("expected TransformData, got %T", tn.Data)
	}
	if td.Translation == nil || *td.Translation != (graph.Vec3{X: 10, Y: 20.5, Z: -3}) {
		t.Errorf("translation = %v", td.Translation)
	}
	if td.Rotation == nil || *td.Rotation != (graph.Vec3{X: 90, Y: 0, Z: 45}) {
		t.Errorf("rotation = %v", td.Rotation)
	}

	box := only(t, g, graph.NodePrimitive)
	if len(tn.Children) != 1 || tn.Children[0] != box.ID {
		t.Errorf("transform children = %v, want [%s]", tn.Children, box.ID.Short())
	}
}

func TestPlaceTranslationOnly(t *testing.T) {
	g := mustEval(t, `(place (sphere 1) :at (vec3 0 0 5))`)
	td := only(t, g, graph.NodeTransform).Data.(graph.TransformData)
	if td.Rotation != nil {
		t.Errorf("expected no rotation, got %v", td.Rotation)
	}
}

func TestPlaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"no solid", `(place :at (vec3 1 2 3))`},
		{"two solids", `(place (box 1 1 1) (box 1 1 1))`},
		{"not a solid", `(place 5 :at (vec3 1 2 3))`},
		{"at not vec3", `(place (box 1 1 1) :at 5)`},
		{"unknown keyword", `(place (box 1 1 1) :scale (vec3 1 1 1))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectEvalError(t, tt.source)
		})
	}
}

func TestBooleans(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		op       graph.BooleanOp
		children int
	}{
		{"union", `(union (box 1 1 1) (sphere 1))`, graph.OpUnion, 2},
		{"difference of three", `(difference (box 4 4 4) (cylinder 5 1) (sphere 1))`, graph.OpDifference, 3},
		{"intersection", `(intersection (box 1 1 1) (sphere 0.7))`, graph.OpIntersection, 2},
		{"inverse", `(inverse (box 1 1 1))`, graph.OpInverse, 1},
		{"list argument", `(union (list (box 1 1 1) (box 2 2 2)) (sphere 1))`, graph.OpUnion, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustEval(t, tt.source)
			n := only(t, g, graph.NodeBoolean)
			bd, ok := n.Data.(graph.BooleanData)
			if !ok {
				t.Fatalf("expected BooleanData, got %T", n.Data)
			}
			if bd.Op != tt.op {
				t.Errorf("op = %s, want %s", bd.Op, tt.op)
			}
			if len(n.Children) != tt.children {
				t.Fatalf("children = %d, want %d", len(n.Children), tt.children)
			}
			for _, cid := range n.Children {
				if g.Get(cid) == nil {
					t.Errorf("child %s is not in the graph", cid.Short())
				}
			}
		})
	}
}

func TestBooleanChildOrder(t *testing.T) {
	g := mustEval(t, `
(defsolid "base" (box 10 10 10))
(defsolid "tool" (cylinder 12 2))
(difference (solid "base") (solid "tool"))
`)
	n := only(t, g, graph.NodeBoolean)
	want := []graph.NodeID{g.MustLookup("base").ID, g.MustLookup("tool").ID}
	if len(n.Children) != 2 || n.Children[0] != want[0] || n.Children[1] != want[1] {
		t.Errorf("children = %v, want base then tool", n.Children)
	}
}

func TestBooleanArityErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"union of one", `(union (box 1 1 1))`},
		{"difference of none", `(difference)`},
		{"inverse of two", `(inverse (box 1 1 1) (box 2 2 2))`},
		{"inverse of none", `(inverse)`},
		{"number operand", `(intersection (box 1 1 1) 4)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectEvalError(t, tt.source)
		})
	}
}

// ---------------------------------------------------------------------------
// Naming tests
// ---------------------------------------------------------------------------

func TestDefsolidAndLookup(t *testing.T) {
	g := mustEval(t, `
(defsolid "peg" (cylinder 20 3))
(place (solid "peg") :at (vec3 0 0 10))
`)
	peg := g.Lookup("peg")
	if peg == nil {
		t.Fatal("expected node named 'peg'")
	}
	if peg.Kind != graph.NodePrimitive {
		t.Errorf("expected NodePrimitive, got %s", peg.Kind)
	}
	tn := only(t, g, graph.NodeTransform)
	if tn.Children[0] != peg.ID {
		t.Error("place should reference the named solid")
	}
	if g.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.NodeCount())
	}
}

func TestVariableReference(t *testing.T) {
	g := mustEval(t, `
(def wall 3)
(def outer (box 20 20 20))
(def inner (box (- 20 wall) (- 20 wall) (- 20 wall)))
(defsolid "shell" (difference outer inner))
`)
	shell := g.MustLookup("shell")
	children := g.Children(shell)
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	inner := children[1].Data.(graph.BoxData)
	if inner.Size != (graph.Vec3{X: 17, Y: 17, Z: 17}) {
		t.Errorf("inner size = %v, want (17, 17, 17)", inner.Size)
	}
}

func TestNamingErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unknown solid", `(solid "missing")`},
		{"duplicate name", `(defsolid "a" (box 1 1 1)) (defsolid "a" (box 2 2 2))`},
		{"renaming a named solid", `(defsolid "a" (box 1 1 1)) (defsolid "b" (solid "a"))`},
		{"empty name", `(defsolid "" (box 1 1 1))`},
		{"keyword as name", `(defsolid :a (box 1 1 1))`},
		{"body not a solid", `(defsolid "a" 42)`},
		{"model is not a solid", `(model "m" (box 1 1 1)) (solid "m")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectEvalError(t, tt.source)
		})
	}
}

// ---------------------------------------------------------------------------
// Model tests
// ---------------------------------------------------------------------------

func TestModel(t *testing.T) {
	g := mustEval(t, `
(defsolid "body" (box 10 10 10))
(model "widget" (solid "body") (place (sphere 2) :at (vec3 0 0 5)) :description "test part")
`)
	if len(g.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(g.Roots))
	}
	m := g.Get(g.Roots[0])
	if m == nil || m.Name != "widget" {
		t.Fatalf("root = %+v, want model 'widget'", m)
	}
	if m.ID != graph.NewNodeID("model/widget") {
		t.Error("model id should derive from its name")
	}
	if m.Kind != graph.NodeGroup {
		t.Errorf("expected NodeGroup, got %s", m.Kind)
	}
	if gd := m.Data.(graph.GroupData); gd.Description != "test part" {
		t.Errorf("description = %q", gd.Description)
	}
	if len(m.Children) != 2 {
		t.Errorf("expected 2 children, got %d", len(m.Children))
	}
	if errs := graph.Validate(g); len(errs) > 0 {
		t.Errorf("validation errors: %v", errs)
	}
}

func TestModelErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"no name", `(model)`},
		{"no solids", `(model "m")`},
		{"duplicate model", `(model "m" (box 1 1 1)) (model "m" (box 2 2 2))`},
		{"name taken by solid", `(defsolid "m" (box 1 1 1)) (model "m" (solid "m"))`},
		{"child not a solid", `(model "m" (vec3 1 2 3))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectEvalError(t, tt.source)
		})
	}
}

func TestDefaults(t *testing.T) {
	g := mustEval(t, `(defaults :segments 12) (cylinder 4 1)`)
	if g.Defaults.Segments != 12 {
		t.Errorf("default segments = %d, want 12", g.Defaults.Segments)
	}
	if got := g.Segments(0); got != 12 {
		t.Errorf("Segments(0) = %d, want 12", got)
	}

	expectEvalError(t, `(defaults :segments 2)`)
	expectEvalError(t, `(defaults 12)`)
}

// ---------------------------------------------------------------------------
// Node ids
// ---------------------------------------------------------------------------

func TestNodeIDsFollowSourceOrder(t *testing.T) {
	g := mustEval(t, `
(defsolid "first" (box 1 1 1))
(defsolid "second" (box 2 2 2))
(defsolid "both" (union (solid "first") (solid "second")))
`)
	tests := []struct {
		name string
		path string
	}{
		{"first", "box/1"},
		{"second", "box/2"},
		{"both", "union/1"},
	}
	for _, tt := range tests {
		if got := g.MustLookup(tt.name).ID; got != graph.NewNodeID(tt.path) {
			t.Errorf("%s: id %s, want id of %q", tt.name, got.Short(), tt.path)
		}
	}
}

// ---------------------------------------------------------------------------
// Full example
// ---------------------------------------------------------------------------

func TestFullBracketExample(t *testing.T) {
	g := mustEval(t, `
;; Wall bracket: a plate with two countersunk holes and a gusset.
(def plate-t 5)
(defsolid "plate" (box 100 60 plate-t))
(defsolid "hole" (cylinder (* 2 plate-t) 4 24))

(defsolid "holes"
  (union
    (place (solid "hole") :at (vec3 -35 0 0))
    (place (solid "hole") :at (vec3 35 0 0))))

(defsolid "gusset"
  (intersection
    (place (box 40 40 5) :rotate (vec3 90 0 0) :at (vec3 0 0 20))
    (place (box 60 60 60) :rotate (vec3 0 45 0))))

(model "bracket"
  (union
    (difference (solid "plate") (solid "holes"))
    (solid "gusset")))
`)

	if n := len(g.OfKind(graph.NodePrimitive)); n != 4 {
		t.Errorf("expected 4 primitives, got %d", n)
	}
	if n := len(g.OfKind(graph.NodeTransform)); n != 4 {
		t.Errorf("expected 4 transforms, got %d", n)
	}
	if n := len(g.OfKind(graph.NodeBoolean)); n != 4 {
		t.Errorf("expected 4 booleans, got %d", n)
	}

	hole := g.MustLookup("hole").Data.(graph.CylinderData)
	if hole.Height != 10 || hole.Segments != 24 {
		t.Errorf("hole = %+v", hole)
	}

	res := graph.ValidateAll(g)
	if len(res.Errors) > 0 {
		t.Errorf("validation errors: %v", res.Errors)
	}
	if len(res.Warnings) > 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

// ---------------------------------------------------------------------------
// Regression
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	g := mustEval(t, "(+ 1 2)")
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}
