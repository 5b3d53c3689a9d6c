package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/carve/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // user name, if the node has one
	kind string // "box", "union", ... for printing
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(solid %q)", n.name)
	}
	return fmt.Sprintf("(%s %s)", n.kind, n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// trailing keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// only rejects keywords outside allowed.
func (a kwArgs) only(fn string, allowed ...string) error {
	for k := range a.kw {
		found := false
		for _, ok := range allowed {
			if k == ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
	}
	return nil
}

// number returns the keyword value if present, else the positional
// argument at index pos, else def.
func (a kwArgs) number(fn, key string, pos int, def float64) (float64, error) {
	var s zygo.Sexp
	if v, ok := a.kw[key]; ok {
		s = v
	} else if pos >= 0 && pos < len(a.positional) {
		s = a.positional[pos]
	} else {
		return def, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return f, nil
}

// count is number for integer arguments.
func (a kwArgs) count(fn, key string, pos int) (int, error) {
	f, err := a.number(fn, key, pos, 0)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%s: %s: expected integer, got %g", fn, key, f)
	}
	return int(f), nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp. Keywords are not strings.
func toString(s zygo.Sexp) (string, error) {
	if _, ok := isKW(s); ok {
		return "", fmt.Errorf("expected string, got keyword %s", s.SexpString(nil))
	}
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts the reference from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// solidArgs collects solid references from args. A list or array argument
// contributes each of its elements, so (union (list a b) c) works.
func solidArgs(fn string, args []zygo.Sexp) ([]graph.NodeID, error) {
	var ids []graph.NodeID
	for i, arg := range args {
		items := []zygo.Sexp{arg}
		if _, ok := arg.(*sexpNodeRef); !ok {
			if list, err := sexpListToSlice(arg); err == nil {
				items = list
			}
		}
		for _, item := range items {
			ref, err := toNodeRef(item)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
			}
			ids = append(ids, ref.id)
		}
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Graph builder
// ---------------------------------------------------------------------------

// builder accumulates the graph for one evaluation. Anonymous nodes get
// ids from a per-kind counter, so the same source always yields the same
// ids no matter how many evaluations ran before it.
type builder struct {
	g   *graph.DesignGraph
	seq map[string]int
}

func newBuilder(g *graph.DesignGraph) *builder {
	return &builder{g: g, seq: make(map[string]int)}
}

// add creates an anonymous node with the id "<label>/<n>".
func (b *builder) add(label string, kind graph.NodeKind, data graph.NodeData, children ...graph.NodeID) *sexpNodeRef {
	b.seq[label]++
	id := graph.NewNodeID(fmt.Sprintf("%s/%d", label, b.seq[label]))
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     kind,
		Children: children,
		Data:     data,
	})
	return &sexpNodeRef{id: id, kind: label}
}

// name gives an existing unnamed node a user name.
func (b *builder) name(ref *sexpNodeRef, name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if b.g.Lookup(name) != nil {
		return fmt.Errorf("name %q is already in use", name)
	}
	n := b.g.Get(ref.id)
	if n == nil {
		return fmt.Errorf("unknown solid %s", ref.id.Short())
	}
	if n.Name != "" {
		return fmt.Errorf("solid is already named %q", n.Name)
	}
	n.Name = name
	b.g.NameIndex[name] = n.ID
	return nil
}

// boolean registers a boolean node over the solids in args.
func (b *builder) boolean(op graph.BooleanOp, args []zygo.Sexp) (zygo.Sexp, error) {
	ids, err := solidArgs(op.String(), args)
	if err != nil {
		return zygo.SexpNull, err
	}
	min, max := op.Arity()
	switch {
	case len(ids) < min:
		return zygo.SexpNull, fmt.Errorf("%s requires at least %d solids, got %d", op, min, len(ids))
	case max >= 0 && len(ids) > max:
		return zygo.SexpNull, fmt.Errorf("%s takes at most %d solid, got %d", op, max, len(ids))
	}
	return b.add(op.String(), graph.NodeBoolean, graph.BooleanData{Op: op}, ids...), nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the Carve DSL builtins into a zygomys
// environment. They add nodes to the graph held by b.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: graph.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 40 20 10)  or  (box :size (vec3 40 20 10))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("box", "size"); err != nil {
			return zygo.SexpNull, err
		}

		var bd graph.BoxData
		if v, ok := pa.kw["size"]; ok {
			if len(pa.positional) > 0 {
				return zygo.SexpNull, fmt.Errorf("box: give either :size or three dimensions, not both")
			}
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			bd.Size = vec
		} else {
			if len(pa.positional) != 3 {
				return zygo.SexpNull, fmt.Errorf("box requires 3 dimensions or :size, got %d arguments", len(pa.positional))
			}
			var dims [3]float64
			for i, axis := range []string{"x", "y", "z"} {
				f, err := toFloat64(pa.positional[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: %s: %w", axis, err)
				}
				dims[i] = f
			}
			bd.Size = graph.Vec3{X: dims[0], Y: dims[1], Z: dims[2]}
		}

		return b.add("box", graph.NodePrimitive, bd), nil
	})

	// -----------------------------------------------------------------------
	// (cylinder 30 5)  (cylinder 30 5 48)  (cylinder :height 30 :radius 5)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("cylinder", "height", "radius", "segments"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) > 3 {
			return zygo.SexpNull, fmt.Errorf("cylinder takes at most 3 arguments, got %d", len(pa.positional))
		}

		var cd graph.CylinderData
		var err error
		if cd.Height, err = pa.number("cylinder", "height", 0, 0); err != nil {
			return zygo.SexpNull, err
		}
		if cd.Radius, err = pa.number("cylinder", "radius", 1, 0); err != nil {
			return zygo.SexpNull, err
		}
		if cd.Segments, err = pa.count("cylinder", "segments", 2); err != nil {
			return zygo.SexpNull, err
		}
		if cd.Height == 0 || cd.Radius == 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder requires a height and a radius")
		}

		return b.add("cylinder", graph.NodePrimitive, cd), nil
	})

	// -----------------------------------------------------------------------
	// (sphere 10)  (sphere 10 24)  (sphere :radius 10 :segments 24)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("sphere", "radius", "segments"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) > 2 {
			return zygo.SexpNull, fmt.Errorf("sphere takes at most 2 arguments, got %d", len(pa.positional))
		}

		var sd graph.SphereData
		var err error
		if sd.Radius, err = pa.number("sphere", "radius", 0, 0); err != nil {
			return zygo.SexpNull, err
		}
		if sd.Segments, err = pa.count("sphere", "segments", 1); err != nil {
			return zygo.SexpNull, err
		}
		if sd.Radius == 0 {
			return zygo.SexpNull, fmt.Errorf("sphere requires a radius")
		}

		return b.add("sphere", graph.NodePrimitive, sd), nil
	})

	// -----------------------------------------------------------------------
	// (place (solid "peg") :at (vec3 0 0 19) :rotate (vec3 90 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("place", "at", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires exactly one solid, got %d", len(pa.positional))
		}

		child, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		td := graph.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}

		return b.add("place", graph.NodeTransform, td, child.id), nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...)  (difference a b ...)  (intersection a b ...)
	// (inverse a)
	// -----------------------------------------------------------------------
	for _, op := range []graph.BooleanOp{graph.OpUnion, graph.OpDifference, graph.OpIntersection, graph.OpInverse} {
		op := op
		env.AddFunction(op.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return b.boolean(op, args)
		})
	}

	// -----------------------------------------------------------------------
	// (defsolid "bracket" (difference ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defsolid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defsolid requires a name and a body expression")
		}

		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: name: %w", err)
		}
		ref, err := toNodeRef(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: body: %w", err)
		}
		if err := b.name(ref, solidName); err != nil {
			return zygo.SexpNull, fmt.Errorf("defsolid: %w", err)
		}

		return &sexpNodeRef{id: ref.id, name: solidName, kind: ref.kind}, nil
	})

	// -----------------------------------------------------------------------
	// (solid "bracket")
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires a name argument")
		}

		solidName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: name: %w", err)
		}

		n := b.g.Lookup(solidName)
		if n == nil || n.Kind == graph.NodeGroup {
			return zygo.SexpNull, fmt.Errorf("solid: no solid named %q", solidName)
		}

		return &sexpNodeRef{id: n.ID, name: solidName}, nil
	})

	// -----------------------------------------------------------------------
	// (defaults :segments 48)
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("defaults takes only keywords")
		}
		if err := pa.only("defaults", "segments"); err != nil {
			return zygo.SexpNull, err
		}
		n, err := pa.count("defaults", "segments", -1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if n != 0 {
			if n < graph.MinSegments {
				return zygo.SexpNull, fmt.Errorf("defaults: segments must be at least %d, got %d", graph.MinSegments, n)
			}
			b.g.Defaults.Segments = n
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (model "bracket" (solid "bracket") :description "wall bracket")
	// -----------------------------------------------------------------------
	env.AddFunction("model", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("model", "description"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("model requires a name argument")
		}

		modelName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: name: %w", err)
		}
		if modelName == "" {
			return zygo.SexpNull, fmt.Errorf("model: name must not be empty")
		}
		if b.g.Lookup(modelName) != nil {
			return zygo.SexpNull, fmt.Errorf("model: name %q is already in use", modelName)
		}

		children, err := solidArgs("model", pa.positional[1:])
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(children) == 0 {
			return zygo.SexpNull, fmt.Errorf("model %q needs at least one solid", modelName)
		}

		gd := graph.GroupData{}
		if v, ok := pa.kw["description"]; ok {
			if gd.Description, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("model: description: %w", err)
			}
		}

		id := graph.NewNodeID("model/" + modelName)
		b.g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     modelName,
			Children: children,
			Data:     gd,
		})
		b.g.AddRoot(id)

		return &sexpNodeRef{id: id, name: modelName, kind: "model"}, nil
	})
}
