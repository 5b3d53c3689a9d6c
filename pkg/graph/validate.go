package graph

import (
	"fmt"
	"strings"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Validate runs all Tier 1 structural validation checks on the design graph
// and returns a slice of validation errors. An empty slice means the graph is
// valid. This function is read-only and never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateKinds(g)...)
	errs = append(errs, validateArity(g)...)
	return errs
}

// ValidateAll runs both validation tiers (structural, geometric) and
// returns a ValidationResult with separated errors and warnings.
func ValidateAll(g *DesignGraph) ValidationResult {
	// Tier 1: structural validation.
	tier1 := Validate(g)

	// Tier 2: geometric validation.
	tier2Errs, tier2Warnings := validateGeometry(g)

	// Separate Tier 1 findings into errors and warnings.
	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)

	return result
}

// validateDAG checks for cycles with a depth-first walk using 3-color
// marking. A node met again while still on the current path closes a
// cycle; the error names every node on it.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int, len(g.Nodes))
	var path []NodeID

	var visit func(id NodeID) []NodeID // returns the cycle, if any
	visit = func(id NodeID) []NodeID {
		switch color[id] {
		case black:
			return nil
		case gray:
			for i := range path {
				if path[i] == id {
					return append(append([]NodeID(nil), path[i:]...), id)
				}
			}
			return []NodeID{id, id}
		}

		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return nil
		}

		color[id] = gray
		path = append(path, id)
		for _, childID := range node.Children {
			if cycle := visit(childID); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	// Start from every node to catch disconnected components. One cycle is
	// reported; the graph cannot be evaluated either way.
	for id := range g.Nodes {
		if color[id] != white {
			continue
		}
		if cycle := visit(id); cycle != nil {
			names := make([]string, len(cycle))
			for i, cid := range cycle {
				names[i] = g.label(cid)
			}
			return []ValidationError{{
				NodeID:   cycle[0],
				Message:  "cycle detected: " + strings.Join(names, " -> "),
				Severity: SeverityError,
			}}
		}
	}

	return nil
}

// label names a node for messages: its user name if it has one.
func (g *DesignGraph) label(id NodeID) string {
	if n := g.Nodes[id]; n != nil && n.Name != "" {
		return n.Name
	}
	return id.Short()
}

// validateReferences checks that every child reference points to a node
// that exists in g.Nodes, and that no node lists the same child twice.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		seen := make(map[NodeID]bool, len(node.Children))
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
			if seen[childID] {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child %s is listed more than once", g.label(childID)),
					Severity: SeverityWarning,
				})
			}
			seen[childID] = true
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes share the
// same name) and that every entry in NameIndex points to an existing node.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	// Check that every NameIndex entry references an existing node.
	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	// Check injectivity: build a reverse map from NodeID to name, looking at
	// actual node Name fields. If two nodes share the same non-empty Name, error.
	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node and
// warns about orphan nodes (nodes unreachable from any root).
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	// Each root must exist, be a model and appear once.
	seen := make(map[NodeID]bool, len(g.Roots))
	for _, rid := range g.Roots {
		n, ok := g.Nodes[rid]
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		case n.Kind != NodeGroup:
			errs = append(errs, ValidationError{
				NodeID:   rid,
				Message:  fmt.Sprintf("root %s is a %s, not a model", g.label(rid), n.Kind),
				Severity: SeverityError,
			})
		case seen[rid]:
			errs = append(errs, ValidationError{
				NodeID:   rid,
				Message:  fmt.Sprintf("model %s is registered as a root twice", g.label(rid)),
				Severity: SeverityError,
			})
		}
		seen[rid] = true
	}

	// Orphan detection: BFS from all roots through Children edges.
	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok {
			if !reachable[rid] {
				reachable[rid] = true
				queue = append(queue, rid)
			}
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current]
		if node == nil {
			continue
		}

		// Traverse Children edges.
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	// Report any unreachable nodes as warnings.
	for id, node := range g.Nodes {
		if !reachable[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s %q is not used by any model (orphan)", node.Kind, g.label(id)),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateKinds checks that every node carries data matching its kind.
func validateKinds(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		if node.Data == nil {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s node has no data", node.Kind),
				Severity: SeverityError,
			})
			continue
		}
		if node.Data.Kind() != node.Kind {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s node carries %s data", node.Kind, node.Data.Kind()),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateArity checks child counts: primitives are leaves, transforms wrap
// exactly one child, booleans follow their operator's arity and models
// hold at least one child.
func validateArity(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	bad := func(node *Node, format string, args ...interface{}) {
		errs = append(errs, ValidationError{
			NodeID:   node.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, node := range g.Nodes {
		n := len(node.Children)
		switch node.Kind {
		case NodePrimitive:
			if n != 0 {
				bad(node, "primitive has %d children, want none", n)
			}
		case NodeTransform:
			if n != 1 {
				bad(node, "transform has %d children, want exactly 1", n)
			}
		case NodeBoolean:
			bd, ok := node.Data.(BooleanData)
			if !ok {
				continue // reported by validateKinds
			}
			min, max := bd.Op.Arity()
			if n < min {
				bad(node, "%s has %d children, want at least %d", bd.Op, n, min)
			} else if max >= 0 && n > max {
				bad(node, "%s has %d children, want at most %d", bd.Op, n, max)
			}
		case NodeGroup:
			if n == 0 {
				bad(node, "model %q is empty", node.Name)
			}
		default:
			bad(node, "unknown node kind %d", int(node.Kind))
		}
	}

	return errs
}
