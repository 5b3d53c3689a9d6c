package graph

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors and warnings)
// ---------------------------------------------------------------------------

// MinSegments is the fewest sides a curved primitive may have.
const MinSegments = 3

// MaxSegmentsAdvisory is the segment count above which a primitive is
// reported as likely to make booleans slow.
const MaxSegmentsAdvisory = 256

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		var e []ValidationError
		var w []ValidationWarning
		switch d := node.Data.(type) {
		case BoxData:
			e = checkBox(node, d)
		case CylinderData:
			e = checkPositive(node, "cylinder height", d.Height)
			e = append(e, checkPositive(node, "cylinder radius", d.Radius)...)
			e2, w2 := checkSegments(g, node, d.Segments)
			e, w = append(e, e2...), w2
		case SphereData:
			e = checkPositive(node, "sphere radius", d.Radius)
			e2, w2 := checkSegments(g, node, d.Segments)
			e, w = append(e, e2...), w2
		case TransformData:
			e, w = checkTransform(node, d)
		}
		errs = append(errs, e...)
		warnings = append(warnings, w...)
	}

	return errs, warnings
}

// checkBox checks that every box dimension is positive and finite.
func checkBox(node *Node, d BoxData) []ValidationError {
	var errs []ValidationError
	for _, axis := range []struct {
		name string
		v    float64
	}{{"X", d.Size.X}, {"Y", d.Size.Y}, {"Z", d.Size.Z}} {
		errs = append(errs, checkPositive(node, "box dimension "+axis.name, axis.v)...)
	}
	return errs
}

func checkPositive(node *Node, what string, v float64) []ValidationError {
	if v > 0 && !math.IsInf(v, 1) {
		return nil
	}
	return []ValidationError{{
		NodeID:   node.ID,
		Message:  fmt.Sprintf("%s is %.4f, must be positive", what, v),
		Severity: SeverityError,
	}}
}

// checkSegments checks the effective segment count of a curved primitive.
// Zero defers to the graph default; anything else must be at least
// MinSegments.
func checkSegments(g *DesignGraph, node *Node, requested int) ([]ValidationError, []ValidationWarning) {
	if requested < 0 || (requested > 0 && requested < MinSegments) {
		return []ValidationError{{
			NodeID:   node.ID,
			Message:  fmt.Sprintf("segments is %d, must be at least %d", requested, MinSegments),
			Severity: SeverityError,
		}}, nil
	}
	if n := g.Segments(requested); n > MaxSegmentsAdvisory {
		return nil, []ValidationWarning{{
			NodeID:  node.ID,
			Message: fmt.Sprintf("%d segments is more than %d; booleans on this primitive will be slow", n, MaxSegmentsAdvisory),
		}}
	}
	return nil, nil
}

// checkTransform rejects non-finite offsets and angles and flags
// transforms that do nothing.
func checkTransform(node *Node, d TransformData) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	for _, v := range []struct {
		what string
		vec  *Vec3
	}{{"translation", d.Translation}, {"rotation", d.Rotation}} {
		if v.vec == nil {
			continue
		}
		if !finite(v.vec.X) || !finite(v.vec.Y) || !finite(v.vec.Z) {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s %s is not finite", v.what, *v.vec),
				Severity: SeverityError,
			})
		}
	}
	if (d.Translation == nil || d.Translation.IsZero()) && (d.Rotation == nil || d.Rotation.IsZero()) {
		return errs, []ValidationWarning{{
			NodeID:  node.ID,
			Message: "place has neither a translation nor a rotation",
		}}
	}
	return errs, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
