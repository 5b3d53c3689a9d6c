package csg

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Kinds of recoverable geometry faults. A GeometryError unwraps to one of
// these, so callers can test with errors.Is.
var (
	ErrTooFewVertices         = errors.New("polygon has fewer than 3 vertices")
	ErrNonFiniteNormal        = errors.New("plane normal is zero or not finite")
	ErrIntersectionOutOfRange = errors.New("edge intersection outside segment")
)

// GeometryError reports a polygon or fragment that was skipped because its
// geometry could not be processed. The operation that produced it still
// completes; the errors are collected on the resulting Solid.
type GeometryError struct {
	Kind    error
	Op      string
	SolidID int
	// T is the parametric edge position for ErrIntersectionOutOfRange.
	T float64
	// Detail is a short human readable note, e.g. the offending index.
	Detail string
}

func (e *GeometryError) Error() string {
	msg := fmt.Sprintf("csg: %s: solid %d: %v", e.Op, e.SolidID, e.Kind)
	if e.Kind == ErrIntersectionOutOfRange {
		msg += fmt.Sprintf(" (t=%g)", e.T)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *GeometryError) Unwrap() error {
	return e.Kind
}

// diagnostics collects skipped-fragment errors for one tree, or for the
// pair of trees taking part in a boolean operation.
type diagnostics struct {
	opts Options
	errs []error
}

func newDiagnostics(opts Options) *diagnostics {
	return &diagnostics{opts: opts}
}

func (d *diagnostics) record(err error) {
	d.errs = append(d.errs, err)
	d.opts.logger().Debugw("skipped fragment", "error", err)
}

func (d *diagnostics) absorb(o *diagnostics) {
	if o == nil || o == d {
		return
	}
	d.errs = append(d.errs, o.errs...)
}

func (d *diagnostics) clone() *diagnostics {
	return &diagnostics{opts: d.opts, errs: append([]error(nil), d.errs...)}
}

func (d *diagnostics) err() error {
	return multierr.Combine(d.errs...)
}
