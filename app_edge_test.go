package main

import (
	"fmt"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

func TestE2EWhitespaceAndComments(t *testing.T) {
	app := newTestApp(t)

	for _, source := range []string{
		"   \n\t  \n  ",
		";; just a comment",
		"\n  ; first\n\n;; second :with-keyword\n  ",
	} {
		result := app.Evaluate(source)
		if len(result.Errors) != 0 {
			t.Errorf("%q: unexpected errors %v", source, result.Errors)
		}
		if len(result.Meshes) != 0 {
			t.Errorf("%q: expected 0 meshes, got %d", source, len(result.Meshes))
		}
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax and evaluation errors: reported, never fatal.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := newTestApp(t)

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(+ 1 2)\n(model \"test\""
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	if e.Line > 0 {
		t.Logf("line info extracted: line=%d, message=%q", e.Line, e.Message)
	}
}

func TestE2EEvaluationErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"undefined solid", `(model "m" (solid "missing"))`},
		{"undefined function", `(drill-hole 1 2 3)`},
		{"boolean of one", `(model "m" (union (box 1 1 1)))`},
		{"duplicate model", `(model "m" (box 1 1 1)) (model "m" (box 1 1 1))`},
		{"model with no solids", `(model "m")`},
		{"place without solid", `(model "m" (place :at (vec3 1 2 3)))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestApp(t).Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected an eval error")
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 3. Geometric validation: bad dimensions stop before tessellation.
// ---------------------------------------------------------------------------

func TestE2EInvalidDimensions(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
		errors  int
	}{
		{"zero width", `(model "m" (box 100 0 10))`, "must be positive", 1},
		{"all zero", `(model "m" (box 0 0 0))`, "must be positive", 3},
		{"negative height", `(model "m" (box 100 50 -10))`, "must be positive", 1},
		{"negative radius", `(model "m" (cylinder 10 -2))`, "radius", 1},
		{"too few segments", `(model "m" (sphere 5 2))`, "segments", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestApp(t).Evaluate(tt.source)
			if len(result.Errors) != tt.errors {
				t.Fatalf("expected %d errors, got %d: %v", tt.errors, len(result.Errors), result.Errors)
			}
			if !hasMessage(result.Errors, tt.wantMsg) {
				t.Errorf("errors %v do not mention %q", result.Errors, tt.wantMsg)
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
			}
		})
	}
}

func TestE2EErrorsNameTheNode(t *testing.T) {
	result := newTestApp(t).Evaluate(`(defsolid "slab" (box 10 0 1)) (model "m" (solid "slab"))`)
	if !hasMessage(result.Errors, `primitive "slab"`) {
		t.Errorf("errors %v should name the solid", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 4. Warnings travel with the meshes.
// ---------------------------------------------------------------------------

func TestE2EOrphanWarning(t *testing.T) {
	result := newTestApp(t).Evaluate(`
(defsolid "spare" (box 1 1 1))
(model "m" (box 2 2 2))
`)
	requireNoErrors(t, result)
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if !hasMessage(result.Warnings, "orphan") {
		t.Errorf("expected an orphan warning, got %v", result.Warnings)
	}
}

func TestE2ESolidsWithoutModel(t *testing.T) {
	result := newTestApp(t).Evaluate(`(defsolid "a" (box 1 1 1))`)
	requireNoErrors(t, result)
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes without a model, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", result.Warnings)
	}
}

func TestE2EHighSegmentWarning(t *testing.T) {
	result := newTestApp(t).Evaluate(`(model "m" (cylinder 10 1 300))`)
	requireNoErrors(t, result)
	if !hasMessage(result.Warnings, "300 segments") {
		t.Errorf("expected a segment warning, got %v", result.Warnings)
	}
	if len(result.Meshes) != 1 || len(result.Meshes[0].Indices) != 3*4*300 {
		t.Errorf("expected one 1200-triangle mesh")
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation (debounce simulation): no panics, no data races.
//    Run with `go test -race` to detect data races.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources rapidly.
	// Ensures the engine recovers cleanly between error and success states.
	app := newTestApp(t)

	sources := []string{
		`(model "ok" (box 100 50 10))`,
		`(model "broken"`,
		``,
		`(solid "missing")`,
		`(model "also-ok" (difference (box 20 20 20) (sphere 12 8)))`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(model "zero" (box 0 1 1))`,
		`(undefined-func 1 2 3)`,
		`(model "last" (union (box 1 1 1) (place (box 1 1 1) :at (vec3 0.5 0 0))))`,
	}
	wantMeshes := []int{1, 0, 0, 0, 1, 0, 0, 0, 0, 1}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			result := app.Evaluate(source)
			if len(result.Meshes) != wantMeshes[i] {
				t.Errorf("iteration %d: %d meshes, want %d", i, len(result.Meshes), wantMeshes[i])
			}
		}()
	}
}

// ---------------------------------------------------------------------------
// 6. Scale: very large and fractional dimensions.
// ---------------------------------------------------------------------------

func TestE2EDimensionScales(t *testing.T) {
	tests := []struct {
		name   string
		source string
		volume float64
	}{
		{"large", `(model "m" (box 10000 10000 19))`, 10000 * 10000 * 19},
		{"fractional", `(model "m" (box 0.5 0.25 0.125))`, 0.5 * 0.25 * 0.125},
		{"computed", `(def w (/ 100 4)) (model "m" (box w (* w 2) (+ w 1)))`, 25 * 50 * 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestApp(t).Evaluate(tt.source)
			requireNoErrors(t, result)
			if len(result.Meshes) != 1 {
				t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
			}
			got := result.Meshes[0].Volume
			if d := got - tt.volume; d > 1e-6*tt.volume || d < -1e-6*tt.volume {
				t.Errorf("volume = %g, want %g", got, tt.volume)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 7. Several models: one mesh each, colors wrap around the palette.
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := newTestApp(t)

	// Create more models than the palette has colors to ensure wrapping works.
	var b strings.Builder
	n := len(colorPalette) + 1
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "(model \"p%d\" (place (box 10 5 1) :at (vec3 %d 0 0)))\n", i, 11*i)
	}
	result := app.Evaluate(b.String())
	requireNoErrors(t, result)

	if len(result.Meshes) != n {
		t.Fatalf("expected %d meshes, got %d", n, len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if want := fmt.Sprintf("p%d", i+1); m.PartName != want {
			t.Errorf("mesh %d is %q, want %q", i, m.PartName, want)
		}
		if m.Color != colorPalette[i%len(colorPalette)] {
			t.Errorf("mesh %q has color %q", m.PartName, m.Color)
		}
	}
	if result.Meshes[0].Color != result.Meshes[n-1].Color {
		t.Error("palette should wrap around")
	}
}

func TestE2ESharedSolidAcrossModels(t *testing.T) {
	result := newTestApp(t).Evaluate(`
(defsolid "leg" (cylinder 40 2 12))
(model "left" (place (solid "leg") :at (vec3 -10 0 0)))
(model "right" (place (solid "leg") :at (vec3 10 0 0)))
`)
	requireNoErrors(t, result)
	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	if result.Meshes[0].Volume != result.Meshes[1].Volume {
		t.Errorf("volumes differ: %g vs %g", result.Meshes[0].Volume, result.Meshes[1].Volume)
	}
}
