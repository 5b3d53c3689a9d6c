package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/engine"
	"github.com/chazu/carve/pkg/graph"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/kernel/bsp"
	"github.com/chazu/carve/pkg/tessellate"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// colorPalette is a default palette used to assign distinct colors to models.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// cutColor shades the faces a boolean's second operand left behind.
const cutColor = "#D4AC0D"

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	log    *zap.SugaredLogger

	mu     sync.Mutex
	opts   csg.Options
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
// Groups[0] indexes the kept faces and Groups[1] the cut faces; Colors
// holds one color per group.
type MeshData struct {
	Vertices []float32   `json:"vertices"`
	Normals  []float32   `json:"normals"`
	UVs      []float32   `json:"uvs"`
	Indices  []uint32    `json:"indices"`
	Groups   [2][]uint32 `json:"groups"`
	Colors   [2]string   `json:"colors"`
	PartName string      `json:"partName"`
	Color    string      `json:"color"`
	Volume   float64     `json:"volume"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with an engine and the BSP kernel.
func NewApp() *App {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return newApp(logger.Sugar())
}

func newApp(log *zap.SugaredLogger) *App {
	eng := engine.NewEngine()
	eng.SetLogger(log.Named("engine"))

	opts := csg.DefaultOptions()
	opts.Logger = log.Named("csg")
	k, err := bsp.New(opts)
	if err != nil {
		// The defaults always validate.
		panic(err)
	}
	return &App{engine: eng, log: log, opts: opts, kernel: k}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	_ = a.log.Sync()
}

// Options returns the kernel tolerances currently in use.
func (a *App) Options() csg.Options {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts
}

// SetOptions changes the kernel tolerances for later evaluations. Keys
// are those of csg.Options ("epsilon", "weld_tolerance",
// "intersection_slack", "inverse_mode"); values may be numbers or strings.
// Keys not given keep their current value.
func (a *App) SetOptions(raw map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	opts, err := csg.DecodeOptions(a.opts, raw)
	if err != nil {
		return err
	}
	k, err := bsp.New(opts)
	if err != nil {
		return err
	}
	a.opts, a.kernel = opts, k
	a.log.Infow("kernel options changed",
		"epsilon", opts.Epsilon,
		"weld_tolerance", opts.WeldTolerance,
		"intersection_slack", opts.IntersectionSlack,
		"inverse_mode", opts.InverseMode)
	return nil
}

// SetTimeout changes the evaluation time limit, in milliseconds. Zero
// restores the default.
func (a *App) SetTimeout(ms int) {
	a.engine.SetTimeout(time.Duration(ms) * time.Millisecond)
}

// Evaluate takes Lisp source and returns mesh data + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	log := a.log.With("eval", uuid.NewString())
	start := time.Now()

	// Step 1: Evaluate the Lisp source into a design graph.
	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Errorw("evaluate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Validate. Errors stop here; warnings travel with the meshes.
	vr := graph.ValidateAll(g)
	for _, w := range vr.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: describe(g, w.NodeID, w.Message)})
	}
	if len(vr.Errors) > 0 {
		for _, e := range vr.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Message: describe(g, e.NodeID, e.Message)})
		}
		log.Infow("design graph rejected", "errors", len(vr.Errors))
		return result
	}

	// Step 4: Tessellate the design graph into triangle meshes.
	a.mu.Lock()
	k := a.kernel
	a.mu.Unlock()
	meshes, err := tessellate.Tessellate(g, k)
	if err != nil {
		log.Errorw("tessellate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: errors.Wrap(err, "tessellation failed").Error(),
		})
		return result
	}

	// Step 5: Convert kernel meshes to the frontend MeshData format.
	triangles := 0
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, toMeshData(m, colorPalette[i%len(colorPalette)]))
		for _, w := range m.Warnings {
			result.Warnings = append(result.Warnings, EvalErrorData{
				Message: fmt.Sprintf("model %s: %s", m.PartName, w),
			})
		}
		triangles += m.TriangleCount()
	}

	log.Infow("evaluated",
		"models", len(meshes),
		"triangles", triangles,
		"warnings", len(result.Warnings),
		"elapsed", time.Since(start))
	return result
}

func toMeshData(m *kernel.Mesh, color string) MeshData {
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		UVs:      m.UVs,
		Indices:  m.Indices,
		Groups:   m.Groups,
		Colors:   [2]string{color, cutColor},
		PartName: m.PartName,
		Color:    color,
		Volume:   m.Volume(),
	}
}

// describe prefixes a validation message with the node it is about.
func describe(g *graph.DesignGraph, id graph.NodeID, msg string) string {
	if id.IsZero() {
		return msg
	}
	n := g.Get(id)
	if n == nil {
		return msg
	}
	if n.Name != "" {
		return fmt.Sprintf("%s %q: %s", n.Kind, n.Name, msg)
	}
	return fmt.Sprintf("%s %s: %s", n.Kind, id.Short(), msg)
}
