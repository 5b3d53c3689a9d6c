// Package main is the carve command line tool. It evaluates Carve scripts
// without the desktop shell and reports the resulting models.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/engine"
	"github.com/chazu/carve/pkg/graph"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/kernel/bsp"
	"github.com/chazu/carve/pkg/kernel/sdfx"
	"github.com/chazu/carve/pkg/tessellate"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	flagJSON        = "json"
	flagEpsilon     = "epsilon"
	flagWeld        = "weld"
	flagSlack       = "slack"
	flagInverseMode = "inverse-mode"
	flagTimeout     = "timeout"
	flagKernel      = "kernel"
	flagCells       = "cells"
	flagDebug       = "debug"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "carve:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "carve",
		Usage: "evaluate Carve solid modelling scripts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "eval",
				Usage:     "evaluate a script and report its models",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagKernel,
						Usage: "geometry kernel: bsp (exact) or sdf (approximate)",
						Value: "bsp",
					},
					&cli.IntFlag{
						Name:  flagCells,
						Usage: "marching cubes resolution of the sdf kernel",
						Value: sdfx.DefaultCells,
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print the models as JSON instead of a table",
					},
					&cli.Float64Flag{
						Name:  flagEpsilon,
						Usage: "plane thickness used to classify points",
					},
					&cli.Float64Flag{
						Name:  flagWeld,
						Usage: "vertex weld tolerance",
					},
					&cli.Float64Flag{
						Name:  flagSlack,
						Usage: "allowed overshoot of an edge intersection before the fragment is skipped",
					},
					&cli.StringFlag{
						Name:  flagInverseMode,
						Usage: "inverse behaviour: flip-tree or legacy",
					},
					&cli.DurationFlag{
						Name:  flagTimeout,
						Usage: "evaluation time limit",
						Value: engine.EvalTimeout,
					},
				},
				Action: evalAction,
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "carve %s\n", version)
					return nil
				},
			},
		},
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	if !debug {
		return zap.NewNop().Sugar(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// kernelOptions builds the kernel options from the flags that were given.
func kernelOptions(c *cli.Context) (csg.Options, error) {
	raw := map[string]interface{}{}
	for flag, key := range map[string]string{
		flagEpsilon: "epsilon",
		flagWeld:    "weld_tolerance",
		flagSlack:   "intersection_slack",
	} {
		if c.IsSet(flag) {
			raw[key] = c.Float64(flag)
		}
	}
	if c.IsSet(flagInverseMode) {
		raw["inverse_mode"] = c.String(flagInverseMode)
	}
	return csg.DecodeOptions(csg.DefaultOptions(), raw)
}

func newKernel(c *cli.Context, log *zap.SugaredLogger) (kernel.Kernel, error) {
	switch name := c.String(flagKernel); name {
	case "bsp":
		opts, err := kernelOptions(c)
		if err != nil {
			return nil, err
		}
		opts.Logger = log.Named("csg")
		return bsp.New(opts)
	case "sdf":
		return sdfx.New(c.Int(flagCells)), nil
	default:
		return nil, errors.Errorf("unknown kernel %q, want bsp or sdf", name)
	}
}

// modelReport is one model in the eval output.
type modelReport struct {
	Name      string   `json:"name"`
	Vertices  int      `json:"vertices"`
	Triangles int      `json:"triangles"`
	Kept      int      `json:"kept"`
	Cut       int      `json:"cut"`
	Volume    float64  `json:"volume"`
	Warnings  []string `json:"warnings,omitempty"`
}

type evalReport struct {
	Models   []modelReport `json:"models"`
	Warnings []string      `json:"warnings,omitempty"`
}

func evalAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("eval requires exactly one FILE argument")
	}
	path := c.Args().First()

	log, err := newLogger(c.Bool(flagDebug))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	k, err := newKernel(c, log)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading script")
	}

	eng := engine.NewEngine()
	eng.SetLogger(log.Named("engine"))
	eng.SetTimeout(c.Duration(flagTimeout))

	start := time.Now()
	g, evalErrs, err := eng.Evaluate(string(source))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", path, e.Error())
		}
		return errors.Errorf("%s: %d evaluation errors", path, len(evalErrs))
	}

	vr := graph.ValidateAll(g)
	if len(vr.Errors) > 0 {
		for _, e := range vr.Errors {
			fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", path, e.Error())
		}
		return errors.Errorf("%s: %d validation errors", path, len(vr.Errors))
	}

	meshes, err := tessellate.Tessellate(g, k)
	if err != nil {
		return err
	}
	log.Debugw("evaluated", "file", path, "models", len(meshes), "elapsed", time.Since(start))

	report := evalReport{Models: make([]modelReport, 0, len(meshes))}
	for _, w := range vr.Warnings {
		report.Warnings = append(report.Warnings, w.Message)
	}
	for _, m := range meshes {
		report.Models = append(report.Models, reportMesh(m))
	}

	if c.Bool(flagJSON) {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintln(c.App.Writer, renderReport(report))
	for _, w := range report.Warnings {
		fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", w)
	}
	return nil
}

func reportMesh(m *kernel.Mesh) modelReport {
	return modelReport{
		Name:      m.PartName,
		Vertices:  m.VertexCount(),
		Triangles: m.TriangleCount(),
		Kept:      m.GroupTriangleCount(0),
		Cut:       m.GroupTriangleCount(1),
		Volume:    m.Volume(),
		Warnings:  m.Warnings,
	}
}

func renderReport(r evalReport) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Model", "Vertices", "Triangles", "Kept", "Cut", "Volume", "Warnings"})
	for _, m := range r.Models {
		t.AppendRow(table.Row{
			m.Name,
			m.Vertices,
			m.Triangles,
			m.Kept,
			m.Cut,
			fmt.Sprintf("%.3f", m.Volume),
			len(m.Warnings),
		})
	}
	return t.Render()
}
