// Package engine provides the Lisp evaluation engine for Carve.
// It wraps zygomys in a sandboxed environment and produces a DesignGraph
// of primitives, placements and booleans from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/carve/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for Carve evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	log        *zap.SugaredLogger
}

// NewEngine creates a new Engine instance with the default timeout and no
// logging.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout, log: zap.NewNop().Sugar()}
}

// SetTimeout changes the limit for later evaluations. A non-positive d
// restores EvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = EvalTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// SetLogger routes evaluation logging to log. Nil disables it.
func (e *Engine) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e.mu.Lock()
	e.log = log
	e.mu.Unlock()
}

// Evaluate takes Lisp source code and produces a new DesignGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*graph.DesignGraph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	timeout, log := e.timeout, e.log
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := evaluate(source, gen)
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()

	start := time.Now()
	g, evalErrs, err := waitWithTimeout(ch, gen, timeout, &e.mu, &e.generation)
	switch {
	case err != nil:
		log.Warnw("evaluation failed", "generation", gen, "error", err)
	case len(evalErrs) > 0:
		log.Debugw("evaluation reported errors", "generation", gen, "errors", len(evalErrs), "first", evalErrs[0].Error())
	default:
		log.Debugw("evaluated", "generation", gen, "nodes", g.NodeCount(), "roots", len(g.Roots), "elapsed", time.Since(start))
	}
	return g, evalErrs, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox. The
// returned graph carries gen as its version.
func evaluate(source string, gen uint64) (*graph.DesignGraph, []EvalError, error) {
	g := graph.New()
	g.Version = gen

	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return g, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, newBuilder(g))

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return g, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// Try to extract line numbers from the error message.
	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Line:    0,
		Col:     0,
		Message: strings.TrimSpace(msg),
	}}
}
