// Package engine evaluates krado scripts. It wraps zygomys in a sandboxed
// environment whose builtins build geometry, assign schemes, mesh the
// model and export the result.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/krado/pkg/blob"
	"github.com/chazu/krado/pkg/logging"
	"github.com/chazu/krado/pkg/mesh"
	"github.com/chazu/krado/pkg/meshio"
	"github.com/chazu/krado/pkg/model"
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

// Session is the outcome of one evaluation.
type Session struct {
	// Model and Mesh are nil until the script calls (model ...).
	Model *model.Model
	Mesh  *mesh.Mesh
	// Value is the printed value of the last expression.
	Value string
	// Exports lists the blob names written by (export ...), in order.
	Exports []string
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout     time.Duration
	store       blob.Store
	compression meshio.Compression
	logger      *logging.Logger
	meshOpts    []mesh.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the store that (export ...) writes to.
func WithStore(s blob.Store) Option { return func(e *Engine) { e.store = s } }

// WithCompression sets the codec used by (export ...).
func WithCompression(c meshio.Compression) Option { return func(e *Engine) { e.compression = c } }

// WithLogger sets the logger handed to meshes and exports.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMeshOptions adds options applied to every mesh a script creates.
func WithMeshOptions(opts ...mesh.Option) Option {
	return func(e *Engine) { e.meshOpts = append(e.meshOpts, opts...) }
}

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout:     EvalTimeout,
		compression: meshio.CompressionZstd,
		logger:      logging.NoopLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs source in a fresh sandbox.
//
// Return semantics:
//   - On success: returns session + nil errors + nil error
//   - On parse/eval failure: returns nil session + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Session, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{session: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

func (e *Engine) evaluate(source string) (*Session, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return &Session{}, nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	st := &state{engine: e, session: &Session{}}
	registerBuiltins(env, st)

	if err := env.LoadString(rewriteSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	v, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	if v != nil {
		st.session.Value = v.SexpString(nil)
	}
	return st.session, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
