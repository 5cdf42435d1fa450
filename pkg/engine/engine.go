// Package engine evaluates moth-eye configuration scripts. It wraps zygomys
// in a sandboxed environment and produces a config.Config from user source.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/motheye/pkg/config"
	zygo "github.com/glycerine/zygomys/zygo"
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

// ErrNoConfig is reported when a non-empty script never calls moth-eye.
var ErrNoConfig = errors.New("script does not call moth-eye")

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	base       config.Config
	timeout    time.Duration
}

// EvalTimeout bounds a single script run.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned to a caller whose evaluation finished after a
// newer one had started.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// NewEngine creates an Engine whose scripts start from config.Default().
func NewEngine() *Engine {
	return &Engine{base: config.Default(), timeout: EvalTimeout}
}

// scriptResult carries one run's outcome from the evaluating goroutine.
type scriptResult struct {
	cfg    *config.Config
	errors []EvalError
	err    error
}

// Evaluate runs a configuration script and returns the resulting Config.
// The Config is not validated; callers run Config.Validate.
//
// Return semantics:
//   - On success: returns config + nil errors + nil error
//   - On parse/eval failure: returns nil config + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
//
// Empty source yields the base configuration.
func (e *Engine) Evaluate(source string) (*config.Config, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan scriptResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- scriptResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		cfg, evalErrs, err := e.evaluate(source)
		ch <- scriptResult{cfg: cfg, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

// await returns the result of run gen, or an error once e.timeout passes.
// A script stuck in a loop keeps its goroutine; its late result is dropped
// because the channel is buffered and nobody reads it.
func (e *Engine) await(ch <-chan scriptResult, gen uint64) (*config.Config, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		stale := gen != e.generation
		e.mu.Unlock()
		if stale {
			return nil, nil, ErrSuperseded
		}
		return res.cfg, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("config script timed out after %s", e.timeout)
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*config.Config, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		cfg := e.base
		return &cfg, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	st := &scriptState{base: e.base}
	registerBuiltins(env, st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if st.cfg == nil {
		return nil, []EvalError{{Message: ErrNoConfig.Error()}}, nil
	}
	return st.cfg, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
