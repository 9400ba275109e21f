// Package script is the operator console: short zygomys programs that
// select, move and remove scene objects. Evaluation runs in a fresh
// sandbox and only collects actions; the actions are then applied on the
// caller's goroutine through the viewer, exactly as a gizmo drag would be.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/transform"
	"github.com/chazu/plantview/pkg/viewer"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when evaluation exceeds the console timeout.
	ErrTimeout = errors.New("script: evaluation timed out")
	// ErrSuperseded is returned to an evaluation overtaken by a newer one.
	ErrSuperseded = errors.New("script: evaluation superseded by newer request")
	// ErrNoSelection is returned by a transform without an id when nothing
	// is selected.
	ErrNoSelection = errors.New("script: no object selected")
)

// EvalError is a parse or runtime error in console source.
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

// Op is a console command.
type Op int

const (
	OpSelect Op = iota
	OpTranslate
	OpRotate
	OpScale
	OpRemove
	OpTogglePaths
)

func (o Op) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpTranslate:
		return "translate"
	case OpRotate:
		return "rotate"
	case OpScale:
		return "scale"
	case OpRemove:
		return "remove"
	case OpTogglePaths:
		return "toggle-paths"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Action is one collected command. For transforms, Set marks the axes
// Value overrides; the rest keep the object's current value. Rotations
// are in degrees.
type Action struct {
	Op    Op
	UUID  string
	Value v3.Vec
	Set   [3]bool
}

func (a *Action) set(axis int, f float64) {
	switch axis {
	case 0:
		a.Value.X = f
	case 1:
		a.Value.Y = f
	case 2:
		a.Value.Z = f
	}
	a.Set[axis] = true
}

// merge overrides the set axes of cur.
func (a Action) merge(cur v3.Vec) v3.Vec {
	if a.Set[0] {
		cur.X = a.Value.X
	}
	if a.Set[1] {
		cur.Y = a.Value.Y
	}
	if a.Set[2] {
		cur.Z = a.Value.Z
	}
	return cur
}

func (a Action) String() string {
	if a.UUID == "" {
		return a.Op.String()
	}
	return a.Op.String() + " " + a.UUID
}

// Target is what the console drives. *viewer.Viewer implements it.
type Target interface {
	Scene() *scene.Scene
	Selection() viewer.Selection
	SelectByUUID(uuid string) error
	DeselectObject()
	Transform(ctx context.Context, obj *scene.Object, mode transform.Mode, value v3.Vec) (consistency.Report, error)
	OnObjectRemoved(ctx context.Context, uuid string) error
	ToggleAutoUpdatePaths(ctx context.Context) bool
}

var _ Target = (*viewer.Viewer)(nil)

// Result is the outcome of Run.
type Result struct {
	Actions []Action
	// Applied counts the actions that took effect.
	Applied int
	Reports []consistency.Report
	Errors  []EvalError
}

// Options configures a Console.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// Console evaluates operator scripts. Evaluate is safe for concurrent
// use; Run applies to the target and must be called where the target may
// be used.
type Console struct {
	target  Target
	log     *slog.Logger
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// New returns a console driving t.
func New(t Target, opts Options) *Console {
	c := &Console{target: t, log: opts.Logger, timeout: opts.Timeout}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.timeout <= 0 {
		c.timeout = EvalTimeout
	}
	return c
}

type evalResult struct {
	actions []Action
	errors  []EvalError
	err     error
}

// Evaluate runs source in a fresh sandbox and returns the actions it
// issued. Source errors come back as EvalErrors; a timeout, panic,
// cancellation or newer evaluation as the error.
func (c *Console) Evaluate(ctx context.Context, source string) ([]Action, []EvalError, error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		actions, evalErrs := evaluate(source)
		ch <- evalResult{actions: actions, errors: evalErrs}
	}()

	return waitWithTimeout(ctx, ch, gen, c.timeout, &c.mu, &c.generation)
}

func evaluate(source string) ([]Action, []EvalError) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	var actions []Action
	registerBuiltins(env, &actions)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return actions, nil
}

// waitWithTimeout waits for the evaluation tagged gen. The goroutine may
// outlive a timeout; its result is then discarded.
func waitWithTimeout(ctx context.Context, ch <-chan evalResult, gen uint64, d time.Duration, mu *sync.Mutex, current *uint64) ([]Action, []EvalError, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		stale := gen != *current
		mu.Unlock()
		if stale {
			return nil, nil, ErrSuperseded
		}
		return res.actions, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, d)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// Run evaluates source and applies its actions in order. Application
// stops at the first failing action; the result holds what ran before it.
func (c *Console) Run(ctx context.Context, source string) (Result, error) {
	actions, evalErrs, err := c.Evaluate(ctx, source)
	if err != nil {
		return Result{}, err
	}
	res := Result{Actions: actions, Errors: evalErrs}
	if len(evalErrs) > 0 {
		c.log.Debug("script rejected", "errors", len(evalErrs))
		return res, nil
	}
	for _, a := range actions {
		report, err := c.apply(ctx, a)
		if err != nil {
			c.log.Warn("script action failed", "action", a.String(), "err", err)
			return res, fmt.Errorf("%s: %w", a, err)
		}
		if report != nil {
			res.Reports = append(res.Reports, *report)
		}
		res.Applied++
	}
	c.log.Info("script applied", "actions", res.Applied)
	return res, nil
}

func (c *Console) apply(ctx context.Context, a Action) (*consistency.Report, error) {
	t := c.target
	switch a.Op {
	case OpSelect:
		if a.UUID == "" {
			t.DeselectObject()
			return nil, nil
		}
		return nil, t.SelectByUUID(a.UUID)
	case OpRemove:
		return nil, t.OnObjectRemoved(ctx, a.UUID)
	case OpTogglePaths:
		on := t.ToggleAutoUpdatePaths(ctx)
		c.log.Debug("paths toggled", "autoUpdatePaths", on)
		return nil, nil
	}

	obj, err := c.resolve(a.UUID)
	if err != nil {
		return nil, err
	}
	var mode transform.Mode
	var value v3.Vec
	switch a.Op {
	case OpTranslate:
		mode, value = transform.Translate, a.merge(obj.Position())
	case OpRotate:
		rad := Action{Value: a.Value.MulScalar(math.Pi / 180), Set: a.Set}
		mode, value = transform.Rotate, rad.merge(obj.Rotation())
	case OpScale:
		mode, value = transform.Scale, a.merge(obj.Scale())
	default:
		return nil, fmt.Errorf("unknown op %s", a.Op)
	}
	r, err := t.Transform(ctx, obj, mode, value)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// resolve finds the object an action names, or the selection when the
// action names none.
func (c *Console) resolve(uuid string) (*scene.Object, error) {
	if uuid == "" {
		obj, ok := c.target.Selection().Object()
		if !ok {
			return nil, ErrNoSelection
		}
		return obj, nil
	}
	obj, ok := c.target.Scene().Lookup(uuid)
	if !ok {
		return nil, fmt.Errorf("%s: %w", uuid, scene.ErrNotFound)
	}
	return obj, nil
}

var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// parseZygomysError turns a zygomys error into an EvalError, keeping the
// line number when the message carries one.
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
