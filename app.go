package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/history"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/script"
	"github.com/chazu/plantview/pkg/settings"
	"github.com/chazu/plantview/pkg/transform"
	"github.com/chazu/plantview/pkg/viewer"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// App is the Wails backend. Its exported methods are bound to the
// frontend; they are serialized by mu, which the viewer also holds while
// applying background path routing.
type App struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	log      *slog.Logger
	settings settings.Provider
	stack    *history.Stack
	journal  *history.Journal
	front    *frontend
	viewer   *viewer.Viewer
	console  *script.Console
}

// AppOptions configures NewApp. Empty paths disable the settings file and
// the transform journal.
type AppOptions struct {
	SettingsPath string
	JournalPath  string
	Logger       *slog.Logger
}

// ErrorData is a JSON-serializable error for the frontend.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// StepData is one consistency step as shown in the status bar.
type StepData struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// TransformResult is returned by Transform, Undo, Redo and RunScript.
type TransformResult struct {
	OK     bool        `json:"ok"`
	Steps  []StepData  `json:"steps"`
	Errors []ErrorData `json:"errors"`
}

// FindingData is a validation finding.
type FindingData struct {
	UUID     string `json:"uuid,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// GatewayData describes an inserted gateway.
type GatewayData struct {
	UUID    string `json:"uuid"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

var (
	errNothingToUndo = errors.New("nothing to undo")
	errNothingToRedo = errors.New("nothing to redo")
)

// NewApp builds the backend over an empty scene.
func NewApp(opts AppOptions) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		log:   log,
		stack: history.NewStack(0),
		front: &frontend{log: log},
	}

	a.settings = settings.NewMemory(settings.Default())
	if opts.SettingsPath != "" {
		a.settings = settings.Open(opts.SettingsPath, log)
	}

	var rec history.Recorder = a.stack
	if opts.JournalPath != "" {
		j, err := history.OpenJournal(opts.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.journal = j
		rec = history.Multi{a.stack, j}
	}

	v, err := viewer.New(viewer.Options{
		Settings: a.settings,
		Recorder: rec,
		Notifier: a.front,
		Logger:   log,
		Lock:     &a.mu,
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	v.InitTransformControls()
	a.front.forward(v.Bus())
	a.viewer = v
	a.console = script.New(v, script.Options{Logger: log})
	return a, nil
}

// startup is called by Wails on app startup. The viewer loop and the
// settings watcher live until shutdown.
func (a *App) startup(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.ctx = ctx
	a.cancel = cancel
	a.front.setContext(ctx)
	a.mu.Unlock()

	go func() {
		if err := a.viewer.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("viewer loop stopped", "err", err)
		}
	}()
	if st, ok := a.settings.(*settings.Store); ok {
		go func() {
			if err := st.Watch(ctx); err != nil {
				a.log.Warn("settings watch stopped", "err", err)
			}
		}()
	}
}

// shutdown is called by Wails before the window closes.
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
	a.viewer.Dispose()
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("closing journal failed", "err", err)
		}
	}
}

func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// LoadScene replaces the scene with the given document JSON.
func (a *App) LoadScene(doc string) error {
	d, err := scene.Decode(strings.NewReader(doc))
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.viewer.LoadSceneData(d); err != nil {
		return err
	}
	a.stack.Reset()
	if err := a.viewer.EnableTransformControls(); err != nil {
		a.log.Debug("controls left disabled", "err", err)
	}
	a.viewer.UpdatePaths(a.context())
	return nil
}

// SceneJSON returns the current document.
func (a *App) SceneJSON() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var buf bytes.Buffer
	if err := scene.Encode(&buf, a.viewer.Data()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Select attaches the gizmo to the object with the given UUID.
func (a *App) Select(uuid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewer.SelectByUUID(uuid)
}

// Deselect clears the selection.
func (a *App) Deselect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.viewer.DeselectObject()
}

// Transform applies one snapped gizmo gesture. Rotation components are in
// degrees.
func (a *App) Transform(uuid, mode string, x, y, z float64) (TransformResult, error) {
	m, err := transform.ParseMode(mode)
	if err != nil {
		return TransformResult{}, err
	}
	value := v3.Vec{X: x, Y: y, Z: z}
	if m == transform.Rotate {
		value = value.MulScalar(degToRad)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	obj, ok := a.viewer.Scene().Lookup(uuid)
	if !ok {
		return TransformResult{}, fmt.Errorf("transform %s: %w", uuid, scene.ErrNotFound)
	}
	if g, ok := a.viewer.Gizmo().(interface {
		Snapped(transform.Mode, v3.Vec) v3.Vec
	}); ok {
		value = g.Snapped(m, value)
	}
	r, err := a.viewer.Transform(a.context(), obj, m, value)
	if err != nil {
		return TransformResult{}, err
	}
	return resultOf(r), nil
}

// InsertGateway splits the connection between two objects through a new
// gateway at (x, y, z).
func (a *App) InsertGateway(from, to string, x, y, z float64) (GatewayData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	info, err := a.viewer.InsertGateway(a.context(), from, to, v3.Vec{X: x, Y: y, Z: z})
	if err != nil {
		return GatewayData{}, err
	}
	return GatewayData{UUID: info.UUID, Added: len(info.Connections.Added), Removed: len(info.Connections.Removed)}, nil
}

// RemoveGateway deletes an object; a gateway inserted in this session has
// its connection change reverted.
func (a *App) RemoveGateway(uuid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewer.OnObjectRemoved(a.context(), uuid)
}

// RunScript evaluates console source and applies it.
func (a *App) RunScript(source string) TransformResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	res, err := a.console.Run(a.context(), source)
	out := TransformResult{Steps: []StepData{}, Errors: []ErrorData{}}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	if err != nil {
		a.log.Warn("script failed", "err", err)
		out.Errors = append(out.Errors, ErrorData{Message: err.Error()})
	}
	for _, r := range res.Reports {
		out.Steps = append(out.Steps, resultOf(r).Steps...)
	}
	out.OK = len(out.Errors) == 0
	return out
}

// ToggleAutoUpdatePaths flips path regeneration and returns the new state.
func (a *App) ToggleAutoUpdatePaths() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewer.ToggleAutoUpdatePaths(a.context())
}

// Validate checks the current document.
func (a *App) Validate() []FindingData {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []FindingData{}
	for _, f := range scene.Validate(a.viewer.Data()) {
		out = append(out, FindingData{UUID: f.UUID, Message: f.Message, Severity: f.Severity.String()})
	}
	return out
}

// Undo reverts the most recent transform.
func (a *App) Undo() (TransformResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.stack.Undo()
	if !ok {
		return TransformResult{}, errNothingToUndo
	}
	return a.commit(rec), nil
}

// Redo re-applies the most recently undone transform.
func (a *App) Redo() (TransformResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.stack.Redo()
	if !ok {
		return TransformResult{}, errNothingToRedo
	}
	return a.commit(rec), nil
}

// commit reconciles the scene after the stack moved an object. Objects
// removed since the record was made are left alone.
func (a *App) commit(rec transform.Record) TransformResult {
	if obj, ok := a.viewer.Scene().Lookup(rec.UUID); !ok || obj != rec.Object {
		a.log.Warn("history target no longer in scene", "uuid", rec.UUID)
		return TransformResult{Steps: []StepData{}, Errors: []ErrorData{}}
	}
	return resultOf(a.viewer.Commit(a.context(), rec.Object))
}

const degToRad = math.Pi / 180

func resultOf(r consistency.Report) TransformResult {
	out := TransformResult{Steps: []StepData{}, Errors: []ErrorData{}}
	for _, s := range r.Steps {
		d := StepData{Name: s.Name, Outcome: s.Outcome.String(), Detail: s.Reason}
		if s.Err != nil {
			d.Detail = s.Err.Error()
			out.Errors = append(out.Errors, ErrorData{Message: s.Name + ": " + s.Err.Error()})
		}
		out.Steps = append(out.Steps, d)
	}
	out.OK = len(out.Errors) == 0
	return out
}
