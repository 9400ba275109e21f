package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chazu/plantview/pkg/events"
	"github.com/chazu/plantview/pkg/history"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/settings"
	"github.com/chazu/plantview/pkg/transform"
)

// Options wires an Engine. Every collaborator is optional.
type Options struct {
	Pathfinder Pathfinder
	SceneOps   SceneOperations
	Recorder   history.Recorder
	Gizmo      GizmoTarget
	Settings   settings.Provider
	Notifier   events.Notifier
	// Scheduler, when set, takes over path regeneration. Otherwise the
	// Pathfinder is called synchronously.
	Scheduler Scheduler
	Logger    *slog.Logger
	Now       func() time.Time
}

// Engine runs the post-transform pipeline.
type Engine struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// New returns an engine using opts.
func New(opts Options) *Engine {
	e := &Engine{opts: opts, log: opts.Logger, now: opts.Now}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// SetGizmo replaces the gizmo the clamp step re-targets.
func (e *Engine) SetGizmo(g GizmoTarget) { e.opts.Gizmo = g }

// SetRecorder replaces the history recorder.
func (e *Engine) SetRecorder(r history.Recorder) { e.opts.Recorder = r }

// OnTransformEnd runs the post-transform steps for obj in order:
// pipe-segment reconciliation, surface clamp, geometry commit, history,
// scene-data bookkeeping, path regeneration and the completion notice.
// A nil session skips only the history step. The returned report
// describes each step; nothing is propagated as an error.
func (e *Engine) OnTransformEnd(ctx context.Context, obj *scene.Object, data *scene.SceneData, session *transform.Session) Report {
	var r Report
	if obj == nil {
		e.log.Warn("transform end without an object")
		return r
	}
	log := e.log.With("uuid", obj.UUID)

	runStep(&r, log, StepSegment, func() (string, error) {
		if !obj.Meta.IsPipeSegment {
			return "not a pipe segment", nil
		}
		if e.opts.Pathfinder == nil {
			return missing(log, "pathfinder", StepSegment)
		}
		if data == nil {
			return missing(log, "scene data", StepSegment)
		}
		return "", e.opts.Pathfinder.HandleManualSegmentTransformation(obj, data)
	})

	runStep(&r, log, StepClamp, func() (string, error) {
		if !e.checkUnderground(log) {
			return "underground check disabled", nil
		}
		p := obj.Position()
		if p.Y >= 0 {
			return "above surface", nil
		}
		p.Y = 0
		obj.SetPosition(p)
		log.Debug("clamped to surface")
		if e.opts.Gizmo != nil {
			e.opts.Gizmo.SetTarget(obj)
		}
		return "", nil
	})

	runStep(&r, log, StepGeometry, func() (string, error) {
		obj.UpdateMatrix()
		rec := obj.Meta.Record
		if rec == nil {
			return "no record", nil
		}
		box, ok := obj.WorldBoundingBox()
		if !ok {
			return "no geometry", nil
		}
		rec.UserData.WorldBoundingBox = scene.BoxRecordOf(box)
		return "", nil
	})

	runStep(&r, log, StepHistory, func() (string, error) {
		if session == nil {
			return "no session", nil
		}
		mode, prev, ok := session.End()
		if !ok {
			return "no snapshot", nil
		}
		if e.opts.Recorder == nil {
			return missing(log, "history recorder", StepHistory)
		}
		return "", e.opts.Recorder.Record(transform.NewRecord(mode, obj, prev))
	})

	runStep(&r, log, StepSceneData, func() (string, error) {
		if e.opts.SceneOps == nil {
			return missing(log, "scene operations", StepSceneData)
		}
		return "", e.opts.SceneOps.UpdateSceneDataAfterTransform(obj, data)
	})

	runStep(&r, log, StepPaths, func() (string, error) {
		if !e.autoUpdatePaths(log) {
			return "auto update disabled", nil
		}
		return recomputePaths(ctx, log, e.opts.Scheduler, e.opts.Pathfinder, data)
	})

	runStep(&r, log, StepNotification, func() (string, error) {
		if e.opts.Notifier == nil {
			log.Debug("no notification sink")
			return "no notifier", nil
		}
		e.opts.Notifier.SceneUpdateComplete(e.now())
		return "", nil
	})

	return r
}

// recomputePaths hands regeneration to sched if there is one and
// otherwise calls pf directly.
func recomputePaths(ctx context.Context, log *slog.Logger, sched Scheduler, pf Pathfinder, data *scene.SceneData) (string, error) {
	if sched != nil {
		sched.SchedulePathUpdate(ctx, data)
		return "", nil
	}
	if pf == nil {
		return missing(log, "pathfinder", StepPaths)
	}
	return "", pf.UpdatePathfindingAfterTransform(ctx, data)
}

func (e *Engine) checkUnderground(log *slog.Logger) bool {
	return settings.CheckUnderground(e.opts.Settings, log)
}

func (e *Engine) autoUpdatePaths(log *slog.Logger) bool {
	return settings.AutoUpdatePaths(e.opts.Settings, log)
}

// runStep executes one step, turning a returned skip reason, error or panic
// into a StepResult.
func runStep(r *Report, log *slog.Logger, name string, fn func() (string, error)) {
	res := StepResult{Name: name}
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				res.Err = fmt.Errorf("%s: panic: %v", name, rec)
			}
		}()
		res.Reason, res.Err = fn()
	}()
	switch {
	case res.Err != nil:
		res.Outcome = Failed
		log.Error("post-transform step failed", "step", name, "err", res.Err)
	case res.Reason != "":
		res.Outcome = Skipped
	default:
		res.Outcome = Done
	}
	r.Steps = append(r.Steps, res)
}

func missing(log *slog.Logger, what, step string) (string, error) {
	log.Warn("collaborator missing, skipping step", "collaborator", what, "step", step)
	return "no " + what, nil
}
