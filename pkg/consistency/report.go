package consistency

import (
	"fmt"
	"strings"
)

// Outcome is how a step ended.
type Outcome int

const (
	Done    Outcome = iota
	Skipped         // precondition not met or collaborator missing
	Failed          // collaborator returned an error or panicked
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Step names, in execution order.
const (
	StepSegment      = "segment"
	StepClamp        = "clamp"
	StepGeometry     = "geometry"
	StepHistory      = "history"
	StepSceneData    = "scene-data"
	StepPaths        = "paths"
	StepNotification = "notify"

	StepRestore       = "restore"
	StepRemoveGateway = "remove-gateway"
	StepBoundingBoxes = "bounding-boxes"
)

// StepResult records one step.
type StepResult struct {
	Name    string
	Outcome Outcome
	Reason  string // why the step was skipped
	Err     error
}

// Report lists the steps of one run in order.
type Report struct {
	Steps []StepResult
}

// Step returns the result for name.
func (r Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Outcome returns the outcome of name, or Skipped if it never ran.
func (r Report) Outcome(name string) Outcome {
	s, ok := r.Step(name)
	if !ok {
		return Skipped
	}
	return s.Outcome
}

// Failures returns the failed steps.
func (r Report) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Outcome == Failed {
			out = append(out, s)
		}
	}
	return out
}

func (r Report) String() string {
	parts := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		parts[i] = s.Name + "=" + s.Outcome.String()
	}
	return strings.Join(parts, " ")
}
