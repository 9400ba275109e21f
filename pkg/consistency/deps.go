// Package consistency keeps derived scene state in step with manual
// edits. Engine runs the bookkeeping that follows every completed
// transform; Reverter undoes the connectivity a generated gateway
// introduced when that gateway is deleted.
//
// Every step is best effort. A missing collaborator skips its step with a
// warning, a failing or panicking collaborator is logged, and later steps
// always run.
package consistency

import (
	"context"

	"github.com/chazu/plantview/pkg/scene"
)

// Pathfinder regenerates pipe routes and derived geometry.
type Pathfinder interface {
	// UpdatePathfindingAfterTransform regenerates every route.
	UpdatePathfindingAfterTransform(ctx context.Context, data *scene.SceneData) error
	// HandleManualSegmentTransformation reconciles connectors after a pipe
	// segment was moved by hand.
	HandleManualSegmentTransformation(obj *scene.Object, data *scene.SceneData) error
	// RecomputeWorldBoundingBoxes refreshes every stored world box.
	RecomputeWorldBoundingBoxes(data *scene.SceneData) error
}

// SceneOperations reconciles scene-level bookkeeping after an edit.
type SceneOperations interface {
	UpdateSceneDataAfterTransform(obj *scene.Object, data *scene.SceneData) error
}

// GizmoTarget is the part of the transform gizmo that must follow an
// object moved programmatically.
type GizmoTarget interface {
	SetTarget(obj *scene.Object)
}

// Scheduler runs path regeneration off the caller's path. Implementations
// own error handling and must discard results that arrive after they are
// shut down.
type Scheduler interface {
	SchedulePathUpdate(ctx context.Context, data *scene.SceneData)
}
