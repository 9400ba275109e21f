// Package selection decides which scene objects the transform gizmo may
// pick up.
package selection

import (
	"strings"

	"github.com/chazu/plantview/pkg/scene"
)

// pathGuideMarker appears in the names of generated path parents.
const pathGuideMarker = "polyline"

// IsSelectable reports whether obj may be manually transformed. The first
// matching rule decides:
//
//  1. gizmo helper planes are judged as the object they belong to;
//  2. pipe segments are always selectable;
//  3. anything named like a path guide ("polyline", any case) that is not
//     a pipe segment or junction is not;
//  4. otherwise the object must be a mesh or plain 3D node, carry a
//     component, connector or gateway type, and be visible.
//
// The name rule is a plain substring match, so a component literally
// named "PolylineFitting" is excluded too.
func IsSelectable(obj *scene.Object) bool {
	if obj == nil {
		return false
	}
	if obj.Kind == scene.KindGizmoPlane {
		obj = obj.Owner
		if obj == nil {
			return false
		}
	}
	if obj.Meta.IsPipeSegment {
		return true
	}
	if strings.Contains(strings.ToLower(obj.Name), pathGuideMarker) && !obj.Meta.IsPipeJunction {
		return false
	}
	if obj.Kind != scene.KindMesh && obj.Kind != scene.KindObject3D {
		return false
	}
	return obj.Meta.ComponentType.Transformable() && obj.Visible
}
