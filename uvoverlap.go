package meshcheck

import (
	"github.com/akmonengine/meshcheck/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// UVFace is one polygon's loop of UV coordinates, in winding order.
// Faces do not share UV vertices: seams split loops even when the 3D mesh
// shares the underlying vertex.
type UVFace []mgl64.Vec2

// LiftUVLayer builds a planar snapshot from a UV layer, one polygon per
// face, all at z = 0. Polygon indices in the result match the layer's face
// indices, so overlap pairs map straight back to UV faces.
//
// The grid's degenerate-axis handling inflates the flat z extent, so the
// lifted snapshot goes through the same index and detector as any 3D mesh.
func LiftUVLayer(layer []UVFace) *mesh.Mesh {
	totalVerts := 0
	for _, face := range layer {
		totalVerts += len(face)
	}

	verts := make([]mgl64.Vec3, 0, totalVerts)
	polygons := make([]mesh.Polygon, 0, len(layer))
	for _, face := range layer {
		indices := make([]int, 0, len(face))
		for _, uv := range face {
			indices = append(indices, len(verts))
			verts = append(verts, mgl64.Vec3{uv.X(), uv.Y(), 0})
		}
		polygons = append(polygons, mesh.BuildPolygon(verts, indices))
	}

	return mesh.New(verts, polygons)
}

// FindUVOverlaps runs the overlap detection on a UV layer, in UV units.
// This replaces the host-editor "select overlapping UVs" operators: the same
// separating-axis predicate, specialized to the UV plane.
func FindUVOverlaps(layer []UVFace, threshold float64, workersCount int) (OverlapSet, error) {
	m := LiftUVLayer(layer)
	grid := NewFaceGrid(m, workersCount)

	return Detector{Threshold: threshold, Workers: workersCount}.Detect(m, grid)
}
