// Package mesh holds immutable polygon-mesh snapshots and the bounding-volume
// primitives the overlap checks operate on.
//
// A snapshot is taken once per check run: a vertex pool in a single coordinate
// space plus polygons indexing into it, each with a cached unit normal and
// area. Nothing in this package mutates a snapshot after construction.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Polygon is one face of a snapshot: an ordered sequence of vertex indices
// (winding defines the normal direction) with its cached unit normal and area.
type Polygon struct {
	Vertices []int
	Normal   mgl64.Vec3
	Area     float64
}

// Mesh is an immutable snapshot of a polygonal mesh.
type Mesh struct {
	Verts    []mgl64.Vec3
	Polygons []Polygon
}

// New creates a mesh snapshot from a vertex pool and prebuilt polygons.
// The slices are owned by the snapshot afterwards.
func New(verts []mgl64.Vec3, polygons []Polygon) *Mesh {
	return &Mesh{Verts: verts, Polygons: polygons}
}

// BuildPolygon computes the cached normal and area for a face given its
// vertex indices, using Newell's method. Degenerate faces (fewer than 3
// vertices, or collinear ones) get a zero normal and zero area.
func BuildPolygon(verts []mgl64.Vec3, indices []int) Polygon {
	polygon := Polygon{Vertices: indices}
	if len(indices) < 3 {
		return polygon
	}

	var n mgl64.Vec3
	for i := range indices {
		current := verts[indices[i]]
		next := verts[indices[(i+1)%len(indices)]]

		n[0] += (current.Y() - next.Y()) * (current.Z() + next.Z())
		n[1] += (current.Z() - next.Z()) * (current.X() + next.X())
		n[2] += (current.X() - next.X()) * (current.Y() + next.Y())
	}

	length := n.Len()
	if length > 0 {
		polygon.Normal = n.Mul(1 / length)
		polygon.Area = length * 0.5
	}

	return polygon
}

// Build creates a snapshot from raw face index lists, computing every
// polygon's normal and area.
func Build(verts []mgl64.Vec3, faces [][]int) *Mesh {
	polygons := make([]Polygon, len(faces))
	for i, face := range faces {
		polygons[i] = BuildPolygon(verts, face)
	}

	return New(verts, polygons)
}

// Transformed returns a world-space copy of the mesh. Normals and areas are
// recomputed from the transformed vertices, so non-uniform scales stay
// consistent with the cached data.
func (m *Mesh) Transformed(t Transform) *Mesh {
	verts := make([]mgl64.Vec3, len(m.Verts))
	for i, v := range m.Verts {
		verts[i] = t.Apply(v)
	}

	polygons := make([]Polygon, len(m.Polygons))
	for i := range m.Polygons {
		polygons[i] = BuildPolygon(verts, m.Polygons[i].Vertices)
	}

	return New(verts, polygons)
}

// Bounds returns the bounding box of the whole vertex pool
func (m *Mesh) Bounds() AABB {
	return BoundsOf(m.Verts)
}

// PolygonVerts appends polygon i's vertex positions to dst and returns it
func (m *Mesh) PolygonVerts(i int, dst []mgl64.Vec3) []mgl64.Vec3 {
	for _, index := range m.Polygons[i].Vertices {
		dst = append(dst, m.Verts[index])
	}

	return dst
}

// PolygonBounds returns the bounding box of polygon i
func (m *Mesh) PolygonBounds(i int) AABB {
	indices := m.Polygons[i].Vertices
	if len(indices) == 0 {
		return AABB{}
	}

	first := m.Verts[indices[0]]
	bounds := AABB{Min: first, Max: first}
	for _, index := range indices[1:] {
		v := m.Verts[index]
		for axis := 0; axis < 3; axis++ {
			bounds.Min[axis] = math.Min(bounds.Min[axis], v[axis])
			bounds.Max[axis] = math.Max(bounds.Max[axis], v[axis])
		}
	}

	return bounds
}
