package meshcheck

import (
	"fmt"
	"math"

	"github.com/akmonengine/meshcheck/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// Divisions - nombre de boîtes par axe (X, Y, Z)
type Divisions [3]int

// FaceGrid buckets the polygons of a mesh snapshot into a uniform grid of
// boxes spanning the snapshot's bounding volume. A polygon is assigned to
// every box its area geometrically intersects, so no true intersection
// between polygons sharing a region of space can be missed.
//
// The grid is built once per snapshot, queried, then discarded. It is never
// incrementally updated.
type FaceGrid struct {
	mesh      *mesh.Mesh
	divisions Divisions
	bounds    mesh.AABB  // snapshot bounds, inflated on degenerate axes
	lengths   mgl64.Vec3 // per-axis lengths of bounds
	boxes     []mesh.AABB
	faces     [][]int // polygon indices per box, same layout as boxes
}

const DEFAULT_TARGET_PER_BOX = 10

// Smallest positive normal float64. Inflation deltas are kept at or above
// this so subnormal arithmetic never feeds the box-range mapping.
const minNormalFloat64 = 0x1p-1022

var principalAxes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// ============================================================================
// Constructeurs
// ============================================================================

// NewFaceGrid builds the index with divisions derived from the polygon count.
func NewFaceGrid(m *mesh.Mesh, workersCount int) *FaceGrid {
	grid, _ := newFaceGrid(m, SuggestedDivisions(len(m.Polygons), DEFAULT_TARGET_PER_BOX), workersCount)
	return grid
}

// NewFaceGridDivisions builds the index with an explicit division count per
// axis. Any division below 1 is an ErrInvalidConfig.
func NewFaceGridDivisions(m *mesh.Mesh, divisions Divisions, workersCount int) (*FaceGrid, error) {
	for axis, div := range divisions {
		if div < 1 {
			return nil, fmt.Errorf("%w: division %d on axis %d, must be at least 1", ErrInvalidConfig, div, axis)
		}
	}

	return newFaceGrid(m, divisions, workersCount)
}

func newFaceGrid(m *mesh.Mesh, divisions Divisions, workersCount int) (*FaceGrid, error) {
	grid := &FaceGrid{mesh: m}
	grid.divisions, grid.bounds, grid.lengths = adjustedForSmallAxes(divisions, m.Bounds())
	grid.boxes = grid.buildBoxes()
	grid.faces = make([][]int, len(grid.boxes))
	grid.build(max(DEFAULT_WORKERS, workersCount))

	return grid, nil
}

// SuggestedDivisions returns division counts for a given polygon count,
// aiming for targetPerBox polygons per box. Since large polygons land in
// several boxes, the actual count per box runs higher.
func SuggestedDivisions(polycount, targetPerBox int) Divisions {
	if targetPerBox < 1 {
		targetPerBox = DEFAULT_TARGET_PER_BOX
	}

	divs := int(math.Cbrt(float64(polycount) / float64(targetPerBox)))
	if divs < 1 {
		divs = 1
	}

	return Divisions{divs, divs, divs}
}

// adjustedForSmallAxes inflates the bounding box on axes whose extent is too
// small to divide safely, and forces a single division there. Guards against
// floating point errors on flat meshes (e.g. a planar object at z = 0).
func adjustedForSmallAxes(divisions Divisions, bounds mesh.AABB) (Divisions, mesh.AABB, mgl64.Vec3) {
	var lengths mgl64.Vec3

	for axis := 0; axis < 3; axis++ {
		length := bounds.Max[axis] - bounds.Min[axis]
		farValue := math.Max(math.Abs(bounds.Min[axis]), math.Abs(bounds.Max[axis]))
		// The representable gap at the farthest coordinate, scaled by the
		// division count; below this, box boundaries collapse into each other.
		minDelta := math.Max(math.Nextafter(farValue, math.Inf(1))-farValue, minNormalFloat64) *
			float64(divisions[axis]) * 10

		if length < minDelta {
			bounds.Min[axis] -= minDelta * 0.5
			bounds.Max[axis] += minDelta * 0.5
			divisions[axis] = 1
			length = bounds.Max[axis] - bounds.Min[axis]
		}
		lengths[axis] = length
	}

	return divisions, bounds, lengths
}

// ============================================================================
// Construction de la grille
// ============================================================================

// buildBoxes lays the boxes out in flat row-major order, X fastest
func (g *FaceGrid) buildBoxes() []mesh.AABB {
	dx, dy, dz := g.divisions[0], g.divisions[1], g.divisions[2]
	sections := mgl64.Vec3{
		g.lengths[0] / float64(dx),
		g.lengths[1] / float64(dy),
		g.lengths[2] / float64(dz),
	}

	boxes := make([]mesh.AABB, 0, dx*dy*dz)
	for z := 0; z < dz; z++ {
		for y := 0; y < dy; y++ {
			for x := 0; x < dx; x++ {
				boxMin := mgl64.Vec3{
					g.bounds.Min[0] + sections[0]*float64(x),
					g.bounds.Min[1] + sections[1]*float64(y),
					g.bounds.Min[2] + sections[2]*float64(z),
				}
				boxes = append(boxes, mesh.AABB{Min: boxMin, Max: boxMin.Add(sections)})
			}
		}
	}

	return boxes
}

// boxIndex flattens box coordinates: x + y*dx + z*dx*dy
func (g *FaceGrid) boxIndex(x, y, z int) int {
	return x + y*g.divisions[0] + z*g.divisions[0]*g.divisions[1]
}

// candidateBoxes appends to dst the indices of every box the given bounding
// interval spans, as the Cartesian product of the per-axis index ranges.
// The upper step is clamped to divisions-1 so a value exactly on the outer
// grid boundary still maps to the last box.
func (g *FaceGrid) candidateBoxes(bb mesh.AABB, dst []int) []int {
	var stepsMin, stepsMax [3]int
	for axis := 0; axis < 3; axis++ {
		divs := g.divisions[axis]
		scale := float64(divs) / g.lengths[axis]

		stepsMin[axis] = min(int((bb.Min[axis]-g.bounds.Min[axis])*scale), divs-1)
		stepsMax[axis] = min(int((bb.Max[axis]-g.bounds.Min[axis])*scale), divs-1)
	}

	for z := stepsMin[2]; z <= stepsMax[2]; z++ {
		for y := stepsMin[1]; y <= stepsMax[1]; y++ {
			for x := stepsMin[0]; x <= stepsMax[0]; x++ {
				dst = append(dst, g.boxIndex(x, y, z))
			}
		}
	}

	return dst
}

// build registers every polygon into the boxes it intersects. The geometric
// tests run in parallel per polygon; appends happen afterwards on a single
// goroutine.
func (g *FaceGrid) build(workersCount int) {
	polygons := make([]int, len(g.mesh.Polygons))
	for i := range polygons {
		polygons[i] = i
	}

	assignments := taskResults(workersCount, polygons, g.relevantBoxes)

	for polygonIndex, boxIDs := range assignments {
		for _, boxID := range boxIDs {
			g.faces[boxID] = append(g.faces[boxID], polygonIndex)
		}
	}
}

// relevantBoxes returns the boxes one polygon belongs to. With fewer than 3
// candidate boxes the bounding interval is precise enough on its own;
// otherwise each candidate is confirmed with the exact intersection test.
func (g *FaceGrid) relevantBoxes(polygonIndex int) []int {
	if len(g.mesh.Polygons[polygonIndex].Vertices) == 0 {
		return nil
	}

	candidates := g.candidateBoxes(g.mesh.PolygonBounds(polygonIndex), nil)
	if len(candidates) < 3 {
		return candidates
	}

	verts := g.mesh.PolygonVerts(polygonIndex, nil)
	relevant := candidates[:0]
	for _, boxID := range candidates {
		if polygonIntersectsBox(verts, g.boxes[boxID]) {
			relevant = append(relevant, boxID)
		}
	}

	return relevant
}

// ============================================================================
// Intersection exacte polygone / boîte
// ============================================================================

// polygonIntersectsBox reports whether the polygon's area touches or crosses
// the box. A vertex inside the box settles it immediately; otherwise a full
// 3D separating-axis test runs over the polygon's fan normals and every
// edge crossed with the principal box axes.
func polygonIntersectsBox(verts []mgl64.Vec3, box mesh.AABB) bool {
	if len(verts) == 0 {
		return false
	}

	for _, v := range verts {
		if box.ContainsPoint(v) {
			return true
		}
	}

	// Fan normals: project the box onto each (vi-v0)×(vi+1-v0). All polygon
	// vertices project to 0 relative to v0, so a strictly one-sided box
	// interval separates.
	ref0 := verts[0]
	for i := 1; i < len(verts)-1; i++ {
		norm := verts[i].Sub(ref0).Cross(verts[i+1].Sub(ref0))
		minProj, maxProj := box.ProjectOnto(ref0, norm)
		if maxProj < 0 || minProj > 0 {
			return false
		}
	}

	// Edge × principal axis candidates
	for i := range verts {
		ref := verts[i]
		edge := verts[(i+1)%len(verts)].Sub(ref)

		for _, axis := range principalAxes {
			norm := edge.Cross(axis)

			minProj, maxProj := box.ProjectOnto(ref, norm)
			if minProj <= 0 && 0 <= maxProj {
				continue // la boîte chevauche toujours le bord lui-même
			}

			// Project the remaining vertices; the edge endpoints themselves
			// sit at 0 on this axis.
			noOverlap := true
			for k := 0; k < len(verts)-2; k++ {
				proj := verts[(i+k+2)%len(verts)].Sub(ref).Dot(norm)

				var overlapping bool
				if proj > 0 {
					overlapping = intervalsTouch(0, proj, minProj, maxProj)
				} else {
					overlapping = intervalsTouch(proj, 0, minProj, maxProj)
				}
				if overlapping {
					noOverlap = false
					break
				}
			}
			if noOverlap {
				return false
			}
		}
	}

	return true
}

// intervalsTouch - inclusive interval overlap, touching counts
func intervalsTouch(aMin, aMax, bMin, bMax float64) bool {
	return !(aMax < bMin || aMin > bMax)
}

// ============================================================================
// Requêtes
// ============================================================================

// Divisions returns the effective division counts, after degenerate-axis
// adjustment.
func (g *FaceGrid) Divisions() Divisions {
	return g.divisions
}

// Bounds returns the grid's covering volume, inflated where the snapshot was
// degenerate.
func (g *FaceGrid) Bounds() mesh.AABB {
	return g.bounds
}

// BoxBounds returns the corners of box i
func (g *FaceGrid) BoxBounds(i int) mesh.AABB {
	return g.boxes[i]
}

// Boxes returns the non-empty boxes, or all of them when includeEmpty is set
func (g *FaceGrid) Boxes(includeEmpty bool) []mesh.AABB {
	boxes := make([]mesh.AABB, 0, len(g.boxes))
	for i, faces := range g.faces {
		if includeEmpty || len(faces) > 0 {
			boxes = append(boxes, g.boxes[i])
		}
	}

	return boxes
}

// FacesPerNonEmptyBox returns box index -> polygon indices for every box
// holding at least one polygon.
func (g *FaceGrid) FacesPerNonEmptyBox() map[int][]int {
	perBox := make(map[int][]int)
	for i, faces := range g.faces {
		if len(faces) > 0 {
			perBox[i] = faces
		}
	}

	return perBox
}

// SharedBoxes returns the indices of boxes containing every one of the given
// polygons.
func (g *FaceGrid) SharedBoxes(faceIndices []int) []int {
	var shared []int
	for boxID, faces := range g.faces {
		holdsAll := true
		for _, wanted := range faceIndices {
			found := false
			for _, face := range faces {
				if face == wanted {
					found = true
					break
				}
			}
			if !found {
				holdsAll = false
				break
			}
		}
		if holdsAll {
			shared = append(shared, boxID)
		}
	}

	return shared
}
