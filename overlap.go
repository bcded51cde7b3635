package meshcheck

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/akmonengine/meshcheck/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfig is returned before any work begins when a threshold or a
// division count is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// ============================================================================
// Types
// ============================================================================

// FacePair - unordered pair of polygon indices, A < B
type FacePair struct {
	A, B int
}

// MakeFacePair normalizes the ordering so the same geometric pair always
// produces the same key, whichever box discovered it.
func MakeFacePair(i, j int) FacePair {
	if j < i {
		i, j = j, i
	}

	return FacePair{A: i, B: j}
}

// OverlapSet is the deduplicated set of overlapping polygon pairs.
type OverlapSet map[FacePair]struct{}

// Has reports whether the pair (i, j) was found overlapping, in either order
func (s OverlapSet) Has(i, j int) bool {
	_, ok := s[MakeFacePair(i, j)]
	return ok
}

// Pairs returns the pairs sorted by (A, B), for stable reporting
func (s OverlapSet) Pairs() []FacePair {
	pairs := make([]FacePair, 0, len(s))
	for pair := range s {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	return pairs
}

// Detector finds pairs of polygons that are parallel, coplanar within
// Threshold, and truly overlapping in their shared plane. Candidate pairs
// come from a FaceGrid, so only polygons bucketed together are ever compared.
type Detector struct {
	// Threshold is the length-unit tolerance, in the same unit as the vertex
	// coordinates. Callers normalize unit scale before invoking the detector.
	Threshold float64
	Workers   int
}

// ============================================================================
// Détection
// ============================================================================

// Detect runs the scan over every non-empty box of the grid and returns the
// deduplicated overlapping pairs. A negative threshold is an
// ErrInvalidConfig; degenerate meshes return an empty set, never an error.
func (d Detector) Detect(m *mesh.Mesh, grid *FaceGrid) (OverlapSet, error) {
	if d.Threshold < 0 {
		return nil, fmt.Errorf("%w: threshold %v is negative", ErrInvalidConfig, d.Threshold)
	}

	found := make(OverlapSet)
	for pair := range scanBoxes(m, grid, d.Threshold, max(DEFAULT_WORKERS, d.Workers)) {
		found[pair] = struct{}{}
	}

	return found, nil
}

// scanBoxes - version parallèle: each worker scans a chunk of boxes and
// emits overlapping pairs on the channel. A pair straddling a box boundary
// may be emitted more than once; the receiving set deduplicates.
func scanBoxes(m *mesh.Mesh, grid *FaceGrid, threshold float64, workersCount int) <-chan FacePair {
	var wg sync.WaitGroup
	pairsChan := make(chan FacePair, workersCount*10)

	boxesPerWorker := len(grid.faces) / workersCount
	if boxesPerWorker == 0 {
		boxesPerWorker = 1
	}

	for w := 0; w < workersCount; w++ {
		startIdx := w * boxesPerWorker
		endIdx := startIdx + boxesPerWorker
		if w == workersCount-1 {
			endIdx = len(grid.faces)
		}
		if startIdx >= len(grid.faces) {
			break
		}
		wg.Add(1)

		go func(start, end int) {
			defer wg.Done()

			for boxIdx := start; boxIdx < end; boxIdx++ {
				faces := grid.faces[boxIdx]
				if len(faces) < 2 {
					continue
				}

				for i := 0; i < len(faces); i++ {
					for j := i + 1; j < len(faces); j++ {
						a, b := faces[i], faces[j]

						if !parallelFaces(m, a, b, threshold) {
							continue
						}
						if !coplanarFaces(m, a, b, threshold) {
							continue
						}
						if overlappingFaces(m, a, b, threshold) {
							pairsChan <- MakeFacePair(a, b)
						}
					}
				}
			}
		}(startIdx, endIdx)
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

// ============================================================================
// Prédicats
// ============================================================================

// parallelFaces - 1 - |n1·n2| ≤ threshold. Cheap pre-filter: non-parallel
// faces cannot be coplanar.
func parallelFaces(m *mesh.Mesh, a, b int, threshold float64) bool {
	dot := m.Polygons[a].Normal.Dot(m.Polygons[b].Normal)
	return 1.0-math.Abs(dot) <= threshold
}

// coplanarFaces checks whether two nearly parallel faces are close enough to
// be treated as coplanar. Face a fixes the reference plane; face b's vertices
// project onto a's normal as signed distances. The faces are coplanar when
// the distance interval straddles zero, or either end is within threshold.
func coplanarFaces(m *mesh.Mesh, a, b int, threshold float64) bool {
	aNormal := m.Polygons[a].Normal
	ref := m.Verts[m.Polygons[a].Vertices[0]]

	bIndices := m.Polygons[b].Vertices
	bMin := m.Verts[bIndices[0]].Sub(ref).Dot(aNormal)
	bMax := bMin
	for _, index := range bIndices[1:] {
		proj := m.Verts[index].Sub(ref).Dot(aNormal)
		if proj > bMax {
			bMax = proj
		} else if proj < bMin {
			bMin = proj
		}
	}

	if bMin <= 0 && 0 <= bMax {
		return true
	}

	return math.Abs(bMin) <= threshold || math.Abs(bMax) <= threshold
}

// overlappingFaces decides whether two almost coplanar faces truly share
// area, by the separating axis theorem restricted to axes derivable from the
// faces themselves: for every edge of either face, edge × normal is an axis
// lying in that face's plane, perpendicular to the edge. If any such axis
// separates the projections, the faces only touch or are disjoint.
//
// The other face's projected interval is shrunk inward by threshold on both
// ends, so overlaps shallower than the tolerance do not count.
func overlappingFaces(m *mesh.Mesh, a, b int, threshold float64) bool {
	aVerts := m.PolygonVerts(a, nil)
	bVerts := m.PolygonVerts(b, nil)

	var tried []mgl64.Vec3
	sides := [2]struct {
		normal mgl64.Vec3
		verts  []mgl64.Vec3
		others []mgl64.Vec3
	}{
		{m.Polygons[a].Normal, aVerts, bVerts},
		{m.Polygons[b].Normal, bVerts, aVerts},
	}

	for _, side := range sides {
		numVerts := len(side.verts)
		for i := 0; i < numVerts; i++ {
			ref := side.verts[i]
			edge := side.verts[(i+1)%numVerts].Sub(ref)

			axis := edge.Cross(side.normal)
			if slices.Contains(tried, axis) {
				continue // already checked, was not separating
			}
			tried = append(tried, axis)

			minProj, maxProj := projectVerts(ref, axis, side.others)
			minProj += threshold
			maxProj -= threshold
			if minProj < 0 && 0 < maxProj {
				continue // the other face spans this edge, cannot separate here
			}

			// The remaining vertices of this face (the edge endpoints project
			// to 0) decide which side of the edge the face lies on.
			isSeparatingAxis := true
			for k := 0; k < numVerts-2; k++ {
				proj := side.verts[(i+k+2)%numVerts].Sub(ref).Dot(axis)

				var overlapping bool
				if proj > 0 {
					overlapping = intervalsOverlap(0, proj, minProj, maxProj)
				} else {
					overlapping = intervalsOverlap(proj, 0, minProj, maxProj)
				}
				if overlapping {
					isSeparatingAxis = false
					break
				}
			}
			if isSeparatingAxis {
				return false
			}
		}
	}

	return true
}

// projectVerts projects vertices onto an axis, measured from ref, and
// returns the interval covered.
func projectVerts(ref, axis mgl64.Vec3, verts []mgl64.Vec3) (float64, float64) {
	outMin := verts[0].Sub(ref).Dot(axis)
	outMax := outMin
	for _, v := range verts[1:] {
		proj := v.Sub(ref).Dot(axis)
		if proj < outMin {
			outMin = proj
		} else if proj > outMax {
			outMax = proj
		}
	}

	return outMin, outMax
}

// intervalsOverlap - strict: the intervals must share interior, touching is
// not overlapping
func intervalsOverlap(aMin, aMax, bMin, bMax float64) bool {
	return aMax > bMin && aMin < bMax
}
