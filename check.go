package meshcheck

import (
	"fmt"

	"github.com/akmonengine/meshcheck/mesh"
)

const DEFAULT_WORKERS = 1

// DEFAULT_THRESHOLD is the length-unit tolerance used by the overlapping
// faces check. Callers working in other unit scales normalize before
// building their snapshots.
const DEFAULT_THRESHOLD = 0.001

// Object - a named mesh snapshot to check
type Object struct {
	Name string
	Mesh *mesh.Mesh
}

// ObjectResult is the outcome of the check for a single object. Pairs is
// sorted and empty when the object passed.
type ObjectResult struct {
	Name  string
	Pairs []FacePair
}

// Passed reports whether no overlapping faces were found
func (r ObjectResult) Passed() bool {
	return len(r.Pairs) == 0
}

// Checker runs the overlapping-faces check over a set of objects. Each
// object gets its own FaceGrid and detector run; objects never share state.
type Checker struct {
	// Threshold in the snapshot's length unit
	Threshold float64
	// Divisions per axis; nil derives them from each object's polygon count
	Divisions *Divisions
	Workers   int

	Events Events
}

// NewChecker returns a checker with the defaults the overlappingFaces check
// ships with.
func NewChecker() *Checker {
	return &Checker{
		Threshold: DEFAULT_THRESHOLD,
		Workers:   DEFAULT_WORKERS,
		Events:    NewEvents(),
	}
}

// Run checks every object and returns per-object results in input order.
// Events are emitted per overlap and per object outcome, then flushed once
// all objects are done.
func (c *Checker) Run(objects []Object) ([]ObjectResult, error) {
	results := make([]ObjectResult, 0, len(objects))

	for _, object := range objects {
		pairs, err := c.CheckMesh(object.Mesh)
		if err != nil {
			return nil, err
		}

		result := ObjectResult{Name: object.Name, Pairs: pairs.Pairs()}
		results = append(results, result)

		for _, pair := range result.Pairs {
			c.Events.emit(OverlapFoundEvent{Object: object.Name, Pair: pair})
		}
		if result.Passed() {
			c.Events.emit(ObjectPassedEvent{Object: object.Name})
		} else {
			c.Events.emit(ObjectFailedEvent{Object: object.Name, Pairs: result.Pairs})
		}
	}

	c.Events.flush()

	return results, nil
}

// CheckMesh builds the spatial index for one snapshot and runs the detector.
// Configuration is validated before any index work starts.
func (c *Checker) CheckMesh(m *mesh.Mesh) (OverlapSet, error) {
	if c.Threshold < 0 {
		return nil, fmt.Errorf("%w: threshold %v is negative", ErrInvalidConfig, c.Threshold)
	}

	var grid *FaceGrid
	var err error

	if c.Divisions != nil {
		grid, err = NewFaceGridDivisions(m, *c.Divisions, c.Workers)
		if err != nil {
			return nil, err
		}
	} else {
		grid = NewFaceGrid(m, c.Workers)
	}

	return Detector{Threshold: c.Threshold, Workers: c.Workers}.Detect(m, grid)
}

// Failures filters the results down to the failed objects
func Failures(results []ObjectResult) []ObjectResult {
	var failed []ObjectResult
	for _, result := range results {
		if !result.Passed() {
			failed = append(failed, result)
		}
	}

	return failed
}
