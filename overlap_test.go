package meshcheck

import (
	"errors"
	"maps"
	"slices"
	"testing"

	"github.com/akmonengine/meshcheck/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

func detect(t *testing.T, m *mesh.Mesh, threshold float64) OverlapSet {
	t.Helper()

	grid := NewFaceGrid(m, 2)
	found, err := Detector{Threshold: threshold, Workers: 2}.Detect(m, grid)
	if err != nil {
		t.Fatal(err)
	}

	return found
}

func TestDetectScenarios(t *testing.T) {
	tests := []struct {
		name string
		mesh *mesh.Mesh
		want []FacePair
	}{
		{
			// Same 4 corners twice
			"identical_squares",
			buildQuads(unitSquare(0, 0, 0), unitSquare(0, 0, 0)),
			[]FacePair{{A: 0, B: 1}},
		},
		{
			// Parallel but a full unit apart
			"stacked_squares",
			buildQuads(unitSquare(0, 0, 0), unitSquare(0, 0, 1)),
			nil,
		},
		{
			// Touching along x = 1, sharing no area
			"shared_edge",
			buildQuads(unitSquare(0, 0, 0), unitSquare(1, 0, 0)),
			nil,
		},
		{
			// Half-size square fully inside the unit square, same plane
			"contained_square",
			buildQuads(
				unitSquare(0, 0, 0),
				[4]mgl64.Vec3{{0.25, 0.25, 0}, {0.75, 0.25, 0}, {0.75, 0.75, 0}, {0.25, 0.75, 0}},
			),
			[]FacePair{{A: 0, B: 1}},
		},
		{
			// Offset by half a unit on both axes, sharing one quadrant
			"overlapping_quadrant",
			buildQuads(unitSquare(0, 0, 0), unitSquare(0.5, 0.5, 0)),
			[]FacePair{{A: 0, B: 1}},
		},
		{
			// Mutually disjoint, mutually non-coplanar
			"three_clean_triangles",
			buildTris(
				[3]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
				[3]mgl64.Vec3{{3, 0, 0}, {3, 1, 0}, {3, 0, 1}},
				[3]mgl64.Vec3{{0, 3, 1}, {1, 3, 1}, {0, 4, 2}},
			),
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := detect(t, tt.mesh, DEFAULT_THRESHOLD)
			if got := found.Pairs(); !slices.Equal(got, tt.want) {
				t.Errorf("Pairs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectScenariosAnyDivisions(t *testing.T) {
	// The box grid is an accelerator: refining it must never change the
	// result, only how many candidate boxes get scanned.
	meshes := []struct {
		name string
		mesh *mesh.Mesh
		want []FacePair
	}{
		{
			"flat_scene",
			buildQuads(
				unitSquare(0, 0, 0),
				unitSquare(0.5, 0.5, 0), // overlaps face 0 on a quadrant
				unitSquare(3, 0, 0),     // clean
				unitSquare(3.5, 2, 0),   // clean
			),
			[]FacePair{{A: 0, B: 1}},
		},
		{
			"three_clean_triangles",
			buildTris(
				[3]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
				[3]mgl64.Vec3{{3, 0, 0}, {3, 1, 0}, {3, 0, 1}},
				[3]mgl64.Vec3{{0, 3, 1}, {1, 3, 1}, {0, 4, 2}},
			),
			nil,
		},
	}

	for _, tm := range meshes {
		for _, divisions := range []Divisions{{1, 1, 1}, {2, 2, 2}, {5, 5, 5}} {
			grid, err := NewFaceGridDivisions(tm.mesh, divisions, 2)
			if err != nil {
				t.Fatal(err)
			}

			found, err := Detector{Threshold: DEFAULT_THRESHOLD, Workers: 2}.Detect(tm.mesh, grid)
			if err != nil {
				t.Fatal(err)
			}

			if got := found.Pairs(); !slices.Equal(got, tm.want) {
				t.Errorf("%s, divisions %v: Pairs() = %v, want %v", tm.name, divisions, got, tm.want)
			}
		}
	}
}

func TestDetectIdempotence(t *testing.T) {
	m := buildQuads(unitSquare(0, 0, 0), unitSquare(0.5, 0.5, 0), unitSquare(4, 4, 0))

	first := detect(t, m, DEFAULT_THRESHOLD)
	second := detect(t, m, DEFAULT_THRESHOLD)

	if !maps.Equal(first, second) {
		t.Errorf("two runs disagree: %v vs %v", first.Pairs(), second.Pairs())
	}
}

func TestDetectThresholdAdmitsNearCoplanar(t *testing.T) {
	// Two identical squares 0.0005 apart along z: coplanar within a 1e-3
	// tolerance, not within 1e-4.
	m := buildQuads(unitSquare(0, 0, 0), unitSquare(0, 0, 0.0005))

	if found := detect(t, m, 0.0001); len(found) != 0 {
		t.Errorf("threshold 1e-4 should reject the pair, got %v", found.Pairs())
	}

	found := detect(t, m, 0.001)
	if !found.Has(0, 1) {
		t.Error("threshold 1e-3 should admit the near-coplanar pair")
	}
}

func TestDetectNegativeThreshold(t *testing.T) {
	m := buildQuads(unitSquare(0, 0, 0))
	grid := NewFaceGrid(m, 1)

	_, err := Detector{Threshold: -0.001}.Detect(m, grid)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDetectEmptyMesh(t *testing.T) {
	m := mesh.New(nil, nil)
	found := detect(t, m, DEFAULT_THRESHOLD)
	if len(found) != 0 {
		t.Errorf("empty mesh should produce an empty result, got %v", found.Pairs())
	}
}

func TestDetectDegenerateFacesDoNotPanic(t *testing.T) {
	verts := []mgl64.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0.5, 0.5, 0}, {0.6, 0.5, 0},
	}
	m := mesh.Build(verts, [][]int{
		{0, 1, 2, 3},
		{4, 5},       // sliver inside the quad
		{4, 4, 4},    // fully collapsed
		{0, 1, 2, 3}, // duplicate of face 0
	})

	found := detect(t, m, DEFAULT_THRESHOLD)
	if !found.Has(0, 3) {
		t.Error("duplicate quad should still be reported alongside the degenerate faces")
	}
	// Degenerate faces have a zero normal, so the parallel filter drops them
	for pair := range found {
		if pair.A == 1 || pair.A == 2 || pair.B == 1 || pair.B == 2 {
			t.Errorf("degenerate face reported as overlapping: %v", pair)
		}
	}
}

func TestMakeFacePair(t *testing.T) {
	if MakeFacePair(7, 2) != (FacePair{A: 2, B: 7}) {
		t.Error("MakeFacePair should normalize to A < B")
	}
	if MakeFacePair(2, 7) != MakeFacePair(7, 2) {
		t.Error("both orders must produce the same key")
	}
}

func TestOverlapSetPairsSorted(t *testing.T) {
	found := OverlapSet{
		{A: 4, B: 9}: {},
		{A: 0, B: 2}: {},
		{A: 0, B: 1}: {},
		{A: 4, B: 5}: {},
	}

	want := []FacePair{{A: 0, B: 1}, {A: 0, B: 2}, {A: 4, B: 5}, {A: 4, B: 9}}
	if got := found.Pairs(); !slices.Equal(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}
}

func BenchmarkDetect(b *testing.B) {
	// A 20x20 floor of quads with every fourth quad duplicated on top
	var quads [][4]mgl64.Vec3
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			quads = append(quads, unitSquare(float64(x), float64(y), 0))
			if (x+y)%4 == 0 {
				quads = append(quads, unitSquare(float64(x), float64(y), 0))
			}
		}
	}
	m := buildQuads(quads...)
	grid := NewFaceGrid(m, 4)
	detector := Detector{Threshold: DEFAULT_THRESHOLD, Workers: 4}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := detector.Detect(m, grid); err != nil {
			b.Fatal(err)
		}
	}
}
