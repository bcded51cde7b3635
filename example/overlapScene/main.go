package main

import (
	"fmt"

	"github.com/akmonengine/meshcheck"
	"github.com/akmonengine/meshcheck/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// quad builds one 4-vertex polygon mesh from its corners
func quad(corners ...[4]mgl64.Vec3) *mesh.Mesh {
	var verts []mgl64.Vec3
	var faces [][]int
	for _, c := range corners {
		base := len(verts)
		verts = append(verts, c[0], c[1], c[2], c[3])
		faces = append(faces, []int{base, base + 1, base + 2, base + 3})
	}

	return mesh.Build(verts, faces)
}

func main() {
	// Two unit squares sharing the z = 0 plane, overlapping over a quadrant
	doubled := quad(
		[4]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[4]mgl64.Vec3{{0.5, 0.5, 0}, {1.5, 0.5, 0}, {1.5, 1.5, 0}, {0.5, 1.5, 0}},
	)

	// Two parallel squares a full unit apart: parallel, not coplanar
	layered := quad(
		[4]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[4]mgl64.Vec3{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	)

	checker := meshcheck.NewChecker()
	checker.Workers = 4

	checker.Events.Subscribe(meshcheck.OVERLAP_FOUND, func(event meshcheck.Event) {
		found := event.(meshcheck.OverlapFoundEvent)
		fmt.Printf("  overlap on %q: faces %d and %d\n", found.Object, found.Pair.A, found.Pair.B)
	})

	results, err := checker.Run([]meshcheck.Object{
		{Name: "doubled_plane", Mesh: doubled},
		{Name: "layered_planes", Mesh: layered},
	})
	if err != nil {
		panic(err)
	}

	for _, result := range results {
		status := "PASS"
		if !result.Passed() {
			status = "FAIL"
		}
		fmt.Printf("%s %s (%d overlapping pairs)\n", status, result.Name, len(result.Pairs))
	}

	// The same predicate, specialized to UV space
	uvSet, err := meshcheck.FindUVOverlaps([]meshcheck.UVFace{
		{{0.0, 0.0}, {0.5, 0.0}, {0.5, 0.5}, {0.0, 0.5}},
		{{0.4, 0.4}, {0.9, 0.4}, {0.9, 0.9}, {0.4, 0.9}},
		{{0.0, 0.6}, {0.4, 0.6}, {0.4, 0.9}, {0.0, 0.9}},
	}, meshcheck.DEFAULT_THRESHOLD, 2)
	if err != nil {
		panic(err)
	}
	fmt.Printf("UV islands overlapping: %v\n", uvSet.Pairs())
}
