package meshcheck

import "testing"

func uvSquare(x, y, size float64) UVFace {
	return UVFace{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size},
	}
}

func TestLiftUVLayer(t *testing.T) {
	layer := []UVFace{
		uvSquare(0, 0, 0.5),
		{{0.6, 0.0}, {0.9, 0.0}, {0.75, 0.3}},
	}

	m := LiftUVLayer(layer)

	if len(m.Polygons) != 2 {
		t.Fatalf("expected 2 polygons, got %d", len(m.Polygons))
	}
	for _, v := range m.Verts {
		if v.Z() != 0 {
			t.Errorf("lifted vertex %v should be at z = 0", v)
		}
	}
	for i, polygon := range m.Polygons {
		if polygon.Normal.Z() == 0 {
			t.Errorf("polygon %d normal %v should point along z", i, polygon.Normal)
		}
		if len(polygon.Vertices) != len(layer[i]) {
			t.Errorf("polygon %d has %d vertices, want %d", i, len(polygon.Vertices), len(layer[i]))
		}
	}
}

func TestFindUVOverlaps(t *testing.T) {
	tests := []struct {
		name string
		uvs  []UVFace
		want int
	}{
		{
			"overlapping_islands",
			[]UVFace{uvSquare(0, 0, 0.5), uvSquare(0.4, 0.4, 0.5)},
			1,
		},
		{
			"packed_islands",
			[]UVFace{uvSquare(0, 0, 0.4), uvSquare(0.5, 0, 0.4), uvSquare(0, 0.5, 0.4)},
			0,
		},
		{
			"touching_islands",
			[]UVFace{uvSquare(0, 0, 0.5), uvSquare(0.5, 0, 0.5)},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := FindUVOverlaps(tt.uvs, DEFAULT_THRESHOLD, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(found) != tt.want {
				t.Errorf("found %v, want %d overlaps", found.Pairs(), tt.want)
			}
		})
	}
}

func TestFindUVOverlapsMirroredFace(t *testing.T) {
	// A mirrored (flipped-winding) island stacked on a regular one: the
	// normals are opposite, which the |n1·n2| parallel test accepts.
	regular := uvSquare(0, 0, 0.5)
	mirrored := UVFace{regular[3], regular[2], regular[1], regular[0]}

	found, err := FindUVOverlaps([]UVFace{regular, mirrored}, DEFAULT_THRESHOLD, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !found.Has(0, 1) {
		t.Error("mirrored island should be reported as overlapping")
	}
}
