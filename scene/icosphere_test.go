package scene

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestGenerateIcosphereCounts(t *testing.T) {
	cases := []struct {
		subdivisions  int
		wantTriangles uint32
		wantVertices  uint32
	}{
		{0, 20, 12},
		{1, 80, 42},
		{2, 320, 162},
		{3, 1280, 642},
	}
	for _, tc := range cases {
		m := GenerateIcosphere(tc.subdivisions)
		if m.TriangleCount != tc.wantTriangles {
			t.Errorf("subdivisions=%d: triangles = %d, want %d",
				tc.subdivisions, m.TriangleCount, tc.wantTriangles)
		}
		if m.UniqueVertices != tc.wantVertices {
			t.Errorf("subdivisions=%d: unique vertices = %d, want %d",
				tc.subdivisions, m.UniqueVertices, tc.wantVertices)
		}
		if got := uint32(len(m.Positions)); got != m.TriangleCount*9 {
			t.Errorf("subdivisions=%d: positions length = %d, want %d",
				tc.subdivisions, got, m.TriangleCount*9)
		}
		if len(m.Normals) != len(m.Positions) {
			t.Errorf("subdivisions=%d: normals length %d != positions length %d",
				tc.subdivisions, len(m.Normals), len(m.Positions))
		}
	}
}

func TestIcosphereSubdivisionQuadruples(t *testing.T) {
	prev := GenerateIcosphere(0)
	for n := 1; n <= 3; n++ {
		m := GenerateIcosphere(n)
		if m.TriangleCount != prev.TriangleCount*4 {
			t.Fatalf("n=%d: triangles = %d, want 4x previous (%d)",
				n, m.TriangleCount, prev.TriangleCount*4)
		}
		prev = m
	}
}

func TestIcosphereVerticesOnUnitSphere(t *testing.T) {
	m := GenerateIcosphere(2)
	const tol = 1e-5
	for i := 0; i+2 < len(m.Positions); i += 3 {
		x, y, z := m.Positions[i], m.Positions[i+1], m.Positions[i+2]
		l := math32.Sqrt(x*x + y*y + z*z)
		if math32.Abs(l-1) > tol {
			t.Fatalf("vertex %d has length %v, want 1", i/3, l)
		}
	}
}

func TestIcosphereNormalsEqualPositions(t *testing.T) {
	m := GenerateIcosphere(1)
	for i := range m.Positions {
		if m.Normals[i] != m.Positions[i] {
			t.Fatalf("normal[%d] = %v != position %v", i, m.Normals[i], m.Positions[i])
		}
	}
}

func TestIcosphereDeterministic(t *testing.T) {
	a := GenerateIcosphere(2)
	b := GenerateIcosphere(2)
	if a.TriangleCount != b.TriangleCount {
		t.Fatal("triangle counts differ between runs")
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("position %d differs between runs", i)
		}
	}
}
