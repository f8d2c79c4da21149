// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "github.com/chewxy/math32"

// Mesh is a flat, non-indexed vertex stream: each triangle contributes
// three full vertices. Normals equal normalized positions because the
// mesh is a unit sphere.
type Mesh struct {
	Positions []float32 // xyz per vertex
	Normals   []float32 // xyz per vertex

	TriangleCount uint32

	// UniqueVertices is the merged vertex count before flattening.
	// 10*4^n+2 for subdivision depth n; any unmerged duplicate midpoint
	// inflates it.
	UniqueVertices uint32
}

// VertexCount returns the number of vertices in the flattened stream.
func (m *Mesh) VertexCount() uint32 { return m.TriangleCount * 3 }

// edgeKey identifies an edge by its canonicalized (low, high) vertex
// index pair, so shared edges between adjacent faces map to one
// midpoint.
type edgeKey struct {
	lo, hi uint32
}

func makeEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

type vec3 struct {
	x, y, z float32
}

func (v vec3) normalized() vec3 {
	l := math32.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z)
	return vec3{v.x / l, v.y / l, v.z / l}
}

// GenerateIcosphere builds a unit icosphere by recursively subdividing
// the canonical icosahedron. Each pass splits every face into four,
// inserting one vertex per shared edge via the midpoint cache; inserted
// vertices are re-normalized onto the sphere. The result is flattened
// into a non-indexed stream.
//
// Deterministic given subdivisions: 20*4^n triangles, 10*4^n+2 unique
// vertices before flattening. Runs once at scene setup.
func GenerateIcosphere(subdivisions int) *Mesh {
	// Canonical icosahedron: 12 vertices from three orthogonal golden
	// rectangles.
	t := (1 + math32.Sqrt(5)) / 2
	verts := []vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range verts {
		verts[i] = verts[i].normalized()
	}

	faces := [][3]uint32{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for s := 0; s < subdivisions; s++ {
		cache := make(map[edgeKey]uint32)
		midpoint := func(a, b uint32) uint32 {
			key := makeEdgeKey(a, b)
			if idx, ok := cache[key]; ok {
				return idx
			}
			va, vb := verts[a], verts[b]
			mid := vec3{
				(va.x + vb.x) / 2,
				(va.y + vb.y) / 2,
				(va.z + vb.z) / 2,
			}.normalized()
			idx := uint32(len(verts))
			verts = append(verts, mid)
			cache[key] = idx
			return idx
		}

		next := make([][3]uint32, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]uint32{f[0], ab, ca},
				[3]uint32{f[1], bc, ab},
				[3]uint32{f[2], ca, bc},
				[3]uint32{ab, bc, ca},
			)
		}
		faces = next
	}

	m := &Mesh{
		Positions:      make([]float32, 0, len(faces)*9),
		Normals:        make([]float32, 0, len(faces)*9),
		TriangleCount:  uint32(len(faces)),
		UniqueVertices: uint32(len(verts)),
	}
	for _, f := range faces {
		for _, idx := range f {
			v := verts[idx]
			m.Positions = append(m.Positions, v.x, v.y, v.z)
			m.Normals = append(m.Normals, v.x, v.y, v.z)
		}
	}
	return m
}
