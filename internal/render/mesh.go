package render

import (
	"runtime"

	"anypose/internal/scenegraph"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Mesh is model geometry uploaded to the GPU. Models share the renderer's lit material,
// so a Mesh only owns its vertex buffers.
type Mesh struct {
	mesh     rl.Mesh
	released bool
}

// flatten expands indexed geometry into one vertex per triangle corner. raylib frees
// index arrays with the C allocator, so uploaded meshes must not keep Go-owned indices.
func flatten(g *scenegraph.Geometry) (positions, normals []float32) {
	if len(g.Indices) == 0 {
		return g.Positions, g.Normals
	}
	hasNormals := len(g.Normals) == len(g.Positions)
	positions = make([]float32, 0, len(g.Indices)*3)
	if hasNormals {
		normals = make([]float32, 0, len(g.Indices)*3)
	}
	n := g.VertexCount()
	for _, idx := range g.Indices {
		i := int(idx)
		if i >= n {
			continue
		}
		positions = append(positions, g.Positions[i*3:i*3+3]...)
		if hasNormals {
			normals = append(normals, g.Normals[i*3:i*3+3]...)
		}
	}
	return positions, normals
}

// uploadMesh copies g into GPU buffers. The Go slices are pinned only for the upload;
// the CPU pointers are cleared afterwards so UnloadMesh only frees GPU state.
func uploadMesh(g *scenegraph.Geometry) *Mesh {
	if g == nil || g.VertexCount() == 0 {
		return nil
	}
	positions, normals := flatten(g)
	if len(positions) < 9 {
		return nil
	}
	var pin runtime.Pinner
	defer pin.Unpin()

	var m rl.Mesh
	m.VertexCount = int32(len(positions) / 3)
	m.TriangleCount = m.VertexCount / 3
	m.Vertices = &positions[0]
	pin.Pin(m.Vertices)
	if len(normals) == len(positions) {
		m.Normals = &normals[0]
		pin.Pin(m.Normals)
	}
	rl.UploadMesh(&m, false)

	m.Vertices = nil
	m.Normals = nil
	return &Mesh{mesh: m}
}

// Release frees the GPU buffers. Safe to call more than once.
func (m *Mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	rl.UnloadMesh(&m.mesh)
}
