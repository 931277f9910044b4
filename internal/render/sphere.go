package render

import (
	"anypose/internal/scenegraph"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// sphereRings and sphereSlices control marker sphere resolution.
const sphereRings = 16
const sphereSlices = 16

// Sphere is one marker's mesh and unlit material. GPU resources are created on first
// Draw so that markers can be built before the window/OpenGL context exists.
type Sphere struct {
	radius   float32
	mesh     rl.Mesh
	mtl      rl.Material
	loaded   bool
	released bool
}

// SphereFactory creates marker spheres. It implements markers.SphereFactory.
type SphereFactory struct{}

// NewSphere returns a sphere of the given radius. Nothing is allocated on the GPU yet.
func (SphereFactory) NewSphere(radius float32) scenegraph.Drawable {
	return &Sphere{radius: radius}
}

// ensure creates the mesh and material if not yet loaded. Released spheres stay empty.
func (s *Sphere) ensure() bool {
	if s.released {
		return false
	}
	if s.loaded {
		return true
	}
	s.mesh = rl.GenMeshSphere(s.radius, sphereRings, sphereSlices)
	s.mtl = rl.LoadMaterialDefault()
	s.loaded = true
	return true
}

// draw renders the sphere with the given tint and world transform.
func (s *Sphere) draw(tint rl.Color, transform rl.Matrix) {
	if !s.ensure() {
		return
	}
	if albedo := s.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = tint
	}
	rl.DrawMesh(s.mesh, s.mtl, transform)
}

// Release frees the mesh and material. Safe to call more than once.
func (s *Sphere) Release() {
	if s.released {
		return
	}
	s.released = true
	if !s.loaded {
		return
	}
	rl.UnloadMesh(&s.mesh)
	rl.UnloadMaterial(s.mtl)
	s.loaded = false
}
