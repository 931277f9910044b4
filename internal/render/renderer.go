package render

import (
	"image/color"
	"sort"

	"anypose/internal/scenegraph"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// Renderer draws a scene graph: opaque model meshes with the lit shader, then overlay
// nodes (joint markers) with depth testing off in ascending RenderOrder.
type Renderer struct {
	shader   rl.Shader
	mtl      rl.Material
	loaded   bool
	lights   Lights
	overlays []*scenegraph.Node // reused every frame
}

// NewRenderer returns a renderer with the given light rig. The shader is loaded on first Draw.
func NewRenderer(lights Lights) *Renderer {
	return &Renderer{lights: lights}
}

// SetLights replaces the light rig.
func (r *Renderer) SetLights(l Lights) {
	r.lights = l
}

func (r *Renderer) ensure() {
	if r.loaded {
		return
	}
	r.mtl = rl.LoadMaterialDefault()
	r.shader = loadLitShader()
	if rl.IsShaderValid(r.shader) {
		r.mtl.Shader = r.shader
	}
	r.loaded = true
}

// Draw renders root and its subtree. Call between BeginMode3D and EndMode3D.
func (r *Renderer) Draw(root *scenegraph.Node, camera rl.Camera3D) {
	if root == nil {
		return
	}
	r.ensure()
	viewPos := [3]float32{camera.Position.X, camera.Position.Y, camera.Position.Z}
	setLitShaderUniforms(r.mtl.Shader, viewPos, r.lights)

	r.overlays = r.overlays[:0]
	root.Traverse(func(n *scenegraph.Node) {
		if !n.EffectiveVisible() {
			return
		}
		if n.Overlay {
			r.overlays = append(r.overlays, n)
			return
		}
		r.drawMesh(n)
	})
	if len(r.overlays) == 0 {
		return
	}
	sortOverlays(r.overlays)

	// Flush queued geometry so the overlay pass does not change its depth state.
	rl.DrawRenderBatchActive()
	rl.DisableDepthTest()
	for _, n := range r.overlays {
		if s, ok := n.Drawable.(*Sphere); ok {
			s.draw(toColor(n.Color), toMatrix(n.WorldMatrix()))
		}
	}
	rl.DrawRenderBatchActive()
	rl.EnableDepthTest()
}

// drawMesh uploads n's geometry on first sight and draws it with the shared lit material.
func (r *Renderer) drawMesh(n *scenegraph.Node) {
	if n.Kind != scenegraph.KindMesh || n.Geometry == nil {
		return
	}
	if n.Drawable == nil {
		m := uploadMesh(n.Geometry)
		if m == nil {
			return
		}
		n.Drawable = m
	}
	m, ok := n.Drawable.(*Mesh)
	if !ok || m.released {
		return
	}
	if albedo := r.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = toColor(n.Color)
	}
	rl.DrawMesh(m.mesh, r.mtl, toMatrix(n.WorldMatrix()))
}

// Close frees the shared shader and material. Meshes and spheres are released by their nodes.
func (r *Renderer) Close() {
	if !r.loaded {
		return
	}
	rl.UnloadMaterial(r.mtl)
	r.loaded = false
}

// sortOverlays orders overlay nodes by ascending RenderOrder, keeping traversal order for ties.
func sortOverlays(nodes []*scenegraph.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].RenderOrder < nodes[j].RenderOrder
	})
}

func toColor(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

// toMatrix converts a column-major mgl32 matrix to raylib's layout. Both index elements
// the same way, so each field maps to the element of the same number.
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}
