package assets

import (
	"anypose/internal/scenegraph"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is a world-space axis-aligned box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// Empty reports whether no vertex contributed to b.
func (b Bounds) Empty() bool {
	return b.Min.X() > b.Max.X()
}

// ComputeBounds returns the world-space box of every mesh vertex under root.
func ComputeBounds(root *scenegraph.Node) Bounds {
	inf := math32.Inf(1)
	b := Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
	root.Traverse(func(n *scenegraph.Node) {
		if n.Geometry == nil || len(n.Geometry.Positions) == 0 {
			return
		}
		world := n.WorldMatrix()
		p := n.Geometry.Positions
		for i := 0; i+2 < len(p); i += 3 {
			v := world.Mul4x1(mgl32.Vec4{p[i], p[i+1], p[i+2], 1})
			for axis := 0; axis < 3; axis++ {
				b.Min[axis] = math32.Min(b.Min[axis], v[axis])
				b.Max[axis] = math32.Max(b.Max[axis], v[axis])
			}
		}
	})
	return b
}

// PlaceOnGround scales model uniformly and moves it to the stage center with its lowest
// vertex resting on Y=0. Models without geometry are only scaled.
func PlaceOnGround(model *scenegraph.Node, scale float32) {
	if scale <= 0 {
		scale = 1
	}
	model.Scale = mgl32.Vec3{scale, scale, scale}
	model.Position = mgl32.Vec3{}
	b := ComputeBounds(model)
	if b.Empty() {
		return
	}
	model.Position = mgl32.Vec3{0, -b.Min.Y(), 0}
}
