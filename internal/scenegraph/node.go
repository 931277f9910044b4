// Package scenegraph is the host node hierarchy: loaded models, their bones and meshes,
// and overlay nodes (joint markers) attached under bones.
package scenegraph

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind tells the renderer and traversal helpers what a node represents.
type Kind int

const (
	KindGroup Kind = iota
	KindBone
	KindMesh
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindBone:
		return "bone"
	case KindMesh:
		return "mesh"
	case KindMarker:
		return "marker"
	}
	return "unknown"
}

// Drawable is a GPU-side resource attached to a node (mesh + material). Release frees it;
// a released Drawable must not be drawn again.
type Drawable interface {
	Release()
}

// Geometry is CPU-side triangle data read from an asset. The renderer uploads it on first
// draw and stores the result in Node.Drawable.
type Geometry struct {
	Positions []float32 // xyz per vertex
	Normals   []float32 // xyz per vertex, may be empty
	Indices   []uint32
}

// VertexCount returns the number of vertices in g.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// Node is one element of the scene hierarchy. Transform fields are local to the parent.
// Visible hides the node and its whole subtree. Overlay nodes are drawn after all other
// geometry with depth test disabled, ordered by RenderOrder.
type Node struct {
	Name        string
	Kind        Kind
	Position    mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
	Visible     bool
	Overlay     bool
	RenderOrder int
	Color       color.RGBA
	Geometry    *Geometry
	Drawable    Drawable

	parent   *Node
	children []*Node
}

// New returns a visible node with identity transform.
func New(name string, kind Kind) *Node {
	return &Node{
		Name:     name,
		Kind:     kind,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Visible:  true,
		Color:    color.RGBA{R: 200, G: 200, B: 200, A: 255},
	}
}

// IsBone reports whether the node is a skeleton bone.
func (n *Node) IsBone() bool {
	return n.Kind == KindBone
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches child under n, detaching it from its previous parent first.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n. Returns false when child is not a direct child of n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Traverse calls fn for n and every descendant, depth-first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Find returns the first node in n's subtree named name, or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// LocalMatrix returns translate * rotate * scale for the node.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix returns the node's transform composed with every ancestor's.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// EffectiveVisible reports whether n and all of its ancestors are visible.
func (n *Node) EffectiveVisible() bool {
	for p := n; p != nil; p = p.parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Release frees every Drawable in n's subtree. The hierarchy is left intact.
func (n *Node) Release() {
	n.Traverse(func(c *Node) {
		if c.Drawable != nil {
			c.Drawable.Release()
			c.Drawable = nil
		}
	})
}
