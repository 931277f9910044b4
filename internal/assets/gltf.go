// Package assets imports skeletal models into the scene graph, finds the models on disk
// and loads them in the background.
package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"anypose/internal/scenegraph"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Open parses the glTF, GLB or VRM file at path into a scene graph subtree named after the file.
func Open(path string) (*scenegraph.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	defer f.Close()
	return Decode(f, filepath.Dir(path), filepath.Base(path))
}

// Decode parses a glTF document from r. External buffers are resolved relative to dir.
func Decode(r io.Reader, dir, name string) (*scenegraph.Node, error) {
	var doc gltf.Document
	if err := gltf.NewDecoderFS(r, os.DirFS(dir)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", name, err)
	}
	return Build(&doc, name)
}

// Build converts a decoded document into a scene graph. Nodes referenced as skin joints
// become bones; nodes with a mesh carry its triangle geometry.
func Build(doc *gltf.Document, name string) (*scenegraph.Node, error) {
	joints := make(map[int]bool)
	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			joints[j] = true
		}
	}

	nodes := make([]*scenegraph.Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		n, err := convertNode(doc, gn, joints[i])
		if err != nil {
			return nil, fmt.Errorf("assets: %s: node %d (%s): %w", name, i, gn.Name, err)
		}
		nodes[i] = n
	}
	isChild := make([]bool, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < 0 || c >= len(nodes) {
				return nil, fmt.Errorf("assets: %s: node %d has invalid child %d", name, i, c)
			}
			nodes[i].Add(nodes[c])
			isChild[c] = true
		}
	}

	root := scenegraph.New(strings.TrimSuffix(name, filepath.Ext(name)), scenegraph.KindGroup)
	for _, i := range rootNodes(doc, isChild) {
		if i >= 0 && i < len(nodes) && nodes[i].Parent() == nil {
			root.Add(nodes[i])
		}
	}
	return root, nil
}

// rootNodes returns the nodes of the default scene, or every parentless node when the
// document has no populated scene.
func rootNodes(doc *gltf.Document, isChild []bool) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		if nodes := doc.Scenes[idx].Nodes; len(nodes) > 0 {
			return nodes
		}
	}
	var out []int
	for i, child := range isChild {
		if !child {
			out = append(out, i)
		}
	}
	return out
}

func convertNode(doc *gltf.Document, gn *gltf.Node, isJoint bool) (*scenegraph.Node, error) {
	kind := scenegraph.KindGroup
	switch {
	case isJoint:
		kind = scenegraph.KindBone
	case gn.Mesh != nil:
		kind = scenegraph.KindMesh
	}
	n := scenegraph.New(SanitizeName(gn.Name), kind)
	setTransform(n, gn)
	if gn.Mesh != nil {
		if *gn.Mesh < 0 || *gn.Mesh >= len(doc.Meshes) {
			return nil, fmt.Errorf("invalid mesh %d", *gn.Mesh)
		}
		geom, err := readGeometry(doc, doc.Meshes[*gn.Mesh])
		if err != nil {
			return nil, err
		}
		n.Geometry = geom
	}
	return n, nil
}

// SanitizeName makes a node name usable as a bone key: whitespace becomes '_' and the
// reserved characters []\.:/ are removed, so "mixamorig:Hips" becomes "mixamorigHips".
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case strings.ContainsRune(`[]\.:/`, r):
			return -1
		}
		return r
	}, name)
}

func setTransform(n *scenegraph.Node, gn *gltf.Node) {
	m := gn.MatrixOrDefault()
	if m != gltf.DefaultMatrix {
		var mat mgl32.Mat4
		for i := range m {
			mat[i] = float32(m[i])
		}
		decompose(n, mat)
		return
	}
	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault()
	s := gn.ScaleOrDefault()
	n.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
	n.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	n.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
}

// decompose splits a TRS matrix without shear into the node's transform fields.
func decompose(n *scenegraph.Node, m mgl32.Mat4) {
	n.Position = m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	n.Scale = mgl32.Vec3{sx, sy, sz}
	if sx == 0 || sy == 0 || sz == 0 {
		n.Rotation = mgl32.QuatIdent()
		return
	}
	rot := mgl32.Mat3FromCols(
		m.Col(0).Vec3().Mul(1/sx),
		m.Col(1).Vec3().Mul(1/sy),
		m.Col(2).Vec3().Mul(1/sz),
	)
	n.Rotation = mgl32.Mat4ToQuat(rot.Mat4())
}

// accessor returns accessor i, or an error when it or the buffer it reads from does not exist.
func accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) || doc.Accessors[i] == nil {
		return nil, fmt.Errorf("invalid accessor %d", i)
	}
	acc := doc.Accessors[i]
	if acc.BufferView != nil {
		bv := *acc.BufferView
		if bv < 0 || bv >= len(doc.BufferViews) || doc.BufferViews[bv] == nil {
			return nil, fmt.Errorf("accessor %d: invalid buffer view %d", i, bv)
		}
		if b := doc.BufferViews[bv].Buffer; b < 0 || b >= len(doc.Buffers) || doc.Buffers[b] == nil {
			return nil, fmt.Errorf("accessor %d: invalid buffer %d", i, b)
		}
	}
	return acc, nil
}

// readGeometry merges the triangle primitives of mesh into one vertex/index list.
func readGeometry(doc *gltf.Document, mesh *gltf.Mesh) (*scenegraph.Geometry, error) {
	g := &scenegraph.Geometry{}
	for _, p := range mesh.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		posAcc, err := accessor(doc, posIdx)
		if err != nil {
			return nil, err
		}
		positions, err := modeler.ReadPosition(doc, posAcc, nil)
		if err != nil {
			return nil, err
		}
		base := g.VertexCount()
		var normals [][3]float32
		if nIdx, ok := p.Attributes[gltf.NORMAL]; ok {
			nAcc, err := accessor(doc, nIdx)
			if err != nil {
				return nil, err
			}
			if normals, err = modeler.ReadNormal(doc, nAcc, nil); err != nil {
				return nil, err
			}
		}
		var indices []uint32
		if p.Indices != nil {
			iAcc, err := accessor(doc, *p.Indices)
			if err != nil {
				return nil, err
			}
			if indices, err = modeler.ReadIndices(doc, iAcc, nil); err != nil {
				return nil, err
			}
			for _, idx := range indices {
				if int(idx) >= len(positions) {
					return nil, fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
				}
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for i, v := range positions {
			g.Positions = append(g.Positions, v[0], v[1], v[2])
			if len(normals) == len(positions) {
				nv := normals[i]
				g.Normals = append(g.Normals, nv[0], nv[1], nv[2])
			}
		}
		for _, idx := range indices {
			g.Indices = append(g.Indices, uint32(base)+idx)
		}
	}
	if len(g.Normals) != len(g.Positions) {
		g.Normals = nil
	}
	return g, nil
}
