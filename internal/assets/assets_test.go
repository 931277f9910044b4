package assets

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"anypose/internal/markers"
	"anypose/internal/scenegraph"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

// riggedDoc returns a document with an armature, a three-joint skin and a skinned mesh node.
func riggedDoc() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "Armature", Children: []int{1, 4}},
		{Name: "mixamorigHips", Translation: [3]float64{0, 1, 0}, Children: []int{2}},
		{Name: "mixamorigSpine", Translation: [3]float64{0, 0.2, 0}, Children: []int{3}},
		{Name: "mixamorigHead", Translation: [3]float64{0, 0.5, 0}},
		{Name: "Body"},
	}
	doc.Skins = []*gltf.Skin{{Name: "skin", Joints: []int{1, 2, 3}}}
	doc.Scenes = []*gltf.Scene{{Name: "Scene", Nodes: []int{0}}}
	doc.Scene = intPtr(0)
	return doc
}

func TestBuild_BonesAndHierarchy(t *testing.T) {
	root, err := Build(riggedDoc(), "female_base.glb")
	require.NoError(t, err)

	assert.Equal(t, "female_base", root.Name)
	require.Len(t, root.Children(), 1)
	armature := root.Children()[0]
	assert.Equal(t, "Armature", armature.Name)
	assert.Equal(t, scenegraph.KindGroup, armature.Kind)

	hips := root.Find("mixamorigHips")
	require.NotNil(t, hips)
	assert.True(t, hips.IsBone())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, hips.Position)

	head := root.Find("mixamorigHead")
	require.NotNil(t, head)
	assert.True(t, head.IsBone())
	assert.Equal(t, "mixamorigSpine", head.Parent().Name)

	assert.False(t, root.Find("Body").IsBone())
}

func TestBuild_NoScenesUsesParentlessNodes(t *testing.T) {
	doc := riggedDoc()
	doc.Scenes = nil
	doc.Scene = nil

	root, err := Build(doc, "model.gltf")
	require.NoError(t, err)

	require.Len(t, root.Children(), 1)
	assert.Equal(t, "Armature", root.Children()[0].Name)
}

func TestBuild_InvalidChild(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "root", Children: []int{7}}}

	_, err := Build(doc, "broken.gltf")

	assert.Error(t, err)
}

func TestBuild_MatrixTransform(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{
		Name: "moved",
		Matrix: [16]float64{
			2, 0, 0, 0,
			0, 2, 0, 0,
			0, 0, 2, 0,
			1, 2, 3, 1,
		},
	}}

	root, err := Build(doc, "m.gltf")
	require.NoError(t, err)

	n := root.Find("moved")
	require.NotNil(t, n)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, n.Position)
	assert.InDelta(t, 2, n.Scale.X(), 1e-5)
	assert.InDelta(t, 1, n.Rotation.W, 1e-5)
}

func TestBuild_MeshGeometry(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{-1, -0.5, 0}, {1, -0.5, 0}, {0, 2, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Body",
		Primitives: []*gltf.Primitive{{
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
			Indices:    intPtr(idx),
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Body", Mesh: intPtr(0)}}

	root, err := Build(doc, "tri.glb")
	require.NoError(t, err)

	body := root.Find("Body")
	require.NotNil(t, body)
	assert.Equal(t, scenegraph.KindMesh, body.Kind)
	require.NotNil(t, body.Geometry)
	assert.Equal(t, 3, body.Geometry.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, body.Geometry.Indices)
	assert.Nil(t, body.Geometry.Normals)

	PlaceOnGround(root, 2)
	b := ComputeBounds(root)
	assert.InDelta(t, 0, b.Min.Y(), 1e-5)
	assert.InDelta(t, 5, b.Max.Y(), 1e-5)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, root.Scale)
}

func triangleMesh(doc *gltf.Document, attrs gltf.PrimitiveAttributes, indices *int) {
	doc.Meshes = []*gltf.Mesh{{
		Name:       "Body",
		Primitives: []*gltf.Primitive{{Attributes: attrs, Indices: indices}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Body", Mesh: intPtr(0)}}
}

func TestDecode_InvalidAccessorIsError(t *testing.T) {
	doc := gltf.NewDocument()
	triangleMesh(doc, gltf.PrimitiveAttributes{gltf.POSITION: 7}, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.glb")
	require.NoError(t, os.WriteFile(path, encode(t, doc), 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = Decode(f, dir, "bad.glb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid accessor 7")
}

func TestBuild_InvalidNormalAndIndexAccessors(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	triangleMesh(doc, gltf.PrimitiveAttributes{gltf.POSITION: pos, gltf.NORMAL: 42}, nil)
	_, err := Build(doc, "n.glb")
	assert.ErrorContains(t, err, "invalid accessor 42")

	doc = gltf.NewDocument()
	pos = modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	triangleMesh(doc, gltf.PrimitiveAttributes{gltf.POSITION: pos}, intPtr(-1))
	_, err = Build(doc, "i.glb")
	assert.ErrorContains(t, err, "invalid accessor -1")
}

func TestBuild_IndexOutOfRange(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 5})
	triangleMesh(doc, gltf.PrimitiveAttributes{gltf.POSITION: pos}, intPtr(idx))

	_, err := Build(doc, "oob.glb")
	assert.ErrorContains(t, err, "index 5 out of range")
}

func TestBuild_LargeMeshKeepsAllVertices(t *testing.T) {
	const n = 70002
	positions := make([][3]float32, n)
	for i := range positions {
		positions[i] = [3]float32{float32(i % 7), float32(i % 11), 0}
	}
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, positions)
	triangleMesh(doc, gltf.PrimitiveAttributes{gltf.POSITION: pos}, nil)

	root, err := Build(doc, "big.glb")
	require.NoError(t, err)
	g := root.Find("Body").Geometry
	require.NotNil(t, g)
	assert.Equal(t, n, g.VertexCount())
	require.Len(t, g.Indices, n)
	assert.Equal(t, uint32(n-1), g.Indices[n-1])
}

func TestBuild_ColonBoneNamesGetMarkers(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "mixamorig:Hips", Children: []int{1}},
		{Name: "mixamorig:Spine"},
	}
	doc.Skins = []*gltf.Skin{{Joints: []int{0, 1}}}

	root, err := Build(doc, "mixamo.glb")
	require.NoError(t, err)
	require.NotNil(t, root.Find("mixamorigHips"))

	m := markers.New(nopSpheres{}, zerolog.Nop())
	m.AddMarkers(root)
	assert.Equal(t, 2, m.Count())
}

type nopSphere struct{}

func (nopSphere) Release() {}

type nopSpheres struct{}

func (nopSpheres) NewSphere(float32) scenegraph.Drawable { return nopSphere{} }

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"mixamorig:Hips", "mixamorigHips"},
		{"Left Arm", "Left_Arm"},
		{"a[b].c/d\\e", "abcde"},
		{"mixamorigHead", "mixamorigHead"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), tt.in)
	}
}

func TestPlaceOnGround_NoGeometry(t *testing.T) {
	root := scenegraph.New("empty", scenegraph.KindGroup)
	root.Position = mgl32.Vec3{3, 3, 3}

	PlaceOnGround(root, 0)

	assert.Equal(t, mgl32.Vec3{}, root.Position)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, root.Scale)
	assert.True(t, ComputeBounds(root).Empty())
}

func encode(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gltf.NewEncoder(&buf).Encode(doc))
	return buf.Bytes()
}

func TestDecode_RoundTrip(t *testing.T) {
	data := encode(t, riggedDoc())

	root, err := Decode(bytes.NewReader(data), t.TempDir(), "rig.gltf")
	require.NoError(t, err)

	assert.NotNil(t, root.Find("mixamorigSpine"))
	assert.True(t, root.Find("mixamorigSpine").IsBone())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not a gltf file"), t.TempDir(), "bad.glb")
	assert.Error(t, err)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}

func waitDone(t *testing.T, l *Loader) (Event, []Event) {
	t.Helper()
	var progress []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-l.Events():
			if ev.Done {
				return ev, progress
			}
			progress = append(progress, ev)
		case <-timeout:
			t.Fatal("timed out waiting for load")
		}
	}
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.gltf")
	require.NoError(t, os.WriteFile(path, encode(t, riggedDoc()), 0644))
	l := NewLoader(zerolog.Nop())

	gen := l.Load(context.Background(), path)
	done, progress := waitDone(t, l)

	require.NoError(t, done.Err)
	assert.Equal(t, gen, done.Generation)
	assert.Equal(t, path, done.Path)
	require.NotNil(t, done.Model)
	assert.Equal(t, "rig", done.Model.Name)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1].Progress.Percent())
}

func TestLoader_GenerationsIncrease(t *testing.T) {
	l := NewLoader(zerolog.Nop())
	missing := filepath.Join(t.TempDir(), "missing.glb")

	first := l.Load(context.Background(), missing)
	waitDone(t, l)
	second := l.Load(context.Background(), missing)
	done, _ := waitDone(t, l)

	assert.Greater(t, second, first)
	assert.Equal(t, second, l.Latest())
	assert.Error(t, done.Err)
	assert.Nil(t, done.Model)
}

func TestLoader_Cancelled(t *testing.T) {
	l := NewLoader(zerolog.Nop())
	l.open = func(string) (io.ReadCloser, int64, error) {
		return io.NopCloser(strings.NewReader(`{"asset":{"version":"2.0"}}`)), 0, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.Load(ctx, "any.gltf")
	done, _ := waitDone(t, l)

	assert.ErrorIs(t, done.Err, context.Canceled)
	assert.Nil(t, done.Model)
}

func TestProgress_Percent(t *testing.T) {
	assert.Equal(t, 0, Progress{Loaded: 10}.Percent())
	assert.Equal(t, 50, Progress{Loaded: 5, Total: 10}.Percent())
	assert.Equal(t, 100, Progress{Loaded: 20, Total: 10}.Percent())
}

func TestLoadCatalog_FromYAML(t *testing.T) {
	dir := t.TempDir()
	yml := "models:\n  - file: female_base.glb\n    name: Female\n    scale: 0.01\n  - file: rigs/character2.glb\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CatalogFile), []byte(yml), 0644))

	c, err := LoadCatalog(dir)
	require.NoError(t, err)

	require.Len(t, c.Models, 2)
	e, ok := c.Find("Female")
	require.True(t, ok)
	assert.Equal(t, "female_base.glb", e.File)
	assert.InDelta(t, 0.01, e.Scale, 1e-9)
	assert.Equal(t, filepath.Join(dir, "rigs", "character2.glb"), c.Path(c.Models[1]))
	assert.Equal(t, "rigs/character2.glb", c.Models[1].Label())
}

func TestLoadCatalog_ScanFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	for _, f := range []string{"b.glb", "a.gltf", "sub/c.vrm", "notes.txt", "d.fbx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
	}

	c, err := LoadCatalog(dir)
	require.NoError(t, err)

	var files []string
	for _, e := range c.Models {
		files = append(files, e.File)
	}
	assert.Equal(t, []string{"a.gltf", "b.glb", "sub/c.vrm"}, files)
	_, ok := c.Find("notes.txt")
	assert.False(t, ok)
}

func TestLoadCatalog_MissingDir(t *testing.T) {
	c, err := LoadCatalog(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, c.Models)
}

func TestLoadCatalog_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CatalogFile), []byte("models: [unclosed"), 0644))

	_, err := LoadCatalog(dir)
	assert.Error(t, err)
}
