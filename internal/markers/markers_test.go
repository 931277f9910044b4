package markers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"testing"

	"anypose/internal/scenegraph"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSphere struct {
	radius   float32
	released int
}

func (s *fakeSphere) Release() { s.released++ }

type fakeFactory struct {
	spheres []*fakeSphere
}

func (f *fakeFactory) NewSphere(radius float32) scenegraph.Drawable {
	s := &fakeSphere{radius: radius}
	f.spheres = append(f.spheres, s)
	return s
}

func (f *fakeFactory) releasedOnce(t *testing.T) {
	t.Helper()
	for i, s := range f.spheres {
		assert.Equal(t, 1, s.released, "sphere %d released %d times", i, s.released)
	}
}

// skeleton builds a model with a bone chain named after names, plus a mesh node.
func skeleton(model string, names ...string) *scenegraph.Node {
	root := scenegraph.New(model, scenegraph.KindGroup)
	root.Add(scenegraph.New("Body", scenegraph.KindMesh))
	parent := root
	for _, n := range names {
		b := scenegraph.New(n, scenegraph.KindBone)
		parent.Add(b)
		parent = b
	}
	return root
}

func newTestManager() (*Manager, *fakeFactory) {
	f := &fakeFactory{}
	return New(f, zerolog.Nop()), f
}

func markerChildren(model *scenegraph.Node) int {
	n := 0
	model.Traverse(func(c *scenegraph.Node) {
		if c.Kind == scenegraph.KindMarker {
			n++
		}
	})
	return n
}

func TestAddMarkers_AllJoints(t *testing.T) {
	m, f := newTestManager()
	model := skeleton("full", JointNames...)

	m.AddMarkers(model)

	assert.Len(t, m.Markers(model), len(JointNames))
	assert.Equal(t, len(JointNames), m.Count())
	assert.Equal(t, len(JointNames), markerChildren(model))
	require.Len(t, f.spheres, len(JointNames))
	assert.Equal(t, float32(Radius), f.spheres[0].radius)
}

func TestAddMarkers_LogsBoneNames(t *testing.T) {
	var buf bytes.Buffer
	m := New(&fakeFactory{}, zerolog.New(&buf).Level(zerolog.DebugLevel))
	model := skeleton("rig", "mixamorigHips", "Tail", "mixamorigHead")

	m.AddMarkers(model)

	var bones []string
	var count int
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var ev struct {
			Message string   `json:"message"`
			Bones   []string `json:"bones"`
			Markers int      `json:"markers"`
		}
		require.NoError(t, json.Unmarshal(line, &ev))
		switch ev.Message {
		case "bones in model":
			bones = ev.Bones
		case "joint markers added":
			count = ev.Markers
		}
	}
	assert.Equal(t, []string{"mixamorigHips", "Tail", "mixamorigHead"}, bones)
	assert.Equal(t, 2, count)
}

func TestAddMarkers_NoMatchingBones(t *testing.T) {
	m, f := newTestManager()
	model := skeleton("other", "Hips", "Spine", "Head")

	m.AddMarkers(model)

	assert.True(t, m.Has(model))
	assert.Empty(t, m.Markers(model))
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, f.spheres)
}

func TestAddMarkers_PartialMatch(t *testing.T) {
	m, _ := newTestManager()
	names := []string{"mixamorigHips", "mixamorigSpine"}
	for i := 0; i < 18; i++ {
		names = append(names, fmt.Sprintf("extraBone%02d", i))
	}
	model := skeleton("A", names...)

	m.AddMarkers(model)

	set := m.Markers(model)
	require.Len(t, set, 2)
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, "mixamorigHips", set[0].Bone.Name)
	assert.Equal(t, "mixamorigSpine", set[1].Bone.Name)
	assert.Equal(t, set[0].Bone, set[0].Node.Parent())
}

func TestAddMarkers_IgnoresNonBoneNodes(t *testing.T) {
	m, _ := newTestManager()
	model := scenegraph.New("model", scenegraph.KindGroup)
	model.Add(scenegraph.New("mixamorigHips", scenegraph.KindMesh))

	m.AddMarkers(model)

	assert.Equal(t, 0, m.Count())
}

func TestAddMarkers_ExactNameMatch(t *testing.T) {
	m, _ := newTestManager()
	model := skeleton("model", "mixamorig:Hips", "MIXAMORIGHIPS", "mixamorigHips ")

	m.AddMarkers(model)

	assert.Equal(t, 0, m.Count())
}

func TestAddMarkers_MarkerStyle(t *testing.T) {
	m, _ := newTestManager()
	model := skeleton("model", "mixamorigHead")

	m.AddMarkers(model)

	mk := m.Markers(model)[0].Node
	assert.Equal(t, scenegraph.KindMarker, mk.Kind)
	assert.True(t, mk.Overlay)
	assert.Equal(t, RenderOrder, mk.RenderOrder)
	assert.Equal(t, DefaultColor, mk.Color)
	assert.Equal(t, uint8(204), mk.Color.A)
	assert.True(t, mk.Visible)
}

func TestAddMarkers_ReplacesExistingSet(t *testing.T) {
	m, f := newTestManager()
	model := skeleton("model", "mixamorigHips", "mixamorigHead")

	m.AddMarkers(model)
	first := m.Markers(model)
	m.AddMarkers(model)

	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 1, m.Tracked())
	assert.Equal(t, 2, markerChildren(model))
	require.Len(t, f.spheres, 4)
	for _, s := range f.spheres[:2] {
		assert.Equal(t, 1, s.released)
	}
	for _, s := range f.spheres[2:] {
		assert.Equal(t, 0, s.released)
	}
	for _, mk := range first {
		assert.Nil(t, mk.Node.Parent())
	}
}

func TestAddMarkers_NilModel(t *testing.T) {
	m, _ := newTestManager()
	m.AddMarkers(nil)
	assert.Equal(t, 0, m.Tracked())
}

func TestClearMarkers_Idempotent(t *testing.T) {
	m, f := newTestManager()
	model := skeleton("model", JointNames...)
	m.AddMarkers(model)

	m.ClearMarkers(model)
	m.ClearMarkers(model)

	assert.False(t, m.Has(model))
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 0, markerChildren(model))
	f.releasedOnce(t)
}

func TestClearMarkers_Untracked(t *testing.T) {
	m, _ := newTestManager()
	m.ClearMarkers(skeleton("never-added", "mixamorigHips"))
	m.ClearMarkers(nil)
	assert.Equal(t, 0, m.Count())
}

func TestClearMarkers_LeavesOtherModels(t *testing.T) {
	m, _ := newTestManager()
	a := skeleton("A", "mixamorigHips", "mixamorigSpine")
	b := skeleton("B", "mixamorigHips", "mixamorigSpine", "mixamorigHead")
	m.AddMarkers(a)
	m.AddMarkers(b)

	m.ClearMarkers(a)

	assert.Equal(t, 3, m.Count())
	assert.Equal(t, 0, markerChildren(a))
	assert.Equal(t, 3, markerChildren(b))
	assert.Nil(t, m.Markers(a))
}

func TestClearAll(t *testing.T) {
	m, f := newTestManager()
	m.AddMarkers(skeleton("A", JointNames...))
	m.AddMarkers(skeleton("B", "mixamorigHips"))
	m.AddMarkers(skeleton("C", "nothing"))

	m.ClearAll()

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 0, m.Tracked())
	f.releasedOnce(t)

	// still usable after clearing
	model := skeleton("D", "mixamorigHips")
	m.AddMarkers(model)
	assert.Equal(t, 1, m.Count())
}

func TestSetVisible_ScopedToModel(t *testing.T) {
	m, _ := newTestManager()
	a := skeleton("A", "mixamorigHips", "mixamorigSpine")
	b := skeleton("B", "mixamorigHips")
	m.AddMarkers(a)
	m.AddMarkers(b)

	m.SetVisible(a, false)

	for _, mk := range m.Markers(a) {
		assert.False(t, mk.Node.Visible)
	}
	for _, mk := range m.Markers(b) {
		assert.True(t, mk.Node.Visible)
	}
	assert.Equal(t, 3, m.Count(), "hidden markers still count")

	m.SetVisibleAll(true)
	for _, mk := range m.Markers(a) {
		assert.True(t, mk.Node.Visible)
	}
}

func TestSetColor_ScopedToModel(t *testing.T) {
	m, _ := newTestManager()
	a := skeleton("A", "mixamorigHips")
	b := skeleton("B", "mixamorigHips")
	m.AddMarkers(a)
	m.AddMarkers(b)

	m.SetColor(a, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	assert.Equal(t, color.RGBA{G: 255, A: DefaultColor.A}, m.Markers(a)[0].Node.Color)
	assert.Equal(t, DefaultColor, m.Markers(b)[0].Node.Color)

	m.SetColorAll(color.RGBA{B: 255})
	assert.Equal(t, color.RGBA{B: 255, A: DefaultColor.A}, m.Markers(a)[0].Node.Color)
	assert.Equal(t, color.RGBA{B: 255, A: DefaultColor.A}, m.Markers(b)[0].Node.Color)
}

func TestSetSize_ScopedToModel(t *testing.T) {
	m, _ := newTestManager()
	a := skeleton("A", "mixamorigHips")
	b := skeleton("B", "mixamorigHips")
	m.AddMarkers(a)
	m.AddMarkers(b)

	m.SetSize(a, 3)

	assert.Equal(t, mgl32.Vec3{3, 3, 3}, m.Markers(a)[0].Node.Scale)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.Markers(b)[0].Node.Scale)

	m.SetSizeAll(0.5)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, m.Markers(b)[0].Node.Scale)
}

func TestSetters_UntrackedModelIsNoop(t *testing.T) {
	m, _ := newTestManager()
	other := skeleton("other", "mixamorigHips")

	assert.NotPanics(t, func() {
		m.SetVisible(other, false)
		m.SetColor(other, DefaultColor)
		m.SetSize(other, 2)
	})
	assert.True(t, other.Find("mixamorigHips").Visible)
}

func TestTwoModelScenario(t *testing.T) {
	m, f := newTestManager()
	a := skeleton("A", "mixamorigHips", "mixamorigSpine", "mixamorigNeck")
	b := skeleton("B", "mixamorigHips", "mixamorigLeftArm")
	m.AddMarkers(a)
	m.AddMarkers(b)

	m.ClearMarkers(a)

	assert.Equal(t, len(m.Markers(b)), m.Count())
	assert.Equal(t, 0, markerChildren(a))
	for _, s := range f.spheres[:3] {
		assert.Equal(t, 1, s.released)
	}
	for _, s := range f.spheres[3:] {
		assert.Equal(t, 0, s.released)
	}
}

func TestMarkers_ReturnsCopy(t *testing.T) {
	m, _ := newTestManager()
	model := skeleton("model", "mixamorigHips")
	m.AddMarkers(model)

	set := m.Markers(model)
	set[0] = Marker{}

	assert.NotNil(t, m.Markers(model)[0].Node)
}

func TestIsJoint(t *testing.T) {
	assert.True(t, IsJoint("mixamorigRightFoot"))
	assert.False(t, IsJoint("mixamorigRightToeBase"))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#ff8800", want: color.RGBA{R: 0xff, G: 0x88, A: DefaultColor.A}},
		{in: "0x00ff00", want: color.RGBA{G: 0xff, A: DefaultColor.A}},
		{in: "0000FF", want: color.RGBA{B: 0xff, A: DefaultColor.A}},
		{in: "red", wantErr: true},
		{in: "#fff", wantErr: true},
		{in: "#gg0000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
