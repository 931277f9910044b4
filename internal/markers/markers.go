// Package markers attaches small indicator spheres to the named joints of loaded skeletons
// and keeps them grouped per model so they can be restyled or torn down independently.
//
// All methods must be called from the main (render) goroutine.
package markers

import (
	"image/color"

	"anypose/internal/scenegraph"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// JointNames is the allow-list of bone names that get a marker. Matching is exact.
var JointNames = []string{
	"mixamorigHips",
	"mixamorigSpine",
	"mixamorigSpine1",
	"mixamorigSpine2",
	"mixamorigNeck",
	"mixamorigHead",
	"mixamorigLeftShoulder",
	"mixamorigLeftArm",
	"mixamorigLeftForeArm",
	"mixamorigLeftHand",
	"mixamorigRightShoulder",
	"mixamorigRightArm",
	"mixamorigRightForeArm",
	"mixamorigRightHand",
	"mixamorigLeftUpLeg",
	"mixamorigLeftLeg",
	"mixamorigLeftFoot",
	"mixamorigRightUpLeg",
	"mixamorigRightLeg",
	"mixamorigRightFoot",
}

const (
	// Radius is in model units; markers inherit the bone's world scale.
	Radius = 2
	// RenderOrder puts markers after regular geometry in the overlay pass.
	RenderOrder = 999
	// Opacity is kept on every color change.
	Opacity = 0.8
)

// DefaultColor is translucent red.
var DefaultColor = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: uint8(Opacity * 255)}

var jointSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(JointNames))
	for _, n := range JointNames {
		m[n] = struct{}{}
	}
	return m
}()

// IsJoint reports whether name is in JointNames.
func IsJoint(name string) bool {
	_, ok := jointSet[name]
	return ok
}

// SphereFactory creates the render resources for one marker. Each marker gets its own
// Drawable; the manager releases it when the marker is detached.
type SphereFactory interface {
	NewSphere(radius float32) scenegraph.Drawable
}

// Marker pairs a bone with the indicator node attached under it.
type Marker struct {
	Bone *scenegraph.Node
	Node *scenegraph.Node
}

// Manager owns every marker it creates. Marker sets are keyed by model root; the manager
// never controls the lifetime of the model itself.
type Manager struct {
	log     zerolog.Logger
	factory SphereFactory
	sets    map[*scenegraph.Node][]Marker
	order   []*scenegraph.Node // tracked models in insertion order
}

// New returns a manager with no tracked models.
func New(factory SphereFactory, log zerolog.Logger) *Manager {
	return &Manager{
		log:     log.With().Str("component", "markers").Logger(),
		factory: factory,
		sets:    make(map[*scenegraph.Node][]Marker),
	}
}

// AddMarkers walks model once and attaches a marker to every allow-listed bone. A model
// that already has markers has them cleared first, so at most one set exists per model.
// A skeleton with no matching names yields an empty set, not an error.
func (m *Manager) AddMarkers(model *scenegraph.Node) {
	if model == nil {
		return
	}
	if _, ok := m.sets[model]; ok {
		m.log.Debug().Str("model", model.Name).Msg("replacing existing marker set")
		m.ClearMarkers(model)
	}

	var bones []*scenegraph.Node
	var names []string
	model.Traverse(func(n *scenegraph.Node) {
		if !n.IsBone() {
			return
		}
		names = append(names, n.Name)
		if IsJoint(n.Name) {
			bones = append(bones, n)
		}
	})
	m.log.Debug().Str("model", model.Name).Strs("bones", names).Msg("bones in model")

	set := make([]Marker, 0, len(bones))
	for _, bone := range bones {
		set = append(set, Marker{Bone: bone, Node: m.newMarker(bone)})
	}
	m.sets[model] = set
	m.order = append(m.order, model)

	m.log.Info().Str("model", model.Name).Int("markers", len(set)).Msg("joint markers added")
}

func (m *Manager) newMarker(bone *scenegraph.Node) *scenegraph.Node {
	n := scenegraph.New(bone.Name+"_marker", scenegraph.KindMarker)
	n.Overlay = true
	n.RenderOrder = RenderOrder
	n.Color = DefaultColor
	n.Drawable = m.factory.NewSphere(Radius)
	bone.Add(n)
	return n
}

// ClearMarkers detaches and releases every marker of model. Untracked models are ignored,
// so calling it twice is safe.
func (m *Manager) ClearMarkers(model *scenegraph.Node) {
	set, ok := m.sets[model]
	if !ok {
		return
	}
	for _, mk := range set {
		mk.Bone.Remove(mk.Node)
		if mk.Node.Drawable != nil {
			mk.Node.Drawable.Release()
			mk.Node.Drawable = nil
		}
	}
	delete(m.sets, model)
	for i, tracked := range m.order {
		if tracked == model {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.log.Debug().Str("model", model.Name).Int("markers", len(set)).Msg("joint markers cleared")
}

// ClearAll clears the markers of every tracked model.
func (m *Manager) ClearAll() {
	for _, model := range append([]*scenegraph.Node(nil), m.order...) {
		m.ClearMarkers(model)
	}
	m.sets = make(map[*scenegraph.Node][]Marker)
	m.order = nil
}

// SetVisible shows or hides the markers of model without destroying them.
func (m *Manager) SetVisible(model *scenegraph.Node, visible bool) {
	m.each(model, func(n *scenegraph.Node) { n.Visible = visible })
}

// SetVisibleAll shows or hides every marker.
func (m *Manager) SetVisibleAll(visible bool) {
	m.eachAll(func(n *scenegraph.Node) { n.Visible = visible })
}

// SetColor tints the markers of model. The alpha of c is ignored; markers keep Opacity.
func (m *Manager) SetColor(model *scenegraph.Node, c color.RGBA) {
	c.A = DefaultColor.A
	m.each(model, func(n *scenegraph.Node) { n.Color = c })
}

// SetColorAll tints every marker.
func (m *Manager) SetColorAll(c color.RGBA) {
	c.A = DefaultColor.A
	m.eachAll(func(n *scenegraph.Node) { n.Color = c })
}

// SetSize sets the uniform scale of the markers of model.
func (m *Manager) SetSize(model *scenegraph.Node, scale float32) {
	m.each(model, func(n *scenegraph.Node) { n.Scale = mgl32.Vec3{scale, scale, scale} })
}

// SetSizeAll sets the uniform scale of every marker.
func (m *Manager) SetSizeAll(scale float32) {
	m.eachAll(func(n *scenegraph.Node) { n.Scale = mgl32.Vec3{scale, scale, scale} })
}

// Count returns the number of active markers across all tracked models.
func (m *Manager) Count() int {
	total := 0
	for _, set := range m.sets {
		total += len(set)
	}
	return total
}

// Tracked returns the number of models with a marker set, including empty sets.
func (m *Manager) Tracked() int {
	return len(m.sets)
}

// Has reports whether model has a marker set.
func (m *Manager) Has(model *scenegraph.Node) bool {
	_, ok := m.sets[model]
	return ok
}

// Markers returns a copy of model's marker set in traversal order, or nil when untracked.
func (m *Manager) Markers(model *scenegraph.Node) []Marker {
	set, ok := m.sets[model]
	if !ok {
		return nil
	}
	out := make([]Marker, len(set))
	copy(out, set)
	return out
}

func (m *Manager) each(model *scenegraph.Node, fn func(*scenegraph.Node)) {
	for _, mk := range m.sets[model] {
		fn(mk.Node)
	}
}

func (m *Manager) eachAll(fn func(*scenegraph.Node)) {
	for _, model := range m.order {
		m.each(model, fn)
	}
}
