// Package viewer owns the loaded models and their joint markers. It turns asset loader
// events into scene changes on the main goroutine.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"anypose/internal/assets"
	"anypose/internal/markers"
	"anypose/internal/scenegraph"

	"github.com/rs/zerolog"
)

// Options configures model placement and the marker defaults applied to every new model.
type Options struct {
	ModelsDir   string
	MultiModel  bool
	ModelScale  float32
	ShowMarkers bool
	MarkerSize  float32
}

// Model is one model on the stage. Name is unique among loaded models.
type Model struct {
	Name string
	Path string
	Root *scenegraph.Node
}

type pendingLoad struct {
	name  string
	scale float32
}

// Viewer places loaded models under Root and keeps their joint markers in sync.
// Single model mode (MultiModel false) keeps only the newest requested model: completions of
// superseded loads are dropped and a completed load replaces whatever was on stage.
type Viewer struct {
	log     zerolog.Logger
	ctx     context.Context
	opts    Options
	root    *scenegraph.Node
	markers *markers.Manager
	loader  *assets.Loader
	catalog assets.Catalog

	models      []*Model
	pending     map[uint64]pendingLoad
	fetched     chan fetchResult
	fetching    int
	markerColor *color.RGBA
	status      string
}

// New returns a viewer with an empty stage. factory creates the marker spheres.
// ctx bounds every load started by the viewer.
func New(ctx context.Context, opts Options, factory markers.SphereFactory, log zerolog.Logger) *Viewer {
	if opts.ModelScale <= 0 {
		opts.ModelScale = 1
	}
	if opts.MarkerSize <= 0 {
		opts.MarkerSize = 1
	}
	v := &Viewer{
		log:     log.With().Str("component", "viewer").Logger(),
		ctx:     ctx,
		opts:    opts,
		root:    scenegraph.New("stage", scenegraph.KindGroup),
		markers: markers.New(factory, log),
		loader:  assets.NewLoader(log),
		catalog: assets.Catalog{Dir: opts.ModelsDir},
		pending: make(map[uint64]pendingLoad),
		fetched: make(chan fetchResult, 4),
		status:  "no model loaded",
	}
	return v
}

// Root is the stage node every model is attached to.
func (v *Viewer) Root() *scenegraph.Node { return v.root }

// Options returns the current options. Global marker commands update ShowMarkers and MarkerSize.
func (v *Viewer) Options() Options { return v.opts }

// Markers returns the joint marker manager.
func (v *Viewer) Markers() *markers.Manager { return v.markers }

// Status returns the latest human-readable load status.
func (v *Viewer) Status() string { return v.status }

// Catalog returns the model catalog read by the last RefreshCatalog.
func (v *Viewer) Catalog() assets.Catalog { return v.catalog }

// Models returns the loaded models in load order.
func (v *Viewer) Models() []*Model {
	out := make([]*Model, len(v.models))
	copy(out, v.models)
	return out
}

// Model returns the loaded model named name, or nil.
func (v *Viewer) Model(name string) *Model {
	for _, m := range v.models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// RefreshCatalog rereads the models directory.
func (v *Viewer) RefreshCatalog() error {
	c, err := assets.LoadCatalog(v.opts.ModelsDir)
	if err != nil {
		return err
	}
	v.catalog = c
	v.log.Info().Int("models", len(c.Models)).Str("dir", c.Dir).Msg("model catalog loaded")
	return nil
}

// Load starts loading the catalog entry (file or display name) or file path name.
// The model appears on stage once Update sees the completion.
func (v *Viewer) Load(name string) (uint64, error) {
	path, scale, err := v.resolve(name)
	if err != nil {
		return 0, err
	}
	gen := v.loader.Load(v.ctx, path)
	v.pending[gen] = pendingLoad{name: modelName(path), scale: scale}
	v.setStatus("loading %s...", filepath.Base(path))
	return gen, nil
}

func (v *Viewer) resolve(name string) (path string, scale float32, err error) {
	if e, ok := v.catalog.Find(name); ok {
		scale = e.Scale
		if scale <= 0 {
			scale = v.opts.ModelScale
		}
		return v.catalog.Path(e), scale, nil
	}
	if !assets.IsModelFile(name) {
		return "", 0, fmt.Errorf("unknown model %q", name)
	}
	for _, p := range []string{filepath.Join(v.opts.ModelsDir, name), name} {
		if _, err := os.Stat(p); err == nil {
			return p, v.opts.ModelScale, nil
		}
	}
	return "", 0, fmt.Errorf("model file not found: %s", name)
}

func modelName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Update applies pending loader and download events. Call once per frame on the main goroutine.
func (v *Viewer) Update() {
	for {
		select {
		case ev := <-v.loader.Events():
			v.handle(ev)
		case r := <-v.fetched:
			v.handleFetch(r)
		default:
			return
		}
	}
}

func (v *Viewer) handle(ev assets.Event) {
	p, ok := v.pending[ev.Generation]
	if !ok {
		if ev.Model != nil {
			ev.Model.Release()
		}
		return
	}
	stale := !v.opts.MultiModel && ev.Generation != v.loader.Latest()
	if !ev.Done {
		if !stale {
			v.status = fmt.Sprintf("loading %s... %d%%", filepath.Base(ev.Path), ev.Progress.Percent())
			v.log.Debug().Str("path", ev.Path).Int("percent", ev.Progress.Percent()).Msg("load progress")
		}
		return
	}
	delete(v.pending, ev.Generation)

	if ev.Err != nil {
		v.log.Error().Err(ev.Err).Str("path", ev.Path).Msg("model load failed")
		if !stale {
			v.setStatus("load failed: %s", filepath.Base(ev.Path))
		}
		return
	}
	if stale {
		v.log.Warn().Str("path", ev.Path).Uint64("generation", ev.Generation).Msg("discarding superseded load")
		ev.Model.Release()
		return
	}
	assets.PlaceOnGround(ev.Model, p.scale)
	v.Add(p.name, ev.Path, ev.Model)
	v.setStatus("loaded: %s", filepath.Base(ev.Path))
}

// Add puts an already loaded model on stage and attaches its joint markers.
// In single model mode every other model is unloaded first; otherwise a model with the
// same name is replaced.
func (v *Viewer) Add(name, path string, root *scenegraph.Node) *Model {
	if !v.opts.MultiModel {
		v.UnloadAll()
	} else if v.Model(name) != nil {
		v.Unload(name)
	}
	m := &Model{Name: name, Path: path, Root: root}
	v.root.Add(root)
	v.models = append(v.models, m)

	v.markers.AddMarkers(root)
	v.markers.SetSize(root, v.opts.MarkerSize)
	v.markers.SetVisible(root, v.opts.ShowMarkers)
	if v.markerColor != nil {
		v.markers.SetColor(root, *v.markerColor)
	}
	v.log.Info().Str("model", name).Int("markers", len(v.markers.Markers(root))).Int("total", v.markers.Count()).Msg("model added")
	return m
}

// Unload removes the named model and its markers and releases its render resources.
// Unknown names are ignored; returns whether a model was removed.
func (v *Viewer) Unload(name string) bool {
	for i, m := range v.models {
		if m.Name != name {
			continue
		}
		v.markers.ClearMarkers(m.Root)
		v.root.Remove(m.Root)
		m.Root.Release()
		v.models = append(v.models[:i], v.models[i+1:]...)
		v.log.Info().Str("model", name).Msg("model unloaded")
		return true
	}
	return false
}

// UnloadAll removes every model.
func (v *Viewer) UnloadAll() {
	v.markers.ClearAll()
	for _, m := range v.models {
		v.root.Remove(m.Root)
		m.Root.Release()
	}
	v.models = nil
}

// target returns the model named name, or nil with no error when name is empty (all models).
func (v *Viewer) target(name string) (*Model, error) {
	if name == "" {
		return nil, nil
	}
	m := v.Model(name)
	if m == nil {
		return nil, fmt.Errorf("model not loaded: %s", name)
	}
	return m, nil
}

// SetMarkersVisible shows or hides the markers of the named model, or of every model when name is empty.
func (v *Viewer) SetMarkersVisible(name string, visible bool) error {
	m, err := v.target(name)
	if err != nil {
		return err
	}
	if m == nil {
		v.opts.ShowMarkers = visible
		v.markers.SetVisibleAll(visible)
		return nil
	}
	v.markers.SetVisible(m.Root, visible)
	return nil
}

// SetMarkerColor tints the markers of the named model, or of every model when name is empty.
func (v *Viewer) SetMarkerColor(name string, c color.RGBA) error {
	m, err := v.target(name)
	if err != nil {
		return err
	}
	if m == nil {
		v.markerColor = &c
		v.markers.SetColorAll(c)
		return nil
	}
	v.markers.SetColor(m.Root, c)
	return nil
}

// SetMarkerSize scales the markers of the named model, or of every model when name is empty.
func (v *Viewer) SetMarkerSize(name string, scale float32) error {
	if scale <= 0 {
		return fmt.Errorf("marker size must be positive, got %g", scale)
	}
	m, err := v.target(name)
	if err != nil {
		return err
	}
	if m == nil {
		v.opts.MarkerSize = scale
		v.markers.SetSizeAll(scale)
		return nil
	}
	v.markers.SetSize(m.Root, scale)
	return nil
}

// ClearMarkers removes the markers of the named model, or of every model when name is empty.
// The models stay on stage.
func (v *Viewer) ClearMarkers(name string) error {
	m, err := v.target(name)
	if err != nil {
		return err
	}
	if m == nil {
		v.markers.ClearAll()
		return nil
	}
	v.markers.ClearMarkers(m.Root)
	return nil
}

// Close unloads every model. Loads still in flight are abandoned.
func (v *Viewer) Close() {
	v.UnloadAll()
	v.pending = make(map[uint64]pendingLoad)
}

func (v *Viewer) setStatus(format string, args ...any) {
	v.status = fmt.Sprintf(format, args...)
	v.log.Info().Msg(v.status)
}
