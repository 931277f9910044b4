package debug

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// updateInterval: only refresh overlay text every N frames to reduce allocations.
	updateInterval = 30
)

// Debug holds the debug overlays. All overlays are off by default.
type Debug struct {
	ShowFPS         bool
	ShowMarkerCount bool
	// MarkerCount reports the markers and tracked models; set by the caller.
	MarkerCount func() (markers, models int)
	font        rl.Font // optional; when set, Draw uses DrawTextEx instead of default font

	frameCount      uint32
	lastFpsText     string
	lastMarkersText string
}

// New returns a Debug system with all overlays hidden.
func New() *Debug {
	return &Debug{}
}

// SetShowFPS sets whether the FPS counter is drawn (top-right, green).
func (d *Debug) SetShowFPS(show bool) {
	d.ShowFPS = show
}

// SetShowMarkerCount sets whether the joint marker count is drawn under the FPS counter.
func (d *Debug) SetShowMarkerCount(show bool) {
	d.ShowMarkerCount = show
}

// SetFont sets the font used to draw the overlays. Zero texture ID = use raylib default.
func (d *Debug) SetFont(font rl.Font) {
	d.font = font
}

// refresh recomputes the overlay text every updateInterval frames, or immediately
// when an overlay was just switched on.
func (d *Debug) refresh(fps int32) {
	d.frameCount++
	update := d.frameCount%updateInterval == 0
	if d.ShowFPS && d.lastFpsText == "" {
		update = true
	}
	if d.ShowMarkerCount && d.lastMarkersText == "" {
		update = true
	}
	if !update {
		return
	}
	if d.ShowFPS {
		d.lastFpsText = fmt.Sprintf("FPS: %d", fps)
	}
	if d.ShowMarkerCount && d.MarkerCount != nil {
		markers, models := d.MarkerCount()
		d.lastMarkersText = fmt.Sprintf("Markers: %d (%d models)", markers, models)
	}
}

// Draw renders any enabled overlays at the top-right. Call last in the draw loop.
func (d *Debug) Draw() {
	if !d.ShowFPS && !d.ShowMarkerCount {
		return
	}
	d.refresh(rl.GetFPS())

	screenW := int32(rl.GetScreenWidth())
	y := int32(padding)
	if d.ShowFPS && d.lastFpsText != "" {
		d.drawRight(d.lastFpsText, screenW, y)
		y += lineHeight
	}
	if d.ShowMarkerCount && d.lastMarkersText != "" {
		d.drawRight(d.lastMarkersText, screenW, y)
	}
}

func (d *Debug) drawRight(text string, screenW, y int32) {
	if d.font.Texture.ID != 0 {
		sz := float32(fontSize)
		pos := rl.NewVector2(float32(screenW)-rl.MeasureTextEx(d.font, text, sz, 1).X-float32(padding), float32(y))
		rl.DrawTextEx(d.font, text, pos, sz, 1, rl.Green)
		return
	}
	w := rl.MeasureText(text, fontSize)
	rl.DrawText(text, screenW-w-padding, y, fontSize, rl.Green)
}
