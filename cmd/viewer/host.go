package main

import (
	"fmt"

	"anypose/internal/commands"
	"anypose/internal/debug"
	"anypose/internal/engineconfig"
	"anypose/internal/scene"
	"anypose/internal/viewer"

	"github.com/rs/zerolog"
)

// host owns the stage-level commands. save writes the stage and debug toggles together
// with the viewer's global marker visibility and size; per-model marker settings are not saved.
type host struct {
	log        zerolog.Logger
	reg        *commands.Registry
	prefs      *engineconfig.Prefs
	configPath string
	stage      *scene.Scene
	debug      *debug.Debug
	viewer     *viewer.Viewer
}

func (h *host) register() {
	gridFS := commands.NewFlagSet("grid")
	gridShow := gridFS.Bool("show", false, "show the floor grid")
	gridHide := gridFS.Bool("hide", false, "hide the floor grid")
	h.reg.Register("grid", "--show|--hide", gridFS, func() error {
		visible, err := showHide(*gridShow, *gridHide, "grid")
		if err != nil {
			return err
		}
		h.stage.SetGridVisible(visible)
		h.prefs.Stage.GridVisible = visible
		return nil
	})

	fpsFS := commands.NewFlagSet("fps")
	fpsShow := fpsFS.Bool("show", false, "show the FPS counter")
	fpsHide := fpsFS.Bool("hide", false, "hide the FPS counter")
	h.reg.Register("fps", "--show|--hide", fpsFS, func() error {
		visible, err := showHide(*fpsShow, *fpsHide, "fps")
		if err != nil {
			return err
		}
		h.debug.SetShowFPS(visible)
		h.prefs.Debug.ShowFPS = visible
		return nil
	})

	countFS := commands.NewFlagSet("markercount")
	countShow := countFS.Bool("show", false, "show the marker count")
	countHide := countFS.Bool("hide", false, "hide the marker count")
	h.reg.Register("markercount", "--show|--hide", countFS, func() error {
		visible, err := showHide(*countShow, *countHide, "markercount")
		if err != nil {
			return err
		}
		h.debug.SetShowMarkerCount(visible)
		h.prefs.Debug.ShowMarkerCount = visible
		return nil
	})

	saveFS := commands.NewFlagSet("save")
	h.reg.Register("save", "", saveFS, func() error {
		opts := h.viewer.Options()
		h.prefs.Viewer.ShowMarkers = opts.ShowMarkers
		h.prefs.Viewer.MarkerSize = opts.MarkerSize
		if err := engineconfig.Save(h.configPath, *h.prefs); err != nil {
			return err
		}
		h.log.Log().Str("path", h.configPath).Msg("config saved")
		return nil
	})

	helpFS := commands.NewFlagSet("help")
	h.reg.Register("help", "", helpFS, func() error {
		for _, line := range h.reg.Help() {
			h.log.Log().Msg(line)
		}
		return nil
	})
}

func showHide(show, hide bool, name string) (bool, error) {
	if show == hide {
		return false, fmt.Errorf("usage: cmd %s --show|--hide", name)
	}
	return show, nil
}
