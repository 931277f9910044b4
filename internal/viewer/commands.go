package viewer

import (
	"fmt"
	"strconv"
	"strings"

	"anypose/internal/commands"
	"anypose/internal/markers"

	"github.com/rs/zerolog"
)

// RegisterCommands adds the model and marker commands to reg. Command output goes to log.
func RegisterCommands(reg *commands.Registry, v *Viewer, log zerolog.Logger) {
	modelsFS := commands.NewFlagSet("models")
	reg.Register("models", "", modelsFS, func() error {
		if err := v.RefreshCatalog(); err != nil {
			return err
		}
		entries := v.Catalog().Models
		if len(entries) == 0 {
			log.Log().Str("dir", v.Catalog().Dir).Msg("no models found")
			return nil
		}
		for _, e := range entries {
			log.Log().Msg(e.Label())
		}
		return nil
	})

	loadFS := commands.NewFlagSet("load")
	reg.Register("load", "<file>", loadFS, func() error {
		if loadFS.NArg() != 1 {
			return fmt.Errorf("usage: cmd load <file>")
		}
		_, err := v.Load(loadFS.Arg(0))
		return err
	})

	fetchFS := commands.NewFlagSet("fetch")
	reg.Register("fetch", "<url>", fetchFS, func() error {
		if fetchFS.NArg() != 1 {
			return fmt.Errorf("usage: cmd fetch <url>")
		}
		u := fetchFS.Arg(0)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("fetch: not an http(s) url: %s", u)
		}
		v.Fetch(u)
		return nil
	})

	unloadFS := commands.NewFlagSet("unload")
	unloadAll := unloadFS.Bool("all", false, "unload every model")
	reg.Register("unload", "[name] [--all]", unloadFS, func() error {
		if *unloadAll {
			v.UnloadAll()
			return nil
		}
		switch {
		case unloadFS.NArg() == 1:
			if !v.Unload(unloadFS.Arg(0)) {
				return fmt.Errorf("model not loaded: %s", unloadFS.Arg(0))
			}
		case unloadFS.NArg() == 0 && len(v.models) == 1:
			v.Unload(v.models[0].Name)
		default:
			return fmt.Errorf("usage: cmd unload <name> | --all")
		}
		return nil
	})

	markersFS := commands.NewFlagSet("markers")
	show := markersFS.Bool("show", false, "show joint markers")
	hide := markersFS.Bool("hide", false, "hide joint markers")
	markersModel := markersFS.String("model", "", "only this model")
	reg.Register("markers", "--show|--hide [--model name]", markersFS, func() error {
		if *show == *hide {
			log.Log().Int("markers", v.Markers().Count()).Int("models", v.Markers().Tracked()).Msg("joint markers")
			return nil
		}
		return v.SetMarkersVisible(*markersModel, *show)
	})

	colorFS := commands.NewFlagSet("markercolor")
	colorModel := colorFS.String("model", "", "only this model")
	reg.Register("markercolor", "<#rrggbb> [--model name]", colorFS, func() error {
		if colorFS.NArg() != 1 {
			return fmt.Errorf("usage: cmd markercolor <#rrggbb> [--model name]")
		}
		c, err := markers.ParseColor(colorFS.Arg(0))
		if err != nil {
			return err
		}
		return v.SetMarkerColor(*colorModel, c)
	})

	sizeFS := commands.NewFlagSet("markersize")
	sizeModel := sizeFS.String("model", "", "only this model")
	reg.Register("markersize", "<scale> [--model name]", sizeFS, func() error {
		if sizeFS.NArg() != 1 {
			return fmt.Errorf("usage: cmd markersize <scale> [--model name]")
		}
		s, err := strconv.ParseFloat(strings.TrimSpace(sizeFS.Arg(0)), 32)
		if err != nil {
			return fmt.Errorf("invalid scale %q", sizeFS.Arg(0))
		}
		return v.SetMarkerSize(*sizeModel, float32(s))
	})

	clearFS := commands.NewFlagSet("markerclear")
	clearModel := clearFS.String("model", "", "only this model")
	reg.Register("markerclear", "[--model name]", clearFS, func() error {
		return v.ClearMarkers(*clearModel)
	})
}
