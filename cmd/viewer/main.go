package main

import (
	"context"
	"os"
	"os/signal"

	"anypose/internal/commands"
	"anypose/internal/debug"
	"anypose/internal/engineconfig"
	"anypose/internal/env"
	"anypose/internal/fonts"
	"anypose/internal/graphics"
	"anypose/internal/logger"
	"anypose/internal/render"
	"anypose/internal/scene"
	"anypose/internal/terminal"
	"anypose/internal/viewer"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", engineconfig.ConfigPath, "viewer config file")
	envPath := pflag.String("env", ".env", "dotenv file loaded before the config")
	initial := pflag.String("load", "", "model to load at startup (catalog file or path)")
	pflag.Parse()

	// The logger does not exist yet, so .env problems are reported once it does.
	envErr := env.Load(*envPath)
	prefs, cfgErr := engineconfig.Load(*configPath)

	log := logger.New(prefs.LogLevel)
	if envErr != nil {
		log.Warn().Err(envErr).Str("path", *envPath).Msg("could not load .env")
	}
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Str("path", *configPath).Msg("using default config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := viewer.New(ctx, viewer.Options{
		ModelsDir:   prefs.ModelsDir,
		MultiModel:  prefs.Viewer.MultiModel,
		ModelScale:  prefs.Viewer.ModelScale,
		ShowMarkers: prefs.Viewer.ShowMarkers,
		MarkerSize:  prefs.Viewer.MarkerSize,
	}, render.SphereFactory{}, log.Logger)
	if err := v.RefreshCatalog(); err != nil {
		log.Warn().Err(err).Msg("model catalog")
	}

	stage := scene.New(prefs.Stage.Size, prefs.Stage.GridDivisions)
	stage.SetGridVisible(prefs.Stage.GridVisible)
	renderer := render.NewRenderer(stage.Lights())

	dbg := debug.New()
	dbg.SetShowFPS(prefs.Debug.ShowFPS)
	dbg.SetShowMarkerCount(prefs.Debug.ShowMarkerCount)
	dbg.MarkerCount = func() (int, int) {
		return v.Markers().Count(), v.Markers().Tracked()
	}

	reg := commands.NewRegistry()
	viewer.RegisterCommands(reg, v, log.Logger)
	h := &host{log: log.Logger, reg: reg, prefs: &prefs, configPath: *configPath, stage: stage, debug: dbg, viewer: v}
	h.register()
	term := terminal.New(log, reg)

	if *initial != "" {
		if _, err := v.Load(*initial); err != nil {
			log.Error().Err(err).Msg("startup load")
		}
	}

	update := func() {
		term.Update()
		stage.Update(term.IsOpen())
		v.Update()
	}
	fontLoaded := false
	var font rl.Font
	draw := func() {
		// Fonts need the GL context, so they are loaded on the first frame.
		if !fontLoaded {
			fontLoaded = true
			if font = loadFont(prefs.UI, log.Logger); font.Texture.ID != 0 {
				term.SetFont(font)
				dbg.SetFont(font)
			}
		}
		stage.Draw(func(camera rl.Camera3D) {
			renderer.Draw(v.Root(), camera)
		})
		rl.DrawText(v.Status(), 12, 12, 20, rl.LightGray)
		term.Draw()
		dbg.Draw()
	}
	cleanup := func() {
		v.Close()
		renderer.Close()
		if font.Texture.ID != 0 {
			rl.UnloadFont(font)
		}
	}
	graphics.Run(ctx, update, draw, cleanup)
	log.Info().Msg("viewer closed")
}

// loadFont returns the configured overlay font, or a zero Font for raylib's default.
func loadFont(p engineconfig.UIPrefs, log zerolog.Logger) rl.Font {
	if p.Font == "" {
		return rl.Font{}
	}
	path, err := fonts.Find(p.FontsDir, p.Font)
	if err != nil {
		log.Warn().Err(err).Str("font", p.Font).Str("dir", p.FontsDir).Msg("font not found, using default")
		return rl.Font{}
	}
	log.Info().Str("path", path).Msg("font loaded")
	return rl.LoadFont(path)
}
