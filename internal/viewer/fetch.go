package viewer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"anypose/internal/archive"
	"anypose/internal/assets"
	"anypose/internal/download"
)

type fetchResult struct {
	url  string
	path string
	err  error
}

// Fetch downloads a model from url into the models directory in the background and loads it
// once Update sees the download finish. Zip archives are extracted and their first model is used.
func (v *Viewer) Fetch(url string) {
	v.fetching++
	v.setStatus("downloading %s...", url)
	go func() {
		path, err := fetchModel(v.ctx, url, v.opts.ModelsDir)
		select {
		case v.fetched <- fetchResult{url: url, path: path, err: err}:
		case <-v.ctx.Done():
		}
	}()
}

// Fetching reports how many downloads have not been handled by Update yet.
func (v *Viewer) Fetching() int { return v.fetching }

func (v *Viewer) handleFetch(r fetchResult) {
	v.fetching--
	if r.err != nil {
		v.log.Error().Err(r.err).Str("url", r.url).Msg("model download failed")
		v.setStatus("download failed: %s", r.url)
		return
	}
	v.log.Info().Str("url", r.url).Str("path", r.path).Msg("model downloaded")
	if err := v.RefreshCatalog(); err != nil {
		v.log.Warn().Err(err).Msg("model catalog")
	}
	if _, err := v.Load(r.path); err != nil {
		v.log.Error().Err(err).Str("path", r.path).Msg("load downloaded model")
		v.setStatus("load failed: %s", filepath.Base(r.path))
	}
}

func fetchModel(ctx context.Context, url, dir string) (string, error) {
	saved, err := download.Download(ctx, url, dir)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(saved), ".zip") {
		return saved, nil
	}
	files, err := archive.Unzip(saved, strings.TrimSuffix(saved, filepath.Ext(saved)))
	if err != nil {
		return "", err
	}
	_ = os.Remove(saved)
	models := archive.FindModels(files, assets.Exts)
	if len(models) == 0 {
		return "", fmt.Errorf("no model file in %s", filepath.Base(saved))
	}
	return models[0], nil
}
