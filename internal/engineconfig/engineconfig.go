package engineconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPath is the path to the viewer config file, relative to the process working directory.
const ConfigPath = "config/viewer.json"

// EnvPrefix is prepended to every key when read from the environment, e.g. ANYPOSE_VIEWER_MULTIMODEL.
const EnvPrefix = "ANYPOSE"

// Prefs holds viewer preferences. Persisted across runs with Save.
type Prefs struct {
	LogLevel  string      `mapstructure:"logLevel"`
	ModelsDir string      `mapstructure:"modelsDir"`
	Viewer    ViewerPrefs `mapstructure:"viewer"`
	Stage     StagePrefs  `mapstructure:"stage"`
	Debug     DebugPrefs  `mapstructure:"debug"`
	UI        UIPrefs     `mapstructure:"ui"`
}

// ViewerPrefs controls model loading and marker defaults.
// MultiModel false keeps a single current model: loading replaces the previous one.
type ViewerPrefs struct {
	MultiModel  bool    `mapstructure:"multiModel"`
	ModelScale  float32 `mapstructure:"modelScale"`
	ShowMarkers bool    `mapstructure:"showMarkers"`
	MarkerSize  float32 `mapstructure:"markerSize"`
}

// StagePrefs controls the ground plane and grid.
type StagePrefs struct {
	Size          float32 `mapstructure:"size"`
	GridDivisions int     `mapstructure:"gridDivisions"`
	GridVisible   bool    `mapstructure:"gridVisible"`
}

// DebugPrefs controls the debug overlays. All off by default.
type DebugPrefs struct {
	ShowFPS         bool `mapstructure:"showFPS"`
	ShowMarkerCount bool `mapstructure:"showMarkerCount"`
}

// UIPrefs selects the overlay font. An empty Font uses the built-in raylib font.
type UIPrefs struct {
	FontsDir string `mapstructure:"fontsDir"`
	Font     string `mapstructure:"font"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("modelsDir", "models")

	v.SetDefault("viewer.multiModel", false)
	v.SetDefault("viewer.modelScale", 1.0)
	v.SetDefault("viewer.showMarkers", true)
	v.SetDefault("viewer.markerSize", 1.0)

	v.SetDefault("stage.size", 10.0)
	v.SetDefault("stage.gridDivisions", 20)
	v.SetDefault("stage.gridVisible", true)

	v.SetDefault("debug.showFPS", false)
	v.SetDefault("debug.showMarkerCount", false)

	v.SetDefault("ui.fontsDir", "assets/fonts")
	v.SetDefault("ui.font", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the default preferences (single model, markers shown, grid on).
func Default() Prefs {
	var p Prefs
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(&p)
	return p
}

// Load reads preferences from path, applying defaults and ANYPOSE_* environment overrides.
// A missing file is not an error. An unreadable or invalid file returns the defaults
// together with the error.
func Load(path string) (Prefs, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			readErr = fmt.Errorf("config: read %s: %w", path, err)
			v = newViper()
		}
	}

	var p Prefs
	if err := v.Unmarshal(&p); err != nil {
		return Default(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	return p, readErr
}

// Save writes preferences to path as JSON, creating the directory if needed.
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	v := viper.New()
	v.Set("logLevel", p.LogLevel)
	v.Set("modelsDir", p.ModelsDir)
	v.Set("viewer.multiModel", p.Viewer.MultiModel)
	v.Set("viewer.modelScale", p.Viewer.ModelScale)
	v.Set("viewer.showMarkers", p.Viewer.ShowMarkers)
	v.Set("viewer.markerSize", p.Viewer.MarkerSize)
	v.Set("stage.size", p.Stage.Size)
	v.Set("stage.gridDivisions", p.Stage.GridDivisions)
	v.Set("stage.gridVisible", p.Stage.GridVisible)
	v.Set("debug.showFPS", p.Debug.ShowFPS)
	v.Set("debug.showMarkerCount", p.Debug.ShowMarkerCount)
	v.Set("ui.fontsDir", p.UI.FontsDir)
	v.Set("ui.font", p.UI.Font)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
