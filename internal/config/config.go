package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the optional project configuration, read from config.yaml.
// Every field has a working default so the file can be absent.
type Config struct {
	Workspace string   `yaml:"workspace"`
	Languages []string `yaml:"languages"`

	Gemini struct {
		ModelID string `yaml:"model_id"`
	} `yaml:"gemini"`

	Layout struct {
		MaxLineWidth int  `yaml:"max_line_width"`
		SnapToFrames bool `yaml:"snap_to_frames"`
	} `yaml:"layout"`

	Voice struct {
		PythonPath      string `yaml:"python_path"`
		InferenceScript string `yaml:"inference_script"`
	} `yaml:"voice"`
}

func Default() Config {
	var cfg Config
	cfg.Workspace = "workspace"
	cfg.Languages = []string{"ja", "en", "ko"}
	cfg.Gemini.ModelID = "gemini-2.5-flash"
	cfg.Layout.MaxLineWidth = 16
	return cfg
}

// Load reads config.yaml from path. A missing file returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads a .env file if one exists. Real environment variables
// always win over .env entries.
func LoadEnv() {
	_ = godotenv.Load()
}
