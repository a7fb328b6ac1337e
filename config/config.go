package config

import (
	"fmt"
	"os"
	"path"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/menmos/blockranges"
	"github.com/menmos/blockranges/analysis"
	"github.com/menmos/blockranges/heatmap"
)

const configDirName = "blockranges"
const configFileName = "config.toml"

const defaultThreshold = 64

// Heatmap holds the rendering settings.
type Heatmap struct {
	Columns  int `json:"columns,omitempty" default:"128"`
	CellSize int `json:"cell_size,omitempty" default:"4"`
}

// A Config represents the on-disk configuration of the range tools.
// Top-level scalars can be overridden from the environment.
type Config struct {
	LogLevel     string             `json:"log_level,omitempty" default:"info" env:"BLOCKRANGES_LOG_LEVEL"`
	BlockSize    int64              `json:"block_size,omitempty" default:"4096" env:"BLOCKRANGES_BLOCK_SIZE"`
	GapThreshold int64              `json:"gap_threshold,omitempty" default:"64" env:"BLOCKRANGES_GAP_THRESHOLD"`
	AnalysisFile string             `json:"analysis_file,omitempty" default:"zsync2_block_analysis.txt" env:"BLOCKRANGES_ANALYSIS_FILE"`
	Heatmap      Heatmap            `json:"heatmap,omitempty"`
	Profiles     map[string]Profile `json:"profiles,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		BlockSize:    blockranges.DefaultBlockSize,
		GapThreshold: defaultThreshold,
		AnalysisFile: analysis.DefaultFileName,
		Heatmap:      Heatmap{Columns: heatmap.DefaultColumns, CellSize: heatmap.DefaultCellSize},
		Profiles:     map[string]Profile{},
	}
}

func loadConfigFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open configuration file")
	}
	defer file.Close()

	decoder := toml.NewDecoder(file).SetTagName("json")

	cfg := Default()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode TOML config")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	return errors.Wrap(env.Parse(cfg), "failed to read configuration from environment")
}

// DefaultPath returns the configuration path inside the user config directory.
func DefaultPath() (string, error) {
	configPath, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get the user configuration directory")
	}

	return path.Join(configPath, configDirName, configFileName), nil
}

// LoadDefault loads the config from the default path. A missing file is not
// an error, the defaults are used instead.
func LoadDefault() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := Default()
		if err := applyEnv(cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	return Load(configPath)
}

// Load loads the config stored at path and applies environment overrides.
func Load(path string) (*Config, error) {
	if err := ValidateConfigPath(path); err != nil {
		return nil, err
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// ValidateConfigPath makes sure that path is a regular file that can be read.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "failed to stat configuration file")
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a normal file", path)
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	if c.BlockSize <= 0 {
		return errors.Errorf("block_size must be positive, got %d", c.BlockSize)
	}
	if c.GapThreshold < 0 {
		return errors.Errorf("gap_threshold must not be negative, got %d", c.GapThreshold)
	}
	if c.Heatmap.Columns <= 0 || c.Heatmap.CellSize <= 0 {
		return errors.Errorf("heatmap dimensions must be positive, got %dx%d", c.Heatmap.Columns, c.Heatmap.CellSize)
	}
	return nil
}

// Profile returns the named replay profile.
func (c *Config) Profile(name string) (*Profile, error) {
	if profile, ok := c.Profiles[name]; ok {
		return &profile, nil
	}

	return nil, errors.New(fmt.Sprintf("profile '%s' not found", name))
}
