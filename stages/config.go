package stages

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"
)

// GenerateGraspPoseType is the stage type name used in stage configs.
const GenerateGraspPoseType = "generate_grasp_pose"

// Config describes a stage to build.
type Config struct {
	Name       string                 `json:"name" yaml:"name"`
	Type       string                 `json:"type" yaml:"type"`
	Attributes map[string]interface{} `json:"attributes" yaml:"attributes"`
}

// Validate checks the config.
func (cfg *Config) Validate(path string) error {
	if cfg.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if cfg.Type != GenerateGraspPoseType {
		return utils.NewConfigValidationError(path, errors.Errorf("unknown stage type %q", cfg.Type))
	}
	return nil
}

// ReadConfigFile reads a stage config from a JSON or YAML file, substituting ${VAR} references from the
// environment. Files ending in .yaml or .yml are read as YAML.
func ReadConfigFile(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		return ReadYAMLConfig(bytes.NewReader(buf))
	default:
		return ReadConfig(bytes.NewReader(buf))
	}
}

// ReadYAMLConfig reads a stage config in YAML from r.
func ReadYAMLConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse stage config")
	}
	return cfg, nil
}

// ReadConfig reads a stage config from r.
func ReadConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse stage config")
	}
	return cfg, nil
}

// NewGenerateGraspPoseFromConfig builds and validates a GenerateGraspPose stage.
func NewGenerateGraspPoseFromConfig(cfg *Config, logger logging.Logger) (*GenerateGraspPose, error) {
	if err := cfg.Validate("stage"); err != nil {
		return nil, err
	}
	g := NewGenerateGraspPose(cfg.Name, logger)
	if err := g.Configure(cfg.Attributes); err != nil {
		return nil, err
	}
	if err := g.Validate("stage." + cfg.Name); err != nil {
		return nil, err
	}
	return g, nil
}
