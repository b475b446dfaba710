package types

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	BackendLegacy = "legacy"
	BackendNeural = "neural"

	ConfigFileName = "config.yaml"

	SDPModeGraph = "graph"
	SDPModeTree  = "tree"
	SDPModeMix   = "mix"

	DefaultBeamSize = 3
)

var ErrInvalidConfig = errors.New("invalid model config")

type TaskConfig struct {
	Model         string   `yaml:"model" json:"model"`
	BeamSize      int      `yaml:"beam_size,omitempty" json:"beam_size,omitempty"`
	Mode          string   `yaml:"mode,omitempty" json:"mode,omitempty"`
	PredicateTags []string `yaml:"predicate_tags,omitempty" json:"predicate_tags,omitempty"`
	Dictionary    string   `yaml:"dictionary,omitempty" json:"dictionary,omitempty"`
}

type ModelOptions struct {
	TypeConcat *bool `yaml:"type_concat,omitempty" json:"type_concat,omitempty"`
}

// ModelConfig describes a model directory; model paths are relative to Dir.
type ModelConfig struct {
	Name    string              `yaml:"name" json:"name"`
	Backend string              `yaml:"backend" json:"backend"`
	Tasks   map[Task]TaskConfig `yaml:"tasks" json:"tasks"`
	Options ModelOptions        `yaml:"options" json:"options"`
	Dir     string              `yaml:"-" json:"-"`
}

func (cfg *ModelConfig) TypeConcat() bool {
	return cfg.Options.TypeConcat == nil || *cfg.Options.TypeConcat
}

// Resolve makes a config relative path absolute.
func (cfg *ModelConfig) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Dir, path)
}

// ModelPath returns the absolute path of a task model, false when the task is absent.
func (cfg *ModelConfig) ModelPath(task Task) (string, bool) {
	tc, ok := cfg.Tasks[task]
	if !ok || tc.Model == "" {
		return "", false
	}
	return cfg.Resolve(tc.Model), true
}

func (cfg *ModelConfig) Validate() error {
	if cfg.Backend == "" {
		cfg.Backend = BackendLegacy
	}
	for task, tc := range cfg.Tasks {
		if _, err := ParseTask(string(task)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if tc.Model == "" {
			return fmt.Errorf("%w: task %s has no model", ErrInvalidConfig, task)
		}
		// pos may run on pre-tokenized input without a segmenter
		if req, ok := task.Requires(); ok && req != TaskCWS {
			if _, has := cfg.Tasks[req]; !has {
				return fmt.Errorf("%w: task %s requires %s", ErrInvalidConfig, task, req)
			}
		}
	}
	if tc, ok := cfg.Tasks[TaskSDP]; ok {
		switch tc.Mode {
		case "", SDPModeGraph, SDPModeTree, SDPModeMix:
		default:
			return fmt.Errorf("%w: unknown sdp mode %q", ErrInvalidConfig, tc.Mode)
		}
	}
	return nil
}

func ParseModelConfig(buf []byte, dir string) (*ModelConfig, error) {
	cfg := &ModelConfig{Dir: dir}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadModelConfig reads config.yaml from dir.
func LoadModelConfig(dir string) (*ModelConfig, error) {
	buf, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return nil, err
	}
	return ParseModelConfig(buf, dir)
}

func (cfg *ModelConfig) Save(dir string) error {
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), buf, 0o644)
}
