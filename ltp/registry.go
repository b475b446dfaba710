package ltp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"ltp.dev/ltpgo/types"
)

const (
	LegacyModel = "LTP/legacy"

	DefaultModelHome = "models"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrNeuralBackend = errors.New("neural backend is not supported")
)

// NeuralModels are the transformer models published under the LTP hub name.
var NeuralModels = []string{"LTP/tiny", "LTP/small", "LTP/base", "LTP/base1", "LTP/base2"}

type Config struct {
	ModelHome string `envconfig:"LTP_MODEL_HOME" default:"models"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

func isNeural(name string) bool {
	for _, n := range NeuralModels {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Resolve finds the model config for name. A directory holding config.yaml
// is loaded as is; hub names are looked up under home.
func Resolve(name, home string) (*types.ModelConfig, error) {
	if isNeural(name) {
		return nil, fmt.Errorf("%w: %s", ErrNeuralBackend, name)
	}
	if home == "" {
		home = DefaultModelHome
	}

	candidates := []string{name}
	if !filepath.IsAbs(name) {
		candidates = append(candidates, filepath.Join(home, filepath.FromSlash(name)))
	}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, types.ConfigFileName)); err != nil {
			continue
		}
		cfg, err := types.LoadModelConfig(dir)
		if err != nil {
			return nil, err
		}
		if cfg.Backend != types.BackendLegacy {
			return nil, fmt.Errorf("%w: %s uses backend %q", ErrNeuralBackend, name, cfg.Backend)
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: %s (model home %s)", ErrModelNotFound, name, home)
}
