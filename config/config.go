// Package config loads the settings of the augment command-line tool.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/born-ml/augment/internal/tensor"
)

// LogConfig defines logging configurations
type LogConfig struct {
	Debug bool `koanf:"debug"`
}

// DeviceConfig selects where outputs are placed
type DeviceConfig struct {
	Name string `koanf:"name"`
}

// LabelConfig defines label map configurations
type LabelConfig struct {
	DType string `koanf:"dtype"`
}

// SamplingConfig defines random parameter sampling
type SamplingConfig struct {
	Seed int64 `koanf:"seed"` // negative means random
}

// AppConfig defines
type AppConfig struct {
	Log      LogConfig      `koanf:"log"`
	Device   DeviceConfig   `koanf:"device"`
	Label    LabelConfig    `koanf:"label"`
	Sampling SamplingConfig `koanf:"sampling"`
}

// Config - Global variable to export
var Config AppConfig

// Init loads defaults, then the yaml file at filePath (skipped when empty),
// then CFG_ environment variables, and validates the result.
func Init(filePath string) error {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"log.debug":     false,
		"device.name":   "cpu",
		"label.dtype":   "float32",
		"sampling.seed": -1,
	}, "."), nil); err != nil {
		return err
	}

	if filePath != "" {
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("CFG_", ".", func(s string, v string) (string, any) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CFG_")), "_", ".")
		if strings.Contains(v, ",") {
			return key, strings.Split(strings.TrimSpace(v), ",")
		}
		return key, v
	}), nil); err != nil {
		return err
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return err
	}
	Config = cfg
	return nil
}

// ValidateConfig checks that the device and label dtype names are known.
func ValidateConfig(cfg *AppConfig) error {
	if _, err := cfg.TargetDevice(); err != nil {
		return fmt.Errorf("config: device.name: %w", err)
	}
	if _, err := cfg.LabelDType(); err != nil {
		return fmt.Errorf("config: label.dtype: %w", err)
	}
	return nil
}

// TargetDevice parses Device.Name.
func (c *AppConfig) TargetDevice() (tensor.Device, error) {
	return tensor.ParseDevice(c.Device.Name)
}

// LabelDType parses Label.DType.
func (c *AppConfig) LabelDType() (tensor.DataType, error) {
	return tensor.ParseDataType(c.Label.DType)
}

var defaultConfigPath = "config/config.yaml"

// ParseConfigFlag allows clients to specify the relative path to the file from
// which the configuration will be loaded. A missing default file is skipped.
func ParseConfigFlag(args []string) (string, []string) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("file", "", "configuration file")
	if err := fs.Parse(args); err != nil {
		return defaultPathIfPresent(), args
	}

	if *configPath == "" {
		return defaultPathIfPresent(), fs.Args()
	}
	return *configPath, fs.Args()
}

func defaultPathIfPresent() string {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
