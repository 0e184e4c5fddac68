package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string

	mu     sync.Mutex
	config *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider. An empty
// filename yields the built-in defaults.
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig reads, defaults and validates the configuration file. The
// result is cached after the first successful load.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.config != nil {
		return y.config, nil
	}

	if y.filename == "" {
		y.config = Default()
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", y.filename, err)
	}

	cfg, err := Parse(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}
	y.config = cfg
	return y.config, nil
}

// Parse decodes YAML, applies defaults and validates. Unknown keys are rejected.
func Parse(data []byte) (*ConfigData, error) {
	cfg := &ConfigData{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetServerConfig returns the REST listener configuration
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Server, nil
}

// GetLocation returns the default observer location
func (y *YAMLProvider) GetLocation() (*LocationData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Location, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
