// Package config loads the planetaryhours server configuration.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetServerConfig() (*ServerData, error)
	GetLocation() (*LocationData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server    ServerData    `yaml:"server" json:"server"`
	Location  LocationData  `yaml:"location" json:"location"`
	Solar     SolarData     `yaml:"solar" json:"solar"`
	Elevation ElevationData `yaml:"elevation" json:"elevation"`
	Rulers    RulersData    `yaml:"rulers" json:"rulers"`
	Defaults  DefaultsData  `yaml:"defaults" json:"defaults"`
}

// ServerData configures the REST listener
type ServerData struct {
	ListenAddr     string        `yaml:"listen_addr" json:"listen_addr"`
	Port           int           `yaml:"port" json:"port" validate:"gte=0,lte=65535"`
	Cert           string        `yaml:"cert,omitempty" json:"cert,omitempty"`
	Key            string        `yaml:"key,omitempty" json:"key,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	EnableCORS     bool          `yaml:"enable_cors" json:"enable_cors"`
}

// LocationData is the observer used when a request names no coordinates
type LocationData struct {
	Latitude        float64 `yaml:"latitude" json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64 `yaml:"longitude" json:"longitude" validate:"gte=-180,lte=180"`
	TZOffsetMinutes int     `yaml:"tz_offset_minutes" json:"tz_offset_minutes" validate:"gte=-840,lte=840"`
}

// SolarData selects the sunrise/sunset algorithm
type SolarData struct {
	Algorithm string `yaml:"algorithm" json:"algorithm" validate:"oneof=meeus sunrise"`
}

// ElevationData configures the elevation lookup service
type ElevationData struct {
	URL               string        `yaml:"url" json:"url" validate:"omitempty,url"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second" validate:"gte=0"`
}

// RulersData selects where hour rulers come from
type RulersData struct {
	Source   string        `yaml:"source" json:"source" validate:"oneof=local api"`
	URL      string        `yaml:"url" json:"url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Sequence []string      `yaml:"sequence" json:"sequence" validate:"omitempty,len=7,dive,required"`
}

// DefaultsData holds request parameter defaults
type DefaultsData struct {
	OffsetPercent float64   `yaml:"offset_percent" json:"offset_percent"`
	UseOffset     *bool     `yaml:"use_offset" json:"use_offset"`
	Anchors       []float64 `yaml:"anchors" json:"anchors" validate:"dive,gte=0,lte=1"`
}

// OffsetEnabled reports the configured use_offset default, true when unset
func (d DefaultsData) OffsetEnabled() bool {
	return d.UseOffset == nil || *d.UseOffset
}

const (
	DefaultListenAddr     = "0.0.0.0"
	DefaultPort           = 8080
	DefaultRequestTimeout = 10 * time.Second
	DefaultOffsetPercent  = 1.5
)

// ApplyDefaults fills unset fields
func (c *ConfigData) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
	if c.Solar.Algorithm == "" {
		c.Solar.Algorithm = "meeus"
	}
	if c.Rulers.Source == "" {
		c.Rulers.Source = "local"
	}
	if c.Defaults.OffsetPercent == 0 {
		c.Defaults.OffsetPercent = DefaultOffsetPercent
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and enumerations
func (c *ConfigData) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Default returns a configuration with every default applied
func Default() *ConfigData {
	c := &ConfigData{}
	c.ApplyDefaults()
	return c
}
