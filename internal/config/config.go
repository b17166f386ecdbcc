// Package config reads twolc configuration files and decodes loose option
// maps (frontmatter, request payloads) onto domain.Config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "twolc.yaml"

// File is the structure of twolc.yaml.
type File struct {
	Compile domain.Config `yaml:"compile" json:"compile"`
	Store   Store         `yaml:"store" json:"store"`
	Server  Server        `yaml:"server" json:"server"`
}

// Store selects the transducer sink used in store mode.
type Store struct {
	Kind   string `yaml:"kind" json:"kind"` // file (default), redis or memory
	Dir    string `yaml:"dir" json:"dir"`
	Format string `yaml:"format" json:"format"` // att (default) or json
	// SealKey is a hex AES key; when set, stored transducers are encrypted.
	SealKey string `yaml:"seal_key" json:"seal_key"`
	Redis   Redis  `yaml:"redis" json:"redis"`
}

// Redis configures the redis store.
type Redis struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// Server configures the HTTP compile service.
type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *File {
	return &File{
		Compile: domain.Config{Variant: domain.VariantOther},
		Store:   Store{Kind: "file", Dir: ".", Format: "att"},
		Server:  Server{Addr: ":8080"},
	}
}

// Load reads a configuration file (YAML or JSON, by extension) over the
// defaults. A missing file yields the defaults.
func Load(path string) (*File, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if cfg.Compile, err = cfg.Compile.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid compile options in %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Decode applies a loose option map onto base. Unknown keys are errors;
// string values such as "true" are accepted.
func Decode(opts map[string]any, base domain.Config) (domain.Config, error) {
	cfg := base
	if len(opts) == 0 {
		return cfg.Normalize()
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return base, err
	}
	if err := dec.Decode(opts); err != nil {
		return base, fmt.Errorf("invalid compile options: %w", err)
	}
	return cfg.Normalize()
}
