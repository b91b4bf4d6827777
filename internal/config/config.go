// Package config loads grantstation.yaml, its optional .local.yaml overlay and
// .env credentials.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/jderrod/GrantStationTool/internal/filter"
	"github.com/jderrod/GrantStationTool/internal/ingest"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath       = "grantstation.yaml"
	DefaultCookiePath = "grantstation_cookies.json"
	DefaultOutputDir  = "."

	EnvUsername = "GRANTSTATION_USERNAME"
	EnvPassword = "GRANTSTATION_PASSWORD"
)

// ErrMissingCredentials is returned when a login is needed but no username or
// password was configured.
var ErrMissingCredentials = errors.New("GrantStation credentials not configured (set " + EnvUsername + " and " + EnvPassword + ")")

type Config struct {
	// Portal fields override the embedded portal defaults when set.
	Portal      ingest.PortalConfig `yaml:"portal"`
	Credentials Credentials         `yaml:"credentials"`
	Filters     struct {
		Path string `yaml:"path"`
	} `yaml:"filters"`
	Cookies struct {
		Path string `yaml:"path"`
	} `yaml:"cookies"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Evaluation Evaluation `yaml:"evaluation"`
}

type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Evaluation flags are pointers so a local overlay can turn an option off
// again; nil means unset (false).
type Evaluation struct {
	FailClosedDates      *bool `yaml:"fail_closed_dates"`
	LegacyMillionScaling *bool `yaml:"legacy_million_scaling"`
}

// overlay copies every flag local sets. mergo skips false values, so
// pointers to false are applied here.
func (e *Evaluation) overlay(local Evaluation) {
	if local.FailClosedDates != nil {
		e.FailClosedDates = local.FailClosedDates
	}
	if local.LegacyMillionScaling != nil {
		e.LegacyMillionScaling = local.LegacyMillionScaling
	}
}

func enabled(flag *bool) bool {
	return flag != nil && *flag
}

// Load reads name and name.local.<ext> (local wins), then applies .env and
// environment overrides. Missing files are not an error; defaults fill the gaps.
func Load(name string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] Warning: could not read .env: %v", err)
	}

	var cfg Config
	if err := readYAML(name, &cfg); err != nil {
		return nil, err
	}

	localPath := localName(name)
	var local Config
	if err := readYAML(localPath, &local); err != nil {
		return nil, err
	}
	if err := mergo.Merge(&cfg, local, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge %s: %w", localPath, err)
	}
	cfg.Evaluation.overlay(local.Evaluation)

	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Credentials.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Credentials.Password = v
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func readYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// localName turns "dir/grantstation.yaml" into "dir/grantstation.local.yaml".
func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func (c *Config) applyDefaults() {
	if c.Filters.Path == "" {
		c.Filters.Path = filter.DefaultPath
	}
	if c.Cookies.Path == "" {
		c.Cookies.Path = DefaultCookiePath
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
}

// PortalConfig returns the embedded portal definition with this config's
// portal section merged over it.
func (c *Config) PortalConfig() (*ingest.PortalConfig, error) {
	portal, err := ingest.LoadPortalConfig()
	if err != nil {
		return nil, fmt.Errorf("load portal defaults: %w", err)
	}
	if err := mergo.Merge(portal, c.Portal, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge portal config: %w", err)
	}
	portal.BaseURL = strings.TrimRight(portal.BaseURL, "/")
	return portal, nil
}

// Evaluator builds the rule evaluator the evaluation section asks for.
func (c *Config) Evaluator() filter.Evaluator {
	return filter.Evaluator{
		Amounts:         ingest.AmountExtractor{LegacyMillionScaling: enabled(c.Evaluation.LegacyMillionScaling)},
		FailClosedDates: enabled(c.Evaluation.FailClosedDates),
	}
}

// RequireCredentials reports ErrMissingCredentials when either value is blank.
func (c *Config) RequireCredentials() (username, password string, err error) {
	username, password = c.Credentials.Username, c.Credentials.Password
	if strings.TrimSpace(username) == "" || password == "" {
		return "", "", ErrMissingCredentials
	}
	return username, password, nil
}
