// Package config resolves settings from file, environment, and CLI flags,
// tracking where each value came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a setting plus the layer that supplied it.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	CLIEmbed   string
	CLIDBPath  string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath        ResolvedValue `json:"db_path"`
	EmbedProvider ResolvedValue `json:"embed_provider"`
	EmbedEndpoint ResolvedValue `json:"embed_endpoint"`
	EmbedAPIKey   ResolvedValue `json:"embed_api_key"`

	CollapseWindowMinutes int `json:"collapse_window_minutes"`
	TopContacts           int `json:"top_contacts"`

	PositiveAnchor ResolvedValue `json:"positive_anchor"`
	NegativeAnchor ResolvedValue `json:"negative_anchor"`
}

type fileConfig struct {
	DBPath string `yaml:"db_path"`
	Embed  struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"embed"`
	Analyze struct {
		CollapseWindowMinutes int `yaml:"collapse_window_minutes"`
		TopContacts           int `yaml:"top_contacts"`
	} `yaml:"analyze"`
	Anchors struct {
		Positive string `yaml:"positive"`
		Negative string `yaml:"negative"`
	} `yaml:"anchors"`
}

const (
	defaultCollapseWindowMinutes = 10
	defaultTopContacts           = 5
)

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rapport", "config.yaml")
}

// ResolveConfig layers config file, environment, and CLI values.
// A missing config file is not an error.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath:            path,
		CollapseWindowMinutes: defaultCollapseWindowMinutes,
		TopContacts:           defaultTopContacts,
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		embedSpec := cfg.Embed.Provider
		if cfg.Embed.Model != "" {
			embedSpec = cfg.Embed.Provider + "/" + cfg.Embed.Model
		}
		apply(&out.EmbedProvider, embedSpec, SourceConfig, path)
		apply(&out.EmbedEndpoint, cfg.Embed.Endpoint, SourceConfig, path)
		apply(&out.EmbedAPIKey, cfg.Embed.APIKey, SourceConfig, path)
		apply(&out.PositiveAnchor, cfg.Anchors.Positive, SourceConfig, path)
		apply(&out.NegativeAnchor, cfg.Anchors.Negative, SourceConfig, path)

		if cfg.Analyze.CollapseWindowMinutes > 0 {
			out.CollapseWindowMinutes = cfg.Analyze.CollapseWindowMinutes
		}
		if cfg.Analyze.TopContacts > 0 {
			out.TopContacts = cfg.Analyze.TopContacts
		}
	}

	applyEnv(&out.DBPath, "RAPPORT_DB")
	applyEnv(&out.DBPath, "RAPPORT_DB_PATH")
	applyEnv(&out.EmbedProvider, "RAPPORT_EMBED")
	applyEnv(&out.EmbedEndpoint, "RAPPORT_EMBED_ENDPOINT")
	applyEnv(&out.EmbedAPIKey, "RAPPORT_EMBED_API_KEY")

	if v := strings.TrimSpace(os.Getenv("RAPPORT_TOP_CONTACTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			out.TopContacts = n
		}
	}

	apply(&out.EmbedProvider, opts.CLIEmbed, SourceCLI, "--embed")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
