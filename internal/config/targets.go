package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Targets is the keyword and allowlist declared in a targets file.
type Targets struct {
	Keyword         string   `json:"keyword" yaml:"keyword"`
	TrustedWebsites []string `json:"trusted_websites" yaml:"trusted_websites"`
}

// LoadTargets reads a YAML or JSON targets file.
func LoadTargets(path string) (Targets, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Targets{}, errors.New("targets file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Targets{}, fmt.Errorf("read targets file: %w", err)
	}

	t, err := parseTargets(raw, filepath.Ext(path))
	if err != nil {
		return Targets{}, err
	}

	t.Keyword = strings.TrimSpace(t.Keyword)
	sites := make([]string, 0, len(t.TrustedWebsites))
	for _, s := range t.TrustedWebsites {
		if s = strings.TrimSpace(s); s != "" {
			sites = append(sites, s)
		}
	}
	t.TrustedWebsites = sites

	if t.Keyword == "" {
		return Targets{}, errors.New("targets file has no keyword")
	}
	if len(t.TrustedWebsites) == 0 {
		return Targets{}, errors.New("targets file has no trusted_websites entries")
	}
	return t, nil
}

type unmarshalFn func([]byte, any) error

func parseTargets(data []byte, ext string) (Targets, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var t Targets
		if err := d.fn(data, &t); err == nil {
			return t, nil
		}
	}

	return Targets{}, errors.New("targets file format not recognized (expected YAML or JSON)")
}
