package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadLanguagePacks reads every *.toml file in the configured language pack
// directories (relative paths resolve against repoRoot) and merges the
// languages they define over the existing ones. A pack names its language with
// a top-level `name` key, or by its file name. Missing directories are ignored.
// It returns the names of the languages loaded.
func (c *Config) LoadLanguagePacks(repoRoot string) ([]string, error) {
	var loaded []string
	for _, dir := range c.Analysis.LanguagePacks {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(repoRoot, dir)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return loaded, fmt.Errorf("reading language packs: %w", err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".toml") {
				continue
			}
			name, lang, err := ReadLanguagePack(filepath.Join(dir, e.Name()))
			if err != nil {
				return loaded, err
			}
			if c.Languages == nil {
				c.Languages = make(map[string]LanguageConfig)
			}
			c.Languages[name] = lang
			loaded = append(loaded, name)
		}
	}
	c.normalize()
	return loaded, nil
}

// ReadLanguagePack decodes one TOML language pack.
func ReadLanguagePack(path string) (string, LanguageConfig, error) {
	var lang LanguageConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return "", lang, fmt.Errorf("reading language pack %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), &lang)
	if err != nil {
		return "", lang, fmt.Errorf("decoding language pack %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		if key.String() != "name" {
			return "", lang, fmt.Errorf("language pack %s: unknown key %q", path, key.String())
		}
	}

	var header struct {
		Name string `toml:"name"`
	}
	if _, err := toml.Decode(string(data), &header); err != nil {
		return "", lang, fmt.Errorf("decoding language pack %s: %w", path, err)
	}
	name := strings.ToLower(strings.TrimSpace(header.Name))
	if name == "" {
		name = strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return name, lang, nil
}
