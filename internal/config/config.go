package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the repository root.
const DefaultFileName = "overdoc.yaml"

// EnvPrefix prefixes environment overrides, e.g. OVERDOC_LOGGING_LEVEL=debug.
const EnvPrefix = "OVERDOC"

// Config represents the complete overdoc configuration.
type Config struct {
	IgnorePatterns    []string                  `json:"ignore_patterns" yaml:"ignore_patterns" mapstructure:"ignore_patterns"`
	IgnoreDirectories []string                  `json:"ignore_directories" yaml:"ignore_directories" mapstructure:"ignore_directories"`
	Languages         map[string]LanguageConfig `json:"languages" yaml:"languages" mapstructure:"languages"`
	DefaultSettings   DefaultSettings           `json:"default_settings" yaml:"default_settings" mapstructure:"default_settings"`
	Scoring           ScoringConfig             `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Analysis          AnalysisConfig            `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Logging           LoggingConfig             `json:"logging" yaml:"logging" mapstructure:"logging"`
	Storage           StorageConfig             `json:"storage" yaml:"storage" mapstructure:"storage"`
}

// LanguageConfig is the data describing one language. Patterns are regular
// expressions applied to the whole file in multiline mode.
type LanguageConfig struct {
	Extensions          []string `json:"extensions" yaml:"extensions" mapstructure:"extensions" toml:"extensions"`
	IgnoreFiles         []string `json:"ignore_files,omitempty" yaml:"ignore_files,omitempty" mapstructure:"ignore_files" toml:"ignore_files"`
	IgnoreDirectories   []string `json:"ignore_directories,omitempty" yaml:"ignore_directories,omitempty" mapstructure:"ignore_directories" toml:"ignore_directories"`
	ExportPatterns      []string `json:"export_patterns" yaml:"export_patterns" mapstructure:"export_patterns" toml:"export_patterns"`
	ImportPatterns      []string `json:"import_patterns" yaml:"import_patterns" mapstructure:"import_patterns" toml:"import_patterns"`
	DeclarationPatterns []string `json:"declaration_patterns,omitempty" yaml:"declaration_patterns,omitempty" mapstructure:"declaration_patterns" toml:"declaration_patterns"`
	LineComments        []string `json:"line_comments,omitempty" yaml:"line_comments,omitempty" mapstructure:"line_comments" toml:"line_comments"`
	BlockComment        []string `json:"block_comment,omitempty" yaml:"block_comment,omitempty" mapstructure:"block_comment" toml:"block_comment"`
	BranchKeywords      []string `json:"branch_keywords,omitempty" yaml:"branch_keywords,omitempty" mapstructure:"branch_keywords" toml:"branch_keywords"`
	LogicalOperators    []string `json:"logical_operators,omitempty" yaml:"logical_operators,omitempty" mapstructure:"logical_operators" toml:"logical_operators"`
	Nesting             string   `json:"nesting,omitempty" yaml:"nesting,omitempty" mapstructure:"nesting" toml:"nesting"`
}

// DefaultSettings holds the file admission settings.
type DefaultSettings struct {
	IncludeNoExtension bool `json:"include_no_extension" yaml:"include_no_extension" mapstructure:"include_no_extension"`
	MaxFileSizeKB      int  `json:"max_file_size_kb" yaml:"max_file_size_kb" mapstructure:"max_file_size_kb"`
}

// ScoringConfig holds the importance and knowledge score constants.
type ScoringConfig struct {
	DependentWeight  float64          `json:"dependent_weight" yaml:"dependent_weight" mapstructure:"dependent_weight"`
	KnowledgeWeights KnowledgeWeights `json:"knowledge_weights" yaml:"knowledge_weights" mapstructure:"knowledge_weights"`
	Caps             ScoringCaps      `json:"caps" yaml:"caps" mapstructure:"caps"`
}

// KnowledgeWeights weigh the knowledge score components.
type KnowledgeWeights struct {
	Complexity      float64 `json:"complexity" yaml:"complexity" mapstructure:"complexity"`
	Maintainability float64 `json:"maintainability" yaml:"maintainability" mapstructure:"maintainability"`
	Size            float64 `json:"size" yaml:"size" mapstructure:"size"`
	Declarations    float64 `json:"declarations" yaml:"declarations" mapstructure:"declarations"`
	Importance      float64 `json:"importance" yaml:"importance" mapstructure:"importance"`
}

// Sum returns the total weight.
func (w KnowledgeWeights) Sum() float64 {
	return w.Complexity + w.Maintainability + w.Size + w.Declarations + w.Importance
}

// ScoringCaps are the saturation points of the knowledge components.
type ScoringCaps struct {
	Cyclomatic   float64 `json:"cyclomatic" yaml:"cyclomatic" mapstructure:"cyclomatic"`
	Cognitive    float64 `json:"cognitive" yaml:"cognitive" mapstructure:"cognitive"`
	Lines        float64 `json:"lines" yaml:"lines" mapstructure:"lines"`
	Declarations float64 `json:"declarations" yaml:"declarations" mapstructure:"declarations"`
}

// AnalysisConfig tunes the pipeline.
type AnalysisConfig struct {
	Workers          int      `json:"workers" yaml:"workers" mapstructure:"workers"`
	RespectGitignore bool     `json:"respect_gitignore" yaml:"respect_gitignore" mapstructure:"respect_gitignore"`
	LanguagePacks    []string `json:"language_packs" yaml:"language_packs" mapstructure:"language_packs"`
	TopN             int      `json:"top_n" yaml:"top_n" mapstructure:"top_n"`
}

// WorkerCount resolves the configured worker count, 0 meaning GOMAXPROCS.
func (a AnalysisConfig) WorkerCount() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	File   string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// StorageConfig controls snapshot persistence.
type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		IgnorePatterns:    []string{"*.min.*", "*.map", "*.lock", ".gitignore", ".git/*"},
		IgnoreDirectories: []string{"node_modules", "target", "dist", "build", ".git"},
		Languages:         DefaultLanguages(),
		DefaultSettings: DefaultSettings{
			IncludeNoExtension: false,
			MaxFileSizeKB:      1024,
		},
		Scoring: ScoringConfig{
			DependentWeight: 1.0,
			KnowledgeWeights: KnowledgeWeights{
				Complexity:      0.35,
				Maintainability: 0.20,
				Size:            0.15,
				Declarations:    0.15,
				Importance:      0.15,
			},
			Caps: ScoringCaps{
				Cyclomatic:   50,
				Cognitive:    200,
				Lines:        2000,
				Declarations: 30,
			},
		},
		Analysis: AnalysisConfig{
			Workers:       0,
			LanguagePacks: []string{".overdoc/languages"},
			TopN:          10,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    ".overdoc/overdoc.db",
		},
	}
}

// LoadConfig loads overdoc.{yaml,yml,json,toml} from repoRoot, or configPath
// when given. A missing file in the repository root yields the defaults;
// a missing explicit file is an error. Environment variables prefixed with
// OVERDOC_ override file values.
func LoadConfig(repoRoot, configPath string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v, DefaultConfig()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, filepath.Ext(DefaultFileName)))
		v.AddConfigPath(repoRoot)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// setDefaults registers every default key with viper so a value in the
// config file replaces the default for exactly that key.
func setDefaults(v *viper.Viper, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	for key, value := range tree {
		v.SetDefault(key, value)
	}
	return nil
}

// Clone returns a deep copy, so loading language packs into it leaves c
// untouched.
func (c *Config) Clone() *Config {
	out := *c
	out.IgnorePatterns = slices.Clone(c.IgnorePatterns)
	out.IgnoreDirectories = slices.Clone(c.IgnoreDirectories)
	out.Analysis.LanguagePacks = slices.Clone(c.Analysis.LanguagePacks)
	if c.Languages != nil {
		out.Languages = make(map[string]LanguageConfig, len(c.Languages))
		for name, lang := range c.Languages {
			out.Languages[name] = lang.clone()
		}
	}
	return &out
}

func (l LanguageConfig) clone() LanguageConfig {
	l.Extensions = slices.Clone(l.Extensions)
	l.IgnoreFiles = slices.Clone(l.IgnoreFiles)
	l.IgnoreDirectories = slices.Clone(l.IgnoreDirectories)
	l.ExportPatterns = slices.Clone(l.ExportPatterns)
	l.ImportPatterns = slices.Clone(l.ImportPatterns)
	l.DeclarationPatterns = slices.Clone(l.DeclarationPatterns)
	l.LineComments = slices.Clone(l.LineComments)
	l.BlockComment = slices.Clone(l.BlockComment)
	l.BranchKeywords = slices.Clone(l.BranchKeywords)
	l.LogicalOperators = slices.Clone(l.LogicalOperators)
	return l
}

// normalize lowercases extensions and strips their leading dot.
func (c *Config) normalize() {
	for name, lang := range c.Languages {
		exts := make([]string, 0, len(lang.Extensions))
		for _, ext := range lang.Extensions {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				exts = append(exts, ext)
			}
		}
		lang.Extensions = exts
		c.Languages[name] = lang
	}
}

// WriteDefault writes the default configuration as YAML to path.
// An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DefaultSettings.MaxFileSizeKB < 0 {
		return &ConfigError{Field: "default_settings.max_file_size_kb", Message: "must not be negative"}
	}
	if c.Scoring.DependentWeight < 0 {
		return &ConfigError{Field: "scoring.dependent_weight", Message: "must not be negative"}
	}
	w := c.Scoring.KnowledgeWeights
	for field, val := range map[string]float64{
		"complexity":      w.Complexity,
		"maintainability": w.Maintainability,
		"size":            w.Size,
		"declarations":    w.Declarations,
		"importance":      w.Importance,
	} {
		if val < 0 {
			return &ConfigError{Field: "scoring.knowledge_weights." + field, Message: "must not be negative"}
		}
	}
	if w.Sum() <= 0 {
		return &ConfigError{Field: "scoring.knowledge_weights", Message: "at least one weight must be positive"}
	}
	caps := c.Scoring.Caps
	if caps.Cyclomatic <= 0 || caps.Cognitive <= 0 || caps.Lines <= 0 || caps.Declarations <= 0 {
		return &ConfigError{Field: "scoring.caps", Message: "caps must be positive"}
	}
	if c.Analysis.Workers < 0 {
		return &ConfigError{Field: "analysis.workers", Message: "must not be negative"}
	}
	for name, lang := range c.Languages {
		if len(lang.Extensions) == 0 {
			return &ConfigError{Field: "languages." + name + ".extensions", Message: "language needs at least one extension"}
		}
		switch lang.Nesting {
		case "", NestingBrace, NestingIndent:
		default:
			return &ConfigError{Field: "languages." + name + ".nesting", Message: "must be brace or indent"}
		}
		if len(lang.BlockComment) != 0 && len(lang.BlockComment) != 2 {
			return &ConfigError{Field: "languages." + name + ".block_comment", Message: "needs exactly a start and an end delimiter"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
