package main

import (
	"io"
	"slices"

	"github.com/spf13/cobra"

	"overdoc/internal/errors"
	"overdoc/internal/lang"
	"overdoc/internal/report"
)

// LanguageCLI is one configured language.
type LanguageCLI struct {
	Name         string   `json:"name" yaml:"name" toml:"name"`
	Extensions   []string `json:"extensions" yaml:"extensions" toml:"extensions"`
	Exports      int      `json:"exportPatterns" yaml:"export_patterns" toml:"export_patterns"`
	Imports      int      `json:"importPatterns" yaml:"import_patterns" toml:"import_patterns"`
	Declarations int      `json:"declarationPatterns" yaml:"declaration_patterns" toml:"declaration_patterns"`
	Nesting      string   `json:"nesting,omitempty" yaml:"nesting,omitempty" toml:"nesting,omitempty"`
	Pack         bool     `json:"pack" yaml:"pack" toml:"pack"`
}

// LanguagesResponseCLI lists the languages known for a repository.
type LanguagesResponseCLI struct {
	Languages []LanguageCLI `json:"languages" yaml:"languages" toml:"languages"`
}

func newLanguagesCmd(flags *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "languages [path]",
		Short: "List configured languages and their extensions",
		Long: `Languages prints every language the analysis would recognize: the
built-in defaults, overdoc.yaml entries and TOML language packs.
Every pattern is compiled, so this also validates the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := flags.open(cmd, rootArg(args, 0))
			if err != nil {
				return err
			}
			defer s.close()

			packs, err := s.cfg.LoadLanguagePacks(s.root)
			if err != nil {
				return errors.New(errors.ConfigInvalid, "loading language packs", err)
			}
			if err := s.cfg.Validate(); err != nil {
				return errors.New(errors.ConfigInvalid, err.Error(), err)
			}
			registry, err := lang.NewRegistry(s.cfg.Languages, s.logger)
			if err != nil {
				return err
			}

			resp := &LanguagesResponseCLI{Languages: []LanguageCLI{}}
			for _, l := range registry.Languages() {
				resp.Languages = append(resp.Languages, LanguageCLI{
					Name:         l.Name,
					Extensions:   l.Extensions,
					Exports:      len(l.Exports),
					Imports:      len(l.Imports),
					Declarations: len(l.Declarations),
					Nesting:      l.Nesting,
					Pack:         slices.Contains(packs, l.Name),
				})
			}
			return report.Encode(cmd.OutOrStdout(), resp, f, func(w io.Writer) error {
				return writeLanguagesHuman(w, resp, report.NewStyles(w))
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "human", "Output format (human, json, yaml, toml)")
	return cmd
}
