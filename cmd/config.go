package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teemow/clickup-mcp/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML with the API key masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated(configPath)
			if err != nil {
				return err
			}
			return writeConfigYAML(cmd.OutOrStdout(), cfg)
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use and the locations searched",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if found := config.FindFile(configPath); found != "" {
				fmt.Fprintf(out, "Config file: %s\n", found)
			} else {
				fmt.Fprintln(out, "Config file: none found")
			}
			if configPath == "" {
				fmt.Fprintln(out, "Search paths:")
				for _, p := range config.SearchPaths() {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}
			return nil
		},
	}
}

// writeConfigYAML renders cfg with its API key masked.
func writeConfigYAML(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// sortedPatterns returns "prefix (label)" entries ordered by prefix.
func sortedPatterns(patterns map[string]string) []string {
	prefixes := make([]string, 0, len(patterns))
	for p := range patterns {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if label := patterns[p]; label != "" {
			out = append(out, fmt.Sprintf("%s (%s)", p, label))
		} else {
			out = append(out, p)
		}
	}
	return out
}
