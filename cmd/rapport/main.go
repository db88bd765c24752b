// Command rapport turns a raw mailbox export into per-contact relationship
// summaries: who you talk to, what they want, what you owe them.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hurttlocker/rapport/internal/config"
	"github.com/hurttlocker/rapport/internal/embed"
	"github.com/hurttlocker/rapport/internal/relate"
	"github.com/hurttlocker/rapport/internal/sentiment"
	"github.com/hurttlocker/rapport/internal/store"
)

var version = "dev"

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
})

var rootCmd = &cobra.Command{
	Use:           "rapport",
	Short:         "Relationship summaries from your mailbox",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default ~/.rapport/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path (default ~/.rapport/rapport.db)")
	rootCmd.PersistentFlags().String("embed", "", "embedding spec, e.g. ollama/nomic-embed-text")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(summariesCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfig layers file, env, and the persistent flags.
func resolveConfig(cmd *cobra.Command) (config.ResolvedConfig, error) {
	configPath, _ := cmd.Flags().GetString("config")
	dbPath, _ := cmd.Flags().GetString("db")
	embedSpec, _ := cmd.Flags().GetString("embed")

	return config.ResolveConfig(config.ResolveOptions{
		ConfigPath: configPath,
		CLIDBPath:  dbPath,
		CLIEmbed:   embedSpec,
	})
}

func openStore(cfg config.ResolvedConfig) (*store.Store, error) {
	path := cfg.DBPath.Value
	if path == "" {
		path = store.DefaultDBPath
	}
	return store.Open(store.ExpandPath(path))
}

// buildPipeline assembles the relationship pipeline. Without an embedding
// spec the sentiment scorer is skipped and trends come out flat.
func buildPipeline(cfg config.ResolvedConfig) (*relate.Pipeline, error) {
	var scorer relate.WarmthScorer

	if spec := cfg.EmbedProvider.Value; spec != "" {
		embedCfg, err := embed.ParseSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid embed spec %q: %w", spec, err)
		}
		if cfg.EmbedEndpoint.Value != "" {
			embedCfg.Endpoint = cfg.EmbedEndpoint.Value
		}
		if cfg.EmbedAPIKey.Value != "" {
			embedCfg.APIKey = cfg.EmbedAPIKey.Value
		}
		client, err := embed.NewClient(embedCfg)
		if err != nil {
			return nil, fmt.Errorf("building embedding client: %w", err)
		}

		var opts []sentiment.Option
		if cfg.PositiveAnchor.Value != "" && cfg.NegativeAnchor.Value != "" {
			opts = append(opts, sentiment.WithAnchors(cfg.PositiveAnchor.Value, cfg.NegativeAnchor.Value))
		}
		scorer = sentiment.NewScorer(client, opts...)
	} else {
		logger.Debug("no embedding provider configured, sentiment scoring disabled")
	}

	return relate.NewPipeline(scorer,
		relate.WithCollapseWindow(time.Duration(cfg.CollapseWindowMinutes)*time.Minute),
		relate.WithLogger(logger),
	), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
