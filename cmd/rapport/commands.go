package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/rapport/internal/engine"
	"github.com/hurttlocker/rapport/internal/ingest"
	"github.com/hurttlocker/rapport/internal/mcp"
	"github.com/hurttlocker/rapport/internal/report"
)

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a mailbox export (CSV, TSV, or JSON) into an account",
	Long: `Import a mailbox export into an account's message store.

Examples:
  rapport import inbox.csv --account personal
  rapport import export.json --account work`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		if account == "" {
			return fmt.Errorf("--account is required")
		}

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		msgs, skipped, err := ingest.ReadFile(args[0])
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("no usable messages in %s", args[0])
		}
		if err := st.AddMessages(cmd.Context(), account, msgs); err != nil {
			return err
		}

		logger.Info("import complete", "account", account, "messages", len(msgs), "skipped", skipped)
		return nil
	},
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize an account's top contacts",
	Long: `Analyze an account's stored messages and produce one relationship
summary per top contact.

Examples:
  rapport analyze --account personal
  rapport analyze --account work --owner me@company.com --top 10 --csv out.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		if account == "" {
			return fmt.Errorf("--account is required")
		}
		owner, _ := cmd.Flags().GetString("owner")
		top, _ := cmd.Flags().GetInt("top")
		csvPath, _ := cmd.Flags().GetString("csv")
		jsonPath, _ := cmd.Flags().GetString("json")

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		pipe, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		if top <= 0 {
			top = cfg.TopContacts
		}

		eng := engine.New(st, pipe,
			engine.WithTopContacts(top),
			engine.WithLogger(logger),
		)

		res, err := eng.AnalyzeAccount(cmd.Context(), account, owner)
		if err != nil {
			return err
		}

		// Newest first, so limiting to what this run saved returns
		// exactly this run's summaries.
		summaries, err := st.ListSummaries(cmd.Context(), account, res.Saved)
		if err != nil {
			return err
		}
		if res.Saved == 0 {
			summaries = nil
		}
		if csvPath != "" {
			if err := report.WriteCSV(csvPath, summaries); err != nil {
				return err
			}
			logger.Info("wrote report", "path", csvPath)
		}
		if jsonPath != "" {
			if err := report.WriteJSON(jsonPath, summaries); err != nil {
				return err
			}
			logger.Info("wrote report", "path", jsonPath)
		}

		fmt.Printf("Run %s: owner %s, %d contacts, %d summaries saved",
			res.RunID, res.OwnerEmail, len(res.Contacts), res.Saved)
		if res.Failed > 0 {
			fmt.Printf(" (%d failed)", res.Failed)
		}
		fmt.Println()
		return nil
	},
}

// --- summaries ---

var summariesCmd = &cobra.Command{
	Use:   "summaries",
	Short: "List stored relationship summaries as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		summaries, err := st.ListSummaries(cmd.Context(), account, limit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Run Rapport as a Model Context Protocol server over stdio,
exposing rapport_import, rapport_analyze, and rapport_summaries as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		pipe, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		eng := engine.New(st, pipe,
			engine.WithTopContacts(cfg.TopContacts),
			engine.WithLogger(logger),
		)

		srv := mcp.NewServer(mcp.ServerConfig{
			Store:   st,
			Engine:  eng,
			Version: version,
		})
		return mcp.ServeStdio(srv)
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rapport %s\n", strings.TrimSpace(version))
	},
}

func init() {
	importCmd.Flags().String("account", "", "account id to store messages under")

	analyzeCmd.Flags().String("account", "", "account id to analyze")
	analyzeCmd.Flags().String("owner", "", "mailbox owner address (inferred when empty)")
	analyzeCmd.Flags().Int("top", 0, "number of top contacts to summarize")
	analyzeCmd.Flags().String("csv", "", "write a CSV report to this path")
	analyzeCmd.Flags().String("json", "", "write a JSON report to this path")

	summariesCmd.Flags().String("account", "", "account id to filter by (empty = all)")
	summariesCmd.Flags().Int("limit", 0, "maximum summaries to list")
}
