// Package mcp provides a Model Context Protocol server for Rapport.
//
// It exposes the relationship pipeline as MCP tools: import a mailbox
// export, analyze an account, and list stored summaries. Stdio transport
// only; agents drive it the same way the CLI does.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/rapport/internal/engine"
	"github.com/hurttlocker/rapport/internal/ingest"
	"github.com/hurttlocker/rapport/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store   *store.Store
	Engine  *engine.Engine
	Version string
}

// dbMu serializes MCP tool calls that touch the database. The mcp-go
// library dispatches handlers concurrently, and sqlite supports only one
// writer at a time, so imports must complete before an analyze sees them.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Rapport tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Rapport",
		ver,
		server.WithToolCapabilities(false),
	)

	registerImportTool(s, cfg.Store)
	registerAnalyzeTool(s, cfg.Engine)
	registerSummariesTool(s, cfg.Store)

	return s
}

func registerImportTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("rapport_import",
		mcp.WithDescription("Import a mailbox export file (CSV, TSV, or JSON array) into an account's message store."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the mailbox export file"),
		),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Account id to store the messages under"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError("path is required"), nil
		}
		account, err := req.RequireString("account")
		if err != nil {
			return mcp.NewToolResultError("account is required"), nil
		}

		msgs, skipped, err := ingest.ReadFile(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("import error: %v", err)), nil
		}
		if err := st.AddMessages(ctx, account, msgs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("store error: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Imported %d messages into account %q (%d rows skipped as malformed).",
			len(msgs), account, skipped)), nil
	})
}

func registerAnalyzeTool(s *server.MCPServer, eng *engine.Engine) {
	tool := mcp.NewTool("rapport_analyze",
		mcp.WithDescription("Analyze an account's messages and produce one relationship summary per top contact. Returns the run result."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("account",
			mcp.Required(),
			mcp.Description("Account id to analyze"),
		),
		mcp.WithString("owner",
			mcp.Description("Mailbox owner address. Inferred from traffic when omitted."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		account, err := req.RequireString("account")
		if err != nil {
			return mcp.NewToolResultError("account is required"), nil
		}
		owner := ""
		if o, err := req.RequireString("owner"); err == nil {
			owner = o
		}

		res, err := eng.AnalyzeAccount(ctx, account, owner)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analyze error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(res, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerSummariesTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("rapport_summaries",
		mcp.WithDescription("List stored relationship summaries, newest first. Optionally scope by account."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("account",
			mcp.Description("Account id to filter by. Empty = all accounts."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of summaries (default: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		account := ""
		if a, err := req.RequireString("account"); err == nil {
			account = a
		}
		limit := 0
		if v, err := req.RequireFloat("limit"); err == nil && v > 0 {
			limit = int(v)
		}

		summaries, err := st.ListSummaries(ctx, account, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(summaries, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
