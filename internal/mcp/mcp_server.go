// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"os"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Coursekit MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Coursekit Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		// stdout carries the protocol, so logs go to stderr
		log: contract.NewLogger(os.Stderr, baseCfg.LogLevel, false),
	}

	// --- 1. Tool: compute_thresholds ---
	s.AddTool(mcp.NewTool("compute_thresholds",
		mcp.WithDescription("Compute letter-grade cutoffs from a list of grades using percentile thresholds."),
		mcp.WithString("grades", mcp.Description("Grades separated by commas, spaces or newlines."), mcp.Required()),
		mcp.WithString("thresholds", mcp.Description("Comma separated LABEL:FRACTION pairs. Defaults to "+schema.DefaultThresholds+".")),
		mcp.WithNumber("max_grade", mcp.Description("Highest possible grade. Defaults to 20.")),
		mcp.WithBoolean("record", mcp.Description("Store the cutoffs in the run ledger.")),
	), h.handleComputeThresholds)

	// --- 2. Tool: find_non_correspondence ---
	s.AddTool(mcp.NewTool("find_non_correspondence",
		mcp.WithDescription("List the records of two CSV files whose column value never appears in the other file."),
		mcp.WithString("file1", mcp.Description("Path to the first CSV file."), mcp.Required()),
		mcp.WithString("file2", mcp.Description("Path to the second CSV file."), mcp.Required()),
		mcp.WithNumber("column1", mcp.Description("0-based column of the first file. Defaults to 0.")),
		mcp.WithNumber("column2", mcp.Description("0-based column of the second file. Defaults to 0.")),
		mcp.WithString("delimiter", mcp.Description("Field delimiter of both files. Defaults to ';'.")),
		mcp.WithString("encoding", mcp.Description("Character encoding of both files."), mcp.Enum(string(schema.Latin1Encoding), string(schema.UTF8Encoding))),
	), h.handleFindNonCorrespondence)

	return s
}

// StartMCPServer starts the Coursekit MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
