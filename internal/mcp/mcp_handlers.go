package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coursekit/coursekit/core"
	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/sheetio"
	"github.com/coursekit/coursekit/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	log     *contract.Logger
}

func (h *toolHandler) handleComputeThresholds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := *h.baseCfg
	cfg.Command = contract.ThresholdsCommand

	cfg.MaxGrade = request.GetFloat("max_grade", schema.DefaultMaxGrade)
	if cfg.MaxGrade <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("max_grade must be greater than 0 (received %v)", cfg.MaxGrade)), nil
	}

	thresholds, err := contract.ParseThresholds(request.GetString("thresholds", schema.DefaultThresholds))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid thresholds: %v", err)), nil
	}
	cfg.Thresholds = thresholds

	// ParseGrades reads one grade per line
	raw := strings.NewReplacer(",", "\n", " ", "\n", "\t", "\n").Replace(request.GetString("grades", ""))
	grades, err := core.ParseGrades(strings.NewReader(raw), cfg.MaxGrade)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid grades: %v", err)), nil
	}
	if len(grades) == 0 {
		return mcp.NewToolResultError("no grades given"), nil
	}

	report := core.ComputeThresholds(grades, cfg.Thresholds, cfg.MaxGrade)
	if request.GetBool("record", cfg.Record) {
		core.RecordThresholdRun(ctx, h.mgr, "mcp:"+cfg.Command, map[string]any{
			"grades":     len(grades),
			"max_grade":  cfg.MaxGrade,
			"thresholds": len(cfg.Thresholds),
		}, report.Results, h.log)
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleFindNonCorrespondence(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file1 := request.GetString("file1", "")
	file2 := request.GetString("file2", "")
	if file1 == "" || file2 == "" {
		return mcp.NewToolResultError("file1 and file2 are required"), nil
	}
	column1 := request.GetInt("column1", 0)
	column2 := request.GetInt("column2", 0)
	if column1 < 0 || column2 < 0 {
		return mcp.NewToolResultError("columns are 0-based and cannot be negative"), nil
	}

	delimiter, err := contract.ParseDelimiter(request.GetString("delimiter", contract.DefaultDelimiter))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid delimiter: %v", err)), nil
	}
	encoding := schema.FileEncoding(strings.ToLower(request.GetString("encoding", string(schema.Latin1Encoding))))
	if _, ok := schema.ValidEncodings[encoding]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid encoding '%s'. must be utf-8 or latin-1", encoding)), nil
	}
	opts := sheetio.CSVOptions{Delimiter: delimiter, Encoding: encoding}

	first, err := sheetio.ReadColumn(file1, column1, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", file1, err)), nil
	}
	second, err := sheetio.ReadColumn(file2, column2, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", file2, err)), nil
	}
	h.log.Debugf("Compared %d values against %d values", len(first), len(second))

	jsonData, _ := json.MarshalIndent(core.FindNonCorrespondence(first, second), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
