// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido lifecycle tools for LLM integration via stdio
// transport. An external model scores notes through set_quality_score;
// Raido itself never computes scores.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/lifecycle"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	coord *lifecycle.Coordinator
}

// New creates a new MCP server with all Raido tools registered.
func New(store storage.Provider, coord *lifecycle.Coordinator) *Server {
	s := &Server{store: store, coord: coord}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("scan_candidates",
		mcp.WithDescription("Scan the vault for promotion candidates with their quality decisions and recommended actions."),
		mcp.WithString("dir", mcp.Description("Optional vault subdirectory to scan (empty for the whole vault)")),
	), s.scanCandidates)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. inbox/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("set_quality_score",
		mcp.WithDescription("Record a quality score for a note after assessing it. The score must be "+
			"between 0.0 and 1.0. This also marks the note as processed. Read the lifecycle "+
			"contract first via the get_lifecycle_contract tool or the raido://lifecycle resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithNumber("score", mcp.Required(), mcp.Description("Quality score in [0.0, 1.0]")),
	), s.setQualityScore)

	s.mcp.AddTool(mcp.NewTool("promote_note",
		mcp.WithDescription("Promote a single note through the quality gate to its type's destination "+
			"directory. Without execute this is a preview that touches nothing."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithBoolean("execute", mcp.Description("Actually move the note (default: preview only)")),
	), s.promoteNote)

	s.mcp.AddTool(mcp.NewTool("repair_orphans",
		mcp.WithDescription("Find notes whose processing flag and status disagree and route them "+
			"through the normal promotion path. Without execute this is a preview that touches nothing."),
		mcp.WithBoolean("execute", mcp.Description("Actually move the notes (default: preview only)")),
	), s.repairOrphans)

	s.mcp.AddTool(mcp.NewTool("get_lifecycle_contract",
		mcp.WithDescription("Returns the note lifecycle contract: statuses, frontmatter fields, and "+
			"the promotion rules. Call this before scoring or promoting notes."),
	), s.getLifecycleContract)

	// Resource: lifecycle contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://lifecycle", "Note Lifecycle Contract",
			mcp.WithResourceDescription("Statuses, frontmatter fields, and promotion rules for vault notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLifecycleResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) scanCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("dir", "")
	seq, err := s.coord.ScanCandidates(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	candidates := []models.Candidate{}
	for c := range seq {
		candidates = append(candidates, c)
	}
	out, _ := json.MarshalIndent(candidates, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) setQualityScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	score, err := req.RequireFloat("score")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if score < 0 || score > 1 {
		return mcp.NewToolResultError(fmt.Sprintf("score %.2f out of range [0.0, 1.0]", score)), nil
	}

	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	doc := frontmatter.Parse(data)
	doc.Set(frontmatter.FieldQualityScore, score)
	doc.Set(frontmatter.FieldAIProcessed, true)
	if err := s.store.Write(path, doc.Bytes()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("scored %s: %.2f", path, score)), nil
}

func (s *Server) promoteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	execute := req.GetBool("execute", false)

	res, err := s.coord.PromoteNote(path, lifecycle.UseConfiguredThreshold, !execute)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) repairOrphans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	execute := req.GetBool("execute", false)
	report, err := s.coord.RepairOrphanedNotes(ctx, !execute)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLifecycleContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LifecycleContract), nil
}

func (s *Server) readLifecycleResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://lifecycle",
			MIMEType: "text/markdown",
			Text:     LifecycleContract,
		},
	}, nil
}
