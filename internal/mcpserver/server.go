// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the note filer tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/noteservice"
)

const formatResourceURI = "notefiler://note-format"

// Server wraps the MCP server with the note filer tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"NoteFiler",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("store_note",
		mcp.WithDescription("Classify a note and file it under 一级分类/二级分类 in the notes root. "+
			"Pass the raw model answer as llm_response, or set primary_category, "+
			"secondary_category and note_type to override it. "+
			"Call get_classification_prompt to get the prompt the answer must follow."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The raw note text")),
		mcp.WithString("llm_response", mcp.Description("Raw model answer containing the classification JSON")),
		mcp.WithString("primary_category", mcp.Description("Override: primary category")),
		mcp.WithString("secondary_category", mcp.Description("Override: secondary category")),
		mcp.WithString("note_type", mcp.Description("Override: display name used as the file name")),
	), s.storeNote)

	s.mcp.AddTool(mcp.NewTool("capture_note",
		mcp.WithDescription("Classify a note with the server's configured model and file it."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The raw note text")),
	), s.captureNote)

	s.mcp.AddTool(mcp.NewTool("get_classification_prompt",
		mcp.WithDescription("Returns the prompt a model must answer to classify a note for store_note."),
	), s.getPrompt)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns the classification JSON contract and the stored note layout."),
	), s.getNoteFormat)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List stored notes, newest first."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through stored notes content, titles and categories."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a stored note file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the storage root (e.g. AI笔记/学习笔记类/Git/Git基础.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("audit_indexes",
		mcp.WithDescription("Check every category index against the files on disk, optionally repairing orphans and counts."),
		mcp.WithBoolean("repair", mcp.Description("Repair what can be repaired")),
	), s.auditIndexes)

	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "Note Format Contract",
			mcp.WithResourceDescription("Classification JSON contract and stored note layout."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) storeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var override *models.Classification
	primary := req.GetString("primary_category", "")
	secondary := req.GetString("secondary_category", "")
	noteType := req.GetString("note_type", "")
	if primary != "" || secondary != "" || noteType != "" {
		override = &models.Classification{
			PrimaryCategory:   primary,
			SecondaryCategory: secondary,
			DisplayName:       noteType,
		}
	}
	res, err := s.svc.StoreNote(ctx, input, req.GetString("llm_response", ""), override)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) captureNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Capture(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getPrompt(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.svc.Prompt()), nil
}

func (s *Server) getNoteFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListNotes(ctx, req.GetInt("limit", 0), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("no notes stored"), nil
	}
	lines := make([]string, 0, len(items))
	for _, n := range items {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", n.ID, n.Category, n.StoragePath))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) auditIndexes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, fixed, err := s.svc.Audit(ctx, req.GetBool("repair", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if report.Consistent() {
		return mcp.NewToolResultText(fmt.Sprintf("consistent: %d indexes, %d notes, %d fixed", report.Indexes, report.Notes, fixed)), nil
	}
	lines := make([]string, 0, len(report.Issues)+1)
	lines = append(lines, fmt.Sprintf("%d issues, %d fixed", len(report.Issues), fixed))
	for _, is := range report.Issues {
		lines = append(lines, is.String())
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
