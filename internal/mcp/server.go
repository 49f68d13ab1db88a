package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/shiplog/internal/board"
	"github.com/joescharf/shiplog/internal/jira"
	"github.com/joescharf/shiplog/internal/models"
)

// BoardService returns the current board.
type BoardService interface {
	Board(ctx context.Context) (*jira.Result, error)
}

// Server exposes the board as MCP tools.
type Server struct {
	boards     BoardService
	cutoffYear int
	version    string
}

// NewServer creates the MCP server wrapper.
func NewServer(boards BoardService, cutoffYear int, version string) *Server {
	if cutoffYear == 0 {
		cutoffYear = board.DefaultCutoffYear
	}
	if version == "" {
		version = "dev"
	}
	return &Server{boards: boards, cutoffYear: cutoffYear, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("shiplog", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.listIssuesTool())
	srv.AddTool(s.departmentsTool())
	srv.AddTool(s.getIssueTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

type subtaskOut struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
}

type commentOut struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

type issueOut struct {
	Key           string       `json:"key"`
	Summary       string       `json:"summary"`
	Status        string       `json:"status"`
	Department    string       `json:"department"`
	Created       string       `json:"created"`
	Sprint        string       `json:"sprint,omitempty"`
	ShowInBacklog bool         `json:"show_in_backlog"`
	Description   string       `json:"description,omitempty"`
	Subtasks      []subtaskOut `json:"subtasks,omitempty"`
	Comments      []commentOut `json:"comments,omitempty"`
}

func toIssueOut(i models.Issue, detail bool) issueOut {
	out := issueOut{
		Key:           i.Key,
		Summary:       i.Summary,
		Status:        string(i.Status),
		Department:    i.Department,
		Created:       i.Created.Format("2006-01-02"),
		ShowInBacklog: i.ShowInBacklog,
	}
	if i.Sprint != nil {
		out.Sprint = i.Sprint.Name
	}
	if !detail {
		return out
	}
	out.Description = i.Description.String()
	for _, st := range i.Subtasks {
		out.Subtasks = append(out.Subtasks, subtaskOut{ID: st.ID, Summary: st.Summary, Status: string(st.Status)})
	}
	for _, c := range i.Comments {
		out.Comments = append(out.Comments, commentOut{Author: c.Author, Body: c.Body.String()})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// shiplog_list_issues
func (s *Server) listIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("shiplog_list_issues",
		mcp.WithDescription("List board issues after the department, view and cutoff-year filters. Returns JSON with source, project, count and issues."),
		mcp.WithString("department", mcp.Description("Department name, or All (default)")),
		mcp.WithString("view", mcp.Description("sprint (default) or backlog"), mcp.Enum("sprint", "backlog")),
	)
	return tool, s.handleListIssues
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := board.ParseView(request.GetString("view", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dept := request.GetString("department", board.AllDepartments)

	res, err := s.boards.Board(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load board: %v", err)), nil
	}

	filtered := board.Filter(res.Issues, board.Options{Department: dept, View: view, CutoffYear: s.cutoffYear})
	issues := make([]issueOut, len(filtered))
	for i, issue := range filtered {
		issues[i] = toIssueOut(issue, false)
	}

	return jsonResult(map[string]any{
		"source":     res.Source,
		"project":    res.ProjectKey,
		"department": dept,
		"view":       view,
		"count":      len(issues),
		"issues":     issues,
	})
}

// shiplog_departments
func (s *Server) departmentsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("shiplog_departments",
		mcp.WithDescription("List the department filter options: All, then departments alphabetically, Unassigned last."),
	)
	return tool, s.handleDepartments
}

func (s *Server) handleDepartments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.boards.Board(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load board: %v", err)), nil
	}
	return jsonResult(board.Departments(res.Issues))
}

// shiplog_get_issue
func (s *Server) getIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("shiplog_get_issue",
		mcp.WithDescription("Get one board issue by key, with description, subtasks and comments as plain text."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Issue key, e.g. PROJ-1")),
	)
	return tool, s.handleGetIssue
}

func (s *Server) handleGetIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil || key == "" {
		return mcp.NewToolResultError("missing required parameter: key"), nil
	}

	res, err := s.boards.Board(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load board: %v", err)), nil
	}
	issue, err := findIssue(res.Issues, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(toIssueOut(*issue, true))
}

func findIssue(issues []models.Issue, key string) (*models.Issue, error) {
	for i := range issues {
		if issues[i].Key == key {
			return &issues[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", jira.ErrIssueNotFound, key)
}

