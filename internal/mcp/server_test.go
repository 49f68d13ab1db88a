package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/shiplog/internal/adf"
	"github.com/joescharf/shiplog/internal/jira"
	"github.com/joescharf/shiplog/internal/models"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type stubBoards struct {
	res *jira.Result
	err error
}

func (b stubBoards) Board(context.Context) (*jira.Result, error) {
	return b.res, b.err
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

func liveBoard() *jira.Result {
	active := &models.Sprint{ID: 4, Name: "Sprint 4", State: models.SprintStateActive}
	mk := func(key, dept string, status models.IssueStatus, sprint *models.Sprint) models.Issue {
		i := models.Issue{
			Key:         key,
			Summary:     "Summary " + key,
			Description: adf.Plain("Body of " + key),
			Status:      status,
			Department:  dept,
			Created:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			Subtasks:    []models.Subtask{{ID: "s1", Summary: "Sub", Status: models.IssueStatusDone}},
			Comments:    []models.Comment{{ID: "c1", Body: adf.Plain("Nice"), Author: "Ada"}},
		}
		i.Classify(sprint)
		return i
	}
	return &jira.Result{
		Source:     jira.SourceLive,
		ProjectKey: "SHIP",
		Issues: []models.Issue{
			mk("SHIP-1", "Engineering", models.IssueStatusToDo, active),
			mk("SHIP-2", "Marketing", models.IssueStatusDone, active),
			mk("SHIP-3", models.DepartmentUnassigned, models.IssueStatusToDo, nil),
		},
	}
}

func newTestServer() *Server {
	return NewServer(stubBoards{res: liveBoard()}, 0, "test")
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNewServer(t *testing.T) {
	srv := newTestServer()
	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv, "MCPServer() should return non-nil")
	assert.Equal(t, 2025, srv.cutoffYear)
}

func TestHandleListIssues_SprintDefault(t *testing.T) {
	srv := newTestServer()

	result, err := srv.handleListIssues(context.Background(), callToolReq("shiplog_list_issues", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Source  string     `json:"source"`
		Project string     `json:"project"`
		View    string     `json:"view"`
		Count   int        `json:"count"`
		Issues  []issueOut `json:"issues"`
	}
	resultJSON(t, result, &out)
	assert.Equal(t, "live", out.Source)
	assert.Equal(t, "SHIP", out.Project)
	assert.Equal(t, "sprint", out.View)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "SHIP-1", out.Issues[0].Key)
	assert.Equal(t, "Sprint 4", out.Issues[0].Sprint)
	assert.Empty(t, out.Issues[0].Description, "list output omits detail")
}

func TestHandleListIssues_Filters(t *testing.T) {
	srv := newTestServer()

	result, err := srv.handleListIssues(context.Background(), callToolReq("shiplog_list_issues", map[string]any{
		"view": "backlog",
	}))
	require.NoError(t, err)
	var out struct {
		Issues []issueOut `json:"issues"`
	}
	resultJSON(t, result, &out)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "SHIP-3", out.Issues[0].Key)

	result, err = srv.handleListIssues(context.Background(), callToolReq("shiplog_list_issues", map[string]any{
		"department": "Marketing",
	}))
	require.NoError(t, err)
	resultJSON(t, result, &out)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "SHIP-2", out.Issues[0].Key)
}

func TestHandleListIssues_BadView(t *testing.T) {
	srv := newTestServer()

	result, err := srv.handleListIssues(context.Background(), callToolReq("shiplog_list_issues", map[string]any{"view": "gantt"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown view")
}

func TestHandleListIssues_BoardError(t *testing.T) {
	srv := NewServer(stubBoards{err: errors.New("upstream down")}, 0, "")

	result, err := srv.handleListIssues(context.Background(), callToolReq("shiplog_list_issues", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "upstream down")
}

func TestHandleDepartments(t *testing.T) {
	srv := newTestServer()

	result, err := srv.handleDepartments(context.Background(), callToolReq("shiplog_departments", nil))
	require.NoError(t, err)

	var depts []string
	resultJSON(t, result, &depts)
	assert.Equal(t, []string{"All", "Engineering", "Marketing", "Unassigned"}, depts)
}

func TestHandleGetIssue(t *testing.T) {
	srv := newTestServer()

	result, err := srv.handleGetIssue(context.Background(), callToolReq("shiplog_get_issue", map[string]any{"key": "SHIP-2"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out issueOut
	resultJSON(t, result, &out)
	assert.Equal(t, "Body of SHIP-2", out.Description)
	require.Len(t, out.Subtasks, 1)
	assert.Equal(t, "Done", out.Subtasks[0].Status)
	require.Len(t, out.Comments, 1)
	assert.Equal(t, commentOut{Author: "Ada", Body: "Nice"}, out.Comments[0])
}

func TestHandleGetIssue_Errors(t *testing.T) {
	srv := newTestServer()

	result, err := srv.handleGetIssue(context.Background(), callToolReq("shiplog_get_issue", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "missing required parameter")

	result, err = srv.handleGetIssue(context.Background(), callToolReq("shiplog_get_issue", map[string]any{"key": "NOPE-9"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "NOPE-9")
}

func TestBuiltinBoardThroughService(t *testing.T) {
	svc := jira.NewService(nil, nil, jira.ServiceConfig{UseBuiltin: true}, zerolog.Nop())
	srv := NewServer(svc, 0, "test")

	result, err := srv.handleGetIssue(context.Background(), callToolReq("shiplog_get_issue", map[string]any{"key": "PROJ-1"}))
	require.NoError(t, err)
	var out issueOut
	resultJSON(t, result, &out)
	assert.Equal(t, "Implement login functionality", out.Summary)
	assert.Equal(t, "No description provided", out.Description)
}
