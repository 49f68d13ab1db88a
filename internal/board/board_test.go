package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/shiplog/internal/models"
)

func issue(key, dept string, status models.IssueStatus, year int, sprint *models.Sprint) models.Issue {
	i := models.Issue{
		Key:        key,
		Department: dept,
		Status:     status,
		Created:    time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	i.Classify(sprint)
	return i
}

var active = &models.Sprint{ID: 1, Name: "S1", State: models.SprintStateActive}

func keys(issues []models.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Key)
	}
	return out
}

func fixture() []models.Issue {
	return []models.Issue{
		issue("A-1", "Engineering", models.IssueStatusToDo, 2025, active),
		issue("A-2", "Marketing", models.IssueStatusInProgress, 2025, active),
		issue("A-3", "Engineering", models.IssueStatusDone, 2025, nil),
		issue("A-4", "Engineering", models.IssueStatusToDo, 2025, nil),
		issue("A-5", "Engineering", models.IssueStatusToDo, 2024, active),
		issue("A-6", models.DepartmentUnassigned, models.IssueStatusInProgress, 2026, nil),
	}
}

func TestFilter_SprintView(t *testing.T) {
	got := Filter(fixture(), Options{View: ViewSprint})
	assert.Equal(t, []string{"A-1", "A-2"}, keys(got))
}

func TestFilter_BacklogView(t *testing.T) {
	got := Filter(fixture(), Options{View: ViewBacklog})
	assert.Equal(t, []string{"A-4", "A-6"}, keys(got), "done backlog items are hidden")
}

func TestFilter_Department(t *testing.T) {
	got := Filter(fixture(), Options{Department: "Engineering", View: ViewSprint})
	assert.Equal(t, []string{"A-1"}, keys(got))

	got = Filter(fixture(), Options{Department: AllDepartments, View: ViewBacklog})
	assert.Equal(t, []string{"A-4", "A-6"}, keys(got))

	got = Filter(fixture(), Options{Department: "Finance"})
	assert.Empty(t, got)
}

func TestFilter_CutoffYear(t *testing.T) {
	got := Filter(fixture(), Options{View: ViewSprint, CutoffYear: 2024})
	assert.Equal(t, []string{"A-1", "A-2", "A-5"}, keys(got))

	got = Filter(fixture(), Options{View: ViewBacklog, CutoffYear: 2026})
	assert.Equal(t, []string{"A-6"}, keys(got))
}

func TestFilter_InactiveSprintNotInSprintView(t *testing.T) {
	closed := &models.Sprint{ID: 2, State: "closed"}
	i := issue("B-1", "Engineering", models.IssueStatusToDo, 2025, nil)
	i.Sprint = closed
	assert.Empty(t, Filter([]models.Issue{i}, Options{View: ViewSprint}))
}

func TestFilter_DoesNotReapplySensitiveExclusion(t *testing.T) {
	i := issue("S-1", "Internal", models.IssueStatusToDo, 2025, active)
	assert.Len(t, Filter([]models.Issue{i}, Options{}), 1)
}

func TestDepartments(t *testing.T) {
	got := Departments(fixture())
	assert.Equal(t, []string{"All", "Engineering", "Marketing", "Unassigned"}, got)

	assert.Equal(t, []string{"All"}, Departments(nil))

	zeta := []models.Issue{
		issue("Z-1", models.DepartmentUnassigned, models.IssueStatusToDo, 2025, nil),
		issue("Z-2", "Zeta", models.IssueStatusToDo, 2025, nil),
		issue("Z-3", "Alpha", models.IssueStatusToDo, 2025, nil),
	}
	assert.Equal(t, []string{"All", "Alpha", "Zeta", "Unassigned"}, Departments(zeta))
}

func TestColumns(t *testing.T) {
	issues := Filter(fixture(), Options{View: ViewSprint, CutoffYear: 2024})
	cols := Columns(issues)
	require.Len(t, cols, 3)

	assert.Equal(t, models.IssueStatusToDo, cols[0].Status)
	assert.Equal(t, []string{"A-1", "A-5"}, keys(cols[0].Issues))
	assert.Equal(t, []string{"A-2"}, keys(cols[1].Issues))
	assert.Empty(t, cols[2].Issues)
}

func TestColumns_DropsUnknownStatus(t *testing.T) {
	cols := Columns([]models.Issue{issue("X-1", "Eng", "Blocked", 2025, active)})
	for _, c := range cols {
		assert.Empty(t, c.Issues)
	}
}

func TestParseView(t *testing.T) {
	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewSprint, v)

	v, err = ParseView("backlog")
	require.NoError(t, err)
	assert.Equal(t, ViewBacklog, v)

	_, err = ParseView("kanban")
	assert.Error(t, err)
}
