package jira

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/joescharf/shiplog/internal/models"
)

const (
	// DefaultMaxResults caps a single search page.
	DefaultMaxResults = 50
	// DefaultSnapshotKeep is how many snapshots survive a prune.
	DefaultSnapshotKeep = 20
)

// FallbackMode selects what Board returns when the live fetch fails.
type FallbackMode string

const (
	FallbackBuiltin  FallbackMode = "builtin"
	FallbackSnapshot FallbackMode = "snapshot"
	FallbackNone     FallbackMode = "none"
)

// ParseFallbackMode validates a configured mode. Empty means builtin.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch FallbackMode(s) {
	case "", FallbackBuiltin:
		return FallbackBuiltin, nil
	case FallbackSnapshot, FallbackNone:
		return FallbackMode(s), nil
	}
	return "", fmt.Errorf("unknown fallback mode %q (want builtin, snapshot or none)", s)
}

// Source tells where a board came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceBuiltin  Source = "builtin"
	SourceSnapshot Source = "snapshot"
)

var (
	// ErrNoCredentials is returned when tracker credentials are missing.
	ErrNoCredentials = errors.New("jira credentials not configured")
	// ErrNoProjects is returned when the credentials see no project.
	ErrNoProjects = errors.New("no projects visible")
	// ErrIssueNotFound is returned by Issue for an unknown key.
	ErrIssueNotFound = errors.New("issue not found")
)

// Upstream is the tracker API used by Service. *Client implements it.
type Upstream interface {
	Projects(ctx context.Context) ([]Project, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SnapshotStore persists the last good board.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, projectKey string, issues []models.Issue) (*models.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	PruneSnapshots(ctx context.Context, keep int) (int64, error)
}

// ServiceConfig controls Service behaviour.
type ServiceConfig struct {
	// UseBuiltin serves the built-in dataset without calling upstream.
	UseBuiltin   bool
	Fallback     FallbackMode
	MaxResults   int
	SnapshotKeep int
}

// Result is a transformed board and its provenance.
type Result struct {
	Issues     []models.Issue `json:"issues"`
	Source     Source         `json:"source"`
	ProjectKey string         `json:"project"`
	FetchedAt  time.Time      `json:"fetched_at"`
}

// Service fetches and transforms the board. A nil upstream means the
// tracker is not configured.
type Service struct {
	upstream  Upstream
	snapshots SnapshotStore
	cfg       ServiceConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a Service. snapshots may be nil.
func NewService(upstream Upstream, snapshots SnapshotStore, cfg ServiceConfig, log zerolog.Logger) *Service {
	if cfg.Fallback == "" {
		cfg.Fallback = FallbackBuiltin
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.SnapshotKeep <= 0 {
		cfg.SnapshotKeep = DefaultSnapshotKeep
	}
	return &Service{
		upstream:  upstream,
		snapshots: snapshots,
		cfg:       cfg,
		log:       log.With().Str("component", "jira").Logger(),
		now:       time.Now,
	}
}

// Board returns the transformed issues of the first visible project, or a
// fallback according to the configured mode.
func (s *Service) Board(ctx context.Context) (*Result, error) {
	if s.cfg.UseBuiltin {
		return s.builtin(), nil
	}

	res, err := s.fetchLive(ctx)
	if err == nil {
		s.saveSnapshot(ctx, res)
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	switch s.cfg.Fallback {
	case FallbackNone:
		s.log.Warn().Err(err).Msg("jira fetch failed, no fallback configured")
		if errors.Is(err, ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	case FallbackSnapshot:
		if snap := s.latestSnapshot(ctx); snap != nil {
			s.log.Warn().Err(err).Str("snapshot", snap.ID).Msg("jira fetch failed, serving stored snapshot")
			return &Result{
				Issues:     snap.Issues,
				Source:     SourceSnapshot,
				ProjectKey: snap.ProjectKey,
				FetchedAt:  snap.CreatedAt,
			}, nil
		}
	}

	s.log.Warn().Err(err).Msg("jira fetch failed, serving built-in issues")
	return s.builtin(), nil
}

func (s *Service) fetchLive(ctx context.Context) (*Result, error) {
	if s.upstream == nil {
		return nil, ErrNoCredentials
	}

	projects, err := s.upstream.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, ErrNoProjects
	}
	key := projects[0].Key

	resp, err := s.upstream.Search(ctx, SearchRequest{
		JQL:        "project = " + key,
		Fields:     SearchFields,
		MaxResults: s.cfg.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", key, err)
	}

	issues := Transform(resp.Issues)
	s.log.Debug().Str("project", key).Int("fetched", len(resp.Issues)).Int("kept", len(issues)).Msg("jira board fetched")
	return &Result{
		Issues:     issues,
		Source:     SourceLive,
		ProjectKey: key,
		FetchedAt:  s.now(),
	}, nil
}

func (s *Service) builtin() *Result {
	return &Result{
		Issues:    BuiltinIssues(),
		Source:    SourceBuiltin,
		FetchedAt: s.now(),
	}
}

func (s *Service) saveSnapshot(ctx context.Context, res *Result) {
	if s.snapshots == nil {
		return
	}
	if _, err := s.snapshots.SaveSnapshot(ctx, res.ProjectKey, res.Issues); err != nil {
		s.log.Warn().Err(err).Msg("save board snapshot")
		return
	}
	if _, err := s.snapshots.PruneSnapshots(ctx, s.cfg.SnapshotKeep); err != nil {
		s.log.Warn().Err(err).Msg("prune board snapshots")
	}
}

func (s *Service) latestSnapshot(ctx context.Context) *models.Snapshot {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.LatestSnapshot(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("load board snapshot")
		return nil
	}
	return snap
}

// Issue returns a single issue of the current board by key.
func (s *Service) Issue(ctx context.Context, key string) (*models.Issue, error) {
	res, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	for i := range res.Issues {
		if res.Issues[i].Key == key {
			return &res.Issues[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, key)
}
