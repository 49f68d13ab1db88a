package cmd

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/joescharf/shiplog/internal/config"
	"github.com/joescharf/shiplog/internal/jira"
)

// newBoardService wires the tracker client and the snapshot store according
// to cfg. Without complete credentials the service runs on its fallback.
func newBoardService(cfg *config.Config, log zerolog.Logger) (*jira.Service, error) {
	var upstream jira.Upstream
	if cfg.Jira.Complete() {
		upstream = jira.NewClient(cfg.Jira, &http.Client{Timeout: cfg.HTTPTimeout})
	} else if !cfg.UseDummyData {
		log.Warn().Msg("jira credentials incomplete, serving fallback issues")
	}

	var snapshots jira.SnapshotStore
	if !cfg.UseDummyData {
		s, err := getStore()
		switch {
		case err == nil:
			snapshots = s
		case cfg.Fallback == jira.FallbackSnapshot:
			return nil, err
		default:
			log.Warn().Err(err).Msg("snapshot store unavailable, live boards will not be saved")
		}
	}

	return jira.NewService(upstream, snapshots, jira.ServiceConfig{
		UseBuiltin:   cfg.UseDummyData,
		Fallback:     cfg.Fallback,
		MaxResults:   cfg.MaxResults,
		SnapshotKeep: cfg.SnapshotKeep,
	}, log), nil
}
