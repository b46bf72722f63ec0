package api

import (
	"net/http"

	"github.com/seenimoa/macrolens/internal/config"
)

// StatusResponse is the JSON body returned by GET /api/v1/status.
type StatusResponse struct {
	Service   string             `json:"service"`
	Tools     []string           `json:"tools"`
	Keys      []config.KeyStatus `json:"keys"`
	Snapshots SnapshotStatus     `json:"snapshots"`
	WSClients int                `json:"ws_clients"`
}

// SnapshotStatus reports the snapshot storage configuration.
type SnapshotStatus struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir"`
	Series  int    `json:"series"`
}

// handleStatus returns the running configuration summary: registered tools,
// credential status (masked), and snapshot storage state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := SnapshotStatus{
		Enabled: s.cfg.Snapshots.Enabled,
		Dir:     s.store.Dir(),
	}
	if series, err := s.store.ListAllSeries(); err == nil {
		snap.Series = len(series)
	}

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: StatusResponse{
			Service:   "macrolens",
			Tools:     s.registry.Names(),
			Keys:      config.CheckAPIKeys(s.cfg),
			Snapshots: snap,
			WSClients: s.wsHub.ClientCount(),
		},
	})
}
