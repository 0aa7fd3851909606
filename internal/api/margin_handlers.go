package api

import (
	"net/http"
	"strconv"

	"github.com/tfmusic/workflow-assistant/internal/margin"
)

type marginResponse struct {
	margin.Result
	ProjectType string `json:"project_type"`
}

// handleMargin returns the margin table, or the policy outcome for ?budget=N.
func (s *Server) handleMargin(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("budget")
	if raw == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{"tiers": margin.Tiers()})
		return
	}

	budget, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, "budget must be a whole number of dollars", http.StatusBadRequest)
		return
	}
	result, err := margin.Compute(budget)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, marginResponse{
		Result:      result,
		ProjectType: margin.ClassifyProjectType(budget),
	})
}
