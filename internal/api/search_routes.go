package api

import (
	"errors"
	"net/http"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/relay"
)

type searchResponse struct {
	Success bool                  `json:"success"`
	Results []models.CompanyMatch `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.relay.Search(r.Context(), r.URL.Query().Get("q"))
	if errors.Is(err, relay.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("search failed")
		writeUpstreamError(w, "Failed to search companies", err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Results: results})
}
