package api

import (
	"errors"
	"net/http"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/relay"
)

type chartResponse struct {
	Success bool              `json:"success"`
	Data    *models.ChartData `json:"data"`
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	data, err := s.relay.Chart(r.Context(), symbol, r.URL.Query().Get("period"))
	switch {
	case errors.Is(err, relay.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, "Invalid symbol parameter")
		return
	case err != nil:
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("chart data failed")
		writeUpstreamError(w, "Failed to fetch chart data", err)
		return
	}
	writeJSON(w, http.StatusOK, chartResponse{Success: true, Data: data})
}
