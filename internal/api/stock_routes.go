package api

import (
	"errors"
	"net/http"

	"github.com/MoneyMilan/money-milan-stock-screener/internal/models"
	"github.com/MoneyMilan/money-milan-stock-screener/internal/relay"
)

type stockResponse struct {
	Success bool                  `json:"success"`
	Data    *models.StockSnapshot `json:"data"`
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	data, err := s.relay.Stock(r.Context(), symbol)
	if errors.Is(err, relay.ErrInvalidSymbol) {
		writeError(w, http.StatusBadRequest, "Invalid symbol parameter")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("stock data failed")
		writeUpstreamError(w, "Failed to fetch stock data", err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{Success: true, Data: data})
}
