package api

import (
	"io"
	"net/http"
)

type analyzeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// handleAnalyze acknowledges an upload. Image analysis is not implemented:
// the body is drained up to the upload limit and discarded.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	n, err := io.Copy(io.Discard, http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	ev := s.logger.Info().Int64("bytes", n).Str("content_type", r.Header.Get("Content-Type"))
	if err != nil {
		ev = ev.AnErr("read_error", err)
	}
	ev.Msg("analysis upload received (not implemented)")

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success: true,
		Message: "Image analysis endpoint ready. Implementation pending.",
		Status:  "pending",
	})
}
