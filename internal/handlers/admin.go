package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/services"
	"github.com/go-chi/chi/v5"
)

const maxReportSize = 20 << 20

type resetRequest struct {
	Scope string `json:"scope"`
}

func userIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid user id", services.ErrInvalidInput)
	}
	return id, nil
}

// handleResetUser answers 200 with the report even when categories failed;
// failures are part of the report.
func (s *Server) handleResetUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	userID, err := userIDFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req resetRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	scope, err := models.ParseResetScope(req.Scope)
	if err != nil {
		s.writeServiceError(w, r, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
		return
	}

	report, err := s.reset.ResetUser(r.Context(), actor, userID, scope)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStoreReport(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "report_too_large")
		return
	}

	report, err := s.reports.Store(r.Context(), userID, chi.URLParam(r, "reportType"), body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	reports, err := s.reports.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
