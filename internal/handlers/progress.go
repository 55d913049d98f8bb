package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/services"
	"github.com/go-chi/chi/v5"
)

type progressEventRequest struct {
	StepID   string           `json:"stepId"`
	Action   string           `json:"action"`
	Evidence *models.Evidence `json:"evidence,omitempty"`
}

type videoProgressRequest struct {
	StepID  string   `json:"stepId"`
	Percent *float64 `json:"percent"`
}

type saveAssessmentRequest struct {
	Kind           models.AssessmentKind `json:"kind"`
	AssessmentType string                `json:"assessmentType"`
	Results        json.RawMessage       `json:"results"`
}

// appFromPath resolves {appType}; unknown apps map to ErrUnknownApp.
func appFromPath(r *http.Request) (models.AppType, error) {
	app, err := models.ParseAppType(chi.URLParam(r, "appType"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", services.ErrUnknownApp, err)
	}
	return app, nil
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	app, err := appFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	rec, err := s.progression.Get(r.Context(), actor.UserID, app)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleProgressEvent(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	app, err := appFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req progressEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	var event services.StepEvent
	switch req.Action {
	case "visit":
		event = services.VisitStep(req.StepID)
	case "complete":
		var evidence models.Evidence
		if req.Evidence != nil {
			evidence = *req.Evidence
		}
		event = services.CompleteStep(req.StepID, evidence)
	default:
		s.writeServiceError(w, r, fmt.Errorf("%w: unknown action %q", services.ErrInvalidInput, req.Action))
		return
	}

	rec, err := s.progression.ApplyEvent(r.Context(), actor.UserID, app, event)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleVideoProgress(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	app, err := appFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req videoProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Percent == nil {
		s.writeServiceError(w, r, fmt.Errorf("%w: percent is required", services.ErrInvalidInput))
		return
	}

	rec, err := s.progression.ApplyEvent(r.Context(), actor.UserID, app, services.UpdateVideoProgress(req.StepID, *req.Percent))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleLockStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	app, err := appFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status, err := s.guard.Status(r.Context(), actor.UserID, app)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	app, err := appFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	records, err := s.assessments.List(r.Context(), actor.UserID, app)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSaveAssessment(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	app, err := appFromPath(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req saveAssessmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	rec, err := s.assessments.Save(r.Context(), actor.UserID, app, req.Kind, req.AssessmentType, req.Results)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
