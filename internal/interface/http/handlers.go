package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/neuroclass/neuroclass-hub/internal/application/command"
	"github.com/neuroclass/neuroclass-hub/internal/application/query"
	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
	"github.com/neuroclass/neuroclass-hub/pkg/logger"
)

// maxBodyBytes bounds request bodies; every payload here is small JSON.
const maxBodyBytes = 64 << 10

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain error to an HTTP status.
//
//	not found          -> 404
//	already processed  -> 409
//	invalid state/data -> 400
//	anything else      -> 500
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyProcessed(err):
		writeJSONError(w, http.StatusConflict, "already_finished", err.Error())
	case shared.IsInvalidState(err),
		shared.IsValidation(err),
		errors.Is(err, shared.ErrValueOutOfRange),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrInvalidID):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeBody decodes a JSON request body into dst. Returns false after
// writing a 400 response on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "neuroclass-hub",
		"status":  "ok",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if s.deps.Database != nil {
		if err := s.deps.Database.Ping(ctx); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS & PROFILES
// ══════════════════════════════════════════════════════════════════════════════

type registerStudentRequest struct {
	FullName string `json:"full_name"`
}

type registerStudentResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.RegisterStudentCommand{FullName: req.FullName}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.RegisterStudent.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerStudentResponse{
		ID:       result.StudentID,
		FullName: result.FullName,
	})
}

type saveProfileRequest struct {
	ProcessingSpeed    float64 `json:"processing_speed"`
	SensorySensitivity float64 `json:"sensory_sensitivity"`
	WorkingMemory      float64 `json:"working_memory"`
	SwitchCost         float64 `json:"switch_cost"`
	StimulationNeed    float64 `json:"stimulation_need"`
	FatigueRate        float64 `json:"fatigue_rate"`
	PredictabilityNeed float64 `json:"predictability_need"`
	ProfileSource      string  `json:"profile_source"`
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req saveProfileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.SaveProfileCommand{
		StudentID:          r.PathValue("id"),
		ProcessingSpeed:    req.ProcessingSpeed,
		SensorySensitivity: req.SensorySensitivity,
		WorkingMemory:      req.WorkingMemory,
		SwitchCost:         req.SwitchCost,
		StimulationNeed:    req.StimulationNeed,
		FatigueRate:        req.FatigueRate,
		PredictabilityNeed: req.PredictabilityNeed,
		ProfileSource:      req.ProfileSource,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	profile, err := s.deps.SaveProfile.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":       profile.StudentID.String(),
		"processing_speed": profile.ProcessingSpeed,
		"profile_source":   profile.ProfileSource,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON BLOCKS & EVENTS
// ══════════════════════════════════════════════════════════════════════════════

type startBlockRequest struct {
	StudentID string `json:"student_id"`
}

type startBlockResponse struct {
	BlockID   string    `json:"block_id"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
}

func (s *Server) handleStartBlock(w http.ResponseWriter, r *http.Request) {
	var req startBlockRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.StartBlockCommand{StudentID: req.StudentID}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.StartBlock.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, startBlockResponse{
		BlockID:   result.BlockID,
		StudentID: result.StudentID,
		StartedAt: result.StartedAt,
	})
}

func (s *Server) handleFinishBlock(w http.ResponseWriter, r *http.Request) {
	cmd := command.FinishBlockCommand{BlockID: r.PathValue("id")}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.FinishBlock.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type recordEventRequest struct {
	StudentID string `json:"student_id"`
	TaskID    string `json:"task_id"`
	BlockID   string `json:"block_id"`
	Type      string `json:"type"`
	IsCorrect *bool  `json:"is_correct"`
}

type recordEventResponse struct {
	EventID    string    `json:"event_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.RecordEventCommand{
		StudentID: req.StudentID,
		TaskID:    req.TaskID,
		BlockID:   req.BlockID,
		Type:      req.Type,
		IsCorrect: req.IsCorrect,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.RecordEvent.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordEventResponse{
		EventID:    result.EventID,
		RecordedAt: result.RecordedAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// TEACHER DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetDashboardQuery{StudentID: r.PathValue("id")}
	if err := q.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	dashboard, err := s.deps.GetDashboard.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}
