package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"downloadqueue/internal/artifact"
	"downloadqueue/internal/job"
	"downloadqueue/internal/remote"
	"downloadqueue/observability/types"
)

// queueState is the response for GET /api/queue.
type queueState struct {
	Paused  bool      `json:"paused"`
	Current *job.Job  `json:"current"`
	Pending []job.Job `json:"pending"`
}

type pausedRequest struct {
	Paused bool `json:"paused"`
}

type metadataRequest struct {
	URL string `json:"url"`
}

type saveResponse struct {
	Key string `json:"key"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req job.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	snapshot := s.manager.Enqueue(r.Context(), req)
	s.writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	state := queueState{
		Paused:  s.manager.Paused(),
		Pending: s.manager.Pending(),
	}
	if current, ok := s.manager.Current(); ok {
		state.Current = &current
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	current, ok := s.manager.Current()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no active download")
		return
	}
	s.writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.manager.Cancel(r.Context(), id) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	var req pausedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	s.manager.SetPaused(r.Context(), req.Paused)
	s.writeJSON(w, http.StatusOK, pausedRequest{Paused: s.manager.Paused()})
}

func (s *Server) handleGetPaused(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, pausedRequest{Paused: s.manager.Paused()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var history []job.Job
	switch r.URL.Query().Get("filter") {
	case "completed":
		history = s.manager.Completed()
	case "failed":
		history = s.manager.Failed()
	default:
		history = s.manager.History()
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleRemoveFromHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.manager.RemoveFromHistory(id) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.manager.Notifications().Discard(id)
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleNextNotification(w http.ResponseWriter, r *http.Request) {
	notified, ok := s.manager.Notifications().TakeNext()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, notified)
}

func (s *Server) handleDiscardNotification(w http.ResponseWriter, r *http.Request) {
	s.manager.Notifications().Discard(r.PathValue("id"))
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSaveArtifact(w http.ResponseWriter, r *http.Request) {
	if s.saver == nil {
		s.writeError(w, http.StatusServiceUnavailable, "artifact archiving is disabled")
		return
	}

	id := r.PathValue("id")
	j, ok := s.manager.HistoryJob(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	key, err := s.saver.Save(r.Context(), j)
	if err != nil {
		switch {
		case errors.Is(err, artifact.ErrNotCompleted):
			s.writeError(w, http.StatusConflict, "job is not completed")
		case errors.Is(err, artifact.ErrNoFilename):
			s.writeError(w, http.StatusUnprocessableEntity, "job has no artifact filename")
		default:
			s.logger.Error(r.Context(), "Artifact save failed", err, types.Fields{"job_id": id})
			s.writeError(w, http.StatusBadGateway, "failed to archive artifact")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, saveResponse{Key: key})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	meta, err := s.client.FetchMetadata(r.Context(), req.URL)
	if err != nil {
		s.logger.Error(r.Context(), "Metadata fetch failed", err, types.Fields{"url": req.URL})
		if msg := remote.ServerMessage(err); msg != "" {
			s.writeError(w, http.StatusBadGateway, msg)
			return
		}
		s.writeError(w, http.StatusBadGateway, "metadata unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
