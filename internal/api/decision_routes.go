package api

import (
	"encoding/json"
	"net/http"

	"github.com/kjannette/trahn-agent/internal/models"
)

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var p models.MarketProposal
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "malformed proposal: "+err.Error())
		return
	}

	d, err := s.agent.Evaluate(p)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	d, found := s.agent.Decision(id)
	if !found {
		writeError(w, http.StatusNotFound, "no pending decision with that id")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rec, err := s.agent.ExecuteID(id)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.log.Error().Err(err).Str("decision", id.String()).Msg("execute failed")
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.agent.Cancel(id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
