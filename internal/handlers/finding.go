package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gestdoc-app/gestdocgo/internal/services/audits"
)

func (r *Router) listFindings(w http.ResponseWriter, req *http.Request) {
	page, err := r.audits.ListFindings(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createFinding(w http.ResponseWriter, req *http.Request) {
	userID, ok := currentUserID(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var body audits.FindingRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	finding, err := r.audits.CreateFinding(req.Context(), body, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, finding)
}

func (r *Router) getFinding(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid finding ID")
		return
	}
	finding, err := r.audits.GetFinding(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, finding)
}

func (r *Router) updateFinding(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid finding ID")
		return
	}
	var body audits.FindingRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	finding, err := r.audits.UpdateFinding(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, finding)
}

func (r *Router) deleteFinding(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid finding ID")
		return
	}
	if err := r.audits.DeleteFinding(req.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Finding deleted"})
}

func (r *Router) listFindingTypes(w http.ResponseWriter, req *http.Request) {
	types, err := r.audits.ListFindingTypes(req.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, types)
}
