package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gestdoc-app/gestdocgo/internal/services/audits"
)

// assignDocumentVersion attaches a document version to an audit and
// creates the pending review.
func (r *Router) assignDocumentVersion(w http.ResponseWriter, req *http.Request) {
	var body audits.AssignRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	review, err := r.audits.AssignDocumentVersion(req.Context(), body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

func (r *Router) updateReview(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}
	var body audits.UpdateReviewRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	review, err := r.audits.UpdateReview(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

func (r *Router) unassignReview(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}
	if err := r.audits.Unassign(req.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Document version unassigned"})
}
