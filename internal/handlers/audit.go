package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gestdoc-app/gestdocgo/internal/services/audits"
)

// ---- Audit types ----

func (r *Router) listAuditTypes(w http.ResponseWriter, req *http.Request) {
	page, err := r.audits.ListAuditTypes(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createAuditType(w http.ResponseWriter, req *http.Request) {
	var body audits.AuditTypeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	auditType, err := r.audits.CreateAuditType(req.Context(), body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, auditType)
}

func (r *Router) activeAuditTypes(w http.ResponseWriter, req *http.Request) {
	types, err := r.audits.ActiveAuditTypes(req.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, types)
}

func (r *Router) getAuditType(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audit type ID")
		return
	}
	auditType, err := r.audits.GetAuditType(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, auditType)
}

func (r *Router) updateAuditType(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audit type ID")
		return
	}
	var body audits.AuditTypeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	auditType, err := r.audits.UpdateAuditType(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, auditType)
}

func (r *Router) deleteAuditType(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audit type ID")
		return
	}
	if err := r.audits.DeleteAuditType(req.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Audit type deleted"})
}

// ---- Audits ----

func (r *Router) listAudits(w http.ResponseWriter, req *http.Request) {
	page, err := r.audits.ListAudits(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createAudit(w http.ResponseWriter, req *http.Request) {
	var body audits.AuditRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	audit, err := r.audits.CreateAudit(req.Context(), body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, audit)
}

func (r *Router) getAudit(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audit ID")
		return
	}
	audit, err := r.audits.GetAudit(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, audit)
}

func (r *Router) updateAudit(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audit ID")
		return
	}
	var body audits.AuditRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	audit, err := r.audits.UpdateAudit(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, audit)
}

func (r *Router) deleteAudit(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audit ID")
		return
	}
	if err := r.audits.DeleteAudit(req.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Audit deleted"})
}

// auditReport streams the generated PDF as a download.
func (r *Router) auditReport(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid audit ID")
		return
	}
	pdf, err := r.reports.GenerateAuditReport(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("audit_report_%d.pdf", id)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
