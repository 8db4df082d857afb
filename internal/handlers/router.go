package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gestdoc-app/gestdocgo/internal/apperr"
	"github.com/gestdoc-app/gestdocgo/internal/config"
	"github.com/gestdoc-app/gestdocgo/internal/database"
	"github.com/gestdoc-app/gestdocgo/internal/middleware"
	"github.com/gestdoc-app/gestdocgo/internal/services/audits"
	"github.com/gestdoc-app/gestdocgo/internal/services/documents"
	"github.com/gestdoc-app/gestdocgo/internal/services/hierarchy"
	"github.com/gestdoc-app/gestdocgo/internal/services/report"
	"github.com/gestdoc-app/gestdocgo/internal/storage"
)

// Router wraps the mux router and the services behind the HTTP surface
type Router struct {
	*mux.Router
	db        *database.DB
	cfg       *config.Config
	hierarchy *hierarchy.Service
	documents *documents.Service
	audits    *audits.Service
	reports   *report.Service
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, blobs storage.BlobStore, logger *slog.Logger) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		db:        db,
		cfg:       cfg,
		hierarchy: hierarchy.NewService(db.DB, blobs, logger),
		documents: documents.NewService(db.DB, blobs, logger),
		audits:    audits.NewService(db.DB, logger),
		reports:   report.NewService(db.DB, "http://localhost:"+cfg.Port),
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	// Hierarchy resources
	api.HandleFunc("/companies", r.listCompanies).Methods("GET")
	api.HandleFunc("/companies", r.createCompany).Methods("POST")
	api.HandleFunc("/companies/{id}", r.getCompany).Methods("GET")
	api.HandleFunc("/companies/{id}", r.updateCompany).Methods("PUT")
	api.HandleFunc("/companies/{id}", r.deleteCompany).Methods("DELETE")

	api.HandleFunc("/departments", r.listDepartments).Methods("GET")
	api.HandleFunc("/departments", r.createDepartment).Methods("POST")
	api.HandleFunc("/departments/{id}", r.getDepartment).Methods("GET")
	api.HandleFunc("/departments/{id}", r.updateDepartment).Methods("PUT")
	api.HandleFunc("/departments/{id}", r.deleteDepartment).Methods("DELETE")

	api.HandleFunc("/areas", r.listAreas).Methods("GET")
	api.HandleFunc("/areas", r.createArea).Methods("POST")
	api.HandleFunc("/areas/{id}", r.getArea).Methods("GET")
	api.HandleFunc("/areas/{id}", r.updateArea).Methods("PUT")
	api.HandleFunc("/areas/{id}", r.deleteArea).Methods("DELETE")

	api.HandleFunc("/folders", r.listFolders).Methods("GET")
	api.HandleFunc("/folders", r.createFolder).Methods("POST")
	api.HandleFunc("/folders/{id}", r.getFolder).Methods("GET")
	api.HandleFunc("/folders/{id}", r.updateFolder).Methods("PUT")
	api.HandleFunc("/folders/{id}", r.deleteFolder).Methods("DELETE")

	// Documents and versions
	api.HandleFunc("/documents", r.listDocuments).Methods("GET")
	api.HandleFunc("/documents", r.createDocument).Methods("POST")
	api.HandleFunc("/documents/{id}", r.getDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", r.updateDocument).Methods("PUT")
	api.HandleFunc("/documents/{id}", r.deleteDocument).Methods("DELETE")
	api.HandleFunc("/documents/{id}/versions", r.listVersions).Methods("GET")
	api.HandleFunc("/documents/{id}/versions", r.addVersion).Methods("POST")
	api.HandleFunc("/document-versions/{id}/download", r.downloadVersion).Methods("GET")
	api.HandleFunc("/document-versions/{id}", r.updateVersion).Methods("PUT")
	api.HandleFunc("/document-versions/{id}", r.deleteVersion).Methods("DELETE")

	// Audits
	api.HandleFunc("/audit-types", r.listAuditTypes).Methods("GET")
	api.HandleFunc("/audit-types", r.createAuditType).Methods("POST")
	api.HandleFunc("/audit-types/active", r.activeAuditTypes).Methods("GET")
	api.HandleFunc("/audit-types/{id}", r.getAuditType).Methods("GET")
	api.HandleFunc("/audit-types/{id}", r.updateAuditType).Methods("PUT")
	api.HandleFunc("/audit-types/{id}", r.deleteAuditType).Methods("DELETE")

	api.HandleFunc("/audits", r.listAudits).Methods("GET")
	api.HandleFunc("/audits", r.createAudit).Methods("POST")
	api.HandleFunc("/audits/{id}", r.getAudit).Methods("GET")
	api.HandleFunc("/audits/{id}", r.updateAudit).Methods("PUT")
	api.HandleFunc("/audits/{id}", r.deleteAudit).Methods("DELETE")
	api.HandleFunc("/audits/{id}/report", r.auditReport).Methods("GET")

	// Review assignments
	api.HandleFunc("/audit-document-reviews", r.assignDocumentVersion).Methods("POST")
	api.HandleFunc("/audit-document-reviews/{id}", r.updateReview).Methods("PUT")
	api.HandleFunc("/audit-document-reviews/{id}", r.unassignReview).Methods("DELETE")

	// Findings (hallazgos)
	api.HandleFunc("/hallazgos", r.listFindings).Methods("GET")
	api.HandleFunc("/hallazgos", r.createFinding).Methods("POST")
	api.HandleFunc("/hallazgos/{id}", r.getFinding).Methods("GET")
	api.HandleFunc("/hallazgos/{id}", r.updateFinding).Methods("PUT")
	api.HandleFunc("/hallazgos/{id}", r.deleteFinding).Methods("DELETE")
	api.HandleFunc("/finding-types", r.listFindingTypes).Methods("GET")

	// Selection lists
	api.HandleFunc("/users", r.listUsers).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondAppError translates a service error into the wire format the
// frontend expects: validation and conflict errors become field-keyed
// maps, dependency refusals become warnings with counts, everything
// else a plain error message.
func respondAppError(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, verr.StatusCode(), map[string]interface{}{"errors": verr.Fields})
		return
	}
	var cerr *apperr.ConflictError
	if errors.As(err, &cerr) {
		respondJSON(w, cerr.StatusCode(), map[string]interface{}{
			"errors": map[string][]string{cerr.Field: {cerr.Message}},
		})
		return
	}
	var derr *apperr.DependencyError
	if errors.As(err, &derr) {
		respondJSON(w, derr.StatusCode(), map[string]interface{}{
			"warning": derr.Error(),
			"counts":  derr.Counts,
		})
		return
	}
	var herr apperr.HTTPError
	if errors.As(err, &herr) {
		respondError(w, herr.StatusCode(), herr.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// currentUserID pulls the authenticated user's id from the request.
func currentUserID(req *http.Request) (uint, bool) {
	return middleware.UserID(req.Context())
}

// pathID parses the {id} route variable.
func pathID(req *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// queryPage parses the ?page= parameter, defaulting to the first page.
func queryPage(req *http.Request) int {
	page, err := strconv.Atoi(req.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// queryConfirm reports whether the delete was explicitly confirmed.
func queryConfirm(req *http.Request) bool {
	return req.URL.Query().Has("confirm")
}
