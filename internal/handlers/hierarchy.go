package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gestdoc-app/gestdocgo/internal/services/hierarchy"
)

// ---- Companies ----

func (r *Router) listCompanies(w http.ResponseWriter, req *http.Request) {
	page, err := r.hierarchy.ListCompanies(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createCompany(w http.ResponseWriter, req *http.Request) {
	var body hierarchy.CompanyRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	company, err := r.hierarchy.CreateCompany(req.Context(), body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, company)
}

func (r *Router) getCompany(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}
	company, err := r.hierarchy.GetCompany(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

func (r *Router) updateCompany(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}
	var body hierarchy.CompanyRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	company, err := r.hierarchy.UpdateCompany(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

func (r *Router) deleteCompany(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid company ID")
		return
	}
	if err := r.hierarchy.DeleteCompany(req.Context(), id, queryConfirm(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Company deleted successfully"})
}

// ---- Departments ----

func (r *Router) listDepartments(w http.ResponseWriter, req *http.Request) {
	page, err := r.hierarchy.ListDepartments(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createDepartment(w http.ResponseWriter, req *http.Request) {
	var body hierarchy.DepartmentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	dept, err := r.hierarchy.CreateDepartment(req.Context(), body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dept)
}

func (r *Router) getDepartment(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid department ID")
		return
	}
	dept, err := r.hierarchy.GetDepartment(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dept)
}

func (r *Router) updateDepartment(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid department ID")
		return
	}
	var body hierarchy.DepartmentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	dept, err := r.hierarchy.UpdateDepartment(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dept)
}

func (r *Router) deleteDepartment(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid department ID")
		return
	}
	if err := r.hierarchy.DeleteDepartment(req.Context(), id, queryConfirm(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Department deleted successfully"})
}

// ---- Areas ----

func (r *Router) listAreas(w http.ResponseWriter, req *http.Request) {
	page, err := r.hierarchy.ListAreas(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createArea(w http.ResponseWriter, req *http.Request) {
	var body hierarchy.AreaRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	area, err := r.hierarchy.CreateArea(req.Context(), body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, area)
}

func (r *Router) getArea(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid area ID")
		return
	}
	area, err := r.hierarchy.GetArea(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, area)
}

func (r *Router) updateArea(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid area ID")
		return
	}
	var body hierarchy.AreaRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	area, err := r.hierarchy.UpdateArea(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, area)
}

func (r *Router) deleteArea(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid area ID")
		return
	}
	if err := r.hierarchy.DeleteArea(req.Context(), id, queryConfirm(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Area deleted successfully"})
}

// ---- Folders ----

func (r *Router) listFolders(w http.ResponseWriter, req *http.Request) {
	page, err := r.hierarchy.ListFolders(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (r *Router) createFolder(w http.ResponseWriter, req *http.Request) {
	var body hierarchy.FolderRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	folder, err := r.hierarchy.CreateFolder(req.Context(), body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, folder)
}

func (r *Router) getFolder(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	folder, err := r.hierarchy.GetFolder(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, folder)
}

func (r *Router) updateFolder(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	var body hierarchy.FolderRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	folder, err := r.hierarchy.UpdateFolder(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, folder)
}

func (r *Router) deleteFolder(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid folder ID")
		return
	}
	if err := r.hierarchy.DeleteFolder(req.Context(), id, queryConfirm(req)); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Folder deleted successfully"})
}
