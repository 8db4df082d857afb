package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gestdoc-app/gestdocgo/internal/services/documents"
)

// uploadFromForm parses the multipart form and pulls the named file
// field, enforcing the configured size cap.
func (r *Router) uploadFromForm(w http.ResponseWriter, req *http.Request, field string) (*documents.Upload, io.Closer, error) {
	maxBytes := r.cfg.Storage.MaxUploadBytes()
	req.Body = http.MaxBytesReader(w, req.Body, maxBytes+4096)
	if err := req.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("the file may not be greater than %d MB", r.cfg.Storage.MaxUploadMB)
		}
		return nil, nil, errors.New("invalid multipart payload")
	}
	file, header, err := req.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("the %s field is required", field)
	}
	return &documents.Upload{
		Reader:   file,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	}, file, nil
}

// listDocuments returns one page of documents for the table view
func (r *Router) listDocuments(w http.ResponseWriter, req *http.Request) {
	page, err := r.documents.ListDocuments(req.Context(), queryPage(req))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// createDocument accepts a multipart form with name, folder_id and the
// first file, creating the document and its initial version
func (r *Router) createDocument(w http.ResponseWriter, req *http.Request) {
	userID, ok := currentUserID(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	upload, closer, err := r.uploadFromForm(w, req, "file")
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"errors": map[string][]string{"file": {err.Error()}},
		})
		return
	}
	defer closer.Close()

	folderID, _ := strconv.ParseUint(req.FormValue("folder_id"), 10, 32)
	body := documents.CreateDocumentRequest{
		Name:     req.FormValue("name"),
		FolderID: uint(folderID),
	}

	doc, err := r.documents.CreateDocument(req.Context(), body, *upload, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

func (r *Router) getDocument(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}
	doc, err := r.documents.GetDocument(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (r *Router) updateDocument(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}
	var body documents.UpdateDocumentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	doc, err := r.documents.UpdateDocument(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (r *Router) deleteDocument(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}
	if err := r.documents.DeleteDocument(req.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

// listVersions returns a document's version history, newest first
func (r *Router) listVersions(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}
	versions, err := r.documents.ListVersions(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, versions)
}

// addVersion accepts a multipart form with file_path and notes fields,
// matching the upload form of the versions page
func (r *Router) addVersion(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}
	userID, ok := currentUserID(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	upload, closer, err := r.uploadFromForm(w, req, "file_path")
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"errors": map[string][]string{"file_path": {err.Error()}},
		})
		return
	}
	defer closer.Close()

	var notes *string
	if v := req.FormValue("notes"); v != "" {
		notes = &v
	}

	version, err := r.documents.AddVersion(req.Context(), id, documents.AddVersionRequest{Notes: notes}, *upload, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, version)
}

func (r *Router) updateVersion(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}
	var body documents.AddVersionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	version, err := r.documents.UpdateVersionNotes(req.Context(), id, body)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, version)
}

func (r *Router) deleteVersion(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}
	if err := r.documents.DeleteVersion(req.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Version deleted successfully"})
}

// downloadVersion streams the stored file under its synthesized name
func (r *Router) downloadVersion(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}
	download, err := r.documents.DownloadVersion(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	defer download.Reader.Close()

	mimeType := download.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(download.Size, 10))
	io.Copy(w, download.Reader)
}
