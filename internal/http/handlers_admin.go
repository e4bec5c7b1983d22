package http

import (
	"encoding/json"
	"net/http"

	"financas/internal/core"
	"financas/internal/services"

	"github.com/go-chi/chi/v5"
)

type backupExportRequest struct {
	Password string `json:"password"`
}

type backupExportResponse struct {
	Backup string `json:"backup"`
}

type backupImportRequest struct {
	Password string `json:"password"`
	Backup   string `json:"backup"`
}

type importRequest struct {
	Type    services.ImportKind `json:"type"`
	Records json.RawMessage     `json:"records"`
}

type importResponse struct {
	Type     services.ImportKind `json:"type"`
	Imported int                 `json:"imported"`
}

// handleBackupExport returns the caller's encrypted snapshot. Admin only;
// the password is checked again and keys the encryption.
func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	var req backupExportRequest
	if err := DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	if req.Password == "" {
		fail(w, r, core.NewValidationError("password", "is required"))
		return
	}
	envelope, err := s.deps.Backups.Export(r.Context(), caller(r), req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, backupExportResponse{Backup: envelope})
}

// handleBackupImport replaces the caller's records with a snapshot.
func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	var req backupImportRequest
	if err := DecodeJSON(w, r, &req, maxBulkBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	v := &core.ValidationError{}
	if req.Password == "" {
		v.Add("password", "is required")
	}
	if req.Backup == "" {
		v.Add("backup", "is required")
	}
	if err := v.OrNil(); err != nil {
		fail(w, r, err)
		return
	}
	summary, err := s.deps.Backups.Import(r.Context(), caller(r), req.Password, req.Backup)
	if err != nil {
		fail(w, r, err)
		return
	}
	NewJSONResponse().Data(summary).Message("backup restored").Write(w)
}

// handleImport bulk loads one collection for the admin.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := DecodeJSON(w, r, &req, maxBulkBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	n, err := s.deps.Imports.Import(r.Context(), caller(r), req.Type, req.Records)
	if err != nil {
		fail(w, r, err)
		return
	}
	created(w, importResponse{Type: req.Type, Imported: n})
}

// handleListUsers lists every user but the calling admin.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(users))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Users.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	NewJSONResponse().Message("user deleted").Write(w)
}
