package web

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/web/views"
)

// multipartOverhead is allowed on top of the file limit for boundaries and
// part headers.
const multipartOverhead = 1 << 20

// listResponse is the body of GET /api/employee.
type listResponse struct {
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int           `json:"totalCount"`
	TotalPages int           `json:"totalPages"`
	Data       []core.Record `json:"data"`
}

// createdResponse is the body of a successful POST /api/employee. Count and
// Data cover newly inserted records only.
type createdResponse struct {
	Count      int             `json:"count"`
	Data       []core.Record   `json:"data"`
	IngestID   string          `json:"ingestId"`
	Duplicates int             `json:"duplicates,omitempty"`
	Skipped    []core.RowIssue `json:"skipped,omitempty"`
	Rejected   []ErrorDetail   `json:"rejected,omitempty"`
}

// parseIntParam reads an integer query parameter, returning def when absent
// or malformed.
func parseIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// nameParam returns the {name} path segment, decoded.
func nameParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
	}
	return name
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListEmployees(r.Context(),
		parseIntParam(r, "page", 1), parseIntParam(r, "pageSize", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := page.Records
	if data == nil {
		data = []core.Record{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.Total,
		TotalPages: page.TotalPages(),
		Data:       data,
	})
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.GetEmployee(r.Context(), nameParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleCreateEmployees ingests a multipart upload or a raw CSV/JSON body.
func (s *Server) handleCreateEmployees(w http.ResponseWriter, r *http.Request) {
	req, err := s.readIngestRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	report, err := s.service.Ingest(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := createdResponse{
		Count:      len(report.Inserted),
		Data:       report.Inserted,
		IngestID:   report.IngestID,
		Duplicates: report.Duplicates,
		Skipped:    report.Skipped,
	}
	if resp.Data == nil {
		resp.Data = []core.Record{}
	}
	for _, v := range report.Violations {
		resp.Rejected = append(resp.Rejected, ErrorDetail{Code: v.Code(), Description: v.Message})
	}
	w.Header().Set("Location", "/api/employee")
	writeJSON(w, http.StatusCreated, resp)
}

// readIngestRequest extracts the payload and its format hints. Multipart
// requests use the "file" part (or the first file part) and take the
// extension from its filename; anything else is read as the raw body with
// the declared Content-Type.
func (s *Server) readIngestRequest(w http.ResponseWriter, r *http.Request) (core.IngestRequest, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
		if err := r.ParseMultipartForm(maxSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return core.IngestRequest{}, core.ErrPayloadTooLarge
			}
			return core.IngestRequest{}, errNoFile
		}
		defer r.MultipartForm.RemoveAll()

		fh := pickFile(r.MultipartForm)
		if fh == nil || fh.Size == 0 {
			return core.IngestRequest{}, errNoFile
		}
		f, err := fh.Open()
		if err != nil {
			return core.IngestRequest{}, errNoFile
		}
		defer f.Close()

		content, err := core.ReadPayload(f, maxSize)
		if err != nil {
			return core.IngestRequest{}, err
		}
		return core.IngestRequest{
			Content:       content,
			ContentType:   mediaType,
			FileExtension: strings.ToLower(filepath.Ext(fh.Filename)),
		}, nil
	}

	content, err := core.ReadPayload(http.MaxBytesReader(w, r.Body, maxSize+1), maxSize)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.IngestRequest{}, core.ErrPayloadTooLarge
		}
		return core.IngestRequest{}, err
	}
	if core.IsBlank(content) {
		return core.IngestRequest{}, core.ErrEmptyPayload
	}
	return core.IngestRequest{Content: content, ContentType: strings.ToLower(contentType)}, nil
}

// pickFile prefers the "file" field, then the first file field by name.
func pickFile(form *multipart.Form) *multipart.FileHeader {
	if fhs := form.File["file"]; len(fhs) > 0 {
		return fhs[0]
	}
	fields := make([]string, 0, len(form.File))
	for k := range form.File {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		if fhs := form.File[k]; len(fhs) > 0 {
			return fhs[0]
		}
	}
	return nil
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req core.UpdateRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ParseError{Format: "json", Err: err})
		return
	}

	rec, err := s.service.UpdateEmployee(r.Context(), nameParam(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"ingests": s.service.IngestStatus(),
	})
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListEmployees(r.Context(),
		parseIntParam(r, "page", 1), parseIntParam(r, "pageSize", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	templ.Handler(views.Directory(page)).ServeHTTP(w, r)
}
