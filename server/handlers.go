package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/engine"
)

type createSessionRequest struct {
	CustomerID string `json:"customer_id"`
}

type sessionSummary struct {
	SessionID  string      `json:"session_id"`
	CustomerID string      `json:"customer_id,omitempty"`
	Stage      core.Stage  `json:"stage"`
	Status     core.Status `json:"status"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	OK       bool             `json:"ok"`
	Response string           `json:"response"`
	Stage    core.Stage       `json:"stage"`
	Status   core.Status      `json:"status"`
	Agent    core.AgentName   `json:"agent"`
	Hops     []core.AgentName `json:"hops"`
}

type otpPhoneRequest struct {
	Phone string `json:"phone"`
}

type documentResponse struct {
	Locator string `json:"locator"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.sessions.CreateSession(r.Context(), req.CustomerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionSummary{
		SessionID:  id,
		CustomerID: rec.Customer.ID,
		Stage:      rec.Stage,
		Status:     rec.Status,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(rec))
}

func (s *Server) discardSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.DiscardSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) processMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.sessions.ProcessMessage(r.Context(), chi.URLParam(r, "sessionID"), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		OK:       res.OK,
		Response: res.Response,
		Stage:    res.Stage,
		Status:   res.Status,
		Agent:    res.Agent,
		Hops:     res.Hops,
	})
}

// attachDocument accepts multipart/form-data with a "file" part, a "kind"
// field and an optional "monthly_salary" field.
func (s *Server) attachDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read file: "+err.Error())
		return
	}

	up := engine.Upload{
		Kind:        engine.DocumentKind(r.FormValue("kind")),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if v := r.FormValue("monthly_salary"); v != "" {
		salary, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid monthly_salary")
			return
		}
		up.MonthlySalary = salary
	}

	locator, err := s.sessions.AttachDocument(r.Context(), chi.URLParam(r, "sessionID"), up)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse{Locator: locator})
}

func (s *Server) setOTPPhone(w http.ResponseWriter, r *http.Request) {
	var req otpPhoneRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sessions.SetOTPPhone(r.Context(), chi.URLParam(r, "sessionID"), req.Phone); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getArtifact(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		writeError(w, http.StatusNotFound, "artifacts are not served")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.sessions.GetSession(r.Context(), sessionID); err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := s.artifacts.Get(sessionID, chi.URLParam(r, "artifactID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// redact hides the locally generated code.
func redact(rec *core.Record) *core.Record {
	out := rec.Clone()
	out.Verification.OTPCode = ""
	return out
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, artifact.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmptyMessage),
		errors.Is(err, core.ErrInvalidDocument),
		errors.Is(err, core.ErrInvalidPhone):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrRecordExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
