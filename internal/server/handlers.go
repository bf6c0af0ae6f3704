package server

import (
	"encoding/base64"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/design/normalize"
	"github.com/matzehuels/sketchlift/pkg/errors"
	"github.com/matzehuels/sketchlift/pkg/pipeline"
	"github.com/matzehuels/sketchlift/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateResponse is returned by POST /v1/validate.
type validateResponse struct {
	Spec    *design.Spec     `json:"spec"`
	Repairs normalize.Report `json:"repairs"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}

	doc, err := design.Decode(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, report := normalize.Document(doc, normalize.Options{
		CanvasName:   pipeline.DefaultCanvasName,
		CanvasWidth:  pipeline.DefaultWidth,
		CanvasHeight: pipeline.DefaultHeight,
	})
	spec, err := design.Validate(doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, validateResponse{Spec: spec, Repairs: report})
}

// renderRequest is the body of POST /v1/render.
type renderRequest struct {
	// Input is the raw model output, possibly fenced markdown.
	Input string `json:"input"`

	pipeline.Options // canvas fallbacks, formats, refresh
}

// renderResponse is returned by POST /v1/render when more than one
// format is requested. Binary artifacts are base64 encoded.
type renderResponse struct {
	SpecHash  string            `json:"spec_hash"`
	Repairs   normalize.Report  `json:"repairs"`
	Artifacts map[string]string `json:"artifacts"`
	Cached    bool              `json:"cached"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req renderRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Input == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "body must be JSON with a non-empty input field"))
		return
	}

	opts := req.Options
	opts.Logger = s.logger
	result, err := s.cfg.Runner.Execute(r.Context(), []byte(req.Input), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// A single binary format is returned as-is.
	if len(result.Artifacts) == 1 {
		for format, data := range result.Artifacts {
			w.Header().Set("Content-Type", contentType(format))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return
		}
	}

	resp := renderResponse{
		SpecHash:  result.SpecHash,
		Repairs:   result.Repairs,
		Artifacts: make(map[string]string, len(result.Artifacts)),
		Cached:    result.CacheInfo.ArtifactHit,
	}
	for format, data := range result.Artifacts {
		resp.Artifacts[format] = base64.StdEncoding.EncodeToString(data)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateDesign(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "no store configured"))
		return
	}
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}

	doc, err := design.Decode(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, report := normalize.Document(doc, normalize.Options{
		CanvasName:   pipeline.DefaultCanvasName,
		CanvasWidth:  pipeline.DefaultWidth,
		CanvasHeight: pipeline.DefaultHeight,
	})
	spec, err := design.Validate(doc)
	if err != nil {
		s.writeError(w, err)
		return
	}

	stored := &store.Document{
		ID:        uuid.NewString(),
		Name:      spec.Canvas.Name,
		CreatedAt: time.Now().UTC(),
		Raw:       raw,
		Spec:      spec,
		Repairs:   report,
	}
	if err := s.cfg.Store.Put(r.Context(), stored); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "no store configured"))
		return
	}
	docs, err := s.cfg.Store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDesign(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "no store configured"))
		return
	}
	doc, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDesign(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "no store configured"))
		return
	}
	if err := s.cfg.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
		return nil, false
	}
	if int64(len(raw)) > s.cfg.MaxBodyBytes {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body too large"))
		return nil, false
	}
	if len(raw) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "empty request body"))
		return nil, false
	}
	return raw, true
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	var sv *design.SchemaViolation
	if stderrors.As(err, &sv) {
		status, code = http.StatusUnprocessableEntity, errors.ErrCodeSchemaViolation
	}
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "error", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(code),
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidDocument, errors.ErrCodeSchemaViolation:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupportedMIME:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeNotFound, errors.ErrCodeDocumentNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusServiceUnavailable
	case errors.ErrCodeNetwork, errors.ErrCodeResource:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatJSON:
		return "application/json"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/octet-stream"
	}
}
