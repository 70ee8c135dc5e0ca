package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pensign/pensign/internal/signing"
)

// legacyPosition mirrors the pre-multi-field submission coordinate
// shape. It is accepted and ignored on submit: the authoritative
// placement is the one stored at capture time.
type legacyPosition struct {
	Page   int     `json:"page"`
	XRatio float64 `json:"xRatio"`
	YRatio float64 `json:"yRatio"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type submitPayload struct {
	TokenID    string            `json:"tokenId"`
	Signatures map[string]string `json:"signatures,omitempty"`
	TextValues map[string]string `json:"textValues,omitempty"`
	Signature  string            `json:"signature,omitempty"`
	Position   *legacyPosition   `json:"position,omitempty"`
	Email      string            `json:"email,omitempty"`
}

// CreateSession handles POST /api/signing/sessions: multipart form
// with the PDF under "document" and either a "fields" JSON array or a
// legacy "position" JSON object.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	// Multipart parsing may spool large parts to disk; remove them on
	// every exit path.
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("failed to read upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}

	result, err := s.svc.CreateSession(r.Context(), signing.CreateSessionRequest{
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Document:     document,
		FieldsJSON:   r.FormValue("fields"),
		PositionJSON: r.FormValue("position"),
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"link": result.Link})
}

// GetSession handles GET /api/signing/sessions/{token}: the layout and
// document the signer-facing page renders.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	view, err := s.svc.GetSession(r.Context(), token)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /api/signing/submit.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.TokenID == "" {
		writeError(w, http.StatusBadRequest, "tokenId is required")
		return
	}

	result, err := s.svc.Submit(r.Context(), signing.SubmitRequest{
		Token:           payload.TokenID,
		Signatures:      payload.Signatures,
		TextValues:      payload.TextValues,
		LegacySignature: payload.Signature,
		SignerEmail:     payload.Email,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// respondError maps domain errors onto the HTTP error taxonomy.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case signing.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, signing.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "signing session not found")
	case errors.Is(err, signing.ErrAlreadySigned):
		writeError(w, http.StatusConflict, "session already signed")
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
