package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/giygas/rxcomposer/cart"
	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/session"
	"github.com/giygas/rxcomposer/validation"
)

// SessionResponse carries the form fields after a session command
type SessionResponse struct {
	Fields  session.Fields   `json:"fields"`
	Preview *session.Preview `json:"preview,omitempty"`
	Notices []string         `json:"notices,omitempty"`
}

func (h *HTTPHandlerImpl) sessionResponse() SessionResponse {
	return SessionResponse{
		Fields:  h.session.Fields(),
		Notices: h.session.DrainNotices(),
	}
}

// renderedResponse re-renders the preview, which also autosaves
func (h *HTTPHandlerImpl) renderedResponse(r *http.Request) SessionResponse {
	preview := h.session.RenderPreview(r.Context())
	resp := h.sessionResponse()
	resp.Preview = &preview
	return resp
}

// GetSession returns the form fields
func (h *HTTPHandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.sessionResponse())
}

// UpdateSession replaces the form fields and re-renders the preview
func (h *HTTPHandlerImpl) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var f session.Fields
	if err := decodeBody(r, &f); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.session.SetFields(f)
	h.RespondWithJSON(w, http.StatusOK, h.renderedResponse(r))
}

// CalcBMI computes the BMI from weight and height
func (h *HTTPHandlerImpl) CalcBMI(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.CalcBMI(); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.RespondWithJSON(w, http.StatusOK, h.renderedResponse(r))
}

// FillNormalVitals sets normal adult vitals
func (h *HTTPHandlerImpl) FillNormalVitals(w http.ResponseWriter, r *http.Request) {
	h.session.FillNormalVitals()
	h.RespondWithJSON(w, http.StatusOK, h.renderedResponse(r))
}

// CopyVitals prepends the vitals line to the observation note
func (h *HTTPHandlerImpl) CopyVitals(w http.ResponseWriter, r *http.Request) {
	if err := h.session.CopyVitalsToObservation(); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.RespondWithJSON(w, http.StatusOK, h.renderedResponse(r))
}

// SaveDraft stores the session as the last draft
func (h *HTTPHandlerImpl) SaveDraft(w http.ResponseWriter, r *http.Request) {
	id := h.session.SaveDraft(r.Context())
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"patientId": id,
		"notices":   h.session.DrainNotices(),
	})
}

// SaveFinal stores the session as a final prescription
func (h *HTTPHandlerImpl) SaveFinal(w http.ResponseWriter, r *http.Request) {
	doc := h.session.SaveFinal(r.Context())
	h.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"prescription": doc,
		"notices":      h.session.DrainNotices(),
	})
}

// ListPrescriptions returns the saved finals, newest first
func (h *HTTPHandlerImpl) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.session.Prescriptions(r.Context()))
}

// NewPatient adds the current patient to the roster
func (h *HTTPHandlerImpl) NewPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.session.NewPatient(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrPatientNameRequired) {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		logging.Error("Unexpected roster error", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "could not add patient")
		return
	}
	h.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"patient": p,
		"notices": h.session.DrainNotices(),
	})
}

// ListPatients returns the roster, newest first
func (h *HTTPHandlerImpl) ListPatients(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.session.Roster())
}

// ClearSession resets all fields and the cart after confirmation
func (h *HTTPHandlerImpl) ClearSession(w http.ResponseWriter, r *http.Request) {
	c := newConfirmation(r)
	if err := h.session.ClearAll(r.Context(), c.ask); err != nil {
		if errors.Is(err, cart.ErrNotConfirmed) {
			h.respondNotConfirmed(w, c)
			return
		}
		h.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.RespondWithJSON(w, http.StatusOK, h.sessionResponse())
}

// Preview renders the live preview and autosaves
func (h *HTTPHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.renderedResponse(r))
}

// GetBranding returns the saved clinic header
func (h *HTTPHandlerImpl) GetBranding(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.session.Branding())
}

// SaveBranding replaces the clinic header text
func (h *HTTPHandlerImpl) SaveBranding(w http.ResponseWriter, r *http.Request) {
	var b entities.Branding
	if err := decodeBody(r, &b); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, v := range []string{b.ClinicName, b.DoctorName, b.ContactLine} {
		if len(v) > validation.MaxFieldLength {
			h.RespondWithError(w, http.StatusBadRequest, "branding field too long")
			return
		}
	}
	if b.LogoImage != "" && !strings.HasPrefix(b.LogoImage, "data:image/") {
		h.RespondWithError(w, http.StatusBadRequest, "logo must be an inline image; upload it to /api/branding/logo")
		return
	}

	saved := h.session.SaveBranding(r.Context(), b)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"branding": saved,
		"notices":  h.session.DrainNotices(),
	})
}

// UploadLogo stores the raw image body as the clinic logo
func (h *HTTPHandlerImpl) UploadLogo(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	image, err := io.ReadAll(io.LimitReader(r.Body, validation.MaxLogoSize+1))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "could not read logo")
		return
	}
	if len(image) > validation.MaxLogoSize {
		h.RespondWithError(w, http.StatusRequestEntityTooLarge, "logo too large")
		return
	}
	if err := h.validator.ValidateLogo(contentType, int64(len(image))); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	b := h.session.SetLogo(r.Context(), contentType, image)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"branding": b,
		"notices":  h.session.DrainNotices(),
	})
}
