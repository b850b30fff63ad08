package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/storage"
)

func (s *Session) document() entities.Prescription {
	s.mu.Lock()
	s.assignIDLocked()
	doc := entities.Prescription{
		ID:        newDocumentID(),
		Timestamp: s.now().UTC(),
		Patient:   s.patient,
		Vitals:    s.vitals,
		Notes:     s.notes,
	}
	s.mu.Unlock()

	doc.Rx = s.Cart.Snapshot()
	return doc
}

// SaveDraft writes the current session as the last draft and returns the patient id.
func (s *Session) SaveDraft(ctx context.Context) string {
	doc := s.document()
	if err := storage.SetJSON(ctx, s.store, storage.KeyLastDraft, doc); err != nil {
		s.persistFailed("draft", err)
	}
	return doc.Patient.ID
}

// LastDraft returns the saved draft, if any.
func (s *Session) LastDraft(ctx context.Context) (entities.Prescription, bool) {
	var doc entities.Prescription
	if err := storage.GetJSON(ctx, s.store, storage.KeyLastDraft, &doc); err != nil {
		return entities.Prescription{}, false
	}
	return doc, true
}

// SaveFinal prepends the current session to the saved prescriptions.
func (s *Session) SaveFinal(ctx context.Context) entities.Prescription {
	doc := s.document()
	if err := storage.Prepend(ctx, s.store, storage.KeyPrescriptions, doc); err != nil {
		s.persistFailed("prescription", err)
	}
	return doc
}

// Prescriptions lists the saved finals, newest first.
func (s *Session) Prescriptions(ctx context.Context) []entities.Prescription {
	var all []entities.Prescription
	if err := storage.GetJSON(ctx, s.store, storage.KeyPrescriptions, &all); err != nil || all == nil {
		return []entities.Prescription{}
	}
	return all
}

// NewPatient adds the current patient to the front of the roster.
func (s *Session) NewPatient(ctx context.Context) (entities.RosterPatient, error) {
	s.mu.Lock()
	if strings.TrimSpace(s.patient.Name) == "" {
		s.mu.Unlock()
		return entities.RosterPatient{}, ErrPatientNameRequired
	}
	pid := s.assignIDLocked()
	p := entities.RosterPatient{
		ID:     pid,
		Name:   s.patient.Name,
		Age:    s.patient.Age,
		Gender: s.patient.Gender,
		Phone:  s.patient.Phone,
	}
	s.roster = append([]entities.RosterPatient{p}, s.roster...)
	roster := append([]entities.RosterPatient{}, s.roster...)
	s.mu.Unlock()

	if err := storage.SetJSON(ctx, s.store, storage.KeyPatients, roster); err != nil {
		s.persistFailed("patient roster", err)
	}
	return p, nil
}

// Roster returns the patients, newest first.
func (s *Session) Roster() []entities.RosterPatient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.RosterPatient{}, s.roster...)
}

// Branding returns the saved branding without defaults applied.
func (s *Session) Branding() entities.Branding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branding
}

// SaveBranding replaces the header text. An empty logo keeps the current one.
func (s *Session) SaveBranding(ctx context.Context, b entities.Branding) entities.Branding {
	s.mu.Lock()
	if b.LogoImage == "" {
		b.LogoImage = s.branding.LogoImage
	}
	s.branding = b
	s.mu.Unlock()

	if err := storage.SetJSON(ctx, s.store, storage.KeyBranding, b); err != nil {
		s.persistFailed("branding", err)
	}
	return b
}

// SetLogo stores image as a base64 data URL on the branding record.
func (s *Session) SetLogo(ctx context.Context, contentType string, image []byte) entities.Branding {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	dataURL := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image)

	s.mu.Lock()
	s.branding.LogoImage = dataURL
	b := s.branding
	s.mu.Unlock()

	if err := storage.SetJSON(ctx, s.store, storage.KeyBranding, b); err != nil {
		s.persistFailed("branding", err)
	}
	return b
}

// Bundle is the JSON export of the local records.
type Bundle struct {
	Patients []entities.RosterPatient `json:"patients"`
	Autosave *entities.AutosaveRecord `json:"autosave"`
	Rx       []entities.CartEntry     `json:"rx"`
}

// ExportBundle returns the roster, the stored autosave record and the cart
// as indented JSON.
func (s *Session) ExportBundle(ctx context.Context) ([]byte, error) {
	bundle := Bundle{
		Patients: s.Roster(),
		Rx:       s.Cart.Snapshot(),
	}

	var rec entities.AutosaveRecord
	switch err := storage.GetJSON(ctx, s.store, storage.KeyAutosave, &rec); {
	case err == nil:
		bundle.Autosave = &rec
	case !errors.Is(err, storage.ErrNotFound):
		logging.Warn("Exporting without unreadable autosave record", "error", err)
	}

	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export bundle: %w", err)
	}
	return out, nil
}
