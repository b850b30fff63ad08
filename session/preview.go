package session

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/richtext"
	"github.com/giygas/rxcomposer/storage"
)

const placeholder = "--"

// PreviewTimeLayout formats the preview date lines.
const PreviewTimeLayout = "02 Jan 2006, 15:04"

// PreviewLine is one medicine row of the live preview.
type PreviewLine struct {
	Medicine string `json:"medicine"`
	Dosage   string `json:"dosage"`
	Timings  string `json:"timings"`
	Days     string `json:"days"`
}

// Preview is the display-only projection of the session.
type Preview struct {
	Date           string            `json:"date"`
	Name           string            `json:"name"`
	IDLine         string            `json:"idLine"`
	Vitals         string            `json:"vitals"`
	Details        string            `json:"details"`
	ChiefComplaint string            `json:"co"`
	Observation    string            `json:"obs"`
	Investigation  string            `json:"invest"`
	Diagnosis      string            `json:"dx"`
	Medicines      []PreviewLine     `json:"medicines"`
	Branding       entities.Branding `json:"branding"`
	Printed        string            `json:"printed"`
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// BuildPreview projects a record without touching any state.
func BuildPreview(rec entities.Record) Preview {
	p := Preview{
		Date:           rec.PrintedAt.Format(PreviewTimeLayout),
		Name:           orPlaceholder(rec.Patient.Name),
		Vitals:         orPlaceholder(rec.Vitals.Text()),
		Details:        "Age: " + orPlaceholder(rec.Patient.Age) + " • Gender: " + orPlaceholder(rec.Patient.Gender) + " • Phone: " + orPlaceholder(rec.Patient.Phone),
		ChiefComplaint: orPlaceholder(richtext.PlainText(rec.Notes.ChiefComplaint)),
		Observation:    orPlaceholder(richtext.PlainText(rec.Notes.Observation)),
		Investigation:  orPlaceholder(richtext.PlainText(rec.Notes.Investigation)),
		Diagnosis:      orPlaceholder(richtext.PlainText(rec.Notes.Diagnosis)),
		Medicines:      make([]PreviewLine, 0, len(rec.Rx)),
		Branding:       rec.Branding.WithDefaults(),
		Printed:        rec.PrintedAt.Format(PreviewTimeLayout),
	}
	if rec.Patient.ID != "" {
		p.IDLine = "ID: " + rec.Patient.ID
	}

	for _, e := range rec.Rx {
		med := e.Name
		if e.Dosage != "" {
			med += " (" + e.Dosage + ")"
		}
		p.Medicines = append(p.Medicines, PreviewLine{
			Medicine: med,
			Dosage:   e.Dosage,
			Timings:  e.Timings,
			Days:     e.Days,
		})
	}
	return p
}

// RenderPreview projects the current session and writes the autosave record.
// A failed autosave leaves a notice; the preview is still returned.
func (s *Session) RenderPreview(ctx context.Context) Preview {
	rec := s.Record()
	if err := s.autosave(ctx, rec); err != nil {
		s.Notify(fmt.Sprintf("Could not save autosave locally: %v", err))
	}
	return BuildPreview(rec)
}

// Autosave writes the full session snapshot.
func (s *Session) Autosave(ctx context.Context) error {
	return s.autosave(ctx, s.Record())
}

func (s *Session) autosave(ctx context.Context, rec entities.Record) error {
	snapshot := entities.AutosaveRecord{
		Timestamp: rec.PrintedAt.UTC(),
		Patient:   rec.Patient,
		Vitals:    rec.Vitals,
		Notes:     rec.Notes,
		Rx:        rec.Rx,
	}

	err := storage.SetJSON(ctx, s.store, storage.KeyAutosave, snapshot)
	if err != nil {
		logging.Warn("Autosave failed", "error", err)
	} else {
		s.mu.Lock()
		s.lastAutosave = snapshot.Timestamp
		s.mu.Unlock()
	}

	if s.onAutosave != nil {
		s.onAutosave(err)
	}
	return err
}

// AutosaveAge returns how long ago the last successful autosave happened,
// or zero if there was none.
func (s *Session) AutosaveAge() time.Duration {
	last := s.LastAutosave()
	if last.IsZero() {
		return 0
	}
	return s.now().Sub(last)
}
