// Package session holds the state of one composer encounter: patient, vitals,
// notes, branding and the medicine cart. Renderers read it through Record.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/giygas/rxcomposer/cart"
	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/richtext"
	"github.com/giygas/rxcomposer/storage"
	"github.com/google/uuid"
)

var (
	ErrPatientNameRequired = errors.New("patient name is required")
	ErrBMIInputs           = errors.New("enter weight (kg) and height (cm) to calculate BMI")
	ErrNoVitals            = errors.New("no vitals to copy")
)

// DefaultGender is preselected on a fresh or cleared form.
const DefaultGender = "M"

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Options configures a Session. Only Store is required.
type Options struct {
	Store interfaces.KVStore
	Now   func() time.Time
	// IDSuffix returns the random part of generated patient ids.
	IDSuffix func() string
	// OnAutosave observes every autosave attempt.
	OnAutosave func(err error)
	// OnCartChange observes cart mutations.
	OnCartChange func(op string, entries []entities.CartEntry)
	NewEntryID   func() string
}

// Session is the explicit state object shared by the command handlers.
type Session struct {
	mu           sync.RWMutex
	patient      entities.Patient
	vitals       entities.Vitals
	notes        entities.Notes
	branding     entities.Branding
	roster       []entities.RosterPatient
	lastAutosave time.Time
	notices      []string

	Cart *cart.Manager

	store      interfaces.KVStore
	now        func() time.Time
	idSuffix   func() string
	onAutosave func(err error)
}

func New(opts Options) *Session {
	s := &Session{
		patient:    entities.Patient{Gender: DefaultGender},
		roster:     []entities.RosterPatient{},
		store:      opts.Store,
		now:        opts.Now,
		idSuffix:   opts.IDSuffix,
		onAutosave: opts.OnAutosave,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.idSuffix == nil {
		s.idSuffix = randomSuffix
	}
	s.Cart = cart.NewManager(cart.Options{
		Store:    opts.Store,
		OnChange: opts.OnCartChange,
		Notify:   s.Notify,
		NewID:    opts.NewEntryID,
	})
	return s
}

func randomSuffix() string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}

// Load restores branding, the roster, the cart and, when present, the
// autosaved form fields. It returns the record the cart was restored from.
func (s *Session) Load(ctx context.Context) string {
	var b entities.Branding
	if err := storage.GetJSON(ctx, s.store, storage.KeyBranding, &b); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.Warn("Ignoring unreadable branding record", "error", err)
	}

	var roster []entities.RosterPatient
	if err := storage.GetJSON(ctx, s.store, storage.KeyPatients, &roster); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.Warn("Ignoring unreadable patient roster", "error", err)
	}
	if roster == nil {
		roster = []entities.RosterPatient{}
	}

	var rec entities.AutosaveRecord
	err := storage.GetJSON(ctx, s.store, storage.KeyAutosave, &rec)
	hasAutosave := err == nil

	s.mu.Lock()
	s.branding = b
	s.roster = roster
	if hasAutosave {
		s.patient = rec.Patient
		if s.patient.Gender == "" {
			s.patient.Gender = DefaultGender
		}
		s.vitals = rec.Vitals
		s.notes = rec.Notes
		s.lastAutosave = rec.Timestamp
	}
	s.mu.Unlock()

	source := s.Cart.Hydrate(ctx)
	logging.Info("Session restored", "cart_source", source, "entries", s.Cart.Len(), "autosave", hasAutosave)
	return source
}

// Notify queues a message for the user.
func (s *Session) Notify(msg string) {
	s.mu.Lock()
	s.notices = append(s.notices, msg)
	s.mu.Unlock()
}

// DrainNotices returns and clears the queued messages.
func (s *Session) DrainNotices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

func (s *Session) persistFailed(what string, err error) {
	logging.Error("Session persistence failed", "record", what, "error", err)
	s.Notify(fmt.Sprintf("Could not save %s locally: %v", what, err))
}

// Fields are the editable form values.
type Fields struct {
	Patient entities.Patient `json:"patient"`
	Vitals  entities.Vitals  `json:"vitals"`
	Notes   entities.Notes   `json:"notes"`
}

// Fields returns the current form values.
func (s *Session) Fields() Fields {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Fields{Patient: s.patient, Vitals: s.vitals, Notes: s.notes}
}

// SetFields replaces the form values. Note HTML is sanitized.
func (s *Session) SetFields(f Fields) {
	f.Notes.ChiefComplaint = richtext.Sanitize(f.Notes.ChiefComplaint)
	f.Notes.Observation = richtext.Sanitize(f.Notes.Observation)
	f.Notes.Investigation = richtext.Sanitize(f.Notes.Investigation)
	f.Notes.Diagnosis = richtext.Sanitize(f.Notes.Diagnosis)

	s.mu.Lock()
	s.patient = f.Patient
	s.vitals = f.Vitals
	s.notes = f.Notes
	s.mu.Unlock()
}

// AssignPatientID keeps a non-blank id or generates P-YYYYMMDD-XXXX.
func (s *Session) AssignPatientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignIDLocked()
}

func (s *Session) assignIDLocked() string {
	if id := strings.TrimSpace(s.patient.ID); id != "" {
		return id
	}
	id := "P-" + s.now().Format("20060102") + "-" + s.idSuffix()
	s.patient.ID = id
	return id
}

// Record copies the session for the renderers.
func (s *Session) Record() entities.Record {
	s.mu.RLock()
	rec := entities.Record{
		Patient:   s.patient,
		Vitals:    s.vitals,
		Notes:     s.notes,
		Branding:  s.branding,
		PrintedAt: s.now(),
	}
	s.mu.RUnlock()

	rec.Rx = s.Cart.Snapshot()
	return rec
}

// ClearAll resets every form field and empties the cart after confirmation.
func (s *Session) ClearAll(ctx context.Context, confirm cart.ConfirmFunc) error {
	if confirm == nil || !confirm("Clear all fields?") {
		return cart.ErrNotConfirmed
	}

	s.mu.Lock()
	s.patient = entities.Patient{Gender: DefaultGender}
	s.vitals = entities.Vitals{}
	s.notes = entities.Notes{}
	s.mu.Unlock()

	s.Cart.Reset(ctx)
	s.RenderPreview(ctx)
	return nil
}

// LastAutosave returns when the session snapshot was last written.
func (s *Session) LastAutosave() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAutosave
}

func newDocumentID() string {
	return uuid.NewString()
}
