// Package cart implements the ordered prescription line list of a composer
// session. Every successful mutation writes the full list to the store and
// reports the change to the registered callback.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/storage"
	"github.com/google/uuid"
)

var (
	ErrEmptyName    = errors.New("medicine name is required")
	ErrOutOfRange   = errors.New("cart index out of range")
	ErrNotConfirmed = errors.New("confirmation required")
	ErrNotFound     = errors.New("cart entry not found")
)

// Operation labels passed to the change callback.
const (
	OpAdd     = "add"
	OpEdit    = "edit"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpMove    = "move"
	OpClear   = "clear"
	OpHydrate = "hydrate"
)

// ConfirmFunc asks the user to approve a destructive action.
type ConfirmFunc func(prompt string) bool

// Confirmed approves every prompt.
func Confirmed(string) bool { return true }

// Declined refuses every prompt.
func Declined(string) bool { return false }

// Options configures a Manager. Only Store is required.
type Options struct {
	Store interfaces.KVStore
	// OnChange receives the operation and the list after it.
	OnChange func(op string, entries []entities.CartEntry)
	// Notify reports store failures to the user.
	Notify func(msg string)
	NewID  func() string
}

// Manager owns the cart list.
type Manager struct {
	mu       sync.Mutex
	entries  []entities.CartEntry
	store    interfaces.KVStore
	onChange func(op string, entries []entities.CartEntry)
	notify   func(msg string)
	newID    func() string
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		entries:  []entities.CartEntry{},
		store:    opts.Store,
		onChange: opts.OnChange,
		notify:   opts.Notify,
		newID:    opts.NewID,
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// Add appends a new entry built from draft. A blank name is rejected with
// no change and no write.
func (m *Manager) Add(ctx context.Context, d entities.Draft) (entities.CartEntry, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return entities.CartEntry{}, ErrEmptyName
	}

	entry := entities.CartEntry{
		ID:      m.newID(),
		Type:    d.Type,
		Name:    name,
		Dosage:  d.Dosage,
		Timings: d.Timings,
		Days:    d.Days,
		Remarks: d.Remarks,
	}
	if entry.Type == "" {
		entry.Type = entities.DefaultEntryType
	}

	m.mu.Lock()
	m.entries = append(m.entries, entry)
	snap := m.commit(ctx)
	m.mu.Unlock()

	m.changed(OpAdd, snap)
	return entry, nil
}

// BeginEdit removes the entry at index and returns its fields for the
// caller's form. The entry is gone until re-added. Out of range is a no-op.
func (m *Manager) BeginEdit(ctx context.Context, index int) (entities.Draft, bool) {
	m.mu.Lock()
	if index < 0 || index >= len(m.entries) {
		m.mu.Unlock()
		return entities.Draft{}, false
	}
	draft := m.entries[index].Draft()
	m.entries = append(m.entries[:index], m.entries[index+1:]...)
	snap := m.commit(ctx)
	m.mu.Unlock()

	m.changed(OpEdit, snap)
	return draft, true
}

// Update replaces the fields of the entry with id, keeping its id and position.
func (m *Manager) Update(ctx context.Context, id string, d entities.Draft) (entities.CartEntry, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return entities.CartEntry{}, ErrEmptyName
	}

	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		return entities.CartEntry{}, ErrNotFound
	}

	e := &m.entries[idx]
	e.Type = d.Type
	if e.Type == "" {
		e.Type = entities.DefaultEntryType
	}
	e.Name = name
	e.Dosage = d.Dosage
	e.Timings = d.Timings
	e.Days = d.Days
	e.Remarks = d.Remarks
	updated := *e

	snap := m.commit(ctx)
	m.mu.Unlock()

	m.changed(OpUpdate, snap)
	return updated, nil
}

// Delete removes the entry at index after confirmation.
func (m *Manager) Delete(ctx context.Context, index int, confirm ConfirmFunc) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.entries) {
		m.mu.Unlock()
		return ErrOutOfRange
	}
	name := m.entries[index].Name
	m.mu.Unlock()

	// The prompt runs unlocked; re-check the entry is still there afterwards.
	if confirm == nil || !confirm("Delete "+name+"?") {
		return ErrNotConfirmed
	}

	m.mu.Lock()
	if index >= len(m.entries) {
		m.mu.Unlock()
		return ErrOutOfRange
	}
	m.entries = append(m.entries[:index], m.entries[index+1:]...)
	snap := m.commit(ctx)
	m.mu.Unlock()

	m.changed(OpDelete, snap)
	return nil
}

// Move takes the entry at from and reinserts it at to.
func (m *Manager) Move(ctx context.Context, from, to int) error {
	m.mu.Lock()
	n := len(m.entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		m.mu.Unlock()
		return ErrOutOfRange
	}

	item := m.entries[from]
	rest := append(m.entries[:from:from], m.entries[from+1:]...)
	moved := make([]entities.CartEntry, 0, n)
	moved = append(moved, rest[:to]...)
	moved = append(moved, item)
	moved = append(moved, rest[to:]...)
	m.entries = moved

	snap := m.commit(ctx)
	m.mu.Unlock()

	m.changed(OpMove, snap)
	return nil
}

// Clear empties the cart and erases its record after confirmation.
func (m *Manager) Clear(ctx context.Context, confirm ConfirmFunc) error {
	if confirm == nil || !confirm("Clear all medicines?") {
		return ErrNotConfirmed
	}
	m.Reset(ctx)
	return nil
}

// Reset empties the cart and erases its record without asking.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	m.entries = []entities.CartEntry{}
	if err := m.store.Delete(ctx, storage.KeyCart); err != nil {
		m.storeFailed("clear", err)
	}
	m.mu.Unlock()

	m.changed(OpClear, nil)
}

// Snapshot returns a copy of the current list in display order.
func (m *Manager) Snapshot() []entities.CartEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Hydrate replaces the list from the store: the autosave record if present,
// else the cart record, else empty. It returns the key used, or "".
func (m *Manager) Hydrate(ctx context.Context) string {
	entries, source := m.loadPersisted(ctx)

	m.mu.Lock()
	m.entries = entries
	snap := m.copyLocked()
	m.mu.Unlock()

	m.changed(OpHydrate, snap)
	return source
}

// Replace installs entries as the current list, e.g. from a restored autosave.
func (m *Manager) Replace(ctx context.Context, entries []entities.CartEntry) {
	m.mu.Lock()
	m.entries = append([]entities.CartEntry{}, entries...)
	snap := m.commit(ctx)
	m.mu.Unlock()

	m.changed(OpHydrate, snap)
}

func (m *Manager) loadPersisted(ctx context.Context) ([]entities.CartEntry, string) {
	var rec entities.AutosaveRecord
	err := storage.GetJSON(ctx, m.store, storage.KeyAutosave, &rec)
	if err == nil && rec.Rx != nil {
		return rec.Rx, storage.KeyAutosave
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.Warn("Ignoring unreadable autosave record", "error", err)
	}

	var entries []entities.CartEntry
	err = storage.GetJSON(ctx, m.store, storage.KeyCart, &entries)
	if err == nil && entries != nil {
		return entries, storage.KeyCart
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.Warn("Ignoring unreadable cart record", "error", err)
	}

	return []entities.CartEntry{}, ""
}

func (m *Manager) indexOf(id string) int {
	for i := range m.entries {
		if m.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) copyLocked() []entities.CartEntry {
	out := make([]entities.CartEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// commit writes the whole list and returns a copy of it. Callers hold mu.
// A failed write is reported but the in-memory list is kept.
func (m *Manager) commit(ctx context.Context) []entities.CartEntry {
	snap := m.copyLocked()
	if err := storage.SetJSON(ctx, m.store, storage.KeyCart, snap); err != nil {
		m.storeFailed("save", err)
	}
	return snap
}

func (m *Manager) storeFailed(action string, err error) {
	logging.Error("Cart persistence failed", "action", action, "error", err)
	if m.notify != nil {
		m.notify("Could not " + action + " the medicine list locally: " + err.Error())
	}
}

func (m *Manager) changed(op string, snap []entities.CartEntry) {
	if m.onChange != nil {
		if snap == nil {
			snap = []entities.CartEntry{}
		}
		m.onChange(op, snap)
	}
}
