// Package storage provides the local key-value store behind the persisted
// composer records (cart, autosave, branding, roster, saved prescriptions).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/giygas/rxcomposer/interfaces"
)

// Keys of the persisted records.
const (
	KeyCart          = "rx.cart"
	KeyAutosave      = "rx.autosave"
	KeyBranding      = "rx.branding"
	KeyPatients      = "rx.patients"
	KeyPrescriptions = "rx.prescriptions"
	KeyLastDraft     = "rx.last_draft"
)

// ErrNotFound is returned when a key has no record.
var ErrNotFound = errors.New("record not found")

// GetJSON decodes the record at key into v.
func GetJSON(ctx context.Context, s interfaces.KVStore, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and writes it under key, replacing the previous record.
func SetJSON(ctx context.Context, s interfaces.KVStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// Prepend reads the JSON list at key, puts item first, and writes it back.
func Prepend[T any](ctx context.Context, s interfaces.KVStore, key string, item T) error {
	var list []T
	if err := GetJSON(ctx, s, key, &list); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	list = append([]T{item}, list...)
	return SetJSON(ctx, s, key, list)
}
