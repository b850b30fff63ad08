// Package interfaces defines core abstractions for the Rx composer
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/giygas/rxcomposer/entities"
)

// KVStore is the local key-value store holding the persisted records.
// Values are opaque serialized documents.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ReferenceStore defines the contract for the medicine reference set.
// The set is loaded once and immutable afterwards.
type ReferenceStore interface {
	GetMedicines() []entities.Medicine
	GetLastLoaded() time.Time
	GetSource() string
	IsLoading() bool
	GetServerStartTime() time.Time

	UpdateData(medicines []entities.Medicine, source string)
	BeginUpdate() bool
	EndUpdate()
}

// Loader defines the contract for reading the medicine dataset from external sources.
type Loader interface {
	LoadMedicines(ctx context.Context) ([]entities.Medicine, string, error)
}

// Scheduler defines the contract for background jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)
}

// DataValidator defines the contract for input validation operations.
type DataValidator interface {
	// ValidateMedicine checks a reference dataset row
	ValidateMedicine(m *entities.Medicine) error

	// ValidateDraft checks a prescription line before it is committed
	ValidateDraft(d *entities.Draft) error

	// ValidateQuery checks a suggestion query string
	ValidateQuery(input string) error

	// ValidateIndex parses a cart position from user input
	ValidateIndex(input string) (int, error)

	// ValidateLogo checks an uploaded logo image
	ValidateLogo(contentType string, size int64) error
}
