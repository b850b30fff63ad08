// Package validation provides input validation for the Rx composer.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/interfaces"
)

const (
	MaxQueryLength    = 100
	MaxNameLength     = 200
	MaxFieldLength    = 200
	MaxRemarksLength  = 500
	MaxTypeLength     = 30
	MaxStrengthLength = 100
	MaxFormLength     = 50
	MaxLogoSize       = 1 << 20
)

var allowedLogoTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateMedicine checks a reference dataset row
func (v *DataValidatorImpl) ValidateMedicine(m *entities.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine is nil")
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("empty medicine name")
	}

	if len(m.Name) > MaxNameLength {
		return fmt.Errorf("medicine name too long: %d characters", len(m.Name))
	}

	if len(m.Strength) > MaxStrengthLength {
		return fmt.Errorf("strength too long for %s: %d characters", m.Name, len(m.Strength))
	}

	if len(m.Form) > MaxFormLength {
		return fmt.Errorf("form too long for %s: %d characters", m.Name, len(m.Form))
	}

	return nil
}

// ValidateDraft checks field lengths and characters of a pending cart line.
// An empty name is left to the cart, which owns that rule.
func (v *DataValidatorImpl) ValidateDraft(d *entities.Draft) error {
	if d == nil {
		return fmt.Errorf("draft is nil")
	}

	fields := []struct {
		label string
		value string
		max   int
	}{
		{"type", d.Type, MaxTypeLength},
		{"name", d.Name, MaxNameLength},
		{"dosage", d.Dosage, MaxFieldLength},
		{"timings", d.Timings, MaxFieldLength},
		{"days", d.Days, MaxFieldLength},
		{"remarks", d.Remarks, MaxRemarksLength},
	}

	for _, f := range fields {
		if len(f.value) > f.max {
			return fmt.Errorf("%s too long: maximum %d characters", f.label, f.max)
		}
		if hasControlChars(f.value) {
			return fmt.Errorf("%s contains control characters", f.label)
		}
	}

	return nil
}

// ValidateQuery validates a suggestion query. The empty query is valid.
func (v *DataValidatorImpl) ValidateQuery(input string) error {
	if len(input) > MaxQueryLength {
		return fmt.Errorf("query too long: maximum %d characters", MaxQueryLength)
	}

	if hasControlChars(input) {
		return fmt.Errorf("query contains control characters")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("query contains excessive character repetition")
	}

	return nil
}

// ValidateIndex parses a zero-based cart position.
// No regex used - strconv.Atoi() validates numeric format for free
func (v *DataValidatorImpl) ValidateIndex(input string) (int, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return -1, fmt.Errorf("index cannot be empty")
	}

	if len(input) != len(trimmedInput) {
		return -1, fmt.Errorf("index contains invalid characters. Only numeric characters are allowed")
	}

	idx, err := strconv.Atoi(trimmedInput)
	if err != nil {
		return -1, fmt.Errorf("index contains invalid characters. Only numeric characters are allowed")
	}

	if idx < 0 {
		return -1, fmt.Errorf("index cannot be negative")
	}

	return idx, nil
}

// ValidateLogo checks an uploaded logo image
func (v *DataValidatorImpl) ValidateLogo(contentType string, size int64) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedLogoTypes[mediaType] {
		return fmt.Errorf("unsupported logo type %q", contentType)
	}

	if size <= 0 {
		return fmt.Errorf("logo is empty")
	}

	if size > MaxLogoSize {
		return fmt.Errorf("logo too large: %d bytes, maximum %d", size, MaxLogoSize)
	}

	return nil
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\t' {
			return true
		}
	}
	return false
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
