package session

import (
	"strconv"
	"strings"

	"github.com/giygas/rxcomposer/richtext"
)

// Normal adult vitals used by FillNormalVitals.
const (
	NormalBP    = "120/80"
	NormalPulse = "72"
	NormalSpO2  = "98"
	NormalTemp  = "98"
)

// VitalsText renders the non-empty vitals on one line.
func (s *Session) VitalsText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vitals.Text()
}

// CalcBMI computes weight / (height in m)^2 to one decimal and stores it.
func (s *Session) CalcBMI() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := parseMeasure(s.vitals.Weight)
	hcm := parseMeasure(s.vitals.Height)
	if w == 0 || hcm == 0 {
		return "", ErrBMIInputs
	}

	m := hcm / 100
	bmi := strconv.FormatFloat(w/(m*m), 'f', 1, 64)
	s.vitals.BMI = bmi
	return bmi, nil
}

// parseMeasure reads the leading number of a field, 0 when there is none.
func parseMeasure(v string) float64 {
	v = strings.TrimSpace(v)
	end := 0
	for end < len(v) && (v[end] >= '0' && v[end] <= '9' || v[end] == '.' || (end == 0 && (v[end] == '-' || v[end] == '+'))) {
		end++
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(v[:end], 64); err == nil {
			return f
		}
		end--
	}
	return 0
}

// FillNormalVitals sets BP, pulse, SpO2 and temperature to normal values.
func (s *Session) FillNormalVitals() {
	s.mu.Lock()
	s.vitals.BP = NormalBP
	s.vitals.Pulse = NormalPulse
	s.vitals.SpO2 = NormalSpO2
	s.vitals.Temp = NormalTemp
	s.mu.Unlock()
}

// CopyVitalsToObservation prepends the vitals line to the observation note.
func (s *Session) CopyVitalsToObservation() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txt := s.vitals.Text()
	if txt == "" {
		return ErrNoVitals
	}
	s.notes.Observation = "<div>" + richtext.Escape(txt) + "</div>" + s.notes.Observation
	return nil
}
