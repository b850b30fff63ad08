package entities

import (
	"strings"
	"time"
)

type Patient struct {
	Name      string `json:"name"`
	Age       string `json:"age"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	ID        string `json:"id"`
	VisitDate string `json:"visitDate,omitempty"`
}

type Vitals struct {
	BP      string `json:"bp"`
	Pulse   string `json:"pulse"`
	RR      string `json:"rr"`
	Temp    string `json:"temp"`
	SpO2    string `json:"spo2"`
	Weight  string `json:"weight"`
	Height  string `json:"height"`
	BMI     string `json:"bmi"`
	Glucose string `json:"glu"`
}

// Text renders the non-empty vitals as one display line.
func (v Vitals) Text() string {
	parts := make([]string, 0, 9)
	add := func(label, value, unit string) {
		if value != "" {
			parts = append(parts, label+value+unit)
		}
	}
	add("BP: ", v.BP, "")
	add("Pulse: ", v.Pulse, " bpm")
	add("RR: ", v.RR, "")
	add("Temp: ", v.Temp, " °C")
	add("SpO₂: ", v.SpO2, "%")
	add("Wt: ", v.Weight, " kg")
	add("Ht: ", v.Height, " cm")
	add("BMI: ", v.BMI, "")
	add("Glu: ", v.Glucose, " mg/dL")
	return strings.Join(parts, " • ")
}

// Notes are rich-text (HTML) clinical sections.
type Notes struct {
	ChiefComplaint string `json:"co"`
	Observation    string `json:"obs"`
	Investigation  string `json:"invest"`
	Diagnosis      string `json:"dx"`
	DoctorNotes    string `json:"doctorNotes,omitempty"`
}

// AutosaveRecord is the full session snapshot written on every preview render.
type AutosaveRecord struct {
	Timestamp time.Time   `json:"ts"`
	Patient   Patient     `json:"patient"`
	Vitals    Vitals      `json:"vitals"`
	Notes     Notes       `json:"notes"`
	Rx        []CartEntry `json:"rx"`
}

// Prescription is a saved draft or final document.
type Prescription struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"ts"`
	Patient   Patient     `json:"patient"`
	Vitals    Vitals      `json:"vitals"`
	Notes     Notes       `json:"notes"`
	Rx        []CartEntry `json:"rx"`
}

// RosterPatient is an entry of the patient roster.
type RosterPatient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    string `json:"age"`
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
}

// Record is a read-only copy of a session, consumed by the renderers.
type Record struct {
	Patient   Patient     `json:"patient"`
	Vitals    Vitals      `json:"vitals"`
	Notes     Notes       `json:"notes"`
	Branding  Branding    `json:"branding"`
	Rx        []CartEntry `json:"rx"`
	PrintedAt time.Time   `json:"printedAt"`
}
