package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/richtext"
)

// CSVHeader lists the 20 columns of the patient export.
var CSVHeader = []string{
	"Patient ID", "Name", "Age", "Gender", "Phone", "Visit Date",
	"BP", "Pulse", "RR", "Temp", "SpO2", "Weight (kg)", "Height (cm)", "BMI", "Glucose (mg/dL)",
	"C/o", "Observation", "Investigation", "Diagnosis", "Medicines (Type|Name|Dose|Freq|Dur|Remarks)",
}

// FlattenMedicines joins each line's fields with "|" and the lines with " || ".
func FlattenMedicines(rx []entities.CartEntry) string {
	lines := make([]string, len(rx))
	for i, m := range rx {
		lines[i] = strings.Join([]string{m.Type, m.Name, m.Dosage, m.Timings, m.Days, m.Remarks}, "|")
	}
	return strings.Join(lines, " || ")
}

// CSVRow returns the data row matching CSVHeader.
func CSVRow(rec entities.Record) []string {
	p, v, n := rec.Patient, rec.Vitals, rec.Notes
	return []string{
		p.ID, p.Name, p.Age, p.Gender, p.Phone, p.VisitDate,
		v.BP, v.Pulse, v.RR, v.Temp, v.SpO2, v.Weight, v.Height, v.BMI, v.Glucose,
		richtext.PlainText(n.ChiefComplaint),
		richtext.PlainText(n.Observation),
		richtext.PlainText(n.Investigation),
		richtext.PlainText(n.Diagnosis),
		FlattenMedicines(rec.Rx),
	}
}

// WriteCSV writes the header and the single patient row with CRLF line endings.
func WriteCSV(w io.Writer, rec entities.Record) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("patient csv: write header: %w", err)
	}
	if err := cw.Write(CSVRow(rec)); err != nil {
		return fmt.Errorf("patient csv: write record: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
