package export

import (
	"fmt"
	"io"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/richtext"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook, in order.
const (
	SheetPatient      = "Patient Info"
	SheetVitals       = "Vitals"
	SheetNotes        = "Notes"
	SheetPrescription = "Prescription"
)

type field struct {
	name  string
	value string
}

// PrescriptionHeader is the first row of the Prescription sheet.
var PrescriptionHeader = []any{"SlNo", "Type", "Medicine", "Dose", "Freq", "Dur", "Remarks"}

// BuildWorkbook lays the record out on four sheets. The caller closes the file.
func BuildWorkbook(rec entities.Record) (*excelize.File, error) {
	p, v, n, b := rec.Patient, rec.Vitals, rec.Notes, rec.Branding

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetPatient); err != nil {
		f.Close()
		return nil, fmt.Errorf("renaming first sheet: %w", err)
	}

	sheets := []struct {
		name   string
		fields []field
	}{
		{SheetPatient, []field{
			{"Name", p.Name},
			{"Age", p.Age},
			{"Gender", p.Gender},
			{"Phone", p.Phone},
			{"Patient ID", p.ID},
			{"Visit Date", p.VisitDate},
			{"Doctor", b.DoctorName},
			{"Clinic", b.ClinicName},
		}},
		{SheetVitals, []field{
			{"BP", v.BP},
			{"Pulse", v.Pulse},
			{"RR", v.RR},
			{"Temp", v.Temp},
			{"SpO2", v.SpO2},
			{"Weight (kg)", v.Weight},
			{"Height (cm)", v.Height},
			{"BMI", v.BMI},
			{"Glucose", v.Glucose},
		}},
		{SheetNotes, []field{
			{"Chief Complaint (C/o)", richtext.PlainText(n.ChiefComplaint)},
			{"Observation", richtext.PlainText(n.Observation)},
			{"Investigation / Advice", richtext.PlainText(n.Investigation)},
			{"Diagnosis (Dx)", richtext.PlainText(n.Diagnosis)},
			{"Doctor Notes", n.DoctorNotes},
		}},
	}

	for _, sh := range sheets {
		if sh.name != SheetPatient {
			if _, err := f.NewSheet(sh.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("creating sheet %s: %w", sh.name, err)
			}
		}
		if err := writeFieldSheet(f, sh.name, sh.fields); err != nil {
			f.Close()
			return nil, err
		}
	}

	if _, err := f.NewSheet(SheetPrescription); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating sheet %s: %w", SheetPrescription, err)
	}
	if err := f.SetSheetRow(SheetPrescription, "A1", &PrescriptionHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing %s header: %w", SheetPrescription, err)
	}
	for i, m := range rec.Rx {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []any{i + 1, m.Type, m.Name, m.Dosage, m.Timings, m.Days, m.Remarks}
		if err := f.SetSheetRow(SheetPrescription, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing prescription row %d: %w", i+1, err)
		}
	}

	return f, nil
}

func writeFieldSheet(f *excelize.File, sheet string, fields []field) error {
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Field", "Value"}); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i, fl := range fields {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{fl.name, fl.value}); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// WriteXLSX builds the workbook and writes it to w.
func WriteXLSX(w io.Writer, rec entities.Record) error {
	f, err := BuildWorkbook(rec)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
