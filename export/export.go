// Package export renders a session record as CSV, an XLSX workbook, a
// printable HTML document and a PDF.
package export

import (
	"regexp"
	"strings"

	"github.com/giygas/rxcomposer/entities"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// BundleFilename names the JSON export of the local records.
const BundleFilename = "fit_clinic_export.json"

// CSVFilename is patient_<id>.csv.
func CSVFilename(rec entities.Record) string {
	return "patient_" + safeName(rec.Patient.ID) + ".csv"
}

// XLSXFilename is <clinic>_prescription_<id>.xlsx with spaces in the clinic
// name replaced by underscores.
func XLSXFilename(rec entities.Record) string {
	clinic := whitespaceRun.ReplaceAllString(rec.Branding.WithDefaults().ClinicName, "_")
	return safeName(clinic) + "_prescription_" + safeName(rec.Patient.ID) + ".xlsx"
}

// PDFFilename is prescription_<id>.pdf.
func PDFFilename(rec entities.Record) string {
	return "prescription_" + safeName(rec.Patient.ID) + ".pdf"
}

// safeName drops characters that would break a Content-Disposition filename.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
