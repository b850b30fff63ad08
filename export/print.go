package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/richtext"
)

//go:embed templates/*.html
var templatesFS embed.FS

var printTemplate = template.Must(template.ParseFS(templatesFS, "templates/print.html"))

// PrintTimeLayout formats the printed-at line.
const PrintTimeLayout = "02 Jan 2006, 15:04"

// Section is one clinical note block of the printed document.
type Section struct {
	ID    string
	Label string
	Text  string
}

// PrintDocument is the data behind the print template.
type PrintDocument struct {
	Branding entities.Branding
	Logo     template.URL
	Printed  string
	Patient  entities.Patient
	Vitals   string
	Sections []Section
	Rx       []entities.CartEntry
}

// NewPrintDocument projects rec for printing. All four clinical sections are
// always present.
func NewPrintDocument(rec entities.Record) PrintDocument {
	doc := PrintDocument{
		Branding: rec.Branding.WithDefaults(),
		Printed:  rec.PrintedAt.Format(PrintTimeLayout),
		Patient:  rec.Patient,
		Vitals:   rec.Vitals.Text(),
		Sections: []Section{
			{ID: "co", Label: "C/o", Text: richtext.PlainText(rec.Notes.ChiefComplaint)},
			{ID: "obs", Label: "Observation", Text: richtext.PlainText(rec.Notes.Observation)},
			{ID: "invest", Label: "Investigation", Text: richtext.PlainText(rec.Notes.Investigation)},
			{ID: "dx", Label: "Diagnosis", Text: richtext.PlainText(rec.Notes.Diagnosis)},
		},
		Rx: rec.Rx,
	}

	// Only inline image data is trusted as a logo source.
	if logo := rec.Branding.LogoImage; strings.HasPrefix(logo, "data:image/") && !strings.ContainsAny(logo, "\"'<> ") {
		doc.Logo = template.URL(logo)
	}
	return doc
}

// WritePrintHTML renders the printable document.
func WritePrintHTML(w io.Writer, rec entities.Record) error {
	if err := printTemplate.Execute(w, NewPrintDocument(rec)); err != nil {
		return fmt.Errorf("rendering print document: %w", err)
	}
	return nil
}
