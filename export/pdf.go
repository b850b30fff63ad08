package export

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/logging"
	"github.com/signintech/gopdf"
)

// ErrFontUnavailable is returned when no TrueType font could be loaded.
var ErrFontUnavailable = errors.New("no usable font for PDF export")

// DefaultFontPaths are tried after the configured font.
var DefaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

const (
	pdfFont      = "body"
	pdfMargin    = 40.0
	pdfLineWidth = 515.0
	pdfBottom    = 800.0
)

// PDFRenderer draws the prescription on A4 pages.
type PDFRenderer struct {
	FontPaths []string
}

// NewPDFRenderer tries fontPath first, then DefaultFontPaths.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	paths := make([]string, 0, len(DefaultFontPaths)+1)
	if fontPath != "" {
		paths = append(paths, fontPath)
	}
	return &PDFRenderer{FontPaths: append(paths, DefaultFontPaths...)}
}

func (r *PDFRenderer) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range r.FontPaths {
		if err := pdf.AddTTFFont(pdfFont, path); err != nil {
			lastErr = err
			continue
		}
		logging.Debug("PDF font loaded", "path", path)
		return nil
	}
	return fmt.Errorf("%w: %v", ErrFontUnavailable, lastErr)
}

type pdfWriter struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *pdfWriter) font(size float64) {
	if w.err == nil {
		w.err = w.pdf.SetFont(pdfFont, "", size)
	}
}

// line writes text wrapped to the page width, starting a new page as needed.
func (w *pdfWriter) line(text string, height float64) {
	if w.err != nil {
		return
	}
	parts, err := w.pdf.SplitText(text, pdfLineWidth)
	if err != nil || len(parts) == 0 {
		parts = []string{text}
	}
	for _, p := range parts {
		if w.pdf.GetY()+height > pdfBottom {
			w.pdf.AddPage()
			w.pdf.SetY(pdfMargin)
		}
		w.pdf.SetX(pdfMargin)
		if err := w.pdf.Cell(nil, p); err != nil {
			w.err = err
			return
		}
		w.pdf.Br(height)
	}
}

func (w *pdfWriter) gap(h float64) {
	if w.err == nil {
		w.pdf.Br(h)
	}
}

// WritePDF renders rec and writes the document to out.
func (r *PDFRenderer) WritePDF(out io.Writer, rec entities.Record) error {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := r.loadFont(pdf); err != nil {
		return err
	}

	doc := NewPrintDocument(rec)
	w := &pdfWriter{pdf: pdf}
	pdf.SetY(pdfMargin)

	if img := decodeDataURL(rec.Branding.LogoImage); img != nil {
		if holder, err := gopdf.ImageHolderByBytes(img); err == nil {
			if err := pdf.ImageByHolder(holder, pdfMargin+pdfLineWidth-50, pdfMargin, &gopdf.Rect{W: 50, H: 50}); err != nil {
				logging.Warn("Skipping logo in PDF", "error", err)
			}
		}
	}

	w.font(18)
	w.line(doc.Branding.ClinicName, 24)
	w.font(11)
	w.line(doc.Branding.DoctorName, 15)
	w.line(doc.Branding.ContactLine, 15)
	w.line(doc.Printed, 15)
	w.gap(10)

	meta := "Patient: " + orDash(doc.Patient.Name) + "   Age: " + orDash(doc.Patient.Age) +
		"   Gender: " + orDash(doc.Patient.Gender) + "   ID: " + doc.Patient.ID
	if doc.Patient.VisitDate != "" {
		meta += "   Visit: " + doc.Patient.VisitDate
	}
	w.line(meta, 15)
	w.line("Vitals: "+orDash(doc.Vitals), 15)
	w.gap(6)

	for _, s := range doc.Sections {
		text := orDash(s.Text)
		for i, l := range strings.Split(text, "\n") {
			if i == 0 {
				l = s.Label + ": " + l
			}
			w.line(l, 14)
		}
		w.gap(4)
	}

	w.gap(6)
	w.font(13)
	w.line("Rx", 18)
	w.font(11)
	if len(doc.Rx) == 0 {
		w.line("No medicines", 14)
	}
	for i, m := range doc.Rx {
		fields := []string{m.Type, m.Name, m.Dosage, m.Timings, m.Days, m.Remarks}
		kept := fields[:0]
		for _, f := range fields {
			if f != "" {
				kept = append(kept, f)
			}
		}
		w.line(strconv.Itoa(i+1)+". "+strings.Join(kept, " | "), 14)
	}

	w.gap(30)
	w.line("Signature: ____________________", 14)

	if w.err != nil {
		return fmt.Errorf("drawing PDF: %w", w.err)
	}
	if _, err := pdf.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

// decodeDataURL returns the bytes of a base64 data URL, or nil.
func decodeDataURL(s string) []byte {
	if !strings.HasPrefix(s, "data:") {
		return nil
	}
	_, payload, ok := strings.Cut(s, ";base64,")
	if !ok {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return raw
}
