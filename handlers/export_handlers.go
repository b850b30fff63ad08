package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/export"
	"github.com/giygas/rxcomposer/logging"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
	contentTypeJSON = "application/json; charset=utf-8"
)

// exportRecord assigns the patient id before the snapshot so every export
// carries one.
func (h *HTTPHandlerImpl) exportRecord() entities.Record {
	h.session.AssignPatientID()
	return h.session.Record()
}

// sendAttachment renders into memory first so a failure can still be
// reported as JSON.
func (h *HTTPHandlerImpl) sendAttachment(w http.ResponseWriter, contentType, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, export.ErrFontUnavailable) {
			logging.Warn("PDF export unavailable", "error", err)
			h.RespondWithError(w, http.StatusServiceUnavailable, "PDF export needs a TrueType font; set PDF_FONT_PATH")
			return
		}
		logging.Error("Export failed", "filename", filename, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Warn("Failed to write export", "filename", filename, "error", err)
	}
}

// ExportCSV downloads the single-row patient CSV
func (h *HTTPHandlerImpl) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rec := h.exportRecord()
	h.sendAttachment(w, contentTypeCSV, export.CSVFilename(rec), func(out io.Writer) error {
		return export.WriteCSV(out, rec)
	})
}

// ExportXLSX downloads the four-sheet workbook
func (h *HTTPHandlerImpl) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	rec := h.exportRecord()
	h.sendAttachment(w, contentTypeXLSX, export.XLSXFilename(rec), func(out io.Writer) error {
		return export.WriteXLSX(out, rec)
	})
}

// ExportPDF downloads the printable prescription as PDF
func (h *HTTPHandlerImpl) ExportPDF(w http.ResponseWriter, r *http.Request) {
	rec := h.exportRecord()
	h.sendAttachment(w, contentTypePDF, export.PDFFilename(rec), func(out io.Writer) error {
		return h.pdf.WritePDF(out, rec)
	})
}

// ExportJSON downloads the roster, autosave record and cart
func (h *HTTPHandlerImpl) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.sendAttachment(w, contentTypeJSON, export.BundleFilename, func(out io.Writer) error {
		bundle, err := h.session.ExportBundle(r.Context())
		if err != nil {
			return err
		}
		_, err = out.Write(bundle)
		return err
	})
}

// Print serves the printable HTML document
func (h *HTTPHandlerImpl) Print(w http.ResponseWriter, r *http.Request) {
	rec := h.session.Record()

	var buf bytes.Buffer
	if err := export.WritePrintHTML(&buf, rec); err != nil {
		logging.Error("Print rendering failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "could not render print document")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
