package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/giygas/rxcomposer/entities"
	"github.com/xuri/excelize/v2"
)

func sampleRecord() entities.Record {
	return entities.Record{
		Patient: entities.Patient{Name: "Asha Rao", Age: "34", Gender: "F", Phone: "555-0101", ID: "P-20260305-AB12", VisitDate: "2026-03-05"},
		Vitals:  entities.Vitals{BP: "120/80", Pulse: "72", Weight: "60", Height: "165", BMI: "22.0"},
		Notes: entities.Notes{
			ChiefComplaint: "<p>fever, 3 days</p>",
			Observation:    "<p>throat \"red\"</p><p>no rash</p>",
			Investigation:  "CBC",
			Diagnosis:      "<b>URTI</b>",
			DoctorNotes:    "review in 5 days",
		},
		Branding: entities.Branding{ClinicName: "Sunrise  Clinic", DoctorName: "Dr K"},
		Rx: []entities.CartEntry{
			{ID: "1", Type: "Tab", Name: "Paracetamol", Dosage: "500 mg", Timings: "1-0-1", Days: "3", Remarks: "after food"},
			{ID: "2", Type: "Syp", Name: "Cough syrup", Dosage: "5 ml", Timings: "tds", Days: "5"},
		},
		PrintedAt: time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC),
	}
}

func TestFilenames(t *testing.T) {
	rec := sampleRecord()

	if got := CSVFilename(rec); got != "patient_P-20260305-AB12.csv" {
		t.Errorf("unexpected csv name %q", got)
	}
	if got := XLSXFilename(rec); got != "Sunrise_Clinic_prescription_P-20260305-AB12.xlsx" {
		t.Errorf("unexpected xlsx name %q", got)
	}

	rec.Branding.ClinicName = ""
	if got := XLSXFilename(rec); got != "Hospital_prescription_P-20260305-AB12.xlsx" {
		t.Errorf("default clinic not applied: %q", got)
	}
	if got := PDFFilename(entities.Record{Patient: entities.Patient{ID: `a"b/c`}}); got != "prescription_abc.pdf" {
		t.Errorf("unsafe characters should be dropped: %q", got)
	}
}

func TestFlattenMedicines(t *testing.T) {
	got := FlattenMedicines(sampleRecord().Rx)
	expected := "Tab|Paracetamol|500 mg|1-0-1|3|after food || Syp|Cough syrup|5 ml|tds|5|"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if FlattenMedicines(nil) != "" {
		t.Error("empty cart should flatten to empty string")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw := buf.String()
	if !strings.Contains(raw, "\r\n") {
		t.Error("expected CRLF line endings")
	}

	rows, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if len(rows[0]) != 20 || len(rows[1]) != 20 {
		t.Fatalf("expected 20 columns, got %d/%d", len(rows[0]), len(rows[1]))
	}
	if rows[0][19] != "Medicines (Type|Name|Dose|Freq|Dur|Remarks)" {
		t.Errorf("unexpected last header %q", rows[0][19])
	}

	row := rows[1]
	checks := map[int]string{
		0:  "P-20260305-AB12",
		1:  "Asha Rao",
		5:  "2026-03-05",
		6:  "120/80",
		13: "22.0",
		15: "fever, 3 days",
		16: "throat \"red\"\nno rash",
		18: "URTI",
		19: "Tab|Paracetamol|500 mg|1-0-1|3|after food || Syp|Cough syrup|5 ml|tds|5|",
	}
	for col, want := range checks {
		if row[col] != want {
			t.Errorf("column %d (%s): expected %q, got %q", col, rows[0][col], want, row[col])
		}
	}
}

func TestBuildWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	expectedSheets := []string{SheetPatient, SheetVitals, SheetNotes, SheetPrescription}
	if strings.Join(sheets, ",") != strings.Join(expectedSheets, ",") {
		t.Fatalf("expected sheets %v, got %v", expectedSheets, sheets)
	}

	patient, err := f.GetRows(SheetPatient)
	if err != nil {
		t.Fatal(err)
	}
	if len(patient) != 9 || patient[0][0] != "Field" || patient[1][1] != "Asha Rao" || patient[8][1] != "Sunrise  Clinic" {
		t.Errorf("unexpected patient sheet %v", patient)
	}

	notes, _ := f.GetRows(SheetNotes)
	if len(notes) != 6 || notes[5][0] != "Doctor Notes" || notes[5][1] != "review in 5 days" {
		t.Errorf("unexpected notes sheet %v", notes)
	}
	if notes[4][1] != "URTI" {
		t.Errorf("diagnosis should be plain text, got %q", notes[4][1])
	}

	rx, _ := f.GetRows(SheetPrescription)
	if len(rx) != 3 {
		t.Fatalf("expected header and 2 rows, got %v", rx)
	}
	if rx[0][0] != "SlNo" || rx[1][0] != "1" || rx[2][2] != "Cough syrup" || rx[1][6] != "after food" {
		t.Errorf("unexpected prescription sheet %v", rx)
	}
}

func TestPrintHTMLCompleteness(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePrintHTML(&buf, sampleRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}

	sections := map[string]string{
		"#co":     "C/o: fever, 3 days",
		"#obs":    "Observation: throat \"red\"\nno rash",
		"#invest": "Investigation: CBC",
		"#dx":     "Diagnosis: URTI",
	}
	for sel, want := range sections {
		if got := strings.TrimSpace(doc.Find(sel).Text()); got != want {
			t.Errorf("%s: expected %q, got %q", sel, want, got)
		}
	}

	rows := doc.Find("#rx tbody tr")
	if rows.Length() != 2 {
		t.Fatalf("expected 2 medicine rows, got %d", rows.Length())
	}
	if got := rows.First().Find("td").Eq(1).Text(); got != "Paracetamol" {
		t.Errorf("unexpected first medicine %q", got)
	}
	if got := rows.Last().Find("td").Eq(5).Text(); got != "" {
		t.Errorf("empty remarks should render empty, got %q", got)
	}

	if doc.Find(".clinic").Text() != "Sunrise  Clinic" || doc.Find(".doctor").Text() != "Dr K" {
		t.Error("branding header missing")
	}
	if doc.Find(".contact").Text() != entities.DefaultContactLine {
		t.Error("contact line default not applied")
	}
	if doc.Find(".logo-placeholder").Length() != 1 {
		t.Error("expected logo placeholder without a logo")
	}
	if !strings.Contains(doc.Find(".signature").Text(), "Signature") {
		t.Error("signature line missing")
	}
}

func TestPrintHTMLEmptyAndEscaping(t *testing.T) {
	rec := entities.Record{
		Patient:  entities.Patient{Name: `<script>alert("x")</script>`},
		Branding: entities.Branding{LogoImage: "data:image/png;base64,iVBORw=="},
	}

	var buf bytes.Buffer
	if err := WritePrintHTML(&buf, rec); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>alert") {
		t.Error("patient name must be escaped")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(doc.Find("#rx tbody").Text()); got != "No medicines" {
		t.Errorf("expected empty row, got %q", got)
	}
	for _, sel := range []string{"#co", "#obs", "#invest", "#dx"} {
		if !strings.HasSuffix(strings.TrimSpace(doc.Find(sel).Text()), "--") {
			t.Errorf("%s should show a placeholder", sel)
		}
	}
	if src, _ := doc.Find("img.logo").Attr("src"); src != "data:image/png;base64,iVBORw==" {
		t.Errorf("logo data URL not rendered, got %q", src)
	}
	if doc.Find(".clinic").Text() != entities.DefaultClinicName {
		t.Error("default clinic name not applied")
	}
}

func TestPrintRejectsNonImageLogo(t *testing.T) {
	doc := NewPrintDocument(entities.Record{Branding: entities.Branding{LogoImage: "javascript:alert(1)"}})
	if doc.Logo != "" {
		t.Errorf("non-image logo should be dropped, got %q", doc.Logo)
	}
}

func TestPDFWithoutFont(t *testing.T) {
	r := &PDFRenderer{FontPaths: []string{"/nonexistent/font.ttf"}}
	err := r.WritePDF(&bytes.Buffer{}, sampleRecord())
	if !errors.Is(err, ErrFontUnavailable) {
		t.Errorf("expected ErrFontUnavailable, got %v", err)
	}
}

func TestPDFRender(t *testing.T) {
	r := NewPDFRenderer("")
	var buf bytes.Buffer
	err := r.WritePDF(&buf, sampleRecord())
	if errors.Is(err, ErrFontUnavailable) {
		t.Skip("no system TrueType font available")
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestDecodeDataURL(t *testing.T) {
	if got := decodeDataURL("data:image/png;base64,aGk="); string(got) != "hi" {
		t.Errorf("unexpected decode %q", got)
	}
	for _, bad := range []string{"", "http://x/logo.png", "data:image/png,raw", "data:image/png;base64,!!"} {
		if decodeDataURL(bad) != nil {
			t.Errorf("expected nil for %q", bad)
		}
	}
}
