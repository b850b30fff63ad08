package medicines

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/giygas/rxcomposer/data"
	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/validation"
)

func TestBuiltinIsCopy(t *testing.T) {
	a := Builtin()
	if len(a) != 10 {
		t.Fatalf("expected 10 built-in rows, got %d", len(a))
	}
	if a[0].Name != "Amoxicillin" || a[9].Name != "Ranitidine" {
		t.Errorf("unexpected built-in order: %s ... %s", a[0].Name, a[9].Name)
	}

	a[0].Name = "changed"
	if Builtin()[0].Name != "Amoxicillin" {
		t.Error("Builtin should return an independent copy")
	}
}

func TestDetectFormat(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
		expected    Format
	}{
		{"meds.json", "", FormatJSON},
		{"meds.TSV", "", FormatTSV},
		{"meds.txt", "", FormatTSV},
		{"meds.yml", "", FormatYAML},
		{"/data/meds.yaml?v=2", "", FormatYAML},
		{"/download", "application/yaml", FormatYAML},
		{"/download", "text/tab-separated-values", FormatTSV},
		{"/download", "application/json", FormatJSON},
		{"/download", "", FormatJSON},
	}

	for _, tc := range testCases {
		t.Run(tc.name+"|"+tc.contentType, func(t *testing.T) {
			if got := DetectFormat(tc.name, tc.contentType); got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		format   Format
		expected []entities.Medicine
	}{
		{
			name:   "json array",
			raw:    `[{"name":"Amoxicillin","strength":"500 mg","form":"tab"},{"name":"Saline"}]`,
			format: FormatJSON,
			expected: []entities.Medicine{
				{Name: "Amoxicillin", Strength: "500 mg", Form: "tab"},
				{Name: "Saline"},
			},
		},
		{
			name:     "json wrapped",
			raw:      `{"medicines":[{"name":"Cetirizine","strength":"10 mg","form":"tab"}]}`,
			format:   FormatJSON,
			expected: []entities.Medicine{{Name: "Cetirizine", Strength: "10 mg", Form: "tab"}},
		},
		{
			name:   "tsv with header",
			raw:    "name\tstrength\tform\r\nOmeprazole\t20 mg\tcap\r\n\r\nZinc\r\n",
			format: FormatTSV,
			expected: []entities.Medicine{
				{Name: "Omeprazole", Strength: "20 mg", Form: "cap"},
				{Name: "Zinc"},
			},
		},
		{
			name:     "tsv latin-1",
			raw:      "Ac\xe9tamine\t500 mg\ttab\n",
			format:   FormatTSV,
			expected: []entities.Medicine{{Name: "Acétamine", Strength: "500 mg", Form: "tab"}},
		},
		{
			name:   "yaml",
			raw:    "- name: Salbutamol\n  strength: 2 mg\n  form: inh\n- name: Ibuprofen\n  strength: 400 mg\n  form: tab\n",
			format: FormatYAML,
			expected: []entities.Medicine{
				{Name: "Salbutamol", Strength: "2 mg", Form: "inh"},
				{Name: "Ibuprofen", Strength: "400 mg", Form: "tab"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.raw), tc.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.expected) {
				t.Fatalf("expected %d rows, got %d: %+v", len(tc.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("row %d: expected %+v, got %+v", i, tc.expected[i], got[i])
				}
			}
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte(`[{"name":`), FormatJSON); err == nil {
		t.Error("expected JSON error")
	}
	if _, err := Decode([]byte("- name: [unclosed"), FormatYAML); err == nil {
		t.Error("expected YAML error")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "meds.json")
	content := `[{"name":"Amoxicillin","strength":"500 mg","form":"tab"},{"name":"   "}]`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(file, "", validation.NewDataValidator())
	meds, source, err := loader.LoadMedicines(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != file {
		t.Errorf("expected source %s, got %s", file, source)
	}
	if len(meds) != 1 {
		t.Errorf("invalid row should be skipped, got %d rows", len(meds))
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.json"), "", nil)
	if _, _, err := loader.LoadMedicines(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meds.tsv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("Paracetamol\t500 mg\ttab\nMetformin\t500 mg\ttab\n"))
	}))
	defer server.Close()

	loader := NewLoader("", server.URL+"/meds.tsv", validation.NewDataValidator())
	meds, _, err := loader.LoadMedicines(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meds) != 2 || meds[1].Name != "Metformin" {
		t.Errorf("unexpected rows: %+v", meds)
	}

	loader.URL = server.URL + "/missing.json"
	if _, _, err := loader.LoadMedicines(context.Background()); err == nil {
		t.Error("expected error for 404")
	}
}

func TestLoadDefaultsToBuiltin(t *testing.T) {
	meds, source, err := NewLoader("", "", nil).LoadMedicines(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceBuiltin || len(meds) != 10 {
		t.Errorf("expected built-in list, got %s with %d rows", source, len(meds))
	}
}

type failingLoader struct{}

func (failingLoader) LoadMedicines(context.Context) ([]entities.Medicine, string, error) {
	return nil, "broken", errors.New("boom")
}

func TestPopulateFallsBack(t *testing.T) {
	store := data.NewDataContainer()

	if err := Populate(context.Background(), store, failingLoader{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.GetSource() != SourceBuiltin {
		t.Errorf("expected builtin source, got %s", store.GetSource())
	}
	if len(store.GetMedicines()) != 10 {
		t.Errorf("expected 10 medicines, got %d", len(store.GetMedicines()))
	}
	if store.IsLoading() {
		t.Error("store should not be loading after Populate")
	}
}

func TestPopulateRejectsConcurrentLoad(t *testing.T) {
	store := data.NewDataContainer()
	store.BeginUpdate()
	defer store.EndUpdate()

	if err := Populate(context.Background(), store, failingLoader{}); err == nil {
		t.Error("expected error while another load is running")
	}
}
