package medicines

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/logging"
)

// maxDatasetSize bounds a downloaded or read dataset.
const maxDatasetSize = 64 << 20

// Compile-time check to ensure Loader implements interfaces.Loader
var _ interfaces.Loader = (*Loader)(nil)

// Loader reads the reference dataset from a URL, else a file, else the built-in list.
type Loader struct {
	File      string
	URL       string
	Validator interfaces.DataValidator
	Client    *http.Client
}

// NewLoader creates a loader. Empty file and url select the built-in list.
func NewLoader(file, url string, validator interfaces.DataValidator) *Loader {
	return &Loader{
		File:      file,
		URL:       url,
		Validator: validator,
		Client:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// LoadMedicines returns the validated rows and a description of their source.
func (l *Loader) LoadMedicines(ctx context.Context) ([]entities.Medicine, string, error) {
	var (
		raw    []byte
		source string
		format Format
		err    error
	)

	switch {
	case l.URL != "":
		raw, format, err = l.download(ctx)
		source = l.URL
	case l.File != "":
		raw, err = readFile(l.File)
		format = DetectFormat(l.File, "")
		source = l.File
	default:
		return Builtin(), SourceBuiltin, nil
	}
	if err != nil {
		return nil, source, err
	}

	meds, err := Decode(raw, format)
	if err != nil {
		return nil, source, fmt.Errorf("%s: %w", source, err)
	}

	meds = l.filterValid(meds, source)
	if len(meds) == 0 {
		return nil, source, fmt.Errorf("%s: no valid medicines", source)
	}
	return meds, source, nil
}

func (l *Loader) filterValid(meds []entities.Medicine, source string) []entities.Medicine {
	if l.Validator == nil {
		return meds
	}

	valid := meds[:0]
	skipped := 0
	for i := range meds {
		if err := l.Validator.ValidateMedicine(&meds[i]); err != nil {
			skipped++
			continue
		}
		valid = append(valid, meds[i])
	}

	if skipped > 0 {
		logging.Warn("Skipped invalid dataset rows",
			"source", source,
			"skipped", skipped,
			"records_parsed", len(valid))
	}
	return valid
}

func readFile(name string) ([]byte, error) {
	cleanPath := filepath.Clean(name)
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cleanPath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close dataset file", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(f, maxDatasetSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cleanPath, err)
	}
	return raw, nil
}

func (l *Loader) download(ctx context.Context) ([]byte, Format, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid dataset URL %s: %w", l.URL, err)
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", l.URL, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download %s: status %d", l.URL, response.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxDatasetSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return raw, DetectFormat(req.URL.Path, response.Header.Get("Content-Type")), nil
}

// Populate loads the dataset into store once. Any load failure falls back
// to the built-in list so the composer always has a reference set.
func Populate(ctx context.Context, store interfaces.ReferenceStore, loader interfaces.Loader) error {
	if !store.BeginUpdate() {
		return fmt.Errorf("reference data is already loading")
	}
	defer store.EndUpdate()

	start := time.Now()
	meds, source, err := loader.LoadMedicines(ctx)
	if err != nil {
		logging.Warn("Medicine dataset unavailable, using built-in list", "source", source, "error", err)
		meds, source = Builtin(), SourceBuiltin
	}

	store.UpdateData(meds, source)
	logging.Info("Medicine reference loaded",
		"source", source,
		"count", len(meds),
		"duration", time.Since(start))
	return nil
}
