package medicines

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/logging"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a dataset.
type Format string

const (
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from a file name or URL path extension,
// then from the content type. JSON is the default.
func DetectFormat(name, contentType string) Format {
	switch strings.ToLower(path.Ext(strings.SplitN(name, "?", 2)[0])) {
	case ".tsv", ".txt":
		return FormatTSV
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "yaml"):
		return FormatYAML
	case strings.Contains(ct, "tab-separated"), strings.HasPrefix(ct, "text/plain"):
		return FormatTSV
	}
	return FormatJSON
}

// toUTF8 returns raw as-is when it is valid UTF-8, else decodes it as ISO-8859-1.
func toUTF8(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return raw, nil
	}
	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("decoding ISO-8859-1: %w", err)
	}
	return decoded, nil
}

// Decode parses raw dataset bytes in the given format.
func Decode(raw []byte, format Format) ([]entities.Medicine, error) {
	body, err := toUTF8(raw)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatTSV:
		return decodeTSV(body)
	case FormatYAML:
		var meds []entities.Medicine
		if err := yaml.Unmarshal(body, &meds); err != nil {
			return nil, fmt.Errorf("parsing YAML dataset: %w", err)
		}
		return meds, nil
	default:
		return decodeJSON(body)
	}
}

// decodeJSON accepts either a bare array or an object wrapping it under "medicines".
func decodeJSON(body []byte) ([]entities.Medicine, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Medicines []entities.Medicine `json:"medicines"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing JSON dataset: %w", err)
		}
		return wrapped.Medicines, nil
	}

	var meds []entities.Medicine
	if err := json.Unmarshal(trimmed, &meds); err != nil {
		return nil, fmt.Errorf("parsing JSON dataset: %w", err)
	}
	return meds, nil
}

// decodeTSV reads name, strength, form columns. A header row starting with
// "name" is skipped; missing trailing columns are left empty.
func decodeTSV(body []byte) ([]entities.Medicine, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	var records []entities.Medicine
	lineCount := 0
	skippedEmptyLines := 0

	for scanner.Scan() {
		lineCount++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			skippedEmptyLines++
			continue
		}

		fields := strings.Split(line, "\t")
		if lineCount == 1 && strings.EqualFold(strings.TrimSpace(fields[0]), "name") {
			continue
		}

		m := entities.Medicine{Name: strings.TrimSpace(fields[0])}
		if len(fields) > 1 {
			m.Strength = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			m.Form = strings.TrimSpace(fields[2])
		}
		records = append(records, m)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in TSV dataset: %w", err)
	}

	if skippedEmptyLines > 0 {
		logging.Debug("TSV dataset skip statistics",
			"empty_lines", skippedEmptyLines,
			"total_lines", lineCount,
			"records_parsed", len(records))
	}

	return records, nil
}
