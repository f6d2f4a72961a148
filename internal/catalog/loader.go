package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SuccessMessage is the status reported when a load or reindex completes.
const SuccessMessage = "success"

// Load reads every existing source in order and returns the concatenated
// records. Missing files are skipped. ErrNoData is returned when no
// records were found at all.
func Load(sources []string) ([]VenueRecord, error) {
	var records []VenueRecord
	for _, source := range sources {
		batch, err := loadSource(source)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoData, strings.Join(sources, ", "))
	}
	return records, nil
}

// LoadResult runs Load and reports the outcome as a count and status message.
func LoadResult(sources []string) (int, string) {
	records, err := Load(sources)
	if err != nil {
		return 0, err.Error()
	}
	return len(records), SuccessMessage
}

func loadSource(path string) ([]VenueRecord, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	raw, err := decodeSource(path, data)
	if err != nil {
		return nil, err
	}

	records := make([]VenueRecord, 0, len(raw))
	for i, item := range raw {
		field, detail, err := validateRecord(item)
		if err != nil {
			return nil, fmt.Errorf("validate %s record %d: %w", path, i, err)
		}
		if field != "" {
			return nil, &MalformedRecordError{Source: path, Index: i, Field: field, Detail: detail}
		}
		record, err := toRecord(item)
		if err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", path, i, err)
		}
		records = append(records, record.normalized())
	}
	return records, nil
}

func decodeSource(path string, data []byte) ([]any, error) {
	var raw []any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q for %s", filepath.Ext(path), path)
	}
	return raw, nil
}

func toRecord(item any) (VenueRecord, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return VenueRecord{}, err
	}
	var record VenueRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return VenueRecord{}, err
	}
	return record, nil
}
