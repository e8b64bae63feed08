package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mpp-chat-portal/internal/models"
)

// Field names the model is instructed to use, plus the alternates it is known to emit.
const (
	keyName         = "namaLayanan"
	keyLegalBasis   = "dasarHukum"
	keyRequirements = "persyaratan"
	keyProcedure    = "sistemMekanismeProsedur"
	keyDuration     = "jangkaWaktu"
	keyLocation     = "lokasiGerai"
	keyFee          = "biaya"
	keyNote         = "catatanTambahan"

	altProcedure = "prosedur"
	altDuration  = "waktuPelayanan"
)

var (
	ErrEmptyResponse = errors.New("language model returned an empty response")
	ErrMissingFields = errors.New("record is missing required fields")
	ErrNotAnObject   = errors.New("candidate is not a JSON object")
)

// ------------------------------------------------------------------------------------------------------
// Resolve turns raw model output into a ServiceRecord when it carries one, otherwise into
// cleaned narrative text. Only an empty response is an error; malformed records are text.
func Resolve(raw string) (models.Reply, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Reply{}, ErrEmptyResponse
	}

	text := Normalize(trimmed)

	if candidate, ok := Candidate(text); ok {
		if record, err := ParseRecord(candidate); err == nil {
			return models.RecordReply(record), nil
		}
	}

	return models.TextReply(StripFences(text)), nil
}

// ------------------------------------------------------------------------------------------------------
// ParseRecord parses a JSON candidate into a ServiceRecord. Strict JSON is tried first and
// the quote-repaired form second.
func ParseRecord(candidate string) (*models.ServiceRecord, error) {
	fields, err := decodeObject(candidate)
	if err != nil {
		repaired, repairErr := decodeObject(RepairQuotes(candidate))
		if repairErr != nil {
			return nil, fmt.Errorf("parse candidate: %w", err)
		}
		fields = repaired
	}

	migrateFields(fields)

	if err := validateFields(fields); err != nil {
		return nil, err
	}

	return toRecord(fields)
}

// ------------------------------------------------------------------------------------------------------
func decodeObject(candidate string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, ErrNotAnObject
	}
	return fields, nil
}

// ------------------------------------------------------------------------------------------------------
// migrateFields maps alternate field names onto the canonical ones and fills the location.
func migrateFields(fields map[string]any) {
	if steps, ok := fields[altProcedure].([]any); ok {
		fields[keyProcedure] = steps
		delete(fields, altProcedure)
	}

	if present(fields[altDuration]) && !present(fields[keyDuration]) {
		fields[keyDuration] = fields[altDuration]
		delete(fields, altDuration)
	}

	if !present(fields[keyLocation]) {
		fields[keyLocation] = models.DefaultLocation
	}
}

// ------------------------------------------------------------------------------------------------------
func validateFields(fields map[string]any) error {
	if !present(fields[keyName]) {
		return fmt.Errorf("%w: %s", ErrMissingFields, keyName)
	}
	if _, ok := fields[keyRequirements].([]any); !ok {
		return fmt.Errorf("%w: %s", ErrMissingFields, keyRequirements)
	}
	if _, ok := fields[keyProcedure].([]any); !ok {
		return fmt.Errorf("%w: %s", ErrMissingFields, keyProcedure)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func toRecord(fields map[string]any) (*models.ServiceRecord, error) {
	record := &models.ServiceRecord{
		Name:         scalar(fields[keyName]),
		LegalBasis:   list(fields[keyLegalBasis]),
		Requirements: list(fields[keyRequirements]),
		Procedure:    list(fields[keyProcedure]),
		Duration:     scalar(fields[keyDuration]),
		Location:     scalar(fields[keyLocation]),
		Fee:          scalar(fields[keyFee]),
		Note:         scalar(fields[keyNote]),
	}

	if record.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, keyName)
	}
	if record.Requirements == nil {
		record.Requirements = []string{}
	}
	if record.Procedure == nil {
		record.Procedure = []string{}
	}

	return record, nil
}

// ------------------------------------------------------------------------------------------------------
// present mirrors the truthiness the model contract relies on: null, "", false and 0 are absent.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	default:
		return true
	}
}

// ------------------------------------------------------------------------------------------------------
func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64, bool:
		return fmt.Sprint(val)
	default:
		return ""
	}
}

// ------------------------------------------------------------------------------------------------------
// list accepts an array of scalars; a lone string is treated as a one-item list.
func list(v any) []string {
	switch val := v.(type) {
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalar(item); s != "" {
				items = append(items, s)
			}
		}
		return items
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	}
	return nil
}
