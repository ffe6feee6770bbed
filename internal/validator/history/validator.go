// Package history validates persisted tracker history files.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
)

const datePattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`

// layoutSchema: every dated entry maps machine numbers to one machine code.
const layoutSchema = `{
  "type": "object",
  "patternProperties": {
    "` + datePattern + `": {
      "type": "object",
      "additionalProperties": {"type": ["string", "number"]}
    }
  }
}`

// pairingSchema: every dated entry maps mold numbers to a list of machine codes.
const pairingSchema = `{
  "type": "object",
  "patternProperties": {
    "` + datePattern + `": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": ["string", "number"]}
      }
    }
  }
}`

// Validator checks one history file against the schema for its kind.
type Validator struct {
	filePath string
	kind     snapshot.Kind
	now      func() time.Time
}

// NewValidator creates a new history validator
func NewValidator(filePath string, kind snapshot.Kind) *Validator {
	return &Validator{filePath: filePath, kind: kind, now: time.Now}
}

// Validate checks data. Schema violations are errors; tolerated oddities
// (non-date keys, empty snapshots, unsorted pairing lists) are warnings.
func (v *Validator) Validate(data []byte) (*ValidationResult, error) {
	res := &ValidationResult{
		Version:     1,
		GeneratedAt: v.now().UTC().Format(time.RFC3339),
		File:        v.filePath,
		Kind:        string(v.kind),
		Issues:      []ValidationIssue{},
	}

	var schema string
	switch v.kind {
	case snapshot.KindLayout:
		schema = layoutSchema
	case snapshot.KindPairing:
		schema = pairingSchema
	default:
		return nil, fmt.Errorf("unknown history kind %q", v.kind)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		// Not JSON at all
		res.add("error", "", fmt.Sprintf("unparsable history: %v", err))
		return res, nil
	}
	for _, e := range result.Errors() {
		res.add("error", e.Field(), e.Description())
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return res, nil
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !snapshot.IsDateKey(k) {
			res.add("warn", k, "non-date key is preserved but ignored")
			continue
		}
		res.Summary.Entries++
		v.checkEntry(res, k, doc[k])
	}
	return res, nil
}

func (v *Validator) checkEntry(res *ValidationResult, key string, raw json.RawMessage) {
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		return // already reported by the schema
	}
	if len(entry) == 0 {
		res.add("warn", key, "empty snapshot")
		return
	}
	if v.kind != snapshot.KindPairing {
		return
	}
	molds := make([]string, 0, len(entry))
	for m := range entry {
		molds = append(molds, m)
	}
	sort.Strings(molds)
	for _, mold := range molds {
		list, ok := entry[mold].([]any)
		if !ok {
			continue
		}
		prev := ""
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if i > 0 && s <= prev {
				res.add("warn", key+"."+mold, "machine list is not sorted and unique")
				break
			}
			prev = s
		}
	}
}

func (r *ValidationResult) add(typ, field, msg string) {
	r.Issues = append(r.Issues, ValidationIssue{Type: typ, Field: field, Message: msg})
	switch typ {
	case "warn":
		r.Summary.Warn++
	case "error":
		r.Summary.Error++
	}
}
